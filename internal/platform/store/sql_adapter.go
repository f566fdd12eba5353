package store

import (
	"context"
	"errors"
	"time"

	"vqamerge/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgAdapter wraps pg.PG and implements RowQuerier + TxRunner
// it also emits query trace events when a tracer is configured on pg.PG
type pgAdapter struct {
	p     *pg.PG
	trace traceFn
}

func newPGAdapter(p *pg.PG) *pgAdapter {
	return &pgAdapter{p: p, trace: newTrace(p.Tracer, p.SlowMs)}
}

// traceFn reports one finished statement; nil when tracing is off
type traceFn func(ctx context.Context, sql string, args []any, start time.Time, err error)

func newTrace(tr pg.QueryTracer, slowMs int) traceFn {
	if tr == nil {
		return nil
	}
	slowUS := int64(slowMs) * 1000
	return func(ctx context.Context, sql string, args []any, start time.Time, err error) {
		elapsedUS := time.Since(start).Microseconds()
		tr.OnQuery(ctx, pg.QueryEvent{
			SQL:       sql,
			Args:      args,
			ElapsedUS: elapsedUS,
			Err:       err,
			Slow:      slowUS >= 0 && elapsedUS >= slowUS,
		})
	}
}

func (t traceFn) emit(ctx context.Context, sql string, args []any, start time.Time, err error) {
	if t != nil {
		t(ctx, sql, args, start, err)
	}
}

func (a *pgAdapter) Ping(ctx context.Context) error {
	if a == nil || a.p == nil || a.p.Pool == nil {
		return errors.New("pg: nil adapter")
	}
	return a.p.Pool.Ping(ctx)
}

func (a *pgAdapter) Close() error { a.p.Close(); return nil }

func (a *pgAdapter) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	return execTraced(ctx, a.p.Pool, a.trace, sql, args)
}

func (a *pgAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return queryTraced(ctx, a.p.Pool, a.trace, sql, args)
}

func (a *pgAdapter) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return queryRowTraced(ctx, a.p.Pool, a.trace, sql, args)
}

// Tx runs fn in one transaction, rolling back when fn or commit fails
func (a *pgAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.p.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(txQuerier{tx: tx, trace: a.trace}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// pgxQuerier is what both *pgxpool.Pool and pgx.Tx offer
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func execTraced(ctx context.Context, q pgxQuerier, tr traceFn, sql string, args []any) (CommandTag, error) {
	start := time.Now()
	ct, err := q.Exec(ctx, sql, args...)
	tr.emit(ctx, sql, args, start, err)
	return tag{ct}, err
}

func queryTraced(ctx context.Context, q pgxQuerier, tr traceFn, sql string, args []any) (Rows, error) {
	start := time.Now()
	rs, err := q.Query(ctx, sql, args...)
	tr.emit(ctx, sql, args, start, err)
	if err != nil {
		return nil, err
	}
	return rows{r: rs}, nil
}

func queryRowTraced(ctx context.Context, q pgxQuerier, tr traceFn, sql string, args []any) Row {
	start := time.Now()
	r := q.QueryRow(ctx, sql, args...)
	// emit after Scan so the scan error is part of the event
	return row{r: r, after: func(scanErr error) { tr.emit(ctx, sql, args, start, scanErr) }}
}

// txQuerier uses pgx.Tx to satisfy RowQuerier inside a Tx
type txQuerier struct {
	tx    pgx.Tx
	trace traceFn
}

func (t txQuerier) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	return execTraced(ctx, t.tx, t.trace, sql, args)
}

func (t txQuerier) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return queryTraced(ctx, t.tx, t.trace, sql, args)
}

func (t txQuerier) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return queryRowTraced(ctx, t.tx, t.trace, sql, args)
}

// adapters for pgx to our tiny Row/Rows/CommandTag

type row struct {
	r     pgx.Row
	after func(error)
}

func (x row) Scan(dst ...any) error {
	err := x.r.Scan(dst...)
	if x.after != nil {
		x.after(err)
	}
	return err
}

type rows struct{ r pgx.Rows }

func (x rows) Next() bool            { return x.r.Next() }
func (x rows) Scan(dst ...any) error { return x.r.Scan(dst...) }
func (x rows) Err() error            { return x.r.Err() }
func (x rows) Close()                { x.r.Close() }
func (x rows) Columns() []string {
	f := x.r.FieldDescriptions()
	out := make([]string, len(f))
	for i := range f {
		out[i] = f[i].Name
	}
	return out
}

type tag struct{ t pgconn.CommandTag }

func (t tag) String() string      { return t.t.String() }
func (t tag) RowsAffected() int64 { return t.t.RowsAffected() }
