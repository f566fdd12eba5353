package repo

import (
	"context"
	"errors"

	"vqamerge/internal/platform/store"
)

type fakeRow struct {
	n   int64
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int64)) = r.n
	return nil
}

type execCall struct {
	sql  string
	args []any
}

// fakeDB satisfies store.TxRunner and records every statement
type fakeDB struct {
	execs    []execCall
	txs      int
	execErr  error
	count    fakeRow
	deadline bool // last Tx ctx carried a deadline
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (store.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	return nil, f.execErr
}

func (f *fakeDB) Query(context.Context, string, ...any) (store.Rows, error) {
	return nil, errors.New("not used")
}

func (f *fakeDB) QueryRow(context.Context, string, ...any) store.Row { return f.count }

func (f *fakeDB) Tx(ctx context.Context, fn func(q store.RowQuerier) error) error {
	f.txs++
	_, f.deadline = ctx.Deadline()
	return fn(f)
}

type fakeRows struct {
	vals []uint64
	i    int
}

func (r *fakeRows) Next() bool {
	if r.i >= len(r.vals) {
		return false
	}
	r.i++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	*(dest[0].(*uint64)) = r.vals[r.i-1]
	return nil
}

func (r *fakeRows) Err() error        { return nil }
func (r *fakeRows) Close()            {}
func (r *fakeRows) Columns() []string { return []string{"n"} }

// fakeCH satisfies store.Clickhouse
type fakeCH struct {
	ddl       []string
	inserts   [][][]any
	table     string
	insertErr error
	count     []uint64
}

func (f *fakeCH) Exec(_ context.Context, sql string, _ ...any) error {
	f.ddl = append(f.ddl, sql)
	return nil
}

func (f *fakeCH) Insert(_ context.Context, table string, rows [][]any) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.table = table
	f.inserts = append(f.inserts, rows)
	return nil
}

func (f *fakeCH) Query(context.Context, string, ...any) (store.Rows, error) {
	return &fakeRows{vals: f.count}, nil
}

func (f *fakeCH) Close() error { return nil }
