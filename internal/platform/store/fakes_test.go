package store

import (
	"context"
	"errors"

	"vqamerge/internal/platform/store/ch"
)

// fakeRow scans a fixed value into the first destination
type fakeRow struct {
	val any
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	switch d := dest[0].(type) {
	case *int64:
		*d = r.val.(int64)
	case *string:
		*d = r.val.(string)
	default:
		return errors.New("fakeRow: unsupported dest")
	}
	return nil
}

// fakeQuerier satisfies TxRunner; Ping is optional via pingErr
type fakeQuerier struct {
	row     fakeRow
	execSQL []string
	execErr error
	closed  bool
	pingErr error
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, _ ...any) (CommandTag, error) {
	f.execSQL = append(f.execSQL, sql)
	return nil, f.execErr
}

func (f *fakeQuerier) Query(context.Context, string, ...any) (Rows, error) {
	return nil, errors.New("not used")
}

func (f *fakeQuerier) QueryRow(context.Context, string, ...any) Row { return f.row }

func (f *fakeQuerier) Tx(_ context.Context, fn func(q RowQuerier) error) error { return fn(f) }

func (f *fakeQuerier) Close() error { f.closed = true; return nil }

type pingingQuerier struct {
	*fakeQuerier
}

func (p pingingQuerier) Ping(context.Context) error { return p.pingErr }

// fakeCHRows iterates over a fixed single-column result
type fakeCHRows struct {
	vals   []uint64
	i      int
	closed bool
	err    error
}

func (r *fakeCHRows) Next() bool {
	if r.i >= len(r.vals) {
		return false
	}
	r.i++
	return true
}

func (r *fakeCHRows) Scan(dest ...any) error {
	*(dest[0].(*uint64)) = r.vals[r.i-1]
	return nil
}

func (r *fakeCHRows) Err() error        { return r.err }
func (r *fakeCHRows) Close() error      { r.closed = true; return nil }
func (r *fakeCHRows) Columns() []string { return []string{"c"} }

// fakeCH satisfies chConn
type fakeCH struct {
	pingErr  error
	execSQL  []string
	inserted map[string][][]any
	rows     *fakeCHRows
	queryErr error
	closed   bool
}

func (f *fakeCH) Ping(context.Context) error { return f.pingErr }

func (f *fakeCH) Exec(_ context.Context, sql string, _ ...any) error {
	f.execSQL = append(f.execSQL, sql)
	return nil
}

func (f *fakeCH) Insert(_ context.Context, table string, rows [][]any) error {
	if f.inserted == nil {
		f.inserted = map[string][][]any{}
	}
	f.inserted[table] = append(f.inserted[table], rows...)
	return nil
}

func (f *fakeCH) Query(context.Context, string, ...any) (ch.Rows, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.rows, nil
}

func (f *fakeCH) Close() error { f.closed = true; return nil }
