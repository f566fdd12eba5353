package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	perr "vqamerge/internal/platform/errors"
	"vqamerge/internal/platform/store"
	kit "vqamerge/internal/platform/testkit"
	"vqamerge/internal/services/records/domain"
	"vqamerge/internal/services/records/repo"

	"github.com/stretchr/testify/require"
)

// fakeDB is a TxRunner whose Exec fails with execErr
type fakeDB struct {
	execs   int
	execErr error
}

func (f *fakeDB) Exec(context.Context, string, ...any) (store.CommandTag, error) {
	f.execs++
	return nil, f.execErr
}

func (f *fakeDB) Query(context.Context, string, ...any) (store.Rows, error) {
	return nil, errors.New("not used")
}

func (f *fakeDB) QueryRow(context.Context, string, ...any) store.Row { return nil }

func (f *fakeDB) Tx(_ context.Context, fn func(q store.RowQuerier) error) error { return fn(f) }

type fakeCH struct{ ddl int }

func (f *fakeCH) Exec(context.Context, string, ...any) error {
	f.ddl++
	return nil
}

func (f *fakeCH) Insert(context.Context, string, [][]any) error { return nil }

func (f *fakeCH) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }

func (f *fakeCH) Close() error { return nil }

func TestNewOpener_PanicsWithoutBackend(t *testing.T) {
	kit.MustPanic(t, func() { NewOpener(Config{Sinks: []string{domain.SinkPG}}, nil, nil) })
	kit.MustPanic(t, func() { NewOpener(Config{Sinks: []string{domain.SinkCH}}, nil, nil) })
	kit.MustNotPanic(t, func() { NewOpener(Config{}, nil, nil) })
}

func TestOpener_JSONLOnly(t *testing.T) {
	out := filepath.Join(t.TempDir(), "merged_vqa.jsonl")
	o := NewOpener(Config{Output: out}, nil, nil)

	s, err := o.Open(context.Background(), "run-1")
	require.NoError(t, err)
	require.IsType(t, &repo.JSONL{}, s)
	_, err = s.Close(context.Background())
	require.NoError(t, err)
	_, err = os.Stat(out)
	require.NoError(t, err)
}

func TestOpener_MirrorsEnsureTablesAndJSONLIsPrimary(t *testing.T) {
	ctx := context.Background()
	out := filepath.Join(t.TempDir(), "merged_vqa.jsonl")
	db, ch := &fakeDB{}, &fakeCH{}
	o := NewOpener(Config{
		Output:  out,
		Sinks:   []string{domain.SinkCH, domain.SinkPG, domain.SinkJSONL},
		Batch:   10,
		PGTable: "vqa_merged",
		CHTable: "vqa_merged",
	}, db, ch)

	require.Equal(t, []string{"jsonl", "ch", "pg"}, o.ordered())

	s, err := o.Open(ctx, "6f1c2a7e-3b1d-4e8a-9a0b-1c2d3e4f5a6b")
	require.NoError(t, err)
	require.IsType(t, &repo.Multi{}, s)
	require.Equal(t, 1, db.execs)
	require.Equal(t, 1, ch.ddl)
}

func TestOpener_FailureClosesOpenedSinks(t *testing.T) {
	out := filepath.Join(t.TempDir(), "merged_vqa.jsonl")
	db := &fakeDB{execErr: errors.New("permission denied")}
	o := NewOpener(Config{Output: out, Sinks: []string{domain.SinkJSONL, domain.SinkPG}, PGTable: "vqa_merged"}, db, nil)

	_, err := o.Open(context.Background(), "run")
	require.True(t, perr.IsCode(err, perr.ErrorCodeDB))
}

func TestOpener_UnknownSink(t *testing.T) {
	o := NewOpener(Config{Sinks: []string{"kafka"}}, nil, nil)
	_, err := o.Open(context.Background(), "run")
	require.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument))
}
