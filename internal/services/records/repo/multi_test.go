package repo

import (
	"context"
	"errors"
	"testing"

	"vqamerge/internal/services/records/domain"

	"github.com/stretchr/testify/require"
)

type memSink struct {
	name     string
	got      []domain.Record
	writeErr error
	closeErr error
	closed   bool
}

func (m *memSink) Write(_ context.Context, r domain.Record) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.got = append(m.got, r)
	return nil
}

func (m *memSink) Close(context.Context) (domain.Summary, error) {
	m.closed = true
	return domain.Summary{Sink: m.name, Records: int64(len(m.got))}, m.closeErr
}

func TestMulti_FansOutAndReturnsPrimary(t *testing.T) {
	ctx := context.Background()
	a, b := &memSink{name: "a"}, &memSink{name: "b"}
	m := NewMulti(a, b)

	require.NoError(t, m.Write(ctx, rec(1, "1", "q", "x")))
	require.NoError(t, m.Write(ctx, rec(2, "1", "q", "y")))
	sum, err := m.Close(ctx)
	require.NoError(t, err)
	require.Equal(t, "a", sum.Sink)
	require.Len(t, b.got, 2)
}

func TestMulti_StopsOnWriteErrorAndClosesAll(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	a := &memSink{name: "a", writeErr: boom}
	b := &memSink{name: "b", closeErr: errors.New("late")}
	m := NewMulti(a, b)

	require.ErrorIs(t, m.Write(ctx, rec(1, "1", "q", "x")), boom)
	require.Empty(t, b.got)

	_, err := m.Close(ctx)
	require.Error(t, err)
	require.True(t, a.closed && b.closed)
}
