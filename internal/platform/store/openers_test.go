package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPingWithRetry_SucceedsAfterFailures(t *testing.T) {
	t.Parallel()

	calls := 0
	err := pingWithRetry(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	}, 5, time.Second)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestPingWithRetry_GivesUp(t *testing.T) {
	t.Parallel()

	calls := 0
	err := pingWithRetry(context.Background(), func(context.Context) error {
		calls++
		return errors.New("refused")
	}, 2, time.Second)
	if err == nil || calls != 2 {
		t.Fatalf("expected failure after 2 calls, got err=%v calls=%d", err, calls)
	}
	if err.Error() != "ping failed after 2 attempts: refused" {
		t.Fatalf("unexpected error text: %v", err)
	}
}

func TestPingWithRetry_ParentCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := pingWithRetry(ctx, func(context.Context) error { return errors.New("refused") }, 10, time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("cancel should short-circuit backoff")
	}
}

func TestPingWithRetry_CancelDuringBackoff(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := pingWithRetry(ctx, func(context.Context) error { return errors.New("refused") }, 50, time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestOpenPG_BadURL(t *testing.T) {
	t.Parallel()

	_, err := openPG(context.Background(), Config{PG: PGConfig{URL: "://bad"}}, &Store{})
	if err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestOpenCH_EmptyURL(t *testing.T) {
	t.Parallel()

	if _, err := openCH(context.Background(), Config{}, &Store{}); err == nil {
		t.Fatalf("expected error for empty clickhouse url")
	}
}
