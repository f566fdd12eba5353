package store

import (
	"context"
	"fmt"
	"time"

	chx "vqamerge/internal/platform/store/ch"
	"vqamerge/internal/platform/store/pg"
)

const (
	defaultConnectRetries = 20
	defaultPingTimeout    = 3 * time.Second
	backoffStart          = 150 * time.Millisecond
	backoffCeiling        = 2 * time.Second
)

// pinger is the readiness probe pingWithRetry drives
type pinger func(ctx context.Context) error

// pingWithRetry pings until success, parent cancellation or attempts run out
func pingWithRetry(ctx context.Context, ping pinger, attempts int, timeout time.Duration) error {
	if attempts <= 0 {
		attempts = defaultConnectRetries
	}
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}

	var lastErr error
	backoff := backoffStart
	for i := 0; i < attempts; i++ {
		toCtx, cancel := context.WithTimeout(ctx, timeout)
		lastErr = ping(toCtx)
		cancel()

		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		if backoff < backoffCeiling {
			backoff = min(backoff*2, backoffCeiling)
		}
	}
	return fmt.Errorf("ping failed after %d attempts: %w", attempts, lastErr)
}

// openPG opens pg and wraps it with our sql adapter once the pool answers
func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.Tracer(s.Log)
	}

	p, err := pg.Open(ctx, pg.Config{
		URL:      cfg.PG.URL,
		MaxConns: cfg.PG.MaxConns,
		SlowMs:   cfg.PG.SlowQueryMs,
		AppName:  cfg.AppName,
	}, tracer, nil)
	if err != nil {
		return nil, err
	}

	// ping the pool directly so boot probes never show up in the SQL trace
	if err := pingWithRetry(ctx, p.Pool.Ping, cfg.PG.ConnectRetries, cfg.PG.PingTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}
	return newPGAdapter(p), nil
}

// openCH opens clickhouse and verifies the server answers before publishing the seam
func openCH(ctx context.Context, cfg Config, _ *Store) (Clickhouse, error) {
	c, err := chx.Open(ctx, chx.Config{
		URL:         cfg.CH.URL,
		Role:        cfg.CH.ClientRole,
		DialTimeout: cfg.CH.DialTimeout,
	})
	if err != nil {
		return nil, err
	}
	if err := pingWithRetry(ctx, c.Ping, 0, 0); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("clickhouse: %w", err)
	}
	return newCHAdapter(c), nil
}
