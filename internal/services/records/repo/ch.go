package repo

import (
	"context"
	"fmt"

	perr "vqamerge/internal/platform/errors"
	"vqamerge/internal/platform/logger"
	"vqamerge/internal/platform/store"
	"vqamerge/internal/services/records/domain"
	"vqamerge/internal/services/records/guardrails"
)

// EnsureCHTable creates the mirror table. ReplacingMergeTree collapses replays of the same (run_id, id)
func EnsureCHTable(ctx context.Context, c store.Clickhouse, table string) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id   String,
			id       UInt64,
			image_id String,
			question String,
			answer   String
		)
		ENGINE = ReplacingMergeTree
		ORDER BY (run_id, id)`, table)
	if err := c.Exec(ctx, ddl); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "ensure table %s", table)
	}
	return nil
}

// CH mirrors records into ClickHouse with one batch insert per batch records
type CH struct {
	c     store.Clickhouse
	table string
	runID string
	batch int
	tmo   guardrails.Timeouts

	pending [][]any
	sent    int64
	closed  bool
}

// NewCH returns a ClickHouse sink for one run
func NewCH(c store.Clickhouse, table, runID string, batch int) *CH {
	if batch <= 0 {
		batch = 1000
	}
	return &CH{c: c, table: table, runID: runID, batch: batch, pending: make([][]any, 0, batch)}
}

// WithTimeouts bounds every batch insert
func (s *CH) WithTimeouts(t guardrails.Timeouts) *CH {
	s.tmo = t
	return s
}

// Write buffers r and sends a full batch
func (s *CH) Write(ctx context.Context, r domain.Record) error {
	if s.closed {
		return perr.DBf("write %s: sink closed", s.table)
	}
	s.pending = append(s.pending, []any{s.runID, uint64(r.ID), string(r.ImageID), r.Question, r.Answer})
	if len(s.pending) >= s.batch {
		return s.flush(ctx)
	}
	return nil
}

func (s *CH) flush(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}
	bctx, cancel := guardrails.ForBatch(ctx, s.tmo)
	defer cancel()
	if err := s.c.Insert(bctx, s.table, s.pending); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "insert %d records into %s", len(s.pending), s.table)
	}
	s.sent += int64(len(s.pending))
	logger.C(ctx).Debug().Str("table", s.table).Int("rows", len(s.pending)).Msg("records: ch batch")
	s.pending = make([][]any, 0, s.batch)
	return nil
}

// Count returns the distinct ids stored for this run
func (s *CH) Count(ctx context.Context) (uint64, error) {
	n, err := store.CHScalar[uint64](ctx, s.c, fmt.Sprintf("SELECT uniqExact(id) FROM %s WHERE run_id = ?", s.table), s.runID)
	if err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeDB, "count %s", s.table)
	}
	return n, nil
}

// Close sends the last partial batch and reports the distinct ids stored for the run
func (s *CH) Close(ctx context.Context) (domain.Summary, error) {
	sum := domain.Summary{Sink: domain.SinkCH, Records: s.sent}
	if s.closed {
		return sum, nil
	}
	s.closed = true
	if err := s.flush(ctx); err != nil {
		return sum, err
	}
	sum.Records = s.sent
	n, err := s.Count(ctx)
	if err != nil {
		return sum, err
	}
	if int64(n) != s.sent {
		logger.C(ctx).Warn().Int64("sent", s.sent).Uint64("stored", n).Str("table", s.table).Msg("records: ch row count differs")
	}
	sum.Records = int64(n)
	return sum, nil
}

var _ domain.SinkPort = (*CH)(nil)
