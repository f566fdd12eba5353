package repo

import (
	"context"
	"fmt"
	"strings"

	perr "vqamerge/internal/platform/errors"
	"vqamerge/internal/platform/logger"
	"vqamerge/internal/platform/store"
	"vqamerge/internal/services/records/domain"
	"vqamerge/internal/services/records/guardrails"
)

// pgMaxBatch keeps one INSERT under the 65535 bind parameter limit
const pgMaxBatch = 10000

const pgCols = 5

// EnsurePGTable creates the mirror table. image_id is json, not jsonb, so the value keeps its source text
func EnsurePGTable(ctx context.Context, q store.RowQuerier, table string) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id     uuid        NOT NULL,
			id         bigint      NOT NULL,
			image_id   json        NOT NULL,
			question   text        NOT NULL,
			answer     text        NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now(),
			PRIMARY KEY (run_id, id)
		)`, table)
	_, err := store.Exec(ctx, q, ddl)
	return perr.FromPostgresf(err, "ensure table %s", table)
}

// PG mirrors records into Postgres in batches, one transaction per batch.
// Rows are keyed by (run_id, id) so a replayed batch inserts nothing
type PG struct {
	db    store.TxRunner
	table string
	runID string
	batch int
	tmo   guardrails.Timeouts

	pending []domain.Record
	sent    int64
	closed  bool
}

// NewPG returns a Postgres sink for one run
func NewPG(db store.TxRunner, table, runID string, batch int) *PG {
	if batch <= 0 {
		batch = 1000
	}
	if batch > pgMaxBatch {
		batch = pgMaxBatch
	}
	return &PG{db: db, table: table, runID: runID, batch: batch, pending: make([]domain.Record, 0, batch)}
}

// WithTimeouts bounds every batch insert
func (s *PG) WithTimeouts(t guardrails.Timeouts) *PG {
	s.tmo = t
	return s
}

// Write buffers r and flushes a full batch
func (s *PG) Write(ctx context.Context, r domain.Record) error {
	if s.closed {
		return perr.DBf("write %s: sink closed", s.table)
	}
	s.pending = append(s.pending, r)
	if len(s.pending) >= s.batch {
		return s.flush(ctx)
	}
	return nil
}

func (s *PG) flush(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}
	sql, args := s.insertSQL(s.pending)
	bctx, cancel := guardrails.ForBatch(ctx, s.tmo)
	defer cancel()
	err := s.db.Tx(bctx, func(q store.RowQuerier) error {
		_, err := q.Exec(bctx, sql, args...)
		return err
	})
	if err != nil {
		return perr.FromPostgresf(err, "insert %d records into %s", len(s.pending), s.table)
	}
	s.sent += int64(len(s.pending))
	logger.C(ctx).Debug().Str("table", s.table).Int("rows", len(s.pending)).Msg("records: pg batch")
	s.pending = s.pending[:0]
	return nil
}

func (s *PG) insertSQL(xs []domain.Record) (string, []any) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (run_id, id, image_id, question, answer) VALUES ", s.table)
	args := make([]any, 0, len(xs)*pgCols)
	for i, r := range xs {
		if i > 0 {
			sb.WriteByte(',')
		}
		base := i*pgCols + 1
		fmt.Fprintf(&sb, "($%d,$%d,$%d::json,$%d,$%d)", base, base+1, base+2, base+3, base+4)
		args = append(args, s.runID, r.ID, string(r.ImageID), r.Question, r.Answer)
	}
	sb.WriteString(" ON CONFLICT (run_id, id) DO NOTHING")
	return sb.String(), args
}

// Count returns the rows stored for this run
func (s *PG) Count(ctx context.Context) (int64, error) {
	n, err := store.Scalar[int64](ctx, s.db, fmt.Sprintf("SELECT count(*) FROM %s WHERE run_id = $1", s.table), s.runID)
	return n, perr.FromPostgresf(err, "count %s", s.table)
}

// Close flushes the last partial batch and reports the stored row count
func (s *PG) Close(ctx context.Context) (domain.Summary, error) {
	sum := domain.Summary{Sink: domain.SinkPG, Records: s.sent}
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
	if n != s.sent {
		logger.C(ctx).Warn().Int64("sent", s.sent).Int64("stored", n).Str("table", s.table).Msg("records: pg row count differs")
	}
	sum.Records = n
	return sum, nil
}

var _ domain.SinkPort = (*PG)(nil)
