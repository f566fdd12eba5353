package pg

import (
	"context"
	"strings"

	"vqamerge/internal/platform/logger"

	"github.com/rs/zerolog"
)

// maxSQLLen caps the logged statement; batch inserts expand to thousands of placeholders
const maxSQLLen = 512

// QueryEvent describes one executed statement
type QueryEvent struct {
	SQL       string
	Args      []any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// QueryTracer receives an event per executed statement
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer returns a tracer that always prints SQL when LogSQL=true,
// independent of the process-wide root level
func Tracer(root logger.Logger) QueryTracer {
	ll := root.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()
	return &zlTracer{log: ll}
}

type zlTracer struct{ log logger.Logger }

func (z *zlTracer) OnQuery(ctx context.Context, ev QueryEvent) {
	evt := z.log.Info()
	if ev.Slow {
		evt = z.log.Warn()
	}
	if runID := logger.RunID(ctx); runID != "" {
		evt = evt.Str("run_id", runID)
	}

	// args are counted, not printed: a batch carries every merged record
	evt.Float64("elapsed_ms", float64(ev.ElapsedUS)/1000.0).
		Bool("slow", ev.Slow).
		Str("sql", truncate(compact(ev.SQL), maxSQLLen)).
		Int("args", len(ev.Args)).
		Err(ev.Err).
		Msg("pg query")
}

// compact folds runs of whitespace into a single space
func compact(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch r {
		case '\n', '\t', '\r', ' ':
			if !space {
				b.WriteByte(' ')
				space = true
			}
			continue
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
