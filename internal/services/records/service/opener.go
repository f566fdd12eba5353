// Package service provides the records service: opening the run sinks and verifying outputs
package service

import (
	"context"
	"slices"

	perr "vqamerge/internal/platform/errors"
	"vqamerge/internal/platform/logger"
	"vqamerge/internal/platform/store"
	"vqamerge/internal/services/records/domain"
	"vqamerge/internal/services/records/guardrails"
	"vqamerge/internal/services/records/repo"
)

// Config holds sink options for one process
type Config struct {
	Output     string   // jsonl path
	Sinks      []string // subset of domain.SinkNames
	Batch      int      // rows per db insert
	PGTable    string
	CHTable    string
	Fsync      bool
	FlushEvery int
	Timeouts   guardrails.Timeouts // db sinks only
}

// Opener implements domain.OpenerPort
type Opener struct {
	Cfg Config
	PG  store.TxRunner   // required when Sinks has pg
	CH  store.Clickhouse // required when Sinks has ch
}

// NewOpener constructs an Opener; panics when an enabled db sink has no backend
func NewOpener(cfg Config, pg store.TxRunner, ch store.Clickhouse) *Opener {
	if slices.Contains(cfg.Sinks, domain.SinkPG) && pg == nil {
		panic("records opener: pg sink enabled without a postgres backend")
	}
	if slices.Contains(cfg.Sinks, domain.SinkCH) && ch == nil {
		panic("records opener: ch sink enabled without a clickhouse backend")
	}
	if len(cfg.Sinks) == 0 {
		cfg.Sinks = []string{domain.SinkJSONL}
	}
	return &Opener{Cfg: cfg, PG: pg, CH: ch}
}

var _ domain.OpenerPort = (*Opener)(nil)

// Open creates every configured sink for runID. The jsonl sink is primary when enabled;
// on failure the sinks opened so far are closed again
func (o *Opener) Open(ctx context.Context, runID string) (domain.SinkPort, error) {
	var opened []domain.SinkPort
	fail := func(err error) (domain.SinkPort, error) {
		for _, s := range opened {
			if _, cerr := s.Close(ctx); cerr != nil {
				logger.C(ctx).Warn().Err(cerr).Msg("records: close after open failure")
			}
		}
		return nil, err
	}

	for _, name := range o.ordered() {
		switch name {
		case domain.SinkJSONL:
			s, err := repo.OpenJSONL(o.Cfg.Output, repo.JSONLOptions{FlushEvery: o.Cfg.FlushEvery, Fsync: o.Cfg.Fsync})
			if err != nil {
				return fail(err)
			}
			opened = append(opened, s)
		case domain.SinkPG:
			if err := o.ensure(ctx, func(ctx context.Context) error {
				return repo.EnsurePGTable(ctx, o.PG, o.Cfg.PGTable)
			}); err != nil {
				return fail(err)
			}
			opened = append(opened, repo.NewPG(o.PG, o.Cfg.PGTable, runID, o.Cfg.Batch).WithTimeouts(o.Cfg.Timeouts))
		case domain.SinkCH:
			if err := o.ensure(ctx, func(ctx context.Context) error {
				return repo.EnsureCHTable(ctx, o.CH, o.Cfg.CHTable)
			}); err != nil {
				return fail(err)
			}
			opened = append(opened, repo.NewCH(o.CH, o.Cfg.CHTable, runID, o.Cfg.Batch).WithTimeouts(o.Cfg.Timeouts))
		default:
			return fail(perr.WithField(perr.InvalidArgf("unknown sink %q", name), "sinks"))
		}
	}

	logger.C(ctx).Info().Strs("sinks", o.ordered()).Str("output", o.Cfg.Output).Msg("records: sinks open")
	if len(opened) == 1 {
		return opened[0], nil
	}
	return repo.NewMulti(opened[0], opened[1:]...), nil
}

func (o *Opener) ensure(ctx context.Context, fn func(context.Context) error) error {
	ectx, cancel := guardrails.ForEnsure(ctx, o.Cfg.Timeouts)
	defer cancel()
	return fn(ectx)
}

// ordered puts jsonl first so its summary is the one reported
func (o *Opener) ordered() []string {
	out := make([]string, 0, len(o.Cfg.Sinks))
	if slices.Contains(o.Cfg.Sinks, domain.SinkJSONL) {
		out = append(out, domain.SinkJSONL)
	}
	for _, s := range o.Cfg.Sinks {
		if s != domain.SinkJSONL {
			out = append(out, s)
		}
	}
	return out
}
