// Package module implements the records module
package module

import (
	"fmt"

	"vqamerge/internal/modkit"
	"vqamerge/internal/services/records/domain"
	"vqamerge/internal/services/records/guardrails"
	"vqamerge/internal/services/records/service"
)

// Ports exposed by the records module
type Ports struct {
	Opener   domain.OpenerPort
	Verifier domain.VerifierPort
}

// Module implements modkit.Module
type Module struct {
	name  string
	opts  Options
	ports Ports
}

// New constructs the records module. Zero-valued overrides keep the env value;
// a non-empty Sinks override replaces the list
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	b := modkit.Build("records", opts...)

	cfg := FromConfig(deps.Cfg)
	if overrides.Output != "" {
		cfg.Output = overrides.Output
	}
	if len(overrides.Sinks) != 0 {
		cfg.Sinks = overrides.Sinks
	}
	if overrides.Batch != 0 {
		cfg.Batch = overrides.Batch
	}
	if overrides.PGTable != "" {
		cfg.PGTable = overrides.PGTable
	}
	if overrides.CHTable != "" {
		cfg.CHTable = overrides.CHTable
	}
	if overrides.FlushEvery != 0 {
		cfg.FlushEvery = overrides.FlushEvery
	}
	if overrides.DBTimeout != 0 {
		cfg.DBTimeout = overrides.DBTimeout
	}
	cfg.Fsync = cfg.Fsync || overrides.Fsync

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("records module: %v", err))
	}
	// guardrails against incorrect wiring
	if cfg.Has(domain.SinkPG) && deps.PG == nil {
		panic("records module: pg sink enabled but Deps.PG is nil")
	}
	if cfg.Has(domain.SinkCH) && deps.CH == nil {
		panic("records module: ch sink enabled but Deps.CH is nil")
	}

	opener := service.NewOpener(service.Config{
		Output:     cfg.Output,
		Sinks:      cfg.Sinks,
		Batch:      cfg.Batch,
		PGTable:    cfg.PGTable,
		CHTable:    cfg.CHTable,
		Fsync:      cfg.Fsync,
		FlushEvery: cfg.FlushEvery,
		Timeouts:   guardrails.Timeouts{Ensure: cfg.DBTimeout, Batch: cfg.DBTimeout},
	}, deps.PG, deps.CH)

	return &Module{
		name: b.Name,
		opts: cfg,
		ports: Ports{
			Opener:   opener,
			Verifier: service.NewVerifier(),
		},
	}
}

// Options returns the effective options after env and overrides
func (m *Module) Options() Options { return m.opts }

// Name satisfies modkit.Module
func (m *Module) Name() string { return m.name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }
