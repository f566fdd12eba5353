// Package module implements the merge module
package module

import (
	"vqamerge/internal/modkit"
	"vqamerge/internal/services/merge/domain"
	"vqamerge/internal/services/merge/service"
)

// Ports exposed by the merge module
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements modkit.Module
type Module struct {
	name  string
	opts  Options
	ports Ports
}

// New constructs the merge module; it needs WithPorts(merge/domain.Ports) carrying the sink opener.
// An empty override keeps the env value, so a top-level array input is selected by setting
// CORE_MERGE_*_PATH to "."
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	b := modkit.Build("merge", opts...)

	// basic guardrails against incorrect wiring
	ports, ok := modkit.PortsAs[domain.Ports](b)
	if !ok {
		panic("merge module: expected WithPorts(merge/domain.Ports)")
	}
	if ports.Sinks == nil {
		panic("merge module: Ports missing Sinks")
	}

	// merge config + overrides
	cfg := FromConfig(deps.Cfg)
	if overrides.Annotations != "" {
		cfg.Annotations = overrides.Annotations
	}
	if overrides.Questions != "" {
		cfg.Questions = overrides.Questions
	}
	if overrides.AnnotationsPath != "" {
		cfg.AnnotationsPath = overrides.AnnotationsPath
	}
	if overrides.QuestionsPath != "" {
		cfg.QuestionsPath = overrides.QuestionsPath
	}
	if overrides.ProgressEvery != 0 {
		cfg.ProgressEvery = overrides.ProgressEvery
	}

	runner := service.New(ports.Sinks, service.Config{ProgressEvery: cfg.ProgressEvery})

	return &Module{name: b.Name, opts: cfg, ports: Ports{Runner: runner}}
}

// Options returns the effective options after env and overrides
func (m *Module) Options() Options { return m.opts }

// Input is the run input from the effective options
func (m *Module) Input() domain.Input { return m.opts.Input() }

// Name satisfies modkit.Module
func (m *Module) Name() string { return m.name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }
