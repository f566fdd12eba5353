package modkit

import "vqamerge/internal/modkit/module"

// Module is the common surface for modules that expose ports to the binaries
// keep this tiny so modules stay decoupled
type Module = module.Module

// Builder constructs a Module from shared deps and options
// modules typically expose New(deps Deps, opts ...Option) Module and may delegate to this pattern
type Builder func(Deps, ...Option) Module
