package domain

import (
	"context"

	recdom "vqamerge/internal/services/records/domain"
)

// RunnerPort is the external port for one merge run
type RunnerPort interface {
	Run(ctx context.Context, in Input) (Report, error)
}

// Ports are dependencies injected into the merge module
type Ports struct {
	Sinks recdom.OpenerPort // required
}
