package repo

import (
	"context"
	"errors"

	"vqamerge/internal/services/records/domain"
)

// Multi fans every record out to all sinks in order. The first sink is the primary;
// its Summary is the one Close returns
type Multi struct {
	sinks []domain.SinkPort
}

// NewMulti wraps sinks; primary first
func NewMulti(primary domain.SinkPort, mirrors ...domain.SinkPort) *Multi {
	return &Multi{sinks: append([]domain.SinkPort{primary}, mirrors...)}
}

// Write stops at the first failing sink
func (m *Multi) Write(ctx context.Context, r domain.Record) error {
	for _, s := range m.sinks {
		if err := s.Write(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink even when one fails and joins the errors
func (m *Multi) Close(ctx context.Context) (domain.Summary, error) {
	var (
		primary domain.Summary
		errs    []error
	)
	for i, s := range m.sinks {
		sum, err := s.Close(ctx)
		if i == 0 {
			primary = sum
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return primary, errors.Join(errs...)
}

var _ domain.SinkPort = (*Multi)(nil)
