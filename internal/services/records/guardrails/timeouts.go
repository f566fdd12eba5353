// Package guardrails bounds the database mirror calls of the record sinks
package guardrails

import (
	"context"
	"time"
)

// Timeouts is the budget for db sink calls. Zero values mean no extra timeout at that level
type Timeouts struct {
	// Ensure caps table creation when a sink opens
	Ensure time.Duration

	// Batch caps one batch insert, transaction included
	Batch time.Duration
}

// ForEnsure returns a sub context for table creation bounded by Ensure and any remaining parent budget
func ForEnsure(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Ensure)
}

// ForBatch returns a sub context for one insert bounded by Batch and any remaining parent budget
func ForBatch(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Batch)
}

// Remaining returns the time until the deadline on ctx or zero when none is set or already expired
func Remaining(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d
		}
	}
	return 0
}

// withChildTimeout takes the tighter of d and the parent remainder; it never extends the parent deadline
func withChildTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	if rem := Remaining(parent); rem > 0 && rem < d {
		return context.WithTimeout(parent, rem)
	}
	return context.WithTimeout(parent, d)
}
