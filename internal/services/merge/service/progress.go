package service

import (
	"context"
	"time"

	"vqamerge/internal/platform/logger"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// english groups digits in progress counts: 1,234,567
var english = message.NewPrinter(language.English)

// progress logs a line every `every` elements; every <= 0 disables it
type progress struct {
	ctx   context.Context
	what  string
	every int64
	start time.Time
}

func newProgress(ctx context.Context, what string, every int) *progress {
	return &progress{ctx: ctx, what: what, every: int64(every), start: time.Now()}
}

func (p *progress) tick(n int64) {
	if p.every <= 0 || n%p.every != 0 {
		return
	}
	elapsed := time.Since(p.start)
	logger.C(p.ctx).Info().
		Str("count", english.Sprintf("%d", n)).
		Str("rate", english.Sprintf("%.0f/s", rate(n, elapsed))).
		Dur("elapsed", elapsed).
		Msg(p.what)
}

func rate(n int64, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / d.Seconds()
}

// count renders n with english digit grouping
func count(n int64) string { return english.Sprintf("%d", n) }
