// Package logger provides a zerolog wrapper with opinionated defaults and
// run-scoped logging support
package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"vqamerge/internal/platform/config/raw"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Options configures the logger
type Options struct {
	Level        string
	Format       string
	Service      string
	Component    string
	Writer       io.Writer
	WithCaller   bool
	SampleEvery  int
	StaticFields map[string]string
}

// FromEnv builds Options using the logging-free raw config view (no cycles)
func FromEnv() Options {
	rc := raw.New().Prefix("LOG_")
	return Options{
		Level:       strings.ToLower(rc.Get("LEVEL", "info")),
		Format:      strings.ToLower(rc.Get("FORMAT", "console")),
		Service:     rc.Get("SERVICE", "vqamerge"),
		Component:   rc.Get("COMPONENT", ""),
		WithCaller:  rc.GetBool("CALLER", false),
		SampleEvery: rc.GetInt("SAMPLE_EVERY", 0),
	}
}

var (
	once   sync.Once
	root   atomic.Pointer[zerolog.Logger] // internal storage of the root logger
	inited atomic.Bool
)

// Logger is the project-wide logging type - today it's just a zerolog.Logger
type Logger = zerolog.Logger

// Get returns the process-wide root logger as a pointer
func Get() *Logger {
	if !inited.Load() {
		Init(FromEnv())
	}
	return root.Load()
}

// Init configures zerolog and builds the root logger, safe to call once.
// Logs go to stderr by default; stdout is left to the binaries (schema dumps, summaries)
func Init(opt Options) {
	once.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano

		lvl := parseLevel(opt.Level)

		var w io.Writer = os.Stderr
		if opt.Writer != nil {
			w = opt.Writer
		}
		if opt.Format == "console" {
			w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		}

		ctx := zerolog.New(w).Level(lvl).With().Timestamp()

		if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
			ctx = ctx.Str("go_version", bi.GoVersion)
		}
		if opt.Service != "" {
			ctx = ctx.Str("service", opt.Service)
		}
		if opt.Component != "" {
			ctx = ctx.Str("component", opt.Component)
		}
		for k, v := range opt.StaticFields {
			ctx = ctx.Str(k, v)
		}

		log := ctx.Logger()
		if opt.WithCaller {
			log = log.With().Caller().Logger()
		}
		if opt.SampleEvery > 1 {
			log = log.Sample(&zerolog.BasicSampler{N: uint32(opt.SampleEvery)})
		}

		root.Store(&log)
		inited.Store(true)
	})
}

// parseLevel supports string-only levels
func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}

type ctxKey struct{ name string }

var (
	keyRunID = ctxKey{"run_id"}
	keyStage = ctxKey{"stage"}
)

// WithRun annotates ctx with the merge run id
func WithRun(ctx context.Context, runID string) context.Context {
	if runID == "" {
		return ctx
	}
	return context.WithValue(ctx, keyRunID, runID)
}

// WithStage annotates ctx with the pipeline stage (index, merge, verify)
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, keyStage, stage)
}

// RunID returns the run id stored by WithRun, if any
func RunID(ctx context.Context) string {
	s, _ := ctx.Value(keyRunID).(string)
	return s
}

// C returns a child logger enriched from ctx (run_id, stage)
func C(ctx context.Context) *Logger {
	builder := Get().With()
	if s := RunID(ctx); s != "" {
		builder = builder.Str("run_id", s)
	}
	if s, ok := ctx.Value(keyStage).(string); ok && s != "" {
		builder = builder.Str("stage", s)
	}
	ll := builder.Logger()
	return &ll
}

// Named returns a child logger with a component field
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	ll := Get().With().Str("component", component).Logger()
	return &ll
}
