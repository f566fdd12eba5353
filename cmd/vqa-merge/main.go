package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"vqamerge/internal/core/version"
	"vqamerge/internal/modkit"
	"vqamerge/internal/modkit/module"
	"vqamerge/internal/platform/config"
	perr "vqamerge/internal/platform/errors"
	"vqamerge/internal/platform/logger"
	"vqamerge/internal/platform/store"

	mergedom "vqamerge/internal/services/merge/domain"
	mergemod "vqamerge/internal/services/merge/module"
	recdom "vqamerge/internal/services/records/domain"
	recmod "vqamerge/internal/services/records/module"

	pkgerrors "github.com/pkg/errors"
)

const service = "vqa-merge"

func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}

func main() {
	var (
		fAnnotations = flag.String("annotations", "", "annotation JSON file (multiple_choice_answer per question_id)")
		fQuestions   = flag.String("questions", "", "question JSON file")
		fOutput      = flag.String("output", "", "merged JSONL output (default merged_vqa.jsonl)")
		fAnnPath     = flag.String("annotations-path", "", `collection key in the annotation file (default "annotations"; "." for a top-level array)`)
		fQPath       = flag.String("questions-path", "", `collection key in the question file (default "questions"; "." for a top-level array)`)
		fSinks       = flag.String("sinks", "", "comma separated sinks: jsonl, pg, ch (default jsonl)")
		fBatch       = flag.Int("batch", 0, "rows per database insert (default 1000)")
		fProgress    = flag.Int("progress-every", -1, "log progress every N elements, 0 disables (default 100000)")
		fFsync       = flag.Bool("fsync", false, "fsync the JSONL output before exit")
		fVersion     = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *fVersion {
		fmt.Println(version.Info(service))
		return
	}

	// surface flags to modules that read FromConfig
	mustSetEnv("CORE_MERGE_ANNOTATIONS", *fAnnotations)
	mustSetEnv("CORE_MERGE_QUESTIONS", *fQuestions)
	mustSetEnv("CORE_MERGE_ANNOTATIONS_PATH", *fAnnPath)
	mustSetEnv("CORE_MERGE_QUESTIONS_PATH", *fQPath)
	mustSetEnv("CORE_RECORDS_OUTPUT", *fOutput)
	mustSetEnv("CORE_RECORDS_SINKS", *fSinks)
	if *fBatch > 0 {
		mustSetEnv("CORE_RECORDS_BATCH", strconv.Itoa(*fBatch))
	}
	if *fProgress >= 0 {
		mustSetEnv("CORE_MERGE_PROGRESS_EVERY", strconv.Itoa(*fProgress))
	}
	if *fFsync {
		mustSetEnv("CORE_RECORDS_FSYNC", "true")
	}

	os.Exit(run())
}

func run() int {
	l := logger.Get()
	root := config.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mc := root.Prefix("CORE_MERGE_")
	for _, k := range []string{"ANNOTATIONS", "QUESTIONS"} {
		if !mc.Has(k) {
			return fail(l, perr.WithField(perr.InvalidArgf("missing -%s (or CORE_MERGE_%s)", flagName(k), k), flagName(k)))
		}
	}

	// databases are opened only for the sinks that need them
	ro := recmod.FromConfig(root)
	withPG, withCH := ro.Has(recdom.SinkPG), ro.Has(recdom.SinkCH)
	var st *store.Store
	if withPG || withCH {
		var err error
		st, err = store.Open(ctx, store.FromConfig(root, service, withPG, withCH), store.WithLogger(*l))
		if err != nil {
			return fail(l, perr.Wrap(err, perr.ErrorCodeUnavailable, "store.Open failed"))
		}
		defer func() {
			if err := st.Close(context.Background()); err != nil {
				l.Error().Err(err).Msg("failed to close store")
			}
		}()
		if err := st.Guard(ctx); err != nil {
			return fail(l, perr.Wrap(err, perr.ErrorCodeUnavailable, "store guard failed"))
		}
	}

	deps := modkit.Deps{Cfg: root, Log: *l}.FromStore(st)

	rm := recmod.New(deps, recmod.Options{})
	mm := mergemod.New(
		deps,
		mergemod.Options{},
		modkit.WithPorts(mergedom.Ports{
			Sinks: module.MustPortsOf[recmod.Ports](rm).Opener,
		}),
	)
	module.Register(rm)
	module.Register(mm)

	runner := module.MustPortsAs[mergemod.Ports](mm.Name()).Runner
	rep, err := runner.Run(ctx, mm.Input())
	if err != nil {
		return fail(l, err)
	}

	fmt.Printf("Processed %d questions\n", rep.Processed)
	if out := rm.Options(); out.Has(recdom.SinkJSONL) {
		fmt.Printf("Wrote %d records to %s (%d bytes, xxh64 %s)\n", rep.Matched, out.Output, rep.Bytes, rep.Digest)
	}
	return 0
}

func flagName(key string) string { return strings.ToLower(key) }

// fail logs err with its stack and maps it to the process exit status
func fail(l *logger.Logger, err error) int {
	ev := l.Error().Stack().Err(pkgerrors.WithStack(err))
	if e, ok := perr.As(err); ok {
		ev = ev.Str("code", e.Code().String())
		if e.Field() != "" {
			ev = ev.Str("field", e.Field())
		}
	}
	ev.Msg("merge failed")
	return perr.ExitCode(err)
}
