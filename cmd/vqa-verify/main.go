package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"vqamerge/internal/core/version"
	"vqamerge/internal/modkit"
	"vqamerge/internal/modkit/module"
	"vqamerge/internal/platform/config"
	perr "vqamerge/internal/platform/errors"
	"vqamerge/internal/platform/logger"

	recdom "vqamerge/internal/services/records/domain"
	recmod "vqamerge/internal/services/records/module"

	pkgerrors "github.com/pkg/errors"
)

const service = "vqa-verify"

func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}

func main() {
	var (
		fInput       = flag.String("input", "", "merged JSONL file to check (default CORE_RECORDS_OUTPUT or merged_vqa.jsonl)")
		fPrintSchema = flag.Bool("print-schema", false, "print the JSON Schema of one merged line and exit")
		fVersion     = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *fVersion {
		fmt.Println(version.Info(service))
		return
	}
	if *fPrintSchema {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(recdom.Schema()); err != nil {
			os.Exit(fail(logger.Get(), perr.Wrap(err, perr.ErrorCodeIO, "print schema")))
		}
		return
	}

	mustSetEnv("CORE_RECORDS_OUTPUT", *fInput)
	os.Exit(run())
}

func run() int {
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// verify only reads the jsonl file, so the db sinks stay off whatever the env says
	rm := recmod.New(modkit.Deps{Cfg: config.New(), Log: *l}, recmod.Options{Sinks: []string{recdom.SinkJSONL}})
	module.Register(rm)
	path := rm.Options().Output

	got, err := module.MustPortsAs[recmod.Ports](rm.Name()).Verifier.Verify(ctx, path)
	if err != nil {
		return fail(l, err)
	}
	fmt.Printf("%s: %d records, ids %d..%d, %d bytes, xxh64 %s\n",
		got.Path, got.Records, got.FirstID, got.LastID, got.Bytes, got.Digest)
	return 0
}

// fail logs err with its stack and maps it to the process exit status
func fail(l *logger.Logger, err error) int {
	ev := l.Error().Stack().Err(pkgerrors.WithStack(err))
	if e, ok := perr.As(err); ok {
		ev = ev.Str("code", e.Code().String())
		if e.Field() != "" {
			ev = ev.Str("field", e.Field())
		}
	}
	ev.Msg("verify failed")
	return perr.ExitCode(err)
}
