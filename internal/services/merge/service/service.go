// Package service provides the merge service implementation
package service

import (
	"context"
	"io"
	"time"

	"vqamerge/internal/adapters/ingest/jsonstream"
	perr "vqamerge/internal/platform/errors"
	"vqamerge/internal/platform/logger"
	"vqamerge/internal/services/merge/domain"
	recdom "vqamerge/internal/services/records/domain"

	"github.com/google/uuid"
)

// Config holds configuration options for the merge service
type Config struct {
	// ProgressEvery logs a progress line every N elements in both phases; 0 disables
	ProgressEvery int
}

// Service implements domain.RunnerPort
type Service struct {
	Sinks recdom.OpenerPort
	Cfg   Config

	newRunID func() string
	now      func() time.Time
}

// New constructs the merge service; sinks is required
func New(sinks recdom.OpenerPort, cfg Config) *Service {
	if sinks == nil {
		panic("merge service: nil sink opener")
	}
	if cfg.ProgressEvery < 0 {
		cfg.ProgressEvery = 0
	}
	return &Service{
		Sinks:    sinks,
		Cfg:      cfg,
		newRunID: func() string { return uuid.NewString() },
		now:      time.Now,
	}
}

var _ domain.RunnerPort = (*Service)(nil)

// Run indexes the annotations, then streams the questions into the sinks.
// Missing inputs abort before any sink is opened; on later errors output written so far is kept
func (s *Service) Run(ctx context.Context, in domain.Input) (domain.Report, error) {
	start := s.now()
	rep := domain.Report{RunID: s.newRunID()}
	ctx = logger.WithRun(ctx, rep.RunID)
	log := logger.C(ctx)

	for _, f := range []string{in.Annotations.File, in.Questions.File} {
		if err := jsonstream.Stat(f); err != nil {
			return rep, err
		}
	}

	log.Info().
		Str("annotations", in.Annotations.File).
		Str("questions", in.Questions.File).
		Msg("merge: run started")

	ictx := logger.WithStage(ctx, "index")
	idx, err := BuildAnswerIndex(ictx, in.Annotations, s.Cfg.ProgressEvery)
	if err != nil {
		logger.C(ictx).Error().Err(err).Msg("merge: build index failed")
		return rep, err
	}
	rep.Annotations = idx.Len()
	rep.Duplicates = idx.Duplicates()
	logger.C(ictx).Info().
		Str("elements", count(int64(idx.Elements()))).
		Str("distinct", count(int64(idx.Len()))).
		Int("duplicates", idx.Duplicates()).
		Msg("merge: index built")

	mctx := logger.WithStage(ctx, "merge")
	stream, err := StreamMerge(mctx, in.Questions, idx, s.Cfg.ProgressEvery)
	if err != nil {
		return rep, err
	}
	defer func() {
		if cerr := stream.Close(); cerr != nil {
			logger.C(mctx).Warn().Err(cerr).Msg("merge: close questions")
		}
	}()

	sink, err := s.Sinks.Open(mctx, rep.RunID)
	if err != nil {
		logger.C(mctx).Error().Err(err).Msg("merge: open sinks failed")
		return rep, err
	}

	runErr := drain(mctx, stream, sink)
	rep.Processed = stream.Processed()
	rep.Matched = stream.Matched()
	rep.Skipped = rep.Processed - rep.Matched

	sum, cerr := sink.Close(mctx)
	rep.Bytes, rep.Digest = sum.Bytes, sum.Digest
	rep.Elapsed = s.now().Sub(start)

	if runErr != nil {
		if cerr != nil {
			logger.C(mctx).Warn().Err(cerr).Msg("merge: close sinks after failure")
		}
		logger.C(mctx).Error().Err(runErr).
			Int64("processed", rep.Processed).
			Int64("matched", rep.Matched).
			Msg("merge: run aborted; partial output kept")
		return rep, runErr
	}
	if cerr != nil {
		logger.C(mctx).Error().Err(cerr).Msg("merge: close sinks failed")
		return rep, cerr
	}

	log.Info().
		Str("processed", count(rep.Processed)).
		Str("matched", count(rep.Matched)).
		Str("skipped", count(rep.Skipped)).
		Str("digest", rep.Digest).
		Dur("elapsed", rep.Elapsed).
		Msg("merge: run finished")
	return rep, nil
}

// drain writes every record before pulling the next question
func drain(ctx context.Context, stream *Stream, sink recdom.SinkPort) error {
	for {
		rec, err := stream.Next(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := sink.Write(ctx, rec); err != nil {
			return perr.WithOp(err, "write")
		}
	}
}
