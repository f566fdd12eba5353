package service

import (
	"context"
	"io"

	"vqamerge/internal/adapters/ingest/jsonstream"
	perr "vqamerge/internal/platform/errors"
	"vqamerge/internal/platform/validate"
	"vqamerge/internal/services/merge/domain"
)

// Stream yields merged records in question order. Single pass: once Next returned
// io.EOF or an error it keeps returning it
type Stream struct {
	rd   *jsonstream.Reader[domain.Question]
	idx  *Index
	prog *progress

	counter int64 // 1-based position of the last question read
	matched int64
}

func checkQuestion(q *domain.Question) error {
	return validate.Struct(q, perr.ErrorCodeValidation)
}

// StreamMerge opens the question collection of src and joins it against idx lazily.
// Nothing is read until the first Next
func StreamMerge(ctx context.Context, src domain.Source, idx *Index, progressEvery int) (*Stream, error) {
	rd, err := jsonstream.Open[domain.Question](src.File, checkQuestion, jsonstream.WithPath(src.Path))
	if err != nil {
		return nil, err
	}
	return newStream(ctx, rd, idx, progressEvery), nil
}

func newStream(ctx context.Context, rd *jsonstream.Reader[domain.Question], idx *Index, progressEvery int) *Stream {
	return &Stream{rd: rd, idx: idx, prog: newProgress(ctx, "merging questions", progressEvery)}
}

// Next returns the next matched record. Unmatched questions advance the position
// counter and are skipped silently
func (s *Stream) Next(ctx context.Context) (domain.MergedRecord, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.MergedRecord{}, perr.Wrap(err, perr.ErrorCodeCanceled, "merge canceled")
		}
		q, err := s.rd.Next()
		if err == io.EOF {
			return domain.MergedRecord{}, io.EOF
		}
		if err != nil {
			return domain.MergedRecord{}, perr.WithOp(err, "merge")
		}
		s.counter++
		s.prog.tick(s.counter)

		answer, ok := s.idx.Lookup(*q.QuestionID)
		if !ok {
			continue
		}
		s.matched++
		return domain.MergedRecord{
			ID:       s.counter,
			ImageID:  q.ImageID,
			Question: domain.QuestionTag + *q.Text,
			Answer:   answer,
		}, nil
	}
}

// Processed is the number of question elements read so far, matched or not.
// After io.EOF it is the total
func (s *Stream) Processed() int64 { return s.counter }

// Matched is the number of records yielded so far
func (s *Stream) Matched() int64 { return s.matched }

// Close releases the question file
func (s *Stream) Close() error { return s.rd.Close() }
