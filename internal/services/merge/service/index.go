package service

import (
	"context"
	"errors"
	"io"

	"vqamerge/internal/adapters/ingest/jsonstream"
	perr "vqamerge/internal/platform/errors"
	"vqamerge/internal/platform/logger"
	"vqamerge/internal/platform/validate"
	"vqamerge/internal/services/merge/domain"
)

// Index maps question ids to their answer; complete before any question is read
type Index struct {
	answers    map[domain.QuestionID]string
	elements   int
	duplicates int
}

// Lookup returns the answer for id
func (ix *Index) Lookup(id domain.QuestionID) (string, bool) {
	a, ok := ix.answers[id]
	return a, ok
}

// Len is the number of distinct ids
func (ix *Index) Len() int { return len(ix.answers) }

// Elements is the number of annotation elements read
func (ix *Index) Elements() int { return ix.elements }

// Duplicates counts elements whose id was already present; the later answer won
func (ix *Index) Duplicates() int { return ix.duplicates }

func checkAnnotation(a *domain.Annotation) error {
	return validate.Struct(a, perr.ErrorCodeValidation)
}

// BuildAnswerIndex drains the annotation collection of src into an Index.
// A missing file is NotFound; a bad document or element is Malformed
func BuildAnswerIndex(ctx context.Context, src domain.Source, progressEvery int) (*Index, error) {
	rd, err := jsonstream.Open[domain.Annotation](src.File, checkAnnotation, jsonstream.WithPath(src.Path))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rd.Close(); cerr != nil {
			logger.C(ctx).Warn().Err(cerr).Str("file", src.File).Msg("close annotations")
		}
	}()
	return buildIndex(ctx, rd, progressEvery)
}

// buildIndex is BuildAnswerIndex over an already opened reader
func buildIndex(ctx context.Context, rd *jsonstream.Reader[domain.Annotation], progressEvery int) (*Index, error) {
	ix := &Index{answers: make(map[domain.QuestionID]string)}
	prog := newProgress(ctx, "indexing annotations", progressEvery)
	for {
		if err := ctx.Err(); err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeCanceled, "index canceled")
		}
		a, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, perr.WithOp(err, "index")
		}
		ix.elements++
		if _, dup := ix.answers[*a.QuestionID]; dup {
			ix.duplicates++
		}
		ix.answers[*a.QuestionID] = *a.Answer
		prog.tick(int64(ix.elements))
	}
	return ix, nil
}
