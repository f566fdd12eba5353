package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"

	"vqamerge/internal/adapters/ingest/jsonstream"
	perr "vqamerge/internal/platform/errors"
	"vqamerge/internal/platform/logger"
	"vqamerge/internal/services/records/domain"
	"vqamerge/internal/services/records/repo"

	"github.com/cespare/xxhash/v2"
)

// Verifier implements domain.VerifierPort
type Verifier struct{}

// NewVerifier constructs a Verifier
func NewVerifier() *Verifier { return &Verifier{} }

var _ domain.VerifierPort = (*Verifier)(nil)

// Verify re-reads a merged JSONL file: every line must match the record schema,
// ids must strictly increase and blank lines are not allowed. The digest covers the whole file
func (v *Verifier) Verify(ctx context.Context, path string) (domain.Verified, error) {
	out := domain.Verified{Path: path}
	if err := jsonstream.Stat(path); err != nil {
		return out, err
	}
	schema, err := domain.ResolvedSchema()
	if err != nil {
		return out, perr.Wrap(err, perr.ErrorCodeUnknown, "resolve record schema")
	}

	f, err := os.Open(path)
	if err != nil {
		return out, perr.Wrapf(err, perr.ErrorCodeIO, "open %s", path)
	}
	defer f.Close()

	h := xxhash.New()
	br := bufio.NewReaderSize(f, 64<<10)
	var lineNo int64
	for {
		if err := ctx.Err(); err != nil {
			return out, perr.Wrap(err, perr.ErrorCodeCanceled, "verify canceled")
		}
		line, rerr := br.ReadBytes('\n')
		if len(line) > 0 {
			lineNo++
			out.Bytes += int64(len(line))
			_, _ = h.Write(line)

			id, err := checkLine(schema, bytes.TrimRight(line, "\r\n"))
			if err != nil {
				return out, perr.WithField(perr.Wrapf(err, perr.CodeOf(err), "%s: line %d", path, lineNo), fieldOf(err))
			}
			if out.Records > 0 && id <= out.LastID {
				return out, perr.WithField(perr.Malformedf("%s: line %d: id %d does not increase (previous %d)", path, lineNo, id, out.LastID), "id")
			}
			if out.Records == 0 {
				out.FirstID = id
			}
			out.LastID = id
			out.Records++
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return out, perr.Wrapf(rerr, perr.ErrorCodeIO, "read %s", path)
		}
	}
	out.Digest = repo.Digest(h)

	logger.C(ctx).Info().
		Str("path", path).
		Int64("records", out.Records).
		Int64("first_id", out.FirstID).
		Int64("last_id", out.LastID).
		Str("digest", out.Digest).
		Msg("records: verified")
	return out, nil
}

type resolved interface{ Validate(instance any) error }

// checkLine validates one line and returns its id
func checkLine(schema resolved, line []byte) (int64, error) {
	if len(bytes.TrimSpace(line)) == 0 {
		return 0, perr.Malformedf("blank line")
	}
	var doc map[string]any
	if err := json.Unmarshal(line, &doc); err != nil {
		return 0, perr.Wrap(err, perr.ErrorCodeMalformed, "not a json object")
	}
	if err := schema.Validate(doc); err != nil {
		return 0, perr.Wrap(err, perr.ErrorCodeValidation, "schema")
	}
	var probe struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(line, &probe); err != nil {
		return 0, perr.WithField(perr.Wrap(err, perr.ErrorCodeMalformed, "id"), "id")
	}
	return probe.ID, nil
}

func fieldOf(err error) string {
	if e, ok := perr.As(err); ok {
		return e.Field()
	}
	return ""
}
