// Package repo provides the record sinks: the JSONL file and the optional database mirrors
package repo

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	perr "vqamerge/internal/platform/errors"
	"vqamerge/internal/services/records/domain"

	"github.com/cespare/xxhash/v2"
)

// JSONLOptions tunes the JSONL sink
type JSONLOptions struct {
	FlushEvery int  // flush the buffer every N records; 0 flushes only when it fills
	Fsync      bool // fsync the file on Close
}

// JSONL writes one compact JSON object per line. The file is created or truncated on open
type JSONL struct {
	path string
	opt  JSONLOptions

	f   *os.File
	bw  *bufio.Writer
	buf bytes.Buffer
	enc *json.Encoder
	h   *xxhash.Digest

	records int64
	bytes   int64
	closed  bool
}

// OpenJSONL creates path (and its parent directories) and returns a sink over it
func OpenJSONL(path string, opt JSONLOptions) (*JSONL, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, perr.WithField(perr.Wrapf(err, perr.ErrorCodeIO, "create output dir %s", dir), path)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, perr.WithField(perr.Wrapf(err, perr.ErrorCodeIO, "create output %s", path), path)
	}
	s := &JSONL{
		path: path,
		opt:  opt,
		f:    f,
		bw:   bufio.NewWriterSize(f, 64<<10),
		h:    xxhash.New(),
	}
	s.enc = json.NewEncoder(&s.buf)
	s.enc.SetEscapeHTML(false)
	return s, nil
}

// Path is the output file
func (s *JSONL) Path() string { return s.path }

// Write serializes r completely, then hands the line to the buffered writer
func (s *JSONL) Write(_ context.Context, r domain.Record) error {
	if s.closed {
		return perr.IOf("write %s: sink closed", s.path)
	}
	s.buf.Reset()
	if err := s.enc.Encode(r); err != nil {
		return perr.WithField(perr.Wrapf(err, perr.ErrorCodeMalformed, "encode record %d", r.ID), "image_id")
	}
	line := rawLineSeparators(s.buf.Bytes())
	n, err := s.bw.Write(line)
	s.bytes += int64(n)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeIO, "write %s", s.path)
	}
	_, _ = s.h.Write(line)
	s.records++
	if s.opt.FlushEvery > 0 && s.records%int64(s.opt.FlushEvery) == 0 {
		if err := s.bw.Flush(); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeIO, "flush %s", s.path)
		}
	}
	return nil
}

// Close flushes, optionally fsyncs and closes the file. Safe to call twice
func (s *JSONL) Close(_ context.Context) (domain.Summary, error) {
	sum := s.summary()
	if s.closed {
		return sum, nil
	}
	s.closed = true

	ferr := s.bw.Flush()
	if ferr == nil && s.opt.Fsync {
		ferr = s.f.Sync()
	}
	cerr := s.f.Close()
	if ferr != nil {
		return sum, perr.Wrapf(ferr, perr.ErrorCodeIO, "flush %s", s.path)
	}
	if cerr != nil {
		return sum, perr.Wrapf(cerr, perr.ErrorCodeIO, "close %s", s.path)
	}
	return sum, nil
}

func (s *JSONL) summary() domain.Summary {
	return domain.Summary{
		Sink:    domain.SinkJSONL,
		Records: s.records,
		Bytes:   s.bytes,
		Digest:  Digest(s.h),
	}
}

// rawLineSeparators undoes encoding/json's \u2028 and \u2029 escapes so those runes are
// written as UTF-8 like every other non-ASCII character. Escape pairs are consumed whole,
// so an escaped backslash followed by "u2028" stays as it was
func rawLineSeparators(b []byte) []byte {
	if !bytes.Contains(b, []byte(`\u202`)) {
		return b
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 >= len(b) {
			out = append(out, b[i])
			continue
		}
		if i+5 < len(b) && b[i+1] == 'u' && b[i+2] == '2' && b[i+3] == '0' && b[i+4] == '2' &&
			(b[i+5] == '8' || b[i+5] == '9') {
			out = append(out, 0xE2, 0x80, 0xA8+(b[i+5]-'8'))
			i += 5
			continue
		}
		out = append(out, b[i], b[i+1])
		i++
	}
	return out
}

// Digest renders an xxhash64 state the way summaries and verify report it
func Digest(h *xxhash.Digest) string { return fmt.Sprintf("%016x", h.Sum64()) }

var _ domain.SinkPort = (*JSONL)(nil)
