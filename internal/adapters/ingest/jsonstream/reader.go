package jsonstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	perr "vqamerge/internal/platform/errors"
	"vqamerge/internal/platform/logger"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Check validates one decoded element; a non-nil error stops the Reader
type Check[T any] func(*T) error

// Reader streams the elements of one JSON array as T values
type Reader[T any] struct {
	closer io.Closer
	dec    *json.Decoder
	cfg    settings
	check  Check[T]

	started bool
	err     error // sticky; io.EOF once the array is drained
	elems   int
}

// Stat reports NotFound when path does not exist and InvalidArgument when it is a directory.
// Callers use it to fail before any output is created
func Stat(path string) error {
	fi, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return perr.WithField(perr.Wrapf(err, perr.ErrorCodeNotFound, "input not found: %s", path), path)
	case err != nil:
		return perr.Wrapf(err, perr.ErrorCodeIO, "stat %s", path)
	case fi.IsDir():
		return perr.WithField(perr.InvalidArgf("input is a directory: %s", path), path)
	}
	return nil
}

// Open opens the file at path and returns a Reader over its collection
func Open[T any](path string, check Check[T], opts ...Option) (*Reader[T], error) {
	if err := Stat(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, perr.Wrapf(err, perr.ErrorCodeNotFound, "input not found: %s", path)
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeIO, "open %s", path)
	}
	opts = append([]Option{WithLabel(path)}, opts...)
	rd := NewReader(f, check, opts...)
	rd.closer = f
	return rd, nil
}

// NewReader wraps r; check may be nil
func NewReader[T any](r io.Reader, check Check[T], opts ...Option) *Reader[T] {
	var cfg settings
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.label == "" {
		cfg.label = "input"
	}
	bomAware := transform.NewReader(r, unicode.BOMOverride(transform.Nop))
	dec := json.NewDecoder(bomAware)
	dec.UseNumber()
	return &Reader[T]{dec: dec, cfg: cfg, check: check}
}

// Next returns the next element; io.EOF after the closing bracket
func (rd *Reader[T]) Next() (T, error) {
	var zero T
	if rd.err != nil {
		return zero, rd.err
	}
	if !rd.started {
		if err := rd.seek(); err != nil {
			rd.err = err
			return zero, err
		}
		rd.started = true
	}

	if !rd.dec.More() {
		if _, err := rd.dec.Token(); err != nil {
			rd.err = rd.classify(err, "unterminated array")
			return zero, rd.err
		}
		rd.err = io.EOF
		return zero, io.EOF
	}

	var raw json.RawMessage
	if err := rd.dec.Decode(&raw); err != nil {
		rd.err = rd.classify(err, fmt.Sprintf("element %d", rd.elems+1))
		return zero, rd.err
	}
	rd.elems++

	if len(raw) == 0 || raw[0] != '{' {
		rd.err = perr.Malformedf("%s: element %d is %s, want object", rd.cfg.label, rd.elems, kindOf(raw))
		return zero, rd.err
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		rd.err = rd.classify(err, fmt.Sprintf("element %d", rd.elems))
		return zero, rd.err
	}
	if rd.check != nil {
		if err := rd.check(&v); err != nil {
			rd.err = rd.wrapElem(err)
			return zero, rd.err
		}
	}
	return v, nil
}

// Close closes the underlying file when the Reader owns one
func (rd *Reader[T]) Close() error {
	if rd.closer == nil {
		return nil
	}
	c := rd.closer
	rd.closer = nil
	return c.Close()
}

// Stats returns the number of elements decoded and the decoded input offset so far
func (rd *Reader[T]) Stats() (elements int, bytes int64) {
	return rd.elems, rd.dec.InputOffset()
}

// seek walks the collection path and consumes the opening bracket
func (rd *Reader[T]) seek() error {
	for depth, key := range rd.cfg.path {
		at := strings.Join(rd.cfg.path[:depth], ".")
		if err := rd.expectDelim('{', "object at "+displayPath(at)); err != nil {
			return err
		}
		found, err := rd.findKey(key)
		if err != nil {
			return err
		}
		if !found {
			return perr.WithField(
				perr.Malformedf("%s: collection %q not found", rd.cfg.label, strings.Join(rd.cfg.path[:depth+1], ".")),
				strings.Join(rd.cfg.path, "."),
			)
		}
	}
	if err := rd.expectDelim('[', "array at "+displayPath(strings.Join(rd.cfg.path, "."))); err != nil {
		return err
	}
	logger.Named("jsonstream").Debug().
		Str("source", rd.cfg.label).
		Str("path", strings.Join(rd.cfg.path, ".")).
		Int64("offset", rd.dec.InputOffset()).
		Msg("collection located")
	return nil
}

// findKey scans the members of the current object until key; false when the object ends first
func (rd *Reader[T]) findKey(key string) (bool, error) {
	for rd.dec.More() {
		tok, err := rd.dec.Token()
		if err != nil {
			return false, rd.classify(err, "object key")
		}
		if k, _ := tok.(string); k == key {
			return true, nil
		}
		if err := skipValue(rd.dec); err != nil {
			return false, rd.classify(err, "skipping "+fmt.Sprint(tok))
		}
	}
	return false, nil
}

func (rd *Reader[T]) expectDelim(want json.Delim, what string) error {
	tok, err := rd.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return perr.Malformedf("%s: empty document, want %s", rd.cfg.label, what)
		}
		return rd.classify(err, what)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return perr.Malformedf("%s: found %s, want %s", rd.cfg.label, tokenKind(tok), what)
	}
	return nil
}

// classify maps decoder failures: syntax, truncation and type errors are malformed input,
// anything else came from the underlying reader
func (rd *Reader[T]) classify(err error, where string) error {
	var (
		syn *json.SyntaxError
		ute *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &syn):
		return perr.Wrapf(err, perr.ErrorCodeMalformed, "%s: %s at offset %d", rd.cfg.label, where, syn.Offset)
	case errors.As(err, &ute):
		return perr.WithField(perr.Wrapf(err, perr.ErrorCodeMalformed, "%s: %s", rd.cfg.label, where), ute.Field)
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return perr.Wrapf(io.ErrUnexpectedEOF, perr.ErrorCodeMalformed, "%s: %s: truncated document", rd.cfg.label, where)
	}
	if _, ok := perr.As(err); ok {
		return rd.wrapElem(err)
	}
	return perr.Wrapf(err, perr.ErrorCodeIO, "%s: read", rd.cfg.label)
}

// wrapElem prefixes a project error with the source and element position, keeping code and field
func (rd *Reader[T]) wrapElem(err error) error {
	e, ok := perr.As(err)
	if !ok {
		return perr.Wrapf(err, perr.ErrorCodeMalformed, "%s: element %d", rd.cfg.label, rd.elems)
	}
	out := perr.Wrapf(err, e.Code(), "%s: element %d", rd.cfg.label, rd.elems)
	return perr.WithField(out, e.Field())
}

// skipValue consumes exactly one JSON value from dec without materializing it
func skipValue(dec *json.Decoder) error {
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch tok {
		case json.Delim('{'), json.Delim('['):
			depth++
		case json.Delim('}'), json.Delim(']'):
			depth--
		}
		if depth == 0 {
			return nil
		}
	}
}

func displayPath(p string) string {
	if p == "" {
		return "top level"
	}
	return fmt.Sprintf("%q", p)
}

func kindOf(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "empty"
	}
	switch raw[0] {
	case '[':
		return "an array"
	case '"':
		return "a string"
	case 't', 'f':
		return "a boolean"
	case 'n':
		return "null"
	default:
		return "a number"
	}
}

func tokenKind(tok json.Token) string {
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return "an object"
		case '[':
			return "an array"
		}
		return fmt.Sprintf("%q", v.String())
	case string:
		return "a string"
	case json.Number, float64:
		return "a number"
	case bool:
		return "a boolean"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", tok)
}
