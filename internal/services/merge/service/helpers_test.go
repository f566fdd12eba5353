package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	kit "vqamerge/internal/platform/testkit"
	"vqamerge/internal/services/merge/domain"
	recdom "vqamerge/internal/services/records/domain"
	"vqamerge/internal/services/records/repo"
)

// jsonlOpener opens a real JSONL sink at path and counts opens
type jsonlOpener struct {
	path  string
	opens int
	err   error
}

func (o *jsonlOpener) Open(context.Context, string) (recdom.SinkPort, error) {
	o.opens++
	if o.err != nil {
		return nil, o.err
	}
	return repo.OpenJSONL(o.path, repo.JSONLOptions{})
}

// memSink keeps records in memory; failAt > 0 fails that write
type memSink struct {
	got    []recdom.Record
	failAt int
	closed bool
}

func (m *memSink) Write(_ context.Context, r recdom.Record) error {
	if m.failAt > 0 && len(m.got)+1 == m.failAt {
		return errors.New("sink full")
	}
	m.got = append(m.got, r)
	return nil
}

func (m *memSink) Close(context.Context) (recdom.Summary, error) {
	m.closed = true
	return recdom.Summary{Sink: "mem", Records: int64(len(m.got))}, nil
}

type memOpener struct{ sink *memSink }

func (o memOpener) Open(context.Context, string) (recdom.SinkPort, error) { return o.sink, nil }

// inputs writes both documents under their default collection keys
func inputs(t *testing.T, annotations, questions string) domain.Input {
	t.Helper()
	return domain.Input{
		Annotations: domain.Source{
			File: kit.WriteFile(t, "annotations.json", `{"info":{},"annotations":`+annotations+`}`),
			Path: "annotations",
		},
		Questions: domain.Source{
			File: kit.WriteFile(t, "questions.json", `{"info":{},"questions":`+questions+`}`),
			Path: "questions",
		},
	}
}

func outPath(t *testing.T) string { return filepath.Join(t.TempDir(), "merged_vqa.jsonl") }

// drainAll collects every record of s
func drainAll(t *testing.T, s *Stream) ([]recdom.Record, error) {
	t.Helper()
	var out []recdom.Record
	for {
		r, err := s.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
}
