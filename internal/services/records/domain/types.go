// Package domain defines the merged record and the sink contracts
package domain

import (
	"context"
	"encoding/json"
)

// Record is one merged output line. Field order is the wire order
type Record struct {
	ID       int64           `json:"id"`
	ImageID  json.RawMessage `json:"image_id"`
	Question string          `json:"question"`
	Answer   string          `json:"answer"`
}

// Sink names accepted by CORE_RECORDS_SINKS
const (
	SinkJSONL = "jsonl"
	SinkPG    = "pg"
	SinkCH    = "ch"
)

// SinkNames lists every known sink
var SinkNames = []string{SinkJSONL, SinkPG, SinkCH}

// Summary describes what a sink accepted
type Summary struct {
	Sink    string
	Records int64
	Bytes   int64
	Digest  string // hex xxhash64 of the serialized lines; jsonl only
}

// Verified is the outcome of re-reading a JSONL output
type Verified struct {
	Path    string
	Records int64
	Bytes   int64
	FirstID int64
	LastID  int64
	Digest  string
}

// SinkPort receives merged records in order
type SinkPort interface {
	// Write hands one record to the sink; it is fully serialized before any byte is written
	Write(ctx context.Context, r Record) error
	// Close flushes and releases the sink
	Close(ctx context.Context) (Summary, error)
}

// OpenerPort opens the configured sinks for one run
type OpenerPort interface {
	Open(ctx context.Context, runID string) (SinkPort, error)
}

// VerifierPort validates an existing JSONL output
type VerifierPort interface {
	Verify(ctx context.Context, path string) (Verified, error)
}
