// Package domain defines the core types and interfaces for the merge service
package domain

import (
	"encoding/json"
	"time"

	recdom "vqamerge/internal/services/records/domain"
)

// MergedRecord is one output record
type MergedRecord = recdom.Record

// QuestionTag prefixes every merged question
const QuestionTag = recdom.QuestionTag

// Annotation is one element of the annotation collection; extra fields are ignored
type Annotation struct {
	QuestionID *QuestionID `json:"question_id" validate:"required"`
	Answer     *string     `json:"multiple_choice_answer" validate:"required"`
}

// Question is one element of the question collection; extra fields are ignored
type Question struct {
	QuestionID *QuestionID     `json:"question_id" validate:"required"`
	ImageID    json.RawMessage `json:"image_id" validate:"required"`
	Text       *string         `json:"question" validate:"required"`
}

// Source is one JSON input file and the collection path inside it
type Source struct {
	File string
	Path string // dotted path, "" means the document is the array
}

// Input names the two sources of a run
type Input struct {
	Annotations Source
	Questions   Source
}

// Report summarizes one run
type Report struct {
	RunID       string
	Annotations int   // distinct question ids in the index
	Duplicates  int   // annotation elements that replaced an earlier answer
	Processed   int64 // question elements encountered, matched or not
	Matched     int64
	Skipped     int64 // Processed - Matched
	Bytes       int64 // bytes written to the jsonl sink
	Digest      string
	Elapsed     time.Duration
}
