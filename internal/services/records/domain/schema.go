package domain

import (
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// QuestionTag prefixes every merged question
const QuestionTag = "[text] "

const schemaDraft = "https://json-schema.org/draft/2020-12/schema"

var (
	schemaOnce sync.Once
	schemaRes  *jsonschema.Resolved
	schemaErr  error
)

// Schema returns the JSON Schema of one merged line
func Schema() *jsonschema.Schema {
	minID := 1.0
	return &jsonschema.Schema{
		Schema:      schemaDraft,
		Title:       "vqa merged record",
		Description: "one line of the merged VQA output",
		Type:        "object",
		Properties: map[string]*jsonschema.Schema{
			"id": {
				Type:        "integer",
				Minimum:     &minID,
				Description: "1-based position of the question among all questions",
			},
			"image_id": {
				Description: "image_id of the question, copied verbatim",
			},
			"question": {
				Type:    "string",
				Pattern: `^\[text\] `,
			},
			"answer": {
				Type: "string",
			},
		},
		PropertyOrder:        []string{"id", "image_id", "question", "answer"},
		Required:             []string{"id", "image_id", "question", "answer"},
		AdditionalProperties: &jsonschema.Schema{Not: &jsonschema.Schema{}},
	}
}

// ResolvedSchema returns the resolved schema, built once
func ResolvedSchema() (*jsonschema.Resolved, error) {
	schemaOnce.Do(func() {
		schemaRes, schemaErr = Schema().Resolve(nil)
	})
	return schemaRes, schemaErr
}
