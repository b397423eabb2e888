package lesson

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// StepSchema is the JSON Schema a streamed step payload must satisfy.
var StepSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"step_number": map[string]any{"type": "integer", "minimum": 0},
		"title":       map[string]any{"type": "string"},
		"content":     map[string]any{"type": "string"},
		"math_blocks": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"latex":   map[string]any{"type": "string"},
					"display": map[string]any{"type": "boolean"},
				},
				"required": []any{"latex"},
			},
		},
		"hint":           map[string]any{"type": []any{"string", "null"}},
		"narration":      map[string]any{"type": []any{"string", "null"}},
		"audio_url":      map[string]any{"type": []any{"string", "null"}},
		"audio_duration": map[string]any{"type": []any{"number", "null"}, "minimum": 0},
		"audio_offset":   map[string]any{"type": []any{"number", "null"}, "minimum": 0},
		"events": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id":       map[string]any{"type": "string"},
					"type":     map[string]any{"type": "string"},
					"duration": map[string]any{"type": "number", "minimum": 0},
					"payload":  map[string]any{"type": "object"},
				},
				"required": []any{"type"},
			},
		},
	},
	"required": []any{"step_number", "title", "content"},
}

// CompleteSchema is the JSON Schema of the completion payload.
var CompleteSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"message":     map[string]any{"type": "string"},
		"total_steps": map[string]any{"type": "integer", "minimum": 0},
	},
	"required": []any{"total_steps"},
}

var (
	compileOnce  sync.Once
	compiledStep *jsonschema.Schema
	compiledDone *jsonschema.Schema
	compileErr   error
)

func compiled() (*jsonschema.Schema, *jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiledStep, compileErr = compile("lesson-step", StepSchema)
		if compileErr != nil {
			return
		}
		compiledDone, compileErr = compile("lesson-complete", CompleteSchema)
	})
	return compiledStep, compiledDone, compileErr
}

func compile(name string, def map[string]any) (*jsonschema.Schema, error) {
	// The compiler wants a plain decoded JSON value, not Go maps with
	// typed slices, so round-trip through encoding/json.
	raw, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("marshal %s schema: %w", name, err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse %s schema: %w", name, err)
	}

	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://%s.json", name)
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add %s schema: %w", name, err)
	}
	return c.Compile(url)
}

// ParseStep decodes and validates a step payload.
func ParseStep(data []byte) (*Step, error) {
	stepSchema, _, err := compiled()
	if err != nil {
		return nil, err
	}
	if err := validate(stepSchema, data); err != nil {
		return nil, err
	}
	var s Step
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode step: %w", err)
	}
	return &s, nil
}

// ParseComplete decodes and validates a completion payload.
func ParseComplete(data []byte) (*Complete, error) {
	_, doneSchema, err := compiled()
	if err != nil {
		return nil, err
	}
	if err := validate(doneSchema, data); err != nil {
		return nil, err
	}
	var c Complete
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode complete: %w", err)
	}
	return &c, nil
}

func validate(schema *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
