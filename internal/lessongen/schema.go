package lessongen

import "github.com/abhisek/doceo/internal/llm"

// rawEventSchema is the simplified event the model scripts. Ids, durations
// and payload structure are filled in afterwards.
var rawEventSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"type": map[string]any{
			"type": "string",
			"enum": []any{"narrate", "write_equation", "write_text", "annotate", "pause", "clear_section"},
		},
		"text":    map[string]any{"type": "string", "description": "Spoken words for narrate, board text for write_text"},
		"latex":   map[string]any{"type": "string", "description": "LaTeX for write_equation"},
		"display": map[string]any{"type": "boolean", "description": "Centered display math when true"},
		"target":  map[string]any{"type": "string", "description": "\"previous\" to annotate the last written element"},
		"style":   map[string]any{"type": "string", "enum": []any{"highlight", "underline", "circle", "box"}},
	},
	"required": []any{"type"},
}

// PlanSchema is the lesson the model returns.
var PlanSchema = &llm.Schema{
	Name:        "lesson-plan",
	Description: "A step-by-step whiteboard lesson with scripted teaching events",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":   map[string]any{"type": "string", "description": "Clear lesson title"},
			"subject": map[string]any{"type": "string", "description": "Subject area, e.g. Algebra"},
			"steps": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"step_number": map[string]any{"type": "integer", "minimum": 1},
						"title":       map[string]any{"type": "string"},
						"content":     map[string]any{"type": "string"},
						"hint":        map[string]any{"type": "string"},
						"events":      map[string]any{"type": "array", "items": rawEventSchema},
					},
					"required": []any{"step_number", "title"},
				},
			},
		},
		"required": []any{"title", "subject", "steps"},
	},
}

// AnswerSchema is the tutor reply the model returns.
var AnswerSchema = &llm.Schema{
	Name:        "tutor-answer",
	Description: "A tutor's answer to a student question",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message":   map[string]any{"type": "string", "description": "Explanation with $...$ LaTeX where useful"},
			"narration": map[string]any{"type": "string", "description": "What would be said aloud"},
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
			"related_step": map[string]any{"type": []any{"integer", "null"}},
		},
		"required": []any{"message"},
	},
}
