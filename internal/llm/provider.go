// Package llm talks to the language models that write lessons and answer
// questions asked mid-lesson.
package llm

import (
	"context"
	"encoding/base64"
)

// Provider generates one response per call.
type Provider interface {
	// Generate sends req and returns the response. When req.Schema is set
	// the provider uses its native structured output and Content is
	// validated JSON; otherwise Content is the raw text.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	System   string
	Messages []Message

	// Schema, when set, constrains the response to JSON of this shape.
	Schema *Schema

	MaxTokens int

	// Temperature in [0, 1]. Zero leaves the provider default.
	Temperature float64
}

// Message is one turn of the conversation. Images are attached to the
// turn after its text; a photographed problem travels this way.
type Message struct {
	Role    Role
	Content string
	Images  []Image
}

// Image is an inline image attachment.
type Image struct {
	MediaType string // e.g. "image/png"
	Data      []byte
}

// DataURL returns the image as a base64 data URL.
func (i Image) DataURL() string {
	return "data:" + i.MediaType + ";base64," + i.Base64()
}

// Base64 returns the standard base64 encoding of the image bytes.
func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is the JSON structure expected from the model.
type Schema struct {
	// Name identifies the schema to the provider, e.g. "lesson-plan".
	Name string

	Description string

	Definition map[string]any
}
