package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

// Normalized stop reasons.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
	StopRefused   = "refused"
)

// defaultMaxTokens applies when a request leaves MaxTokens unset.
const defaultMaxTokens = 4096

// Response holds the model's output.
type Response struct {
	Content json.RawMessage
	Usage   Usage
	Model   string

	// StopReason is one of StopEnd, StopMaxTokens or StopRefused.
	StopReason string
}

// Text decodes Content as plain text. Unstructured responses are stored as
// raw text, so Content is returned as is when it is not a JSON string.
func (r *Response) Text() string {
	var s string
	if err := json.Unmarshal(r.Content, &s); err == nil {
		return s
	}
	return string(r.Content)
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

func newUsage(in, out int) Usage {
	return Usage{InputTokens: in, OutputTokens: out, TotalTokens: in + out}
}

// finish builds the Response every provider returns. Structured requests
// fail when the output was truncated, refused or does not match the schema;
// plain text is passed through.
func finish(req Request, text, model, stop string, usage Usage) (*Response, error) {
	content := json.RawMessage(text)

	if req.Schema != nil {
		switch stop {
		case StopMaxTokens:
			return nil, &ErrMaxTokensExceeded{Content: content}
		case StopRefused:
			return nil, &ErrInvalidResponse{Content: content, Err: errors.New("model refused to answer")}
		}
		content = json.RawMessage(stripFence(text))
		if err := validateResponse(req.Schema, content); err != nil {
			return nil, err
		}
	}

	return &Response{
		Content:    content,
		Usage:      usage,
		Model:      model,
		StopReason: stop,
	}, nil
}

// stripFence removes a ```json fence some models wrap structured output in
// even when asked not to.
func stripFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return s
	}
	t = strings.TrimPrefix(t, "```")
	if i := strings.IndexByte(t, '\n'); i >= 0 {
		t = t[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t), "```"))
}

// aliases maps the short model names accepted in configuration to the
// provider's model IDs. Unknown names are passed through so full IDs work.
type aliases map[string]string

func (a aliases) resolve(name string) string {
	if id, ok := a[name]; ok {
		return id
	}
	return name
}
