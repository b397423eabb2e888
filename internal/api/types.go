// Package api is the client for a doceo lesson server, and the wire types
// the server and client share.
package api

import "github.com/abhisek/doceo/internal/lesson"

// APIVersion is the semantic version of the HTTP API. Clients accept any
// server with the same major version.
const APIVersion = "v1.2.0"

// Session statuses.
const (
	StatusProcessing = "processing"
	StatusStreaming  = "streaming"
	StatusComplete   = "complete"
)

// SessionCreate is the body of POST /sessions.
type SessionCreate struct {
	ProblemText string `json:"problem_text"`
	SubjectHint string `json:"subject_hint,omitempty"`
}

// Upload is a problem sent as a file, usually a photo.
type Upload struct {
	Filename    string
	Data        []byte
	ProblemText string
	SubjectHint string
}

// SessionResponse describes a session.
type SessionResponse struct {
	SessionID string `json:"session_id"`
	// LoadingRunID identifies one generation run of the session's lesson.
	LoadingRunID string `json:"loading_run_id"`
	Title        string `json:"title"`
	Subject      string `json:"subject"`
	StepCount    int    `json:"step_count"`
	Status       string `json:"status"`
}

// ChatRequest is the body of POST /sessions/:id/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the tutor's reply.
type ChatResponse struct {
	Role        string             `json:"role"`
	Message     string             `json:"message"`
	Narration   string             `json:"narration,omitempty"`
	MathBlocks  []lesson.MathBlock `json:"math_blocks"`
	RelatedStep *int               `json:"related_step,omitempty"`
}

// Health is the body of GET /health.
type Health struct {
	Status     string `json:"status"`
	APIVersion string `json:"api_version"`
}

// ErrorBody is the body of every non-2xx response.
type ErrorBody struct {
	Detail string `json:"detail"`
}
