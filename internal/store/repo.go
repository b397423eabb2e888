package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
// Results are returned newest first.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// PrefsRepo stores the preferences that survive across sessions.
type PrefsRepo interface {
	// VoiceEnabled returns the stored voice preference, or true when none
	// has been stored yet.
	VoiceEnabled(ctx context.Context) (bool, error)

	// SetVoiceEnabled stores the voice preference.
	SetVoiceEnabled(ctx context.Context, enabled bool) error
}

// PlaybackEventData captures one accepted transport transition.
type PlaybackEventData struct {
	SessionID  string
	Action     string
	FromStatus string
	ToStatus   string
	Step       int
	TotalSteps int
	Speed      float64
	Voice      bool
}

// PlaybackEvent is a stored PlaybackEventData.
type PlaybackEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	PlaybackEventData
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLMRequestEventData.
type LLMRequestEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage aggregates token usage per purpose or per model.
type LLMUsage struct {
	Purpose      string
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// EventRepo provides append and query access to the event log.
type EventRepo interface {
	// AppendPlayback records a transport transition.
	AppendPlayback(ctx context.Context, data PlaybackEventData) error

	// QueryPlayback lists transitions, optionally for one session ("" = all).
	QueryPlayback(ctx context.Context, sessionID string, opts QueryOpts) ([]PlaybackEvent, error)

	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents lists LLM request events, optionally for one purpose
	// ("" = all).
	QueryLLMEvents(ctx context.Context, purpose string, opts QueryOpts) ([]LLMRequestEvent, error)

	// GetLLMEvent returns one LLM event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEvent, error)

	// LLMUsageByPurpose aggregates token usage per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)

	// LLMUsageByModel aggregates token usage per model.
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)
}
