// Package lesson defines the wire model of a narrated lesson: the steps a
// lesson server streams, the completion marker that ends the stream, and
// the teaching events choreographed inside each step.
package lesson

import (
	"time"
)

// EventType names a single teaching action on the whiteboard.
type EventType string

const (
	EventNarrate       EventType = "narrate"
	EventWriteEquation EventType = "write_equation"
	EventWriteText     EventType = "write_text"
	EventAnnotate      EventType = "annotate"
	EventClearSection  EventType = "clear_section"
	EventPause         EventType = "pause"
	EventStepMarker    EventType = "step_marker"
)

// MathBlock is a typeset expression attached to a step.
type MathBlock struct {
	Latex   string `json:"latex"`
	Display bool   `json:"display"`
}

// EventPayload carries the per-type fields of a teaching event.
type EventPayload struct {
	Text           string   `json:"text,omitempty"`
	Latex          string   `json:"latex,omitempty"`
	Display        *bool    `json:"display,omitempty"`
	Position       string   `json:"position,omitempty"`
	AnnotationType string   `json:"annotation_type,omitempty"`
	TargetID       string   `json:"target_id,omitempty"`
	StepNumber     int      `json:"step_number,omitempty"`
	StepTitle      string   `json:"step_title,omitempty"`
	AudioURL       string   `json:"audio_url,omitempty"`
	AudioDuration  *float64 `json:"audio_duration,omitempty"`
}

// Event is one granular teaching action. Duration is in milliseconds.
type Event struct {
	ID       string       `json:"id"`
	Type     EventType    `json:"type"`
	Duration float64      `json:"duration"`
	Payload  EventPayload `json:"payload"`
}

// Step is one unit of narrated content.
//
// Index is assigned by the ingestion channel in arrival order and is not
// part of the wire payload. Terminal is set only on the synthetic step
// built from a completion event.
type Step struct {
	Number        int         `json:"step_number"`
	Title         string      `json:"title"`
	Content       string      `json:"content"`
	MathBlocks    []MathBlock `json:"math_blocks,omitempty"`
	Hint          string      `json:"hint,omitempty"`
	Narration     string      `json:"narration,omitempty"`
	AudioURL      string      `json:"audio_url,omitempty"`
	AudioDuration float64     `json:"audio_duration,omitempty"`
	AudioOffset   *float64    `json:"audio_offset,omitempty"`
	Events        []Event     `json:"events,omitempty"`

	Index    int  `json:"-"`
	Terminal bool `json:"-"`
}

// Complete is the payload of the terminal stream event.
type Complete struct {
	Message    string `json:"message"`
	TotalSteps int    `json:"total_steps"`
}

// AudioRef locates a step's narration within the session's audio resource.
type AudioRef struct {
	URL       string
	Offset    time.Duration
	HasOffset bool
	Duration  time.Duration
}

// AudioRef returns the narration reference for s, or nil when the step
// carries no audio information at all.
func (s *Step) AudioRef() *AudioRef {
	if s.AudioURL == "" && s.AudioDuration <= 0 && s.AudioOffset == nil {
		return nil
	}
	ref := &AudioRef{
		URL:      s.AudioURL,
		Duration: seconds(s.AudioDuration),
	}
	if s.AudioOffset != nil && *s.AudioOffset >= 0 {
		ref.Offset = seconds(*s.AudioOffset)
		ref.HasOffset = true
	}
	return ref
}

// SpokenText returns what the narrator says during this step: the step
// narration when present, otherwise the concatenated narrate events.
func (s *Step) SpokenText() string {
	if s.Narration != "" {
		return s.Narration
	}
	var out string
	for _, ev := range s.Events {
		if ev.Type != EventNarrate || ev.Payload.Text == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += ev.Payload.Text
	}
	return out
}

func seconds(f float64) time.Duration {
	if f <= 0 {
		return 0
	}
	return time.Duration(f * float64(time.Second))
}

// AudioManifest lists the narration tracks a server holds for a session.
// Offsets and durations are in seconds.
type AudioManifest struct {
	SessionID string       `json:"session_id"`
	Tracks    []AudioTrack `json:"tracks"`
}

// AudioTrack is the narration of one step.
type AudioTrack struct {
	StepNumber int      `json:"step_number"`
	URL        string   `json:"url"`
	Offset     *float64 `json:"offset,omitempty"`
	Duration   float64  `json:"duration"`
}
