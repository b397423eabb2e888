package lessongen

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/abhisek/doceo/internal/lesson"
)

// Duration estimates in milliseconds. Narration is re-timed by the audio
// track when one exists.
const (
	narrateWordsPerSecond = 2.5
	narrateMinMs          = 1500
	equationMsPerChar     = 50
	equationMinMs         = 1200
	textMsPerChar         = 30
	textMinMs             = 800
	annotateMs            = 600
	pauseMs               = 1200
	clearSectionMs        = 400
	stepMarkerMs          = 300
)

// rawEvent is a teaching event as the model scripts it.
type rawEvent struct {
	Type    lesson.EventType `json:"type" yaml:"type"`
	Text    string           `json:"text,omitempty" yaml:"text"`
	Latex   string           `json:"latex,omitempty" yaml:"latex"`
	Display *bool            `json:"display,omitempty" yaml:"display"`
	Target  string           `json:"target,omitempty" yaml:"target"`
	Style   string           `json:"style,omitempty" yaml:"style"`
}

// rawStep is a step as the model or a fixture file writes it.
type rawStep struct {
	Number     int                `json:"step_number" yaml:"step_number"`
	Title      string             `json:"title" yaml:"title"`
	Content    string             `json:"content,omitempty" yaml:"content"`
	Hint       string             `json:"hint,omitempty" yaml:"hint"`
	Narration  string             `json:"narration,omitempty" yaml:"narration"`
	MathBlocks []lesson.MathBlock `json:"math_blocks,omitempty" yaml:"math_blocks"`
	AudioURL   string             `json:"audio_url,omitempty" yaml:"audio_url"`
	AudioSecs  float64            `json:"audio_duration,omitempty" yaml:"audio_duration"`
	Events     []rawEvent         `json:"events,omitempty" yaml:"events"`
}

// eventSuffix makes event ids unique across regenerations of a lesson.
var eventSuffix = func() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}

func eventID(step, i int) string {
	return fmt.Sprintf("s%d_e%d_%s", step, i, eventSuffix())
}

// buildStep turns a raw step into the wire step: teaching events get ids
// and duration estimates, and content, narration and math blocks are
// derived from them where the raw step leaves them out.
func buildStep(raw rawStep) *lesson.Step {
	var events []lesson.Event
	if len(raw.Events) > 0 {
		events = processEvents(raw)
	} else {
		events = eventsFromContent(raw)
	}

	s := &lesson.Step{
		Number:     raw.Number,
		Title:      raw.Title,
		Content:    raw.Content,
		Hint:       raw.Hint,
		Narration:  raw.Narration,
		MathBlocks: raw.MathBlocks,
		AudioURL:   raw.AudioURL,
		Events:     events,
	}
	if raw.AudioSecs > 0 {
		s.AudioDuration = raw.AudioSecs
	}
	if s.Content == "" {
		s.Content = contentFromEvents(events)
	}
	if s.Narration == "" {
		s.Narration = narrationFromEvents(events)
	}
	if len(s.MathBlocks) == 0 {
		s.MathBlocks = mathBlocksFromEvents(events)
	}
	return s
}

func stepMarker(raw rawStep) lesson.Event {
	title := raw.Title
	if title == "" {
		title = fmt.Sprintf("Step %d", raw.Number)
	}
	return lesson.Event{
		ID:       eventID(raw.Number, 0),
		Type:     lesson.EventStepMarker,
		Duration: stepMarkerMs,
		Payload:  lesson.EventPayload{StepNumber: raw.Number, StepTitle: title},
	}
}

// processEvents expands scripted events. A step marker is prepended and
// unknown event types are dropped.
func processEvents(raw rawStep) []lesson.Event {
	n := raw.Number
	out := []lesson.Event{stepMarker(raw)}

	for i, re := range raw.Events {
		ev := lesson.Event{
			ID:      eventID(n, i+1),
			Type:    re.Type,
			Payload: lesson.EventPayload{StepNumber: n},
		}
		switch re.Type {
		case lesson.EventNarrate, "":
			ev.Type = lesson.EventNarrate
			ev.Payload.Text = re.Text
			ev.Duration = narrateMs(re.Text)
		case lesson.EventWriteEquation:
			display := true
			if re.Display != nil {
				display = *re.Display
			}
			ev.Payload.Latex = re.Latex
			ev.Payload.Display = &display
			ev.Duration = perChar(re.Latex, equationMsPerChar, equationMinMs)
		case lesson.EventWriteText:
			ev.Payload.Text = re.Text
			ev.Duration = perChar(re.Text, textMsPerChar, textMinMs)
		case lesson.EventAnnotate:
			ev.Payload.AnnotationType = re.Style
			if ev.Payload.AnnotationType == "" {
				ev.Payload.AnnotationType = "highlight"
			}
			if re.Target == "previous" {
				ev.Payload.TargetID = lastWritten(out)
			}
			ev.Duration = annotateMs
		case lesson.EventPause:
			ev.Duration = pauseMs
		case lesson.EventClearSection:
			ev.Duration = clearSectionMs
		default:
			continue
		}
		out = append(out, ev)
	}
	return out
}

// eventsFromContent scripts a plain step: say the title, write the content
// and each math block, then pause.
func eventsFromContent(raw rawStep) []lesson.Event {
	n := raw.Number
	out := []lesson.Event{stepMarker(raw)}

	title := fmt.Sprintf("Step %d: %s", n, raw.Title)
	out = append(out, lesson.Event{
		ID:       eventID(n, len(out)),
		Type:     lesson.EventNarrate,
		Duration: narrateMs(title),
		Payload:  lesson.EventPayload{Text: title, StepNumber: n},
	})
	if raw.Content != "" {
		out = append(out, lesson.Event{
			ID:       eventID(n, len(out)),
			Type:     lesson.EventWriteText,
			Duration: perChar(raw.Content, textMsPerChar, textMinMs),
			Payload:  lesson.EventPayload{Text: raw.Content, StepNumber: n},
		})
	}
	for _, mb := range raw.MathBlocks {
		display := mb.Display
		out = append(out, lesson.Event{
			ID:       eventID(n, len(out)),
			Type:     lesson.EventWriteEquation,
			Duration: perChar(mb.Latex, equationMsPerChar, equationMinMs),
			Payload:  lesson.EventPayload{Latex: mb.Latex, Display: &display, StepNumber: n},
		})
	}
	out = append(out, lesson.Event{
		ID:       eventID(n, len(out)),
		Type:     lesson.EventPause,
		Duration: pauseMs,
		Payload:  lesson.EventPayload{StepNumber: n},
	})
	return out
}

func narrateMs(text string) float64 {
	words := len(strings.Fields(text))
	return max(narrateMinMs, float64(words)/narrateWordsPerSecond*1000)
}

func perChar(s string, msPerChar, minMs int) float64 {
	return float64(max(minMs, len(s)*msPerChar))
}

func lastWritten(events []lesson.Event) string {
	for i := len(events) - 1; i >= 0; i-- {
		switch events[i].Type {
		case lesson.EventWriteEquation, lesson.EventWriteText:
			return events[i].ID
		}
	}
	return ""
}

// contentFromEvents renders the board as markdown with $-delimited math.
func contentFromEvents(events []lesson.Event) string {
	var parts []string
	for _, ev := range events {
		switch ev.Type {
		case lesson.EventNarrate, lesson.EventWriteText:
			parts = append(parts, ev.Payload.Text)
		case lesson.EventWriteEquation:
			if ev.Payload.Display != nil && *ev.Payload.Display {
				parts = append(parts, "$$"+ev.Payload.Latex+"$$")
			} else {
				parts = append(parts, "$"+ev.Payload.Latex+"$")
			}
		}
	}
	return strings.Join(parts, "\n\n")
}

func narrationFromEvents(events []lesson.Event) string {
	var parts []string
	for _, ev := range events {
		if ev.Type == lesson.EventNarrate && ev.Payload.Text != "" {
			parts = append(parts, ev.Payload.Text)
		}
	}
	return strings.Join(parts, " ")
}

func mathBlocksFromEvents(events []lesson.Event) []lesson.MathBlock {
	var out []lesson.MathBlock
	for _, ev := range events {
		if ev.Type != lesson.EventWriteEquation || ev.Payload.Latex == "" {
			continue
		}
		display := ev.Payload.Display == nil || *ev.Payload.Display
		out = append(out, lesson.MathBlock{Latex: ev.Payload.Latex, Display: display})
	}
	return out
}
