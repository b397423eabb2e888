package lessongen

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/doceo/internal/lesson"
	"github.com/abhisek/doceo/internal/llm"
)

const planJSON = `{
  "title": "Solving a Linear Equation",
  "subject": "Algebra",
  "steps": [
    {"step_number": 1, "title": "Write it down", "events": [
      {"type": "narrate", "text": "Let's write the equation first."},
      {"type": "write_equation", "latex": "2x + 3 = 7"},
      {"type": "annotate", "target": "previous", "style": "circle"},
      {"type": "dance"},
      {"type": "pause"}
    ]},
    {"step_number": 1, "title": "Duplicate"},
    {"step_number": 2, "title": "Isolate x", "content": "Subtract 3 then divide by 2.", "math_blocks": [{"latex": "x = 2", "display": true}]}
  ]
}`

func TestGenerate(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(planJSON)})
	g := NewGenerator(mock, DefaultConfig(), nil)

	img := &llm.Image{MediaType: "image/jpeg", Data: []byte{1, 2, 3}}
	l, err := g.Generate(context.Background(), Problem{Text: "Solve 2x+3=7", Image: img})
	require.NoError(t, err)

	assert.Equal(t, "Solving a Linear Equation", l.Title)
	assert.Equal(t, "Algebra", l.Subject)
	assert.False(t, l.Fallback)
	require.Len(t, l.Steps, 2, "the duplicate step number is skipped")

	req := mock.Call(0)
	assert.Equal(t, PlanSchema, req.Schema)
	require.Len(t, req.Messages[0].Images, 1)
	assert.Contains(t, req.Messages[0].Content, "Solve 2x+3=7")

	s := l.Steps[0]
	assert.Equal(t, 1, s.Number)
	require.Len(t, s.Events, 5, "step marker added, unknown type dropped")
	assert.Equal(t, lesson.EventStepMarker, s.Events[0].Type)
	assert.Equal(t, "Write it down", s.Events[0].Payload.StepTitle)
	assert.Equal(t, s.Events[2].ID, s.Events[3].Payload.TargetID)
	assert.Equal(t, "circle", s.Events[3].Payload.AnnotationType)
	assert.Equal(t, "Let's write the equation first.", s.Narration)
	assert.Equal(t, []lesson.MathBlock{{Latex: "2x + 3 = 7", Display: true}}, s.MathBlocks)
	assert.Equal(t, "Let's write the equation first.\n\n$$2x + 3 = 7$$", s.Content)

	s = l.Steps[1]
	assert.Equal(t, "Subtract 3 then divide by 2.", s.Content)
	types := make([]lesson.EventType, len(s.Events))
	for i, ev := range s.Events {
		types[i] = ev.Type
	}
	assert.Equal(t, []lesson.EventType{
		lesson.EventStepMarker, lesson.EventNarrate, lesson.EventWriteText, lesson.EventWriteEquation, lesson.EventPause,
	}, types)
	assert.Equal(t, "Step 2: Isolate x", s.Events[1].Payload.Text)
}

func TestGenerate_StepsStreamValidly(t *testing.T) {
	l := MockLesson()
	for _, s := range l.Steps {
		raw, err := json.Marshal(s)
		require.NoError(t, err)
		parsed, err := lesson.ParseStep(raw)
		require.NoError(t, err)
		assert.Equal(t, s.Title, parsed.Title)
	}
}

func TestGenerateOrMock(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: errors.New("boom")})
	g := NewGenerator(mock, DefaultConfig(), nil)
	l := g.GenerateOrMock(context.Background(), Problem{Text: "x"})
	assert.True(t, l.Fallback)
	assert.Equal(t, "Differentiating a Polynomial Function", l.Title)

	g = NewGenerator(nil, DefaultConfig(), nil)
	_, err := g.Generate(context.Background(), Problem{})
	assert.ErrorIs(t, err, ErrNoProvider)
	assert.True(t, g.GenerateOrMock(context.Background(), Problem{}).Fallback)
}

func TestGenerate_NoValidSteps(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"title":"t","subject":"s","steps":[{"step_number":1,"title":""}]}`)})
	_, err := NewGenerator(mock, DefaultConfig(), nil).Generate(context.Background(), Problem{})
	require.Error(t, err)
}

func TestDurations(t *testing.T) {
	tests := []struct {
		name string
		ev   rawEvent
		want float64
	}{
		{"short narration floors", rawEvent{Type: lesson.EventNarrate, Text: "hi"}, 1500},
		{"long narration", rawEvent{Type: lesson.EventNarrate, Text: strings.Repeat("word ", 10)}, 4000},
		{"short equation floors", rawEvent{Type: lesson.EventWriteEquation, Latex: "x"}, 1200},
		{"long equation", rawEvent{Type: lesson.EventWriteEquation, Latex: strings.Repeat("x", 40)}, 2000},
		{"short text floors", rawEvent{Type: lesson.EventWriteText, Text: "a"}, 800},
		{"long text", rawEvent{Type: lesson.EventWriteText, Text: strings.Repeat("a", 100)}, 3000},
		{"annotate", rawEvent{Type: lesson.EventAnnotate}, 600},
		{"pause", rawEvent{Type: lesson.EventPause}, 1200},
		{"clear", rawEvent{Type: lesson.EventClearSection}, 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evs := processEvents(rawStep{Number: 1, Title: "t", Events: []rawEvent{tt.ev}})
			require.Len(t, evs, 2)
			assert.Equal(t, float64(300), evs[0].Duration)
			assert.Equal(t, tt.want, evs[1].Duration)
		})
	}
}

func TestEventIDs(t *testing.T) {
	evs := processEvents(rawStep{Number: 3, Events: []rawEvent{{Type: lesson.EventPause}}})
	assert.True(t, strings.HasPrefix(evs[0].ID, "s3_e0_"))
	assert.True(t, strings.HasPrefix(evs[1].ID, "s3_e1_"))
	assert.Len(t, evs[1].ID, len("s3_e1_")+6)
	assert.Equal(t, "Step 3", evs[0].Payload.StepTitle)
}

func TestTutorAnswer(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"message":"Because $x=2$.","math_blocks":[{"latex":"x=2","display":true}],"related_step":2}`),
	})
	tutor := NewTutor(mock, DefaultConfig(), nil)

	a, err := tutor.Answer(context.Background(), "Solve 2x+3=7",
		[]ChatTurn{{Role: RoleStudent, Message: "what first?"}}, "why subtract 3?")
	require.NoError(t, err)
	assert.Equal(t, RoleTutor, a.Role)
	assert.Equal(t, "Because $x=2$.", a.Narration)
	require.NotNil(t, a.RelatedStep)
	assert.Equal(t, 2, *a.RelatedStep)

	prompt := mock.Call(0).Messages[0].Content
	assert.Contains(t, prompt, "student: what first?")
	assert.Contains(t, prompt, "why subtract 3?")
}

func TestTutorAnswerOrMock(t *testing.T) {
	tutor := NewTutor(nil, DefaultConfig(), nil)
	assert.Equal(t, 2, *tutor.AnswerOrMock(context.Background(), "", nil, "Why does that work?").RelatedStep)
	assert.Contains(t, tutor.AnswerOrMock(context.Background(), "", nil, "give me an example").Message, "g(x)")
	assert.Contains(t, tutor.AnswerOrMock(context.Background(), "", nil, "hmm").Message, "Good thinking")
}

func TestLoadFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lesson.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
title: Fractions
subject: Arithmetic
steps:
  - title: Add halves
    content: One half plus one half is one.
    audio_url: /audio/halves.mp3
    audio_duration: 2.5
  - title: Add thirds
    math_blocks:
      - latex: \tfrac13 + \tfrac13 = \tfrac23
        display: true
`), 0o644))

	l, err := LoadFixture(path)
	require.NoError(t, err)
	assert.Equal(t, "Fractions", l.Title)
	require.Len(t, l.Steps, 2)
	assert.Equal(t, 1, l.Steps[0].Number)
	assert.Equal(t, 2, l.Steps[1].Number)
	assert.Equal(t, "/audio/halves.mp3", l.Steps[0].AudioURL)
	assert.Equal(t, 2.5, l.Steps[0].AudioDuration)
	assert.Equal(t, `\tfrac13 + \tfrac13 = \tfrac23`, l.Steps[1].MathBlocks[0].Latex)

	_, err = LoadFixture(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("title: x\n"), 0o644))
	_, err = LoadFixture(bad)
	require.Error(t, err)
}
