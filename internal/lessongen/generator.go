package lessongen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/abhisek/doceo/internal/llm"
	"github.com/abhisek/doceo/internal/logger"
)

// Generator writes lessons with an LLM.
type Generator struct {
	provider llm.Provider
	cfg      Config
	log      *logger.Logger
}

// NewGenerator creates a Generator. A nil provider makes every lesson the
// built-in one.
func NewGenerator(provider llm.Provider, cfg Config, log *logger.Logger) *Generator {
	return &Generator{
		provider: provider,
		cfg:      cfg,
		log:      logger.OrNop(log).With("component", "lessongen"),
	}
}

type planOutput struct {
	Title   string    `json:"title"`
	Subject string    `json:"subject"`
	Steps   []rawStep `json:"steps"`
}

// ErrNoProvider is returned by Generate when no model is configured.
var ErrNoProvider = errors.New("no LLM provider configured")

// Generate writes a lesson for p.
func (g *Generator) Generate(ctx context.Context, p Problem) (*Lesson, error) {
	if g.provider == nil {
		return nil, ErrNoProvider
	}
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}
	ctx = llm.WithPurpose(ctx, "lesson")

	msg := llm.Message{Role: llm.RoleUser, Content: buildLessonMessage(p)}
	if p.Image != nil {
		msg.Images = []llm.Image{*p.Image}
	}

	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      lessonSystemPrompt,
		Messages:    []llm.Message{msg},
		Schema:      PlanSchema,
		MaxTokens:   g.cfg.LessonMaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("lesson generation: %w", err)
	}

	var out planOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse lesson response: %w", err)
	}

	l := &Lesson{Title: out.Title, Subject: out.Subject}
	last := 0
	for _, rs := range out.Steps {
		// Step numbers must strictly increase on the wire.
		if rs.Title == "" || rs.Number <= last {
			g.log.Debug("skipping invalid step", "step_number", rs.Number)
			continue
		}
		last = rs.Number
		l.Steps = append(l.Steps, buildStep(rs))
	}
	if len(l.Steps) == 0 {
		return nil, fmt.Errorf("lesson generation: no valid steps")
	}
	if l.Subject == "" {
		l.Subject = p.Subject
	}
	return l, nil
}

// GenerateOrMock is Generate with the built-in lesson substituted on any
// failure.
func (g *Generator) GenerateOrMock(ctx context.Context, p Problem) *Lesson {
	l, err := g.Generate(ctx, p)
	if err != nil {
		g.log.Warn("lesson generation failed; using built-in lesson", "error", err)
		return MockLesson()
	}
	return l
}
