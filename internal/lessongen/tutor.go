package lessongen

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/abhisek/doceo/internal/llm"
	"github.com/abhisek/doceo/internal/logger"
)

// Tutor answers questions asked mid-lesson.
type Tutor struct {
	provider llm.Provider
	cfg      Config
	log      *logger.Logger
}

// NewTutor creates a Tutor. A nil provider answers from canned replies.
func NewTutor(provider llm.Provider, cfg Config, log *logger.Logger) *Tutor {
	return &Tutor{
		provider: provider,
		cfg:      cfg,
		log:      logger.OrNop(log).With("component", "tutor"),
	}
}

// Answer replies to question about problem, given the thread so far.
func (t *Tutor) Answer(ctx context.Context, problem string, history []ChatTurn, question string) (*Answer, error) {
	if t.provider == nil {
		return nil, ErrNoProvider
	}
	if t.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.Timeout)
		defer cancel()
	}
	ctx = llm.WithPurpose(ctx, "chat")

	resp, err := t.provider.Generate(ctx, llm.Request{
		System: chatSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildChatMessage(problem, history, question)},
		},
		Schema:      AnswerSchema,
		MaxTokens:   t.cfg.ChatMaxTokens,
		Temperature: t.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("tutor answer: %w", err)
	}

	var a Answer
	if err := json.Unmarshal(resp.Content, &a); err != nil {
		return nil, fmt.Errorf("parse tutor answer: %w", err)
	}
	a.Role = RoleTutor
	if a.Narration == "" {
		a.Narration = a.Message
	}
	return &a, nil
}

// AnswerOrMock is Answer with a canned reply substituted on failure.
func (t *Tutor) AnswerOrMock(ctx context.Context, problem string, history []ChatTurn, question string) *Answer {
	a, err := t.Answer(ctx, problem, history, question)
	if err != nil {
		t.log.Warn("tutor answer failed; using canned reply", "error", err)
		return MockAnswer(question)
	}
	return a
}
