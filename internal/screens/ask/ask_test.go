package ask

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/doceo/internal/api"
	"github.com/abhisek/doceo/internal/lesson"
)

type fakeAsker struct {
	questions []string
	answer    *api.ChatResponse
	err       error
}

func (f *fakeAsker) Ask(_ context.Context, sessionID, question string) (*api.ChatResponse, error) {
	f.questions = append(f.questions, sessionID+":"+question)
	return f.answer, f.err
}

func TestSubmitAndAnswer(t *testing.T) {
	asker := &fakeAsker{answer: &api.ChatResponse{
		Role:       "tutor",
		Message:    "The exponent drops by one.",
		MathBlocks: []lesson.MathBlock{{Latex: "x^{n-1}", Display: true}},
	}}
	s := New(asker, "sess-1", nil)
	s.input.SetValue("why does the exponent change?")

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected an ask command")
	}
	if !s.pending {
		t.Error("expected pending while the tutor answers")
	}
	if s.input.Value() != "" {
		t.Error("expected input cleared after submit")
	}

	msg := cmd()
	if len(asker.questions) != 1 || asker.questions[0] != "sess-1:why does the exponent change?" {
		t.Fatalf("unexpected questions %v", asker.questions)
	}
	s.Update(msg)

	if s.pending {
		t.Error("expected pending cleared")
	}
	view := s.View(80, 24)
	for _, want := range []string{"why does the exponent change?", "The exponent drops by one.", "x^{n-1}"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestEmptyQuestionIgnored(t *testing.T) {
	s := New(&fakeAsker{}, "sess-1", nil)
	s.input.SetValue("   ")
	if _, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter}); cmd != nil {
		t.Error("expected no command for a blank question")
	}
}

func TestSecondQuestionWhilePendingIgnored(t *testing.T) {
	s := New(&fakeAsker{answer: &api.ChatResponse{Message: "ok"}}, "sess-1", nil)
	s.input.SetValue("first")
	s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})

	s.input.SetValue("second")
	if _, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter}); cmd != nil {
		t.Error("expected no command while an answer is pending")
	}
}

func TestAnswerError(t *testing.T) {
	s := New(&fakeAsker{}, "sess-1", nil)
	s.Update(answerMsg{Err: errors.New("boom")})
	if !strings.Contains(s.View(80, 24), "could not answer: boom") {
		t.Error("expected error in view")
	}
}

func TestCloseEndsInterruptOnce(t *testing.T) {
	calls := 0
	s := New(&fakeAsker{}, "sess-1", func() { calls++ })
	s.Close()
	s.Close()
	if calls != 1 {
		t.Errorf("expected onClose once, got %d", calls)
	}
}

func TestTail(t *testing.T) {
	if got := tail("a\nb\nc\n", 2); got != "b\nc" {
		t.Errorf("expected last two lines, got %q", got)
	}
	if got := tail("a", 5); got != "a" {
		t.Errorf("expected unchanged, got %q", got)
	}
}
