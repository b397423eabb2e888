// Package ask is the question screen opened mid-lesson. The lesson stays
// interrupted until the screen closes.
package ask

import (
	"context"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/doceo/internal/api"
	"github.com/abhisek/doceo/internal/screen"
	"github.com/abhisek/doceo/internal/ui/components"
	"github.com/abhisek/doceo/internal/ui/layout"
	"github.com/abhisek/doceo/internal/ui/theme"
)

const askTimeout = 90 * time.Second

// Asker sends a question to the tutor. *api.Client implements it.
type Asker interface {
	Ask(ctx context.Context, sessionID, question string) (*api.ChatResponse, error)
}

type turn struct {
	student bool
	text    string
	math    []string
}

// answerMsg carries the tutor's reply.
type answerMsg struct {
	Answer *api.ChatResponse
	Err    error
}

// AskScreen implements screen.Screen for the question flow.
type AskScreen struct {
	asker     Asker
	sessionID string
	onClose   func()

	input   components.TextInput
	turns   []turn
	pending bool
	errMsg  string
}

var _ screen.Screen = (*AskScreen)(nil)
var _ screen.KeyHintProvider = (*AskScreen)(nil)
var _ screen.Closer = (*AskScreen)(nil)

// New creates an AskScreen. onClose runs once when the screen leaves the
// stack.
func New(asker Asker, sessionID string, onClose func()) *AskScreen {
	return &AskScreen{
		asker:     asker,
		sessionID: sessionID,
		onClose:   onClose,
		input:     components.NewTextInput("Ask about this step...", 500),
	}
}

func (s *AskScreen) Init() tea.Cmd {
	return s.input.Init()
}

func (s *AskScreen) Title() string {
	return "Ask a Question"
}

func (s *AskScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Send"},
		{Key: "Esc", Description: "Back to lesson"},
	}
}

// Close ends the interrupt.
func (s *AskScreen) Close() tea.Cmd {
	if s.onClose != nil {
		s.onClose()
		s.onClose = nil
	}
	return nil
}

func (s *AskScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case answerMsg:
		s.pending = false
		s.input.Disabled = false
		if msg.Err != nil {
			s.errMsg = "The tutor could not answer: " + msg.Err.Error()
			return s, nil
		}
		var math []string
		for _, mb := range msg.Answer.MathBlocks {
			math = append(math, mb.Latex)
		}
		s.turns = append(s.turns, turn{text: msg.Answer.Message, math: math})
		return s, nil

	case tea.KeyMsg:
		if msg.String() == "enter" {
			return s, s.submit()
		}
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *AskScreen) submit() tea.Cmd {
	q := s.input.Value()
	if q == "" || s.pending {
		return nil
	}
	s.turns = append(s.turns, turn{student: true, text: q})
	s.input.Reset()
	s.input.Disabled = true
	s.pending = true
	s.errMsg = ""

	asker, id := s.asker, s.sessionID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
		defer cancel()
		a, err := asker.Ask(ctx, id, q)
		return answerMsg{Answer: a, Err: err}
	}
}

func (s *AskScreen) View(width, height int) string {
	inner := max(width-4, 10)

	var b strings.Builder
	if len(s.turns) == 0 {
		b.WriteString(theme.Hint.Render("The lesson is paused. Ask anything about it."))
		b.WriteString("\n\n")
	}
	for _, t := range s.turns {
		if t.student {
			b.WriteString(theme.Student.Render("You"))
		} else {
			b.WriteString(theme.Tutor.Render("Tutor"))
		}
		b.WriteString("\n")
		b.WriteString(theme.Body.Width(inner).Render(t.text))
		b.WriteString("\n")
		for _, m := range t.math {
			b.WriteString(lipgloss.NewStyle().Width(inner).Align(lipgloss.Center).Render(theme.Math.Render(m)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if s.pending {
		b.WriteString(theme.Hint.Render("Thinking..."))
		b.WriteString("\n")
	}
	if s.errMsg != "" {
		b.WriteString(theme.Advisory.Width(inner).Render(s.errMsg))
		b.WriteString("\n")
	}

	input := theme.Card.Width(inner).Render(s.input.View())
	transcript := tail(b.String(), max(height-lipgloss.Height(input)-1, 0))
	return lipgloss.NewStyle().Padding(0, 2).Render(transcript + "\n" + input)
}

// tail keeps the last n lines so the newest turn stays visible.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
