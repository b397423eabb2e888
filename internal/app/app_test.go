package app

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/doceo/internal/router"
	"github.com/abhisek/doceo/internal/screen"
	"github.com/abhisek/doceo/internal/ui/layout"
)

type stubScreen struct {
	title  string
	closed bool
}

func (s *stubScreen) Init() tea.Cmd                           { return nil }
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *stubScreen) View(int, int) string                    { return "content of " + s.title }
func (s *stubScreen) Title() string                           { return s.title }
func (s *stubScreen) HeaderStatus() string                    { return "▶  1x  voice on" }
func (s *stubScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{{Key: "Space", Description: "Pause"}}
}
func (s *stubScreen) Close() tea.Cmd {
	s.closed = true
	return nil
}

func TestViewComposesFrame(t *testing.T) {
	m := newAppModel(&stubScreen{title: "Recall the Power Rule"})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	content := updated.(AppModel).frame()
	for _, want := range []string{"Doceo", "Recall the Power Rule", "voice on", "content of", "Pause"} {
		if !strings.Contains(content, want) {
			t.Errorf("expected frame to contain %q", want)
		}
	}
}

func TestViewTooSmall(t *testing.T) {
	m := newAppModel(&stubScreen{title: "x"})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 10})
	if !strings.Contains(updated.(AppModel).frame(), "needs more room") {
		t.Error("expected resize message")
	}
}

func TestEscPopsOnlyAboveRoot(t *testing.T) {
	m := newAppModel(&stubScreen{title: "lesson"})

	if _, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape}); cmd != nil {
		t.Error("esc at the root screen should do nothing")
	}

	askScreen := &stubScreen{title: "ask"}
	m.router.Push(askScreen)
	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("expected pop command")
	}
	msg := cmd()
	if _, ok := msg.(router.PopScreenMsg); !ok {
		t.Fatal("expected PopScreenMsg")
	}
	m.Update(msg)
	if !askScreen.closed {
		t.Error("expected popped screen to be closed")
	}
	if m.router.Active().Title() != "lesson" {
		t.Error("expected lesson screen on top")
	}
}

func TestCtrlCQuits(t *testing.T) {
	m := newAppModel(&stubScreen{title: "lesson"})
	_, cmd := m.Update(tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected QuitMsg")
	}
}
