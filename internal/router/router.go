// Package router keeps the player screen at the bottom and stacks overlays,
// such as the question screen, above it.
package router

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/doceo/internal/screen"
)

// PushScreenMsg opens Screen above the current one.
type PushScreenMsg struct {
	Screen screen.Screen
}

// PopScreenMsg closes the topmost overlay.
type PopScreenMsg struct{}

// Router owns the root screen and any overlays opened on it. The root is
// never removed.
type Router struct {
	root     screen.Screen
	overlays []screen.Screen
}

func New(root screen.Screen) *Router {
	return &Router{root: root}
}

// Push opens s as an overlay and returns its Init command.
func (r *Router) Push(s screen.Screen) tea.Cmd {
	r.overlays = append(r.overlays, s)
	return s.Init()
}

// Pop drops the topmost overlay and returns its Close command when it has
// one. With no overlay open it does nothing.
func (r *Router) Pop() tea.Cmd {
	n := len(r.overlays)
	if n == 0 {
		return nil
	}
	top := r.overlays[n-1]
	r.overlays[n-1] = nil
	r.overlays = r.overlays[:n-1]

	if c, ok := top.(screen.Closer); ok {
		return c.Close()
	}
	return nil
}

// Active is the screen receiving input.
func (r *Router) Active() screen.Screen {
	if n := len(r.overlays); n > 0 {
		return r.overlays[n-1]
	}
	return r.root
}

// Depth counts the root and its overlays.
func (r *Router) Depth() int {
	if r.root == nil {
		return len(r.overlays)
	}
	return 1 + len(r.overlays)
}

func (r *Router) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case PushScreenMsg:
		return r.Push(msg.Screen)
	case PopScreenMsg:
		return r.Pop()
	}

	if n := len(r.overlays); n > 0 {
		next, cmd := r.overlays[n-1].Update(msg)
		r.overlays[n-1] = next
		return cmd
	}
	if r.root == nil {
		return nil
	}
	next, cmd := r.root.Update(msg)
	r.root = next
	return cmd
}

func (r *Router) View(width, height int) string {
	s := r.Active()
	if s == nil {
		return ""
	}
	return s.View(width, height)
}
