// Package player is the lesson screen: the step being narrated, the steps
// around it and the transport controls.
package player

import (
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/doceo/internal/playback"
	"github.com/abhisek/doceo/internal/render"
	"github.com/abhisek/doceo/internal/router"
	"github.com/abhisek/doceo/internal/screen"
	"github.com/abhisek/doceo/internal/ui/layout"
)

// Controller is the playback surface the screen drives.
// *playback.Orchestrator implements it.
type Controller interface {
	State() playback.State
	Changes() <-chan struct{}
	Speed() float64
	Play() bool
	Pause() bool
	Resume() bool
	Interrupt() bool
	SetSpeed(m float64) bool
	ToggleVoice() bool
}

// AssetLookup reads typeset math without blocking. *render.Cache
// implements it.
type AssetLookup interface {
	Lookup(expression string, display bool, scale float64) (*render.Asset, bool)
}

// changeMsg is sent when the controller reports a state change.
type changeMsg struct{}

// PlayerScreen implements screen.Screen for a lesson.
type PlayerScreen struct {
	ctl    Controller
	assets AssetLookup
	scale  float64
	newAsk func() screen.Screen

	state playback.State
}

var _ screen.Screen = (*PlayerScreen)(nil)
var _ screen.KeyHintProvider = (*PlayerScreen)(nil)
var _ screen.StatusProvider = (*PlayerScreen)(nil)

// New creates a PlayerScreen. assets and newAsk may be nil; without
// newAsk the ask key does nothing.
func New(ctl Controller, assets AssetLookup, scale float64, newAsk func() screen.Screen) *PlayerScreen {
	if scale <= 0 {
		scale = 1
	}
	return &PlayerScreen{
		ctl:    ctl,
		assets: assets,
		scale:  scale,
		newAsk: newAsk,
		state:  ctl.State(),
	}
}

func (p *PlayerScreen) Init() tea.Cmd {
	p.state = p.ctl.State()
	return p.waitForChange()
}

func (p *PlayerScreen) Title() string {
	if cur := p.state.Current(); cur != nil && cur.Title != "" {
		return cur.Title
	}
	return "Lesson"
}

func (p *PlayerScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case changeMsg:
		p.state = p.ctl.State()
		return p, p.waitForChange()

	case tea.KeyMsg:
		return p.handleKey(msg)
	}
	return p, nil
}

func (p *PlayerScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.String() {
	case "space", " ", "p":
		p.toggle()
	case "s":
		p.ctl.SetSpeed(playback.NextSpeed(p.ctl.Speed()))
	case "v":
		p.ctl.ToggleVoice()
	case "i", "?":
		if p.newAsk == nil {
			return p, nil
		}
		p.ctl.Interrupt()
		ask := p.newAsk()
		cmd = func() tea.Msg { return router.PushScreenMsg{Screen: ask} }
	case "q":
		return p, tea.Quit
	default:
		return p, nil
	}

	p.state = p.ctl.State()
	return p, cmd
}

// toggle is the single play key: start, pause, resume or replay depending
// on where the lesson is.
func (p *PlayerScreen) toggle() {
	switch p.ctl.State().Status {
	case playback.StatusIdle, playback.StatusComplete:
		p.ctl.Play()
	case playback.StatusPlaying:
		p.ctl.Pause()
	case playback.StatusPaused:
		p.ctl.Resume()
	}
}

func (p *PlayerScreen) waitForChange() tea.Cmd {
	ch := p.ctl.Changes()
	return func() tea.Msg {
		<-ch
		return changeMsg{}
	}
}

func (p *PlayerScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Space", Description: playLabel(p.state.Status)},
		{Key: "S", Description: "Speed"},
		{Key: "V", Description: "Voice"},
		{Key: "I", Description: "Ask"},
		{Key: "Q", Description: "Quit"},
	}
}

// HeaderStatus summarizes transport state for the header.
func (p *PlayerScreen) HeaderStatus() string {
	voice := "voice on"
	if !p.state.VoiceEnabled {
		voice = "muted"
	}
	return fmt.Sprintf("%s  %sx  %s", statusIcon(p.state.Status), speedLabel(p.state.Speed), voice)
}

func playLabel(s playback.Status) string {
	switch s {
	case playback.StatusPlaying:
		return "Pause"
	case playback.StatusPaused:
		return "Resume"
	case playback.StatusComplete:
		return "Replay"
	}
	return "Play"
}

func statusIcon(s playback.Status) string {
	switch s {
	case playback.StatusPlaying:
		return "▶"
	case playback.StatusPaused:
		return "❚❚"
	case playback.StatusComplete:
		return "✓"
	}
	return "■"
}

func speedLabel(m float64) string {
	if m <= 0 {
		m = 1
	}
	return fmt.Sprintf("%g", m)
}
