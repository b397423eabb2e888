// Package app runs the terminal lesson player.
package app

import (
	"context"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/doceo/internal/api"
	"github.com/abhisek/doceo/internal/logger"
	"github.com/abhisek/doceo/internal/playback"
	"github.com/abhisek/doceo/internal/render"
	"github.com/abhisek/doceo/internal/router"
	"github.com/abhisek/doceo/internal/screen"
	"github.com/abhisek/doceo/internal/screens/ask"
	"github.com/abhisek/doceo/internal/screens/player"
	"github.com/abhisek/doceo/internal/ui/layout"
)

// Options holds what the player needs for one session.
type Options struct {
	Orchestrator *playback.Orchestrator
	Assets       *render.Cache
	Client       *api.Client
	SessionID    string
	RenderScale  float64
	Log          *logger.Logger

	// Autoplay starts narration as soon as the player opens.
	Autoplay bool
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	width  int
	height int
}

// newAppModel creates an AppModel with the player as the root screen.
func newAppModel(root screen.Screen) AppModel {
	return AppModel{
		router: router.New(root),
	}
}

func (m AppModel) Init() tea.Cmd {
	if active := m.router.Active(); active != nil {
		return active.Init()
	}
	return nil
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView(m.frame())
	v.AltScreen = true
	return v
}

// frame renders header, active screen and footer for the current size.
func (m AppModel) frame() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if layout.TooSmall(m.width, m.height) {
		return layout.TooSmallNotice(m.width, m.height)
	}

	active := m.router.Active()
	title, status := "", ""
	if active != nil {
		title = active.Title()
		if sp, ok := active.(screen.StatusProvider); ok {
			status = sp.HeaderStatus()
		}
	}

	header := layout.Header(title, status, m.width)

	footerHints := []layout.KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
	if kp, ok := active.(screen.KeyHintProvider); ok {
		footerHints = kp.KeyHints()
	}
	footer := layout.Footer(footerHints, m.width)

	body := m.router.View(m.width, layout.BodyHeight(header, footer, m.height))
	return layout.Frame(header, body, footer, m.width, m.height)
}

// Run starts the orchestrator pump and the Bubble Tea program, and blocks
// until the player quits.
func Run(ctx context.Context, opts Options) error {
	orch := opts.Orchestrator
	log := logger.OrNop(opts.Log)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := orch.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("playback pump stopped", "error", err)
		}
	}()

	var newAsk func() screen.Screen
	if opts.Client != nil {
		newAsk = func() screen.Screen {
			return ask.New(opts.Client, opts.SessionID, func() { orch.EndInterrupt() })
		}
	}
	var assets player.AssetLookup
	if opts.Assets != nil {
		assets = opts.Assets
	}
	root := player.New(orch, assets, opts.RenderScale, newAsk)
	if opts.Autoplay {
		orch.Play()
	}

	p := tea.NewProgram(newAppModel(root), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running player:", err)
		return err
	}
	return nil
}
