package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/doceo/internal/ui/layout"
)

// Screen is one page of the player UI.
type Screen interface {
	// Init returns an initial command when the screen is first shown.
	Init() tea.Cmd

	// Update handles messages and returns the updated screen and command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface for screens with their own
// footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// Closer is an optional interface for screens that hand something back
// when they leave the stack, such as an interrupted lesson.
type Closer interface {
	Close() tea.Cmd
}

// StatusProvider is an optional interface for screens that show a status
// in the right side of the header.
type StatusProvider interface {
	HeaderStatus() string
}
