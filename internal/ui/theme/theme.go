package theme

import (
	"charm.land/lipgloss/v2"
)

// Color palette, chalkboard dark with a warm accent.
var (
	Primary   = lipgloss.Color("#38BDF8") // Sky
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#FBBF24") // Amber
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	BgDark    = lipgloss.Color("#0B1120") // Board
	BgCard    = lipgloss.Color("#1E293B") // Dark Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Math = lipgloss.NewStyle().
		Foreground(Accent)

	Advisory = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)
)

// Step list
var (
	StepCurrent = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	StepDone = lipgloss.NewStyle().
			Foreground(Success)

	StepPending = lipgloss.NewStyle().
			Foreground(TextDim)
)

// Chat
var (
	Student = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	Tutor = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)
)

// Layout
var (
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)

	Rule = lipgloss.NewStyle().
		Foreground(Border)
)

// Components
var (
	ProgressFilled = lipgloss.NewStyle().
			Background(Secondary)

	ProgressEmpty = lipgloss.NewStyle().
			Background(Border)
)
