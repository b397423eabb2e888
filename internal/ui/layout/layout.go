// Package layout draws the chrome around a screen: a one-line header, a
// footer of key hints and the notice shown when the terminal is too small.
package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/doceo/internal/ui/theme"
)

const (
	MinWidth  = 60
	MinHeight = 20

	// Below CompactWidth the player hides its step list.
	CompactWidth = 90
)

// KeyHint is one key binding shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

func Compact(width int) bool { return width < CompactWidth }

func TooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// Truncate shortens s to width cells, marking the cut with an ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}

var (
	brandStyle  = lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(theme.Accent)
	keyStyle    = lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
)

// TooSmallNotice fills the terminal with a request to resize.
func TooSmallNotice(width, height int) string {
	msg := fmt.Sprintf("The lesson needs more room.\n\nResize to at least %d x %d\n(currently %d x %d)",
		MinWidth, MinHeight, width, height)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		theme.Body.Align(lipgloss.Center).Render(msg))
}

// Header is the brand on the left, title centered and status on the right,
// over a rule. The title gives way first when space runs out.
func Header(title, status string, width int) string {
	left := brandStyle.Render("Doceo")
	right := statusStyle.Render(status)

	room := max(width-lipgloss.Width(left)-lipgloss.Width(right)-2, 0)
	center := theme.Body.Render(Truncate(title, room))
	gap := max(room-lipgloss.Width(center), 0)

	line := " " + left + strings.Repeat(" ", gap/2) + center + strings.Repeat(" ", gap-gap/2) + right + " "
	return line + "\n" + rule(width)
}

// Footer lists hints left to right under a rule, dropping the ones that do
// not fit.
func Footer(hints []KeyHint, width int) string {
	const sep = "   "
	var b strings.Builder
	used := 1
	for i, h := range hints {
		part := keyStyle.Render(h.Key) + " " + theme.Hint.Render(h.Description)
		w := lipgloss.Width(part)
		if i > 0 {
			w += len(sep)
		}
		if used+w > width {
			break
		}
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(part)
		used += w
	}
	return rule(width) + "\n " + b.String()
}

// BodyHeight is the number of rows left for the screen between header and
// footer.
func BodyHeight(header, footer string, height int) int {
	return max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
}

// Frame stacks header, body and footer, padding or clipping the body so
// the footer stays on the last rows.
func Frame(header, body, footer string, width, height int) string {
	h := BodyHeight(header, footer, height)
	body = lipgloss.NewStyle().Width(width).Height(h).MaxHeight(h).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func rule(width int) string {
	return theme.Rule.Render(strings.Repeat("─", max(width, 0)))
}
