package player

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/doceo/internal/lesson"
	"github.com/abhisek/doceo/internal/playback"
	"github.com/abhisek/doceo/internal/ui/components"
	"github.com/abhisek/doceo/internal/ui/layout"
	"github.com/abhisek/doceo/internal/ui/theme"
)

const sidebarWidth = 28

func (p *PlayerScreen) View(width, height int) string {
	footer := p.renderTransport(width)
	bodyHeight := max(height-lipgloss.Height(footer)-1, 0)

	var body string
	if len(p.state.Steps) == 0 {
		body = p.renderWaiting(width)
	} else if layout.Compact(width) {
		body = p.renderStep(width - 2)
	} else {
		mainWidth := width - sidebarWidth - 3
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width(sidebarWidth).Render(p.renderStepList(sidebarWidth)),
			" ",
			lipgloss.NewStyle().Width(mainWidth).Render(p.renderStep(mainWidth)),
		)
	}

	body = lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(body)
	return body + "\n" + footer
}

func (p *PlayerScreen) renderWaiting(width int) string {
	msg := "Waiting for the first step..."
	if !p.state.Connected && p.state.Advisory != "" {
		msg = "The lesson could not be loaded."
	}
	if p.state.IngestComplete {
		msg = "This lesson has no steps."
	}
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("\n\n" + msg)
}

// renderStepList shows every arrived step, marking where narration is.
func (p *PlayerScreen) renderStepList(width int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("Steps"))
	b.WriteString("\n")

	for i, st := range p.state.Steps {
		label := layout.Truncate(fmt.Sprintf("%d. %s", i+1, st.Title), width-2)
		switch {
		case i == p.state.CurrentStep && p.state.Status != playback.StatusIdle:
			b.WriteString(theme.StepCurrent.Render("▸ " + label))
		case i < p.state.CurrentStep || p.state.Status == playback.StatusComplete:
			b.WriteString(theme.StepDone.Render("✓ " + label))
		default:
			b.WriteString(theme.StepPending.Render("  " + label))
		}
		b.WriteString("\n")
	}
	if !p.state.IngestComplete {
		b.WriteString(theme.Hint.Render("  more on the way..."))
		b.WriteString("\n")
	}
	return b.String()
}

func (p *PlayerScreen) renderStep(width int) string {
	st := p.state.Current()
	if st == nil {
		return ""
	}

	var b strings.Builder
	total := fmt.Sprintf("%d", p.state.TotalSteps)
	if !p.state.IngestComplete {
		total += "+"
	}
	b.WriteString(theme.Hint.Render(fmt.Sprintf("Step %d of %s", p.state.CurrentStep+1, total)))
	b.WriteString("\n")
	b.WriteString(theme.Title.Render(st.Title))
	b.WriteString("\n")
	b.WriteString(theme.Rule.Render(strings.Repeat("─", max(width, 0))))
	b.WriteString("\n\n")

	if st.Content != "" {
		b.WriteString(theme.Body.Width(width).Render(st.Content))
		b.WriteString("\n\n")
	}
	for _, mb := range st.MathBlocks {
		b.WriteString(p.renderMath(mb, width))
		b.WriteString("\n")
	}
	if st.Hint != "" {
		b.WriteString("\n")
		b.WriteString(theme.Hint.Width(width).Render("Hint: " + st.Hint))
		b.WriteString("\n")
	}
	if p.state.Status == playback.StatusComplete && p.state.Completion != nil {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Success).Bold(true).Render(p.state.Completion.Content))
		b.WriteString("\n")
	}
	return b.String()
}

// renderMath shows a math block with its typeset size once the asset is
// ready, and a placeholder until then.
func (p *PlayerScreen) renderMath(mb lesson.MathBlock, width int) string {
	expr := theme.Math.Render(mb.Latex)
	if mb.Display {
		expr = lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(expr)
	}

	note := "typesetting..."
	if p.assets != nil {
		if asset, ok := p.assets.Lookup(mb.Latex, mb.Display, p.scale); ok {
			note = fmt.Sprintf("%.0f×%.0f", asset.Width, asset.Height)
		}
	}
	return expr + "\n" + lipgloss.NewStyle().Width(width).Align(alignFor(mb)).Foreground(theme.TextDim).Render(note)
}

func alignFor(mb lesson.MathBlock) lipgloss.Position {
	if mb.Display {
		return lipgloss.Center
	}
	return lipgloss.Left
}

// renderTransport is the bottom bar: progress, status and any advisory.
func (p *PlayerScreen) renderTransport(width int) string {
	var b strings.Builder

	bar := components.NewProgressBar(playLabel(p.state.Status), p.state.Progress, true, width-2)
	b.WriteString(bar.View())
	b.WriteString("\n")

	status := string(p.state.Status)
	if p.state.Interrupted {
		status += " (question)"
	}
	conn := "offline"
	switch {
	case p.state.IngestComplete:
		conn = "all steps received"
	case p.state.Connected:
		conn = "receiving steps"
	}
	b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render(
		fmt.Sprintf("%s · %sx · %s", status, speedLabel(p.state.Speed), conn)))

	if p.state.Advisory != "" {
		b.WriteString("\n")
		b.WriteString(theme.Advisory.Render(layout.Truncate(p.state.Advisory, width-2)))
	}
	return b.String()
}
