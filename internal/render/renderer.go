package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Renderer typesets a single expression into SVG markup. Implementations
// must be deterministic in the key.
type Renderer interface {
	Render(ctx context.Context, key Key) (string, error)
}

// BoxRenderer draws the expression source inside a framed box. It is the
// default when no typesetter is configured and keeps terminals and tests
// independent of external tools.
type BoxRenderer struct{}

// Render implements Renderer.
func (BoxRenderer) Render(_ context.Context, key Key) (string, error) {
	if strings.TrimSpace(key.Expression) == "" {
		return "", errors.New("empty expression")
	}
	scale := key.Scale
	if scale <= 0 {
		scale = 1
	}

	charW, lineH := 9.0, 22.0
	if key.Display {
		charW, lineH = 11.0, 32.0
	}
	w := (float64(len([]rune(key.Expression)))*charW + 16) * scale
	h := lineH * scale

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s">`, num(w), num(h))
	fmt.Fprintf(&b, `<rect x="0.5" y="0.5" width="%s" height="%s" fill="none" stroke="currentColor"/>`, num(w-1), num(h-1))
	fmt.Fprintf(&b, `<text x="%s" y="%s" font-family="monospace">%s</text>`, num(8*scale), num(h*0.7), html.EscapeString(key.Expression))
	b.WriteString(`</svg>`)
	return b.String(), nil
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// CommandRenderer runs an external typesetter per expression. The
// expression is written to the process's stdin and the SVG is read from
// stdout. Display mode and scale are passed in DOCEO_RENDER_DISPLAY and
// DOCEO_RENDER_SCALE so wrappers around tools like MathJax's tex2svg can
// honor them.
type CommandRenderer struct {
	Command string
	Args    []string
}

// NewCommandRenderer splits a command line such as "tex2svg --font mathjax"
// into a CommandRenderer.
func NewCommandRenderer(cmdline string) (*CommandRenderer, error) {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return nil, errors.New("empty render command")
	}
	return &CommandRenderer{Command: fields[0], Args: fields[1:]}, nil
}

// Render implements Renderer.
func (r *CommandRenderer) Render(ctx context.Context, key Key) (string, error) {
	cmd := exec.CommandContext(ctx, r.Command, r.Args...)
	cmd.Stdin = strings.NewReader(key.Expression)
	cmd.Env = append(os.Environ(),
		"DOCEO_RENDER_DISPLAY="+strconv.FormatBool(key.Display),
		"DOCEO_RENDER_SCALE="+strconv.FormatFloat(key.Scale, 'g', -1, 64),
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %w: %s", r.Command, err, msg)
		}
		return "", fmt.Errorf("%s: %w", r.Command, err)
	}

	out := strings.TrimSpace(stdout.String())
	if !strings.Contains(out, "<svg") {
		return "", fmt.Errorf("%s: output is not SVG", r.Command)
	}
	return out, nil
}
