package render

import (
	"context"
	"os/exec"
	"strings"
	"testing"
)

func TestDimensions(t *testing.T) {
	tests := []struct {
		name string
		svg  string
		w, h float64
	}{
		{"viewBox", `<svg viewBox="0 -750 2000 1000" width="4ex" height="2ex"></svg>`, 2000, 1000},
		{"viewBox commas", `<svg viewBox="0,0,40.5,12"></svg>`, 40.5, 12},
		{"attributes with units", `<svg width="4.5ex" height="2.25ex"></svg>`, 4.5, 2.25},
		{"plain attributes", `<svg width="100" height="50"></svg>`, 100, 50},
		{"bad viewBox falls back to attributes", `<svg viewBox="0 0 abc 10" width="7px" height="3px"></svg>`, 7, 3},
		{"zero viewBox falls back to attributes", `<svg viewBox="0 0 0 10" width="7" height="3"></svg>`, 7, 3},
		{"short viewBox", `<svg viewBox="0 0 10"></svg>`, FallbackWidth, FallbackHeight},
		{"missing height", `<svg width="10"></svg>`, FallbackWidth, FallbackHeight},
		{"infinite", `<svg width="Inf" height="1e400"></svg>`, FallbackWidth, FallbackHeight},
		{"not svg", `<html></html>`, FallbackWidth, FallbackHeight},
		{"empty", ``, FallbackWidth, FallbackHeight},
		{"garbage", `not markup at all`, FallbackWidth, FallbackHeight},
		{"xml prolog", `<?xml version="1.0"?><svg viewBox="0 0 8 4"></svg>`, 8, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := Dimensions(tt.svg)
			if w != tt.w || h != tt.h {
				t.Errorf("Dimensions() = %v×%v, want %v×%v", w, h, tt.w, tt.h)
			}
		})
	}
}

func TestBoxRenderer(t *testing.T) {
	svg, err := BoxRenderer{}.Render(context.Background(), Key{Expression: "a<b", Display: true, Scale: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(svg, "a&lt;b") {
		t.Errorf("expression not escaped: %s", svg)
	}
	w, h := Dimensions(svg)
	if w != (3*11+16)*2 || h != 64 {
		t.Errorf("unexpected size %v×%v", w, h)
	}

	if _, err := (BoxRenderer{}).Render(context.Background(), Key{Expression: "  "}); err == nil {
		t.Error("expected error for blank expression")
	}
}

func TestCommandRenderer(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	r := &CommandRenderer{
		Command: "sh",
		Args:    []string{"-c", `printf '<svg viewBox="0 0 %s 5">' "$DOCEO_RENDER_SCALE"; cat; printf '</svg>'`},
	}
	svg, err := r.Render(context.Background(), Key{Expression: "x+1", Scale: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(svg, "x+1") {
		t.Errorf("stdin not forwarded: %s", svg)
	}
	if w, _ := Dimensions(svg); w != 3 {
		t.Errorf("scale not forwarded, width = %v", w)
	}

	bad := &CommandRenderer{Command: "sh", Args: []string{"-c", "echo boom >&2; exit 3"}}
	_, err = bad.Render(context.Background(), Key{Expression: "x"})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected stderr in error, got %v", err)
	}
}

func TestNewCommandRenderer(t *testing.T) {
	r, err := NewCommandRenderer("tex2svg --font mathjax")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Command != "tex2svg" || len(r.Args) != 2 {
		t.Errorf("unexpected renderer: %+v", r)
	}
	if _, err := NewCommandRenderer("   "); err == nil {
		t.Error("expected error for empty command")
	}
}

func TestKeyString(t *testing.T) {
	k := Key{Expression: "x", Display: true, Scale: 1.5}
	if got := k.String(); got != "display|1.5|x" {
		t.Errorf("String() = %q", got)
	}
}

func TestDecodeAsset(t *testing.T) {
	key := Key{Expression: "q"}
	a, ok, err := decodeAsset(key, []byte(`{"svg":"<svg viewBox=\"0 0 5 6\"></svg>"}`))
	if err != nil || !ok {
		t.Fatalf("decodeAsset: ok=%v err=%v", ok, err)
	}
	if a.Width != 5 || a.Height != 6 || a.Key != key {
		t.Errorf("unexpected asset %+v", a)
	}
	if _, _, err := decodeAsset(key, []byte(`nope`)); err == nil {
		t.Error("expected decode error")
	}
}
