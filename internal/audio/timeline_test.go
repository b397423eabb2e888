package audio

import (
	"testing"
	"time"

	"github.com/abhisek/doceo/internal/lesson"
)

func TestEstimateDuration(t *testing.T) {
	tests := []struct {
		text string
		want time.Duration
	}{
		{"", MinNarrationLength},
		{"one two", MinNarrationLength},
		{"one two three four five six seven eight nine ten", 4 * time.Second},
	}
	for _, tt := range tests {
		if got := EstimateDuration(tt.text); got != tt.want {
			t.Errorf("EstimateDuration(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestTimeline_Offsets(t *testing.T) {
	var tl Timeline
	off := 10.0

	s0 := tl.Append(&lesson.Step{Index: 0, AudioDuration: 2}, nil)
	s1 := tl.Append(&lesson.Step{Index: 1, Narration: "a few words"}, nil)
	s2 := tl.Append(&lesson.Step{Index: 2, AudioDuration: 1, AudioOffset: &off}, nil)

	if s0.Offset != 0 || s0.Duration != 2*time.Second {
		t.Errorf("s0 = %+v", s0)
	}
	if s1.Offset != 2*time.Second || s1.Duration != MinNarrationLength {
		t.Errorf("s1 = %+v", s1)
	}
	if s2.Offset != 10*time.Second {
		t.Errorf("s2 = %+v", s2)
	}
	if tl.End() != 11*time.Second {
		t.Errorf("End() = %v", tl.End())
	}

	for _, c := range []struct {
		pos  time.Duration
		want int
	}{
		{0, 0},
		{1999 * time.Millisecond, 0},
		{2 * time.Second, 1},
		{5 * time.Second, 1}, // gap belongs to the step before it
		{10 * time.Second, 2},
	} {
		if got, _ := tl.Locate(c.pos); got != c.want {
			t.Errorf("Locate(%v) = %d, want %d", c.pos, got, c.want)
		}
	}
}

func TestTimeline_TrackFillsMissingDetails(t *testing.T) {
	var tl Timeline
	off := 3.0
	seg := tl.Append(&lesson.Step{Index: 0, Number: 1}, &lesson.AudioTrack{
		StepNumber: 1, URL: "/audio/a.mp3", Duration: 4, Offset: &off,
	})
	if seg.URL != "/audio/a.mp3" || seg.Duration != 4*time.Second || seg.Offset != 3*time.Second {
		t.Errorf("unexpected segment %+v", seg)
	}
}

func TestTimeline_Empty(t *testing.T) {
	var tl Timeline
	if _, ok := tl.Locate(0); ok {
		t.Error("expected no segment")
	}
	if _, ok := tl.Find(0); ok {
		t.Error("expected no segment")
	}
}

func TestAtempo(t *testing.T) {
	tests := map[float64]string{
		1:    "atempo=1",
		1.5:  "atempo=1.5",
		0.5:  "atempo=0.5",
		4:    "atempo=2.0,atempo=2",
		0.25: "atempo=0.5,atempo=0.5",
		0:    "atempo=1",
	}
	for speed, want := range tests {
		if got := atempo(speed); got != want {
			t.Errorf("atempo(%v) = %q, want %q", speed, got, want)
		}
	}
}
