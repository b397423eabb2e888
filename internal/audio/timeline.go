package audio

import (
	"strings"
	"time"

	"github.com/abhisek/doceo/internal/lesson"
)

// Narration pacing used when a step carries no measured audio duration.
const (
	WordsPerSecond     = 2.5
	MinNarrationLength = 1500 * time.Millisecond
)

// Segment is the region of the session's narration belonging to one step.
type Segment struct {
	Step     int // lesson.Step.Index
	Offset   time.Duration
	Duration time.Duration
	URL      string
}

// End is the first position past the segment.
func (s Segment) End() time.Duration { return s.Offset + s.Duration }

// Timeline maps playback positions to steps. Segments are kept in arrival
// order.
type Timeline struct {
	segments []Segment
}

// Append adds the region of step. The offset comes from the step's audio
// reference when it has one, otherwise the segment starts where the previous
// one ended.
func (t *Timeline) Append(step *lesson.Step, track *lesson.AudioTrack) Segment {
	seg := Segment{Step: step.Index, Offset: t.End()}

	if ref := step.AudioRef(); ref != nil {
		seg.URL = ref.URL
		seg.Duration = ref.Duration
		if ref.HasOffset {
			seg.Offset = ref.Offset
		}
	}
	if track != nil {
		if seg.URL == "" {
			seg.URL = track.URL
		}
		if seg.Duration <= 0 && track.Duration > 0 {
			seg.Duration = time.Duration(track.Duration * float64(time.Second))
		}
		if step.AudioOffset == nil && track.Offset != nil && *track.Offset >= 0 {
			seg.Offset = time.Duration(*track.Offset * float64(time.Second))
		}
	}
	if seg.Duration <= 0 {
		seg.Duration = EstimateDuration(step.SpokenText())
	}

	t.segments = append(t.segments, seg)
	return seg
}

// Len is the number of segments.
func (t *Timeline) Len() int { return len(t.segments) }

// Segment returns the i-th segment.
func (t *Timeline) Segment(i int) Segment { return t.segments[i] }

// End is the furthest position covered by any segment.
func (t *Timeline) End() time.Duration {
	var end time.Duration
	for _, s := range t.segments {
		if e := s.End(); e > end {
			end = e
		}
	}
	return end
}

// Locate returns the index of the segment playing at pos: the latest
// segment that starts at or before pos. Positions in a gap belong to the
// segment before the gap.
func (t *Timeline) Locate(pos time.Duration) (int, bool) {
	for i := len(t.segments) - 1; i >= 0; i-- {
		if t.segments[i].Offset <= pos {
			return i, true
		}
	}
	if len(t.segments) > 0 {
		return 0, true
	}
	return 0, false
}

// Find returns the segment index for a step index.
func (t *Timeline) Find(step int) (int, bool) {
	for i, s := range t.segments {
		if s.Step == step {
			return i, true
		}
	}
	return 0, false
}

// EstimateDuration paces text at WordsPerSecond with a floor of
// MinNarrationLength.
func EstimateDuration(text string) time.Duration {
	words := len(strings.Fields(text))
	d := time.Duration(float64(words) / WordsPerSecond * float64(time.Second))
	if d < MinNarrationLength {
		return MinNarrationLength
	}
	return d
}
