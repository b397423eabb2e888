// Package playback coordinates the visible step, narration position and
// transport controls of a lesson whose steps are still arriving.
package playback

import "github.com/abhisek/doceo/internal/lesson"

// Status is the transport status.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusPlaying  Status = "playing"
	StatusPaused   Status = "paused"
	StatusComplete Status = "complete"
)

// Speeds is the set offered by the transport controls. The player itself
// accepts any positive multiplier.
var Speeds = []float64{0.5, 1, 1.5, 2}

// NextSpeed returns the speed after cur in Speeds, wrapping around.
func NextSpeed(cur float64) float64 {
	for i, s := range Speeds {
		if s == cur {
			return Speeds[(i+1)%len(Speeds)]
		}
	}
	return 1
}

// State is the externally observable playback state.
type State struct {
	SessionID string
	Status    Status

	// CurrentStep indexes Steps. It only moves when narration crosses into
	// a step, so it may lag behind TotalSteps.
	CurrentStep int
	TotalSteps  int

	// Progress is for display only.
	Progress float64

	Speed        float64
	VoiceEnabled bool
	Interrupted  bool

	// Steps known so far, shared with the ingestion buffer.
	Steps []*lesson.Step

	// Ingestion view.
	Connected      bool
	IngestComplete bool
	Completion     *lesson.Step
	Advisory       string
}

// Current returns the step under the cursor, or nil before the first step.
func (s State) Current() *lesson.Step {
	if s.CurrentStep < 0 || s.CurrentStep >= len(s.Steps) {
		return nil
	}
	return s.Steps[s.CurrentStep]
}

// Audible reports whether narration should be producing output.
func (s State) Audible() bool {
	return s.Status == StatusPlaying && s.VoiceEnabled && !s.Interrupted
}
