package audio

import (
	"context"
	"sync"
	"time"
)

// Engine acquires playable handles for a session's narration.
type Engine interface {
	Open(ctx context.Context, res *Resource) (Handle, error)
}

// Handle is an owned audio output. Positions are on the session timeline.
type Handle interface {
	// Start plays from at with the given rate. Calling Start while running
	// seeks.
	Start(at time.Duration, speed float64) error
	// Stop halts output and returns the exact position reached.
	Stop() time.Duration
	Position() time.Duration
	SetSpeed(speed float64) error
	Close() error
}

// SegmentHandle is implemented by handles that play one file per segment
// and must be told when playback crosses into the next one.
type SegmentHandle interface {
	EnterSegment(seg Segment, at time.Duration, speed float64) error
}

// Clock supplies the current time. Tests substitute a manual clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// ClockEngine produces no sound. Position advances with the clock at the
// current speed, which is enough to pace a lesson without an audio device.
type ClockEngine struct {
	Clock Clock
}

// Open implements Engine.
func (e ClockEngine) Open(_ context.Context, _ *Resource) (Handle, error) {
	clock := e.Clock
	if clock == nil {
		clock = SystemClock
	}
	return &clockHandle{clock: clock, speed: 1}, nil
}

type clockHandle struct {
	clock Clock

	mu        sync.Mutex
	base      time.Duration
	startedAt time.Time
	speed     float64
	running   bool
}

func (h *clockHandle) Start(at time.Duration, speed float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.base = at
	h.startedAt = h.clock.Now()
	if speed > 0 {
		h.speed = speed
	}
	h.running = true
	return nil
}

func (h *clockHandle) Stop() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.base = h.positionLocked()
	h.running = false
	return h.base
}

func (h *clockHandle) Position() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.positionLocked()
}

func (h *clockHandle) SetSpeed(speed float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		h.base = h.positionLocked()
		h.startedAt = h.clock.Now()
	}
	h.speed = speed
	return nil
}

func (h *clockHandle) Close() error {
	h.Stop()
	return nil
}

func (h *clockHandle) positionLocked() time.Duration {
	if !h.running {
		return h.base
	}
	elapsed := h.clock.Now().Sub(h.startedAt)
	return h.base + time.Duration(float64(elapsed)*h.speed)
}
