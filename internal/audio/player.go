// Package audio paces a lesson's narration and reports where playback is.
//
// A Player owns one audio handle at a time. Playback position lives on a
// session timeline built from the steps appended so far; the Player turns
// position changes into Boundary and Drained signals for the orchestrator.
package audio

import (
	"context"
	"sync"
	"time"

	"github.com/abhisek/doceo/internal/lesson"
	"github.com/abhisek/doceo/internal/logger"
)

// SignalKind distinguishes position signals.
type SignalKind int

const (
	// Boundary: playback entered the region of Step.
	Boundary SignalKind = iota
	// Drained: playback reached the end of the last known step, Step.
	Drained
)

func (k SignalKind) String() string {
	if k == Drained {
		return "drained"
	}
	return "boundary"
}

// Signal is a position event.
type Signal struct {
	Kind SignalKind
	Step int
}

const (
	defaultTick   = 50 * time.Millisecond
	signalBacklog = 256
)

// Player drives a Handle along the session timeline.
type Player struct {
	source Source
	engine Engine
	log    *logger.Logger
	tick   time.Duration

	mu       sync.Mutex
	res      *Resource
	handle   Handle
	timeline Timeline
	speed    float64
	running  bool
	segment  int // last announced segment, -1 before the first
	// wantPlay is set while playback is requested but output is stopped
	// because the timeline ran out or the target step has not arrived.
	wantPlay bool
	pending  int // step index to start at once it arrives, -1 for none
	loopStop chan struct{}
	loopDone chan struct{}

	signals chan Signal
}

// PlayerOption customizes a Player.
type PlayerOption func(*Player)

// WithTick sets how often playback position is sampled.
func WithTick(d time.Duration) PlayerOption {
	return func(p *Player) { p.tick = d }
}

// NewPlayer creates an unloaded player.
func NewPlayer(src Source, eng Engine, log *logger.Logger, opts ...PlayerOption) *Player {
	p := &Player{
		source:  src,
		engine:  eng,
		log:     logger.OrNop(log).With("component", "audio"),
		tick:    defaultTick,
		speed:   1,
		segment: -1,
		pending: -1,
		signals: make(chan Signal, signalBacklog),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Signals delivers Boundary and Drained events in order.
func (p *Player) Signals() <-chan Signal {
	return p.signals
}

// Load releases any current resource and binds the player to a session.
// When the narration resource or the engine cannot be acquired the player
// still loads, pacing the lesson silently, and the error is returned as
// an advisory.
func (p *Player) Load(ctx context.Context, sessionID string) error {
	p.Dispose()

	var advisory error
	res, err := p.source.Fetch(ctx, sessionID)
	if err != nil {
		p.log.Warn("narration resource unavailable", "session", sessionID, "error", err)
		res = NewResource(sessionID, nil, nil)
		advisory = err
	}
	handle, err := p.engine.Open(ctx, res)
	if err != nil {
		p.log.Warn("audio engine unavailable, pacing silently", "error", err)
		handle, _ = ClockEngine{}.Open(ctx, res)
		if advisory == nil {
			advisory = err
		}
	}

	p.mu.Lock()
	p.res = res
	p.handle = handle
	p.timeline = Timeline{}
	p.running = false
	p.wantPlay = false
	p.segment = -1
	p.pending = -1
	if err := handle.SetSpeed(p.speed); err != nil {
		p.log.Debug("set speed on load", "error", err)
	}
	p.loopStop = make(chan struct{})
	p.loopDone = make(chan struct{})
	go p.loop(p.loopStop, p.loopDone)
	p.mu.Unlock()

	p.log.Debug("loaded", "session", sessionID)
	return advisory
}

// Append extends the timeline with step. If playback was waiting for more
// narration, or for this very step, it continues into it.
func (p *Player) Append(step *lesson.Step) {
	p.mu.Lock()
	if p.handle == nil {
		p.mu.Unlock()
		return
	}
	seg := p.timeline.Append(step, p.res.Track(step.Number))
	idx := p.timeline.Len() - 1

	var out []Signal
	switch {
	case p.wantPlay && p.pending >= 0 && seg.Step == p.pending:
		p.pending = -1
		out = p.startLocked(seg.Offset, idx, true)
	case p.wantPlay && p.pending < 0 && !p.running:
		out = p.startLocked(seg.Offset, idx, false)
	}
	p.mu.Unlock()
	p.emit(out)
}

// PlayFrom starts at the beginning of step. Playing while already playing
// seeks. A step that has not been appended yet is started as soon as it
// arrives. Returns false when nothing is loaded.
func (p *Player) PlayFrom(step int) bool {
	p.mu.Lock()
	if p.handle == nil {
		p.mu.Unlock()
		return false
	}
	i, ok := p.timeline.Find(step)
	if !ok {
		p.stopLocked()
		p.pending = step
		p.wantPlay = true
		p.mu.Unlock()
		return true
	}
	p.pending = -1
	out := p.startLocked(p.timeline.Segment(i).Offset, i, true)
	p.mu.Unlock()

	p.emit(out)
	return true
}

// PlayAt starts at a timeline position.
func (p *Player) PlayAt(offset time.Duration) bool {
	p.mu.Lock()
	if p.handle == nil {
		p.mu.Unlock()
		return false
	}
	i, ok := p.timeline.Locate(offset)
	if !ok {
		p.mu.Unlock()
		return false
	}
	p.pending = -1
	out := p.startLocked(offset, i, true)
	p.mu.Unlock()

	p.emit(out)
	return true
}

// Pause stops output and keeps the exact position. It is a no-op when
// nothing is playing.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.wantPlay = false
	p.stopLocked()
}

// Resume continues from the kept position. At the end of the timeline it
// waits for the next appended step.
func (p *Player) Resume() bool {
	p.mu.Lock()
	if p.handle == nil || p.running {
		p.mu.Unlock()
		return false
	}
	pos := p.handle.Position()
	if p.pending >= 0 || p.timeline.Len() == 0 || pos >= p.timeline.End() {
		p.wantPlay = true
		p.mu.Unlock()
		return true
	}
	i, _ := p.timeline.Locate(pos)
	out := p.startLocked(pos, i, false)
	p.mu.Unlock()

	p.emit(out)
	return true
}

// SetSpeed changes the rate without moving the position. Non-positive
// values are ignored.
func (p *Player) SetSpeed(m float64) {
	if m <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.speed = m
	if p.handle != nil {
		if err := p.handle.SetSpeed(m); err != nil {
			p.log.Warn("set speed", "speed", m, "error", err)
		}
	}
}

// Speed returns the current rate.
func (p *Player) Speed() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.speed
}

// Position returns the current timeline position.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handle == nil {
		return 0
	}
	return p.handle.Position()
}

// Dispose releases the resource. Safe to call repeatedly.
func (p *Player) Dispose() {
	p.mu.Lock()
	handle := p.handle
	stop, done := p.loopStop, p.loopDone
	p.handle, p.res = nil, nil
	p.loopStop, p.loopDone = nil, nil
	p.running, p.wantPlay = false, false
	p.pending = -1
	p.timeline = Timeline{}
	p.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
	if handle != nil {
		if err := handle.Close(); err != nil {
			p.log.Debug("close audio handle", "error", err)
		}
	}
}

func (p *Player) loop(stop, done chan struct{}) {
	defer close(done)
	t := time.NewTicker(p.tick)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			p.poll()
		}
	}
}

// poll samples the handle and emits signals for segments entered since the
// previous sample, in order.
func (p *Player) poll() {
	p.mu.Lock()
	if p.handle == nil || !p.running || p.timeline.Len() == 0 {
		p.mu.Unlock()
		return
	}

	var out []Signal
	pos := p.handle.Position()
	end := p.timeline.End()

	if idx, ok := p.timeline.Locate(pos); ok && idx != p.segment {
		out = p.advanceLocked(idx, pos, false)
	}

	if pos >= end {
		// Park exactly at the end so the next step starts where this one
		// finished.
		p.stopLocked()
		if err := p.handle.Start(end, p.speed); err == nil {
			p.handle.Stop()
		}
		p.wantPlay = true
		last := p.timeline.Segment(p.timeline.Len() - 1)
		out = append(out, Signal{Kind: Drained, Step: last.Step})
	}
	p.mu.Unlock()
	p.emit(out)
}

// startLocked starts output at pos inside segment idx. A seek announces
// only the target step; otherwise every segment entered since the last
// announcement is reported.
func (p *Player) startLocked(pos time.Duration, idx int, seek bool) []Signal {
	if err := p.handle.Start(pos, p.speed); err != nil {
		p.log.Warn("start audio", "error", err)
	}
	p.running = true
	p.wantPlay = false
	return p.advanceLocked(idx, pos, seek)
}

func (p *Player) advanceLocked(idx int, pos time.Duration, seek bool) []Signal {
	first := p.segment + 1
	if seek || idx < first {
		first = idx
	}
	var out []Signal
	for i := first; i <= idx; i++ {
		out = append(out, Signal{Kind: Boundary, Step: p.timeline.Segment(i).Step})
	}
	p.segment = idx
	p.enterLocked(idx, pos)
	return out
}

func (p *Player) stopLocked() {
	if !p.running {
		return
	}
	p.handle.Stop()
	p.running = false
}

func (p *Player) enterLocked(idx int, pos time.Duration) {
	sh, ok := p.handle.(SegmentHandle)
	if !ok {
		return
	}
	if err := sh.EnterSegment(p.timeline.Segment(idx), pos, p.speed); err != nil {
		p.log.Warn("enter segment", "error", err)
	}
}

func (p *Player) emit(out []Signal) {
	for _, s := range out {
		select {
		case p.signals <- s:
		default:
			p.log.Warn("signal dropped", "kind", s.Kind.String(), "step", s.Step)
		}
	}
}
