package playback

import (
	"context"
	"sync"
	"time"

	"github.com/abhisek/doceo/internal/audio"
	"github.com/abhisek/doceo/internal/ingest"
	"github.com/abhisek/doceo/internal/lesson"
	"github.com/abhisek/doceo/internal/logger"
	"github.com/abhisek/doceo/internal/render"
	"github.com/abhisek/doceo/internal/store"
)

// Narrator is the audio side of playback. *audio.Player implements it.
type Narrator interface {
	Load(ctx context.Context, sessionID string) error
	Append(step *lesson.Step)
	PlayFrom(step int) bool
	Pause()
	Resume() bool
	SetSpeed(m float64)
	Dispose()
	Signals() <-chan audio.Signal
}

// Feed is the step source. *ingest.Channel implements it.
type Feed interface {
	Subscribe(ctx context.Context, endpoint string)
	Unsubscribe()
	Snapshot() ingest.State
	Updates() <-chan struct{}
}

// AssetCache prefetches typeset math for arriving steps. *render.Cache
// implements it.
type AssetCache interface {
	Get(ctx context.Context, expression string, display bool, scale float64) (*render.Asset, error)
}

// Deps are the collaborators of an Orchestrator. Narrator and Feed are
// required; the rest may be nil.
type Deps struct {
	Narrator Narrator
	Feed     Feed
	Assets   AssetCache
	Prefs    store.PrefsRepo
	Events   store.EventRepo
	Log      *logger.Logger

	// RenderScale is passed to the asset cache. Zero means 1.
	RenderScale float64
}

// Orchestrator is the playback state machine. Transport calls made in a
// state where they do not apply return false and change nothing.
//
// Audio is produced only while status is playing, voice is enabled and no
// interrupt is active. The visible step advances only on the narrator's
// boundary signals.
//
// A lesson completes as soon as its last step becomes visible, so the
// narrator is still reading that step afterwards. Pause on a complete
// lesson stops the narrator but still reports false, since the status
// does not change.
type Orchestrator struct {
	narrator Narrator
	feed     Feed
	assets   AssetCache
	prefs    store.PrefsRepo
	events   store.EventRepo
	log      *logger.Logger
	scale    float64

	mu          sync.Mutex
	sessionID   string
	status      Status
	current     int
	speed       float64
	voice       bool
	interrupted bool
	// resumeAfterInterrupt remembers that the interrupt paused playback.
	resumeAfterInterrupt bool
	// primed is set once the narrator has been told where to start for the
	// current play-through; until then starting audio means PlayFrom.
	primed bool

	subscription uint64
	steps        []*lesson.Step
	ingested     bool
	connected    bool
	completion   *lesson.Step
	streamErr    string
	audioErr     string

	changes chan struct{}
}

// New creates an idle Orchestrator. The voice preference is read once
// here and written back on every toggle.
func New(ctx context.Context, deps Deps) *Orchestrator {
	o := &Orchestrator{
		narrator: deps.Narrator,
		feed:     deps.Feed,
		assets:   deps.Assets,
		prefs:    deps.Prefs,
		events:   deps.Events,
		log:      logger.OrNop(deps.Log).With("component", "playback"),
		scale:    deps.RenderScale,
		status:   StatusIdle,
		speed:    1,
		voice:    true,
		changes:  make(chan struct{}, 1),
	}
	if o.scale <= 0 {
		o.scale = 1
	}
	if o.prefs != nil {
		on, err := o.prefs.VoiceEnabled(ctx)
		if err != nil {
			o.log.Warn("read voice preference", "error", err)
		}
		o.voice = on
	}
	return o
}

// Open binds the orchestrator to a session: playback resets to idle, the
// narrator is loaded and the feed subscribes to endpoint. A narrator load
// failure only produces an advisory.
func (o *Orchestrator) Open(ctx context.Context, sessionID, endpoint string) {
	o.mu.Lock()
	o.sessionID = sessionID
	o.status = StatusIdle
	o.current = 0
	o.interrupted = false
	o.resumeAfterInterrupt = false
	o.primed = false
	o.subscription = 0
	o.steps = nil
	o.ingested = false
	o.connected = false
	o.completion = nil
	o.streamErr = ""
	o.audioErr = ""
	speed := o.speed
	o.mu.Unlock()

	var audioErr string
	if err := o.narrator.Load(ctx, sessionID); err != nil {
		audioErr = "narration unavailable; playing silently"
	}
	o.narrator.SetSpeed(speed)
	o.feed.Subscribe(ctx, endpoint)

	// Snapshots from before this subscription are ignored from here on.
	o.mu.Lock()
	o.subscription = o.feed.Snapshot().Subscription
	o.audioErr = audioErr
	o.mu.Unlock()
	o.notify()
}

// Close releases the stream connection and the audio resource.
func (o *Orchestrator) Close() {
	o.feed.Unsubscribe()
	o.narrator.Dispose()
}

// Changes signals after every state change. Signals coalesce; re-read
// State after each one.
func (o *Orchestrator) Changes() <-chan struct{} {
	return o.changes
}

// Run pumps feed updates and narrator signals into the state machine until
// ctx ends.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.HandleIngest(o.feed.Snapshot())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-o.feed.Updates():
			o.HandleIngest(o.feed.Snapshot())
		case sig := <-o.narrator.Signals():
			o.HandleSignal(sig)
		}
	}
}

// State returns a snapshot of the observable state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return State{
		SessionID:      o.sessionID,
		Status:         o.status,
		CurrentStep:    o.current,
		TotalSteps:     len(o.steps),
		Progress:       o.progressLocked(),
		Speed:          o.speed,
		VoiceEnabled:   o.voice,
		Interrupted:    o.interrupted,
		Steps:          o.steps,
		Connected:      o.connected,
		IngestComplete: o.ingested,
		Completion:     o.completion,
		Advisory:       o.advisoryLocked(),
	}
}

// Speed returns the current playback speed.
func (o *Orchestrator) Speed() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.speed
}

// Play starts from idle at the first step, or replays from the first step
// after completion.
func (o *Orchestrator) Play() bool {
	o.mu.Lock()
	if o.status != StatusIdle && o.status != StatusComplete {
		o.mu.Unlock()
		return false
	}
	o.current = 0
	o.primed = false
	rec := o.transitionLocked("play", StatusPlaying)
	o.syncAudioLocked()
	o.checkCompleteLocked()
	o.mu.Unlock()

	o.commit(rec)
	return true
}

// Pause halts a playing lesson, keeping the position.
func (o *Orchestrator) Pause() bool {
	o.mu.Lock()
	if o.status == StatusComplete {
		o.narrator.Pause()
		o.mu.Unlock()
		return false
	}
	if o.status != StatusPlaying {
		o.mu.Unlock()
		return false
	}
	rec := o.transitionLocked("pause", StatusPaused)
	o.resumeAfterInterrupt = false
	o.syncAudioLocked()
	o.mu.Unlock()

	o.commit(rec)
	return true
}

// Resume continues a paused lesson from where it stopped. While an
// interrupt is active it only marks playback to continue when the
// interrupt ends.
func (o *Orchestrator) Resume() bool {
	o.mu.Lock()
	if o.status != StatusPaused {
		o.mu.Unlock()
		return false
	}
	if o.interrupted {
		o.resumeAfterInterrupt = true
		o.mu.Unlock()
		return true
	}
	rec := o.transitionLocked("resume", StatusPlaying)
	o.syncAudioLocked()
	o.checkCompleteLocked()
	o.mu.Unlock()

	o.commit(rec)
	return true
}

// Interrupt hands control to a question flow. Playback pauses without
// losing any state and continues when EndInterrupt is called.
func (o *Orchestrator) Interrupt() bool {
	o.mu.Lock()
	if o.status == StatusComplete || o.interrupted {
		o.mu.Unlock()
		return false
	}
	o.interrupted = true
	o.resumeAfterInterrupt = o.status == StatusPlaying
	to := o.status
	if to == StatusPlaying {
		to = StatusPaused
	}
	rec := o.transitionLocked("interrupt", to)
	o.syncAudioLocked()
	o.mu.Unlock()

	o.commit(rec)
	return true
}

// EndInterrupt returns from the question flow.
func (o *Orchestrator) EndInterrupt() bool {
	o.mu.Lock()
	if !o.interrupted {
		o.mu.Unlock()
		return false
	}
	o.interrupted = false
	to := o.status
	if o.resumeAfterInterrupt && o.status == StatusPaused {
		to = StatusPlaying
	}
	o.resumeAfterInterrupt = false
	rec := o.transitionLocked("end_interrupt", to)
	o.syncAudioLocked()
	o.checkCompleteLocked()
	o.mu.Unlock()

	o.commit(rec)
	return true
}

// SetSpeed changes the narration rate. Ignored once the lesson is
// complete or for non-positive values.
func (o *Orchestrator) SetSpeed(m float64) bool {
	o.mu.Lock()
	if o.status == StatusComplete || m <= 0 {
		o.mu.Unlock()
		return false
	}
	o.speed = m
	o.narrator.SetSpeed(m)
	rec := o.transitionLocked("speed", o.status)
	o.mu.Unlock()

	o.commit(rec)
	return true
}

// ToggleVoice mutes or unmutes narration in any state. Muting stops audio
// output outright while status stays as it is; unmuting continues from the
// same position.
func (o *Orchestrator) ToggleVoice() bool {
	o.mu.Lock()
	o.voice = !o.voice
	on := o.voice
	action := "voice_off"
	if on {
		action = "voice_on"
	}
	rec := o.transitionLocked(action, o.status)
	o.syncAudioLocked()
	o.mu.Unlock()

	if o.prefs != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := o.prefs.SetVoiceEnabled(ctx, on); err != nil {
			o.log.Warn("save voice preference", "error", err)
		}
	}
	o.commit(rec)
	return true
}

// HandleIngest folds a feed snapshot into the state: new steps are handed
// to the narrator and the asset cache in order, and completion is checked.
func (o *Orchestrator) HandleIngest(st ingest.State) {
	o.mu.Lock()
	if st.Subscription != o.subscription {
		o.mu.Unlock()
		return
	}
	var fresh []*lesson.Step
	for i := len(o.steps); i < len(st.Steps); i++ {
		step := st.Steps[i]
		o.steps = append(o.steps, step)
		o.narrator.Append(step)
		fresh = append(fresh, step)
	}
	o.connected = st.Connected
	o.ingested = st.Complete
	o.completion = st.Completion
	o.streamErr = st.LastError
	rec := o.checkCompleteLocked()
	o.mu.Unlock()

	for _, step := range fresh {
		o.prefetch(step)
	}
	o.commit(rec)
}

// HandleSignal applies a narrator position signal.
func (o *Orchestrator) HandleSignal(sig audio.Signal) {
	o.mu.Lock()
	if o.status != StatusPlaying || sig.Step < 0 || sig.Step >= len(o.steps) {
		o.mu.Unlock()
		return
	}
	o.current = sig.Step
	rec := o.checkCompleteLocked()
	o.mu.Unlock()

	o.commit(rec)
}

// checkCompleteLocked moves a playing lesson to complete once the cursor
// sits on the last step and no more steps can arrive.
func (o *Orchestrator) checkCompleteLocked() *store.PlaybackEventData {
	if o.status != StatusPlaying || !o.ingested {
		return nil
	}
	if len(o.steps) > 0 && o.current != len(o.steps)-1 {
		return nil
	}
	return o.transitionLocked("complete", StatusComplete)
}

// syncAudioLocked makes narrator output match the two-axis state.
func (o *Orchestrator) syncAudioLocked() {
	audible := o.status == StatusPlaying && o.voice && !o.interrupted
	if !audible {
		o.narrator.Pause()
		return
	}
	if !o.primed {
		o.primed = true
		o.narrator.PlayFrom(o.current)
		return
	}
	o.narrator.Resume()
}

// advisoryLocked prefers stream problems over narration ones.
func (o *Orchestrator) advisoryLocked() string {
	if o.streamErr != "" {
		return o.streamErr
	}
	return o.audioErr
}

func (o *Orchestrator) progressLocked() float64 {
	switch o.status {
	case StatusIdle:
		return 0
	case StatusComplete:
		return 1
	}
	total := len(o.steps)
	if total < 1 {
		total = 1
	}
	return float64(o.current) / float64(total)
}

func (o *Orchestrator) transitionLocked(action string, to Status) *store.PlaybackEventData {
	from := o.status
	o.status = to
	o.log.Debug("transition", "action", action, "from", from, "to", to, "step", o.current)
	return &store.PlaybackEventData{
		SessionID:  o.sessionID,
		Action:     action,
		FromStatus: string(from),
		ToStatus:   string(to),
		Step:       o.current,
		TotalSteps: len(o.steps),
		Speed:      o.speed,
		Voice:      o.voice,
	}
}

// commit records an accepted transition and notifies watchers.
func (o *Orchestrator) commit(rec *store.PlaybackEventData) {
	if rec != nil && o.events != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := o.events.AppendPlayback(ctx, *rec); err != nil {
			o.log.Warn("record playback event", "action", rec.Action, "error", err)
		}
		cancel()
	}
	o.notify()
}

func (o *Orchestrator) notify() {
	select {
	case o.changes <- struct{}{}:
	default:
	}
}

func (o *Orchestrator) prefetch(step *lesson.Step) {
	if o.assets == nil {
		return
	}
	exprs := lesson.MathExpressions(step)
	if len(exprs) == 0 {
		return
	}
	go func() {
		for _, e := range exprs {
			if _, err := o.assets.Get(context.Background(), e.Latex, e.Display, o.scale); err != nil {
				o.log.Debug("prefetch render failed", "step", step.Index, "error", err)
			}
		}
		o.notify()
	}()
}
