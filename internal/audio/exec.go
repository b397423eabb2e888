package audio

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/abhisek/doceo/internal/logger"
)

// ExecEngine plays each step's audio file through an external player such
// as ffplay. Position is tracked by the clock so that pausing keeps it
// exactly. The process is restarted on every segment entry and speed
// change.
type ExecEngine struct {
	Command string   // default "ffplay"
	Args    []string // default: no window, exit at end, quiet
	Clock   Clock
	Log     *logger.Logger
}

// Open implements Engine.
func (e ExecEngine) Open(ctx context.Context, res *Resource) (Handle, error) {
	cmd := e.Command
	if cmd == "" {
		cmd = "ffplay"
	}
	if _, err := exec.LookPath(cmd); err != nil {
		return nil, fmt.Errorf("audio player %q: %w", cmd, err)
	}
	args := e.Args
	if args == nil {
		args = []string{"-nodisp", "-autoexit", "-loglevel", "quiet"}
	}
	clock, _ := ClockEngine{Clock: e.Clock}.Open(ctx, res)
	return &execHandle{
		clockHandle: clock.(*clockHandle),
		command:     cmd,
		args:        args,
		resource:    res,
		log:         logger.OrNop(e.Log).With("component", "audio-exec"),
	}, nil
}

type execHandle struct {
	*clockHandle

	command  string
	args     []string
	resource *Resource
	log      *logger.Logger

	procMu  sync.Mutex
	proc    *exec.Cmd
	segment Segment
}

func (h *execHandle) EnterSegment(seg Segment, at time.Duration, speed float64) error {
	h.procMu.Lock()
	h.segment = seg
	h.procMu.Unlock()
	return h.spawn(seg, at, speed)
}

func (h *execHandle) Stop() time.Duration {
	h.kill()
	return h.clockHandle.Stop()
}

func (h *execHandle) SetSpeed(speed float64) error {
	if err := h.clockHandle.SetSpeed(speed); err != nil {
		return err
	}
	h.clockHandle.mu.Lock()
	running := h.clockHandle.running
	h.clockHandle.mu.Unlock()
	if !running {
		return nil
	}
	h.procMu.Lock()
	seg := h.segment
	h.procMu.Unlock()
	return h.spawn(seg, h.Position(), speed)
}

func (h *execHandle) Close() error {
	h.kill()
	return h.clockHandle.Close()
}

// spawn replaces the running process with one playing seg from position at.
// Segments without a file play silently on the clock.
func (h *execHandle) spawn(seg Segment, at time.Duration, speed float64) error {
	h.kill()
	if seg.URL == "" {
		return nil
	}
	within := at - seg.Offset
	if within < 0 || within >= seg.Duration {
		return nil
	}

	args := append([]string{}, h.args...)
	args = append(args,
		"-ss", strconv.FormatFloat(within.Seconds(), 'f', 3, 64),
		"-af", atempo(speed),
		h.resource.Resolve(seg.URL),
	)
	cmd := exec.Command(h.command, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", h.command, err)
	}
	h.log.Debug("audio process started", "step", seg.Step, "offset", within, "speed", speed)

	h.procMu.Lock()
	h.proc = cmd
	h.procMu.Unlock()
	go func() { _ = cmd.Wait() }()
	return nil
}

func (h *execHandle) kill() {
	h.procMu.Lock()
	proc := h.proc
	h.proc = nil
	h.procMu.Unlock()
	if proc != nil && proc.Process != nil {
		_ = proc.Process.Kill()
	}
}

// atempo builds an ffmpeg filter chain for speed. A single atempo stage
// accepts 0.5 to 2.0, so larger changes are chained.
func atempo(speed float64) string {
	if speed <= 0 {
		speed = 1
	}
	var stages []string
	for speed > 2.0 {
		stages = append(stages, "atempo=2.0")
		speed /= 2.0
	}
	for speed < 0.5 {
		stages = append(stages, "atempo=0.5")
		speed /= 0.5
	}
	stages = append(stages, "atempo="+strconv.FormatFloat(speed, 'f', -1, 64))
	return strings.Join(stages, ",")
}
