// Package ingest consumes a lesson's server-sent event stream and exposes
// the steps it delivers as an ordered, append-only sequence.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/abhisek/doceo/internal/lesson"
	"github.com/abhisek/doceo/internal/logger"
)

// Wire event names.
const (
	EventStep     = "step"
	EventComplete = "complete"
	EventError    = "error"
)

// ConnectionLostMessage is the advisory surfaced when the stream drops
// before the lesson completes.
const ConnectionLostMessage = "connection lost; lesson may still be loading"

// errStreamDone stops the reader once the completion event arrives.
var errStreamDone = errors.New("stream complete")

// State is a point-in-time view of a subscription.
//
// Steps is shared with the channel's buffer: the slice is append-only and
// the steps it points to are never modified, so callers may hold on to it.
type State struct {
	// Subscription identifies the Subscribe call this state belongs to.
	Subscription uint64
	Endpoint     string
	Steps        []*lesson.Step
	Connected    bool
	Complete     bool
	LastError    string
	Completion   *lesson.Step
}

// Channel owns at most one live stream connection at a time.
type Channel struct {
	cfg    Config
	client *http.Client
	log    *logger.Logger

	mu         sync.Mutex
	state      State
	lastNumber int
	gen        uint64
	cancel     context.CancelFunc
	done       chan struct{}

	updates chan struct{}
}

// New creates an idle Channel.
func New(cfg Config, log *logger.Logger) *Channel {
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	return &Channel{
		cfg:     cfg,
		client:  client,
		log:     logger.OrNop(log).With("component", "ingest"),
		updates: make(chan struct{}, 1),
	}
}

// Updates returns a channel that receives a value after every state change.
// Notifications coalesce: a slow reader sees one pending signal, not one
// per change, and should re-read Snapshot.
func (c *Channel) Updates() <-chan struct{} {
	return c.updates
}

// Snapshot returns the current ingestion state.
func (c *Channel) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe tears down any existing connection, resets all state and
// starts streaming from endpoint. An empty endpoint only unsubscribes.
func (c *Channel) Subscribe(ctx context.Context, endpoint string) {
	c.Unsubscribe()

	c.mu.Lock()
	c.state = State{Subscription: c.gen, Endpoint: endpoint}
	c.lastNumber = -1
	if endpoint == "" {
		c.mu.Unlock()
		c.notify()
		return
	}
	streamCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	gen := c.gen
	c.mu.Unlock()

	c.notify()
	c.log.Debug("subscribing", "endpoint", endpoint)
	go c.run(streamCtx, gen, endpoint, done)
}

// Unsubscribe closes the current connection and waits for the reader to
// exit. Safe to call repeatedly and when nothing is subscribed.
func (c *Channel) Unsubscribe() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.gen++
	if c.state.Connected {
		c.state.Connected = false
	}
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	c.notify()
}

func (c *Channel) run(ctx context.Context, gen uint64, endpoint string, done chan struct{}) {
	defer close(done)

	for attempt := 0; ; attempt++ {
		connected, err := c.stream(ctx, gen, endpoint)
		if ctx.Err() != nil {
			return
		}
		if c.isComplete(gen) {
			return
		}

		c.markLost(gen, connected, err)
		if attempt >= c.cfg.Retry.MaxRetries {
			return
		}

		wait := c.cfg.Retry.backoff(attempt)
		c.log.Info("reconnecting", "endpoint", endpoint, "attempt", attempt+1, "wait", wait)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// stream performs one connection attempt and reads until the body ends.
// It reports whether the server accepted the stream.
func (c *Channel) stream(ctx context.Context, gen uint64, endpoint string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("unexpected status %s", resp.Status)
	}

	if !c.update(gen, func(s *State) {
		s.Connected = true
		s.LastError = ""
	}) {
		return false, nil
	}

	err = readEvents(resp.Body, func(event, data string) error {
		return c.handle(gen, event, data)
	})
	if errors.Is(err, errStreamDone) {
		return true, nil
	}
	return true, err
}

func (c *Channel) handle(gen uint64, event, data string) error {
	switch event {
	case EventStep:
		step, err := lesson.ParseStep([]byte(data))
		if err != nil {
			c.log.Debug("dropping malformed step", "error", err)
			return nil
		}
		c.appendStep(gen, step)
		return nil

	case EventComplete:
		done, err := lesson.ParseComplete([]byte(data))
		if err != nil {
			c.log.Debug("dropping malformed completion", "error", err)
			return nil
		}
		c.update(gen, func(s *State) {
			s.Complete = true
			s.Connected = false
			s.Completion = &lesson.Step{
				Index:    len(s.Steps),
				Content:  done.Message,
				Terminal: true,
			}
		})
		c.log.Debug("lesson complete", "steps", done.TotalSteps)
		return errStreamDone

	case EventError:
		c.update(gen, func(s *State) {
			s.LastError = errorMessage(data)
		})
		return nil
	}
	return nil
}

func (c *Channel) appendStep(gen uint64, step *lesson.Step) {
	c.mu.Lock()
	if gen != c.gen || c.state.Complete {
		c.mu.Unlock()
		return
	}
	// Steps must arrive in increasing order. Anything at or below the last
	// seen number is a replay after reconnect or a malformed event.
	if step.Number <= c.lastNumber {
		c.mu.Unlock()
		c.log.Debug("dropping out-of-order step", "step_number", step.Number)
		return
	}
	c.lastNumber = step.Number
	step.Index = len(c.state.Steps)
	c.state.Steps = append(c.state.Steps, step)
	c.mu.Unlock()
	c.notify()
}

func (c *Channel) markLost(gen uint64, connected bool, err error) {
	msg := ConnectionLostMessage
	if !connected && err != nil {
		msg = "lesson stream unavailable: " + err.Error()
	}
	c.update(gen, func(s *State) {
		s.Connected = false
		s.LastError = msg
	})
	c.log.Warn("stream connection lost", "connected", connected, "error", err)
}

func (c *Channel) isComplete(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.gen && c.state.Complete
}

// update applies fn to the state if gen is still the live subscription.
func (c *Channel) update(gen uint64, fn func(*State)) bool {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return false
	}
	fn(&c.state)
	c.mu.Unlock()
	c.notify()
	return true
}

func (c *Channel) notify() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}

// errorMessage extracts a readable message from an error event payload.
func errorMessage(data string) string {
	var body struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal([]byte(data), &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Detail != "" {
			return body.Detail
		}
	}
	if s := strings.TrimSpace(data); s != "" {
		return s
	}
	return "lesson stream reported an error"
}

// backoff computes the wait before reconnect attempt n (0-based) with ±20%
// jitter.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	wait := float64(p.InitialWait) * math.Pow(p.Multiplier, float64(attempt))
	if p.MaxWait > 0 && wait > float64(p.MaxWait) {
		wait = float64(p.MaxWait)
	}
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}
