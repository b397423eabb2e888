package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepEvent(n int) string {
	return fmt.Sprintf("event: step\ndata: {\"step_number\":%d,\"title\":\"Step %d\",\"content\":\"c\"}\n\n", n, n)
}

func completeEvent(total int) string {
	return fmt.Sprintf("event: complete\ndata: {\"message\":\"done\",\"total_steps\":%d}\n\n", total)
}

func sseServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, attempt int)) *httptest.Server {
	t.Helper()
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		handler(w, r, int(attempts.Add(1))-1)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func write(w http.ResponseWriter, chunks ...string) {
	for _, c := range chunks {
		fmt.Fprint(w, c)
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func newChannel(t *testing.T, cfg Config) *Channel {
	t.Helper()
	ch := New(cfg, nil)
	t.Cleanup(ch.Unsubscribe)
	return ch
}

func TestChannel_StepsThenComplete(t *testing.T) {
	srv := sseServer(t, func(w http.ResponseWriter, _ *http.Request, _ int) {
		write(w, stepEvent(1), ": ping\n\n", stepEvent(2), completeEvent(2))
	})

	ch := newChannel(t, DefaultConfig())
	ch.Subscribe(context.Background(), srv.URL)

	require.Eventually(t, func() bool { return ch.Snapshot().Complete }, 2*time.Second, 5*time.Millisecond)

	st := ch.Snapshot()
	require.Len(t, st.Steps, 2)
	assert.Equal(t, 0, st.Steps[0].Index)
	assert.Equal(t, 1, st.Steps[1].Index)
	assert.Equal(t, "Step 2", st.Steps[1].Title)
	assert.False(t, st.Connected)
	assert.Empty(t, st.LastError)
	require.NotNil(t, st.Completion)
	assert.True(t, st.Completion.Terminal)
	assert.Equal(t, 2, st.Completion.Index)
}

func TestChannel_NoStepsAfterComplete(t *testing.T) {
	srv := sseServer(t, func(w http.ResponseWriter, _ *http.Request, _ int) {
		write(w, stepEvent(1), stepEvent(2), completeEvent(2), stepEvent(3), stepEvent(4))
	})

	ch := newChannel(t, DefaultConfig())
	ch.Subscribe(context.Background(), srv.URL)

	require.Eventually(t, func() bool { return ch.Snapshot().Complete }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	st := ch.Snapshot()
	assert.Len(t, st.Steps, 2)
	assert.False(t, st.Connected)
	assert.Equal(t, 2, st.Completion.Index)
}

func TestChannel_OversizedStepDoesNotEndDelivery(t *testing.T) {
	huge := strings.Repeat("x", maxLineBytes+1)
	srv := sseServer(t, func(w http.ResponseWriter, _ *http.Request, _ int) {
		write(w, stepEvent(1), "event: step\ndata: "+huge+"\n\n", stepEvent(2), completeEvent(2))
	})

	ch := newChannel(t, DefaultConfig())
	ch.Subscribe(context.Background(), srv.URL)

	require.Eventually(t, func() bool { return ch.Snapshot().Complete }, 5*time.Second, 5*time.Millisecond)
	st := ch.Snapshot()
	assert.Len(t, st.Steps, 2)
	assert.Empty(t, st.LastError)
}

func TestChannel_DropBeforeCompleteKeepsSteps(t *testing.T) {
	srv := sseServer(t, func(w http.ResponseWriter, _ *http.Request, _ int) {
		write(w, stepEvent(1), stepEvent(2))
	})

	ch := newChannel(t, DefaultConfig())
	ch.Subscribe(context.Background(), srv.URL)

	require.Eventually(t, func() bool {
		return ch.Snapshot().LastError != ""
	}, 2*time.Second, 5*time.Millisecond)

	st := ch.Snapshot()
	assert.Equal(t, ConnectionLostMessage, st.LastError)
	assert.Len(t, st.Steps, 2)
	assert.False(t, st.Complete)
	assert.False(t, st.Connected)
}

func TestChannel_DropsMalformedAndOutOfOrder(t *testing.T) {
	srv := sseServer(t, func(w http.ResponseWriter, _ *http.Request, _ int) {
		write(w,
			stepEvent(1),
			"event: step\ndata: {\"title\":\"no number\"}\n\n",
			"event: step\ndata: not json\n\n",
			stepEvent(1),
			stepEvent(3),
			stepEvent(2),
			"event: mystery\ndata: {}\n\n",
			completeEvent(2),
		)
	})

	ch := newChannel(t, DefaultConfig())
	ch.Subscribe(context.Background(), srv.URL)

	require.Eventually(t, func() bool { return ch.Snapshot().Complete }, 2*time.Second, 5*time.Millisecond)

	st := ch.Snapshot()
	require.Len(t, st.Steps, 2)
	assert.Equal(t, 1, st.Steps[0].Number)
	assert.Equal(t, 3, st.Steps[1].Number)
}

func TestChannel_ServerErrorEventIsAdvisory(t *testing.T) {
	srv := sseServer(t, func(w http.ResponseWriter, _ *http.Request, _ int) {
		write(w, stepEvent(1), "event: error\ndata: {\"message\":\"generation slow\"}\n\n")
		time.Sleep(50 * time.Millisecond)
		write(w, stepEvent(2), completeEvent(2))
	})

	ch := newChannel(t, DefaultConfig())
	ch.Subscribe(context.Background(), srv.URL)

	require.Eventually(t, func() bool {
		return ch.Snapshot().LastError == "generation slow"
	}, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return ch.Snapshot().Complete }, 2*time.Second, 5*time.Millisecond)
	assert.Len(t, ch.Snapshot().Steps, 2)
}

func TestChannel_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no such session", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	ch := newChannel(t, DefaultConfig())
	ch.Subscribe(context.Background(), srv.URL)

	require.Eventually(t, func() bool {
		return ch.Snapshot().LastError != ""
	}, 2*time.Second, 5*time.Millisecond)
	st := ch.Snapshot()
	assert.Contains(t, st.LastError, "404")
	assert.Empty(t, st.Steps)
}

func TestChannel_ReconnectSkipsReplayedSteps(t *testing.T) {
	srv := sseServer(t, func(w http.ResponseWriter, _ *http.Request, attempt int) {
		if attempt == 0 {
			write(w, stepEvent(1))
			return
		}
		write(w, stepEvent(1), stepEvent(2), completeEvent(2))
	})

	cfg := DefaultConfig()
	cfg.Retry = RetryPolicy{MaxRetries: 2, InitialWait: time.Millisecond, MaxWait: 5 * time.Millisecond, Multiplier: 2}
	ch := newChannel(t, cfg)
	ch.Subscribe(context.Background(), srv.URL)

	require.Eventually(t, func() bool { return ch.Snapshot().Complete }, 2*time.Second, 5*time.Millisecond)

	st := ch.Snapshot()
	require.Len(t, st.Steps, 2)
	assert.Equal(t, 2, st.Steps[1].Number)
	assert.Empty(t, st.LastError)
}

func TestChannel_UnsubscribeStopsDelivery(t *testing.T) {
	release := make(chan struct{})
	srv := sseServer(t, func(w http.ResponseWriter, r *http.Request, _ int) {
		write(w, stepEvent(1))
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		write(w, stepEvent(2))
	})
	defer close(release)

	ch := newChannel(t, DefaultConfig())
	ch.Subscribe(context.Background(), srv.URL)
	require.Eventually(t, func() bool { return len(ch.Snapshot().Steps) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.True(t, ch.Snapshot().Connected)

	ch.Unsubscribe()
	assert.False(t, ch.Snapshot().Connected)
	assert.Len(t, ch.Snapshot().Steps, 1)
}

func TestChannel_ResubscribeResetsState(t *testing.T) {
	srv := sseServer(t, func(w http.ResponseWriter, r *http.Request, _ int) {
		if r.URL.Path == "/a" {
			write(w, stepEvent(1), stepEvent(2), completeEvent(2))
			return
		}
		write(w, stepEvent(7), completeEvent(1))
	})

	ch := newChannel(t, DefaultConfig())
	ch.Subscribe(context.Background(), srv.URL+"/a")
	require.Eventually(t, func() bool { return ch.Snapshot().Complete }, 2*time.Second, 5*time.Millisecond)

	ch.Subscribe(context.Background(), srv.URL+"/b")
	assert.Equal(t, srv.URL+"/b", ch.Snapshot().Endpoint)

	require.Eventually(t, func() bool { return ch.Snapshot().Complete }, 2*time.Second, 5*time.Millisecond)
	st := ch.Snapshot()
	require.Len(t, st.Steps, 1)
	assert.Equal(t, 7, st.Steps[0].Number)
	assert.Equal(t, 0, st.Steps[0].Index)
}

func TestChannel_EmptyEndpointUnsubscribes(t *testing.T) {
	ch := newChannel(t, DefaultConfig())
	ch.Subscribe(context.Background(), "")

	st := ch.Snapshot()
	assert.False(t, st.Connected)
	assert.Empty(t, st.Steps)
	assert.Empty(t, st.LastError)
}

func TestChannel_UpdatesCoalesce(t *testing.T) {
	ch := newChannel(t, DefaultConfig())
	ch.notify()
	ch.notify()
	ch.notify()

	select {
	case <-ch.Updates():
	default:
		t.Fatal("expected a pending update")
	}
	select {
	case <-ch.Updates():
		t.Fatal("updates should coalesce")
	default:
	}
}

func TestRetryPolicy_Backoff(t *testing.T) {
	p := RetryPolicy{InitialWait: 100 * time.Millisecond, MaxWait: 300 * time.Millisecond, Multiplier: 2}
	for attempt, base := range []time.Duration{100, 200, 300, 300} {
		base *= time.Millisecond
		got := p.backoff(attempt)
		lo, hi := time.Duration(float64(base)*0.8), time.Duration(float64(base)*1.2)
		if got < lo || got > hi {
			t.Errorf("attempt %d: wait %v outside [%v, %v]", attempt, got, lo, hi)
		}
	}
}
