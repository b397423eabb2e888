package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/doceo/internal/api"
	"github.com/abhisek/doceo/internal/ingest"
	"github.com/abhisek/doceo/internal/lesson"
)

const completeMessage = "Lesson complete! Feel free to ask questions."

// streamLesson sends the session's steps one at a time, StepDelay apart,
// then a completion event. A keep-alive comment goes out every
// PingInterval, including while the lesson is still being written.
func (s *Server) streamLesson(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}

	w := c.Writer
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ctx := c.Request.Context()
	ping := time.NewTicker(s.pingInterval())
	defer ping.Stop()

	// wait blocks until ready closes or after fires, pinging meanwhile.
	// Either may be nil. It reports false when the client went away.
	wait := func(ready <-chan struct{}, after <-chan time.Time) bool {
		for {
			select {
			case <-ctx.Done():
				return false
			case <-ready:
				return true
			case <-after:
				return true
			case <-ping.C:
				fmt.Fprint(w, ": ping\n\n")
				w.Flush()
			}
		}
	}

	if !wait(sess.ready, nil) {
		return
	}
	sess.setStatus(api.StatusStreaming)
	l := sess.currentLesson()

	send := func(event string, v any) bool {
		data, err := json.Marshal(v)
		if err != nil {
			s.log.Error("encode stream event", "event", event, "error", err)
			return false
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
		w.Flush()
		return true
	}

	for _, step := range l.Steps {
		if s.cfg.StepDelay > 0 {
			t := time.NewTimer(s.cfg.StepDelay)
			ok := wait(nil, t.C)
			t.Stop()
			if !ok {
				return
			}
		}
		if !send(ingest.EventStep, step) {
			return
		}
	}

	send(ingest.EventComplete, lesson.Complete{Message: completeMessage, TotalSteps: len(l.Steps)})
	sess.setStatus(api.StatusComplete)
	s.log.Debug("stream complete", "session_id", sess.id, "steps", len(l.Steps))
}

func (s *Server) pingInterval() time.Duration {
	if s.cfg.PingInterval > 0 {
		return s.cfg.PingInterval
	}
	return 10 * time.Second
}
