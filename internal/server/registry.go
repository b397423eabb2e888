package server

import (
	"sync"

	"github.com/google/uuid"

	"github.com/abhisek/doceo/internal/api"
	"github.com/abhisek/doceo/internal/lessongen"
)

// session is one learner's lesson. Fields after mu are guarded by it; the
// lesson itself is immutable once ready is closed.
type session struct {
	id      string
	runID   string
	problem lessongen.Problem
	ready   chan struct{}

	mu     sync.Mutex
	lesson *lessongen.Lesson
	status string
	chat   []lessongen.ChatTurn
}

func (s *session) response() api.SessionResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := api.SessionResponse{
		SessionID:    s.id,
		LoadingRunID: s.runID,
		Status:       s.status,
		Subject:      s.problem.Subject,
	}
	if s.lesson != nil {
		out.Title = s.lesson.Title
		out.Subject = s.lesson.Subject
		out.StepCount = len(s.lesson.Steps)
	}
	return out
}

// finish stores the lesson and releases stream readers waiting on it.
func (s *session) finish(l *lessongen.Lesson) {
	s.mu.Lock()
	s.lesson = l
	if s.status == api.StatusProcessing {
		s.status = api.StatusStreaming
	}
	s.mu.Unlock()
	close(s.ready)
}

func (s *session) setStatus(status string) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

func (s *session) currentLesson() *lessongen.Lesson {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lesson
}

// registry is the in-memory session table.
type registry struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newRegistry() *registry {
	return &registry{sessions: make(map[string]*session)}
}

func (r *registry) create(p lessongen.Problem) *session {
	s := &session{
		id:      uuid.NewString(),
		runID:   uuid.NewString(),
		problem: p,
		ready:   make(chan struct{}),
		status:  api.StatusProcessing,
	}
	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()
	return s
}

func (r *registry) get(id string) (*session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}
