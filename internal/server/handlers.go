package server

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/doceo/internal/api"
	"github.com/abhisek/doceo/internal/lesson"
	"github.com/abhisek/doceo/internal/lessongen"
	"github.com/abhisek/doceo/internal/llm"
)

const maxUploadBytes = 10 << 20

func respondError(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, api.ErrorBody{Detail: detail})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, api.Health{Status: "ok", APIVersion: api.APIVersion})
}

func (s *Server) createSession(c *gin.Context) {
	var body api.SessionCreate
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if strings.TrimSpace(body.ProblemText) == "" {
		respondError(c, http.StatusBadRequest, "problem_text is required")
		return
	}
	sess := s.start(lessongen.Problem{Text: body.ProblemText, Subject: body.SubjectHint})
	c.JSON(http.StatusOK, sess.response())
}

func (s *Server) uploadSession(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "file is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		respondError(c, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	p := lessongen.Problem{
		Text:    c.PostForm("problem_text"),
		Subject: c.PostForm("subject_hint"),
	}
	mediaType := http.DetectContentType(data)
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		p.Image = &llm.Image{MediaType: mediaType, Data: data}
	case strings.HasPrefix(mediaType, "text/"):
		p.Text = strings.TrimSpace(p.Text + "\n" + string(data))
	default:
		respondError(c, http.StatusUnsupportedMediaType, "unsupported upload type "+mediaType)
		return
	}

	sess := s.start(p)
	c.JSON(http.StatusOK, sess.response())
}

// start registers a session and writes its lesson in the background.
func (s *Server) start(p lessongen.Problem) *session {
	sess := s.reg.create(p)
	s.log.Info("session created", "session_id", sess.id, "loading_run_id", sess.runID)

	go func() {
		var l *lessongen.Lesson
		if s.fixture != nil {
			l = s.fixture
		} else {
			l = s.gen.GenerateOrMock(s.bg, p)
		}
		sess.finish(l)
		s.log.Info("lesson ready", "session_id", sess.id, "steps", len(l.Steps), "fallback", l.Fallback)
	}()
	return sess
}

func (s *Server) session(c *gin.Context) (*session, bool) {
	sess, ok := s.reg.get(c.Param("id"))
	if !ok {
		respondError(c, http.StatusNotFound, "Session not found")
	}
	return sess, ok
}

func (s *Server) getSession(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.response())
}

// audioManifest lists the narration tracks of the steps written so far.
func (s *Server) audioManifest(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	m := lesson.AudioManifest{SessionID: sess.id, Tracks: []lesson.AudioTrack{}}
	if l := sess.currentLesson(); l != nil {
		for _, st := range l.Steps {
			if st.AudioURL == "" {
				continue
			}
			m.Tracks = append(m.Tracks, lesson.AudioTrack{
				StepNumber: st.Number,
				URL:        st.AudioURL,
				Offset:     st.AudioOffset,
				Duration:   st.AudioDuration,
			})
		}
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) chat(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var body api.ChatRequest
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Message) == "" {
		respondError(c, http.StatusBadRequest, "message is required")
		return
	}

	sess.mu.Lock()
	history := append([]lessongen.ChatTurn(nil), sess.chat...)
	sess.mu.Unlock()

	a := s.tutor.AnswerOrMock(c.Request.Context(), sess.problem.Text, history, body.Message)

	sess.mu.Lock()
	sess.chat = append(sess.chat,
		lessongen.ChatTurn{Role: lessongen.RoleStudent, Message: body.Message},
		lessongen.ChatTurn{Role: lessongen.RoleTutor, Message: a.Message},
	)
	sess.mu.Unlock()

	c.JSON(http.StatusOK, api.ChatResponse{
		Role:        a.Role,
		Message:     a.Message,
		Narration:   a.Narration,
		MathBlocks:  a.MathBlocks,
		RelatedStep: a.RelatedStep,
	})
}

// audioFile serves a narration file. Only plain file names inside AudioDir
// are accepted.
func (s *Server) audioFile(c *gin.Context) {
	name := c.Param("file")
	if !safeFileName(name) {
		respondError(c, http.StatusForbidden, "Access denied")
		return
	}
	path := filepath.Join(s.cfg.AudioDir, name)
	if fi, err := os.Stat(path); err != nil || fi.IsDir() {
		respondError(c, http.StatusNotFound, "Audio file not found")
		return
	}
	c.File(path)
}

func safeFileName(name string) bool {
	return name != "" && filepath.IsLocal(name) && !strings.ContainsAny(name, `/\`)
}
