// Package server is a lesson server: it writes a lesson per session,
// streams the steps as server-sent events and answers questions.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/abhisek/doceo/internal/lessongen"
	"github.com/abhisek/doceo/internal/logger"
)

// Server serves the lesson API.
type Server struct {
	cfg     Config
	reg     *registry
	gen     *lessongen.Generator
	tutor   *lessongen.Tutor
	fixture *lessongen.Lesson
	log     *logger.Logger
	engine  *gin.Engine

	// bg bounds lesson generation started by requests.
	bg context.Context
}

// New builds a Server. A configured LessonFile is loaded up front so a bad
// file fails at startup.
func New(ctx context.Context, cfg Config, gen *lessongen.Generator, tutor *lessongen.Tutor, log *logger.Logger) (*Server, error) {
	s := &Server{
		cfg:   cfg,
		reg:   newRegistry(),
		gen:   gen,
		tutor: tutor,
		log:   logger.OrNop(log).With("component", "server"),
		bg:    context.WithoutCancel(ctx),
	}
	if cfg.LessonFile != "" {
		l, err := lessongen.LoadFixture(cfg.LessonFile)
		if err != nil {
			return nil, err
		}
		s.fixture = l
	}
	s.engine = s.routes()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Accept", "Cache-Control"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", s.health)

	sessions := r.Group("/sessions")
	{
		sessions.POST("", s.createSession)
		sessions.POST("/upload", s.uploadSession)
		sessions.GET("/:id", s.getSession)
		sessions.GET("/:id/lesson/stream", s.streamLesson)
		sessions.GET("/:id/audio/manifest", s.audioManifest)
		sessions.POST("/:id/chat", s.chat)
	}
	r.GET("/audio/:file", s.audioFile)
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}

// Run listens on cfg.Addr until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
