package server

import (
	"os"
	"strings"
	"time"
)

// Config holds lesson server settings.
type Config struct {
	Addr string

	// AudioDir holds narration files served under /audio/.
	AudioDir string

	// StepDelay paces steps on the lesson stream.
	StepDelay time.Duration

	// PingInterval is the SSE keep-alive comment interval.
	PingInterval time.Duration

	AllowOrigins []string

	// LessonFile, when set, is served for every session instead of a
	// generated lesson.
	LessonFile string
}

// DefaultConfig returns the settings `doceo serve` starts with.
func DefaultConfig() Config {
	return Config{
		Addr:         "127.0.0.1:8000",
		AudioDir:     "audio_cache",
		StepDelay:    2 * time.Second,
		PingInterval: 10 * time.Second,
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// ConfigFromEnv overlays DOCEO_* environment variables on DefaultConfig.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("DOCEO_SERVE_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("DOCEO_AUDIO_DIR"); v != "" {
		cfg.AudioDir = v
	}
	if v := os.Getenv("DOCEO_STEP_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.StepDelay = d
		}
	}
	if v := os.Getenv("DOCEO_CORS_ORIGINS"); v != "" {
		cfg.AllowOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("DOCEO_LESSON_FILE"); v != "" {
		cfg.LessonFile = v
	}
	return cfg
}
