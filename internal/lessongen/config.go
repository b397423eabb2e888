package lessongen

import "time"

// Config holds generation settings.
type Config struct {
	LessonMaxTokens int
	ChatMaxTokens   int
	Temperature     float64

	// Timeout bounds one generation call, retries included.
	Timeout time.Duration
}

// DefaultConfig returns the settings used by `doceo serve`.
func DefaultConfig() Config {
	return Config{
		LessonMaxTokens: 8192,
		ChatMaxTokens:   1024,
		Temperature:     0.4,
		Timeout:         2 * time.Minute,
	}
}
