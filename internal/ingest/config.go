package ingest

import (
	"net/http"
	"os"
	"strconv"
	"time"
)

// Config holds stream ingestion settings.
type Config struct {
	// Client performs the stream request. Nil means a default client with
	// no overall timeout, since the stream is long-lived.
	Client *http.Client

	Retry RetryPolicy
}

// RetryPolicy controls reconnection after the stream drops before the
// lesson completes.
type RetryPolicy struct {
	MaxRetries  int // 0 disables reconnection
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// NoRetry never reconnects. A dropped stream surfaces as an error and the
// steps received so far remain playable.
var NoRetry = RetryPolicy{}

// DefaultConfig returns the default ingestion settings.
func DefaultConfig() Config {
	return Config{Retry: NoRetry}
}

// ConfigFromEnv overlays DOCEO_STREAM_RETRIES on the defaults.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("DOCEO_STREAM_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Retry = RetryPolicy{
				MaxRetries:  n,
				InitialWait: 500 * time.Millisecond,
				MaxWait:     8 * time.Second,
				Multiplier:  2.0,
			}
		}
	}
	return cfg
}
