package render

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/abhisek/doceo/internal/logger"
)

// Config selects the typesetter and retention policy.
type Config struct {
	// Command is an external typesetter command line. Empty means the
	// built-in BoxRenderer.
	Command string

	// Capacity bounds resolved assets in memory. 0 keeps all of them.
	Capacity int

	// RedisAddr enables the shared asset tier when set.
	RedisAddr string
	RedisTTL  time.Duration
}

// DefaultConfig returns an unbounded cache with the built-in renderer.
func DefaultConfig() Config {
	return Config{RedisTTL: 7 * 24 * time.Hour}
}

// ConfigFromEnv overlays DOCEO_RENDER_CMD, DOCEO_RENDER_CAPACITY and
// DOCEO_REDIS_ADDR on the defaults.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("DOCEO_RENDER_CMD"); v != "" {
		cfg.Command = v
	}
	if v := os.Getenv("DOCEO_RENDER_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Capacity = n
		}
	}
	if v := os.Getenv("DOCEO_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	return cfg
}

// New builds a Cache from cfg. The returned close function releases the
// shared tier, if any. An unreachable Redis is logged and skipped.
func New(ctx context.Context, cfg Config, log *logger.Logger) (*Cache, func() error, error) {
	log = logger.OrNop(log)

	var r Renderer = BoxRenderer{}
	if cfg.Command != "" {
		cr, err := NewCommandRenderer(cfg.Command)
		if err != nil {
			return nil, nil, err
		}
		r = cr
	}

	opts := []Option{WithLogger(log)}
	closeFn := func() error { return nil }
	if cfg.RedisAddr != "" {
		rs, err := NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisTTL)
		if err != nil {
			log.Warn("shared render store disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			opts = append(opts, WithSharedStore(rs))
			closeFn = rs.Close
		}
	}
	return NewCache(r, cfg.Capacity, opts...), closeFn, nil
}
