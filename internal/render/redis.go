package render

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisStore keeps rendered assets in Redis under a content-addressed key.
type RedisStore struct {
	rdb    goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to addr and verifies the connection.
func NewRedisStore(ctx context.Context, addr string, ttl time.Duration) (*RedisStore, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{rdb: rdb, prefix: "doceo:render:", ttl: ttl}, nil
}

type redisAsset struct {
	SVG    string  `json:"svg"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Load implements SharedStore.
func (s *RedisStore) Load(ctx context.Context, key Key) (*Asset, bool, error) {
	raw, err := s.rdb.Get(ctx, s.redisKey(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return decodeAsset(key, raw)
}

// Save implements SharedStore.
func (s *RedisStore) Save(ctx context.Context, a *Asset) error {
	raw, err := json.Marshal(redisAsset{SVG: a.SVG, Width: a.Width, Height: a.Height})
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.redisKey(a.Key), raw, s.ttl).Err()
}

// Close releases the connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) redisKey(k Key) string {
	sum := sha256.Sum256([]byte(k.String()))
	return s.prefix + hex.EncodeToString(sum[:])
}

func decodeAsset(key Key, raw []byte) (*Asset, bool, error) {
	var ra redisAsset
	if err := json.Unmarshal(raw, &ra); err != nil {
		return nil, false, fmt.Errorf("decode cached asset: %w", err)
	}
	if ra.SVG == "" {
		return nil, false, nil
	}
	w, h := ra.Width, ra.Height
	if w <= 0 || h <= 0 {
		w, h = Dimensions(ra.SVG)
	}
	return &Asset{Key: key, SVG: ra.SVG, Width: w, Height: h}, true, nil
}
