package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

const prefVoiceEnabled = "voice_enabled"

type prefsRepo struct {
	db *sql.DB
}

func (r *prefsRepo) VoiceEnabled(ctx context.Context) (bool, error) {
	v, ok, err := r.get(ctx, prefVoiceEnabled)
	if err != nil || !ok {
		return true, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return true, fmt.Errorf("parse %s: %w", prefVoiceEnabled, err)
	}
	return b, nil
}

func (r *prefsRepo) SetVoiceEnabled(ctx context.Context, enabled bool) error {
	return r.set(ctx, prefVoiceEnabled, strconv.FormatBool(enabled))
}

func (r *prefsRepo) get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get preference %s: %w", key, err)
	}
	return v, true, nil
}

func (r *prefsRepo) set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set preference %s: %w", key, err)
	}
	return nil
}
