package store

import (
	"context"
	"fmt"
	"time"
)

func (r *eventRepo) AppendPlayback(ctx context.Context, data PlaybackEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO playback_events
			(sequence, timestamp, session_id, action, from_status, to_status, step, total_steps, speed, voice)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seqNum, time.Now().UTC(), data.SessionID, data.Action, data.FromStatus, data.ToStatus,
		data.Step, data.TotalSteps, data.Speed, data.Voice,
	)
	if err != nil {
		return fmt.Errorf("save playback event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryPlayback(ctx context.Context, sessionID string, opts QueryOpts) ([]PlaybackEvent, error) {
	query := `SELECT id, sequence, timestamp, session_id, action, from_status, to_status, step, total_steps, speed, voice
		FROM playback_events WHERE 1=1`
	var args []any
	if sessionID != "" {
		query += " AND session_id = ?"
		args = append(args, sessionID)
	}
	query, args = window(query, args, opts)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query playback events: %w", err)
	}
	defer rows.Close()

	var out []PlaybackEvent
	for rows.Next() {
		var e PlaybackEvent
		if err := rows.Scan(&e.ID, &e.Sequence, &e.Timestamp, &e.SessionID, &e.Action,
			&e.FromStatus, &e.ToStatus, &e.Step, &e.TotalSteps, &e.Speed, &e.Voice); err != nil {
			return nil, fmt.Errorf("scan playback event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
