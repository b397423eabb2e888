package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "doceo.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doceo.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.PrefsRepo().SetVoiceEnabled(ctx, false); err != nil {
		t.Fatalf("set voice: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	on, err := s.PrefsRepo().VoiceEnabled(ctx)
	if err != nil {
		t.Fatalf("voice: %v", err)
	}
	if on {
		t.Error("expected voice preference to survive reopen")
	}
}

func TestVoicePreference(t *testing.T) {
	s := openTestStore(t)
	repo := s.PrefsRepo()
	ctx := context.Background()

	on, err := repo.VoiceEnabled(ctx)
	if err != nil {
		t.Fatalf("VoiceEnabled: %v", err)
	}
	if !on {
		t.Error("voice should default to enabled")
	}

	for _, want := range []bool{false, true, false} {
		if err := repo.SetVoiceEnabled(ctx, want); err != nil {
			t.Fatalf("SetVoiceEnabled(%v): %v", want, err)
		}
		got, err := repo.VoiceEnabled(ctx)
		if err != nil {
			t.Fatalf("VoiceEnabled: %v", err)
		}
		if got != want {
			t.Errorf("VoiceEnabled() = %v, want %v", got, want)
		}
	}
}

func TestSequenceSharedAcrossEventKinds(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	if err := repo.AppendPlayback(ctx, PlaybackEventData{SessionID: "a", Action: "play", FromStatus: "idle", ToStatus: "playing", Speed: 1, Voice: true}); err != nil {
		t.Fatalf("AppendPlayback: %v", err)
	}
	if err := repo.AppendLLMRequest(ctx, LLMRequestEventData{Provider: "mock", Model: "mock", Purpose: "lesson", Success: true}); err != nil {
		t.Fatalf("AppendLLMRequest: %v", err)
	}
	if err := repo.AppendPlayback(ctx, PlaybackEventData{SessionID: "a", Action: "pause", FromStatus: "playing", ToStatus: "paused", Step: 2, TotalSteps: 3, Speed: 1.5}); err != nil {
		t.Fatalf("AppendPlayback: %v", err)
	}

	playback, err := repo.QueryPlayback(ctx, "a", QueryOpts{})
	if err != nil {
		t.Fatalf("QueryPlayback: %v", err)
	}
	if len(playback) != 2 {
		t.Fatalf("expected 2 playback events, got %d", len(playback))
	}
	if playback[0].Sequence != 3 || playback[1].Sequence != 1 {
		t.Errorf("unexpected sequences %d, %d", playback[0].Sequence, playback[1].Sequence)
	}
	if playback[0].Action != "pause" || playback[0].Step != 2 || playback[0].Speed != 1.5 || playback[0].Voice {
		t.Errorf("unexpected newest event %+v", playback[0])
	}

	llmEvents, err := repo.QueryLLMEvents(ctx, "", QueryOpts{})
	if err != nil {
		t.Fatalf("QueryLLMEvents: %v", err)
	}
	if len(llmEvents) != 1 || llmEvents[0].Sequence != 2 {
		t.Fatalf("unexpected LLM events %+v", llmEvents)
	}
}

func TestQueryPlaybackFilters(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for i, sess := range []string{"a", "b", "a", "a"} {
		data := PlaybackEventData{SessionID: sess, Action: "play", Step: i, Speed: 1}
		if err := repo.AppendPlayback(ctx, data); err != nil {
			t.Fatalf("AppendPlayback: %v", err)
		}
	}

	tests := []struct {
		name    string
		session string
		opts    QueryOpts
		want    []int
	}{
		{"all", "", QueryOpts{}, []int{3, 2, 1, 0}},
		{"session", "a", QueryOpts{}, []int{3, 2, 0}},
		{"limit", "a", QueryOpts{Limit: 1}, []int{3}},
		{"after", "", QueryOpts{After: 2}, []int{3, 2}},
		{"before", "", QueryOpts{Before: 2}, []int{0}},
		{"future", "", QueryOpts{From: time.Now().Add(time.Hour)}, nil},
		{"past", "", QueryOpts{To: time.Now().Add(-time.Hour)}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := repo.QueryPlayback(ctx, tt.session, tt.opts)
			if err != nil {
				t.Fatalf("QueryPlayback: %v", err)
			}
			var got []int
			for _, e := range events {
				got = append(got, e.Step)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("steps = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("steps = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestLLMEventsAndUsage(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "gemini", Model: "gemini-2.5-flash", Purpose: "lesson", InputTokens: 100, OutputTokens: 400, LatencyMs: 1000, Success: true, RequestBody: "[user]\nsolve"},
		{Provider: "gemini", Model: "gemini-2.5-flash", Purpose: "chat", InputTokens: 50, OutputTokens: 60, LatencyMs: 300, Success: true},
		{Provider: "gemini", Model: "gemini-2.5-flash", Purpose: "lesson", InputTokens: 120, OutputTokens: 0, LatencyMs: 200, Success: false, ErrorMessage: "rate limited"},
	}
	for _, e := range events {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("AppendLLMRequest: %v", err)
		}
	}

	got, err := repo.GetLLMEvent(ctx, 1)
	if err != nil {
		t.Fatalf("GetLLMEvent: %v", err)
	}
	if got == nil || got.RequestBody != "[user]\nsolve" || got.Timestamp.IsZero() {
		t.Fatalf("unexpected event %+v", got)
	}
	missing, err := repo.GetLLMEvent(ctx, 99)
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing event, got %+v, %v", missing, err)
	}

	lessons, err := repo.QueryLLMEvents(ctx, "lesson", QueryOpts{Limit: 1})
	if err != nil {
		t.Fatalf("QueryLLMEvents: %v", err)
	}
	if len(lessons) != 1 || lessons[0].ErrorMessage != "rate limited" {
		t.Errorf("expected the newest lesson event, got %+v", lessons)
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("LLMUsageByPurpose: %v", err)
	}
	if len(byPurpose) != 2 {
		t.Fatalf("expected 2 purposes, got %+v", byPurpose)
	}
	lesson := byPurpose[1]
	if lesson.Purpose != "lesson" || lesson.Calls != 2 || lesson.InputTokens != 220 || lesson.AvgLatencyMs != 600 {
		t.Errorf("unexpected lesson usage %+v", lesson)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("LLMUsageByModel: %v", err)
	}
	if len(byModel) != 1 || byModel[0].Calls != 3 || byModel[0].OutputTokens != 460 {
		t.Errorf("unexpected model usage %+v", byModel)
	}
}
