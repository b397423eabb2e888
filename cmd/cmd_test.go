package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/doceo/internal/audio"
	"github.com/abhisek/doceo/internal/store"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestVoiceCommandPersists(t *testing.T) {
	db := filepath.Join(t.TempDir(), "doceo.db")

	assert.Contains(t, execute(t, "voice", "--db", db), "Voice: on")
	assert.Contains(t, execute(t, "voice", "off", "--db", db), "Voice: off")
	assert.Contains(t, execute(t, "voice", "--db", db), "Voice: off")
}

func TestEventsListEmpty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "doceo.db")
	assert.Contains(t, execute(t, "events", "list", "--db", db), "No playback events found.")
}

func TestRenderCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "x.svg")
	got := execute(t, "render", `x^2`, "--out", out, "--scale", "2")
	assert.Contains(t, got, "display|2|x^2")
	assert.FileExists(t, out)
}

func TestVersion(t *testing.T) {
	assert.Contains(t, execute(t, "version"), "doceo (devel)")
}

func TestResolveSessionNeedsInput(t *testing.T) {
	_, err := resolveSession(t.Context(), playCmd, nil, nil)
	require.Error(t, err)

	id, err := resolveSession(t.Context(), playCmd, nil, []string{"abc"})
	require.NoError(t, err)
	assert.Equal(t, "abc", id)
}

func TestAudioEngineSelection(t *testing.T) {
	t.Setenv("DOCEO_AUDIO_PLAYER", "none")
	assert.IsType(t, audio.ClockEngine{}, audioEngine(nil))

	t.Setenv("DOCEO_AUDIO_PLAYER", "mpv")
	eng, ok := audioEngine(nil).(audio.ExecEngine)
	require.True(t, ok)
	assert.Equal(t, "mpv", eng.Command)
}

func TestFlagOrEnv(t *testing.T) {
	t.Setenv("DOCEO_SERVER", "http://lessons.local:9000")
	assert.Equal(t, "http://lessons.local:9000", resolveServer(versionCmd))
}

func TestLLMCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "doceo.db")
	s, err := store.Open(db)
	require.NoError(t, err)
	repo := s.EventRepo()
	require.NoError(t, repo.AppendLLMRequest(t.Context(), store.LLMRequestEventData{
		Provider: "claude-sonnet-4-5", Model: "claude-sonnet-4-5-20250929", Purpose: "lesson",
		InputTokens: 1000, OutputTokens: 2000, LatencyMs: 900, Success: true,
		RequestBody: "[user]\nDifferentiate x^2", ResponseBody: `{"title":"Power rule"}`,
	}))
	require.NoError(t, repo.AppendLLMRequest(t.Context(), store.LLMRequestEventData{
		Provider: "mock", Model: "mock", Purpose: "chat", Success: false, ErrorMessage: "model provider unavailable",
	}))
	require.NoError(t, s.Close())

	stats := execute(t, "llm", "stats", "--db", db)
	assert.Contains(t, stats, "lesson")
	assert.Contains(t, stats, "Estimated total: $0.03")
	assert.Contains(t, stats, "no pricing for mock")

	view := execute(t, "llm", "view", "1", "--db", db)
	assert.Contains(t, view, "Differentiate x^2")
	assert.Contains(t, view, `{"title":"Power rule"}`)

	list := execute(t, "llm", "list", "--db", db, "--purpose", "chat")
	assert.Contains(t, list, "failed")
	assert.NotContains(t, list, "claude-sonnet")
}
