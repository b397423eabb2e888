package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/doceo/internal/api"
	"github.com/abhisek/doceo/internal/app"
	"github.com/abhisek/doceo/internal/audio"
	"github.com/abhisek/doceo/internal/ingest"
	"github.com/abhisek/doceo/internal/logger"
	"github.com/abhisek/doceo/internal/playback"
	"github.com/abhisek/doceo/internal/render"
)

var playCmd = &cobra.Command{
	Use:   "play [session-id]",
	Short: "Play a lesson from the lesson server",
	Long: "Play an existing session, or start one from --problem text or a --file " +
		"(image or text) and play it as its steps arrive.",
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func init() {
	addPlayFlags(playCmd)
}

func addPlayFlags(c *cobra.Command) {
	c.Flags().String("problem", "", "Problem text to start a new session with")
	c.Flags().String("file", "", "Image or text file to start a new session with")
	c.Flags().String("subject", "", "Subject hint for a new session")
	c.Flags().Float64("scale", 1, "Math render scale")
	c.Flags().Bool("autoplay", true, "Start narrating as soon as the player opens")
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve database path: %w", err)
	}
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	log, err := newLogger(cmd, defaultLogFile(dbPath))
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Sync()

	server := resolveServer(cmd)
	client := api.New(server)

	sessionID, err := resolveSession(ctx, cmd, client, args)
	if err != nil {
		return err
	}
	log.Info("playing session", "session_id", sessionID, "server", server)

	cache, closeCache, err := render.New(ctx, render.ConfigFromEnv(), log)
	if err != nil {
		return fmt.Errorf("create render cache: %w", err)
	}
	defer closeCache()

	scale, _ := cmd.Flags().GetFloat64("scale")
	autoplay, _ := cmd.Flags().GetBool("autoplay")

	narrator := audio.NewPlayer(audio.HTTPSource{BaseURL: server}, audioEngine(log), log)
	orch := playback.New(ctx, playback.Deps{
		Narrator:    narrator,
		Feed:        ingest.New(ingest.ConfigFromEnv(), log),
		Assets:      cache,
		Prefs:       st.PrefsRepo(),
		Events:      st.EventRepo(),
		Log:         log,
		RenderScale: scale,
	})
	orch.Open(ctx, sessionID, client.StreamURL(sessionID))
	defer orch.Close()

	return app.Run(ctx, app.Options{
		Orchestrator: orch,
		Assets:       cache,
		Client:       client,
		SessionID:    sessionID,
		RenderScale:  scale,
		Log:          log,
		Autoplay:     autoplay,
	})
}

// resolveSession returns the session to play: the argument if given,
// otherwise a new session created from --file or --problem.
func resolveSession(ctx context.Context, cmd *cobra.Command, client *api.Client, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	problem, _ := cmd.Flags().GetString("problem")
	file, _ := cmd.Flags().GetString("file")
	subject, _ := cmd.Flags().GetString("subject")
	if problem == "" && file == "" {
		return "", errors.New("give a session id, --problem or --file")
	}

	hctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := client.Health(hctx); err != nil {
		return "", fmt.Errorf("lesson server %s: %w", client.BaseURL(), err)
	}

	var (
		sess *api.SessionResponse
		err  error
	)
	if file != "" {
		data, rerr := os.ReadFile(file)
		if rerr != nil {
			return "", fmt.Errorf("read problem file: %w", rerr)
		}
		sess, err = client.UploadSession(ctx, api.Upload{
			Filename:    filepath.Base(file),
			Data:        data,
			ProblemText: problem,
			SubjectHint: subject,
		})
	} else {
		sess, err = client.CreateSession(ctx, api.SessionCreate{ProblemText: problem, SubjectHint: subject})
	}
	if err != nil {
		return "", err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Session %s created.\n", sess.SessionID)
	return sess.SessionID, nil
}

// audioEngine picks the narration engine from DOCEO_AUDIO_PLAYER: "none"
// paces silently, any other value names the player command. By default
// ffplay is used when installed.
func audioEngine(log *logger.Logger) audio.Engine {
	log = logger.OrNop(log)
	player := os.Getenv("DOCEO_AUDIO_PLAYER")
	switch player {
	case "none", "off":
		return audio.ClockEngine{}
	case "":
		if _, err := exec.LookPath("ffplay"); err != nil {
			log.Info("ffplay not found; narration is paced silently")
			return audio.ClockEngine{}
		}
		player = "ffplay"
	}
	return audio.ExecEngine{Command: player, Log: log}
}
