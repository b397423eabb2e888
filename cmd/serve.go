package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/doceo/internal/lessongen"
	"github.com/abhisek/doceo/internal/llm"
	"github.com/abhisek/doceo/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a lesson server",
	Long: "Serve lessons over HTTP. Lessons are written by the configured LLM " +
		"provider; without one, or with --lesson, a fixed lesson is served.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := server.ConfigFromEnv()
		if v, _ := cmd.Flags().GetString("addr"); v != "" {
			cfg.Addr = v
		}
		if v, _ := cmd.Flags().GetString("lesson"); v != "" {
			cfg.LessonFile = v
		}
		if v, _ := cmd.Flags().GetString("audio-dir"); v != "" {
			cfg.AudioDir = v
		}
		if cmd.Flags().Changed("step-delay") {
			cfg.StepDelay, _ = cmd.Flags().GetDuration("step-delay")
		}

		log, err := newLogger(cmd, "")
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		defer log.Sync()

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var provider llm.Provider
		if cfg.LessonFile == "" {
			p, err := llm.NewProviderFromEnv(ctx, st.EventRepo(), log)
			if err != nil {
				log.Warn("LLM provider not configured; serving the built-in lesson", "error", err)
			} else {
				provider = p
			}
		}

		gcfg := lessongen.DefaultConfig()
		srv, err := server.New(ctx, cfg,
			lessongen.NewGenerator(provider, gcfg, log),
			lessongen.NewTutor(provider, gcfg, log),
			log)
		if err != nil {
			return err
		}
		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides DOCEO_SERVE_ADDR env var)")
	serveCmd.Flags().String("lesson", "", "Serve this YAML lesson for every session")
	serveCmd.Flags().String("audio-dir", "", "Directory of narration files served under /audio/")
	serveCmd.Flags().Duration("step-delay", 2*time.Second, "Delay between streamed steps")
}
