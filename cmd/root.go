package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abhisek/doceo/internal/api"
	"github.com/abhisek/doceo/internal/logger"
	"github.com/abhisek/doceo/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "doceo",
	Short: "Narrated lesson player for the terminal",
	Long: "Doceo plays step-by-step lessons streamed from a lesson server, keeping " +
		"the narration and the visible step in sync while steps are still arriving.",
	SilenceUsage: true,
	Args:         cobra.MaximumNArgs(1),
	RunE:         runPlay,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "Path to SQLite database file (overrides DOCEO_DB env var)")
	pf.String("server", "", "Lesson server URL (overrides DOCEO_SERVER env var)")
	pf.String("log-file", "", "Write logs to this file (overrides DOCEO_LOG_FILE env var)")
	pf.String("log-mode", "", "Log format: dev or prod (overrides DOCEO_LOG_MODE env var)")
	pf.Bool("debug", false, "Enable debug logging")

	addPlayFlags(rootCmd)

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(voiceCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// flagOrEnv returns the named string flag if set, otherwise the env var.
func flagOrEnv(cmd *cobra.Command, flag, env string) string {
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		return v
	}
	return os.Getenv(env)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then DOCEO_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// openStore opens the database the flags point at.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

func resolveServer(cmd *cobra.Command) string {
	if v := flagOrEnv(cmd, "server", "DOCEO_SERVER"); v != "" {
		return v
	}
	return api.DefaultBaseURL
}

// newLogger builds the command's logger. Full-screen commands pass a
// fallback file so log lines stay off the terminal.
func newLogger(cmd *cobra.Command, fallbackFile string) (*logger.Logger, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	opts := logger.Options{
		Mode:  flagOrEnv(cmd, "log-mode", "DOCEO_LOG_MODE"),
		File:  flagOrEnv(cmd, "log-file", "DOCEO_LOG_FILE"),
		Debug: debug,
	}
	if opts.File == "" {
		opts.File = fallbackFile
	}
	return logger.NewWithOptions(opts)
}

// defaultLogFile places the TUI log next to the database.
func defaultLogFile(dbPath string) string {
	return filepath.Join(filepath.Dir(dbPath), "doceo.log")
}
