package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/doceo/internal/render"
)

var renderCmd = &cobra.Command{
	Use:   "render <latex>",
	Short: "Typeset a math expression to SVG",
	Long: "Typeset one expression through the same cache the player uses " +
		"(DOCEO_RENDER_CMD, DOCEO_REDIS_ADDR) and print its size.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inline, _ := cmd.Flags().GetBool("inline")
		scale, _ := cmd.Flags().GetFloat64("scale")
		out, _ := cmd.Flags().GetString("out")

		log, err := newLogger(cmd, "")
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		defer log.Sync()

		ctx := cmd.Context()
		cache, closeCache, err := render.New(ctx, render.ConfigFromEnv(), log)
		if err != nil {
			return fmt.Errorf("create render cache: %w", err)
		}
		defer closeCache()

		asset, err := cache.Get(ctx, args[0], !inline, scale)
		if err != nil {
			return err
		}

		if out == "" {
			fmt.Fprintln(cmd.OutOrStdout(), asset.SVG)
		} else if err := os.WriteFile(out, []byte(asset.SVG), 0o644); err != nil {
			return fmt.Errorf("write svg: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s  %gx%g\n", asset.Key, asset.Width, asset.Height)
		return nil
	},
}

func init() {
	renderCmd.Flags().Bool("inline", false, "Typeset in inline mode instead of display mode")
	renderCmd.Flags().Float64("scale", 1, "Render scale")
	renderCmd.Flags().StringP("out", "o", "", "Write the SVG to this file instead of stdout")
}
