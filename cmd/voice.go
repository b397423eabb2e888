package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var voiceCmd = &cobra.Command{
	Use:       "voice [on|off]",
	Short:     "Show or set whether lessons are narrated aloud",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		prefs := s.PrefsRepo()
		if len(args) == 1 {
			if err := prefs.SetVoiceEnabled(ctx, args[0] == "on"); err != nil {
				return fmt.Errorf("save voice preference: %w", err)
			}
		}

		on, err := prefs.VoiceEnabled(ctx)
		if err != nil {
			return fmt.Errorf("read voice preference: %w", err)
		}
		state := "off"
		if on {
			state = "on"
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Voice:", state)
		return nil
	},
}
