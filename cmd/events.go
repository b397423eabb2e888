package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/doceo/internal/store"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect recorded playback transitions",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent playback transitions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		session, _ := cmd.Flags().GetString("session")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryPlayback(cmd.Context(), session, store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		w := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(w, "No playback events found.")
			return nil
		}

		fmt.Fprintf(w, "%-6s  %-19s  %-12s  %-14s  %-21s  %-7s  %-5s  %s\n",
			"Seq", "Timestamp", "Session", "Action", "Transition", "Step", "Speed", "Voice")
		fmt.Fprintln(w, strings.Repeat("─", 100))

		for _, e := range events {
			voice := "on"
			if !e.Voice {
				voice = "off"
			}
			fmt.Fprintf(w, "%-6d  %-19s  %-12s  %-14s  %-21s  %-7s  %-5s  %s\n",
				e.Sequence,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				truncate(e.SessionID, 12),
				e.Action,
				e.FromStatus+" → "+e.ToStatus,
				fmt.Sprintf("%d/%d", e.Step+1, e.TotalSteps),
				fmt.Sprintf("%gx", e.Speed),
				voice,
			)
		}
		return nil
	},
}

func init() {
	eventsListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	eventsListCmd.Flags().StringP("session", "s", "", "Only show events for this session")

	eventsCmd.AddCommand(eventsListCmd)
}
