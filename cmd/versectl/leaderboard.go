package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newLeaderboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the top learners and teams",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			board, err := a.leaderboard.Get(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RANK\tLEARNER\tTEAM\tPOINTS")
			for _, u := range board.Users {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", u.Rank, u.Username, u.TeamName, u.Points)
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, "RANK\tTEAM\tMEMBERS\tPOINTS")
			for _, t := range board.Teams {
				fmt.Fprintf(w, "%d\t%s\t%d\t%d\n", t.Rank, t.Name, t.MemberCount, t.Points)
			}
			return w.Flush()
		},
	}
}
