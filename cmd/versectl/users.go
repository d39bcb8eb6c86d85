package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			users, err := a.auth.ListUsers(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tPOINTS\tVERSES\tADMIN")
			for _, u := range users {
				fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%v\n", u.ID, u.Username, u.Points, u.TotalVersesLearned, u.IsAdmin)
			}
			return w.Flush()
		},
	}
	return cmd
}
