package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newProgressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Inspect or change learner progress",
	}
	cmd.AddCommand(newProgressResetCmd())
	return cmd
}

func newProgressResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear the completed mark of a text so it counts again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, _ := cmd.Flags().GetString("user")
			lang, _ := cmd.Flags().GetString("lang")
			title, _ := cmd.Flags().GetString("title")
			lang = strings.ToUpper(lang)

			a, err := openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.texts.ResetCompletion(cmd.Context(), user, lang, title); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset %s/%s for %s\n", lang, title, user)
			return nil
		},
	}
	cmd.Flags().String("user", "", "Username")
	cmd.Flags().String("lang", "DE", "Language code")
	cmd.Flags().String("title", "", "Title of the text")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}
