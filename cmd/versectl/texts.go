package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"verselearn/internal/service"
)

func newTextsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "texts",
		Short: "Manage the public text catalog",
	}
	cmd.AddCommand(newTextsImportCmd(), newTextsDeleteCmd())
	return cmd
}

func newTextsImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Publish texts from an .xlsx or .csv file (columns: title, language, text)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := service.ReadImportFile(args[0])
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			addedBy, _ := cmd.Flags().GetString("added-by")
			res := a.texts.ImportPublic(cmd.Context(), rows, addedBy)

			out := cmd.OutOrStdout()
			for _, msg := range res.Errors {
				fmt.Fprintln(out, "  skipped", msg)
			}
			fmt.Fprintf(out, "Added %d, skipped %d\n", res.Added, res.Skipped)
			return nil
		},
	}
	cmd.Flags().String("added-by", "admin", "Name recorded as the publisher")
	return cmd
}

func newTextsDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove a text from the public catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, _ := cmd.Flags().GetString("lang")
			title, _ := cmd.Flags().GetString("title")

			a, err := openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.texts.DeletePublic(cmd.Context(), strings.ToUpper(lang), title); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s/%s\n", strings.ToUpper(lang), title)
			return nil
		},
	}
	cmd.Flags().String("lang", "DE", "Language code")
	cmd.Flags().String("title", "", "Title of the public text")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}
