package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or restore accounts, teams, progress and the catalog",
	}
	cmd.AddCommand(newBackupExportCmd(), newBackupImportCmd())
	return cmd
}

func newBackupExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON backup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			if output == "" {
				output = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
			}
			if dir := filepath.Dir(output); dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
			}

			a, err := openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.backup.Export(cmd.Context(), output); err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			info, err := os.Stat(output)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s (%.2f MB)\n", output, float64(info.Size())/1024/1024)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	return cmd
}

func newBackupImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Restore a JSON backup into an empty database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("input")
			if _, err := os.Stat(input); err != nil {
				return fmt.Errorf("input file %s: %w", input, err)
			}

			a, err := openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.backup.Import(cmd.Context(), input); err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s\n", input)
			return nil
		},
	}
	cmd.Flags().StringP("input", "i", "", "Backup file to restore")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
