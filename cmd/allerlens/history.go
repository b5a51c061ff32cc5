package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/allerlens/backend/internal/infrastructure/export"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect stored scans",
		Long: `List or export a user's stored scans. Only useful with a persistent store
(storage.type=sqlite); the in-memory store starts empty on every run.`,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List a user's scans, newest first",
		Args:  cobra.NoArgs,
		RunE:  runHistoryList,
	}
	list.Flags().String("user", "", "User whose scans to list")
	list.Flags().Bool("json", false, "Output as JSON")
	_ = list.MarkFlagRequired("user")

	exportCmd := &cobra.Command{
		Use:     "export",
		Short:   "Export a user's scans to an xlsx workbook",
		Example: `  allerlens history export --user alice -o scans.xlsx`,
		Args:    cobra.NoArgs,
		RunE:    runHistoryExport,
	}
	exportCmd.Flags().String("user", "", "User whose scans to export")
	exportCmd.Flags().StringP("output", "o", "scans.xlsx", "Output workbook path")
	_ = exportCmd.MarkFlagRequired("user")

	cmd.AddCommand(list, exportCmd)
	return cmd
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	userID, _ := cmd.Flags().GetString("user")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	application, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer application.Close()

	scans, err := application.Service.GetUserScans(cmd.Context(), userID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, scans)
	}
	if len(scans) == 0 {
		fmt.Fprintf(out, "No scans for %s.\n", userID)
		return nil
	}
	for _, scan := range scans {
		warnings := "-"
		if len(scan.Warnings) > 0 {
			warnings = strings.Join(scan.Warnings, "; ")
		}
		fmt.Fprintf(out, "%s  %s  %d ingredients  %s\n",
			scan.Time().UTC().Format(time.RFC3339), scan.ID, len(scan.Ingredients), warnings)
	}
	return nil
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	userID, _ := cmd.Flags().GetString("user")
	outputPath, _ := cmd.Flags().GetString("output")

	application, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer application.Close()

	scans, err := application.Service.GetUserScans(cmd.Context(), userID)
	if err != nil {
		return err
	}
	if err := export.WriteScansXLSX(scans, outputPath); err != nil {
		return fmt.Errorf("failed to export scans: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d scans to %s\n", len(scans), outputPath)
	return nil
}
