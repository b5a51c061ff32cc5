package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/allerlens/backend/internal/domain"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [image|pdf]",
		Short: "Recognize a label photo or spec-sheet PDF and check it for allergens",
		Long: `Run text recognition on a label photo (Google Cloud Vision) or read the
text layer of a PDF, then parse and check the ingredients.

Photos need ocr.provider=vision and Google credentials:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string`,
		Example: `  # Check a photo for peanuts
  allerlens scan label.jpg -a nuts

  # Store the result in the configured scan history
  allerlens scan spec-sheet.pdf --user alice -a milk --save`,
		Args: cobra.ExactArgs(1),
		RunE: runScan,
	}

	cmd.Flags().String("user", "cli", "User the scan belongs to")
	cmd.Flags().StringSliceP("allergy", "a", nil, "Allergy to check (repeatable or comma separated)")
	cmd.Flags().Bool("save", false, "Persist the scan to the configured store")
	cmd.Flags().Duration("timeout", 60*time.Second, "Processing timeout")
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	userID, _ := cmd.Flags().GetString("user")
	allergies, _ := cmd.Flags().GetStringSlice("allergy")
	save, _ := cmd.Flags().GetBool("save")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	application, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	ctx = domain.WithSession(ctx, userID)

	application.Logger().Debug("scanning label", zap.String("file", path), zap.Int("bytes", len(data)))

	if save {
		scan, err := application.Service.SaveScan(ctx, &domain.SaveScanRequest{
			UserID:    userID,
			Image:     data,
			ImageURL:  path,
			Allergies: allergies,
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), scan)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved scan %s\n", scan.ID)
		writeResult(cmd.OutOrStdout(), &domain.ProcessResult{Ingredients: scan.Ingredients, Warnings: scan.Warnings})
		return nil
	}

	text, result, err := application.Service.AnalyzeImage(ctx, data, allergies)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), struct {
			Text string `json:"text"`
			*domain.ProcessResult
		}{Text: text, ProcessResult: result})
	}
	writeResult(cmd.OutOrStdout(), result)
	return nil
}
