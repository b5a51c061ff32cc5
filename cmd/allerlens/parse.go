package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/allerlens/backend/internal/domain"
	"github.com/allerlens/backend/internal/usecase"
	"github.com/spf13/cobra"
)

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Extract ingredients and allergen warnings from label text",
		Long: `Parse label text into a clean ingredient list and check it against the
given allergies. Text is read from the file argument, or from stdin when no
file is given.

With --cleanup the configured LLM provider tidies the text first; if it is
unavailable the original text is parsed as is.`,
		Example: `  # Check a label for milk and nuts
  allerlens parse label.txt -a milk -a nuts

  # Pipe OCR output and print JSON
  tesseract label.png - | allerlens parse --allergy milk,eggs --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runParse,
	}

	cmd.Flags().StringSliceP("allergy", "a", nil, "Allergy to check (repeatable or comma separated)")
	cmd.Flags().Bool("cleanup", false, "Run the configured LLM cleanup before parsing")
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	allergies, _ := cmd.Flags().GetStringSlice("allergy")
	useCleanup, _ := cmd.Flags().GetBool("cleanup")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	service := usecase.NewScanService(nil, nil, nil, nil, nil, usecase.ScanServiceConfig{})
	if useCleanup {
		application, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer application.Close()
		service = application.Service
	}

	result, err := service.ProcessTextForAllergens(cmd.Context(), text, allergies)
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	writeResult(cmd.OutOrStdout(), result)
	return nil
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(data), nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeResult(w io.Writer, result *domain.ProcessResult) {
	fmt.Fprintf(w, "Ingredients (%d):\n", len(result.Ingredients))
	for _, ing := range result.Ingredients {
		fmt.Fprintf(w, "  %s\n", ing)
	}

	if len(result.Warnings) == 0 {
		fmt.Fprintln(w, "No allergen warnings.")
		return
	}
	fmt.Fprintln(w, "Warnings:")
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "  ! %s\n", strings.TrimSpace(warning))
	}
}
