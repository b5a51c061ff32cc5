package main

import (
	"github.com/allerlens/backend/config"
	"github.com/allerlens/backend/internal/app"
	"github.com/allerlens/backend/internal/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "1.0.0"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "allerlens",
		Short: "AllerLens CLI - allergen checks for ingredient labels",
		Long: `AllerLens reads ingredient labels from text, photos or spec-sheet PDFs,
extracts the ingredient list and warns about the allergens you name.

Configuration is read from config.yaml (or --config) and ALLERLENS_*
environment variables; see config/config.example.yaml.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to a config file (default: ./config.yaml if present)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newHistoryCmd())
	return rootCmd
}

// loadConfig honours the persistent --config flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// openApp wires the pipeline from configuration. Callers must Close it.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cmd, cfg)
	if err != nil {
		return nil, err
	}
	return app.New(cmd.Context(), cfg, log)
}

// newLogger writes to stderr so stdout stays clean for results.
func newLogger(cmd *cobra.Command, cfg *config.Config) (*zap.Logger, error) {
	level := "warn"
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	format := "console"
	if cfg != nil && cfg.Log.Format != "" {
		format = cfg.Log.Format
	}
	return logger.New(logger.Config{Level: level, Format: format, Output: cmd.ErrOrStderr()})
}
