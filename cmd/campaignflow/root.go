package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rendis/campaignflow/internal/logging"
	"github.com/rendis/campaignflow/internal/pipeline"
)

var (
	configPath   string
	outputFormat string
	logLevel     string

	cfg    Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:          "campaignflow",
	Short:        "campaignflow repairs, validates and visualizes generated SMS campaign flows",
	Long:         "Normalizes LLM-generated campaign flow graphs, falls back to a canonical execution graph when repair fails, and grades flows against SMS best practices.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("output") {
			loaded.Output = outputFormat
		}
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel = logLevel
		}
		cfg = loaded
		logger = slog.New(logging.NewCorrelationHandler(
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.slogLevel()}),
		))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "settings file (default ~/.campaignflow/settings.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "json", "output format: json or yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
}

// newProcessor builds a pipeline from the loaded configuration.
func newProcessor() (*pipeline.Processor, error) {
	return pipeline.New(pipeline.Options{
		FallbackEnabled:            cfg.Fallback,
		LintEnabled:                cfg.Lint,
		DuplicateTargetsAsWarnings: cfg.DuplicateTargetsAsWarnings,
		Logger:                     logger,
	})
}
