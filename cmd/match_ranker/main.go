// Package main implements the match_ranker CLI: title prefix filtering,
// rule-based classify-and-merge ranking, and binding parity checks.
package main

import (
	"fmt"
	"os"

	"github.com/jonathan/match-ranker/internal/config"
	"github.com/jonathan/match-ranker/internal/observability"
	"github.com/jonathan/match-ranker/internal/rank"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "match_ranker",
	Short: "Deterministic post-retrieval filtering and ranking",
	Long: "match_ranker narrows and orders retrieved matches: it filters items by title prefix, " +
		"applies a rule profile's exclusion and inclusion terms, and returns a bounded, deduplicated, tier-ordered page.",
	SilenceUsage:       true,
	PersistentPreRunE:  setupRuntime,
	PersistentPostRunE: teardownRuntime,
}

var (
	rootConfigPath  string
	rootBinding     string
	rootVerbose     bool
	rootMetricsFile string
)

// app holds what setupRuntime builds for the command being run.
var app struct {
	cfg      config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	engine   rank.Engine
	printer  *observability.Printer
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootConfigPath, "config", "c", "", "Path to YAML or JSON config file")
	rootCmd.PersistentFlags().StringVar(&rootBinding, "binding", "", "Engine binding: optimized or reference (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "Print detailed summaries and debug logs")
	rootCmd.PersistentFlags().StringVar(&rootMetricsFile, "metrics-file", "", "Write binding counters to this file in Prometheus text format")
}

func setupRuntime(cmd *cobra.Command, _ []string) error {
	loaded, err := config.LoadConfig(rootConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if rootBinding != "" {
		loaded.Binding = rootBinding
	}
	if rootVerbose {
		loaded.Verbose = true
	}

	cfg := loaded.MergeWithDefaults(config.Defaults())
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.LogLevel, cfg.Verbose)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	engine, err := rank.New(cfg.Binding,
		rank.WithLogger(logger),
		rank.WithMetrics(rank.NewMetrics(registry)),
	)
	if err != nil {
		return fmt.Errorf("failed to select binding: %w", err)
	}

	app.cfg = cfg
	app.logger = logger
	app.registry = registry
	app.engine = engine
	app.printer = observability.NewPrinter(cmd.OutOrStdout())

	logger.Debug("runtime ready",
		zap.String("command", cmd.Name()),
		zap.String("binding", engine.Name()),
		zap.String("config", rootConfigPath),
	)
	return nil
}

func teardownRuntime(_ *cobra.Command, _ []string) error {
	if rootMetricsFile != "" && app.registry != nil {
		if err := prometheus.WriteToTextfile(rootMetricsFile, app.registry); err != nil {
			return fmt.Errorf("failed to write metrics file %s: %w", rootMetricsFile, err)
		}
	}
	if app.logger != nil {
		_ = app.logger.Sync()
	}
	return nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
