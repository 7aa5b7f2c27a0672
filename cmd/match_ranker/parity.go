package main

import (
	"fmt"

	"github.com/jonathan/match-ranker/internal/observability"
	"github.com/jonathan/match-ranker/internal/parity"
	"github.com/jonathan/match-ranker/internal/rank"
	"github.com/spf13/cobra"
)

var parityCmd = &cobra.Command{
	Use:   "parity",
	Short: "Check that the optimized and reference bindings agree",
	Long:  "Runs the hand-written fixtures and seeded random trials through both bindings and reports every input on which their outputs differ.",
	RunE:  runParity,
}

var (
	parityTrials int
	paritySeed   int64
	parityReport string
)

func init() {
	parityCmd.Flags().IntVarP(&parityTrials, "trials", "n", 0, "Number of random trials (default from config)")
	parityCmd.Flags().Int64VarP(&paritySeed, "seed", "s", 0, "Seed of the first trial (default from config)")
	parityCmd.Flags().StringVarP(&parityReport, "report", "r", "", "Path to output report JSON file (optional)")

	rootCmd.AddCommand(parityCmd)
}

func runParity(cmd *cobra.Command, _ []string) error {
	trials := app.cfg.ParityTrials
	if cmd.Flags().Changed("trials") {
		trials = parityTrials
	}
	if trials < 0 {
		return fmt.Errorf("trials must be non-negative, got %d", trials)
	}
	seed := app.cfg.ParitySeed
	if cmd.Flags().Changed("seed") {
		seed = paritySeed
	}

	// Unwrapped bindings: no fallback sits between them.
	harness := parity.NewHarness(rank.Optimized{}, rank.Reference{}, app.logger)
	report, err := harness.Run(cmd.Context(), seed, trials)
	if err != nil {
		return fmt.Errorf("failed to run parity: %w", err)
	}

	if parityReport != "" {
		if err := writeJSON(parityReport, report); err != nil {
			return err
		}
	}
	if app.cfg.Verbose {
		app.printer.PrintParityReport(paritySummary(report))
	}

	if !report.OK() {
		return fmt.Errorf("parity failed: %d mismatches (seed %d, run %s)", len(report.Mismatches), seed, report.RunID)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Parity OK: %d fixtures and %d trials from seed %d agree\n", report.Fixtures, report.Trials, seed)
	return nil
}

// paritySummary reduces a report to what the verbose printer shows.
func paritySummary(report parity.Report) observability.ParitySummary {
	summary := observability.ParitySummary{
		RunID:      report.RunID,
		Fixtures:   report.Fixtures,
		Trials:     report.Trials,
		Mismatches: make([]observability.ParityMismatch, 0, len(report.Mismatches)),
	}
	for _, m := range report.Mismatches {
		origin := fmt.Sprintf("seed %d", m.Seed)
		if m.Fixture != "" {
			origin = "fixture " + m.Fixture
		}
		summary.Mismatches = append(summary.Mismatches, observability.ParityMismatch{
			Operation: m.Operation,
			Origin:    origin,
			Left:      m.Left,
			Right:     m.Right,
		})
	}
	return summary
}
