package main

import (
	"fmt"

	"github.com/jonathan/match-ranker/internal/types"
	schemafiles "github.com/jonathan/match-ranker/schemas"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Classify matches against a profile and return a bounded page",
	Long:  "Reads a RankRequest JSON file, drops excluded matches, and writes at most finalLimit deduplicated matches ordered positive, aux, then the rest.",
	RunE:  runRank,
}

var (
	rankInput  string
	rankOutput string
)

func init() {
	rankCmd.Flags().StringVarP(&rankInput, "in", "i", "", "Path to input RankRequest JSON file (required)")
	rankCmd.Flags().StringVarP(&rankOutput, "out", "o", "", "Path to output JSON file (required)")

	if err := rankCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}
	if err := rankCmd.MarkFlagRequired("out"); err != nil {
		panic(fmt.Sprintf("failed to mark out flag as required: %v", err))
	}

	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, _ []string) error {
	var req types.RankRequest
	if err := readRequest(rankInput, schemafiles.RankRequest, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid rank request: %w", err)
	}

	if app.cfg.Verbose {
		app.printer.PrintProfile(&req.Profile)
	}

	ranked, err := app.engine.ClassifyAndMerge(req.Matches, req.Profile, req.FinalLimit)
	if err != nil {
		return fmt.Errorf("failed to rank matches: %w", err)
	}

	if err := writeJSON(rankOutput, ranked); err != nil {
		return err
	}

	app.logger.Info("ranked matches",
		zap.String("binding", app.engine.Name()),
		zap.Int("matches", len(req.Matches)),
		zap.Int("final_limit", req.FinalLimit),
		zap.Int("returned", len(ranked)),
	)
	if app.cfg.Verbose {
		app.printer.PrintRanked(app.engine.Name(), len(req.Matches), ranked)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Successfully ranked %d of %d matches to %s\n", len(ranked), len(req.Matches), rankOutput)
	return nil
}
