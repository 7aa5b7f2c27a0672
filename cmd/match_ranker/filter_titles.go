package main

import (
	"fmt"

	"github.com/jonathan/match-ranker/internal/types"
	schemafiles "github.com/jonathan/match-ranker/schemas"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var filterTitlesCmd = &cobra.Command{
	Use:   "filter-titles",
	Short: "Keep items whose title starts with a prefix",
	Long:  "Reads a FilterRequest JSON file and writes the items whose title starts with one of the prefixes, ignoring case and surrounding whitespace.",
	RunE:  runFilterTitles,
}

var (
	filterTitlesInput  string
	filterTitlesOutput string
)

func init() {
	filterTitlesCmd.Flags().StringVarP(&filterTitlesInput, "in", "i", "", "Path to input FilterRequest JSON file (required)")
	filterTitlesCmd.Flags().StringVarP(&filterTitlesOutput, "out", "o", "", "Path to output JSON file (required)")

	if err := filterTitlesCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}
	if err := filterTitlesCmd.MarkFlagRequired("out"); err != nil {
		panic(fmt.Sprintf("failed to mark out flag as required: %v", err))
	}

	rootCmd.AddCommand(filterTitlesCmd)
}

func runFilterTitles(cmd *cobra.Command, _ []string) error {
	var req types.FilterRequest
	if err := readRequest(filterTitlesInput, schemafiles.FilterRequest, &req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid filter request: %w", err)
	}

	kept, err := app.engine.FilterByTitlePrefix(req.Items, req.Prefixes, req.KeepNullTitles)
	if err != nil {
		return fmt.Errorf("failed to filter titles: %w", err)
	}

	if err := writeJSON(filterTitlesOutput, kept); err != nil {
		return err
	}

	app.logger.Info("filtered titles",
		zap.String("binding", app.engine.Name()),
		zap.Int("items", len(req.Items)),
		zap.Int("kept", len(kept)),
	)
	if app.cfg.Verbose {
		app.printer.PrintTitleFilter(app.engine.Name(), req.Prefixes, len(req.Items), len(kept))
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Successfully kept %d of %d items to %s\n", len(kept), len(req.Items), filterTitlesOutput)
	return nil
}
