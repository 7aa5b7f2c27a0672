package parity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"slices"

	"github.com/google/uuid"
	"github.com/jonathan/match-ranker/internal/classify"
	"github.com/jonathan/match-ranker/internal/merge"
	"github.com/jonathan/match-ranker/internal/rank"
	"github.com/jonathan/match-ranker/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ExpectedBinding names the hand-written expectation in fixture mismatches.
const ExpectedBinding = "expected"

// Mismatch is one disagreement, with everything needed to replay it.
type Mismatch struct {
	Seed      int64           `json:"seed,omitempty"`
	Fixture   string          `json:"fixture,omitempty"`
	Operation string          `json:"operation"`
	Left      string          `json:"left"`
	Right     string          `json:"right"`
	Input     json.RawMessage `json:"input"`
	LeftOut   json.RawMessage `json:"left_output"`
	RightOut  json.RawMessage `json:"right_output"`
}

// Report summarizes a parity run.
type Report struct {
	RunID      string     `json:"run_id"`
	Seed       int64      `json:"seed"`
	Trials     int        `json:"trials"`
	Fixtures   int        `json:"fixtures"`
	Mismatches []Mismatch `json:"mismatches"`
	// Tier2Emissions counts candidates the demoted-positive pass emitted
	// across all trials. It is expected to stay zero.
	Tier2Emissions int `json:"tier2_emissions"`
}

// OK reports whether the run found no mismatch.
func (r Report) OK() bool {
	return len(r.Mismatches) == 0
}

// Harness compares two engines on fixtures and on seeded random trials.
type Harness struct {
	Left   rank.Engine
	Right  rank.Engine
	Logger *zap.Logger
	// Concurrency bounds the trials run at once. Zero means GOMAXPROCS.
	Concurrency int
}

// NewHarness returns a harness comparing left against right.
func NewHarness(left, right rank.Engine, logger *zap.Logger) *Harness {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Harness{Left: left, Right: right, Logger: logger}
}

// Run executes every fixture and trials random trials starting at seed.
func (h *Harness) Run(ctx context.Context, seed int64, trials int) (Report, error) {
	report := Report{
		RunID:      uuid.NewString(),
		Seed:       seed,
		Mismatches: []Mismatch{},
	}

	fixtures := Fixtures()
	fixtureMismatches, err := h.RunFixtures(fixtures)
	if err != nil {
		return report, err
	}
	report.Fixtures = len(fixtures)
	report.Mismatches = append(report.Mismatches, fixtureMismatches...)

	trialMismatches, tier2, err := h.RunRandom(ctx, seed, trials)
	if err != nil {
		return report, err
	}
	report.Trials = trials
	report.Tier2Emissions = tier2
	report.Mismatches = append(report.Mismatches, trialMismatches...)

	h.logger().Info("parity run complete",
		zap.String("run_id", report.RunID),
		zap.Int64("seed", seed),
		zap.Int("fixtures", report.Fixtures),
		zap.Int("trials", report.Trials),
		zap.Int("mismatches", len(report.Mismatches)),
		zap.Int("tier2_emissions", report.Tier2Emissions),
	)
	return report, nil
}

// RunRandom runs trials seeded seed, seed+1, ... in parallel and returns the
// mismatches in trial order along with the total tier-2 emissions.
func (h *Harness) RunRandom(ctx context.Context, seed int64, trials int) ([]Mismatch, int, error) {
	perTrial := make([][]Mismatch, trials)
	tier2 := make([]int, trials)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.concurrency())
	for i := 0; i < trials; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			trial, err := NewGenerator(seed + int64(i)).Trial()
			if err != nil {
				return fmt.Errorf("failed to generate trial %d: %w", i, err)
			}
			mismatches, emitted, err := h.RunTrial(trial)
			if err != nil {
				return fmt.Errorf("failed to run trial %d: %w", i, err)
			}
			perTrial[i] = mismatches
			tier2[i] = emitted
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	var all []Mismatch
	total := 0
	for i := range perTrial {
		all = append(all, perTrial[i]...)
		total += tier2[i]
	}
	return all, total, nil
}

// RunTrial compares both operations on one trial and checks each engine's
// output against the invariants, so a bug both engines share still shows up.
// It also returns how many candidates the demoted-positive tier emitted for
// the trial's inputs.
func (h *Harness) RunTrial(trial Trial) ([]Mismatch, int, error) {
	var mismatches []Mismatch

	filterInput, err := json.Marshal(map[string]any{
		"items":          trial.Matches,
		"prefixes":       trial.Prefixes,
		"keepNullTitles": trial.KeepNull,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode filter input: %w", err)
	}
	m, err := h.compare(rank.OpFilterByTitlePrefix, filterInput, func(e rank.Engine) ([]types.Candidate, error) {
		return e.FilterByTitlePrefix(trial.Matches, trial.Prefixes, trial.KeepNull)
	})
	if err != nil {
		return nil, 0, err
	}
	if m != nil {
		m.Seed = trial.Seed
		mismatches = append(mismatches, *m)
	}

	mergeInput, err := json.Marshal(types.RankRequest{
		Matches:    trial.Matches,
		Profile:    trial.Profile,
		FinalLimit: trial.FinalLimit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode merge input: %w", err)
	}
	m, err = h.compare(rank.OpClassifyAndMerge, mergeInput, func(e rank.Engine) ([]types.Candidate, error) {
		return e.ClassifyAndMerge(trial.Matches, trial.Profile, trial.FinalLimit)
	})
	if err != nil {
		return nil, 0, err
	}
	if m != nil {
		m.Seed = trial.Seed
		mismatches = append(mismatches, *m)
	}

	broken, err := h.checkInvariants(trial, filterInput, mergeInput)
	if err != nil {
		return nil, 0, err
	}
	mismatches = append(mismatches, broken...)

	for _, mismatch := range mismatches {
		h.logMismatch(mismatch)
	}

	_, stats := merge.Merge(classify.Classify(trial.Matches, trial.Profile), trial.Profile.RequirePositive, trial.FinalLimit)
	return mismatches, stats.Emitted[merge.TierDemoted], nil
}

// checkInvariants reports one mismatch per engine and operation whose
// output breaks an invariant. RightOut lists the broken rules.
func (h *Harness) checkInvariants(trial Trial, filterInput, mergeInput json.RawMessage) ([]Mismatch, error) {
	var mismatches []Mismatch
	for _, e := range []rank.Engine{h.Left, h.Right} {
		checks := []struct {
			operation  string
			input      json.RawMessage
			violations func() ([]string, error)
			call       func() ([]types.Candidate, error)
		}{
			{
				operation:  rank.OpFilterByTitlePrefix,
				input:      filterInput,
				violations: func() ([]string, error) { return FilterViolations(e, trial.Matches, trial.Prefixes, trial.KeepNull) },
				call:       func() ([]types.Candidate, error) { return e.FilterByTitlePrefix(trial.Matches, trial.Prefixes, trial.KeepNull) },
			},
			{
				operation:  rank.OpClassifyAndMerge,
				input:      mergeInput,
				violations: func() ([]string, error) { return MergeViolations(e, trial.Matches, trial.Profile, trial.FinalLimit) },
				call:       func() ([]types.Candidate, error) { return e.ClassifyAndMerge(trial.Matches, trial.Profile, trial.FinalLimit) },
			},
		}

		for _, check := range checks {
			violations, callErr := check.violations()
			if callErr != nil || len(violations) == 0 {
				continue
			}
			got, err := outcome(check.call())
			if err != nil {
				return nil, err
			}
			broken, err := json.Marshal(violations)
			if err != nil {
				return nil, fmt.Errorf("failed to encode violations: %w", err)
			}
			mismatches = append(mismatches, Mismatch{
				Seed:      trial.Seed,
				Operation: check.operation,
				Left:      e.Name(),
				Right:     InvariantsBinding,
				Input:     check.input,
				LeftOut:   got,
				RightOut:  broken,
			})
		}
	}
	return mismatches, nil
}

// RunFixtures checks both engines against each fixture's expected ids and
// against each other.
func (h *Harness) RunFixtures(fixtures []Fixture) ([]Mismatch, error) {
	var mismatches []Mismatch
	for _, f := range fixtures {
		candidates, err := f.Decode()
		if err != nil {
			return nil, err
		}

		call := func(e rank.Engine) ([]types.Candidate, error) {
			if f.Operation == rank.OpFilterByTitlePrefix {
				return e.FilterByTitlePrefix(candidates, f.Prefixes, f.KeepNull)
			}
			return e.ClassifyAndMerge(candidates, f.Profile, f.FinalLimit)
		}

		input, err := json.Marshal(f)
		if err != nil {
			return nil, fmt.Errorf("fixture %s: failed to encode input: %w", f.Name, err)
		}

		m, err := h.compare(f.Operation, input, call)
		if err != nil {
			return nil, err
		}
		if m != nil {
			m.Fixture = f.Name
			mismatches = append(mismatches, *m)
		}

		expected, err := json.Marshal(f.Expected)
		if err != nil {
			return nil, fmt.Errorf("fixture %s: failed to encode expected ids: %w", f.Name, err)
		}
		for _, e := range []rank.Engine{h.Left, h.Right} {
			result, callErr := call(e)
			if callErr == nil && slices.Equal(IDs(result), f.Expected) {
				continue
			}
			got, err := outcome(result, callErr)
			if err != nil {
				return nil, err
			}
			mismatches = append(mismatches, Mismatch{
				Fixture:   f.Name,
				Operation: f.Operation,
				Left:      e.Name(),
				Right:     ExpectedBinding,
				Input:     input,
				LeftOut:   got,
				RightOut:  expected,
			})
		}
	}

	for _, mismatch := range mismatches {
		h.logMismatch(mismatch)
	}
	return mismatches, nil
}

// compare runs call on both engines and returns a mismatch when the
// canonical outputs differ.
func (h *Harness) compare(operation string, input json.RawMessage, call func(rank.Engine) ([]types.Candidate, error)) (*Mismatch, error) {
	left, err := outcome(call(h.Left))
	if err != nil {
		return nil, err
	}
	right, err := outcome(call(h.Right))
	if err != nil {
		return nil, err
	}
	if bytes.Equal(left, right) {
		return nil, nil
	}
	return &Mismatch{
		Operation: operation,
		Left:      h.Left.Name(),
		Right:     h.Right.Name(),
		Input:     input,
		LeftOut:   left,
		RightOut:  right,
	}, nil
}

func (h *Harness) logMismatch(m Mismatch) {
	h.logger().Error("parity mismatch",
		zap.Int64("seed", m.Seed),
		zap.String("fixture", m.Fixture),
		zap.String("operation", m.Operation),
		zap.String("left", m.Left),
		zap.String("right", m.Right),
		zap.ByteString("input", m.Input),
		zap.ByteString("left_output", m.LeftOut),
		zap.ByteString("right_output", m.RightOut),
	)
}

func (h *Harness) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func (h *Harness) concurrency() int {
	if h.Concurrency > 0 {
		return h.Concurrency
	}
	return runtime.GOMAXPROCS(0)
}
