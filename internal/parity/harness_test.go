package parity

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"github.com/jonathan/match-ranker/internal/rank"
	"github.com/jonathan/match-ranker/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// truncatingEngine drops the last candidate of every non-empty result.
type truncatingEngine struct {
	rank.Reference
}

func (truncatingEngine) Name() string { return "truncating" }

func (e truncatingEngine) ClassifyAndMerge(matches []types.Candidate, profile types.Profile, finalLimit int) ([]types.Candidate, error) {
	out, err := e.Reference.ClassifyAndMerge(matches, profile, finalLimit)
	if len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, err
}

// leakyEngine returns the first finalLimit matches with no filtering at all.
type leakyEngine struct {
	rank.Reference
}

func (leakyEngine) Name() string { return "leaky" }

func (leakyEngine) ClassifyAndMerge(matches []types.Candidate, _ types.Profile, finalLimit int) ([]types.Candidate, error) {
	return matches[:min(max(finalLimit, 0), len(matches))], nil
}

// reversingEngine returns the reference title filter output in reverse order.
type reversingEngine struct {
	rank.Reference
}

func (reversingEngine) Name() string { return "reversing" }

func (e reversingEngine) FilterByTitlePrefix(items []types.Candidate, prefixes []string, keepNull bool) ([]types.Candidate, error) {
	out, err := e.Reference.FilterByTitlePrefix(items, prefixes, keepNull)
	reversed := slices.Clone(out)
	slices.Reverse(reversed)
	return reversed, err
}

func TestHarness_RandomTrialsAgree(t *testing.T) {
	h := NewHarness(rank.Optimized{}, rank.Reference{}, zaptest.NewLogger(t))

	mismatches, tier2, err := h.RunRandom(context.Background(), 1, 300)
	require.NoError(t, err)
	assert.Empty(t, mismatches)
	assert.Zero(t, tier2)
}

func TestHarness_FixturesPass(t *testing.T) {
	h := NewHarness(rank.Optimized{}, rank.Reference{}, zaptest.NewLogger(t))

	mismatches, err := h.RunFixtures(Fixtures())
	require.NoError(t, err)
	assert.Empty(t, mismatches)
}

func TestHarness_FixturesAgainstEachEngine(t *testing.T) {
	for _, f := range Fixtures() {
		t.Run(f.Name, func(t *testing.T) {
			candidates, err := f.Decode()
			require.NoError(t, err)

			for _, e := range []rank.Engine{rank.Optimized{}, rank.Reference{}} {
				var got []types.Candidate
				if f.Operation == rank.OpFilterByTitlePrefix {
					got, err = e.FilterByTitlePrefix(candidates, f.Prefixes, f.KeepNull)
				} else {
					got, err = e.ClassifyAndMerge(candidates, f.Profile, f.FinalLimit)
				}
				require.NoError(t, err)
				assert.Equal(t, f.Expected, IDs(got), e.Name())
			}
		})
	}
}

func TestHarness_ReportsDivergence(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	h := NewHarness(truncatingEngine{}, rank.Reference{}, zap.New(core))

	report, err := h.Run(context.Background(), 7, 50)
	require.NoError(t, err)
	require.False(t, report.OK())
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 50, report.Trials)
	assert.Equal(t, len(Fixtures()), report.Fixtures)

	var sawTrial, sawFixture bool
	for _, m := range report.Mismatches {
		assert.Equal(t, rank.OpClassifyAndMerge, m.Operation)
		assert.Equal(t, "truncating", m.Left)
		if m.Fixture != "" {
			sawFixture = true
			continue
		}
		sawTrial = true
		assert.GreaterOrEqual(t, m.Seed, int64(7))
		assert.NotEqual(t, string(m.LeftOut), string(m.RightOut))

		var req types.RankRequest
		require.NoError(t, json.Unmarshal(m.Input, &req))
	}
	assert.True(t, sawTrial)
	assert.True(t, sawFixture)
	assert.Equal(t, len(report.Mismatches), logs.FilterMessage("parity mismatch").Len())
}

func TestHarness_SharedBugBreaksInvariants(t *testing.T) {
	h := NewHarness(truncatingEngine{}, truncatingEngine{}, nil)

	mismatches, _, err := h.RunRandom(context.Background(), 1, 60)
	require.NoError(t, err)
	require.NotEmpty(t, mismatches)
	for _, m := range mismatches {
		assert.Equal(t, InvariantsBinding, m.Right)
		assert.Equal(t, rank.OpClassifyAndMerge, m.Operation)

		var violations []string
		require.NoError(t, json.Unmarshal(m.RightOut, &violations))
		assert.NotEmpty(t, violations)
	}
}

func TestInvariants_HoldOnGeneratedTrials(t *testing.T) {
	for seed := int64(0); seed < 300; seed++ {
		trial, err := NewGenerator(seed).Trial()
		require.NoError(t, err)

		for _, e := range []rank.Engine{rank.Optimized{}, rank.Reference{}} {
			violations, err := FilterViolations(e, trial.Matches, trial.Prefixes, trial.KeepNull)
			require.NoError(t, err)
			assert.Empty(t, violations, "seed %d %s filter", seed, e.Name())

			violations, err = MergeViolations(e, trial.Matches, trial.Profile, trial.FinalLimit)
			require.NoError(t, err)
			assert.Empty(t, violations, "seed %d %s merge", seed, e.Name())
		}
	}
}

func TestGeneratedTrials_MergeProperties(t *testing.T) {
	sawZero, sawNonEmpty := false, false
	for seed := int64(0); seed < 300; seed++ {
		trial, err := NewGenerator(seed).Trial()
		require.NoError(t, err)

		out, err := rank.Reference{}.ClassifyAndMerge(trial.Matches, trial.Profile, trial.FinalLimit)
		require.NoError(t, err)

		assert.LessOrEqual(t, len(out), max(trial.FinalLimit, 0), "seed %d", seed)
		if trial.FinalLimit == 0 {
			sawZero = true
			assert.Empty(t, out, "seed %d", seed)
		}
		if len(out) > 0 {
			sawNonEmpty = true
		}

		if trial.Profile.RequirePositive {
			keys := make(map[string]bool, len(out))
			for _, c := range out {
				key := c.DedupKey()
				assert.NotEmpty(t, key, "seed %d", seed)
				assert.False(t, keys[key], "seed %d: duplicate key %q", seed, key)
				keys[key] = true
			}
		}

		filtered, err := rank.Reference{}.FilterByTitlePrefix(trial.Matches, trial.Prefixes, trial.KeepNull)
		require.NoError(t, err)
		again, err := rank.Reference{}.FilterByTitlePrefix(filtered, trial.Prefixes, trial.KeepNull)
		require.NoError(t, err)
		assert.Equal(t, IDs(filtered), IDs(again), "seed %d", seed)
	}
	assert.True(t, sawZero)
	assert.True(t, sawNonEmpty)
}

func TestMergeViolations_ReportsBrokenRules(t *testing.T) {
	var matches []types.Candidate
	require.NoError(t, json.Unmarshal([]byte(`[
		{"id": "a", "metadata": {"company": "Acme Radio"}},
		{"id": "b", "metadata": {"company": "Other", "contactId": "c1"}},
		{"id": "c", "metadata": {"company": "Acme Wines", "contactId": "c1"}},
		{"id": "d", "metadata": {"companyIndustry": "Hospitality"}}
	]`), &matches))
	profile := types.Profile{
		RequirePositive:     true,
		ExcludeTerms:        []string{"radio"},
		IncludeCompanyTerms: []string{"wines"},
	}

	violations, err := MergeViolations(rank.Reference{}, matches, profile, 3)
	require.NoError(t, err)
	assert.Empty(t, violations)

	violations, err = MergeViolations(leakyEngine{}, matches, profile, 3)
	require.NoError(t, err)
	joined := strings.Join(violations, "\n")
	assert.Contains(t, joined, `excluded candidate "a" in output`)
	assert.Contains(t, joined, `dedup key "c1" emitted twice`)
	assert.Contains(t, joined, "3 results, expected 2")

	violations, err = MergeViolations(leakyEngine{}, matches, profile, 0)
	require.NoError(t, err)
	assert.Empty(t, violations)

	violations, err = MergeViolations(leakyEngine{}, matches[1:], types.Profile{}, 2)
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestMergeViolations_TierOrder(t *testing.T) {
	var matches []types.Candidate
	require.NoError(t, json.Unmarshal([]byte(`[
		{"id": "rest", "metadata": {"company": "Other"}},
		{"id": "pos", "metadata": {"company": "Acme Wines"}}
	]`), &matches))
	profile := types.Profile{RequirePositive: true, IncludeCompanyTerms: []string{"wines"}}

	violations, err := MergeViolations(leakyEngine{}, matches, profile, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{`candidate "pos" breaks positive, aux, rest order`}, violations)
}

func TestFilterViolations_ReportsBrokenRules(t *testing.T) {
	var items []types.Candidate
	require.NoError(t, json.Unmarshal([]byte(`[
		{"id": "1", "title": "Wineries Napa"},
		{"id": "2", "title": "Coffee"},
		{"id": "3", "title": "wineries sonoma"}
	]`), &items))

	violations, err := FilterViolations(rank.Reference{}, items, []string{"wineries"}, false)
	require.NoError(t, err)
	assert.Empty(t, violations)

	violations, err = FilterViolations(reversingEngine{}, items, []string{"wineries"}, false)
	require.NoError(t, err)
	assert.Contains(t, violations, "output is not an in-order subset of the input")
	assert.Contains(t, violations, "filtering the output again changes it")

	violations, err = FilterViolations(reversingEngine{}, items, []string{"  "}, false)
	require.NoError(t, err)
	assert.Contains(t, violations, "output differs from input with no active prefixes")
}

func TestHarness_TrialMismatchesInSeedOrder(t *testing.T) {
	h := NewHarness(truncatingEngine{}, rank.Reference{}, nil)
	h.Concurrency = 4

	mismatches, _, err := h.RunRandom(context.Background(), 100, 80)
	require.NoError(t, err)
	require.NotEmpty(t, mismatches)
	for i := 1; i < len(mismatches); i++ {
		assert.LessOrEqual(t, mismatches[i-1].Seed, mismatches[i].Seed)
	}
}

func TestHarness_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := NewHarness(rank.Optimized{}, rank.Reference{}, nil)
	_, _, err := h.RunRandom(ctx, 1, 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerator_SameSeedSameTrial(t *testing.T) {
	first, err := NewGenerator(42).Trial()
	require.NoError(t, err)
	second, err := NewGenerator(42).Trial()
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestGenerator_CoversDuplicateKeys(t *testing.T) {
	duplicates := 0
	for seed := int64(0); seed < 50; seed++ {
		trial, err := NewGenerator(seed).Trial()
		require.NoError(t, err)

		seen := make(map[string]bool)
		for _, c := range trial.Matches {
			key := c.DedupKey()
			if seen[key] {
				duplicates++
			}
			seen[key] = true
		}
	}
	assert.Positive(t, duplicates)
}

func TestCanonical_NilIsEmptyList(t *testing.T) {
	data, err := Canonical(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	data, err = Canonical([]types.Candidate{{ID: "1", Metadata: types.Metadata{"b": types.ScalarValue("x"), "a": types.NullValue()}}})
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1","metadata":{"a":null,"b":"x"}}]`, string(data))
}
