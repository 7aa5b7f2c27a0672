package rank

import (
	"errors"
	"testing"

	"github.com/jonathan/match-ranker/internal/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// brokenEngine fails every call in the configured way.
type brokenEngine struct {
	mode string
}

func (b brokenEngine) Name() string { return "broken" }

func (b brokenEngine) result(n int) ([]types.Candidate, error) {
	switch b.mode {
	case "panic":
		panic("automaton exploded")
	case "error":
		return nil, errors.New("unavailable")
	case "nil":
		return nil, nil
	default:
		out := make([]types.Candidate, n+1)
		return out, nil
	}
}

func (b brokenEngine) FilterByTitlePrefix(items []types.Candidate, _ []string, _ bool) ([]types.Candidate, error) {
	return b.result(len(items))
}

func (b brokenEngine) ClassifyAndMerge(_ []types.Candidate, _ types.Profile, finalLimit int) ([]types.Candidate, error) {
	return b.result(finalLimit)
}

func sampleMatches() []types.Candidate {
	return []types.Candidate{
		{ID: "1", Metadata: types.Metadata{"company": types.ScalarValue("Acme")}},
		{ID: "2", Metadata: types.Metadata{"company": types.ScalarValue("Radio Co")}},
		{ID: "3", Metadata: types.Metadata{"title": types.ScalarValue("Winery owner")}},
	}
}

func TestNew_Bindings(t *testing.T) {
	ref, err := New(BindingReference)
	require.NoError(t, err)
	assert.Equal(t, BindingReference, ref.Name())

	opt, err := New(BindingOptimized)
	require.NoError(t, err)
	assert.Equal(t, BindingOptimized, opt.Name())

	_, err = New("native")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownBinding)
}

func TestBindings_AgreeOnSample(t *testing.T) {
	profile := types.Profile{
		RequirePositive:     true,
		ExcludeTerms:        []string{"radio"},
		IncludeCompanyTerms: []string{"acme"},
	}

	ref, err := Reference{}.ClassifyAndMerge(sampleMatches(), profile, 5)
	require.NoError(t, err)
	opt, err := Optimized{}.ClassifyAndMerge(sampleMatches(), profile, 5)
	require.NoError(t, err)
	assert.Equal(t, ref, opt)

	refTitles, err := Reference{}.FilterByTitlePrefix(sampleMatches(), []string{"winery"}, false)
	require.NoError(t, err)
	optTitles, err := Optimized{}.FilterByTitlePrefix(sampleMatches(), []string{"winery"}, false)
	require.NoError(t, err)
	assert.Equal(t, refTitles, optTitles)
}

func TestFallback_RedirectsFailingCalls(t *testing.T) {
	profile := types.Profile{ExcludeTerms: []string{"radio"}}
	expected, err := Reference{}.ClassifyAndMerge(sampleMatches(), profile, 5)
	require.NoError(t, err)

	for _, mode := range []string{"panic", "error", "nil", "oversized"} {
		t.Run(mode, func(t *testing.T) {
			f := NewFallback(brokenEngine{mode: mode}, Reference{}, nil, nil)

			got, err := f.ClassifyAndMerge(sampleMatches(), profile, 5)
			require.NoError(t, err)
			assert.Equal(t, expected, got)

			titles, err := f.FilterByTitlePrefix(sampleMatches(), []string{"winery"}, false)
			require.NoError(t, err)
			assert.Equal(t, []string{"3"}, []string{titles[0].ID})
		})
	}
}

func TestFallback_LogsOncePerProcess(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	f := NewFallback(brokenEngine{mode: "error"}, Reference{}, zap.New(core), metrics)

	for i := 0; i < 5; i++ {
		_, err := f.ClassifyAndMerge(sampleMatches(), types.Profile{}, 2)
		require.NoError(t, err)
	}
	_, err := f.FilterByTitlePrefix(sampleMatches(), []string{"a"}, true)
	require.NoError(t, err)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "reference", entry.ContextMap()["fallback"])
	assert.Contains(t, entry.ContextMap()["error"], "binding broken failed in classify_and_merge")

	assert.Equal(t, 5.0, testutil.ToFloat64(metrics.fallbacks.WithLabelValues(OpClassifyAndMerge)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.fallbacks.WithLabelValues(OpFilterByTitlePrefix)))
	assert.Equal(t, 5.0, testutil.ToFloat64(metrics.calls.WithLabelValues(BindingReference, OpClassifyAndMerge)))
}

func TestFallback_HealthyPrimaryIsNotLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	metrics := NewMetrics(nil)
	f := NewFallback(Optimized{}, Reference{}, zap.New(core), metrics)

	_, err := f.ClassifyAndMerge(sampleMatches(), types.Profile{RequirePositive: true}, 3)
	require.NoError(t, err)

	assert.Zero(t, logs.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.calls.WithLabelValues(BindingOptimized, OpClassifyAndMerge)))
	assert.Zero(t, testutil.ToFloat64(metrics.fallbacks.WithLabelValues(OpClassifyAndMerge)))
}

func TestBindingError_Unwrap(t *testing.T) {
	err := &BindingError{Binding: "optimized", Operation: OpClassifyAndMerge, Cause: ErrContractViolation}
	assert.ErrorIs(t, err, ErrContractViolation)
	assert.Equal(t, "binding optimized failed in classify_and_merge: binding contract violation", err.Error())
}
