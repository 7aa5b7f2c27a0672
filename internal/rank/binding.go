package rank

import (
	"fmt"
	"sync"

	"github.com/jonathan/match-ranker/internal/types"
	"go.uber.org/zap"
)

// Option configures an engine returned by New.
type Option func(*options)

type options struct {
	logger  *zap.Logger
	metrics *Metrics
}

// WithLogger sets the logger used to report a failing binding.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics sets the counters updated on every call.
func WithMetrics(metrics *Metrics) Option {
	return func(o *options) { o.metrics = metrics }
}

// New returns the engine for a binding name. It is meant to be called once at
// startup; callers keep the returned Engine for the lifetime of the process.
// The optimized binding is wrapped so that a failing call is served by the
// reference binding instead.
func New(binding string, opts ...Option) (Engine, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	switch binding {
	case BindingReference:
		return &measured{engine: Reference{}, metrics: o.metrics}, nil
	case BindingOptimized:
		return NewFallback(Optimized{}, Reference{}, o.logger, o.metrics), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBinding, binding)
	}
}

// measured counts calls on an engine that has no fallback.
type measured struct {
	engine  Engine
	metrics *Metrics
}

func (m *measured) Name() string { return m.engine.Name() }

func (m *measured) FilterByTitlePrefix(items []types.Candidate, prefixes []string, keepNullTitles bool) ([]types.Candidate, error) {
	m.metrics.observeCall(m.engine.Name(), OpFilterByTitlePrefix)
	return m.engine.FilterByTitlePrefix(items, prefixes, keepNullTitles)
}

func (m *measured) ClassifyAndMerge(matches []types.Candidate, profile types.Profile, finalLimit int) ([]types.Candidate, error) {
	m.metrics.observeCall(m.engine.Name(), OpClassifyAndMerge)
	return m.engine.ClassifyAndMerge(matches, profile, finalLimit)
}

// Fallback serves calls from a primary engine and redirects any failing call,
// in full, to a secondary engine. A call fails when the primary returns an
// error, panics, or returns a result that breaks the output contract.
// Only the first failure is logged; every failure is counted.
type Fallback struct {
	primary   Engine
	secondary Engine
	logger    *zap.Logger
	metrics   *Metrics
	logOnce   sync.Once
}

// NewFallback wraps primary with secondary as its fallback.
func NewFallback(primary, secondary Engine, logger *zap.Logger, metrics *Metrics) *Fallback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fallback{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
		metrics:   metrics,
	}
}

// Name implements Engine.
func (f *Fallback) Name() string { return f.primary.Name() }

// FilterByTitlePrefix implements Engine.
func (f *Fallback) FilterByTitlePrefix(items []types.Candidate, prefixes []string, keepNullTitles bool) ([]types.Candidate, error) {
	result, err := guard(func() ([]types.Candidate, error) {
		return f.primary.FilterByTitlePrefix(items, prefixes, keepNullTitles)
	})
	if err == nil {
		err = checkFilterResult(items, result)
	}
	if err == nil {
		f.metrics.observeCall(f.primary.Name(), OpFilterByTitlePrefix)
		return result, nil
	}

	f.fail(OpFilterByTitlePrefix, err)
	f.metrics.observeCall(f.secondary.Name(), OpFilterByTitlePrefix)
	return f.secondary.FilterByTitlePrefix(items, prefixes, keepNullTitles)
}

// ClassifyAndMerge implements Engine.
func (f *Fallback) ClassifyAndMerge(matches []types.Candidate, profile types.Profile, finalLimit int) ([]types.Candidate, error) {
	result, err := guard(func() ([]types.Candidate, error) {
		return f.primary.ClassifyAndMerge(matches, profile, finalLimit)
	})
	if err == nil {
		err = checkMergeResult(result, finalLimit)
	}
	if err == nil {
		f.metrics.observeCall(f.primary.Name(), OpClassifyAndMerge)
		return result, nil
	}

	f.fail(OpClassifyAndMerge, err)
	f.metrics.observeCall(f.secondary.Name(), OpClassifyAndMerge)
	return f.secondary.ClassifyAndMerge(matches, profile, finalLimit)
}

func (f *Fallback) fail(operation string, cause error) {
	f.metrics.observeFallback(operation)
	f.logOnce.Do(func() {
		err := &BindingError{Binding: f.primary.Name(), Operation: operation, Cause: cause}
		f.logger.Warn("binding failed, serving from fallback; further failures are not logged",
			zap.String("fallback", f.secondary.Name()),
			zap.Error(err))
	})
}

// guard converts a panic in call into an error.
func guard(call func() ([]types.Candidate, error)) (result []types.Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return call()
}

func checkFilterResult(items, result []types.Candidate) error {
	if result == nil && items != nil {
		return fmt.Errorf("%w: nil result for non-nil items", ErrContractViolation)
	}
	if len(result) > len(items) {
		return fmt.Errorf("%w: %d items returned for %d inputs", ErrContractViolation, len(result), len(items))
	}
	return nil
}

func checkMergeResult(result []types.Candidate, finalLimit int) error {
	if result == nil {
		return fmt.Errorf("%w: nil result", ErrContractViolation)
	}
	if len(result) > max(finalLimit, 0) {
		return fmt.Errorf("%w: %d entries returned for limit %d", ErrContractViolation, len(result), finalLimit)
	}
	return nil
}
