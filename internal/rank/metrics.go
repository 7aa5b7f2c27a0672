package rank

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts calls and fallbacks per binding. Counters never influence results.
type Metrics struct {
	calls     *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
}

// NewMetrics creates the binding counters and registers them with reg when non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "match_ranker_calls_total",
				Help: "Total number of engine calls by serving binding and operation",
			},
			[]string{"binding", "operation"},
		),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "match_ranker_binding_fallbacks_total",
				Help: "Total number of calls redirected from the optimized binding to the reference binding",
			},
			[]string{"operation"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.calls, m.fallbacks)
	}
	return m
}

func (m *Metrics) observeCall(binding, operation string) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(binding, operation).Inc()
}

func (m *Metrics) observeFallback(operation string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(operation).Inc()
}
