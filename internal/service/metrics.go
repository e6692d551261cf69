package service

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts history feed activity. A nil *Metrics records nothing.
type Metrics struct {
	snapshots      prometheus.Counter
	feedErrors     prometheus.Counter
	appendFailures prometheus.Counter
}

// NewMetrics registers the orchestrator collectors on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		snapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "history_feed_snapshots_total",
			Help: "History snapshots applied to the orchestrator state.",
		}),
		feedErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "history_feed_errors_total",
			Help: "History feed failures reported while the feed re-opens.",
		}),
		appendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "history_append_failures_total",
			Help: "Translations that could not be written to history.",
		}),
	}
	for _, c := range []prometheus.Collector{m.snapshots, m.feedErrors, m.appendFailures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) snapshot() {
	if m != nil {
		m.snapshots.Inc()
	}
}

func (m *Metrics) feedError() {
	if m != nil {
		m.feedErrors.Inc()
	}
}

func (m *Metrics) appendFailed() {
	if m != nil {
		m.appendFailures.Inc()
	}
}
