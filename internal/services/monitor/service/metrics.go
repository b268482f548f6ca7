package service

import (
	"rollcall/internal/services/monitor/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the loop's prometheus collectors. A nil *Metrics records nothing
type Metrics struct {
	ticks          *prometheus.CounterVec
	appended       prometheus.Counter
	deferred       prometheus.Counter
	lookupFailures prometheus.Counter
	ledger         prometheus.Gauge
	active         prometheus.Gauge
	duration       prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rollcall", Subsystem: "monitor", Name: "ticks_total",
			Help: "Reconciliation ticks by result.",
		}, []string{"result"}),
		appended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rollcall", Subsystem: "monitor", Name: "rows_appended_total",
			Help: "Snapshot rows appended to the sink.",
		}),
		deferred: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rollcall", Subsystem: "monitor", Name: "rows_deferred_total",
			Help: "New users left for a later tick after a sink failure.",
		}),
		lookupFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rollcall", Subsystem: "monitor", Name: "lookup_failures_total",
			Help: "Address lookups that failed and were treated as absent.",
		}),
		ledger: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rollcall", Subsystem: "monitor", Name: "ledger_size",
			Help: "Distinct identities already emitted.",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rollcall", Subsystem: "monitor", Name: "active_users",
			Help: "Users reported active by the last successful fetch.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rollcall", Subsystem: "monitor", Name: "tick_duration_seconds",
			Help:    "Wall time of a reconciliation tick.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.ticks, m.appended, m.deferred, m.lookupFailures, m.ledger, m.active, m.duration)
	}
	return m
}

func (m *Metrics) observe(rep domain.TickReport, ledgerLen int) {
	if m == nil {
		return
	}
	result := "ok"
	if rep.Failed() {
		result = "failed"
	}
	m.ticks.WithLabelValues(result).Inc()
	m.appended.Add(float64(rep.Emitted))
	m.deferred.Add(float64(rep.Deferred))
	m.lookupFailures.Add(float64(rep.LookupFailures))
	m.ledger.Set(float64(ledgerLen))
	m.duration.Observe(rep.Duration.Seconds())
}

func (m *Metrics) ledgerSize(n int) {
	if m == nil {
		return
	}
	m.ledger.Set(float64(n))
}

func (m *Metrics) activeUsers(n int) {
	if m == nil {
		return
	}
	m.active.Set(float64(n))
}
