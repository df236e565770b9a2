package cloudmetrics

import "github.com/prometheus/client_golang/prometheus"

// metrics are the accounting series pushed to the hosted control plane.
// They live on a private registry so the public /metrics endpoint never
// exposes them.
type metrics struct {
	analysisRuns     *prometheus.CounterVec
	reportsStored    prometheus.Counter
	creditsConsumed  prometheus.Counter
	domainsTotal     prometheus.Gauge
	memorySysBytes   prometheus.Gauge
}

func newMetrics(registry *prometheus.Registry) *metrics {
	m := &metrics{
		analysisRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "traffictuner_analysis_runs_total",
			Help: "Completed analysis runs by terminal state.",
		}, []string{"instance_id", "state"}),
		reportsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "traffictuner_reports_stored_total",
			Help: "Reports persisted by the report store.",
		}),
		creditsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "traffictuner_credits_consumed_total",
			Help: "Credits debited for analysis runs.",
		}),
		domainsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "traffictuner_domains_total",
			Help: "Registered domains.",
		}),
		memorySysBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "traffictuner_memory_sys_bytes",
			Help: "Memory obtained from the OS.",
		}),
	}

	registry.MustRegister(
		m.analysisRuns,
		m.reportsStored,
		m.creditsConsumed,
		m.domainsTotal,
		m.memorySysBytes,
	)
	return m
}
