package syncer

import "github.com/prometheus/client_golang/prometheus"

type instruments struct {
	created  prometheus.Counter
	deleted  prometheus.Counter
	failures *prometheus.CounterVec
	desired  prometheus.Gauge
	existing prometheus.Gauge
	skipped  prometheus.Gauge
	lastRun  prometheus.Gauge
	lastOK   prometheus.Gauge
}

func newInstruments(promreg prometheus.Registerer) *instruments {
	m := &instruments{
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "solareyes_tests_created_total",
			Help: "Tests created in the monitoring system",
		}),
		deleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "solareyes_tests_deleted_total",
			Help: "Tests deleted from the monitoring system",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "solareyes_action_failures_total",
			Help: "Actions the monitoring system rejected",
		}, []string{"op"}),
		desired: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "solareyes_desired_nodes",
			Help: "Flagged nodes with an eligible address, last pass",
		}),
		existing: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "solareyes_existing_tests",
			Help: "Prefixed tests found in the monitoring system, last pass",
		}),
		skipped: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "solareyes_skipped_nodes",
			Help: "Flagged nodes without any eligible address, last pass",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "solareyes_last_run_time",
			Help: "When the last pass started, unix time",
		}),
		lastOK: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "solareyes_last_run_ok",
			Help: "Whether the last pass completed with no failures",
		}),
	}

	promreg.MustRegister(m.created, m.deleted, m.failures,
		m.desired, m.existing, m.skipped, m.lastRun, m.lastOK)

	return m
}
