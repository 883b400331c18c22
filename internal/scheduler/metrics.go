package scheduler

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	submitted *prometheus.CounterVec
	completed *prometheus.CounterVec
	failed    *prometheus.CounterVec
	discarded *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	queued    prometheus.Gauge
}

func newMetrics() *metrics {
	return &metrics{
		submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxplanet",
			Subsystem: "scheduler",
			Name:      "jobs_submitted_total",
			Help:      "Jobs handed to the worker pool.",
		}, []string{"kind"}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxplanet",
			Subsystem: "scheduler",
			Name:      "jobs_completed_total",
			Help:      "Jobs that returned normally.",
		}, []string{"kind"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxplanet",
			Subsystem: "scheduler",
			Name:      "jobs_failed_total",
			Help:      "Jobs that panicked.",
		}, []string{"kind"}),
		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxplanet",
			Subsystem: "scheduler",
			Name:      "jobs_discarded_total",
			Help:      "Jobs whose result was dropped because the target changed meanwhile.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "voxplanet",
			Subsystem: "scheduler",
			Name:      "job_duration_seconds",
			Help:      "Wall time spent running a job.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"kind"}),
		queued: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxplanet",
			Subsystem: "scheduler",
			Name:      "jobs_queued",
			Help:      "Jobs waiting for a worker.",
		}),
	}
}

func (m *metrics) register(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.submitted, m.completed, m.failed, m.discarded, m.duration, m.queued} {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}
