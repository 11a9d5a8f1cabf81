package internal

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports dispatcher activity on a private prometheus registry.
// A nil *Metrics records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	opsApplied    *prometheus.CounterVec
	opsFailed     *prometheus.CounterVec
	batches       prometheus.Counter
	batchDuration prometheus.Histogram
	pending       prometheus.Gauge
	liveViews     prometheus.Gauge
	animStarted   prometheus.Counter
	animCancelled prometheus.Counter
}

func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		opsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_applied_total",
			Help:      "Operations applied to the view registry, by kind.",
		}, []string{"kind"}),
		opsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_failed_total",
			Help:      "Operations rejected while applying a batch, by kind and reason.",
		}, []string{"kind", "reason"}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_committed_total",
			Help:      "Batches drained and committed on the ui goroutine.",
		}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_apply_seconds",
			Help:      "Time spent applying one batch.",
			Buckets:   []float64{.0005, .001, .002, .004, .008, .016, .032, .064},
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_batches",
			Help:      "Closed batches waiting for the ui goroutine.",
		}),
		liveViews: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_views",
			Help:      "Views currently registered, roots included.",
		}),
		animStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "animations_started_total",
			Help:      "Layout and opacity animations started.",
		}),
		animCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "animations_interrupted_total",
			Help:      "Animations cancelled by a newer operation or view removal.",
		}),
	}

	m.Registry.MustRegister(
		m.opsApplied,
		m.opsFailed,
		m.batches,
		m.batchDuration,
		m.pending,
		m.liveViews,
		m.animStarted,
		m.animCancelled,
	)
	return m
}

func (m *Metrics) applied(kind OpKind) {
	if m == nil {
		return
	}
	m.opsApplied.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) failed(kind OpKind, err error) {
	if m == nil {
		return
	}
	m.opsFailed.WithLabelValues(kind.String(), Reason(err)).Inc()
}

func (m *Metrics) committed(d time.Duration, pending, live int) {
	if m == nil {
		return
	}
	m.batches.Inc()
	m.batchDuration.Observe(d.Seconds())
	m.pending.Set(float64(pending))
	m.liveViews.Set(float64(live))
}

func (m *Metrics) animationStarted() {
	if m == nil {
		return
	}
	m.animStarted.Inc()
}

func (m *Metrics) animationInterrupted() {
	if m == nil {
		return
	}
	m.animCancelled.Inc()
}

// FailedCounter returns the failure counter for kind and reason.
func (m *Metrics) FailedCounter(kind OpKind, reason string) prometheus.Counter {
	return m.opsFailed.WithLabelValues(kind.String(), reason)
}

func (m *Metrics) AppliedCounter(kind OpKind) prometheus.Counter {
	return m.opsApplied.WithLabelValues(kind.String())
}
