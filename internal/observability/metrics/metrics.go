package metrics

import "github.com/prometheus/client_golang/prometheus"

// PipelineMetrics exposes counters/histograms for the capture pipeline.
type PipelineMetrics struct {
	capturesTotal    *prometheus.CounterVec
	piiDetectedTotal *prometheus.CounterVec
	purgedTotal      *prometheus.CounterVec
	blockedTotal     *prometheus.CounterVec
	captureLatency   *prometheus.HistogramVec
}

func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		capturesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hearth",
			Subsystem: "pipeline",
			Name:      "captures_total",
			Help:      "Total interaction captures",
		}, []string{"source", "status"}),
		piiDetectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hearth",
			Subsystem: "pipeline",
			Name:      "pii_detected_total",
			Help:      "Total PII spans removed during sanitization",
		}, []string{"category"}),
		purgedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hearth",
			Subsystem: "pipeline",
			Name:      "records_purged_total",
			Help:      "Total records removed by retention enforcement",
		}, []string{"trigger"}),
		blockedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hearth",
			Subsystem: "pipeline",
			Name:      "safety_blocked_total",
			Help:      "Total captures rejected by the content-safety gate",
		}, []string{"rule"}),
		captureLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hearth",
			Subsystem: "pipeline",
			Name:      "capture_latency_seconds",
			Help:      "Latency of the full capture pipeline",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.capturesTotal, m.piiDetectedTotal, m.purgedTotal, m.blockedTotal, m.captureLatency)
	return m
}

func (m *PipelineMetrics) ObserveCapture(source, status string) {
	if m == nil {
		return
	}
	m.capturesTotal.WithLabelValues(source, status).Inc()
}

func (m *PipelineMetrics) ObservePIIDetected(category string) {
	if m == nil {
		return
	}
	m.piiDetectedTotal.WithLabelValues(category).Inc()
}

func (m *PipelineMetrics) ObservePurged(trigger string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.purgedTotal.WithLabelValues(trigger).Add(float64(count))
}

func (m *PipelineMetrics) ObserveBlocked(rule string) {
	if m == nil {
		return
	}
	m.blockedTotal.WithLabelValues(rule).Inc()
}

func (m *PipelineMetrics) ObserveCaptureLatency(source string, seconds float64) {
	if m == nil {
		return
	}
	m.captureLatency.WithLabelValues(source).Observe(seconds)
}
