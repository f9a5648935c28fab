// Package metrics exposes Prometheus counters for frame decoding,
// capture and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/llehouerou/go-bfi"
)

// Namespace prefixes every metric name.
const Namespace = "bfi"

// Metrics holds the collectors of one process. All methods are safe on a
// nil *Metrics, which records nothing.
type Metrics struct {
	registry *prometheus.Registry

	FramesDecoded   prometheus.Counter
	FramesRejected  *prometheus.CounterVec
	PacketsSkipped  prometheus.Counter
	DecodeDuration  prometheus.Histogram
	BatchesWritten  *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPUploadBytes prometheus.Histogram
}

// New registers a fresh set of collectors, plus the Go runtime and
// process collectors, on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{registry: reg}

	m.FramesDecoded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "decode",
		Name:      "frames_total",
		Help:      "Number of beamforming reports decoded",
	})

	m.FramesRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "decode",
		Name:      "rejected_total",
		Help:      "Number of beamforming reports that failed to decode",
	}, []string{"kind"})

	m.PacketsSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "capture",
		Name:      "skipped_packets_total",
		Help:      "Number of captured packets that were not HE beamforming reports",
	})

	m.DecodeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: "decode",
		Name:      "duration_seconds",
		Help:      "Time spent decoding one report",
		Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 8),
	})

	m.BatchesWritten = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "store",
		Name:      "batches_total",
		Help:      "Number of frame batches written",
	}, []string{"format"})

	m.HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Number of API requests",
	}, []string{"route", "code"})

	m.HTTPUploadBytes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: "http",
		Name:      "capture_upload_bytes",
		Help:      "Size of uploaded capture files",
		Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
	})

	reg.MustRegister(
		m.FramesDecoded,
		m.FramesRejected,
		m.PacketsSkipped,
		m.DecodeDuration,
		m.BatchesWritten,
		m.HTTPRequests,
		m.HTTPUploadBytes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveDecode records the outcome of one decode that took d.
func (m *Metrics) ObserveDecode(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.DecodeDuration.Observe(d.Seconds())
	if err != nil {
		m.FramesRejected.WithLabelValues(bfi.Kind(err).Name()).Inc()
		return
	}
	m.FramesDecoded.Inc()
}

// AddSkipped records n packets that carried no beamforming report.
func (m *Metrics) AddSkipped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.PacketsSkipped.Add(float64(n))
}

// BatchWritten records one batch flushed in format.
func (m *Metrics) BatchWritten(format string) {
	if m == nil {
		return
	}
	m.BatchesWritten.WithLabelValues(format).Inc()
}

// ObserveRequest records one API response.
func (m *Metrics) ObserveRequest(route string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// ObserveUpload records the size of an uploaded capture.
func (m *Metrics) ObserveUpload(n int64) {
	if m == nil {
		return
	}
	m.HTTPUploadBytes.Observe(float64(n))
}
