package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "shoal"

// Metrics exposes per-population counters and gauges to Prometheus.
// A nil *Metrics ignores every call.
type Metrics struct {
	tickSeconds      *prometheus.HistogramVec
	ticks            *prometheus.CounterVec
	dispatchFailures *prometheus.CounterVec
	agents           *prometheus.GaugeVec
	meanSpeed        *prometheus.GaugeVec
	polarization     *prometheus.GaugeVec
	outOfBounds      *prometheus.GaugeVec
	deviceBytes      prometheus.Gauge
}

// NewMetrics registers the simulation metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		tickSeconds: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "tick_seconds",
				Help:      "Dispatch-to-download latency per population tick",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
			},
			[]string{"population"},
		),
		ticks: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "ticks_total",
				Help:      "Completed ticks by population",
			},
			[]string{"population"},
		),
		dispatchFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "dispatch_failures_total",
				Help:      "Failed ticks by population",
			},
			[]string{"population"},
		),
		agents: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "agents",
				Help:      "Agents in the population buffer, 0 when inactive",
			},
			[]string{"population"},
		),
		meanSpeed: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "mean_speed",
				Help:      "Mean agent speed at the last stats window",
			},
			[]string{"population"},
		),
		polarization: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "polarization",
				Help:      "Length of the mean heading at the last stats window",
			},
			[]string{"population"},
		),
		outOfBounds: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "out_of_bounds",
				Help:      "Agents outside their legal region at the last stats window",
			},
			[]string{"population"},
		),
		deviceBytes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "device_allocated_bytes",
			Help:      "Bytes reserved by live population buffers",
		}),
	}
}

// ObserveTick records a completed tick and its latency.
func (m *Metrics) ObserveTick(population string, d time.Duration) {
	if m == nil {
		return
	}
	m.ticks.WithLabelValues(population).Inc()
	m.tickSeconds.WithLabelValues(population).Observe(d.Seconds())
}

// ObserveFailure records a failed tick.
func (m *Metrics) ObserveFailure(population string) {
	if m == nil {
		return
	}
	m.dispatchFailures.WithLabelValues(population).Inc()
}

// ObserveStats updates the flock gauges from a stats window.
func (m *Metrics) ObserveStats(s WindowStats) {
	if m == nil {
		return
	}
	m.agents.WithLabelValues(s.Population).Set(float64(s.Count))
	m.meanSpeed.WithLabelValues(s.Population).Set(s.SpeedMean)
	m.polarization.WithLabelValues(s.Population).Set(s.Polarization)
	m.outOfBounds.WithLabelValues(s.Population).Set(float64(s.OutOfBounds))
}

// SetDeviceBytes records the device allocation.
func (m *Metrics) SetDeviceBytes(b int64) {
	if m == nil {
		return
	}
	m.deviceBytes.Set(float64(b))
}

// NewMetricsServer serves the metrics gathered by g on /metrics.
func NewMetricsServer(addr string, g prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
}
