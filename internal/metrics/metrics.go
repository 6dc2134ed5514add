package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes application metrics that are safe to scrape via Prometheus.
type Metrics struct {
	registry            *prometheus.Registry
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	collectionFetches   *prometheus.CounterVec
	collectionDuration  *prometheus.HistogramVec
	skippedPoints       *prometheus.CounterVec
	tileProbes          *prometheus.CounterVec
	tileMode            *prometheus.GaugeVec
	networkOnline       prometheus.Gauge
}

// New creates a fresh Metrics registry with HTTP, backend and tile metrics registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "iaas_console",
		Name:      "http_requests_total",
		Help:      "Count of HTTP requests processed by console-go",
	}, []string{"method", "path", "status"})

	httpRequestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "iaas_console",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests served by console-go",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	collectionFetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "iaas_console",
		Name:      "collection_fetches_total",
		Help:      "Infrastructure collection fetches by collection and outcome",
	}, []string{"collection", "outcome"})

	collectionDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "iaas_console",
		Name:      "collection_fetch_duration_seconds",
		Help:      "Duration of infrastructure collection fetches",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"collection"})

	skippedPoints := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "iaas_console",
		Name:      "unplottable_points_total",
		Help:      "Points left off the map because of missing or non-finite coordinates",
	}, []string{"kind"})

	tileProbes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "iaas_console",
		Name:      "offline_tile_probes_total",
		Help:      "Offline tile store probes by result",
	}, []string{"result"})

	tileMode := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "iaas_console",
		Name:      "tile_mode",
		Help:      "1 for the currently selected tile mode, 0 otherwise",
	}, []string{"mode"})

	networkOnline := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "iaas_console",
		Name:      "network_online",
		Help:      "Last known connectivity state (1 online, 0 offline)",
	})

	registry.MustRegister(
		httpRequests,
		httpRequestDuration,
		collectionFetches,
		collectionDuration,
		skippedPoints,
		tileProbes,
		tileMode,
		networkOnline,
	)

	return &Metrics{
		registry:            registry,
		httpRequests:        httpRequests,
		httpRequestDuration: httpRequestDuration,
		collectionFetches:   collectionFetches,
		collectionDuration:  collectionDuration,
		skippedPoints:       skippedPoints,
		tileProbes:          tileProbes,
		tileMode:            tileMode,
		networkOnline:       networkOnline,
	}
}

// ObserveHTTPRequest records a single HTTP request/response cycle.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	m.httpRequests.With(labels).Inc()
	m.httpRequestDuration.With(labels).Observe(duration.Seconds())
}

// ObserveCollectionFetch records one backend collection fetch.
func (m *Metrics) ObserveCollectionFetch(collection string, ok bool, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.collectionFetches.WithLabelValues(collection, outcome).Inc()
	m.collectionDuration.WithLabelValues(collection).Observe(duration.Seconds())
}

// AddSkippedPoints counts points excluded from the map.
func (m *Metrics) AddSkippedPoints(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.skippedPoints.WithLabelValues(kind).Add(float64(n))
}

// ObserveTileProbe records an offline tile probe outcome.
func (m *Metrics) ObserveTileProbe(available bool) {
	if m == nil {
		return
	}
	result := "available"
	if !available {
		result = "unavailable"
	}
	m.tileProbes.WithLabelValues(result).Inc()
}

// SetTileMode marks mode as the active tile mode.
func (m *Metrics) SetTileMode(mode string) {
	if m == nil {
		return
	}
	for _, candidate := range []string{"online", "offline"} {
		v := 0.0
		if candidate == mode {
			v = 1
		}
		m.tileMode.WithLabelValues(candidate).Set(v)
	}
}

// SetNetworkOnline records the connectivity state.
func (m *Metrics) SetNetworkOnline(online bool) {
	if m == nil {
		return
	}
	if online {
		m.networkOnline.Set(1)
		return
	}
	m.networkOnline.Set(0)
}

// Handler exposes the Prometheus registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics unavailable"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
