package observability

import (
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OtherLocation is the label for cities outside the tracked allow-list.
const OtherLocation = "other"

var registry = prometheus.NewRegistry()

var factory = promauto.With(registry)

// API surface.
var (
	HTTPRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "httpRequestsTotal",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "statusCode"})

	HTTPRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "httpRequestDurationSeconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	HTTPRequestsInFlight = factory.NewGauge(prometheus.GaugeOpts{
		Name: "httpRequestsInFlight",
		Help: "Number of HTTP requests currently being served",
	})
)

// OpenWeatherMap. Calls are labelled by status class, failures by client.ErrorCategory.
var (
	WeatherAPICallsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "weatherApiCallsTotal",
		Help: "Total number of OpenWeatherMap API calls",
	}, []string{"status"})

	WeatherAPIDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "weatherApiDurationSeconds",
		Help:    "OpenWeatherMap API latency in seconds",
		Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"status"})

	WeatherAPIErrorsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "weatherApiErrorsTotal",
		Help: "OpenWeatherMap failures by category",
	}, []string{"category"})

	WeatherQueriesByLocationTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "weatherQueriesByLocationTotal",
		Help: "Successful weather fetches by city (allow-list, others counted as other)",
	}, []string{"location"})
)

// weather_logs store.
var (
	StoreOperationsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "storeOperationsTotal",
		Help: "Total number of store operations by op and outcome",
	}, []string{"op", "status"})

	StoreOperationDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storeOperationDurationSeconds",
		Help:    "Store operation latency in seconds",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"op"})

	ObservationsRecordedTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "observationsRecordedTotal",
		Help: "Total number of weather observations inserted",
	})
)

// Server-rendered page.
var PageRendersTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Name: "pageRendersTotal",
	Help: "Rendered search pages by visible panel",
}, []string{"panel"})

func init() {
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

type locationSet struct {
	mu    sync.RWMutex
	names map[string]struct{}
}

var tracked locationSet

// SetTrackedLocations replaces the city allow-list used for location labels.
func SetTrackedLocations(locations []string) {
	names := make(map[string]struct{}, len(locations))
	for _, loc := range locations {
		if key := locationKey(loc); key != "" {
			names[key] = struct{}{}
		}
	}
	tracked.mu.Lock()
	tracked.names = names
	tracked.mu.Unlock()
}

// MetricLocationLabel returns the label a city is counted under.
func MetricLocationLabel(location string) string {
	key := locationKey(location)
	tracked.mu.RLock()
	_, ok := tracked.names[key]
	tracked.mu.RUnlock()
	if !ok {
		return OtherLocation
	}
	return key
}

// RecordWeatherQuery counts one successful fetch for city.
func RecordWeatherQuery(city string) {
	WeatherQueriesByLocationTotal.WithLabelValues(MetricLocationLabel(city)).Inc()
}

// ObserveStoreOperation records the outcome and latency of one store call.
func ObserveStoreOperation(op string, seconds float64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	StoreOperationsTotal.WithLabelValues(op, status).Inc()
	StoreOperationDuration.WithLabelValues(op).Observe(seconds)
}

func locationKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MetricsHandler serves the application registry, runtime collectors included.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
