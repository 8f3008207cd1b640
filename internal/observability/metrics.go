package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds the Prometheus instruments for the service.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
	slaBreaches     prometheus.Counter
}

// NewMetrics registers the service instruments on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grievance",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by path, method and status",
		}, []string{"path", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "grievance",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grievance",
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "Error responses by path, method and error code",
		}, []string{"path", "method", "code"}),
		slaBreaches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "grievance",
			Subsystem: "tickets",
			Name:      "sla_breaches_observed_total",
			Help:      "Breached tickets observed at read time",
		}),
	}
	registry.MustRegister(m.requestsTotal, m.requestDuration, m.errorsTotal, m.slaBreaches)
	return m
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(path, method, code).Inc()
}

// RecordSLABreachObserved counts a breached ticket seen by a reader. Breach
// detection is lazy; this fires on read, not on a timer.
func (m *Metrics) RecordSLABreachObserved() {
	if m == nil {
		return
	}
	m.slaBreaches.Inc()
}

// Serve exposes /metrics on its own listener until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *zap.Logger) {
	if m == nil || addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	go func() {
		logger.Info("metrics listener started", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics listener failed", zap.Error(err))
		}
	}()
}
