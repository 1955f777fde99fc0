package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/internal/routing"
)

// Metrics owns a private registry so tests can build many handlers.
type Metrics struct {
	Registry        *prometheus.Registry
	Requests        *prometheus.CounterVec
	Duration        *prometheus.HistogramVec
	Orders          *prometheus.CounterVec
	OutboxPublished *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smartbiz_http_requests_total",
			Help: "HTTP requests by route template, method and status.",
		}, []string{"route", "method", "status"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "smartbiz_http_request_duration_ms",
			Help:    "HTTP request latency in milliseconds.",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}, []string{"route", "method"}),
		Orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smartbiz_orders_total",
			Help: "Order lifecycle events and rejections.",
		}, []string{"event"}),
		OutboxPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smartbiz_outbox_published_total",
			Help: "Outbox records handed to the broker.",
		}, []string{"result"}),
	}
	m.Registry.MustRegister(
		m.Requests, m.Duration, m.Orders, m.OutboxPublished,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveOrder(event string) {
	m.Orders.WithLabelValues(event).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func withMetrics(m *Metrics, router *routing.Router, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := router.Template(r)
		if route == "" {
			route = "unmatched"
		}
		m.Requests.WithLabelValues(route, r.Method, strconv.Itoa(sw.status)).Inc()
		m.Duration.WithLabelValues(route, r.Method).Observe(float64(time.Since(start).Microseconds()) / 1000)
	})
}
