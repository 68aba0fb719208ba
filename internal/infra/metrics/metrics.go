package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics captures request and tenant directory metrics for the portal API.
type Metrics interface {
	ObserveRequest(method, route, status string, durationSeconds float64)
	IncTenantQuery(decision, outcome string)
	ObserveTenantsReturned(count int)
}

// Noop implements Metrics without emitting anything.
type Noop struct{}

func (Noop) ObserveRequest(string, string, string, float64) {}
func (Noop) IncTenantQuery(string, string)                  {}
func (Noop) ObserveTenantsReturned(int)                     {}

// Prom implements Metrics backed by Prometheus collectors.
type Prom struct {
	requests        *prometheus.CounterVec
	latency         *prometheus.HistogramVec
	tenantQueries   *prometheus.CounterVec
	tenantsReturned prometheus.Histogram
}

// NewProm registers the collectors on reg, or on the default registerer when
// reg is nil. Collectors already registered under the same names are reused.
func NewProm(namespace string, reg prometheus.Registerer) *Prom {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	p := &Prom{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method/route/status",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method/route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		tenantQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tenant_queries_total",
			Help:      "Tenant directory queries by access decision and outcome",
		}, []string{"decision", "outcome"}),
		tenantsReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tenant_records_returned",
			Help:      "Tenant records returned per directory query",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
		}),
	}
	p.requests = register(reg, p.requests)
	p.latency = register(reg, p.latency)
	p.tenantQueries = register(reg, p.tenantQueries)
	p.tenantsReturned = register(reg, p.tenantsReturned)
	return p
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (p *Prom) ObserveRequest(method, route, status string, durationSeconds float64) {
	p.requests.WithLabelValues(method, route, status).Inc()
	p.latency.WithLabelValues(method, route).Observe(durationSeconds)
}

func (p *Prom) IncTenantQuery(decision, outcome string) {
	p.tenantQueries.WithLabelValues(decision, outcome).Inc()
}

func (p *Prom) ObserveTenantsReturned(count int) {
	p.tenantsReturned.Observe(float64(count))
}

// Handler returns an HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
