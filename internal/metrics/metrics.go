package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus collectors. Defined in a standalone package to avoid
// import cycles between the HTTP layer and the storage adapters.

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by route, method and status code",
	}, []string{"route", "method", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_ms",
		Help:    "HTTP request latency in milliseconds",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"route", "method"})

	ObjectStoreOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "objstore_operations_total",
		Help: "Object store operations by op and outcome",
	}, []string{"op", "outcome"})

	RateLimited = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_limited_total",
		Help: "Requests rejected by the rate limiter, by scope",
	}, []string{"scope"})

	LeadsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "leads_created_total",
		Help: "Leads accepted through the public intake endpoint",
	})
)

// Register registers all collectors on reg (or the default registerer
// if nil). Double registration is tolerated so tests can call it.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{
		HTTPRequests, HTTPDuration, ObjectStoreOps, RateLimited, LeadsCreated,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
