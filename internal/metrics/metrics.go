// Package metrics exposes Prometheus counters for the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestsTotal counts HTTP requests by method, route, and status.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dtxent_http_requests_total",
		Help: "HTTP requests served.",
	}, []string{"method", "route", "status"})

	// FeedSnapshots counts remote feed snapshots by outcome.
	FeedSnapshots = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dtxent_feed_snapshots_total",
		Help: "Remote event feed snapshots received.",
	}, []string{"outcome"})

	// TicketingLookups counts ticketing lookups by cache outcome.
	TicketingLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dtxent_ticketing_lookups_total",
		Help: "Ticketing API lookups.",
	}, []string{"outcome"})

	// MutationsTotal counts admin mutations by operation and outcome.
	MutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dtxent_admin_mutations_total",
		Help: "Admin mutations applied.",
	}, []string{"operation", "outcome"})
)

// Handler serves the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
