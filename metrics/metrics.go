// Package metrics exposes the node's Prometheus instrumentation: counters
// for malformed messages, adjacency transitions, Srm-triggered updates,
// and forwarded/dropped packets (spec.md's ambient observability stack).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MalformedMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "route20_malformed_messages_total",
		Help: "Messages dropped for failing to decode.",
	}, []string{"circuit"})

	AdjacencyUp = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "route20_adjacency_up_total",
		Help: "Adjacencies that transitioned up.",
	}, []string{"circuit"})

	AdjacencyDown = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "route20_adjacency_down_total",
		Help: "Adjacencies that transitioned down (timeout, reject, or circuit failure).",
	}, []string{"circuit", "reason"})

	SrmTriggeredUpdates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "route20_srm_triggered_updates_total",
		Help: "Routing messages sent because of an Srm bit rather than the periodic timer.",
	}, []string{"circuit"})

	PacketsForwarded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "route20_packets_forwarded_total",
		Help: "Data packets forwarded toward another node or area.",
	}, []string{"circuit"})

	PacketsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "route20_packets_dropped_total",
		Help: "Data packets dropped, by reason.",
	}, []string{"reason"})
)

func init() {
	prometheus.MustRegister(MalformedMessages, AdjacencyUp, AdjacencyDown, SrmTriggeredUpdates, PacketsForwarded, PacketsDropped)
}

// Handler returns the HTTP handler to serve on the configured metrics
// address.
func Handler() http.Handler {
	return promhttp.Handler()
}
