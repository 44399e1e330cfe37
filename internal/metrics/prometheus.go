// Package metrics exposes Prometheus counters for the signaling session.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the counter set a session reports into. All counters are
// registered on the registry passed to New.
type Metrics struct {
	PacketsSent         prometheus.Counter
	PacketsReceived     prometheus.Counter
	MessagesReassembled prometheus.Counter
	ReassemblyAbandoned prometheus.Counter
	RejectsSent         prometheus.Counter
	ParseErrors         prometheus.Counter
	CorrelationDrops    prometheus.Counter
}

// New registers the signaling counters on reg. Pass nil to use the default
// registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		PacketsSent: f.NewCounter(prometheus.CounterOpts{
			Name: "avsig_packets_sent_total",
			Help: "Transport packets emitted by the segmentation engine.",
		}),
		PacketsReceived: f.NewCounter(prometheus.CounterOpts{
			Name: "avsig_packets_received_total",
			Help: "Transport packets handed to the inbound dispatcher.",
		}),
		MessagesReassembled: f.NewCounter(prometheus.CounterOpts{
			Name: "avsig_messages_reassembled_total",
			Help: "Fragmented messages completed by the reassembly engine.",
		}),
		ReassemblyAbandoned: f.NewCounter(prometheus.CounterOpts{
			Name: "avsig_reassembly_abandoned_total",
			Help: "Partial reassemblies discarded for framing or size violations.",
		}),
		RejectsSent: f.NewCounter(prometheus.CounterOpts{
			Name: "avsig_rejects_sent_total",
			Help: "Reject and general-reject messages queued for sending.",
		}),
		ParseErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "avsig_parse_errors_total",
			Help: "Inbound messages that failed payload validation.",
		}),
		CorrelationDrops: f.NewCounter(prometheus.CounterOpts{
			Name: "avsig_correlation_drops_total",
			Help: "Responses or rejects dropped for not matching the outstanding command.",
		}),
	}
}

// Handler returns an HTTP handler serving the given registry in the
// Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
