// Package metrics exposes Prometheus counters for the stub's packet
// processing: packets parsed, checksum failures, retransmits requested,
// and commands dispatched by name. Grounded on runZeroInc-sockstats' and
// runZeroInc-conniver's pkg/exporter (prometheus.NewCounterVec +
// promhttp.Handler over a registered *prometheus.Registry).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the counters a gdbserver.Server session records against.
type Metrics struct {
	Registry *prometheus.Registry

	PacketsParsed      prometheus.Counter
	ChecksumFailures   prometheus.Counter
	RetransmitsSent    prometheus.Counter
	CommandsDispatched *prometheus.CounterVec
}

// New registers a fresh counter set on its own Registry, so multiple
// gdbserver.Server instances in one process (e.g. under test) don't
// collide on the default global registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		PacketsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rspstub",
			Name:      "packets_parsed_total",
			Help:      "Number of RSP packets successfully parsed.",
		}),
		ChecksumFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rspstub",
			Name:      "checksum_failures_total",
			Help:      "Number of packets rejected for a checksum mismatch.",
		}),
		RetransmitsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rspstub",
			Name:      "retransmits_sent_total",
			Help:      "Number of '-' retransmit requests sent to the host.",
		}),
		CommandsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rspstub",
			Name:      "commands_dispatched_total",
			Help:      "Number of commands dispatched, labeled by command name.",
		}, []string{"command"}),
	}

	reg.MustRegister(m.PacketsParsed, m.ChecksumFailures, m.RetransmitsSent, m.CommandsDispatched)

	return m
}

// Handler returns the http.Handler to mount at "/metrics".
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
