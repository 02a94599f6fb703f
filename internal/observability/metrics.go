package observability

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	RoleUpstream   = "upstream"
	RoleDownstream = "downstream"

	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeInvalid  = "invalid"
)

var (
	registerOnce sync.Once

	handshakeResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sv2setup",
			Subsystem: "handshake",
			Name:      "results_total",
			Help:      "Connection setup outcomes by role, protocol and error code.",
		},
		[]string{"role", "protocol", "outcome", "code"},
	)
	negotiatedVersions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sv2setup",
			Subsystem: "handshake",
			Name:      "negotiated_versions_total",
			Help:      "Protocol versions selected by successful setups.",
		},
		[]string{"role", "protocol", "version"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(handshakeResults, negotiatedVersions)
	})
}

// RecordHandshake counts one setup outcome. code is empty for accepted
// setups.
func RecordHandshake(role, protocol, outcome, code string) {
	RegisterMetrics()
	handshakeResults.WithLabelValues(role, protocol, outcome, code).Inc()
}

func RecordNegotiatedVersion(role, protocol string, version uint16) {
	RegisterMetrics()
	negotiatedVersions.WithLabelValues(role, protocol, strconv.Itoa(int(version))).Inc()
}
