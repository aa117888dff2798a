// Package clientmetrics provides optional Prometheus instrumentation for a
// Session. Metrics are entirely opt-in: a nil *Metrics behaves as a no-op,
// so callers that never configure metrics pay nothing for them.
package clientmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks Prometheus metrics for a remctl client Session. Methods
// handle a nil receiver gracefully, so disabling metrics costs nothing
// beyond the nil check.
type Metrics struct {
	// CommandsIssued counts command() calls by outcome.
	// Labels: result=[success, failure]
	CommandsIssued *prometheus.CounterVec

	// HandshakeDuration tracks how long GSSAPI context establishment took.
	HandshakeDuration prometheus.Histogram

	// HandshakeFailures counts failed handshakes by reason.
	// Labels: reason=[transport, negotiation, protocol, flags]
	HandshakeFailures *prometheus.CounterVec

	// BytesSent and BytesReceived track wrapped-packet traffic.
	BytesSent     prometheus.Counter
	BytesReceived prometheus.Counter

	// OutstandingCommands is the current count of commands awaiting a
	// terminal response on a Session.
	OutstandingCommands prometheus.Gauge
}

var (
	once     sync.Once
	instance *Metrics
)

// New creates and registers client metrics on registerer, or on
// prometheus.DefaultRegisterer if registerer is nil. It is idempotent: the
// first call wins and subsequent calls return the same instance, so a CLI
// invocation that opens several sessions doesn't attempt double
// registration.
func New(registerer prometheus.Registerer) *Metrics {
	once.Do(func() {
		if registerer == nil {
			registerer = prometheus.DefaultRegisterer
		}

		m := &Metrics{
			CommandsIssued: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "remctl_commands_issued_total",
					Help: "Total commands issued by outcome",
				},
				[]string{"result"},
			),
			HandshakeDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "remctl_handshake_duration_seconds",
					Help:    "GSSAPI context establishment duration in seconds",
					Buckets: prometheus.DefBuckets,
				},
			),
			HandshakeFailures: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "remctl_handshake_failures_total",
					Help: "Total handshake failures by reason",
				},
				[]string{"reason"},
			),
			BytesSent: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "remctl_bytes_sent_total",
					Help: "Total bytes sent in wrapped packets",
				},
			),
			BytesReceived: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "remctl_bytes_received_total",
					Help: "Total bytes received in wrapped packets",
				},
			),
			OutstandingCommands: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "remctl_outstanding_commands",
					Help: "Current number of commands awaiting a terminal response",
				},
			),
		}

		registerer.MustRegister(
			m.CommandsIssued,
			m.HandshakeDuration,
			m.HandshakeFailures,
			m.BytesSent,
			m.BytesReceived,
			m.OutstandingCommands,
		)

		instance = m
	})

	return instance
}

// RecordCommand records the outcome of a command() call.
func (m *Metrics) RecordCommand(success bool) {
	if m == nil {
		return
	}
	if success {
		m.CommandsIssued.WithLabelValues("success").Inc()
	} else {
		m.CommandsIssued.WithLabelValues("failure").Inc()
	}
}

// RecordHandshake records the duration of a completed handshake.
func (m *Metrics) RecordHandshake(d time.Duration) {
	if m == nil {
		return
	}
	m.HandshakeDuration.Observe(d.Seconds())
}

// RecordHandshakeFailure records a failed handshake by reason: transport,
// negotiation, protocol, or flags.
func (m *Metrics) RecordHandshakeFailure(reason string) {
	if m == nil {
		return
	}
	m.HandshakeFailures.WithLabelValues(reason).Inc()
}

// RecordBytesSent adds n to the sent-bytes counter.
func (m *Metrics) RecordBytesSent(n int) {
	if m == nil {
		return
	}
	m.BytesSent.Add(float64(n))
}

// RecordBytesReceived adds n to the received-bytes counter.
func (m *Metrics) RecordBytesReceived(n int) {
	if m == nil {
		return
	}
	m.BytesReceived.Add(float64(n))
}

// SetOutstanding sets the outstanding-commands gauge.
func (m *Metrics) SetOutstanding(n int) {
	if m == nil {
		return
	}
	m.OutstandingCommands.Set(float64(n))
}
