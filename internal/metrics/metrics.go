package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LinesReceived counts parsed lines by command.
	LinesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ircc_lines_received_total",
			Help: "Total number of protocol lines received, per command",
		},
		[]string{"command"},
	)

	// UnknownLines counts lines that did not parse.
	UnknownLines = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ircc_unknown_lines_total",
		Help: "Total number of received lines that failed to parse",
	})

	// LinesSent counts lines written to the transport.
	LinesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ircc_lines_sent_total",
		Help: "Total number of protocol lines sent",
	})

	// Reconnects counts reconnect attempts.
	Reconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ircc_reconnect_attempts_total",
		Help: "Total number of reconnect attempts",
	})

	// Connected is 1 while a transport is connected.
	Connected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ircc_connected",
		Help: "Whether the client is connected (1) or not (0)",
	})
)
