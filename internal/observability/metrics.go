package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	decodedPackets = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sensorwire",
			Subsystem: "decoder",
			Name:      "packets_total",
			Help:      "Packets handed to the decoder.",
		},
		[]string{"scheme", "result"},
	)
	decodeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sensorwire",
			Subsystem: "decoder",
			Name:      "errors_total",
			Help:      "Decode failures by taxonomy kind.",
		},
		[]string{"kind"},
	)
	decodedValues = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sensorwire",
			Subsystem: "decoder",
			Name:      "values_per_packet",
			Help:      "Values carried by each decoded packet.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128, 255},
		},
		[]string{"scheme"},
	)
	listenerChunks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sensorwire",
			Subsystem: "listener",
			Name:      "chunks_total",
			Help:      "Chunks read from the serial port.",
		},
		[]string{"mode"},
	)
	tabularRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sensorwire",
			Subsystem: "tabular",
			Name:      "rows_total",
			Help:      "Rows read or written by the tabular adapter.",
		},
		[]string{"direction", "format"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(decodedPackets, decodeErrors, decodedValues, listenerChunks, tabularRows)
	})
}

// RecordDecode counts one decode attempt. kind is empty on success.
func RecordDecode(scheme string, values int, kind string) {
	RegisterMetrics()
	if kind != "" {
		decodedPackets.WithLabelValues(scheme, "error").Inc()
		decodeErrors.WithLabelValues(kind).Inc()
		return
	}
	decodedPackets.WithLabelValues(scheme, "ok").Inc()
	decodedValues.WithLabelValues(scheme).Observe(float64(values))
}

func RecordChunk(mode string) {
	RegisterMetrics()
	listenerChunks.WithLabelValues(mode).Inc()
}

func RecordRows(direction, format string, n int) {
	RegisterMetrics()
	if n <= 0 {
		return
	}
	tabularRows.WithLabelValues(direction, format).Add(float64(n))
}
