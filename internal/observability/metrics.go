package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skirmish",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "skirmish",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	packetsEncoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skirmish",
			Subsystem: "packets",
			Name:      "encoded_total",
			Help:      "Packets serialized, by direction and kind.",
		},
		[]string{"direction", "kind"},
	)
	packetsDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skirmish",
			Subsystem: "packets",
			Name:      "decoded_total",
			Help:      "Packets deserialized, by direction and kind.",
		},
		[]string{"direction", "kind"},
	)
	packetsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skirmish",
			Subsystem: "packets",
			Name:      "dropped_total",
			Help:      "Malformed packets dropped at the registry boundary.",
		},
		[]string{"direction", "reason"},
	)
	connectionsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "skirmish",
			Subsystem: "game",
			Name:      "connections_open",
			Help:      "Open WebSocket connections.",
		},
	)
	disconnects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skirmish",
			Subsystem: "game",
			Name:      "disconnects_total",
			Help:      "Connections closed by the server, by reason.",
		},
		[]string{"reason"},
	)
	tickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "skirmish",
			Subsystem: "game",
			Name:      "tick_duration_seconds",
			Help:      "Game update duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			packetsEncoded,
			packetsDecoded,
			packetsDropped,
			connectionsOpen,
			disconnects,
			tickDuration,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordPacketEncoded(direction, kind string) {
	RegisterMetrics()
	packetsEncoded.WithLabelValues(direction, kind).Inc()
}

func RecordPacketDecoded(direction, kind string) {
	RegisterMetrics()
	packetsDecoded.WithLabelValues(direction, kind).Inc()
}

func RecordPacketDropped(direction, reason string) {
	RegisterMetrics()
	packetsDropped.WithLabelValues(direction, reason).Inc()
}

func RecordConnectionOpened() {
	RegisterMetrics()
	connectionsOpen.Inc()
}

func RecordConnectionClosed() {
	RegisterMetrics()
	connectionsOpen.Dec()
}

func RecordDisconnect(reason string) {
	RegisterMetrics()
	disconnects.WithLabelValues(reason).Inc()
}

func RecordTick(duration time.Duration) {
	RegisterMetrics()
	tickDuration.Observe(duration.Seconds())
}
