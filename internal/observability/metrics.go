package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "battleboats"

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	framesDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "codec",
			Name:      "frames_decoded_total",
			Help:      "Frames decoded into typed events.",
		},
		[]string{"node", "type"},
	)
	decodeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "codec",
			Name:      "decode_errors_total",
			Help:      "Frames rejected by the decoder.",
		},
		[]string{"node", "kind"},
	)
	messagesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "link",
			Name:      "messages_sent_total",
			Help:      "Messages fully written to the link.",
		},
		[]string{"node", "type"},
	)
	bytesWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "link",
			Name:      "bytes_written_total",
			Help:      "Bytes written to the link.",
		},
		[]string{"node"},
	)
	agentTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "transitions_total",
			Help:      "Turn state machine transitions.",
		},
		[]string{"node", "from", "to"},
	)
	gamesFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "games_total",
			Help:      "Finished matches by outcome.",
		},
		[]string{"node", "outcome"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			framesDecoded,
			decodeErrors,
			messagesSent,
			bytesWritten,
			agentTransitions,
			gamesFinished,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordFrameDecoded(node, eventType string) {
	RegisterMetrics()
	framesDecoded.WithLabelValues(node, eventType).Inc()
}

func RecordDecodeError(node, kind string) {
	RegisterMetrics()
	decodeErrors.WithLabelValues(node, kind).Inc()
}

func RecordMessageSent(node, msgType string, n int) {
	RegisterMetrics()
	messagesSent.WithLabelValues(node, msgType).Inc()
	bytesWritten.WithLabelValues(node).Add(float64(n))
}

func RecordTransition(node, from, to string) {
	RegisterMetrics()
	agentTransitions.WithLabelValues(node, from, to).Inc()
}

func RecordGameOver(node, outcome string) {
	RegisterMetrics()
	gamesFinished.WithLabelValues(node, outcome).Inc()
}
