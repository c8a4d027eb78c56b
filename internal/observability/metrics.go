package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	dispatchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ibctl",
			Subsystem: "dispatch",
			Name:      "requests_total",
			Help:      "Outbound requests by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)
	dispatchBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ibctl",
			Subsystem: "dispatch",
			Name:      "bytes_total",
			Help:      "Framed bytes written by operation.",
		},
		[]string{"op"},
	)
	dispatchPacing = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ibctl",
			Subsystem: "dispatch",
			Name:      "pacing_wait_seconds",
			Help:      "Time spent waiting on the outbound rate limiter.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)
	sessionTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ibctl",
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Connection state transitions.",
		},
		[]string{"from", "to", "fault"},
	)
	adminRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ibctl",
			Subsystem: "admin_http",
			Name:      "requests_total",
			Help:      "Admin HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	adminDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ibctl",
			Subsystem: "admin_http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	inboundMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ibctl",
			Subsystem: "reader",
			Name:      "messages_total",
			Help:      "Inbound frames by message id.",
		},
		[]string{"msg_id"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			dispatchRequests,
			dispatchBytes,
			dispatchPacing,
			sessionTransitions,
			inboundMessages,
			adminRequests,
			adminDuration,
		)
	})
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}

func RecordDispatch(op, outcome string, bytes int) {
	RegisterMetrics()
	dispatchRequests.WithLabelValues(op, outcome).Inc()
	if bytes > 0 {
		dispatchBytes.WithLabelValues(op).Add(float64(bytes))
	}
}

func RecordPacingWait(op string, wait time.Duration) {
	RegisterMetrics()
	dispatchPacing.WithLabelValues(op).Observe(wait.Seconds())
}

func RecordTransition(from, to string, fault bool) {
	RegisterMetrics()
	sessionTransitions.WithLabelValues(from, to, strconv.FormatBool(fault)).Inc()
}

func RecordInbound(msgID string) {
	RegisterMetrics()
	inboundMessages.WithLabelValues(msgID).Inc()
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	code := strconv.Itoa(status)
	adminRequests.WithLabelValues(method, path, code).Inc()
	adminDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}
