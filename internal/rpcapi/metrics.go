package rpcapi

import "github.com/prometheus/client_golang/prometheus"

var (
	rpcRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "textgend",
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "Total number of RPCs by method and status code",
		},
		[]string{"method", "code"},
	)

	rpcRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "textgend",
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "Duration of RPCs in seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"method", "code"},
	)

	rpcInflight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "textgend",
			Subsystem: "rpc",
			Name:      "inflight_requests",
			Help:      "In-flight RPCs",
		},
		[]string{"method"},
	)

	rpcStreamMsgsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "textgend",
			Subsystem: "rpc",
			Name:      "stream_messages_sent_total",
			Help:      "Messages sent on server streams",
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(rpcRequestsTotal, rpcRequestDuration, rpcInflight, rpcStreamMsgsSent)
}
