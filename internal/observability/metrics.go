package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Turns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bytebot_turns_total",
			Help: "Conversation turns by outcome (model or fallback)",
		},
		[]string{"outcome"},
	)

	ModelInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bytebot_model_invocations_total",
			Help: "Model invocations by backend and result",
		},
		[]string{"backend", "result"},
	)

	ModelLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bytebot_model_latency_seconds",
			Help:    "Model invocation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bytebot_tool_calls_total",
			Help: "Tool executions by tool and result",
		},
		[]string{"tool", "result"},
	)

	FallbackReplies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bytebot_fallback_replies_total",
			Help: "Degraded replies by matched rule",
		},
		[]string{"rule"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bytebot_active_sessions",
			Help: "Number of sessions held in memory",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bytebot_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)
