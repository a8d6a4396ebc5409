package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
		[]string{"service"},
	)

	// Navigation metrics
	ActiveSessionsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "active_sessions_total",
			Help: "Current number of in-progress navigation sessions",
		},
		[]string{"service"},
	)

	SessionsStartedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessions_started_total",
			Help: "Total number of navigation sessions started",
		},
		[]string{"service"},
	)

	ControllerTicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "controller_ticks_total",
			Help: "Total number of controller UpdateUserLocation ticks processed",
		},
		[]string{"service"},
	)

	DeviationEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deviation_events_total",
			Help: "Total number of NoDeviation to OffRoute transitions observed",
		},
		[]string{"service"},
	)

	CompletionEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "completion_events_total",
			Help: "Total number of sessions that transitioned to Complete",
		},
		[]string{"service"},
	)

	ReroutesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reroutes_total",
			Help: "Total number of reroute requests, by outcome",
		},
		[]string{"service", "status"},
	)

	WebSocketConnectionsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "websocket_connections_total",
			Help: "Current number of active WebSocket connections",
		},
		[]string{"service"},
	)

	DatabaseQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "database_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"service", "operation", "status"},
	)

	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "database_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "operation"},
	)

	RabbitMQMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rabbitmq_messages_published_total",
			Help: "Total number of messages published to RabbitMQ",
		},
		[]string{"service", "queue", "status"},
	)

	RabbitMQMessagesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rabbitmq_messages_consumed_total",
			Help: "Total number of messages consumed from RabbitMQ",
		},
		[]string{"service", "queue", "status"},
	)
)

// RecordHTTPMetrics records HTTP request metrics
func RecordHTTPMetrics(service, method, path string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	HttpRequestsTotal.WithLabelValues(service, method, path, status).Inc()
	HttpRequestDuration.WithLabelValues(service, method, path, status).Observe(duration.Seconds())
}

// RecordDatabaseQuery records database query metrics
func RecordDatabaseQuery(service, operation string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DatabaseQueriesTotal.WithLabelValues(service, operation, status).Inc()
	DatabaseQueryDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordRabbitMQPublish records RabbitMQ publish metrics
func RecordRabbitMQPublish(service, queue string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	RabbitMQMessagesPublished.WithLabelValues(service, queue, status).Inc()
}

// RecordRabbitMQConsume records RabbitMQ consume metrics
func RecordRabbitMQConsume(service, queue string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	RabbitMQMessagesConsumed.WithLabelValues(service, queue, status).Inc()
}

// RecordReroute records the outcome of a reroute request.
func RecordReroute(service string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ReroutesTotal.WithLabelValues(service, status).Inc()
}
