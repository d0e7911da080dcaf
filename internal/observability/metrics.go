package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for RelationshipOperations.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	// RelationshipOperations counts Relationship Manager operations by outcome.
	RelationshipOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thoughtnet_relationship_operations_total",
		Help: "Total number of relationship operations by operation and outcome",
	}, []string{"operation", "outcome"})

	// Compensations counts compensating writes issued after a failed step.
	Compensations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thoughtnet_compensations_total",
		Help: "Total number of compensating actions by operation",
	}, []string{"operation"})

	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thoughtnet_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// CacheLookups counts cache-aside lookups by result (hit or miss).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thoughtnet_cache_lookups_total",
		Help: "Total number of cache lookups by result",
	}, []string{"result"})

	// WebSocketConnections is the gauge of open activity feed connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "thoughtnet_websocket_connections",
		Help: "Number of active activity feed WebSocket connections",
	})

	// WebSocketDrops counts events dropped because a client buffer was full.
	WebSocketDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thoughtnet_websocket_backpressure_drops_total",
		Help: "Total number of activity events dropped due to backpressure",
	})
)

// RecordOperation increments RelationshipOperations for op based on err.
func RecordOperation(op string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	RelationshipOperations.WithLabelValues(op, outcome).Inc()
}
