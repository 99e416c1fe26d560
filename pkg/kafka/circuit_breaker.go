package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/phkuod/product-tracking-sub000/pkg/logging"
	"github.com/phkuod/product-tracking-sub000/pkg/metrics"
)

// CircuitBreakerProducer wraps a Producer with a circuit breaker so a broker
// outage does not tie up outbox workers in long retry loops.
type CircuitBreakerProducer struct {
	producer *Producer
	breaker  *gobreaker.CircuitBreaker
	logger   *logging.Logger
	metrics  *metrics.Metrics
}

// NewCircuitBreakerProducer creates a producer guarded by a circuit breaker
func NewCircuitBreakerProducer(producer *Producer, logger *logging.Logger, m *metrics.Metrics) *CircuitBreakerProducer {
	cb := &CircuitBreakerProducer{
		producer: producer,
		logger:   logger.WithComponent("kafka-circuit-breaker"),
		metrics:  m,
	}

	cb.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "kafka-producer",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: cb.onStateChange,
	})

	return cb
}

// Publish publishes a message through the circuit breaker
func (cb *CircuitBreakerProducer) Publish(ctx context.Context, msg Message) error {
	_, err := cb.breaker.Execute(func() (interface{}, error) {
		return nil, cb.producer.Publish(ctx, msg)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return fmt.Errorf("kafka circuit breaker open: %w", err)
	}
	return err
}

// Close closes the underlying producer
func (cb *CircuitBreakerProducer) Close() error {
	return cb.producer.Close()
}

func (cb *CircuitBreakerProducer) onStateChange(name string, from, to gobreaker.State) {
	cb.logger.Event(context.Background(), "circuit_breaker_state_change", map[string]any{
		"breaker": name,
		"from":    from.String(),
		"to":      to.String(),
	})

	if cb.metrics != nil {
		cb.metrics.SetCircuitBreakerState(name, stateValue(to))
		if to == gobreaker.StateOpen {
			cb.metrics.RecordCircuitBreakerTrip(name)
		}
	}
}

func stateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}
