package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxRetries is the number of delivery attempts before an event is
// left for manual inspection
const DefaultMaxRetries = 10

// Event represents a domain event stored in the outbox for reliable delivery.
// Events are written in the same transaction as the aggregate change and
// published asynchronously by the Publisher.
type Event struct {
	ID            string          `bson:"_id" json:"id"`
	AggregateID   string          `bson:"aggregateId" json:"aggregateId"`
	AggregateType string          `bson:"aggregateType" json:"aggregateType"`
	EventType     string          `bson:"eventType" json:"eventType"`
	Topic         string          `bson:"topic" json:"topic"`
	Payload       json.RawMessage `bson:"payload" json:"payload"`
	CreatedAt     time.Time       `bson:"createdAt" json:"createdAt"`
	PublishedAt   *time.Time      `bson:"publishedAt,omitempty" json:"publishedAt,omitempty"`
	RetryCount    int             `bson:"retryCount" json:"retryCount"`
	LastError     string          `bson:"lastError,omitempty" json:"lastError,omitempty"`
	MaxRetries    int             `bson:"maxRetries" json:"maxRetries"`
}

// DomainEvent is implemented by all domain events that can be stored in the outbox
type DomainEvent interface {
	EventType() string
	AggregateID() string
}

// NewEvent creates an outbox event from a domain event
func NewEvent(aggregateType, topic string, event DomainEvent) (*Event, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		AggregateID:   event.AggregateID(),
		AggregateType: aggregateType,
		EventType:     event.EventType(),
		Topic:         topic,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
		RetryCount:    0,
		MaxRetries:    DefaultMaxRetries,
	}, nil
}

// NewEvents creates outbox events for a batch of domain events
func NewEvents(aggregateType, topic string, events []DomainEvent) ([]*Event, error) {
	out := make([]*Event, 0, len(events))
	for _, e := range events {
		oe, err := NewEvent(aggregateType, topic, e)
		if err != nil {
			return nil, err
		}
		out = append(out, oe)
	}
	return out, nil
}

// IsPublished checks if the event has been published
func (e *Event) IsPublished() bool {
	return e.PublishedAt != nil
}

// ShouldRetry checks if the event should be retried
func (e *Event) ShouldRetry() bool {
	return !e.IsPublished() && e.RetryCount < e.MaxRetries
}
