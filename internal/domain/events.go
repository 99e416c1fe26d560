package domain

import "time"

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	AggregateID() string
	OccurredAt() time.Time
}

// ProductCreatedEvent is published when a product is created
type ProductCreatedEvent struct {
	ProductID string    `json:"productId"`
	Name      string    `json:"name"`
	Model     string    `json:"model"`
	RouteID   string    `json:"routeId"`
	Priority  string    `json:"priority"`
	CreatedAt time.Time `json:"createdAt"`
}

func (e *ProductCreatedEvent) EventType() string     { return "tracking.product-created" }
func (e *ProductCreatedEvent) AggregateID() string   { return e.ProductID }
func (e *ProductCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// StationOpenedEvent is published when a station visit opens
type StationOpenedEvent struct {
	ProductID     string    `json:"productId"`
	EntryID       string    `json:"entryId"`
	StationID     string    `json:"stationId"`
	StationName   string    `json:"stationName"`
	SequenceOrder int       `json:"sequenceOrder"`
	OpenedAt      time.Time `json:"openedAt"`
}

func (e *StationOpenedEvent) EventType() string     { return "tracking.station-opened" }
func (e *StationOpenedEvent) AggregateID() string   { return e.ProductID }
func (e *StationOpenedEvent) OccurredAt() time.Time { return e.OpenedAt }

// StationClosedEvent is published when a station visit closes, either
// completed or skipped
type StationClosedEvent struct {
	ProductID     string    `json:"productId"`
	EntryID       string    `json:"entryId"`
	StationID     string    `json:"stationId"`
	StationName   string    `json:"stationName"`
	SequenceOrder int       `json:"sequenceOrder"`
	Outcome       string    `json:"outcome"`
	ClosedAt      time.Time `json:"closedAt"`
}

func (e *StationClosedEvent) EventType() string {
	if e.Outcome == string(EntryStatusSkipped) {
		return "tracking.station-skipped"
	}
	return "tracking.station-completed"
}
func (e *StationClosedEvent) AggregateID() string   { return e.ProductID }
func (e *StationClosedEvent) OccurredAt() time.Time { return e.ClosedAt }

// ProductCompletedEvent is published when a product finishes its route
type ProductCompletedEvent struct {
	ProductID   string    `json:"productId"`
	RouteID     string    `json:"routeId"`
	CompletedAt time.Time `json:"completedAt"`
}

func (e *ProductCompletedEvent) EventType() string     { return "tracking.product-completed" }
func (e *ProductCompletedEvent) AggregateID() string   { return e.ProductID }
func (e *ProductCompletedEvent) OccurredAt() time.Time { return e.CompletedAt }

// ProductTerminatedEvent is published when a product is cancelled mid-route
type ProductTerminatedEvent struct {
	ProductID    string    `json:"productId"`
	Reason       string    `json:"reason"`
	ChangedBy    string    `json:"changedBy,omitempty"`
	TerminatedAt time.Time `json:"terminatedAt"`
}

func (e *ProductTerminatedEvent) EventType() string     { return "tracking.product-terminated" }
func (e *ProductTerminatedEvent) AggregateID() string   { return e.ProductID }
func (e *ProductTerminatedEvent) OccurredAt() time.Time { return e.TerminatedAt }

// ProductUpdatedEvent is published on administrative edits, carrying the
// changed fields and the acting user for audit
type ProductUpdatedEvent struct {
	ProductID string            `json:"productId"`
	Changes   map[string]string `json:"changes"`
	ChangedBy string            `json:"changedBy,omitempty"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

func (e *ProductUpdatedEvent) EventType() string     { return "tracking.product-updated" }
func (e *ProductUpdatedEvent) AggregateID() string   { return e.ProductID }
func (e *ProductUpdatedEvent) OccurredAt() time.Time { return e.UpdatedAt }

// ProductDeletedEvent is published when a product and its history are removed
type ProductDeletedEvent struct {
	ProductID string    `json:"productId"`
	ChangedBy string    `json:"changedBy,omitempty"`
	DeletedAt time.Time `json:"deletedAt"`
}

func (e *ProductDeletedEvent) EventType() string     { return "tracking.product-deleted" }
func (e *ProductDeletedEvent) AggregateID() string   { return e.ProductID }
func (e *ProductDeletedEvent) OccurredAt() time.Time { return e.DeletedAt }
