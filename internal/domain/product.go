package domain

import (
	"fmt"
	"math"
	"time"
)

// ProductPriority is the scheduling priority of a product
type ProductPriority string

const (
	PriorityLow    ProductPriority = "low"
	PriorityMedium ProductPriority = "medium"
	PriorityHigh   ProductPriority = "high"
)

// IsValid reports whether the priority is known
func (p ProductPriority) IsValid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// ProductStatus is the lifecycle health of a product
type ProductStatus string

const (
	StatusNormal  ProductStatus = "normal"
	StatusOverdue ProductStatus = "overdue"
)

// Product is the aggregate root for process tracking. Its station pointer,
// progress and due time are owned by the progression engine; administrative
// edits go through the closed AdminUpdate command and never touch them.
// The ledger entries share the aggregate's consistency boundary.
type Product struct {
	ID               string          `bson:"_id" json:"id"`
	Name             string          `bson:"name" json:"name"`
	Model            string          `bson:"model" json:"model"`
	RouteID          string          `bson:"routeId" json:"routeId"`
	Priority         ProductPriority `bson:"priority" json:"priority"`
	CurrentStationID string          `bson:"currentStationId,omitempty" json:"currentStationId,omitempty"`
	CurrentSequence  int             `bson:"currentSequence,omitempty" json:"currentSequence,omitempty"`
	CurrentOwner     string          `bson:"currentOwner,omitempty" json:"currentOwner,omitempty"`

	// CurrentDueAt is denormalized from the open ledger entry so list
	// filters can evaluate overdue-ness inside the store
	CurrentDueAt *time.Time `bson:"currentDueAt,omitempty" json:"currentDueAt,omitempty"`

	ProgressPercent int `bson:"progressPercent" json:"progressPercent"`

	// StatusOverride is the administrator-set status; while set it wins
	// over the derived overdue computation
	StatusOverride ProductStatus `bson:"statusOverride,omitempty" json:"statusOverride,omitempty"`

	CompletedAt  *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	TerminatedAt *time.Time `bson:"terminatedAt,omitempty" json:"terminatedAt,omitempty"`
	CreatedAt    time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time  `bson:"updatedAt" json:"updatedAt"`

	// Version backs the optimistic per-product mutual exclusion: every
	// engine mutation filters on {_id, version} and increments it
	Version int64 `bson:"version" json:"version"`

	DomainEvents []DomainEvent `bson:"-" json:"-"`
}

// NewProduct creates a product bound to a route version. The first ledger
// entry is opened separately by the progression engine.
func NewProduct(id, name, model string, route *RouteDefinition, priority ProductPriority) (*Product, error) {
	if id == "" {
		return nil, fmt.Errorf("product id is required")
	}
	if name == "" {
		return nil, fmt.Errorf("product name is required")
	}
	if route == nil {
		return nil, ErrRouteNotFound
	}
	if priority == "" {
		priority = PriorityMedium
	}
	if !priority.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPriority, priority)
	}

	now := time.Now().UTC()
	p := &Product{
		ID:        id,
		Name:      name,
		Model:     model,
		RouteID:   route.ID,
		Priority:  priority,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}

	p.addEvent(&ProductCreatedEvent{
		ProductID: p.ID,
		Name:      p.Name,
		Model:     p.Model,
		RouteID:   p.RouteID,
		Priority:  string(p.Priority),
		CreatedAt: now,
	})

	return p, nil
}

// IsTerminated reports whether the product was cancelled
func (p *Product) IsTerminated() bool {
	return p.TerminatedAt != nil
}

// IsRouteComplete reports whether the product finished its route
func (p *Product) IsRouteComplete() bool {
	return p.CompletedAt != nil
}

// CanAdvance fails when the product is in an absorbing state
func (p *Product) CanAdvance() error {
	if p.IsTerminated() {
		return ErrProductTerminated
	}
	if p.IsRouteComplete() {
		return ErrProductCompleted
	}
	return nil
}

// EffectiveStatus derives the status as of now. The administrative override
// wins while set; otherwise the product is overdue iff the open visit has
// exceeded its estimated duration.
func (p *Product) EffectiveStatus(now time.Time) ProductStatus {
	if p.StatusOverride != "" {
		return p.StatusOverride
	}
	if p.CurrentDueAt != nil && now.After(*p.CurrentDueAt) {
		return StatusOverdue
	}
	return StatusNormal
}

// OpenStation points the product at a freshly opened ledger entry
func (p *Product) OpenStation(entry *StationHistoryEntry) {
	p.CurrentStationID = entry.StationID
	p.CurrentSequence = entry.SequenceOrder
	p.CurrentOwner = entry.Owner
	p.CurrentDueAt = entry.DueAt()
	p.touch()

	p.addEvent(&StationOpenedEvent{
		ProductID:     p.ID,
		EntryID:       entry.ID,
		StationID:     entry.StationID,
		StationName:   entry.StationName,
		SequenceOrder: entry.SequenceOrder,
		OpenedAt:      entry.StartTime,
	})
}

// CloseStation records the closing of the current ledger entry
func (p *Product) CloseStation(entry *StationHistoryEntry) {
	event := &StationClosedEvent{
		ProductID:     p.ID,
		EntryID:       entry.ID,
		StationID:     entry.StationID,
		StationName:   entry.StationName,
		SequenceOrder: entry.SequenceOrder,
		Outcome:       string(entry.Status),
		ClosedAt:      time.Now().UTC(),
	}
	if entry.EndTime != nil {
		event.ClosedAt = *entry.EndTime
	}
	p.addEvent(event)
	p.touch()
}

// CompleteRoute marks the product as done: no current station, progress 100
func (p *Product) CompleteRoute() {
	now := time.Now().UTC()
	p.CurrentStationID = ""
	p.CurrentSequence = 0
	p.CurrentOwner = ""
	p.CurrentDueAt = nil
	p.ProgressPercent = 100
	p.CompletedAt = &now
	p.touch()

	p.addEvent(&ProductCompletedEvent{
		ProductID:   p.ID,
		RouteID:     p.RouteID,
		CompletedAt: now,
	})
}

// SetProgress recomputes the progress percentage from closed positions over
// total route positions, repeats counting individually
func (p *Product) SetProgress(closedCount, totalPositions int) {
	if totalPositions <= 0 {
		p.ProgressPercent = 0
		return
	}
	p.ProgressPercent = int(math.Round(100 * float64(closedCount) / float64(totalPositions)))
	p.touch()
}

// Terminate cancels the product. The open ledger entry is closed as skipped
// by the progression engine before this is called. Terminating an already
// terminated or completed product fails.
func (p *Product) Terminate(reason, changedBy string) error {
	if p.IsTerminated() {
		return ErrProductTerminated
	}
	if p.IsRouteComplete() {
		return ErrProductCompleted
	}

	now := time.Now().UTC()
	p.TerminatedAt = &now
	p.CurrentStationID = ""
	p.CurrentSequence = 0
	p.CurrentOwner = ""
	p.CurrentDueAt = nil
	p.touch()

	p.addEvent(&ProductTerminatedEvent{
		ProductID:    p.ID,
		Reason:       reason,
		ChangedBy:    changedBy,
		TerminatedAt: now,
	})
	return nil
}

// AdminUpdate is the closed set of administrative edits. Only the fields
// listed here ever reach persistence; callers cannot address arbitrary
// columns.
type AdminUpdate struct {
	Name                *string
	Model               *string
	Priority            *ProductPriority
	StatusOverride      *ProductStatus
	ClearStatusOverride bool
}

// IsEmpty reports whether the command carries no changes
func (u AdminUpdate) IsEmpty() bool {
	return u.Name == nil && u.Model == nil && u.Priority == nil &&
		u.StatusOverride == nil && !u.ClearStatusOverride
}

// ApplyAdminUpdate applies an administrative edit. It never touches the
// station pointer, the ledger, or progress.
func (p *Product) ApplyAdminUpdate(update AdminUpdate, changedBy string) error {
	if update.IsEmpty() {
		return fmt.Errorf("update contains no changes")
	}

	changed := make(map[string]string)

	if update.Name != nil {
		if *update.Name == "" {
			return fmt.Errorf("product name is required")
		}
		p.Name = *update.Name
		changed["name"] = *update.Name
	}
	if update.Model != nil {
		p.Model = *update.Model
		changed["model"] = *update.Model
	}
	if update.Priority != nil {
		if !update.Priority.IsValid() {
			return fmt.Errorf("%w: %s", ErrInvalidPriority, *update.Priority)
		}
		p.Priority = *update.Priority
		changed["priority"] = string(*update.Priority)
	}
	if update.ClearStatusOverride {
		p.StatusOverride = ""
		changed["statusOverride"] = ""
	} else if update.StatusOverride != nil {
		if *update.StatusOverride != StatusNormal && *update.StatusOverride != StatusOverdue {
			return fmt.Errorf("invalid status override: %s", *update.StatusOverride)
		}
		p.StatusOverride = *update.StatusOverride
		changed["statusOverride"] = string(*update.StatusOverride)
	}

	p.touch()
	p.addEvent(&ProductUpdatedEvent{
		ProductID: p.ID,
		Changes:   changed,
		ChangedBy: changedBy,
		UpdatedAt: p.UpdatedAt,
	})
	return nil
}

// MarkDeleted records the deletion event before the aggregate and its
// ledger are removed
func (p *Product) MarkDeleted(changedBy string) {
	p.addEvent(&ProductDeletedEvent{
		ProductID: p.ID,
		ChangedBy: changedBy,
		DeletedAt: time.Now().UTC(),
	})
}

// ClearEvents returns and clears the accumulated domain events
func (p *Product) ClearEvents() []DomainEvent {
	events := p.DomainEvents
	p.DomainEvents = nil
	return events
}

func (p *Product) addEvent(event DomainEvent) {
	p.DomainEvents = append(p.DomainEvents, event)
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}
