package application

import (
	"time"
)

// FieldDefinitionDTO is the API representation of a station field
type FieldDefinitionDTO struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Required     bool     `json:"required"`
	Options      []string `json:"options,omitempty"`
	DefaultValue string   `json:"defaultValue,omitempty"`
}

// StationDTO is the API representation of a station definition
type StationDTO struct {
	ID                       string               `json:"id"`
	Name                     string               `json:"name"`
	Owner                    string               `json:"owner"`
	CompletionRule           string               `json:"completionRule"`
	EstimatedDurationMinutes int                  `json:"estimatedDurationMinutes"`
	Fields                   []FieldDefinitionDTO `json:"fields"`
	CreatedAt                time.Time            `json:"createdAt"`
	UpdatedAt                time.Time            `json:"updatedAt"`
}

// RoutePositionDTO is one station occurrence on a route
type RoutePositionDTO struct {
	StationID     string `json:"stationId"`
	SequenceOrder int    `json:"sequenceOrder"`
}

// RouteDTO is the API representation of a route definition
type RouteDTO struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Description  string             `json:"description,omitempty"`
	Version      int                `json:"version"`
	Stations     []RoutePositionDTO `json:"stations"`
	SupersededBy string             `json:"supersededBy,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// ProductDTO is the API representation of a product. Status is the
// effective status as of the response time: the administrative override if
// set, otherwise derived from the open visit's due time.
type ProductDTO struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Model            string     `json:"model,omitempty"`
	RouteID          string     `json:"routeId"`
	Priority         string     `json:"priority"`
	CurrentStationID string     `json:"currentStationId,omitempty"`
	CurrentSequence  int        `json:"currentSequence,omitempty"`
	CurrentOwner     string     `json:"currentOwner,omitempty"`
	CurrentDueAt     *time.Time `json:"currentDueAt,omitempty"`
	ProgressPercent  int        `json:"progressPercent"`
	Status           string     `json:"status"`
	StatusOverride   string     `json:"statusOverride,omitempty"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
	TerminatedAt     *time.Time `json:"terminatedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// HistoryEntryDTO is one ledger row in the audit view
type HistoryEntryDTO struct {
	ID                       string            `json:"id"`
	ProductID                string            `json:"productId"`
	StationID                string            `json:"stationId"`
	StationName              string            `json:"stationName"`
	Owner                    string            `json:"owner"`
	SequenceOrder            int               `json:"sequenceOrder"`
	EstimatedDurationMinutes int               `json:"estimatedDurationMinutes"`
	StartTime                time.Time         `json:"startTime"`
	EndTime                  *time.Time        `json:"endTime,omitempty"`
	Status                   string            `json:"status"`
	CapturedFieldData        map[string]string `json:"capturedFieldData"`
	Notes                    string            `json:"notes,omitempty"`
}

// AdvanceResultDTO reports the outcome of an advance call
type AdvanceResultDTO struct {
	Product     *ProductDTO      `json:"product"`
	ClosedEntry *HistoryEntryDTO `json:"closedEntry"`
	OpenedEntry *HistoryEntryDTO `json:"openedEntry,omitempty"`
}

// BulkItemError is one failed item in a bulk update
type BulkItemError struct {
	ProductID string `json:"productId"`
	Error     string `json:"error"`
}

// BulkUpdateResultDTO summarizes a partial-success bulk update
type BulkUpdateResultDTO struct {
	UpdatedCount int             `json:"updatedCount"`
	Errors       []BulkItemError `json:"errors,omitempty"`
}
