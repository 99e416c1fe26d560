package application

import (
	"github.com/phkuod/product-tracking-sub000/pkg/api"
)

// FieldDefinitionInput describes one field on a station create/update request
type FieldDefinitionInput struct {
	ID           string   `json:"id"`
	Name         string   `json:"name" binding:"required"`
	Type         string   `json:"type" binding:"required,field_type"`
	Required     bool     `json:"required"`
	Options      []string `json:"options"`
	DefaultValue string   `json:"defaultValue"`
}

// CreateStationCommand creates a station definition
type CreateStationCommand struct {
	Name                     string                 `json:"name" binding:"required,max=200"`
	Owner                    string                 `json:"owner" binding:"required,max=200"`
	CompletionRule           string                 `json:"completionRule" binding:"required,completion_rule"`
	EstimatedDurationMinutes int                    `json:"estimatedDurationMinutes" binding:"gte=0"`
	Fields                   []FieldDefinitionInput `json:"fields" binding:"dive"`
}

// UpdateStationCommand updates a station definition
type UpdateStationCommand struct {
	StationID                string                 `json:"-"`
	Name                     string                 `json:"name" binding:"required,max=200"`
	Owner                    string                 `json:"owner" binding:"required,max=200"`
	CompletionRule           string                 `json:"completionRule" binding:"required,completion_rule"`
	EstimatedDurationMinutes int                    `json:"estimatedDurationMinutes" binding:"gte=0"`
	Fields                   []FieldDefinitionInput `json:"fields" binding:"dive"`
}

// RoutePositionInput is one station occurrence on a route request
type RoutePositionInput struct {
	StationID     string `json:"stationId" binding:"required"`
	SequenceOrder int    `json:"sequenceOrder" binding:"required,min=1"`
}

// CreateRouteCommand creates a route definition
type CreateRouteCommand struct {
	Name        string               `json:"name" binding:"required,max=200"`
	Description string               `json:"description" binding:"max=1000"`
	Stations    []RoutePositionInput `json:"stations" binding:"required,min=1,dive"`
}

// UpdateRouteCommand edits a route; when products already reference the
// route a new immutable version is created instead of mutating in place
type UpdateRouteCommand struct {
	RouteID     string               `json:"-"`
	Name        string               `json:"name" binding:"required,max=200"`
	Description string               `json:"description" binding:"max=1000"`
	Stations    []RoutePositionInput `json:"stations" binding:"required,min=1,dive"`
}

// CreateProductCommand creates a product and opens its first station visit
type CreateProductCommand struct {
	Name     string `json:"name" binding:"required,max=200"`
	Model    string `json:"model" binding:"max=200"`
	RouteID  string `json:"routeId" binding:"required"`
	Priority string `json:"priority" binding:"omitempty,product_priority"`
}

// AdvanceProductCommand submits field data against the product's open
// station visit and attempts to close it. An empty outcome means completed;
// skipped bypasses completion validation entirely.
type AdvanceProductCommand struct {
	ProductID     string            `json:"-"`
	FieldData     map[string]string `json:"fieldData"`
	Notes         string            `json:"notes" binding:"max=2000"`
	Outcome       string            `json:"outcome" binding:"advance_outcome"`
	ForceComplete bool              `json:"forceComplete"`
	ChangedBy     string            `json:"-"`
}

// TerminateProductCommand cancels a product mid-route
type TerminateProductCommand struct {
	ProductID string `json:"-"`
	Reason    string `json:"reason" binding:"required,max=2000"`
	ChangedBy string `json:"-"`
}

// UpdateProductCommand is the administrative edit surface. Only these
// fields can change; the station pointer and ledger are engine-owned.
type UpdateProductCommand struct {
	ProductID           string  `json:"-"`
	Name                *string `json:"name" binding:"omitempty,max=200"`
	Model               *string `json:"model" binding:"omitempty,max=200"`
	Priority            *string `json:"priority" binding:"omitempty,product_priority"`
	StatusOverride      *string `json:"statusOverride" binding:"omitempty,oneof=normal overdue"`
	ClearStatusOverride bool    `json:"clearStatusOverride"`
	ChangedBy           string  `json:"-"`
}

// BulkUpdateProductsCommand applies one update payload to many products,
// per-product independently with partial-success semantics
type BulkUpdateProductsCommand struct {
	ProductIDs []string             `json:"productIds" binding:"required,min=1,max=500"`
	Update     UpdateProductCommand `json:"update" binding:"required"`
	ChangedBy  string               `json:"-"`
}

// DeleteProductCommand removes a product and cascades to its ledger
type DeleteProductCommand struct {
	ProductID string
	ChangedBy string
}

// ListProductsQuery is the filtered paginated listing request
type ListProductsQuery struct {
	List api.ListRequest
}
