package domain

import "errors"

// Errors
var (
	ErrProductNotFound = errors.New("product not found")
	ErrRouteNotFound   = errors.New("route not found")
	ErrStationNotFound = errors.New("station not found")
	ErrEntryNotFound   = errors.New("history entry not found")
	ErrFieldNotFound   = errors.New("field not found on station")

	ErrEntryAlreadyClosed   = errors.New("history entry is already closed")
	ErrOpenEntryExists      = errors.New("product already has an open station entry")
	ErrNoOpenEntry          = errors.New("product has no open station entry")
	ErrProductCompleted     = errors.New("product has already completed its route")
	ErrProductTerminated    = errors.New("product is already terminated")
	ErrRouteInUse           = errors.New("route version already referenced by products")
	ErrStationInUse         = errors.New("station already referenced by a route")
	ErrConcurrentModification = errors.New("product was modified concurrently")

	ErrInvalidPriority  = errors.New("invalid priority")
	ErrInvalidFieldType = errors.New("invalid field type")
	ErrInvalidOutcome   = errors.New("invalid advance outcome")
)
