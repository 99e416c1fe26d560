package domain

import (
	"time"
)

// EntryStatus is the status of one station visit
type EntryStatus string

const (
	EntryStatusPending    EntryStatus = "pending"
	EntryStatusInProgress EntryStatus = "in_progress"
	EntryStatusCompleted  EntryStatus = "completed"
	EntryStatusSkipped    EntryStatus = "skipped"
)

// IsTerminal reports whether the status closes the entry
func (s EntryStatus) IsTerminal() bool {
	return s == EntryStatusCompleted || s == EntryStatusSkipped
}

// StationHistoryEntry is one ledger row: a single visit of a product to one
// station occurrence in its route. Station name, owner and estimated
// duration are denormalized snapshots so later definition edits never
// rewrite history. At most one entry per product is open (pending or
// in_progress) at a time.
type StationHistoryEntry struct {
	ID                       string            `bson:"_id" json:"id"`
	ProductID                string            `bson:"productId" json:"productId"`
	StationID                string            `bson:"stationId" json:"stationId"`
	StationName              string            `bson:"stationName" json:"stationName"`
	Owner                    string            `bson:"owner" json:"owner"`
	SequenceOrder            int               `bson:"sequenceOrder" json:"sequenceOrder"`
	EstimatedDurationMinutes int               `bson:"estimatedDurationMinutes" json:"estimatedDurationMinutes"`
	StartTime                time.Time         `bson:"startTime" json:"startTime"`
	EndTime                  *time.Time        `bson:"endTime,omitempty" json:"endTime,omitempty"`
	Status                   EntryStatus       `bson:"status" json:"status"`
	CapturedFieldData        map[string]string `bson:"capturedFieldData" json:"capturedFieldData"`
	Notes                    string            `bson:"notes,omitempty" json:"notes,omitempty"`
}

// NewStationHistoryEntry opens a ledger entry for a visit to the given
// station occurrence. The entry starts pending and moves to in_progress on
// the first field write.
func NewStationHistoryEntry(id, productID string, station *StationDefinition, sequenceOrder int) *StationHistoryEntry {
	return &StationHistoryEntry{
		ID:                       id,
		ProductID:                productID,
		StationID:                station.ID,
		StationName:              station.Name,
		Owner:                    station.Owner,
		SequenceOrder:            sequenceOrder,
		EstimatedDurationMinutes: station.EstimatedDurationMinutes,
		StartTime:                time.Now().UTC(),
		Status:                   EntryStatusPending,
		CapturedFieldData:        make(map[string]string),
	}
}

// IsOpen reports whether the entry is still pending or in progress
func (e *StationHistoryEntry) IsOpen() bool {
	return !e.Status.IsTerminal()
}

// RecordFieldData upserts a captured value onto the open entry. It does not
// close the entry.
func (e *StationHistoryEntry) RecordFieldData(fieldID, value string) error {
	if !e.IsOpen() {
		return ErrEntryAlreadyClosed
	}
	if e.CapturedFieldData == nil {
		e.CapturedFieldData = make(map[string]string)
	}
	e.CapturedFieldData[fieldID] = value
	e.Status = EntryStatusInProgress
	return nil
}

// Close closes the entry with the given terminal outcome and sets the end
// time. Closing an already closed entry fails; closed entries are never
// reopened.
func (e *StationHistoryEntry) Close(outcome EntryStatus, notes string) error {
	if !e.IsOpen() {
		return ErrEntryAlreadyClosed
	}
	if !outcome.IsTerminal() {
		return ErrInvalidOutcome
	}

	now := time.Now().UTC()
	e.EndTime = &now
	e.Status = outcome
	if notes != "" {
		e.Notes = notes
	}
	return nil
}

// DueAt returns the instant at which this visit becomes overdue. Visits at
// stations with no estimated duration never become overdue.
func (e *StationHistoryEntry) DueAt() *time.Time {
	if e.EstimatedDurationMinutes <= 0 {
		return nil
	}
	due := e.StartTime.Add(time.Duration(e.EstimatedDurationMinutes) * time.Minute)
	return &due
}

// Elapsed returns how long the visit has been open, or its total duration
// once closed.
func (e *StationHistoryEntry) Elapsed(now time.Time) time.Duration {
	if e.EndTime != nil {
		return e.EndTime.Sub(e.StartTime)
	}
	return now.Sub(e.StartTime)
}
