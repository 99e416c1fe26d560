package domain

import (
	"fmt"
	"time"
)

// CompletionRule determines when a station visit may be closed
type CompletionRule string

const (
	// CompletionRuleAllFilled closes only when every required field has a
	// valid non-empty value
	CompletionRuleAllFilled CompletionRule = "all_filled"

	// CompletionRuleCustom closes on an explicit mark-complete action; field
	// values are still type-checked but completeness is judged by a human
	CompletionRuleCustom CompletionRule = "custom"
)

// IsValid reports whether the completion rule is known
func (r CompletionRule) IsValid() bool {
	return r == CompletionRuleAllFilled || r == CompletionRuleCustom
}

// StationDefinition is a named processing step with an owner, an expected
// duration, a completion rule, and an ordered set of capturable fields.
type StationDefinition struct {
	ID                       string            `bson:"_id" json:"id"`
	Name                     string            `bson:"name" json:"name"`
	Owner                    string            `bson:"owner" json:"owner"`
	CompletionRule           CompletionRule    `bson:"completionRule" json:"completionRule"`
	EstimatedDurationMinutes int               `bson:"estimatedDurationMinutes" json:"estimatedDurationMinutes"`
	Fields                   []FieldDefinition `bson:"fields" json:"fields"`
	CreatedAt                time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt                time.Time         `bson:"updatedAt" json:"updatedAt"`
}

// NewStationDefinition creates a station definition and validates its fields
func NewStationDefinition(id, name, owner string, rule CompletionRule, estimatedDurationMinutes int, fields []FieldDefinition) (*StationDefinition, error) {
	if id == "" {
		return nil, fmt.Errorf("station id is required")
	}
	if name == "" {
		return nil, fmt.Errorf("station name is required")
	}
	if owner == "" {
		return nil, fmt.Errorf("station owner is required")
	}
	if !rule.IsValid() {
		return nil, fmt.Errorf("invalid completion rule: %s", rule)
	}
	if estimatedDurationMinutes < 0 {
		return nil, fmt.Errorf("estimated duration must be non-negative")
	}

	seen := make(map[string]bool, len(fields))
	for i := range fields {
		f := fields[i]
		if seen[f.ID] {
			return nil, fmt.Errorf("duplicate field id %q on station %q", f.ID, name)
		}
		seen[f.ID] = true

		// Re-run the value-object checks so stations built from stored or
		// request data keep the same invariants as NewFieldDefinition
		if _, err := NewFieldDefinition(f.ID, f.Name, f.Type, f.Required, f.Options, f.DefaultValue); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	return &StationDefinition{
		ID:                       id,
		Name:                     name,
		Owner:                    owner,
		CompletionRule:           rule,
		EstimatedDurationMinutes: estimatedDurationMinutes,
		Fields:                   fields,
		CreatedAt:                now,
		UpdatedAt:                now,
	}, nil
}

// FieldByID returns the field definition with the given id
func (s *StationDefinition) FieldByID(fieldID string) (*FieldDefinition, bool) {
	for i := range s.Fields {
		if s.Fields[i].ID == fieldID {
			return &s.Fields[i], true
		}
	}
	return nil, false
}

// EstimatedDuration returns the expected visit duration
func (s *StationDefinition) EstimatedDuration() time.Duration {
	return time.Duration(s.EstimatedDurationMinutes) * time.Minute
}

// FieldError describes why one field failed validation
type FieldError struct {
	FieldID   string `json:"fieldId"`
	FieldName string `json:"fieldName"`
	Reason    string `json:"reason"`
}

// ValidationResult is the outcome of validating a submission against a
// station's completion rule. It is a value, never an error: callers decide
// how to surface failures.
type ValidationResult struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors,omitempty"`
}

func (r *ValidationResult) addError(f *FieldDefinition, reason string) {
	r.Valid = false
	r.Errors = append(r.Errors, FieldError{FieldID: f.ID, FieldName: f.Name, Reason: reason})
}

// FieldMap returns the errors keyed by field id, for error-response details
func (r *ValidationResult) FieldMap() map[string]string {
	if len(r.Errors) == 0 {
		return nil
	}
	m := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		m[e.FieldID] = e.Reason
	}
	return m
}

// ValidateSubmission checks captured field data against the station's
// completion rule. Under all_filled every required field must carry a valid
// non-empty value; under custom only the type-correctness of provided values
// is checked.
func (s *StationDefinition) ValidateSubmission(capturedFieldData map[string]string) ValidationResult {
	result := s.ValidateValues(capturedFieldData)

	if s.CompletionRule == CompletionRuleCustom {
		return result
	}

	for i := range s.Fields {
		f := &s.Fields[i]
		if !f.Required {
			continue
		}
		if capturedFieldData[f.ID] == "" {
			result.addError(f, "required field is missing")
		}
	}

	return result
}

// ValidateValues type-checks every provided value without applying
// required-ness. Unknown field ids are rejected so typos never land in the
// ledger silently.
func (s *StationDefinition) ValidateValues(capturedFieldData map[string]string) ValidationResult {
	result := ValidationResult{Valid: true}

	for fieldID, value := range capturedFieldData {
		f, ok := s.FieldByID(fieldID)
		if !ok {
			result.Valid = false
			result.Errors = append(result.Errors, FieldError{
				FieldID: fieldID,
				Reason:  "field is not defined on this station",
			})
			continue
		}
		if err := f.ValidateValue(value); err != nil {
			result.addError(f, err.Error())
		}
	}

	return result
}
