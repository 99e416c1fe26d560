package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FieldType represents the kind of datum a field captures
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeNumber   FieldType = "number"
	FieldTypeDate     FieldType = "date"
	FieldTypeSelect   FieldType = "select"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeTextarea FieldType = "textarea"
)

// IsValid reports whether the field type is one of the known kinds
func (t FieldType) IsValid() bool {
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeDate, FieldTypeSelect, FieldTypeCheckbox, FieldTypeTextarea:
		return true
	}
	return false
}

// FieldDefinition describes one capturable datum on a station. It is a value
// object owned by exactly one StationDefinition; once a history entry has
// captured data against its id it must not be removed or retyped.
type FieldDefinition struct {
	ID           string    `bson:"id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Type         FieldType `bson:"type" json:"type"`
	Required     bool      `bson:"required" json:"required"`
	Options      []string  `bson:"options,omitempty" json:"options,omitempty"`
	DefaultValue string    `bson:"defaultValue,omitempty" json:"defaultValue,omitempty"`
}

// NewFieldDefinition creates a field definition, validating the type/options
// contract: select fields carry at least one option, non-select fields none.
func NewFieldDefinition(id, name string, fieldType FieldType, required bool, options []string, defaultValue string) (*FieldDefinition, error) {
	if id == "" {
		return nil, fmt.Errorf("field id is required")
	}
	if name == "" {
		return nil, fmt.Errorf("field name is required")
	}
	if !fieldType.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFieldType, fieldType)
	}
	if fieldType == FieldTypeSelect && len(options) == 0 {
		return nil, fmt.Errorf("select field %q requires at least one option", name)
	}
	if fieldType != FieldTypeSelect && len(options) > 0 {
		return nil, fmt.Errorf("field %q of type %s must not carry options", name, fieldType)
	}

	f := &FieldDefinition{
		ID:           id,
		Name:         name,
		Type:         fieldType,
		Required:     required,
		Options:      options,
		DefaultValue: defaultValue,
	}

	if defaultValue != "" {
		if err := f.ValidateValue(defaultValue); err != nil {
			return nil, fmt.Errorf("invalid default value for field %q: %w", name, err)
		}
	}

	return f, nil
}

// dateLayouts accepted for date field values
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// ValidateValue checks a non-empty submitted value against the field's type.
// Empty values are handled by the completion rule, not here.
func (f *FieldDefinition) ValidateValue(value string) error {
	if value == "" {
		return nil
	}

	switch f.Type {
	case FieldTypeText, FieldTypeTextarea:
		return nil
	case FieldTypeNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("value %q is not numeric", value)
		}
	case FieldTypeDate:
		for _, layout := range dateLayouts {
			if _, err := time.Parse(layout, value); err == nil {
				return nil
			}
		}
		return fmt.Errorf("value %q is not a valid date", value)
	case FieldTypeSelect:
		for _, opt := range f.Options {
			if value == opt {
				return nil
			}
		}
		return fmt.Errorf("value %q is not one of the allowed options", value)
	case FieldTypeCheckbox:
		switch strings.ToLower(value) {
		case "true", "false", "1", "0", "yes", "no", "on", "off":
			return nil
		}
		return fmt.Errorf("value %q is not boolean-like", value)
	}

	return nil
}
