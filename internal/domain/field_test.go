package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFieldDefinition(t *testing.T) {
	tests := []struct {
		name        string
		fieldName   string
		fieldType   FieldType
		options     []string
		expectError bool
	}{
		{
			name:      "valid text field",
			fieldName: "serial-number",
			fieldType: FieldTypeText,
		},
		{
			name:      "valid select field with options",
			fieldName: "result",
			fieldType: FieldTypeSelect,
			options:   []string{"pass", "fail"},
		},
		{
			name:        "select field without options",
			fieldName:   "result",
			fieldType:   FieldTypeSelect,
			expectError: true,
		},
		{
			name:        "non-select field with options",
			fieldName:   "count",
			fieldType:   FieldTypeNumber,
			options:     []string{"1", "2"},
			expectError: true,
		},
		{
			name:        "unknown field type",
			fieldName:   "blob",
			fieldType:   FieldType("binary"),
			expectError: true,
		},
		{
			name:        "missing name",
			fieldName:   "",
			fieldType:   FieldTypeText,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field, err := NewFieldDefinition("f1", tt.fieldName, tt.fieldType, false, tt.options, "")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.fieldName, field.Name)
			assert.Equal(t, tt.fieldType, field.Type)
		})
	}
}

func TestNewFieldDefinition_InvalidDefault(t *testing.T) {
	_, err := NewFieldDefinition("f1", "count", FieldTypeNumber, false, nil, "not-a-number")
	assert.Error(t, err)
}

func TestFieldDefinition_ValidateValue(t *testing.T) {
	tests := []struct {
		name        string
		field       FieldDefinition
		value       string
		expectError bool
	}{
		{
			name:  "text accepts anything",
			field: FieldDefinition{ID: "f1", Name: "note", Type: FieldTypeText},
			value: "any text at all",
		},
		{
			name:  "number accepts integer",
			field: FieldDefinition{ID: "f1", Name: "count", Type: FieldTypeNumber},
			value: "42",
		},
		{
			name:  "number accepts decimal",
			field: FieldDefinition{ID: "f1", Name: "weight", Type: FieldTypeNumber},
			value: "3.14",
		},
		{
			name:        "number rejects non-numeric",
			field:       FieldDefinition{ID: "f1", Name: "count", Type: FieldTypeNumber},
			value:       "twelve",
			expectError: true,
		},
		{
			name:  "date accepts ISO date",
			field: FieldDefinition{ID: "f1", Name: "inspected", Type: FieldTypeDate},
			value: "2024-03-15",
		},
		{
			name:  "date accepts RFC3339",
			field: FieldDefinition{ID: "f1", Name: "inspected", Type: FieldTypeDate},
			value: "2024-03-15T10:30:00Z",
		},
		{
			name:        "date rejects garbage",
			field:       FieldDefinition{ID: "f1", Name: "inspected", Type: FieldTypeDate},
			value:       "yesterday",
			expectError: true,
		},
		{
			name:  "select accepts listed option",
			field: FieldDefinition{ID: "f1", Name: "result", Type: FieldTypeSelect, Options: []string{"pass", "fail"}},
			value: "pass",
		},
		{
			name:        "select rejects unlisted option",
			field:       FieldDefinition{ID: "f1", Name: "result", Type: FieldTypeSelect, Options: []string{"pass", "fail"}},
			value:       "maybe",
			expectError: true,
		},
		{
			name:  "checkbox accepts true",
			field: FieldDefinition{ID: "f1", Name: "done", Type: FieldTypeCheckbox},
			value: "true",
		},
		{
			name:  "checkbox accepts yes",
			field: FieldDefinition{ID: "f1", Name: "done", Type: FieldTypeCheckbox},
			value: "yes",
		},
		{
			name:        "checkbox rejects non-boolean",
			field:       FieldDefinition{ID: "f1", Name: "done", Type: FieldTypeCheckbox},
			value:       "probably",
			expectError: true,
		},
		{
			name:  "empty value passes type check",
			field: FieldDefinition{ID: "f1", Name: "count", Type: FieldTypeNumber},
			value: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.field.ValidateValue(tt.value)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
