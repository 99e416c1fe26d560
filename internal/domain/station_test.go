package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStation(rule CompletionRule) *StationDefinition {
	station, err := NewStationDefinition("st-assembly", "Assembly", "line-1", rule, 60, []FieldDefinition{
		{ID: "f-serial", Name: "Serial Number", Type: FieldTypeText, Required: true},
		{ID: "f-torque", Name: "Torque", Type: FieldTypeNumber, Required: true},
		{ID: "f-remark", Name: "Remark", Type: FieldTypeTextarea},
	})
	if err != nil {
		panic(err)
	}
	return station
}

func TestNewStationDefinition(t *testing.T) {
	tests := []struct {
		name        string
		stationName string
		owner       string
		rule        CompletionRule
		duration    int
		fields      []FieldDefinition
		expectError bool
	}{
		{
			name:        "valid station",
			stationName: "QC",
			owner:       "qc-team",
			rule:        CompletionRuleCustom,
			duration:    30,
			fields:      []FieldDefinition{{ID: "f1", Name: "Result", Type: FieldTypeSelect, Options: []string{"pass", "fail"}}},
		},
		{
			name:        "negative duration",
			stationName: "QC",
			owner:       "qc-team",
			rule:        CompletionRuleAllFilled,
			duration:    -1,
			expectError: true,
		},
		{
			name:        "unknown completion rule",
			stationName: "QC",
			owner:       "qc-team",
			rule:        CompletionRule("majority"),
			expectError: true,
		},
		{
			name:        "duplicate field ids",
			stationName: "QC",
			owner:       "qc-team",
			rule:        CompletionRuleAllFilled,
			fields: []FieldDefinition{
				{ID: "f1", Name: "A", Type: FieldTypeText},
				{ID: "f1", Name: "B", Type: FieldTypeText},
			},
			expectError: true,
		},
		{
			name:        "select field without options rejected",
			stationName: "QC",
			owner:       "qc-team",
			rule:        CompletionRuleAllFilled,
			fields:      []FieldDefinition{{ID: "f1", Name: "Result", Type: FieldTypeSelect}},
			expectError: true,
		},
		{
			name:        "missing owner",
			stationName: "QC",
			owner:       "",
			rule:        CompletionRuleAllFilled,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			station, err := NewStationDefinition("st-1", tt.stationName, tt.owner, tt.rule, tt.duration, tt.fields)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.stationName, station.Name)
		})
	}
}

func TestValidateSubmission_AllFilled(t *testing.T) {
	station := testStation(CompletionRuleAllFilled)

	t.Run("all required fields present", func(t *testing.T) {
		result := station.ValidateSubmission(map[string]string{
			"f-serial": "SN-1234",
			"f-torque": "12.5",
		})
		assert.True(t, result.Valid)
		assert.Empty(t, result.Errors)
	})

	t.Run("missing required field names the field", func(t *testing.T) {
		result := station.ValidateSubmission(map[string]string{
			"f-serial": "SN-1234",
		})
		require.False(t, result.Valid)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "f-torque", result.Errors[0].FieldID)
		assert.Equal(t, "Torque", result.Errors[0].FieldName)
	})

	t.Run("type error on provided value", func(t *testing.T) {
		result := station.ValidateSubmission(map[string]string{
			"f-serial": "SN-1234",
			"f-torque": "very tight",
		})
		require.False(t, result.Valid)
		assert.Equal(t, "f-torque", result.Errors[0].FieldID)
	})

	t.Run("optional field may stay empty", func(t *testing.T) {
		result := station.ValidateSubmission(map[string]string{
			"f-serial": "SN-1234",
			"f-torque": "12.5",
			"f-remark": "",
		})
		assert.True(t, result.Valid)
	})

	t.Run("unknown field id rejected", func(t *testing.T) {
		result := station.ValidateSubmission(map[string]string{
			"f-serial": "SN-1234",
			"f-torque": "12.5",
			"f-bogus":  "x",
		})
		require.False(t, result.Valid)
		assert.Equal(t, "f-bogus", result.Errors[0].FieldID)
	})
}

func TestValidateSubmission_Custom(t *testing.T) {
	station := testStation(CompletionRuleCustom)

	t.Run("incomplete submission is valid", func(t *testing.T) {
		result := station.ValidateSubmission(map[string]string{})
		assert.True(t, result.Valid)
	})

	t.Run("provided values are still type checked", func(t *testing.T) {
		result := station.ValidateSubmission(map[string]string{
			"f-torque": "very tight",
		})
		assert.False(t, result.Valid)
	})
}

func TestValidationResult_FieldMap(t *testing.T) {
	station := testStation(CompletionRuleAllFilled)
	result := station.ValidateSubmission(map[string]string{})

	m := result.FieldMap()
	require.Len(t, m, 2)
	assert.Contains(t, m, "f-serial")
	assert.Contains(t, m, "f-torque")
}
