// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxform-scan/internal/fields"
	"taxform-scan/internal/forms"
)

func newValidator() *Validator {
	fixed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return NewValidator(forms.Default()).WithClock(func() time.Time { return fixed })
}

func mapOf(t *testing.T, kv map[fields.Name]string) *fields.Map {
	t.Helper()
	m := fields.NewMap()
	for k, v := range kv {
		require.NoError(t, m.Add(k, v))
	}
	return m
}

func TestValidate_EmptyFormReportsEveryRequiredField(t *testing.T) {
	res := newValidator().Validate(forms.Form1040, fields.NewMap())

	assert.False(t, res.IsValid)
	assert.Equal(t, []string{
		"Required field 'name' is missing",
		"Required field 'ssn' is missing",
		"Required field 'filing_status' is missing",
		"Required field 'total_income' is missing",
	}, res.Errors)
	assert.Empty(t, res.Warnings)
	assert.InDelta(t, 0.2, res.Confidence, 1e-9)
}

func TestValidate_PlaceholderSSN(t *testing.T) {
	res := newValidator().Validate(forms.Unknown, mapOf(t, map[fields.Name]string{
		fields.FieldSSN: "123-45-6789",
	}))

	assert.True(t, res.IsValid)
	assert.Equal(t, []string{"SSN appears to be a placeholder: 123-45-6789"}, res.Warnings)
	assert.InDelta(t, 0.8, res.Confidence, 1e-9)
}

func TestValidate_Ranges(t *testing.T) {
	tests := []struct {
		name       string
		wages      string
		wantErrs   int
		wantWarns  []string
		confidence float64
	}{
		{"in range", "$52,000.00", 0, nil, 1.0},
		{"negative", "-5", 1, nil, 0.7},
		{"too high", "6,000,000", 0, []string{"Field 'wages' value 6000000 seems unusually high (max: 5000000)"}, 0.9},
		{"not a number", "n/a", 0, []string{`Could not validate numeric field 'wages': "n/a" is not a number`}, 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := mapOf(t, map[fields.Name]string{
				fields.FieldEmployeeName: "Jane Roe",
				fields.FieldEmployeeSSN:  "412-55-9087",
				fields.FieldEmployerEIN:  "12-3456789",
				fields.FieldWages:        tt.wages,
			})
			res := newValidator().Validate(forms.FormW2, data)

			assert.Len(t, res.Errors, tt.wantErrs)
			if tt.wantWarns == nil {
				assert.Empty(t, res.Warnings)
			} else {
				assert.Equal(t, tt.wantWarns, res.Warnings)
			}
			assert.InDelta(t, tt.confidence, res.Confidence, 1e-9)
		})
	}
}

func TestValidate_BelowMinimumMessage(t *testing.T) {
	res := newValidator().Validate(forms.Form1040, mapOf(t, map[fields.Name]string{
		fields.FieldName:         "John Smith",
		fields.FieldSSN:          "412-55-9087",
		fields.FieldFilingStatus: "Single",
		fields.FieldTotalIncome:  "-100.50",
	}))
	assert.Equal(t, []string{"Field 'total_income' value -100.5 is below minimum 0"}, res.Errors)
}

func TestValidate_IdentifierFormats(t *testing.T) {
	res := newValidator().Validate(forms.Unknown, mapOf(t, map[fields.Name]string{
		fields.FieldSSN: "123456789",
		fields.FieldEIN: "123-456789",
	}))

	assert.False(t, res.IsValid)
	assert.Equal(t, []string{"Invalid SSN format: 123456789", "Invalid EIN format: 123-456789"}, res.Errors)
	assert.InDelta(t, 0.4, res.Confidence, 1e-9)
}

func TestValidate_Dates(t *testing.T) {
	res := newValidator().Validate(forms.Unknown, mapOf(t, map[fields.Name]string{
		fields.FieldDateOfBirth:     "02/30/1899",
		fields.FieldHireDate:        "2031-01-15",
		fields.FieldTerminationDate: "1/5/1850",
	}))

	assert.True(t, res.IsValid)
	assert.Equal(t, []string{
		"Could not parse date in field 'date_of_birth': 02/30/1899",
		"Future date in field 'hire_date': 2031-01-15",
		"Very old date in field 'termination_date': 1/5/1850",
	}, res.Warnings)
	assert.InDelta(t, 0.7, res.Confidence, 1e-9)
}

func TestValidate_PartyIdentifiersSkipFormatChecks(t *testing.T) {
	res := newValidator().Validate(forms.FormW2, mapOf(t, map[fields.Name]string{
		fields.FieldEmployeeName: "Jane Roe",
		fields.FieldEmployeeSSN:  "123-45-6789",
		fields.FieldEmployerEIN:  "12-3456789",
		fields.FieldWages:        "52000",
		fields.FieldSpouseSSN:    "000000000",
	}))

	assert.True(t, res.IsValid, res.Errors)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, 1.0, res.Confidence)
}

func TestValidate_ConfidenceNeverNegative(t *testing.T) {
	data := mapOf(t, map[fields.Name]string{
		fields.FieldEmployeeSSN: "bad",
		fields.FieldEmployerEIN: "bad",
		fields.FieldEIN:         "bad",
		fields.FieldSSN:         "bad",
		fields.FieldWages:       "-1",
	})
	res := newValidator().Validate(forms.FormW2, data)

	assert.False(t, res.IsValid)
	assert.Zero(t, res.Confidence)
}

func TestValidate_UnknownFormSkipsRuleTables(t *testing.T) {
	res := newValidator().Validate("8949", fields.NewMap())
	assert.True(t, res.IsValid)
	assert.Equal(t, 1.0, res.Confidence)
	assert.NotNil(t, res.Errors)
	assert.NotNil(t, res.Warnings)
}

func TestParseAmount(t *testing.T) {
	v, err := ParseAmount(" $1,234.56 ")
	require.NoError(t, err)
	assert.Equal(t, 1234.56, v)

	_, err = ParseAmount("NaN")
	assert.Error(t, err)
}
