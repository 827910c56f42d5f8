// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package forms

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxform-scan/internal/fields"
)

func TestDefaultCatalog_Order(t *testing.T) {
	assert.Equal(t,
		[]FormType{Form1040, FormW2, Form1099, FormScheduleC, Form941, Form1120},
		Default().Order())
}

func TestDefaultCatalog_1040Rules(t *testing.T) {
	def, ok := Default().Get(Form1040)
	require.True(t, ok)
	assert.Equal(t, []fields.Name{"name", "ssn", "filing_status", "total_income"}, def.RequiredFields)
	assert.Equal(t, []RangeRule{
		{Field: "total_income", Min: 0, Max: 10_000_000},
		{Field: "federal_tax_withheld", Min: 0, Max: 5_000_000},
	}, def.Ranges)
}

func TestCatalog_GetReturnsCopy(t *testing.T) {
	def, _ := Default().Get(FormW2)
	def.RequiredFields[0] = "tampered"

	again, _ := Default().Get(FormW2)
	assert.Equal(t, fields.FieldEmployeeName, again.RequiredFields[0])
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Wage and Tax Statement", Default().DisplayName(FormW2))
	assert.Equal(t, "Form 8949", Default().DisplayName("8949"))
}

func TestParseFormType(t *testing.T) {
	tests := map[string]FormType{
		"1040":       Form1040,
		"w-2":        FormW2,
		"Form W2":    FormW2,
		"schedule-c": FormScheduleC,
		"Schedule C": FormScheduleC,
		"1099-NEC":   Form1099,
		"unknown":    Unknown,
	}
	for in, want := range tests {
		got, ok := ParseFormType(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseFormType("8949")
	assert.False(t, ok)
}

func TestLoadCatalog_OverridesAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `forms:
  - type: "W2"
    name: "Wage and Tax Statement"
    keywords: ["wage and tax statement"]
    required_fields: [employee_name, wages]
    ranges:
      - field: wages
        min: 0
        max: 1000000
  - type: "8949"
    name: "Sales and Other Dispositions of Capital Assets"
    keywords: ["capital assets", "proceeds"]
    required_fields: [name, ssn]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	c, err := LoadCatalog(path)
	require.NoError(t, err)

	w2, ok := c.Get(FormW2)
	require.True(t, ok)
	assert.Equal(t, []fields.Name{"employee_name", "wages"}, w2.RequiredFields)
	assert.Equal(t, FormType("8949"), c.Order()[len(c.Order())-1])
	assert.Equal(t, FormW2, c.Order()[1])
}

func TestCatalog_Resolve(t *testing.T) {
	c, err := ParseCatalog([]byte(`forms:
  - type: "8949"
    name: "Sales and Other Dispositions of Capital Assets"
    keywords: ["capital assets"]
  - type: "W-4"
    name: "Employee's Withholding Certificate"
    keywords: ["withholding certificate"]
`))
	require.NoError(t, err)

	tests := []struct {
		in   string
		want FormType
		ok   bool
	}{
		{"w-2", FormW2, true},
		{"8949", "8949", true},
		{"Form 8949", "8949", true},
		{"w4", "W-4", true},
		{"W-9", "W-9", false},
	}
	for _, tt := range tests {
		got, ok := c.Resolve(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, ok := Default().Resolve("8949")
	assert.False(t, ok)
}

func TestLoadCatalog_RejectsUnknownField(t *testing.T) {
	_, err := ParseCatalog([]byte(`forms:
  - type: "1040"
    keywords: ["filing status"]
    required_fields: [shoe_size]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shoe_size")
}

func TestNewCatalog_RejectsInvertedRange(t *testing.T) {
	_, err := NewCatalog([]Definition{{
		Type:     "X",
		Keywords: []string{"x"},
		Ranges:   []RangeRule{{Field: fields.FieldWages, Min: 10, Max: 1}},
	}})
	require.Error(t, err)
}
