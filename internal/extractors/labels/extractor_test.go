// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package labels

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"taxform-scan/internal/fields"
)

func collect(text string) *fields.Map {
	m := fields.NewMap()
	NewExtractor().Fields(text, m)
	return m
}

func TestFields_1040(t *testing.T) {
	m := collect("Form 1040\nName: John Doe\nSSN: 123-45-6789\nFiling Status: Single\nTotal Income: $50,000")

	assert.Equal(t, []string{"John Doe"}, m.Values(fields.FieldName))
	assert.Equal(t, []string{"123-45-6789"}, m.Values(fields.FieldSSN))
	assert.Equal(t, []string{"Single"}, m.Values(fields.FieldFilingStatus))
	assert.Equal(t, []string{"50000"}, m.Values(fields.FieldTotalIncome))
}

func TestFields_W2(t *testing.T) {
	text := `Form W-2 Wage and Tax Statement
Employee Name: Jane Roe
Employee SSN: 412-55-9087
Employer Name: Acme Widgets, Inc.
Employer EIN: 12-3456789
Wages, tips, other compensation: $52,000.00
Federal Income Tax Withheld: $6,100.00
State Wages: 52,000.00
`
	m := collect(text)

	assert.Equal(t, []string{"Jane Roe"}, m.Values(fields.FieldEmployeeName))
	assert.Equal(t, []string{"412-55-9087"}, m.Values(fields.FieldEmployeeSSN))
	assert.Equal(t, []string{"Acme Widgets, Inc."}, m.Values(fields.FieldEmployerName))
	assert.Equal(t, []string{"12-3456789"}, m.Values(fields.FieldEmployerEIN))
	assert.Equal(t, []string{"52000.00"}, m.Values(fields.FieldWages))
	assert.Equal(t, []string{"6100.00"}, m.Values(fields.FieldFederalTaxWithheld))
	assert.Equal(t, []string{"52000.00"}, m.Values(fields.FieldStateWages))

	// qualified labels do not leak into the taxpayer fields
	assert.False(t, m.Has(fields.FieldName))
	assert.False(t, m.Has(fields.FieldSSN))
	assert.False(t, m.Has(fields.FieldEIN))
}

func TestFields_AddressBlock(t *testing.T) {
	m := collect("Address: 42 Elm Street\nCity: Springfield\nState: IL\nZIP: 62704\nTax Year: 2024\nEmail Address: j@example.com")

	assert.Equal(t, []string{"42 Elm Street"}, m.Values(fields.FieldAddress))
	assert.Equal(t, []string{"Springfield"}, m.Values(fields.FieldCity))
	assert.Equal(t, []string{"IL"}, m.Values(fields.FieldState))
	assert.Equal(t, []string{"62704"}, m.Values(fields.FieldZipCode))
	assert.Equal(t, []string{"2024"}, m.Values(fields.FieldTaxYear))
}

func TestFields_Dates(t *testing.T) {
	m := collect("Date of Birth: 04/12/1985\nHire Date: 2019-06-01")

	assert.Equal(t, []string{"04/12/1985"}, m.Values(fields.FieldDateOfBirth))
	assert.Equal(t, []string{"2019-06-01"}, m.Values(fields.FieldHireDate))
}

func TestExtract_SpansPointAtValues(t *testing.T) {
	text := "Total Income: $75,000.00"
	got := NewExtractor().Extract(text)

	assert.Len(t, got, 1)
	assert.Equal(t, "75,000.00", text[got[0].Start:got[0].End])
	assert.Equal(t, "75000.00", got[0].Value)
}

func TestPrecededBy(t *testing.T) {
	assert.True(t, precededBy("W-2\nEmployee ", qualifiers))
	assert.True(t, precededBy("Employer's ", qualifiers))
	assert.False(t, precededBy("Form 1040\n", qualifiers))
	assert.False(t, precededBy("", qualifiers))
}
