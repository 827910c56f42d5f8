// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package forms

import (
	"taxform-scan/internal/fields"
)

var defaultDefinitions = []Definition{
	{
		Type:     Form1040,
		Name:     "U.S. Individual Income Tax Return",
		Keywords: []string{"individual income tax return", "filing status", "standard deduction", "taxable income"},
		Headers:  []string{"FORM 1040", "U.S. INDIVIDUAL INCOME TAX RETURN"},
		RequiredFields: []fields.Name{
			fields.FieldName, fields.FieldSSN, fields.FieldFilingStatus, fields.FieldTotalIncome,
		},
		OptionalFields: []fields.Name{fields.FieldSpouseName, fields.FieldSpouseSSN, fields.FieldDependents},
		Ranges: []RangeRule{
			{Field: fields.FieldTotalIncome, Min: 0, Max: 10_000_000},
			{Field: fields.FieldFederalTaxWithheld, Min: 0, Max: 5_000_000},
		},
	},
	{
		Type:     FormW2,
		Name:     "Wage and Tax Statement",
		Keywords: []string{"wage and tax statement", "employer", "employee", "federal income tax withheld"},
		Headers:  []string{"FORM W-2", "WAGE AND TAX STATEMENT"},
		RequiredFields: []fields.Name{
			fields.FieldEmployeeName, fields.FieldEmployeeSSN, fields.FieldEmployerEIN, fields.FieldWages,
		},
		OptionalFields: []fields.Name{fields.FieldStateWages, fields.FieldStateTaxWithheld},
		Ranges: []RangeRule{
			{Field: fields.FieldWages, Min: 0, Max: 5_000_000},
			{Field: fields.FieldFederalTaxWithheld, Min: 0, Max: 2_000_000},
		},
	},
	{
		Type:     Form1099,
		Name:     "Miscellaneous Income",
		Keywords: []string{"miscellaneous income", "nonemployee compensation", "payer", "recipient"},
		Headers:  []string{"FORM 1099", "MISCELLANEOUS INCOME"},
		RequiredFields: []fields.Name{
			fields.FieldPayerName, fields.FieldRecipientName, fields.FieldRecipientTIN,
		},
		OptionalFields: []fields.Name{fields.FieldPayerTIN, fields.FieldNonemployeeCompensation},
		Ranges: []RangeRule{
			{Field: fields.FieldNonemployeeCompensation, Min: 0, Max: 10_000_000},
			{Field: fields.FieldFederalTaxWithheld, Min: 0, Max: 5_000_000},
		},
	},
	{
		Type:     FormScheduleC,
		Name:     "Profit or Loss From Business",
		Keywords: []string{"profit or loss", "business income", "business expenses", "net profit"},
		Headers:  []string{"SCHEDULE C", "PROFIT OR LOSS FROM BUSINESS"},
		RequiredFields: []fields.Name{
			fields.FieldName, fields.FieldSSN, fields.FieldBusinessName, fields.FieldNetProfit,
		},
		OptionalFields: []fields.Name{fields.FieldEIN, fields.FieldGrossReceipts, fields.FieldTotalExpenses},
		Ranges: []RangeRule{
			{Field: fields.FieldGrossReceipts, Min: 0, Max: 100_000_000},
			{Field: fields.FieldTotalExpenses, Min: 0, Max: 100_000_000},
			{Field: fields.FieldNetProfit, Min: -100_000_000, Max: 100_000_000},
		},
	},
	{
		Type:     Form941,
		Name:     "Employer's Quarterly Federal Tax Return",
		Keywords: []string{"quarterly return", "employer", "payroll tax", "employment tax"},
		Headers:  []string{"FORM 941", "QUARTERLY FEDERAL TAX RETURN"},
		RequiredFields: []fields.Name{
			fields.FieldEmployerName, fields.FieldEmployerEIN, fields.FieldQuarter,
		},
		OptionalFields: []fields.Name{fields.FieldNumberOfEmployees, fields.FieldWages, fields.FieldTotalTax},
		Ranges: []RangeRule{
			{Field: fields.FieldQuarter, Min: 1, Max: 4},
			{Field: fields.FieldNumberOfEmployees, Min: 0, Max: 1_000_000},
			{Field: fields.FieldTotalTax, Min: 0, Max: 100_000_000},
		},
	},
	{
		Type:     Form1120,
		Name:     "U.S. Corporation Income Tax Return",
		Keywords: []string{"corporation income tax", "corporate tax", "c corporation", "net income"},
		Headers:  []string{"FORM 1120", "CORPORATION INCOME TAX RETURN"},
		RequiredFields: []fields.Name{
			fields.FieldCorporationName, fields.FieldEIN, fields.FieldTotalIncome,
		},
		OptionalFields: []fields.Name{fields.FieldTaxableIncome, fields.FieldTotalAssets, fields.FieldTotalTax},
		Ranges: []RangeRule{
			{Field: fields.FieldTotalIncome, Min: 0, Max: 100_000_000_000},
			{Field: fields.FieldTotalAssets, Min: 0, Max: 1_000_000_000_000},
		},
	},
}

var defaultCatalog = func() *Catalog {
	c, err := NewCatalog(defaultDefinitions)
	if err != nil {
		panic("forms: invalid built-in catalog: " + err.Error())
	}
	return c
}()

// Default returns the built-in catalog
func Default() *Catalog {
	return defaultCatalog
}
