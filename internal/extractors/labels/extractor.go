// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package labels

import (
	"regexp"
	"strings"
	"unicode"

	"taxform-scan/internal/detector"
	"taxform-scan/internal/fields"
)

// Confidence assigned to labelled values
const Confidence = 0.9

// Value expressions shared by several labels
const (
	moneyValue  = `\$?[ \t]*(-?[0-9][0-9,]*(?:\.\d{1,2})?)`
	ssnValue    = `(\d{3}-?\d{2}-?\d{4})\b`
	einValue    = `(\d{2}-?\d{7})\b`
	dateValue   = `(\d{1,2}[/-]\d{1,2}[/-]\d{4}|\d{4}-\d{1,2}-\d{1,2})`
	personValue = `(\p{L}[\p{L} .'\-]*?)[ \t]*(?:\n|$|\bSSN\b|\bSocial Security\b)`
	lineValue   = `([^\n]+?)[ \t]*$`
)

// qualifiers mark a label as belonging to another party, as in "Employee Name"
var qualifiers = []string{"employee", "employer", "spouse", "business", "payer", "recipient", "corporation", "company", "email", "e-mail"}

type rule struct {
	field    fields.Name
	pattern  string
	clean    func(string) string
	skipWhen []string
}

var rules = []rule{
	{field: fields.FieldName, pattern: `(?im)\bName[:\s]+` + personValue, skipWhen: qualifiers},
	{field: fields.FieldSSN, pattern: `(?i)\b(?:SSN|Social Security Number|Social Security No\.?)[:\s#]*` + ssnValue, skipWhen: qualifiers},
	{field: fields.FieldSpouseName, pattern: `(?im)\bSpouse(?:'s)?\s+Name[:\s]+` + personValue},
	{field: fields.FieldSpouseSSN, pattern: `(?i)\bSpouse(?:'s)?\s+(?:SSN|Social Security Number)[:\s#]*` + ssnValue},
	{field: fields.FieldDependents, pattern: `(?i)\b(?:Number of\s+)?Dependents[:\s]*(\d+)\b`},
	{field: fields.FieldFilingStatus, pattern: `(?i)\bFiling Status[:\s]*(Single|Married Filing Jointly|Married Filing Separately|Head of Household|Qualifying Widow(?:\(er\)|er)?|Qualifying Surviving Spouse)`},
	{field: fields.FieldTotalIncome, pattern: `(?i)\bTotal Income[:\s]*` + moneyValue, clean: cleanMoney},
	{field: fields.FieldTaxableIncome, pattern: `(?i)\bTaxable Income[:\s]*` + moneyValue, clean: cleanMoney},
	{field: fields.FieldWages, pattern: `(?i)\bWages(?:,\s*tips,?\s*(?:and\s+)?other\s+compensation)?[:\s]*` + moneyValue, clean: cleanMoney, skipWhen: []string{"state", "medicare", "security"}},
	{field: fields.FieldFederalTaxWithheld, pattern: `(?i)\bFederal (?:Income )?Tax Withheld[:\s]*` + moneyValue, clean: cleanMoney},
	{field: fields.FieldStateWages, pattern: `(?i)\bState Wages(?:,\s*tips,?\s*etc\.?)?[:\s]*` + moneyValue, clean: cleanMoney},
	{field: fields.FieldStateTaxWithheld, pattern: `(?i)\bState (?:Income )?Tax Withheld[:\s]*` + moneyValue, clean: cleanMoney},
	{field: fields.FieldAddress, pattern: `(?im)\bAddress[:\s]+([\p{L}0-9][\p{L}0-9 .,#'\-]*?)[ \t]*(?:\n|$|\bCity\b)`, skipWhen: qualifiers},
	{field: fields.FieldCity, pattern: `(?im)\bCity[:\s]+(\p{L}[\p{L} .'\-]*?)[ \t]*(?:,|\n|$|\bState\b)`},
	{field: fields.FieldState, pattern: `(?i:\bState)[ \t]*:?[ \t]*([A-Z]{2})\b`},
	{field: fields.FieldZipCode, pattern: `(?i)\b(?:ZIP(?: Code)?|Postal Code)[:\s]*(\d{5}(?:-\d{4})?)\b`},
	{field: fields.FieldTaxYear, pattern: `(?i)\b(?:Tax Year|Year)[:\s]*((?:19|20)\d{2})\b`},
	{field: fields.FieldEmployeeName, pattern: `(?im)\bEmployee(?:'s)?\s+Name[:\s]+` + personValue},
	{field: fields.FieldEmployeeSSN, pattern: `(?i)\bEmployee(?:'s)?\s+(?:SSN|Social Security Number)[:\s#]*` + ssnValue},
	{field: fields.FieldEmployerName, pattern: `(?im)\bEmployer(?:'s)?\s+Name[ \t]*:?[ \t]*` + lineValue},
	{field: fields.FieldEmployerEIN, pattern: `(?i)\bEmployer(?:'s)?\s+(?:EIN|Identification Number|ID Number)[:\s#]*` + einValue},
	{field: fields.FieldEIN, pattern: `(?i)\b(?:EIN|Employer Identification Number)[:\s#]*` + einValue, skipWhen: []string{"employer", "payer"}},
	{field: fields.FieldPayerName, pattern: `(?im)\bPayer(?:'s)?\s+Name[ \t]*:?[ \t]*` + lineValue},
	{field: fields.FieldPayerTIN, pattern: `(?i)\bPayer(?:'s)?\s+(?:TIN|Federal Identification Number)[:\s#]*(\d{2}-?\d{7}|\d{3}-?\d{2}-?\d{4})\b`},
	{field: fields.FieldRecipientName, pattern: `(?im)\bRecipient(?:'s)?\s+Name[ \t]*:?[ \t]*` + lineValue},
	{field: fields.FieldRecipientTIN, pattern: `(?i)\bRecipient(?:'s)?\s+(?:TIN|Identification Number)[:\s#]*(\d{3}-?\d{2}-?\d{4}|\d{2}-?\d{7})\b`},
	{field: fields.FieldNonemployeeCompensation, pattern: `(?i)\bNonemployee Compensation[:\s]*` + moneyValue, clean: cleanMoney},
	{field: fields.FieldBusinessName, pattern: `(?im)\bBusiness Name[ \t]*:?[ \t]*` + lineValue},
	{field: fields.FieldGrossReceipts, pattern: `(?i)\bGross Receipts(?: or Sales)?[:\s]*` + moneyValue, clean: cleanMoney},
	{field: fields.FieldTotalExpenses, pattern: `(?i)\bTotal Expenses[:\s]*` + moneyValue, clean: cleanMoney},
	{field: fields.FieldNetProfit, pattern: `(?i)\bNet Profit(?: or \(?Loss\)?)?[:\s]*` + moneyValue, clean: cleanMoney},
	{field: fields.FieldQuarter, pattern: `(?i)\bQuarter[:\s]*Q?([1-4])\b`},
	{field: fields.FieldNumberOfEmployees, pattern: `(?i)\bNumber of Employees[:\s]*(\d[\d,]*)`, clean: cleanMoney},
	{field: fields.FieldTotalTax, pattern: `(?i)\bTotal (?:Taxes|Tax Liability|Tax)[:\s]*` + moneyValue, clean: cleanMoney},
	{field: fields.FieldCorporationName, pattern: `(?im)\b(?:Corporation|Company) Name[ \t]*:?[ \t]*` + lineValue},
	{field: fields.FieldTotalAssets, pattern: `(?i)\bTotal Assets[:\s]*` + moneyValue, clean: cleanMoney},
	{field: fields.FieldDateOfBirth, pattern: `(?i)\b(?:Date of Birth|DOB|Birth Date)[:\s]*` + dateValue},
	{field: fields.FieldHireDate, pattern: `(?i)\b(?:Hire Date|Date of Hire)[:\s]*` + dateValue},
	{field: fields.FieldTerminationDate, pattern: `(?i)\b(?:Termination Date|Date of Termination)[:\s]*` + dateValue},
}

func cleanMoney(s string) string {
	return strings.NewReplacer("$", "", ",", "").Replace(s)
}

type compiledRule struct {
	rule
	regex *regexp.Regexp
}

// Extractor reads "Label: value" pairs printed on a form. Its entities are
// named after vocabulary fields and feed the field map directly.
type Extractor struct {
	rules []compiledRule
}

// NewExtractor compiles the label table
func NewExtractor() *Extractor {
	e := &Extractor{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		e.rules = append(e.rules, compiledRule{rule: r, regex: regexp.MustCompile(r.pattern)})
	}
	return e
}

func (e *Extractor) Name() string { return "labels" }

// Extract returns one entity per labelled value, spanning the value only
func (e *Extractor) Extract(text string) []detector.Entity {
	var entities []detector.Entity
	offsets := detector.NewOffsets(text)
	for _, r := range e.rules {
		for _, loc := range r.regex.FindAllStringSubmatchIndex(text, -1) {
			if loc[2] < 0 || precededBy(text[:loc[0]], r.skipWhen) {
				continue
			}
			value := strings.TrimSpace(text[loc[2]:loc[3]])
			if r.clean != nil {
				value = r.clean(value)
			}
			if value == "" {
				continue
			}
			start, end := offsets.Span(loc[2], loc[3])
			entities = append(entities, detector.Entity{
				Type:       string(r.field),
				Value:      value,
				Confidence: Confidence,
				Start:      start,
				End:        end,
				Source:     e.Name(),
			})
		}
	}
	return entities
}

// Fields collects the labelled values of text into m
func (e *Extractor) Fields(text string, m *fields.Map) {
	for _, ent := range e.Extract(text) {
		_ = m.Add(fields.Name(ent.Type), ent.Value)
	}
}

// precededBy reports whether the word right before a label is one of words
func precededBy(before string, words []string) bool {
	if len(words) == 0 {
		return false
	}
	before = strings.TrimRightFunc(before, unicode.IsSpace)
	start := strings.LastIndexFunc(before, func(r rune) bool {
		return !(unicode.IsLetter(r) || r == '\'' || r == '-')
	}) + 1
	word := strings.ToLower(strings.TrimSuffix(before[start:], "'s"))
	for _, w := range words {
		if word == w {
			return true
		}
	}
	return false
}
