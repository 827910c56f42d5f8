// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package fields

// Name identifies a field of the structured field map
type Name string

// Kind selects the domain checks applied to a field
type Kind int

const (
	KindText Kind = iota
	KindMoney
	KindCount
	KindSSN
	KindEIN
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindMoney:
		return "money"
	case KindCount:
		return "count"
	case KindSSN:
		return "ssn"
	case KindEIN:
		return "ein"
	case KindDate:
		return "date"
	default:
		return "text"
	}
}

// Labelled form fields
const (
	FieldName                    Name = "name"
	FieldSSN                     Name = "ssn"
	FieldSpouseName              Name = "spouse_name"
	FieldSpouseSSN               Name = "spouse_ssn"
	FieldDependents              Name = "dependents"
	FieldFilingStatus            Name = "filing_status"
	FieldTotalIncome             Name = "total_income"
	FieldTaxableIncome           Name = "taxable_income"
	FieldWages                   Name = "wages"
	FieldFederalTaxWithheld      Name = "federal_tax_withheld"
	FieldStateWages              Name = "state_wages"
	FieldStateTaxWithheld        Name = "state_tax_withheld"
	FieldAddress                 Name = "address"
	FieldCity                    Name = "city"
	FieldState                   Name = "state"
	FieldZipCode                 Name = "zip_code"
	FieldTaxYear                 Name = "tax_year"
	FieldEmployeeName            Name = "employee_name"
	FieldEmployeeSSN             Name = "employee_ssn"
	FieldEmployerName            Name = "employer_name"
	FieldEmployerEIN             Name = "employer_ein"
	FieldEIN                     Name = "ein"
	FieldPayerName               Name = "payer_name"
	FieldPayerTIN                Name = "payer_tin"
	FieldRecipientName           Name = "recipient_name"
	FieldRecipientTIN            Name = "recipient_tin"
	FieldNonemployeeCompensation Name = "nonemployee_compensation"
	FieldBusinessName            Name = "business_name"
	FieldGrossReceipts           Name = "gross_receipts"
	FieldTotalExpenses           Name = "total_expenses"
	FieldNetProfit               Name = "net_profit"
	FieldQuarter                 Name = "quarter"
	FieldNumberOfEmployees       Name = "number_of_employees"
	FieldTotalTax                Name = "total_tax"
	FieldCorporationName         Name = "corporation_name"
	FieldTotalAssets             Name = "total_assets"
	FieldDateOfBirth             Name = "date_of_birth"
	FieldHireDate                Name = "hire_date"
	FieldTerminationDate         Name = "termination_date"
)

// Entity types emitted by the pattern and statistical extractors
const (
	EntityPhone      Name = "phone"
	EntityEmail      Name = "email"
	EntityCurrency   Name = "currency"
	EntityPercentage Name = "percentage"
	EntityDate       Name = "date"
	EntityPerson     Name = "PERSON"
	EntityOrg        Name = "ORG"
	EntityMoney      Name = "MONEY"
	EntityDateText   Name = "DATE"
)

type definition struct {
	name Name
	kind Kind
}

// ordered is the canonical field order; checks that walk several fields
// visit them in this order.
var ordered = []definition{
	{FieldName, KindText},
	{FieldSSN, KindSSN},
	{FieldSpouseName, KindText},
	{FieldSpouseSSN, KindSSN},
	{FieldDependents, KindCount},
	{FieldFilingStatus, KindText},
	{FieldTotalIncome, KindMoney},
	{FieldTaxableIncome, KindMoney},
	{FieldWages, KindMoney},
	{FieldFederalTaxWithheld, KindMoney},
	{FieldStateWages, KindMoney},
	{FieldStateTaxWithheld, KindMoney},
	{FieldAddress, KindText},
	{FieldCity, KindText},
	{FieldState, KindText},
	{FieldZipCode, KindText},
	{FieldTaxYear, KindCount},
	{FieldEmployeeName, KindText},
	{FieldEmployeeSSN, KindSSN},
	{FieldEmployerName, KindText},
	{FieldEmployerEIN, KindEIN},
	{FieldEIN, KindEIN},
	{FieldPayerName, KindText},
	{FieldPayerTIN, KindText},
	{FieldRecipientName, KindText},
	{FieldRecipientTIN, KindText},
	{FieldNonemployeeCompensation, KindMoney},
	{FieldBusinessName, KindText},
	{FieldGrossReceipts, KindMoney},
	{FieldTotalExpenses, KindMoney},
	{FieldNetProfit, KindMoney},
	{FieldQuarter, KindCount},
	{FieldNumberOfEmployees, KindCount},
	{FieldTotalTax, KindMoney},
	{FieldCorporationName, KindText},
	{FieldTotalAssets, KindMoney},
	{FieldDateOfBirth, KindDate},
	{FieldHireDate, KindDate},
	{FieldTerminationDate, KindDate},

	{EntityPhone, KindText},
	{EntityEmail, KindText},
	{EntityCurrency, KindText},
	{EntityPercentage, KindText},
	{EntityDate, KindText},
	{EntityPerson, KindText},
	{EntityOrg, KindText},
	{EntityMoney, KindText},
	{EntityDateText, KindText},
}

var index = func() map[Name]int {
	m := make(map[Name]int, len(ordered))
	for i, d := range ordered {
		m[d.name] = i
	}
	return m
}()

// Lookup resolves a raw key against the vocabulary
func Lookup(key string) (Name, bool) {
	_, ok := index[Name(key)]
	return Name(key), ok
}

// Known reports whether name belongs to the vocabulary
func Known(name Name) bool {
	_, ok := index[name]
	return ok
}

// KindOf returns the kind of a known field, KindText otherwise
func KindOf(name Name) Kind {
	if i, ok := index[name]; ok {
		return ordered[i].kind
	}
	return KindText
}

// OfKind lists the fields of a kind in canonical order
func OfKind(kind Kind) []Name {
	var names []Name
	for _, d := range ordered {
		if d.kind == kind {
			names = append(names, d.name)
		}
	}
	return names
}

// All lists every field in canonical order
func All() []Name {
	names := make([]Name, len(ordered))
	for i, d := range ordered {
		names[i] = d.name
	}
	return names
}
