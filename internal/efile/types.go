// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package efile

import (
	"errors"
	"strconv"

	"taxform-scan/internal/fields"
	"taxform-scan/internal/validate"
)

// ErrValidationFailed is returned when form data cannot be submitted
var ErrValidationFailed = errors.New("e-file validation failed")

// Submission statuses
const (
	StatusValidationFailed = "VALIDATION_FAILED"
	StatusSubmitted        = "SUBMITTED"
	StatusAccepted         = "ACCEPTED"
	StatusProcessing       = "PROCESSING"
	StatusReceived         = "RECEIVED"
	StatusFailed           = "FAILED"
	StatusError            = "ERROR"
)

// FormData is the flat view of a processed form used for filing
type FormData struct {
	FormType           string   `json:"form_type"`
	TaxYear            int      `json:"tax_year"`
	TaxpayerName       string   `json:"taxpayer_name"`
	SSN                string   `json:"ssn"`
	FilingStatus       string   `json:"filing_status,omitempty"`
	Address            string   `json:"address,omitempty"`
	City               string   `json:"city,omitempty"`
	State              string   `json:"state,omitempty"`
	ZipCode            string   `json:"zip_code,omitempty"`
	Wages              *float64 `json:"wages,omitempty"`
	TotalIncome        *float64 `json:"total_income,omitempty"`
	FederalTaxWithheld *float64 `json:"federal_tax_withheld,omitempty"`
	TaxDue             *float64 `json:"tax_due,omitempty"`
	Refund             *float64 `json:"refund,omitempty"`

	// invalid holds amount fields whose text was not numeric
	invalid []string
}

// FromFields builds filing data from a structured field map. W-2 employee
// fields stand in for the taxpayer when the 1040 ones are absent.
func FromFields(formType string, taxYear int, m *fields.Map) FormData {
	first := func(names ...fields.Name) string {
		for _, n := range names {
			if v, ok := m.First(n); ok {
				return v
			}
		}
		return ""
	}

	d := FormData{
		FormType:     formType,
		TaxYear:      taxYear,
		TaxpayerName: first(fields.FieldName, fields.FieldEmployeeName, fields.FieldRecipientName),
		SSN:          first(fields.FieldSSN, fields.FieldEmployeeSSN),
		FilingStatus: first(fields.FieldFilingStatus),
		Address:      first(fields.FieldAddress),
		City:         first(fields.FieldCity),
		State:        first(fields.FieldState),
		ZipCode:      first(fields.FieldZipCode),
	}
	if y, ok := m.First(fields.FieldTaxYear); ok && d.TaxYear == 0 {
		if n, err := strconv.Atoi(y); err == nil {
			d.TaxYear = n
		}
	}

	amount := func(name fields.Name) *float64 {
		raw, ok := m.First(name)
		if !ok {
			return nil
		}
		v, err := validate.ParseAmount(raw)
		if err != nil {
			d.invalid = append(d.invalid, string(name))
			return nil
		}
		return &v
	}
	d.Wages = amount(fields.FieldWages)
	d.TotalIncome = amount(fields.FieldTotalIncome)
	d.FederalTaxWithheld = amount(fields.FieldFederalTaxWithheld)
	d.TaxDue = amount(fields.FieldTotalTax)
	return d
}

// Address block of a submission
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
}

// TaxpayerInfo identifies the filer
type TaxpayerInfo struct {
	Name         string  `json:"name"`
	SSN          string  `json:"ssn"`
	FilingStatus string  `json:"filingStatus"`
	Address      Address `json:"address"`
}

// IncomeInfo carries reported income
type IncomeInfo struct {
	Wages       float64 `json:"wages"`
	TotalIncome float64 `json:"totalIncome"`
}

// TaxInfo carries withholding and balance amounts
type TaxInfo struct {
	FederalWithholding float64 `json:"federalWithholding"`
	TaxDue             float64 `json:"taxDue"`
	RefundAmount       float64 `json:"refundAmount"`
}

// Submission is the payload sent to the filing endpoint
type Submission struct {
	SubmissionID        string       `json:"submissionId"`
	FormType            string       `json:"formType"`
	TaxYear             int          `json:"taxYear"`
	TaxpayerInfo        TaxpayerInfo `json:"taxpayerInfo"`
	IncomeInfo          IncomeInfo   `json:"incomeInfo"`
	TaxInfo             TaxInfo      `json:"taxInfo"`
	SubmissionTimestamp string       `json:"submissionTimestamp"`
}

// ValidationResult lists the problems found before submission
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Result is the outcome of a submission attempt
type Result struct {
	Success            bool     `json:"success"`
	SubmissionID       string   `json:"submission_id,omitempty"`
	Status             string   `json:"status"`
	ConfirmationNumber string   `json:"confirmation_number,omitempty"`
	Message            string   `json:"message"`
	Errors             []string `json:"errors,omitempty"`
	SubmittedAt        string   `json:"submitted_at"`
}

// StatusResult is the answer to a status or acknowledgment query
type StatusResult struct {
	SubmissionID     string `json:"submission_id"`
	Status           string `json:"status"`
	ProcessingDate   string `json:"processing_date,omitempty"`
	AcknowledgmentID string `json:"acknowledgment_id,omitempty"`
	Message          string `json:"message,omitempty"`
}
