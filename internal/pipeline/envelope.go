// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"taxform-scan/internal/classify"
	"taxform-scan/internal/detector"
	"taxform-scan/internal/fields"
	"taxform-scan/internal/forms"
	"taxform-scan/internal/validate"
)

// Envelope is the result of processing one document's text
type Envelope struct {
	FormType            forms.FormType    `json:"form_type"`
	FormName            string            `json:"form_name"`
	Classification      []classify.Score  `json:"classification"`
	Entities            []detector.Entity `json:"entities"`
	StructuredData      *fields.Map       `json:"structured_data"`
	FinancialAmounts    []FinancialAmount `json:"financial_amounts"`
	Validation          validate.Result   `json:"validation"`
	ProcessingTimestamp string            `json:"processing_timestamp"`

	// Entities that could not be grouped into the field map
	Warnings []string `json:"warnings,omitempty"`
}

// FinancialAmount is one dollar amount found in the text. Position is the
// character offset of its "$" sign.
type FinancialAmount struct {
	Amount          float64 `json:"amount"`
	FormattedAmount string  `json:"formatted_amount"`
	Context         string  `json:"context"`
	Position        int     `json:"position"`
}
