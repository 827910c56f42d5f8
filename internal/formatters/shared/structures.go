// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package shared

import (
	"taxform-scan/internal/core"
	"taxform-scan/internal/formatters"
)

// Response is the top-level structure for JSON/YAML output
type Response struct {
	Documents []Document `json:"documents" yaml:"documents"`
	Batch     *Batch     `json:"batch,omitempty" yaml:"batch,omitempty"`
}

// Document is one processed document in JSON/YAML form
type Document struct {
	FilePath         string              `json:"file_path" yaml:"file_path"`
	FormID           string              `json:"form_id,omitempty" yaml:"form_id,omitempty"`
	FormType         string              `json:"form_type,omitempty" yaml:"form_type,omitempty"`
	FormName         string              `json:"form_name,omitempty" yaml:"form_name,omitempty"`
	TaxYear          int                 `json:"tax_year,omitempty" yaml:"tax_year,omitempty"`
	Status           string              `json:"status" yaml:"status"`
	Confidence       float64             `json:"confidence" yaml:"confidence"`
	ConfidenceLevel  string              `json:"confidence_level" yaml:"confidence_level"`
	IsValid          bool                `json:"is_valid" yaml:"is_valid"`
	Errors           []string            `json:"errors" yaml:"errors"`
	Warnings         []string            `json:"warnings" yaml:"warnings"`
	Fields           map[string][]string `json:"fields" yaml:"fields"`
	FinancialAmounts []Amount            `json:"financial_amounts,omitempty" yaml:"financial_amounts,omitempty"`
	Entities         []Entity            `json:"entities,omitempty" yaml:"entities,omitempty"`
	EFilingStatus    string              `json:"efiling_status,omitempty" yaml:"efiling_status,omitempty"`
	Error            string              `json:"error,omitempty" yaml:"error,omitempty"`
}

// Amount is a financial amount in JSON/YAML form
type Amount struct {
	Amount    float64 `json:"amount" yaml:"amount"`
	Formatted string  `json:"formatted_amount" yaml:"formatted_amount"`
	Context   string  `json:"context" yaml:"context"`
	Position  int     `json:"position" yaml:"position"`
}

// Entity is an extracted entity in JSON/YAML form
type Entity struct {
	Type       string  `json:"entity_type" yaml:"entity_type"`
	Value      string  `json:"entity_value" yaml:"entity_value"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	Start      int     `json:"start_pos" yaml:"start_pos"`
	End        int     `json:"end_pos" yaml:"end_pos"`
}

// Batch carries the batch summary
type Batch struct {
	BatchID              string         `json:"batch_id" yaml:"batch_id"`
	TotalFiles           int            `json:"total_files" yaml:"total_files"`
	SuccessfulCount      int            `json:"successful_count" yaml:"successful_count"`
	ErrorCount           int            `json:"error_count" yaml:"error_count"`
	SuccessRate          float64        `json:"success_rate" yaml:"success_rate"`
	AverageConfidence    float64        `json:"average_confidence" yaml:"average_confidence"`
	FormTypeDistribution map[string]int `json:"form_type_distribution" yaml:"form_type_distribution"`
}

// ConvertReport flattens a report into plain serialisable structures
func ConvertReport(report formatters.Report, options formatters.FormatterOptions) Response {
	resp := Response{Documents: make([]Document, 0, len(report.Documents))}
	for _, d := range report.Documents {
		resp.Documents = append(resp.Documents, convertDocument(d, options))
	}
	if b := report.Batch; b != nil {
		resp.Batch = &Batch{
			BatchID:              b.BatchID,
			TotalFiles:           b.TotalFiles,
			SuccessfulCount:      b.SuccessfulCount,
			ErrorCount:           b.ErrorCount,
			SuccessRate:          b.SuccessRate,
			AverageConfidence:    b.Summary.AverageConfidence,
			FormTypeDistribution: b.Summary.FormTypeDistribution,
		}
	}
	return resp
}

func convertDocument(d *core.DocumentResult, options formatters.FormatterOptions) Document {
	out := Document{
		FilePath:        d.FilePath,
		FormID:          d.FormID,
		FormType:        d.FormType,
		FormName:        d.FormName,
		TaxYear:         d.TaxYear,
		Status:          d.Status,
		Confidence:      d.Confidence,
		ConfidenceLevel: formatters.ConfidenceLevel(d.Confidence),
		Errors:          []string{},
		Warnings:        []string{},
		Fields:          map[string][]string{},
		Error:           d.Error,
	}
	if d.Validation != nil {
		out.IsValid = d.Validation.IsValid
		out.Errors = append(out.Errors, d.Validation.Errors...)
		out.Warnings = append(out.Warnings, d.Validation.Warnings...)
	}
	if d.ExtractedData != nil {
		out.Fields = d.ExtractedData.Strings()
	}
	if d.EFiling != nil {
		out.EFilingStatus = d.EFiling.Status
	}
	if options.Verbose && d.Envelope != nil {
		for _, a := range d.Envelope.FinancialAmounts {
			out.FinancialAmounts = append(out.FinancialAmounts, Amount{
				Amount: a.Amount, Formatted: a.FormattedAmount, Context: a.Context, Position: a.Position,
			})
		}
		for _, e := range d.Envelope.Entities {
			out.Entities = append(out.Entities, Entity{
				Type: e.Type, Value: e.Value, Confidence: e.Confidence, Start: e.Start, End: e.End,
			})
		}
	}
	return out
}
