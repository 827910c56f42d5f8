// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"fmt"

	"taxform-scan/internal/efile"
	"taxform-scan/internal/fields"
	"taxform-scan/internal/pipeline"
	"taxform-scan/internal/validate"
)

// Processing stages reported in DocumentError
const (
	StageIngest   = "ingest"
	StagePipeline = "pipeline"
	StageStorage  = "storage"
)

// DocumentError is a collaborator failure tied to one document
type DocumentError struct {
	Path  string
	Stage string
	Err   error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Path, e.Stage, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// OCRSummary describes the recognised input
type OCRSummary struct {
	SourceType        string   `json:"source_type"`
	Method            string   `json:"method"`
	PagesProcessed    int      `json:"pages_processed"`
	AverageConfidence float64  `json:"average_confidence"`
	TextLength        int      `json:"text_length"`
	Warnings          []string `json:"warnings,omitempty"`
}

// ExtractionSummary counts what the pipeline found
type ExtractionSummary struct {
	EntitiesFound    int      `json:"entities_found"`
	FinancialAmounts int      `json:"financial_amounts"`
	StructuredFields int      `json:"structured_fields"`
	Warnings         []string `json:"warnings,omitempty"`
}

// DocumentResult is the full report for one processed document
type DocumentResult struct {
	Success             bool               `json:"success"`
	FormID              string             `json:"form_id,omitempty"`
	FilePath            string             `json:"file_path"`
	FormType            string             `json:"form_type,omitempty"`
	FormName            string             `json:"form_name,omitempty"`
	TaxYear             int                `json:"tax_year,omitempty"`
	Status              string             `json:"status"`
	Confidence          float64            `json:"confidence_score"`
	ProcessingTimestamp string             `json:"processing_timestamp"`
	ProcessedBy         string             `json:"processed_by,omitempty"`
	Validation          *validate.Result   `json:"validation,omitempty"`
	OCR                 *OCRSummary        `json:"ocr_results,omitempty"`
	Extraction          *ExtractionSummary `json:"nlp_results,omitempty"`
	ExtractedData       *fields.Map        `json:"extracted_data,omitempty"`
	EFiling             *efile.Result      `json:"efiling,omitempty"`
	Error               string             `json:"error,omitempty"`

	Envelope *pipeline.Envelope `json:"-"`
	RawText  string             `json:"-"`
}
