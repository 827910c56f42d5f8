// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a form id does not exist
var ErrNotFound = errors.New("form not found")

// Processing statuses
const (
	StatusProcessed        = "processed"
	StatusValidationErrors = "validation_errors"
	StatusError            = "error"
)

// FormRecord is one processed tax form as persisted
type FormRecord struct {
	ID                 string              `json:"form_id"`
	FormType           string              `json:"form_type"`
	TaxpayerName       string              `json:"taxpayer_name,omitempty"`
	SSN                string              `json:"ssn,omitempty"`
	FilingStatus       string              `json:"filing_status,omitempty"`
	TaxYear            int                 `json:"tax_year"`
	Wages              *float64            `json:"wages,omitempty"`
	FederalTaxWithheld *float64            `json:"federal_tax_withheld,omitempty"`
	Address            string              `json:"address,omitempty"`
	City               string              `json:"city,omitempty"`
	State              string              `json:"state,omitempty"`
	ZipCode            string              `json:"zip_code,omitempty"`
	Status             string              `json:"status"`
	Confidence         float64             `json:"confidence"`
	SourcePath         string              `json:"source_path,omitempty"`
	ProcessedBy        string              `json:"processed_by,omitempty"`
	StructuredData     map[string][]string `json:"structured_data,omitempty"`
	Errors             []string            `json:"validation_errors,omitempty"`
	Warnings           []string            `json:"validation_warnings,omitempty"`
	RawText            string              `json:"-"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// LogEntry is one row of the processing log
type LogEntry struct {
	ID          int64     `json:"id"`
	FormID      string    `json:"form_id"`
	Status      string    `json:"processing_status"`
	Message     string    `json:"error_message,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

// Statistics summarises the stored forms
type Statistics struct {
	TotalForms        int            `json:"total_forms"`
	ByStatus          map[string]int `json:"by_status"`
	ByFormType        map[string]int `json:"by_form_type"`
	AverageConfidence float64        `json:"average_confidence"`
	LastProcessed     *time.Time     `json:"last_processed,omitempty"`
}

// Store persists processed forms
type Store interface {
	SaveForm(ctx context.Context, rec *FormRecord) (string, error)
	GetForm(ctx context.Context, id string) (*FormRecord, error)
	ListForms(ctx context.Context, limit int) ([]FormRecord, error)
	UpdateStatus(ctx context.Context, id, status string) error
	DeleteForm(ctx context.Context, id string) error
	LogProcessing(ctx context.Context, formID, status, message string) error
	ProcessingLog(ctx context.Context, formID string) ([]LogEntry, error)
	Statistics(ctx context.Context) (*Statistics, error)
	Close() error
}
