// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"taxform-scan/internal/efile"
	"taxform-scan/internal/fields"
	"taxform-scan/internal/forms"
	"taxform-scan/internal/ingest"
	"taxform-scan/internal/observability"
	"taxform-scan/internal/pipeline"
	"taxform-scan/internal/storage"
)

// Filer submits validated forms for electronic filing
type Filer interface {
	Submit(ctx context.Context, data efile.FormData) (*efile.Result, error)
	History() []efile.Result
}

// DocumentProcessor runs files through recognition, extraction, persistence
// and optional e-filing.
type DocumentProcessor struct {
	reader    ingest.Reader
	pipeline  *pipeline.Processor
	store     storage.Store
	filer     Filer
	autoEfile bool
	observer  *observability.Observer
	now       func() time.Time
	user      string
}

// Option configures a DocumentProcessor
type Option func(*DocumentProcessor)

// WithStore persists every processed document
func WithStore(s storage.Store) Option {
	return func(dp *DocumentProcessor) { dp.store = s }
}

// WithFiler enables e-filing; auto submits every valid document
func WithFiler(f Filer, auto bool) Option {
	return func(dp *DocumentProcessor) {
		dp.filer = f
		dp.autoEfile = auto
	}
}

// WithObserver sets the timing observer
func WithObserver(o *observability.Observer) Option {
	return func(dp *DocumentProcessor) { dp.observer = o }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(dp *DocumentProcessor) { dp.now = now }
}

// WithUser sets processed_by
func WithUser(user string) Option {
	return func(dp *DocumentProcessor) { dp.user = user }
}

// NewDocumentProcessor wires the collaborators together
func NewDocumentProcessor(reader ingest.Reader, p *pipeline.Processor, opts ...Option) *DocumentProcessor {
	dp := &DocumentProcessor{
		reader:   reader,
		pipeline: p,
		now:      time.Now,
		user:     os.Getenv("USER"),
	}
	for _, opt := range opts {
		opt(dp)
	}
	if dp.user == "" {
		dp.user = "system"
	}
	return dp
}

// Pipeline returns the text pipeline
func (dp *DocumentProcessor) Pipeline() *pipeline.Processor {
	return dp.pipeline
}

// Store returns the configured store, possibly nil
func (dp *DocumentProcessor) Store() storage.Store {
	return dp.store
}

// Filer returns the configured filer, possibly nil
func (dp *DocumentProcessor) Filer() Filer {
	return dp.filer
}

// ProcessDocument reads a file and processes its text. Collaborator failures
// come back as *DocumentError together with an error-status result.
func (dp *DocumentProcessor) ProcessDocument(ctx context.Context, path string, hint forms.FormType) (*DocumentResult, error) {
	finish := dp.observer.StartTiming("document_processor", "process_document", path)
	logger := dp.observer.Logger().With("path", path)
	logger.Info("starting document processing")

	doc, err := dp.reader.Read(ctx, path)
	if err == nil && len(doc.Pages) == 0 {
		err = errors.New("no OCR results obtained from document")
	}
	if err != nil {
		finish(false, map[string]any{"stage": StageIngest})
		return dp.fail(ctx, path, StageIngest, err)
	}

	ocr := &OCRSummary{
		SourceType:        doc.SourceType,
		Method:            doc.Method,
		PagesProcessed:    len(doc.Pages),
		AverageConfidence: doc.Confidence(),
		Warnings:          doc.Warnings,
	}
	res, err := dp.process(ctx, path, doc.Text(), ocr, hint)
	finish(err == nil, map[string]any{"pages": len(doc.Pages)})
	return res, err
}

// ProcessText runs already recognised text through the same steps as a
// document, with full OCR confidence.
func (dp *DocumentProcessor) ProcessText(ctx context.Context, source, text string, hint forms.FormType) (*DocumentResult, error) {
	ocr := &OCRSummary{SourceType: ingest.SourceText, Method: "direct", PagesProcessed: 1, AverageConfidence: 1}
	return dp.process(ctx, source, text, ocr, hint)
}

func (dp *DocumentProcessor) process(ctx context.Context, path, text string, ocr *OCRSummary, hint forms.FormType) (*DocumentResult, error) {
	logger := dp.observer.Logger().With("path", path)
	ocr.TextLength = len(text)

	env, err := dp.pipeline.Process(text, hint)
	if err != nil {
		return dp.fail(ctx, path, StagePipeline, err)
	}

	taxYear := dp.taxYear(env.StructuredData)
	status := storage.StatusProcessed
	if !env.Validation.IsValid {
		status = storage.StatusValidationErrors
	}

	res := &DocumentResult{
		Success:             true,
		FilePath:            path,
		FormType:            string(env.FormType),
		FormName:            env.FormName,
		TaxYear:             taxYear,
		Status:              status,
		Confidence:          min(ocr.AverageConfidence, env.Validation.Confidence),
		ProcessingTimestamp: dp.now().UTC().Format(time.RFC3339),
		ProcessedBy:         dp.user,
		Validation:          &env.Validation,
		OCR:                 ocr,
		Extraction: &ExtractionSummary{
			EntitiesFound:    len(env.Entities),
			FinancialAmounts: len(env.FinancialAmounts),
			StructuredFields: env.StructuredData.Len(),
			Warnings:         env.Warnings,
		},
		ExtractedData: env.StructuredData,
		Envelope:      env,
		RawText:       text,
	}

	filing := efile.FromFields(res.FormType, taxYear, env.StructuredData)

	if dp.store != nil {
		id, err := dp.store.SaveForm(ctx, dp.record(res, filing))
		if err != nil {
			logger.Error("failed to store form", "error", err)
			res.Success = false
			res.Status = storage.StatusError
			res.Error = err.Error()
			return res, &DocumentError{Path: path, Stage: StageStorage, Err: err}
		}
		res.FormID = id
		dp.logProcessing(ctx, id, status, "")
	}

	if dp.filer != nil && dp.autoEfile && env.Validation.IsValid {
		sub, err := dp.filer.Submit(ctx, filing)
		res.EFiling = sub
		if err != nil {
			logger.Warn("e-filing failed", "error", err)
		}
		if res.FormID != "" && sub != nil {
			dp.logProcessing(ctx, res.FormID, sub.Status, sub.Message)
			if sub.Success {
				if err := dp.store.UpdateStatus(ctx, res.FormID, sub.Status); err != nil {
					logger.Warn("failed to update form status", "form_id", res.FormID, "error", err)
				}
			}
		}
	}

	logger.Info("document processing completed",
		"form_id", res.FormID, "form_type", res.FormType, "status", res.Status, "confidence", res.Confidence)
	return res, nil
}

// fail records an error row when storage is configured and returns the
// error-status result.
func (dp *DocumentProcessor) fail(ctx context.Context, path, stage string, err error) (*DocumentResult, error) {
	dp.observer.Logger().Error("document processing failed", "path", path, "stage", stage, "error", err)
	res := &DocumentResult{
		FilePath:            path,
		Status:              storage.StatusError,
		ProcessingTimestamp: dp.now().UTC().Format(time.RFC3339),
		ProcessedBy:         dp.user,
		Error:               err.Error(),
	}
	if dp.store != nil {
		rec := &storage.FormRecord{
			FormType:    string(forms.Unknown),
			Status:      storage.StatusError,
			SourcePath:  path,
			ProcessedBy: dp.user,
			Errors:      []string{err.Error()},
		}
		if id, serr := dp.store.SaveForm(ctx, rec); serr == nil {
			res.FormID = id
			dp.logProcessing(ctx, id, storage.StatusError, err.Error())
		}
	}
	return res, &DocumentError{Path: path, Stage: stage, Err: err}
}

func (dp *DocumentProcessor) logProcessing(ctx context.Context, id, status, msg string) {
	if err := dp.store.LogProcessing(ctx, id, status, msg); err != nil {
		dp.observer.Logger().Warn("failed to write processing log", "form_id", id, "error", err)
	}
}

// taxYear reads tax_year or falls back to the previous calendar year
func (dp *DocumentProcessor) taxYear(m *fields.Map) int {
	if raw, ok := m.First(fields.FieldTaxYear); ok {
		if y, err := strconv.Atoi(raw); err == nil {
			return y
		}
	}
	return dp.now().Year() - 1
}

func (dp *DocumentProcessor) record(res *DocumentResult, d efile.FormData) *storage.FormRecord {
	rec := &storage.FormRecord{
		FormType:           res.FormType,
		TaxpayerName:       d.TaxpayerName,
		SSN:                d.SSN,
		FilingStatus:       d.FilingStatus,
		TaxYear:            res.TaxYear,
		Wages:              d.Wages,
		FederalTaxWithheld: d.FederalTaxWithheld,
		Address:            d.Address,
		City:               d.City,
		State:              d.State,
		ZipCode:            d.ZipCode,
		Status:             res.Status,
		Confidence:         res.Confidence,
		SourcePath:         res.FilePath,
		ProcessedBy:        res.ProcessedBy,
		StructuredData:     res.ExtractedData.Strings(),
		RawText:            res.RawText,
	}
	if res.Validation != nil {
		rec.Errors = res.Validation.Errors
		rec.Warnings = res.Validation.Warnings
	}
	return rec
}
