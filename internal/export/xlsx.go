// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	"taxform-scan/internal/core"
	"taxform-scan/internal/storage"
)

const (
	documentsSheet = "Documents"
	summarySheet   = "Summary"
	formsSheet     = "Forms"
)

type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
}

func newSheet(f *excelize.File, name string, headers []string) (*sheetWriter, error) {
	if idx, _ := f.GetSheetIndex(name); idx == -1 {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}
	w := &sheetWriter{f: f, sheet: name, row: 1}
	w.write(toAny(headers)...)
	return w, nil
}

func (w *sheetWriter) write(values ...any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, w.row)
		_ = w.f.SetCellValue(w.sheet, cell, v)
	}
	w.row++
}

func toAny(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

// BatchXLSX renders a batch report as a workbook with one row per document
// and a summary sheet.
func BatchXLSX(report *core.BatchReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	docs, err := newSheet(f, documentsSheet, []string{
		"File", "Status", "Form Type", "Form Name", "Tax Year", "Confidence",
		"Valid", "Errors", "Warnings", "Form ID", "Error",
	})
	if err != nil {
		return nil, err
	}
	for _, r := range report.Results {
		valid, errs, warns := "", "", ""
		if r.Validation != nil {
			valid = fmt.Sprintf("%t", r.Validation.IsValid)
			errs = strings.Join(r.Validation.Errors, "; ")
			warns = strings.Join(r.Validation.Warnings, "; ")
		}
		docs.write(r.FilePath, r.Status, r.FormType, r.FormName, r.TaxYear, r.Confidence,
			valid, errs, warns, r.FormID, r.Error)
	}
	_ = f.SetColWidth(documentsSheet, "A", "A", 48)
	_ = f.SetColWidth(documentsSheet, "D", "D", 36)
	_ = f.SetColWidth(documentsSheet, "H", "I", 60)

	sum, err := newSheet(f, summarySheet, []string{"Metric", "Value"})
	if err != nil {
		return nil, err
	}
	sum.write("Batch ID", report.BatchID)
	sum.write("Directory", report.Directory)
	sum.write("Total Files", report.TotalFiles)
	sum.write("Successful", report.SuccessfulCount)
	sum.write("Errors", report.ErrorCount)
	sum.write("Success Rate (%)", report.SuccessRate)
	sum.write("Average Confidence", report.Summary.AverageConfidence)
	for _, ft := range slices.Sorted(maps.Keys(report.Summary.FormTypeDistribution)) {
		sum.write("Form "+ft, report.Summary.FormTypeDistribution[ft])
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 24)

	return finish(f, documentsSheet)
}

// FormsXLSX renders stored form records
func FormsXLSX(records []storage.FormRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	w, err := newSheet(f, formsSheet, []string{
		"Form ID", "Form Type", "Taxpayer", "Tax Year", "Status", "Confidence",
		"Wages", "Federal Tax Withheld", "Source", "Created",
	})
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		w.write(r.ID, r.FormType, r.TaxpayerName, r.TaxYear, r.Status, r.Confidence,
			optional(r.Wages), optional(r.FederalTaxWithheld), r.SourcePath,
			r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	_ = f.SetColWidth(formsSheet, "A", "A", 38)
	_ = f.SetColWidth(formsSheet, "I", "I", 48)
	return finish(f, formsSheet)
}

func finish(f *excelize.File, active string) ([]byte, error) {
	_ = f.DeleteSheet("Sheet1")
	if idx, _ := f.GetSheetIndex(active); idx >= 0 {
		f.SetActiveSheet(idx)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func optional(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
