// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package formatters_test

import (
	stdjson "encoding/json"
	"strings"
	"testing"

	"taxform-scan/internal/core"
	"taxform-scan/internal/fields"
	"taxform-scan/internal/formatters"
	_ "taxform-scan/internal/formatters/csv"
	_ "taxform-scan/internal/formatters/json"
	_ "taxform-scan/internal/formatters/text"
	_ "taxform-scan/internal/formatters/yaml"
	"taxform-scan/internal/pipeline"
	"taxform-scan/internal/validate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yamlv3 "gopkg.in/yaml.v3"
)

func sampleDocument(t *testing.T) *core.DocumentResult {
	t.Helper()
	m := fields.NewMap()
	require.NoError(t, m.Add(fields.FieldName, "John Smith"))
	require.NoError(t, m.Add(fields.FieldSSN, "123-45-6789"))
	require.NoError(t, m.Add(fields.FieldWages, "50000.00"))

	return &core.DocumentResult{
		Success:       true,
		FormID:        "form-1",
		FilePath:      "/tmp/w2.txt",
		FormType:      "W2",
		FormName:      "Wage and Tax Statement",
		TaxYear:       2025,
		Status:        "validation_errors",
		Confidence:    0.65,
		Validation:    &validate.Result{IsValid: false, Confidence: 0.65, Errors: []string{"Missing required field: employer_ein"}, Warnings: []string{}},
		ExtractedData: m,
		Envelope: &pipeline.Envelope{
			FinancialAmounts: []pipeline.FinancialAmount{{Amount: 50000, FormattedAmount: "$50,000.00", Context: "Wages $50,000.00", Position: 12}},
		},
	}
}

func TestRegisteredFormats(t *testing.T) {
	assert.Equal(t, []string{"csv", "json", "text", "yaml"}, formatters.List())
	assert.Equal(t, "text/csv", formatters.GetFormatInfo("csv").MimeType)
	assert.Equal(t, formatters.FormatInfo{}, formatters.GetFormatInfo("sarif"))
}

func TestExportUnknown(t *testing.T) {
	_, err := formatters.Export("xml", formatters.Report{}, formatters.FormatterOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Available formats: csv, json, text, yaml")
}

func TestConfidenceLevel(t *testing.T) {
	assert.Equal(t, "HIGH", formatters.ConfidenceLevel(0.95))
	assert.Equal(t, "MEDIUM", formatters.ConfidenceLevel(0.6))
	assert.Equal(t, "LOW", formatters.ConfidenceLevel(0.2))
}

func TestJSONFormat(t *testing.T) {
	out, err := formatters.Export("json", formatters.SingleReport(sampleDocument(t)), formatters.FormatterOptions{Verbose: true})
	require.NoError(t, err)

	var decoded struct {
		Documents []struct {
			FormType         string              `json:"form_type"`
			ConfidenceLevel  string              `json:"confidence_level"`
			IsValid          bool                `json:"is_valid"`
			Errors           []string            `json:"errors"`
			Fields           map[string][]string `json:"fields"`
			FinancialAmounts []map[string]any    `json:"financial_amounts"`
		} `json:"documents"`
	}
	require.NoError(t, stdjson.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded.Documents, 1)
	d := decoded.Documents[0]
	assert.Equal(t, "W2", d.FormType)
	assert.Equal(t, "MEDIUM", d.ConfidenceLevel)
	assert.False(t, d.IsValid)
	assert.Equal(t, []string{"John Smith"}, d.Fields["name"])
	assert.Len(t, d.FinancialAmounts, 1)
}

func TestJSONCompactOmitsAmountsWithoutVerbose(t *testing.T) {
	out, err := formatters.Export("json", formatters.SingleReport(sampleDocument(t)), formatters.FormatterOptions{Compact: true})
	require.NoError(t, err)
	assert.NotContains(t, out, "\n")
	assert.NotContains(t, out, "financial_amounts")
}

func TestYAMLFormat(t *testing.T) {
	out, err := formatters.Export("yaml", formatters.SingleReport(sampleDocument(t)), formatters.FormatterOptions{})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yamlv3.Unmarshal([]byte(out), &decoded))
	docs, ok := decoded["documents"].([]any)
	require.True(t, ok)
	require.Len(t, docs, 1)
	doc := docs[0].(map[string]any)
	assert.Equal(t, "W2", doc["form_type"])
	assert.Equal(t, 2025, doc["tax_year"])
}

func TestCSVFormat(t *testing.T) {
	out, err := formatters.Export("csv", formatters.SingleReport(sampleDocument(t)), formatters.FormatterOptions{})
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "File,Form Type,Status,Confidence,Valid,Field,Value", lines[0])
	assert.Equal(t, "/tmp/w2.txt,W2,validation_errors,0.65,false,name,John Smith", lines[1])
	assert.Equal(t, "/tmp/w2.txt,W2,validation_errors,0.65,false,ssn,123-45-6789", lines[2])
	assert.Equal(t, "/tmp/w2.txt,W2,validation_errors,0.65,false,wages,50000.00", lines[3])
}

func TestCSVErrorDocument(t *testing.T) {
	doc := &core.DocumentResult{FilePath: "bad.pdf", Status: "error", Error: "ingest failed"}
	out, err := formatters.Export("csv", formatters.SingleReport(doc), formatters.FormatterOptions{Verbose: true})
	require.NoError(t, err)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "bad.pdf,,error,0.00,false,,,,", lines[1])
}

func TestTextFormat(t *testing.T) {
	out, err := formatters.Export("text", formatters.SingleReport(sampleDocument(t)), formatters.FormatterOptions{NoColor: true, Verbose: true})
	require.NoError(t, err)
	assert.Contains(t, out, "/tmp/w2.txt")
	assert.Contains(t, out, "Form:       W2 (Wage and Tax Statement)")
	assert.Contains(t, out, "Confidence: 0.65 MEDIUM")
	assert.Contains(t, out, "Missing required field: employer_ein")
	assert.Contains(t, out, "$50,000.00")
}

func TestTextBatch(t *testing.T) {
	batch := &core.BatchReport{
		BatchID:         "BATCH_1",
		TotalFiles:      1,
		SuccessfulCount: 1,
		SuccessRate:     100,
		Summary:         core.BatchSummary{FormTypeDistribution: map[string]int{"W2": 1}, AverageConfidence: 0.65},
		Results:         []*core.DocumentResult{sampleDocument(t)},
	}
	out, err := formatters.Export("text", formatters.BatchReport(batch), formatters.FormatterOptions{NoColor: true})
	require.NoError(t, err)
	assert.Contains(t, out, "Batch BATCH_1")
	assert.Contains(t, out, "Success rate: 100.0%")
}

func TestTextEmpty(t *testing.T) {
	out, err := formatters.Export("text", formatters.Report{}, formatters.FormatterOptions{NoColor: true})
	require.NoError(t, err)
	assert.Equal(t, "No documents processed.", out)
}

func TestTextMasksSSNUnlessVerbose(t *testing.T) {
	doc := sampleDocument(t)

	out, err := formatters.Export("text", formatters.SingleReport(doc), formatters.FormatterOptions{NoColor: true})
	require.NoError(t, err)
	assert.Contains(t, out, "***-**-6789")
	assert.NotContains(t, out, "123-45-6789")

	out, err = formatters.Export("text", formatters.SingleReport(doc), formatters.FormatterOptions{NoColor: true, Verbose: true})
	require.NoError(t, err)
	assert.Contains(t, out, "123-45-6789")
}
