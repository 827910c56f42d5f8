// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package text

import (
	"fmt"
	"strings"

	"taxform-scan/internal/formatters"
	"taxform-scan/internal/formatters/shared"
	"taxform-scan/internal/security"

	"github.com/fatih/color"
)

// Formatter implements text-based output formatting
type Formatter struct {
	colors map[string]*color.Color
}

// NewFormatter creates a new text formatter
func NewFormatter() *Formatter {
	return &Formatter{
		colors: map[string]*color.Color{
			"green":  color.New(color.FgGreen),
			"yellow": color.New(color.FgYellow),
			"red":    color.New(color.FgRed),
			"cyan":   color.New(color.FgCyan),
			"white":  color.New(color.FgWhite, color.Bold),
		},
	}
}

func (f *Formatter) Name() string {
	return "text"
}

func (f *Formatter) Description() string {
	return "Human-readable text output with colors"
}

func (f *Formatter) FileExtension() string {
	return ".txt"
}

func (f *Formatter) Format(report formatters.Report, options formatters.FormatterOptions) (string, error) {
	if options.NoColor {
		color.NoColor = true
	}

	resp := shared.ConvertReport(report, options)
	if len(resp.Documents) == 0 {
		return "No documents processed.", nil
	}

	var b strings.Builder
	for i, d := range resp.Documents {
		if i > 0 {
			b.WriteString("\n")
		}
		f.writeDocument(&b, d, options)
	}

	if resp.Batch != nil {
		f.writeBatch(&b, resp.Batch)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (f *Formatter) writeDocument(b *strings.Builder, d shared.Document, options formatters.FormatterOptions) {
	b.WriteString(f.colors["white"].Sprint(d.FilePath))
	b.WriteString("\n")

	if d.Error != "" {
		fmt.Fprintf(b, "  %s %s\n", f.colors["red"].Sprint("ERROR"), d.Error)
		return
	}

	formType := d.FormType
	if d.FormName != "" {
		formType = fmt.Sprintf("%s (%s)", d.FormType, d.FormName)
	}
	fmt.Fprintf(b, "  Form:       %s\n", formType)
	if d.TaxYear != 0 {
		fmt.Fprintf(b, "  Tax year:   %d\n", d.TaxYear)
	}
	fmt.Fprintf(b, "  Status:     %s\n", f.statusColor(d).Sprint(d.Status))
	fmt.Fprintf(b, "  Confidence: %s\n", f.levelColor(d.ConfidenceLevel).Sprintf("%.2f %s", d.Confidence, d.ConfidenceLevel))
	if d.FormID != "" {
		fmt.Fprintf(b, "  Form ID:    %s\n", d.FormID)
	}
	if d.EFilingStatus != "" {
		fmt.Fprintf(b, "  E-filing:   %s\n", d.EFilingStatus)
	}

	if len(d.Fields) > 0 {
		b.WriteString("  Fields:\n")
		for _, name := range sortedKeys(d.Fields) {
			values := d.Fields[name]
			if !options.Verbose && sensitiveField(name) {
				values = maskAll(values)
			}
			fmt.Fprintf(b, "    %-28s %s\n", f.colors["cyan"].Sprint(name), strings.Join(values, " | "))
		}
	}
	for _, e := range d.Errors {
		fmt.Fprintf(b, "  %s %s\n", f.colors["red"].Sprint("✗"), e)
	}
	for _, w := range d.Warnings {
		fmt.Fprintf(b, "  %s %s\n", f.colors["yellow"].Sprint("!"), w)
	}

	if !options.Verbose {
		return
	}
	if len(d.FinancialAmounts) > 0 {
		b.WriteString("  Amounts:\n")
		for _, a := range d.FinancialAmounts {
			fmt.Fprintf(b, "    %-14s @%d  %s\n", a.Formatted, a.Position, a.Context)
		}
	}
	if len(d.Entities) > 0 {
		b.WriteString("  Entities:\n")
		for _, e := range d.Entities {
			fmt.Fprintf(b, "    %-16s %-30s %.2f\n", e.Type, e.Value, e.Confidence)
		}
	}
}

// sensitiveField matches taxpayer identification numbers
func sensitiveField(name string) bool {
	return strings.HasSuffix(name, "ssn") || strings.HasSuffix(name, "_tin")
}

func maskAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = security.MaskSSN(v)
	}
	return out
}

func (f *Formatter) writeBatch(b *strings.Builder, batch *shared.Batch) {
	b.WriteString("\n")
	b.WriteString(f.colors["white"].Sprintf("Batch %s", batch.BatchID))
	b.WriteString("\n")
	fmt.Fprintf(b, "  Files:        %d\n", batch.TotalFiles)
	fmt.Fprintf(b, "  Successful:   %s\n", f.colors["green"].Sprint(batch.SuccessfulCount))
	fmt.Fprintf(b, "  Errors:       %s\n", f.colors["red"].Sprint(batch.ErrorCount))
	fmt.Fprintf(b, "  Success rate: %.1f%%\n", batch.SuccessRate)
	fmt.Fprintf(b, "  Avg conf.:    %.2f\n", batch.AverageConfidence)
	for _, name := range sortedCounts(batch.FormTypeDistribution) {
		fmt.Fprintf(b, "    %-8s %d\n", name, batch.FormTypeDistribution[name])
	}
}

func (f *Formatter) statusColor(d shared.Document) *color.Color {
	switch {
	case d.Error != "":
		return f.colors["red"]
	case d.IsValid:
		return f.colors["green"]
	default:
		return f.colors["yellow"]
	}
}

func (f *Formatter) levelColor(level string) *color.Color {
	switch level {
	case "HIGH":
		return f.colors["green"]
	case "MEDIUM":
		return f.colors["yellow"]
	default:
		return f.colors["red"]
	}
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
