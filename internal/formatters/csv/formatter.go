// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package csv

import (
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"taxform-scan/internal/formatters"
	"taxform-scan/internal/formatters/shared"
)

// Formatter implements CSV output formatting, one row per extracted field value
type Formatter struct{}

// NewFormatter creates a new CSV formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Name() string {
	return "csv"
}

func (f *Formatter) Description() string {
	return "Comma-separated values for spreadsheet import"
}

func (f *Formatter) FileExtension() string {
	return ".csv"
}

func (f *Formatter) Format(report formatters.Report, options formatters.FormatterOptions) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)

	header := []string{"File", "Form Type", "Status", "Confidence", "Valid", "Field", "Value"}
	if options.Verbose {
		header = append(header, "Errors", "Warnings")
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, d := range shared.ConvertReport(report, options).Documents {
		base := []string{d.FilePath, d.FormType, d.Status, strconv.FormatFloat(d.Confidence, 'f', 2, 64), strconv.FormatBool(d.IsValid)}
		extra := func() []string {
			if !options.Verbose {
				return nil
			}
			return []string{strings.Join(d.Errors, "; "), strings.Join(d.Warnings, "; ")}
		}

		names := sortedNames(d.Fields)
		if len(names) == 0 {
			if err := w.Write(append(append(base, "", ""), extra()...)); err != nil {
				return "", err
			}
			continue
		}
		for _, name := range names {
			for _, v := range d.Fields[name] {
				row := append(append([]string{}, base...), name, v)
				if err := w.Write(append(row, extra()...)); err != nil {
					return "", err
				}
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("error formatting CSV: %w", err)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func sortedNames(m map[string][]string) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
