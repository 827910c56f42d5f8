// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"taxform-scan/internal/forms"
	"taxform-scan/internal/parallel"
)

// DefaultPatterns are the file globs picked up by batch processing
var DefaultPatterns = []string{"*.pdf", "*.png", "*.jpg", "*.jpeg", "*.tiff", "*.txt"}

// BatchSummary aggregates the successful documents
type BatchSummary struct {
	FormTypeDistribution map[string]int `json:"form_type_distribution"`
	AverageConfidence    float64        `json:"average_confidence"`
}

// BatchReport is the outcome of processing a directory
type BatchReport struct {
	BatchID         string                    `json:"batch_id"`
	Directory       string                    `json:"directory"`
	StartTime       string                    `json:"start_time"`
	EndTime         string                    `json:"end_time"`
	TotalFiles      int                       `json:"total_files"`
	SuccessfulCount int                       `json:"successful_count"`
	ErrorCount      int                       `json:"error_count"`
	SuccessRate     float64                   `json:"success_rate"`
	Summary         BatchSummary              `json:"summary"`
	Stats           *parallel.ProcessingStats `json:"stats"`
	Results         []*DocumentResult         `json:"processed_files"`
}

// BatchOptions tunes ProcessBatch
type BatchOptions struct {
	Patterns   []string
	Hint       forms.FormType
	Workers    int
	JobTimeout time.Duration
	Progress   parallel.ProgressCallback
}

// FindDocuments lists the files in dir matching any pattern, sorted and
// without duplicates. Patterns match case-insensitively on the extension.
func FindDocuments(dir string, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		for _, p := range patterns {
			if ok, _ := filepath.Match(lowerExt(p), lowerExt(e.Name())); ok {
				out = append(out, filepath.Join(dir, e.Name()))
				break
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// ProcessBatch processes every matching file in dir on a worker pool. A
// failing document is counted as an error and never stops the others.
func (dp *DocumentProcessor) ProcessBatch(ctx context.Context, dir string, opts BatchOptions) (*BatchReport, error) {
	files, err := FindDocuments(dir, opts.Patterns)
	if err != nil {
		return nil, fmt.Errorf("scan directory: %w", err)
	}

	start := dp.now()
	report := &BatchReport{
		BatchID:    "BATCH_" + start.UTC().Format("20060102_150405"),
		Directory:  dir,
		StartTime:  start.UTC().Format(time.RFC3339),
		TotalFiles: len(files),
	}
	dp.observer.Logger().Info("batch started", "batch_id", report.BatchID, "files", len(files))

	handler := func(ctx context.Context, path string) (*DocumentResult, error) {
		return dp.ProcessDocument(ctx, path, opts.Hint)
	}
	results, stats := parallel.ProcessFiles(ctx, files, handler, parallel.Options{
		Workers:    opts.Workers,
		JobTimeout: opts.JobTimeout,
		Progress:   opts.Progress,
		Observer:   dp.observer,
	})
	report.Stats = stats

	dist := map[string]int{}
	var confSum float64
	for _, r := range results {
		doc := r.Value
		if doc == nil {
			doc = &DocumentResult{FilePath: r.FilePath, Status: "error"}
		}
		if r.Error != nil && doc.Error == "" {
			doc.Error = r.Error.Error()
		}
		if r.Error == nil && doc.Success {
			report.SuccessfulCount++
			dist[doc.FormType]++
			confSum += doc.Confidence
		} else {
			doc.Success = false
			report.ErrorCount++
		}
		report.Results = append(report.Results, doc)
	}

	if report.TotalFiles > 0 {
		report.SuccessRate = float64(report.SuccessfulCount) / float64(report.TotalFiles) * 100
	}
	report.Summary = BatchSummary{
		FormTypeDistribution: dist,
		AverageConfidence:    confSum / float64(max(report.SuccessfulCount, 1)),
	}
	report.EndTime = dp.now().UTC().Format(time.RFC3339)

	dp.observer.Logger().Info("batch completed",
		"batch_id", report.BatchID,
		"successful", report.SuccessfulCount,
		"total", report.TotalFiles)
	return report, nil
}

func lowerExt(s string) string {
	ext := filepath.Ext(s)
	return s[:len(s)-len(ext)] + strings.ToLower(ext)
}
