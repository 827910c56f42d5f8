// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SaveResult writes one document report as indented JSON into dir
func SaveResult(dir string, res *DocumentResult, now time.Time) (string, error) {
	id := res.FormID
	if id == "" {
		id = "unsaved"
	}
	name := fmt.Sprintf("processing_result_%s_%s.json", id, now.UTC().Format("20060102_150405"))
	return writeJSON(dir, name, res)
}

// SaveBatch writes a batch report as indented JSON into dir
func SaveBatch(dir string, report *BatchReport) (string, error) {
	return writeJSON(dir, "batch_result_"+report.BatchID+".json", report)
}

func writeJSON(dir, name string, v any) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}
