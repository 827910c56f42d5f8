// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"taxform-scan/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const form1040Text = "Form 1040\nName: John Doe\nSSN: 123-45-6789\nFiling Status: Single\nTotal Income: $50,000"

func TestParseFlags(t *testing.T) {
	var stderr bytes.Buffer

	f, err := parseFlags([]string{"-file", "a.pdf", "-format", "json", "-workers", "3"}, &stderr)
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", f.file)
	assert.Equal(t, 3, f.workers)

	_, err = parseFlags(nil, &stderr)
	assert.ErrorContains(t, err, "is required")

	_, err = parseFlags([]string{"-file", "a.pdf", "-dir", "b"}, &stderr)
	assert.ErrorContains(t, err, "mutually exclusive")

	_, err = parseFlags([]string{"-file", "a.pdf", "extra"}, &stderr)
	assert.ErrorContains(t, err, "unexpected arguments")

	f, err = parseFlags([]string{"-version"}, &stderr)
	require.NoError(t, err)
	assert.True(t, f.version)
}

func TestApplyFlags(t *testing.T) {
	cfg := config.Default()
	err := applyFlags(cfg, &cliFlags{format: "yaml", store: "NONE", efile: true, port: "9090", debug: true, headers: true})
	require.NoError(t, err)

	assert.Equal(t, "yaml", cfg.Defaults.Format)
	assert.Equal(t, config.DatabaseNone, cfg.Database.Type)
	assert.True(t, cfg.EFiling.Enabled)
	assert.True(t, cfg.EFiling.AutoEFile)
	assert.Equal(t, 9090, cfg.Web.Port)
	assert.Equal(t, "debug", cfg.Defaults.LogLevel)
	assert.True(t, cfg.Extraction.HeaderDetection)

	assert.Error(t, applyFlags(config.Default(), &cliFlags{port: "http"}))
	assert.Error(t, applyFlags(config.Default(), &cliFlags{store: "mysql"}))
}

func TestRunText(t *testing.T) {
	t.Setenv("DB_TYPE", "")
	out := t.TempDir()
	var stdout, stderr bytes.Buffer

	code := run([]string{"-text", "-", "-format", "json", "-store", "none", "-output", out},
		strings.NewReader(form1040Text), &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	var resp struct {
		Documents []struct {
			FormType string `json:"form_type"`
			IsValid  bool   `json:"is_valid"`
		} `json:"documents"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &resp))
	require.Len(t, resp.Documents, 1)
	assert.Equal(t, "1040", resp.Documents[0].FormType)
	assert.True(t, resp.Documents[0].IsValid)

	saved, err := filepath.Glob(filepath.Join(out, "processing_result_unsaved_*.json"))
	require.NoError(t, err)
	assert.Len(t, saved, 1)
}

func TestRunDirWithStoreAndXLSX(t *testing.T) {
	t.Setenv("DB_TYPE", "")
	t.Setenv("DATABASE_URL", "")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte(form1040Text), 0o600))

	cfgPath := filepath.Join(t.TempDir(), "taxform.yaml")
	dbPath := filepath.Join(t.TempDir(), "forms.db")
	require.NoError(t, os.WriteFile(cfgPath, []byte("database:\n  type: sqlite\n  connection: "+dbPath+"\n"), 0o600))

	xlsx := filepath.Join(t.TempDir(), "batch.xlsx")
	var stdout, stderr bytes.Buffer
	code := run([]string{"-dir", dir, "-config", cfgPath, "-format", "csv", "-output", t.TempDir(), "-xlsx", xlsx},
		strings.NewReader(""), &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "a.txt,1040,processed")

	info, err := os.Stat(xlsx)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	stdout.Reset()
	code = run([]string{"-stats", "-config", cfgPath}, strings.NewReader(""), &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), `"total_forms": 1`)
}

func TestRunUsageErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitUsage, run(nil, strings.NewReader(""), &stdout, &stderr))
	assert.Equal(t, exitUsage, run([]string{"-text", "x", "-format", "sarif", "-store", "none"}, strings.NewReader(""), &stdout, &stderr))
	assert.Equal(t, exitUsage, run([]string{"-text", "x", "-form-type", "W-9", "-store", "none", "-output", t.TempDir()}, strings.NewReader(""), &stdout, &stderr))
}

func TestRunFormTypeFromRulesFile(t *testing.T) {
	t.Setenv("DB_TYPE", "")
	dir := t.TempDir()
	rules := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(rules, []byte(`forms:
  - type: "8949"
    name: "Sales and Other Dispositions of Capital Assets"
    keywords: ["capital assets", "proceeds"]
    required_fields: [name, ssn]
`), 0o600))
	cfgPath := filepath.Join(dir, "taxform.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("rules_file: "+rules+"\ndatabase:\n  type: none\n"), 0o600))

	var stdout, stderr bytes.Buffer
	code := run([]string{"-text", "-", "-config", cfgPath, "-form-type", "form 8949", "-format", "json", "-output", t.TempDir()},
		strings.NewReader("Name: John Doe\nSSN: 412-55-9087"), &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	var resp struct {
		Documents []struct {
			FormType string `json:"form_type"`
			FormName string `json:"form_name"`
			IsValid  bool   `json:"is_valid"`
		} `json:"documents"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &resp))
	require.Len(t, resp.Documents, 1)
	assert.Equal(t, "8949", resp.Documents[0].FormType)
	assert.Equal(t, "Sales and Other Dispositions of Capital Assets", resp.Documents[0].FormName)
	assert.True(t, resp.Documents[0].IsValid)
}

func TestRunMissingFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-file", filepath.Join(t.TempDir(), "nope.txt"), "-store", "none", "-output", t.TempDir()},
		strings.NewReader(""), &stdout, &stderr)
	assert.Equal(t, exitFailed, code)
	assert.Contains(t, stderr.String(), "ingest failed")
}

func TestRunVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitOK, run([]string{"-version"}, strings.NewReader(""), &stdout, &stderr))
	assert.Contains(t, stdout.String(), "taxform-scan")
}

func TestRunHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitOK, run([]string{"-help"}, strings.NewReader(""), &stdout, &stderr))
	assert.Contains(t, stdout.String(), "-efile-status")

	stdout.Reset()
	assert.Equal(t, exitOK, run([]string{"-help", "1040"}, strings.NewReader(""), &stdout, &stderr))
	assert.Contains(t, stdout.String(), "filing_status")

	assert.Equal(t, exitUsage, run([]string{"-help", "nonsense"}, strings.NewReader(""), &stdout, &stderr))
}
