// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxform-scan/internal/observability"
)

type fakeRunner struct {
	calls  [][]string
	stdout map[string]string // keyed by last argument
	err    error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.err != nil {
		return nil, []byte("boom"), f.err
	}
	return []byte(f.stdout[args[len(args)-1]]), nil, nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadText(t *testing.T) {
	path := writeFile(t, "w2.txt", "Form W-2\r\nWages:   $75,000\f\nPage two")
	e := NewExtractor(Config{}, observability.Discard())

	doc, err := e.Read(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, SourceText, doc.SourceType)
	require.Len(t, doc.Pages, 2)
	assert.Equal(t, "Form W-2\nWages: $75,000", doc.Pages[0].Text)
	assert.Equal(t, "Page two", doc.Pages[1].Text)
	assert.Equal(t, "Form W-2\nWages: $75,000\nPage two", doc.Text())
	assert.InDelta(t, 1.0, doc.Confidence(), 1e-9)
	assert.Equal(t, path, doc.Path)
}

func TestReadUnsupported(t *testing.T) {
	path := writeFile(t, "form.docx", "x")
	_, err := NewExtractor(Config{}, observability.Discard()).Read(context.Background(), path)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestReadImageWithTSV(t *testing.T) {
	path := writeFile(t, "scan.png", "not really a png")
	tsv := strings.Join([]string{
		"level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext",
		"1\t1\t0\t0\t0\t0\t0\t0\t100\t100\t-1\t",
		"5\t1\t1\t1\t1\t1\t0\t0\t10\t10\t90\tForm",
		"5\t1\t1\t1\t1\t2\t0\t0\t10\t10\t70\t1040",
	}, "\n")
	runner := &fakeRunner{stdout: map[string]string{"eng": "Form 1040\nSSN: 123-45-6789", "tsv": tsv}}

	e := NewExtractor(Config{TSVConfidence: true}, observability.Discard()).WithRunner(runner)
	doc, err := e.Read(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, SourceImage, doc.SourceType)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, "Form 1040\nSSN: 123-45-6789", doc.Pages[0].Text)
	assert.InDelta(t, 0.8, doc.Confidence(), 1e-9)
	require.Len(t, runner.calls, 2)
	assert.Equal(t, []string{"tesseract", path, "stdout", "-l", "eng"}, runner.calls[0])
}

func TestReadImageRunnerFailure(t *testing.T) {
	path := writeFile(t, "scan.jpg", "x")
	e := NewExtractor(Config{}, observability.Discard()).WithRunner(&fakeRunner{err: errors.New("exit 1")})
	_, err := e.Read(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tesseract")
}

func TestTesseractArgs(t *testing.T) {
	e := NewExtractor(Config{Language: "deu", PSM: 6, OEM: 1, TessdataDir: "/td"}, observability.Discard())
	assert.Equal(t,
		[]string{"a.png", "stdout", "-l", "deu", "--psm", "6", "--oem", "1", "--tessdata-dir", "/td"},
		e.tesseractArgs("a.png"))
}

func TestHeuristicConfidence(t *testing.T) {
	assert.Zero(t, heuristicConfidence("  "))
	assert.InDelta(t, 0.3, heuristicConfidence("hello"), 1e-9)
	assert.InDelta(t, 0.8, heuristicConfidence("Form 1040 SSN 123-45-6789 total $50,000.00"), 1e-9)
}

func TestParseTSVConfidenceEmpty(t *testing.T) {
	_, ok := parseTSVConfidence("header only")
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	in := "  Ｆｏｒｍ　１０４０ \r\n\tWages:  $1\n\n\n\nEnd  "
	assert.Equal(t, "Form 1040\n Wages: $1\n\nEnd", Normalize(in))
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("a/b/W2.PDF"))
	assert.True(t, IsSupported("scan.tiff"))
	assert.False(t, IsSupported("notes.md"))
}

func TestDocumentConfidenceNoPages(t *testing.T) {
	assert.Zero(t, (&Document{}).Confidence())
}
