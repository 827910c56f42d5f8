// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// ErrUnsupportedFormat is returned for file types the extractor cannot read
var ErrUnsupportedFormat = errors.New("unsupported file format")

var (
	textExtensions  = []string{".txt", ".text"}
	pdfExtensions   = []string{".pdf"}
	imageExtensions = []string{".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp"}
)

// SupportedExtensions lists every readable file extension
func SupportedExtensions() []string {
	return slices.Concat(textExtensions, pdfExtensions, imageExtensions)
}

// IsSupported reports whether path has a readable extension
func IsSupported(path string) bool {
	return slices.Contains(SupportedExtensions(), strings.ToLower(filepath.Ext(path)))
}

// Config controls the external OCR tools
type Config struct {
	Tesseract     string // binary name or path; defaults to "tesseract"
	Pdftoppm      string // rasteriser for scanned PDFs; empty disables PDF OCR
	Language      string // defaults to "eng"
	TessdataDir   string
	PSM           int
	OEM           int
	DPI           int // rasterisation DPI, defaults to 300
	MaxPages      int // 0 means no limit
	TSVConfidence bool
}

// Extractor reads text, PDF and image files
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

// NewExtractor creates an extractor that runs tools with os/exec
func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// WithRunner replaces the command runner
func (e *Extractor) WithRunner(r Runner) *Extractor {
	e.runner = r
	return e
}

// Read picks a strategy from the file extension and normalises every page
func (e *Extractor) Read(ctx context.Context, path string) (*Document, error) {
	start := time.Now()
	ext := strings.ToLower(filepath.Ext(path))
	e.logger.Debug("reading document", "path", path, "ext", ext)

	var (
		doc *Document
		err error
	)
	switch {
	case slices.Contains(textExtensions, ext):
		doc, err = e.readText(path)
	case slices.Contains(pdfExtensions, ext):
		doc, err = e.readPDF(ctx, path)
	case slices.Contains(imageExtensions, ext):
		doc, err = e.readImage(ctx, path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	for i := range doc.Pages {
		doc.Pages[i].Text = Normalize(doc.Pages[i].Text)
	}
	doc.Path = path
	doc.Duration = time.Since(start)
	return doc, nil
}
