// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// tesseract TSV column holding the word confidence
const tsvConfColumn = 10

var (
	reTaxID  = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b|\b\d{2}-\d{7}\b`)
	reAmount = regexp.MustCompile(`\$\s?\d[\d,]*(\.\d{2})?`)
	reFormNo = regexp.MustCompile(`(?i)\bform\b|\bw-?2\b|\b1040\b|\b1099\b`)
)

func (e *Extractor) readImage(ctx context.Context, path string) (*Document, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to stat image: %w", err)
	}

	doc := &Document{SourceType: SourceImage, Method: "tesseract", Metadata: map[string]string{}}

	page, warns, err := e.ocrImage(ctx, path, 1)
	if err != nil {
		return nil, err
	}
	doc.Pages = []Page{page}
	doc.Warnings = append(doc.Warnings, warns...)

	meta, err := imageMetadata(path)
	if err != nil {
		e.logger.Debug("no EXIF metadata", "path", path, "error", err)
	}
	for k, v := range meta {
		doc.Metadata[k] = v
	}
	return doc, nil
}

// ocrImage recognises a single image and scores the result
func (e *Extractor) ocrImage(ctx context.Context, path string, number int) (Page, []string, error) {
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, e.tesseractArgs(path)...)
	if err != nil {
		return Page{}, nil, fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(string(errb)))
	}
	text := string(out)

	var warns []string
	conf := heuristicConfidence(text)
	if e.cfg.TSVConfidence {
		tsv, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, append(e.tesseractArgs(path), "tsv")...)
		switch {
		case err != nil:
			warns = append(warns, fmt.Sprintf("tsv confidence unavailable: %s", strings.TrimSpace(string(errb))))
		default:
			if c, ok := parseTSVConfidence(string(tsv)); ok {
				conf = c
			}
		}
	}
	if strings.TrimSpace(text) == "" {
		warns = append(warns, fmt.Sprintf("page %d: no text recognised", number))
		conf = 0
	}
	return Page{Number: number, Text: text, Confidence: conf}, warns, nil
}

func (e *Extractor) tesseractArgs(path string) []string {
	args := []string{path, "stdout", "-l", e.cfg.Language}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	return args
}

// parseTSVConfidence returns the mean word confidence in [0,1]
func parseTSVConfidence(tsv string) (float64, bool) {
	var sum, n float64
	for i, ln := range strings.Split(tsv, "\n") {
		if i == 0 || ln == "" {
			continue
		}
		cols := strings.Split(ln, "\t")
		if len(cols) <= tsvConfColumn {
			continue
		}
		v, err := strconv.ParseFloat(cols[tsvConfColumn], 64)
		if err != nil || v < 0 {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / n / 100, true
}

// heuristicConfidence scores recognised text by the tax form markers it contains
func heuristicConfidence(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	score := 0.3
	if reTaxID.MatchString(text) {
		score += 0.2
	}
	if reAmount.MatchString(text) {
		score += 0.2
	}
	if reFormNo.MatchString(text) {
		score += 0.1
	}
	if len(text) > 200 {
		score += 0.1
	}
	return min(score, 0.9)
}

type exifWalker struct {
	data map[string]string
}

func (w *exifWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	switch name {
	case exif.Make, exif.Model, exif.Software, exif.DateTime, exif.DateTimeOriginal,
		exif.XResolution, exif.YResolution, exif.PixelXDimension, exif.PixelYDimension:
		w.data[strings.ToLower(string(name))] = strings.Trim(tag.String(), `"`)
	}
	return nil
}

// imageMetadata pulls scanner and resolution tags from EXIF
func imageMetadata(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return nil, err
	}
	w := &exifWalker{data: map[string]string{}}
	if err := x.Walk(w); err != nil {
		return nil, err
	}
	return w.data, nil
}
