// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"context"
	"strings"
	"time"
)

// Source types
const (
	SourceText  = "text"
	SourcePDF   = "pdf"
	SourceImage = "image"
)

// Page is the recognised text of one page with its OCR confidence in [0,1]
type Page struct {
	Number     int     `json:"number"`
	Text       string  `json:"-"`
	Confidence float64 `json:"confidence"`
}

// Document is the output of the OCR collaborator for one file
type Document struct {
	Path       string            `json:"path"`
	SourceType string            `json:"source_type"`
	Method     string            `json:"method"`
	Pages      []Page            `json:"pages"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Warnings   []string          `json:"warnings,omitempty"`
	Duration   time.Duration     `json:"duration"`
}

// Text joins the page texts with newlines
func (d *Document) Text() string {
	parts := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n")
}

// Confidence is the mean page confidence, zero without pages
func (d *Document) Confidence() float64 {
	if len(d.Pages) == 0 {
		return 0
	}
	var sum float64
	for _, p := range d.Pages {
		sum += p.Confidence
	}
	return sum / float64(len(d.Pages))
}

// Reader turns a file into recognised text
type Reader interface {
	Read(ctx context.Context, path string) (*Document, error)
}
