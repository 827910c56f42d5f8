// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Pages with less text than this are treated as scanned
const minTextLayerChars = 20

func (e *Extractor) readPDF(ctx context.Context, path string) (*Document, error) {
	doc := &Document{SourceType: SourcePDF, Method: "text-layer", Metadata: map[string]string{}}

	info, err := inspectPDF(path)
	if err != nil {
		e.logger.Warn("pdf structure unreadable", "path", path, "error", err)
		doc.Warnings = append(doc.Warnings, fmt.Sprintf("structure: %v", err))
	} else {
		doc.Metadata["page_count"] = strconv.Itoa(info.pageCount)
		for name, value := range info.formFields {
			doc.Metadata["acroform."+name] = value
		}
	}

	pages, err := textLayer(path, e.cfg.MaxPages)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf text: %w", err)
	}

	var chars int
	for _, p := range pages {
		chars += len(strings.TrimSpace(p.Text))
	}
	if chars >= minTextLayerChars*max(len(pages), 1) {
		doc.Pages = pages
		return doc, nil
	}

	if e.cfg.Pdftoppm == "" {
		doc.Pages = pages
		doc.Warnings = append(doc.Warnings, "pdf has no usable text layer and rasterisation is disabled")
		return doc, nil
	}

	e.logger.Info("pdf text layer empty, running OCR", "path", path)
	ocrPages, warns, err := e.rasterOCR(ctx, path)
	if err != nil {
		return nil, err
	}
	doc.Method = "tesseract"
	doc.Pages = ocrPages
	doc.Warnings = append(doc.Warnings, warns...)
	return doc, nil
}

// textLayer reads the embedded text of every page row by row. Digital text
// carries full confidence.
func textLayer(path string, maxPages int) ([]Page, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	n := r.NumPage()
	if maxPages > 0 && n > maxPages {
		n = maxPages
	}

	pages := make([]Page, 0, n)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := pageText(p)
		if err != nil {
			text = ""
		}
		conf := 1.0
		if strings.TrimSpace(text) == "" {
			conf = 0
		}
		pages = append(pages, Page{Number: i, Text: text, Confidence: conf})
	}
	return pages, nil
}

func pageText(p pdf.Page) (string, error) {
	rows, err := p.GetTextByRow()
	if err != nil || len(rows) == 0 {
		return p.GetPlainText(nil)
	}

	var b strings.Builder
	for _, row := range rows {
		if row == nil || len(row.Content) == 0 {
			continue
		}
		var line strings.Builder
		for _, t := range row.Content {
			if line.Len() > 0 && !strings.HasSuffix(line.String(), " ") && !strings.HasPrefix(t.S, " ") {
				line.WriteByte(' ')
			}
			line.WriteString(t.S)
		}
		b.WriteString(strings.TrimSpace(line.String()))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

type pdfInfo struct {
	pageCount  int
	formFields map[string]string
}

// inspectPDF reads the page count and filled AcroForm text values
func inspectPDF(path string) (*pdfInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(f, conf)
	if err != nil {
		return nil, fmt.Errorf("read context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}

	info := &pdfInfo{pageCount: ctx.PageCount, formFields: map[string]string{}}

	root, err := ctx.Catalog()
	if err != nil {
		return info, nil
	}
	acroObj, found := root.Find("AcroForm")
	if !found {
		return info, nil
	}
	acro, err := ctx.DereferenceDict(acroObj)
	if err != nil || acro == nil {
		return info, nil
	}
	fieldsObj, found := acro.Find("Fields")
	if !found {
		return info, nil
	}
	fieldRefs, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return info, nil
	}

	for i, ref := range fieldRefs {
		d, err := ctx.DereferenceDict(ref)
		if err != nil || d == nil {
			continue
		}
		name := fmt.Sprintf("field_%d", i)
		if obj, ok := d.Find("T"); ok {
			if s, err := ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil); err == nil && s != "" {
				name = s
			}
		}
		obj, ok := d.Find("V")
		if !ok {
			continue
		}
		if s, err := ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil); err == nil && strings.TrimSpace(s) != "" {
			info.formFields[name] = strings.TrimSpace(s)
		}
	}
	return info, nil
}

// rasterOCR renders each page with pdftoppm and recognises the images
func (e *Extractor) rasterOCR(ctx context.Context, path string) ([]Page, []string, error) {
	tmpDir, err := os.MkdirTemp("", "taxform-pp-*")
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("failed to remove temp dir", "dir", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", strconv.Itoa(e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return nil, nil, fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(string(errb)))
	}

	images, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(images)
	if e.cfg.MaxPages > 0 && len(images) > e.cfg.MaxPages {
		images = images[:e.cfg.MaxPages]
	}
	if len(images) == 0 {
		return nil, nil, fmt.Errorf("pdftoppm produced no images")
	}

	var (
		pages []Page
		warns []string
	)
	for i, img := range images {
		page, w, err := e.ocrImage(ctx, img, i+1)
		if err != nil {
			warns = append(warns, err.Error())
			continue
		}
		pages = append(pages, page)
		warns = append(warns, w...)
	}
	return pages, warns, nil
}
