// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"taxform-scan/internal/core"
	"taxform-scan/internal/export"
	"taxform-scan/internal/fields"
	"taxform-scan/internal/formatters"
	"taxform-scan/internal/forms"
	"taxform-scan/internal/ingest"
	"taxform-scan/internal/storage"
	"taxform-scan/internal/version"

	// Import formatters to register them
	_ "taxform-scan/internal/formatters/csv"
	_ "taxform-scan/internal/formatters/json"
	_ "taxform-scan/internal/formatters/text"
	_ "taxform-scan/internal/formatters/yaml"
)

const maxUploadBytes = 32 << 20

// WebServer serves the HTTP JSON API
type WebServer struct {
	port      string
	processor *core.DocumentProcessor
	dbType    string
	logger    *slog.Logger
	server    *http.Server
	now       func() time.Time
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// ProcessTextRequest is the JSON body accepted by /api/process
type ProcessTextRequest struct {
	Text     string `json:"text"`
	FormType string `json:"form_type,omitempty"`
	Source   string `json:"source,omitempty"`
}

// ValidateRequest is the body of /api/validate
type ValidateRequest struct {
	FormType string      `json:"form_type"`
	Fields   *fields.Map `json:"fields"`
}

// NewWebServer creates a new web server instance
func NewWebServer(port string, processor *core.DocumentProcessor, dbType string, logger *slog.Logger) *WebServer {
	return &WebServer{
		port:      port,
		processor: processor,
		dbType:    dbType,
		logger:    logger,
		now:       time.Now,
	}
}

// Handler returns the routed API
func (ws *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", ws.handleHealth)
	mux.HandleFunc("POST /api/process", ws.handleProcess)
	mux.HandleFunc("POST /api/validate", ws.handleValidate)
	mux.HandleFunc("GET /api/forms", ws.handleListForms)
	mux.HandleFunc("GET /api/forms/{id}", ws.handleGetForm)
	mux.HandleFunc("GET /api/forms.xlsx", ws.handleFormsXLSX)
	mux.HandleFunc("GET /api/statistics", ws.handleStatistics)
	mux.HandleFunc("GET /api/formats", ws.handleFormats)
	return mux
}

// Start listens until ctx is cancelled
func (ws *WebServer) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", ":"+ws.port)
	if err != nil {
		return fmt.Errorf("port %s is not available: %w", ws.port, err)
	}

	ws.server = ws.createSecureServer()
	ws.logger.Info("web api started", "addr", listener.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- ws.server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return ws.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Stop stops the web server
func (ws *WebServer) Stop() error {
	if ws.server != nil {
		return ws.server.Close()
	}
	return nil
}

// createSecureServer creates an HTTP server with security timeouts
func (ws *WebServer) createSecureServer() *http.Server {
	return &http.Server{
		Handler:           ws.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      5 * time.Minute, // multi-page OCR
		IdleTimeout:       60 * time.Second,
	}
}

// handleHealth reports liveness and build information
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	info := version.Full()
	ws.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": ws.now().UTC().Format(time.RFC3339),
		"service":   "taxform-scan",
		"version":   info["version"],
		"build_info": map[string]any{
			"commit":     info["commit"],
			"build_date": info["buildDate"],
			"go_version": info["goVersion"],
			"platform":   info["platform"],
		},
		"database": ws.dbType,
	})
}

// handleProcess accepts either a multipart upload in field "file" or a JSON
// body with raw text. ?format= selects a registered formatter for the reply.
func (ws *WebServer) handleProcess(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	var (
		res *core.DocumentResult
		err error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		res, err = ws.processUpload(r)
	} else {
		res, err = ws.processText(r)
	}
	if err != nil {
		var reqErr *requestError
		if errors.As(err, &reqErr) {
			ws.sendError(w, reqErr.msg, http.StatusBadRequest)
			return
		}
		ws.logger.Error("processing failed", "error", err)
		// The document result still describes the failure
		if res == nil {
			ws.sendError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		ws.writeResult(w, r, http.StatusUnprocessableEntity, res)
		return
	}
	ws.writeResult(w, r, http.StatusOK, res)
}

type requestError struct{ msg string }

func (e *requestError) Error() string { return e.msg }

func (ws *WebServer) processText(r *http.Request) (*core.DocumentResult, error) {
	var req ProcessTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, &requestError{"invalid JSON body: " + err.Error()}
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, &requestError{"text is required"}
	}
	hint, err := ws.parseHint(req.FormType)
	if err != nil {
		return nil, err
	}
	source := req.Source
	if source == "" {
		source = "api"
	}
	return ws.processor.ProcessText(r.Context(), sanitizeUserInput(source, 200), req.Text, hint)
}

func (ws *WebServer) processUpload(r *http.Request) (*core.DocumentResult, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, &requestError{"failed to parse form data"}
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, &requestError{"no file uploaded in field 'file'"}
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !ingest.IsSupported(name) {
		return nil, &requestError{fmt.Sprintf("file type not supported: %s (supported: %s)",
			sanitizeUserInput(filepath.Ext(name), 20), strings.Join(ingest.SupportedExtensions(), ", "))}
	}
	hint, err := ws.parseHint(r.FormValue("form_type"))
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "taxform-upload-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "upload"+strings.ToLower(filepath.Ext(name)))
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		return nil, err
	}
	if err := out.Close(); err != nil {
		return nil, err
	}

	res, err := ws.processor.ProcessDocument(r.Context(), path, hint)
	if res != nil {
		res.FilePath = sanitizeUserInput(name, 255)
	}
	return res, err
}

func (ws *WebServer) parseHint(s string) (forms.FormType, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	ft, ok := ws.processor.Pipeline().Catalog().Resolve(s)
	if !ok {
		return "", &requestError{fmt.Sprintf("unknown form type %q", sanitizeUserInput(s, 40))}
	}
	return ft, nil
}

// handleValidate checks a field map against a form's rules
func (ws *WebServer) handleValidate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ws.sendError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	ft, ok := ws.processor.Pipeline().Catalog().Resolve(req.FormType)
	if !ok {
		ws.sendError(w, fmt.Sprintf("unknown form type %q", sanitizeUserInput(req.FormType, 40)), http.StatusBadRequest)
		return
	}
	if req.Fields == nil {
		req.Fields = fields.NewMap()
	}

	result := ws.processor.Pipeline().Validate(ft, req.Fields)
	ws.writeJSON(w, http.StatusOK, map[string]any{
		"form_type":  ft,
		"form_name":  ws.processor.Pipeline().Catalog().DisplayName(ft),
		"validation": result,
	})
}

func (ws *WebServer) store(w http.ResponseWriter) (storage.Store, bool) {
	s := ws.processor.Store()
	if s == nil {
		ws.sendError(w, "persistence is disabled", http.StatusServiceUnavailable)
		return nil, false
	}
	return s, true
}

// handleListForms lists stored forms, newest first
func (ws *WebServer) handleListForms(w http.ResponseWriter, r *http.Request) {
	s, ok := ws.store(w)
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		ws.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	records, err := s.ListForms(r.Context(), limit)
	if err != nil {
		ws.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	ws.writeJSON(w, http.StatusOK, map[string]any{"forms": records, "count": len(records)})
}

// handleGetForm returns one stored form
func (ws *WebServer) handleGetForm(w http.ResponseWriter, r *http.Request) {
	s, ok := ws.store(w)
	if !ok {
		return
	}
	rec, err := s.GetForm(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		ws.sendError(w, "form not found", http.StatusNotFound)
	case err != nil:
		ws.sendError(w, err.Error(), http.StatusInternalServerError)
	default:
		ws.writeJSON(w, http.StatusOK, rec)
	}
}

// handleFormsXLSX exports stored forms as a workbook
func (ws *WebServer) handleFormsXLSX(w http.ResponseWriter, r *http.Request) {
	s, ok := ws.store(w)
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit", 1000)
	if err != nil {
		ws.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	records, err := s.ListForms(r.Context(), limit)
	if err != nil {
		ws.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	data, err := export.FormsXLSX(records)
	if err != nil {
		ws.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="tax_forms.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleStatistics reports storage and e-filing figures
func (ws *WebServer) handleStatistics(w http.ResponseWriter, r *http.Request) {
	st, err := ws.processor.Statistics(r.Context(), ws.dbType)
	if err != nil {
		ws.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	ws.writeJSON(w, http.StatusOK, st)
}

// handleFormats lists the output formats accepted by ?format=
func (ws *WebServer) handleFormats(w http.ResponseWriter, r *http.Request) {
	infos := make([]formatters.FormatInfo, 0)
	for _, name := range formatters.List() {
		infos = append(infos, formatters.GetFormatInfo(name))
	}
	ws.writeJSON(w, http.StatusOK, infos)
}

func (ws *WebServer) writeResult(w http.ResponseWriter, r *http.Request, status int, res *core.DocumentResult) {
	format := r.URL.Query().Get("format")
	if format == "" {
		ws.writeJSON(w, status, res)
		return
	}

	out, err := formatters.Export(format, formatters.SingleReport(res), formatters.FormatterOptions{
		NoColor: true,
		Verbose: r.URL.Query().Get("verbose") == "true",
	})
	if err != nil {
		ws.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", formatters.GetFormatInfo(format).MimeType)
	w.WriteHeader(status)
	io.WriteString(w, out)
}

func (ws *WebServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ws.logger.Warn("failed to encode response", "error", err)
	}
}

// sendError sends an error response with a specific HTTP status code
func (ws *WebServer) sendError(w http.ResponseWriter, message string, statusCode int) {
	ws.writeJSON(w, statusCode, ErrorResponse{Success: false, Error: message})
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return n, nil
}

// sanitizeUserInput removes control and markup characters from user input for safe output
func sanitizeUserInput(input string, maxLength int) string {
	sanitized := strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		switch r {
		case '<', '>', '"', '\'', '&':
			return -1
		}
		return r
	}, input)

	if len(sanitized) > maxLength {
		sanitized = sanitized[:maxLength] + "..."
	}
	return sanitized
}
