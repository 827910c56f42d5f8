// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"taxform-scan/internal/core"
	"taxform-scan/internal/fields"
	"taxform-scan/internal/forms"
	"taxform-scan/internal/version"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server exposes the document processor as MCP tools
type Server struct {
	processor *core.DocumentProcessor
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(processor *core.DocumentProcessor) (*Server, error) {
	if processor == nil {
		return nil, fmt.Errorf("processor cannot be nil")
	}

	s := &Server{
		processor: processor,
		mcpServer: server.NewMCPServer("taxform-scan", version.Short(), server.WithToolCapabilities(false)),
	}
	s.registerTools()
	return s, nil
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"process_tax_form_text",
		mcp.WithDescription("Classify, extract and validate the fields of an IRS tax form from its text"),
		mcp.WithString("text", mcp.Required(), mcp.Description("Recognised text of the form")),
		mcp.WithString("form_type", mcp.Description("Optional form type hint (1040, W2, 1099, SCHEDULE_C, 941, 1120)")),
	), s.handleProcessText)

	s.mcpServer.AddTool(mcp.NewTool(
		"process_tax_form_file",
		mcp.WithDescription("OCR and process a tax form document (PDF, image or text file)"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Full path to the document")),
		mcp.WithString("form_type", mcp.Description("Optional form type hint")),
	), s.handleProcessFile)

	s.mcpServer.AddTool(mcp.NewTool(
		"classify_tax_form",
		mcp.WithDescription("Score text against every supported IRS form type"),
		mcp.WithString("text", mcp.Required(), mcp.Description("Recognised text of the form")),
	), s.handleClassify)

	s.mcpServer.AddTool(mcp.NewTool(
		"validate_tax_form_fields",
		mcp.WithDescription("Validate a JSON object of extracted fields against a form's rules"),
		mcp.WithString("form_type", mcp.Required(), mcp.Description("Form type to validate against")),
		mcp.WithString("fields", mcp.Required(), mcp.Description(`JSON object, e.g. {"name":"John Doe","ssn":"123-45-6789"}`)),
	), s.handleValidate)

	s.mcpServer.AddTool(mcp.NewTool(
		"tax_form_statistics",
		mcp.WithDescription("Report stored form counts and e-filing activity"),
	), s.handleStatistics)
}

// Run serves MCP over stdio
func (s *Server) Run(_ context.Context) error {
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}

func (s *Server) handleProcessText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hint, err := s.formHint(request.GetString("form_type", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.processor.ProcessText(ctx, "mcp", text, hint)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) handleProcessFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hint, err := s.formHint(request.GetString("form_type", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.processor.ProcessDocument(ctx, path, hint)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) handleClassify(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	p := s.processor.Pipeline()
	res := p.Classify(text)
	return jsonResult(map[string]any{
		"form_type": res.Best,
		"form_name": p.Catalog().DisplayName(res.Best),
		"scores":    res.Scores,
	})
}

func (s *Server) handleValidate(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawType, err := request.RequireString("form_type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ft, ok := s.processor.Pipeline().Catalog().Resolve(rawType)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown form type %q", rawType)), nil
	}
	raw, err := request.RequireString("fields")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	m := fields.NewMap()
	if err := json.Unmarshal([]byte(raw), m); err != nil {
		return mcp.NewToolResultError("invalid fields: " + err.Error()), nil
	}
	return jsonResult(s.processor.Pipeline().Validate(ft, m))
}

func (s *Server) handleStatistics(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.processor.Statistics(ctx, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(st)
}

func (s *Server) formHint(raw string) (forms.FormType, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	ft, ok := s.processor.Pipeline().Catalog().Resolve(raw)
	if !ok {
		return "", fmt.Errorf("unknown form type %q", raw)
	}
	return ft, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
