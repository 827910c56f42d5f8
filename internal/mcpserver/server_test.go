// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package mcpserver

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"taxform-scan/internal/core"
	"taxform-scan/internal/forms"
	"taxform-scan/internal/ingest"
	"taxform-scan/internal/observability"
	"taxform-scan/internal/pipeline"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const w2Text = "Wage and Tax Statement\nEmployee Name: Jane Roe\nEmployee SSN: 412-55-9087\n" +
	"Employer EIN: 12-3456789\nWages: $52,000.00\nFederal Income Tax Withheld: $6,100.00"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	clock := func() time.Time { return time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC) }
	dp := core.NewDocumentProcessor(
		ingest.NewExtractor(ingest.Config{}, observability.Discard()),
		pipeline.New(forms.Default(), pipeline.WithClock(clock)),
		core.WithClock(clock), core.WithUser("tester"))
	s, err := NewServer(dp)
	require.NoError(t, err)
	return s
}

func call(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	for _, content := range result.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			return tc.Text
		}
		if tc, ok := content.(*mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestNewServerNil(t *testing.T) {
	_, err := NewServer(nil)
	assert.Error(t, err)
}

func TestProcessText(t *testing.T) {
	s := newTestServer(t)
	result, err := s.handleProcessText(context.Background(), call(map[string]any{"text": w2Text}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var res core.DocumentResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &res))
	assert.Equal(t, "W2", res.FormType)
	assert.Equal(t, "mcp", res.FilePath)
}

func TestProcessTextBadHint(t *testing.T) {
	s := newTestServer(t)
	result, err := s.handleProcessText(context.Background(), call(map[string]any{"text": w2Text, "form_type": "W-9"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestClassify(t *testing.T) {
	s := newTestServer(t)
	result, err := s.handleClassify(context.Background(), call(map[string]any{"text": w2Text}))
	require.NoError(t, err)

	var body struct {
		FormType string `json:"form_type"`
		FormName string `json:"form_name"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &body))
	assert.Equal(t, "W2", body.FormType)
	assert.Equal(t, "Wage and Tax Statement", body.FormName)
}

func TestValidate(t *testing.T) {
	s := newTestServer(t)
	result, err := s.handleValidate(context.Background(), call(map[string]any{
		"form_type": "W2",
		"fields":    `{"employee_name":"Jane Roe"}`,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var body struct {
		IsValid bool     `json:"is_valid"`
		Errors  []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &body))
	assert.False(t, body.IsValid)
	assert.Contains(t, body.Errors, "Required field 'employee_ssn' is missing")
}

func TestValidateRejectsBadInput(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	result, err := s.handleValidate(ctx, call(map[string]any{"form_type": "W-9", "fields": "{}"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = s.handleValidate(ctx, call(map[string]any{"form_type": "W2", "fields": `{"shoe_size":"9"}`}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = s.handleValidate(ctx, call(map[string]any{"form_type": "W2"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestProcessFileMissing(t *testing.T) {
	s := newTestServer(t)
	result, err := s.handleProcessFile(context.Background(), call(map[string]any{"path": "/nonexistent/form.txt"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestStatisticsWithoutStore(t *testing.T) {
	s := newTestServer(t)
	result, err := s.handleStatistics(context.Background(), call(nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "system_info")
}
