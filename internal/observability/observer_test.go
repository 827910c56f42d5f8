// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartTiming_LogsOperation(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "debug", "json")
	require.NoError(t, err)

	done := NewObserver(logger).StartTiming("pipeline", "process", "w2.txt")
	done(true, map[string]any{"entities": 4})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "pipeline", line["component"])
	assert.Equal(t, "process", line["operation"])
	assert.Equal(t, "w2.txt", line["target"])
	assert.Equal(t, true, line["success"])
	assert.EqualValues(t, 4, line["entities"])
	assert.Equal(t, "DEBUG", line["level"])
}

func TestStartTiming_NilObserver(t *testing.T) {
	var o *Observer
	assert.NotPanics(t, func() { o.StartTiming("x", "y", "")(false, nil) })
	assert.NotNil(t, o.Logger())
}

func TestNewLogger(t *testing.T) {
	_, err := NewLogger(&bytes.Buffer{}, "verbose", "text")
	assert.Error(t, err)

	_, err = NewLogger(&bytes.Buffer{}, "info", "xml")
	assert.Error(t, err)

	lvl, err := ParseLevel("WARNING")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)
}
