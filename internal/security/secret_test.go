// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package security

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecret_RevealAndClear(t *testing.T) {
	s := NewSecret("hunter2")
	assert.Equal(t, "hunter2", s.Reveal())
	assert.False(t, s.Empty())

	s.Clear()
	assert.Equal(t, "", s.Reveal())
	assert.True(t, s.Empty())

	// idempotent
	s.Clear()
}

func TestSecret_NeverPrinted(t *testing.T) {
	s := NewSecret("hunter2")
	for _, verb := range []string{"%v", "%s", "%+v", "%#v", "%q"} {
		assert.NotContains(t, fmt.Sprintf(verb, s), "hunter2", verb)
	}
	assert.Equal(t, "[REDACTED]", s.String())

	var buf bytes.Buffer
	slog.New(slog.NewTextHandler(&buf, nil)).Info("login", "password", s)
	assert.NotContains(t, buf.String(), "hunter2")
	assert.True(t, strings.Contains(buf.String(), "password=[REDACTED]"))
}

func TestSecret_Nil(t *testing.T) {
	var s *Secret
	assert.True(t, s.Empty())
	assert.Equal(t, "", s.Reveal())
	assert.Equal(t, "", s.String())
	s.Clear()
}

func TestMaskSSN(t *testing.T) {
	tests := []struct{ in, want string }{
		{"123-45-6789", "***-**-6789"},
		{"123456789", "*****6789"},
		{"12-3456789", "**-***6789"},
		{"12", "**"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskSSN(tt.in), tt.in)
	}
}
