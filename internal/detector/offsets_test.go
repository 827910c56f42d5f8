// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOffsets_ASCIIIsIdentity(t *testing.T) {
	o := NewOffsets("SSN: 412-55-9087")
	assert.Equal(t, 5, o.Char(5))
	start, end := o.Span(5, 16)
	assert.Equal(t, 5, start)
	assert.Equal(t, 16, end)
}

func TestOffsets_CountsCharacters(t *testing.T) {
	text := "José Núñez — SSN: 412-55-9087"
	o := NewOffsets(text)

	b := strings.Index(text, "412")
	start, end := o.Span(b, len(text))
	runes := []rune(text)
	assert.Equal(t, "412-55-9087", string(runes[start:end]))
	assert.Equal(t, len(runes), end)

	// a byte inside "é" maps to that character
	assert.Equal(t, 3, o.Char(strings.Index(text, "é")+1))
	assert.Equal(t, len(runes), o.Char(len(text)+10))
}
