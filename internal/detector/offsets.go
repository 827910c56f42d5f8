// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import "unicode/utf8"

// Offsets converts byte offsets of one text into character offsets.
// Extractors match on bytes; entities carry character positions.
type Offsets struct {
	// chars[i] is the number of characters in text[:i]; nil for ASCII text
	chars []int
}

// NewOffsets indexes text
func NewOffsets(text string) *Offsets {
	ascii := true
	for i := 0; i < len(text); i++ {
		if text[i] >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return &Offsets{}
	}

	chars := make([]int, len(text)+1)
	n, last := 0, 0
	for i := range text {
		// bytes inside a multi-byte character share its offset
		for j := last + 1; j < i; j++ {
			chars[j] = chars[last]
		}
		chars[i] = n
		n++
		last = i
	}
	for j := last + 1; j < len(text); j++ {
		chars[j] = chars[last]
	}
	chars[len(text)] = n
	return &Offsets{chars: chars}
}

// Char returns the character offset of byte offset b
func (o *Offsets) Char(b int) int {
	if o.chars == nil {
		return b
	}
	return o.chars[max(0, min(b, len(o.chars)-1))]
}

// Span converts a byte span to a character span
func (o *Offsets) Span(start, end int) (int, int) {
	return o.Char(start), o.Char(end)
}
