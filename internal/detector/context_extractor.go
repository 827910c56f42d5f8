// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import (
	"strings"
	"unicode/utf8"
)

// ExtractContext returns the context around text[start:end]. Windows are
// counted in characters and clipped to the text bounds.
func (ce *ContextExtractor) ExtractContext(text string, start, end int) ContextInfo {
	start = max(0, min(start, len(text)))
	end = max(start, min(end, len(text)))

	lo := start
	for i := 0; i < ce.ContextChars && lo > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:lo])
		lo -= size
	}

	hi := end
	for i := 0; i < ce.ContextChars && hi < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[hi:])
		hi += size
	}

	lineStart := strings.LastIndexByte(text[:start], '\n') + 1
	lineEnd := len(text)
	if idx := strings.IndexByte(text[end:], '\n'); idx >= 0 {
		lineEnd = end + idx
	}

	return ContextInfo{
		BeforeText: text[lo:start],
		AfterText:  text[end:hi],
		FullLine:   strings.TrimRight(text[lineStart:lineEnd], "\r"),
		Snippet:    strings.TrimSpace(text[lo:hi]),
	}
}
