// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`[\t\f\v]+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
	reTrailing   = regexp.MustCompile(`(?m) +$`)
	reManyBlank  = regexp.MustCompile(`\n{3,}`)
	reBoxNoise   = regexp.MustCompile(`[│┃┆┇┊┋|]{2,}`)
)

// Normalize folds compatibility characters (full-width digits, ligatures,
// non-breaking spaces) with NFKC and tidies OCR whitespace. Line structure is
// kept because field labels are read line by line.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ReplaceAll(s, " ", " ")
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reBoxNoise.ReplaceAllString(s, " ")
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = reTrailing.ReplaceAllString(s, "")
	s = reManyBlank.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
