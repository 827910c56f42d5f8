// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrInvalidInput is matched by every InvalidInputError
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError reports text that cannot enter the pipeline at all.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// CheckText rejects empty, blank and non-UTF-8 text.
func CheckText(text string) error {
	switch {
	case text == "":
		return &InvalidInputError{Reason: "text is empty"}
	case !utf8.ValidString(text):
		return &InvalidInputError{Reason: "text is not valid UTF-8"}
	case strings.TrimSpace(text) == "":
		return &InvalidInputError{Reason: "text contains only whitespace"}
	}
	return nil
}
