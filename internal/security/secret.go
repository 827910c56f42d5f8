// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package security

import (
	"fmt"
	"log/slog"
	"strings"
)

const redacted = "[REDACTED]"

// Secret holds a credential with best-effort memory scrubbing on Clear.
// Its String, Format and LogValue methods never print the value.
//
// Go may copy memory at any time and Reveal returns an immutable copy, so
// Clear only narrows the window of exposure.
type Secret struct {
	data []byte
}

// NewSecret copies s into a mutable byte slice
func NewSecret(s string) *Secret {
	data := make([]byte, len(s))
	copy(data, s)
	return &Secret{data: data}
}

// Reveal returns the value. Each call creates a copy that Clear cannot zero.
func (s *Secret) Reveal() string {
	if s == nil {
		return ""
	}
	return string(s.data)
}

// Empty reports whether no value is held
func (s *Secret) Empty() bool {
	return s == nil || len(s.data) == 0
}

// Clear overwrites the value with zeros and releases it
func (s *Secret) Clear() {
	if s == nil || s.data == nil {
		return
	}
	for i := range s.data {
		s.data[i] = 0
	}
	s.data = nil
}

func (s *Secret) String() string {
	if s.Empty() {
		return ""
	}
	return redacted
}

// Format keeps %v, %s and %#v from leaking the value
func (s *Secret) Format(f fmt.State, _ rune) {
	fmt.Fprint(f, s.String())
}

func (s *Secret) LogValue() slog.Value {
	return slog.StringValue(s.String())
}

// MaskSSN hides all but the last four digits of a social security or
// taxpayer number. Values with fewer than four digits are fully masked.
func MaskSSN(v string) string {
	digits := 0
	for _, r := range v {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < 4 {
		return strings.Repeat("*", len(v))
	}

	var b strings.Builder
	seen := 0
	for _, r := range v {
		if r >= '0' && r <= '9' {
			seen++
			if seen <= digits-4 {
				b.WriteByte('*')
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}
