// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package pattern

import (
	"regexp"

	"taxform-scan/internal/detector"
)

// Confidence assigned to every pattern match
const Confidence = 0.95

// Rule pairs an entity type with the expression that finds it
type Rule struct {
	Type    string
	Pattern string
}

// Rules is the fixed pattern table, in output order
var Rules = []Rule{
	{Type: "ssn", Pattern: `\b\d{3}-\d{2}-\d{4}\b`},
	{Type: "ein", Pattern: `\b\d{2}-\d{7}\b`},
	{Type: "phone", Pattern: `\b\d{3}-\d{3}-\d{4}\b`},
	{Type: "email", Pattern: `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`},
	{Type: "currency", Pattern: `\$[0-9,]+(?:\.\d{2})?`},
	{Type: "percentage", Pattern: `\d+(?:\.\d+)?%`},
	{Type: "date", Pattern: `\d{1,2}[/-]\d{1,2}[/-]\d{4}`},
	{Type: "zip_code", Pattern: `\b\d{5}(?:-\d{4})?\b`},
}

type compiledRule struct {
	entityType string
	regex      *regexp.Regexp
}

// Extractor finds tax identifiers, amounts and dates with regular expressions.
// Each rule runs independently over the whole text, so one substring can
// produce several entities.
type Extractor struct {
	rules []compiledRule
}

// NewExtractor compiles the pattern table
func NewExtractor() *Extractor {
	e := &Extractor{rules: make([]compiledRule, 0, len(Rules))}
	for _, r := range Rules {
		e.rules = append(e.rules, compiledRule{
			entityType: r.Type,
			regex:      regexp.MustCompile(`(?i)` + r.Pattern),
		})
	}
	return e
}

func (e *Extractor) Name() string { return "pattern" }

// Extract returns matches grouped by rule in table order, then by position
func (e *Extractor) Extract(text string) []detector.Entity {
	var entities []detector.Entity
	offsets := detector.NewOffsets(text)
	for _, r := range e.rules {
		for _, loc := range r.regex.FindAllStringIndex(text, -1) {
			start, end := offsets.Span(loc[0], loc[1])
			entities = append(entities, detector.Entity{
				Type:       r.entityType,
				Value:      text[loc[0]:loc[1]],
				Confidence: Confidence,
				Start:      start,
				End:        end,
				Source:     e.Name(),
			})
		}
	}
	return entities
}
