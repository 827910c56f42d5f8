// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package statistical

import (
	"regexp"
	"strings"

	"taxform-scan/internal/detector"
)

// Confidence assigned to every recognised entity
const Confidence = 0.8

// Entity labels
const (
	LabelPerson = "PERSON"
	LabelOrg    = "ORG"
	LabelMoney  = "MONEY"
	LabelDate   = "DATE"
)

type namedPattern struct {
	label string
	regex *regexp.Regexp
}

// Extractor is a lightweight named-entity recogniser for people,
// organisations, money and written dates. It plugs into the pipeline as a
// second entity source next to the pattern extractor.
type Extractor struct {
	patterns  []namedPattern
	formWords map[string]bool
}

// NewExtractor compiles the recogniser patterns
func NewExtractor() *Extractor {
	defs := []struct {
		label   string
		pattern string
	}{
		// Dr. First Last
		{LabelPerson, `\b(?:Mr|Ms|Mrs|Dr)\.[ \t]+[A-Z][a-z]{1,29}[ \t]+[A-Z][a-z]{1,29}\b`},
		// First M. Last
		{LabelPerson, `\b[A-Z][a-z]{1,29}[ \t]+[A-Z]\.[ \t]+[A-Z][a-z]{1,29}(?:-[A-Z][a-z]{1,29})?\b`},
		// First Last, First Last-Other, First O'Last
		{LabelPerson, `\b[A-Z][a-z]{1,29}[ \t]+(?:[A-Z][a-z]*')?[A-Z][a-z]{1,29}(?:-[A-Z][a-z]{1,29})?\b`},
		{LabelOrg, `\b(?:[A-Z][A-Za-z0-9&'\-]*[ \t]+){0,4}[A-Z][A-Za-z0-9&'\-]*,?[ \t]+(?:Inc|LLC|Corp|Corporation|Company|Co|Ltd|LLP|PLC)\b\.?`},
		{LabelMoney, `\$[ \t]?[0-9][0-9,]*(?:\.\d{2})?|(?i:\b[0-9][0-9,]*(?:\.\d+)?[ \t]+(?:dollars|usd)\b)`},
		{LabelDate, `(?i)\b(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|June?|July?|Aug(?:ust)?|Sep(?:t(?:ember)?)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\.?[ \t]+\d{1,2}(?:st|nd|rd|th)?,?[ \t]+\d{4}\b`},
	}

	e := &Extractor{formWords: make(map[string]bool, len(formVocabulary))}
	for _, d := range defs {
		e.patterns = append(e.patterns, namedPattern{label: d.label, regex: regexp.MustCompile(d.pattern)})
	}
	for _, w := range formVocabulary {
		e.formWords[w] = true
	}
	return e
}

func (e *Extractor) Name() string { return "statistical" }

// Extract returns recognised entities in pattern order. Person candidates
// made of form vocabulary ("Filing Status", "Total Income") are dropped.
func (e *Extractor) Extract(text string) []detector.Entity {
	var entities []detector.Entity
	seen := make(map[[2]int]bool)
	offsets := detector.NewOffsets(text)

	for _, p := range e.patterns {
		for _, loc := range p.regex.FindAllStringIndex(text, -1) {
			value := text[loc[0]:loc[1]]
			if p.label == LabelPerson {
				key := [2]int{loc[0], loc[1]}
				if seen[key] || e.isFormPhrase(value) {
					continue
				}
				seen[key] = true
			}
			start, end := offsets.Span(loc[0], loc[1])
			entities = append(entities, detector.Entity{
				Type:       p.label,
				Value:      value,
				Confidence: Confidence,
				Start:      start,
				End:        end,
				Source:     e.Name(),
			})
		}
	}
	return entities
}

func (e *Extractor) isFormPhrase(value string) bool {
	for _, word := range strings.Fields(value) {
		word = strings.ToLower(strings.Trim(word, ".,'"))
		if e.formWords[word] {
			return true
		}
	}
	return false
}

// formVocabulary holds words printed on tax forms that never appear in names
var formVocabulary = []string{
	"name", "ssn", "social", "security", "number", "filing", "status", "single", "married",
	"jointly", "separately", "household", "total", "income", "tax", "taxes", "taxable", "form",
	"wages", "wage", "federal", "state", "employer", "employee", "statement", "return",
	"schedule", "profit", "loss", "business", "net", "gross", "city", "address", "zip", "code",
	"date", "birth", "payer", "recipient", "corporation", "corporate", "quarterly", "quarter",
	"department", "treasury", "internal", "revenue", "service", "individual", "withheld",
	"compensation", "box", "copy", "page", "year", "identification", "street", "avenue",
	"road", "suite", "deduction", "standard", "expenses", "receipts", "assets", "payroll",
	"employment", "miscellaneous", "nonemployee", "medicare", "tips", "other", "the", "and",
	"of", "for", "to", "from", "hire", "termination", "spouse", "dependents", "head",
	"qualifying", "widow", "sales", "liability", "amount", "line", "total", "signature",
}
