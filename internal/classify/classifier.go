// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package classify

import (
	"strings"

	"taxform-scan/internal/forms"
)

// Score is the keyword score of one form type
type Score struct {
	FormType forms.FormType `json:"form_type"`
	Score    float64        `json:"score"`
	Matched  []string       `json:"matched_keywords,omitempty"`
}

// Result holds every form's score in catalog order and the selected type
type Result struct {
	Scores []Score        `json:"scores"`
	Best   forms.FormType `json:"best"`
}

// Map returns the scores keyed by form type
func (r Result) Map() map[forms.FormType]float64 {
	out := make(map[forms.FormType]float64, len(r.Scores))
	for _, s := range r.Scores {
		out[s.FormType] = s.Score
	}
	return out
}

// Classifier scores text against the keyword lists of a catalog
type Classifier struct {
	catalog *forms.Catalog
}

// NewClassifier creates a classifier over catalog
func NewClassifier(catalog *forms.Catalog) *Classifier {
	return &Classifier{catalog: catalog}
}

// Classify scores every form type as the fraction of its keyword phrases
// found in text, case-insensitively. The best type is the highest score,
// the earliest in catalog order on ties, and forms.Unknown when all are zero.
func (c *Classifier) Classify(text string) Result {
	lower := strings.ToLower(text)

	res := Result{Best: forms.Unknown}
	best := 0.0
	for _, t := range c.catalog.Order() {
		def, _ := c.catalog.Get(t)

		var matched []string
		for _, kw := range def.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				matched = append(matched, kw)
			}
		}

		score := float64(len(matched)) / float64(len(def.Keywords))
		res.Scores = append(res.Scores, Score{FormType: t, Score: score, Matched: matched})
		if score > best {
			best = score
			res.Best = t
		}
	}
	return res
}

// DetectHeader looks for a form's printed title or number, such as
// "FORM W-2", and returns the first form in catalog order that carries one.
func (c *Classifier) DetectHeader(text string) (forms.FormType, bool) {
	upper := strings.ToUpper(text)
	for _, t := range c.catalog.Order() {
		def, _ := c.catalog.Get(t)
		for _, h := range def.Headers {
			if strings.Contains(upper, strings.ToUpper(h)) {
				return t, true
			}
		}
	}
	return forms.Unknown, false
}
