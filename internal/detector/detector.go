// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

// Entity is a typed span of source text produced by an extractor.
// Start and End are character offsets into the source text with
// Start < End <= number of characters in the text.
type Entity struct {
	Type       string  `json:"entity_type"`
	Value      string  `json:"entity_value"`
	Confidence float64 `json:"confidence"`
	Start      int     `json:"start_pos"`
	End        int     `json:"end_pos"`

	// Name of the extractor that produced the entity
	Source string `json:"source,omitempty"`
}

// Overlaps reports whether other touches or intersects e.
// Adjacent spans (other.Start == e.End) count as overlapping.
func (e Entity) Overlaps(other Entity) bool {
	return other.Start <= e.End && other.End >= e.Start
}

// Extractor produces entities from document text. Implementations must be
// safe for concurrent use and must not retain the text.
type Extractor interface {
	Name() string
	Extract(text string) []Entity
}

// EntityTyper is implemented by extractors whose entity types fall outside
// the field vocabulary, such as a named-entity recogniser emitting GPE or
// NORP. Declared types are grouped into the structured field map.
type EntityTyper interface {
	EntityTypes() []string
}

// ContextInfo holds the text surrounding a span
type ContextInfo struct {
	BeforeText string
	AfterText  string

	// Line containing the span
	FullLine string

	// Trimmed window of BeforeText, the span and AfterText
	Snippet string
}

// ContextExtractor cuts context windows around spans of a text
type ContextExtractor struct {
	// Number of characters before and after the span to include
	ContextChars int
}

// NewContextExtractor creates a new context extractor with default settings
func NewContextExtractor() *ContextExtractor {
	return &ContextExtractor{
		ContextChars: 50,
	}
}

// WithContextChars sets the number of context characters
func (ce *ContextExtractor) WithContextChars(chars int) *ContextExtractor {
	ce.ContextChars = chars
	return ce
}
