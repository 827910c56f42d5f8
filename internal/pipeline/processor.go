// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"fmt"
	"slices"
	"time"

	"taxform-scan/internal/classify"
	"taxform-scan/internal/detector"
	"taxform-scan/internal/extractors/labels"
	"taxform-scan/internal/extractors/pattern"
	"taxform-scan/internal/extractors/statistical"
	"taxform-scan/internal/fields"
	"taxform-scan/internal/forms"
	"taxform-scan/internal/observability"
	"taxform-scan/internal/validate"
)

// Processor turns document text into an Envelope. It holds only read-only
// state and is safe for concurrent use.
type Processor struct {
	catalog         *forms.Catalog
	classifier      *classify.Classifier
	validator       *validate.Validator
	extractors      []detector.Extractor
	entityTypes     []fields.Name
	labels          *labels.Extractor
	context         *detector.ContextExtractor
	headerDetection bool
	observer        *observability.Observer
	now             func() time.Time
}

// Option configures a Processor
type Option func(*Processor)

// WithExtractors replaces the entity sources. Extractors implementing
// detector.EntityTyper extend the field map with their entity types.
func WithExtractors(extractors ...detector.Extractor) Option {
	return func(p *Processor) { p.extractors = extractors }
}

// WithoutStatistical keeps the pattern extractor as the only entity source
func WithoutStatistical() Option {
	return func(p *Processor) { p.extractors = []detector.Extractor{pattern.NewExtractor()} }
}

// WithoutLabels disables direct "Label: value" field extraction
func WithoutLabels() Option {
	return func(p *Processor) { p.labels = nil }
}

// WithHeaderDetection lets a printed form title decide the form type before
// keyword scoring
func WithHeaderDetection(enabled bool) Option {
	return func(p *Processor) { p.headerDetection = enabled }
}

// WithObserver reports timings to o
func WithObserver(o *observability.Observer) Option {
	return func(p *Processor) { p.observer = o }
}

// WithClock sets the clock for timestamps and date checks
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// New creates a processor over catalog with the pattern and statistical
// extractors enabled
func New(catalog *forms.Catalog, opts ...Option) *Processor {
	p := &Processor{
		catalog:    catalog,
		classifier: classify.NewClassifier(catalog),
		extractors: []detector.Extractor{pattern.NewExtractor(), statistical.NewExtractor()},
		labels:     labels.NewExtractor(),
		context:    detector.NewContextExtractor(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.validator = validate.NewValidator(catalog).WithClock(p.now)
	for _, ex := range p.extractors {
		if typer, ok := ex.(detector.EntityTyper); ok {
			for _, t := range typer.EntityTypes() {
				if name := fields.Name(t); !fields.Known(name) && !slices.Contains(p.entityTypes, name) {
					p.entityTypes = append(p.entityTypes, name)
				}
			}
		}
	}
	return p
}

// Catalog returns the form catalog the processor validates against
func (p *Processor) Catalog() *forms.Catalog {
	return p.catalog
}

// Classify scores text against every form type
func (p *Processor) Classify(text string) classify.Result {
	return p.classifier.Classify(text)
}

// Validate checks a field map against the rules of formType
func (p *Processor) Validate(formType forms.FormType, data *fields.Map) validate.Result {
	return p.validator.Validate(formType, data)
}

// Process runs the pipeline on text. An empty hint lets the classifier pick
// the form type. Only unusable text is an error; validation problems are
// reported inside the envelope.
func (p *Processor) Process(text string, hint forms.FormType) (*Envelope, error) {
	done := p.observer.StartTiming("pipeline", "process", string(hint))

	if err := detector.CheckText(text); err != nil {
		done(false, map[string]any{"error": err.Error()})
		return nil, err
	}

	classification := p.classifier.Classify(text)
	formType := p.selectFormType(text, hint, classification)

	var found []detector.Entity
	for _, ex := range p.extractors {
		found = append(found, ex.Extract(text)...)
	}
	entities := detector.Merge(found)

	data := fields.NewMap(p.entityTypes...)
	if p.labels != nil {
		p.labels.Fields(text, data)
	}
	var warnings []string
	for _, e := range entities {
		name := fields.Name(e.Type)
		if !data.Accepts(name) {
			msg := fmt.Sprintf("Entity type '%s' is not a known field", e.Type)
			if !slices.Contains(warnings, msg) {
				warnings = append(warnings, msg)
				p.observer.Logger().Warn("entity type dropped from structured data",
					"entity_type", e.Type, "source", e.Source)
			}
			continue
		}
		_ = data.Add(name, e.Value)
	}

	result := p.validator.Validate(formType, data)

	env := &Envelope{
		FormType:            formType,
		FormName:            p.catalog.DisplayName(formType),
		Classification:      classification.Scores,
		Entities:            entities,
		StructuredData:      data,
		FinancialAmounts:    extractAmounts(text, p.context),
		Validation:          result,
		ProcessingTimestamp: p.now().UTC().Format(time.RFC3339),
		Warnings:            warnings,
	}

	done(true, map[string]any{
		"form_type": string(formType),
		"entities":  len(entities),
		"fields":    data.Len(),
		"valid":     result.IsValid,
	})
	return env, nil
}

func (p *Processor) selectFormType(text string, hint forms.FormType, res classify.Result) forms.FormType {
	if hint != "" {
		return hint
	}
	if p.headerDetection {
		if t, ok := p.classifier.DetectHeader(text); ok {
			return t
		}
	}
	return res.Best
}
