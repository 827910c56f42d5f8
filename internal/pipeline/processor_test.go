// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxform-scan/internal/detector"
	"taxform-scan/internal/extractors/pattern"
	"taxform-scan/internal/fields"
	"taxform-scan/internal/forms"
)

var fixedNow = func() time.Time { return time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC) }

func newProcessor(opts ...Option) *Processor {
	return New(forms.Default(), append([]Option{WithClock(fixedNow)}, opts...)...)
}

func TestProcess_EndToEnd1040(t *testing.T) {
	text := "Form 1040\nName: John Doe\nSSN: 123-45-6789\nFiling Status: Single\nTotal Income: $50,000"

	env, err := newProcessor().Process(text, "")
	require.NoError(t, err)

	assert.Equal(t, forms.Form1040, env.FormType)
	assert.Equal(t, "U.S. Individual Income Tax Return", env.FormName)
	assert.Contains(t, env.StructuredData.Values(fields.FieldSSN), "123-45-6789")
	assert.True(t, env.Validation.IsValid, env.Validation.Errors)
	assert.Greater(t, env.Validation.Confidence, 0.5)
	assert.Equal(t, []string{"SSN appears to be a placeholder: 123-45-6789"}, env.Validation.Warnings)
	assert.Equal(t, "2026-02-14T09:30:00Z", env.ProcessingTimestamp)

	require.Len(t, env.FinancialAmounts, 1)
	assert.Equal(t, 50000.0, env.FinancialAmounts[0].Amount)
}

func TestProcess_EntitiesAreMergedAndInBounds(t *testing.T) {
	text := "Wage and Tax Statement\nEmployee Name: Jane Roe\nEmployee SSN: 412-55-9087\n" +
		"Employer EIN: 12-3456789\nWages: $52,000.00\nFederal Income Tax Withheld: $6,100.00"

	env, err := newProcessor().Process(text, "")
	require.NoError(t, err)

	assert.Equal(t, forms.FormW2, env.FormType)
	for i, e := range env.Entities {
		assert.True(t, 0 <= e.Start && e.Start < e.End && e.End <= len(text), "entity %d out of bounds", i)
		assert.Equal(t, e.Value, text[e.Start:e.End])
		if i > 0 {
			assert.Less(t, env.Entities[i-1].End, e.Start)
		}
	}
	assert.Contains(t, env.StructuredData.Values("currency"), "$52,000.00")
	assert.True(t, env.Validation.IsValid, env.Validation.Errors)
}

func TestProcess_HintOverridesClassifier(t *testing.T) {
	env, err := newProcessor().Process("Filing Status: Single", forms.FormW2)
	require.NoError(t, err)

	assert.Equal(t, forms.FormW2, env.FormType)
	assert.False(t, env.Validation.IsValid)
	assert.Len(t, env.Validation.Errors, 4)
}

func TestProcess_UnknownForm(t *testing.T) {
	env, err := newProcessor().Process("lunch receipt, thank you", "")
	require.NoError(t, err)

	assert.Equal(t, forms.Unknown, env.FormType)
	assert.Equal(t, "Form Unknown", env.FormName)
	assert.True(t, env.Validation.IsValid)
	for _, s := range env.Classification {
		assert.Zero(t, s.Score)
	}
}

func TestProcess_HeaderDetection(t *testing.T) {
	// keyword scoring alone would choose W2 here
	text := "FORM 1099-NEC\nPayer Name: Acme Widgets\nRecipient Name: Jane Roe\nemployer employee"

	plain, err := newProcessor().Process(text, "")
	require.NoError(t, err)
	assert.Equal(t, forms.FormW2, plain.FormType)

	withHeaders, err := newProcessor(WithHeaderDetection(true)).Process(text, "")
	require.NoError(t, err)
	assert.Equal(t, forms.Form1099, withHeaders.FormType)
}

func TestProcess_InvalidInput(t *testing.T) {
	for _, text := range []string{"", "  \n "} {
		_, err := newProcessor().Process(text, "")
		assert.True(t, errors.Is(err, detector.ErrInvalidInput))
	}
}

func TestProcess_WithoutStatistical(t *testing.T) {
	env, err := newProcessor(WithoutStatistical()).Process("Name: John Doe\nSSN: 412-55-9087", "")
	require.NoError(t, err)

	for _, e := range env.Entities {
		assert.Equal(t, "pattern", e.Source)
	}
	assert.False(t, env.StructuredData.Has(fields.EntityPerson))
}

func TestEnvelope_JSONShape(t *testing.T) {
	env, err := newProcessor().Process("Form 1040\nSSN: 412-55-9087", "")
	require.NoError(t, err)

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	for _, key := range []string{"form_type", "entities", "structured_data", "financial_amounts", "validation", "processing_timestamp"} {
		assert.Contains(t, decoded, key)
	}
	validation := decoded["validation"].(map[string]any)
	assert.Contains(t, validation, "is_valid")
	assert.Contains(t, validation, "confidence")
}

func TestProcess_PositionsAreCharacterOffsets(t *testing.T) {
	text := "Nombre: José Núñez — SSN: 412-55-9087, Total Income: $50,000"
	runes := []rune(text)

	env, err := newProcessor().Process(text, forms.Form1040)
	require.NoError(t, err)

	require.NotEmpty(t, env.Entities)
	for _, e := range env.Entities {
		require.LessOrEqual(t, e.End, len(runes), e.Type)
		assert.Equal(t, e.Value, string(runes[e.Start:e.End]), e.Type)
	}

	require.Len(t, env.FinancialAmounts, 1)
	assert.Equal(t, 53, env.FinancialAmounts[0].Position)
	assert.Equal(t, '$', runes[env.FinancialAmounts[0].Position])
}

type regionExtractor struct{}

func (regionExtractor) Name() string { return "regions" }

func (r regionExtractor) Extract(text string) []detector.Entity {
	i := strings.Index(text, "Ohio")
	if i < 0 {
		return nil
	}
	return []detector.Entity{{Type: "GPE", Value: "Ohio", Confidence: 0.8, Start: i, End: i + 4, Source: r.Name()}}
}

type declaredRegionExtractor struct{ regionExtractor }

func (declaredRegionExtractor) EntityTypes() []string { return []string{"GPE"} }

func TestProcess_PluggedExtractorTypesReachStructuredData(t *testing.T) {
	text := "Ohio resident SSN 412-55-9087"

	env, err := newProcessor(WithExtractors(pattern.NewExtractor(), declaredRegionExtractor{})).Process(text, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"Ohio"}, env.StructuredData.Values("GPE"))
	assert.Equal(t, []string{"412-55-9087"}, env.StructuredData.Values(fields.FieldSSN))
	assert.Empty(t, env.Warnings)
}

func TestProcess_UndeclaredEntityTypeIsReported(t *testing.T) {
	text := "Ohio resident SSN 412-55-9087"

	env, err := newProcessor(WithExtractors(pattern.NewExtractor(), regionExtractor{})).Process(text, "")
	require.NoError(t, err)

	assert.False(t, env.StructuredData.Has("GPE"))
	assert.Equal(t, []string{"Entity type 'GPE' is not a known field"}, env.Warnings)
	assert.Len(t, env.Entities, 2)
}
