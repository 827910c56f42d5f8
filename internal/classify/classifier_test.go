// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxform-scan/internal/forms"
)

func TestClassify_NoKeywordsIsUnknown(t *testing.T) {
	res := NewClassifier(forms.Default()).Classify("The quick brown fox jumps over the lazy dog")

	assert.Equal(t, forms.Unknown, res.Best)
	require.Len(t, res.Scores, 6)
	for _, s := range res.Scores {
		assert.Zero(t, s.Score, s.FormType)
	}
}

func TestClassify_KeywordFraction(t *testing.T) {
	text := "FORM 1040 U.S. Individual Income Tax Return\nFiling Status: Single\nTaxable income: $60,000"
	res := NewClassifier(forms.Default()).Classify(text)

	scores := res.Map()
	assert.Equal(t, forms.Form1040, res.Best)
	assert.InDelta(t, 0.75, scores[forms.Form1040], 1e-9)
	assert.Zero(t, scores[forms.FormW2])
}

func TestClassify_TieGoesToEarlierForm(t *testing.T) {
	// "employer" scores 0.25 for both W2 and 941
	res := NewClassifier(forms.Default()).Classify("Employer copy")

	scores := res.Map()
	assert.Equal(t, scores[forms.FormW2], scores[forms.Form941])
	assert.Equal(t, forms.FormW2, res.Best)
}

func TestClassify_ScoresStayInRange(t *testing.T) {
	text := "wage and tax statement employer employee federal income tax withheld payroll tax"
	for _, s := range NewClassifier(forms.Default()).Classify(text).Scores {
		assert.GreaterOrEqual(t, s.Score, 0.0)
		assert.LessOrEqual(t, s.Score, 1.0)
	}
}

func TestDetectHeader(t *testing.T) {
	c := NewClassifier(forms.Default())

	got, ok := c.DetectHeader("2025 Form W-2 Wage and Tax Statement")
	assert.True(t, ok)
	assert.Equal(t, forms.FormW2, got)

	got, ok = c.DetectHeader("SCHEDULE C (Form 1040)")
	assert.True(t, ok)
	assert.Equal(t, forms.Form1040, got, "catalog order wins when several headers appear")

	_, ok = c.DetectHeader("grocery list")
	assert.False(t, ok)
}
