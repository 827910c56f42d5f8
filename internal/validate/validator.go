// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package validate

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"taxform-scan/internal/fields"
	"taxform-scan/internal/forms"
)

// Confidence penalties in hundredths
const (
	penaltyMissingField  = 20
	penaltyBelowMinimum  = 30
	penaltyAboveMaximum  = 10
	penaltyNotNumeric    = 10
	penaltyBadFormat     = 30
	penaltyPlaceholder   = 20
	penaltySuspectDate   = 10
	fullConfidencePoints = 100
)

var (
	ssnFormat = regexp.MustCompile(`^\d{3}-\d{2}-\d{4}$`)
	einFormat = regexp.MustCompile(`^\d{2}-\d{7}$`)

	placeholderSSNs = map[string]bool{
		"000-00-0000": true,
		"123-45-6789": true,
		"111-11-1111": true,
	}

	// MM/DD/YYYY, MM-DD-YYYY and YYYY-MM-DD, tried in order
	dateLayouts = []string{"1/2/2006", "1-2-2006", "2006-1-2"}
)

// Result is the outcome of validating one field map. IsValid is true
// exactly when Errors is empty.
type Result struct {
	IsValid    bool     `json:"is_valid"`
	Confidence float64  `json:"confidence"`
	Errors     []string `json:"errors"`
	Warnings   []string `json:"warnings"`
}

// Validator checks field maps against the rule sets of a catalog. It never
// fails: every problem becomes an error or warning string on the result.
type Validator struct {
	catalog *forms.Catalog
	now     func() time.Time
}

// NewValidator creates a validator over catalog
func NewValidator(catalog *forms.Catalog) *Validator {
	return &Validator{catalog: catalog, now: time.Now}
}

// WithClock replaces the clock used for future-date checks
func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

type run struct {
	errors   []string
	warnings []string
	points   int
}

func (r *run) fail(penalty int, format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
	r.points -= penalty
}

func (r *run) warn(penalty int, format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
	r.points -= penalty
}

// Validate runs the required-field and range rules of formType, when the
// catalog defines it, followed by the ssn, ein and date checks. Checks read the
// primary value of each field.
func (v *Validator) Validate(formType forms.FormType, data *fields.Map) Result {
	r := &run{points: fullConfidencePoints}

	if def, ok := v.catalog.Get(formType); ok {
		for _, name := range def.RequiredFields {
			if !data.Has(name) {
				r.fail(penaltyMissingField, "Required field '%s' is missing", name)
			}
		}
		for _, rule := range def.Ranges {
			raw, ok := data.First(rule.Field)
			if !ok {
				continue
			}
			v.checkRange(r, rule, raw)
		}
	}

	v.checkIdentifiers(r, data)
	v.checkDates(r, data)

	points := max(0, min(fullConfidencePoints, r.points))
	return Result{
		IsValid:    len(r.errors) == 0,
		Confidence: float64(points) / fullConfidencePoints,
		Errors:     nonNil(r.errors),
		Warnings:   nonNil(r.warnings),
	}
}

func (v *Validator) checkRange(r *run, rule forms.RangeRule, raw string) {
	value, err := ParseAmount(raw)
	if err != nil {
		r.warn(penaltyNotNumeric, "Could not validate numeric field '%s': %v", rule.Field, err)
		return
	}
	if value < rule.Min {
		r.fail(penaltyBelowMinimum, "Field '%s' value %s is below minimum %s",
			rule.Field, formatNumber(value), formatNumber(rule.Min))
	}
	if value > rule.Max {
		r.warn(penaltyAboveMaximum, "Field '%s' value %s seems unusually high (max: %s)",
			rule.Field, formatNumber(value), formatNumber(rule.Max))
	}
}

// checkIdentifiers checks the taxpayer's own ssn and ein fields. Party
// identifiers such as employee_ssn or spouse_ssn are left to the required
// field rules.
func (v *Validator) checkIdentifiers(r *run, data *fields.Map) {
	if ssn, ok := data.First(fields.FieldSSN); ok {
		if !ssnFormat.MatchString(ssn) {
			r.fail(penaltyBadFormat, "Invalid SSN format: %s", ssn)
		} else if placeholderSSNs[ssn] {
			r.warn(penaltyPlaceholder, "SSN appears to be a placeholder: %s", ssn)
		}
	}

	if ein, ok := data.First(fields.FieldEIN); ok && !einFormat.MatchString(ein) {
		r.fail(penaltyBadFormat, "Invalid EIN format: %s", ein)
	}
}

func (v *Validator) checkDates(r *run, data *fields.Map) {
	currentYear := v.now().Year()
	for _, name := range fields.OfKind(fields.KindDate) {
		raw, ok := data.First(name)
		if !ok {
			continue
		}
		parsed, ok := ParseDate(raw)
		switch {
		case !ok:
			r.warn(penaltySuspectDate, "Could not parse date in field '%s': %s", name, raw)
		case parsed.Year() > currentYear:
			r.warn(penaltySuspectDate, "Future date in field '%s': %s", name, raw)
		case parsed.Year() < 1900:
			r.warn(penaltySuspectDate, "Very old date in field '%s': %s", name, raw)
		}
	}
}

// ParseAmount strips currency symbols and thousands separators and parses
// the remainder as a finite number.
func ParseAmount(raw string) (float64, error) {
	cleaned := strings.TrimSpace(strings.NewReplacer("$", "", ",", "").Replace(raw))
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	return value, nil
}

// ParseDate parses MM/DD/YYYY, MM-DD-YYYY or YYYY-MM-DD
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
