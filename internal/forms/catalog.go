// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package forms

import (
	"fmt"
	"slices"
	"strings"

	"taxform-scan/internal/fields"
)

// FormType identifies a supported IRS form
type FormType string

const (
	Form1040      FormType = "1040"
	FormW2        FormType = "W2"
	Form1099      FormType = "1099"
	FormScheduleC FormType = "Schedule C"
	Form941       FormType = "941"
	Form1120      FormType = "1120"

	// Unknown is selected when no form scores above zero
	Unknown FormType = "Unknown"
)

// RangeRule bounds the numeric value of a field
type RangeRule struct {
	Field fields.Name `yaml:"field" json:"field"`
	Min   float64     `yaml:"min" json:"min"`
	Max   float64     `yaml:"max" json:"max"`
}

// Definition is the rule set and recognition data of one form type
type Definition struct {
	Type           FormType      `yaml:"type" json:"type"`
	Name           string        `yaml:"name" json:"name"`
	Keywords       []string      `yaml:"keywords" json:"keywords"`
	Headers        []string      `yaml:"headers" json:"headers,omitempty"`
	RequiredFields []fields.Name `yaml:"required_fields" json:"required_fields"`
	OptionalFields []fields.Name `yaml:"optional_fields" json:"optional_fields,omitempty"`
	Ranges         []RangeRule   `yaml:"ranges" json:"ranges,omitempty"`
}

func (d Definition) clone() Definition {
	d.Keywords = slices.Clone(d.Keywords)
	d.Headers = slices.Clone(d.Headers)
	d.RequiredFields = slices.Clone(d.RequiredFields)
	d.OptionalFields = slices.Clone(d.OptionalFields)
	d.Ranges = slices.Clone(d.Ranges)
	return d
}

func (d Definition) check() error {
	if d.Type == "" || d.Type == Unknown {
		return fmt.Errorf("form type %q is reserved or empty", d.Type)
	}
	if len(d.Keywords) == 0 {
		return fmt.Errorf("form %s: at least one keyword is required", d.Type)
	}
	for _, kw := range d.Keywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("form %s: blank keyword", d.Type)
		}
	}
	for _, name := range append(slices.Clone(d.RequiredFields), d.OptionalFields...) {
		if !fields.Known(name) {
			return fmt.Errorf("form %s: unknown field %q", d.Type, name)
		}
	}
	for _, r := range d.Ranges {
		if !fields.Known(r.Field) {
			return fmt.Errorf("form %s: range on unknown field %q", d.Type, r.Field)
		}
		if r.Min > r.Max {
			return fmt.Errorf("form %s: range on %s has min %v above max %v", d.Type, r.Field, r.Min, r.Max)
		}
	}
	return nil
}

// Catalog is the immutable table of form definitions. It is built once and
// shared by the classifier, validator and every worker.
type Catalog struct {
	order []FormType
	defs  map[FormType]Definition
}

// NewCatalog validates defs and builds a catalog in the given order
func NewCatalog(defs []Definition) (*Catalog, error) {
	c := &Catalog{defs: make(map[FormType]Definition, len(defs))}
	for _, d := range defs {
		if err := d.check(); err != nil {
			return nil, err
		}
		if _, dup := c.defs[d.Type]; dup {
			return nil, fmt.Errorf("form %s defined twice", d.Type)
		}
		c.order = append(c.order, d.Type)
		c.defs[d.Type] = d.clone()
	}
	return c, nil
}

// Order returns the classification iteration order
func (c *Catalog) Order() []FormType {
	return slices.Clone(c.order)
}

// Get returns a copy of the definition for t
func (c *Catalog) Get(t FormType) (Definition, bool) {
	d, ok := c.defs[t]
	if !ok {
		return Definition{}, false
	}
	return d.clone(), true
}

// Has reports whether t has a definition
func (c *Catalog) Has(t FormType) bool {
	_, ok := c.defs[t]
	return ok
}

// DisplayName returns the full form title, or "Form <type>" when unknown
func (c *Catalog) DisplayName(t FormType) string {
	if d, ok := c.defs[t]; ok && d.Name != "" {
		return d.Name
	}
	return "Form " + string(t)
}

// Definitions returns copies of every definition in order
func (c *Catalog) Definitions() []Definition {
	out := make([]Definition, 0, len(c.order))
	for _, t := range c.order {
		out = append(out, c.defs[t].clone())
	}
	return out
}

// ParseFormType normalises user input such as "w-2", "schedule-c" or "Form 1040"
func ParseFormType(s string) (FormType, bool) {
	switch formKey(s) {
	case "1040":
		return Form1040, true
	case "W2":
		return FormW2, true
	case "1099", "1099MISC", "1099NEC":
		return Form1099, true
	case "SCHEDULEC", "SCHC":
		return FormScheduleC, true
	case "941":
		return Form941, true
	case "1120":
		return Form1120, true
	case "UNKNOWN":
		return Unknown, true
	}
	return FormType(strings.TrimSpace(s)), false
}

// Resolve maps user input to a form type of the catalog. Besides the
// spellings ParseFormType knows, forms added by a rules file match on their
// type ignoring case, dashes and a "Form " prefix.
func (c *Catalog) Resolve(s string) (FormType, bool) {
	if ft, ok := ParseFormType(s); ok {
		return ft, true
	}
	key := formKey(s)
	for _, t := range c.order {
		if formKey(string(t)) == key {
			return t, true
		}
	}
	return FormType(strings.TrimSpace(s)), false
}

func formKey(s string) string {
	key := strings.ToUpper(strings.TrimSpace(s))
	key = strings.TrimPrefix(key, "FORM ")
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
}
