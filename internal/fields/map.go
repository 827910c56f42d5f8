// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package fields

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// UnknownFieldError lists keys outside the vocabulary
type UnknownFieldError struct {
	Names []string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field(s): %s", strings.Join(e.Names, ", "))
}

// Map is the structured field map of one document. Each field accumulates
// distinct values in insertion order; the first value is the primary one.
// The zero value is ready to use.
type Map struct {
	values map[Name][]string

	// entity types accepted on top of the vocabulary
	extra map[Name]bool
}

// NewMap returns an empty map. Entity types listed in extra are accepted
// as field names next to the vocabulary.
func NewMap(extra ...Name) *Map {
	m := &Map{values: make(map[Name][]string)}
	if len(extra) > 0 {
		m.extra = make(map[Name]bool, len(extra))
		for _, n := range extra {
			m.extra[n] = true
		}
	}
	return m
}

// Accepts reports whether name can be added to the map
func (m *Map) Accepts(name Name) bool {
	return Known(name) || (m != nil && m.extra[name])
}

// Add appends value to the field. Blank and repeated values are ignored.
// Names outside the vocabulary and the map's extra entity types are
// rejected with an UnknownFieldError.
func (m *Map) Add(name Name, value string) error {
	if !m.Accepts(name) {
		return &UnknownFieldError{Names: []string{string(name)}}
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if m.values == nil {
		m.values = make(map[Name][]string)
	}
	for _, existing := range m.values[name] {
		if existing == value {
			return nil
		}
	}
	m.values[name] = append(m.values[name], value)
	return nil
}

// Values returns the values of a field
func (m *Map) Values(name Name) []string {
	if m == nil {
		return nil
	}
	return m.values[name]
}

// First returns the primary value of a field
func (m *Map) First(name Name) (string, bool) {
	vals := m.Values(name)
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// Has reports whether the field holds at least one value
func (m *Map) Has(name Name) bool {
	return len(m.Values(name)) > 0
}

// Len returns the number of populated fields
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.values)
}

// Names returns the populated fields sorted by name
func (m *Map) Names() []Name {
	if m == nil {
		return nil
	}
	names := make([]Name, 0, len(m.values))
	for n := range m.values {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Strings returns a copy keyed by plain strings
func (m *Map) Strings() map[string][]string {
	out := make(map[string][]string, m.Len())
	for _, n := range m.Names() {
		out[string(n)] = append([]string(nil), m.values[n]...)
	}
	return out
}

// FromStrings builds a map, rejecting keys outside the vocabulary
func FromStrings(raw map[string][]string) (*Map, error) {
	m := NewMap()
	var unknown []string
	for key, vals := range raw {
		name, ok := Lookup(key)
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		for _, v := range vals {
			_ = m.Add(name, v)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &UnknownFieldError{Names: unknown}
	}
	return m, nil
}

func (m *Map) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Strings())
}

// UnmarshalJSON accepts each field as a string, a number or an array of them.
func (m *Map) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	values := make(map[string][]string, len(raw))
	for key, msg := range raw {
		vals, err := decodeValues(msg)
		if err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		values[key] = vals
	}

	parsed, err := FromStrings(values)
	if err != nil {
		return err
	}
	*m = *parsed
	return nil
}

func decodeValues(msg json.RawMessage) ([]string, error) {
	var list []json.RawMessage
	if err := json.Unmarshal(msg, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, item := range list {
			v, err := decodeScalar(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
	v, err := decodeScalar(msg)
	if err != nil {
		return nil, err
	}
	return []string{v}, nil
}

func decodeScalar(msg json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(msg, &n); err == nil {
		return n.String(), nil
	}
	var b bool
	if err := json.Unmarshal(msg, &b); err == nil {
		return strconv.FormatBool(b), nil
	}
	if string(msg) == "null" {
		return "", nil
	}
	return "", fmt.Errorf("unsupported value %s", string(msg))
}
