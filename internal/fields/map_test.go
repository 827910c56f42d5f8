// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package fields

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_AccumulatesDistinctValues(t *testing.T) {
	m := NewMap()
	require.NoError(t, m.Add(FieldSSN, "123-45-6789"))
	require.NoError(t, m.Add(FieldSSN, " 123-45-6789 "))
	require.NoError(t, m.Add(FieldSSN, "987-65-4321"))
	require.NoError(t, m.Add(FieldName, "   "))

	assert.Equal(t, []string{"123-45-6789", "987-65-4321"}, m.Values(FieldSSN))
	first, ok := m.First(FieldSSN)
	assert.True(t, ok)
	assert.Equal(t, "123-45-6789", first)
	assert.False(t, m.Has(FieldName))
	assert.Equal(t, 1, m.Len())
}

func TestMap_RejectsUnknownField(t *testing.T) {
	var m Map
	err := m.Add("favourite_colour", "blue")
	var unknown *UnknownFieldError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, []string{"favourite_colour"}, unknown.Names)
}

func TestMap_JSON(t *testing.T) {
	var m Map
	err := json.Unmarshal([]byte(`{"wages": 52000, "employee_name": "Jane Roe", "ssn": ["123-45-6789"]}`), &m)
	require.NoError(t, err)

	assert.Equal(t, []string{"52000"}, m.Values(FieldWages))
	assert.Equal(t, []string{"Jane Roe"}, m.Values(FieldEmployeeName))

	out, err := json.Marshal(&m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"employee_name":["Jane Roe"],"ssn":["123-45-6789"],"wages":["52000"]}`, string(out))

	err = json.Unmarshal([]byte(`{"bogus": "x", "also_bogus": 1}`), &m)
	var unknown *UnknownFieldError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, []string{"also_bogus", "bogus"}, unknown.Names)
}

func TestVocabulary(t *testing.T) {
	assert.Equal(t, []Name{FieldSSN, FieldSpouseSSN, FieldEmployeeSSN}, OfKind(KindSSN))
	assert.Equal(t, []Name{FieldEmployerEIN, FieldEIN}, OfKind(KindEIN))
	assert.Equal(t, []Name{FieldDateOfBirth, FieldHireDate, FieldTerminationDate}, OfKind(KindDate))
	assert.Equal(t, KindMoney, KindOf(FieldWages))

	_, ok := Lookup("zip_code")
	assert.True(t, ok)
	_, ok = Lookup("ZIP")
	assert.False(t, ok)
}

func TestMap_AcceptsDeclaredEntityTypes(t *testing.T) {
	m := NewMap("GPE")
	assert.True(t, m.Accepts("GPE"))
	require.NoError(t, m.Add("GPE", "Ohio"))
	assert.Equal(t, []string{"Ohio"}, m.Values("GPE"))

	var unknown *UnknownFieldError
	assert.ErrorAs(t, m.Add("NORP", "Ohioan"), &unknown)
	assert.False(t, NewMap().Accepts("GPE"))
}
