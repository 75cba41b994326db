package engine

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerce(t *testing.T) {
	s := "txt"
	tests := []struct {
		name string
		raw  any
		kind Kind
		str  string
	}{
		{"nil", nil, Missing, ""},
		{"empty string", "", Missing, ""},
		{"int", 3, Number, "3"},
		{"float", 2.5, Number, "2.5"},
		{"uint8", uint8(7), Number, "7"},
		{"nan", math.NaN(), Missing, ""},
		{"inf", math.Inf(1), Missing, ""},
		{"json number", json.Number("4"), Number, "4"},
		{"bool", true, Text, "true"},
		{"numeric string stays text", "3", Text, "3"},
		{"string pointer", &s, Text, "txt"},
		{"nil pointer", (*string)(nil), Missing, ""},
		{"unsupported", struct{}{}, Missing, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Coerce(tt.raw)
			assert.Equal(t, tt.kind, v.Kind())
			assert.Equal(t, tt.str, v.String())
		})
	}
}

func TestValueFloat(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want float64
		ok   bool
	}{
		{"number", NumberValue(4), 4, true},
		{"numeric text", TextValue(" 2.5 "), 2.5, true},
		{"word", TextValue("often"), 0, false},
		{"blank text", TextValue("  "), 0, false},
		{"text nan", TextValue("NaN"), 0, false},
		{"missing", MissingValue(), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.v.Float()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValueJSON(t *testing.T) {
	data, err := json.Marshal([]Value{NumberValue(1.5), TextValue("x"), MissingValue()})
	require.NoError(t, err)
	assert.JSONEq(t, `[1.5,"x",null]`, string(data))

	var back []Value
	require.NoError(t, json.Unmarshal(data, &back))
	require.Len(t, back, 3)
	assert.True(t, back[0].IsNumber())
	assert.True(t, back[1].IsText())
	assert.True(t, back[2].IsMissing())
}
