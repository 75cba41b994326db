package engine

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ============================================================================
// VALUE — Tagged cell value produced once at the row boundary
// ============================================================================
// Parsers hand us numbers, strings or nothing for the same logical column,
// depending on how a respondent typed the answer. Coerce classifies a raw
// cell exactly once; every aggregator downstream reads the tag.
// ============================================================================

// Kind tags a Value.
type Kind uint8

const (
	Missing Kind = iota
	Number
	Text
)

func (k Kind) String() string {
	switch k {
	case Number:
		return "number"
	case Text:
		return "text"
	default:
		return "missing"
	}
}

// Value is a single survey cell.
type Value struct {
	kind Kind
	num  float64
	text string
}

// NumberValue returns a Number value, or Missing for NaN and infinities.
func NumberValue(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{kind: Number, num: f}
}

// TextValue returns a Text value, or Missing for the empty string.
func TextValue(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{kind: Text, text: s}
}

// MissingValue returns the zero Value.
func MissingValue() Value { return Value{} }

// Coerce classifies a raw parser value.
func Coerce(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return Value{}
	case Value:
		return v
	case float64:
		return NumberValue(v)
	case float32:
		return NumberValue(float64(v))
	case int:
		return NumberValue(float64(v))
	case int8:
		return NumberValue(float64(v))
	case int16:
		return NumberValue(float64(v))
	case int32:
		return NumberValue(float64(v))
	case int64:
		return NumberValue(float64(v))
	case uint:
		return NumberValue(float64(v))
	case uint8:
		return NumberValue(float64(v))
	case uint16:
		return NumberValue(float64(v))
	case uint32:
		return NumberValue(float64(v))
	case uint64:
		return NumberValue(float64(v))
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return NumberValue(f)
		}
		return TextValue(v.String())
	case bool:
		return TextValue(strconv.FormatBool(v))
	case string:
		return TextValue(v)
	case *string:
		if v == nil {
			return Value{}
		}
		return TextValue(*v)
	case *float64:
		if v == nil {
			return Value{}
		}
		return NumberValue(*v)
	default:
		return Value{}
	}
}

func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsMissing() bool { return v.kind == Missing }
func (v Value) IsNumber() bool  { return v.kind == Number }
func (v Value) IsText() bool    { return v.kind == Text }

// Float attempts numeric coercion. Text is parsed after trimming; anything
// that does not yield a finite number reports false.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case Number:
		return v.num, true
	case Text:
		s := strings.TrimSpace(v.text)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// String is the canonical text of the value and doubles as its category
// identity in frequency tables. Missing renders as "".
func (v Value) String() string {
	switch v.kind {
	case Number:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case Text:
		return v.text
	default:
		return ""
	}
}

// Any returns the value as a plain Go value (float64, string or nil).
func (v Value) Any() any {
	switch v.kind {
	case Number:
		return v.num
	case Text:
		return v.text
	default:
		return nil
	}
}

// MarshalJSON writes numbers as numbers, text as strings and Missing as null.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// UnmarshalJSON accepts any JSON scalar.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = Coerce(raw)
	return nil
}
