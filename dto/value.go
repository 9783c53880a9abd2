package dto

import (
	"encoding/json"
	"math"
	"strconv"
)

// ValueType is the declared type of a field.
type ValueType string

const (
	TypeCurrency ValueType = "currency"
	TypeInteger  ValueType = "integer"
	TypeFloat    ValueType = "float"
	TypePercent  ValueType = "percent"
	TypeBoolean  ValueType = "boolean"
	TypeDate     ValueType = "date"
	TypeString   ValueType = "string"
)

// IsNumeric reports whether values of this type carry a number.
func (t ValueType) IsNumeric() bool {
	switch t {
	case TypeCurrency, TypeInteger, TypeFloat, TypePercent:
		return true
	}
	return false
}

// Value is a typed field value.
type Value struct {
	Kind   ValueType
	Number float64
	Flag   bool
	Text   string
}

// NumberValue builds a numeric value of the given kind.
func NumberValue(kind ValueType, n float64) *Value {
	if kind == TypeInteger {
		n = math.Trunc(n)
	}
	return &Value{Kind: kind, Number: n}
}

// BoolValue builds a boolean value.
func BoolValue(b bool) *Value {
	return &Value{Kind: TypeBoolean, Flag: b}
}

// TextValue builds a string or date value.
func TextValue(kind ValueType, s string) *Value {
	return &Value{Kind: kind, Text: s}
}

// ZeroValue returns the zero value of a type, used for default-zero fields.
func ZeroValue(kind ValueType) *Value {
	switch {
	case kind.IsNumeric():
		return NumberValue(kind, 0)
	case kind == TypeBoolean:
		return BoolValue(false)
	default:
		return TextValue(kind, "")
	}
}

// Numeric returns the number carried by numeric values.
func (v *Value) Numeric() (float64, bool) {
	if v == nil || !v.Kind.IsNumeric() {
		return 0, false
	}
	return v.Number, true
}

// String renders the value the way format constraints see it.
func (v *Value) String() string {
	if v == nil {
		return ""
	}
	switch v.Kind {
	case TypeInteger:
		return strconv.FormatInt(int64(v.Number), 10)
	case TypeCurrency, TypeFloat, TypePercent:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case TypeBoolean:
		return strconv.FormatBool(v.Flag)
	default:
		return v.Text
	}
}

// Interface returns the plain Go value (float64, int64, bool or string).
func (v *Value) Interface() any {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case TypeInteger:
		return int64(v.Number)
	case TypeCurrency, TypeFloat, TypePercent:
		return v.Number
	case TypeBoolean:
		return v.Flag
	default:
		return v.Text
	}
}

func (v *Value) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	return json.Marshal(v.Interface())
}
