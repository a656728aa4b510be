package jsondb

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies which scalar a [Value] holds.
type Kind uint8

// Value kinds. The zero Kind is invalid.
const (
	KindInvalid Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return "invalid"
	}
}

// Value is an attribute value: exactly one of string, integer, float or
// boolean. Build values with [StringValue], [IntValue], [FloatValue],
// [BoolValue] or [ValueOf]. The zero Value is invalid and is rejected on
// write.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
}

// StringValue returns a string Value.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// IntValue returns an integer Value.
func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }

// FloatValue returns a float Value. NaN and infinities are not storable.
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }

// BoolValue returns a boolean Value.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// ValueOf converts a dynamically typed scalar to a Value.
// Returns an error wrapping [ErrTypeMismatch] for any other type.
func ValueOf(x any) (Value, error) {
	switch v := x.(type) {
	case Value:
		return v, v.validate()
	case string:
		return StringValue(v), nil
	case bool:
		return BoolValue(v), nil
	case int:
		return IntValue(int64(v)), nil
	case int8:
		return IntValue(int64(v)), nil
	case int16:
		return IntValue(int64(v)), nil
	case int32:
		return IntValue(int64(v)), nil
	case int64:
		return IntValue(v), nil
	case uint8:
		return IntValue(int64(v)), nil
	case uint16:
		return IntValue(int64(v)), nil
	case uint32:
		return IntValue(int64(v)), nil
	case float32:
		return FloatValue(float64(v)), FloatValue(float64(v)).validate()
	case float64:
		return FloatValue(v), FloatValue(v).validate()
	default:
		return Value{}, fmt.Errorf("%w: attribute values must be string, int, float or bool, got %T", ErrTypeMismatch, x)
	}
}

// ParseValue infers a Value from command-line text: decimal digits become an
// integer, anything else parseable as a float becomes a float, "true" and
// "false" (any case) become booleans, and everything else stays a string.
func ParseValue(s string) Value {
	if isDecimal(s) {
		i, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return IntValue(i)
		}
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return FloatValue(f)
	}

	switch strings.ToLower(s) {
	case "true":
		return BoolValue(true)
	case "false":
		return BoolValue(false)
	}

	return StringValue(s)
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}

	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}

	return true
}

// Kind reports which scalar v holds.
func (v Value) Kind() Kind { return v.kind }

// Str returns the string held by v, if any.
func (v Value) Str() (string, bool) { return v.s, v.kind == KindString }

// Int returns the integer held by v, if any.
func (v Value) Int() (int64, bool) { return v.i, v.kind == KindInt }

// Float returns the float held by v, if any.
func (v Value) Float() (float64, bool) { return v.f, v.kind == KindFloat }

// Bool returns the boolean held by v, if any.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Any returns v as string, int64, float64 or bool (nil when invalid).
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	default:
		return nil
	}
}

// Equal reports whether v and o hold the same kind and value.
func (v Value) Equal(o Value) bool {
	return v == o
}

// String renders v the way it appears in formatted output: strings verbatim,
// floats always with a decimal point or exponent, booleans as True/False.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindBool:
		if v.b {
			return "True"
		}

		return "False"
	default:
		return "<invalid>"
	}
}

// MarshalJSON encodes v as a JSON scalar. Floats keep their decimal point so
// they decode back as floats.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.s)
	case KindInt:
		return strconv.AppendInt(nil, v.i, 10), nil
	case KindFloat:
		if err := v.validate(); err != nil {
			return nil, err
		}

		return []byte(formatFloat(v.f)), nil
	case KindBool:
		return strconv.AppendBool(nil, v.b), nil
	default:
		return nil, fmt.Errorf("%w: cannot encode invalid value", ErrTypeMismatch)
	}
}

func (v Value) validate() error {
	switch v.kind {
	case KindString, KindInt, KindBool:
		return nil
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return fmt.Errorf("%w: float value %v is not storable", ErrTypeMismatch, v.f)
		}

		return nil
	default:
		return fmt.Errorf("%w: attribute value is unset", ErrTypeMismatch)
	}
}

// formatFloat uses positional notation for magnitudes in [1e-4, 1e16) and
// exponent notation otherwise; the result always reads back as a float.
func formatFloat(f float64) string {
	abs := math.Abs(f)
	if f != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}

	return s
}
