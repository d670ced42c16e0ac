package document

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"unique"
)

// Kind identifies the concrete type stored in a Value.
type Kind uint8

const (
	// KindInvalid represents an invalid kind.
	KindInvalid Kind = iota
	// KindNull represents a null value.
	KindNull
	// KindInt represents an integer value.
	KindInt
	// KindFloat represents a float value.
	KindFloat
	// KindString represents a string value.
	KindString
	// KindBool represents a boolean value.
	KindBool
	// KindArray represents an array value.
	KindArray
	// KindObject represents a nested object value.
	KindObject
)

// Value is a small typed value used for document fields.
//
// The representation is designed to make filtering fast and predictable:
// no reflection and no fmt-based stringification.
//
// NOTE: This is also used for persistence; keep it stable.
type Value struct {
	Kind Kind
	I64  int64
	F64  float64
	s    unique.Handle[string] // Private interned string
	B    bool
	A    []Value
	O    map[string]Value
}

// Null returns a null Value.
func Null() Value { return Value{Kind: KindNull} }

// Int returns an int64 Value.
func Int(v int64) Value { return Value{Kind: KindInt, I64: v} }

// Float returns a float64 Value.
func Float(v float64) Value { return Value{Kind: KindFloat, F64: v} }

// String returns a string Value.
func String(v string) Value { return Value{Kind: KindString, s: unique.Make(v)} }

// Bool returns a boolean Value.
func Bool(v bool) Value { return Value{Kind: KindBool, B: v} }

// Array returns an array Value.
func Array(v ...Value) Value { return Value{Kind: KindArray, A: v} }

// Object returns a nested object Value.
func Object(v map[string]Value) Value { return Value{Kind: KindObject, O: v} }

// StringValue returns the string value if Kind is KindString, otherwise "".
func (v Value) StringValue() string {
	if v.Kind == KindString {
		return v.s.Value()
	}
	return ""
}

// AsInt64 returns the int64 value if Kind is KindInt.
func (v Value) AsInt64() (int64, bool) {
	if v.Kind != KindInt {
		return 0, false
	}
	return v.I64, true
}

// AsFloat64 returns the float64 value if Kind is KindFloat.
func (v Value) AsFloat64() (float64, bool) {
	if v.Kind != KindFloat {
		return 0, false
	}
	return v.F64, true
}

// AsString returns the string value if Kind is KindString.
func (v Value) AsString() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.s.Value(), true
}

// AsBool returns the boolean value if Kind is KindBool.
func (v Value) AsBool() (bool, bool) {
	if v.Kind != KindBool {
		return false, false
	}
	return v.B, true
}

// AsArray returns the array value if Kind is KindArray.
func (v Value) AsArray() ([]Value, bool) {
	if v.Kind != KindArray {
		return nil, false
	}
	return v.A, true
}

// AsObject returns the object value if Kind is KindObject.
func (v Value) AsObject() (map[string]Value, bool) {
	if v.Kind != KindObject {
		return nil, false
	}
	return v.O, true
}

// Number returns the value as a float64 for numeric kinds.
func (v Value) Number() (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.I64), true
	case KindFloat:
		return v.F64, true
	default:
		return 0, false
	}
}

// IsEmpty reports whether the value is an empty string, array or object.
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case KindString:
		return v.s.Value() == ""
	case KindArray:
		return len(v.A) == 0
	case KindObject:
		return len(v.O) == 0
	default:
		return false
	}
}

// Key returns a stable string representation for use in maps.
//
// It is intended for internal indexing and must remain stable across
// versions for persisted usage.
func (v Value) Key() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindInt:
		return "i:" + strconv.FormatInt(v.I64, 10)
	case KindFloat:
		return "f:" + strconv.FormatUint(math.Float64bits(v.F64), 16)
	case KindString:
		return "s:" + v.s.Value()
	case KindBool:
		if v.B {
			return "b:1"
		}
		return "b:0"
	case KindArray:
		if len(v.A) == 0 {
			return "a:"
		}
		parts := make([]string, len(v.A))
		for i := range v.A {
			parts[i] = v.A[i].Key()
		}
		return "a:" + strings.Join(parts, "\x1f")
	case KindObject:
		if len(v.O) == 0 {
			return "o:"
		}
		keys := make([]string, 0, len(v.O))
		for k := range v.O {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "\x1e" + v.O[k].Key()
		}
		return "o:" + strings.Join(parts, "\x1f")
	default:
		return "invalid"
	}
}

// ExternalID renders the value as a caller-visible document identifier.
// Only strings and numbers are valid identifiers.
func (v Value) ExternalID() (string, bool) {
	switch v.Kind {
	case KindString:
		return v.s.Value(), true
	case KindInt:
		return strconv.FormatInt(v.I64, 10), true
	case KindFloat:
		return strconv.FormatFloat(v.F64, 'f', -1, 64), true
	default:
		return "", false
	}
}

// Equal reports deep equality of two values.
// Int and float values compare numerically across kinds.
func (v Value) Equal(o Value) bool {
	if vn, ok := v.Number(); ok {
		if on, ok := o.Number(); ok {
			if v.Kind == KindInt && o.Kind == KindInt {
				return v.I64 == o.I64
			}
			return vn == on
		}
		return false
	}
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindString:
		return v.s == o.s
	case KindBool:
		return v.B == o.B
	case KindArray:
		if len(v.A) != len(o.A) {
			return false
		}
		for i := range v.A {
			if !v.A[i].Equal(o.A[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.O) != len(o.O) {
			return false
		}
		for k, ve := range v.O {
			oe, ok := o.O[k]
			if !ok || !ve.Equal(oe) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (v Value) clone() Value {
	switch v.Kind {
	case KindArray:
		if v.A == nil {
			return v
		}
		a := make([]Value, len(v.A))
		for i := range v.A {
			a[i] = v.A[i].clone()
		}
		return Value{Kind: KindArray, A: a}
	case KindObject:
		if v.O == nil {
			return v
		}
		o := make(map[string]Value, len(v.O))
		for k, e := range v.O {
			o[k] = e.clone()
		}
		return Value{Kind: KindObject, O: o}
	default:
		return v
	}
}

// Document is a typed document: a mapping from field name to Value.
type Document map[string]Value

// Clone creates a deep copy of the document.
//
// This is the safe default to prevent external mutation after an operation
// returns. Values are deep copied, including arrays and nested objects.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}

	clone := make(Document, len(d))
	for k, v := range d {
		clone[k] = v.clone()
	}
	return clone
}

// Equal reports deep equality of two documents.
func (d Document) Equal(o Document) bool {
	if len(d) != len(o) {
		return false
	}
	for k, v := range d {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}
