package document

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalJSON implements json.Marshaler using the natural JSON
// representation of the value.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindInt:
		return json.Marshal(v.I64)
	case KindFloat:
		return json.Marshal(v.F64)
	case KindString:
		return json.Marshal(v.s.Value())
	case KindBool:
		return json.Marshal(v.B)
	case KindArray:
		if v.A == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.A)
	case KindObject:
		if v.O == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.O)
	default:
		return nil, fmt.Errorf("document: cannot marshal invalid value")
	}
}

// UnmarshalJSON implements json.Unmarshaler, parsing arbitrary JSON into a
// typed Value. Numbers without a fraction or exponent that fit in an int64
// decode as KindInt; all other numbers decode as KindFloat.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := fromDecoded(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// FromJSON parses a JSON value into a typed Value.
func FromJSON(data []byte) (Value, error) {
	var v Value
	if err := v.UnmarshalJSON(data); err != nil {
		return Value{}, err
	}
	return v, nil
}

// FromAny converts a decoded JSON value (as produced by encoding/json into
// any) into a typed Value.
func FromAny(raw any) (Value, error) {
	return fromDecoded(raw)
}

// ToAny converts the value back into the generic representation used by
// encoding/json (nil, bool, float64/int64, string, []any, map[string]any).
func (v Value) ToAny() any {
	switch v.Kind {
	case KindNull:
		return nil
	case KindInt:
		return v.I64
	case KindFloat:
		return v.F64
	case KindString:
		return v.s.Value()
	case KindBool:
		return v.B
	case KindArray:
		a := make([]any, len(v.A))
		for i := range v.A {
			a[i] = v.A[i].ToAny()
		}
		return a
	case KindObject:
		o := make(map[string]any, len(v.O))
		for k, e := range v.O {
			o[k] = e.ToAny()
		}
		return o
	default:
		return nil
	}
}

func fromDecoded(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case float64:
		if t == float64(int64(t)) {
			return Int(int64(t)), nil
		}
		return Float(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("document: invalid number %q: %w", t.String(), err)
		}
		return Float(f), nil
	case []any:
		a := make([]Value, len(t))
		for i := range t {
			e, err := fromDecoded(t[i])
			if err != nil {
				return Value{}, err
			}
			a[i] = e
		}
		return Value{Kind: KindArray, A: a}, nil
	case map[string]any:
		o := make(map[string]Value, len(t))
		for k, rv := range t {
			e, err := fromDecoded(rv)
			if err != nil {
				return Value{}, err
			}
			o[k] = e
		}
		return Value{Kind: KindObject, O: o}, nil
	default:
		return Value{}, fmt.Errorf("document: unsupported value type %T", raw)
	}
}

// ParseDocument parses a JSON object into a Document.
func ParseDocument(data []byte) (Document, error) {
	v, err := FromJSON(data)
	if err != nil {
		return nil, err
	}
	o, ok := v.AsObject()
	if !ok {
		return nil, fmt.Errorf("document: expected a JSON object, got %s", kindName(v.Kind))
	}
	return Document(o), nil
}

func kindName(k Kind) string {
	switch k {
	case KindNull:
		return "null"
	case KindInt, KindFloat:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "boolean"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}
