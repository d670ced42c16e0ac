package engine

import (
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/lexgo/document"
)

// ConditionKind tags a node of the engine's native condition tree.
type ConditionKind uint8

const (
	// ConditionAnd is a conjunction over Children.
	ConditionAnd ConditionKind = iota
	// ConditionOr is a disjunction over Children.
	ConditionOr
	// ConditionNot negates its single child.
	ConditionNot
	// ConditionLeaf is a field-scoped predicate.
	ConditionLeaf
)

// Operator is the predicate of a leaf condition.
type Operator uint8

const (
	// OpEqual matches documents whose field equals the operand.
	OpEqual Operator = iota
	// OpNotEqual matches documents whose field differs from the operand.
	OpNotEqual
	// OpGreaterThan matches numeric field values above the operand.
	OpGreaterThan
	// OpGreaterThanOrEqual matches numeric field values at or above the operand.
	OpGreaterThanOrEqual
	// OpLessThan matches numeric field values below the operand.
	OpLessThan
	// OpLessThanOrEqual matches numeric field values at or below the operand.
	OpLessThanOrEqual
	// OpBetween matches numeric field values within both operands, inclusive.
	OpBetween
	// OpIn matches field values equal to any operand.
	OpIn
	// OpExists matches documents carrying the field at all.
	OpExists
	// OpIsNull matches documents whose field holds an explicit null.
	OpIsNull
	// OpIsEmpty matches documents whose field holds an empty string, array
	// or object.
	OpIsEmpty
)

// Condition is the engine's native query-condition tree. Operands are
// opaque strings; numeric typing is resolved against the stored value at
// evaluation time.
type Condition struct {
	Kind     ConditionKind
	Children []Condition
	Field    string
	Op       Operator
	Values   []string
}

// evaluate resolves the condition to the set of matching live documents.
func (t *ReadTxn) evaluate(c Condition) (*roaring.Bitmap, error) {
	st := t.state
	switch c.Kind {
	case ConditionAnd:
		out := st.live.Clone()
		for _, child := range c.Children {
			sub, err := t.evaluate(child)
			if err != nil {
				return nil, err
			}
			out.And(sub)
		}
		return out, nil

	case ConditionOr:
		out := roaring.New()
		for _, child := range c.Children {
			sub, err := t.evaluate(child)
			if err != nil {
				return nil, err
			}
			out.Or(sub)
		}
		return out, nil

	case ConditionNot:
		out := st.live.Clone()
		if len(c.Children) > 0 {
			sub, err := t.evaluate(c.Children[0])
			if err != nil {
				return nil, err
			}
			out.AndNot(sub)
		}
		return out, nil

	default:
		return t.evaluateLeaf(c)
	}
}

func (t *ReadTxn) evaluateLeaf(c Condition) (*roaring.Bitmap, error) {
	st := t.state
	if _, ok := st.settings.filterableFields[c.Field]; !ok {
		return nil, &InvalidFilterError{Field: c.Field}
	}

	out := roaring.New()
	it := st.live.Iterator()
	for it.HasNext() {
		id := DocID(it.Next())
		doc, err := st.decodeRecord(t.env.codec, st.docs[id])
		if err != nil {
			return nil, err
		}
		v, present := doc[c.Field]
		if matchesLeaf(c, v, present) {
			out.Add(uint32(id))
		}
	}
	return out, nil
}

func matchesLeaf(c Condition, v document.Value, present bool) bool {
	switch c.Op {
	case OpExists:
		return present
	case OpIsNull:
		return present && v.Kind == document.KindNull
	case OpIsEmpty:
		return present && v.IsEmpty()
	case OpNotEqual:
		// Documents without the field differ from every operand.
		if !present {
			return true
		}
		return !valueEqualsOperand(v, operand(c, 0))
	}

	if !present {
		return false
	}

	switch c.Op {
	case OpEqual:
		return valueEqualsOperand(v, operand(c, 0))
	case OpIn:
		for _, op := range c.Values {
			if valueEqualsOperand(v, op) {
				return true
			}
		}
		return false
	case OpGreaterThan:
		return compareNumeric(v, operand(c, 0), func(a, b float64) bool { return a > b })
	case OpGreaterThanOrEqual:
		return compareNumeric(v, operand(c, 0), func(a, b float64) bool { return a >= b })
	case OpLessThan:
		return compareNumeric(v, operand(c, 0), func(a, b float64) bool { return a < b })
	case OpLessThanOrEqual:
		return compareNumeric(v, operand(c, 0), func(a, b float64) bool { return a <= b })
	case OpBetween:
		return compareNumeric(v, operand(c, 0), func(a, b float64) bool { return a >= b }) &&
			compareNumeric(v, operand(c, 1), func(a, b float64) bool { return a <= b })
	default:
		return false
	}
}

func operand(c Condition, i int) string {
	if i < len(c.Values) {
		return c.Values[i]
	}
	return ""
}

// valueEqualsOperand compares a stored value against a string-encoded
// operand: numerically when both sides are numeric, case-insensitively for
// strings, element-wise for arrays.
func valueEqualsOperand(v document.Value, op string) bool {
	if a, ok := v.AsArray(); ok {
		for _, el := range a {
			if valueEqualsOperand(el, op) {
				return true
			}
		}
		return false
	}

	if n, ok := v.Number(); ok {
		f, err := strconv.ParseFloat(op, 64)
		return err == nil && n == f
	}
	if s, ok := v.AsString(); ok {
		return strings.EqualFold(s, op)
	}
	if b, ok := v.AsBool(); ok {
		return (b && strings.EqualFold(op, "true")) || (!b && strings.EqualFold(op, "false"))
	}
	return false
}

// compareNumeric applies cmp(stored, operand) for numeric stored values,
// element-wise for arrays. Non-numeric values never match range operators.
func compareNumeric(v document.Value, op string, cmp func(a, b float64) bool) bool {
	if a, ok := v.AsArray(); ok {
		for _, el := range a {
			if compareNumeric(el, op, cmp) {
				return true
			}
		}
		return false
	}

	n, ok := v.Number()
	if !ok {
		return false
	}
	f, err := strconv.ParseFloat(op, 64)
	if err != nil {
		return false
	}
	return cmp(n, f)
}
