package lexgo

import "github.com/hupe1980/lexgo/engine"

// Filter is a typed, composable filter expression. The concrete types in
// this file form a closed sum: combinators (And, Or, Not) nest arbitrarily
// deep, leaves bind a field to a predicate.
//
// Operand values are strings regardless of the stored field type; numeric
// comparisons resolve the typing against the stored value at evaluation
// time. Fields referenced by a filter must be declared filterable in the
// index settings or the query fails with ErrFieldNotFilterable.
type Filter interface {
	condition() engine.Condition
}

// And matches documents satisfying every child filter.
type And []Filter

func (f And) condition() engine.Condition {
	return engine.Condition{Kind: engine.ConditionAnd, Children: compileChildren(f)}
}

// Or matches documents satisfying at least one child filter.
type Or []Filter

func (f Or) condition() engine.Condition {
	return engine.Condition{Kind: engine.ConditionOr, Children: compileChildren(f)}
}

// Not matches documents not satisfying the child filter.
type Not struct {
	Filter Filter
}

func (f Not) condition() engine.Condition {
	return engine.Condition{Kind: engine.ConditionNot, Children: compileChildren([]Filter{f.Filter})}
}

// Equal matches documents whose field equals the value. String comparison
// is case-insensitive; numeric values compare numerically.
type Equal struct {
	Field string
	Value string
}

func (f Equal) condition() engine.Condition {
	return leaf(f.Field, engine.OpEqual, f.Value)
}

// NotEqual matches documents whose field differs from the value, including
// documents without the field.
type NotEqual struct {
	Field string
	Value string
}

func (f NotEqual) condition() engine.Condition {
	return leaf(f.Field, engine.OpNotEqual, f.Value)
}

// GreaterThan matches numeric field values strictly above the value.
type GreaterThan struct {
	Field string
	Value string
}

func (f GreaterThan) condition() engine.Condition {
	return leaf(f.Field, engine.OpGreaterThan, f.Value)
}

// GreaterThanOrEqual matches numeric field values at or above the value.
type GreaterThanOrEqual struct {
	Field string
	Value string
}

func (f GreaterThanOrEqual) condition() engine.Condition {
	return leaf(f.Field, engine.OpGreaterThanOrEqual, f.Value)
}

// LessThan matches numeric field values strictly below the value.
type LessThan struct {
	Field string
	Value string
}

func (f LessThan) condition() engine.Condition {
	return leaf(f.Field, engine.OpLessThan, f.Value)
}

// LessThanOrEqual matches numeric field values at or below the value.
type LessThanOrEqual struct {
	Field string
	Value string
}

func (f LessThanOrEqual) condition() engine.Condition {
	return leaf(f.Field, engine.OpLessThanOrEqual, f.Value)
}

// Between matches numeric field values within [From, To], inclusive on
// both ends.
type Between struct {
	Field string
	From  string
	To    string
}

func (f Between) condition() engine.Condition {
	return leaf(f.Field, engine.OpBetween, f.From, f.To)
}

// In matches documents whose field equals any of the values.
type In struct {
	Field  string
	Values []string
}

func (f In) condition() engine.Condition {
	return leaf(f.Field, engine.OpIn, f.Values...)
}

// Exists matches documents carrying the field at all.
type Exists struct {
	Field string
}

func (f Exists) condition() engine.Condition {
	return leaf(f.Field, engine.OpExists)
}

// IsNull matches documents whose field holds an explicit null.
type IsNull struct {
	Field string
}

func (f IsNull) condition() engine.Condition {
	return leaf(f.Field, engine.OpIsNull)
}

// IsEmpty matches documents whose field holds an empty string, array or
// object.
type IsEmpty struct {
	Field string
}

func (f IsEmpty) condition() engine.Condition {
	return leaf(f.Field, engine.OpIsEmpty)
}

// compileFilter lowers a filter expression into the engine's condition
// tree. The translation is total: every expression has exactly one native
// form and the tree structure is preserved node for node.
func compileFilter(f Filter) engine.Condition {
	return f.condition()
}

func compileChildren(fs []Filter) []engine.Condition {
	children := make([]engine.Condition, 0, len(fs))
	for _, f := range fs {
		if f == nil {
			continue
		}
		children = append(children, f.condition())
	}
	return children
}

func leaf(field string, op engine.Operator, values ...string) engine.Condition {
	return engine.Condition{
		Kind:   engine.ConditionLeaf,
		Field:  field,
		Op:     op,
		Values: values,
	}
}
