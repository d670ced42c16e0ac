package engine

import (
	"testing"

	"github.com/hupe1980/lexgo/document"
	"github.com/stretchr/testify/assert"
)

func leafCond(op Operator, values ...string) Condition {
	return Condition{Kind: ConditionLeaf, Field: "f", Op: op, Values: values}
}

func TestMatchesLeaf(t *testing.T) {
	t.Run("Equal", func(t *testing.T) {
		assert.True(t, matchesLeaf(leafCond(OpEqual, "drama"), document.String("drama"), true))
		assert.True(t, matchesLeaf(leafCond(OpEqual, "DRAMA"), document.String("drama"), true),
			"string comparison is case-insensitive")
		assert.True(t, matchesLeaf(leafCond(OpEqual, "2010"), document.Int(2010), true))
		assert.True(t, matchesLeaf(leafCond(OpEqual, "2010"), document.Float(2010), true),
			"numeric comparison crosses int/float kinds")
		assert.True(t, matchesLeaf(leafCond(OpEqual, "true"), document.Bool(true), true))
		assert.False(t, matchesLeaf(leafCond(OpEqual, "drama"), document.String("comedy"), true))
		assert.False(t, matchesLeaf(leafCond(OpEqual, "drama"), document.Value{}, false))
	})

	t.Run("EqualOnArraysIsElementWise", func(t *testing.T) {
		v := document.Array(document.String("drama"), document.String("thriller"))
		assert.True(t, matchesLeaf(leafCond(OpEqual, "thriller"), v, true))
		assert.False(t, matchesLeaf(leafCond(OpEqual, "comedy"), v, true))
	})

	t.Run("NotEqualMatchesMissingField", func(t *testing.T) {
		assert.True(t, matchesLeaf(leafCond(OpNotEqual, "drama"), document.Value{}, false))
		assert.True(t, matchesLeaf(leafCond(OpNotEqual, "drama"), document.String("comedy"), true))
		assert.False(t, matchesLeaf(leafCond(OpNotEqual, "drama"), document.String("drama"), true))
	})

	t.Run("RangesAreNumericOnly", func(t *testing.T) {
		assert.True(t, matchesLeaf(leafCond(OpGreaterThan, "2010"), document.Int(2014), true))
		assert.False(t, matchesLeaf(leafCond(OpGreaterThan, "2010"), document.Int(2010), true))
		assert.True(t, matchesLeaf(leafCond(OpGreaterThanOrEqual, "2010"), document.Int(2010), true))
		assert.True(t, matchesLeaf(leafCond(OpLessThan, "2010"), document.Float(2009.5), true))
		assert.True(t, matchesLeaf(leafCond(OpLessThanOrEqual, "2010"), document.Int(2010), true))

		// Strings never satisfy a range operator, even when they look numeric.
		assert.False(t, matchesLeaf(leafCond(OpGreaterThan, "2010"), document.String("2014"), true))
	})

	t.Run("Between", func(t *testing.T) {
		assert.True(t, matchesLeaf(leafCond(OpBetween, "2010", "2014"), document.Int(2010), true))
		assert.True(t, matchesLeaf(leafCond(OpBetween, "2010", "2014"), document.Int(2014), true))
		assert.False(t, matchesLeaf(leafCond(OpBetween, "2010", "2014"), document.Int(2015), true))
	})

	t.Run("In", func(t *testing.T) {
		c := leafCond(OpIn, "drama", "thriller")
		assert.True(t, matchesLeaf(c, document.String("thriller"), true))
		assert.False(t, matchesLeaf(c, document.String("comedy"), true))
		assert.False(t, matchesLeaf(leafCond(OpIn), document.String("anything"), true))
	})

	t.Run("Existence", func(t *testing.T) {
		assert.True(t, matchesLeaf(leafCond(OpExists), document.String(""), true))
		assert.False(t, matchesLeaf(leafCond(OpExists), document.Value{}, false))

		assert.True(t, matchesLeaf(leafCond(OpIsNull), document.Null(), true))
		assert.False(t, matchesLeaf(leafCond(OpIsNull), document.String(""), true))
		assert.False(t, matchesLeaf(leafCond(OpIsNull), document.Value{}, false))

		assert.True(t, matchesLeaf(leafCond(OpIsEmpty), document.String(""), true))
		assert.True(t, matchesLeaf(leafCond(OpIsEmpty), document.Array(), true))
		assert.False(t, matchesLeaf(leafCond(OpIsEmpty), document.String("x"), true))
	})
}

func TestEvaluateTree(t *testing.T) {
	env := newTestEnv(t)
	addTestDocuments(t, env,
		document.Document{"id": document.Int(1), "year": document.Int(2010), "genre": document.String("drama")},
		document.Document{"id": document.Int(2), "year": document.Int(2014), "genre": document.String("drama")},
		document.Document{"id": document.Int(3), "year": document.Int(2010), "genre": document.String("action")},
	)

	wtxn, err := env.WriteTxn()
	assert.NoError(t, err)
	sb := NewSettings(wtxn)
	sb.SetFilterableFields(map[string]struct{}{"year": {}, "genre": {}})
	assert.NoError(t, sb.Execute(nil, nil))
	assert.NoError(t, wtxn.Commit())

	rtxn, err := env.ReadTxn()
	assert.NoError(t, err)
	defer rtxn.Close()

	t.Run("And", func(t *testing.T) {
		bm, err := rtxn.evaluate(Condition{Kind: ConditionAnd, Children: []Condition{
			{Kind: ConditionLeaf, Field: "genre", Op: OpEqual, Values: []string{"drama"}},
			{Kind: ConditionLeaf, Field: "year", Op: OpEqual, Values: []string{"2010"}},
		}})
		assert.NoError(t, err)
		assert.Equal(t, uint64(1), bm.GetCardinality())
	})

	t.Run("Or", func(t *testing.T) {
		bm, err := rtxn.evaluate(Condition{Kind: ConditionOr, Children: []Condition{
			{Kind: ConditionLeaf, Field: "genre", Op: OpEqual, Values: []string{"action"}},
			{Kind: ConditionLeaf, Field: "year", Op: OpEqual, Values: []string{"2014"}},
		}})
		assert.NoError(t, err)
		assert.Equal(t, uint64(2), bm.GetCardinality())
	})

	t.Run("NotComplementsLiveSet", func(t *testing.T) {
		bm, err := rtxn.evaluate(Condition{Kind: ConditionNot, Children: []Condition{
			{Kind: ConditionLeaf, Field: "genre", Op: OpEqual, Values: []string{"drama"}},
		}})
		assert.NoError(t, err)
		assert.Equal(t, uint64(1), bm.GetCardinality())
	})

	t.Run("EmptyAndMatchesEverything", func(t *testing.T) {
		bm, err := rtxn.evaluate(Condition{Kind: ConditionAnd})
		assert.NoError(t, err)
		assert.Equal(t, uint64(3), bm.GetCardinality())
	})

	t.Run("NotFilterableField", func(t *testing.T) {
		_, err := rtxn.evaluate(leafCond(OpEqual, "x"))
		assert.Error(t, err)

		var fe *InvalidFilterError
		assert.ErrorAs(t, err, &fe)
		assert.Equal(t, "f", fe.Field)
	})
}
