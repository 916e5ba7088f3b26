package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/asaidimu/go-sieve/core/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewDataProcessor(t *testing.T) {
	p := NewDataProcessor(nil)
	assert.NotNil(t, p)
	assert.NotNil(t, p.goFilterFunctions)
	assert.NotNil(t, p.logger)

	p = NewDataProcessor(zap.NewNop())
	assert.NotNil(t, p)
}

func TestDataProcessor_RegisterFilterFunctions(t *testing.T) {
	p := NewDataProcessor(nil)
	fn := func(doc schema.Document, field string, args FilterValue) (bool, error) { return true, nil }
	p.RegisterFilterFunction("customOp", fn)
	p.RegisterFilterFunctions(map[ComparisonOperator]PredicateFunction{"op1": fn, "op2": fn})
	assert.Contains(t, p.goFilterFunctions, ComparisonOperator("customOp"))
	assert.Contains(t, p.goFilterFunctions, ComparisonOperator("op1"))
	assert.Contains(t, p.goFilterFunctions, ComparisonOperator("op2"))
}

func TestDataProcessor_Match(t *testing.T) {
	p := NewDataProcessor(nil)
	ctx := context.Background()
	born := time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)
	doc := schema.Document{
		"name":      "Alice",
		"age":       int64(30),
		"score":     7.5,
		"is_active": true,
		"deleted":   nil,
		"born":      born,
	}

	tests := []struct {
		name     string
		filter   QueryFilter
		expected bool
	}{
		{"eq string", Field("name").Compare(ComparisonOperatorEq, "Alice"), true},
		{"eq numeric across types", Field("age").Compare(ComparisonOperatorEq, 30), true},
		{"neq", Field("name").Compare(ComparisonOperatorNeq, "Bob"), true},
		{"gt", Field("age").Compare(ComparisonOperatorGt, 18), true},
		{"gte boundary", Field("age").Compare(ComparisonOperatorGte, 30), true},
		{"lt fails", Field("age").Compare(ComparisonOperatorLt, 30), false},
		{"lte float", Field("score").Compare(ComparisonOperatorLte, 7.5), true},
		{"time gt", Field("born").Compare(ComparisonOperatorGt, born.Add(-time.Hour)), true},
		{"in", Field("name").Compare(ComparisonOperatorIn, []any{"Bob", "Alice"}), true},
		{"in builder values", Field("age").Compare(ComparisonOperatorIn, []FilterValue{30, 40}), true},
		{"nin", Field("name").Compare(ComparisonOperatorNin, []string{"Bob"}), true},
		{"like", Field("name").Compare(ComparisonOperatorLike, "%lic%"), true},
		{"like case sensitive", Field("name").Compare(ComparisonOperatorLike, "%LIC%"), false},
		{"ilike", Field("name").Compare(ComparisonOperatorILike, "%LIC%"), true},
		{"like underscore", Field("name").Compare(ComparisonOperatorLike, "A_ice"), true},
		{"isnull nil value", Field("deleted").Compare(ComparisonOperatorIsNull, nil), true},
		{"isnull missing", Field("missing").Compare(ComparisonOperatorIsNull, nil), true},
		{"notnull", Field("name").Compare(ComparisonOperatorNotNull, nil), true},
		{"isnot", Field("name").Compare(ComparisonOperatorIsNot, "Bob"), true},
		{"isnot null", Field("deleted").Compare(ComparisonOperatorIsNot, nil), false},
		{"istrue", Field("is_active").Predicate(), true},
		{"istrue missing", Field("missing").Predicate(), false},
		{"missing field comparison", Field("missing").Compare(ComparisonOperatorEq, 1), false},
		{"and group", QueryFilter{Group: &FilterGroup{Operator: schema.LogicalAnd, Conditions: []QueryFilter{
			Field("age").Compare(ComparisonOperatorGt, 18),
			Field("age").Compare(ComparisonOperatorLt, 65),
		}}}, true},
		{"or group", QueryFilter{Group: &FilterGroup{Operator: schema.LogicalOr, Conditions: []QueryFilter{
			Field("age").Compare(ComparisonOperatorGt, 60),
			Field("name").Compare(ComparisonOperatorEq, "Alice"),
		}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched, err := p.Match(ctx, &tt.filter, doc)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, matched)
		})
	}

	t.Run("nil filter matches", func(t *testing.T) {
		matched, err := p.Match(ctx, nil, doc)
		require.NoError(t, err)
		assert.True(t, matched)
	})

	t.Run("incomparable types", func(t *testing.T) {
		filter := Field("name").Compare(ComparisonOperatorGt, 3)
		_, err := p.Match(ctx, &filter, doc)
		assert.Error(t, err)
	})

	t.Run("unregistered custom operator", func(t *testing.T) {
		filter := Field("name").Compare("near", 3)
		_, err := p.Match(ctx, &filter, doc)
		assert.ErrorContains(t, err, "unregistered")
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		filter := Field("name").Compare(ComparisonOperatorEq, "Alice")
		_, err := p.Match(cancelled, &filter, doc)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestDataProcessor_ProcessRows(t *testing.T) {
	rows := []schema.Document{
		{"city": "Nairobi", "orders": int64(3)},
		{"city": "Mombasa", "orders": int64(1)},
		{"city": "Kisumu", "orders": int64(5)},
	}

	t.Run("no statement", func(t *testing.T) {
		p := NewDataProcessor(nil)
		result, err := p.ProcessRows(rows, nil)
		require.NoError(t, err)
		assert.Equal(t, rows, result)
	})

	t.Run("where and having", func(t *testing.T) {
		p := NewDataProcessor(nil)
		orders := Count("id").As("orders")
		dsl := NewQueryBuilder().
			Where("city").Neq("Kisumu").
			Having(orders).Gte(2).
			Build()

		result, err := p.ProcessRows(rows, dsl)
		require.NoError(t, err)
		assert.Equal(t, []schema.Document{rows[0]}, result)
	})

	t.Run("custom filter function", func(t *testing.T) {
		p := NewDataProcessor(nil)
		p.RegisterFilterFunction("startswith", func(doc schema.Document, field string, args FilterValue) (bool, error) {
			s, _ := doc[field].(string)
			return len(s) > 0 && s[:1] == args, nil
		})
		dsl := NewQueryBuilder().Where("city").Custom("startswith", "M").Build()

		result, err := p.ProcessRows(rows, dsl)
		require.NoError(t, err)
		assert.Equal(t, []schema.Document{rows[1]}, result)
	})

	t.Run("evaluation error", func(t *testing.T) {
		p := NewDataProcessor(nil)
		dsl := NewQueryBuilder().Where("city").Gt(1).Build()
		_, err := p.ProcessRows(rows, dsl)
		assert.Error(t, err)
	})
}

func TestLikeMatch(t *testing.T) {
	assert.True(t, likeMatch("hello", "%"))
	assert.True(t, likeMatch("", "%"))
	assert.True(t, likeMatch("hello", "h%o"))
	assert.True(t, likeMatch("hello", "%ll%"))
	assert.False(t, likeMatch("hello", "h%x"))
	assert.False(t, likeMatch("hello", "hell"))
	assert.True(t, likeMatch("50%", "50%"))
}
