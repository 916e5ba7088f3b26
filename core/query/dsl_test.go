package query

import (
	"testing"

	"github.com/asaidimu/go-sieve/core/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryDSL_WithFilter(t *testing.T) {
	base := &QueryDSL{}
	first := Field("age").Compare(ComparisonOperatorGt, 18)
	second := Field("age").Compare(ComparisonOperatorLt, 65)

	one := base.WithFilter(first)
	assert.Nil(t, base.Filters, "base statement must not be mutated")
	require.NotNil(t, one.Filters)
	assert.Equal(t, first, *one.Filters)

	two := one.WithFilter(second)
	require.NotNil(t, two.Filters.Group)
	assert.Equal(t, schema.LogicalAnd, two.Filters.Group.Operator)
	assert.Equal(t, []QueryFilter{first, second}, two.Filters.Group.Conditions)
	assert.Nil(t, one.Filters.Group, "previous statement must not be mutated")

	three := two.WithFilter(Field("name").Compare(ComparisonOperatorEq, "Alice"))
	assert.Len(t, three.Filters.Group.Conditions, 3)
	assert.Len(t, two.Filters.Group.Conditions, 2)
}

func TestQueryDSL_AddFilter(t *testing.T) {
	base := (&QueryDSL{}).
		WithFilter(Field("a").Compare(ComparisonOperatorEq, 1)).
		WithFilter(Field("b").Compare(ComparisonOperatorEq, 2))

	stmt := base.Clone()
	group := stmt.Filters.Group
	for i := range 5 {
		stmt.AddFilter(Field("c").Compare(ComparisonOperatorEq, i))
	}
	stmt.AddHaving(Count("id").Compare(ComparisonOperatorGt, 1))

	assert.Same(t, group, stmt.Filters.Group, "AND group is extended in place")
	assert.Len(t, stmt.Filters.Group.Conditions, 7)
	assert.Len(t, base.Filters.Group.Conditions, 2, "clone does not share conditions")
	require.NotNil(t, stmt.Having)
	assert.Nil(t, base.Having)
}

func TestQueryDSL_WithFilter_WrapsOrGroup(t *testing.T) {
	orGroup := QueryFilter{Group: &FilterGroup{
		Operator: schema.LogicalOr,
		Conditions: []QueryFilter{
			Field("a").Compare(ComparisonOperatorEq, 1),
			Field("b").Compare(ComparisonOperatorEq, 2),
		},
	}}
	base := &QueryDSL{Filters: &orGroup}
	next := base.WithFilter(Field("c").Compare(ComparisonOperatorEq, 3))

	require.NotNil(t, next.Filters.Group)
	assert.Equal(t, schema.LogicalAnd, next.Filters.Group.Operator)
	assert.Equal(t, orGroup, next.Filters.Group.Conditions[0])
}

func TestQueryDSL_WithHaving(t *testing.T) {
	base := &QueryDSL{GroupBy: []string{"city"}}
	next := base.WithHaving(Count("id").Compare(ComparisonOperatorGte, 2))

	assert.Nil(t, next.Filters)
	require.NotNil(t, next.Having)
	cond := next.Having.Condition
	require.NotNil(t, cond)
	assert.Equal(t, "count_id", cond.Field)
	assert.Equal(t, AggregationTypeCount, cond.Aggregate.Type)
	assert.Equal(t, []string{"city"}, next.GroupBy)
}

func TestQueryDSL_CloneNil(t *testing.T) {
	var q *QueryDSL
	assert.Equal(t, &QueryDSL{}, q.Clone())
}

func TestExpressions(t *testing.T) {
	t.Run("field predicate", func(t *testing.T) {
		pred := Field("is_active").Predicate()
		require.NotNil(t, pred.Condition)
		assert.Equal(t, ComparisonOperatorIsTrue, pred.Condition.Operator)
		assert.Equal(t, "is_active", pred.Condition.Field)
	})

	t.Run("aggregate alias", func(t *testing.T) {
		assert.Equal(t, "count", Count("*").Aggregation.Alias)
		assert.Equal(t, "total", Aggregate(AggregationTypeSum, "amount").As("total").Aggregation.Alias)
		assert.Equal(t, "sum(amount)", Aggregate(AggregationTypeSum, "amount").String())
	})
}

func TestComparisonOperator_IsStandard(t *testing.T) {
	assert.True(t, ComparisonOperatorILike.IsStandard())
	assert.False(t, ComparisonOperator("custom").IsStandard())
}
