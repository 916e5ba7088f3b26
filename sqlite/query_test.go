package sqlite

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/asaidimu/go-sieve/core/query"
	"github.com/asaidimu/go-sieve/core/schema"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usersSchema() *schema.SchemaDefinition {
	required := true
	return &schema.SchemaDefinition{
		Name: "users",
		Fields: map[string]*schema.FieldDefinition{
			"id":      {Name: "id", Type: schema.FieldTypeInteger},
			"name":    {Name: "name", Type: schema.FieldTypeString, Required: &required},
			"age":     {Name: "age", Type: schema.FieldTypeInteger},
			"status":  {Name: "status", Type: schema.FieldTypeString},
			"active":  {Name: "active", Type: schema.FieldTypeBoolean},
			"score":   {Name: "score", Type: schema.FieldTypeNumber},
			"created": {Name: "created", Type: schema.FieldTypeDateTime},
		},
		Indexes: []schema.IndexDefinition{
			{Name: "pk_users", Fields: []string{"id"}, Type: schema.IndexTypePrimary},
			{Fields: []string{"status"}, Type: schema.IndexTypeNormal},
		},
	}
}

func cond(field string, op query.ComparisonOperator, value any) query.QueryFilter {
	return query.QueryFilter{Condition: &query.FilterCondition{Field: field, Operator: op, Value: value}}
}

func and(filters ...query.QueryFilter) *query.QueryFilter {
	return &query.QueryFilter{Group: &query.FilterGroup{Operator: schema.LogicalAnd, Conditions: filters}}
}

// render lays out a statement and its parameters for golden comparison.
func render(sql string, params []any) []byte {
	var sb strings.Builder
	sb.WriteString(sql + "\n-- params\n")
	for _, p := range params {
		sb.WriteString(fmt.Sprintf("%T: %v\n", p, p))
	}
	return []byte(sb.String())
}

func TestSqliteQuery_GenerateSelectSQL_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	gen, err := NewSqliteQuery(usersSchema())
	require.NoError(t, err)

	orders := query.Count("id").As("orders")
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name string
		dsl  *query.QueryDSL
	}{
		{"select_all", &query.QueryDSL{}},
		{
			"where_interval_compare",
			&query.QueryDSL{Filters: and(
				cond("age", query.ComparisonOperatorGt, 18),
				cond("age", query.ComparisonOperatorLt, 65),
				cond("name", query.ComparisonOperatorEq, "Alice"),
			)},
		},
		{
			"operators",
			&query.QueryDSL{Filters: and(
				cond("name", query.ComparisonOperatorLike, "%ali%"),
				cond("name", query.ComparisonOperatorILike, "%ALI%"),
				cond("name", query.ComparisonOperatorIsNull, nil),
				cond("status", query.ComparisonOperatorNotNull, nil),
				cond("active", query.ComparisonOperatorIsNot, nil),
				cond("active", query.ComparisonOperatorIsTrue, nil),
				cond("status", query.ComparisonOperatorIn, []string{"open", "closed"}),
				cond("id", query.ComparisonOperatorNin, []int{}),
				cond("active", query.ComparisonOperatorEq, true),
			)},
		},
		{
			"having_aggregate",
			&query.QueryDSL{
				Filters:      &query.QueryFilter{Condition: cond("active", query.ComparisonOperatorIsTrue, nil).Condition},
				GroupBy:      []string{"status"},
				Aggregations: []query.AggregationConfiguration{orders.Aggregation},
				Having:       func() *query.QueryFilter { f := orders.Compare(query.ComparisonOperatorGte, 2); return &f }(),
				Sort:         []query.SortConfiguration{{Field: "orders", Direction: query.SortDirectionDesc}},
			},
		},
		{
			"temporal",
			&query.QueryDSL{Filters: and(
				cond("created", query.ComparisonOperatorGte, created),
				cond("created", query.ComparisonOperatorLt, created.Add(24*time.Hour)),
			)},
		},
		{
			"projection_sort",
			&query.QueryDSL{
				Projection: &query.ProjectionConfiguration{Include: []query.ProjectionField{{Name: "name"}, {Name: "age"}}},
				Sort:       []query.SortConfiguration{{Field: "age", Direction: query.SortDirectionAsc}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := gen.GenerateSelectSQL(tt.dsl)
			require.NoError(t, err)
			g.Assert(t, tt.name, render(sql, params))
		})
	}
}

func TestSqliteQuery_GenerateInsertSQL_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	gen, err := NewSqliteQuery(usersSchema())
	require.NoError(t, err)

	sql, params, err := gen.GenerateInsertSQL([]map[string]any{
		{"name": "Alice", "age": 30, "active": true},
		{"name": "Bob", "age": 25},
	})
	require.NoError(t, err)
	g.Assert(t, "insert", render(sql, params))
}

func TestSqliteQuery_Errors(t *testing.T) {
	_, err := NewSqliteQuery(nil)
	assert.Error(t, err)
	_, err = NewSqliteQuery(&schema.SchemaDefinition{})
	assert.Error(t, err)

	gen, err := NewSqliteQuery(usersSchema())
	require.NoError(t, err)

	orders := query.Count("id")
	tests := []struct {
		name string
		dsl  *query.QueryDSL
		want string
	}{
		{"nil statement", nil, "QueryDSL cannot be nil"},
		{"unknown field", &query.QueryDSL{Filters: &query.QueryFilter{Condition: cond("email", query.ComparisonOperatorEq, "a").Condition}}, "field 'email' not found"},
		{
			"aggregate before grouping",
			&query.QueryDSL{Filters: func() *query.QueryFilter { f := orders.Compare(query.ComparisonOperatorGt, 1); return &f }()},
			"cannot be used before grouping",
		},
		{
			"having without grouping",
			&query.QueryDSL{Having: &query.QueryFilter{Condition: cond("age", query.ComparisonOperatorGt, 1).Condition}},
			"HAVING requires GROUP BY",
		},
		{
			"unsupported operator",
			&query.QueryDSL{Filters: &query.QueryFilter{Condition: cond("age", "between", 1).Condition}},
			"unsupported comparison operator",
		},
		{
			"bad boolean",
			&query.QueryDSL{Filters: &query.QueryFilter{Condition: cond("active", query.ComparisonOperatorEq, "yes").Condition}},
			"expected boolean",
		},
		{
			"empty group operator",
			&query.QueryDSL{Filters: &query.QueryFilter{Group: &query.FilterGroup{}}},
			"logical operator missing",
		},
		{
			"sum of star",
			&query.QueryDSL{GroupBy: []string{"status"}, Aggregations: []query.AggregationConfiguration{{Type: query.AggregationTypeSum, Field: "*", Alias: "s"}}},
			"SUM(*) is not supported",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := gen.GenerateSelectSQL(tt.dsl)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, _, err = gen.GenerateInsertSQL(nil)
	assert.Error(t, err)
	_, _, err = gen.GenerateInsertSQL([]map[string]any{{"email": "a"}})
	assert.Error(t, err)
}

func TestSqliteQuery_HavingOnAlias(t *testing.T) {
	gen, err := NewSqliteQuery(usersSchema())
	require.NoError(t, err)

	sql, params, err := gen.GenerateSelectSQL(&query.QueryDSL{
		GroupBy:      []string{"status"},
		Aggregations: []query.AggregationConfiguration{query.Aggregate(query.AggregationTypeAvg, "score").Aggregation},
		Having:       and(cond("avg_score", query.ComparisonOperatorGt, 1.5), cond("status", query.ComparisonOperatorNeq, "closed")),
	})
	require.NoError(t, err)
	assert.Equal(t, `SELECT "status", AVG("score") AS "avg_score" FROM "users" GROUP BY "status" HAVING (AVG("score") > ? AND "status" != ?);`, sql)
	assert.Equal(t, []any{1.5, "closed"}, params)
}
