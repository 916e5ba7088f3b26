// Package query defines the queryable statement that compiled filters are folded
// into. A QueryDSL carries pre-aggregation filters, grouping, post-aggregation
// filters, projections and ordering; backends such as the sqlite package turn it
// into executable SQL, while DataProcessor evaluates it in memory.
package query

import (
	"slices"

	"github.com/asaidimu/go-sieve/core/schema"
)

// ComparisonOperator names a comparator that can be applied to a target expression.
type ComparisonOperator string

// Supported comparison operators.
const (
	ComparisonOperatorEq      ComparisonOperator = "eq"
	ComparisonOperatorNeq     ComparisonOperator = "neq"
	ComparisonOperatorLt      ComparisonOperator = "lt"
	ComparisonOperatorLte     ComparisonOperator = "lte"
	ComparisonOperatorGt      ComparisonOperator = "gt"
	ComparisonOperatorGte     ComparisonOperator = "gte"
	ComparisonOperatorIn      ComparisonOperator = "in"
	ComparisonOperatorNin     ComparisonOperator = "nin"
	ComparisonOperatorLike    ComparisonOperator = "like"
	ComparisonOperatorILike   ComparisonOperator = "ilike"
	ComparisonOperatorIsNull  ComparisonOperator = "isnull"
	ComparisonOperatorNotNull ComparisonOperator = "notnull"
	ComparisonOperatorIsNot   ComparisonOperator = "isnot"
	// ComparisonOperatorIsTrue uses the expression itself as the predicate.
	ComparisonOperatorIsTrue ComparisonOperator = "istrue"
)

// FilterValue represents the value used in a filter condition.
type FilterValue any

// FilterCondition defines a single predicate. Aggregate is set when the
// condition targets an aggregate expression rather than a plain field; Field
// then holds the aggregate's alias.
type FilterCondition struct {
	Field     string
	Aggregate *AggregationConfiguration `json:",omitempty"`
	Operator  ComparisonOperator
	Value     FilterValue
}

// FilterGroup combines multiple filters using a logical operator.
type FilterGroup struct {
	Operator   schema.LogicalOperator
	Conditions []QueryFilter
}

// QueryFilter is a union type that can represent either a single filter condition
// or a group of conditions.
type QueryFilter struct {
	Condition *FilterCondition `json:",omitempty"`
	Group     *FilterGroup     `json:",omitempty"`
}

// SortDirection specifies the direction for sorting.
type SortDirection string

// Supported sort directions.
const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

// SortConfiguration defines the sorting order for a specific field.
type SortConfiguration struct {
	Field     string
	Direction SortDirection
}

// ProjectionField defines a field to be included in the query result.
type ProjectionField struct {
	Name string
}

// ProjectionConfiguration defines which fields should be returned in the query result.
type ProjectionConfiguration struct {
	Include []ProjectionField `json:",omitempty"`
}

// AggregationType specifies the type of aggregation to be performed.
type AggregationType string

// Supported aggregation types.
const (
	AggregationTypeCount AggregationType = "count"
	AggregationTypeSum   AggregationType = "sum"
	AggregationTypeAvg   AggregationType = "avg"
	AggregationTypeMin   AggregationType = "min"
	AggregationTypeMax   AggregationType = "max"
)

// AggregationConfiguration defines an aggregation operation to be performed on a field.
type AggregationConfiguration struct {
	Type  AggregationType
	Field string
	Alias string
}

// QueryDSL is the queryable statement. Filters apply before aggregation,
// Having applies to the groups formed by GroupBy.
type QueryDSL struct {
	Filters      *QueryFilter               `json:",omitempty"`
	GroupBy      []string                   `json:",omitempty"`
	Having       *QueryFilter               `json:",omitempty"`
	Projection   *ProjectionConfiguration   `json:",omitempty"`
	Aggregations []AggregationConfiguration `json:",omitempty"`
	Sort         []SortConfiguration        `json:",omitempty"`
}

// QueryResult represents the result of a query.
type QueryResult struct {
	Data  []schema.Document `json:"data"`
	Count int               `json:"count"`
}

// Clone returns a copy of the statement that can be extended without
// affecting the receiver.
func (q *QueryDSL) Clone() *QueryDSL {
	if q == nil {
		return &QueryDSL{}
	}
	clone := &QueryDSL{
		Filters:      cloneFilter(q.Filters),
		GroupBy:      slices.Clone(q.GroupBy),
		Having:       cloneFilter(q.Having),
		Aggregations: slices.Clone(q.Aggregations),
		Sort:         slices.Clone(q.Sort),
	}
	if q.Projection != nil {
		clone.Projection = &ProjectionConfiguration{Include: slices.Clone(q.Projection.Include)}
	}
	return clone
}

// WithFilter returns a new statement with filter ANDed into the pre-aggregation filters.
func (q *QueryDSL) WithFilter(filter QueryFilter) *QueryDSL {
	next := q.Clone()
	next.AddFilter(filter)
	return next
}

// WithHaving returns a new statement with filter ANDed into the post-aggregation filters.
func (q *QueryDSL) WithHaving(filter QueryFilter) *QueryDSL {
	next := q.Clone()
	next.AddHaving(filter)
	return next
}

// AddFilter ANDs filter into the pre-aggregation filters of q in place.
func (q *QueryDSL) AddFilter(filter QueryFilter) {
	q.Filters = conjoin(q.Filters, filter)
}

// AddHaving ANDs filter into the post-aggregation filters of q in place.
func (q *QueryDSL) AddHaving(filter QueryFilter) {
	q.Having = conjoin(q.Having, filter)
}

// conjoin appends filter to an existing AND group, or starts one.
func conjoin(existing *QueryFilter, filter QueryFilter) *QueryFilter {
	if existing == nil {
		return &filter
	}
	if existing.Group != nil && existing.Group.Operator == schema.LogicalAnd {
		existing.Group.Conditions = append(existing.Group.Conditions, filter)
		return existing
	}
	return &QueryFilter{Group: &FilterGroup{
		Operator:   schema.LogicalAnd,
		Conditions: []QueryFilter{*existing, filter},
	}}
}

func cloneFilter(filter *QueryFilter) *QueryFilter {
	if filter == nil {
		return nil
	}
	clone := *filter
	if filter.Group != nil {
		group := FilterGroup{Operator: filter.Group.Operator}
		for _, cond := range filter.Group.Conditions {
			group.Conditions = append(group.Conditions, *cloneFilter(&cond))
		}
		clone.Group = &group
	}
	return &clone
}

// standardComparisonOperators is a set of all the standard, built-in comparison operators.
var standardComparisonOperators = map[ComparisonOperator]struct{}{
	ComparisonOperatorEq:      {},
	ComparisonOperatorNeq:     {},
	ComparisonOperatorLt:      {},
	ComparisonOperatorLte:     {},
	ComparisonOperatorGt:      {},
	ComparisonOperatorGte:     {},
	ComparisonOperatorIn:      {},
	ComparisonOperatorNin:     {},
	ComparisonOperatorLike:    {},
	ComparisonOperatorILike:   {},
	ComparisonOperatorIsNull:  {},
	ComparisonOperatorNotNull: {},
	ComparisonOperatorIsNot:   {},
	ComparisonOperatorIsTrue:  {},
}

// IsStandard checks if a comparison operator is one of the standard, built-in operators.
func (c ComparisonOperator) IsStandard() bool {
	_, ok := standardComparisonOperators[c]
	return ok
}
