package query

// QueryBuilder provides a fluent API for building QueryDSL statements. It is
// mostly used to prepare the base statement that compiled filters are folded into.
type QueryBuilder struct {
	query *QueryDSL
}

// NewQueryBuilder creates a new, empty query builder instance.
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{
		query: &QueryDSL{},
	}
}

// Build returns the constructed QueryDSL object.
func (qb *QueryBuilder) Build() *QueryDSL {
	return qb.query.Clone()
}

// Clone creates a deep copy of the current query builder, allowing for the creation
// of new queries based on an existing one without modifying the original.
func (qb *QueryBuilder) Clone() *QueryBuilder {
	return &QueryBuilder{query: qb.query.Clone()}
}

// Reset clears all configurations from the query builder, returning it to its initial state.
func (qb *QueryBuilder) Reset() *QueryBuilder {
	qb.query = &QueryDSL{}
	return qb
}

// Where begins a pre-aggregation condition on a plain field.
func (qb *QueryBuilder) Where(field string) *FilterConditionBuilder {
	return &FilterConditionBuilder{parent: qb, target: Field(field)}
}

// Having begins a post-aggregation condition on the given expression.
func (qb *QueryBuilder) Having(target Expression) *FilterConditionBuilder {
	return &FilterConditionBuilder{parent: qb, target: target, having: true}
}

// Select adds fields to the projection.
func (qb *QueryBuilder) Select(fields ...string) *QueryBuilder {
	if qb.query.Projection == nil {
		qb.query.Projection = &ProjectionConfiguration{}
	}
	for _, field := range fields {
		qb.query.Projection.Include = append(qb.query.Projection.Include, ProjectionField{Name: field})
	}
	return qb
}

// Aggregate projects an aggregate expression under its alias.
func (qb *QueryBuilder) Aggregate(expr AggregateExpression) *QueryBuilder {
	qb.query.Aggregations = append(qb.query.Aggregations, expr.Aggregation)
	return qb
}

// GroupBy adds grouping fields.
func (qb *QueryBuilder) GroupBy(fields ...string) *QueryBuilder {
	qb.query.GroupBy = append(qb.query.GroupBy, fields...)
	return qb
}

// OrderByAsc adds an ascending sort on field.
func (qb *QueryBuilder) OrderByAsc(field string) *QueryBuilder {
	qb.query.Sort = append(qb.query.Sort, SortConfiguration{Field: field, Direction: SortDirectionAsc})
	return qb
}

// OrderByDesc adds a descending sort on field.
func (qb *QueryBuilder) OrderByDesc(field string) *QueryBuilder {
	qb.query.Sort = append(qb.query.Sort, SortConfiguration{Field: field, Direction: SortDirectionDesc})
	return qb
}

// FilterConditionBuilder is used to build a single condition (e.g., field = value).
type FilterConditionBuilder struct {
	parent *QueryBuilder
	target Expression
	having bool
}

// Eq adds an equality condition to the query.
func (fcb *FilterConditionBuilder) Eq(value FilterValue) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorEq, value)
}

// Neq adds a not-equal condition to the query.
func (fcb *FilterConditionBuilder) Neq(value FilterValue) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorNeq, value)
}

// Lt adds a less-than condition to the query.
func (fcb *FilterConditionBuilder) Lt(value FilterValue) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorLt, value)
}

// Lte adds a less-than-or-equal condition to the query.
func (fcb *FilterConditionBuilder) Lte(value FilterValue) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorLte, value)
}

// Gt adds a greater-than condition to the query.
func (fcb *FilterConditionBuilder) Gt(value FilterValue) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorGt, value)
}

// Gte adds a greater-than-or-equal condition to the query.
func (fcb *FilterConditionBuilder) Gte(value FilterValue) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorGte, value)
}

// In adds an "in" condition, checking if a value is within a set of values.
func (fcb *FilterConditionBuilder) In(values ...FilterValue) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorIn, values)
}

// Nin adds a "not in" condition, checking if a value is not within a set of values.
func (fcb *FilterConditionBuilder) Nin(values ...FilterValue) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorNin, values)
}

// Like adds a LIKE condition; the pattern is used as given.
func (fcb *FilterConditionBuilder) Like(pattern string) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorLike, pattern)
}

// ILike adds a case-insensitive LIKE condition.
func (fcb *FilterConditionBuilder) ILike(pattern string) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorILike, pattern)
}

// IsNull adds an IS NULL condition.
func (fcb *FilterConditionBuilder) IsNull() *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorIsNull, nil)
}

// NotNull adds an IS NOT NULL condition.
func (fcb *FilterConditionBuilder) NotNull() *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorNotNull, nil)
}

// IsTrue uses the target itself as the condition.
func (fcb *FilterConditionBuilder) IsTrue() *QueryBuilder {
	return fcb.add(fcb.target.Predicate())
}

// Custom allows for the use of a custom comparison operator.
func (fcb *FilterConditionBuilder) Custom(operator ComparisonOperator, value FilterValue) *QueryBuilder {
	return fcb.addCondition(operator, value)
}

func (fcb *FilterConditionBuilder) addCondition(operator ComparisonOperator, value FilterValue) *QueryBuilder {
	return fcb.add(fcb.target.Compare(operator, value))
}

func (fcb *FilterConditionBuilder) add(filter QueryFilter) *QueryBuilder {
	qb := fcb.parent
	if fcb.having {
		qb.query = qb.query.WithHaving(filter)
	} else {
		qb.query = qb.query.WithFilter(filter)
	}
	return qb
}
