package query

import "fmt"

// Expression is the target a filter field compiles against. It produces
// predicates by applying a named comparator, and can stand in as a predicate
// by itself for boolean expressions.
type Expression interface {
	// Compare applies op with value to the expression.
	Compare(op ComparisonOperator, value FilterValue) QueryFilter
	// Predicate returns the expression used verbatim as a boolean predicate.
	Predicate() QueryFilter
	String() string
}

// FieldExpression targets a plain field (column) by path.
type FieldExpression struct {
	Path string
}

// Field returns an expression targeting the field at path.
func Field(path string) FieldExpression {
	return FieldExpression{Path: path}
}

func (f FieldExpression) Compare(op ComparisonOperator, value FilterValue) QueryFilter {
	return QueryFilter{Condition: &FilterCondition{Field: f.Path, Operator: op, Value: value}}
}

func (f FieldExpression) Predicate() QueryFilter {
	return f.Compare(ComparisonOperatorIsTrue, nil)
}

func (f FieldExpression) String() string {
	return f.Path
}

// AggregateExpression targets an aggregate over a field, for use in
// post-aggregation clauses.
type AggregateExpression struct {
	Aggregation AggregationConfiguration
}

// Aggregate returns an expression for the aggregate aggType over field. The
// alias defaults to "<type>_<field>" and names the aggregate column when the
// statement projects it.
func Aggregate(aggType AggregationType, field string) AggregateExpression {
	alias := fmt.Sprintf("%s_%s", aggType, field)
	if field == "*" {
		alias = string(aggType)
	}
	return AggregateExpression{Aggregation: AggregationConfiguration{
		Type:  aggType,
		Field: field,
		Alias: alias,
	}}
}

// Count is shorthand for Aggregate(AggregationTypeCount, field).
func Count(field string) AggregateExpression {
	return Aggregate(AggregationTypeCount, field)
}

// As returns a copy of the expression with a different alias.
func (a AggregateExpression) As(alias string) AggregateExpression {
	a.Aggregation.Alias = alias
	return a
}

func (a AggregateExpression) Compare(op ComparisonOperator, value FilterValue) QueryFilter {
	agg := a.Aggregation
	return QueryFilter{Condition: &FilterCondition{
		Field:     agg.Alias,
		Aggregate: &agg,
		Operator:  op,
		Value:     value,
	}}
}

func (a AggregateExpression) Predicate() QueryFilter {
	return a.Compare(ComparisonOperatorIsTrue, nil)
}

func (a AggregateExpression) String() string {
	return fmt.Sprintf("%s(%s)", a.Aggregation.Type, a.Aggregation.Field)
}
