package query

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/asaidimu/go-sieve/core/schema"
	"go.uber.org/zap"
)

// PredicateFunction is a pure Go function that performs custom filtering logic on a row.
// It takes a Document and returns true if the row passes the filter, false otherwise,
// and an error if evaluation fails.
type PredicateFunction func(doc schema.Document, field string, args FilterValue) (bool, error)

// DataProcessor evaluates compiled statements against in-memory documents.
// Post-aggregation conditions are evaluated against the aggregate's alias
// column, so rows passed to it are expected to be already grouped.
type DataProcessor struct {
	goFilterFunctions map[ComparisonOperator]PredicateFunction
	mu                sync.RWMutex
	logger            *zap.Logger
}

// NewDataProcessor creates a new DataProcessor instance.
func NewDataProcessor(logger *zap.Logger) *DataProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DataProcessor{
		goFilterFunctions: make(map[ComparisonOperator]PredicateFunction),
		logger:            logger,
	}
}

// RegisterFilterFunction registers a Go function for a custom operator.
func (p *DataProcessor) RegisterFilterFunction(operator ComparisonOperator, fn PredicateFunction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.goFilterFunctions[operator] = fn
	p.logger.Info("Registered filter function", zap.String("operator", string(operator)))
}

// RegisterFilterFunctions registers multiple PredicateFunction functions from a map.
func (p *DataProcessor) RegisterFilterFunctions(functionMap map[ComparisonOperator]PredicateFunction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for operator, fn := range functionMap {
		p.goFilterFunctions[operator] = fn
		p.logger.Info("Registered filter function", zap.String("operator", string(operator)))
	}
}

// ProcessRows returns the rows that satisfy both the pre- and post-aggregation
// filters of dsl.
func (p *DataProcessor) ProcessRows(rows []schema.Document, dsl *QueryDSL) ([]schema.Document, error) {
	if dsl == nil {
		return rows, nil
	}

	processedRows, err := p.applyFilter(rows, dsl.Filters)
	if err != nil {
		return nil, fmt.Errorf("where filter failed: %w", err)
	}
	p.logger.Debug("Rows remaining after where filters", zap.Int("count", len(processedRows)))

	processedRows, err = p.applyFilter(processedRows, dsl.Having)
	if err != nil {
		return nil, fmt.Errorf("having filter failed: %w", err)
	}
	p.logger.Debug("Rows remaining after having filters", zap.Int("count", len(processedRows)))

	return processedRows, nil
}

// Match evaluates a given document against a QueryFilter. It returns true if
// the document matches all filter conditions.
func (p *DataProcessor) Match(ctx context.Context, filters *QueryFilter, data schema.Document) (bool, error) {
	if filters == nil {
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.evaluate(data, filters)
}

func (p *DataProcessor) applyFilter(rows []schema.Document, filter *QueryFilter) ([]schema.Document, error) {
	if filter == nil {
		return rows, nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	filteredRows := make([]schema.Document, 0, len(rows))
	for _, row := range rows {
		passes, err := p.evaluate(row, filter)
		if err != nil {
			return nil, fmt.Errorf("error evaluating filter for row %+v: %w", row, err)
		}
		if passes {
			filteredRows = append(filteredRows, row)
		}
	}
	return filteredRows, nil
}

// evaluate recursively evaluates a QueryFilter against a row.
func (p *DataProcessor) evaluate(row schema.Document, filter *QueryFilter) (bool, error) {
	if filter.Condition != nil {
		if !filter.Condition.Operator.IsStandard() {
			fn, ok := p.goFilterFunctions[filter.Condition.Operator]
			if !ok {
				return false, fmt.Errorf("unregistered Go filter function for operator: %s", filter.Condition.Operator)
			}
			return fn(row, filter.Condition.Field, filter.Condition.Value)
		}
		return evaluateStandardCondition(row, filter.Condition)
	}
	if filter.Group != nil {
		switch filter.Group.Operator {
		case schema.LogicalAnd:
			for _, cond := range filter.Group.Conditions {
				passes, err := p.evaluate(row, &cond)
				if err != nil || !passes {
					return false, err
				}
			}
			return true, nil
		case schema.LogicalOr:
			for _, cond := range filter.Group.Conditions {
				passes, err := p.evaluate(row, &cond)
				if err != nil {
					return false, err
				}
				if passes {
					return true, nil
				}
			}
			return false, nil
		default:
			return false, fmt.Errorf("unsupported logical operator for Go evaluation: %s", filter.Group.Operator)
		}
	}
	return false, fmt.Errorf("empty or invalid filter structure for Go evaluation")
}

// evaluateStandardCondition performs the in-memory evaluation for standard comparison operators.
func evaluateStandardCondition(row schema.Document, condition *FilterCondition) (bool, error) {
	fieldValue, exists := row[condition.Field]

	switch condition.Operator {
	case ComparisonOperatorIsNull:
		return !exists || fieldValue == nil, nil
	case ComparisonOperatorNotNull:
		return exists && fieldValue != nil, nil
	case ComparisonOperatorIsTrue:
		return Truthy(fieldValue), nil
	case ComparisonOperatorIsNot:
		if fieldValue == nil || condition.Value == nil {
			return fieldValue != condition.Value, nil
		}
		return !valuesEqual(fieldValue, condition.Value), nil
	}

	if !exists || fieldValue == nil {
		return false, nil
	}

	switch condition.Operator {
	case ComparisonOperatorEq:
		return valuesEqual(fieldValue, condition.Value), nil
	case ComparisonOperatorNeq:
		return !valuesEqual(fieldValue, condition.Value), nil
	case ComparisonOperatorLt, ComparisonOperatorLte, ComparisonOperatorGt, ComparisonOperatorGte:
		order, err := compareValues(fieldValue, condition.Value)
		if err != nil {
			return false, fmt.Errorf("unsupported type for %s comparison: %w", condition.Operator, err)
		}
		switch condition.Operator {
		case ComparisonOperatorLt:
			return order < 0, nil
		case ComparisonOperatorLte:
			return order <= 0, nil
		case ComparisonOperatorGt:
			return order > 0, nil
		default:
			return order >= 0, nil
		}
	case ComparisonOperatorIn, ComparisonOperatorNin:
		found, err := containsValue(condition.Value, fieldValue)
		if err != nil {
			return false, err
		}
		if condition.Operator == ComparisonOperatorIn {
			return found, nil
		}
		return !found, nil
	case ComparisonOperatorLike, ComparisonOperatorILike:
		str, ok := fieldValue.(string)
		if !ok {
			return false, fmt.Errorf("unsupported type for %s comparison: %T", condition.Operator, fieldValue)
		}
		pattern := fmt.Sprintf("%v", condition.Value)
		if condition.Operator == ComparisonOperatorILike {
			str, pattern = strings.ToLower(str), strings.ToLower(pattern)
		}
		return likeMatch(str, pattern), nil
	default:
		return false, fmt.Errorf("unsupported standard comparison operator for Go evaluation: %s", condition.Operator)
	}
}

// valuesEqual compares numerics by value regardless of their Go type.
func valuesEqual(a, b any) bool {
	if fa, okA := numeric(a); okA {
		if fb, okB := numeric(b); okB {
			return fa == fb
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Equal(tb)
		}
	}
	return reflect.DeepEqual(a, b)
}

func compareValues(a, b any) (int, error) {
	if fa, okA := numeric(a); okA {
		if fb, okB := numeric(b); okB {
			return schema.Compare(fa, fb)
		}
	}
	return schema.Compare(a, b)
}

// numeric is ToFloat64 without the string parsing.
func numeric(v any) (float64, bool) {
	if _, isString := v.(string); isString {
		return 0, false
	}
	return ToFloat64(v)
}

func containsValue(list any, needle any) (bool, error) {
	rv := reflect.ValueOf(list)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false, fmt.Errorf("expected a list for membership test, got %T", list)
	}
	for i := 0; i < rv.Len(); i++ {
		if valuesEqual(rv.Index(i).Interface(), needle) {
			return true, nil
		}
	}
	return false, nil
}

// likeMatch implements SQL LIKE semantics: % matches any run of characters,
// _ matches exactly one.
func likeMatch(s, pattern string) bool {
	str, pat := []rune(s), []rune(pattern)
	si, pi := 0, 0
	star, mark := -1, 0
	for si < len(str) {
		switch {
		case pi < len(pat) && pat[pi] == '%':
			star, mark = pi, si
			pi++
		case pi < len(pat) && (pat[pi] == '_' || pat[pi] == str[si]):
			si++
			pi++
		case star != -1:
			pi = star + 1
			mark++
			si = mark
		default:
			return false
		}
	}
	for pi < len(pat) && pat[pi] == '%' {
		pi++
	}
	return pi == len(pat)
}
