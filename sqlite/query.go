package sqlite

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/asaidimu/go-sieve/core/query"
	"github.com/asaidimu/go-sieve/core/schema"
)

// SqliteQueryGeneratorFactory implements the QueryGeneratorFactory for SQLite.
type SqliteQueryGeneratorFactory struct{}

// NewSqliteQueryGeneratorFactory creates a new instance of SqliteQueryGeneratorFactory.
func NewSqliteQueryGeneratorFactory() *SqliteQueryGeneratorFactory {
	return &SqliteQueryGeneratorFactory{}
}

// CreateGenerator creates a new SqliteQuery (which is a QueryGenerator) for the given schema.
func (f *SqliteQueryGeneratorFactory) CreateGenerator(schema *schema.SchemaDefinition) (query.QueryGenerator, error) {
	return NewSqliteQuery(schema)
}

// SqliteQuery is a schema-aware query generator for SQLite. Field references
// in a statement are checked against the schema, and values are converted to
// the storage representation of their column before being bound.
type SqliteQuery struct {
	schema *schema.SchemaDefinition
}

// NewSqliteQuery creates a new schema-aware query generator for SQLite.
func NewSqliteQuery(schema *schema.SchemaDefinition) (*SqliteQuery, error) {
	if schema == nil {
		return nil, fmt.Errorf("SchemaDefinition cannot be nil")
	}
	if schema.Name == "" {
		return nil, fmt.Errorf("schema must define a table name")
	}
	return &SqliteQuery{schema: schema}, nil
}

// quoteIdentifier properly quotes an identifier for SQLite.
func quoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// getFieldSQL translates a column name into its quoted accessor.
func (s *SqliteQuery) getFieldSQL(field string) (string, error) {
	if field == "" {
		return "", fmt.Errorf("field path cannot be empty")
	}
	if _, ok := s.schema.Fields[field]; !ok {
		return "", fmt.Errorf("field '%s' not found in schema", field)
	}
	return quoteIdentifier(field), nil
}

// getAggregateSQL renders an aggregate call such as COUNT("id").
func (s *SqliteQuery) getAggregateSQL(agg query.AggregationConfiguration) (string, error) {
	fn := strings.ToUpper(string(agg.Type))
	switch agg.Type {
	case query.AggregationTypeCount, query.AggregationTypeSum, query.AggregationTypeAvg,
		query.AggregationTypeMin, query.AggregationTypeMax:
	default:
		return "", fmt.Errorf("unsupported aggregation type: %s", agg.Type)
	}
	if agg.Field == "*" {
		if agg.Type != query.AggregationTypeCount {
			return "", fmt.Errorf("%s(*) is not supported", fn)
		}
		return "COUNT(*)", nil
	}
	accessor, err := s.getFieldSQL(agg.Field)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s(%s)", fn, accessor), nil
}

// prepareValueForQuery prepares a Go value for use as a SQL query parameter,
// performing type conversions based on the schema's FieldType. Values compared
// against aggregates have no column and are converted by their Go type only.
func (s *SqliteQuery) prepareValueForQuery(fieldName string, value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	fieldType := schema.FieldTypeAny
	if field, exists := s.schema.Fields[fieldName]; exists {
		fieldType = field.Type
	}

	switch v := value.(type) {
	case bool:
		if v {
			return 1, nil // Go true -> SQLite 1
		}
		return 0, nil // Go false -> SQLite 0
	case time.Time:
		return formatTemporal(v, fieldType), nil
	}

	switch fieldType {
	case schema.FieldTypeBoolean:
		// Handle string "true" or "false" coercion
		if strVal, ok := value.(string); ok {
			switch strings.ToLower(strVal) {
			case "true":
				return 1, nil
			case "false":
				return 0, nil
			}
		}
		switch v := value.(type) {
		case int, int64:
			return v, nil
		case float64: // JSON numbers like 0.0, 1.0
			if v == 1.0 {
				return 1, nil
			}
			if v == 0.0 {
				return 0, nil
			}
		}
		return nil, fmt.Errorf("expected boolean for FieldTypeBoolean, got %T for field '%s'", value, fieldName)
	default:
		// Strings and numbers are handled by the driver directly.
		return value, nil
	}
}

// formatTemporal renders a time in the text layout of its column type.
func formatTemporal(t time.Time, fieldType schema.FieldType) string {
	switch fieldType {
	case schema.FieldTypeDate:
		return t.Format(schema.LayoutDate)
	case schema.FieldTypeTime:
		return t.Format(schema.LayoutTime)
	default:
		return t.Format(schema.LayoutDateTime)
	}
}

// GenerateSelectSQL creates a complete SQL SELECT query string and its corresponding
// parameters from a `query.QueryDSL` object.
func (s *SqliteQuery) GenerateSelectSQL(dsl *query.QueryDSL) (string, []any, error) {
	if dsl == nil {
		return "", nil, fmt.Errorf("QueryDSL cannot be nil")
	}
	quotedTableName := quoteIdentifier(s.schema.Name)

	var selectFields, groupByClauses, orderByClauses []string
	var queryParams []any

	aggregates := make(map[string]query.AggregationConfiguration, len(dsl.Aggregations))
	for _, agg := range dsl.Aggregations {
		aggregates[agg.Alias] = agg
	}

	if dsl.Projection != nil && len(dsl.Projection.Include) > 0 {
		for _, field := range dsl.Projection.Include {
			accessor, err := s.getFieldSQL(field.Name)
			if err != nil {
				return "", nil, fmt.Errorf("projection error: %w", err)
			}
			selectFields = append(selectFields, accessor)
		}
	} else if len(dsl.Aggregations) > 0 {
		for _, field := range dsl.GroupBy {
			accessor, err := s.getFieldSQL(field)
			if err != nil {
				return "", nil, fmt.Errorf("projection error: %w", err)
			}
			selectFields = append(selectFields, accessor)
		}
	}
	for _, agg := range dsl.Aggregations {
		aggSQL, err := s.getAggregateSQL(agg)
		if err != nil {
			return "", nil, fmt.Errorf("aggregation error: %w", err)
		}
		selectFields = append(selectFields, fmt.Sprintf("%s AS %s", aggSQL, quoteIdentifier(agg.Alias)))
	}
	if len(selectFields) == 0 {
		selectFields = append(selectFields, "*")
	}

	var whereSQL string
	if dsl.Filters != nil {
		var err error
		whereSQL, err = s.buildWhereClause(dsl.Filters, s.columnAccessor, &queryParams)
		if err != nil {
			return "", nil, fmt.Errorf("error building WHERE clause: %w", err)
		}
	}

	for _, field := range dsl.GroupBy {
		accessor, err := s.getFieldSQL(field)
		if err != nil {
			return "", nil, fmt.Errorf("group by error: %w", err)
		}
		groupByClauses = append(groupByClauses, accessor)
	}

	var havingSQL string
	if dsl.Having != nil {
		if len(dsl.GroupBy) == 0 && len(dsl.Aggregations) == 0 && !hasAggregate(dsl.Having) {
			return "", nil, fmt.Errorf("HAVING requires GROUP BY or an aggregate")
		}
		var err error
		havingSQL, err = s.buildWhereClause(dsl.Having, s.groupAccessor(aggregates), &queryParams)
		if err != nil {
			return "", nil, fmt.Errorf("error building HAVING clause: %w", err)
		}
	}

	for _, sortCfg := range dsl.Sort {
		accessor := quoteIdentifier(sortCfg.Field)
		if _, isAlias := aggregates[sortCfg.Field]; !isAlias {
			var err error
			if accessor, err = s.getFieldSQL(sortCfg.Field); err != nil {
				return "", nil, fmt.Errorf("sort error: %w", err)
			}
		}
		orderByClauses = append(orderByClauses, fmt.Sprintf("%s %s", accessor, strings.ToUpper(string(sortCfg.Direction))))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("SELECT %s FROM %s", strings.Join(selectFields, ", "), quotedTableName))
	if whereSQL != "" {
		sb.WriteString(" WHERE " + whereSQL)
	}
	if len(groupByClauses) > 0 {
		sb.WriteString(" GROUP BY " + strings.Join(groupByClauses, ", "))
	}
	if havingSQL != "" {
		sb.WriteString(" HAVING " + havingSQL)
	}
	if len(orderByClauses) > 0 {
		sb.WriteString(" ORDER BY " + strings.Join(orderByClauses, ", "))
	}

	return sb.String() + ";", queryParams, nil
}

func hasAggregate(filter *query.QueryFilter) bool {
	if filter.Condition != nil {
		return filter.Condition.Aggregate != nil
	}
	if filter.Group != nil {
		for _, cond := range filter.Group.Conditions {
			if hasAggregate(&cond) {
				return true
			}
		}
	}
	return false
}

// accessorFunc resolves the SQL a condition compares against.
type accessorFunc func(cond *query.FilterCondition) (string, error)

func (s *SqliteQuery) columnAccessor(cond *query.FilterCondition) (string, error) {
	if cond.Aggregate != nil {
		return "", fmt.Errorf("aggregate '%s' cannot be used before grouping", cond.Field)
	}
	return s.getFieldSQL(cond.Field)
}

// groupAccessor resolves aggregate conditions, declared aggregate aliases and
// plain columns for use after grouping.
func (s *SqliteQuery) groupAccessor(aggregates map[string]query.AggregationConfiguration) accessorFunc {
	return func(cond *query.FilterCondition) (string, error) {
		if cond.Aggregate != nil {
			return s.getAggregateSQL(*cond.Aggregate)
		}
		if agg, ok := aggregates[cond.Field]; ok {
			return s.getAggregateSQL(agg)
		}
		return s.getFieldSQL(cond.Field)
	}
}

// buildWhereClause recursively builds a predicate from a `query.QueryFilter` object.
func (s *SqliteQuery) buildWhereClause(filter *query.QueryFilter, accessor accessorFunc, params *[]any) (string, error) {
	if filter.Condition != nil {
		return s.buildCondition(filter.Condition, accessor, params)
	}
	if filter.Group != nil {
		if filter.Group.Operator == "" {
			return "", fmt.Errorf("logical operator missing in filter group")
		}
		var clauses []string
		for _, cond := range filter.Group.Conditions {
			clause, err := s.buildWhereClause(&cond, accessor, params)
			if err != nil {
				return "", err
			}
			if clause != "" {
				clauses = append(clauses, clause)
			}
		}
		if len(clauses) == 0 {
			return "", nil
		}
		op := strings.ToUpper(string(filter.Group.Operator))
		return fmt.Sprintf("(%s)", strings.Join(clauses, " "+op+" ")), nil
	}
	return "", fmt.Errorf("invalid filter structure: neither Condition nor Group is set")
}

// buildCondition translates a single `query.FilterCondition` into a SQL condition string.
func (s *SqliteQuery) buildCondition(cond *query.FilterCondition, accessorOf accessorFunc, params *[]any) (string, error) {
	accessor, err := accessorOf(cond)
	if err != nil {
		return "", err
	}

	binary := func(op string) (string, error) {
		preparedValue, err := s.prepareValueForQuery(cond.Field, cond.Value)
		if err != nil {
			return "", fmt.Errorf("failed to prepare value for condition field '%s': %w", cond.Field, err)
		}
		*params = append(*params, preparedValue)
		return fmt.Sprintf("%s %s ?", accessor, op), nil
	}

	switch cond.Operator {
	case query.ComparisonOperatorEq:
		return binary("=")
	case query.ComparisonOperatorNeq:
		return binary("!=")
	case query.ComparisonOperatorLt:
		return binary("<")
	case query.ComparisonOperatorLte:
		return binary("<=")
	case query.ComparisonOperatorGt:
		return binary(">")
	case query.ComparisonOperatorGte:
		return binary(">=")
	case query.ComparisonOperatorLike:
		return binary("LIKE")
	case query.ComparisonOperatorIsNot:
		return binary("IS NOT")
	case query.ComparisonOperatorILike:
		*params = append(*params, fmt.Sprintf("%v", cond.Value))
		return fmt.Sprintf("LOWER(%s) LIKE LOWER(?)", accessor), nil
	case query.ComparisonOperatorIsNull:
		return fmt.Sprintf("%s IS NULL", accessor), nil
	case query.ComparisonOperatorNotNull:
		return fmt.Sprintf("%s IS NOT NULL", accessor), nil
	case query.ComparisonOperatorIsTrue:
		return accessor, nil
	case query.ComparisonOperatorIn, query.ComparisonOperatorNin:
		vals, err := s.prepareList(cond)
		if err != nil {
			return "", err
		}
		if len(vals) == 0 {
			// IN an empty list never matches, NOT IN an empty list always does.
			if cond.Operator == query.ComparisonOperatorIn {
				return "1=0", nil
			}
			return "1=1", nil
		}

		placeholders := strings.Repeat("?,", len(vals)-1) + "?"
		*params = append(*params, vals...)
		op := "IN"
		if cond.Operator == query.ComparisonOperatorNin {
			op = "NOT IN"
		}
		return fmt.Sprintf("%s %s (%s)", accessor, op, placeholders), nil
	default:
		return "", fmt.Errorf("unsupported comparison operator for direct SQL: %s", cond.Operator)
	}
}

// prepareList flattens a list value of any slice type into prepared parameters.
// A scalar is treated as a list of one.
func (s *SqliteQuery) prepareList(cond *query.FilterCondition) ([]any, error) {
	if cond.Value == nil {
		return nil, nil
	}
	var items []any
	rv := reflect.ValueOf(cond.Value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		for i := 0; i < rv.Len(); i++ {
			items = append(items, rv.Index(i).Interface())
		}
	} else {
		items = []any{cond.Value}
	}

	vals := make([]any, 0, len(items))
	for _, item := range items {
		prepared, err := s.prepareValueForQuery(cond.Field, item)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare value for condition field '%s': %w", cond.Field, err)
		}
		vals = append(vals, prepared)
	}
	return vals, nil
}

// GenerateInsertSQL creates a SQL INSERT query. It includes the `RETURNING *` clause
// for atomic retrieval of inserted data. NOTE: Requires SQLite version 3.35.0+.
func (s *SqliteQuery) GenerateInsertSQL(records []map[string]any) (string, []any, error) {
	if len(records) == 0 {
		return "", nil, fmt.Errorf("no records provided for insert")
	}
	quotedTableName := quoteIdentifier(s.schema.Name)

	fieldSet := make(map[string]bool)
	for _, record := range records {
		for fieldName := range record {
			if _, exists := s.schema.Fields[fieldName]; !exists {
				return "", nil, fmt.Errorf("field '%s' not found in schema", fieldName)
			}
			fieldSet[fieldName] = true
		}
	}

	var fields []string
	for fieldName := range fieldSet {
		fields = append(fields, fieldName)
	}
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("no valid fields found in records")
	}
	sort.Strings(fields)

	var quotedFields []string
	for _, field := range fields {
		quotedFields = append(quotedFields, quoteIdentifier(field))
	}
	columnsSQL := strings.Join(quotedFields, ", ")

	var valuesClauses []string
	var queryParams []any
	for _, record := range records {
		var rowPlaceholders []string
		for _, fieldName := range fields {
			preparedValue, err := s.prepareValueForQuery(fieldName, record[fieldName])
			if err != nil {
				return "", nil, fmt.Errorf("error preparing value for field '%s': %w", fieldName, err)
			}
			rowPlaceholders = append(rowPlaceholders, "?")
			queryParams = append(queryParams, preparedValue)
		}
		valuesClauses = append(valuesClauses, "("+strings.Join(rowPlaceholders, ", ")+")")
	}
	valuesSQL := strings.Join(valuesClauses, ", ")

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s RETURNING *;", quotedTableName, columnsSQL, valuesSQL)
	return sql, queryParams, nil
}
