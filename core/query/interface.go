package query

import (
	"github.com/asaidimu/go-sieve/core/schema"
)

// QueryGeneratorFactory defines the interface for a factory that creates QueryGenerator instances.
// This allows for the creation of query generators that are specific to a given table schema.
type QueryGeneratorFactory interface {
	// CreateGenerator creates a new QueryGenerator for a specific schema.
	CreateGenerator(schema *schema.SchemaDefinition) (QueryGenerator, error)
}

// QueryGenerator translates a QueryDSL into a concrete SQL dialect.
type QueryGenerator interface {
	// GenerateSelectSQL creates a SQL SELECT query string and its corresponding parameters
	// from a QueryDSL object, including WHERE, GROUP BY, HAVING and ORDER BY clauses.
	GenerateSelectSQL(dsl *QueryDSL) (string, []any, error)

	// GenerateInsertSQL creates a SQL INSERT query string and its parameters from a slice
	// of records.
	GenerateInsertSQL(records []map[string]any) (string, []any, error)
}
