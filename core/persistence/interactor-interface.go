package persistence

import (
	"context"

	"github.com/asaidimu/go-sieve/core/query"
	"github.com/asaidimu/go-sieve/core/schema"
)

// InteractorOptions provides configuration for the interactor.
type InteractorOptions struct {
	// IfNotExists adds IF NOT EXISTS clause to CREATE TABLE statements.
	IfNotExists bool

	// DropIfExists drops the table before creating it.
	DropIfExists bool

	// CreateIndexes determines whether to create indexes along with the table.
	CreateIndexes bool

	// TablePrefix adds a prefix to all table names.
	// The prefix is prepended to the base table name from the schema definition.
	TablePrefix string
}

// DatabaseInteractor defines the interface for interacting with the database.
// It can operate in either a non-transactional (default) or transactional mode.
// Commit and Rollback are only meaningful on an instance returned by
// StartTransaction.
type DatabaseInteractor interface {
	// SelectDocuments runs a compiled statement against the table described by schema.
	SelectDocuments(ctx context.Context, schema *schema.SchemaDefinition, dsl *query.QueryDSL) ([]schema.Document, error)
	// InsertDocuments inserts records and returns the stored rows.
	InsertDocuments(ctx context.Context, schema *schema.SchemaDefinition, records []map[string]any) ([]schema.Document, error)

	// CreateCollection generates and executes DDL statements to create a table from a schema definition.
	CreateCollection(schema schema.SchemaDefinition) error

	// CreateIndex generates and executes DDL statements to create an index.
	CreateIndex(name string, index schema.IndexDefinition) error

	// DropCollection drops a table if it exists.
	DropCollection(name string) error

	// CollectionExists checks if a table exists in the database.
	CollectionExists(name string) (bool, error)

	// StartTransaction returns a new DatabaseInteractor scoped to a database
	// transaction. The original interactor remains non-transactional.
	StartTransaction(ctx context.Context) (DatabaseInteractor, error)

	// Commit commits the transaction.
	Commit(ctx context.Context) error

	// Rollback rolls back the transaction.
	Rollback(ctx context.Context) error
}
