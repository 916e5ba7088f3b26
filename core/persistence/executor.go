package persistence

import (
	"context"
	"fmt"

	"github.com/asaidimu/go-sieve/core/query"
	"github.com/asaidimu/go-sieve/core/schema"
	"go.uber.org/zap"
)

// Executor runs compiled statements through a DatabaseInteractor and
// evaluates them in memory through a DataProcessor.
type Executor struct {
	interactor    DatabaseInteractor
	dataProcessor *query.DataProcessor
	logger        *zap.Logger
}

// NewExecutor creates an executor over interactor. A nil logger disables logging.
func NewExecutor(interactor DatabaseInteractor, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		interactor:    interactor,
		dataProcessor: query.NewDataProcessor(logger),
		logger:        logger,
	}
}

// RegisterFilterFunction registers a Go function for custom filtering.
func (e *Executor) RegisterFilterFunction(operator query.ComparisonOperator, fn query.PredicateFunction) {
	e.dataProcessor.RegisterFilterFunction(operator, fn)
}

// Query runs a statement against the database.
func (e *Executor) Query(ctx context.Context, sc *schema.SchemaDefinition, dsl *query.QueryDSL) (*query.QueryResult, error) {
	rows, err := e.interactor.SelectDocuments(ctx, sc, dsl)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("Fetched rows from DB", zap.String("collection", sc.Name), zap.Int("count", len(rows)))
	return &query.QueryResult{Data: rows, Count: len(rows)}, nil
}

// Match evaluates the pre-aggregation filters of a statement against a single document.
func (e *Executor) Match(ctx context.Context, dsl *query.QueryDSL, doc schema.Document) (bool, error) {
	if dsl == nil {
		return true, nil
	}
	if dsl.Having != nil {
		return false, fmt.Errorf("post-aggregation filters cannot be matched against a single document")
	}
	return e.dataProcessor.Match(ctx, dsl.Filters, doc)
}

// Insert performs an insert operation inside a transaction and returns the
// inserted records.
func (e *Executor) Insert(ctx context.Context, sc *schema.SchemaDefinition, records []map[string]any) (*query.QueryResult, error) {
	var inserted []schema.Document
	err := Transact(ctx, e.interactor, func(tx DatabaseInteractor) error {
		rows, err := tx.InsertDocuments(ctx, sc, records)
		inserted = rows
		return err
	})
	if err != nil {
		return nil, err
	}
	return &query.QueryResult{Data: inserted, Count: len(inserted)}, nil
}
