package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/asaidimu/go-events"
	"github.com/asaidimu/go-sieve/core/filter"
	"github.com/asaidimu/go-sieve/core/query"
	"github.com/asaidimu/go-sieve/core/schema"
	"go.uber.org/zap"
)

// Collection binds a filter definition to a table. It compiles request
// entries against the definition and runs the result through an Executor,
// emitting events for every operation.
type Collection struct {
	schema        *schema.SchemaDefinition
	definition    *filter.Definition
	executor      *Executor
	bus           *events.TypedEventBus[Event]
	subscriptions *subscriptions
	logger        *zap.Logger
}

// NewCollection creates a collection. Every field of def must target a
// column of sc.
func NewCollection(
	bus *events.TypedEventBus[Event],
	sc *schema.SchemaDefinition,
	def *filter.Definition,
	executor *Executor,
	logger *zap.Logger,
) (*Collection, error) {
	if sc == nil || def == nil || executor == nil {
		return nil, fmt.Errorf("schema, filter definition and executor are required")
	}
	if bus == nil {
		var err error
		if bus, err = events.NewTypedEventBus[Event](events.DefaultConfig()); err != nil {
			return nil, fmt.Errorf("could not initialize event bus: %w", err)
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := checkTargets(sc, def); err != nil {
		return nil, err
	}

	return &Collection{
		schema:        sc,
		definition:    def,
		executor:      executor,
		bus:           bus,
		subscriptions: newSubscriptions(bus),
		logger:        logger.With(zap.String("collection", sc.Name)),
	}, nil
}

func checkTargets(sc *schema.SchemaDefinition, def *filter.Definition) error {
	for _, field := range def.Fields() {
		var column string
		switch target := field.Target.(type) {
		case query.FieldExpression:
			column = target.Path
		case query.AggregateExpression:
			column = target.Aggregation.Field
		default:
			continue
		}
		if column != "*" && sc.FindField(column) == nil {
			return fmt.Errorf("filter field '%s' targets unknown column '%s' of '%s'", field.Name, column, sc.Name)
		}
	}
	return nil
}

// Name returns the table name of the collection.
func (c *Collection) Name() string {
	return c.schema.Name
}

// Schema returns the table schema of the collection.
func (c *Collection) Schema() *schema.SchemaDefinition {
	return c.schema
}

// Definition returns the filter definition of the collection.
func (c *Collection) Definition() *filter.Definition {
	return c.definition
}

// Compile validates entries and folds them into a statement.
func (c *Collection) Compile(entries []filter.Entry, opts *FindOptions) (*query.QueryDSL, error) {
	if opts == nil {
		opts = &FindOptions{}
	}
	facade, err := filter.NewFacade(c.definition, entries, &filter.FacadeOptions{
		Validate: !opts.SkipValidation,
		Logger:   c.logger,
	})
	if err != nil {
		c.logger.Warn("Rejected filter entries", zap.Error(err))
		return nil, err
	}
	return facade.Apply(opts.Base, opts.Exclude...)
}

// Find compiles entries and returns the matching rows.
func (c *Collection) Find(ctx context.Context, entries []filter.Entry, opts *FindOptions) (*query.QueryResult, error) {
	return withEventEmission(c, findOperation, opts, entries, func() (*query.QueryResult, *query.QueryDSL, error) {
		dsl, err := c.Compile(entries, opts)
		if err != nil {
			return nil, nil, err
		}
		result, err := c.executor.Query(ctx, c.schema, dsl)
		if err != nil {
			return nil, dsl, fmt.Errorf("failed to read data from collection '%s': %w", c.Name(), err)
		}
		return result, dsl, nil
	})
}

// Match reports whether doc satisfies entries, without touching the database.
// Post-aggregation fields cannot be matched against a single document.
func (c *Collection) Match(ctx context.Context, entries []filter.Entry, doc schema.Document) (bool, error) {
	dsl, err := c.Compile(entries, nil)
	if err != nil {
		return false, err
	}
	return c.executor.Match(ctx, dsl, doc)
}

// Create inserts records and returns them as stored.
func (c *Collection) Create(ctx context.Context, records []map[string]any) (*query.QueryResult, error) {
	return withEventEmission(c, createOperation, records, nil, func() (*query.QueryResult, *query.QueryDSL, error) {
		result, err := c.executor.Insert(ctx, c.schema, records)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to insert data into collection '%s': %w", c.Name(), err)
		}
		return result, nil, nil
	})
}

// RegisterSubscription subscribes to events of this collection and returns
// the subscription id.
func (c *Collection) RegisterSubscription(options RegisterSubscriptionOptions) string {
	id := c.subscriptions.register(options, func(e Event) bool { return e.Collection == c.Name() })
	event := createEvent(SubscriptionRegister, "register_subscription", c.Name(), "", options.Event, id, nil, time.Time{})
	c.emitEvent(event)
	return id
}

// UnregisterSubscription removes a subscription by id.
func (c *Collection) UnregisterSubscription(id string) {
	if c.subscriptions.unregister(id) {
		c.emitEvent(createEvent(SubscriptionUnregister, "unregister_subscription", c.Name(), "", id, nil, nil, time.Time{}))
	}
}

// Subscriptions lists the subscriptions registered on this collection.
func (c *Collection) Subscriptions() []SubscriptionInfo {
	return c.subscriptions.list()
}
