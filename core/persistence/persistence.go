// Package persistence runs filter definitions against a database. A
// Persistence owns a DatabaseInteractor and a registry of collections, each
// of which binds a table schema to a filter definition and reports every
// operation on a shared event bus.
package persistence

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/asaidimu/go-events"
	"github.com/asaidimu/go-sieve/core/filter"
	"github.com/asaidimu/go-sieve/core/query"
	"github.com/asaidimu/go-sieve/core/schema"
	"go.uber.org/zap"
)

// Persistence is a registry of collections sharing one interactor and one
// event bus.
type Persistence struct {
	interactor    DatabaseInteractor
	executor      *Executor
	logger        *zap.Logger
	bus           *events.TypedEventBus[Event]
	subscriptions *subscriptions

	mu          sync.RWMutex
	collections map[string]*Collection
}

// NewPersistence creates a new Persistence over interactor. A nil logger
// disables logging.
func NewPersistence(interactor DatabaseInteractor, logger *zap.Logger) (*Persistence, error) {
	if interactor == nil {
		return nil, fmt.Errorf("database interactor is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	bus, err := events.NewTypedEventBus[Event](events.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("could not initialize event bus: %w", err)
	}

	return &Persistence{
		interactor:    interactor,
		executor:      NewExecutor(interactor, logger),
		logger:        logger,
		bus:           bus,
		subscriptions: newSubscriptions(bus),
		collections:   make(map[string]*Collection),
	}, nil
}

// Register binds def to the table described by sc, creating the table when
// it does not exist yet. Registering a name twice replaces the earlier
// collection.
func (p *Persistence) Register(sc *schema.SchemaDefinition, def *filter.Definition) (*Collection, error) {
	if sc == nil {
		return nil, fmt.Errorf("schema definition is required")
	}
	start := time.Now()

	collection, err := p.register(sc, def)
	eventType := CollectionCreateSuccess
	if err != nil {
		eventType = CollectionCreateFailed
		p.logger.Error("Failed to register collection", zap.String("collection", sc.Name), zap.Error(err))
	}
	p.bus.Emit(string(eventType), createEvent(eventType, "register", sc.Name, "", sc, nil, err, start))
	return collection, err
}

func (p *Persistence) register(sc *schema.SchemaDefinition, def *filter.Definition) (*Collection, error) {
	collection, err := NewCollection(p.bus, sc, def, p.executor, p.logger)
	if err != nil {
		return nil, err
	}

	exists, err := p.interactor.CollectionExists(sc.Name)
	if err != nil {
		return nil, fmt.Errorf("error looking up collection '%s': %w", sc.Name, err)
	}
	if !exists {
		if err := p.interactor.CreateCollection(*sc); err != nil {
			return nil, fmt.Errorf("failed to create table for collection '%s': %w", sc.Name, err)
		}
		p.logger.Info("Created collection", zap.String("collection", sc.Name))
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.collections[sc.Name] = collection
	return collection, nil
}

// Collection returns a registered collection by name.
func (p *Persistence) Collection(name string) (*Collection, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	collection, ok := p.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection '%s' is not registered", name)
	}
	return collection, nil
}

// Collections returns the names of all registered collections, sorted.
func (p *Persistence) Collections() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.collections))
	for name := range p.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Drop removes a collection from the registry and drops its table.
func (p *Persistence) Drop(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.collections[name]; !ok {
		return fmt.Errorf("collection '%s' is not registered", name)
	}
	if err := p.interactor.DropCollection(name); err != nil {
		return fmt.Errorf("failed to drop collection '%s': %w", name, err)
	}
	delete(p.collections, name)
	return nil
}

// RegisterFilterFunction registers a Go function used by Match for a custom
// comparison operator.
func (p *Persistence) RegisterFilterFunction(operator query.ComparisonOperator, fn query.PredicateFunction) {
	p.executor.RegisterFilterFunction(operator, fn)
}

// RegisterSubscription subscribes to events of every collection and returns
// the subscription id.
func (p *Persistence) RegisterSubscription(options RegisterSubscriptionOptions) string {
	return p.subscriptions.register(options, nil)
}

// UnregisterSubscription removes a subscription by id.
func (p *Persistence) UnregisterSubscription(id string) {
	p.subscriptions.unregister(id)
}

// Subscriptions lists subscriptions registered on the persistence.
func (p *Persistence) Subscriptions() []SubscriptionInfo {
	return p.subscriptions.list()
}
