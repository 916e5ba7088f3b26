package persistence_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/asaidimu/go-sieve/core/filter"
	"github.com/asaidimu/go-sieve/core/persistence"
	"github.com/asaidimu/go-sieve/core/query"
	"github.com/asaidimu/go-sieve/core/schema"
	"github.com/asaidimu/go-sieve/sqlite"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func ordersSchema() *schema.SchemaDefinition {
	return &schema.SchemaDefinition{
		Name: "orders",
		Fields: map[string]*schema.FieldDefinition{
			"id":       {Name: "id", Type: schema.FieldTypeInteger},
			"customer": {Name: "customer", Type: schema.FieldTypeString},
			"total":    {Name: "total", Type: schema.FieldTypeInteger},
			"status":   {Name: "status", Type: schema.FieldTypeString},
			"paid":     {Name: "paid", Type: schema.FieldTypeBoolean},
		},
		Indexes: []schema.IndexDefinition{
			{Name: "pk_orders", Fields: []string{"id"}, Type: schema.IndexTypePrimary},
		},
	}
}

func ordersDefinition(t *testing.T) *filter.Definition {
	t.Helper()
	return filter.Define("orders").
		Field("total", filter.KindInterval, schema.FieldTypeInteger, query.Field("total")).
		Field("customer", filter.KindCompare, schema.FieldTypeString, query.Field("customer")).
		Field("status", filter.KindInclude, schema.FieldTypeString, query.Field("status")).
		Field("paid", filter.KindOption, schema.FieldTypeBoolean, query.Field("paid")).
		Field("count", filter.KindCompare, schema.FieldTypeInteger, query.Count("id").As("count"), filter.WithClause(filter.ClauseHaving)).
		MustBuild()
}

// recorder collects events delivered to a subscription.
type recorder struct {
	mu     sync.Mutex
	events []persistence.Event
}

func (r *recorder) record(_ context.Context, e persistence.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []persistence.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []persistence.EventType
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func setup(t *testing.T) (*persistence.Persistence, *persistence.Collection) {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "sieve.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := zaptest.NewLogger(t)
	p, err := persistence.NewPersistence(sqlite.NewSQLiteInteractor(db, logger, nil, nil), logger)
	require.NoError(t, err)

	c, err := p.Register(ordersSchema(), ordersDefinition(t))
	require.NoError(t, err)

	_, err = c.Create(context.Background(), []map[string]any{
		{"id": 1, "customer": "alice", "total": 120, "status": "open", "paid": true},
		{"id": 2, "customer": "bob", "total": 40, "status": "open", "paid": false},
		{"id": 3, "customer": "carla", "total": 300, "status": "shipped", "paid": true},
		{"id": 4, "customer": "alice", "total": 75, "status": "cancelled", "paid": false},
		{"id": 5, "customer": "dan", "total": 210, "status": "open", "paid": true},
	})
	require.NoError(t, err)
	return p, c
}

func customers(result *query.QueryResult) []string {
	var out []string
	for _, doc := range result.Data {
		out = append(out, doc["customer"].(string))
	}
	return out
}

func TestPersistence_Register(t *testing.T) {
	p, c := setup(t)

	assert.Equal(t, []string{"orders"}, p.Collections())
	got, err := p.Collection("orders")
	require.NoError(t, err)
	assert.Same(t, c, got)

	_, err = p.Collection("missing")
	assert.Error(t, err)

	t.Run("definition targeting an unknown column", func(t *testing.T) {
		def := filter.Define("orders").
			Field("email", filter.KindCompare, schema.FieldTypeString, query.Field("email")).
			MustBuild()
		_, err := p.Register(ordersSchema(), def)
		assert.ErrorContains(t, err, "unknown column 'email'")
	})

	t.Run("re-registering keeps existing rows", func(t *testing.T) {
		again, err := p.Register(ordersSchema(), ordersDefinition(t))
		require.NoError(t, err)
		result, err := again.Find(context.Background(), nil, nil)
		require.NoError(t, err)
		assert.Equal(t, 5, result.Count)
	})

	t.Run("drop", func(t *testing.T) {
		require.NoError(t, p.Drop("orders"))
		assert.Empty(t, p.Collections())
		assert.Error(t, p.Drop("orders"))
	})
}

func TestCollection_Find(t *testing.T) {
	_, c := setup(t)
	ctx := context.Background()
	byCustomer := &query.QueryDSL{Sort: []query.SortConfiguration{
		{Field: "customer", Direction: query.SortDirectionAsc},
		{Field: "id", Direction: query.SortDirectionAsc},
	}}

	tests := []struct {
		name    string
		entries []filter.Entry
		want    []string
	}{
		{
			name: "no entries",
			want: []string{"alice", "alice", "bob", "carla", "dan"},
		},
		{
			name: "interval",
			entries: []filter.Entry{
				{Field: "total", Operator: filter.OperatorGe, Value: 75},
				{Field: "total", Operator: filter.OperatorLe, Value: 210},
			},
			want: []string{"alice", "alice", "dan"},
		},
		{
			name:    "include",
			entries: []filter.Entry{{Field: "status", Operator: filter.OperatorIn, Value: []any{"shipped", "cancelled"}}},
			want:    []string{"alice", "carla"},
		},
		{
			name:    "exclude list",
			entries: []filter.Entry{{Field: "status", Operator: filter.OperatorNotIn, Value: []string{"open"}}},
			want:    []string{"alice", "carla"},
		},
		{
			name:    "option on",
			entries: []filter.Entry{{Field: "paid", Operator: filter.OperatorOption, Value: true}},
			want:    []string{"alice", "carla", "dan"},
		},
		{
			name:    "option off adds nothing",
			entries: []filter.Entry{{Field: "paid", Operator: filter.OperatorOption, Value: false}},
			want:    []string{"alice", "alice", "bob", "carla", "dan"},
		},
		{
			name: "like and compare",
			entries: []filter.Entry{
				{Field: "customer", Operator: filter.OperatorLike, Value: "li"},
				{Field: "status", Operator: filter.OperatorIn, Value: []any{"open"}},
			},
			want: []string{"alice"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := c.Find(ctx, tt.entries, &persistence.FindOptions{Base: byCustomer})
			require.NoError(t, err)
			assert.Equal(t, tt.want, customers(result))
			assert.Equal(t, len(tt.want), result.Count)
		})
	}

	t.Run("exclude field", func(t *testing.T) {
		result, err := c.Find(ctx, []filter.Entry{
			{Field: "customer", Operator: filter.OperatorEq, Value: "bob"},
			{Field: "paid", Operator: filter.OperatorOption, Value: true},
		}, &persistence.FindOptions{Base: byCustomer, Exclude: []string{"customer"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"alice", "carla", "dan"}, customers(result))
	})

	t.Run("having", func(t *testing.T) {
		base := &query.QueryDSL{
			GroupBy:      []string{"status"},
			Aggregations: []query.AggregationConfiguration{query.Count("id").As("count").Aggregation},
		}
		result, err := c.Find(ctx, []filter.Entry{{Field: "count", Operator: filter.OperatorGe, Value: 2}}, &persistence.FindOptions{Base: base})
		require.NoError(t, err)
		require.Equal(t, 1, result.Count)
		assert.Equal(t, "open", result.Data[0]["status"])
		assert.EqualValues(t, 3, result.Data[0]["count"])
	})

	t.Run("rejected entries", func(t *testing.T) {
		_, err := c.Find(ctx, []filter.Entry{
			{Field: "total", Operator: filter.OperatorGt, Value: 300},
			{Field: "total", Operator: filter.OperatorLt, Value: 100},
		}, nil)
		assert.ErrorIs(t, err, filter.ErrOperatorMismatch)

		_, err = c.Find(ctx, []filter.Entry{{Field: "status", Operator: filter.OperatorEq, Value: "open"}}, nil)
		assert.ErrorIs(t, err, filter.ErrOperatorMismatch)
	})
}

func TestCollection_Match(t *testing.T) {
	_, c := setup(t)
	ctx := context.Background()
	doc := schema.Document{"id": 1, "customer": "alice", "total": 120, "status": "open", "paid": true}

	ok, err := c.Match(ctx, []filter.Entry{
		{Field: "total", Operator: filter.OperatorGt, Value: 100},
		{Field: "total", Operator: filter.OperatorLt, Value: 200},
		{Field: "paid", Operator: filter.OperatorOption, Value: true},
	}, doc)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Match(ctx, []filter.Entry{{Field: "status", Operator: filter.OperatorIn, Value: []any{"shipped"}}}, doc)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.Match(ctx, []filter.Entry{{Field: "count", Operator: filter.OperatorGt, Value: 1}}, doc)
	assert.Error(t, err)
}

func TestCollection_Create(t *testing.T) {
	_, c := setup(t)
	ctx := context.Background()

	_, err := c.Create(ctx, []map[string]any{
		{"id": 6, "customer": "erin", "total": 10, "status": "open", "paid": false},
		{"id": 1, "customer": "dup", "total": 10, "status": "open", "paid": false},
	})
	require.Error(t, err)

	result, err := c.Find(ctx, []filter.Entry{{Field: "customer", Operator: filter.OperatorEq, Value: "erin"}}, nil)
	require.NoError(t, err)
	assert.Zero(t, result.Count, "failed batch is rolled back")
}

func TestCollection_Events(t *testing.T) {
	p, c := setup(t)
	ctx := context.Background()

	found := &recorder{}
	rejected := &recorder{}
	all := &recorder{}
	findID := c.RegisterSubscription(persistence.RegisterSubscriptionOptions{Event: persistence.FindSuccess, Callback: found.record})
	c.RegisterSubscription(persistence.RegisterSubscriptionOptions{Event: persistence.FilterRejected, Callback: rejected.record})
	p.RegisterSubscription(persistence.RegisterSubscriptionOptions{Event: persistence.FindStart, Callback: all.record})
	assert.Len(t, c.Subscriptions(), 2)
	assert.Len(t, p.Subscriptions(), 1)

	entries := []filter.Entry{{Field: "customer", Operator: filter.OperatorEq, Value: "alice"}}
	_, err := c.Find(ctx, entries, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return found.len() == 1 }, time.Second, 10*time.Millisecond)
	found.mu.Lock()
	event := found.events[0]
	found.mu.Unlock()
	assert.Equal(t, "orders", event.Collection)
	assert.Equal(t, "find", event.Operation)
	assert.NotEmpty(t, event.RequestID)
	assert.Equal(t, entries, event.Entries)
	require.NotNil(t, event.Query)
	assert.Nil(t, event.Error)
	require.IsType(t, &query.QueryResult{}, event.Output)
	assert.Equal(t, 2, event.Output.(*query.QueryResult).Count)

	_, err = c.Find(ctx, []filter.Entry{{Field: "nope", Operator: filter.OperatorEq, Value: 1}}, nil)
	require.Error(t, err)
	require.Eventually(t, func() bool { return rejected.len() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []persistence.EventType{persistence.FilterRejected}, rejected.types())
	require.Eventually(t, func() bool { return all.len() == 2 }, time.Second, 10*time.Millisecond)

	c.UnregisterSubscription(findID)
	assert.Len(t, c.Subscriptions(), 1)
	_, err = c.Find(ctx, entries, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return all.len() == 3 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, found.len())
}
