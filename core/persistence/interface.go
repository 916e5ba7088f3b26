package persistence

import (
	"context"

	"github.com/asaidimu/go-sieve/core/filter"
	"github.com/asaidimu/go-sieve/core/query"
)

// EventType defines the possible event types emitted by collections.
type EventType string

const (
	DocumentCreateStart     EventType = "document:create:start"
	DocumentCreateSuccess   EventType = "document:create:success"
	DocumentCreateFailed    EventType = "document:create:failed"
	FindStart               EventType = "find:start"
	FindSuccess             EventType = "find:success"
	FindFailed              EventType = "find:failed"
	FilterRejected          EventType = "filter:rejected"
	CollectionCreateSuccess EventType = "collection:create:success"
	CollectionCreateFailed  EventType = "collection:create:failed"
	SubscriptionRegister    EventType = "subscription:register"
	SubscriptionUnregister  EventType = "subscription:unregister"
)

// Event describes a single step of a collection operation.
type Event struct {
	Type       EventType        `json:"type"`
	Timestamp  int64            `json:"timestamp"` // Unix milliseconds
	Operation  string           `json:"operation"`
	Collection string           `json:"collection"`
	RequestID  string           `json:"requestId,omitempty"`
	Entries    []filter.Entry   `json:"entries,omitempty"`
	Query      *query.QueryDSL  `json:"query,omitempty"`
	Input      any              `json:"input,omitempty"`
	Output     any              `json:"output,omitempty"`
	Error      *string          `json:"error,omitempty"`
	Duration   *int64           `json:"duration,omitempty"` // milliseconds
	Context    map[string]any   `json:"context,omitempty"`
}

// EventCallbackFunction receives events a subscription was registered for.
type EventCallbackFunction func(ctx context.Context, event Event) error

// SubscriptionInfo describes a registered subscription.
type SubscriptionInfo struct {
	ID          string    `json:"id"`
	Event       EventType `json:"event"`
	Label       *string   `json:"label,omitempty"`
	Description *string   `json:"description,omitempty"`
	Unsubscribe func()    `json:"-"`
}

// RegisterSubscriptionOptions defines options for registering a subscription.
type RegisterSubscriptionOptions struct {
	Event       EventType
	Label       *string
	Description *string
	Callback    EventCallbackFunction
}

// FindOptions tunes how a collection compiles a request's entries.
type FindOptions struct {
	// Base is the statement the filters are folded into; nil means an empty one.
	Base *query.QueryDSL
	// Exclude names fields whose entries are not compiled.
	Exclude []string
	// SkipValidation compiles entries without validating them first.
	SkipValidation bool
}
