package session

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("session not found")

// Store abstracts session persistence (SQLite, MongoDB, in-memory).
// Every mutating operation is a single durable write; reads always go to
// the store. Appends must be additive at the store layer so concurrent
// appenders never lose each other's entries, and the stored interaction
// log is never reordered or truncated.
type Store interface {
	// Create generates a new session owned by owner, seeded with one
	// interaction {initialQuery, ""}, and returns it.
	Create(ctx context.Context, owner, initialQuery string) (*Session, error)

	// Get is a point lookup. An absent session is not an error: callers
	// branch on the boolean.
	Get(ctx context.Context, id string) (*Session, bool, error)

	// AppendInteraction atomically appends one {query, response} entry and
	// refreshes the session timestamp. ErrNotFound if the session does
	// not exist.
	AppendInteraction(ctx context.Context, id, query, response string) error

	// SetInitialResponse fills in the response of the seeded first
	// interaction. Only valid immediately after Create, before any
	// further appends.
	SetInitialResponse(ctx context.Context, id, response string) error

	// ListByOwner returns all sessions created by owner. Order is
	// unspecified; callers must not assume chronological order.
	ListByOwner(ctx context.Context, owner string) ([]*Session, error)

	// MarkLocationExecuted sets the one-shot location-query flag.
	// Idempotent: marking twice is a no-op, not an error.
	MarkLocationExecuted(ctx context.Context, id string) error

	// SaveSummary caches the location-derived facts on the session.
	SaveSummary(ctx context.Context, id string, summary Summary) error

	// GetSummary returns the cached summary, or nil when the session has
	// never run a location query. ErrNotFound if the session is missing.
	GetSummary(ctx context.Context, id string) (*Summary, error)

	Close() error
}
