package stream

import "context"

// RelationshipSource answers relationship queries for the router. Implementations
// must be safe for concurrent use. An error excludes the affected subscriber from
// the delivery: the core never delivers when it cannot decide.
type RelationshipSource interface {
	// Relationship describes how ownerID relates to targetID.
	Relationship(ctx context.Context, ownerID, targetID string) (Relationship, error)
	// Followers returns the local accounts following accountID.
	Followers(ctx context.Context, accountID string) ([]string, error)
	// ListsContaining returns the ids of the lists that include accountID.
	ListsContaining(ctx context.Context, accountID string) ([]string, error)
	// ListOwner returns the account owning listID.
	ListOwner(ctx context.Context, listID string) (string, error)
}

// Invalidator is implemented by caching relationship sources. The router calls it
// for RelationshipChanged events.
type Invalidator interface {
	Invalidate(accountID, targetID string)
}

// Transport writes frames to one client. WriteFrame is only ever called from the
// connection's writer goroutine.
type Transport interface {
	WriteFrame(ctx context.Context, f Frame) error
	// Close releases the underlying connection. cause is the teardown reason.
	Close(cause error) error
}

// Pinger is implemented by transports that have a native keep-alive.
type Pinger interface {
	Ping(ctx context.Context) error
}
