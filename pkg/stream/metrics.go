package stream

import (
	"context"
	"errors"
)

// DropReason labels why a delivery did not reach a connection queue.
type DropReason string

const (
	DropQueueFull DropReason = "queue_full"
	DropClosed    DropReason = "closed"
)

// Metrics receives instrumentation callbacks from the hub. Implementations must be
// safe for concurrent use and must not block: they run on the publish path.
type Metrics interface {
	ConnectionOpened()
	ConnectionClosed(reason string)
	SubscriptionAdded(kind SelectorKind)
	SubscriptionRemoved(kind SelectorKind)
	EventPublished(kind EventKind)
	EventDelivered(kind EventKind)
	EventDropped(kind EventKind, reason DropReason)
	LookupFailed(op string)
	Inconsistency(what string)
}

// NopMetrics discards every callback.
type NopMetrics struct{}

func (NopMetrics) ConnectionOpened() {}
func (NopMetrics) ConnectionClosed(string) {}
func (NopMetrics) SubscriptionAdded(SelectorKind) {}
func (NopMetrics) SubscriptionRemoved(SelectorKind) {}
func (NopMetrics) EventPublished(EventKind) {}
func (NopMetrics) EventDelivered(EventKind) {}
func (NopMetrics) EventDropped(EventKind, DropReason) {}
func (NopMetrics) LookupFailed(string) {}
func (NopMetrics) Inconsistency(string) {}

// CloseReason maps a teardown cause to a short label for logs and metrics.
func CloseReason(cause error) string {
	var terr *TransportError
	switch {
	case cause == nil:
		return "unknown"
	case errors.Is(cause, ErrSlowConsumer):
		return "slow_consumer"
	case errors.Is(cause, ErrIdleTimeout):
		return "idle_timeout"
	case errors.Is(cause, ErrShutdown):
		return "shutdown"
	case errors.Is(cause, ErrClientClosed), errors.Is(cause, context.Canceled):
		return "client_closed"
	case errors.As(cause, &terr):
		return "write_failed"
	default:
		return "error"
	}
}

// Stats is a point-in-time snapshot of the hub.
type Stats struct {
	Connections   int               `json:"connections"`
	Subscriptions map[string]int    `json:"subscriptions"`
	Published     uint64            `json:"published"`
	Delivered     uint64            `json:"delivered"`
	Dropped       uint64            `json:"dropped"`
	Lagging       map[string]uint64 `json:"lagging,omitempty"` // connection id -> dropped deliveries
}
