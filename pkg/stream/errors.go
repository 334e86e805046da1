package stream

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownSelector is returned when a client names a stream that does not exist.
	ErrUnknownSelector = errors.New("stream: unknown stream selector")

	// ErrInvalidEvent is returned by the event constructors for incomplete events.
	ErrInvalidEvent = errors.New("stream: invalid event")

	// ErrInvalidCommand is returned for client commands that cannot be decoded.
	ErrInvalidCommand = errors.New("stream: invalid command")

	// ErrConnectionClosed is returned when operating on a torn-down connection.
	ErrConnectionClosed = errors.New("stream: connection is closed")

	// ErrDuplicateConnection is returned when a connection id is registered twice.
	ErrDuplicateConnection = errors.New("stream: connection already registered")

	// ErrRegistryClosed is returned by Register after the registry was closed.
	ErrRegistryClosed = errors.New("stream: registry is closed")

	// ErrHubClosed is returned by Connect after the hub was closed.
	ErrHubClosed = errors.New("stream: hub is closed")

	// ErrForbiddenStream is returned when a connection may not read the requested stream.
	ErrForbiddenStream = errors.New("stream: stream not accessible")

	// ErrTooManySubscriptions is returned when a connection exceeds its subscription cap.
	ErrTooManySubscriptions = errors.New("stream: too many subscriptions")

	// ErrSlowConsumer is the teardown cause for connections that keep dropping events.
	ErrSlowConsumer = errors.New("stream: consumer too slow")

	// ErrIdleTimeout is the teardown cause for connections without activity.
	ErrIdleTimeout = errors.New("stream: idle timeout")

	// ErrClientClosed is the teardown cause when the peer goes away.
	ErrClientClosed = errors.New("stream: client closed connection")

	// ErrShutdown is the teardown cause used when the hub shuts down.
	ErrShutdown = errors.New("stream: server shutting down")

	// ErrInvalidConfig is returned by New for unusable configuration values.
	ErrInvalidConfig = errors.New("stream: invalid configuration")
)

// SubscriptionError reports a rejected subscribe/unsubscribe request.
// It is sent back to the requesting client only; the connection stays open.
type SubscriptionError struct {
	Stream string
	Err    error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("stream: subscription %q rejected: %v", e.Stream, e.Err)
}

func (e *SubscriptionError) Unwrap() error {
	return e.Err
}

// TransportError wraps a failed write to a connection's transport.
// It is fatal for that connection only.
type TransportError struct {
	ConnectionID string
	Err          error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("stream: transport write failed for connection %s: %v", e.ConnectionID, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ErrInvalidTransition indicates a writer lifecycle transition that is not allowed.
type ErrInvalidTransition struct {
	From  WriterState
	Event string
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("stream: no transition from state '%s' for event '%s'", e.From, e.Event)
}

// IsInvalidTransition reports whether err is an *ErrInvalidTransition.
func IsInvalidTransition(err error) bool {
	var e *ErrInvalidTransition
	return errors.As(err, &e)
}
