package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/streamhub/pkg/logger"
)

// Hub is the fan-out core: it owns the registry, routes published events and runs
// one writer goroutine per connection.
type Hub struct {
	cfg      Config
	rels     RelationshipSource
	registry *Registry
	router   *Router
	metrics  Metrics
	logger   *slog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// Option configures a Hub.
type Option func(*Hub)

// WithConfig replaces the default configuration. Zero fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(h *Hub) {
		h.cfg = cfg.withDefaults()
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithMetrics sets the metrics sink. Defaults to NopMetrics.
func WithMetrics(m Metrics) Option {
	return func(h *Hub) {
		if m != nil {
			h.metrics = m
		}
	}
}

// New creates a hub answering relationship questions with rels.
func New(rels RelationshipSource, opts ...Option) (*Hub, error) {
	if rels == nil {
		return nil, fmt.Errorf("%w: relationship source is required", ErrInvalidConfig)
	}

	h := &Hub{
		cfg:     DefaultConfig(),
		rels:    rels,
		metrics: NopMetrics{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if err := h.cfg.validate(); err != nil {
		return nil, err
	}

	h.logger = h.logger.With(logger.Component("stream"))
	h.registry = NewRegistry(
		WithShards(h.cfg.RegistryShards),
		WithMaxSubscriptions(h.cfg.MaxSubscriptions),
		WithRegistryMetrics(h.metrics),
		WithRegistryLogger(h.logger),
	)
	h.router = NewRouter(h.registry, rels, h.metrics, h.logger)
	return h, nil
}

// Config returns the effective configuration.
func (h *Hub) Config() Config { return h.cfg }

// Registry exposes the connection registry.
func (h *Hub) Registry() *Registry { return h.registry }

// Connect registers a new connection for accountID writing to t, queues the
// "connected" frame and starts its writer. The connection is torn down when ctx
// is cancelled.
func (h *Hub) Connect(ctx context.Context, accountID string, t Transport, opts ...ConnectOption) (*Connection, error) {
	if accountID == "" {
		return nil, fmt.Errorf("%w: account id is required", ErrInvalidConfig)
	}
	if t == nil {
		return nil, fmt.Errorf("%w: transport is required", ErrInvalidConfig)
	}

	var o connectOptions
	for _, opt := range opts {
		opt(&o)
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	h.wg.Add(1)
	h.mu.Unlock()

	c := newConnection(ctx, h, accountID, o)
	if err := h.registry.Register(c); err != nil {
		c.cancel(err)
		h.wg.Done()
		if errors.Is(err, ErrRegistryClosed) {
			return nil, ErrHubClosed
		}
		return nil, err
	}

	c.TryEnqueue(controlDelivery(connectedFrame(c.id)))

	w := &writer{
		conn:      c,
		transport: t,
		registry:  h.registry,
		cfg:       h.cfg,
		logger:    h.logger,
	}
	go func() {
		defer h.wg.Done()
		w.run()
	}()

	h.logger.LogAttrs(ctx, slog.LevelInfo, "stream connection opened",
		logger.ConnectionID(c.id),
		logger.AccountID(accountID),
	)
	return c, nil
}

// Authorize reports whether accountID may subscribe to sel. Lists are readable by
// their owner only; a failed owner lookup is treated as forbidden.
func (h *Hub) Authorize(ctx context.Context, accountID string, sel Selector) error {
	if !sel.Valid() {
		return &SubscriptionError{Stream: sel.String(), Err: ErrUnknownSelector}
	}
	if sel.Kind != KindList {
		return nil
	}
	owner, err := h.rels.ListOwner(ctx, sel.ListID)
	if err != nil {
		h.metrics.LookupFailed("list_owner")
		return &SubscriptionError{Stream: sel.String(), Err: fmt.Errorf("%w: %w", ErrForbiddenStream, err)}
	}
	if owner != accountID {
		return &SubscriptionError{Stream: sel.String(), Err: ErrForbiddenStream}
	}
	return nil
}

// Publish routes ev to every matching connection and returns the number of
// connections it was enqueued to. It never blocks on a slow connection.
func (h *Hub) Publish(ctx context.Context, ev *Event) int {
	return h.router.Publish(ctx, ev)
}

// Stats returns a snapshot of connections, subscriptions and counters.
func (h *Hub) Stats() Stats {
	return h.router.Stats()
}

// Close tears down every connection with ErrShutdown and waits for the writers
// to release their transports, or for ctx to expire.
func (h *Hub) Close(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	n := h.registry.Close(ErrShutdown)
	h.logger.LogAttrs(ctx, slog.LevelInfo, "stream hub closing", logger.Count(n))

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stream: waiting for writers: %w", ctx.Err())
	}
}
