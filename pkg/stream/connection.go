package stream

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// EnqueueResult is the outcome of a non-blocking enqueue.
type EnqueueResult uint8

const (
	Enqueued EnqueueResult = iota
	DroppedFull
	DroppedClosed
)

func (r EnqueueResult) String() string {
	switch r {
	case Enqueued:
		return "enqueued"
	case DroppedFull:
		return "dropped_full"
	case DroppedClosed:
		return "dropped_closed"
	default:
		return "unknown"
	}
}

// ConnectOption configures a connection created by Hub.Connect.
type ConnectOption func(*connectOptions)

type connectOptions struct {
	id       string
	keywords *KeywordSet
}

// WithConnectionID overrides the generated connection id.
func WithConnectionID(id string) ConnectOption {
	return func(o *connectOptions) {
		o.id = id
	}
}

// WithKeywords sets the initial keyword filters of the connection's account.
func WithKeywords(set *KeywordSet) ConnectOption {
	return func(o *connectOptions) {
		o.keywords = set
	}
}

// Connection is one authenticated client session. All of its state is owned by the
// hub; transports interact with it through Handle, Heartbeat and Close.
type Connection struct {
	id        string
	accountID string
	createdAt time.Time
	hub       *Hub

	ctx    context.Context
	cancel context.CancelCauseFunc
	done   chan struct{}
	state  *lifecycle

	// mu guards closed, queue close and subs. Senders hold the read lock, so once
	// Unregister holds the write lock no delivery can land in the queue.
	mu     sync.RWMutex
	closed bool
	queue  chan Delivery
	subs   map[string]Subscription // index key -> subscription

	lastActive atomic.Int64
	drops      atomic.Uint64
	window     *dropWindow
	keywords   atomic.Pointer[KeywordSet]
}

func newConnection(parent context.Context, h *Hub, accountID string, o connectOptions) *Connection {
	now := time.Now()
	id := o.id
	if id == "" {
		id = uuid.NewString()
	}

	ctx, cancel := context.WithCancelCause(parent)
	c := &Connection{
		id:        id,
		accountID: accountID,
		createdAt: now,
		hub:       h,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		state:     newLifecycle(),
		queue:     make(chan Delivery, h.cfg.QueueSize),
		subs:      make(map[string]Subscription),
		window:    newDropWindow(h.cfg.DropThreshold, h.cfg.DropWindow, now),
	}
	c.lastActive.Store(now.UnixNano())
	if o.keywords != nil {
		c.keywords.Store(o.keywords)
	}
	return c
}

func (c *Connection) ID() string           { return c.id }
func (c *Connection) AccountID() string    { return c.accountID }
func (c *Connection) CreatedAt() time.Time { return c.createdAt }

// State returns the writer lifecycle state.
func (c *Connection) State() WriterState { return c.state.Current() }

// Done is closed once the writer has released the transport.
func (c *Connection) Done() <-chan struct{} { return c.done }

// Err returns the teardown cause, or nil while the connection is open.
func (c *Connection) Err() error { return context.Cause(c.ctx) }

// Dropped returns how many deliveries were dropped because the queue was full.
func (c *Connection) Dropped() uint64 { return c.drops.Load() }

// LastActivity returns the time of the last delivery or client heartbeat.
func (c *Connection) LastActivity() time.Time {
	return time.Unix(0, c.lastActive.Load())
}

// Heartbeat records client activity and postpones the idle timeout.
func (c *Connection) Heartbeat() { c.touch(time.Now()) }

func (c *Connection) touch(now time.Time) {
	c.lastActive.Store(now.UnixNano())
}

// Keywords returns the keyword filters of the connection's account.
func (c *Connection) Keywords() *KeywordSet { return c.keywords.Load() }

// SetKeywords atomically swaps the keyword filters.
func (c *Connection) SetKeywords(set *KeywordSet) { c.keywords.Store(set) }

// Subscriptions returns a snapshot of the active subscriptions ordered by stream name.
func (c *Connection) Subscriptions() []Subscription {
	c.mu.RLock()
	subs := make([]Subscription, 0, len(c.subs))
	for _, s := range c.subs {
		subs = append(subs, s)
	}
	c.mu.RUnlock()

	slices.SortFunc(subs, func(a, b Subscription) int {
		return strings.Compare(a.Selector.String(), b.Selector.String())
	})
	return subs
}

// subscription returns the subscription stored under an index key.
func (c *Connection) subscription(key string) (Subscription, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return Subscription{}, false
	}
	s, ok := c.subs[key]
	return s, ok
}

// Subscribe adds or replaces a subscription after checking that the account may
// read the stream.
func (c *Connection) Subscribe(ctx context.Context, sel Selector, f Filter) error {
	if err := c.hub.Authorize(ctx, c.accountID, sel); err != nil {
		return err
	}
	_, err := c.hub.registry.Subscribe(c, sel, f)
	return err
}

// Unsubscribe removes the subscription for sel.
func (c *Connection) Unsubscribe(sel Selector) bool {
	return c.hub.registry.Unsubscribe(c, sel)
}

// Handle executes a client command. Failures are reported to the client with an
// error frame and returned; they never close the connection.
func (c *Connection) Handle(ctx context.Context, cmd Command) error {
	c.Heartbeat()

	var err error
	switch cmd.Type {
	case CommandSubscribe:
		err = c.Subscribe(ctx, cmd.Selector, cmd.Filter)
	case CommandUnsubscribe:
		c.Unsubscribe(cmd.Selector)
	case CommandPing:
	default:
		err = fmt.Errorf("%w: unknown type %q", ErrInvalidCommand, cmd.Type)
	}

	if err != nil {
		c.SendError(err)
	}
	return err
}

// SendError queues an error frame for the client.
func (c *Connection) SendError(err error) EnqueueResult {
	return c.TryEnqueue(controlDelivery(errorFrame(err)))
}

// TryEnqueue offers d to the delivery channel without blocking. A full channel
// counts one drop; once the drop window is exhausted the connection is torn down
// as a slow consumer.
func (c *Connection) TryEnqueue(d Delivery) EnqueueResult {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return DroppedClosed
	}
	select {
	case c.queue <- d:
		c.mu.RUnlock()
		return Enqueued
	default:
	}
	c.mu.RUnlock()

	c.drops.Add(1)
	if c.window.record(time.Now()) {
		c.cancel(ErrSlowConsumer)
	}
	return DroppedFull
}

// Close tears the connection down as a client-initiated close. After Close returns
// the connection receives no further deliveries.
func (c *Connection) Close() {
	c.hub.registry.Unregister(c, ErrClientClosed)
}
