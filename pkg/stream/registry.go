package stream

import (
	"hash/fnv"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Subscriber is a connection matched by an index lookup, with the subscription
// it holds for the looked-up key.
type Subscriber struct {
	Conn         *Connection
	Subscription Subscription
}

// Registry tracks live connections and the subscription index. Both maps are
// sharded by key hash so that publishes on unrelated streams do not contend.
//
// Lock order is connection, then shard. The index only holds connection
// pointers; filters are always read from the connection itself.
type Registry struct {
	conns   []*connShard
	index   []*indexShard
	maxSubs int
	closed  atomic.Bool
	metrics Metrics
	logger  *slog.Logger
}

type connShard struct {
	mu sync.RWMutex
	m  map[string]*Connection
}

type indexShard struct {
	mu sync.RWMutex
	m  map[string]map[*Connection]struct{}
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithShards sets the number of lock stripes.
func WithShards(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.conns = make([]*connShard, n)
			r.index = make([]*indexShard, n)
		}
	}
}

// WithMaxSubscriptions caps subscriptions per connection. Zero means unlimited.
func WithMaxSubscriptions(n int) RegistryOption {
	return func(r *Registry) {
		r.maxSubs = n
	}
}

// WithRegistryMetrics sets the metrics sink.
func WithRegistryMetrics(m Metrics) RegistryOption {
	return func(r *Registry) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithRegistryLogger sets the logger.
func WithRegistryLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		conns:   make([]*connShard, 32),
		index:   make([]*indexShard, 32),
		maxSubs: 32,
		metrics: NopMetrics{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	for i := range r.conns {
		r.conns[i] = &connShard{m: make(map[string]*Connection)}
		r.index[i] = &indexShard{m: make(map[string]map[*Connection]struct{})}
	}
	return r
}

func shardOf(key string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(n))
}

func (r *Registry) connShard(id string) *connShard {
	return r.conns[shardOf(id, len(r.conns))]
}

func (r *Registry) indexShard(key string) *indexShard {
	return r.index[shardOf(key, len(r.index))]
}

// Register adds a connection with no subscriptions.
func (r *Registry) Register(c *Connection) error {
	s := r.connShard(c.id)
	s.mu.Lock()
	defer s.mu.Unlock()

	// Checked under the shard lock: Close sets the flag before sweeping shards.
	if r.closed.Load() {
		return ErrRegistryClosed
	}
	if _, exists := s.m[c.id]; exists {
		return ErrDuplicateConnection
	}
	s.m[c.id] = c
	r.metrics.ConnectionOpened()
	return nil
}

// Unregister removes the connection and every subscription it holds, closes its
// delivery channel and cancels it with cause. It is idempotent: only the first
// call returns true. After it returns no publish can enqueue to c.
func (r *Registry) Unregister(c *Connection, cause error) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.closed = true
	subs := c.subs
	c.subs = nil
	close(c.queue)
	c.mu.Unlock()

	c.cancel(cause)

	for key, sub := range subs {
		r.removeIndex(key, c)
		r.metrics.SubscriptionRemoved(sub.Selector.Kind)
	}

	s := r.connShard(c.id)
	s.mu.Lock()
	if cur, ok := s.m[c.id]; ok && cur == c {
		delete(s.m, c.id)
	} else {
		r.metrics.Inconsistency("unregister_unknown_connection")
		r.logger.Warn("unregistered connection was not in registry", slog.String("connection_id", c.id))
	}
	s.mu.Unlock()

	r.metrics.ConnectionClosed(CloseReason(cause))
	return true
}

// Subscribe adds sel with filter f to the connection, replacing the filter of an
// existing subscription with the same selector.
func (r *Registry) Subscribe(c *Connection, sel Selector, f Filter) (replaced bool, err error) {
	if !sel.Valid() {
		return false, &SubscriptionError{Stream: sel.String(), Err: ErrUnknownSelector}
	}
	key := sel.key(c.accountID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false, ErrConnectionClosed
	}
	if _, replaced = c.subs[key]; !replaced && r.maxSubs > 0 && len(c.subs) >= r.maxSubs {
		return false, &SubscriptionError{Stream: sel.String(), Err: ErrTooManySubscriptions}
	}

	c.subs[key] = Subscription{Selector: sel, Filter: f}
	if !replaced {
		r.addIndex(key, c)
		r.metrics.SubscriptionAdded(sel.Kind)
	}
	return replaced, nil
}

// Unsubscribe removes the subscription for sel. Unknown selectors are a no-op.
func (r *Registry) Unsubscribe(c *Connection, sel Selector) bool {
	if !sel.Valid() {
		return false
	}
	key := sel.key(c.accountID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	if _, ok := c.subs[key]; !ok {
		return false
	}
	delete(c.subs, key)
	r.removeIndex(key, c)
	r.metrics.SubscriptionRemoved(sel.Kind)
	return true
}

func (r *Registry) addIndex(key string, c *Connection) {
	s := r.indexShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.m[key]
	if !ok {
		set = make(map[*Connection]struct{})
		s.m[key] = set
	}
	set[c] = struct{}{}
}

func (r *Registry) removeIndex(key string, c *Connection) {
	s := r.indexShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.m[key]
	if !ok {
		r.metrics.Inconsistency("index_key_missing")
		return
	}
	if _, ok := set[c]; !ok {
		r.metrics.Inconsistency("index_entry_missing")
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(s.m, key)
	}
}

// SubscribersFor returns the live subscribers of an index key.
func (r *Registry) SubscribersFor(key string) []Subscriber {
	s := r.indexShard(key)
	s.mu.RLock()
	conns := make([]*Connection, 0, len(s.m[key]))
	for c := range s.m[key] {
		conns = append(conns, c)
	}
	s.mu.RUnlock()

	out := make([]Subscriber, 0, len(conns))
	for _, c := range conns {
		// Missing here means a concurrent unsubscribe or unregister won the race.
		if sub, ok := c.subscription(key); ok {
			out = append(out, Subscriber{Conn: c, Subscription: sub})
		}
	}
	return out
}

// Get returns a registered connection by id.
func (r *Registry) Get(id string) (*Connection, bool) {
	s := r.connShard(id)
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.m[id]
	return c, ok
}

// Connections returns the registered connections of an account.
func (r *Registry) Connections(accountID string) []*Connection {
	var out []*Connection
	r.each(func(c *Connection) {
		if c.accountID == accountID {
			out = append(out, c)
		}
	})
	return out
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	n := 0
	for _, s := range r.conns {
		s.mu.RLock()
		n += len(s.m)
		s.mu.RUnlock()
	}
	return n
}

// Stats counts connections, subscriptions per selector kind and lagging connections.
func (r *Registry) Stats() Stats {
	st := Stats{
		Subscriptions: make(map[string]int),
		Lagging:       make(map[string]uint64),
	}
	r.each(func(c *Connection) {
		st.Connections++
		for _, sub := range c.Subscriptions() {
			st.Subscriptions[sub.Selector.Kind.String()]++
		}
		if d := c.Dropped(); d > 0 {
			st.Lagging[c.id] = d
		}
	})
	return st
}

func (r *Registry) each(fn func(*Connection)) {
	for _, s := range r.conns {
		s.mu.RLock()
		conns := make([]*Connection, 0, len(s.m))
		for _, c := range s.m {
			conns = append(conns, c)
		}
		s.mu.RUnlock()

		for _, c := range conns {
			fn(c)
		}
	}
}

// Close refuses new registrations and unregisters every connection with cause.
// It returns the number of connections torn down.
func (r *Registry) Close(cause error) int {
	r.closed.Store(true)

	var conns []*Connection
	r.each(func(c *Connection) { conns = append(conns, c) })

	n := 0
	for _, c := range conns {
		if r.Unregister(c, cause) {
			n++
		}
	}
	return n
}
