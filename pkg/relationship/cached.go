package relationship

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/streamhub/pkg/cache"
	"github.com/dmitrymomot/streamhub/pkg/stream"
)

type pair struct {
	owner, target string
}

// Cached decorates a RelationshipSource with TTL-bounded LRU caches. Concurrent
// misses for the same key share one upstream call. Errors are never cached, and
// a load that overlaps an invalidation of its key is returned but not stored.
type Cached struct {
	next      stream.RelationshipSource
	rels      *cache.LRU[pair, stream.Relationship]
	followers *cache.LRU[string, []string]
	lists     *cache.LRU[string, []string]
	owners    *cache.LRU[string, string]
	group     singleflight.Group

	// mu orders stores of loaded values against invalidations.
	mu      sync.Mutex
	loading map[string]*pendingLoad
}

// pendingLoad tracks one in-flight upstream call.
type pendingLoad struct {
	stale bool
}

var (
	_ stream.RelationshipSource = (*Cached)(nil)
	_ stream.Invalidator        = (*Cached)(nil)
)

// CacheConfig sizes the caches.
type CacheConfig struct {
	Size int           `env:"RELATIONSHIP_CACHE_SIZE" envDefault:"50000"`
	TTL  time.Duration `env:"RELATIONSHIP_CACHE_TTL" envDefault:"30s"`
}

// NewCached wraps next. Non-positive sizes fall back to 50000 entries per cache.
func NewCached(next stream.RelationshipSource, cfg CacheConfig, opts ...cache.Option) *Cached {
	size := cfg.Size
	if size <= 0 {
		size = 50000
	}
	return &Cached{
		next:      next,
		rels:      cache.NewLRU[pair, stream.Relationship](size, cfg.TTL, opts...),
		followers: cache.NewLRU[string, []string](size, cfg.TTL, opts...),
		lists:     cache.NewLRU[string, []string](size, cfg.TTL, opts...),
		owners:    cache.NewLRU[string, string](size, cfg.TTL, opts...),
		loading:   make(map[string]*pendingLoad),
	}
}

func relKey(ownerID, targetID string) string { return "rel:" + ownerID + ":" + targetID }

const (
	followersPrefix = "followers:"
	listsPrefix     = "lists:"
)

func (c *Cached) begin(key string) *pendingLoad {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := &pendingLoad{}
	c.loading[key] = l
	return l
}

// finish runs store unless key was invalidated while l was in flight.
func (c *Cached) finish(key string, l *pendingLoad, store func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading[key] == l {
		delete(c.loading, key)
	}
	if !l.stale {
		store()
	}
}

func (c *Cached) Relationship(ctx context.Context, ownerID, targetID string) (stream.Relationship, error) {
	key := pair{ownerID, targetID}
	if rel, ok := c.rels.Get(key); ok {
		return rel, nil
	}
	flight := relKey(ownerID, targetID)
	v, err, _ := c.group.Do(flight, func() (any, error) {
		l := c.begin(flight)
		rel, err := c.next.Relationship(ctx, ownerID, targetID)
		c.finish(flight, l, func() {
			if err == nil {
				c.rels.Put(key, rel)
			}
		})
		return rel, err
	})
	if err != nil {
		return stream.Relationship{}, err
	}
	return v.(stream.Relationship), nil
}

func (c *Cached) Followers(ctx context.Context, accountID string) ([]string, error) {
	return c.strings(ctx, c.followers, followersPrefix, accountID, c.next.Followers)
}

func (c *Cached) ListsContaining(ctx context.Context, accountID string) ([]string, error) {
	return c.strings(ctx, c.lists, listsPrefix, accountID, c.next.ListsContaining)
}

func (c *Cached) ListOwner(ctx context.Context, listID string) (string, error) {
	if owner, ok := c.owners.Get(listID); ok {
		return owner, nil
	}
	owner, err := c.next.ListOwner(ctx, listID)
	if err != nil {
		return "", err
	}
	c.owners.Put(listID, owner)
	return owner, nil
}

func (c *Cached) strings(
	ctx context.Context,
	lru *cache.LRU[string, []string],
	prefix, id string,
	load func(context.Context, string) ([]string, error),
) ([]string, error) {
	if v, ok := lru.Get(id); ok {
		return v, nil
	}
	flight := prefix + id
	v, err, _ := c.group.Do(flight, func() (any, error) {
		l := c.begin(flight)
		ids, err := load(ctx, id)
		c.finish(flight, l, func() {
			if err == nil {
				lru.Put(id, ids)
			}
		})
		return ids, err
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// Invalidate drops everything cached about the pair in both directions:
// relationships, follower sets and list memberships. Adding an account to a list
// is published as a relationship change between the list owner and that account.
// Loads already in flight for these keys are not stored, and later lookups start
// a fresh upstream call instead of joining them.
func (c *Cached) Invalidate(accountID, targetID string) {
	c.invalidate(func() {
		c.rels.Remove(pair{accountID, targetID})
		c.rels.Remove(pair{targetID, accountID})
		c.followers.Remove(accountID)
		c.followers.Remove(targetID)
		c.lists.Remove(accountID)
		c.lists.Remove(targetID)
	},
		relKey(accountID, targetID), relKey(targetID, accountID),
		followersPrefix+accountID, followersPrefix+targetID,
		listsPrefix+accountID, listsPrefix+targetID,
	)
}

// InvalidateLists drops the cached list memberships of accountID.
func (c *Cached) InvalidateLists(accountID string) {
	c.invalidate(func() { c.lists.Remove(accountID) }, listsPrefix+accountID)
}

func (c *Cached) invalidate(remove func(), flights ...string) {
	c.mu.Lock()
	remove()
	for _, key := range flights {
		if l, ok := c.loading[key]; ok {
			l.stale = true
			delete(c.loading, key)
		}
		c.group.Forget(key)
	}
	c.mu.Unlock()
}
