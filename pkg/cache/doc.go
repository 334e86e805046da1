// Package cache provides a generic, thread-safe LRU cache with per-entry expiry.
//
// It backs the relationship lookups of the streaming server: follower sets, list
// membership and pairwise relationships are read on every publish and change
// rarely, so they are cached for a short TTL and invalidated explicitly when a
// relationship change event arrives.
//
// # Usage
//
//	c := cache.NewLRU[string, []string](10_000, 30*time.Second)
//	c.Put("followers:42", ids)
//
//	ids, ok := c.Get("followers:42") // marks the entry as recently used
//	if !ok {
//	    // load and Put
//	}
//
//	c.Remove("followers:42")
//	c.RemoveFunc(func(k string) bool { return strings.HasSuffix(k, ":42") })
//	c.Purge()
//
// # Eviction and expiry
//
// Put evicts the least recently used entry once the cache holds capacity
// entries. A positive ttl additionally bounds the age of every entry. Expired
// entries are not swept in the background: Get treats them as missing and drops
// them, and Len counts them until then. A ttl of zero disables expiry.
//
// # Testing
//
// WithClock replaces time.Now so expiry can be driven from tests:
//
//	now := time.Now()
//	c := cache.NewLRU[string, int](10, time.Minute, cache.WithClock(func() time.Time { return now }))
//	c.Put("k", 1)
//	now = now.Add(2 * time.Minute)
//	_, ok := c.Get("k") // false
//
// # Complexity
//
// Get, Put and Remove are O(1). RemoveFunc scans every entry.
package cache
