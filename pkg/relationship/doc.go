// Package relationship provides the stream.RelationshipSource implementations used
// by the streaming server: Postgres reads the relationship tables through pgx,
// Memory keeps everything in process, and Cached puts an LRU with a short TTL in
// front of either one.
//
// Cached also implements stream.Invalidator, so relationship change events
// published to the hub evict the affected entries immediately.
package relationship
