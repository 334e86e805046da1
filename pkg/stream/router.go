package stream

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/streamhub/pkg/logger"
)

// Router resolves the audience of an event and enqueues it to every matching
// connection. Publish never blocks on a connection.
type Router struct {
	registry *Registry
	rels     RelationshipSource
	metrics  Metrics
	logger   *slog.Logger
	now      func() time.Time

	published atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// NewRouter creates a router over registry using rels for relationship lookups.
func NewRouter(registry *Registry, rels RelationshipSource, m Metrics, l *slog.Logger) *Router {
	if m == nil {
		m = NopMetrics{}
	}
	if l == nil {
		l = slog.Default()
	}
	return &Router{
		registry: registry,
		rels:     rels,
		metrics:  m,
		logger:   l,
		now:      time.Now,
	}
}

type relLookup struct {
	rel Relationship
	ok  bool
}

// Publish fans ev out and returns the number of connections it was enqueued to.
// Each connection receives an event at most once, tagged with the first stream it
// matched in candidate order.
func (r *Router) Publish(ctx context.Context, ev *Event) int {
	if ev == nil {
		return 0
	}
	r.published.Add(1)
	r.metrics.EventPublished(ev.Kind)

	switch ev.Kind {
	case EventRelationshipChanged:
		if inv, ok := r.rels.(Invalidator); ok {
			inv.Invalidate(ev.AccountID, ev.TargetID)
			inv.Invalidate(ev.TargetID, ev.AccountID)
		}
		return 0
	case EventFiltersChanged:
		for _, c := range r.registry.Connections(ev.AccountID) {
			c.SetKeywords(ev.Keywords)
		}
	}

	keys, lists := r.candidates(ctx, ev)
	actor := ev.Actor()
	now := r.now()

	rels := make(map[string]relLookup)
	seen := make(map[*Connection]struct{})
	delivered := 0

	for _, key := range keys {
		for _, s := range r.registry.SubscribersFor(key) {
			if _, dup := seen[s.Conn]; dup {
				continue
			}

			aud, ok := r.audience(ctx, s, actor, lists, rels, now)
			if !ok || !Matches(ev, s.Subscription, aud) {
				continue
			}
			seen[s.Conn] = struct{}{}

			switch s.Conn.TryEnqueue(Delivery{Event: ev, Stream: s.Subscription.Selector.StreamTag()}) {
			case Enqueued:
				delivered++
				r.delivered.Add(1)
				r.metrics.EventDelivered(ev.Kind)
			case DroppedFull:
				r.dropped.Add(1)
				r.metrics.EventDropped(ev.Kind, DropQueueFull)
				r.logger.LogAttrs(ctx, slog.LevelDebug, "delivery dropped",
					logger.ConnectionID(s.Conn.ID()),
					logger.EventKind(ev.Kind.String()),
					logger.Reason(string(DropQueueFull)),
				)
			case DroppedClosed:
				r.metrics.EventDropped(ev.Kind, DropClosed)
			}
		}
	}
	return delivered
}

// candidates lists the index keys that may hold subscribers of ev, and the lists
// that contain the author of a status.
func (r *Router) candidates(ctx context.Context, ev *Event) ([]string, map[string]bool) {
	switch {
	case ev.Kind.isStatus() && ev.Status != nil:
		st := ev.Status
		if st.Visibility == VisibilityDirect {
			keys := make([]string, 0, len(st.Mentions)+1)
			keys = append(keys, directKey(st.AuthorID))
			for _, m := range st.Mentions {
				keys = append(keys, directKey(m))
			}
			return keys, nil
		}

		var keys []string
		if st.Visibility == VisibilityPublic {
			keys = append(keys, publicKey)
			if st.Local {
				keys = append(keys, publicLocalKey)
			}
			for _, tag := range st.Tags {
				keys = append(keys, hashtagKey(tag))
			}
		}

		keys = append(keys, userKey(st.AuthorID))
		followers, err := r.rels.Followers(ctx, st.AuthorID)
		if err != nil {
			r.lookupFailed(ctx, "followers", st.AuthorID, err)
		}
		for _, f := range followers {
			keys = append(keys, userKey(f))
		}

		listIDs, err := r.rels.ListsContaining(ctx, st.AuthorID)
		if err != nil {
			r.lookupFailed(ctx, "lists_containing", st.AuthorID, err)
		}
		lists := make(map[string]bool, len(listIDs))
		for _, id := range listIDs {
			lists[id] = true
			keys = append(keys, listKey(id))
		}
		return keys, lists

	case ev.Kind == EventNotificationCreated && ev.Notification != nil:
		return []string{notificationKey(ev.Notification.RecipientID), userKey(ev.Notification.RecipientID)}, nil

	case ev.Kind == EventAccountUpdated, ev.Kind == EventFiltersChanged:
		return []string{userKey(ev.AccountID)}, nil
	}
	return nil, nil
}

// audience gathers the subscriber side facts. It returns false when a required
// lookup failed, which excludes the subscriber.
func (r *Router) audience(ctx context.Context, s Subscriber, actor string, lists map[string]bool, cache map[string]relLookup, now time.Time) (Audience, bool) {
	owner := s.Conn.AccountID()
	aud := Audience{
		AccountID: owner,
		Keywords:  s.Conn.Keywords(),
		Now:       now,
	}
	if s.Subscription.Selector.Kind == KindList {
		aud.ListMember = lists[s.Subscription.Selector.ListID]
	}
	if actor == "" || actor == owner {
		return aud, true
	}

	res, cached := cache[owner]
	if !cached {
		rel, err := r.rels.Relationship(ctx, owner, actor)
		if err != nil {
			r.lookupFailed(ctx, "relationship", owner, err)
		}
		res = relLookup{rel: rel, ok: err == nil}
		cache[owner] = res
	}
	aud.Relationship = res.rel
	return aud, res.ok
}

func (r *Router) lookupFailed(ctx context.Context, op, accountID string, err error) {
	r.metrics.LookupFailed(op)
	r.logger.LogAttrs(ctx, slog.LevelWarn, "relationship lookup failed",
		slog.String("op", op),
		logger.AccountID(accountID),
		logger.Error(err),
	)
}

// Stats returns the publish counters merged into the registry snapshot.
func (r *Router) Stats() Stats {
	st := r.registry.Stats()
	st.Published = r.published.Load()
	st.Delivered = r.delivered.Load()
	st.Dropped = r.dropped.Load()
	return st
}
