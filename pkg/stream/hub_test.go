package stream_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/streamhub/pkg/relationship"
	"github.com/dmitrymomot/streamhub/pkg/stream"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires relationship source", func(t *testing.T) {
		t.Parallel()
		_, err := stream.New(nil)
		assert.ErrorIs(t, err, stream.ErrInvalidConfig)
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		t.Parallel()
		cfg := stream.DefaultConfig()
		cfg.QueueSize = -1
		_, err := stream.New(relationship.NewMemory(), stream.WithConfig(cfg))
		assert.ErrorIs(t, err, stream.ErrInvalidConfig)
	})

	t.Run("fills zero values with defaults", func(t *testing.T) {
		t.Parallel()
		hub, err := stream.New(relationship.NewMemory(), stream.WithConfig(stream.Config{QueueSize: 7}))
		require.NoError(t, err)
		defer hub.Close(context.Background())

		cfg := hub.Config()
		assert.Equal(t, 7, cfg.QueueSize)
		assert.Equal(t, stream.DefaultConfig().DropWindow, cfg.DropWindow)
		assert.Equal(t, stream.DefaultConfig().MaxSubscriptions, cfg.MaxSubscriptions)
	})
}

func TestHub_Connect(t *testing.T) {
	t.Parallel()

	t.Run("sends connected frame", func(t *testing.T) {
		t.Parallel()
		hub := newTestHub(t, nil, testConfig())
		tr := newFakeTransport()
		conn, err := hub.Connect(context.Background(), "alice", tr, stream.WithConnectionID("c-1"))
		require.NoError(t, err)
		assert.Equal(t, "c-1", conn.ID())
		assert.Equal(t, "alice", conn.AccountID())
		assert.Equal(t, stream.StateOpen, conn.State())

		require.Eventually(t, func() bool { return len(tr.Frames()) == 1 }, time.Second, 5*time.Millisecond)
		frame := tr.Frames()[0]
		assert.Equal(t, stream.FrameConnected, frame.Event)
		assert.JSONEq(t, `{"connection_id":"c-1"}`, string(frame.Payload))
	})

	t.Run("rejects duplicate id", func(t *testing.T) {
		t.Parallel()
		hub := newTestHub(t, nil, testConfig())
		_, err := hub.Connect(context.Background(), "alice", newFakeTransport(), stream.WithConnectionID("dup"))
		require.NoError(t, err)
		_, err = hub.Connect(context.Background(), "bob", newFakeTransport(), stream.WithConnectionID("dup"))
		assert.ErrorIs(t, err, stream.ErrDuplicateConnection)
	})

	t.Run("validates arguments", func(t *testing.T) {
		t.Parallel()
		hub := newTestHub(t, nil, testConfig())
		_, err := hub.Connect(context.Background(), "", newFakeTransport())
		assert.ErrorIs(t, err, stream.ErrInvalidConfig)
		_, err = hub.Connect(context.Background(), "alice", nil)
		assert.ErrorIs(t, err, stream.ErrInvalidConfig)
	})

	t.Run("parent context cancellation closes connection", func(t *testing.T) {
		t.Parallel()
		hub := newTestHub(t, nil, testConfig())
		ctx, cancel := context.WithCancel(context.Background())
		tr := newFakeTransport()
		conn, err := hub.Connect(ctx, "alice", tr)
		require.NoError(t, err)

		cancel()
		tr.waitClosed(t)
		<-conn.Done()
		assert.Equal(t, stream.StateClosed, conn.State())
		assert.Equal(t, 0, hub.Registry().Len())
	})
}

// A public status tagged #rust reaches the public, hashtag and follower home
// subscribers, each exactly once and tagged with its own stream.
func TestHub_PublicStatusFanOut(t *testing.T) {
	t.Parallel()

	rels := relationship.NewMemory()
	rels.Follow("carol", "bob")
	hub := newTestHub(t, rels, testConfig())

	_, pub := connect(t, hub, "alice", stream.Public())
	_, tag := connect(t, hub, "dave", stream.Hashtag("Rust"))
	_, home := connect(t, hub, "carol", stream.User())
	_, other := connect(t, hub, "erin", stream.User(), stream.Hashtag("go"))

	n := hub.Publish(context.Background(), publicStatus(t, "1", "bob", "#rust"))
	assert.Equal(t, 3, n)

	got := pub.waitEvents(t, 1)
	assert.Equal(t, []string{"public"}, got[0].Stream)
	assert.Equal(t, stream.FrameUpdate, got[0].Event)
	assert.JSONEq(t, `{"id":"1"}`, string(got[0].Payload))

	got = tag.waitEvents(t, 1)
	assert.Equal(t, []string{"hashtag", "rust"}, got[0].Stream)

	got = home.waitEvents(t, 1)
	assert.Equal(t, []string{"user"}, got[0].Stream)

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, other.Events())
}

// A user stream carries the account's own statuses and those of followed
// accounts only.
func TestHub_UserStream(t *testing.T) {
	t.Parallel()

	hub := newTestHub(t, nil, testConfig())
	_, home := connect(t, hub, "1", stream.User())

	assert.Equal(t, 1, hub.Publish(context.Background(), publicStatus(t, "own", "1")))
	got := home.waitEvents(t, 1)
	assert.Equal(t, []string{"user"}, got[0].Stream)
	assert.JSONEq(t, `{"id":"own"}`, string(got[0].Payload))

	assert.Equal(t, 0, hub.Publish(context.Background(), publicStatus(t, "foreign", "2")))
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, home.Events(), 1)
}

func TestHub_BlockedSubscriberExcluded(t *testing.T) {
	t.Parallel()

	rels := relationship.NewMemory()
	rels.Block("bob", "alice")
	rels.Mute("carol", "alice")
	hub := newTestHub(t, rels, testConfig())

	_, blocked := connect(t, hub, "bob", stream.Public())
	_, muting := connect(t, hub, "carol", stream.Public())
	_, fine := connect(t, hub, "dave", stream.Public())

	n := hub.Publish(context.Background(), publicStatus(t, "1", "alice"))
	assert.Equal(t, 1, n)

	fine.waitEvents(t, 1)
	assert.Empty(t, blocked.Events())
	assert.Empty(t, muting.Events())
}

func TestHub_DirectMessage(t *testing.T) {
	t.Parallel()

	hub := newTestHub(t, nil, testConfig())
	_, author := connect(t, hub, "alice", stream.Direct())
	_, mentioned := connect(t, hub, "bob", stream.Direct())
	_, bystander := connect(t, hub, "carol", stream.Direct(), stream.Public(), stream.User())

	ev := statusEvent(t, stream.EventStatusCreated, stream.StatusRef{
		ID:         "dm",
		AuthorID:   "alice",
		Visibility: stream.VisibilityDirect,
		Mentions:   []string{"bob"},
	})
	assert.Equal(t, 2, hub.Publish(context.Background(), ev))

	got := mentioned.waitEvents(t, 1)
	assert.Equal(t, []string{"direct"}, got[0].Stream)
	author.waitEvents(t, 1)
	assert.Empty(t, bystander.Events())
}

func TestHub_ExactlyOncePerConnection(t *testing.T) {
	t.Parallel()

	rels := relationship.NewMemory()
	rels.Follow("alice", "bob")
	hub := newTestHub(t, rels, testConfig())

	conn, tr := connect(t, hub, "alice",
		stream.Public(), stream.PublicLocal(), stream.Hashtag("go"), stream.User())
	assert.Len(t, conn.Subscriptions(), 4)

	n := hub.Publish(context.Background(), publicStatus(t, "1", "bob", "go"))
	assert.Equal(t, 1, n)

	got := tr.waitEvents(t, 1)
	assert.Equal(t, []string{"public"}, got[0].Stream, "tagged with the first matching stream")
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, tr.Events(), 1)
}

func TestHub_FilterPerSubscription(t *testing.T) {
	t.Parallel()

	hub := newTestHub(t, nil, testConfig())
	conn, tr := connect(t, hub, "alice")
	ctx := context.Background()

	require.NoError(t, conn.Subscribe(ctx, stream.Public(), stream.NewFilter([]string{"en-GB"}, false)))
	require.NoError(t, conn.Subscribe(ctx, stream.Hashtag("go"), stream.Filter{}))

	// English is excluded on public, but the hashtag subscription has no filter.
	assert.Equal(t, 1, hub.Publish(ctx, publicStatus(t, "1", "bob", "go")))
	got := tr.waitEvents(t, 1)
	assert.Equal(t, []string{"hashtag", "go"}, got[0].Stream)

	assert.Equal(t, 0, hub.Publish(ctx, publicStatus(t, "2", "bob")))
}

func TestHub_OrderingPerConnection(t *testing.T) {
	t.Parallel()

	hub := newTestHub(t, nil, testConfig())
	_, tr := connect(t, hub, "alice", stream.Public())

	const total = 50
	for i := range total {
		ev := publicStatus(t, string(rune('a'+i%26))+string(rune('0'+i/26)), "bob")
		require.Equal(t, 1, hub.Publish(context.Background(), ev))
	}

	got := tr.waitEvents(t, total)
	for i, fr := range got {
		var p struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(fr.Payload, &p))
		assert.Equal(t, string(rune('a'+i%26))+string(rune('0'+i/26)), p.ID, "frame %d out of order", i)
	}
}

func TestHub_SlowConsumerIsolation(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.QueueSize = 1
	cfg.DropThreshold = 100
	hub := newTestHub(t, nil, cfg)
	ctx := context.Background()

	slowTr, release := newBlockedTransport()
	defer release()
	slow, err := hub.Connect(ctx, "slow", slowTr)
	require.NoError(t, err)
	require.NoError(t, slow.Subscribe(ctx, stream.Public(), stream.Filter{}))

	// The writer holds the connected frame; the queue is empty with room for one.
	select {
	case <-slowTr.writing:
	case <-time.After(2 * time.Second):
		t.Fatal("writer did not start")
	}

	_, fastTr := connect(t, hub, "fast", stream.Public())
	require.Eventually(t, func() bool { return len(fastTr.Frames()) == 1 }, time.Second, time.Millisecond)

	assert.Equal(t, 2, hub.Publish(ctx, publicStatus(t, "1", "bob")))
	assert.Equal(t, uint64(0), slow.Dropped())
	fastTr.waitEvents(t, 1)

	assert.Equal(t, 1, hub.Publish(ctx, publicStatus(t, "2", "bob")))
	assert.Equal(t, uint64(1), slow.Dropped())
	fastTr.waitEvents(t, 2)

	assert.Equal(t, 1, hub.Publish(ctx, publicStatus(t, "3", "bob")))
	assert.Equal(t, uint64(2), slow.Dropped())
	fastTr.waitEvents(t, 3)

	stats := hub.Stats()
	assert.Equal(t, uint64(2), stats.Dropped)
	assert.Equal(t, uint64(2), stats.Lagging[slow.ID()])

	release()
	slowTr.waitEvents(t, 1)
}

func TestHub_SlowConsumerDisconnect(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.QueueSize = 1
	cfg.DropThreshold = 2
	cfg.DropWindow = time.Minute
	hub := newTestHub(t, nil, cfg)
	ctx := context.Background()

	tr, release := newBlockedTransport()
	defer release()
	conn, err := hub.Connect(ctx, "slow", tr)
	require.NoError(t, err)
	require.NoError(t, conn.Subscribe(ctx, stream.Public(), stream.Filter{}))
	<-tr.writing

	hub.Publish(ctx, publicStatus(t, "1", "bob")) // fills the queue
	hub.Publish(ctx, publicStatus(t, "2", "bob")) // drop 1
	hub.Publish(ctx, publicStatus(t, "3", "bob")) // drop 2, threshold reached

	tr.waitClosed(t)
	<-conn.Done()
	assert.ErrorIs(t, conn.Err(), stream.ErrSlowConsumer)
	assert.ErrorIs(t, tr.Cause(), stream.ErrSlowConsumer)
	assert.Equal(t, stream.StateClosed, conn.State())
	assert.Equal(t, 0, hub.Registry().Len())
	assert.Empty(t, hub.Registry().SubscribersFor("public"))
}

func TestHub_UnregisterDuringPublish(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.DropThreshold = -1
	hub := newTestHub(t, nil, cfg)
	ctx := context.Background()
	ev := publicStatus(t, "x", "bob")

	conns := make([]*stream.Connection, 20)
	for i := range conns {
		conns[i], _ = connect(t, hub, "viewer", stream.Public())
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					hub.Publish(ctx, ev)
				}
			}
		}()
	}

	for _, c := range conns {
		c.Close()
		// Once Close returned the connection can no longer receive anything.
		assert.Equal(t, stream.DroppedClosed, c.TryEnqueue(stream.Delivery{}))
	}
	close(stop)
	wg.Wait()

	assert.Equal(t, 0, hub.Registry().Len())
	assert.Equal(t, 0, hub.Publish(ctx, publicStatus(t, "y", "bob")))
	for _, c := range conns {
		<-c.Done()
		assert.ErrorIs(t, c.Err(), stream.ErrClientClosed)
	}
}

func TestHub_IdleTimeout(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.IdleTimeout = 60 * time.Millisecond
	hub := newTestHub(t, nil, cfg)

	conn, tr := connect(t, hub, "alice", stream.Public())
	tr.waitClosed(t)
	<-conn.Done()
	assert.ErrorIs(t, conn.Err(), stream.ErrIdleTimeout)
	assert.ErrorIs(t, tr.Cause(), stream.ErrIdleTimeout)
	assert.Equal(t, 0, hub.Registry().Len())
}

func TestHub_HeartbeatKeepsConnectionAlive(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.IdleTimeout = 80 * time.Millisecond
	hub := newTestHub(t, nil, cfg)

	conn, tr := connect(t, hub, "alice")
	deadline := time.Now().Add(250 * time.Millisecond)
	for time.Now().Before(deadline) {
		require.NoError(t, conn.Handle(context.Background(), stream.Command{Type: stream.CommandPing}))
		time.Sleep(10 * time.Millisecond)
	}
	assert.NoError(t, conn.Err())
	select {
	case <-tr.closed:
		t.Fatal("connection closed despite heartbeats")
	default:
	}
}

func TestHub_TransportPing(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.HeartbeatInterval = 10 * time.Millisecond
	hub := newTestHub(t, nil, cfg)

	tr := &pingTransport{fakeTransport: newFakeTransport()}
	_, err := hub.Connect(context.Background(), "alice", tr)
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return tr.Pings() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestHub_TransportPingDoesNotPreventIdleTimeout(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.IdleTimeout = 60 * time.Millisecond
	cfg.HeartbeatInterval = 10 * time.Millisecond
	hub := newTestHub(t, nil, cfg)

	tr := &pingTransport{fakeTransport: newFakeTransport()}
	conn, err := hub.Connect(context.Background(), "alice", tr)
	require.NoError(t, err)

	tr.waitClosed(t)
	<-conn.Done()
	assert.ErrorIs(t, conn.Err(), stream.ErrIdleTimeout)
	assert.Positive(t, tr.Pings())
	assert.Equal(t, 0, hub.Registry().Len())
}

func TestHub_WriteFailureClosesConnection(t *testing.T) {
	t.Parallel()

	hub := newTestHub(t, nil, testConfig())
	tr := newFakeTransport()
	tr.writeErr = errors.New("broken pipe")

	conn, err := hub.Connect(context.Background(), "alice", tr)
	require.NoError(t, err)

	tr.waitClosed(t)
	<-conn.Done()

	var terr *stream.TransportError
	require.ErrorAs(t, conn.Err(), &terr)
	assert.Equal(t, conn.ID(), terr.ConnectionID)
	assert.Equal(t, "write_failed", stream.CloseReason(conn.Err()))
	assert.Equal(t, 0, hub.Registry().Len())
}

func TestHub_Close(t *testing.T) {
	t.Parallel()

	hub, err := stream.New(relationship.NewMemory(), stream.WithConfig(testConfig()))
	require.NoError(t, err)

	var trs []*fakeTransport
	var conns []*stream.Connection
	for range 5 {
		c, tr := connect(t, hub, "alice", stream.Public())
		conns = append(conns, c)
		trs = append(trs, tr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, hub.Close(ctx))
	require.NoError(t, hub.Close(ctx), "close is idempotent")

	for i, tr := range trs {
		tr.waitClosed(t)
		assert.ErrorIs(t, tr.Cause(), stream.ErrShutdown)
		assert.Equal(t, stream.StateClosed, conns[i].State())
	}

	_, err = hub.Connect(context.Background(), "bob", newFakeTransport())
	assert.ErrorIs(t, err, stream.ErrHubClosed)
	assert.Equal(t, 0, hub.Publish(context.Background(), publicStatus(t, "1", "bob")))
}

func TestHub_Notifications(t *testing.T) {
	t.Parallel()

	rels := relationship.NewMemory()
	rels.Block("alice", "mallory")
	hub := newTestHub(t, rels, testConfig())

	_, notif := connect(t, hub, "alice", stream.UserNotification())
	_, home := connect(t, hub, "alice", stream.User())
	_, other := connect(t, hub, "bob", stream.User())

	ev, err := stream.NewNotificationEvent(stream.NotificationRef{
		ID: "n1", RecipientID: "alice", ActorID: "bob", Type: "mention",
	}, json.RawMessage(`{"id":"n1"}`))
	require.NoError(t, err)
	assert.Equal(t, 2, hub.Publish(context.Background(), ev))

	got := notif.waitEvents(t, 1)
	assert.Equal(t, stream.FrameNotification, got[0].Event)
	assert.Equal(t, []string{"user:notification"}, got[0].Stream)
	got = home.waitEvents(t, 1)
	assert.Equal(t, []string{"user"}, got[0].Stream)

	blocked, err := stream.NewNotificationEvent(stream.NotificationRef{
		ID: "n2", RecipientID: "alice", ActorID: "mallory", Type: "mention",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, hub.Publish(context.Background(), blocked))
	assert.Empty(t, other.Events())
}

func TestHub_FiltersChanged(t *testing.T) {
	t.Parallel()

	rels := relationship.NewMemory()
	rels.Follow("alice", "bob")
	hub := newTestHub(t, rels, testConfig())
	ctx := context.Background()

	conn, tr := connect(t, hub, "alice", stream.User())
	_, quiet := connect(t, hub, "alice") // no subscriptions, still gets the new keywords

	ev, err := stream.NewFiltersChangedEvent("alice", []stream.Keyword{{
		Phrase:   "spoiler",
		Contexts: []stream.KeywordContext{stream.ContextHome},
		Action:   stream.ActionHide,
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, hub.Publish(ctx, ev))

	got := tr.waitEvents(t, 1)
	assert.Equal(t, stream.FrameFiltersChanged, got[0].Event)
	assert.Equal(t, 1, conn.Keywords().Len())
	assert.Empty(t, quiet.Events())

	hidden := statusEvent(t, stream.EventStatusCreated, stream.StatusRef{
		ID: "1", AuthorID: "bob", Visibility: stream.VisibilityPublic, Text: "Big SPOILER ahead",
	})
	assert.Equal(t, 0, hub.Publish(ctx, hidden))

	shown := statusEvent(t, stream.EventStatusCreated, stream.StatusRef{
		ID: "2", AuthorID: "bob", Visibility: stream.VisibilityPublic, Text: "nothing to see",
	})
	assert.Equal(t, 1, hub.Publish(ctx, shown))
}

func TestHub_RelationshipChangedInvalidatesCache(t *testing.T) {
	t.Parallel()

	mem := relationship.NewMemory()
	cached := relationship.NewCached(mem, relationship.CacheConfig{Size: 100, TTL: time.Hour})
	hub := newTestHub(t, cached, testConfig())
	ctx := context.Background()

	_, tr := connect(t, hub, "alice", stream.User())

	assert.Equal(t, 0, hub.Publish(ctx, publicStatus(t, "1", "bob")))

	mem.Follow("alice", "bob")
	assert.Equal(t, 0, hub.Publish(ctx, publicStatus(t, "2", "bob")), "stale cache")

	ev, err := stream.NewRelationshipChangedEvent("alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, 0, hub.Publish(ctx, ev))

	assert.Equal(t, 1, hub.Publish(ctx, publicStatus(t, "3", "bob")))
	got := tr.waitEvents(t, 1)
	assert.JSONEq(t, `{"id":"3"}`, string(got[0].Payload))
}

func TestHub_Lists(t *testing.T) {
	t.Parallel()

	rels := relationship.NewMemory()
	rels.CreateList("l1", "alice")
	rels.AddToList("l1", "bob")
	hub := newTestHub(t, rels, testConfig())
	ctx := context.Background()

	conn, tr := connect(t, hub, "alice")
	require.NoError(t, conn.Subscribe(ctx, stream.List("l1"), stream.Filter{}))

	intruder, _ := connect(t, hub, "mallory")
	err := intruder.Subscribe(ctx, stream.List("l1"), stream.Filter{})
	assert.ErrorIs(t, err, stream.ErrForbiddenStream)
	err = intruder.Subscribe(ctx, stream.List("missing"), stream.Filter{})
	assert.ErrorIs(t, err, stream.ErrForbiddenStream)

	assert.NoError(t, hub.Authorize(ctx, "alice", stream.List("l1")))
	assert.NoError(t, hub.Authorize(ctx, "mallory", stream.Public()))
	assert.ErrorIs(t, hub.Authorize(ctx, "mallory", stream.List("l1")), stream.ErrForbiddenStream)
	assert.ErrorIs(t, hub.Authorize(ctx, "alice", stream.Selector{}), stream.ErrUnknownSelector)

	unlisted := statusEvent(t, stream.EventStatusCreated, stream.StatusRef{
		ID: "1", AuthorID: "bob", Visibility: stream.VisibilityUnlisted,
	})
	assert.Equal(t, 1, hub.Publish(ctx, unlisted))
	got := tr.waitEvents(t, 1)
	assert.Equal(t, []string{"list", "l1"}, got[0].Stream)

	assert.Equal(t, 0, hub.Publish(ctx, publicStatus(t, "2", "carol")))
}

type failingSource struct {
	*relationship.Memory
}

func (failingSource) Relationship(context.Context, string, string) (stream.Relationship, error) {
	return stream.Relationship{}, errors.New("lookup timeout")
}

func TestHub_LookupFailureFailsClosed(t *testing.T) {
	t.Parallel()

	hub := newTestHub(t, failingSource{relationship.NewMemory()}, testConfig())

	_, author := connect(t, hub, "bob", stream.Public())
	_, viewer := connect(t, hub, "alice", stream.Public())

	// Only the author needs no lookup.
	assert.Equal(t, 1, hub.Publish(context.Background(), publicStatus(t, "1", "bob")))
	author.waitEvents(t, 1)
	assert.Empty(t, viewer.Events())
}

func TestHub_StatusDeleteAndUpdate(t *testing.T) {
	t.Parallel()

	hub := newTestHub(t, nil, testConfig())
	conn, tr := connect(t, hub, "alice")
	require.NoError(t, conn.Subscribe(context.Background(), stream.Public(), stream.NewFilter(nil, true)))

	upd := statusEvent(t, stream.EventStatusUpdated, stream.StatusRef{
		ID: "1", AuthorID: "bob", Visibility: stream.VisibilityPublic, HasMedia: true,
	})
	del, err := stream.NewStatusEvent(stream.EventStatusDeleted, stream.StatusRef{
		ID: "2", AuthorID: "bob", Visibility: stream.VisibilityPublic,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, hub.Publish(context.Background(), upd))
	assert.Equal(t, 1, hub.Publish(context.Background(), del), "deletes ignore the media filter")

	got := tr.waitEvents(t, 2)
	assert.Equal(t, stream.FrameStatusUpdate, got[0].Event)
	assert.Equal(t, stream.FrameDelete, got[1].Event)
	assert.JSONEq(t, `"2"`, string(got[1].Payload))
}
