package stream_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/streamhub/pkg/stream"
)

func TestRegistry(t *testing.T) {
	t.Parallel()

	hub := newTestHub(t, nil, testConfig())
	reg := hub.Registry()
	ctx := context.Background()

	conn, _ := connect(t, hub, "alice")
	assert.Equal(t, 1, reg.Len())

	got, ok := reg.Get(conn.ID())
	require.True(t, ok)
	assert.Same(t, conn, got)

	assert.ErrorIs(t, reg.Register(conn), stream.ErrDuplicateConnection)

	replaced, err := reg.Subscribe(conn, stream.Hashtag("go"), stream.Filter{})
	require.NoError(t, err)
	assert.False(t, replaced)
	replaced, err = reg.Subscribe(conn, stream.Hashtag("go"), stream.NewFilter(nil, true))
	require.NoError(t, err)
	assert.True(t, replaced)

	subs := reg.SubscribersFor("hashtag:go")
	require.Len(t, subs, 1)
	assert.Same(t, conn, subs[0].Conn)
	assert.True(t, subs[0].Subscription.Filter.MediaOnly)

	_, err = reg.Subscribe(conn, stream.User(), stream.Filter{})
	require.NoError(t, err)
	assert.Len(t, reg.SubscribersFor("user:alice"), 1)
	assert.Empty(t, reg.SubscribersFor("user:bob"))

	assert.Equal(t, []*stream.Connection{conn}, reg.Connections("alice"))
	assert.Empty(t, reg.Connections("bob"))

	st := reg.Stats()
	assert.Equal(t, 1, st.Connections)
	assert.Equal(t, map[string]int{"hashtag": 1, "user": 1}, st.Subscriptions)

	assert.True(t, reg.Unsubscribe(conn, stream.Hashtag("go")))
	assert.False(t, reg.Unsubscribe(conn, stream.Hashtag("go")))
	assert.Empty(t, reg.SubscribersFor("hashtag:go"))

	assert.True(t, reg.Unregister(conn, stream.ErrClientClosed))
	assert.False(t, reg.Unregister(conn, stream.ErrClientClosed), "unregister is idempotent")
	assert.Equal(t, 0, reg.Len())
	assert.Empty(t, reg.SubscribersFor("user:alice"))

	_, err = reg.Subscribe(conn, stream.Public(), stream.Filter{})
	assert.ErrorIs(t, err, stream.ErrConnectionClosed)
	assert.ErrorIs(t, conn.Subscribe(ctx, stream.Public(), stream.Filter{}), stream.ErrConnectionClosed)
	<-conn.Done()
}

func TestRegistry_Close(t *testing.T) {
	t.Parallel()

	hub := newTestHub(t, nil, testConfig())
	reg := hub.Registry()
	for range 3 {
		connect(t, hub, "alice", stream.Public())
	}

	assert.Equal(t, 3, reg.Close(stream.ErrShutdown))
	assert.Equal(t, 0, reg.Len())
	assert.Empty(t, reg.SubscribersFor("public"))
	assert.Equal(t, 0, reg.Close(stream.ErrShutdown))

	_, err := hub.Connect(context.Background(), "bob", newFakeTransport())
	assert.ErrorIs(t, err, stream.ErrHubClosed)
}

func TestRegistry_Concurrent(t *testing.T) {
	t.Parallel()

	hub := newTestHub(t, nil, testConfig())
	reg := hub.Registry()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn, err := hub.Connect(ctx, fmt.Sprintf("acct-%d", i%4), newFakeTransport())
			if !assert.NoError(t, err) {
				return
			}
			for j := range 20 {
				sel := stream.Hashtag(fmt.Sprintf("t%d", j%5))
				_ = conn.Subscribe(ctx, sel, stream.Filter{})
				_ = reg.SubscribersFor("hashtag:t1")
				if j%3 == 0 {
					conn.Unsubscribe(sel)
				}
			}
			if i%2 == 0 {
				conn.Close()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 8, reg.Len())
	for _, s := range reg.SubscribersFor("hashtag:t1") {
		assert.NoError(t, s.Conn.Err(), "closed connections must not stay indexed")
	}
}
