package stream_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/streamhub/pkg/logger"
	"github.com/dmitrymomot/streamhub/pkg/relationship"
	"github.com/dmitrymomot/streamhub/pkg/stream"
)

// fakeTransport records frames. When gate is set, every write waits for it.
type fakeTransport struct {
	mu       sync.Mutex
	frames   []stream.Frame
	writeErr error
	gate     chan struct{}
	writing  chan struct{}

	closeOnce sync.Once
	closed    chan struct{}
	cause     error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{closed: make(chan struct{})}
}

// newBlockedTransport returns a transport whose writes hang until release is
// closed. writing receives a value when the first write starts.
func newBlockedTransport() (tr *fakeTransport, release func()) {
	tr = newFakeTransport()
	tr.gate = make(chan struct{})
	tr.writing = make(chan struct{}, 1)
	var once sync.Once
	return tr, func() { once.Do(func() { close(tr.gate) }) }
}

func (f *fakeTransport) WriteFrame(ctx context.Context, fr stream.Frame) error {
	if f.gate != nil {
		select {
		case f.writing <- struct{}{}:
		default:
		}
		select {
		case <-f.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeTransport) Close(cause error) error {
	f.closeOnce.Do(func() {
		f.mu.Lock()
		f.cause = cause
		f.mu.Unlock()
		close(f.closed)
	})
	return nil
}

func (f *fakeTransport) Frames() []stream.Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]stream.Frame, len(f.frames))
	copy(out, f.frames)
	return out
}

// Events returns the frames except the initial "connected" frame.
func (f *fakeTransport) Events() []stream.Frame {
	var out []stream.Frame
	for _, fr := range f.Frames() {
		if fr.Event != stream.FrameConnected {
			out = append(out, fr)
		}
	}
	return out
}

func (f *fakeTransport) Cause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cause
}

func (f *fakeTransport) waitEvents(t *testing.T, n int) []stream.Frame {
	t.Helper()
	require.Eventually(t, func() bool { return len(f.Events()) >= n }, 2*time.Second, 5*time.Millisecond,
		"expected %d events", n)
	return f.Events()
}

func (f *fakeTransport) waitClosed(t *testing.T) {
	t.Helper()
	select {
	case <-f.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("transport was not closed")
	}
}

// pingTransport adds keep-alive support to fakeTransport.
type pingTransport struct {
	*fakeTransport
	mu    sync.Mutex
	pings int
}

func (p *pingTransport) Ping(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pings++
	return nil
}

func (p *pingTransport) Pings() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pings
}

func testConfig() stream.Config {
	cfg := stream.DefaultConfig()
	cfg.IdleTimeout = time.Minute
	cfg.HeartbeatInterval = time.Minute
	cfg.WriteTimeout = time.Second
	cfg.RegistryShards = 4
	return cfg
}

func newTestHub(t *testing.T, rels stream.RelationshipSource, cfg stream.Config) *stream.Hub {
	t.Helper()
	if rels == nil {
		rels = relationship.NewMemory()
	}
	hub, err := stream.New(rels, stream.WithConfig(cfg), stream.WithLogger(logger.Nop()))
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = hub.Close(ctx)
	})
	return hub
}

func connect(t *testing.T, hub *stream.Hub, accountID string, sels ...stream.Selector) (*stream.Connection, *fakeTransport) {
	t.Helper()
	tr := newFakeTransport()
	conn, err := hub.Connect(context.Background(), accountID, tr)
	require.NoError(t, err)
	for _, sel := range sels {
		require.NoError(t, conn.Subscribe(context.Background(), sel, stream.Filter{}))
	}
	return conn, tr
}

func statusEvent(t *testing.T, kind stream.EventKind, st stream.StatusRef) *stream.Event {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"id": st.ID})
	require.NoError(t, err)
	ev, err := stream.NewStatusEvent(kind, st, payload)
	require.NoError(t, err)
	return ev
}

func publicStatus(t *testing.T, id, author string, tags ...string) *stream.Event {
	t.Helper()
	return statusEvent(t, stream.EventStatusCreated, stream.StatusRef{
		ID:         id,
		AuthorID:   author,
		Visibility: stream.VisibilityPublic,
		Local:      true,
		Language:   "en",
		Tags:       tags,
	})
}
