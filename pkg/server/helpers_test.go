package server_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/streamhub/pkg/auth"
	"github.com/dmitrymomot/streamhub/pkg/logger"
	"github.com/dmitrymomot/streamhub/pkg/relationship"
	"github.com/dmitrymomot/streamhub/pkg/server"
	"github.com/dmitrymomot/streamhub/pkg/stream"
)

type testEnv struct {
	hub      *stream.Hub
	rels     *relationship.Memory
	verifier *auth.Verifier
	srv      *httptest.Server
}

func newTestEnv(t *testing.T, opts ...server.HandlerOption) *testEnv {
	t.Helper()
	return newTestEnvConfig(t, server.Config{PongWait: time.Minute}, opts...)
}

func newTestEnvConfig(t *testing.T, cfg server.Config, opts ...server.HandlerOption) *testEnv {
	t.Helper()

	rels := relationship.NewMemory()
	hub, err := stream.New(rels,
		stream.WithLogger(logger.Nop()),
		stream.WithConfig(stream.Config{IdleTimeout: time.Minute, HeartbeatInterval: time.Minute, WriteTimeout: time.Second}),
	)
	require.NoError(t, err)

	verifier, err := auth.NewVerifier(auth.Config{SigningKey: "server-test-signing-key"})
	require.NoError(t, err)

	opts = append([]server.HandlerOption{server.WithHandlerLogger(logger.Nop())}, opts...)
	h := server.NewHandler(hub, verifier, cfg, opts...)
	srv := httptest.NewServer(h.Routes())

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hub.Close(ctx)
		srv.Close()
	})

	return &testEnv{hub: hub, rels: rels, verifier: verifier, srv: srv}
}

func (e *testEnv) token(t *testing.T, accountID, scope string) string {
	t.Helper()
	token, err := e.verifier.Issue(auth.Claims{Subject: accountID, Scope: scope})
	require.NoError(t, err)
	return token
}

// waitSubscriptions blocks until the hub reports n subscriptions of kind.
func (e *testEnv) waitSubscriptions(t *testing.T, kind stream.SelectorKind, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return e.hub.Stats().Subscriptions[kind.String()] == n
	}, 2*time.Second, 5*time.Millisecond)
}

func publicStatus(t *testing.T, id, author string) *stream.Event {
	t.Helper()
	ev, err := stream.NewStatusEvent(stream.EventStatusCreated, stream.StatusRef{
		ID: id, AuthorID: author, Visibility: stream.VisibilityPublic, Local: true,
	}, []byte(`{"id":"`+id+`"}`))
	require.NoError(t, err)
	return ev
}
