package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/streamhub/pkg/auth"
	"github.com/dmitrymomot/streamhub/pkg/logger"
	"github.com/dmitrymomot/streamhub/pkg/stream"
)

// wsMessage is the WebSocket wire format. The payload is a JSON document
// encoded as a string, which is what existing streaming clients expect.
type wsMessage struct {
	Stream  []string `json:"stream,omitempty"`
	Event   string   `json:"event"`
	Payload string   `json:"payload,omitempty"`
}

// wsTransport adapts a gorilla connection to stream.Transport. WriteFrame and
// Ping are only called from the hub's writer goroutine.
type wsTransport struct {
	conn *websocket.Conn
}

func (t *wsTransport) WriteFrame(ctx context.Context, f stream.Frame) error {
	data, err := json.Marshal(wsMessage{Stream: f.Stream, Event: f.Event, Payload: string(f.Payload)})
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = t.conn.SetWriteDeadline(deadline)
	}
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) Ping(ctx context.Context) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(10 * time.Second)
	}
	return t.conn.WriteControl(websocket.PingMessage, nil, deadline)
}

func (t *wsTransport) Close(cause error) error {
	code, text := closeCode(cause)
	_ = t.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(time.Second))
	return t.conn.Close()
}

func closeCode(cause error) (int, string) {
	switch {
	case errors.Is(cause, stream.ErrShutdown):
		return websocket.CloseGoingAway, "server shutting down"
	case errors.Is(cause, stream.ErrSlowConsumer):
		return websocket.ClosePolicyViolation, "consumer too slow"
	case errors.Is(cause, stream.ErrIdleTimeout):
		return websocket.CloseNormalClosure, "idle timeout"
	case cause == nil, errors.Is(cause, stream.ErrClientClosed), errors.Is(cause, context.Canceled):
		return websocket.CloseNormalClosure, ""
	default:
		return websocket.CloseInternalServerErr, ""
	}
}

// serveWebSocket upgrades the request and runs the command read loop. An
// initial subscription may be requested with ?stream=&tag=&list=.
func (h *Handler) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())

	var initial *stream.Command
	if name := r.URL.Query().Get("stream"); name != "" {
		q := r.URL.Query()
		sel, mediaOnly, err := stream.ParseSelector(name, q.Get("tag"), q.Get("list"))
		if err == nil {
			err = id.Authorize(sel)
		}
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		initial = &stream.Command{Type: stream.CommandSubscribe, Selector: sel, Filter: stream.NewFilter(nil, mediaOnly)}
	}

	// Browsers pass the token as the subprotocol; it has to be echoed back.
	var header http.Header
	if token, err := auth.ProtocolTokenExtractor(r); err == nil {
		header = http.Header{}
		header.Set("Sec-WebSocket-Protocol", token)
	}

	ws, err := h.upgrader.Upgrade(w, r, header)
	if err != nil {
		// Upgrade has already replied.
		h.logger.LogAttrs(r.Context(), slog.LevelDebug, "websocket upgrade failed", logger.Error(err))
		return
	}
	ws.SetReadLimit(h.cfg.MaxMessageSize)

	conn, err := h.hub.Connect(r.Context(), id.AccountID, &wsTransport{conn: ws})
	if err != nil {
		h.logger.LogAttrs(r.Context(), slog.LevelWarn, "streaming connection rejected",
			logger.Transport("websocket"),
			logger.AccountID(id.AccountID),
			logger.Error(err),
		)
		code := websocket.CloseInternalServerErr
		if errors.Is(err, stream.ErrHubClosed) {
			code = websocket.CloseTryAgainLater
		}
		_ = ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, err.Error()), time.Now().Add(time.Second))
		_ = ws.Close()
		return
	}

	if initial != nil {
		_ = conn.Handle(r.Context(), *initial)
	}

	h.readLoop(r.Context(), ws, conn, id)
	conn.Close()
	<-conn.Done()
}

// readLoop processes client commands until the socket fails or the hub closes it.
func (h *Handler) readLoop(ctx context.Context, ws *websocket.Conn, conn *stream.Connection, id auth.Identity) {
	extend := func() { _ = ws.SetReadDeadline(time.Now().Add(h.cfg.PongWait)) }
	extend()
	ws.SetPongHandler(func(string) error {
		conn.Heartbeat()
		extend()
		return nil
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && conn.Err() == nil {
				h.logger.LogAttrs(ctx, slog.LevelDebug, "websocket read failed",
					logger.ConnectionID(conn.ID()),
					logger.Error(err),
				)
			}
			return
		}
		extend()

		cmd, err := stream.ParseCommand(data)
		if err != nil {
			conn.Heartbeat()
			conn.SendError(err)
			continue
		}
		if cmd.Type == stream.CommandSubscribe {
			if err := id.Authorize(cmd.Selector); err != nil {
				conn.Heartbeat()
				conn.SendError(&stream.SubscriptionError{
					Stream: cmd.Selector.String(),
					Err:    fmt.Errorf("%w: %w", stream.ErrForbiddenStream, err),
				})
				continue
			}
		}
		_ = conn.Handle(ctx, cmd)
	}
}
