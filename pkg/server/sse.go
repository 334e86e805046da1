package server

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/streamhub/pkg/auth"
	"github.com/dmitrymomot/streamhub/pkg/logger"
	"github.com/dmitrymomot/streamhub/pkg/stream"
)

// sseTransport writes frames as server-sent events. The keep-alive is a
// ":thump" comment line.
type sseTransport struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

func (t *sseTransport) WriteFrame(ctx context.Context, f stream.Frame) error {
	var b bytes.Buffer
	b.WriteString("event: ")
	b.WriteString(f.Event)
	b.WriteByte('\n')
	for line := range bytes.SplitSeq(f.Payload, []byte("\n")) {
		b.WriteString("data: ")
		b.Write(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return t.write(ctx, b.Bytes())
}

func (t *sseTransport) Ping(ctx context.Context) error {
	return t.write(ctx, []byte(":thump\n\n"))
}

// Close is a no-op: the handler returns once the connection is done, which ends
// the response.
func (t *sseTransport) Close(error) error { return nil }

func (t *sseTransport) write(ctx context.Context, data []byte) error {
	if deadline, ok := ctx.Deadline(); ok {
		_ = t.rc.SetWriteDeadline(deadline)
	}
	if _, err := t.w.Write(data); err != nil {
		return err
	}
	return t.rc.Flush()
}

// sseSelector maps the path below /api/v1/streaming/ to a selector:
// "public/local" becomes "public:local", "user/notification" "user:notification".
func sseSelector(r *http.Request) (stream.Selector, stream.Filter, error) {
	name := strings.ReplaceAll(strings.Trim(chi.URLParam(r, "*"), "/"), "/", ":")
	q := r.URL.Query()

	sel, mediaOnly, err := stream.ParseSelector(name, q.Get("tag"), q.Get("list"))
	if err != nil {
		return stream.Selector{}, stream.Filter{}, err
	}
	if v, err := strconv.ParseBool(q.Get("only_media")); err == nil && v {
		mediaOnly = true
	}
	return sel, stream.NewFilter(q["languages_excluded[]"], mediaOnly), nil
}

// serveEvents streams a single selector as text/event-stream.
func (h *Handler) serveEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, _ := auth.IdentityFromContext(ctx)

	sel, filter, err := sseSelector(r)
	if err == nil {
		err = id.Authorize(sel)
	}
	if err == nil {
		err = h.hub.Authorize(ctx, id.AccountID, sel)
	}
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.logger.LogAttrs(ctx, slog.LevelError, "event stream not supported",
			logger.Error(errors.Join(ErrStreamingUnsupported, err)))
		return
	}

	conn, err := h.hub.Connect(ctx, id.AccountID, &sseTransport{w: w, rc: rc})
	if err != nil {
		h.logger.LogAttrs(ctx, slog.LevelWarn, "streaming connection rejected",
			logger.Transport("sse"),
			logger.AccountID(id.AccountID),
			logger.Error(err),
		)
		return
	}
	if err := conn.Subscribe(ctx, sel, filter); err != nil {
		conn.SendError(err)
		h.logger.LogAttrs(ctx, slog.LevelWarn, "event stream subscription failed",
			logger.ConnectionID(conn.ID()),
			logger.Stream(sel.String()),
			logger.Error(err),
		)
		conn.Close()
	}
	<-conn.Done()
}
