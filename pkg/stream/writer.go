package stream

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/streamhub/pkg/logger"
)

// writer drains one connection's delivery channel into its transport. It is the
// only goroutine that touches the transport.
type writer struct {
	conn      *Connection
	transport Transport
	registry  *Registry
	cfg       Config
	logger    *slog.Logger
}

func (w *writer) run() {
	defer close(w.conn.done)
	cause := w.loop()
	w.shutdown(cause)
}

func (w *writer) loop() error {
	ctx := w.conn.ctx

	var heartbeat <-chan time.Time
	if _, ok := w.transport.(Pinger); ok && w.cfg.HeartbeatInterval > 0 {
		t := time.NewTicker(w.cfg.HeartbeatInterval)
		defer t.Stop()
		heartbeat = t.C
	}

	var idle <-chan time.Time
	if w.cfg.IdleTimeout > 0 {
		t := time.NewTicker(idleCheckInterval(w.cfg.IdleTimeout))
		defer t.Stop()
		idle = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return context.Cause(ctx)

		case d, ok := <-w.conn.queue:
			if !ok {
				return w.closedCause()
			}
			w.conn.touch(time.Now())
			if err := w.write(ctx, d.Frame()); err != nil {
				return w.failure(ctx, err)
			}

		case <-heartbeat:
			// A server ping is not client activity; only deliveries and
			// Heartbeat reset the idle clock.
			if err := w.ping(ctx); err != nil {
				return w.failure(ctx, err)
			}

		case now := <-idle:
			if now.Sub(w.conn.LastActivity()) >= w.cfg.IdleTimeout {
				return ErrIdleTimeout
			}
		}
	}
}

// failure prefers the cancel cause over the write error it provoked.
func (w *writer) failure(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return context.Cause(ctx)
	}
	return err
}

func (w *writer) write(ctx context.Context, f Frame) error {
	wctx, cancel := w.writeContext(ctx)
	defer cancel()
	if err := w.transport.WriteFrame(wctx, f); err != nil {
		return &TransportError{ConnectionID: w.conn.id, Err: err}
	}
	return nil
}

func (w *writer) ping(ctx context.Context) error {
	wctx, cancel := w.writeContext(ctx)
	defer cancel()
	if err := w.transport.(Pinger).Ping(wctx); err != nil {
		return &TransportError{ConnectionID: w.conn.id, Err: err}
	}
	return nil
}

func (w *writer) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if w.cfg.WriteTimeout > 0 {
		return context.WithTimeout(ctx, w.cfg.WriteTimeout)
	}
	return context.WithCancel(ctx)
}

// closedCause is used when the queue was closed by Unregister; the cancel cause
// was set right after.
func (w *writer) closedCause() error {
	<-w.conn.ctx.Done()
	return context.Cause(w.conn.ctx)
}

func (w *writer) shutdown(cause error) {
	if err := w.conn.state.fire(eventStop); err != nil {
		w.logger.Error("writer lifecycle", logger.Error(err))
	}

	w.registry.Unregister(w.conn, cause)

	if err := w.transport.Close(cause); err != nil && !errors.Is(err, ErrConnectionClosed) {
		w.logger.LogAttrs(context.Background(), slog.LevelDebug, "transport close failed",
			logger.ConnectionID(w.conn.id),
			logger.Error(err),
		)
	}

	if err := w.conn.state.fire(eventDrained); err != nil {
		w.logger.Error("writer lifecycle", logger.Error(err))
	}

	level := slog.LevelInfo
	var terr *TransportError
	if errors.As(cause, &terr) || errors.Is(cause, ErrSlowConsumer) {
		level = slog.LevelWarn
	}
	w.logger.LogAttrs(context.Background(), level, "stream connection closed",
		logger.ConnectionID(w.conn.id),
		logger.AccountID(w.conn.accountID),
		logger.Reason(CloseReason(cause)),
		logger.Duration(time.Since(w.conn.createdAt)),
		slog.Uint64("dropped", w.conn.Dropped()),
		logger.Error(causeDetail(cause)),
	)
}

// causeDetail hides the plain sentinel causes from the log line, they are
// already carried by the reason attribute.
func causeDetail(cause error) error {
	switch cause {
	case ErrClientClosed, ErrIdleTimeout, ErrShutdown, context.Canceled:
		return nil
	}
	return cause
}

func idleCheckInterval(timeout time.Duration) time.Duration {
	return max(timeout/4, 10*time.Millisecond)
}
