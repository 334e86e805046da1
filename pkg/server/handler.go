package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/streamhub/pkg/auth"
	"github.com/dmitrymomot/streamhub/pkg/logger"
	"github.com/dmitrymomot/streamhub/pkg/stream"
)

// Handler exposes a hub over HTTP: WebSocket and server-sent events endpoints,
// health probes, stats and metrics.
type Handler struct {
	hub      *stream.Hub
	verifier *auth.Verifier
	cfg      Config
	logger   *slog.Logger
	metrics  http.Handler
	checks   []func(context.Context) error
	upgrader websocket.Upgrader
	limiter  *connectLimiter
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

func WithHandlerLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(m http.Handler) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

// WithReadinessCheck adds a dependency probe to the readiness endpoint.
func WithReadinessCheck(fn func(context.Context) error) HandlerOption {
	return func(h *Handler) {
		if fn != nil {
			h.checks = append(h.checks, fn)
		}
	}
}

// NewHandler creates the HTTP surface for hub. Tokens are checked with verifier.
func NewHandler(hub *stream.Hub, verifier *auth.Verifier, cfg Config, opts ...HandlerOption) *Handler {
	def := DefaultConfig()
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = def.PongWait
	}

	h := &Handler{
		hub:      hub,
		verifier: verifier,
		cfg:      cfg,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With(logger.Component("server"))
	h.limiter = newConnectLimiter(cfg.ConnectBurst, cfg.ConnectRefill)
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Routes returns the router:
//
//	GET /api/v1/streaming                 WebSocket, multiplexed subscriptions
//	GET /api/v1/streaming/health          liveness
//	GET /api/v1/streaming/health/ready    readiness
//	GET /api/v1/streaming/stats           hub statistics
//	GET /api/v1/streaming/*               server-sent events, one stream per request
//	GET /metrics                          Prometheus metrics, when configured
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/api/v1/streaming/health", h.liveness)
	r.Get("/api/v1/streaming/health/ready", h.readiness)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics)
	}

	authenticate := auth.MiddlewareWithConfig(h.verifier, auth.MiddlewareConfig{ErrorHandler: h.unauthorized})
	r.With(authenticate).Get("/api/v1/streaming/stats", h.stats)
	r.Group(func(r chi.Router) {
		r.Use(h.limitConnections, authenticate)
		r.Get("/api/v1/streaming", h.serveWebSocket)
		r.Get("/api/v1/streaming/*", h.serveEvents)
	})
	return r
}

func (h *Handler) liveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ALIVE"))
}

func (h *Handler) readiness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	for _, check := range h.checks {
		if err := check(r.Context()); err != nil {
			h.logger.LogAttrs(r.Context(), slog.LevelError, "readiness check failed", logger.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("NOT_READY"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("READY"))
}

func (h *Handler) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.hub.Stats())
}

func (h *Handler) unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.LogAttrs(r.Context(), slog.LevelDebug, "streaming request rejected", logger.Error(err))
	writeError(w, http.StatusUnauthorized, err)
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return slices.ContainsFunc(h.cfg.AllowedOrigins, func(o string) bool {
		return strings.EqualFold(o, origin)
	})
}

// statusFor maps subscription errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrInsufficientScope), errors.Is(err, stream.ErrForbiddenStream):
		return http.StatusForbidden
	case errors.Is(err, stream.ErrHubClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, stream.ErrTooManySubscriptions):
		return http.StatusTooManyRequests
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
