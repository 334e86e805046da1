package auth

import (
	"encoding/json"
	"net/http"
)

// ErrorHandlerFunc writes the response for a rejected request.
type ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)

// MiddlewareConfig configures Middleware.
type MiddlewareConfig struct {
	Extractor    TokenExtractorFunc // defaults to DefaultExtractor
	ErrorHandler ErrorHandlerFunc   // defaults to a 401 JSON body
}

// Middleware verifies the request's access token and stores the Identity in the
// request context. Requests without a valid token never reach next.
func Middleware(v *Verifier) func(http.Handler) http.Handler {
	return MiddlewareWithConfig(v, MiddlewareConfig{})
}

// MiddlewareWithConfig is Middleware with a custom extractor or error handler.
func MiddlewareWithConfig(v *Verifier, cfg MiddlewareConfig) func(http.Handler) http.Handler {
	if cfg.Extractor == nil {
		cfg.Extractor = DefaultExtractor
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = unauthorized
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := cfg.Extractor(r)
			if err != nil {
				cfg.ErrorHandler(w, r, err)
				return
			}
			id, err := v.Verify(token)
			if err != nil {
				cfg.ErrorHandler(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func unauthorized(w http.ResponseWriter, _ *http.Request, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
