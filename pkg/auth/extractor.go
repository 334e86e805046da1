package auth

import (
	"net/http"
	"strings"
)

// TokenExtractorFunc pulls an access token out of a request.
type TokenExtractorFunc func(r *http.Request) (string, error)

// BearerTokenExtractor reads "Authorization: Bearer <token>".
func BearerTokenExtractor(r *http.Request) (string, error) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

// QueryTokenExtractor reads the token from a query parameter. Browsers cannot set
// headers on EventSource or WebSocket requests, so streaming clients use this.
func QueryTokenExtractor(param string) TokenExtractorFunc {
	return func(r *http.Request) (string, error) {
		token := r.URL.Query().Get(param)
		if token == "" {
			return "", ErrMissingToken
		}
		return token, nil
	}
}

// ProtocolTokenExtractor reads the token from the first Sec-WebSocket-Protocol
// value, where browser WebSocket clients can smuggle it.
func ProtocolTokenExtractor(r *http.Request) (string, error) {
	first, _, _ := strings.Cut(r.Header.Get("Sec-WebSocket-Protocol"), ",")
	if first = strings.TrimSpace(first); first == "" {
		return "", ErrMissingToken
	}
	return first, nil
}

// ChainExtractors tries each extractor in order and returns the first token found.
func ChainExtractors(extractors ...TokenExtractorFunc) TokenExtractorFunc {
	return func(r *http.Request) (string, error) {
		for _, extract := range extractors {
			if token, err := extract(r); err == nil {
				return token, nil
			}
		}
		return "", ErrMissingToken
	}
}

// DefaultExtractor checks the Authorization header, then access_token, then the
// WebSocket subprotocol.
var DefaultExtractor = ChainExtractors(
	BearerTokenExtractor,
	QueryTokenExtractor("access_token"),
	ProtocolTokenExtractor,
)
