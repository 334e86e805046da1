package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	headerType      = "JWT"
	headerAlgorithm = "HS256"
)

type header struct {
	Type      string `json:"typ"`
	Algorithm string `json:"alg"`
}

// Claims is the payload of a streaming access token. Temporal claims are Unix
// seconds; zero means unset.
type Claims struct {
	ID        string `json:"jti,omitempty"`
	Subject   string `json:"sub"` // account id
	Issuer    string `json:"iss,omitempty"`
	Scope     string `json:"scope,omitempty"` // space separated
	ExpiresAt int64  `json:"exp,omitempty"`
	NotBefore int64  `json:"nbf,omitempty"`
	IssuedAt  int64  `json:"iat,omitempty"`
}

// Verifier signs and verifies HMAC-SHA256 access tokens.
type Verifier struct {
	signingKey []byte
	issuer     string
	leeway     time.Duration
	now        func() time.Time
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) {
		if now != nil {
			v.now = now
		}
	}
}

// NewVerifier creates a verifier from cfg. The signing key is required.
func NewVerifier(cfg Config, opts ...VerifierOption) (*Verifier, error) {
	if cfg.SigningKey == "" {
		return nil, ErrMissingSigningKey
	}
	v := &Verifier{
		signingKey: []byte(cfg.SigningKey),
		issuer:     cfg.Issuer,
		leeway:     max(cfg.Leeway, 0),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Issue signs claims. The streaming server never issues tokens itself; Issue
// exists for the API server side and for tests.
func (v *Verifier) Issue(claims Claims) (string, error) {
	if claims.Subject == "" {
		return "", ErrMissingSubject
	}
	if claims.Issuer == "" {
		claims.Issuer = v.issuer
	}

	headerJSON, err := json.Marshal(header{Type: headerType, Algorithm: headerAlgorithm})
	if err != nil {
		return "", fmt.Errorf("failed to marshal header: %w", err)
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to marshal claims: %w", err)
	}

	payload := encode(headerJSON) + "." + encode(claimsJSON)
	return payload + "." + v.sign(payload), nil
}

// Verify checks the token signature and temporal claims and returns the identity
// it grants.
func (v *Verifier) Verify(token string) (Identity, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Identity{}, ErrInvalidToken
	}

	payload := parts[0] + "." + parts[1]
	if subtle.ConstantTimeCompare([]byte(parts[2]), []byte(v.sign(payload))) != 1 {
		return Identity{}, ErrInvalidSignature
	}

	var h header
	if err := decodeJSON(parts[0], &h); err != nil {
		return Identity{}, err
	}
	// Reject algorithm confusion even though the signature already matched.
	if h.Algorithm != headerAlgorithm {
		return Identity{}, ErrUnexpectedSigningMethod
	}

	var c Claims
	if err := decodeJSON(parts[1], &c); err != nil {
		return Identity{}, err
	}
	if err := v.validate(c); err != nil {
		return Identity{}, err
	}

	id := Identity{
		AccountID: c.Subject,
		TokenID:   c.ID,
		Scopes:    ParseScopes(c.Scope),
	}
	if c.ExpiresAt > 0 {
		id.ExpiresAt = time.Unix(c.ExpiresAt, 0)
	}
	return id, nil
}

func (v *Verifier) validate(c Claims) error {
	if c.Subject == "" {
		return ErrMissingSubject
	}
	if v.issuer != "" && c.Issuer != v.issuer {
		return ErrIssuerMismatch
	}

	now := v.now()
	if c.ExpiresAt > 0 && now.Add(-v.leeway).Unix() > c.ExpiresAt {
		return ErrExpiredToken
	}
	if c.NotBefore > 0 && now.Add(v.leeway).Unix() < c.NotBefore {
		return ErrInvalidToken
	}
	return nil
}

func (v *Verifier) sign(payload string) string {
	h := hmac.New(sha256.New, v.signingKey)
	h.Write([]byte(payload))
	return encode(h.Sum(nil))
}

func encode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

func decodeJSON(segment string, dst any) error {
	raw, err := base64.RawURLEncoding.DecodeString(segment)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return nil
}
