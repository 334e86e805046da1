package auth

import (
	"slices"
	"strings"
	"time"

	"github.com/dmitrymomot/streamhub/pkg/stream"
)

const (
	ScopeRead              = "read"
	ScopeReadStatuses      = "read:statuses"
	ScopeReadNotifications = "read:notifications"

	scopeSeparator = " "
	scopeDelimiter = ":"
)

// ParseScopes splits a space separated scope list, dropping empty entries.
func ParseScopes(s string) []string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// JoinScopes is the inverse of ParseScopes.
func JoinScopes(scopes []string) string {
	return strings.Join(scopes, scopeSeparator)
}

// ScopeCovers reports whether the granted scope covers required.
// A parent scope covers its children: "read" covers "read:statuses".
func ScopeCovers(granted, required string) bool {
	return granted == required || strings.HasPrefix(required, granted+scopeDelimiter)
}

// RequiredScope returns the scope needed to read streams of the given kind.
func RequiredScope(kind stream.SelectorKind) string {
	if kind == stream.KindUserNotification {
		return ScopeReadNotifications
	}
	return ScopeReadStatuses
}

// Identity is the authenticated principal behind a streaming connection.
type Identity struct {
	AccountID string
	TokenID   string
	Scopes    []string
	ExpiresAt time.Time
}

// HasScope reports whether any granted scope covers required.
func (i Identity) HasScope(required string) bool {
	return slices.ContainsFunc(i.Scopes, func(granted string) bool {
		return ScopeCovers(granted, required)
	})
}

// Authorize returns ErrInsufficientScope if the identity may not read sel.
func (i Identity) Authorize(sel stream.Selector) error {
	if !i.HasScope(RequiredScope(sel.Kind)) {
		return ErrInsufficientScope
	}
	return nil
}
