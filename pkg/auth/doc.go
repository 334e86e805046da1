// Package auth authenticates streaming clients.
//
// Access tokens are compact HS256 JWTs signed with a key shared with the API
// server. The subject is the account id and the "scope" claim is a space
// separated OAuth scope list. Streaming needs read:statuses for timelines and
// read:notifications for the notification stream; the parent "read" scope covers
// both.
//
// Tokens are taken from the Authorization header, the access_token query
// parameter or the Sec-WebSocket-Protocol header, in that order:
//
//	v, err := auth.NewVerifier(auth.Config{SigningKey: key})
//	r.With(auth.Middleware(v)).Get("/api/v1/streaming", ws.ServeHTTP)
//
//	id, _ := auth.IdentityFromContext(r.Context())
//	if err := id.Authorize(stream.Public()); err != nil {
//		// 403
//	}
package auth
