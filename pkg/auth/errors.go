package auth

import "errors"

var (
	ErrMissingToken            = errors.New("auth: missing access token")
	ErrInvalidToken            = errors.New("auth: invalid access token")
	ErrExpiredToken            = errors.New("auth: access token is expired")
	ErrInvalidSignature        = errors.New("auth: invalid token signature")
	ErrUnexpectedSigningMethod = errors.New("auth: unexpected signing method")
	ErrMissingSigningKey       = errors.New("auth: missing signing key")
	ErrMissingSubject          = errors.New("auth: token has no subject")
	ErrIssuerMismatch          = errors.New("auth: token issuer mismatch")
	ErrInsufficientScope       = errors.New("auth: insufficient scope")
)
