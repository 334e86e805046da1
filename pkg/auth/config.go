package auth

import "time"

// Config configures access token verification.
type Config struct {
	SigningKey string        `env:"AUTH_SIGNING_KEY"`
	Issuer     string        `env:"AUTH_ISSUER"`
	Leeway     time.Duration `env:"AUTH_LEEWAY" envDefault:"30s"`
}
