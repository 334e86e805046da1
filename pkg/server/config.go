package server

import "time"

// Config is read from the environment. There is no write timeout: streaming
// responses are long lived and per-frame deadlines are set by the transports.
type Config struct {
	Addr              string        `env:"HTTP_ADDR" envDefault:":4000"`
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"10s"`
	IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// AllowedOrigins restricts WebSocket upgrades by Origin. Empty allows any
	// origin; access tokens are the actual gate.
	AllowedOrigins []string `env:"HTTP_ALLOWED_ORIGINS" envSeparator:","`

	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool `env:"HTTP_TRUST_PROXY_HEADERS" envDefault:"false"`

	// ConnectBurst new streaming connections are accepted per client address,
	// refilled by one every ConnectRefill. Zero disables the limit.
	ConnectBurst  int           `env:"HTTP_CONNECT_BURST" envDefault:"20"`
	ConnectRefill time.Duration `env:"HTTP_CONNECT_REFILL" envDefault:"3s"`

	MaxMessageSize int64         `env:"WS_MAX_MESSAGE_SIZE" envDefault:"4096"`
	PongWait       time.Duration `env:"WS_PONG_WAIT" envDefault:"60s"`
}

// DefaultConfig mirrors the envDefault tags.
func DefaultConfig() Config {
	return Config{
		Addr:              ":4000",
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		ConnectBurst:      20,
		ConnectRefill:     3 * time.Second,
		MaxMessageSize:    4096,
		PongWait:          60 * time.Second,
	}
}
