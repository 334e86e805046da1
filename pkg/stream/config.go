package stream

import (
	"fmt"
	"time"
)

// Config tunes the fan-out core. Zero values are replaced with the defaults.
type Config struct {
	// QueueSize is the capacity of every connection's delivery channel.
	QueueSize int `env:"STREAM_QUEUE_SIZE" envDefault:"100"`
	// DropThreshold is the number of drops within DropWindow that disconnects
	// a connection. Negative disables slow consumer disconnects.
	DropThreshold int           `env:"STREAM_DROP_THRESHOLD" envDefault:"50"`
	DropWindow    time.Duration `env:"STREAM_DROP_WINDOW" envDefault:"30s"`
	// IdleTimeout closes connections without deliveries or client heartbeats.
	IdleTimeout time.Duration `env:"STREAM_IDLE_TIMEOUT" envDefault:"2m"`
	// HeartbeatInterval is how often transports implementing Pinger are pinged.
	HeartbeatInterval time.Duration `env:"STREAM_HEARTBEAT_INTERVAL" envDefault:"15s"`
	WriteTimeout      time.Duration `env:"STREAM_WRITE_TIMEOUT" envDefault:"10s"`
	MaxSubscriptions  int           `env:"STREAM_MAX_SUBSCRIPTIONS" envDefault:"32"`
	RegistryShards    int           `env:"STREAM_REGISTRY_SHARDS" envDefault:"32"`
}

// DefaultConfig returns the configuration used when no Config is supplied.
func DefaultConfig() Config {
	return Config{
		QueueSize:         100,
		DropThreshold:     50,
		DropWindow:        30 * time.Second,
		IdleTimeout:       2 * time.Minute,
		HeartbeatInterval: 15 * time.Second,
		WriteTimeout:      10 * time.Second,
		MaxSubscriptions:  32,
		RegistryShards:    32,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.QueueSize == 0 {
		c.QueueSize = def.QueueSize
	}
	if c.DropThreshold == 0 {
		c.DropThreshold = def.DropThreshold
	}
	if c.DropWindow == 0 {
		c.DropWindow = def.DropWindow
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = def.IdleTimeout
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = def.HeartbeatInterval
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.MaxSubscriptions == 0 {
		c.MaxSubscriptions = def.MaxSubscriptions
	}
	if c.RegistryShards == 0 {
		c.RegistryShards = def.RegistryShards
	}
	return c
}

func (c Config) validate() error {
	switch {
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.DropWindow < 0:
		return fmt.Errorf("%w: drop window must not be negative, got %v", ErrInvalidConfig, c.DropWindow)
	case c.IdleTimeout < 0, c.HeartbeatInterval < 0, c.WriteTimeout < 0:
		return fmt.Errorf("%w: timeouts must not be negative", ErrInvalidConfig)
	case c.MaxSubscriptions < 0:
		return fmt.Errorf("%w: max subscriptions must not be negative, got %d", ErrInvalidConfig, c.MaxSubscriptions)
	case c.RegistryShards < 1:
		return fmt.Errorf("%w: registry shards must be positive, got %d", ErrInvalidConfig, c.RegistryShards)
	}
	return nil
}
