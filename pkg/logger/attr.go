package logger

import (
	"log/slog"
	"time"
)

// Empty attributes are dropped by slog handlers, so helpers return slog.Attr{}
// for missing values instead of logging blanks.

func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func ConnectionID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("connection_id", id)
}

func AccountID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("account_id", id)
}

// Stream records a stream name such as "hashtag:golang".
func Stream(name string) slog.Attr {
	return slog.String("stream", name)
}

func EventKind(kind string) slog.Attr {
	return slog.String("event_kind", kind)
}

// Reason records why a connection closed or a delivery was dropped.
func Reason(reason string) slog.Attr {
	return slog.String("reason", reason)
}

// Transport records "websocket" or "sse".
func Transport(name string) slog.Attr {
	return slog.String("transport", name)
}

func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

func Count(n int) slog.Attr {
	return slog.Int("count", n)
}
