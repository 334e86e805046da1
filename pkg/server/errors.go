package server

import "errors"

var (
	// ErrStart indicates that the server failed to start.
	ErrStart = errors.New("server: failed to start HTTP server")
	// ErrShutdown indicates that graceful shutdown failed.
	ErrShutdown = errors.New("server: failed to shutdown HTTP server gracefully")
	// ErrAlreadyRunning is returned by a second call to Run or Serve.
	ErrAlreadyRunning = errors.New("server: already running")
	// ErrStreamingUnsupported is returned when the response writer cannot flush.
	ErrStreamingUnsupported = errors.New("server: response does not support streaming")
	// ErrTooManyConnections is returned to clients opening streams too quickly.
	ErrTooManyConnections = errors.New("server: too many connection attempts")
)
