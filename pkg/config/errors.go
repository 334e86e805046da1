package config

import "errors"

var (
	// ErrParsingConfig wraps failures of the env struct tag parser.
	ErrParsingConfig = errors.New("config: parse environment")

	// ErrLoadingEnvFile wraps failures reading a dotenv file.
	ErrLoadingEnvFile = errors.New("config: load env file")

	// ErrNilPointer is returned by Load for a nil destination.
	ErrNilPointer = errors.New("config: nil destination")
)
