package manager

import "fmt"

// ConfigurationError is returned when the redis client library rejects the connection URL
// or the connection options.
type ConfigurationError struct {
	Target string // redacted URL
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid redis configuration %q: %v", e.Target, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ConnectionError is returned when opening a connection or the liveness check fails.
type ConnectionError struct {
	Op     string // "connect" or "ping"
	Target string // redacted URL
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("redis %s %s failed: %v", e.Op, e.Target, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
