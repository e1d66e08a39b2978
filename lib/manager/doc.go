// Package manager implements the connection manager that lets a generic connection pool
// manage redis connections. It translates the pool's capability set (IConnectionManager:
// Connect, IsValid, HasBroken) into calls of the redigo client library and adds no state
// of its own.
//
// Key Components:
//
//   - IConnectionManager: The generic capability set consumed by the pool package.
//
//   - RedisManager: Implementation for redigo connections. The connection URL is parsed
//     by redigo when the manager is created (without opening a socket); Connect dials
//     the server, IsValid sends a PING and expects PONG, HasBroken checks the local
//     error flag of the connection (redis.Conn.Err) without any I/O.
//
//   - ConfigurationError / ConnectionError: Typed errors wrapping the errors of the
//     client library for a rejected URL and for failed connects or liveness checks.
//
// Usage Example:
//
//	m, err := manager.NewRedisManagerFromURL("redis://localhost:6379/0")
//	if err != nil {
//		// *manager.ConfigurationError
//	}
//	conn, err := m.Connect(ctx)
//	if err != nil {
//		// *manager.ConnectionError
//	}
//	defer conn.Close()
//	if err := m.IsValid(ctx, conn); err != nil {
//		// connection is not usable anymore
//	}
//
// Retry and backoff are not handled here, this is left to the pool.
package manager
