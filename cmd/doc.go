// Package cmd implements the command-line interface of redispool. It creates a
// pool from flags and environment variables and runs commands on pooled connections.
//
// The package is organized into several subpackages:
//
//   - ping: Checks out connections concurrently and pings the server
//   - kv: Key-value operations on pooled connections (get, set, delete, perf, etc.)
//   - lock: Locking operations (acquire, release)
//   - util: Shared flags and configuration handling (internal use)
//
// See redispool -help for a list of all commands.
package cmd
