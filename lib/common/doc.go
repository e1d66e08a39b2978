// Package common provides the configuration structures and the logging setup
// shared by all packages of the module.
//
// Key Components:
//
//   - ClientConfig: Bundles the ConnectionConfig (redis URL, timeouts, transport)
//     and the PoolConfig (size limits, checkout/idle/lifetime policy). Both have a
//     String() representation for the CLI and a Validate() method.
//
//   - Logger: Custom logging implementation that plugs into Dragonboat's logger
//     package, so every package obtains its logger with logger.GetLogger(name)
//     and InitLoggers configures all of them at once.
package common
