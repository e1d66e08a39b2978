// Package store provides a high-level interface for key-value storage operations
// with expiration and unified error handling, implemented on top of pooled redis
// connections.
//
// Key Components:
//
//   - IStore Interface: The core abstraction defining operations for interacting with
//     a key-value store. The interface methods return the custom Error type.
//
//   - Error System: Errors carry a return code that distinguishes failures of the
//     connection or pool (RetCInternalError) from commands rejected by the server
//     (RetCInvalidOperation).
//
// Implementations:
//
//	- Redis Store (rstore): Every operation checks out one connection from a
//	  redispool.Pool, sends a single command and returns the connection.
//	  Available in the "github.com/ValentinKolb/redispool/lib/store/rstore" package.
//
// A reusable conformance suite for IStore implementations is available in the
// "github.com/ValentinKolb/redispool/lib/store/testing" package.
package store
