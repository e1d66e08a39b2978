// Package rstore implements store.IStore on top of a redispool.Pool. Each operation
// checks out one connection, sends a single command (SET, GET, EXISTS, DEL, DBSIZE or the
// compare-and-delete script) and returns the connection to the pool, so the store can be
// shared by any number of goroutines.
package rstore
