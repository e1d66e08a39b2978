// Package testing provides a standardised test suite for implementations of
// the store.IStore interface.
//
// Example usage:
//
//	factory := func(t *testing.T) (store.IStore, func(time.Duration)) {
//		s := miniredis.RunT(t)
//		// ... create a pool for s.Addr()
//		return rstore.NewRedisStore(p), s.FastForward
//	}
//
//	storetesting.RunStoreTests(t, "RedisStore", factory)
package testing
