// Package lockmgr implements simple locks on top of a store.IStore.
//
// The lock manager has no state of its own, every lock lives in the store. It is
// therefore safe to create any number of lock managers on the same store, even one
// per operation.
//
// A lock is a key whose value is a random 256 bit owner ID:
//
//   - AcquireLock writes the owner ID with SetEIfUnset and reads it back. The lock
//     is acquired only if the stored value is our owner ID.
//   - With a timeout the key expires, so a crashed holder can not block the lock forever.
//   - ReleaseLock removes the key with CompareAndDelete, which only deletes the key if it
//     still holds the given owner ID.
//
// Usage Example:
//
//	lm := lockmgr.NewLockManager(rstore.NewRedisStore(p))
//
//	acquired, ownerID, err := lm.AcquireLock("resource:123", 30)
//	if err != nil {
//	    // Handle error
//	}
//
//	if acquired {
//	    // ...
//	    released, err := lm.ReleaseLock("resource:123", ownerID)
//	}
package lockmgr
