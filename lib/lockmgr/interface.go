package lockmgr

// ILockManager defines the interface for a lock manager.
type ILockManager interface {
	// AcquireLock acquires the lock for the given key. If timeout is greater than zero the
	// lock is released automatically after timeout seconds.
	// Returns whether the lock was acquired and, if so, the owner ID needed to release it.
	AcquireLock(key string, timeout uint64) (ok bool, ownerID []byte, err error)

	// ReleaseLock releases the lock for the given key if it is held by ownerID.
	// Returns true if the lock was released or did not exist (anymore).
	ReleaseLock(key string, ownerID []byte) (ok bool, err error)
}
