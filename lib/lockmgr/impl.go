package lockmgr

import (
	"bytes"

	"github.com/ValentinKolb/redispool/lib/store"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("lockmgr")

type lockMgrImpl struct {
	store store.IStore
}

func NewLockManager(store store.IStore) ILockManager {
	return &lockMgrImpl{
		store: store,
	}
}

func (lm *lockMgrImpl) AcquireLock(key string, timeout uint64) (bool, []byte, error) {
	ownerID, err := generateOwnerID()
	if err != nil {
		return false, nil, err
	}

	// Try to acquire the lock (the value is only set if the key doesn't exist)
	if err = lm.store.SetEIfUnset(key, ownerID, timeout); err != nil {
		Logger.Errorf("failed to set lock %s: %v", key, err)
		return false, nil, err
	}

	// Check if the lock was acquired
	value, found, err := lm.store.Get(key)
	if err != nil {
		return false, nil, err
	}

	// the lock was acquired BY US
	if found && bytes.Equal(value, ownerID) {
		Logger.Debugf("acquired lock %s", key)
		return true, ownerID, nil
	}
	return false, nil, nil
}

func (lm *lockMgrImpl) ReleaseLock(key string, ownerID []byte) (bool, error) {
	deleted, err := lm.store.CompareAndDelete(key, ownerID)
	if err != nil || deleted {
		return deleted, err
	}

	// the lock is held by someone else, or it doesn't exist (anymore)
	has, err := lm.store.Has(key)
	if err != nil {
		return false, err
	}
	return !has, nil
}
