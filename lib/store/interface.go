package store

import (
	"fmt"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IStore is the generic interface for interacting with a key–value store.
// Failed operations return an *Error.
type IStore interface {
	// Set inserts or updates a key–value pair.
	Set(key string, value []byte) (err error)
	// SetE inserts or updates a key–value pair that is deleted after deleteIn seconds.
	// A zero value for deleteIn means no deletion.
	SetE(key string, value []byte, deleteIn uint64) (err error)
	// SetEIfUnset inserts a key–value pair if the key does not exist.
	// If the key already exists, the old value is not updated, no matter the value of deleteIn.
	// No error is returned if the key already exists.
	SetEIfUnset(key string, value []byte, deleteIn uint64) (err error)
	// Delete deletes a key–value pair. The key should be removed from the store.
	Delete(key string) (err error)
	// CompareAndDelete deletes the key only if its current value equals value.
	// The boolean return value indicates whether the key was deleted.
	CompareAndDelete(key string, value []byte) (deleted bool, err error)
	// Get return the value for a key. The boolean return value indicates whether a value for the key was found.
	Get(key string) (value []byte, loaded bool, err error)
	// Has returns whether a key exists in the store.
	Has(key string) (loaded bool, err error)
	// Size returns the number of keys in the store.
	Size() (size uint64, err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and the cause of the error.
type Error struct {
	Code RetCode // The return code
	Err  error   // The cause
}

// Error implements the error interface.
func (e *Error) Error() string {
	errorCode := ""
	switch e.Code {
	case RetCInternalError:
		errorCode = "InternalError"
	case RetCInvalidOperation:
		errorCode = "InvalidOperation"
	default:
		errorCode = "Unknown"
	}

	return fmt.Sprintf("KVStoreError (code %s): %v", errorCode, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new KVStoreError with the given code and cause.
func NewError(code RetCode, err error) *Error {
	return &Error{
		Code: code,
		Err:  err,
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess          RetCode = iota // 0: Command executed successfully.
	RetCInternalError                   // 1: Command failed due to a connection or pool error.
	RetCInvalidOperation                // 2: Command was rejected by the server.
)
