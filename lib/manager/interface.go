package manager

import "context"

// IConnectionManager is the capability set a connection pool needs to manage connections
// of type C. The pool is the only caller of these methods.
type IConnectionManager[C comparable] interface {
	// Connect opens a new connection. It is called whenever the pool needs a connection
	// (below the minimum idle count or to replace an invalidated one).
	Connect(ctx context.Context) (C, error)

	// IsValid checks whether the connection is still usable by sending a request over it.
	// A nil error means the connection is valid. The call blocks on network I/O.
	IsValid(ctx context.Context, conn C) error

	// HasBroken reports whether the connection is known to be broken. It must not perform
	// any I/O and is used as a cheap pre-filter before IsValid.
	HasBroken(conn C) bool
}
