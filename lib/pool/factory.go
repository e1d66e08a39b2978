package pool

import (
	"context"
	"errors"
	"io"
	"time"

	gopool "github.com/jolestar/go-commons-pool/v2"
)

var (
	errBroken  = errors.New("connection is broken")
	errExpired = errors.New("connection exceeded its max lifetime")
)

// connFactory adapts an IConnectionManager to the factory interface of the pool library
type connFactory[C comparable] struct {
	pool *Pool[C]
}

// --------------------------------------------------------------------------
// Interface Methods (docu see gopool.PooledObjectFactory)
// --------------------------------------------------------------------------

func (f *connFactory[C]) MakeObject(ctx context.Context) (*gopool.PooledObject, error) {
	conn, err := f.pool.manager.Connect(ctx)
	if err != nil {
		Logger.Errorf("pool %s: failed to open connection: %v", f.pool.name, err)
		return nil, err
	}

	f.pool.metrics.created.Inc()
	Logger.Debugf("pool %s: opened connection", f.pool.name)
	return gopool.NewPooledObject(conn), nil
}

func (f *connFactory[C]) DestroyObject(_ context.Context, object *gopool.PooledObject) error {
	f.pool.metrics.destroyed.Inc()
	Logger.Debugf("pool %s: closing connection", f.pool.name)

	if closer, ok := object.Object.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (f *connFactory[C]) ValidateObject(ctx context.Context, object *gopool.PooledObject) bool {
	if err := f.pool.manager.IsValid(ctx, object.Object.(C)); err != nil {
		f.pool.metrics.validationFailures.Inc()
		Logger.Warningf("pool %s: dropping invalid connection: %v", f.pool.name, err)
		return false
	}
	return true
}

// ActivateObject is called on checkout, before the (optional) validation
func (f *connFactory[C]) ActivateObject(_ context.Context, object *gopool.PooledObject) error {
	return f.check(object)
}

// PassivateObject is called when a connection is returned. An error makes the pool
// destroy the connection instead of keeping it idle.
func (f *connFactory[C]) PassivateObject(_ context.Context, object *gopool.PooledObject) error {
	return f.check(object)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// check runs the local checks that need no I/O
func (f *connFactory[C]) check(object *gopool.PooledObject) error {
	if f.pool.manager.HasBroken(object.Object.(C)) {
		f.pool.metrics.broken.Inc()
		Logger.Debugf("pool %s: dropping broken connection", f.pool.name)
		return errBroken
	}

	if f.pool.maxLifetime > 0 && time.Since(object.CreateTime) > f.pool.maxLifetime {
		f.pool.metrics.expired.Inc()
		Logger.Debugf("pool %s: dropping connection older than %s", f.pool.name, f.pool.maxLifetime)
		return errExpired
	}

	return nil
}
