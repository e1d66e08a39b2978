// Package pool plugs an IConnectionManager into the generic object pool of
// github.com/jolestar/go-commons-pool. The pool library owns all pooling decisions
// (slot management, blocking checkouts, idle eviction); this package maps its factory
// callbacks onto the three operations of the connection manager:
//
//   - MakeObject      -> Connect
//   - ValidateObject  -> IsValid (on checkout, if TestOnCheckout is set)
//   - ActivateObject  -> HasBroken and max lifetime check (on checkout)
//   - PassivateObject -> HasBroken and max lifetime check (on return)
//   - DestroyObject   -> Close, if the connection implements io.Closer
//
// Checked out connections are tracked, so a connection can only be returned once and
// never handed to two callers at the same time. Each pool exposes its metrics
// (VictoriaMetrics format) via WriteMetrics.
//
// Usage Example:
//
//	m, _ := manager.NewRedisManagerFromURL("redis://localhost:6379")
//	p, err := pool.New[redis.Conn](ctx, m, common.DefaultPoolConfig())
//	if err != nil {
//		return err
//	}
//	defer p.Close(ctx)
//
//	err = p.With(ctx, func(conn redis.Conn) error {
//		_, err := conn.Do("SET", "key", "value")
//		return err
//	})
package pool
