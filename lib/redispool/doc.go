// Package redispool is the entry point for applications: it builds the redis connection
// manager and the connection pool from a common.ClientConfig and hands out pooled
// connections.
//
// A checked out Conn implements redis.Conn, so the whole command API of the redis client
// library is available (including redis.DoContext and the helpers like redis.String).
// Calling Close resets the session (open transactions, watched keys, unread replies) and
// returns the connection to the pool. The Conn can not be used afterward.
//
// Usage Example:
//
//	p, err := redispool.New(ctx, config, tcp.NewTCPConnector())
//	if err != nil {
//		return err
//	}
//	defer p.Close(ctx)
//
//	conn, err := p.Get(ctx)
//	if err != nil {
//		return err
//	}
//	defer conn.Close()
//
//	reply, err := redis.String(conn.Do("PING"))
//
// Thread Safety:
//
//	The Pool can be used from many goroutines. A Conn belongs to the goroutine that
//	checked it out until it is closed.
package redispool
