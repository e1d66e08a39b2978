package redispool

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gomodule/redigo/redis"
)

// ErrConnReleased is returned by every method of a Conn after it was handed back
var ErrConnReleased = errors.New("redispool: connection already returned to the pool")

// session state that has to be reset before a connection can be reused
const (
	stateWatch uint8 = 1 << iota
	stateMulti
	stateSubscribe
)

// Conn is a checked out connection. It forwards the complete command API of the
// underlying redis.Conn; Close hands the connection back to the pool instead of closing it.
// After Close every method fails with ErrConnReleased.
type Conn struct {
	conn     redis.Conn
	pool     *Pool
	released atomic.Bool
	state    uint8
}

var (
	_ redis.Conn            = (*Conn)(nil)
	_ redis.ConnWithContext = (*Conn)(nil)
	_ redis.ConnWithTimeout = (*Conn)(nil)
)

// Close returns the connection to the pool. Only the first call has an effect.
//
// An open transaction is discarded (or the keys unwatched) and unread replies are
// drained before the connection is returned. A connection in subscribe mode is closed
// instead.
func (c *Conn) Close() error {
	if !c.released.CompareAndSwap(false, true) {
		return ErrConnReleased
	}

	if c.state&stateSubscribe != 0 {
		Logger.Debugf("closing connection in subscribe mode instead of returning it")
		return c.pool.invalidate(c.conn)
	}

	if c.state&stateMulti != 0 {
		_ = c.conn.Send("DISCARD")
	} else if c.state&stateWatch != 0 {
		_ = c.conn.Send("UNWATCH")
	}
	c.state = 0

	// flushes and reads all pending replies; an I/O error marks the connection as broken,
	// so the pool drops it on return
	_, _ = c.conn.Do("")

	return c.pool.put(c.conn)
}

func (c *Conn) Err() error {
	if c.released.Load() {
		return ErrConnReleased
	}
	return c.conn.Err()
}

func (c *Conn) Do(cmd string, args ...interface{}) (interface{}, error) {
	if c.released.Load() {
		return nil, ErrConnReleased
	}
	c.track(cmd)
	return c.conn.Do(cmd, args...)
}

func (c *Conn) Send(cmd string, args ...interface{}) error {
	if c.released.Load() {
		return ErrConnReleased
	}
	c.track(cmd)
	return c.conn.Send(cmd, args...)
}

func (c *Conn) Flush() error {
	if c.released.Load() {
		return ErrConnReleased
	}
	return c.conn.Flush()
}

func (c *Conn) Receive() (interface{}, error) {
	if c.released.Load() {
		return nil, ErrConnReleased
	}
	return c.conn.Receive()
}

// DoContext sends a command to the server and returns the received reply, the call
// returns early if ctx is done.
func (c *Conn) DoContext(ctx context.Context, cmd string, args ...interface{}) (interface{}, error) {
	if c.released.Load() {
		return nil, ErrConnReleased
	}
	c.track(cmd)
	return redis.DoContext(c.conn, ctx, cmd, args...)
}

// ReceiveContext receives a single reply from the server, honoring ctx
func (c *Conn) ReceiveContext(ctx context.Context) (interface{}, error) {
	if c.released.Load() {
		return nil, ErrConnReleased
	}
	return redis.ReceiveContext(c.conn, ctx)
}

// DoWithTimeout sends a command with a read timeout that overrides the connection default
func (c *Conn) DoWithTimeout(timeout time.Duration, cmd string, args ...interface{}) (interface{}, error) {
	if c.released.Load() {
		return nil, ErrConnReleased
	}
	c.track(cmd)
	return redis.DoWithTimeout(c.conn, timeout, cmd, args...)
}

// ReceiveWithTimeout receives a single reply with a read timeout that overrides the
// connection default
func (c *Conn) ReceiveWithTimeout(timeout time.Duration) (interface{}, error) {
	if c.released.Load() {
		return nil, ErrConnReleased
	}
	return redis.ReceiveWithTimeout(c.conn, timeout)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// track records commands that change the session state of the connection
func (c *Conn) track(cmd string) {
	switch strings.ToUpper(cmd) {
	case "WATCH":
		c.state |= stateWatch
	case "UNWATCH":
		c.state &^= stateWatch
	case "MULTI":
		c.state |= stateMulti
	case "EXEC", "DISCARD":
		c.state &^= stateMulti | stateWatch
	case "SUBSCRIBE", "PSUBSCRIBE", "SSUBSCRIBE":
		c.state |= stateSubscribe
	}
}
