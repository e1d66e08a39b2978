package redispool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/redispool/lib/common"
	"github.com/ValentinKolb/redispool/lib/manager"
	"github.com/ValentinKolb/redispool/lib/pool"
	"github.com/ValentinKolb/redispool/lib/transport/tcp"
	"github.com/alicebob/miniredis/v2"
	"github.com/gomodule/redigo/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClientConfig(s *miniredis.Miniredis, maxSize int) common.ClientConfig {
	poolConfig := common.DefaultPoolConfig()
	poolConfig.Name = "test"
	poolConfig.MaxSize = maxSize
	poolConfig.MaxIdle = maxSize
	poolConfig.CheckoutTimeoutSecond = 5
	poolConfig.EvictionIntervalSecond = 0

	return common.ClientConfig{
		Connection: common.ConnectionConfig{
			URL:                  fmt.Sprintf("redis://%s", s.Addr()),
			ConnectTimeoutSecond: 5,
			Transport: common.TransportConfig{
				Type:    common.TransportTCP,
				TCPConf: common.TCPConf{TCPNoDelay: true},
			},
		},
		Pool:     poolConfig,
		LogLevel: "info",
	}
}

func newTestPool(t *testing.T, s *miniredis.Miniredis, maxSize int) *Pool {
	t.Helper()
	p, err := New(context.Background(), testClientConfig(s, maxSize), tcp.NewTCPConnector())
	require.NoError(t, err)
	t.Cleanup(func() { p.Close(context.Background()) })
	return p
}

func TestGetAndClose(t *testing.T) {
	s := miniredis.RunT(t)
	p := newTestPool(t, s, 2)
	ctx := context.Background()

	conn, err := p.Get(ctx)
	require.NoError(t, err)

	reply, err := redis.String(conn.Do("PING"))
	require.NoError(t, err)
	assert.Equal(t, "PONG", reply)

	reply, err = redis.String(redis.DoContext(conn, ctx, "PING"))
	require.NoError(t, err)
	assert.Equal(t, "PONG", reply)

	assert.Equal(t, pool.State{Connections: 1, Idle: 0, InUse: 1}, p.State())

	require.NoError(t, conn.Close())
	assert.ErrorIs(t, conn.Close(), ErrConnReleased)
	assert.Equal(t, pool.State{Connections: 1, Idle: 1, InUse: 0}, p.State())
}

func TestConnForwardsCommands(t *testing.T) {
	s := miniredis.RunT(t)
	p := newTestPool(t, s, 1)
	ctx := context.Background()

	conn, err := p.Get(ctx)
	require.NoError(t, err)
	defer conn.Close()

	// pipelining with Send / Flush / Receive
	require.NoError(t, conn.Send("SET", "a", "1"))
	require.NoError(t, conn.Send("INCR", "a"))
	require.NoError(t, conn.Flush())
	_, err = conn.Receive()
	require.NoError(t, err)
	n, err := redis.Int(conn.Receive())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	value, err := redis.String(conn.DoWithTimeout(0, "GET", "a"))
	require.NoError(t, err)
	assert.Equal(t, "2", value)
	assert.NoError(t, conn.Err())
}

// TestConcurrentPing checks out connections from ten goroutines at once
func TestConcurrentPing(t *testing.T) {
	s := miniredis.RunT(t)
	p := newTestPool(t, s, 10)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn, err := p.Get(ctx)
			if !assert.NoError(t, err) {
				return
			}
			defer conn.Close()

			reply, err := redis.String(conn.Do("PING"))
			assert.NoError(t, err)
			assert.Equal(t, "PONG", reply)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, p.State().InUse)
	assert.LessOrEqual(t, p.State().Connections, 10)
}

func TestPoolDo(t *testing.T) {
	s := miniredis.RunT(t)
	p := newTestPool(t, s, 2)
	ctx := context.Background()

	_, err := p.Do(ctx, "SET", "key", "value")
	require.NoError(t, err)

	value, err := redis.String(p.Do(ctx, "GET", "key"))
	require.NoError(t, err)
	assert.Equal(t, "value", value)
	s.CheckGet(t, "key", "value")
}

func TestDeadIdleConnectionReplacedAfterRestart(t *testing.T) {
	s := miniredis.RunT(t)
	p := newTestPool(t, s, 1)
	ctx := context.Background()

	_, err := p.Do(ctx, "PING")
	require.NoError(t, err)

	// all connections of the server are dropped, the idle connection is dead now
	s.Close()
	require.NoError(t, s.Restart())

	reply, err := redis.String(p.Do(ctx, "PING"))
	require.NoError(t, err)
	assert.Equal(t, "PONG", reply)
}

func TestBrokenConnectionNotReused(t *testing.T) {
	s := miniredis.RunT(t)
	p := newTestPool(t, s, 1)
	ctx := context.Background()

	conn, err := p.Get(ctx)
	require.NoError(t, err)

	s.Close()
	_, err = conn.Do("PING")
	require.Error(t, err)
	require.Error(t, conn.Err())
	require.NoError(t, conn.Close())

	assert.Equal(t, 0, p.State().Connections, "a broken connection is closed on return")
}

func TestNewInvalidURL(t *testing.T) {
	config := common.ClientConfig{
		Connection: common.ConnectionConfig{URL: "memcached://localhost"},
		Pool:       common.DefaultPoolConfig(),
	}

	_, err := New(context.Background(), config, nil)
	var confErr *manager.ConfigurationError
	assert.True(t, errors.As(err, &confErr), "expected ConfigurationError, got %v", err)
}

func TestNewUnreachableWithMinIdle(t *testing.T) {
	s := miniredis.RunT(t)
	config := testClientConfig(s, 2)
	config.Pool.MinIdle = 1
	s.Close()

	_, err := New(context.Background(), config, nil)
	var connErr *manager.ConnectionError
	assert.True(t, errors.As(err, &connErr), "expected ConnectionError, got %v", err)
}

func TestReleasedConnRejectsCommands(t *testing.T) {
	s := miniredis.RunT(t)
	p := newTestPool(t, s, 1)
	ctx := context.Background()

	first, err := p.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	// the pool has a single connection, so second holds the same socket
	second, err := p.Get(ctx)
	require.NoError(t, err)
	defer second.Close()

	_, err = first.Do("SET", "key", "stale")
	assert.ErrorIs(t, err, ErrConnReleased)
	_, err = first.DoContext(ctx, "SET", "key", "stale")
	assert.ErrorIs(t, err, ErrConnReleased)
	_, err = first.DoWithTimeout(time.Second, "SET", "key", "stale")
	assert.ErrorIs(t, err, ErrConnReleased)
	assert.ErrorIs(t, first.Send("SET", "key", "stale"), ErrConnReleased)
	assert.ErrorIs(t, first.Flush(), ErrConnReleased)
	_, err = first.Receive()
	assert.ErrorIs(t, err, ErrConnReleased)
	_, err = first.ReceiveContext(ctx)
	assert.ErrorIs(t, err, ErrConnReleased)
	_, err = first.ReceiveWithTimeout(time.Second)
	assert.ErrorIs(t, err, ErrConnReleased)
	assert.ErrorIs(t, first.Err(), ErrConnReleased)

	assert.False(t, s.Exists("key"), "a released handle must not reach the server")

	reply, err := redis.String(second.Do("PING"))
	require.NoError(t, err)
	assert.Equal(t, "PONG", reply)
}

// newUntestedPool creates a pool of size one that does not PING on checkout, so the
// session state of a returned connection is visible to the next holder
func newUntestedPool(t *testing.T, s *miniredis.Miniredis) *Pool {
	t.Helper()
	config := testClientConfig(s, 1)
	config.Pool.TestOnCheckout = false

	p, err := New(context.Background(), config, nil)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close(context.Background()) })
	return p
}

func TestCloseDiscardsTransaction(t *testing.T) {
	s := miniredis.RunT(t)
	p := newUntestedPool(t, s)
	ctx := context.Background()

	conn, err := p.Get(ctx)
	require.NoError(t, err)
	_, err = conn.Do("MULTI")
	require.NoError(t, err)
	reply, err := redis.String(conn.Do("SET", "key", "value"))
	require.NoError(t, err)
	require.Equal(t, "QUEUED", reply)
	require.NoError(t, conn.Close())

	next, err := p.Get(ctx)
	require.NoError(t, err)
	defer next.Close()

	reply, err = redis.String(next.Do("PING"))
	require.NoError(t, err)
	assert.Equal(t, "PONG", reply, "the transaction must not leak to the next holder")
	assert.False(t, s.Exists("key"))
}

func TestCloseUnwatchesKeys(t *testing.T) {
	s := miniredis.RunT(t)
	p := newUntestedPool(t, s)
	ctx := context.Background()

	conn, err := p.Get(ctx)
	require.NoError(t, err)
	_, err = conn.Do("WATCH", "key")
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	// a write by someone else must not abort the transaction of the next holder
	require.NoError(t, s.Set("key", "changed"))

	next, err := p.Get(ctx)
	require.NoError(t, err)
	defer next.Close()

	_, err = next.Do("MULTI")
	require.NoError(t, err)
	_, err = next.Do("SET", "other", "value")
	require.NoError(t, err)
	replies, err := redis.Values(next.Do("EXEC"))
	require.NoError(t, err)
	assert.Len(t, replies, 1)
	s.CheckGet(t, "other", "value")
}

func TestCloseDrainsPendingReplies(t *testing.T) {
	s := miniredis.RunT(t)
	p := newUntestedPool(t, s)
	ctx := context.Background()

	conn, err := p.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, conn.Send("SET", "key", "value"))
	require.NoError(t, conn.Send("INCR", "counter"))
	require.NoError(t, conn.Close())

	next, err := p.Get(ctx)
	require.NoError(t, err)
	defer next.Close()

	reply, err := redis.String(next.Do("PING"))
	require.NoError(t, err)
	assert.Equal(t, "PONG", reply, "the next holder must not read replies of the previous one")
	s.CheckGet(t, "key", "value")
}

func TestCloseDropsSubscribedConnection(t *testing.T) {
	s := miniredis.RunT(t)
	p := newUntestedPool(t, s)
	ctx := context.Background()

	conn, err := p.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, conn.Send("SUBSCRIBE", "channel"))
	require.NoError(t, conn.Flush())
	_, err = conn.Receive()
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	assert.Equal(t, 0, p.State().Connections, "a subscribed connection is closed, not reused")

	next, err := p.Get(ctx)
	require.NoError(t, err)
	defer next.Close()
	reply, err := redis.String(next.Do("PING"))
	require.NoError(t, err)
	assert.Equal(t, "PONG", reply)
}
