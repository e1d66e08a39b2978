package pool

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/redispool/lib/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --------------------------------------------------------------------------
// Fake connection manager
// --------------------------------------------------------------------------

type fakeConn struct {
	id      int32
	broken  atomic.Bool
	invalid atomic.Bool
	closed  atomic.Bool
}

func (c *fakeConn) Close() error {
	c.closed.Store(true)
	return nil
}

type fakeManager struct {
	created     atomic.Int32
	validations atomic.Int32
	fail        atomic.Bool
}

func (m *fakeManager) Connect(context.Context) (*fakeConn, error) {
	if m.fail.Load() {
		return nil, errors.New("connection refused")
	}
	return &fakeConn{id: m.created.Add(1)}, nil
}

func (m *fakeManager) IsValid(_ context.Context, conn *fakeConn) error {
	m.validations.Add(1)
	if conn.invalid.Load() {
		return errors.New("no PONG")
	}
	return nil
}

func (m *fakeManager) HasBroken(conn *fakeConn) bool {
	return conn.broken.Load() || conn.closed.Load()
}

func testConfig() common.PoolConfig {
	config := common.DefaultPoolConfig()
	config.Name = "test"
	config.MaxSize = 2
	config.MaxIdle = 2
	config.CheckoutTimeoutSecond = 5
	config.EvictionIntervalSecond = 0
	return config
}

func newTestPool(t *testing.T, config common.PoolConfig) (*Pool[*fakeConn], *fakeManager) {
	t.Helper()
	m := &fakeManager{}
	p, err := New[*fakeConn](context.Background(), m, config)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close(context.Background()) })
	return p, m
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

// TestConcurrentHoldersGetDistinctConnections holds two connections of a pool with max
// size 2 at the same time from two goroutines.
func TestConcurrentHoldersGetDistinctConnections(t *testing.T) {
	p, _ := newTestPool(t, testConfig())
	ctx := context.Background()

	s1, s2 := make(chan struct{}), make(chan struct{})
	conns := make([]*fakeConn, 2)
	var wg sync.WaitGroup

	hold := func(i int, signal chan<- struct{}, wait <-chan struct{}) {
		defer wg.Done()
		conn, err := p.Get(ctx)
		if !assert.NoError(t, err) {
			close(signal)
			return
		}
		conns[i] = conn
		close(signal)
		<-wait
		assert.NoError(t, p.Put(ctx, conn))
	}

	wg.Add(2)
	go hold(0, s1, s2)
	go hold(1, s2, s1)
	wg.Wait()

	require.NotNil(t, conns[0])
	require.NotNil(t, conns[1])
	assert.NotSame(t, conns[0], conns[1])

	conn, err := p.Get(ctx)
	require.NoError(t, err)
	assert.NoError(t, p.Put(ctx, conn))
}

func TestTestOnCheckout(t *testing.T) {
	config := testConfig()
	config.MaxSize = 1
	config.MaxIdle = 1
	config.TestOnCheckout = true
	p, m := newTestPool(t, config)
	ctx := context.Background()

	conn, err := p.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, p.Put(ctx, conn))
	assert.EqualValues(t, 1, m.validations.Load())

	again, err := p.Get(ctx)
	require.NoError(t, err)
	assert.Same(t, conn, again, "a valid idle connection is reused")
	require.NoError(t, p.Put(ctx, again))
	assert.EqualValues(t, 2, m.validations.Load())
}

func TestNoValidationWithoutTestOnCheckout(t *testing.T) {
	config := testConfig()
	config.TestOnCheckout = false
	p, m := newTestPool(t, config)
	ctx := context.Background()

	conn, err := p.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, p.Put(ctx, conn))
	assert.EqualValues(t, 0, m.validations.Load())
}

func TestBrokenConnectionDroppedOnReturn(t *testing.T) {
	p, _ := newTestPool(t, testConfig())
	ctx := context.Background()

	conn, err := p.Get(ctx)
	require.NoError(t, err)

	conn.broken.Store(true)
	require.NoError(t, p.Put(ctx, conn))

	assert.True(t, conn.closed.Load())
	assert.Equal(t, State{}, p.State())

	fresh, err := p.Get(ctx)
	require.NoError(t, err)
	assert.NotSame(t, conn, fresh)
	require.NoError(t, p.Put(ctx, fresh))
}

func TestInvalidIdleConnectionReplacedOnCheckout(t *testing.T) {
	p, m := newTestPool(t, testConfig())
	ctx := context.Background()

	conn, err := p.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, p.Put(ctx, conn))

	// the connection died while it was idle
	conn.invalid.Store(true)

	fresh, err := p.Get(ctx)
	require.NoError(t, err)
	assert.NotSame(t, conn, fresh)
	assert.True(t, conn.closed.Load())
	assert.EqualValues(t, 2, m.created.Load())
	require.NoError(t, p.Put(ctx, fresh))

	var buf bytes.Buffer
	p.WriteMetrics(&buf)
	assert.Contains(t, buf.String(), `redispool_validation_failures_total{pool="test"} 1`)
}

func TestExhaustedPoolTimesOut(t *testing.T) {
	config := testConfig()
	config.MaxSize = 1
	config.MaxIdle = 1
	p, _ := newTestPool(t, config)
	ctx := context.Background()

	conn, err := p.Get(ctx)
	require.NoError(t, err)

	timeoutCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = p.Get(timeoutCtx)
	assert.Error(t, err)

	require.NoError(t, p.Put(ctx, conn))

	var buf bytes.Buffer
	p.WriteMetrics(&buf)
	assert.Contains(t, buf.String(), `redispool_checkout_errors_total{pool="test"} 1`)
}

func TestMinIdle(t *testing.T) {
	config := testConfig()
	config.MinIdle = 2
	p, m := newTestPool(t, config)

	assert.Equal(t, State{Connections: 2, Idle: 2, InUse: 0}, p.State())
	assert.EqualValues(t, 2, m.created.Load())
}

func TestNewFailsWhenMinIdleCanNotBeOpened(t *testing.T) {
	config := testConfig()
	config.MinIdle = 1

	m := &fakeManager{}
	m.fail.Store(true)

	p, err := New[*fakeConn](context.Background(), m, config)
	assert.Error(t, err)
	assert.Nil(t, p)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	config := testConfig()
	config.MaxSize = 0

	_, err := New[*fakeConn](context.Background(), &fakeManager{}, config)
	assert.Error(t, err)
}

func TestGetFailsWhenConnectFails(t *testing.T) {
	p, m := newTestPool(t, testConfig())
	m.fail.Store(true)

	_, err := p.Get(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, p.State().InUse)
}

func TestPutNotCheckedOut(t *testing.T) {
	p, _ := newTestPool(t, testConfig())
	ctx := context.Background()

	assert.ErrorIs(t, p.Put(ctx, &fakeConn{}), ErrNotCheckedOut)

	conn, err := p.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, p.Put(ctx, conn))
	assert.ErrorIs(t, p.Put(ctx, conn), ErrNotCheckedOut, "a connection can only be returned once")
	assert.ErrorIs(t, p.Invalidate(ctx, conn), ErrNotCheckedOut)
}

func TestInvalidate(t *testing.T) {
	p, _ := newTestPool(t, testConfig())
	ctx := context.Background()

	conn, err := p.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, p.Invalidate(ctx, conn))

	assert.True(t, conn.closed.Load())
	assert.Equal(t, State{}, p.State())
}

func TestWith(t *testing.T) {
	p, _ := newTestPool(t, testConfig())
	ctx := context.Background()

	t.Run("returns connection", func(t *testing.T) {
		err := p.With(ctx, func(conn *fakeConn) error {
			assert.Equal(t, 1, p.State().InUse)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 0, p.State().InUse)
	})

	t.Run("returns connection on error", func(t *testing.T) {
		want := errors.New("command failed")
		err := p.With(ctx, func(conn *fakeConn) error {
			return want
		})
		assert.ErrorIs(t, err, want)
		assert.Equal(t, 0, p.State().InUse)
	})

	t.Run("invalidates connection on panic", func(t *testing.T) {
		var used *fakeConn
		func() {
			defer func() {
				assert.NotNil(t, recover())
			}()
			_ = p.With(ctx, func(conn *fakeConn) error {
				used = conn
				panic("boom")
			})
		}()
		require.NotNil(t, used)
		assert.True(t, used.closed.Load())
		assert.Equal(t, 0, p.State().InUse)
	})
}

func TestClose(t *testing.T) {
	m := &fakeManager{}
	p, err := New[*fakeConn](context.Background(), m, testConfig())
	require.NoError(t, err)
	ctx := context.Background()

	idle, err := p.Get(ctx)
	require.NoError(t, err)
	held, err := p.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, p.Put(ctx, idle))

	p.Close(ctx)
	assert.True(t, idle.closed.Load(), "idle connections are closed with the pool")

	_, err = p.Get(ctx)
	assert.ErrorIs(t, err, ErrPoolClosed)

	_ = p.Put(ctx, held)
	assert.True(t, held.closed.Load(), "connections returned after close are closed")
}

func TestMaxLifetime(t *testing.T) {
	config := testConfig()
	config.MaxLifetimeSecond = 1
	p, _ := newTestPool(t, config)
	ctx := context.Background()

	conn, err := p.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, p.Put(ctx, conn))

	time.Sleep(1100 * time.Millisecond)

	fresh, err := p.Get(ctx)
	require.NoError(t, err)
	assert.NotSame(t, conn, fresh)
	assert.True(t, conn.closed.Load())
	require.NoError(t, p.Put(ctx, fresh))
}

func TestMetrics(t *testing.T) {
	p, _ := newTestPool(t, testConfig())
	ctx := context.Background()

	conn, err := p.Get(ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	p.WriteMetrics(&buf)
	out := buf.String()
	assert.Contains(t, out, `redispool_checkouts_total{pool="test"} 1`)
	assert.Contains(t, out, `redispool_connections_created_total{pool="test"} 1`)
	assert.Contains(t, out, `redispool_connections_in_use{pool="test"} 1`)

	require.NoError(t, p.Put(ctx, conn))
}

// TestNoSharedConnections checks out connections from many goroutines and verifies that
// a connection is never held by two goroutines at the same time.
func TestNoSharedConnections(t *testing.T) {
	config := testConfig()
	config.MaxSize = 3
	config.MaxIdle = 3
	p, _ := newTestPool(t, config)
	ctx := context.Background()

	var (
		mu      sync.Mutex
		holders = make(map[*fakeConn]int)
		maxHeld int
	)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				err := p.With(ctx, func(conn *fakeConn) error {
					mu.Lock()
					if other, ok := holders[conn]; ok {
						t.Errorf("connection %d held by goroutine %d and %d", conn.id, other, g)
					}
					holders[conn] = g
					if len(holders) > maxHeld {
						maxHeld = len(holders)
					}
					mu.Unlock()

					time.Sleep(100 * time.Microsecond)

					mu.Lock()
					delete(holders, conn)
					mu.Unlock()
					return nil
				})
				assert.NoError(t, err)
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, maxHeld, 3)
	assert.LessOrEqual(t, p.State().Connections, 3)
}
