package pool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/ValentinKolb/redispool/lib/common"
	"github.com/ValentinKolb/redispool/lib/manager"
	gopool "github.com/jolestar/go-commons-pool/v2"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("pool")

var (
	// ErrPoolClosed is returned by Get after Close was called
	ErrPoolClosed = errors.New("pool is closed")
	// ErrNotCheckedOut is returned when a connection is returned that is not checked out
	ErrNotCheckedOut = errors.New("connection is not checked out from this pool")
)

// State is a snapshot of the pool size
type State struct {
	// Connections is the number of open connections (idle + in use)
	Connections int
	// Idle is the number of connections waiting in the pool
	Idle int
	// InUse is the number of checked out connections
	InUse int
}

// Pool manages connections of type C that are created and checked by an
// IConnectionManager. All methods are safe for concurrent use.
type Pool[C comparable] struct {
	name            string
	manager         manager.IConnectionManager[C]
	objects         *gopool.ObjectPool
	inUse           *xsync.MapOf[C, time.Time]
	metrics         *poolMetrics
	checkoutTimeout time.Duration
	maxLifetime     time.Duration
}

// New creates a pool for the connections of the given manager. If config.MinIdle is
// greater than zero, the initial connections are opened immediately and New fails if
// one of them can not be opened.
func New[C comparable](ctx context.Context, mgr manager.IConnectionManager[C], config common.PoolConfig) (*Pool[C], error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pool configuration: %w", err)
	}

	name := config.Name
	if name == "" {
		name = "default"
	}

	p := &Pool[C]{
		name:            name,
		manager:         mgr,
		inUse:           xsync.NewMapOf[C, time.Time](),
		checkoutTimeout: time.Duration(config.CheckoutTimeoutSecond) * time.Second,
		maxLifetime:     time.Duration(config.MaxLifetimeSecond) * time.Second,
	}
	p.metrics = newPoolMetrics(name, p.State)
	p.objects = gopool.NewObjectPool(ctx, &connFactory[C]{pool: p}, objectPoolConfig(config))

	for i := 0; i < config.MinIdle; i++ {
		if err := p.objects.AddObject(ctx); err != nil {
			p.objects.Close(ctx)
			return nil, fmt.Errorf("pool %s: failed to open %d initial connections: %w", name, config.MinIdle, err)
		}
	}

	Logger.Infof("pool %s: created (max size %d, min idle %d, test on checkout %t)",
		name, config.MaxSize, config.MinIdle, config.TestOnCheckout)
	return p, nil
}

// Get checks out a connection. It blocks until a connection is available, the context is
// done or the checkout timeout of the pool expired (only if ctx has no deadline).
// Every connection must be handed back with Put or Invalidate.
func (p *Pool[C]) Get(ctx context.Context) (C, error) {
	var zero C
	if p.objects.IsClosed() {
		return zero, ErrPoolClosed
	}

	if _, ok := ctx.Deadline(); !ok && p.checkoutTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.checkoutTimeout)
		defer cancel()
	}

	start := time.Now()
	object, err := p.objects.BorrowObject(ctx)
	p.metrics.checkoutWait.UpdateDuration(start)
	if err != nil {
		p.metrics.checkoutErrors.Inc()
		return zero, fmt.Errorf("pool %s: failed to check out connection: %w", p.name, err)
	}

	conn := object.(C)
	p.inUse.Store(conn, time.Now())
	p.metrics.checkouts.Inc()
	return conn, nil
}

// Put returns a checked out connection. Broken or expired connections are closed
// instead of being kept.
func (p *Pool[C]) Put(ctx context.Context, conn C) error {
	if _, ok := p.inUse.LoadAndDelete(conn); !ok {
		return ErrNotCheckedOut
	}

	err := p.objects.ReturnObject(ctx, conn)
	if errors.Is(err, errBroken) || errors.Is(err, errExpired) {
		// already destroyed by the pool
		return nil
	}
	return err
}

// Invalidate closes a checked out connection and removes it from the pool
func (p *Pool[C]) Invalidate(ctx context.Context, conn C) error {
	if _, ok := p.inUse.LoadAndDelete(conn); !ok {
		return ErrNotCheckedOut
	}
	return p.objects.InvalidateObject(ctx, conn)
}

// With checks out a connection, calls fn with it and returns the connection afterward.
// The connection is returned on every exit path; if fn panics it is invalidated.
func (p *Pool[C]) With(ctx context.Context, fn func(conn C) error) error {
	conn, err := p.Get(ctx)
	if err != nil {
		return err
	}

	// returning must not fail because the caller's context expired
	releaseCtx := context.WithoutCancel(ctx)

	returned := false
	defer func() {
		if !returned {
			if err := p.Invalidate(releaseCtx, conn); err != nil {
				Logger.Errorf("pool %s: failed to invalidate connection: %v", p.name, err)
			}
		}
	}()

	err = fn(conn)
	returned = true
	if putErr := p.Put(releaseCtx, conn); putErr != nil && err == nil {
		err = putErr
	}
	return err
}

// State returns the current number of connections
func (p *Pool[C]) State() State {
	idle := p.objects.GetNumIdle()
	return State{
		Connections: idle + p.objects.GetNumActive(),
		Idle:        idle,
		InUse:       p.inUse.Size(),
	}
}

// Name returns the name of the pool
func (p *Pool[C]) Name() string {
	return p.name
}

// WriteMetrics writes the pool metrics in the Prometheus text format
func (p *Pool[C]) WriteMetrics(w io.Writer) {
	p.metrics.write(w)
}

// Close closes all idle connections. Checked out connections are closed when they are
// returned. Get fails with ErrPoolClosed afterward.
func (p *Pool[C]) Close(ctx context.Context) {
	p.objects.Close(ctx)
	Logger.Infof("pool %s: closed", p.name)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// objectPoolConfig converts the pool policy to the configuration of the pool library
func objectPoolConfig(config common.PoolConfig) *gopool.ObjectPoolConfig {
	c := gopool.NewDefaultPoolConfig()
	c.MaxTotal = config.MaxSize
	c.MaxIdle = config.MaxIdle
	if c.MaxIdle == 0 {
		c.MaxIdle = config.MaxSize
	}
	c.MinIdle = config.MinIdle
	c.TestOnCreate = false
	c.TestOnBorrow = config.TestOnCheckout
	c.TestOnReturn = false
	c.TestWhileIdle = false
	c.BlockWhenExhausted = true
	c.NumTestsPerEvictionRun = config.MaxSize

	c.MinEvictableIdleTime = time.Duration(math.MaxInt64)
	if config.IdleTimeoutSecond > 0 {
		c.MinEvictableIdleTime = time.Duration(config.IdleTimeoutSecond) * time.Second
	}
	c.SoftMinEvictableIdleTime = time.Duration(math.MaxInt64)
	c.TimeBetweenEvictionRuns = time.Duration(config.EvictionIntervalSecond) * time.Second

	return c
}
