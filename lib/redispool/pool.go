package redispool

import (
	"context"
	"fmt"
	"io"

	"github.com/ValentinKolb/redispool/lib/common"
	"github.com/ValentinKolb/redispool/lib/manager"
	"github.com/ValentinKolb/redispool/lib/pool"
	"github.com/ValentinKolb/redispool/lib/transport"
	"github.com/gomodule/redigo/redis"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("redispool")

// Pool is a pool of redis connections
type Pool struct {
	manager *manager.RedisManager
	conns   *pool.Pool[redis.Conn]
}

// New creates the connection manager for config.Connection and a pool for it.
// If connector is nil, redis connections are opened with the default dialer of the
// redis client library.
func New(ctx context.Context, config common.ClientConfig, connector transport.IConnector) (*Pool, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	m, err := manager.NewRedisManager(config.Connection, connector)
	if err != nil {
		return nil, err
	}

	return NewWithManager(ctx, m, config.Pool)
}

// NewWithManager creates a pool for an existing connection manager
func NewWithManager(ctx context.Context, m *manager.RedisManager, config common.PoolConfig) (*Pool, error) {
	conns, err := pool.New[redis.Conn](ctx, m, config)
	if err != nil {
		return nil, err
	}

	Logger.Infof("pool %s connects to %s", conns.Name(), m.Target())
	return &Pool{
		manager: m,
		conns:   conns,
	}, nil
}

// Get checks out a connection. The caller must call Close on the returned connection.
func (p *Pool) Get(ctx context.Context) (*Conn, error) {
	conn, err := p.conns.Get(ctx)
	if err != nil {
		return nil, err
	}
	return &Conn{conn: conn, pool: p}, nil
}

// With checks out a connection for the duration of fn
func (p *Pool) With(ctx context.Context, fn func(conn redis.Conn) error) error {
	return p.conns.With(ctx, fn)
}

// Do checks out a connection, sends one command and returns the connection
func (p *Pool) Do(ctx context.Context, cmd string, args ...interface{}) (reply interface{}, err error) {
	err = p.With(ctx, func(conn redis.Conn) error {
		reply, err = redis.DoContext(conn, ctx, cmd, args...)
		return err
	})
	return reply, err
}

// State returns the current number of connections
func (p *Pool) State() pool.State {
	return p.conns.State()
}

// Target returns the redis URL without the password
func (p *Pool) Target() string {
	return p.manager.Target()
}

// WriteMetrics writes the pool metrics in the Prometheus text format
func (p *Pool) WriteMetrics(w io.Writer) {
	p.conns.WriteMetrics(w)
}

// Close closes the pool, see pool.Pool.Close
func (p *Pool) Close(ctx context.Context) {
	p.conns.Close(ctx)
}

func (p *Pool) String() string {
	s := p.State()
	return fmt.Sprintf("Pool{name: %s, target: %s, connections: %d, idle: %d, in use: %d}",
		p.conns.Name(), p.Target(), s.Connections, s.Idle, s.InUse)
}

// put hands a connection back, used by Conn.Close
func (p *Pool) put(conn redis.Conn) error {
	return p.conns.Put(context.Background(), conn)
}

// invalidate closes a connection that can not be reused, used by Conn.Close
func (p *Pool) invalidate(conn redis.Conn) error {
	return p.conns.Invalidate(context.Background(), conn)
}
