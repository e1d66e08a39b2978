package manager

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/redispool/lib/common"
	"github.com/ValentinKolb/redispool/lib/transport"
	"github.com/gomodule/redigo/redis"
	"github.com/lni/dragonboat/v4/logger"
	"net"
	"time"
)

var Logger = logger.GetLogger("manager")

const pingReply = "PONG"

// errDryRun aborts the dial that is used to validate the URL before a socket is opened
var errDryRun = errors.New("dry run")

// RedisManager creates and validates redigo connections to one redis server.
// It is immutable after construction and safe for concurrent use.
type RedisManager struct {
	url            string
	target         string // redacted url
	network        string
	address        string
	connectTimeout time.Duration
	options        []redis.DialOption
}

var _ IConnectionManager[redis.Conn] = (*RedisManager)(nil)

// NewRedisManagerFromURL creates a manager for the given redis URL with default settings
func NewRedisManagerFromURL(url string) (*RedisManager, error) {
	return NewRedisManager(common.ConnectionConfig{URL: url}, nil)
}

// NewRedisManagerWithTimeout creates a manager for the given redis URL whose connect
// attempts are bounded by timeout (0 keeps the client library default)
func NewRedisManagerWithTimeout(url string, timeout time.Duration) (*RedisManager, error) {
	m, err := NewRedisManagerFromURL(url)
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		m.connectTimeout = timeout
		m.options = append(m.options, redis.DialConnectTimeout(timeout))
	}
	return m, nil
}

// NewRedisManager creates a manager from the connection configuration.
// If connector is nil, the default dialer of the redis client library is used.
//
// The URL is parsed and checked by the redis client library. No network I/O happens:
// the dial that follows a successful parse is intercepted and aborted. A rejected URL
// results in a *ConfigurationError.
func NewRedisManager(config common.ConnectionConfig, connector transport.IConnector) (*RedisManager, error) {
	m := &RedisManager{
		url:    config.URL,
		target: common.RedactURL(config.URL),
	}

	if config.ConnectTimeoutSecond > 0 {
		m.connectTimeout = time.Duration(config.ConnectTimeoutSecond) * time.Second
		m.options = append(m.options, redis.DialConnectTimeout(m.connectTimeout))
	}
	if config.ReadTimeoutSecond > 0 {
		m.options = append(m.options, redis.DialReadTimeout(time.Duration(config.ReadTimeoutSecond)*time.Second))
	}
	if config.WriteTimeoutSecond > 0 {
		m.options = append(m.options, redis.DialWriteTimeout(time.Duration(config.WriteTimeoutSecond)*time.Second))
	}
	if config.ClientName != "" {
		m.options = append(m.options, redis.DialClientName(config.ClientName))
	}
	if connector != nil {
		m.options = append(m.options, redis.DialContextFunc(transport.Dialer(connector, config.Transport)))
	}

	network, address, err := m.resolve()
	if err != nil {
		return nil, &ConfigurationError{Target: m.target, Err: err}
	}
	m.network = network
	m.address = address

	Logger.Debugf("created connection manager for %s (%s %s)", m.target, network, address)
	return m, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see IConnectionManager)
// --------------------------------------------------------------------------

func (m *RedisManager) Connect(ctx context.Context) (redis.Conn, error) {
	if m.connectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.connectTimeout)
		defer cancel()
	}

	conn, err := redis.DialURLContext(ctx, m.url, m.options...)
	if err != nil {
		return nil, &ConnectionError{Op: "connect", Target: m.target, Err: err}
	}

	Logger.Debugf("connected to %s", m.target)
	return conn, nil
}

func (m *RedisManager) IsValid(ctx context.Context, conn redis.Conn) error {
	reply, err := redis.String(redis.DoContext(conn, ctx, "PING"))
	if err != nil {
		return &ConnectionError{Op: "ping", Target: m.target, Err: err}
	}
	if reply != pingReply {
		return &ConnectionError{Op: "ping", Target: m.target, Err: fmt.Errorf("unexpected reply %q", reply)}
	}
	return nil
}

func (m *RedisManager) HasBroken(conn redis.Conn) bool {
	return conn.Err() != nil
}

// --------------------------------------------------------------------------
// Accessors
// --------------------------------------------------------------------------

// Target returns the connection URL without the password
func (m *RedisManager) Target() string {
	return m.target
}

// Address returns the network address derived from the URL (e.g. "localhost:6379")
func (m *RedisManager) Address() string {
	return m.address
}

func (m *RedisManager) String() string {
	return fmt.Sprintf("RedisManager{target: %s, network: %s, address: %s}", m.target, m.network, m.address)
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// resolve lets the redis client library parse the URL. The dial function is replaced by
// one that records the resolved network and address and aborts.
func (m *RedisManager) resolve() (network, address string, err error) {
	capture := redis.DialContextFunc(func(_ context.Context, n, a string) (net.Conn, error) {
		network, address = n, a
		return nil, errDryRun
	})

	options := make([]redis.DialOption, 0, len(m.options)+1)
	options = append(options, m.options...)
	options = append(options, capture)

	conn, err := redis.DialURLContext(context.Background(), m.url, options...)
	if conn != nil {
		// only possible if the library stops using the dial function
		conn.Close()
		return "", "", fmt.Errorf("url validation opened a connection")
	}
	if !errors.Is(err, errDryRun) {
		if err == nil {
			err = fmt.Errorf("url could not be validated")
		}
		return "", "", err
	}
	return network, address, nil
}
