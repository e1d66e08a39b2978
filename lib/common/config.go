package common

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Transport configuration
// --------------------------------------------------------------------------

type TransportType string

const (
	TransportTCP  TransportType = "tcp"
	TransportUnix TransportType = "unix"
)

// SocketConf holds the socket buffer sizes (in bytes, 0 keeps the OS default)
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// TCPConf holds TCP specific socket options
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int
}

// TransportConfig selects and tunes the dialer used to reach the redis server
type TransportConfig struct {
	Type TransportType
	// SocketPath is only used by the unix transport
	SocketPath string
	SocketConf
	TCPConf
}

// --------------------------------------------------------------------------
// Connection configuration
// --------------------------------------------------------------------------

// ConnectionConfig describes how a single connection to the redis server is established.
// The URL uses the redis URL syntax (redis://[user:password@]host[:port][/db]).
type ConnectionConfig struct {
	URL                  string
	ConnectTimeoutSecond int
	ReadTimeoutSecond    int
	WriteTimeoutSecond   int
	// ClientName is sent with CLIENT SETNAME after connecting (empty = disabled)
	ClientName string
	Transport  TransportConfig
}

// RedactedURL returns the URL with the password replaced by "xxxxx".
// If the URL can not be parsed it is returned as is.
func (c *ConnectionConfig) RedactedURL() string {
	return RedactURL(c.URL)
}

// RedactURL removes the password from a redis URL
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Redacted()
}

// --------------------------------------------------------------------------
// Pool configuration
// --------------------------------------------------------------------------

// PoolConfig holds the policy of the connection pool. None of these values is interpreted
// by the connection manager, they are passed to the pool library.
type PoolConfig struct {
	// Name is used as label for the pool metrics
	Name string
	// MaxSize is the maximum number of connections (idle + checked out)
	MaxSize int
	// MaxIdle is the maximum number of idle connections kept in the pool (0 = MaxSize)
	MaxIdle int
	// MinIdle is the number of connections opened when the pool is built and kept idle
	MinIdle int
	// TestOnCheckout validates every connection with a PING before handing it out
	TestOnCheckout bool
	// CheckoutTimeoutSecond bounds the time Get waits for a connection (0 = wait forever)
	CheckoutTimeoutSecond int
	// IdleTimeoutSecond closes connections that were idle for longer (0 = never)
	IdleTimeoutSecond int
	// MaxLifetimeSecond closes connections older than this on checkout or return (0 = never)
	MaxLifetimeSecond int
	// EvictionIntervalSecond is the interval of the idle connection evictor (0 = disabled)
	EvictionIntervalSecond int
}

// DefaultPoolConfig returns the default pool policy
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Name:                   "default",
		MaxSize:                10,
		MaxIdle:                10,
		MinIdle:                0,
		TestOnCheckout:         true,
		CheckoutTimeoutSecond:  30,
		IdleTimeoutSecond:      10 * 60,
		MaxLifetimeSecond:      30 * 60,
		EvictionIntervalSecond: 30,
	}
}

// Validate checks the pool policy for inconsistent values
func (c *PoolConfig) Validate() error {
	if c.MaxSize <= 0 {
		return fmt.Errorf("max size must be positive, got %d", c.MaxSize)
	}
	if c.MinIdle < 0 || c.MaxIdle < 0 {
		return fmt.Errorf("idle limits must not be negative (min=%d, max=%d)", c.MinIdle, c.MaxIdle)
	}
	if c.MinIdle > c.MaxSize {
		return fmt.Errorf("min idle (%d) must not exceed max size (%d)", c.MinIdle, c.MaxSize)
	}
	if c.MaxIdle > 0 && c.MinIdle > c.MaxIdle {
		return fmt.Errorf("min idle (%d) must not exceed max idle (%d)", c.MinIdle, c.MaxIdle)
	}
	if c.CheckoutTimeoutSecond < 0 || c.IdleTimeoutSecond < 0 || c.MaxLifetimeSecond < 0 || c.EvictionIntervalSecond < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}

// --------------------------------------------------------------------------
// Client configuration struct
// --------------------------------------------------------------------------

// ClientConfig bundles everything needed to build a pool of redis connections
type ClientConfig struct {
	Connection ConnectionConfig
	Pool       PoolConfig
	LogLevel   string
}

// Validate checks the configuration for inconsistent values.
// The URL itself is validated by the connection manager.
func (c *ClientConfig) Validate() error {
	if c.Connection.URL == "" {
		return fmt.Errorf("no redis url provided")
	}
	switch c.Connection.Transport.Type {
	case "", TransportTCP:
	case TransportUnix:
		if c.Connection.Transport.SocketPath == "" {
			return fmt.Errorf("unix transport requires a socket path")
		}
	default:
		return fmt.Errorf("invalid transport %q (expected one of: tcp, unix)", c.Connection.Transport.Type)
	}
	return c.Pool.Validate()
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	seconds := func(v int) string {
		if v <= 0 {
			return "disabled"
		}
		return fmt.Sprintf("%d sec", v)
	}

	// Connection settings
	addSection("Connection")
	addField("URL", c.Connection.RedactedURL())
	addField("Connect Timeout", seconds(c.Connection.ConnectTimeoutSecond))
	addField("Read Timeout", seconds(c.Connection.ReadTimeoutSecond))
	addField("Write Timeout", seconds(c.Connection.WriteTimeoutSecond))
	if c.Connection.ClientName != "" {
		addField("Client Name", c.Connection.ClientName)
	}

	// Transport settings
	transportType := c.Connection.Transport.Type
	if transportType == "" {
		transportType = TransportTCP
	}
	addSection("Transport")
	addField("Type", string(transportType))
	if transportType == TransportUnix {
		addField("Socket Path", c.Connection.Transport.SocketPath)
	} else {
		addField("TCP No Delay", strconv.FormatBool(c.Connection.Transport.TCPNoDelay))
		addField("TCP Keep Alive", seconds(c.Connection.Transport.TCPKeepAliveSec))
		addField("TCP Linger", seconds(c.Connection.Transport.TCPLingerSec))
	}
	addField("Write Buffer", fmt.Sprintf("%d bytes", c.Connection.Transport.WriteBufferSize))
	addField("Read Buffer", fmt.Sprintf("%d bytes", c.Connection.Transport.ReadBufferSize))

	// Pool settings
	addSection("Pool")
	addField("Name", c.Pool.Name)
	addField("Max Size", strconv.Itoa(c.Pool.MaxSize))
	addField("Max Idle", strconv.Itoa(c.Pool.MaxIdle))
	addField("Min Idle", strconv.Itoa(c.Pool.MinIdle))
	addField("Test On Checkout", strconv.FormatBool(c.Pool.TestOnCheckout))
	addField("Checkout Timeout", seconds(c.Pool.CheckoutTimeoutSecond))
	addField("Idle Timeout", seconds(c.Pool.IdleTimeoutSecond))
	addField("Max Lifetime", seconds(c.Pool.MaxLifetimeSecond))
	addField("Eviction Interval", seconds(c.Pool.EvictionIntervalSecond))

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}
