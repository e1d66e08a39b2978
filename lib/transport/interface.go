package transport

import (
	"context"
	"github.com/ValentinKolb/redispool/lib/common"
	"net"
)

// IConnector defines the transport-specific operations used to open the socket of a
// redis connection. The redis protocol itself is handled by the redis client library,
// a connector only provides the raw net.Conn.
type IConnector interface {
	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// Connect establishes a single socket. The network and address are the values
	// the redis client derived from the connection URL.
	Connect(ctx context.Context, network, address string) (net.Conn, error)

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.TransportConfig) error
}

// DialFunc matches the signature expected by redis.DialContextFunc
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)
