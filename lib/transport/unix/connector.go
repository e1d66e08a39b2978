package unix

import (
	"context"
	"github.com/ValentinKolb/redispool/lib/common"
	"github.com/ValentinKolb/redispool/lib/transport"
	"net"
)

// clientConnector implements the IConnector interface for Unix sockets
type clientConnector struct {
	socketPath string
	dialer     net.Dialer
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IConnector)
// --------------------------------------------------------------------------

func (c *clientConnector) GetName() string {
	return "unix"
}

// Connect ignores the network and address derived from the URL and dials the socket path
func (c *clientConnector) Connect(ctx context.Context, _, _ string) (net.Conn, error) {
	return c.dialer.DialContext(ctx, "unix", c.socketPath)
}

func (c *clientConnector) UpgradeConnection(conn net.Conn, config common.TransportConfig) error {
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		return nil
	}

	if config.WriteBufferSize > 0 {
		if err := unixConn.SetWriteBuffer(config.WriteBufferSize); err != nil {
			return err
		}
	}

	if config.ReadBufferSize > 0 {
		if err := unixConn.SetReadBuffer(config.ReadBufferSize); err != nil {
			return err
		}
	}

	return nil
}

// --------------------------------------------------------------------------
// Connector Factory Method
// --------------------------------------------------------------------------

// NewUnixConnector creates a new connector dialing the given unix socket
func NewUnixConnector(socketPath string) transport.IConnector {
	return &clientConnector{socketPath: socketPath}
}
