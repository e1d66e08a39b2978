package transport

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/redispool/lib/common"
	"github.com/lni/dragonboat/v4/logger"
	"net"
)

var Logger = logger.GetLogger("transport")

// Dialer returns a DialFunc that connects with the given connector and upgrades every new
// socket with the transport configuration. A socket that can not be upgraded is closed.
func Dialer(connector IConnector, config common.TransportConfig) DialFunc {
	return func(ctx context.Context, network, address string) (net.Conn, error) {
		conn, err := connector.Connect(ctx, network, address)
		if err != nil {
			return nil, err
		}

		if err := connector.UpgradeConnection(conn, config); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to upgrade %s connection to %s: %w", connector.GetName(), address, err)
		}

		Logger.Debugf("opened %s connection %s -> %s", connector.GetName(), conn.LocalAddr(), conn.RemoteAddr())
		return conn, nil
	}
}
