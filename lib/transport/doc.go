// Package transport defines how the sockets underneath redis connections are opened.
// The redis client library owns the wire protocol; a connector is only responsible for
// producing a net.Conn and tuning it.
//
// Key Components:
//
//   - IConnector: Interface for protocol-specific socket operations (connect and
//     upgrade). Implementations live in the tcp and unix subpackages.
//
//   - Dialer: Combines a connector and a common.TransportConfig into a dial function
//     that can be handed to the redis client (see redis.DialContextFunc).
package transport
