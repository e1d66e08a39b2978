// Package tcp implements the TCP connector for redis connections. New sockets are
// tuned with the TCPConf and SocketConf values of the transport configuration
// (TCP_NODELAY, keep-alive period, linger and buffer sizes).
package tcp
