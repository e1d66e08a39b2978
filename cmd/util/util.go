package util

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ValentinKolb/redispool/lib/common"
	"github.com/ValentinKolb/redispool/lib/redispool"
	"github.com/ValentinKolb/redispool/lib/transport"
	"github.com/ValentinKolb/redispool/lib/transport/tcp"
	"github.com/ValentinKolb/redispool/lib/transport/unix"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupClientFlags adds the connection and pool flags to a command
func SetupClientFlags(cmd *cobra.Command) {
	defaults := common.DefaultPoolConfig()

	// Connection

	key := "url"
	cmd.PersistentFlags().String(key, "redis://localhost:6379", WrapString("The redis URL (redis://[user:password@]host[:port][/db] or rediss://...)"))

	key = "connect-timeout"
	cmd.PersistentFlags().Int(key, 10, WrapString("The timeout in seconds for opening a connection (0 for no timeout)"))

	key = "read-timeout"
	cmd.PersistentFlags().Int(key, 0, WrapString("The read timeout in seconds of a connection (0 for no timeout)"))

	key = "write-timeout"
	cmd.PersistentFlags().Int(key, 0, WrapString("The write timeout in seconds of a connection (0 for no timeout)"))

	key = "client-name"
	cmd.PersistentFlags().String(key, "redispool", WrapString("The client name set with CLIENT SETNAME on every new connection"))

	// Transport

	key = "transport"
	cmd.PersistentFlags().String(key, "tcp", WrapString("The transport used to open connections (tcp, unix)"))

	key = "transport-socket"
	cmd.PersistentFlags().String(key, "", WrapString("The path of the unix socket (only for unix)"))

	key = "transport-write-buffer"
	cmd.PersistentFlags().Int(key, 512, WrapString("The size of the socket write buffer (in KB)"))

	key = "transport-read-buffer"
	cmd.PersistentFlags().Int(key, 512, WrapString("The size of the socket read buffer (in KB)"))

	key = "transport-tcp-nodelay"
	cmd.PersistentFlags().Bool(key, true, WrapString("Whether to enable TCP_NODELAY (only for tcp)"))

	key = "transport-tcp-keepalive"
	cmd.PersistentFlags().Int(key, 0, WrapString("The keepalive interval (in seconds, only for tcp)"))

	key = "transport-tcp-linger"
	cmd.PersistentFlags().Int(key, 0, WrapString("The linger time (in seconds, only for tcp)"))

	// Pool

	key = "pool-name"
	cmd.PersistentFlags().String(key, defaults.Name, WrapString("The name of the pool (used in logs and metrics)"))

	key = "pool-max-size"
	cmd.PersistentFlags().Int(key, defaults.MaxSize, WrapString("The maximum number of connections"))

	key = "pool-max-idle"
	cmd.PersistentFlags().Int(key, defaults.MaxIdle, WrapString("The maximum number of idle connections (0 for max size)"))

	key = "pool-min-idle"
	cmd.PersistentFlags().Int(key, defaults.MinIdle, WrapString("The number of connections opened on startup"))

	key = "pool-test-on-checkout"
	cmd.PersistentFlags().Bool(key, defaults.TestOnCheckout, WrapString("Whether to PING every connection before it is checked out"))

	key = "pool-checkout-timeout"
	cmd.PersistentFlags().Int(key, defaults.CheckoutTimeoutSecond, WrapString("How long to wait for a free connection (in seconds)"))

	key = "pool-idle-timeout"
	cmd.PersistentFlags().Int(key, defaults.IdleTimeoutSecond, WrapString("Idle connections are closed after this time (in seconds, 0 to disable)"))

	key = "pool-max-lifetime"
	cmd.PersistentFlags().Int(key, defaults.MaxLifetimeSecond, WrapString("Connections are closed after this time (in seconds, 0 to disable)"))

	key = "pool-eviction-interval"
	cmd.PersistentFlags().Int(key, defaults.EvictionIntervalSecond, WrapString("How often idle connections are checked for eviction (in seconds, 0 to disable)"))

	// Logging

	key = "log-level"
	cmd.PersistentFlags().String(key, "warn", WrapString("The log level (debug, info, warn, error)"))
}

var initConfigOnce sync.Once

// InitClientConfig initializes configuration from environment variables.
// Only the first call has an effect.
func InitClientConfig() {
	initConfigOnce.Do(func() {
		// load env files (variables that are already set win)
		_ = godotenv.Load(".env")
		_ = godotenv.Load(".env.local")

		// initialize viper
		viper.SetEnvPrefix("redispool")
		viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
		viper.AutomaticEnv() // read in environment variables that match
	})
}

// GetClientConfig reads the client configuration from viper
func GetClientConfig() common.ClientConfig {
	return common.ClientConfig{
		Connection: common.ConnectionConfig{
			URL:                  viper.GetString("url"),
			ConnectTimeoutSecond: viper.GetInt("connect-timeout"),
			ReadTimeoutSecond:    viper.GetInt("read-timeout"),
			WriteTimeoutSecond:   viper.GetInt("write-timeout"),
			ClientName:           viper.GetString("client-name"),
			Transport: common.TransportConfig{
				Type:       common.TransportType(viper.GetString("transport")),
				SocketPath: viper.GetString("transport-socket"),
				SocketConf: common.SocketConf{
					WriteBufferSize: viper.GetInt("transport-write-buffer") * 1024,
					ReadBufferSize:  viper.GetInt("transport-read-buffer") * 1024,
				},
				TCPConf: common.TCPConf{
					TCPKeepAliveSec: viper.GetInt("transport-tcp-keepalive"),
					TCPLingerSec:    viper.GetInt("transport-tcp-linger"),
					TCPNoDelay:      viper.GetBool("transport-tcp-nodelay"),
				},
			},
		},
		Pool: common.PoolConfig{
			Name:                   viper.GetString("pool-name"),
			MaxSize:                viper.GetInt("pool-max-size"),
			MaxIdle:                viper.GetInt("pool-max-idle"),
			MinIdle:                viper.GetInt("pool-min-idle"),
			TestOnCheckout:         viper.GetBool("pool-test-on-checkout"),
			CheckoutTimeoutSecond:  viper.GetInt("pool-checkout-timeout"),
			IdleTimeoutSecond:      viper.GetInt("pool-idle-timeout"),
			MaxLifetimeSecond:      viper.GetInt("pool-max-lifetime"),
			EvictionIntervalSecond: viper.GetInt("pool-eviction-interval"),
		},
		LogLevel: viper.GetString("log-level"),
	}
}

// GetConnector creates the connector for the configured transport
func GetConnector(config common.TransportConfig) (transport.IConnector, error) {
	switch config.Type {
	case common.TransportTCP, "":
		return tcp.NewTCPConnector(), nil
	case common.TransportUnix:
		return unix.NewUnixConnector(config.SocketPath), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", config.Type)
	}
}

// NewPool validates the configuration, initializes the loggers and creates the pool
func NewPool(ctx context.Context, config common.ClientConfig) (*redispool.Pool, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if err := common.InitLoggers(config.LogLevel); err != nil {
		return nil, err
	}

	connector, err := GetConnector(config.Connection.Transport)
	if err != nil {
		return nil, err
	}

	return redispool.New(ctx, config, connector)
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}
