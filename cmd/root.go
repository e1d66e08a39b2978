package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/redispool/cmd/kv"
	"github.com/ValentinKolb/redispool/cmd/lock"
	"github.com/ValentinKolb/redispool/cmd/ping"
	"github.com/ValentinKolb/redispool/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (
	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "redispool",
		Short: "pooled redis connections",
		Long: fmt.Sprintf(`redispool (v%s)

A connection pool for redis written in Go. Connections are opened,
validated with PING and dropped when broken by a connection manager.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of redispool",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("redispool v%s\n", Version)
		},
	}
)

func init() {
	// load .env files and environment variables once for all commands
	cobra.OnInitialize(util.InitClientConfig)

	RootCmd.AddCommand(ping.PingCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(lock.LockCommands)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
