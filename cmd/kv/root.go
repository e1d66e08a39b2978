package kv

import (
	"github.com/ValentinKolb/redispool/cmd/util"
	"github.com/ValentinKolb/redispool/lib/redispool"
	"github.com/ValentinKolb/redispool/lib/store"
	"github.com/ValentinKolb/redispool/lib/store/rstore"
	"github.com/spf13/cobra"
)

var (
	redisPool  *redispool.Pool
	redisStore store.IStore

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:                "kv",
		Short:              "Perform key-value operations on pooled connections",
		PersistentPreRunE:  setupKVClient,
		PersistentPostRunE: closeKVClient,
	}
)

func init() {
	// Add connection and pool flags to the KV command
	util.SetupClientFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(setCmd)
	KeyValueCommands.AddCommand(setECmd)
	KeyValueCommands.AddCommand(setEIfUnsetCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(hasCmd)
	KeyValueCommands.AddCommand(sizeCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupKVClient creates the pool and the store on top of it
func setupKVClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	var err error
	redisPool, err = util.NewPool(cmd.Context(), util.GetClientConfig())
	if err != nil {
		return err
	}

	redisStore = rstore.NewRedisStore(redisPool)
	return nil
}

func closeKVClient(cmd *cobra.Command, _ []string) error {
	if redisPool != nil {
		redisPool.Close(cmd.Context())
	}
	return nil
}
