package lock

import (
	"encoding/hex"
	"fmt"

	"github.com/ValentinKolb/redispool/cmd/util"
	"github.com/ValentinKolb/redispool/lib/lockmgr"
	"github.com/ValentinKolb/redispool/lib/redispool"
	"github.com/ValentinKolb/redispool/lib/store/rstore"
	"github.com/spf13/cobra"
)

var (
	redisPool      *redispool.Pool
	lockMgr        lockmgr.ILockManager
	acquireTimeout uint64

	// LockCommands represents the lock command group
	LockCommands = &cobra.Command{
		Use:                "lock",
		Short:              "Perform lock operations",
		PersistentPreRunE:  setupLockClient,
		PersistentPostRunE: closeLockClient,
	}

	// acquireCmd represents the acquire command
	acquireCmd = &cobra.Command{
		Use:   "acquire [key]",
		Short: "Acquire a lock",
		Args:  cobra.ExactArgs(1),
		RunE:  runAcquire,
	}

	// releaseCmd represents the release command
	releaseCmd = &cobra.Command{
		Use:   "release [key] [ownerID]",
		Short: "Release a previously acquired lock",
		Long:  "Release a lock using the key and owner ID. The owner ID is the hex string returned by the acquire command.",
		Args:  cobra.ExactArgs(2),
		RunE:  runRelease,
	}
)

func init() {
	LockCommands.AddCommand(acquireCmd)
	LockCommands.AddCommand(releaseCmd)

	// Add connection and pool flags to the lock command
	util.SetupClientFlags(LockCommands)

	// Add flags specific to acquire
	acquireCmd.Flags().Uint64Var(&acquireTimeout, "lock-timeout", 30, "Lock timeout in seconds (0 for no timeout)")
}

// setupLockClient creates the pool and the lock manager on top of it
func setupLockClient(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	var err error
	redisPool, err = util.NewPool(cmd.Context(), util.GetClientConfig())
	if err != nil {
		return err
	}

	lockMgr = lockmgr.NewLockManager(rstore.NewRedisStore(redisPool))
	return nil
}

func closeLockClient(cmd *cobra.Command, _ []string) error {
	if redisPool != nil {
		redisPool.Close(cmd.Context())
	}
	return nil
}

// runAcquire handles the acquire lock command
func runAcquire(_ *cobra.Command, args []string) error {
	key := args[0]

	acquired, ownerID, err := lockMgr.AcquireLock(key, acquireTimeout)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %v", err)
	}

	if !acquired {
		fmt.Printf("acquired=false\n")
		return nil
	}

	fmt.Printf("acquired=true, ownerId=%s\n", hex.EncodeToString(ownerID))
	return nil
}

// runRelease handles the release lock command
func runRelease(_ *cobra.Command, args []string) error {
	key := args[0]

	ownerID, err := hex.DecodeString(args[1])
	if err != nil {
		return fmt.Errorf("invalid owner ID format: %v", err)
	}

	released, err := lockMgr.ReleaseLock(key, ownerID)
	if err != nil {
		return fmt.Errorf("failed to release lock: %v", err)
	}

	fmt.Printf("released=%v\n", released)
	return nil
}
