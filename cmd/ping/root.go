package ping

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ValentinKolb/redispool/cmd/util"
	"github.com/ValentinKolb/redispool/lib/redispool"
	"github.com/gomodule/redigo/redis"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	PingCmd = &cobra.Command{
		Use:   "ping",
		Short: "Check out connections from the pool and ping the server",
		Long: `Creates a pool with the specified configuration, checks out --count connections at the same time and sends a PING on each of them.
The configuration can be set via command line flags or environment variables. The format of the environment variables is REDISPOOL_<flag> (e.g. REDISPOOL_POOL_MAX_SIZE=20)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	util.SetupClientFlags(PingCmd)

	key := "count"
	PingCmd.Flags().Int(key, 1, util.WrapString("Number of connections that are checked out and pinged concurrently"))

	key = "metrics"
	PingCmd.Flags().Bool(key, false, util.WrapString("Print the pool metrics in the Prometheus text format afterward"))
}

func processConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	if viper.GetInt("count") < 1 {
		return fmt.Errorf("count must be at least 1")
	}
	return nil
}

func run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	config := util.GetClientConfig()

	fmt.Println("Configuration:")
	fmt.Println(config.String())

	p, err := util.NewPool(ctx, config)
	if err != nil {
		return err
	}
	defer p.Close(ctx)

	count := viper.GetInt("count")
	errs := make([]error, count)
	conns := make([]*redispool.Conn, count)

	// check out all connections first, so that they are held at the same time
	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conns[i], errs[i] = p.Get(ctx)
		}(i)
	}
	wg.Wait()

	fmt.Printf("State (all checked out): %+v\n", p.State())

	failed := 0
	for i, conn := range conns {
		if errs[i] != nil {
			failed++
			fmt.Printf("conn %-3d checkout failed: %v\n", i, errs[i])
			continue
		}

		start := time.Now()
		reply, err := redis.String(conn.DoContext(ctx, "PING"))
		if err != nil {
			failed++
			fmt.Printf("conn %-3d ping failed: %v\n", i, err)
		} else {
			fmt.Printf("conn %-3d %s in %s\n", i, reply, time.Since(start))
		}

		if err := conn.Close(); err != nil {
			fmt.Printf("conn %-3d return failed: %v\n", i, err)
		}
	}

	fmt.Printf("State (all returned): %+v\n", p.State())

	if viper.GetBool("metrics") {
		fmt.Println()
		p.WriteMetrics(os.Stdout)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d pings failed", failed, count)
	}
	return nil
}
