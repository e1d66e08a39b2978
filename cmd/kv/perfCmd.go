package kv

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/redispool/cmd/util"
	"github.com/ValentinKolb/redispool/lib/common"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for pooled redis connections",
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__test"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfSkip             = make([]string, 0)

	// latencies of the single operations, one timer per benchmark
	perfTimers = gometrics.NewRegistry()
)

// benchmark is one entry of the perf test suite
type benchmark struct {
	name string
	// prefill writes all keys before the benchmark starts
	prefill bool
	// op is called for every iteration with the key of the iteration
	op func(key string) error
}

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of goroutines per CPU to use for the benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the set-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = viper.GetInt("keys")
	perfNumThreads = viper.GetInt("threads")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	if perfKeySpread <= 0 {
		return fmt.Errorf("keys must be greater than zero")
	}
	return nil
}

func benchmarks(ctx context.Context) []benchmark {
	largeValue := make([]byte, perfLargeValueSizeKB*1024)
	var counter atomic.Int64

	return []benchmark{
		{
			name: "checkout",
			op: func(string) error {
				conn, err := redisPool.Get(ctx)
				if err != nil {
					return err
				}
				return conn.Close()
			},
		},
		{
			name: "ping",
			op: func(string) error {
				_, err := redisPool.Do(ctx, "PING")
				return err
			},
		},
		{
			name: "set",
			op:   func(key string) error { return redisStore.Set(key, []byte("test")) },
		},
		{
			name: "set-large",
			op:   func(key string) error { return redisStore.Set(key, largeValue) },
		},
		{
			name:    "get",
			prefill: true,
			op: func(key string) error {
				_, _, err := redisStore.Get(key)
				return err
			},
		},
		{
			name:    "delete",
			prefill: true,
			op:      func(key string) error { return redisStore.Delete(key) },
		},
		{
			name:    "has",
			prefill: true,
			op: func(key string) error {
				_, err := redisStore.Has(key)
				return err
			},
		},
		{
			name: "has-not",
			op: func(key string) error {
				_, err := redisStore.Has(key + "-missing")
				return err
			},
		},
		{
			name:    "mixed",
			prefill: true,
			op: func(key string) error {
				var err error
				switch counter.Add(1) % 4 {
				case 0:
					err = redisStore.Set(key, []byte("test"))
				case 1:
					_, _, err = redisStore.Get(key)
				case 2:
					err = redisStore.Delete(key)
				case 3:
					_, err = redisStore.Has(key)
				}
				return err
			},
		},
	}
}

func run(cmd *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for pooled redis connections")

	fmt.Println()
	config := util.GetClientConfig()
	fmt.Println("Configuration:")
	fmt.Println(config.String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	fmt.Println("starting tests...")

	results := make(map[string]testing.BenchmarkResult)
	for _, bm := range benchmarks(cmd.Context()) {
		if shouldSkip(bm.name) {
			results[bm.name] = testing.BenchmarkResult{}
			printResult(bm.name, testing.BenchmarkResult{})
			continue
		}

		result := runBenchmark(bm)
		results[bm.name] = result
		printResult(bm.name, result)
	}

	fmt.Println()
	fmt.Printf("Pool state after the tests: %+v\n", redisPool.State())

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, config); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// runBenchmark runs one benchmark in parallel and records the latency of every operation
func runBenchmark(bm benchmark) testing.BenchmarkResult {
	timer := gometrics.GetOrRegisterTimer(bm.name, perfTimers)

	return testing.Benchmark(func(b *testing.B) {
		getKey, iter := getKeys(bm.name)

		if bm.prefill {
			iter(func(k string) {
				if err := redisStore.Set(k, []byte("test")); err != nil {
					log.Printf("(%s) - error setting key: %v\n", bm.name, err)
				}
			})
		}

		b.Cleanup(func() {
			iter(func(k string) {
				if err := redisStore.Delete(k); err != nil {
					log.Printf("(%s) - error deleting key: %v\n", bm.name, err)
				}
			})
		})

		b.SetParallelism(perfNumThreads)
		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				start := time.Now()
				if err := bm.op(getKey(counter)); err != nil {
					log.Printf("(%s) - error: %v\n", bm.name, err)
				}
				timer.UpdateSince(start)
				counter++
			}
		})
	})
}

func shouldSkip(test string) bool {
	return slices.Contains(perfSkip, test)
}

// creates an array of test keys and functions to work with them
func getKeys(prefix string) (func(int) string, func(func(string))) {
	keys := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}

	// Function to get a key by index (with wraparound)
	getKey := func(i int) string {
		return keys[i%perfKeySpread]
	}

	iterateKeys := func(fn func(string)) {
		for _, key := range keys {
			fn(key)
		}
	}

	return getKey, iterateKeys
}

// latency returns the p50 and p99 latency recorded for a test
func latency(test string) (p50, p99 time.Duration) {
	timer, ok := perfTimers.Get(test).(gometrics.Timer)
	if !ok || timer.Count() == 0 {
		return 0, 0
	}
	ps := timer.Percentiles([]float64{0.5, 0.99})
	return time.Duration(ps[0]), time.Duration(ps[1])
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)
	p50, p99 := latency(test)

	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\tp50=%s p99=%s\n",
		test, nsPerOp, time.Duration(nsPerOp), opsPerSec, p50, p99)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult, config common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "P50", "P99", "Skipped",
		"URL", "Transport", "PoolMaxSize", "PoolTestOnCheckout",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for test, result := range results {
		var nsPerOp float64
		var opsPerSec float64
		skipped := result.NsPerOp() == 0

		if !skipped {
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}
		p50, p99 := latency(test)

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			p50.String(),
			p99.String(),
			strconv.FormatBool(skipped),
			config.Connection.RedactedURL(),
			string(config.Connection.Transport.Type),
			strconv.Itoa(config.Pool.MaxSize),
			strconv.FormatBool(config.Pool.TestOnCheckout),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
