package pool

import (
	"fmt"
	"github.com/VictoriaMetrics/metrics"
	"io"
)

// poolMetrics holds the metrics of one pool. Every pool owns its own metrics.Set,
// so several pools can live in the same process.
type poolMetrics struct {
	set *metrics.Set

	created            *metrics.Counter
	destroyed          *metrics.Counter
	checkouts          *metrics.Counter
	checkoutErrors     *metrics.Counter
	validationFailures *metrics.Counter
	broken             *metrics.Counter
	expired            *metrics.Counter
	checkoutWait       *metrics.Histogram
}

func newPoolMetrics(name string, state func() State) *poolMetrics {
	set := metrics.NewSet()
	metricName := func(metric string) string {
		return fmt.Sprintf("redispool_%s{pool=%q}", metric, name)
	}

	m := &poolMetrics{
		set:                set,
		created:            set.NewCounter(metricName("connections_created_total")),
		destroyed:          set.NewCounter(metricName("connections_destroyed_total")),
		checkouts:          set.NewCounter(metricName("checkouts_total")),
		checkoutErrors:     set.NewCounter(metricName("checkout_errors_total")),
		validationFailures: set.NewCounter(metricName("validation_failures_total")),
		broken:             set.NewCounter(metricName("broken_connections_total")),
		expired:            set.NewCounter(metricName("expired_connections_total")),
		checkoutWait:       set.NewHistogram(metricName("checkout_wait_seconds")),
	}

	set.NewGauge(metricName("connections"), func() float64 {
		return float64(state().Connections)
	})
	set.NewGauge(metricName("connections_idle"), func() float64 {
		return float64(state().Idle)
	})
	set.NewGauge(metricName("connections_in_use"), func() float64 {
		return float64(state().InUse)
	})

	return m
}

// write writes all metrics in the Prometheus text format
func (m *poolMetrics) write(w io.Writer) {
	m.set.WritePrometheus(w)
}
