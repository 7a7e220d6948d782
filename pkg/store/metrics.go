package store

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	opTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threadkit_store_ops_total",
		Help: "Store operations by name.",
	}, []string{"op"})

	opDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "threadkit_store_op_duration_seconds",
		Help:    "Store operation latency by name.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
)

// observe records one store operation; call the returned func when done.
func observe(op string) func() {
	start := time.Now()
	opTotal.WithLabelValues(op).Inc()
	return func() {
		opDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

// DiskUsage returns the best-effort on-disk size of the database, for the
// readiness and stats surfaces.
func DiskUsage() uint64 {
	if db == nil {
		return 0
	}
	m := db.Metrics()
	if m == nil {
		return 0
	}
	return m.DiskSpaceUsage()
}
