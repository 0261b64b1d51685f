// Package metrics holds the Prometheus collectors shared by the wallet core
// and the mint client.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type registry struct {
	operations  *prometheus.CounterVec
	mintLatency *prometheus.HistogramVec
	claims      *prometheus.CounterVec
}

var (
	once sync.Once
	reg  *registry
)

func get() *registry {
	once.Do(func() {
		reg = &registry{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "cashubot",
				Subsystem: "wallet",
				Name:      "operations_total",
				Help:      "Wallet operations segmented by operation and outcome.",
			}, []string{"op", "outcome"}),
			mintLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "cashubot",
				Subsystem: "mint",
				Name:      "request_duration_seconds",
				Help:      "Latency of mint requests.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"op", "outcome"}),
			claims: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "cashubot",
				Subsystem: "claims",
				Name:      "total",
				Help:      "Claim attempts segmented by result.",
			}, []string{"result"}),
		}
		prometheus.MustRegister(reg.operations, reg.mintLatency, reg.claims)
	})
	return reg
}

// ObserveOperation counts a wallet operation. A nil err counts as "ok".
func ObserveOperation(op string, err error) {
	get().operations.WithLabelValues(op, outcome(err)).Inc()
}

// ObserveMintRequest records the latency of a mint call started at start.
func ObserveMintRequest(op string, start time.Time, err error) {
	get().mintLatency.WithLabelValues(op, outcome(err)).Observe(time.Since(start).Seconds())
}

// ObserveClaim counts a claim attempt by result ("claimed", "pending",
// "skipped" or "error").
func ObserveClaim(result string) {
	get().claims.WithLabelValues(result).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
