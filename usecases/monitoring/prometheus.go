//                           _       _
// __      _____  __ ___   ___  __ _| |_ ___
// \ \ /\ / / _ \/ _` \ \ / / |/ _` | __/ _ \
//  \ V  V /  __/ (_| |\ V /| | (_| | ||  __/
//   \_/\_/ \___|\__,_| \_/ |_|\__,_|\__\___|
//
//  Copyright © 2016 - 2024 Weaviate B.V. All rights reserved.
//
//  CONTACT: hello@weaviate.io
//

package monitoring

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics holds the metric vectors of the worker. A nil
// *PrometheusMetrics disables all instrumentation; consumers curry the
// vectors through nil-safe helpers instead of touching them directly.
type PrometheusMetrics struct {
	Registerer prometheus.Registerer

	MessageStoreDurations prometheus.ObserverVec
	MessageStoreSize      *prometheus.GaugeVec
	MessageBatches        *prometheus.CounterVec
}

var (
	metrics     *PrometheusMetrics
	metricsOnce sync.Once
)

// GetMetrics returns the process-wide metrics, registered against the
// default registerer on first use.
func GetMetrics() *PrometheusMetrics {
	metricsOnce.Do(func() {
		metrics = newPrometheusMetrics(prometheus.DefaultRegisterer)
	})
	return metrics
}

// GetMetricsWithRegisterer is intended for tests which need an isolated
// registry per test case.
func GetMetricsWithRegisterer(reg prometheus.Registerer) *PrometheusMetrics {
	return newPrometheusMetrics(reg)
}

func newPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	pm := &PrometheusMetrics{
		Registerer: reg,

		MessageStoreDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "message_store_durations_ms",
			Help:    "Duration of an individual message store operation",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"strategy", "operation"}),

		MessageStoreSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "message_store_aggregates",
			Help: "Number of per-vertex aggregates currently held per partition",
		}, []string{"strategy", "partition"}),

		MessageBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "message_store_batches_total",
			Help: "Number of message batches ingested",
		}, []string{"strategy"}),
	}

	reg.MustRegister(
		pm.MessageStoreDurations,
		pm.MessageStoreSize,
		pm.MessageBatches,
	)

	return pm
}
