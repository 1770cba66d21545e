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

package messages

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/weaviate/graphbsp/usecases/monitoring"
)

type NsObserver func(startNs int64)

type (
	BatchCounter func()
	SizeSetter   func(partitionID, aggregates int)
)

// Metrics wraps the monitoring vectors for this package. A nil *Metrics
// disables all instrumentation.
type Metrics struct {
	durations prometheus.ObserverVec
	size      *prometheus.GaugeVec
	batches   *prometheus.CounterVec
}

func NewMetrics(prom *monitoring.PrometheusMetrics) *Metrics {
	if prom == nil {
		return nil
	}

	return &Metrics{
		durations: prom.MessageStoreDurations,
		size:      prom.MessageStoreSize,
		batches:   prom.MessageBatches,
	}
}

func noOpNsObserver(startNs int64) {
}

func (m *Metrics) OpObserver(strategy, op string) NsObserver {
	if m == nil {
		return noOpNsObserver
	}

	curried := m.durations.With(prometheus.Labels{
		"strategy":  strategy,
		"operation": op,
	})

	return func(startNs int64) {
		took := float64(time.Now().UnixNano()-startNs) / float64(time.Millisecond)
		curried.Observe(took)
	}
}

func (m *Metrics) BatchCounter(strategy string) BatchCounter {
	if m == nil {
		return func() {}
	}

	curried := m.batches.With(prometheus.Labels{"strategy": strategy})
	return func() {
		curried.Inc()
	}
}

func (m *Metrics) SizeSetter(strategy string) SizeSetter {
	if m == nil {
		return func(int, int) {}
	}

	return func(partitionID, aggregates int) {
		m.size.With(prometheus.Labels{
			"strategy":  strategy,
			"partition": strconv.Itoa(partitionID),
		}).Set(float64(aggregates))
	}
}

// storeMetrics curries the prometheus functions just once at store
// construction so they don't have to be curried on the hotpath where this
// would lead to a lot of allocations.
type storeMetrics struct {
	addPartitionMessages NsObserver
	writePartition       NsObserver
	readPartition        NsObserver
	batchIngested        BatchCounter
	size                 SizeSetter
}

func newStoreMetrics(metrics *Metrics, strategy string) *storeMetrics {
	return &storeMetrics{
		addPartitionMessages: metrics.OpObserver(strategy, "addPartitionMessages"),
		writePartition:       metrics.OpObserver(strategy, "writePartition"),
		readPartition:        metrics.OpObserver(strategy, "readPartition"),
		batchIngested:        metrics.BatchCounter(strategy),
		size:                 metrics.SizeSetter(strategy),
	}
}
