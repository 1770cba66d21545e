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
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weaviate/graphbsp/entities/bsp"
	"github.com/weaviate/graphbsp/usecases/monitoring"
)

func TestFactory_SelectsStrategyFromCombiner(t *testing.T) {
	t.Run("with combiner", func(t *testing.T) {
		factory := NewFactory(singlePartition(),
			func() bsp.Combiner[*bsp.Float64Value] {
				return bsp.Float64SumCombiner{}
			}, newTestLogger(), nil)

		store := factory.NewStore(newFloat64)
		assert.IsType(t, &OneMessagePerVertexStore[*bsp.Float64Value]{}, store)
	})

	t.Run("without combiner", func(t *testing.T) {
		factory := NewFactory(singlePartition(),
			func() bsp.Combiner[*bsp.Float64Value] {
				return nil
			}, newTestLogger(), nil)

		store := factory.NewStore(newFloat64)
		assert.IsType(t, &ByteArrayPerVertexStore[*bsp.Float64Value]{}, store)
	})

	t.Run("nil provider", func(t *testing.T) {
		factory := NewFactory[*bsp.Float64Value](singlePartition(), nil,
			newTestLogger(), nil)

		store := factory.NewStore(newFloat64)
		assert.IsType(t, &ByteArrayPerVertexStore[*bsp.Float64Value]{}, store)
	})
}

func TestFactory_RereadsCombinerOnEveryCall(t *testing.T) {
	// the computation may reconfigure the combiner between supersteps, so
	// the factory must consult the provider per NewStore call
	var active bsp.Combiner[*bsp.Float64Value]
	factory := NewFactory(singlePartition(),
		func() bsp.Combiner[*bsp.Float64Value] {
			return active
		}, newTestLogger(), nil)

	assert.IsType(t, &ByteArrayPerVertexStore[*bsp.Float64Value]{},
		factory.NewStore(newFloat64))

	active = bsp.Float64SumCombiner{}
	assert.IsType(t, &OneMessagePerVertexStore[*bsp.Float64Value]{},
		factory.NewStore(newFloat64))

	active = nil
	assert.IsType(t, &ByteArrayPerVertexStore[*bsp.Float64Value]{},
		factory.NewStore(newFloat64))
}

func TestFactory_WithMetrics(t *testing.T) {
	prom := monitoring.GetMetricsWithRegisterer(prometheus.NewRegistry())
	factory := NewFactory(singlePartition(),
		func() bsp.Combiner[*bsp.Float64Value] {
			return bsp.Float64SumCombiner{}
		}, newTestLogger(), NewMetrics(prom))

	store := factory.NewStore(newFloat64)
	require.Nil(t, store.AddPartitionMessages(0, float64Batch(t, []float64Pair{
		{vertexID: 1, msg: 3},
	})))
	assert.Equal(t, []float64{3}, collectFloat64(t, store.VertexMessages(1)))
}
