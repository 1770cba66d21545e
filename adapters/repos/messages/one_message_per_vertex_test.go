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
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weaviate/graphbsp/entities/bsp"
	entityerrors "github.com/weaviate/graphbsp/entities/errors"
	"github.com/weaviate/graphbsp/usecases/sharding"
)

func newSumStore() *OneMessagePerVertexStore[*bsp.Float64Value] {
	return NewOneMessagePerVertexStore(newFloat64, bsp.Float64SumCombiner{},
		singlePartition(), newTestLogger(), nil)
}

func TestOneMessagePerVertex_CombinesAcrossBatches(t *testing.T) {
	store := newSumStore()

	require.Nil(t, store.AddPartitionMessages(0, float64Batch(t, []float64Pair{
		{vertexID: 1, msg: 3},
		{vertexID: 2, msg: 5},
	})))
	require.Nil(t, store.AddPartitionMessages(0, float64Batch(t, []float64Pair{
		{vertexID: 1, msg: 4},
	})))

	assert.Equal(t, []float64{7}, collectFloat64(t, store.VertexMessages(1)))
	assert.Equal(t, []float64{5}, collectFloat64(t, store.VertexMessages(2)))
	assert.True(t, store.HasMessagesForVertex(1))
	assert.ElementsMatch(t, []int64{1, 2}, store.PartitionDestinationVertices(0))
}

func TestOneMessagePerVertex_AbsenceMeansEmpty(t *testing.T) {
	store := newSumStore()

	assert.False(t, store.HasMessagesForVertex(42))
	assert.Empty(t, collectFloat64(t, store.VertexMessages(42)))
	assert.Empty(t, store.PartitionDestinationVertices(0))
}

func TestOneMessagePerVertex_Clears(t *testing.T) {
	t.Run("clear a single vertex", func(t *testing.T) {
		store := newSumStore()
		require.Nil(t, store.AddPartitionMessages(0, float64Batch(t, []float64Pair{
			{vertexID: 1, msg: 3},
			{vertexID: 2, msg: 5},
		})))

		store.ClearVertexMessages(1)

		assert.False(t, store.HasMessagesForVertex(1))
		assert.Empty(t, collectFloat64(t, store.VertexMessages(1)))
		assert.Equal(t, []float64{5}, collectFloat64(t, store.VertexMessages(2)))
	})

	t.Run("clear a partition", func(t *testing.T) {
		store := newSumStore()
		require.Nil(t, store.AddPartitionMessages(0, float64Batch(t, []float64Pair{
			{vertexID: 1, msg: 3},
			{vertexID: 2, msg: 5},
		})))

		store.ClearPartition(0)

		assert.False(t, store.HasMessagesForVertex(1))
		assert.False(t, store.HasMessagesForVertex(2))
		assert.Empty(t, store.PartitionDestinationVertices(0))
	})

	t.Run("clear everything", func(t *testing.T) {
		store := newSumStore()
		require.Nil(t, store.AddPartitionMessages(0, float64Batch(t, []float64Pair{
			{vertexID: 1, msg: 3},
		})))

		store.ClearAll()

		assert.False(t, store.HasMessagesForVertex(1))

		// the partition directory survives a full clear, ingestion for the
		// next superstep must work without reconstruction
		require.Nil(t, store.AddPartitionMessages(0, float64Batch(t, []float64Pair{
			{vertexID: 1, msg: 2},
		})))
		assert.Equal(t, []float64{2}, collectFloat64(t, store.VertexMessages(1)))
	})
}

func TestOneMessagePerVertex_UnknownPartition(t *testing.T) {
	store := newSumStore()

	err := store.AddPartitionMessages(7, float64Batch(t, []float64Pair{
		{vertexID: 1, msg: 3},
	}))
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "unknown partition")

	err = store.WritePartition(&bytes.Buffer{}, 7)
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "unknown partition")
}

func TestOneMessagePerVertex_ConcurrentIngest(t *testing.T) {
	const (
		writers           = 8
		batchesPerWriter  = 50
		verticesPerBatch  = 10
		expectedPerVertex = float64(writers * batchesPerWriter)
	)

	store := newSumStore()

	eg := entityerrors.NewErrorGroupWrapper(newTestLogger())
	for i := 0; i < writers; i++ {
		eg.Go(func() error {
			for j := 0; j < batchesPerWriter; j++ {
				batch := NewBatch(newFloat64)
				for v := 0; v < verticesPerBatch; v++ {
					one := bsp.Float64Value(1)
					if err := batch.Add(int64(v), &one); err != nil {
						return err
					}
				}
				if err := store.AddPartitionMessages(0, batch); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.Nil(t, eg.Wait())

	for v := int64(0); v < verticesPerBatch; v++ {
		assert.Equal(t, []float64{expectedPerVertex},
			collectFloat64(t, store.VertexMessages(v)))
	}
}

func TestOneMessagePerVertex_CheckpointRoundTrip(t *testing.T) {
	store := newSumStore()
	require.Nil(t, store.AddPartitionMessages(0, float64Batch(t, []float64Pair{
		{vertexID: 1, msg: 3},
		{vertexID: 2, msg: 5},
		{vertexID: 1, msg: 4},
	})))

	out := &bytes.Buffer{}
	require.Nil(t, store.WritePartition(out, 0))

	restored := newSumStore()
	require.Nil(t, restored.ReadPartition(bytes.NewReader(out.Bytes()), 0))

	assert.Equal(t, []float64{7}, collectFloat64(t, restored.VertexMessages(1)))
	assert.Equal(t, []float64{5}, collectFloat64(t, restored.VertexMessages(2)))
	assert.ElementsMatch(t, []int64{1, 2},
		restored.PartitionDestinationVertices(0))

	// the restored aggregates must combine further, they are live state,
	// not a read-only snapshot
	require.Nil(t, restored.AddPartitionMessages(0, float64Batch(t, []float64Pair{
		{vertexID: 2, msg: 1},
	})))
	assert.Equal(t, []float64{6}, collectFloat64(t, restored.VertexMessages(2)))
}

func TestOneMessagePerVertex_CheckpointTruncated(t *testing.T) {
	store := newSumStore()
	require.Nil(t, store.AddPartitionMessages(0, float64Batch(t, []float64Pair{
		{vertexID: 1, msg: 3},
		{vertexID: 2, msg: 5},
	})))

	out := &bytes.Buffer{}
	require.Nil(t, store.WritePartition(out, 0))

	restored := newSumStore()
	err := restored.ReadPartition(bytes.NewReader(out.Bytes()[:out.Len()-4]), 0)
	require.NotNil(t, err)
}

func TestOneMessagePerVertex_MultiplePartitions(t *testing.T) {
	assignment := sharding.NewAssignment(4, []int{0, 1, 2, 3})
	store := NewOneMessagePerVertexStore(newFloat64, bsp.Float64SumCombiner{},
		assignment, newTestLogger(), nil)

	for vertexID := int64(0); vertexID < 100; vertexID++ {
		partitionID := assignment.PartitionFor(vertexID)
		require.Nil(t, store.AddPartitionMessages(partitionID,
			float64Batch(t, []float64Pair{{vertexID: vertexID, msg: 1}})))
	}

	total := 0
	for _, partitionID := range assignment.PartitionIDs() {
		total += len(store.PartitionDestinationVertices(partitionID))
	}
	assert.Equal(t, 100, total)

	for vertexID := int64(0); vertexID < 100; vertexID++ {
		assert.True(t, store.HasMessagesForVertex(vertexID))
	}
}
