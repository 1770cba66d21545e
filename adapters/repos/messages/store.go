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

// Package messages accumulates the messages a worker receives between two
// supersteps. Many deserialization threads deliver partition-sized batches
// concurrently; the compute phase later drains the per-vertex aggregates
// and the whole store is cleared (or checkpointed) at the round boundary.
package messages

import (
	"io"

	"github.com/weaviate/graphbsp/entities/bsp"
)

const (
	// StrategyOneMessagePerVertex keeps a single combined message per
	// vertex. Requires a combiner.
	StrategyOneMessagePerVertex = "one_message_per_vertex"

	// StrategyByteArrayPerVertex appends the raw serialized bytes of every
	// message into one buffer per vertex. Used when no combiner is
	// configured.
	StrategyByteArrayPerVertex = "byte_array_per_vertex"
)

// PartitionAssignment is the worker's view of the cluster's partition
// layout: which partitions it owns, how large they are, and which
// partition any vertex belongs to. Provided by the BSP orchestration
// service, fixed within a superstep.
type PartitionAssignment interface {
	PartitionIDs() []int
	VertexCountHint(partitionID int) int
	PartitionFor(vertexID int64) int
}

// Messages is a restartable view over everything accumulated for one
// vertex in the current superstep. Iterate decodes lazily; every call
// starts over at the first message. Stopping early by returning an error
// from fn is allowed, the error is passed through unchanged.
type Messages[M bsp.Value] interface {
	Iterate(fn func(msg M) error) error
}

// Store is the per-superstep message accumulation contract. Ingestion via
// AddPartitionMessages is safe for concurrent use, both across partitions
// and for simultaneous batches targeting the same partition. The read and
// clear operations are meant for the compute phase, after ingestion for
// the round has completed.
//
// A vertex that received no messages has no aggregate: absence and an
// empty message set are the same thing.
type Store[M bsp.Value] interface {
	// AddPartitionMessages drains one batch into the given partition's
	// aggregates. On a decode error some prefix of the batch, unspecified
	// how much, has been applied; the error is returned without retries.
	AddPartitionMessages(partitionID int, batch *Batch[M]) error

	HasMessagesForVertex(vertexID int64) bool

	// VertexMessages never returns nil; a vertex without messages yields
	// an empty view.
	VertexMessages(vertexID int64) Messages[M]

	ClearVertexMessages(vertexID int64)
	ClearPartition(partitionID int)
	ClearAll()

	// PartitionDestinationVertices lists every vertex of the partition
	// with a non-empty aggregate, in no particular order.
	PartitionDestinationVertices(partitionID int) []int64

	// WritePartition and ReadPartition round-trip one partition's
	// aggregates through the binary checkpoint encoding: a uint32 vertex
	// count followed by (vertex id, aggregate) records.
	WritePartition(w io.Writer, partitionID int) error
	ReadPartition(r io.Reader, partitionID int) error
}

type emptyMessages[M bsp.Value] struct{}

func (emptyMessages[M]) Iterate(func(msg M) error) error {
	return nil
}
