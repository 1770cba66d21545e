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

// Package sharding maps vertices onto the fixed set of partitions a
// cluster computes over and tracks which of those partitions the local
// worker owns.
package sharding

import (
	"encoding/binary"
	"sync"

	"github.com/spaolacci/murmur3"
)

// Assignment describes the partition layout from one worker's point of
// view. Vertex ids are spread with murmur3 so that clustered or renumbered
// id ranges still balance across partitions.
//
// The owned set is fixed for the lifetime of the assignment; vertex count
// hints may be updated as partitions are loaded.
type Assignment struct {
	totalCount int
	owned      []int

	hintLock sync.Mutex
	hints    map[int]int
}

func NewAssignment(totalCount int, owned []int) *Assignment {
	return &Assignment{
		totalCount: totalCount,
		owned:      owned,
		hints:      map[int]int{},
	}
}

// PartitionFor returns the partition a vertex belongs to. The result is
// stable across workers and supersteps.
func (a *Assignment) PartitionFor(vertexID int64) int {
	var key [8]byte
	binary.LittleEndian.PutUint64(key[:], uint64(vertexID))
	return int(murmur3.Sum32(key[:]) % uint32(a.totalCount))
}

// PartitionIDs returns the partitions owned by the local worker.
func (a *Assignment) PartitionIDs() []int {
	out := make([]int, len(a.owned))
	copy(out, a.owned)
	return out
}

// VertexCountHint returns the last known vertex count of a partition, used
// by stores to pre-size their per-partition maps. Zero when unknown.
func (a *Assignment) VertexCountHint(partitionID int) int {
	a.hintLock.Lock()
	defer a.hintLock.Unlock()

	return a.hints[partitionID]
}

func (a *Assignment) SetVertexCountHint(partitionID, vertexCount int) {
	a.hintLock.Lock()
	defer a.hintLock.Unlock()

	a.hints[partitionID] = vertexCount
}
