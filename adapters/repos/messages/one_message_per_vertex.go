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
	"encoding/binary"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/weaviate/graphbsp/entities/bsp"
)

// OneMessagePerVertexStore keeps a single combined message per destination
// vertex, reduced through the configured combiner. Chosen for high-fan-in
// workloads, so writes to distinct vertices must never serialize against
// each other: the partition map is only locked for lookup and
// insert-if-absent, combining happens under a lock scoped to the
// individual aggregate.
type OneMessagePerVertexStore[M bsp.Value] struct {
	newValue   bsp.ValueFactory[M]
	combiner   bsp.Combiner[M]
	assignment PartitionAssignment

	// directoryLock guards the partition directory structure, not the
	// partition contents. ReadPartition swaps in a freshly built map while
	// ingestion may be running for other partitions.
	directoryLock sync.RWMutex
	partitions    map[int]*combinedPartition[M]

	logger  logrus.FieldLogger
	metrics *storeMetrics
}

type combinedPartition[M bsp.Value] struct {
	lock     sync.RWMutex
	vertices map[int64]*combinedAggregate[M]
}

type combinedAggregate[M bsp.Value] struct {
	lock  sync.Mutex
	value M
}

var _ Store[*bsp.Float64Value] = (*OneMessagePerVertexStore[*bsp.Float64Value])(nil)

func NewOneMessagePerVertexStore[M bsp.Value](newValue bsp.ValueFactory[M],
	combiner bsp.Combiner[M], assignment PartitionAssignment,
	logger logrus.FieldLogger, metrics *Metrics,
) *OneMessagePerVertexStore[M] {
	s := &OneMessagePerVertexStore[M]{
		newValue:   newValue,
		combiner:   combiner,
		assignment: assignment,
		partitions: map[int]*combinedPartition[M]{},
		logger:     logger,
		metrics:    newStoreMetrics(metrics, StrategyOneMessagePerVertex),
	}

	for _, partitionID := range assignment.PartitionIDs() {
		s.partitions[partitionID] = &combinedPartition[M]{
			vertices: make(map[int64]*combinedAggregate[M],
				assignment.VertexCountHint(partitionID)),
		}
	}

	return s
}

func (s *OneMessagePerVertexStore[M]) AddPartitionMessages(partitionID int,
	batch *Batch[M],
) error {
	start := time.Now()
	defer s.metrics.addPartitionMessages(start.UnixNano())

	part, err := s.partition(partitionID)
	if err != nil {
		return err
	}

	it := batch.PairIterator()
	for it.Next() {
		vertexID := it.VertexID()
		agg := part.getOrCreate(vertexID, s.combiner)

		agg.lock.Lock()
		s.combiner.Combine(vertexID, agg.value, it.Message())
		agg.lock.Unlock()
	}
	if err := it.Err(); err != nil {
		return errors.Wrapf(err, "ingest batch into partition %d", partitionID)
	}

	s.metrics.batchIngested()
	s.metrics.size(partitionID, part.len())
	return nil
}

func (s *OneMessagePerVertexStore[M]) HasMessagesForVertex(vertexID int64) bool {
	part, err := s.partition(s.assignment.PartitionFor(vertexID))
	if err != nil {
		return false
	}

	part.lock.RLock()
	defer part.lock.RUnlock()

	_, ok := part.vertices[vertexID]
	return ok
}

func (s *OneMessagePerVertexStore[M]) VertexMessages(vertexID int64) Messages[M] {
	part, err := s.partition(s.assignment.PartitionFor(vertexID))
	if err != nil {
		return emptyMessages[M]{}
	}

	part.lock.RLock()
	agg, ok := part.vertices[vertexID]
	part.lock.RUnlock()

	if !ok {
		return emptyMessages[M]{}
	}

	return singleMessage[M]{msg: agg.value}
}

func (s *OneMessagePerVertexStore[M]) ClearVertexMessages(vertexID int64) {
	part, err := s.partition(s.assignment.PartitionFor(vertexID))
	if err != nil {
		return
	}

	part.lock.Lock()
	delete(part.vertices, vertexID)
	part.lock.Unlock()
}

func (s *OneMessagePerVertexStore[M]) ClearPartition(partitionID int) {
	part, err := s.partition(partitionID)
	if err != nil {
		return
	}

	part.lock.Lock()
	part.vertices = make(map[int64]*combinedAggregate[M],
		s.assignment.VertexCountHint(partitionID))
	part.lock.Unlock()

	s.metrics.size(partitionID, 0)
	s.logger.WithFields(logrus.Fields{
		"action":       "message_store_clear_partition",
		"partition_id": partitionID,
	}).Debug("cleared combined messages for partition")
}

func (s *OneMessagePerVertexStore[M]) ClearAll() {
	s.directoryLock.RLock()
	defer s.directoryLock.RUnlock()

	for partitionID, part := range s.partitions {
		part.lock.Lock()
		part.vertices = make(map[int64]*combinedAggregate[M],
			s.assignment.VertexCountHint(partitionID))
		part.lock.Unlock()

		s.metrics.size(partitionID, 0)
	}
}

func (s *OneMessagePerVertexStore[M]) PartitionDestinationVertices(partitionID int) []int64 {
	part, err := s.partition(partitionID)
	if err != nil {
		return nil
	}

	part.lock.RLock()
	defer part.lock.RUnlock()

	vertices := make([]int64, 0, len(part.vertices))
	for vertexID := range part.vertices {
		vertices = append(vertices, vertexID)
	}
	return vertices
}

func (s *OneMessagePerVertexStore[M]) WritePartition(w io.Writer,
	partitionID int,
) error {
	start := time.Now()
	defer s.metrics.writePartition(start.UnixNano())

	part, err := s.partition(partitionID)
	if err != nil {
		return err
	}

	part.lock.RLock()
	defer part.lock.RUnlock()

	if err := binary.Write(w, binary.LittleEndian,
		uint32(len(part.vertices))); err != nil {
		return errors.Wrap(err, "write vertex count")
	}

	for vertexID, agg := range part.vertices {
		if err := binary.Write(w, binary.LittleEndian, vertexID); err != nil {
			return errors.Wrap(err, "write vertex id")
		}
		if err := agg.value.WriteTo(w); err != nil {
			return errors.Wrapf(err, "write aggregate of vertex %d", vertexID)
		}
	}

	return nil
}

func (s *OneMessagePerVertexStore[M]) ReadPartition(r io.Reader,
	partitionID int,
) error {
	start := time.Now()
	defer s.metrics.readPartition(start.UnixNano())

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return errors.Wrap(err, "read vertex count")
	}

	vertices := make(map[int64]*combinedAggregate[M], count)
	for i := uint32(0); i < count; i++ {
		var vertexID int64
		if err := binary.Read(r, binary.LittleEndian, &vertexID); err != nil {
			return errors.Wrap(err, "read vertex id")
		}

		msg := s.newValue()
		if err := msg.ReadFrom(r); err != nil {
			return errors.Wrapf(err, "read aggregate of vertex %d", vertexID)
		}

		vertices[vertexID] = &combinedAggregate[M]{value: msg}
	}

	s.directoryLock.Lock()
	s.partitions[partitionID] = &combinedPartition[M]{vertices: vertices}
	s.directoryLock.Unlock()

	s.metrics.size(partitionID, len(vertices))
	s.logger.WithFields(logrus.Fields{
		"action":       "message_store_read_partition",
		"partition_id": partitionID,
		"vertex_count": len(vertices),
	}).Debug("restored combined messages for partition")
	return nil
}

func (s *OneMessagePerVertexStore[M]) partition(partitionID int) (*combinedPartition[M], error) {
	s.directoryLock.RLock()
	defer s.directoryLock.RUnlock()

	part, ok := s.partitions[partitionID]
	if !ok {
		return nil, errors.Errorf("unknown partition %d", partitionID)
	}
	return part, nil
}

// getOrCreate returns the vertex's aggregate, creating it on first sight.
// The speculatively created initial message is thrown away when another
// writer inserted first: it never received a message, so discarding it is
// safe.
func (p *combinedPartition[M]) getOrCreate(vertexID int64,
	combiner bsp.Combiner[M],
) *combinedAggregate[M] {
	p.lock.RLock()
	agg, ok := p.vertices[vertexID]
	p.lock.RUnlock()

	if ok {
		return agg
	}

	created := &combinedAggregate[M]{value: combiner.CreateInitialMessage()}

	p.lock.Lock()
	defer p.lock.Unlock()

	if winner, ok := p.vertices[vertexID]; ok {
		return winner
	}

	p.vertices[vertexID] = created
	return created
}

func (p *combinedPartition[M]) len() int {
	p.lock.RLock()
	defer p.lock.RUnlock()

	return len(p.vertices)
}

type singleMessage[M bsp.Value] struct {
	msg M
}

func (s singleMessage[M]) Iterate(fn func(msg M) error) error {
	return fn(s.msg)
}
