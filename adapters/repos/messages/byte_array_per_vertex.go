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
	"encoding/binary"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/weaviate/graphbsp/entities/bsp"
	"github.com/weaviate/graphbsp/usecases/byteops"
)

// ByteArrayPerVertexStore appends the still-serialized bytes of every
// message into one growable buffer per destination vertex and only decodes
// them when the compute phase reads. Used when no combiner is configured:
// every message must be preserved, so the dominant cost is bytes copied,
// not lock contention. A single lock per partition keeps the bookkeeping
// cheap for workloads with many low-fan-in vertices.
//
// When the batch can hand out raw byte ranges they are copied without
// materializing a message object; otherwise each message is decoded and
// immediately re-serialized. Both paths produce identical buffer contents.
type ByteArrayPerVertexStore[M bsp.Value] struct {
	newValue   bsp.ValueFactory[M]
	assignment PartitionAssignment

	// directoryLock guards the partition directory structure, not the
	// partition contents. ReadPartition swaps in a freshly built map while
	// ingestion may be running for other partitions.
	directoryLock sync.RWMutex
	partitions    map[int]*byteArrayPartition

	logger  logrus.FieldLogger
	metrics *storeMetrics
}

type byteArrayPartition struct {
	lock     sync.Mutex
	vertices map[int64]*byteops.Buffer
}

var _ Store[*bsp.Float64Value] = (*ByteArrayPerVertexStore[*bsp.Float64Value])(nil)

func NewByteArrayPerVertexStore[M bsp.Value](newValue bsp.ValueFactory[M],
	assignment PartitionAssignment, logger logrus.FieldLogger,
	metrics *Metrics,
) *ByteArrayPerVertexStore[M] {
	s := &ByteArrayPerVertexStore[M]{
		newValue:   newValue,
		assignment: assignment,
		partitions: map[int]*byteArrayPartition{},
		logger:     logger,
		metrics:    newStoreMetrics(metrics, StrategyByteArrayPerVertex),
	}

	for _, partitionID := range assignment.PartitionIDs() {
		s.partitions[partitionID] = &byteArrayPartition{
			vertices: make(map[int64]*byteops.Buffer,
				assignment.VertexCountHint(partitionID)),
		}
	}

	return s
}

func (s *ByteArrayPerVertexStore[M]) AddPartitionMessages(partitionID int,
	batch *Batch[M],
) error {
	start := time.Now()
	defer s.metrics.addPartitionMessages(start.UnixNano())

	part, err := s.partition(partitionID)
	if err != nil {
		return err
	}

	part.lock.Lock()
	defer part.lock.Unlock()

	// Prefer copying the raw message bytes over deserializing a message
	// just to re-serialize it. For complex value types the decode is the
	// expensive part. Falls back to decode/re-encode when the batch
	// carries no message boundaries.
	if raw := batch.RawIterator(); raw != nil {
		for raw.Next() {
			part.buffer(raw.VertexID()).AppendBytes(raw.MessageBytes())
		}
	} else {
		it := batch.PairIterator()
		for it.Next() {
			if err := it.Message().WriteTo(part.buffer(it.VertexID())); err != nil {
				return errors.Wrapf(err,
					"re-serialize message for vertex %d", it.VertexID())
			}
		}
		if err := it.Err(); err != nil {
			return errors.Wrapf(err, "ingest batch into partition %d", partitionID)
		}
	}

	s.metrics.batchIngested()
	s.metrics.size(partitionID, len(part.vertices))
	return nil
}

func (s *ByteArrayPerVertexStore[M]) HasMessagesForVertex(vertexID int64) bool {
	part, err := s.partition(s.assignment.PartitionFor(vertexID))
	if err != nil {
		return false
	}

	part.lock.Lock()
	defer part.lock.Unlock()

	_, ok := part.vertices[vertexID]
	return ok
}

func (s *ByteArrayPerVertexStore[M]) VertexMessages(vertexID int64) Messages[M] {
	part, err := s.partition(s.assignment.PartitionFor(vertexID))
	if err != nil {
		return emptyMessages[M]{}
	}

	part.lock.Lock()
	buf, ok := part.vertices[vertexID]
	part.lock.Unlock()

	if !ok {
		return emptyMessages[M]{}
	}

	// capture the buffer's current logical length so the view stays stable
	// even if something is appended later
	return &byteArrayMessages[M]{
		newValue: s.newValue,
		data:     buf.Bytes(),
		length:   buf.Len(),
	}
}

func (s *ByteArrayPerVertexStore[M]) ClearVertexMessages(vertexID int64) {
	part, err := s.partition(s.assignment.PartitionFor(vertexID))
	if err != nil {
		return
	}

	part.lock.Lock()
	delete(part.vertices, vertexID)
	part.lock.Unlock()
}

func (s *ByteArrayPerVertexStore[M]) ClearPartition(partitionID int) {
	part, err := s.partition(partitionID)
	if err != nil {
		return
	}

	part.lock.Lock()
	part.vertices = make(map[int64]*byteops.Buffer,
		s.assignment.VertexCountHint(partitionID))
	part.lock.Unlock()

	s.metrics.size(partitionID, 0)
	s.logger.WithFields(logrus.Fields{
		"action":       "message_store_clear_partition",
		"partition_id": partitionID,
	}).Debug("cleared message buffers for partition")
}

func (s *ByteArrayPerVertexStore[M]) ClearAll() {
	s.directoryLock.RLock()
	defer s.directoryLock.RUnlock()

	for partitionID, part := range s.partitions {
		part.lock.Lock()
		part.vertices = make(map[int64]*byteops.Buffer,
			s.assignment.VertexCountHint(partitionID))
		part.lock.Unlock()

		s.metrics.size(partitionID, 0)
	}
}

func (s *ByteArrayPerVertexStore[M]) PartitionDestinationVertices(partitionID int) []int64 {
	part, err := s.partition(partitionID)
	if err != nil {
		return nil
	}

	part.lock.Lock()
	defer part.lock.Unlock()

	vertices := make([]int64, 0, len(part.vertices))
	for vertexID := range part.vertices {
		vertices = append(vertices, vertexID)
	}
	return vertices
}

func (s *ByteArrayPerVertexStore[M]) WritePartition(w io.Writer,
	partitionID int,
) error {
	start := time.Now()
	defer s.metrics.writePartition(start.UnixNano())

	part, err := s.partition(partitionID)
	if err != nil {
		return err
	}

	part.lock.Lock()
	defer part.lock.Unlock()

	if err := binary.Write(w, binary.LittleEndian,
		uint32(len(part.vertices))); err != nil {
		return errors.Wrap(err, "write vertex count")
	}

	for vertexID, buf := range part.vertices {
		if err := binary.Write(w, binary.LittleEndian, vertexID); err != nil {
			return errors.Wrap(err, "write vertex id")
		}
		if err := binary.Write(w, binary.LittleEndian,
			uint32(buf.Len())); err != nil {
			return errors.Wrap(err, "write buffer length")
		}
		if _, err := w.Write(buf.Bytes()); err != nil {
			return errors.Wrapf(err, "write buffer of vertex %d", vertexID)
		}
	}

	return nil
}

func (s *ByteArrayPerVertexStore[M]) ReadPartition(r io.Reader,
	partitionID int,
) error {
	start := time.Now()
	defer s.metrics.readPartition(start.UnixNano())

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return errors.Wrap(err, "read vertex count")
	}

	vertices := make(map[int64]*byteops.Buffer, count)
	for i := uint32(0); i < count; i++ {
		var vertexID int64
		if err := binary.Read(r, binary.LittleEndian, &vertexID); err != nil {
			return errors.Wrap(err, "read vertex id")
		}

		var length uint32
		if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
			return errors.Wrap(err, "read buffer length")
		}

		buf := byteops.NewBuffer(int(length))
		if _, err := io.CopyN(buf, r, int64(length)); err != nil {
			return errors.Wrapf(err, "read buffer of vertex %d", vertexID)
		}

		vertices[vertexID] = buf
	}

	s.directoryLock.Lock()
	s.partitions[partitionID] = &byteArrayPartition{vertices: vertices}
	s.directoryLock.Unlock()

	s.metrics.size(partitionID, len(vertices))
	s.logger.WithFields(logrus.Fields{
		"action":       "message_store_read_partition",
		"partition_id": partitionID,
		"vertex_count": len(vertices),
	}).Debug("restored message buffers for partition")
	return nil
}

func (s *ByteArrayPerVertexStore[M]) partition(partitionID int) (*byteArrayPartition, error) {
	s.directoryLock.RLock()
	defer s.directoryLock.RUnlock()

	part, ok := s.partitions[partitionID]
	if !ok {
		return nil, errors.Errorf("unknown partition %d", partitionID)
	}
	return part, nil
}

// buffer returns the vertex's accumulation buffer, creating it on first
// sight. Callers must hold the partition lock.
func (p *byteArrayPartition) buffer(vertexID int64) *byteops.Buffer {
	buf, ok := p.vertices[vertexID]
	if !ok {
		buf = byteops.NewBuffer(0)
		p.vertices[vertexID] = buf
	}
	return buf
}

// byteArrayMessages replays a vertex's buffer front to back, decoding one
// message at a time. Each Iterate call takes a fresh read from offset
// zero; the underlying bytes are never mutated by reads.
type byteArrayMessages[M bsp.Value] struct {
	newValue bsp.ValueFactory[M]
	data     []byte
	length   int
}

func (b *byteArrayMessages[M]) Iterate(fn func(msg M) error) error {
	r := bytes.NewReader(b.data[:b.length])
	for r.Len() > 0 {
		msg := b.newValue()
		if err := msg.ReadFrom(r); err != nil {
			return errors.Wrap(err, "decode accumulated message")
		}
		if err := fn(msg); err != nil {
			return err
		}
	}
	return nil
}
