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

	"github.com/pkg/errors"

	"github.com/weaviate/graphbsp/entities/bsp"
	"github.com/weaviate/graphbsp/usecases/byteops"
)

// Batch is one partition's worth of incoming (vertex id, message) pairs as
// the wire deserialization layer hands them over. All records share a
// single backing buffer to keep the object count independent of the
// message count: vertex id (8 bytes), a uint32 message length indicator,
// then the still-serialized message bytes.
//
// A batch built without size encoding omits the length indicator. That
// saves 4 bytes per message on the wire but makes raw-byte traversal
// impossible, forcing consumers onto the decoding iterator.
//
// A batch is not safe for concurrent mutation; it is built once by a
// single deserialization thread and read-only afterwards.
type Batch[M bsp.Value] struct {
	newValue     bsp.ValueFactory[M]
	buf          *byteops.Buffer
	scratch      *byteops.Buffer
	count        int
	sizeEncoding bool
}

func NewBatch[M bsp.Value](newValue bsp.ValueFactory[M]) *Batch[M] {
	return &Batch[M]{
		newValue:     newValue,
		buf:          byteops.NewBuffer(0),
		scratch:      byteops.NewBuffer(0),
		sizeEncoding: true,
	}
}

// NewBatchWithoutSizeEncoding builds a batch whose records carry no length
// indicator. RawIterator returns nil for such a batch.
func NewBatchWithoutSizeEncoding[M bsp.Value](newValue bsp.ValueFactory[M]) *Batch[M] {
	b := NewBatch(newValue)
	b.sizeEncoding = false
	return b
}

func (b *Batch[M]) Add(vertexID int64, msg M) error {
	b.buf.AppendUint64(uint64(vertexID))

	if !b.sizeEncoding {
		if err := msg.WriteTo(b.buf); err != nil {
			return errors.Wrap(err, "serialize message into batch")
		}
		b.count++
		return nil
	}

	b.scratch.Reset()
	if err := msg.WriteTo(b.scratch); err != nil {
		return errors.Wrap(err, "serialize message into batch")
	}
	b.buf.AppendBytesWithUint32LengthIndicator(b.scratch.Bytes())
	b.count++
	return nil
}

// Count returns the number of (vertex id, message) pairs in the batch.
func (b *Batch[M]) Count() int {
	return b.count
}

// Size returns the backing buffer length in bytes.
func (b *Batch[M]) Size() int {
	return b.buf.Len()
}

// PairIterator traverses the batch decoding every message into a fresh
// value. Follows the bufio.Scanner protocol: Next advances and reports
// false at the end or on a decode error, Err tells the two apart.
func (b *Batch[M]) PairIterator() *PairIterator[M] {
	return &PairIterator[M]{
		newValue:     b.newValue,
		rw:           byteops.NewReadWriter(b.buf.Bytes()),
		sizeEncoding: b.sizeEncoding,
	}
}

// RawIterator traverses the batch without deserializing, yielding each
// message's still-serialized byte range. Returns nil when the batch was
// built without size encoding, in which case message boundaries are only
// discoverable by decoding.
func (b *Batch[M]) RawIterator() *RawIterator {
	if !b.sizeEncoding {
		return nil
	}

	return &RawIterator{rw: byteops.NewReadWriter(b.buf.Bytes())}
}

type PairIterator[M bsp.Value] struct {
	newValue     bsp.ValueFactory[M]
	rw           *byteops.ReadWriter
	sizeEncoding bool

	vertexID int64
	msg      M
	err      error
}

func (it *PairIterator[M]) Next() bool {
	if it.err != nil || it.rw.Exhausted() {
		return false
	}

	it.vertexID = int64(it.rw.ReadUint64())
	msg := it.newValue()

	if it.sizeEncoding {
		raw := it.rw.ReadBytesFromBufferWithUint32LengthIndicator()
		if err := msg.ReadFrom(bytes.NewReader(raw)); err != nil {
			it.err = errors.Wrapf(err, "decode message for vertex %d", it.vertexID)
			return false
		}
	} else {
		// without a length indicator the decoder itself determines the
		// record boundary, so track how far it read
		r := bytes.NewReader(it.rw.Buffer[it.rw.Position:])
		before := r.Len()
		if err := msg.ReadFrom(r); err != nil {
			it.err = errors.Wrapf(err, "decode message for vertex %d", it.vertexID)
			return false
		}
		it.rw.MoveBufferPositionForward(uint64(before - r.Len()))
	}

	it.msg = msg
	return true
}

func (it *PairIterator[M]) VertexID() int64 {
	return it.vertexID
}

func (it *PairIterator[M]) Message() M {
	return it.msg
}

func (it *PairIterator[M]) Err() error {
	return it.err
}

type RawIterator struct {
	rw *byteops.ReadWriter

	vertexID int64
	raw      []byte
}

func (it *RawIterator) Next() bool {
	if it.rw.Exhausted() {
		return false
	}

	it.vertexID = int64(it.rw.ReadUint64())
	it.raw = it.rw.ReadBytesFromBufferWithUint32LengthIndicator()
	return true
}

func (it *RawIterator) VertexID() int64 {
	return it.vertexID
}

// MessageBytes returns the current message's serialized bytes. The slice
// aliases the batch's backing buffer and must be copied to be retained.
func (it *RawIterator) MessageBytes() []byte {
	return it.raw
}
