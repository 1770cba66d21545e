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

// Package byteops provides helpers to (un-) marshal objects from or into a
// byte buffer
package byteops

import "encoding/binary"

const (
	uint32Len = 4
	uint64Len = 8
)

// ReadWriter parses a buffer front to back. All integers are little-endian.
type ReadWriter struct {
	Position uint64
	Buffer   []byte
}

func NewReadWriter(buf []byte) *ReadWriter {
	return &ReadWriter{Buffer: buf}
}

func (rw *ReadWriter) ReadUint32() uint32 {
	rw.Position += uint32Len
	return binary.LittleEndian.Uint32(rw.Buffer[rw.Position-uint32Len : rw.Position])
}

func (rw *ReadWriter) ReadUint64() uint64 {
	rw.Position += uint64Len
	return binary.LittleEndian.Uint64(rw.Buffer[rw.Position-uint64Len : rw.Position])
}

func (rw *ReadWriter) ReadBytesFromBuffer(length uint64) []byte {
	subslice := rw.Buffer[rw.Position : rw.Position+length]
	rw.Position += length
	return subslice
}

func (rw *ReadWriter) ReadBytesFromBufferWithUint32LengthIndicator() []byte {
	rw.Position += uint32Len
	bufLen := uint64(binary.LittleEndian.Uint32(rw.Buffer[rw.Position-uint32Len : rw.Position]))

	rw.Position += bufLen
	subslice := rw.Buffer[rw.Position-bufLen : rw.Position]
	return subslice
}

func (rw *ReadWriter) DiscardBytesFromBufferWithUint32LengthIndicator() uint32 {
	rw.Position += uint32Len
	bufLen := binary.LittleEndian.Uint32(rw.Buffer[rw.Position-uint32Len : rw.Position])

	rw.Position += uint64(bufLen)
	return bufLen
}

func (rw *ReadWriter) MoveBufferPositionForward(length uint64) {
	rw.Position += length
}

func (rw *ReadWriter) Exhausted() bool {
	return rw.Position >= uint64(len(rw.Buffer))
}
