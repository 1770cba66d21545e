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

package byteops

import "encoding/binary"

// Buffer is an append-only, growable byte buffer. It implements io.Writer
// so that encoders can serialize straight into it without an intermediate
// allocation per write.
type Buffer struct {
	data []byte
}

func NewBuffer(capacity int) *Buffer {
	return &Buffer{data: make([]byte, 0, capacity)}
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *Buffer) AppendBytes(p []byte) {
	b.data = append(b.data, p...)
}

func (b *Buffer) AppendUint32(v uint32) {
	b.data = binary.LittleEndian.AppendUint32(b.data, v)
}

func (b *Buffer) AppendUint64(v uint64) {
	b.data = binary.LittleEndian.AppendUint64(b.data, v)
}

// AppendBytesWithUint32LengthIndicator writes a uint32 length indicator
// about the bytes that are about to follow, then writes the bytes
// themselves.
func (b *Buffer) AppendBytesWithUint32LengthIndicator(p []byte) {
	b.data = binary.LittleEndian.AppendUint32(b.data, uint32(len(p)))
	b.data = append(b.data, p...)
}

// Bytes returns the accumulated buffer. The slice aliases the buffer's
// backing array and stays valid only until the next append.
func (b *Buffer) Bytes() []byte {
	return b.data
}

func (b *Buffer) Len() int {
	return len(b.data)
}

func (b *Buffer) Reset() {
	b.data = b.data[:0]
}
