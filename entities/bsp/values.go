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

// Package bsp holds the shared vocabulary of the BSP worker: message
// values, the combiner contract, and a few stock implementations of both.
package bsp

import (
	"encoding/binary"
	"io"
)

// Value is a message payload held in a message store. The binary encoding
// must be self-delimiting: values are appended back to back into a single
// buffer and decoded again without any separators between them. ReadFrom
// must consume exactly the bytes a prior WriteTo produced.
type Value interface {
	WriteTo(w io.Writer) error
	ReadFrom(r io.Reader) error
}

// ValueFactory constructs a fresh zero value. Stores and batches use it to
// decode incoming bytes into typed messages.
type ValueFactory[M Value] func() M

// Float64Value is a fixed-width 8-byte message payload.
type Float64Value float64

func (v *Float64Value) WriteTo(w io.Writer) error {
	return binary.Write(w, binary.LittleEndian, float64(*v))
}

func (v *Float64Value) ReadFrom(r io.Reader) error {
	return binary.Read(r, binary.LittleEndian, (*float64)(v))
}

// Int64Value is a fixed-width 8-byte message payload.
type Int64Value int64

func (v *Int64Value) WriteTo(w io.Writer) error {
	return binary.Write(w, binary.LittleEndian, int64(*v))
}

func (v *Int64Value) ReadFrom(r io.Reader) error {
	return binary.Read(r, binary.LittleEndian, (*int64)(v))
}

// BytesValue is a variable-length payload, encoded with a uint32 length
// indicator followed by the raw bytes.
type BytesValue []byte

func (v *BytesValue) WriteTo(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(*v))); err != nil {
		return err
	}

	_, err := w.Write(*v)
	return err
}

func (v *BytesValue) ReadFrom(r io.Reader) error {
	var length uint32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return err
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}

	*v = buf
	return nil
}
