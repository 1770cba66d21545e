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

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/weaviate/graphbsp/entities/bsp"
	"github.com/weaviate/graphbsp/usecases/sharding"
)

func newTestLogger() logrus.FieldLogger {
	logger, _ := logrustest.NewNullLogger()
	return logger
}

// singlePartition puts every vertex into partition 0.
func singlePartition() *sharding.Assignment {
	return sharding.NewAssignment(1, []int{0})
}

func newFloat64() *bsp.Float64Value {
	return new(bsp.Float64Value)
}

func newBytes() *bsp.BytesValue {
	return new(bsp.BytesValue)
}

type float64Pair struct {
	vertexID int64
	msg      float64
}

func float64Batch(t *testing.T, pairs []float64Pair) *Batch[*bsp.Float64Value] {
	t.Helper()

	batch := NewBatch(newFloat64)
	for _, pair := range pairs {
		v := bsp.Float64Value(pair.msg)
		require.Nil(t, batch.Add(pair.vertexID, &v))
	}
	return batch
}

type bytesPair struct {
	vertexID int64
	msg      string
}

func bytesBatch(t *testing.T, sizeEncoding bool, pairs []bytesPair) *Batch[*bsp.BytesValue] {
	t.Helper()

	batch := NewBatch(newBytes)
	if !sizeEncoding {
		batch = NewBatchWithoutSizeEncoding(newBytes)
	}

	for _, pair := range pairs {
		v := bsp.BytesValue(pair.msg)
		require.Nil(t, batch.Add(pair.vertexID, &v))
	}
	return batch
}

func collectFloat64(t *testing.T, msgs Messages[*bsp.Float64Value]) []float64 {
	t.Helper()

	var out []float64
	err := msgs.Iterate(func(msg *bsp.Float64Value) error {
		out = append(out, float64(*msg))
		return nil
	})
	require.Nil(t, err)
	return out
}

func collectStrings(t *testing.T, msgs Messages[*bsp.BytesValue]) []string {
	t.Helper()

	var out []string
	err := msgs.Iterate(func(msg *bsp.BytesValue) error {
		out = append(out, string(*msg))
		return nil
	})
	require.Nil(t, err)
	return out
}
