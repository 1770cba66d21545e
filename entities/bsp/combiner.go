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

package bsp

import "math"

// Combiner reduces all messages addressed to one vertex into a single
// value. Ingestion makes no ordering guarantees across batches, so Combine
// must be commutative and associative. Combine mutates aggregate in place;
// the incoming value must not be retained.
type Combiner[M Value] interface {
	// CreateInitialMessage returns the neutral element the first message
	// for a vertex is combined into.
	CreateInitialMessage() M

	Combine(vertexID int64, aggregate, incoming M)
}

// Float64SumCombiner adds all float64 messages per vertex.
type Float64SumCombiner struct{}

func (Float64SumCombiner) CreateInitialMessage() *Float64Value {
	return new(Float64Value)
}

func (Float64SumCombiner) Combine(_ int64, aggregate, incoming *Float64Value) {
	*aggregate += *incoming
}

// Int64MinCombiner keeps the smallest int64 message per vertex.
type Int64MinCombiner struct{}

func (Int64MinCombiner) CreateInitialMessage() *Int64Value {
	v := Int64Value(math.MaxInt64)
	return &v
}

func (Int64MinCombiner) Combine(_ int64, aggregate, incoming *Int64Value) {
	if *incoming < *aggregate {
		*aggregate = *incoming
	}
}
