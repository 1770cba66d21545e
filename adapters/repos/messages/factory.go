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
	"github.com/sirupsen/logrus"

	"github.com/weaviate/graphbsp/entities/bsp"
)

// CombinerProvider returns the combiner the computation is currently
// configured with, or nil when messages must be kept individually. The
// computation may swap combiners between supersteps, which is why the
// factory takes a provider instead of a combiner.
type CombinerProvider[M bsp.Value] func() bsp.Combiner[M]

// Factory builds the message store matching the active combiner
// configuration. The provider is consulted again on every NewStore call,
// never cached.
type Factory[M bsp.Value] struct {
	assignment PartitionAssignment
	combiner   CombinerProvider[M]
	logger     logrus.FieldLogger
	metrics    *Metrics
}

func NewFactory[M bsp.Value](assignment PartitionAssignment,
	combiner CombinerProvider[M], logger logrus.FieldLogger,
	metrics *Metrics,
) *Factory[M] {
	return &Factory[M]{
		assignment: assignment,
		combiner:   combiner,
		logger:     logger,
		metrics:    metrics,
	}
}

func (f *Factory[M]) NewStore(newValue bsp.ValueFactory[M]) Store[M] {
	var combiner bsp.Combiner[M]
	if f.combiner != nil {
		combiner = f.combiner()
	}

	if combiner != nil {
		return NewOneMessagePerVertexStore(newValue, combiner, f.assignment,
			f.logger, f.metrics)
	}

	return NewByteArrayPerVertexStore(newValue, f.assignment, f.logger,
		f.metrics)
}
