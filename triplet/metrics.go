/*
 *	Copyright 2025 The GoMLX Authors
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

package triplet

import (
	. "github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gomlx/ml/train/metrics"
)

// NumHardMetricType is the metric type shared by all hard-triplet-count metrics,
// so they can be plotted on the same axis.
const NumHardMetricType = "hard-triplets"

// NumHardGraphFn builds the scalar hard-triplet count of a batch, given the labels
// and the embeddings. Typically a closure over one of the strategies, e.g.:
//
//	func(labels, embeddings *Node) *Node {
//		_, numHard := triplet.BatchAll(labels, embeddings, margin, squared, softMargin)
//		return numHard
//	}
type NumHardGraphFn func(labels, embeddings *Node) *Node

// NewNumHardMetric returns a mean metric over the per-batch hard-triplet count, to
// be attached to a train.Trainer alongside one of the Make*LossFn losses.
func NewNumHardMetric(name, shortName string, fn NumHardGraphFn) metrics.Interface {
	return metrics.NewMeanMetric(name, shortName, NumHardMetricType,
		func(ctx *context.Context, labels, predictions []*Node) *Node {
			return fn(labels[0], predictions[0])
		}, nil)
}
