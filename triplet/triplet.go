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

// Package triplet implements a family of triplet-mining losses for metric learning:
// given a batch of embeddings and their integer class labels, each strategy selects
// (or implicitly weights) anchor-positive-negative triplets and aggregates them into
// a scalar loss plus a count of the "hard" (margin-violating) triplets.
//
// The strategies are:
//   - BatchHard: hardest positive and hardest negative per anchor.
//   - BatchAll: every valid triplet, averaged over the hard ones.
//   - BatchAllOutlier: BatchAll with anchors down-weighted by a kernel-density
//     outlier estimate.
//   - LargeMargin: softmax-weighted ("soft nearest") positive and negative per anchor.
//   - Selected: triplets provided by an external TripletSelector.
//
// All functions are pure graph building code and panic (see
// github.com/gomlx/exceptions) on invalid shapes. They can be plugged into a
// train.Trainer through the adapters in lossfn.go, with the hard-triplet count
// exposed as a training metric (see NewNumHardMetric).
//
// References:
//
//	[Oliver Moindrot's blog](https://omoindrot.github.io/triplet-loss)
//	[FaceNet](https://arxiv.org/abs/1503.03832)
//	[In Defense of the Triplet Loss for Person Re-Identification](https://arxiv.org/abs/1703.07737)
package triplet

import (
	. "github.com/gomlx/exceptions"
	. "github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/types/shapes"
	"github.com/gomlx/gopjrt/dtypes"
)

const (
	Epsilon16 = 1e-4
	Epsilon32 = 1e-7
	// Epsilon64 also guards the Gaussian bandwidth formulas
	// (gamma = 1/(2·width² + Epsilon64)), independent of the dtype.
	Epsilon64 = 1e-8
)

// epsilonForDType returns a small positive constant suited for the dtype, used to
// guard square roots, denominators and "loss > 0" comparisons.
func epsilonForDType(g *Graph, dtype dtypes.DType) *Node {
	var epsilon float64
	switch dtype {
	case dtypes.Float64:
		epsilon = Epsilon64
	case dtypes.Float32:
		epsilon = Epsilon32
	case dtypes.Float16:
		epsilon = Epsilon16
	default:
		Panicf("Unknown epsilon value for dtype %s", dtype)
	}
	return Const(g, shapes.CastAsDType(epsilon, dtype))
}

// validateBatch checks the shapes of a (labels, embeddings) batch and returns the
// batch size. Embeddings must be shaped [batch_size, embed_dim] and of float dtype;
// labels must be shaped [batch_size] or [batch_size, 1].
func validateBatch(labels, embeddings *Node) (batchSize int) {
	if embeddings.Rank() != 2 {
		Panicf("embeddings must be rank-2, shaped [batch_size, embed_dim], got shape %s", embeddings.Shape())
	}
	if !embeddings.DType().IsFloat() {
		Panicf("embeddings must be of float dtype, got shape %s", embeddings.Shape())
	}
	if labels.Rank() != 1 && !(labels.Rank() == 2 && labels.Shape().Dim(1) == 1) {
		Panicf("labels must be shaped [batch_size] or [batch_size, 1], got shape %s", labels.Shape())
	}
	batchSize = embeddings.Shape().Dim(0)
	if labels.Shape().Dim(0) != batchSize {
		Panicf("labels batch size (%d) and embeddings batch size (%d) must match",
			labels.Shape().Dim(0), batchSize)
	}
	return batchSize
}

// countGreaterThan returns the scalar count of entries of x strictly greater than
// threshold. Counts carry no gradient.
func countGreaterThan(x, threshold *Node) *Node {
	return ReduceAllSum(Where(GreaterThan(x, threshold), OnesLike(x), ZerosLike(x)))
}
