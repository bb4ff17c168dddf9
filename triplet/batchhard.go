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
)

// BatchHard computes the triplet loss using, for each anchor, the hardest positive
// (largest distance among same-label rows) and the hardest negative (smallest
// distance among different-label rows).
//
// Parameters:
//   - labels: tensor of shape (batch_size,) or (batch_size, 1)
//   - embeddings: 2D tensor of shape (batch_size, embed_dim)
//   - margin: margin for the hinge; ignored when softMargin is true
//   - squared: use squared euclidean distances instead of euclidean
//   - softMargin: use the smooth log1p(exp(x)) surrogate instead of the hinge
//
// Anchors without a valid positive get a hardest-positive distance of 0 and still
// contribute hinge(margin - hardestNegative).
//
// Returns the mean loss over all anchors and the number of anchors whose loss is
// strictly positive.
func BatchHard(labels, embeddings *Node, margin float64, squared, softMargin bool) (loss, numHard *Node) {
	validateBatch(labels, embeddings)
	g := embeddings.Graph()
	dtype := embeddings.DType()
	zero := ScalarZero(g, dtype)
	eps := epsilonForDType(g, dtype)

	// shape (batch_size, batch_size)
	distances := PairwiseDistances(embeddings, squared)

	// For each anchor, get the hardest positive: we zero out any element where (a, p)
	// is not valid, which never wins the max because distances are non-negative.
	// shape (batch_size,)
	positivesMask := AnchorPositiveMask(labels)
	hardestPositiveDist := ReduceMax(Where(positivesMask, distances, zero), 1)

	// For each anchor, get the hardest negative: we add the maximum value in each row
	// to the invalid negatives (label(a) == label(n)) so they never win the min.
	// shape (batch_size,)
	negativesMask := AnchorNegativeMask(labels)
	hardestNegativeDist := ReduceMin(
		Where(negativesMask, distances, Add(distances, ReduceAndKeep(distances, ReduceMax, 1))), 1)

	// Combine biggest d(a, p) and smallest d(a, n) into the per-anchor loss.
	var tripletLoss *Node
	if softMargin {
		tripletLoss = Log1P(Exp(Sub(hardestPositiveDist, hardestNegativeDist)))
	} else {
		tripletLoss = MaxScalar(AddScalar(Sub(hardestPositiveDist, hardestNegativeDist), margin), 0.0)
	}

	numHard = countGreaterThan(tripletLoss, eps)
	loss = ReduceAllMean(tripletLoss)
	return
}
