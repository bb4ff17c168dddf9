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
	. "github.com/gomlx/exceptions"
	. "github.com/gomlx/gomlx/graph"
)

// LargeMargin computes a triplet loss with soft selection: instead of a hard
// nearest positive/negative per anchor, it uses the expectation of the distance
// under a softmax over -gamma*distance restricted to the valid candidates, a
// smooth relaxation of hard-min selection. Works best with large batches.
//
// Parameters:
//   - labels: tensor of shape (batch_size,) or (batch_size, 1)
//   - embeddings: 2D tensor of shape (batch_size, embed_dim)
//   - margin: margin for the hinge
//   - squared: use squared euclidean distances instead of euclidean
//   - kernelWidth: softmax temperature source, gamma = 1/(2·kernelWidth² + ε);
//     must be > 0
//
// The selection probabilities are gradient-detached: gradients flow only through
// the distances they weight. Invalid candidates get probability exactly 0, and an
// anchor with no valid candidate gets an all-zero probability row (and therefore a
// zero expected distance) instead of a NaN.
//
// Returns the mean hinge loss over all anchors and the number of anchors whose
// loss is strictly positive.
func LargeMargin(labels, embeddings *Node, margin float64, squared bool, kernelWidth float64) (loss, numHard *Node) {
	validateBatch(labels, embeddings)
	if kernelWidth <= 0 {
		Panicf("LargeMargin requires kernelWidth > 0, got %g", kernelWidth)
	}
	g := embeddings.Graph()
	dtype := embeddings.DType()
	eps := epsilonForDType(g, dtype)

	// shape (batch_size, batch_size)
	distances := PairwiseDistances(embeddings, squared)

	gamma := 1.0 / (2.0*kernelWidth*kernelWidth + Epsilon64)
	logits := MulScalar(distances, -gamma)

	// Per-anchor probability rows over valid positives and valid negatives.
	// shapes (batch_size, batch_size)
	nearestPositiveProb := StopGradient(MaskedSoftmax(logits, AnchorPositiveMask(labels), -1))
	nearestNegativeProb := StopGradient(MaskedSoftmax(logits, AnchorNegativeMask(labels), -1))

	// Probability-weighted expected distances, per anchor.
	// shapes (batch_size,)
	expectedPositiveDist := ReduceSum(Mul(distances, nearestPositiveProb), 1)
	expectedNegativeDist := ReduceSum(Mul(distances, nearestNegativeProb), 1)

	hingeLoss := MaxScalar(AddScalar(Sub(expectedPositiveDist, expectedNegativeDist), margin), 0.0)

	numHard = countGreaterThan(hingeLoss, eps)
	loss = ReduceAllMean(hingeLoss)
	return
}
