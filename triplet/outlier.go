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

// adaptiveBandwidthNeighbors is the order statistic used to derive the per-anchor
// kernel bandwidth when no fixed kernel width is given: the distance to the 8th
// nearest neighbor (the anchor itself, at distance 0, included).
const adaptiveBandwidthNeighbors = 8

// kthSmallestPerRow returns, for each row of x, its k-th smallest entry (1-based,
// ties counted cumulatively). k is clamped to the row width, so small batches
// degrade to the row maximum.
//
// There is no tensor sort involved: counts[i, j] = #{m : x[i, m] <= x[i, j]} is
// computed by broadcasting, and the k-th smallest is the masked row minimum over
// the entries whose count reaches k.
//
// Returns a tensor of shape (batch_size, 1), ready for row-wise broadcasting.
func kthSmallestPerRow(x *Node, k int) *Node {
	g := x.Graph()
	dtype := x.DType()
	numCols := x.Shape().Dim(1)
	if k > numCols {
		k = numCols
	}
	counts := ReduceSum(ConvertDType(LessOrEqual(InsertAxes(x, 1), InsertAxes(x, 2)), dtype), -1)
	eligible := GreaterOrEqual(counts, Scalar(g, dtype, float64(k)))
	return ExpandAxes(MaskedReduceMin(x, eligible, 1), -1)
}

// OutlierProbabilities estimates, for each anchor, the probability that it is an
// outlier of its own class, from a Gaussian kernel density over the pairwise
// distance matrix: the ratio of kernel mass on different-label rows over the total
// kernel mass excluding the anchor itself.
//
// Parameters:
//   - pairwiseDist: 2D tensor of shape (batch_size, batch_size), as produced by
//     PairwiseDistances (either mode)
//   - labels: tensor of shape (batch_size,) or (batch_size, 1)
//   - kernelWidth: fixed Gaussian bandwidth; if <= 0, a per-anchor bandwidth is
//     derived from the distance to the 8th nearest neighbor
//
// The kernel is exp(-gamma * pairwiseDist²) with gamma = 1/(2·width² + Epsilon64)
// in both bandwidth modes (see the Epsilon64 doc for the policy). The
// result is clamped to [ε, 1-ε], so it is never exactly 0 or 1, and the whole
// computation is gradient-detached: it is a statistic, not a differentiable path.
//
// Returns a tensor of shape (batch_size,).
func OutlierProbabilities(pairwiseDist, labels *Node, kernelWidth float64) *Node {
	g := pairwiseDist.Graph()
	dtype := pairwiseDist.DType()
	batchSize := pairwiseDist.Shape().Dim(0)
	eps := epsilonForDType(g, dtype)

	squaredDist := Mul(pairwiseDist, pairwiseDist)

	// Gaussian kernel, pairwise similarities.
	// shape (batch_size, batch_size)
	var kernel *Node
	if kernelWidth > 0 {
		gamma := 1.0 / (2.0*kernelWidth*kernelWidth + Epsilon64)
		kernel = Exp(MulScalar(squaredDist, -gamma))
	} else {
		// shape (batch_size, 1)
		delta := kthSmallestPerRow(pairwiseDist, adaptiveBandwidthNeighbors)
		gamma := Div(OnesLike(delta), AddScalar(MulScalar(Mul(delta, delta), 2.0), Epsilon64))
		kernel = Exp(Neg(Mul(squaredDist, gamma)))
	}

	// Ratio between the kernel mass on the negatives and the kernel mass on
	// everything but the anchor itself.
	// shapes (batch_size,)
	sumNegatives := MaskedReduceSum(kernel, AnchorNegativeMask(labels), 1)
	kernelDiagonal := MaskedReduceSum(kernel, Diagonal(g, batchSize), 0)
	sumOthers := Sub(ReduceSum(kernel, 1), kernelDiagonal)

	outlierProb := Div(sumNegatives, Add(sumOthers, eps))
	outlierProb = Clip(outlierProb, eps, OneMinus(eps))
	return StopGradient(outlierProb)
}

// BatchAllOutlier computes the BatchAll hinge loss with each anchor's contribution
// scaled by its inlier probability (1 - OutlierProbabilities), so that anchors that
// look like outliers of their class pull less on the gradients.
//
// Parameters:
//   - labels: tensor of shape (batch_size,) or (batch_size, 1)
//   - embeddings: 2D tensor of shape (batch_size, embed_dim)
//   - margin: margin for the hinge
//   - squared: use squared euclidean distances instead of euclidean
//   - kernelWidth: fixed Gaussian bandwidth for the outlier estimate; <= 0 selects
//     the adaptive per-anchor bandwidth
//
// The denominator is epsilon-guarded like BatchAll: a batch with no hard triplet
// yields a loss of (approximately) zero. Callers can detect degenerate batches
// through the returned count.
//
// Returns the weighted mean loss over the hard triplets and the hard-triplet count.
func BatchAllOutlier(labels, embeddings *Node, margin float64, squared bool, kernelWidth float64) (loss, numHard *Node) {
	batchSize := validateBatch(labels, embeddings)
	g := embeddings.Graph()
	dtype := embeddings.DType()
	zero := ScalarZero(g, dtype)
	eps := epsilonForDType(g, dtype)

	// shape (batch_size, batch_size)
	distances := PairwiseDistances(embeddings, squared)

	// shape (batch_size, 1, 1), ready for broadcasting over (anchor, positive, negative).
	inlierProb := Reshape(OneMinus(OutlierProbabilities(distances, labels, kernelWidth)), batchSize, 1, 1)

	// Same 3D broadcast as BatchAll, hinge branch only.
	anchorPositiveDist := InsertAxes(distances, 2)
	anchorNegativeDist := InsertAxes(distances, 1)
	tripletLoss := AddScalar(Sub(anchorPositiveDist, anchorNegativeDist), margin)
	tripletLoss = Where(TripletMask(labels), tripletLoss, zero)
	tripletLoss = MaxScalar(tripletLoss, 0.0)

	numHard = countGreaterThan(tripletLoss, eps)
	loss = Div(ReduceAllSum(Mul(tripletLoss, inlierProb)), Add(numHard, eps))
	return
}
