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

// PairwiseDistances computes the 2D matrix of L2 (or squared L2) distances between
// all the embeddings.
//
// Parameters:
//   - embeddings: 2D tensor of shape (batch_size, embed_dim)
//   - squared: if true, output is the pairwise squared euclidean distance matrix.
//     If false, output is the pairwise euclidean distance matrix.
//
// The result is symmetric, non-negative, and its diagonal is exactly 0 in both
// modes. In the non-squared mode, pairs of identical embeddings get a distance of
// exactly 0 while the gradient through them remains finite.
//
// Returns a 2D tensor of shape (batch_size, batch_size).
func PairwiseDistances(embeddings *Node, squared bool) *Node {
	g := embeddings.Graph()
	batchSize := embeddings.Shape().Dim(0)
	dtype := embeddings.DType()

	// ||a - b||^2 = ||a||^2  - 2 <a, b> + ||b||^2
	// Get the dot product between all embeddings.
	// shape (batch_size, batch_size)
	dotProduct := MatMul(embeddings, Transpose(embeddings, 0, 1))

	// Get squared L2 norm for each embedding. We can just take the diagonal of `dotProduct`.
	// This also provides more numerical stability (the diagonal of the result will be exactly 0).
	// shape (batch_size,)
	squareNorm := MaskedReduceSum(dotProduct, Diagonal(g, batchSize), 0)

	// shape (batch_size, batch_size)
	distances := Add(Add(
		ExpandDims(squareNorm, 1),
		MulScalar(dotProduct, -2.0)),
		ExpandDims(squareNorm, 0))

	// Because of computation errors, some distances might be negative so we put everything >= 0.0
	distances = MaxScalar(distances, 0.0)

	if !squared {
		// Because the gradient of sqrt is infinite when distances == 0.0 (ex: on the diagonal)
		// we need to add a small epsilon where distances == 0.0
		zero := ScalarZero(g, dtype)
		eps := epsilonForDType(g, dtype)
		mask := Equal(distances, zero)
		distances = Where(mask, eps, distances)

		distances = Sqrt(distances)

		// Correct the epsilon added: set the distances on the mask to be exactly 0.0
		distances = Where(mask, zero, distances)
	}

	return distances
}

// PairwiseCosineDistances computes the 2D matrix of cosine distances (1 - cosine
// similarity) between all the embeddings.
//
// It is not used by the triplet strategies in this package, which are defined on the
// euclidean family, but is exported for downstream metric-learning code.
//
// Returns a 2D tensor of shape (batch_size, batch_size).
func PairwiseCosineDistances(embeddings *Node) *Node {
	embeddingsL2Normalized := L2Normalize(embeddings, 1)
	distances := OneMinus(MatMul(embeddingsL2Normalized, Transpose(embeddingsL2Normalized, 0, 1)))
	// ensure all distances >= 0.0
	distances = MaxScalar(distances, 0.0)
	return distances
}

// pairDistances computes the row-wise L2 (or squared L2) distance between two
// aligned (k, embed_dim) batches, with the same epsilon-at-zero treatment as
// PairwiseDistances so identical rows get distance exactly 0 with finite gradient.
//
// Returns a tensor of shape (k,).
func pairDistances(a, b *Node, squared bool) *Node {
	g := a.Graph()
	dtype := a.DType()

	diff := Sub(a, b)
	distances := ReduceSum(Mul(diff, diff), -1)
	distances = MaxScalar(distances, 0.0)

	if !squared {
		zero := ScalarZero(g, dtype)
		eps := epsilonForDType(g, dtype)
		mask := Equal(distances, zero)
		distances = Where(mask, eps, distances)
		distances = Sqrt(distances)
		distances = Where(mask, zero, distances)
	}
	return distances
}
