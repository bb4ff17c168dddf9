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

// BatchAll computes the triplet loss over every valid triplet of the batch and
// averages it over the hard (strictly positive loss) triplets only.
//
// Parameters:
//   - labels: tensor of shape (batch_size,) or (batch_size, 1)
//   - embeddings: 2D tensor of shape (batch_size, embed_dim)
//   - margin: margin for the hinge; ignored when softMargin is true
//   - squared: use squared euclidean distances instead of euclidean
//   - softMargin: use the smooth log1p(exp(x)) surrogate instead of the hinge
//
// The denominator is epsilon-guarded: a batch with no hard triplet yields a loss of
// (approximately) zero, never a NaN.
//
// Returns the mean loss over the hard triplets and the hard-triplet count.
func BatchAll(labels, embeddings *Node, margin float64, squared, softMargin bool) (loss, numHard *Node) {
	validateBatch(labels, embeddings)
	g := embeddings.Graph()
	dtype := embeddings.DType()
	zero := ScalarZero(g, dtype)
	eps := epsilonForDType(g, dtype)

	// shape (batch_size, batch_size)
	distances := PairwiseDistances(embeddings, squared)

	// Compute a 3D tensor of size (batch_size, batch_size, batch_size):
	// tripletLoss[i, j, k] will contain the triplet loss of anchor=i, positive=j, negative=k.
	// Uses broadcasting where the 1st argument has shape (batch_size, batch_size, 1)
	// and the 2nd (batch_size, 1, batch_size).
	anchorPositiveDist := InsertAxes(distances, 2)
	anchorNegativeDist := InsertAxes(distances, 1)

	valid := TripletMask(labels)

	var tripletLoss *Node
	if softMargin {
		tripletLoss = Log1P(Exp(Sub(anchorPositiveDist, anchorNegativeDist)))
		// Put to zero the invalid triplets, after the surrogate: log1p(exp(0)) is not 0.
		tripletLoss = Where(valid, tripletLoss, zero)
	} else {
		tripletLoss = AddScalar(Sub(anchorPositiveDist, anchorNegativeDist), margin)
		tripletLoss = Where(valid, tripletLoss, zero)
		// Remove negative losses (i.e. the easy triplets).
		tripletLoss = MaxScalar(tripletLoss, 0.0)
	}

	numHard = countGreaterThan(tripletLoss, eps)
	loss = Div(ReduceAllSum(tripletLoss), Add(numHard, eps))
	return
}
