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
	"github.com/gomlx/gomlx/types/tensors"
)

// TripletSelector is the capability interface for external triplet mining: given
// the batch embeddings and labels it returns a (num_triplets, 3) integer tensor of
// (anchor, positive, negative) row indices. It may return zero triplets.
//
// Selections happen at graph level so they compose with graph execution and
// caching; host-side miners (see the mining package) plug in through
// StaticTriplets.
type TripletSelector interface {
	SelectTriplets(embeddings, labels *Node) *Node
}

// SelectorFunc adapts a function to the TripletSelector interface.
type SelectorFunc func(embeddings, labels *Node) *Node

// SelectTriplets implements TripletSelector.
func (f SelectorFunc) SelectTriplets(embeddings, labels *Node) *Node {
	return f(embeddings, labels)
}

// StaticTriplets returns a TripletSelector that injects a fixed list of pre-mined
// (anchor, positive, negative) index triples as a constant, ignoring the batch
// content. It is the bridge from host-side miners. An empty (or nil) list is valid
// and yields a zero loss.
func StaticTriplets(triplets [][3]int32) TripletSelector {
	return SelectorFunc(func(embeddings, labels *Node) *Node {
		flat := make([]int32, 0, 3*len(triplets))
		for _, t := range triplets {
			flat = append(flat, t[0], t[1], t[2])
		}
		return ConstTensor(embeddings.Graph(), tensors.FromFlatDataAndDimensions(flat, len(triplets), 3))
	})
}

// Selected computes the triplet loss over the triplets chosen by the given
// selector, delegating the mining strategy entirely to it.
//
// Parameters:
//   - labels: tensor of shape (batch_size,) or (batch_size, 1)
//   - embeddings: 2D tensor of shape (batch_size, embed_dim)
//   - selector: source of (anchor, positive, negative) index triples
//   - margin: margin for the hinge; ignored when softMargin is true
//   - squared: use squared euclidean distances instead of euclidean
//   - softMargin: use the smooth log1p(exp(x)) surrogate instead of the hinge
//
// Returns the mean loss over the selected triplets and the number of selected
// triplets (not a hard count). An empty selection yields (0, 0) rather than a NaN.
func Selected(labels, embeddings *Node, selector TripletSelector, margin float64, squared, softMargin bool) (loss, numSelected *Node) {
	validateBatch(labels, embeddings)
	triplets := selector.SelectTriplets(embeddings, labels)
	return FromIndices(embeddings, triplets, margin, squared, softMargin)
}

// FromIndices computes the triplet loss over an explicit (num_triplets, 3) integer
// tensor of (anchor, positive, negative) row indices into embeddings. This is the
// core of Selected, exported for callers that already hold index tensors.
//
// Returns the mean loss over the triplets and the number of triplets. An empty
// index tensor yields (0, 0).
func FromIndices(embeddings, triplets *Node, margin float64, squared, softMargin bool) (loss, numSelected *Node) {
	g := embeddings.Graph()
	dtype := embeddings.DType()
	if embeddings.Rank() != 2 {
		Panicf("embeddings must be rank-2, shaped [batch_size, embed_dim], got shape %s", embeddings.Shape())
	}
	if triplets.Rank() != 2 || triplets.Shape().Dim(1) != 3 {
		Panicf("triplets must be shaped [num_triplets, 3], got shape %s", triplets.Shape())
	}
	if !triplets.DType().IsInt() {
		Panicf("triplets must be of integer dtype, got shape %s", triplets.Shape())
	}

	numTriplets := triplets.Shape().Dim(0)
	if numTriplets == 0 {
		// Degenerate selection: nothing to average over.
		return ScalarZero(g, dtype), ScalarZero(g, dtype)
	}

	// Gather the anchor, positive and negative rows.
	// shapes (num_triplets, embed_dim)
	anchors := Gather(embeddings, Slice(triplets, AxisRange(), AxisElem(0)))
	positives := Gather(embeddings, Slice(triplets, AxisRange(), AxisElem(1)))
	negatives := Gather(embeddings, Slice(triplets, AxisRange(), AxisElem(2)))

	// shapes (num_triplets,)
	positiveDist := pairDistances(anchors, positives, squared)
	negativeDist := pairDistances(anchors, negatives, squared)

	var tripletLoss *Node
	if softMargin {
		tripletLoss = Log1P(Exp(Sub(positiveDist, negativeDist)))
	} else {
		tripletLoss = MaxScalar(AddScalar(Sub(positiveDist, negativeDist), margin), 0.0)
	}

	loss = ReduceAllMean(tripletLoss)
	numSelected = Scalar(g, dtype, float64(numTriplets))
	return
}
