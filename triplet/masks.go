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

// labelsEqualMatrix returns the 2D boolean matrix where entry (i, j) is true iff
// labels[i] == labels[j]. Labels may be shaped (batch_size,) or (batch_size, 1).
func labelsEqualMatrix(labels *Node) *Node {
	return Squeeze(Equal(InsertAxes(labels, 0), ExpandDims(labels, 1)))
}

// AnchorPositiveMask returns a 2D mask where mask[a, p] is true iff a and p are
// distinct and have the same label.
//
// Returns a boolean tensor of shape (batch_size, batch_size).
func AnchorPositiveMask(labels *Node) *Node {
	g := labels.Graph()
	batchSize := labels.Shape().Dim(0)
	indicesNotEqual := LogicalNot(DiagonalWithValue(Const(g, true), batchSize))
	return And(indicesNotEqual, labelsEqualMatrix(labels))
}

// AnchorNegativeMask returns a 2D mask where mask[a, n] is true iff a and n have
// distinct labels. No explicit distinctness test is needed: a == n implies equal
// labels, so the diagonal is never true.
//
// Returns a boolean tensor of shape (batch_size, batch_size).
func AnchorNegativeMask(labels *Node) *Node {
	return LogicalNot(labelsEqualMatrix(labels))
}

// TripletMask returns a 3D mask where mask[a, p, n] is true iff the triplet
// (a, p, n) is valid.
//
// A triplet (i, j, k) is valid if:
//   - i, j, k are distinct
//   - labels[i] == labels[j] and labels[i] != labels[k]
//
// It is built by broadcasting 2D masks into 3D, not by iterating over triplets.
//
// Returns a boolean tensor of shape (batch_size, batch_size, batch_size).
func TripletMask(labels *Node) *Node {
	g := labels.Graph()
	batchSize := labels.Shape().Dim(0)

	// Check that i, j and k are distinct.
	indicesNotEqual := LogicalNot(DiagonalWithValue(Const(g, true), batchSize))
	iNotEqualJ := InsertAxes(indicesNotEqual, 2)
	iNotEqualK := InsertAxes(indicesNotEqual, 1)
	jNotEqualK := InsertAxes(indicesNotEqual, 0)
	distinct := And(And(iNotEqualJ, iNotEqualK), jNotEqualK)

	// Check that labels[i] == labels[j] and labels[i] != labels[k].
	equal := labelsEqualMatrix(labels)
	iEqualJ := InsertAxes(equal, 2)
	iEqualK := InsertAxes(equal, 1)
	valid := And(iEqualJ, LogicalNot(iEqualK))

	return And(distinct, valid)
}
