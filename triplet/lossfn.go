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
	"github.com/gomlx/gomlx/ml/train/losses"
)

// The Make*LossFn constructors below adapt the strategies of this package to the
// losses.LossFn signature used by train.Trainer: labels[0] are the class labels
// and predictions[0] the embeddings produced by the model. The losses package
// convention of optional per-example weights and mask as extra labels entries is
// honored.
// The hard-triplet count is dropped here; expose it as a metric with
// NewNumHardMetric.

// applyWeightsAndMask applies the optional weights/mask convention from the extra
// labels entries to the (scalar) loss.
func applyWeightsAndMask(loss *Node, labels []*Node) *Node {
	weights, mask := losses.CheckLabelsForWeightsAndMask(labels[0].Shape(), labels)
	if weights != nil {
		loss = Mul(loss, weights)
	}
	if mask != nil {
		loss = Where(mask, loss, ZerosLike(loss))
	}
	return loss
}

// MakeBatchHardLossFn returns a losses.LossFn computing BatchHard with the given
// configuration.
func MakeBatchHardLossFn(margin float64, squared, softMargin bool) losses.LossFn {
	return func(labels, predictions []*Node) *Node {
		loss, _ := BatchHard(labels[0], predictions[0], margin, squared, softMargin)
		return applyWeightsAndMask(loss, labels)
	}
}

// MakeBatchAllLossFn returns a losses.LossFn computing BatchAll with the given
// configuration.
func MakeBatchAllLossFn(margin float64, squared, softMargin bool) losses.LossFn {
	return func(labels, predictions []*Node) *Node {
		loss, _ := BatchAll(labels[0], predictions[0], margin, squared, softMargin)
		return applyWeightsAndMask(loss, labels)
	}
}

// MakeBatchAllOutlierLossFn returns a losses.LossFn computing BatchAllOutlier with
// the given configuration. A kernelWidth <= 0 selects the adaptive per-anchor
// bandwidth.
func MakeBatchAllOutlierLossFn(margin float64, squared bool, kernelWidth float64) losses.LossFn {
	return func(labels, predictions []*Node) *Node {
		loss, _ := BatchAllOutlier(labels[0], predictions[0], margin, squared, kernelWidth)
		return applyWeightsAndMask(loss, labels)
	}
}

// MakeLargeMarginLossFn returns a losses.LossFn computing LargeMargin with the
// given configuration. kernelWidth must be > 0.
func MakeLargeMarginLossFn(margin float64, squared bool, kernelWidth float64) losses.LossFn {
	return func(labels, predictions []*Node) *Node {
		loss, _ := LargeMargin(labels[0], predictions[0], margin, squared, kernelWidth)
		return applyWeightsAndMask(loss, labels)
	}
}

// MakeSelectedLossFn returns a losses.LossFn computing Selected over the triplets
// produced by the given selector.
func MakeSelectedLossFn(selector TripletSelector, margin float64, squared, softMargin bool) losses.LossFn {
	return func(labels, predictions []*Node) *Node {
		loss, _ := Selected(labels[0], predictions[0], selector, margin, squared, softMargin)
		return applyWeightsAndMask(loss, labels)
	}
}
