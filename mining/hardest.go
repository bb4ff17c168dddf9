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

package mining

import (
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// HardestNegativeMiner emits one triplet per valid (anchor, positive) pair, using
// the negative closest to the anchor. It is the host-side twin of the BatchHard
// negative selection, for selector-driven training.
type HardestNegativeMiner struct{}

// Mine implements Miner.
func (m *HardestNegativeMiner) Mine(embeddings, labels *tensors.Tensor) ([][3]int32, error) {
	x, err := EmbeddingsMatrix(embeddings)
	if err != nil {
		return nil, err
	}
	labelValues, err := Labels(labels)
	if err != nil {
		return nil, err
	}
	numRows, _ := x.Dims()
	if numRows != len(labelValues) {
		return nil, errors.Errorf("embeddings batch size (%d) and labels batch size (%d) must match",
			numRows, len(labelValues))
	}

	distances := PairwiseSquaredDistances(x)

	var triplets [][3]int32
	for anchor := 0; anchor < numRows; anchor++ {
		// Hardest negative for this anchor, shared by all its positives.
		negative := -1
		for n := 0; n < numRows; n++ {
			if labelValues[n] == labelValues[anchor] {
				continue
			}
			if negative < 0 || distances.At(anchor, n) < distances.At(anchor, negative) {
				negative = n
			}
		}
		if negative < 0 {
			continue
		}
		for positive := 0; positive < numRows; positive++ {
			if positive == anchor || labelValues[positive] != labelValues[anchor] {
				continue
			}
			triplets = append(triplets, [3]int32{int32(anchor), int32(positive), int32(negative)})
		}
	}
	if len(triplets) == 0 {
		klog.Warningf("HardestNegativeMiner: batch of %d examples has no valid triplet", numRows)
	}
	return triplets, nil
}
