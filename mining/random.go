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
	"math/rand"

	"github.com/gomlx/gomlx/types/tensors"
	"k8s.io/klog/v2"
)

// RandomMiner samples up to MaxTriplets uniformly random valid triplets from the
// batch labels. Embeddings are ignored: the selection is purely combinatorial.
type RandomMiner struct {
	// MaxTriplets to sample per batch.
	MaxTriplets int

	rng *rand.Rand
}

// NewRandomMiner creates a RandomMiner with its own seeded random source, so
// mining is deterministic for a given seed.
func NewRandomMiner(maxTriplets int, seed int64) *RandomMiner {
	return &RandomMiner{
		MaxTriplets: maxTriplets,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// Mine implements Miner.
func (m *RandomMiner) Mine(embeddings, labels *tensors.Tensor) ([][3]int32, error) {
	labelValues, err := Labels(labels)
	if err != nil {
		return nil, err
	}

	byClass := indicesByClass(labelValues)
	// Classes that can serve as anchor class: at least 2 members, and at least one
	// point outside the class.
	var anchorClasses []int32
	for label, members := range byClass {
		if len(members) >= 2 && len(members) < len(labelValues) {
			anchorClasses = append(anchorClasses, label)
		}
	}
	if len(anchorClasses) == 0 {
		klog.Warningf("RandomMiner: batch of %d examples in %d class(es) has no valid triplet",
			len(labelValues), len(byClass))
		return nil, nil
	}

	// Complement of each anchor class, the negative candidates.
	negatives := make(map[int32][]int32, len(anchorClasses))
	for _, label := range anchorClasses {
		others := make([]int32, 0, len(labelValues)-len(byClass[label]))
		for i, l := range labelValues {
			if l != label {
				others = append(others, int32(i))
			}
		}
		negatives[label] = others
	}

	triplets := make([][3]int32, 0, m.MaxTriplets)
	for len(triplets) < m.MaxTriplets {
		label := anchorClasses[m.rng.Intn(len(anchorClasses))]
		members := byClass[label]
		anchor := members[m.rng.Intn(len(members))]
		positive := anchor
		for positive == anchor {
			positive = members[m.rng.Intn(len(members))]
		}
		others := negatives[label]
		negative := others[m.rng.Intn(len(others))]
		triplets = append(triplets, [3]int32{anchor, positive, negative})
	}
	return triplets, nil
}
