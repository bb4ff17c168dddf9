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

// Package mining implements host-side triplet miners: they inspect a batch of
// embeddings and labels as tensors and return (anchor, positive, negative) index
// triples, to be fed to the triplet package through triplet.StaticTriplets.
//
// A batch without any valid triplet is data, not failure: miners return an empty
// selection (with a logged warning) and no error in that case.
package mining

import (
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Miner is the host-side counterpart of triplet.TripletSelector.
type Miner interface {
	// Mine returns (anchor, positive, negative) index triples for the batch. An
	// empty result means no valid triplet was found, which is not an error.
	Mine(embeddings, labels *tensors.Tensor) ([][3]int32, error)
}

// EmbeddingsMatrix converts a (batch_size, embed_dim) float tensor to a gonum
// dense matrix.
func EmbeddingsMatrix(t *tensors.Tensor) (*mat.Dense, error) {
	shape := t.Shape()
	if shape.Rank() != 2 {
		return nil, errors.Errorf("embeddings must be rank-2, shaped [batch_size, embed_dim], got shape %s", shape)
	}
	rows, cols := shape.Dim(0), shape.Dim(1)
	switch shape.DType {
	case dtypes.Float32:
		flat := tensors.CopyFlatData[float32](t)
		data := make([]float64, len(flat))
		for i, v := range flat {
			data[i] = float64(v)
		}
		return mat.NewDense(rows, cols, data), nil
	case dtypes.Float64:
		return mat.NewDense(rows, cols, tensors.CopyFlatData[float64](t)), nil
	default:
		return nil, errors.Errorf("unsupported embeddings dtype %s, only Float32 and Float64 are supported", shape.DType)
	}
}

// Labels converts a (batch_size,) or (batch_size, 1) integer tensor to a flat
// label slice.
func Labels(t *tensors.Tensor) ([]int32, error) {
	shape := t.Shape()
	if shape.Rank() != 1 && !(shape.Rank() == 2 && shape.Dim(1) == 1) {
		return nil, errors.Errorf("labels must be shaped [batch_size] or [batch_size, 1], got shape %s", shape)
	}
	switch shape.DType {
	case dtypes.Int32:
		return tensors.CopyFlatData[int32](t), nil
	case dtypes.Int64:
		flat := tensors.CopyFlatData[int64](t)
		labels := make([]int32, len(flat))
		for i, v := range flat {
			labels[i] = int32(v)
		}
		return labels, nil
	default:
		return nil, errors.Errorf("unsupported labels dtype %s, only Int32 and Int64 are supported", shape.DType)
	}
}

// PairwiseSquaredDistances computes the squared euclidean distance between every
// pair of rows of x, using the Gram matrix identity
// ||a-b||² = ||a||² - 2<a,b> + ||b||², clamped at zero against floating-point
// error.
func PairwiseSquaredDistances(x *mat.Dense) *mat.Dense {
	numRows, _ := x.Dims()
	var gram mat.Dense
	gram.Mul(x, x.T())
	distances := mat.NewDense(numRows, numRows, nil)
	for i := 0; i < numRows; i++ {
		for j := 0; j < numRows; j++ {
			d := gram.At(i, i) - 2*gram.At(i, j) + gram.At(j, j)
			if d < 0 {
				d = 0
			}
			distances.Set(i, j, d)
		}
	}
	return distances
}

// indicesByClass groups the batch indices by label value.
func indicesByClass(labels []int32) map[int32][]int32 {
	byClass := make(map[int32][]int32)
	for i, label := range labels {
		byClass[label] = append(byClass[label], int32(i))
	}
	return byClass
}
