package mining

import (
	"testing"

	"github.com/gomlx/gomlx/types/tensors"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestPairwiseSquaredDistances(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{0, 1, 2, 3})
	distances := PairwiseSquaredDistances(x)
	want := []float64{
		0, 1, 4, 9,
		1, 0, 1, 4,
		4, 1, 0, 1,
		9, 4, 1, 0,
	}
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			require.InDelta(t, want[i*4+j], distances.At(i, j), 1e-12, "distances[%d][%d]", i, j)
		}
	}
}

func TestEmbeddingsMatrixAndLabels(t *testing.T) {
	embeddings := tensors.FromValue([][]float32{{1, 2}, {3, 4}})
	x, err := EmbeddingsMatrix(embeddings)
	require.NoError(t, err)
	require.Equal(t, 3.0, x.At(1, 0))

	_, err = EmbeddingsMatrix(tensors.FromValue([]float32{1, 2}))
	require.Error(t, err)

	labels, err := Labels(tensors.FromFlatDataAndDimensions([]int32{0, 0, 1, 1}, 4, 1))
	require.NoError(t, err)
	require.Equal(t, []int32{0, 0, 1, 1}, labels)

	_, err = Labels(tensors.FromValue([][]float32{{0}, {1}}))
	require.Error(t, err)
}

func TestRandomMiner(t *testing.T) {
	embeddings := tensors.FromValue([][]float32{{0}, {1}, {2}, {3}})
	labels := tensors.FromFlatDataAndDimensions([]int32{0, 0, 1, 1}, 4, 1)
	labelValues := []int32{0, 0, 1, 1}

	miner := NewRandomMiner(10, 42)
	triplets, err := miner.Mine(embeddings, labels)
	require.NoError(t, err)
	require.Len(t, triplets, 10)
	for _, triplet := range triplets {
		anchor, positive, negative := triplet[0], triplet[1], triplet[2]
		require.NotEqual(t, anchor, positive)
		require.Equal(t, labelValues[anchor], labelValues[positive])
		require.NotEqual(t, labelValues[anchor], labelValues[negative])
	}

	// Same seed, same selection.
	again, err := NewRandomMiner(10, 42).Mine(embeddings, labels)
	require.NoError(t, err)
	require.Equal(t, triplets, again)
}

func TestRandomMinerDegenerate(t *testing.T) {
	embeddings := tensors.FromValue([][]float32{{0}, {1}})
	miner := NewRandomMiner(10, 0)

	// Single class: no negatives.
	triplets, err := miner.Mine(embeddings, tensors.FromFlatDataAndDimensions([]int32{0, 0}, 2, 1))
	require.NoError(t, err)
	require.Empty(t, triplets)

	// Singleton classes: no positives.
	triplets, err = miner.Mine(embeddings, tensors.FromFlatDataAndDimensions([]int32{0, 1}, 2, 1))
	require.NoError(t, err)
	require.Empty(t, triplets)
}

func TestHardestNegativeMiner(t *testing.T) {
	embeddings := tensors.FromValue([][]float32{{0}, {1}, {2}, {3}})
	labels := tensors.FromFlatDataAndDimensions([]int32{0, 0, 1, 1}, 4, 1)

	var miner HardestNegativeMiner
	triplets, err := miner.Mine(embeddings, labels)
	require.NoError(t, err)
	require.Equal(t, [][3]int32{
		{0, 1, 2}, // nearest negative of anchor 0 is index 2
		{1, 0, 2},
		{2, 3, 1}, // nearest negative of anchor 2 is index 1
		{3, 2, 1},
	}, triplets)
}
