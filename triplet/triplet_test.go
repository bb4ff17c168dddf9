package triplet

import (
	"testing"

	. "github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/graph/graphtest"
	"github.com/stretchr/testify/require"

	_ "github.com/gomlx/gomlx/backends/xla"
)

func TestValidateBatch(t *testing.T) {
	backend := graphtest.BuildTestBackend()
	g := NewGraph(backend, "validateBatch")
	embeddings := Const(g, [][]float32{{0}, {1}, {2}, {3}})

	// Both accepted label layouts.
	require.Equal(t, 4, validateBatch(Const(g, [][]int32{{0}, {0}, {1}, {1}}), embeddings))
	require.Equal(t, 4, validateBatch(Const(g, []int32{0, 0, 1, 1}), embeddings))

	labels := Const(g, [][]int32{{0}, {0}, {1}, {1}})
	for name, fn := range map[string]func(){
		"rank-1 embeddings": func() {
			validateBatch(labels, Const(g, []float32{0, 1, 2, 3}))
		},
		"rank-3 embeddings": func() {
			validateBatch(labels, Const(g, [][][]float32{{{0}}, {{1}}, {{2}}, {{3}}}))
		},
		"integer embeddings": func() {
			validateBatch(labels, Const(g, [][]int32{{0}, {1}, {2}, {3}}))
		},
		"labels with trailing dimension != 1": func() {
			validateBatch(Const(g, [][]int32{{0, 0}, {1, 1}, {0, 0}, {1, 1}}), embeddings)
		},
		"batch size mismatch": func() {
			validateBatch(Const(g, []int32{0, 0, 1}), embeddings)
		},
	} {
		require.Panics(t, fn, "validateBatch must reject %s", name)
	}
}
