package triplet

import (
	"testing"

	. "github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/graph/graphtest"
	"github.com/stretchr/testify/require"

	_ "github.com/gomlx/gomlx/backends/xla"
)

// The LossFn adapters must reproduce the core strategy losses on the same batch.
func TestLossFnAdapters(t *testing.T) {
	graphtest.RunTestGraphFn(t, "LossFnAdapters",
		func(g *Graph) (inputs, outputs []*Node) {
			inputs = []*Node{
				Const(g, [][]int32{{0}, {0}, {1}, {1}}),
				Const(g, [][]float32{{0}, {1}, {2}, {3}}),
			}
			labels := []*Node{inputs[0]}
			predictions := []*Node{inputs[1]}
			outputs = []*Node{
				MakeBatchHardLossFn(1.0, false, false)(labels, predictions),
				MakeBatchAllLossFn(1.0, false, false)(labels, predictions),
				MakeBatchAllOutlierLossFn(1.0, false, 1.0)(labels, predictions),
				MakeLargeMarginLossFn(1.0, false, 1.0)(labels, predictions),
				MakeSelectedLossFn(StaticTriplets([][3]int32{{1, 0, 2}}), 1.0, false, false)(labels, predictions),
			}
			return
		}, []any{
			float32(0.5),
			float32(1.0),
			float32(0.44981646),
			float32(0.31122967),
			float32(1),
		}, 1e-5)
}

func TestNumHardMetric(t *testing.T) {
	metric := NewNumHardMetric("Hard Triplets", "#hard", func(labels, embeddings *Node) *Node {
		_, numHard := BatchAll(labels, embeddings, 1.0, false, false)
		return numHard
	})
	require.Equal(t, "Hard Triplets", metric.Name())
	require.Equal(t, "#hard", metric.ShortName())
	require.Equal(t, NumHardMetricType, metric.MetricType())
}
