package triplet

import (
	"testing"

	. "github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/graph/graphtest"

	_ "github.com/gomlx/gomlx/backends/xla"
)

// Two tight clusters far apart: no triplet violates the margin, so both losses and
// both hard counts must come out exactly 0 (the epsilon-guarded denominator must
// not turn BatchAll into a NaN).
func TestBatchLossesWellSeparated(t *testing.T) {
	graphtest.RunTestGraphFn(t, "BatchLossesWellSeparated",
		func(g *Graph) (inputs, outputs []*Node) {
			inputs = []*Node{
				Const(g, [][]int32{{0}, {0}, {1}, {1}}),
				Const(g, [][]float32{{0, 0}, {0.1, 0}, {5, 5}, {5.1, 5}}),
			}
			hardLoss, hardCount := BatchHard(inputs[0], inputs[1], 0.2, false, false)
			allLoss, allCount := BatchAll(inputs[0], inputs[1], 0.2, false, false)
			outputs = []*Node{hardLoss, hardCount, allLoss, allCount}
			return
		}, []any{
			float32(0), float32(0), float32(0), float32(0),
		}, 1e-6)
}

// Colinear points [0, 1, 2, 3] with labels [0, 0, 1, 1]: the per-anchor hardest
// positive/negative and the full triplet grid are small enough to enumerate by
// hand.
func TestBatchHard(t *testing.T) {
	graphtest.RunTestGraphFn(t, "BatchHard",
		func(g *Graph) (inputs, outputs []*Node) {
			inputs = []*Node{
				Const(g, [][]int32{{0}, {0}, {1}, {1}}),
				Const(g, [][]float32{{0}, {1}, {2}, {3}}),
			}
			hingeLoss, hingeCount := BatchHard(inputs[0], inputs[1], 1.0, false, false)
			softLoss, softCount := BatchHard(inputs[0], inputs[1], 1.0, false, true)
			squaredLoss, squaredCount := BatchHard(inputs[0], inputs[1], 1.0, true, false)
			outputs = []*Node{hingeLoss, hingeCount, softLoss, softCount, squaredLoss, squaredCount}
			return
		}, []any{
			// Per-anchor hinge: [0, 1, 1, 0] -> mean 0.5, 2 hard anchors.
			float32(0.5), float32(2),
			// Per-anchor soft: [log1p(e^-1), log1p(1), log1p(1), log1p(e^-1)].
			float32(0.50320444), float32(4),
			// Squared distances: per-anchor hinge again [0, 1, 1, 0].
			float32(0.5), float32(2),
		}, 1e-5)
}

func TestBatchAll(t *testing.T) {
	graphtest.RunTestGraphFn(t, "BatchAll",
		func(g *Graph) (inputs, outputs []*Node) {
			inputs = []*Node{
				Const(g, [][]int32{{0}, {0}, {1}, {1}}),
				Const(g, [][]float32{{0}, {1}, {2}, {3}}),
			}
			hingeLoss, hingeCount := BatchAll(inputs[0], inputs[1], 1.0, false, false)
			softLoss, softCount := BatchAll(inputs[0], inputs[1], 1.0, false, true)
			outputs = []*Node{hingeLoss, hingeCount, softLoss, softCount}
			return
		}, []any{
			// 8 valid triplets, hinge values {0, 0, 1, 0, 0, 1, 0, 0}: sum 2 over 2 hard.
			float32(1.0), float32(2),
			// Soft values sum to 2.89319714 over all 8 (all positive).
			float32(0.36164964), float32(8),
		}, 1e-5)
}

// When each anchor has a single positive and all its negatives are equidistant,
// every valid triplet of an anchor carries the same loss, so the BatchAll average
// over hard triplets equals the BatchHard average over anchors.
func TestBatchHardEqualsBatchAll(t *testing.T) {
	graphtest.RunTestGraphFn(t, "BatchHardEqualsBatchAll",
		func(g *Graph) (inputs, outputs []*Node) {
			inputs = []*Node{
				Const(g, [][]int32{{0}, {0}, {1}, {1}}),
				// All cross-class distances are sqrt(1.25).
				Const(g, [][]float32{{0, 0}, {1, 0}, {0.5, 1}, {0.5, -1}}),
			}
			hardLoss, hardCount := BatchHard(inputs[0], inputs[1], 1.0, false, false)
			allLoss, allCount := BatchAll(inputs[0], inputs[1], 1.0, false, false)
			outputs = []*Node{hardLoss, hardCount, allLoss, allCount}
			return
		}, []any{
			float32(1.3819660), float32(4),
			float32(1.3819660), float32(8),
		}, 1e-5)
}
