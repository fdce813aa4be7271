package ukf

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// BatchGroundTruth computes estimation errors against a known batch of true
// states, one per processed package.
type BatchGroundTruth struct {
	states []*mat.VecDense
}

// NewBatchGroundTruth wraps a batch of true CTRV states.
func NewBatchGroundTruth(states []*mat.VecDense) *BatchGroundTruth {
	return &BatchGroundTruth{states: states}
}

// Len returns the number of ground truth states.
func (t *BatchGroundTruth) Len() int {
	return len(t.states)
}

// Error returns the state error (estimate minus truth) at step k, with the
// heading component normalized into (-π, π].
func (t *BatchGroundTruth) Error(k int, est Estimate) (*mat.VecDense, error) {
	if k < 0 || k >= len(t.states) {
		return nil, fmt.Errorf("no ground truth state at step k=%d", k)
	}
	truth := t.states[k]
	if est.State().Len() != truth.Len() {
		return nil, fmt.Errorf("ground truth state size different from estimated state size (k=%d)", k)
	}
	diff := mat.NewVecDense(truth.Len(), nil)
	diff.SubVec(est.State(), truth)
	diff.SetVec(ixYaw, NormalizeAngle(diff.AtVec(ixYaw)))
	return diff, nil
}

// RMSE returns the per-component root mean square error of the estimates
// against the ground truth batch.
func (t *BatchGroundTruth) RMSE(estimates []Estimate) (*mat.VecDense, error) {
	if len(estimates) != len(t.states) {
		return nil, fmt.Errorf("have %d estimates for %d ground truth states", len(estimates), len(t.states))
	}
	sq := make([][]float64, stateDim)
	for i := range sq {
		sq[i] = make([]float64, len(estimates))
	}
	for k, est := range estimates {
		diff, err := t.Error(k, est)
		if err != nil {
			return nil, err
		}
		for i := 0; i < stateDim; i++ {
			d := diff.AtVec(i)
			sq[i][k] = d * d
		}
	}
	rmse := mat.NewVecDense(stateDim, nil)
	for i := 0; i < stateDim; i++ {
		rmse.SetVec(i, math.Sqrt(stat.Mean(sq[i], nil)))
	}
	return rmse, nil
}

// PositionRMSE returns the scalar RMS of the Euclidean position error, the
// headline tracking accuracy metric.
func (t *BatchGroundTruth) PositionRMSE(estimates []Estimate) (float64, error) {
	if len(estimates) != len(t.states) {
		return 0, fmt.Errorf("have %d estimates for %d ground truth states", len(estimates), len(t.states))
	}
	sq := make([]float64, len(estimates))
	for k, est := range estimates {
		diff, err := t.Error(k, est)
		if err != nil {
			return 0, err
		}
		dx := diff.AtVec(ixPx)
		dy := diff.AtVec(ixPy)
		sq[k] = dx*dx + dy*dy
	}
	return math.Sqrt(stat.Mean(sq, nil)), nil
}
