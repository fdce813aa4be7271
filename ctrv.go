package ukf

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// yawRateEpsilon is the |yaw rate| below which the CTRV propagation switches
// to its straight-line limit to avoid dividing by a vanishing turn rate. The
// two branches are numerically continuous across this threshold.
const yawRateEpsilon = 1e-3

// propagateCTRV advances one augmented sigma point (7 values in aug) by dt
// seconds under the constant turn-rate and velocity model, writing the 5
// state-space values into dst. The two trailing noise terms contribute the
// second-order process noise terms and are then dropped.
func propagateCTRV(aug []float64, dt float64, dst []float64) {
	px, py, v, yaw, yawd := aug[0], aug[1], aug[2], aug[3], aug[4]
	nuA, nuYawdd := aug[5], aug[6]

	var pxp, pyp float64
	if math.Abs(yawd) > yawRateEpsilon {
		pxp = px + v/yawd*(math.Sin(yaw+yawd*dt)-math.Sin(yaw))
		pyp = py + v/yawd*(math.Cos(yaw)-math.Cos(yaw+yawd*dt))
	} else {
		pxp = px + v*dt*math.Cos(yaw)
		pyp = py + v*dt*math.Sin(yaw)
	}

	dst[ixPx] = pxp + 0.5*nuA*dt*dt*math.Cos(yaw)
	dst[ixPy] = pyp + 0.5*nuA*dt*dt*math.Sin(yaw)
	dst[ixV] = v + nuA*dt
	dst[ixYaw] = yaw + yawd*dt + 0.5*nuYawdd*dt*dt
	dst[ixYawd] = yawd + nuYawdd*dt
}

// predictSigmaPoints propagates every augmented sigma point by dt seconds,
// producing the 5x15 predicted sigma point matrix in state space.
func predictSigmaPoints(xSigAug *mat.Dense, dt float64) *mat.Dense {
	xSigPred := mat.NewDense(stateDim, numSigma, nil)
	aug := make([]float64, augDim)
	dst := make([]float64, stateDim)
	for j := 0; j < numSigma; j++ {
		mat.Col(aug, j, xSigAug)
		propagateCTRV(aug, dt, dst)
		for i := 0; i < stateDim; i++ {
			xSigPred.Set(i, j, dst[i])
		}
	}
	return xSigPred
}

// predictMeanAndCovariance recombines the predicted sigma points into the
// predicted state mean and covariance. The yaw component of each deviation is
// normalized into (-π, π] before the outer product.
func predictMeanAndCovariance(xSigPred *mat.Dense, weights []float64) (*mat.VecDense, *mat.SymDense) {
	x := mat.NewVecDense(stateDim, nil)
	for j, w := range weights {
		for i := 0; i < stateDim; i++ {
			x.SetVec(i, x.AtVec(i)+w*xSigPred.At(i, j))
		}
	}

	P := mat.NewSymDense(stateDim, nil)
	diff := make([]float64, stateDim)
	for j, w := range weights {
		for i := 0; i < stateDim; i++ {
			diff[i] = xSigPred.At(i, j) - x.AtVec(i)
		}
		diff[ixYaw] = NormalizeAngle(diff[ixYaw])
		for i := 0; i < stateDim; i++ {
			for k := i; k < stateDim; k++ {
				P.SetSym(i, k, P.At(i, k)+w*diff[i]*diff[k])
			}
		}
	}
	return x, P
}
