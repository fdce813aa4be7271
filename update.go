package ukf

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// fuseMeasurement runs the gain-based update: cross-correlation between
// state-space and measurement-space sigma point deviations, Kalman gain
// K = Tc·S⁻¹, and fusion of the actual measurement z into the predicted
// (xPred, PPred). Inputs are not mutated; the fused state, covariance and
// estimate are returned so a failed cycle leaves the caller's state intact.
func fuseMeasurement(model MeasurementModel, xSigPred *mat.Dense, xPred *mat.VecDense, pPred *mat.SymDense,
	zSig *mat.Dense, zPred *mat.VecDense, S *mat.SymDense, z *mat.VecDense, weights []float64) (*mat.VecDense, *mat.SymDense, CTRVEstimate, error) {

	nz := model.Dim()

	// Cross correlation Tc between state and measurement deviations.
	Tc := mat.NewDense(stateDim, nz, nil)
	xDiff := make([]float64, stateDim)
	zDiff := make([]float64, nz)
	for j, w := range weights {
		for i := 0; i < stateDim; i++ {
			xDiff[i] = xSigPred.At(i, j) - xPred.AtVec(i)
		}
		xDiff[ixYaw] = NormalizeAngle(xDiff[ixYaw])
		for i := 0; i < nz; i++ {
			zDiff[i] = zSig.At(i, j) - zPred.AtVec(i)
		}
		if ai := model.AngleIndex(); ai >= 0 {
			zDiff[ai] = NormalizeAngle(zDiff[ai])
		}
		for i := 0; i < stateDim; i++ {
			for k := 0; k < nz; k++ {
				Tc.Set(i, k, Tc.At(i, k)+w*xDiff[i]*zDiff[k])
			}
		}
	}

	// Kalman gain K = Tc * S^{-1}.
	var sInv mat.Dense
	if ierr := sInv.Inverse(S); ierr != nil {
		return nil, nil, CTRVEstimate{}, fmt.Errorf("%w: %s measurement covariance S: %v", ErrSingularCovariance, model.Sensor(), ierr)
	}
	var K mat.Dense
	K.Mul(Tc, &sInv)

	// Innovation z - zPred, with the angular component normalized.
	innov := mat.NewVecDense(nz, nil)
	innov.SubVec(z, zPred)
	if ai := model.AngleIndex(); ai >= 0 {
		innov.SetVec(ai, NormalizeAngle(innov.AtVec(ai)))
	}

	nis := computeNIS(innov, &sInv)

	// x = xPred + K*innov, heading re-normalized afterwards.
	x := mat.NewVecDense(stateDim, nil)
	var corr mat.VecDense
	corr.MulVec(&K, innov)
	x.AddVec(xPred, &corr)
	x.SetVec(ixYaw, NormalizeAngle(x.AtVec(ixYaw)))

	// P = PPred - K*S*Kᵀ, symmetrized against floating point drift.
	var KS, KSKt mat.Dense
	KS.Mul(&K, S)
	KSKt.Mul(&KS, K.T())
	var pNew mat.Dense
	pNew.Sub(pPred, &KSKt)
	P := asSymmetric(&pNew)

	est := CTRVEstimate{
		state:      x,
		meas:       zPred,
		innovation: innov,
		covar:      P,
		predCovar:  pPred,
		measCovar:  S,
		gain:       &K,
		nis:        nis,
		sensor:     model.Sensor(),
	}
	return x, P, est, nil
}

// computeNIS returns the normalized innovation squared innovᵀ·S⁻¹·innov, a
// scalar consistency diagnostic. It never feeds back into the filter state.
func computeNIS(innov *mat.VecDense, sInv mat.Matrix) float64 {
	var tmp mat.VecDense
	tmp.MulVec(sInv, innov)
	return mat.Dot(innov, &tmp)
}
