package ukf

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// lambda is the sigma point spreading parameter. It is computed from the
// augmented dimension and used consistently for both the point spread and the
// recombination weights.
const lambda = 3 - float64(augDim)

// sigmaWeights returns the fixed recombination weights, computed once at
// filter construction. Weight 0 is λ/(λ+n); the remaining 2n weights are
// 1/(2(λ+n)). The weights sum to one by construction.
func sigmaWeights() []float64 {
	w := make([]float64, numSigma)
	w[0] = lambda / (lambda + augDim)
	for i := 1; i < numSigma; i++ {
		w[i] = 0.5 / (lambda + augDim)
	}
	return w
}

// generateAugmentedSigmaPoints builds the 7x15 matrix of augmented sigma
// points around (x, P). The augmented mean is [x; 0; 0] and the augmented
// covariance is blkdiag(P, diag(σ_a², σ_yawdd²)). Column 0 is the mean;
// columns 1..n and n+1..2n are the mean ± √(λ+n) times the columns of the
// lower Cholesky factor.
func generateAugmentedSigmaPoints(x *mat.VecDense, P *mat.SymDense, stdA, stdYawdd float64) (*mat.Dense, error) {
	pAug := mat.NewSymDense(augDim, nil)
	for i := 0; i < stateDim; i++ {
		for j := i; j < stateDim; j++ {
			pAug.SetSym(i, j, P.At(i, j))
		}
	}
	pAug.SetSym(stateDim, stateDim, stdA*stdA)
	pAug.SetSym(stateDim+1, stateDim+1, stdYawdd*stdYawdd)

	var chol mat.Cholesky
	if ok := chol.Factorize(pAug); !ok {
		return nil, ErrSingularCovariance
	}
	var lower mat.TriDense
	chol.LTo(&lower)

	scale := math.Sqrt(lambda + augDim)
	xSig := mat.NewDense(augDim, numSigma, nil)
	for i := 0; i < augDim; i++ {
		var xi float64
		if i < stateDim {
			xi = x.AtVec(i)
		}
		xSig.Set(i, 0, xi)
		for j := 0; j < augDim; j++ {
			spread := scale * lower.At(i, j)
			xSig.Set(i, j+1, xi+spread)
			xSig.Set(i, j+1+augDim, xi-spread)
		}
	}
	return xSig, nil
}
