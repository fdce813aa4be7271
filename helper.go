package ukf

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// NormalizeAngle wraps angle into (-π, π] using a closed-form remainder
// instead of iterative ±2π adjustment, so pathological inputs (very large
// magnitudes, NaN) cannot loop unboundedly. NaN propagates as NaN.
func NormalizeAngle(angle float64) float64 {
	a := math.Mod(angle+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// Identity returns an identity matrix of the provided size.
func Identity(n int) *mat.SymDense {
	m := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		m.SetSym(i, i, 1)
	}
	return m
}

// asSymmetric converts the square matrix m into a SymDense, averaging m with
// its transpose. The products P - K*S*Kᵀ and Σw·ddᵀ are symmetric in exact
// arithmetic but accumulate floating-point drift; averaging keeps the stored
// covariance exactly symmetric without rejecting the cycle.
func asSymmetric(m mat.Matrix) *mat.SymDense {
	r, c := m.Dims()
	if r != c {
		panic(fmt.Sprintf("ukf: asSymmetric on a %dx%d matrix", r, c))
	}
	s := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			s.SetSym(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}
	return s
}

// checkRawDim verifies that a raw measurement vector matches the sensor's
// measurement dimension. Returns ErrInvalidMeasurement before any state is
// mutated.
func checkRawDim(raw *mat.VecDense, sensor SensorType, want int) error {
	if raw == nil {
		return fmt.Errorf("%w: %s package has no raw measurements", ErrInvalidMeasurement, sensor)
	}
	if raw.Len() != want {
		return fmt.Errorf("%w: %s expects %d raw measurements, got %d", ErrInvalidMeasurement, sensor, want, raw.Len())
	}
	return nil
}
