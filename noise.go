package ukf

import (
	"fmt"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// Noise supplies sampled process and measurement noise for trajectory
// simulation. The estimator itself never samples noise; it only consumes the
// fixed covariances from its configuration.
type Noise interface {
	Process(k int) *mat.VecDense      // Returns the sampled process noise (nu_a, nu_yawdd) at step k
	Measurement(k int) *mat.VecDense  // Returns the sampled measurement noise at step k
	ProcessMatrix() mat.Symmetric     // Returns the process noise matrix Q
	MeasurementMatrix() mat.Symmetric // Returns the measurement noise matrix R
	String() string                   // Stringer interface implementation
}

// Noiseless is noiseless and implements the Noise interface.
type Noiseless struct {
	Q, R mat.Symmetric
}

// NewNoiseless creates zero-sample noise carrying the provided Q and R.
func NewNoiseless(Q, R mat.Symmetric) *Noiseless {
	if Q == nil || R == nil {
		panic("Q and R must be specified")
	}
	return &Noiseless{Q, R}
}

// Process returns a zero vector of the correct size.
func (n Noiseless) Process(k int) *mat.VecDense {
	r, _ := n.Q.Dims()
	return mat.NewVecDense(r, nil)
}

// Measurement returns a zero vector of the correct size.
func (n Noiseless) Measurement(k int) *mat.VecDense {
	r, _ := n.R.Dims()
	return mat.NewVecDense(r, nil)
}

// ProcessMatrix implements the Noise interface.
func (n Noiseless) ProcessMatrix() mat.Symmetric {
	return n.Q
}

// MeasurementMatrix implements the Noise interface.
func (n Noiseless) MeasurementMatrix() mat.Symmetric {
	return n.R
}

// String implements the Stringer interface.
func (n Noiseless) String() string {
	return fmt.Sprintf("Noiseless{\nQ=%v\nR=%v}\n", mat.Formatted(n.Q, mat.Prefix("  ")), mat.Formatted(n.R, mat.Prefix("  ")))
}

// AWGN implements the Noise interface and generates additive white Gaussian
// noise from the provided covariances.
type AWGN struct {
	Q, R        mat.Symmetric
	process     *distmv.Normal
	measurement *distmv.Normal
}

// NewAWGN creates new AWGN noise from the provided Q and R. The seed makes
// simulated runs reproducible.
func NewAWGN(Q, R mat.Symmetric, seed uint64) *AWGN {
	src := rand.NewSource(seed)
	sizeQ, _ := Q.Dims()
	process, ok := distmv.NewNormal(make([]float64, sizeQ), Q, src)
	if !ok {
		panic("process noise covariance invalid")
	}
	sizeR, _ := R.Dims()
	meas, ok := distmv.NewNormal(make([]float64, sizeR), R, src)
	if !ok {
		panic("measurement noise covariance invalid")
	}
	return &AWGN{Q, R, process, meas}
}

// ProcessMatrix implements the Noise interface.
func (n AWGN) ProcessMatrix() mat.Symmetric {
	return n.Q
}

// MeasurementMatrix implements the Noise interface.
func (n AWGN) MeasurementMatrix() mat.Symmetric {
	return n.R
}

// Process implements the Noise interface.
func (n AWGN) Process(k int) *mat.VecDense {
	r := n.process.Rand(nil)
	return mat.NewVecDense(len(r), r)
}

// Measurement implements the Noise interface.
func (n AWGN) Measurement(k int) *mat.VecDense {
	r := n.measurement.Rand(nil)
	return mat.NewVecDense(len(r), r)
}

// String implements the Stringer interface.
func (n AWGN) String() string {
	return fmt.Sprintf("AWGN{\nQ=%v\nR=%v}\n", mat.Formatted(n.Q, mat.Prefix("  ")), mat.Formatted(n.R, mat.Prefix("  ")))
}
