package ukf

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// CTRVEstimate is the output of each processed measurement package.
// It implements the Estimate interface.
type CTRVEstimate struct {
	state, meas, innovation *mat.VecDense
	covar, predCovar        mat.Symmetric
	measCovar               mat.Symmetric
	gain                    mat.Matrix
	nis                     float64
	sensor                  SensorType
}

// Sensor returns the modality of the package that produced this estimate.
func (e CTRVEstimate) Sensor() SensorType {
	return e.sensor
}

// IsWithinNσ returns whether each innovation component lies within N times
// the predicted measurement standard deviation.
func (e CTRVEstimate) IsWithinNσ(N float64) bool {
	for i := 0; i < e.innovation.Len(); i++ {
		bound := N * math.Sqrt(e.measCovar.At(i, i))
		if math.Abs(e.innovation.AtVec(i)) > bound {
			return false
		}
	}
	return true
}

// IsWithin2σ returns whether the estimate is within the 2σ bounds.
func (e CTRVEstimate) IsWithin2σ() bool {
	return e.IsWithinNσ(2)
}

// State implements the Estimate interface.
func (e CTRVEstimate) State() *mat.VecDense {
	return e.state
}

// Measurement implements the Estimate interface.
func (e CTRVEstimate) Measurement() *mat.VecDense {
	return e.meas
}

// Innovation implements the Estimate interface.
func (e CTRVEstimate) Innovation() *mat.VecDense {
	return e.innovation
}

// Covariance implements the Estimate interface.
func (e CTRVEstimate) Covariance() mat.Symmetric {
	return e.covar
}

// PredCovariance implements the Estimate interface.
func (e CTRVEstimate) PredCovariance() mat.Symmetric {
	return e.predCovar
}

// MeasurementCovariance implements the Estimate interface.
func (e CTRVEstimate) MeasurementCovariance() mat.Symmetric {
	return e.measCovar
}

// Gain implements the Estimate interface.
func (e CTRVEstimate) Gain() mat.Matrix {
	return e.gain
}

// NIS implements the Estimate interface.
func (e CTRVEstimate) NIS() float64 {
	return e.nis
}

func (e CTRVEstimate) String() string {
	state := mat.Formatted(e.State(), mat.Prefix("  "))
	covar := mat.Formatted(e.Covariance(), mat.Prefix("  "))
	if e.gain == nil {
		return fmt.Sprintf("{%s\nx=%v\nP=%v\n}", e.sensor, state, covar)
	}
	meas := mat.Formatted(e.Measurement(), mat.Prefix("  "))
	innov := mat.Formatted(e.Innovation(), mat.Prefix("  "))
	gain := mat.Formatted(e.Gain(), mat.Prefix("  "))
	return fmt.Sprintf("{%s\nx=%v\nz=%v\ni=%v\nK=%v\nP=%v\nNIS=%.3f\n}", e.sensor, state, meas, innov, gain, covar, e.nis)
}
