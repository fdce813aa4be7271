package ukf

import "gonum.org/v1/gonum/mat"

// State vector layout and fixed problem dimensions. The filter is specialized
// to a 5-dimensional CTRV state and exactly two sensor modalities, so these
// never change after construction.
const (
	stateDim = 5            // px, py, v, yaw, yawd
	augDim   = stateDim + 2 // state + (nu_a, nu_yawdd) process noise terms
	numSigma = 2*augDim + 1 // sigma point count for the augmented state
	lidarDim = 2            // px, py
	radarDim = 3            // rho, phi, rho_dot
)

// Indices into the state vector.
const (
	ixPx = iota
	ixPy
	ixV
	ixYaw
	ixYawd
)

// SensorType identifies the modality of a measurement package.
type SensorType uint8

const (
	// Lidar is the position-only laser sensor.
	Lidar SensorType = iota + 1
	// Radar is the range/bearing/range-rate sensor.
	Radar
)

func (s SensorType) String() string {
	switch s {
	case Lidar:
		return "lidar"
	case Radar:
		return "radar"
	default:
		return "unknown"
	}
}

// MeasurementPackage is a single timestamped raw sensor reading, as delivered
// by the external measurement source.
type MeasurementPackage struct {
	Sensor SensorType
	// Timestamp is in integer microseconds and must be non-decreasing across
	// the stream. A regressed timestamp clamps the prediction step to zero
	// elapsed time rather than propagating backward.
	Timestamp int64
	// Raw holds [px, py] for Lidar and [rho, phi, rho_dot] for Radar.
	Raw *mat.VecDense
}

// Filter defines a sensor-fusion filter fed one measurement package at a time.
type Filter interface {
	ProcessMeasurement(MeasurementPackage) (Estimate, error)
	Initialized() bool
	ID() string
	String() string
}

// Estimate is returned from ProcessMeasurement after every accepted package.
type Estimate interface {
	IsWithinNσ(N float64) bool            // IsWithinNσ returns whether each innovation component is within N*σ of the predicted measurement.
	State() *mat.VecDense                 // Returns \hat{x}_{k+1}^{+}
	Measurement() *mat.VecDense           // Returns the predicted measurement \hat{z}_{k+1}
	Innovation() *mat.VecDense            // Returns z_{k+1} - \hat{z}_{k+1}
	Covariance() mat.Symmetric            // Returns P_{k+1}^{+}
	PredCovariance() mat.Symmetric        // Returns P_{k+1}^{-}
	MeasurementCovariance() mat.Symmetric // Returns S_{k+1}
	Gain() mat.Matrix                     // Returns K_{k+1} (nil before the first update)
	NIS() float64                         // Returns the normalized innovation squared of this update
	String() string                       // Must implement the stringer interface.
}
