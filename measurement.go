package ukf

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// rangeEpsilon floors the radar range in the range-rate denominator so that a
// target passing through the sensor origin cannot produce a non-finite
// projection.
const rangeEpsilon = 1e-4

// MeasurementModel describes one sensor modality: its measurement dimension,
// the projection from state space into measurement space, the fixed sensor
// noise covariance R, and which residual component (if any) is an angle that
// must be normalized into (-π, π].
type MeasurementModel interface {
	Sensor() SensorType
	Dim() int
	// Project writes the measurement-space projection of one state-space
	// sigma point (stateDim values) into dst (Dim values).
	Project(state, dst []float64)
	// NoiseMatrix returns the fixed sensor noise covariance R.
	NoiseMatrix() mat.Symmetric
	// AngleIndex returns the index of the angular residual component, or -1
	// if the sensor has none.
	AngleIndex() int
}

type lidarModel struct {
	r *mat.SymDense
}

func newLidarModel(cfg Config) lidarModel {
	r := mat.NewSymDense(lidarDim, nil)
	r.SetSym(0, 0, cfg.StdLaserX*cfg.StdLaserX)
	r.SetSym(1, 1, cfg.StdLaserY*cfg.StdLaserY)
	return lidarModel{r: r}
}

func (m lidarModel) Sensor() SensorType         { return Lidar }
func (m lidarModel) Dim() int                   { return lidarDim }
func (m lidarModel) AngleIndex() int            { return -1 }
func (m lidarModel) NoiseMatrix() mat.Symmetric { return m.r }

// Project is the identity-like projection onto position.
func (m lidarModel) Project(state, dst []float64) {
	dst[0] = state[ixPx]
	dst[1] = state[ixPy]
}

type radarModel struct {
	r *mat.SymDense
}

func newRadarModel(cfg Config) radarModel {
	r := mat.NewSymDense(radarDim, nil)
	r.SetSym(0, 0, cfg.StdRadarRange*cfg.StdRadarRange)
	r.SetSym(1, 1, cfg.StdRadarBearing*cfg.StdRadarBearing)
	r.SetSym(2, 2, cfg.StdRadarRangeRate*cfg.StdRadarRangeRate)
	return radarModel{r: r}
}

func (m radarModel) Sensor() SensorType         { return Radar }
func (m radarModel) Dim() int                   { return radarDim }
func (m radarModel) AngleIndex() int            { return 1 }
func (m radarModel) NoiseMatrix() mat.Symmetric { return m.r }

// Project converts a state-space point into (rho, phi, rho_dot).
func (m radarModel) Project(state, dst []float64) {
	px, py, v, yaw := state[ixPx], state[ixPy], state[ixV], state[ixYaw]
	rho := math.Hypot(px, py)
	dst[0] = rho
	dst[1] = math.Atan2(py, px)
	if rho < rangeEpsilon {
		rho = rangeEpsilon
	}
	dst[2] = (px*math.Cos(yaw)*v + py*math.Sin(yaw)*v) / rho
}

// predictMeasurement projects the predicted state sigma points through the
// model and recombines them into the predicted measurement mean and
// covariance S (weighted outer products of the normalized deviations, plus
// the fixed sensor noise R).
func predictMeasurement(model MeasurementModel, xSigPred *mat.Dense, weights []float64) (zSig *mat.Dense, zPred *mat.VecDense, S *mat.SymDense) {
	nz := model.Dim()
	zSig = mat.NewDense(nz, numSigma, nil)
	state := make([]float64, stateDim)
	proj := make([]float64, nz)
	for j := 0; j < numSigma; j++ {
		mat.Col(state, j, xSigPred)
		model.Project(state, proj)
		for i := 0; i < nz; i++ {
			zSig.Set(i, j, proj[i])
		}
	}

	zPred = mat.NewVecDense(nz, nil)
	for j, w := range weights {
		for i := 0; i < nz; i++ {
			zPred.SetVec(i, zPred.AtVec(i)+w*zSig.At(i, j))
		}
	}

	S = mat.NewSymDense(nz, nil)
	diff := make([]float64, nz)
	for j, w := range weights {
		for i := 0; i < nz; i++ {
			diff[i] = zSig.At(i, j) - zPred.AtVec(i)
		}
		if ai := model.AngleIndex(); ai >= 0 {
			diff[ai] = NormalizeAngle(diff[ai])
		}
		for i := 0; i < nz; i++ {
			for k := i; k < nz; k++ {
				S.SetSym(i, k, S.At(i, k)+w*diff[i]*diff[k])
			}
		}
	}
	R := model.NoiseMatrix()
	for i := 0; i < nz; i++ {
		for k := i; k < nz; k++ {
			S.SetSym(i, k, S.At(i, k)+R.At(i, k))
		}
	}
	return zSig, zPred, S
}
