package ukf

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Scenario drives a synthetic constant-turn trajectory with alternating
// lidar/radar observations. Used for regression testing and demos; the
// estimator never depends on it.
type Scenario struct {
	Steps    int
	DtMicros int64
	// Initial true CTRV state (px, py, v, yaw, yawd). Required.
	Initial *mat.VecDense
	// Sensor noise models; when nil, AWGN built from Config and Seed is used.
	LidarNoise Noise
	RadarNoise Noise
	Config     Config
	Seed       uint64
}

// SimulatedRun holds the ground truth states and the interleaved measurement
// stream of one scenario.
type SimulatedRun struct {
	// Truth[k] is the true CTRV state at the time of Packages[k].
	Truth    []*mat.VecDense
	Packages []MeasurementPackage
}

// SimulateCTRV propagates the scenario's initial state with the exact CTRV
// dynamics (no process noise) and emits one noisy measurement per step,
// alternating lidar and radar starting with lidar.
func SimulateCTRV(sc Scenario) SimulatedRun {
	if sc.LidarNoise == nil {
		sc.LidarNoise = NewAWGN(processCovariance(sc.Config), newLidarModel(sc.Config).NoiseMatrix(), sc.Seed)
	}
	if sc.RadarNoise == nil {
		sc.RadarNoise = NewAWGN(processCovariance(sc.Config), newRadarModel(sc.Config).NoiseMatrix(), sc.Seed+1)
	}

	dt := float64(sc.DtMicros) / 1e6
	run := SimulatedRun{
		Truth:    make([]*mat.VecDense, 0, sc.Steps),
		Packages: make([]MeasurementPackage, 0, sc.Steps),
	}

	state := make([]float64, stateDim)
	for i := 0; i < stateDim; i++ {
		state[i] = sc.Initial.AtVec(i)
	}
	aug := make([]float64, augDim)
	next := make([]float64, stateDim)
	var tUS int64

	for k := 0; k < sc.Steps; k++ {
		copy(aug, state)
		aug[stateDim] = 0
		aug[stateDim+1] = 0
		propagateCTRV(aug, dt, next)
		next[ixYaw] = NormalizeAngle(next[ixYaw])
		copy(state, next)
		tUS += sc.DtMicros

		var pkg MeasurementPackage
		if k%2 == 0 {
			noise := sc.LidarNoise.Measurement(k)
			pkg = MeasurementPackage{
				Sensor:    Lidar,
				Timestamp: tUS,
				Raw: mat.NewVecDense(lidarDim, []float64{
					state[ixPx] + noise.AtVec(0),
					state[ixPy] + noise.AtVec(1),
				}),
			}
		} else {
			noise := sc.RadarNoise.Measurement(k)
			rho := math.Hypot(state[ixPx], state[ixPy])
			phi := math.Atan2(state[ixPy], state[ixPx])
			safeRho := rho
			if safeRho < rangeEpsilon {
				safeRho = rangeEpsilon
			}
			rhoDot := (state[ixPx]*math.Cos(state[ixYaw])*state[ixV] + state[ixPy]*math.Sin(state[ixYaw])*state[ixV]) / safeRho
			pkg = MeasurementPackage{
				Sensor:    Radar,
				Timestamp: tUS,
				Raw: mat.NewVecDense(radarDim, []float64{
					rho + noise.AtVec(0),
					NormalizeAngle(phi + noise.AtVec(1)),
					rhoDot + noise.AtVec(2),
				}),
			}
		}

		truth := mat.NewVecDense(stateDim, nil)
		for i := 0; i < stateDim; i++ {
			truth.SetVec(i, state[i])
		}
		run.Truth = append(run.Truth, truth)
		run.Packages = append(run.Packages, pkg)
	}
	return run
}

// processCovariance builds the 2x2 process noise matrix diag(σ_a², σ_yawdd²)
// from the configured standard deviations.
func processCovariance(cfg Config) *mat.SymDense {
	Q := mat.NewSymDense(2, nil)
	Q.SetSym(0, 0, cfg.StdAccel*cfg.StdAccel)
	Q.SetSym(1, 1, cfg.StdYawAccel*cfg.StdYawAccel)
	return Q
}
