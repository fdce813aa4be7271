package ukf

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
)

// Config holds the process noise tuning, the manufacturer-specified
// measurement noise, and the sensor gates. All values are fixed at
// construction.
type Config struct {
	// Process noise standard deviations (tunable).
	StdAccel    float64 // longitudinal acceleration, m/s²
	StdYawAccel float64 // yaw acceleration, rad/s²

	// Measurement noise standard deviations (sensor-specified constants).
	StdLaserX         float64 // lidar x position, m
	StdLaserY         float64 // lidar y position, m
	StdRadarRange     float64 // radar range, m
	StdRadarBearing   float64 // radar bearing, rad
	StdRadarRangeRate float64 // radar range rate, m/s

	// Sensor gates. A disabled sensor's packages are ignored entirely:
	// no initialization, no prediction, no clock advance.
	UseLaser bool
	UseRadar bool
}

// DefaultConfig returns the tuning shipped with the reference sensor set.
func DefaultConfig() Config {
	return Config{
		StdAccel:          1.5,
		StdYawAccel:       2.0,
		StdLaserX:         0.15,
		StdLaserY:         0.15,
		StdRadarRange:     0.3,
		StdRadarBearing:   0.03,
		StdRadarRangeRate: 0.3,
		UseLaser:          true,
		UseRadar:          true,
	}
}

func (c Config) validate() error {
	stds := []struct {
		name string
		val  float64
	}{
		{"StdAccel", c.StdAccel},
		{"StdYawAccel", c.StdYawAccel},
		{"StdLaserX", c.StdLaserX},
		{"StdLaserY", c.StdLaserY},
		{"StdRadarRange", c.StdRadarRange},
		{"StdRadarBearing", c.StdRadarBearing},
		{"StdRadarRangeRate", c.StdRadarRangeRate},
	}
	for _, s := range stds {
		if s.val <= 0 || math.IsNaN(s.val) {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidConfig, s.name, s.val)
		}
	}
	return nil
}

// UKF is an unscented Kalman filter fusing lidar and radar measurements of a
// single object into a CTRV state estimate. Use New to initialize. Each
// tracked object must own its own UKF instance; a UKF is not safe for
// concurrent use.
type UKF struct {
	trackID string
	cfg     Config
	lidar   lidarModel
	radar   radarModel
	weights []float64

	x *mat.VecDense // px, py, v, yaw, yawd
	P *mat.SymDense // 5x5, symmetric positive semi-definite

	initialized bool
	timeUS      int64
	prevEst     Estimate
	step        int
}

// New returns a UKF configured with cfg. The sigma point weights are fixed
// here, once; the filter initializes its state from the first accepted
// measurement.
func New(cfg Config) (*UKF, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &UKF{
		trackID: fmt.Sprintf("trk_%s", uuid.NewString()),
		cfg:     cfg,
		lidar:   newLidarModel(cfg),
		radar:   newRadarModel(cfg),
		weights: sigmaWeights(),
		x:       mat.NewVecDense(stateDim, nil),
		P:       mat.NewSymDense(stateDim, nil),
	}, nil
}

// ID returns the globally unique track identifier of this filter instance.
func (kf *UKF) ID() string {
	return kf.trackID
}

// Initialized reports whether the first measurement has been consumed.
func (kf *UKF) Initialized() bool {
	return kf.initialized
}

// Config returns the configuration the filter was constructed with.
func (kf *UKF) Config() Config {
	return kf.cfg
}

// State returns a copy of the current state vector.
func (kf *UKF) State() *mat.VecDense {
	out := mat.NewVecDense(stateDim, nil)
	out.CopyVec(kf.x)
	return out
}

// Covariance returns a copy of the current state covariance.
func (kf *UKF) Covariance() *mat.SymDense {
	out := mat.NewSymDense(stateDim, nil)
	out.CopySym(kf.P)
	return out
}

func (kf *UKF) String() string {
	return fmt.Sprintf("UKF[%s] k=%d\nx=%v\nP=%v", kf.trackID, kf.step,
		mat.Formatted(kf.x, mat.Prefix("  ")), mat.Formatted(kf.P, mat.Prefix("  ")))
}

// modelFor resolves the measurement model for a sensor type. The second
// return is false when the sensor is configured off.
func (kf *UKF) modelFor(s SensorType) (MeasurementModel, bool, error) {
	switch s {
	case Lidar:
		return kf.lidar, kf.cfg.UseLaser, nil
	case Radar:
		return kf.radar, kf.cfg.UseRadar, nil
	default:
		return nil, false, fmt.Errorf("%w: unsupported sensor type %d", ErrInvalidMeasurement, s)
	}
}

// ProcessMeasurement consumes one measurement package and returns the updated
// estimate. The first accepted package initializes the state; every
// subsequent one runs a full predict (sigma points through the CTRV model)
// then update (projection into the arriving sensor's measurement space and
// gain-based fusion) cycle.
//
// Packages from a disabled sensor return the prior estimate unchanged.
// On error the cycle is skipped and (x, P) and the filter clock are left
// exactly as they were.
func (kf *UKF) ProcessMeasurement(m MeasurementPackage) (Estimate, error) {
	model, enabled, err := kf.modelFor(m.Sensor)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return kf.prevEst, nil
	}
	if err := checkRawDim(m.Raw, m.Sensor, model.Dim()); err != nil {
		return nil, err
	}

	if !kf.initialized {
		kf.initialize(model, m)
		return kf.prevEst, nil
	}

	// Elapsed time in seconds. Non-monotonic timestamps clamp to zero:
	// the prediction degenerates to the identity propagation and only the
	// update is meaningful.
	dt := float64(m.Timestamp-kf.timeUS) / 1e6
	if dt < 0 {
		dt = 0
	}

	// Predict.
	xSigAug, err := generateAugmentedSigmaPoints(kf.x, kf.P, kf.cfg.StdAccel, kf.cfg.StdYawAccel)
	if err != nil {
		return nil, err
	}
	xSigPred := predictSigmaPoints(xSigAug, dt)
	xPred, pPred := predictMeanAndCovariance(xSigPred, kf.weights)

	// Update.
	zSig, zPred, S := predictMeasurement(model, xSigPred, kf.weights)
	x, P, est, err := fuseMeasurement(model, xSigPred, xPred, pPred, zSig, zPred, S, m.Raw, kf.weights)
	if err != nil {
		return nil, err
	}

	// Commit the cycle only once everything succeeded.
	kf.x = x
	kf.P = P
	kf.timeUS = m.Timestamp
	kf.prevEst = est
	kf.step++
	return est, nil
}

// initialize transitions the filter from Uninitialized to Initialized using
// the first accepted measurement: position from lidar directly, or from
// radar via polar-to-Cartesian conversion; speed, heading and yaw rate start
// at zero. The covariance is set to the fixed prior.
func (kf *UKF) initialize(model MeasurementModel, m MeasurementPackage) {
	var px, py float64
	switch m.Sensor {
	case Lidar:
		px = m.Raw.AtVec(0)
		py = m.Raw.AtVec(1)
	case Radar:
		rho := m.Raw.AtVec(0)
		phi := m.Raw.AtVec(1)
		px = rho * math.Cos(phi)
		py = rho * math.Sin(phi)
	}
	kf.x = mat.NewVecDense(stateDim, []float64{px, py, 0, 0, 0})
	kf.P = initialCovariance()

	kf.timeUS = m.Timestamp
	kf.initialized = true
	kf.prevEst = CTRVEstimate{
		state:      kf.State(),
		meas:       mat.NewVecDense(model.Dim(), nil),
		innovation: mat.NewVecDense(model.Dim(), nil),
		covar:      kf.Covariance(),
		predCovar:  kf.Covariance(),
		measCovar:  model.NoiseMatrix(),
		sensor:     m.Sensor,
	}
	kf.step = 1
}

// initialCovariance is the fixed prior: unit variance on position and speed,
// 0.5 on heading and yaw rate.
func initialCovariance() *mat.SymDense {
	P := mat.NewSymDense(stateDim, nil)
	P.SetSym(ixPx, ixPx, 1)
	P.SetSym(ixPy, ixPy, 1)
	P.SetSym(ixV, ixV, 1)
	P.SetSym(ixYaw, ixYaw, 0.5)
	P.SetSym(ixYawd, ixYawd, 0.5)
	return P
}
