package ukf

import (
	"errors"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StdAccel = 0
	if _, err := New(cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("zero StdAccel accepted: %v", err)
	}
	cfg = DefaultConfig()
	cfg.StdRadarBearing = -0.03
	if _, err := New(cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("negative StdRadarBearing accepted: %v", err)
	}
	cfg = DefaultConfig()
	cfg.StdLaserY = math.NaN()
	if _, err := New(cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("NaN StdLaserY accepted: %v", err)
	}
}

func TestTrackIDs(t *testing.T) {
	a, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(a.ID(), "trk_") {
		t.Fatalf("track ID %q missing trk_ prefix", a.ID())
	}
	if a.ID() == b.ID() {
		t.Fatal("two filters share a track ID")
	}
}

func TestStringReportsStepCount(t *testing.T) {
	kf, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(kf.String(), "k=0") {
		t.Fatalf("fresh filter string %q", kf.String())
	}
	if _, err := kf.ProcessMeasurement(MeasurementPackage{
		Sensor:    Lidar,
		Timestamp: 0,
		Raw:       mat.NewVecDense(lidarDim, []float64{1, 2}),
	}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(kf.String(), "k=1") {
		t.Fatalf("string after init %q", kf.String())
	}
	if _, err := kf.ProcessMeasurement(MeasurementPackage{
		Sensor:    Lidar,
		Timestamp: 50_000,
		Raw:       mat.NewVecDense(lidarDim, []float64{1.1, 2.1}),
	}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(kf.String(), "k=2") {
		t.Fatalf("string after one cycle %q", kf.String())
	}
}

func TestInitializeFromLidar(t *testing.T) {
	kf, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if kf.Initialized() {
		t.Fatal("filter initialized before any measurement")
	}
	est, err := kf.ProcessMeasurement(MeasurementPackage{
		Sensor:    Lidar,
		Timestamp: 1_000_000,
		Raw:       mat.NewVecDense(lidarDim, []float64{1, 2}),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !kf.Initialized() {
		t.Fatal("filter not initialized after first measurement")
	}

	want := []float64{1, 2, 0, 0, 0}
	for i, w := range want {
		if est.State().AtVec(i) != w {
			t.Fatalf("initial state %v, want %v", est.State().RawVector().Data, want)
		}
	}
	P := kf.Covariance()
	wantP := initialCovariance()
	for i := 0; i < stateDim; i++ {
		for j := 0; j < stateDim; j++ {
			if P.At(i, j) != wantP.At(i, j) {
				t.Fatalf("initial covariance (%d,%d) = %v, want %v", i, j, P.At(i, j), wantP.At(i, j))
			}
		}
	}
}

func TestInitializeFromRadar(t *testing.T) {
	kf, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	rho, phi := 5.0, math.Pi/6
	est, err := kf.ProcessMeasurement(MeasurementPackage{
		Sensor:    Radar,
		Timestamp: 0,
		Raw:       mat.NewVecDense(radarDim, []float64{rho, phi, 1.5}),
	})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(est.State().AtVec(ixPx)-rho*math.Cos(phi)) > 1e-12 {
		t.Fatalf("px = %v", est.State().AtVec(ixPx))
	}
	if math.Abs(est.State().AtVec(ixPy)-rho*math.Sin(phi)) > 1e-12 {
		t.Fatalf("py = %v", est.State().AtVec(ixPy))
	}
	// Speed, heading and yaw rate start at zero even though radar measures a
	// range rate.
	for _, i := range []int{ixV, ixYaw, ixYawd} {
		if est.State().AtVec(i) != 0 {
			t.Fatalf("component %d = %v, want 0", i, est.State().AtVec(i))
		}
	}
}

func TestRejectBeforeMutation(t *testing.T) {
	kf, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := kf.ProcessMeasurement(MeasurementPackage{
		Sensor:    SensorType(99),
		Timestamp: 0,
		Raw:       mat.NewVecDense(2, nil),
	}); !errors.Is(err, ErrInvalidMeasurement) {
		t.Fatalf("unsupported sensor accepted: %v", err)
	}
	if _, err := kf.ProcessMeasurement(MeasurementPackage{
		Sensor:    Lidar,
		Timestamp: 0,
		Raw:       mat.NewVecDense(3, nil),
	}); !errors.Is(err, ErrInvalidMeasurement) {
		t.Fatalf("wrong-length lidar measurement accepted: %v", err)
	}
	if _, err := kf.ProcessMeasurement(MeasurementPackage{
		Sensor:    Radar,
		Timestamp: 0,
		Raw:       nil,
	}); !errors.Is(err, ErrInvalidMeasurement) {
		t.Fatalf("nil radar measurement accepted: %v", err)
	}
	if kf.Initialized() {
		t.Fatal("a rejected package initialized the filter")
	}
}

func TestDisabledSensorIgnored(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UseRadar = false
	kf, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	// A radar package arriving first must not initialize a radar-gated filter.
	est, err := kf.ProcessMeasurement(MeasurementPackage{
		Sensor:    Radar,
		Timestamp: 0,
		Raw:       mat.NewVecDense(radarDim, []float64{5, 0.1, 1}),
	})
	if err != nil {
		t.Fatal(err)
	}
	if est != nil {
		t.Fatal("gated package produced an estimate before initialization")
	}
	if kf.Initialized() {
		t.Fatal("gated package initialized the filter")
	}

	// Initialize from lidar, then verify radar leaves state and clock alone.
	if _, err := kf.ProcessMeasurement(MeasurementPackage{
		Sensor:    Lidar,
		Timestamp: 1_000_000,
		Raw:       mat.NewVecDense(lidarDim, []float64{1, 2}),
	}); err != nil {
		t.Fatal(err)
	}
	before := kf.State()
	est, err = kf.ProcessMeasurement(MeasurementPackage{
		Sensor:    Radar,
		Timestamp: 2_000_000,
		Raw:       mat.NewVecDense(radarDim, []float64{5, 0.1, 1}),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !mat.EqualApprox(before, est.State(), 1e-15) {
		t.Fatal("gated radar package changed the estimate")
	}
	if kf.timeUS != 1_000_000 {
		t.Fatalf("gated package advanced the clock to %d", kf.timeUS)
	}
}

func TestNonMonotonicTimestamp(t *testing.T) {
	kf, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := kf.ProcessMeasurement(MeasurementPackage{
		Sensor:    Lidar,
		Timestamp: 5_000_000,
		Raw:       mat.NewVecDense(lidarDim, []float64{1, 2}),
	}); err != nil {
		t.Fatal(err)
	}

	// An out-of-order package clamps dt to zero: the update still runs and the
	// clock is committed to the stale timestamp.
	est, err := kf.ProcessMeasurement(MeasurementPackage{
		Sensor:    Lidar,
		Timestamp: 4_000_000,
		Raw:       mat.NewVecDense(lidarDim, []float64{1.1, 2.1}),
	})
	if err != nil {
		t.Fatal(err)
	}
	if est.NIS() <= 0 {
		t.Fatal("out-of-order package skipped the update")
	}
	if math.Abs(est.State().AtVec(ixPx)-1) < 1e-6 {
		t.Fatal("out-of-order measurement did not correct the state")
	}
	if kf.timeUS != 4_000_000 {
		t.Fatalf("clock = %d after out-of-order package", kf.timeUS)
	}
}

func TestCovarianceStaysSymmetricPSD(t *testing.T) {
	kf, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	run := SimulateCTRV(Scenario{
		Steps:    200,
		DtMicros: 50_000,
		Initial:  mat.NewVecDense(stateDim, []float64{5, 1, 4, 0.3, 0.25}),
		Config:   DefaultConfig(),
		Seed:     7,
	})

	for i, pkg := range run.Packages {
		est, err := kf.ProcessMeasurement(pkg)
		if err != nil {
			t.Fatalf("package %d: %v", i, err)
		}
		if h := est.State().AtVec(ixYaw); h <= -math.Pi || h > math.Pi {
			t.Fatalf("package %d: heading %v out of (-π, π]", i, h)
		}

		P := kf.Covariance()
		var diff mat.Dense
		diff.Sub(P, P.T())
		if mat.Norm(&diff, 2) > 1e-9 {
			t.Fatalf("package %d: covariance asymmetry %v", i, mat.Norm(&diff, 2))
		}
		var eig mat.EigenSym
		if !eig.Factorize(P, false) {
			t.Fatalf("package %d: eigen factorization failed", i)
		}
		for _, ev := range eig.Values(nil) {
			if ev < -1e-9 {
				t.Fatalf("package %d: negative eigenvalue %v", i, ev)
			}
		}
	}
}

func TestSingularCovarianceSkipsCycle(t *testing.T) {
	kf, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := kf.ProcessMeasurement(MeasurementPackage{
		Sensor:    Lidar,
		Timestamp: 0,
		Raw:       mat.NewVecDense(lidarDim, []float64{1, 2}),
	}); err != nil {
		t.Fatal(err)
	}

	// Force a degenerate covariance: the augmented matrix loses positive
	// definiteness and the cycle must be skipped with (x, P) untouched.
	kf.P = mat.NewSymDense(stateDim, nil)
	before := kf.State()
	_, err = kf.ProcessMeasurement(MeasurementPackage{
		Sensor:    Lidar,
		Timestamp: 1_000_000,
		Raw:       mat.NewVecDense(lidarDim, []float64{1.1, 2.1}),
	})
	if !errors.Is(err, ErrSingularCovariance) {
		t.Fatalf("expected ErrSingularCovariance, got %v", err)
	}
	if !mat.Equal(before, kf.State()) {
		t.Fatal("failed cycle mutated the state")
	}
	if kf.timeUS != 0 {
		t.Fatalf("failed cycle advanced the clock to %d", kf.timeUS)
	}
}

func TestStateAndCovarianceReturnCopies(t *testing.T) {
	kf, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := kf.ProcessMeasurement(MeasurementPackage{
		Sensor:    Lidar,
		Timestamp: 0,
		Raw:       mat.NewVecDense(lidarDim, []float64{1, 2}),
	}); err != nil {
		t.Fatal(err)
	}
	x := kf.State()
	x.SetVec(0, 999)
	if kf.State().AtVec(0) == 999 {
		t.Fatal("State() exposes internal storage")
	}
	P := kf.Covariance()
	P.SetSym(0, 0, 999)
	if kf.Covariance().At(0, 0) == 999 {
		t.Fatal("Covariance() exposes internal storage")
	}
}

func TestSensorTypeString(t *testing.T) {
	if Lidar.String() != "lidar" || Radar.String() != "radar" {
		t.Fatalf("sensor names %q / %q", Lidar, Radar)
	}
}
