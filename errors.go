package ukf

import "errors"

// All failures in the estimation core are recoverable at single-measurement
// granularity: a returned error means the cycle was skipped and the prior
// (x, P) is retained untouched.
var (
	// ErrSingularCovariance is returned when the augmented covariance cannot
	// be Cholesky-factorized or the predicted measurement covariance S cannot
	// be inverted.
	ErrSingularCovariance = errors.New("ukf: covariance matrix is singular or not positive definite")
	// ErrInvalidMeasurement is returned when a package carries an unsupported
	// sensor type or a raw measurement of the wrong length. The package is
	// rejected before any state mutation.
	ErrInvalidMeasurement = errors.New("ukf: invalid measurement package")
	// ErrInvalidConfig is returned by New when a noise standard deviation is
	// zero or negative.
	ErrInvalidConfig = errors.New("ukf: invalid configuration")
)
