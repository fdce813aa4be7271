package ukf

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// NISMonitor accumulates normalized innovation squared samples for one sensor
// so the process noise tuning can be validated offline. For a consistent
// filter the samples follow a chi-square distribution with as many degrees of
// freedom as the sensor has measurement dimensions; the monitor never feeds
// back into the filter.
type NISMonitor struct {
	sensor  SensorType
	dof     int
	samples []float64
}

// NewNISMonitor returns a monitor for the given sensor type.
func NewNISMonitor(sensor SensorType) *NISMonitor {
	dof := lidarDim
	if sensor == Radar {
		dof = radarDim
	}
	return &NISMonitor{sensor: sensor, dof: dof}
}

// Record appends the NIS of one processed package. Estimates from the other
// sensor are ignored so one stream can feed both monitors.
func (m *NISMonitor) Record(est Estimate) {
	ce, ok := est.(CTRVEstimate)
	if ok && ce.Sensor() != m.sensor {
		return
	}
	m.samples = append(m.samples, est.NIS())
}

// Len returns the number of recorded samples.
func (m *NISMonitor) Len() int {
	return len(m.samples)
}

// Mean returns the sample mean. A well-tuned filter is close to the
// chi-square mean, i.e. the sensor's measurement dimension.
func (m *NISMonitor) Mean() float64 {
	if len(m.samples) == 0 {
		return 0
	}
	return stat.Mean(m.samples, nil)
}

// Band returns the central chi-square interval holding the given probability
// mass for this sensor's degrees of freedom, e.g. confidence 0.9 yields the
// [5%, 95%] quantiles.
func (m *NISMonitor) Band(confidence float64) (lo, hi float64) {
	dist := distuv.ChiSquared{K: float64(m.dof)}
	alpha := (1 - confidence) / 2
	return dist.Quantile(alpha), dist.Quantile(1 - alpha)
}

// FractionWithinBand returns the fraction of recorded samples inside the
// central chi-square band. Tuning aims for this to approach the confidence
// level: substantially less means the filter is over-confident,
// substantially more means the noise is overestimated.
func (m *NISMonitor) FractionWithinBand(confidence float64) float64 {
	if len(m.samples) == 0 {
		return 0
	}
	lo, hi := m.Band(confidence)
	within := 0
	for _, s := range m.samples {
		if s >= lo && s <= hi {
			within++
		}
	}
	return float64(within) / float64(len(m.samples))
}

func (m *NISMonitor) String() string {
	return fmt.Sprintf("NIS[%s] n=%d mean=%.3f within90=%.2f", m.sensor, m.Len(), m.Mean(), m.FractionWithinBand(0.9))
}
