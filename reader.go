package ukf

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ReadMeasurementLog parses a whitespace-separated sensor log of the form
//
//	L px py timestamp [gt...]
//	R rho phi rho_dot timestamp [gt...]
//
// and returns the measurement packages in stream order together with the
// optional per-line ground truth columns (nil entries when a line carries
// none). Blank lines are skipped.
func ReadMeasurementLog(r io.Reader) ([]MeasurementPackage, []*mat.VecDense, error) {
	var packages []MeasurementPackage
	var truths []*mat.VecDense

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		var dim int
		var sensor SensorType
		switch fields[0] {
		case "L":
			sensor, dim = Lidar, lidarDim
		case "R":
			sensor, dim = Radar, radarDim
		default:
			return nil, nil, errors.Errorf("line %d: unknown sensor tag %q", lineNo, fields[0])
		}
		if len(fields) < dim+2 {
			return nil, nil, errors.Errorf("line %d: %s line needs %d columns, got %d", lineNo, sensor, dim+2, len(fields))
		}

		raw := make([]float64, dim)
		for i := 0; i < dim; i++ {
			v, err := strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "line %d: raw measurement column %d", lineNo, i+1)
			}
			raw[i] = v
		}
		ts, err := strconv.ParseInt(fields[dim+1], 10, 64)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "line %d: timestamp", lineNo)
		}

		var truth *mat.VecDense
		if extra := len(fields) - dim - 2; extra > 0 {
			vals := make([]float64, extra)
			for i := 0; i < extra; i++ {
				v, err := strconv.ParseFloat(fields[dim+2+i], 64)
				if err != nil {
					return nil, nil, errors.Wrapf(err, "line %d: ground truth column %d", lineNo, i+1)
				}
				vals[i] = v
			}
			truth = mat.NewVecDense(extra, vals)
		}

		packages = append(packages, MeasurementPackage{
			Sensor:    sensor,
			Timestamp: ts,
			Raw:       mat.NewVecDense(dim, raw),
		})
		truths = append(truths, truth)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "reading measurement log")
	}
	return packages, truths, nil
}

// ReadMeasurementLogFile opens and parses a measurement log file.
func ReadMeasurementLogFile(path string) ([]MeasurementPackage, []*mat.VecDense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening measurement log %s", path)
	}
	defer f.Close()
	return ReadMeasurementLog(f)
}
