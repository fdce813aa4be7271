package ukf

import (
	"math"
	"strings"
	"testing"
)

const sampleLog = `L	3.122427e-01	5.803398e-01	1477010443000000	6.000000e-01	6.000000e-01	5.199937e+00	0	0	6.911322e-03
R	1.014892e+00	5.543292e-01	4.892807e+00	1477010443050000	8.599968e-01	6.000449e-01	5.199747e+00	1.796856e-03	3.455661e-04	1.382155e-02

L	1.173848e+00	4.810729e-01	1477010443100000`

func TestReadMeasurementLog(t *testing.T) {
	packages, truths, err := ReadMeasurementLog(strings.NewReader(sampleLog))
	if err != nil {
		t.Fatal(err)
	}
	if len(packages) != 3 || len(truths) != 3 {
		t.Fatalf("parsed %d packages, %d truths", len(packages), len(truths))
	}

	if packages[0].Sensor != Lidar || packages[0].Raw.Len() != lidarDim {
		t.Fatalf("first package %+v", packages[0])
	}
	if math.Abs(packages[0].Raw.AtVec(0)-3.122427e-01) > 1e-12 {
		t.Fatalf("first px = %v", packages[0].Raw.AtVec(0))
	}
	if packages[0].Timestamp != 1477010443000000 {
		t.Fatalf("first timestamp = %d", packages[0].Timestamp)
	}
	if truths[0] == nil || truths[0].Len() != 6 {
		t.Fatalf("first ground truth %v", truths[0])
	}

	if packages[1].Sensor != Radar || packages[1].Raw.Len() != radarDim {
		t.Fatalf("second package %+v", packages[1])
	}
	if math.Abs(packages[1].Raw.AtVec(2)-4.892807e+00) > 1e-12 {
		t.Fatalf("second rho_dot = %v", packages[1].Raw.AtVec(2))
	}

	// The blank line is skipped and a line without ground truth columns parses
	// to a nil truth entry.
	if truths[2] != nil {
		t.Fatalf("third truth %v, want nil", truths[2])
	}
}

func TestReadMeasurementLogErrors(t *testing.T) {
	cases := []struct {
		name, log, wantInErr string
	}{
		{"unknown tag", "X 1 2 3", "line 1"},
		{"short lidar line", "L 1.0 1477010443000000", "line 1"},
		{"short radar line", "R 1.0 0.5 1477010443000000", "line 1"},
		{"bad float", "L one 2.0 1477010443000000", "line 1"},
		{"bad timestamp", "L 1.0 2.0 not-a-time", "line 1"},
		{"bad truth column", "L 1.0 2.0 1477010443000000 oops", "line 1"},
		{"error names later line", "L 1.0 2.0 1477010443000000\nX 1 2 3", "line 2"},
	}
	for _, c := range cases {
		_, _, err := ReadMeasurementLog(strings.NewReader(c.log))
		if err == nil {
			t.Fatalf("%s: no error", c.name)
		}
		if !strings.Contains(err.Error(), c.wantInErr) {
			t.Fatalf("%s: error %q does not mention %q", c.name, err, c.wantInErr)
		}
	}
}

func TestReadMeasurementLogFileMissing(t *testing.T) {
	if _, _, err := ReadMeasurementLogFile("/nonexistent/obs.txt"); err == nil {
		t.Fatal("missing file did not fail")
	}
}
