package ukf

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Exporter defines an export interface.
type Exporter interface {
	Write(Estimate) error
	Close() error
}

// CSVExporter writes each estimate as a CSV row: every state component with
// its ±2σ bounds, followed by the NIS of the update.
type CSVExporter struct {
	delimiter string
	hdlr      *os.File
}

// NewCSVExporter initializes a new CSV export for the 5 CTRV state
// components.
func NewCSVExporter(path string) (*CSVExporter, error) {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	delimiter := ","
	headers := []string{"px", "py", "v", "yaw", "yawd"}
	hdr := make([]string, 0, len(headers)*3+1)
	for _, h := range headers {
		hdr = append(hdr, h, h+"+2s", h+"-2s")
	}
	hdr = append(hdr, "nis")
	if _, err := f.WriteString(fmt.Sprintf("# Creation date (UTC): %s\n%s\n", time.Now().UTC(), strings.Join(hdr, delimiter))); err != nil {
		f.Close()
		return nil, err
	}
	return &CSVExporter{delimiter, f}, nil
}

// Write writes the estimate to the CSV file.
func (e CSVExporter) Write(est Estimate) error {
	vals := make([]string, 0, stateDim*3+1)
	for i := 0; i < stateDim; i++ {
		bound := 2 * math.Sqrt(est.Covariance().At(i, i))
		x := est.State().AtVec(i)
		vals = append(vals,
			fmt.Sprintf("%f", x),
			fmt.Sprintf("%f", x+bound),
			fmt.Sprintf("%f", x-bound))
	}
	vals = append(vals, fmt.Sprintf("%f", est.NIS()))
	_, err := e.hdlr.WriteString(strings.Join(vals, e.delimiter) + "\n")
	return err
}

// WriteRawLn writes a raw line to the CSV file.
func (e CSVExporter) WriteRawLn(s string) error {
	_, err := e.hdlr.WriteString(s + "\n")
	return err
}

// Close closes the file.
func (e CSVExporter) Close() error {
	if err := e.WriteRawLn(fmt.Sprintf("# Closing date (UTC): %s", time.Now().UTC())); err != nil {
		return err
	}
	return e.hdlr.Close()
}
