// Package export persists acquisition runs as CSV and renders console
// previews. The record format is fixed for compatibility: one header
// row `time_s,x_g,y_g,z_g`, every float with 6 decimal digits.
package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/relabs-tech/accel_capture/internal/accel"
)

var header = []string{"time_s", "x_g", "y_g", "z_g"}

// Writer is a buffered CSV writer for acquisition runs. The bufio layer
// absorbs write syscall overhead; errors are surfaced on Close.
type Writer struct {
	file *os.File
	buf  *bufio.Writer
	csv  *csv.Writer
	rows int
}

// NewWriter creates the file and writes the header row.
func NewWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("export: create %s: %w", path, err)
	}
	bw := bufio.NewWriterSize(f, 256*1024)
	cw := csv.NewWriter(bw)
	if err := cw.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("export: write header: %w", err)
	}
	return &Writer{file: f, buf: bw, csv: cw}, nil
}

// Append writes one sample row.
func (w *Writer) Append(s accel.Sample) error {
	row := []string{
		strconv.FormatFloat(s.TimeS, 'f', 6, 64),
		strconv.FormatFloat(s.XG, 'f', 6, 64),
		strconv.FormatFloat(s.YG, 'f', 6, 64),
		strconv.FormatFloat(s.ZG, 'f', 6, 64),
	}
	if err := w.csv.Write(row); err != nil {
		return fmt.Errorf("export: write row: %w", err)
	}
	w.rows++
	return nil
}

// Rows returns the number of data rows written, excluding the header.
func (w *Writer) Rows() int { return w.rows }

// Close flushes buffered rows and closes the file.
func (w *Writer) Close() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		w.file.Close()
		return fmt.Errorf("export: flush: %w", err)
	}
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("export: flush: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("export: close: %w", err)
	}
	return nil
}

// WriteRun persists a whole run to path.
func WriteRun(path string, samples []accel.Sample) error {
	w, err := NewWriter(path)
	if err != nil {
		return err
	}
	for _, s := range samples {
		if err := w.Append(s); err != nil {
			w.file.Close()
			return err
		}
	}
	return w.Close()
}

// DefaultFilename builds the auto-generated per-run filename inside dir.
func DefaultFilename(dir string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("accelerometer_data_%s.csv", now.Format("20060102_150405")))
}

// Preview prints the first and last n samples of a run in a fixed-width
// table, eliding the middle.
func Preview(out io.Writer, samples []accel.Sample, n int) {
	if len(samples) == 0 {
		fmt.Fprintln(out, "No samples to preview.")
		return
	}
	fmt.Fprintf(out, "%-12s %-10s %-10s %-10s\n", "Time(s)", "X(g)", "Y(g)", "Z(g)")

	head := samples
	if len(head) > n {
		head = head[:n]
	}
	for _, s := range head {
		fmt.Fprintf(out, "%-12.6f %-10.4f %-10.4f %-10.4f\n", s.TimeS, s.XG, s.YG, s.ZG)
	}
	if len(samples) > 2*n {
		fmt.Fprintln(out, "...")
		for _, s := range samples[len(samples)-n:] {
			fmt.Fprintf(out, "%-12.6f %-10.4f %-10.4f %-10.4f\n", s.TimeS, s.XG, s.YG, s.ZG)
		}
	}
}
