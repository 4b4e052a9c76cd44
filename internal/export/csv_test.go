package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.viam.com/test"

	"github.com/relabs-tech/accel_capture/internal/accel"
)

func TestWriteRunFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.csv")
	samples := []accel.Sample{
		{TimeS: 0, XG: 0.0039, YG: -0.0078, ZG: 1.0023},
		{TimeS: 0.01, XG: 0, YG: 0.5, ZG: -1},
	}

	err := WriteRun(path, samples)
	test.That(t, err, test.ShouldBeNil)

	data, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	test.That(t, len(lines), test.ShouldEqual, 3)
	test.That(t, lines[0], test.ShouldEqual, "time_s,x_g,y_g,z_g")
	test.That(t, lines[1], test.ShouldEqual, "0.000000,0.003900,-0.007800,1.002300")
	test.That(t, lines[2], test.ShouldEqual, "0.010000,0.000000,0.500000,-1.000000")
}

func TestWriterRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.csv")
	w, err := NewWriter(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, w.Append(accel.Sample{}), test.ShouldBeNil)
	test.That(t, w.Append(accel.Sample{TimeS: 0.01}), test.ShouldBeNil)
	test.That(t, w.Rows(), test.ShouldEqual, 2)
	test.That(t, w.Close(), test.ShouldBeNil)
}

func TestDefaultFilename(t *testing.T) {
	ts := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	name := DefaultFilename("/data", ts)
	test.That(t, name, test.ShouldEqual, "/data/accelerometer_data_20260314_150926.csv")
}

func TestPreviewElidesMiddle(t *testing.T) {
	samples := make([]accel.Sample, 30)
	for i := range samples {
		samples[i].TimeS = float64(i) * 0.01
	}

	var b strings.Builder
	Preview(&b, samples, 3)
	out := b.String()
	test.That(t, strings.Contains(out, "..."), test.ShouldBeTrue)
	test.That(t, strings.Contains(out, "0.290000"), test.ShouldBeTrue)
	// 1 header + 3 head + ellipsis + 3 tail
	test.That(t, len(strings.Split(strings.TrimSpace(out), "\n")), test.ShouldEqual, 8)

	b.Reset()
	Preview(&b, nil, 3)
	test.That(t, strings.Contains(b.String(), "No samples"), test.ShouldBeTrue)
}
