package record

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rovernav/internal/nav"
)

func sampleRecord() nav.Record {
	return nav.Record{
		Timestamp:         time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		LatDeg:            37.123456,
		LonDeg:            -122.654321,
		SpeedMps:          0.85,
		HeadingDeg:        92.5,
		TargetLatDeg:      37.1235,
		TargetLonDeg:      -122.654,
		CrossTrackErrM:    1.25,
		HeadingErrDeg:     -12.5,
		DistanceToTargetM: 18.4,
		PathBearingDeg:    90.0,
		LeftPWM:           180,
		RightPWM:          140,
		State:             "FOLLOWING",
		WaypointIndex:     2,
	}
}

func readAll(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return rows
}

func TestCSVWriter_HeaderAndRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.csv")
	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}
	if err := w.Write(sampleRecord()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rows := readAll(t, path)
	if len(rows) != 2 {
		t.Fatalf("rows=%d want 2", len(rows))
	}
	if rows[0][0] != "timestamp" || len(rows[0]) != len(csvHeader) {
		t.Fatalf("bad header: %v", rows[0])
	}
	if rows[1][1] != "37.123456" {
		t.Fatalf("lat cell=%q", rows[1][1])
	}
	if rows[1][13] != "FOLLOWING" || rows[1][14] != "2" {
		t.Fatalf("state cells=%q,%q", rows[1][13], rows[1][14])
	}
}

func TestCSVWriter_AppendSkipsSecondHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.csv")

	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}
	_ = w.Write(sampleRecord())
	_ = w.Close()

	w, err = NewCSVWriter(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = w.Write(sampleRecord())
	_ = w.Close()

	rows := readAll(t, path)
	if len(rows) != 3 {
		t.Fatalf("rows=%d want 3 (one header, two records)", len(rows))
	}
	if rows[2][0] == "timestamp" {
		t.Fatalf("duplicate header on append")
	}
}
