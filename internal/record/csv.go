// Package record persists and fans out per-cycle navigation records.
package record

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"rovernav/internal/nav"
)

var csvHeader = []string{
	"timestamp",
	"lat_deg", "lon_deg", "speed_mps", "heading_deg",
	"target_lat_deg", "target_lon_deg",
	"cross_track_err_m", "heading_err_deg", "distance_to_target_m", "path_bearing_deg",
	"left_pwm", "right_pwm",
	"state", "waypoint_index",
}

// CSVWriter appends one row per control cycle. Rows are flushed on every
// write so a crash loses at most the current cycle.
type CSVWriter struct {
	f *os.File
	w *csv.Writer
}

func NewCSVWriter(path string) (*CSVWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("record: open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("record: stat %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if st.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("record: write header: %w", err)
		}
		w.Flush()
	}
	return &CSVWriter{f: f, w: w}, nil
}

func (c *CSVWriter) Write(rec nav.Record) error {
	row := []string{
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
		ftoa(rec.LatDeg, 6), ftoa(rec.LonDeg, 6), ftoa(rec.SpeedMps, 2), ftoa(rec.HeadingDeg, 2),
		ftoa(rec.TargetLatDeg, 6), ftoa(rec.TargetLonDeg, 6),
		ftoa(rec.CrossTrackErrM, 3), ftoa(rec.HeadingErrDeg, 2), ftoa(rec.DistanceToTargetM, 3), ftoa(rec.PathBearingDeg, 2),
		strconv.Itoa(rec.LeftPWM), strconv.Itoa(rec.RightPWM),
		rec.State, strconv.Itoa(rec.WaypointIndex),
	}
	if err := c.w.Write(row); err != nil {
		return fmt.Errorf("record: write row: %w", err)
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *CSVWriter) Close() error {
	if c.f == nil {
		return nil
	}
	c.w.Flush()
	err := c.f.Close()
	c.f = nil
	return err
}

func ftoa(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
