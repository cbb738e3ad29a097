package gps

import (
	"fmt"
	"math"
	"testing"
	"time"
)

func nmeaLine(payload string) string {
	ck := byte(0)
	for i := 0; i < len(payload); i++ {
		ck ^= payload[i]
	}
	return fmt.Sprintf("$%s*%02X", payload, ck)
}

func TestParseNMEASentence_ChecksumOK(t *testing.T) {
	line := nmeaLine("GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W")
	s, err := parseNMEASentence(line)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if s.Type != "RMC" {
		t.Fatalf("expected type RMC, got %q", s.Type)
	}
}

func TestParseNMEASentence_ChecksumMismatch(t *testing.T) {
	good := nmeaLine("GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W")
	bad := good[:len(good)-2] + "00"
	if _, err := parseNMEASentence(bad); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFixState_RMCProducesFix(t *testing.T) {
	var st fixState
	line := nmeaLine("GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W")
	s, err := parseNMEASentence(line)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if !st.apply(now, s) {
		t.Fatalf("expected fix update")
	}
	fix := st.fix
	if !fix.Valid {
		t.Fatalf("expected valid fix")
	}
	wantLat := 48.0 + 7.038/60.0
	wantLon := 11.0 + 31.0/60.0
	if math.Abs(fix.LatDeg-wantLat) > 1e-9 || math.Abs(fix.LonDeg-wantLon) > 1e-9 {
		t.Fatalf("position=(%v,%v) want (%v,%v)", fix.LatDeg, fix.LonDeg, wantLat, wantLon)
	}
	wantSpeed := 22.4 * knotsToMps
	if math.Abs(fix.SpeedMps-wantSpeed) > 1e-9 {
		t.Fatalf("speed=%v want %v", fix.SpeedMps, wantSpeed)
	}
	if math.Abs(fix.CourseDeg-84.4) > 1e-9 {
		t.Fatalf("course=%v want 84.4", fix.CourseDeg)
	}
	if !fix.At.Equal(now) {
		t.Fatalf("fix time=%v want %v", fix.At, now)
	}
}

func TestFixState_RMCVoidKeepsLastFix(t *testing.T) {
	var st fixState
	active := nmeaLine("GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W")
	void := nmeaLine("GPRMC,123520,V,,,,,,,230394,003.1,W")
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s, _ := parseNMEASentence(active)
	st.apply(now, s)
	before := st.fix

	s, _ = parseNMEASentence(void)
	if st.apply(now.Add(time.Second), s) {
		t.Fatalf("void sentence reported an update")
	}
	if st.fix != before {
		t.Fatalf("void sentence mutated the fix")
	}
}

func TestFixState_SouthWestHemispheres(t *testing.T) {
	var st fixState
	line := nmeaLine("GPRMC,123519,A,3356.000,S,15112.000,W,000.0,000.0,230394,,")
	s, err := parseNMEASentence(line)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	st.apply(time.Now(), s)
	if st.fix.LatDeg >= 0 || st.fix.LonDeg >= 0 {
		t.Fatalf("expected negative lat/lon, got (%v,%v)", st.fix.LatDeg, st.fix.LonDeg)
	}
}

func TestFixState_GGAUpdatesQuality(t *testing.T) {
	var st fixState
	line := nmeaLine("GNGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,")
	s, err := parseNMEASentence(line)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !st.apply(time.Now(), s) {
		t.Fatalf("expected fix update")
	}
	if st.fix.Satellites != 8 {
		t.Fatalf("satellites=%d want 8", st.fix.Satellites)
	}
	if st.fix.HDOP != 0.9 {
		t.Fatalf("hdop=%v want 0.9", st.fix.HDOP)
	}
}

func TestFixState_GGANoFixIgnored(t *testing.T) {
	var st fixState
	line := nmeaLine("GNGGA,123519,,,,,0,00,,,M,,M,,")
	s, err := parseNMEASentence(line)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if st.apply(time.Now(), s) {
		t.Fatalf("quality-0 GGA reported an update")
	}
	if st.fix.Valid {
		t.Fatalf("fix marked valid without a position")
	}
}
