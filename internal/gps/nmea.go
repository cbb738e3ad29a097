// Package gps parses NMEA sentences from the receiver into position fixes
// for the rover loop.
package gps

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const knotsToMps = 0.514444

// Fix is the rover's view of the receiver: decimal-degree position plus
// ground speed and course when the receiver reports them.
type Fix struct {
	Valid      bool
	LatDeg     float64
	LonDeg     float64
	SpeedMps   float64
	CourseDeg  float64
	Satellites int
	HDOP       float64
	At         time.Time
}

type nmeaSentence struct {
	Type string
	// Fields is the comma-split NMEA payload (excluding $ and checksum).
	Fields []string
}

func parseNMEASentence(line string) (nmeaSentence, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return nmeaSentence{}, fmt.Errorf("nmea: missing '$'")
	}
	star := strings.LastIndexByte(line, '*')
	if star == -1 {
		return nmeaSentence{}, fmt.Errorf("nmea: missing checksum")
	}
	payload := line[1:star]
	ck := strings.TrimSpace(line[star+1:])
	if len(ck) < 2 {
		return nmeaSentence{}, fmt.Errorf("nmea: short checksum")
	}
	want, err := hex.DecodeString(ck[:2])
	if err != nil || len(want) != 1 {
		return nmeaSentence{}, fmt.Errorf("nmea: bad checksum")
	}
	got := byte(0)
	for i := 0; i < len(payload); i++ {
		got ^= payload[i]
	}
	if got != want[0] {
		return nmeaSentence{}, fmt.Errorf("nmea: checksum mismatch")
	}

	parts := strings.Split(payload, ",")
	if len(parts) == 0 || len(parts[0]) < 3 {
		return nmeaSentence{}, fmt.Errorf("nmea: short type")
	}
	// Accept any talker prefix (GP, GN, GL); normalize to the last 3 chars.
	t := parts[0]
	if len(t) > 3 {
		t = t[len(t)-3:]
	}
	return nmeaSentence{Type: strings.ToUpper(t), Fields: parts}, nil
}

// fixState accumulates sentence fragments into the current Fix. RMC carries
// position, speed and course; GGA carries position, satellites and HDOP.
type fixState struct {
	fix Fix
}

func (s *fixState) apply(now time.Time, sent nmeaSentence) bool {
	switch sent.Type {
	case "RMC":
		return s.applyRMC(now, sent.Fields)
	case "GGA":
		return s.applyGGA(now, sent.Fields)
	default:
		return false
	}
}

// RMC: Recommended Minimum Specific GNSS Data
// Fields (NMEA 0183 v2.3):
//
//	0: talker+type
//	1: time (hhmmss.sss)
//	2: status (A=active, V=void)
//	3: latitude (ddmm.mmmm)
//	4: N/S
//	5: longitude (dddmm.mmmm)
//	6: E/W
//	7: speed over ground (knots)
//	8: course over ground (deg)
//	9: date (ddmmyy)
func (s *fixState) applyRMC(now time.Time, f []string) bool {
	if len(f) < 10 {
		return false
	}
	if strings.TrimSpace(f[2]) != "A" {
		// Void fixes leave the last good position in place.
		return false
	}

	lat, latOK := parseNMEALatLon(f[3], f[4])
	lon, lonOK := parseNMEALatLon(f[5], f[6])
	if !latOK || !lonOK {
		return false
	}
	s.fix.LatDeg = lat
	s.fix.LonDeg = lon

	if gs, ok := parseFloat(f[7]); ok {
		s.fix.SpeedMps = gs * knotsToMps
	}
	if trk, ok := parseFloat(f[8]); ok {
		s.fix.CourseDeg = math.Mod(trk+360.0, 360.0)
	}

	s.fix.Valid = true
	s.fix.At = now
	return true
}

// GGA: Global Positioning System Fix Data
// Fields:
//
//	0: talker+type
//	1: time
//	2: latitude
//	3: N/S
//	4: longitude
//	5: E/W
//	6: fix quality (0=invalid)
//	7: number of satellites
//	8: HDOP
//	9: altitude (meters)
func (s *fixState) applyGGA(now time.Time, f []string) bool {
	if len(f) < 10 {
		return false
	}
	q := strings.TrimSpace(f[6])
	if q == "" || q == "0" {
		return false
	}
	if sats, err := strconv.Atoi(strings.TrimSpace(f[7])); err == nil {
		s.fix.Satellites = sats
	}
	if hdop, ok := parseFloat(f[8]); ok {
		s.fix.HDOP = hdop
	}

	lat, latOK := parseNMEALatLon(f[2], f[3])
	lon, lonOK := parseNMEALatLon(f[4], f[5])
	if !latOK || !lonOK {
		return false
	}
	s.fix.LatDeg = lat
	s.fix.LonDeg = lon
	s.fix.Valid = true
	s.fix.At = now
	return true
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseNMEALatLon parses NMEA lat/lon in ddmm.mmmm or dddmm.mmmm plus hemisphere.
func parseNMEALatLon(v string, hemi string) (float64, bool) {
	v = strings.TrimSpace(v)
	hemi = strings.TrimSpace(strings.ToUpper(hemi))
	if v == "" || (hemi != "N" && hemi != "S" && hemi != "E" && hemi != "W") {
		return 0, false
	}

	// The last two digits of the integer part are whole minutes.
	dot := strings.IndexByte(v, '.')
	intPart := v
	if dot != -1 {
		intPart = v[:dot]
	}
	if len(intPart) < 3 {
		return 0, false
	}

	deg, err := strconv.Atoi(intPart[:len(intPart)-2])
	if err != nil {
		return 0, false
	}
	mins, err := strconv.ParseFloat(v[len(intPart)-2:], 64)
	if err != nil {
		return 0, false
	}

	dec := float64(deg) + mins/60.0
	if hemi == "S" || hemi == "W" {
		dec = -dec
	}
	return dec, true
}
