// Package wire implements the line-based text protocol spoken between the
// base station and the rover over the serial link.
//
// Telemetry (rover -> base):  GPS:<lat>,<lon>,<speed>,<heading>
// Command   (base -> rover):  CMD:<leftPWM>,<rightPWM>
//
// Lines carrying any other prefix are not errors; each side simply ignores
// traffic that is not addressed to it.
package wire

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	TelemetryPrefix = "GPS:"
	CommandPrefix   = "CMD:"

	// PWM values on the wire are clamped to the H-bridge range.
	MaxPWM = 255
)

// Telemetry is one decoded GPS line.
type Telemetry struct {
	LatDeg     float64
	LonDeg     float64
	SpeedMps   float64
	HeadingDeg float64
}

// Command is one decoded motor command line.
type Command struct {
	Left  int
	Right int
}

// IsTelemetry reports whether line carries the telemetry prefix.
func IsTelemetry(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), TelemetryPrefix)
}

// IsCommand reports whether line carries the command prefix.
func IsCommand(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), CommandPrefix)
}

// ParseTelemetry decodes a GPS line. Lines with the wrong field count or
// non-numeric fields are recoverable parse failures: the caller discards the
// line and keeps looping.
func ParseTelemetry(line string) (Telemetry, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, TelemetryPrefix) {
		return Telemetry{}, fmt.Errorf("wire: not a telemetry line")
	}
	fields := strings.Split(line[len(TelemetryPrefix):], ",")
	if len(fields) != 4 {
		return Telemetry{}, fmt.Errorf("wire: telemetry has %d fields, want 4", len(fields))
	}
	vals := make([]float64, 4)
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Telemetry{}, fmt.Errorf("wire: telemetry field %d: %w", i, err)
		}
		vals[i] = v
	}
	return Telemetry{LatDeg: vals[0], LonDeg: vals[1], SpeedMps: vals[2], HeadingDeg: vals[3]}, nil
}

// EncodeTelemetry renders a GPS line (without trailing newline).
func EncodeTelemetry(t Telemetry) string {
	return fmt.Sprintf("%s%.6f,%.6f,%.2f,%.2f", TelemetryPrefix, t.LatDeg, t.LonDeg, t.SpeedMps, t.HeadingDeg)
}

// ParseCommand decodes a CMD line and range-checks both channels.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, CommandPrefix) {
		return Command{}, fmt.Errorf("wire: not a command line")
	}
	fields := strings.Split(line[len(CommandPrefix):], ",")
	if len(fields) != 2 {
		return Command{}, fmt.Errorf("wire: command has %d fields, want 2", len(fields))
	}
	left, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return Command{}, fmt.Errorf("wire: left pwm: %w", err)
	}
	right, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return Command{}, fmt.Errorf("wire: right pwm: %w", err)
	}
	if left < -MaxPWM || left > MaxPWM || right < -MaxPWM || right > MaxPWM {
		return Command{}, fmt.Errorf("wire: pwm %d,%d out of [-%d,%d]", left, right, MaxPWM, MaxPWM)
	}
	return Command{Left: left, Right: right}, nil
}

// EncodeCommand renders a CMD line (without trailing newline).
func EncodeCommand(c Command) string {
	return fmt.Sprintf("%s%d,%d", CommandPrefix, c.Left, c.Right)
}
