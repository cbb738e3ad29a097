// Package sim provides a deterministic differential-drive rover model for
// closed-loop testing of the base station without hardware.
package sim

import (
	"math"

	"rovernav/internal/geo"
)

// Rover integrates simple differential-drive kinematics. PWM commands map
// linearly to wheel speeds; MaxSpeedMps is the wheel speed at full PWM.
type Rover struct {
	TrackWidthM float64
	MaxSpeedMps float64
	MaxPWM      float64

	Position   geo.Point
	HeadingDeg float64
	SpeedMps   float64
}

const mPerDegLat = geo.EarthRadiusM * math.Pi / 180.0

// Step advances the model by dt seconds under the given wheel commands.
// Negative PWM reverses the wheel. A faster left wheel turns the rover
// right (heading increases).
func (r *Rover) Step(leftPWM, rightPWM float64, dt float64) {
	if dt <= 0 {
		return
	}
	maxPWM := r.MaxPWM
	if maxPWM <= 0 {
		maxPWM = 255
	}
	vl := clampUnit(leftPWM/maxPWM) * r.MaxSpeedMps
	vr := clampUnit(rightPWM/maxPWM) * r.MaxSpeedMps

	v := (vl + vr) / 2
	omegaDeg := 0.0
	if r.TrackWidthM > 0 {
		omegaDeg = (vl - vr) / r.TrackWidthM * 180.0 / math.Pi
	}

	// Integrate heading at the midpoint for less drift on tight turns.
	midHeading := r.HeadingDeg + omegaDeg*dt/2
	rad := midHeading * math.Pi / 180.0
	northM := v * math.Cos(rad) * dt
	eastM := v * math.Sin(rad) * dt

	r.Position.LatDeg += northM / mPerDegLat
	r.Position.LonDeg += eastM / (mPerDegLat * math.Cos(r.Position.LatDeg*math.Pi/180.0))
	r.HeadingDeg = math.Mod(r.HeadingDeg+omegaDeg*dt+360.0, 360.0)
	r.SpeedMps = math.Abs(v)
}

func clampUnit(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}
