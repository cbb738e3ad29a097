// Package heading fuses the IMU gyro rate and accelerometer tilt into a
// stabilized heading estimate for the rover, optionally blended with the GPS
// course when moving fast enough for the course to be trustworthy.
package heading

import (
	"fmt"
	"math"
	"time"

	"rovernav/internal/geo"
)

// Config controls the complementary filter.
type Config struct {
	// Alpha weights the integrated gyro path; (1-Alpha) weights the
	// accelerometer tilt.
	Alpha float64

	// MountOffsetDeg corrects for the sensor mounting orientation.
	MountOffsetDeg float64

	// GyroSensitivity converts raw gyro-Z counts to deg/s.
	// 131 LSB/(deg/s) is the MPU-6050 +/-250 dps full-scale value.
	GyroSensitivity float64

	// CalibrationSamples is the stationary sample count averaged into the
	// gyro bias at startup.
	CalibrationSamples int

	// CourseWeight is the GPS share when blending course into the filter.
	CourseWeight float64

	// MinFusionSpeedMps gates GPS course fusion: below this ground speed the
	// course is noise and the filter heading is trusted exclusively.
	MinFusionSpeedMps float64
}

// Estimator carries the filter state. Not safe for concurrent use; the
// embedded control loop is single-threaded.
type Estimator struct {
	cfg Config

	biasRaw    float64
	calibrated bool

	angleDeg  float64
	haveAngle bool
	lastAt    time.Time
}

func New(cfg Config) *Estimator {
	if cfg.Alpha <= 0 || cfg.Alpha >= 1 {
		cfg.Alpha = 0.98
	}
	if cfg.MountOffsetDeg == 0 {
		cfg.MountOffsetDeg = 90
	}
	if cfg.GyroSensitivity <= 0 {
		cfg.GyroSensitivity = 131.0
	}
	if cfg.CalibrationSamples <= 0 {
		cfg.CalibrationSamples = 200
	}
	if cfg.CourseWeight <= 0 || cfg.CourseWeight >= 1 {
		cfg.CourseWeight = 0.7
	}
	if cfg.MinFusionSpeedMps <= 0 {
		cfg.MinFusionSpeedMps = 0.5
	}
	return &Estimator{cfg: cfg}
}

// CalibrationSamples returns how many stationary gyro readings Calibrate
// expects.
func (e *Estimator) CalibrationSamples() int { return e.cfg.CalibrationSamples }

// Calibrate estimates the gyro bias by averaging stationary raw gyro-Z
// samples. It runs once at startup; the bias is subtracted from every later
// reading.
func (e *Estimator) Calibrate(samples []int16) error {
	if len(samples) == 0 {
		return fmt.Errorf("heading: no calibration samples")
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s)
	}
	e.biasRaw = sum / float64(len(samples))
	e.calibrated = true
	return nil
}

// Calibrated reports whether the startup bias estimate has run.
func (e *Estimator) Calibrated() bool { return e.calibrated }

// Update folds one IMU sample into the filter and returns the heading in
// [0,360). dt is measured between calls; the first call seeds the filter
// from the accelerometer tilt alone.
func (e *Estimator) Update(now time.Time, gyroZRaw int16, ax, ay int16) float64 {
	tilt := math.Atan2(float64(ay), float64(ax))*180.0/math.Pi + e.cfg.MountOffsetDeg

	dt := 0.0
	if !e.lastAt.IsZero() {
		dt = now.Sub(e.lastAt).Seconds()
	}
	e.lastAt = now
	if dt <= 0 || dt > 0.5 {
		// Unknown or stale dt (startup, scheduler stall): skip integration.
		dt = 0
	}

	if !e.haveAngle {
		e.angleDeg = tilt
		e.haveAngle = true
		return e.HeadingDeg()
	}

	rateDps := (float64(gyroZRaw) - e.biasRaw) / e.cfg.GyroSensitivity
	integrated := e.angleDeg + rateDps*dt
	// Blend across the shortest angular arc so the 0/360 seam does not tear
	// the estimate.
	e.angleDeg = integrated + (1-e.cfg.Alpha)*geo.WrapTo180(tilt-integrated)
	return e.HeadingDeg()
}

// FuseCourse blends the GPS course into the filter heading when the rover is
// moving fast enough for the course to mean anything.
func (e *Estimator) FuseCourse(courseDeg, speedMps float64) float64 {
	if !e.haveAngle {
		e.angleDeg = courseDeg
		e.haveAngle = true
		return e.HeadingDeg()
	}
	if speedMps < e.cfg.MinFusionSpeedMps {
		return e.HeadingDeg()
	}
	// fused = w*course + (1-w)*filter, computed on the circle.
	e.angleDeg = courseDeg + (1-e.cfg.CourseWeight)*geo.WrapTo180(e.angleDeg-courseDeg)
	return e.HeadingDeg()
}

// HeadingDeg returns the current estimate normalized to [0,360).
func (e *Estimator) HeadingDeg() float64 {
	h := math.Mod(e.angleDeg, 360.0)
	if h < 0 {
		h += 360.0
	}
	return h
}
