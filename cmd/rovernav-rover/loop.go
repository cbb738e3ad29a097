package main

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"rovernav/internal/gps"
	"rovernav/internal/heading"
	"rovernav/internal/transport"
	"rovernav/internal/wire"
)

// imuSource is what the loop needs from the MPU-6050.
type imuSource interface {
	ReadAccel() (ax, ay, az int16, err error)
	ReadGyroZ() (int16, error)
}

// motorExecutor is the slice of the motor executor the loop drives.
type motorExecutor interface {
	Apply(now time.Time, left, right int) error
	Tick(now time.Time) bool
	Stop()
}

// roverRuntime is the single-threaded rover loop: pump the IMU into the
// heading filter, relay GPS fixes to the base, apply incoming motor
// commands, and tick the safety watchdog on every pass.
type roverRuntime struct {
	radio transport.LineTransport
	gps   *gps.Reader
	imu   imuSource
	est   *heading.Estimator
	exec  motorExecutor

	telemetryInterval time.Duration
	idle              time.Duration

	lastTelemetry time.Time
}

// calibrate gathers stationary gyro samples for the filter's bias estimate.
// The rover must not move while this runs.
func (rt *roverRuntime) calibrate() error {
	n := rt.est.CalibrationSamples()
	samples := make([]int16, 0, n)
	for len(samples) < n {
		gz, err := rt.imu.ReadGyroZ()
		if err != nil {
			return fmt.Errorf("calibration read: %w", err)
		}
		samples = append(samples, gz)
	}
	return rt.est.Calibrate(samples)
}

func (rt *roverRuntime) run(ctx context.Context) {
	idle := rt.idle
	if idle <= 0 {
		idle = 10 * time.Millisecond
	}
	for ctx.Err() == nil {
		rt.pass(time.Now())
		select {
		case <-ctx.Done():
		case <-time.After(idle):
		}
	}
	rt.exec.Stop()
}

// pass runs one loop iteration.
func (rt *roverRuntime) pass(now time.Time) {
	gz, gzErr := rt.imu.ReadGyroZ()
	ax, ay, _, accErr := rt.imu.ReadAccel()
	if gzErr == nil && accErr == nil {
		rt.est.Update(now, gz, ax, ay)
	} else {
		if gzErr != nil {
			log.WithError(gzErr).Debug("imu gyro read failed")
		}
		if accErr != nil {
			log.WithError(accErr).Debug("imu accel read failed")
		}
	}

	rt.gps.Poll(now)
	fix := rt.gps.Fix()
	if fix.Valid {
		rt.est.FuseCourse(fix.CourseDeg, fix.SpeedMps)
	}

	if rt.lastTelemetry.IsZero() || now.Sub(rt.lastTelemetry) >= rt.telemetryInterval {
		rt.sendTelemetry(now, fix)
	}

	for {
		line, ok := rt.radio.ReadLine()
		if !ok {
			break
		}
		if !wire.IsCommand(line) {
			continue
		}
		cmd, err := wire.ParseCommand(line)
		if err != nil {
			log.WithError(err).Debugf("dropping command line %q", line)
			continue
		}
		if err := rt.exec.Apply(now, cmd.Left, cmd.Right); err != nil {
			log.WithError(err).Warn("motor apply failed")
		}
	}

	if rt.exec.Tick(now) {
		log.Warn("command timeout, motors stopped")
	}
}

// sendTelemetry emits one GPS line. Without a valid fix the line carries
// zeros; the base station discards it but the link stays observable.
func (rt *roverRuntime) sendTelemetry(now time.Time, fix gps.Fix) {
	tel := wire.Telemetry{}
	if fix.Valid {
		tel = wire.Telemetry{
			LatDeg:     fix.LatDeg,
			LonDeg:     fix.LonDeg,
			SpeedMps:   fix.SpeedMps,
			HeadingDeg: rt.est.HeadingDeg(),
		}
	}
	if err := rt.radio.WriteLine(wire.EncodeTelemetry(tel)); err != nil {
		log.WithError(err).Warn("telemetry write failed")
		return
	}
	rt.lastTelemetry = now
}
