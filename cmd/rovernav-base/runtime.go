package main

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"rovernav/internal/geo"
	"rovernav/internal/nav"
	"rovernav/internal/record"
	"rovernav/internal/replay"
	"rovernav/internal/transport"
	"rovernav/internal/web"
	"rovernav/internal/wire"
)

// baseRuntime is the single-threaded control loop. One telemetry line in,
// one command line out; every collaborator is fed from this goroutine.
type baseRuntime struct {
	link    transport.LineTransport
	tracker *nav.Tracker
	status  *web.Status
	hub     *web.RecordHub
	idle    time.Duration

	csv      *record.CSVWriter
	udp      *record.UDPBroadcaster
	recorder *replay.Writer
}

func (rt *baseRuntime) run(ctx context.Context) {
	idle := rt.idle
	if idle <= 0 {
		idle = 20 * time.Millisecond
	}
	for ctx.Err() == nil {
		if !rt.step(time.Now()) {
			select {
			case <-ctx.Done():
			case <-time.After(idle):
			}
		}
	}
	// Leave the rover braked rather than waiting out its watchdog.
	if err := rt.link.WriteLine(wire.EncodeCommand(wire.Command{})); err != nil {
		log.WithError(err).Warn("final stop command failed")
	}
}

// step processes at most one pending telemetry line. It reports whether a
// line was consumed so the caller can idle on an empty link.
func (rt *baseRuntime) step(now time.Time) bool {
	line, ok := rt.link.ReadLine()
	if !ok {
		return false
	}
	if !wire.IsTelemetry(line) {
		// Commands echoing back or noise on a shared radio channel.
		return true
	}
	if rt.recorder != nil {
		if err := rt.recorder.WriteLine(now, line); err != nil {
			log.WithError(err).Warn("telemetry record write failed")
		}
	}

	tel, err := wire.ParseTelemetry(line)
	if err != nil {
		log.WithError(err).Debugf("dropping telemetry line %q", line)
		return true
	}

	pose := nav.Pose{
		Position:   geo.Point{LatDeg: tel.LatDeg, LonDeg: tel.LonDeg},
		SpeedMps:   tel.SpeedMps,
		HeadingDeg: tel.HeadingDeg,
	}
	cmd, rec, ok := rt.tracker.Update(now, pose)
	if !ok {
		return true
	}

	if err := rt.link.WriteLine(wire.EncodeCommand(cmd)); err != nil {
		log.WithError(err).Warn("command write failed")
	}
	rt.publish(rec)
	return true
}

func (rt *baseRuntime) publish(rec nav.Record) {
	rt.status.Update(rec)
	rt.hub.Publish(rec)
	if rt.csv != nil {
		if err := rt.csv.Write(rec); err != nil {
			log.WithError(err).Warn("csv write failed")
		}
	}
	if rt.udp != nil {
		if err := rt.udp.Send(rec); err != nil {
			log.WithError(err).Debug("udp send failed")
		}
	}
}
