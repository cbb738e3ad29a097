package main

import (
	"testing"
	"time"

	"rovernav/internal/fuzzy"
	"rovernav/internal/geo"
	"rovernav/internal/nav"
	"rovernav/internal/sim"
	"rovernav/internal/transport"
	"rovernav/internal/web"
	"rovernav/internal/wire"
)

const mPerDegLat = geo.EarthRadiusM * 3.14159265358979 / 180.0

func offset(base geo.Point, northM, eastM float64) geo.Point {
	return geo.Point{
		LatDeg: base.LatDeg + northM/mPerDegLat,
		LonDeg: base.LonDeg + eastM/(mPerDegLat*0.7986355100472928), // cos(37°)
	}
}

func newTestRuntime(t *testing.T, waypoints []geo.Point) (*baseRuntime, *transport.Pipe) {
	t.Helper()
	ctl, ok := fuzzy.ByName("compact")
	if !ok {
		t.Fatalf("compact controller missing")
	}
	tracker, err := nav.New(nav.Config{Waypoints: waypoints, Controller: ctl})
	if err != nil {
		t.Fatalf("nav.New: %v", err)
	}
	baseEnd, roverEnd := transport.NewPipe()
	rt := &baseRuntime{
		link:    baseEnd,
		tracker: tracker,
		status:  web.NewStatus(time.Now()),
		hub:     web.NewRecordHub(),
	}
	return rt, roverEnd
}

func TestStep_IgnoresNoFixTelemetry(t *testing.T) {
	start := geo.Point{LatDeg: 37.0, LonDeg: -122.0}
	rt, rover := newTestRuntime(t, []geo.Point{offset(start, 20, 0)})

	_ = rover.WriteLine("GPS:0.000000,0.000000,0.0,0.0")
	if !rt.step(time.Now()) {
		t.Fatalf("line not consumed")
	}
	if _, ok := rover.ReadLine(); ok {
		t.Fatalf("no-fix telemetry produced a command")
	}
	if rt.status.Snapshot(time.Now()).CycleCount != 0 {
		t.Fatalf("no-fix telemetry produced a record")
	}
}

func TestStep_SkipsForeignLines(t *testing.T) {
	start := geo.Point{LatDeg: 37.0, LonDeg: -122.0}
	rt, rover := newTestRuntime(t, []geo.Point{offset(start, 20, 0)})

	_ = rover.WriteLine("CMD:10,10")
	_ = rover.WriteLine("$GPRMC,garbage")
	for rt.step(time.Now()) {
	}
	if _, ok := rover.ReadLine(); ok {
		t.Fatalf("foreign lines produced a command")
	}
}

func TestStep_MalformedTelemetryDropped(t *testing.T) {
	start := geo.Point{LatDeg: 37.0, LonDeg: -122.0}
	rt, rover := newTestRuntime(t, []geo.Point{offset(start, 20, 0)})

	_ = rover.WriteLine("GPS:37.0,-122.0,abc,90.0")
	if !rt.step(time.Now()) {
		t.Fatalf("line not consumed")
	}
	if _, ok := rover.ReadLine(); ok {
		t.Fatalf("malformed telemetry produced a command")
	}
}

func TestStep_EmitsCommandAndPublishesRecord(t *testing.T) {
	start := geo.Point{LatDeg: 37.0, LonDeg: -122.0}
	rt, rover := newTestRuntime(t, []geo.Point{offset(start, 20, 0)})

	pose := wire.Telemetry{LatDeg: start.LatDeg, LonDeg: start.LonDeg, SpeedMps: 0, HeadingDeg: 0}
	_ = rover.WriteLine(wire.EncodeTelemetry(pose))
	if !rt.step(time.Now()) {
		t.Fatalf("line not consumed")
	}
	line, ok := rover.ReadLine()
	if !ok || !wire.IsCommand(line) {
		t.Fatalf("no command emitted, got %q", line)
	}
	cmd, err := wire.ParseCommand(line)
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	// Aligned with the path: both wheels forward.
	if cmd.Left <= 0 || cmd.Right <= 0 {
		t.Fatalf("cmd=%+v want forward drive", cmd)
	}
	snap := rt.status.Snapshot(time.Now())
	if snap.CycleCount != 1 || snap.LastRecord == nil {
		t.Fatalf("record not published: %+v", snap)
	}
}

// Closed loop against the kinematic model: the rover must reach every
// waypoint and receive a final stop command.
func TestClosedLoop_ReachesAllWaypoints(t *testing.T) {
	start := geo.Point{LatDeg: 37.0, LonDeg: -122.0}
	waypoints := []geo.Point{
		offset(start, 20, 0),
		offset(start, 20, 15),
		offset(start, 40, 15),
	}
	rt, rover := newTestRuntime(t, waypoints)

	model := &sim.Rover{
		TrackWidthM: 0.3,
		MaxSpeedMps: 1.0,
		MaxPWM:      100, // compact controller PWM scale
		Position:    start,
		HeadingDeg:  0,
	}

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	const dt = 0.1
	var lastCmd wire.Command

	for i := 0; i < 10000; i++ {
		tel := wire.Telemetry{
			LatDeg:     model.Position.LatDeg,
			LonDeg:     model.Position.LonDeg,
			SpeedMps:   model.SpeedMps,
			HeadingDeg: model.HeadingDeg,
		}
		_ = rover.WriteLine(wire.EncodeTelemetry(tel))
		rt.step(now)

		if line, ok := rover.ReadLine(); ok {
			cmd, err := wire.ParseCommand(line)
			if err != nil {
				t.Fatalf("bad command %q: %v", line, err)
			}
			lastCmd = cmd
		}
		model.Step(float64(lastCmd.Left), float64(lastCmd.Right), dt)
		now = now.Add(time.Duration(dt * float64(time.Second)))

		if rt.tracker.State() == nav.StateArrived {
			break
		}
	}

	if rt.tracker.State() != nav.StateArrived {
		t.Fatalf("never arrived; state=%s index=%d pos=%+v",
			rt.tracker.State(), rt.tracker.WaypointIndex(), model.Position)
	}
	if lastCmd.Left != 0 || lastCmd.Right != 0 {
		t.Fatalf("final command=%+v want stop", lastCmd)
	}
	if d := geo.Distance(model.Position, waypoints[len(waypoints)-1]); d > 3.0 {
		t.Fatalf("stopped %.2f m from the final waypoint", d)
	}
}
