// Package nav turns GPS poses into differential-drive steering commands by
// tracking an ordered waypoint list and running the fuzzy controller on the
// resulting cross-track/heading errors.
package nav

import (
	"fmt"
	"math"
	"time"

	"rovernav/internal/fuzzy"
	"rovernav/internal/geo"
	"rovernav/internal/wire"
)

// State is the waypoint state machine position.
type State int

const (
	// StateAligning is the initial heading-only approach to the first waypoint.
	StateAligning State = iota
	// StateFollowing is normal path-segment tracking.
	StateFollowing
	// StateArrived is terminal: all waypoints consumed.
	StateArrived
)

func (s State) String() string {
	switch s {
	case StateAligning:
		return "aligning"
	case StateFollowing:
		return "following"
	case StateArrived:
		return "arrived"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// PathPolicy selects how the desired path bearing is computed while
// following. The two policies are deliberately distinct; pick one per
// deployment, they are never blended.
type PathPolicy string

const (
	// PolicySegment always steers along the target->next-waypoint segment
	// (falling back to bearing-to-target on the final leg).
	PolicySegment PathPolicy = "segment"
	// PolicyApproach steers straight at the target until within
	// ApproachSwitchM, then switches to the segment bearing. This avoids
	// large heading swings on long straight approaches.
	PolicyApproach PathPolicy = "approach"
)

// Pose is one telemetry sample: position, heading clockwise from true north
// in [0,360), and ground speed.
type Pose struct {
	Position   geo.Point
	HeadingDeg float64
	SpeedMps   float64
}

// Record is the flat per-cycle record handed to the logging/plotting
// collaborators. One Record is produced per processed telemetry line.
type Record struct {
	Timestamp time.Time `json:"timestamp"`

	LatDeg     float64 `json:"lat_deg"`
	LonDeg     float64 `json:"lon_deg"`
	SpeedMps   float64 `json:"speed_mps"`
	HeadingDeg float64 `json:"heading_deg"`

	TargetLatDeg float64 `json:"target_lat_deg"`
	TargetLonDeg float64 `json:"target_lon_deg"`

	CrossTrackErrM    float64 `json:"cross_track_err_m"`
	HeadingErrDeg     float64 `json:"heading_err_deg"`
	DistanceToTargetM float64 `json:"distance_to_target_m"`
	PathBearingDeg    float64 `json:"path_bearing_deg"`

	LeftPWM  int `json:"left_pwm"`
	RightPWM int `json:"right_pwm"`

	State         string `json:"state"`
	WaypointIndex int    `json:"waypoint_index"`
}

// Config controls a Tracker.
type Config struct {
	// Waypoints is the fixed route, traversed forward only. Must be non-empty.
	Waypoints []geo.Point

	// Controller is the fuzzy configuration (see fuzzy.ByName).
	Controller fuzzy.Config

	// PositionThresholdM is the arrival radius around a waypoint.
	PositionThresholdM float64

	// MinDistanceFactor floors the near-arrival command taper so the rover
	// does not stall short of the waypoint.
	MinDistanceFactor float64

	// Policy selects the path-bearing computation (default PolicySegment).
	Policy PathPolicy

	// ApproachSwitchM is the PolicyApproach switchover distance.
	ApproachSwitchM float64
}

// Tracker owns the navigation state: the waypoint index and the state
// machine. Both only ever move forward.
type Tracker struct {
	cfg  Config
	ctrl *fuzzy.Controller

	state State
	idx   int
}

func New(cfg Config) (*Tracker, error) {
	if len(cfg.Waypoints) == 0 {
		return nil, fmt.Errorf("nav: no waypoints")
	}
	if cfg.PositionThresholdM <= 0 {
		cfg.PositionThresholdM = 2.0
	}
	if cfg.MinDistanceFactor <= 0 {
		cfg.MinDistanceFactor = 0.3
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicySegment
	}
	if cfg.Policy != PolicySegment && cfg.Policy != PolicyApproach {
		return nil, fmt.Errorf("nav: unknown path policy %q", cfg.Policy)
	}
	if cfg.ApproachSwitchM <= 0 {
		cfg.ApproachSwitchM = 10.0
	}

	ctrl, err := fuzzy.New(cfg.Controller)
	if err != nil {
		return nil, err
	}
	if ctrl.NumInputs() != 2 || ctrl.NumOutputs() != 2 {
		return nil, fmt.Errorf("nav: controller must be 2-in/2-out, got %d/%d", ctrl.NumInputs(), ctrl.NumOutputs())
	}

	return &Tracker{cfg: cfg, ctrl: ctrl}, nil
}

// State returns the current state machine position.
func (t *Tracker) State() State { return t.state }

// WaypointIndex returns the current target index (monotonic).
func (t *Tracker) WaypointIndex() int { return t.idx }

// Update processes one telemetry pose. It returns the motor command and the
// per-cycle record, or ok=false when the pose produced no command: a
// degenerate (0,0) no-fix pose, or any pose after arrival. Discarded poses
// mutate no state.
func (t *Tracker) Update(now time.Time, pose Pose) (wire.Command, Record, bool) {
	if t.state == StateArrived {
		return wire.Command{}, Record{}, false
	}
	if pose.Position.LatDeg == 0 && pose.Position.LonDeg == 0 {
		// No-fix sentinel from the GPS module.
		return wire.Command{}, Record{}, false
	}

	target := t.cfg.Waypoints[t.idx]
	dist := geo.Distance(pose.Position, target)

	// Reaching the last waypoint is terminal: transition once, emit the zero
	// command, and never emit again.
	if dist <= t.cfg.PositionThresholdM && t.idx+1 >= len(t.cfg.Waypoints) {
		return t.arrive(now, pose, target, dist)
	}

	bearingToTarget := geo.Bearing(pose.Position, target)
	pathBearing := bearingToTarget
	crossTrack := 0.0

	if t.state == StateFollowing {
		pathBearing = t.pathBearing(pose.Position, target, bearingToTarget, dist)
		offsetDeg := geo.WrapTo180(bearingToTarget - pathBearing)
		crossTrack = dist * math.Sin(offsetDeg*math.Pi/180.0)
	}
	headingErr := geo.WrapTo180(pathBearing - pose.HeadingDeg)

	outs, err := t.ctrl.Infer(crossTrack, headingErr)
	if err != nil {
		// Arity is fixed at construction; treat as a discarded cycle.
		return wire.Command{}, Record{}, false
	}

	factor := dist / t.cfg.PositionThresholdM
	if factor > 1 {
		factor = 1
	}
	if factor < t.cfg.MinDistanceFactor {
		factor = t.cfg.MinDistanceFactor
	}

	cmd := wire.Command{
		Left:  clampPWM(int(math.Round(outs[0] * factor))),
		Right: clampPWM(int(math.Round(outs[1] * factor))),
	}
	rec := t.record(now, pose, target, crossTrack, headingErr, dist, pathBearing, cmd)

	// Waypoint-arrival transition takes effect on the next cycle; this cycle's
	// command was already tapered by the distance factor.
	if dist <= t.cfg.PositionThresholdM {
		switch t.state {
		case StateAligning:
			t.state = StateFollowing
			t.idx = 1
		case StateFollowing:
			t.idx++
		}
	}
	return cmd, rec, true
}

// pathBearing computes the desired course while following, per the
// configured policy.
func (t *Tracker) pathBearing(pos, target geo.Point, bearingToTarget, dist float64) float64 {
	hasNext := t.idx+1 < len(t.cfg.Waypoints)
	if !hasNext {
		return bearingToTarget
	}
	if t.cfg.Policy == PolicyApproach && dist > t.cfg.ApproachSwitchM {
		return bearingToTarget
	}
	return geo.Bearing(target, t.cfg.Waypoints[t.idx+1])
}

// arrive performs the single transition into StateArrived and emits the
// terminal zero command.
func (t *Tracker) arrive(now time.Time, pose Pose, target geo.Point, dist float64) (wire.Command, Record, bool) {
	t.state = StateArrived
	cmd := wire.Command{}
	rec := t.record(now, pose, target, 0, 0, dist, pose.HeadingDeg, cmd)
	return cmd, rec, true
}

func (t *Tracker) record(now time.Time, pose Pose, target geo.Point, crossTrack, headingErr, dist, pathBearing float64, cmd wire.Command) Record {
	return Record{
		Timestamp:         now,
		LatDeg:            pose.Position.LatDeg,
		LonDeg:            pose.Position.LonDeg,
		SpeedMps:          pose.SpeedMps,
		HeadingDeg:        pose.HeadingDeg,
		TargetLatDeg:      target.LatDeg,
		TargetLonDeg:      target.LonDeg,
		CrossTrackErrM:    crossTrack,
		HeadingErrDeg:     headingErr,
		DistanceToTargetM: dist,
		PathBearingDeg:    pathBearing,
		LeftPWM:           cmd.Left,
		RightPWM:          cmd.Right,
		State:             t.state.String(),
		WaypointIndex:     t.idx,
	}
}

func clampPWM(v int) int {
	if v > wire.MaxPWM {
		return wire.MaxPWM
	}
	if v < -wire.MaxPWM {
		return -wire.MaxPWM
	}
	return v
}
