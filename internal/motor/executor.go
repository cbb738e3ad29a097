// Package motor executes signed PWM pairs on the rover's drive H-bridge and
// enforces the command-timeout fail-safe.
package motor

import (
	"fmt"
	"sync"
	"time"
)

var openDriverFn = openDriver

// Config controls the executor.
type Config struct {
	// MaxPWM is the wire-protocol magnitude that maps to 100% duty. The
	// compact controller variant drives a 0-100 scale, the wide variant
	// 0-255; the protocol boundary normalizes here.
	MaxPWM int

	// CommandTimeout is the watchdog window: with no valid command for this
	// long, both channels are forced to brake.
	CommandTimeout time.Duration

	Left  Pins
	Right Pins
}

// Snapshot is the externally visible executor state.
type Snapshot struct {
	LeftPWM  int `json:"left_pwm"`
	RightPWM int `json:"right_pwm"`

	SafetyStopped bool      `json:"safety_stopped"`
	LastCommandAt time.Time `json:"last_command_utc,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
}

// Executor decodes signed PWM pairs into per-wheel direction and duty.
type Executor struct {
	cfg Config
	drv driver

	mu   sync.Mutex
	snap Snapshot
}

func New(cfg Config) (*Executor, error) {
	drv, err := openDriverFn(cfg.Left, cfg.Right)
	if err != nil {
		return nil, err
	}
	return newWithDriver(cfg, drv), nil
}

func newWithDriver(cfg Config, drv driver) *Executor {
	if cfg.MaxPWM <= 0 {
		cfg.MaxPWM = 255
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = 2 * time.Second
	}
	return &Executor{cfg: cfg, drv: drv}
}

// Apply actuates one decoded command and refreshes the watchdog.
func (e *Executor) Apply(now time.Time, left, right int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.setWheel(ChannelLeft, left); err != nil {
		e.snap.LastError = err.Error()
		return err
	}
	if err := e.setWheel(ChannelRight, right); err != nil {
		e.snap.LastError = err.Error()
		return err
	}
	e.snap.LeftPWM = left
	e.snap.RightPWM = right
	e.snap.SafetyStopped = false
	e.snap.LastCommandAt = now
	e.snap.LastError = ""
	return nil
}

func (e *Executor) setWheel(ch, pwm int) error {
	if pwm == 0 {
		return e.drv.Brake(ch)
	}
	forward := pwm > 0
	mag := pwm
	if mag < 0 {
		mag = -mag
	}
	if mag > e.cfg.MaxPWM {
		mag = e.cfg.MaxPWM
	}
	duty := float64(mag) / float64(e.cfg.MaxPWM) * 100.0
	return e.drv.SetChannel(ch, forward, duty)
}

// Tick runs the watchdog; the control loop calls it every pass regardless of
// command traffic. It returns true on the pass that forces the safety stop.
func (e *Executor) Tick(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.snap.LastCommandAt.IsZero() {
		// Arm the watchdog on the first pass; a rover that never hears from
		// the base still stops CommandTimeout after boot.
		e.snap.LastCommandAt = now
		return false
	}
	if e.snap.SafetyStopped {
		return false
	}
	if now.Sub(e.snap.LastCommandAt) <= e.cfg.CommandTimeout {
		return false
	}

	if err := e.drv.Brake(ChannelLeft); err != nil {
		e.snap.LastError = err.Error()
	}
	if err := e.drv.Brake(ChannelRight); err != nil {
		e.snap.LastError = err.Error()
	}
	e.snap.LeftPWM = 0
	e.snap.RightPWM = 0
	e.snap.SafetyStopped = true
	return true
}

// Snapshot returns the current executor state.
func (e *Executor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap
}

// Stop brakes both channels; used for the final zero command on shutdown.
func (e *Executor) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	_ = e.drv.Brake(ChannelLeft)
	_ = e.drv.Brake(ChannelRight)
	e.snap.LeftPWM = 0
	e.snap.RightPWM = 0
}

func (e *Executor) Close() {
	if e == nil {
		return
	}
	e.Stop()
	if err := e.drv.Close(); err != nil {
		e.mu.Lock()
		e.snap.LastError = fmt.Sprintf("close: %v", err)
		e.mu.Unlock()
	}
}
