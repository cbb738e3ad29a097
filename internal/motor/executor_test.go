package motor

import (
	"testing"
	"time"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type call struct {
	ch      int
	forward bool
	duty    float64
	brake   bool
}

type fakeDriver struct {
	calls []call
}

func (f *fakeDriver) SetChannel(ch int, forward bool, duty float64) error {
	f.calls = append(f.calls, call{ch: ch, forward: forward, duty: duty})
	return nil
}

func (f *fakeDriver) Brake(ch int) error {
	f.calls = append(f.calls, call{ch: ch, brake: true})
	return nil
}

func (f *fakeDriver) Close() error { return nil }

func (f *fakeDriver) last(ch int) (call, bool) {
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].ch == ch {
			return f.calls[i], true
		}
	}
	return call{}, false
}

func newTestExecutor(cfg Config) (*Executor, *fakeDriver) {
	drv := &fakeDriver{}
	return newWithDriver(cfg, drv), drv
}

func TestApply_DecodesSignAndDuty(t *testing.T) {
	e, drv := newTestExecutor(Config{MaxPWM: 255})

	if err := e.Apply(t0, 255, -128); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	left, ok := drv.last(ChannelLeft)
	if !ok || left.brake {
		t.Fatalf("left channel not driven: %+v", left)
	}
	if !left.forward || left.duty != 100 {
		t.Fatalf("left=%+v want forward 100%%", left)
	}

	right, ok := drv.last(ChannelRight)
	if !ok || right.brake {
		t.Fatalf("right channel not driven: %+v", right)
	}
	wantDuty := 128.0 / 255.0 * 100.0
	if right.forward || right.duty < wantDuty-0.01 || right.duty > wantDuty+0.01 {
		t.Fatalf("right=%+v want reverse ~%.2f%%", right, wantDuty)
	}
}

func TestApply_NormalizesHundredScale(t *testing.T) {
	// The compact controller variant speaks 0-100 on the wire.
	e, drv := newTestExecutor(Config{MaxPWM: 100})
	if err := e.Apply(t0, 50, 100); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	left, _ := drv.last(ChannelLeft)
	if left.duty != 50 {
		t.Fatalf("left duty=%v want 50", left.duty)
	}
	right, _ := drv.last(ChannelRight)
	if right.duty != 100 {
		t.Fatalf("right duty=%v want 100", right.duty)
	}
}

func TestApply_ZeroBrakes(t *testing.T) {
	e, drv := newTestExecutor(Config{})
	if err := e.Apply(t0, 0, 0); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	for _, ch := range []int{ChannelLeft, ChannelRight} {
		c, ok := drv.last(ch)
		if !ok || !c.brake {
			t.Fatalf("channel %d not braked: %+v", ch, c)
		}
	}
}

func TestTick_SafetyStopAfterTimeout(t *testing.T) {
	e, drv := newTestExecutor(Config{CommandTimeout: 2 * time.Second})

	if err := e.Apply(t0, 100, 100); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	drv.calls = nil

	// Within the window: nothing happens.
	if e.Tick(t0.Add(1900 * time.Millisecond)) {
		t.Fatalf("watchdog fired inside the window")
	}
	if len(drv.calls) != 0 {
		t.Fatalf("unexpected driver calls: %+v", drv.calls)
	}

	// Past the window: both channels brake, snapshot zeroed, reported once.
	if !e.Tick(t0.Add(2100 * time.Millisecond)) {
		t.Fatalf("watchdog did not fire")
	}
	snap := e.Snapshot()
	if !snap.SafetyStopped || snap.LeftPWM != 0 || snap.RightPWM != 0 {
		t.Fatalf("snapshot after stop: %+v", snap)
	}
	brakes := 0
	for _, c := range drv.calls {
		if c.brake {
			brakes++
		}
	}
	if brakes != 2 {
		t.Fatalf("brake calls=%d want 2", brakes)
	}

	// Still stale: the stop is reported only on the transition pass.
	if e.Tick(t0.Add(3 * time.Second)) {
		t.Fatalf("watchdog re-fired while already stopped")
	}
}

func TestTick_CommandRefreshesWatchdog(t *testing.T) {
	e, _ := newTestExecutor(Config{CommandTimeout: 2 * time.Second})
	if err := e.Apply(t0, 50, 50); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	for i := 1; i <= 10; i++ {
		now := t0.Add(time.Duration(i) * 1500 * time.Millisecond)
		if err := e.Apply(now, 50, 50); err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if e.Tick(now.Add(100 * time.Millisecond)) {
			t.Fatalf("watchdog fired despite fresh commands")
		}
	}
}

func TestTick_ArmsOnFirstPassWithoutCommands(t *testing.T) {
	e, drv := newTestExecutor(Config{CommandTimeout: 2 * time.Second})

	if e.Tick(t0) {
		t.Fatalf("first pass must only arm the watchdog")
	}
	if !e.Tick(t0.Add(2100 * time.Millisecond)) {
		t.Fatalf("watchdog did not fire after boot silence")
	}
	if len(drv.calls) != 2 {
		t.Fatalf("expected 2 brake calls, got %+v", drv.calls)
	}
}

func TestApply_ResumesAfterSafetyStop(t *testing.T) {
	e, drv := newTestExecutor(Config{CommandTimeout: 2 * time.Second})
	if err := e.Apply(t0, 80, 80); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !e.Tick(t0.Add(3 * time.Second)) {
		t.Fatalf("watchdog did not fire")
	}
	if err := e.Apply(t0.Add(4*time.Second), 60, 60); err != nil {
		t.Fatalf("Apply after stop: %v", err)
	}
	snap := e.Snapshot()
	if snap.SafetyStopped {
		t.Fatalf("executor stuck in safety stop")
	}
	left, _ := drv.last(ChannelLeft)
	if left.brake || left.duty == 0 {
		t.Fatalf("left channel not resumed: %+v", left)
	}
	// A later in-window tick must not fire.
	if e.Tick(t0.Add(5 * time.Second)) {
		t.Fatalf("watchdog fired after resume")
	}
}
