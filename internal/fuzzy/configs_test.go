package fuzzy

import (
	"math"
	"testing"
)

func mustController(t *testing.T, cfg Config) *Controller {
	t.Helper()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New(%s): %v", cfg.Name, err)
	}
	return c
}

func TestConfigs_RuleCounts(t *testing.T) {
	if n := len(CompactConfig().Rules); n != 9 {
		t.Fatalf("compact rules=%d want 9", n)
	}
	if n := len(WideConfig().Rules); n != 25 {
		t.Fatalf("wide rules=%d want 25", n)
	}
}

func TestConfigs_ZeroErrorsDriveStraight(t *testing.T) {
	for _, cfg := range []Config{CompactConfig(), WideConfig()} {
		c := mustController(t, cfg)
		out, err := c.Infer(0, 0)
		if err != nil {
			t.Fatalf("%s: Infer: %v", cfg.Name, err)
		}
		if math.Abs(out[0]-out[1]) > 1e-9 {
			t.Fatalf("%s: straight-ahead outputs differ: %v vs %v", cfg.Name, out[0], out[1])
		}
	}
	// The compact (signed) configuration must command forward motion.
	c := mustController(t, CompactConfig())
	out, _ := c.Infer(0, 0)
	if out[0] <= 0 {
		t.Fatalf("compact straight-ahead left pwm=%v want > 0", out[0])
	}
}

func TestConfigs_MirrorSymmetry(t *testing.T) {
	// Negating both errors must swap the wheel outputs: steering right with
	// (e,h) is the mirror image of steering left with (-e,-h).
	cases := [][2]float64{
		{0, 30}, {2, 0}, {2, 30}, {4, 80}, {1.5, -20}, {3, 45}, {0.5, 10},
	}
	for _, cfg := range []Config{CompactConfig(), WideConfig()} {
		c := mustController(t, cfg)
		for _, in := range cases {
			a, err := c.Infer(in[0], in[1])
			if err != nil {
				t.Fatalf("%s: Infer: %v", cfg.Name, err)
			}
			b, err := c.Infer(-in[0], -in[1])
			if err != nil {
				t.Fatalf("%s: Infer: %v", cfg.Name, err)
			}
			if math.Abs(a[0]-b[1]) > 1e-9 || math.Abs(a[1]-b[0]) > 1e-9 {
				t.Fatalf("%s: inputs %v: outputs %v not mirrored by %v", cfg.Name, in, a, b)
			}
		}
	}
}

func TestConfigs_RightErrorSlowsRightWheel(t *testing.T) {
	for _, cfg := range []Config{CompactConfig(), WideConfig()} {
		c := mustController(t, cfg)
		out, err := c.Infer(0, 45)
		if err != nil {
			t.Fatalf("%s: Infer: %v", cfg.Name, err)
		}
		if !(out[0] > out[1]) {
			t.Fatalf("%s: right-turn command left=%v right=%v want left > right", cfg.Name, out[0], out[1])
		}
	}
}

func TestConfigs_OutputsStayInDomain(t *testing.T) {
	for _, cfg := range []Config{CompactConfig(), WideConfig()} {
		c := mustController(t, cfg)
		for e := -12.0; e <= 12.0; e += 3.1 {
			for h := -200.0; h <= 200.0; h += 41.7 {
				out, err := c.Infer(e, h)
				if err != nil {
					t.Fatalf("%s: Infer: %v", cfg.Name, err)
				}
				for oi, v := range out {
					min, max := cfg.Outputs[oi].Min, cfg.Outputs[oi].Max
					if v < min || v > max {
						t.Fatalf("%s: output %d = %v out of [%v,%v]", cfg.Name, oi, v, min, max)
					}
				}
			}
		}
	}
}

func TestByName(t *testing.T) {
	if cfg, ok := ByName("wide"); !ok || cfg.Name != "wide" {
		t.Fatalf("ByName(wide) = %v,%v", cfg.Name, ok)
	}
	if cfg, ok := ByName(""); !ok || cfg.Name != "compact" {
		t.Fatalf("ByName(\"\") = %v,%v", cfg.Name, ok)
	}
	if _, ok := ByName("nope"); ok {
		t.Fatalf("ByName(nope) should fail")
	}
}
