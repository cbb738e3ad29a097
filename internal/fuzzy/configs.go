package fuzzy

// Two field-proven steering configurations. Both take (cross-track error m,
// heading error deg) and produce (left, right) wheel PWM. The tables are
// mirror-symmetric: negating both inputs swaps the left/right outputs.
//
// Sign convention: a positive error means the path lies clockwise of the
// current motion, i.e. the rover must steer right (left wheel faster).

// Input/output variable names shared by both configurations.
const (
	VarCrossTrack = "cross_track"
	VarHeading    = "heading"
	VarLeftPWM    = "left_pwm"
	VarRightPWM   = "right_pwm"
)

// CompactConfig is the tight-course configuration: three labels per input,
// +/-5 m cross-track, +/-90 deg heading, signed wheel output on [-100,100]
// (hard turns reverse the inner wheel), nine rules.
func CompactConfig() Config {
	in3 := func(name string, span float64) Variable {
		return Variable{
			Name: name,
			Min:  -span,
			Max:  span,
			Terms: []Term{
				{Label: "neg", Shape: Trapezoid(-span, -span, -span/2, 0)},
				{Label: "zero", Shape: Triangle(-span/2, 0, span/2)},
				{Label: "pos", Shape: Trapezoid(0, span/2, span, span)},
			},
		}
	}
	out3 := func(name string) Variable {
		return Variable{
			Name: name,
			Min:  -100,
			Max:  100,
			Terms: []Term{
				{Label: "rev", Shape: Trapezoid(-100, -100, -50, 0)},
				{Label: "stop", Shape: Triangle(-50, 0, 50)},
				{Label: "fwd", Shape: Trapezoid(0, 50, 100, 100)},
			},
		}
	}

	return Config{
		Name:    "compact",
		Inputs:  []Variable{in3(VarCrossTrack, 5), in3(VarHeading, 90)},
		Outputs: []Variable{out3(VarLeftPWM), out3(VarRightPWM)},
		Rules: []Rule{
			{When: []string{"zero", "zero"}, Then: []string{"fwd", "fwd"}},
			{When: []string{"zero", "pos"}, Then: []string{"fwd", "stop"}},
			{When: []string{"zero", "neg"}, Then: []string{"stop", "fwd"}},
			{When: []string{"pos", "zero"}, Then: []string{"fwd", "stop"}},
			{When: []string{"neg", "zero"}, Then: []string{"stop", "fwd"}},
			{When: []string{"pos", "pos"}, Then: []string{"fwd", "rev"}},
			{When: []string{"neg", "neg"}, Then: []string{"rev", "fwd"}},
			{When: []string{"pos", "neg"}, Then: []string{"fwd", "fwd"}},
			{When: []string{"neg", "pos"}, Then: []string{"fwd", "fwd"}},
		},
	}
}

// WideConfig is the open-field configuration: five labels per input,
// +/-10 m cross-track, +/-180 deg heading, forward-only wheel magnitudes on
// [0,255] (hard turns pivot on a near-stopped inner wheel), 25 rules.
func WideConfig() Config {
	in5 := func(name string, span, mid float64) Variable {
		return Variable{
			Name: name,
			Min:  -span,
			Max:  span,
			Terms: []Term{
				{Label: "nl", Shape: Trapezoid(-span, -span, -mid*2, -mid)},
				{Label: "ns", Shape: Triangle(-mid*2, -mid, 0)},
				{Label: "ze", Shape: Triangle(-mid, 0, mid)},
				{Label: "ps", Shape: Triangle(0, mid, mid*2)},
				{Label: "pl", Shape: Trapezoid(mid, mid*2, span, span)},
			},
		}
	}
	out5 := func(name string) Variable {
		return Variable{
			Name: name,
			Min:  0,
			Max:  255,
			Terms: []Term{
				{Label: "vslow", Shape: Trapezoid(0, 0, 25, 65)},
				{Label: "slow", Shape: Triangle(25, 65, 127.5)},
				{Label: "med", Shape: Triangle(65, 127.5, 190)},
				{Label: "fast", Shape: Triangle(127.5, 190, 230)},
				{Label: "vfast", Shape: Trapezoid(190, 230, 255, 255)},
			},
		}
	}

	// 5x5 grid, rows = cross-track (nl..pl), cols = heading (nl..pl).
	// Entry = (left, right) output labels; the combined steer index saturates.
	xt := []string{"nl", "ns", "ze", "ps", "pl"}
	he := []string{"nl", "ns", "ze", "ps", "pl"}
	grid := [5][5][2]string{
		{{"vslow", "vfast"}, {"vslow", "vfast"}, {"vslow", "vfast"}, {"slow", "fast"}, {"med", "med"}},
		{{"vslow", "vfast"}, {"vslow", "vfast"}, {"slow", "fast"}, {"med", "med"}, {"fast", "slow"}},
		{{"vslow", "vfast"}, {"slow", "fast"}, {"med", "med"}, {"fast", "slow"}, {"vfast", "vslow"}},
		{{"slow", "fast"}, {"med", "med"}, {"fast", "slow"}, {"vfast", "vslow"}, {"vfast", "vslow"}},
		{{"med", "med"}, {"fast", "slow"}, {"vfast", "vslow"}, {"vfast", "vslow"}, {"vfast", "vslow"}},
	}

	rules := make([]Rule, 0, 25)
	for i, x := range xt {
		for j, h := range he {
			e := grid[i][j]
			rules = append(rules, Rule{When: []string{x, h}, Then: []string{e[0], e[1]}})
		}
	}

	return Config{
		Name:    "wide",
		Inputs:  []Variable{in5(VarCrossTrack, 10, 3), in5(VarHeading, 180, 30)},
		Outputs: []Variable{out5(VarLeftPWM), out5(VarRightPWM)},
		Rules:   rules,
	}
}

// ByName resolves a configuration name from config files.
func ByName(name string) (Config, bool) {
	switch name {
	case "compact", "":
		return CompactConfig(), true
	case "wide":
		return WideConfig(), true
	default:
		return Config{}, false
	}
}
