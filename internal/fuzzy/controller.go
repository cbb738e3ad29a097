package fuzzy

import "fmt"

// Mamdani inference engine.
//
// The controller is built once from an immutable Config (variables, labelled
// membership shapes, and a flat rule table) and then evaluated with Infer.
// All behavior differences between configurations live in the data; there are
// no per-configuration code paths.

// defuzzSamples is the fixed centroid discretization of an output domain.
// 201 points keeps the sampled centroid within a small fraction of a PWM
// count of the continuous value for the shapes used here.
const defuzzSamples = 201

// Term is one labelled membership function of a variable.
type Term struct {
	Label string
	Shape Shape
}

// Variable is a fuzzy input or output with its domain and ordered terms.
type Variable struct {
	Name string
	Min  float64
	Max  float64

	Terms []Term
}

// Rule maps one antecedent label per input variable to one consequent label
// per output variable. Conjunction is AND (min); all rules have weight 1.
type Rule struct {
	When []string
	Then []string
}

// Config fully describes a controller: it is treated as immutable data after
// New returns.
type Config struct {
	Name    string
	Inputs  []Variable
	Outputs []Variable
	Rules   []Rule
}

type Controller struct {
	cfg Config

	// Label -> term index per variable, resolved at construction.
	inTerms  []map[string]int
	outTerms []map[string]int
}

func New(cfg Config) (*Controller, error) {
	if len(cfg.Inputs) == 0 {
		return nil, fmt.Errorf("fuzzy: no input variables")
	}
	if len(cfg.Outputs) == 0 {
		return nil, fmt.Errorf("fuzzy: no output variables")
	}
	if len(cfg.Rules) == 0 {
		return nil, fmt.Errorf("fuzzy: no rules")
	}

	c := &Controller{cfg: cfg}

	var err error
	c.inTerms, err = indexVariables(cfg.Inputs)
	if err != nil {
		return nil, err
	}
	c.outTerms, err = indexVariables(cfg.Outputs)
	if err != nil {
		return nil, err
	}

	for ri, r := range cfg.Rules {
		if len(r.When) != len(cfg.Inputs) {
			return nil, fmt.Errorf("fuzzy: rule %d has %d antecedents, want %d", ri, len(r.When), len(cfg.Inputs))
		}
		if len(r.Then) != len(cfg.Outputs) {
			return nil, fmt.Errorf("fuzzy: rule %d has %d consequents, want %d", ri, len(r.Then), len(cfg.Outputs))
		}
		for i, label := range r.When {
			if _, ok := c.inTerms[i][label]; !ok {
				return nil, fmt.Errorf("fuzzy: rule %d: unknown label %q for input %q", ri, label, cfg.Inputs[i].Name)
			}
		}
		for i, label := range r.Then {
			if _, ok := c.outTerms[i][label]; !ok {
				return nil, fmt.Errorf("fuzzy: rule %d: unknown label %q for output %q", ri, label, cfg.Outputs[i].Name)
			}
		}
	}

	return c, nil
}

func indexVariables(vars []Variable) ([]map[string]int, error) {
	idx := make([]map[string]int, len(vars))
	for vi, v := range vars {
		if !(v.Min < v.Max) {
			return nil, fmt.Errorf("fuzzy: variable %q has empty domain [%v,%v]", v.Name, v.Min, v.Max)
		}
		if len(v.Terms) == 0 {
			return nil, fmt.Errorf("fuzzy: variable %q has no terms", v.Name)
		}
		m := make(map[string]int, len(v.Terms))
		for ti, t := range v.Terms {
			if t.Label == "" {
				return nil, fmt.Errorf("fuzzy: variable %q term %d has empty label", v.Name, ti)
			}
			if _, dup := m[t.Label]; dup {
				return nil, fmt.Errorf("fuzzy: variable %q has duplicate label %q", v.Name, t.Label)
			}
			if !t.Shape.valid() {
				return nil, fmt.Errorf("fuzzy: variable %q term %q has invalid shape", v.Name, t.Label)
			}
			m[t.Label] = ti
		}
		idx[vi] = m
	}
	return idx, nil
}

// NumInputs returns the arity of Infer.
func (c *Controller) NumInputs() int { return len(c.cfg.Inputs) }

// NumOutputs returns the number of values Infer produces.
func (c *Controller) NumOutputs() int { return len(c.cfg.Outputs) }

// InputDomain returns [min,max] of input variable i.
func (c *Controller) InputDomain(i int) (min, max float64) {
	v := c.cfg.Inputs[i]
	return v.Min, v.Max
}

// Infer runs one Mamdani inference cycle: clamp inputs to their domains,
// fuzzify, fire rules (AND=min), aggregate consequents (OR=max), and
// defuzzify each output by sampled centroid. An output with no firing rule
// defaults to its domain midpoint.
func (c *Controller) Infer(inputs ...float64) ([]float64, error) {
	if len(inputs) != len(c.cfg.Inputs) {
		return nil, fmt.Errorf("fuzzy: got %d inputs, want %d", len(inputs), len(c.cfg.Inputs))
	}

	// Fuzzification.
	mu := make([][]float64, len(c.cfg.Inputs))
	for i, v := range c.cfg.Inputs {
		x := clamp(inputs[i], v.Min, v.Max)
		mu[i] = make([]float64, len(v.Terms))
		for ti, t := range v.Terms {
			mu[i][ti] = t.Shape.Membership(x)
		}
	}

	// Rule firing strengths, max-aggregated per consequent term.
	agg := make([][]float64, len(c.cfg.Outputs))
	for oi, v := range c.cfg.Outputs {
		agg[oi] = make([]float64, len(v.Terms))
	}
	for _, r := range c.cfg.Rules {
		strength := 1.0
		for i, label := range r.When {
			m := mu[i][c.inTerms[i][label]]
			if m < strength {
				strength = m
			}
		}
		if strength <= 0 {
			continue
		}
		for oi, label := range r.Then {
			ti := c.outTerms[oi][label]
			if strength > agg[oi][ti] {
				agg[oi][ti] = strength
			}
		}
	}

	// Centroid defuzzification.
	out := make([]float64, len(c.cfg.Outputs))
	for oi, v := range c.cfg.Outputs {
		out[oi] = centroid(v, agg[oi])
	}
	return out, nil
}

// centroid integrates the clipped-and-merged output fuzzy set over a fixed
// sample grid. A zero aggregate (no rule fired) yields the domain midpoint.
func centroid(v Variable, degrees []float64) float64 {
	step := (v.Max - v.Min) / float64(defuzzSamples-1)
	var num, den float64
	for k := 0; k < defuzzSamples; k++ {
		x := v.Min + float64(k)*step
		m := 0.0
		for ti, t := range v.Terms {
			d := degrees[ti]
			if d <= 0 {
				continue
			}
			u := t.Shape.Membership(x)
			if u > d {
				u = d // Mamdani clipping
			}
			if u > m {
				m = u
			}
		}
		num += x * m
		den += m
	}
	if den == 0 {
		return (v.Min + v.Max) / 2
	}
	return num / den
}

func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
