package fuzzy

// Shape is a piecewise-linear membership function bounded in [0,1].
//
// Trapezoids are described by four breakpoints a<=b<=c<=d: zero outside
// (a,d), a linear ramp on [a,b], a plateau of 1 on [b,c], and a linear ramp
// down on [c,d]. A triangle is the degenerate case b==c. Shoulder shapes at a
// domain edge use a==b (or c==d) for a vertical edge.
type Shape struct {
	a, b, c, d float64
}

// Triangle returns a triangular membership shape with apex at b.
func Triangle(a, b, c float64) Shape {
	return Shape{a: a, b: b, c: b, d: c}
}

// Trapezoid returns a trapezoidal membership shape with plateau [b,c].
func Trapezoid(a, b, c, d float64) Shape {
	return Shape{a: a, b: b, c: c, d: d}
}

func (s Shape) valid() bool {
	return s.a <= s.b && s.b <= s.c && s.c <= s.d && s.a < s.d
}

// Membership evaluates the shape at x. The result is exact at breakpoints:
// 1 on [b,c], 0 at and outside the outer points (except vertical edges).
func (s Shape) Membership(x float64) float64 {
	switch {
	case x >= s.b && x <= s.c:
		return 1
	case x <= s.a || x >= s.d:
		// Vertical edges (a==b or c==d) were handled by the plateau case.
		return 0
	case x < s.b:
		return (x - s.a) / (s.b - s.a)
	default:
		return (s.d - x) / (s.d - s.c)
	}
}
