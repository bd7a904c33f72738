/*package particles contains ordered sets of Lagrangian markers which describe
the surfaces of immersed bodies.
*/
package particles

import (
	"errors"
	"fmt"
	"math"
)

var ErrDegenerateBody = errors.New("particles: degenerate immersed boundary")

// Vec is a 2D position or velocity.
type Vec [2]float64

// Set is a closed polygon of markers that moves as a rigid body. The
// reference configuration is remembered so that Reset and oscillatory
// motion can be applied exactly rather than by accumulating updates.
type Set struct {
	Name string
	// Markers are the current positions. Segment k joins marker k to
	// marker k+1, and the last marker joins the first.
	Markers []Vec

	// Vel is the translational velocity and Omega the angular velocity about
	// Center.
	Vel   Vec
	Omega float64
	// Freq and Amp describe an optional oscillation of the reference
	// configuration along Amp, with position ref + Amp*sin(2 pi Freq t).
	Freq float64
	Amp  Vec

	Center Vec

	ref       []Vec
	refCenter Vec
	refVel    Vec
}

// NewPolygon returns a Set whose reference configuration is the given list
// of markers.
func NewPolygon(name string, markers []Vec) *Set {
	s := &Set{Name: name}
	s.Markers = append([]Vec(nil), markers...)
	s.ref = append([]Vec(nil), markers...)
	s.Center = centroid(markers)
	s.refCenter = s.Center
	return s
}

// NewCircle returns a Set of n markers evenly spaced counter-clockwise on
// a circle.
func NewCircle(name string, x, y, radius float64, n int) *Set {
	markers := make([]Vec, n)
	for k := range markers {
		theta := 2 * math.Pi * float64(k) / float64(n)
		markers[k] = Vec{x + radius*math.Cos(theta), y + radius*math.Sin(theta)}
	}
	s := NewPolygon(name, markers)
	s.Center = Vec{x, y}
	s.refCenter = s.Center
	return s
}

// SetVelocity sets the translational velocity and makes it part of the
// reference configuration.
func (s *Set) SetVelocity(vx, vy float64) {
	s.Vel = Vec{vx, vy}
	s.refVel = s.Vel
}

// Len returns the number of markers.
func (s *Set) Len() int { return len(s.Markers) }

// Offset translates every marker by (dx, dy).
func (s *Set) Offset(dx, dy float64) {
	for k := range s.Markers {
		s.Markers[k][0] += dx
		s.Markers[k][1] += dy
	}
	s.Center[0] += dx
	s.Center[1] += dy
}

// Rotate rotates every marker, and the center, counter-clockwise by theta
// about pivot.
func (s *Set) Rotate(theta float64, pivot Vec) {
	sin, cos := math.Sincos(theta)
	for k := range s.Markers {
		s.Markers[k] = rotate(s.Markers[k], pivot, sin, cos)
	}
	s.Center = rotate(s.Center, pivot, sin, cos)
}

func rotate(p, pivot Vec, sin, cos float64) Vec {
	dx, dy := p[0]-pivot[0], p[1]-pivot[1]
	return Vec{pivot[0] + cos*dx - sin*dy, pivot[1] + sin*dx + cos*dy}
}

// Reset restores the reference configuration.
func (s *Set) Reset() {
	copy(s.Markers, s.ref)
	s.Center = s.refCenter
	s.Vel = s.refVel
}

// Moving returns true if the body has any prescribed motion.
func (s *Set) Moving() bool {
	return s.Vel != Vec{} || s.Omega != 0 || (s.Freq != 0 && s.Amp != Vec{})
}

// Advance moves the markers from time t to time t + dt. Oscillating bodies
// are placed relative to their reference configuration. Others translate
// with Vel and rotate with Omega about their center.
func (s *Set) Advance(t, dt float64) {
	if s.Freq != 0 {
		tn := t + dt
		w := 2 * math.Pi * s.Freq
		sin, cos := math.Sincos(w * tn)
		for k := range s.Markers {
			s.Markers[k][0] = s.ref[k][0] + s.Amp[0]*sin
			s.Markers[k][1] = s.ref[k][1] + s.Amp[1]*sin
		}
		s.Center = Vec{s.refCenter[0] + s.Amp[0]*sin, s.refCenter[1] + s.Amp[1]*sin}
		s.Vel = Vec{w * s.Amp[0] * cos, w * s.Amp[1] * cos}
		return
	}

	s.Offset(s.Vel[0]*dt, s.Vel[1]*dt)
	if s.Omega != 0 {
		s.Rotate(s.Omega*dt, s.Center)
	}
}

// Velocity returns the rigid-body velocity at the point (x, y).
func (s *Set) Velocity(x, y float64) (vx, vy float64) {
	return s.Vel[0] - s.Omega*(y-s.Center[1]), s.Vel[1] + s.Omega*(x-s.Center[0])
}

// Clone returns a deep copy of s.
func (s *Set) Clone() *Set {
	out := *s
	out.Markers = append([]Vec(nil), s.Markers...)
	out.ref = append([]Vec(nil), s.ref...)
	return &out
}

// Area returns the signed area of the polygon, positive for
// counter-clockwise marker order.
func (s *Set) Area() float64 {
	return signedArea(s.Markers)
}

// Validate returns an error wrapping ErrDegenerateBody if the markers do not
// form a simple polygon.
func (s *Set) Validate() error {
	m := s.Markers
	n := len(m)
	if n < 3 {
		return fmt.Errorf(
			"%w: body '%s' has %d markers, needs at least 3",
			ErrDegenerateBody, s.Name, n,
		)
	}

	for k := 0; k < n; k++ {
		a, b := m[k], m[(k+1)%n]
		if a == b {
			return fmt.Errorf(
				"%w: body '%s' has a zero-length segment at marker %d",
				ErrDegenerateBody, s.Name, k,
			)
		}
	}

	if math.Abs(signedArea(m)) < 1e-14 {
		return fmt.Errorf("%w: body '%s' has zero area", ErrDegenerateBody, s.Name)
	}

	for k := 0; k < n; k++ {
		a, b := m[k], m[(k+1)%n]
		// Neighbouring segments share an endpoint and never count.
		for l := k + 2; l < n; l++ {
			if k == 0 && l == n-1 {
				continue
			}
			c, d := m[l], m[(l+1)%n]
			if segmentsIntersect(a, b, c, d) {
				return fmt.Errorf(
					"%w: body '%s' self-intersects at segments %d and %d",
					ErrDegenerateBody, s.Name, k, l,
				)
			}
		}
	}
	return nil
}

func centroid(m []Vec) Vec {
	c := Vec{}
	for _, p := range m {
		c[0] += p[0]
		c[1] += p[1]
	}
	if len(m) > 0 {
		c[0] /= float64(len(m))
		c[1] /= float64(len(m))
	}
	return c
}

func signedArea(m []Vec) float64 {
	sum := 0.0
	for k := range m {
		a, b := m[k], m[(k+1)%len(m)]
		sum += a[0]*b[1] - b[0]*a[1]
	}
	return sum / 2
}

func cross(o, a, b Vec) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

func onSegment(a, b, p Vec) bool {
	return math.Min(a[0], b[0]) <= p[0] && p[0] <= math.Max(a[0], b[0]) &&
		math.Min(a[1], b[1]) <= p[1] && p[1] <= math.Max(a[1], b[1])
}

func segmentsIntersect(a, b, c, d Vec) bool {
	d1, d2 := cross(c, d, a), cross(c, d, b)
	d3, d4 := cross(a, b, c), cross(a, b, d)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && onSegment(c, d, a)) || (d2 == 0 && onSegment(c, d, b)) ||
		(d3 == 0 && onSegment(a, b, c)) || (d4 == 0 && onSegment(a, b, d))
}

// SegmentDistance returns the distance from p to the segment ab.
func SegmentDistance(p, a, b Vec) float64 {
	ex, ey := b[0]-a[0], b[1]-a[1]
	px, py := p[0]-a[0], p[1]-a[1]
	l2 := ex*ex + ey*ey
	t := 0.0
	if l2 > 0 {
		t = (px*ex + py*ey) / l2
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
	}
	dx, dy := px-t*ex, py-t*ey
	return math.Sqrt(dx*dx + dy*dy)
}

// Inside returns true if p is inside the polygon, counted by the parity of
// crossings of a ray cast in the +x direction.
func (s *Set) Inside(p Vec) bool {
	m := s.Markers
	n := len(m)
	inside := false
	for k := 0; k < n; k++ {
		a, b := m[k], m[(k+1)%n]
		if (a[1] > p[1]) == (b[1] > p[1]) {
			continue
		}
		xit := a[0] + (p[1]-a[1])*(b[0]-a[0])/(b[1]-a[1])
		if xit >= p[0] {
			inside = !inside
		}
	}
	return inside
}

// SignedDistance returns the distance from p to the polygon, negative inside.
func (s *Set) SignedDistance(p Vec) float64 {
	m := s.Markers
	n := len(m)
	d := math.Inf(+1)
	for k := 0; k < n; k++ {
		if dk := SegmentDistance(p, m[k], m[(k+1)%n]); dk < d {
			d = dk
		}
	}
	if s.Inside(p) {
		return -d
	}
	return d
}
