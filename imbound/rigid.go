package imbound

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/flowx/field"
	"github.com/phil-mansfield/flowx/geom"
	"github.com/phil-mansfield/flowx/math/interpolate"
	"github.com/phil-mansfield/flowx/particles"
)

// Rigid is an ImBound made of bodies with prescribed motion. Faces inside a
// body are set to the body's velocity.
type Rigid struct {
	Bodies []*particles.Set
	t      float64

	phi, owner *field.Field
	fx, fy     *field.Field
}

// NewRigid registers the level set, owner and forcing Fields of a Rigid
// boundary and maps the bodies onto them.
func NewRigid(c *field.Container, bodies []*particles.Set) (*Rigid, error) {
	if len(bodies) == 0 {
		return nil, fmt.Errorf("%w: rigid boundaries need at least one", ErrNoBody)
	}
	r := &Rigid{Bodies: bodies}

	var err error
	if r.phi, err = c.Register(Phi, geom.Center, scalarBCs(c, field.Extrapolate)); err != nil {
		return nil, err
	}
	if r.owner, err = c.Register(Owner, geom.Center, scalarBCs(c, field.None)); err != nil {
		return nil, err
	}
	if r.fx, err = c.Register(ForceX, geom.FaceX, field.BoundarySet{}); err != nil {
		return nil, err
	}
	if r.fy, err = c.Register(ForceY, geom.FaceY, field.BoundarySet{}); err != nil {
		return nil, err
	}
	return r, r.MapToGrid()
}

// MapToGrid computes the signed distance to the bodies with the classical
// search.
func (r *Rigid) MapToGrid() error {
	return mapBodies(r.Bodies, r.phi, r.owner)
}

// ForceFlow sets every face whose averaged level set is non-positive to the
// rigid velocity of the body there, and records the direct forcing density.
func (r *Rigid) ForceFlow(u, v *field.Field, dt float64) error {
	r.forceComponent(u, r.fx, 0, dt)
	r.forceComponent(v, r.fy, 1, dt)
	return nil
}

func (r *Rigid) forceComponent(f, force *field.Field, axis int, dt float64) {
	pnx := r.phi.Sub.NX
	nx := f.Sub.NX
	// Offset of the cell on the low side of a face.
	lo := 1
	if axis == 1 {
		lo = pnx
	}

	force.Fill(0)
	iLo, iHi, jLo, jHi := f.Unknowns()
	field.Parallel(jLo, jHi, func(j0, j1 int) {
		for j := j0; j <= j1; j++ {
			for i := iLo; i <= iHi; i++ {
				// Cell (i, j) is on the high side of face (i, j) for both
				// locations.
				c := i + j*pnx
				p0, p1 := r.phi.Vals[c-lo], r.phi.Vals[c]
				if (p0+p1)/2 > 0 {
					continue
				}

				id := r.owner.Vals[c]
				if p0 < p1 {
					id = r.owner.Vals[c-lo]
				}
				if id < 0 {
					continue
				}

				k := i + j*nx
				x, y := f.Sub.X[i], f.Sub.Y[j]
				vx, vy := r.Bodies[int(id)].Velocity(x, y)
				ub := vx
				if axis == 1 {
					ub = vy
				}
				force.Vals[k] = (ub - f.Vals[k]) / dt
				f.Vals[k] = ub
			}
		}
	})
}

// Advect moves the bodies and remaps them if any of them moved.
func (r *Rigid) Advect(dt float64) error {
	moved := false
	for _, b := range r.Bodies {
		if b.Moving() {
			b.Advance(r.t, dt)
			moved = true
		}
	}
	r.t += dt
	if moved {
		return r.MapToGrid()
	}
	return nil
}

// Save returns a deep copy of the body state.
func (r *Rigid) Save() State {
	return State{Time: r.t, Bodies: cloneBodies(r.Bodies)}
}

// Restore restores state returned by Save.
func (r *Rigid) Restore(s State) {
	r.t = s.Time
	for i := range r.Bodies {
		*r.Bodies[i] = *s.Bodies[i].Clone()
	}
}

// MarkerSlip returns the largest difference between the fluid velocity,
// bilinearly interpolated to the markers, and the body velocity there.
// Markers outside the domain are skipped.
func (r *Rigid) MarkerSlip(u, v *field.Field) float64 {
	ui := interpolate.NewBiLinear(u.Sub.X, u.Sub.Y, u.Vals)
	vi := interpolate.NewBiLinear(v.Sub.X, v.Sub.Y, v.Vals)
	g := u.Grid()

	slip := 0.0
	for _, b := range r.Bodies {
		for _, m := range b.Markers {
			x, y := m[0], m[1]
			if !g.Contains(x, y) {
				continue
			}
			bx, by := b.Velocity(x, y)
			dx, dy := ui.Eval(x, y)-bx, vi.Eval(x, y)-by
			slip = math.Max(slip, math.Sqrt(dx*dx+dy*dy))
		}
	}
	return slip
}
