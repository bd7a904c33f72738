/*package imbound couples immersed bodies to the flow through a level set
function defined on the cell centers.

Three variants are provided. Stub does nothing. Rigid bodies are described by
marker polygons which move with a prescribed motion and impose their velocity
on every face inside them. Visco bodies are deformable: they carry a level set
and a reference map which are advected with the flow, and they push back on
the flow with an elastic stress.
*/
package imbound

import (
	"errors"
	"fmt"
	"strings"

	"github.com/phil-mansfield/flowx/field"
	"github.com/phil-mansfield/flowx/particles"
)

// Names of the Fields used by the immersed boundary.
const (
	Phi    = "phi"
	Owner  = "ibid"
	ForceX = "ibfx"
	ForceY = "ibfy"

	LMX   = "lmx"
	LMY   = "lmy"
	Psi   = "psi"
	Visc  = "visc"
	NormX = "adfx"
	NormY = "adfy"
	DDSN  = "ddsn"
)

// TauNames are the names of the four solid stress components.
var TauNames = [4]string{"tau1", "tau2", "tau3", "tau4"}

var (
	ErrUnknown = errors.New("imbound: unknown immersed boundary type")
	ErrNoBody  = errors.New("imbound: no bodies given")
)

// ImBound is the capability the simulation needs from an immersed boundary.
type ImBound interface {
	// MapToGrid writes the bodies onto the grid Fields.
	MapToGrid() error
	// ForceFlow modifies the provisional velocity so that it respects the
	// bodies over a step of dt.
	ForceFlow(u, v *field.Field, dt float64) error
	// Advect moves the bodies forward by dt.
	Advect(dt float64) error
}

// Saver is implemented by immersed boundaries which keep state outside of the
// Container.
type Saver interface {
	Save() State
	Restore(State)
}

// State is the non-Field state of a Rigid boundary.
type State struct {
	Time   float64
	Bodies []*particles.Set
}

func cloneBodies(bodies []*particles.Set) []*particles.Set {
	out := make([]*particles.Set, len(bodies))
	for i := range bodies {
		out[i] = bodies[i].Clone()
	}
	return out
}

// Options configure the Visco boundary. Rigid boundaries ignore them.
type Options struct {
	ReSolid, MuSolid float64
	ExtrapIter       int
	Redistance       RedistanceOptions
	// Penalty is the strength of a term pulling the solid velocity towards
	// the body velocity. Zero turns it off.
	Penalty float64
}

// DefaultOptions returns the Options of the visco lid-driven cavity.
func DefaultOptions() Options {
	return Options{
		ReSolid: 10, MuSolid: 1, ExtrapIter: 10,
		Redistance: DefaultRedistanceOptions(),
	}
}

// Types lists the recognized immersed boundary types.
var Types = []string{"none", "rigid", "visco"}

// New returns the named ImBound for the given bodies. The Container must
// already hold velx and vely.
func New(
	kind string, c *field.Container, bodies []*particles.Set, opt Options,
) (ImBound, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "none", "stub":
		return Stub{}, nil
	case "rigid":
		return NewRigid(c, bodies)
	case "visco":
		return NewVisco(c, bodies, opt)
	}
	return nil, fmt.Errorf("%w: '%s'", ErrUnknown, kind)
}

// Stub is an ImBound without any bodies.
type Stub struct{}

func (Stub) MapToGrid() error { return nil }

func (Stub) ForceFlow(u, v *field.Field, dt float64) error { return nil }

func (Stub) Advect(dt float64) error { return nil }

// scalarBCs returns the boundary conditions of a cell-centered immersed
// boundary Field: periodic where the flow is periodic and t elsewhere.
func scalarBCs(c *field.Container, t field.BCType) field.BoundarySet {
	u := c.MustGet("velx")
	bc := field.BoundarySet{}
	for s := range bc {
		bc[s].Type = t
		if u.BC(field.Side(s)).Type == field.Periodic {
			bc[s].Type = field.Periodic
		}
	}
	return bc
}

// mapBodies writes the signed distance to the union of bodies into phi and
// the index of the closest body, or -1 outside every body, into owner. The
// guards are then filled from the boundary conditions of each Field.
func mapBodies(bodies []*particles.Set, phi, owner *field.Field) error {
	for _, b := range bodies {
		if err := b.Validate(); err != nil {
			return err
		}
	}

	sub := phi.Sub
	field.Parallel(0, sub.NY-1, func(j0, j1 int) {
		for j := j0; j <= j1; j++ {
			for i := 0; i < sub.NX; i++ {
				x, y := sub.Position(i, j)
				p := particles.Vec{x, y}
				best, id := 0.0, -1
				for k, b := range bodies {
					d := b.SignedDistance(p)
					if id == -1 || d < best {
						best, id = d, k
					}
				}
				if best > 0 {
					id = -1
				}
				k := sub.Idx(i, j)
				phi.Vals[k] = best
				owner.Vals[k] = float64(id)
			}
		}
	})
	phi.FillGuardCells()
	owner.FillGuardCells()
	return nil
}
