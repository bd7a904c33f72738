/*package field contains staggered-grid field storage, boundary condition
metadata, and the guard cell fill routines which enforce those conditions.
*/
package field

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/phil-mansfield/flowx/geom"
)

var (
	ErrUnknownBC        = errors.New("field: unknown boundary condition")
	ErrUnpairedPeriodic = errors.New("field: unpaired periodic boundary")
	ErrDuplicate        = errors.New("field: field already registered")
	ErrMissing          = errors.New("field: no such field")
	ErrShape            = errors.New("field: array shape does not match location")
)

// Field is a named array of values at one staggered location together with
// its boundary conditions.
type Field struct {
	Name string
	Vals []float64
	Sub  *geom.SubGrid
	g    *geom.Grid
	bc   BoundarySet
}

// New returns a zeroed Field at the given location. It is not attached to any
// Container.
func New(g *geom.Grid, name string, loc geom.Location, bc BoundarySet) (*Field, error) {
	if err := bc.Check(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	sub := g.Sub(loc)
	f := &Field{
		Name: name, Vals: make([]float64, sub.Length),
		Sub: sub, g: g, bc: bc,
	}
	for s := range f.bc {
		if p := f.bc[s].Profile; p != nil {
			f.bc[s].Profile = append([]float64(nil), p...)
		}
	}
	return f, nil
}

// Loc returns the Field's staggered location.
func (f *Field) Loc() geom.Location { return f.Sub.Loc }

// Grid returns the Grid the Field lives on.
func (f *Field) Grid() *geom.Grid { return f.g }

// BC returns the boundary condition on side s.
func (f *Field) BC(s Side) Boundary { return f.bc[s] }

// BCs returns a copy of all four boundary conditions.
func (f *Field) BCs() BoundarySet { return f.bc }

// SetValue changes the uniform boundary value of side s and clears any
// profile.
func (f *Field) SetValue(s Side, val float64) {
	f.bc[s].Value = val
	f.bc[s].Profile = nil
}

// SetProfile sets a pointwise boundary value along side s. The profile is
// copied.
func (f *Field) SetProfile(s Side, prof []float64) error {
	n := f.Sub.NY
	if s.Axis() == 1 {
		n = f.Sub.NX
	}
	if len(prof) != n {
		return fmt.Errorf(
			"%w: profile on %s of '%s' has length %d, expected %d",
			ErrShape, s, f.Name, len(prof), n,
		)
	}
	if f.bc[s].Profile == nil || len(f.bc[s].Profile) != n {
		f.bc[s].Profile = make([]float64, n)
	}
	copy(f.bc[s].Profile, prof)
	return nil
}

// At returns the value at (i, j).
func (f *Field) At(i, j int) float64 { return f.Vals[i+j*f.Sub.NX] }

// Set sets the value at (i, j).
func (f *Field) Set(i, j int, x float64) { f.Vals[i+j*f.Sub.NX] = x }

// Fill sets every value, guards included, to x.
func (f *Field) Fill(x float64) {
	for i := range f.Vals {
		f.Vals[i] = x
	}
}

// FillFunc sets every value, guards included, to fn(x, y).
func (f *Field) FillFunc(fn func(x, y float64) float64) {
	for j := 0; j < f.Sub.NY; j++ {
		for i := 0; i < f.Sub.NX; i++ {
			f.Vals[i+j*f.Sub.NX] = fn(f.Sub.X[i], f.Sub.Y[j])
		}
	}
}

// CopyFrom copies the values and boundary values of src into f. Both Fields
// must share a location.
func (f *Field) CopyFrom(src *Field) {
	if src.Sub != f.Sub {
		panic(fmt.Sprintf(
			"Cannot copy '%s' at %s into '%s' at %s.",
			src.Name, src.Loc(), f.Name, f.Loc(),
		))
	}
	copy(f.Vals, src.Vals)
	for s := range f.bc {
		f.bc[s].Value = src.bc[s].Value
		if src.bc[s].Profile == nil {
			f.bc[s].Profile = nil
		} else {
			f.bc[s].Profile = append(f.bc[s].Profile[:0], src.bc[s].Profile...)
		}
	}
}

// Clone returns a deep copy of f which belongs to no Container.
func (f *Field) Clone() *Field {
	out := &Field{Name: f.Name, Sub: f.Sub, g: f.g, bc: f.bc}
	out.Vals = append([]float64(nil), f.Vals...)
	for s := range out.bc {
		if p := out.bc[s].Profile; p != nil {
			out.bc[s].Profile = append([]float64(nil), p...)
		}
	}
	return out
}

// Unknowns returns the inclusive index ranges of the points which a time
// integrator should update. These are the interior points, minus boundary
// faces whose value is fixed by the boundary condition. Periodic face grids
// keep their low boundary face as an unknown.
func (f *Field) Unknowns() (iLo, iHi, jLo, jHi int) {
	iLo, iHi, jLo, jHi = f.Sub.Interior()
	switch f.Loc() {
	case geom.FaceX:
		iHi--
		if f.bc[XLow].Type != Periodic {
			iLo++
		}
	case geom.FaceY:
		jHi--
		if f.bc[YLow].Type != Periodic {
			jLo++
		}
	}
	return iLo, iHi, jLo, jHi
}

// MaxAbs returns the largest absolute value over the interior points.
func (f *Field) MaxAbs() float64 {
	iLo, iHi, jLo, jHi := f.Sub.Interior()
	max := 0.0
	for j := jLo; j <= jHi; j++ {
		for i := iLo; i <= iHi; i++ {
			if x := math.Abs(f.At(i, j)); x > max || x != x {
				max = x
			}
		}
	}
	return max
}

// Container maps names to the Fields owned by a single simulation.
type Container struct {
	g      *geom.Grid
	fields map[string]*Field
}

// NewContainer returns an empty Container on the given Grid.
func NewContainer(g *geom.Grid) *Container {
	return &Container{g: g, fields: map[string]*Field{}}
}

// Grid returns the Container's Grid.
func (c *Container) Grid() *geom.Grid { return c.g }

// Register creates a new zeroed Field. The boundary condition types are fixed
// from this point on.
func (c *Container) Register(name string, loc geom.Location, bc BoundarySet) (*Field, error) {
	if _, ok := c.fields[name]; ok {
		return nil, fmt.Errorf("%w: '%s'", ErrDuplicate, name)
	}
	f, err := New(c.g, name, loc, bc)
	if err != nil {
		return nil, err
	}
	c.fields[name] = f
	return f, nil
}

// Get returns the Field with the given name.
func (c *Container) Get(name string) (*Field, error) {
	f, ok := c.fields[name]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrMissing, name)
	}
	return f, nil
}

// MustGet is Get, except that it panics on a missing field.
func (c *Container) MustGet(name string) *Field {
	f, err := c.Get(name)
	if err != nil {
		panic(err.Error())
	}
	return f
}

// Has returns true if a Field with the given name exists.
func (c *Container) Has(name string) bool {
	_, ok := c.fields[name]
	return ok
}

// Names returns the sorted names of all Fields.
func (c *Container) Names() []string {
	names := make([]string, 0, len(c.fields))
	for name := range c.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the Container.
func (c *Container) Clone() *Container {
	out := NewContainer(c.g)
	for name, f := range c.fields {
		out.fields[name] = f.Clone()
	}
	return out
}

// Restore copies every Field of src into the Field of the same name in c.
// Both Containers must hold the same names.
func (c *Container) Restore(src *Container) error {
	for name, f := range c.fields {
		sf, ok := src.fields[name]
		if !ok {
			return fmt.Errorf("%w: '%s'", ErrMissing, name)
		}
		f.CopyFrom(sf)
	}
	return nil
}
