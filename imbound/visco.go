package imbound

import (
	"fmt"

	"github.com/phil-mansfield/flowx/field"
	"github.com/phil-mansfield/flowx/geom"
	"github.com/phil-mansfield/flowx/particles"
)

// Visco is an ImBound for deformable viscoelastic bodies. The bodies are only
// used to build the initial level set. After that the solid is described by
// phi and the reference map (lmx, lmy), which move with the flow.
type Visco struct {
	Bodies []*particles.Set
	opt    Options

	u, v *field.Field

	phi, owner  *field.Field
	lmx, lmy    *field.Field
	psi, visc   *field.Field
	nx, ny      *field.Field
	ddsn        *field.Field
	tau         [4]*field.Field
	fx, fy      *field.Field
	redistanced RedistanceStatus
	old         []float64
}

// NewVisco registers the Fields of a Visco boundary and initializes them from
// the bodies.
func NewVisco(c *field.Container, bodies []*particles.Set, opt Options) (*Visco, error) {
	if len(bodies) == 0 {
		return nil, fmt.Errorf("%w: visco boundaries need at least one", ErrNoBody)
	} else if opt.ReSolid <= 0 {
		return nil, fmt.Errorf("imbound: ReSolid = %g must be positive", opt.ReSolid)
	}

	vis := &Visco{Bodies: bodies, opt: opt}
	var err error
	if vis.u, err = c.Get("velx"); err != nil {
		return nil, err
	}
	if vis.v, err = c.Get("vely"); err != nil {
		return nil, err
	}

	extrap := scalarBCs(c, field.Extrapolate)
	flat := scalarBCs(c, field.Neumann)
	center := []struct {
		f    **field.Field
		name string
		bc   field.BoundarySet
	}{
		{&vis.phi, Phi, extrap},
		{&vis.owner, Owner, scalarBCs(c, field.None)},
		{&vis.lmx, LMX, extrap},
		{&vis.lmy, LMY, extrap},
		{&vis.psi, Psi, field.BoundarySet{}},
		{&vis.visc, Visc, field.BoundarySet{}},
		{&vis.nx, NormX, flat},
		{&vis.ny, NormY, flat},
		{&vis.ddsn, DDSN, flat},
		{&vis.tau[0], TauNames[0], flat},
		{&vis.tau[1], TauNames[1], flat},
		{&vis.tau[2], TauNames[2], flat},
		{&vis.tau[3], TauNames[3], flat},
	}
	for _, r := range center {
		if *r.f, err = c.Register(r.name, geom.Center, r.bc); err != nil {
			return nil, err
		}
	}
	if vis.fx, err = c.Register(ForceX, geom.FaceX, field.BoundarySet{}); err != nil {
		return nil, err
	}
	if vis.fy, err = c.Register(ForceY, geom.FaceY, field.BoundarySet{}); err != nil {
		return nil, err
	}

	if err := vis.Init(); err != nil {
		return nil, err
	}
	return vis, vis.MapToGrid()
}

// Init builds phi from the bodies and sets the reference map to the cell
// center coordinates.
func (vis *Visco) Init() error {
	if err := mapBodies(vis.Bodies, vis.phi, vis.owner); err != nil {
		return err
	}
	vis.lmx.FillFunc(func(x, y float64) float64 { return x })
	vis.lmy.FillFunc(func(x, y float64) float64 { return y })
	return nil
}

// MapToGrid writes the solid indicator and viscosity implied by phi.
func (vis *Visco) MapToGrid() error {
	SolidProps(vis.phi, vis.psi, vis.visc, vis.opt.MuSolid)
	return nil
}

// ForceFlow adds the elastic force of the solid, and the optional penalty
// force, to the provisional velocity.
func (vis *Visco) ForceFlow(u, v *field.Field, dt float64) error {
	SolidProps(vis.phi, vis.psi, vis.visc, vis.opt.MuSolid)
	SolidStress(vis.lmx, vis.lmy, vis.tau)
	Normals(vis.phi, vis.nx, vis.ny)
	for _, t := range vis.tau {
		ConstantExtrapolation(vis.phi, t, vis.nx, vis.ny, vis.opt.ExtrapIter)
	}

	vis.fx.Fill(0)
	vis.fy.Fill(0)
	SolidUstar(u, v, vis.visc, vis.tau, vis.opt.ReSolid, dt, vis.fx, vis.fy)
	if vis.opt.Penalty > 0 {
		vis.penalize(u, vis.fx, 0, dt)
		vis.penalize(v, vis.fy, 1, dt)
	}
	return nil
}

// penalize adds kappa psi (U_b - u) to the unknown faces of one velocity
// component, with U_b the velocity of the body that owns the solid.
func (vis *Visco) penalize(f, force *field.Field, axis int, dt float64) {
	pnx := vis.psi.Sub.NX
	lo := 1
	if axis == 1 {
		lo = pnx
	}
	kappa := vis.opt.Penalty

	iLo, iHi, jLo, jHi := f.Unknowns()
	for j := jLo; j <= jHi; j++ {
		for i := iLo; i <= iHi; i++ {
			c := i + j*pnx
			psi := (vis.psi.Vals[c-lo] + vis.psi.Vals[c]) / 2
			id := vis.owner.Vals[c]
			if vis.phi.Vals[c-lo] < vis.phi.Vals[c] {
				id = vis.owner.Vals[c-lo]
			}
			if id < 0 {
				// The solid has moved away from its initial owner map.
				id = 0
			}

			bx, by := vis.Bodies[int(id)].Velocity(f.Sub.X[i], f.Sub.Y[j])
			ub := bx
			if axis == 1 {
				ub = by
			}
			k := i + j*f.Sub.NX
			df := kappa * psi * (ub - f.Vals[k])
			force.Vals[k] += df
			f.Vals[k] += dt * df
		}
	}
}

// Advect moves the reference map inside the solid and the level set with the
// flow, extends the reference map into the fluid, and redistances the level
// set.
func (vis *Visco) Advect(dt float64) error {
	vis.u.FillGuardCells()
	vis.v.FillGuardCells()

	vis.advectSolid(vis.lmx, dt)
	vis.advectSolid(vis.lmy, dt)
	Normals(vis.phi, vis.nx, vis.ny)
	for _, lm := range []*field.Field{vis.lmx, vis.lmy} {
		DirectionalDerivative(lm, vis.nx, vis.ny, vis.ddsn)
		ConstantExtrapolation(vis.phi, vis.ddsn, vis.nx, vis.ny, vis.opt.ExtrapIter)
		LinearExtrapolation(vis.phi, lm, vis.ddsn, vis.nx, vis.ny, vis.opt.ExtrapIter)
	}

	AdvectWENO(vis.phi, vis.u, vis.v, dt)
	vis.redistanced = Redistance(vis.phi, vis.opt.Redistance)
	return nil
}

// advectSolid advects s with the flow inside the solid, where phi <= 0, and
// leaves the fluid values to the extrapolation.
func (vis *Visco) advectSolid(s *field.Field, dt float64) {
	vis.old = append(vis.old[:0], s.Vals...)
	AdvectWENO(s, vis.u, vis.v, dt)
	for k, p := range vis.phi.Vals {
		if p > 0 {
			s.Vals[k] = vis.old[k]
		}
	}
}

// LastRedistance returns the status of the most recent redistancing.
func (vis *Visco) LastRedistance() RedistanceStatus { return vis.redistanced }
