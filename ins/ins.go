/*package ins advances the incompressible Navier-Stokes equations on a
staggered grid with a projection method.

Each step computes a provisional velocity from an explicit tendency, lets an
immersed boundary force it, balances the boundary fluxes, and projects it onto
a divergence-free field by solving a Poisson equation for a pressure
correction.
*/
package ins

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phil-mansfield/flowx/field"
	"github.com/phil-mansfield/flowx/geom"
	"github.com/phil-mansfield/flowx/poisson"
)

// Names of the Fields an Integrator reads and writes.
const (
	VelX     = "velx"
	VelY     = "vely"
	Pres     = "pres"
	DelP     = "delp"
	Div      = "divv"
	Tendx    = "hvarx"
	Tendy    = "hvary"
	OldTendx = "holdx"
	OldTendy = "holdy"
)

var (
	ErrConfig   = errors.New("ins: invalid configuration")
	ErrTimeStep = errors.New("ins: time step must be positive")
	ErrUnstable = errors.New("ins: numerical instability")
	ErrCFL      = errors.New("ins: CFL limit exceeded")
)

// Scheme is a time integration scheme.
type Scheme int

const (
	Euler Scheme = iota
	AB2
	RK3
	EndScheme
)

var schemeNames = [EndScheme]string{"Euler", "AB2", "RK3"}

func (s Scheme) String() string { return schemeNames[s] }

// ParseScheme converts a case-insensitive scheme name into a Scheme.
func ParseScheme(name string) (Scheme, error) {
	for s := Euler; s < EndScheme; s++ {
		if strings.EqualFold(name, schemeNames[s]) {
			return s, nil
		}
	}
	return Euler, fmt.Errorf("%w: unknown scheme '%s'", ErrConfig, name)
}

// weights is one row of a scheme's weight table. A stage sets
// u = a*u0 + b*(u + dt*(h*H + hOld*Hold)).
type weights struct {
	a, b, h, hOld float64
}

var (
	eulerWeights = []weights{{0, 1, 1, 0}}
	ab2Weights   = []weights{{0, 1, 1.5, -0.5}}
	// Shu-Osher SSP-RK3.
	rk3Weights = []weights{{0, 1, 1, 0}, {0.75, 0.25, 1, 0}, {1.0 / 3, 2.0 / 3, 1, 0}}
)

// Forcing adds an immersed boundary force to a provisional velocity.
type Forcing interface {
	ForceFlow(u, v *field.Field, dt float64) error
}

// Options configure an Integrator.
type Options struct {
	Re     float64
	Scheme Scheme
	// PressureCorrection selects the incremental form, where the predictor
	// includes the old pressure gradient and the projection solves for a
	// pressure increment. RK3 always solves for the full pressure.
	PressureCorrection bool

	Solver  string
	Poisson poisson.Options

	// Sanity bounds. Zero disables a check.
	MaxCFL, MaxVelocity, MaxDivergence float64
}

// DefaultOptions returns the Options of a Re = 100 Euler run.
func DefaultOptions() Options {
	return Options{
		Re: 100, Scheme: Euler, PressureCorrection: true,
		Solver: "cg", Poisson: poisson.DefaultOptions(),
		MaxCFL: 1, MaxVelocity: 1e3,
	}
}

// Integrator advances the velocity and pressure Fields of a Container.
type Integrator struct {
	g   *geom.Grid
	opt Options

	u, v, p          *field.Field
	delp, div        *field.Field
	hx, hy, hox, hoy *field.Field
	u0, v0           *field.Field

	solver   poisson.Solver
	forcing  Forcing
	rescale  bool
	havePrev bool

	stats Stats
}

// State is the part of an Integrator which is not stored in Fields.
type State struct {
	HavePrev bool
}

// New returns an Integrator for the velx, vely and pres Fields of c, and
// registers the work Fields it needs. forcing may be nil.
func New(c *field.Container, forcing Forcing, opt Options) (*Integrator, error) {
	if opt.Re <= 0 {
		return nil, fmt.Errorf("%w: Re = %g must be positive", ErrConfig, opt.Re)
	} else if opt.Scheme < Euler || opt.Scheme >= EndScheme {
		return nil, fmt.Errorf("%w: unknown scheme %d", ErrConfig, int(opt.Scheme))
	}

	it := &Integrator{g: c.Grid(), opt: opt, forcing: forcing}
	var err error
	if it.u, err = want(c, VelX, geom.FaceX); err != nil {
		return nil, err
	}
	if it.v, err = want(c, VelY, geom.FaceY); err != nil {
		return nil, err
	}
	if it.p, err = want(c, Pres, geom.Center); err != nil {
		return nil, err
	}
	if err := checkBoundaries(it.u, it.v, it.p); err != nil {
		return nil, err
	}

	// The correction uses the pressure types with homogeneous values, unless
	// it is the full pressure.
	pbc := it.p.BCs()
	if it.incremental() {
		for s := range pbc {
			pbc[s].Value, pbc[s].Profile = 0, nil
		}
	}

	reg := []struct {
		f    **field.Field
		loc  geom.Location
		bc   field.BoundarySet
		name string
	}{
		{&it.delp, geom.Center, pbc, DelP},
		{&it.div, geom.Center, field.BoundarySet{}, Div},
		{&it.hx, geom.FaceX, field.BoundarySet{}, Tendx},
		{&it.hy, geom.FaceY, field.BoundarySet{}, Tendy},
		{&it.hox, geom.FaceX, field.BoundarySet{}, OldTendx},
		{&it.hoy, geom.FaceY, field.BoundarySet{}, OldTendy},
	}
	for _, r := range reg {
		if *r.f, err = c.Register(r.name, r.loc, r.bc); err != nil {
			return nil, err
		}
	}
	it.u0, it.v0 = it.u.Clone(), it.v.Clone()

	it.solver, err = poisson.New(opt.Solver, it.g, it.delp.BCs(), opt.Poisson)
	if err != nil {
		return nil, err
	}

	// Outflow boundaries start from the initial condition.
	for s := field.XLow; s < field.NumSides; s++ {
		if sideType(it.u, it.v, s) == field.Outflow {
			syncProfile(normalField(it.u, it.v, s), s)
		}
	}
	it.rescale = HasOutflow(it.u, it.v) && !pbc.Has(field.Dirichlet)

	it.u.FillGuardCells()
	it.v.FillGuardCells()
	it.p.FillGuardCells()
	it.stats = ComputeStats(it.u, it.v, it.p, 0)
	return it, nil
}

func want(c *field.Container, name string, loc geom.Location) (*field.Field, error) {
	f, err := c.Get(name)
	if err != nil {
		return nil, err
	} else if f.Loc() != loc {
		return nil, fmt.Errorf(
			"%w: '%s' is at %s, not %s", ErrConfig, name, f.Loc(), loc,
		)
	}
	return f, nil
}

// checkBoundaries returns an error if the boundary conditions of the
// velocity and pressure cannot be used together.
func checkBoundaries(u, v, p *field.Field) error {
	for s := field.XLow; s < field.NumSides; s++ {
		ut, vt, pt := u.BC(s).Type, v.BC(s).Type, p.BC(s).Type
		if (ut == field.Periodic) != (vt == field.Periodic) ||
			(ut == field.Periodic) != (pt == field.Periodic) {
			return fmt.Errorf(
				"%w: side %s must be periodic for all of velx, vely and pres",
				ErrConfig, s,
			)
		}

		nt := sideType(u, v, s)
		switch nt {
		case field.Dirichlet, field.Outflow, field.Periodic:
		default:
			return fmt.Errorf(
				"%w: normal velocity on %s is %s, must be dirichlet, "+
					"outflow or periodic", ErrConfig, s, nt,
			)
		}

		switch pt {
		case field.Neumann, field.Periodic:
		case field.Dirichlet:
			if nt != field.Outflow {
				return fmt.Errorf(
					"%w: dirichlet pressure on %s needs an outflow velocity",
					ErrConfig, s,
				)
			}
		default:
			return fmt.Errorf(
				"%w: pressure on %s is %s, must be dirichlet, neumann "+
					"or periodic", ErrConfig, s, pt,
			)
		}
	}
	return nil
}

func (it *Integrator) incremental() bool {
	return it.opt.PressureCorrection && it.opt.Scheme != RK3
}

// Stats returns the diagnostics of the most recent step.
func (it *Integrator) Stats() Stats { return it.stats }

// Grid returns the Integrator's Grid.
func (it *Integrator) Grid() *geom.Grid { return it.g }

// Options returns the Integrator's Options.
func (it *Integrator) Options() Options { return it.opt }

// State returns the non-Field state of the Integrator.
func (it *Integrator) State() State { return State{HavePrev: it.havePrev} }

// SetState restores state returned by State.
func (it *Integrator) SetState(s State) { it.havePrev = s.HavePrev }

// Advance moves the velocity and pressure forward by dt. On error the Fields
// are left part way through the step and the caller must restore them.
func (it *Integrator) Advance(dt float64) (Stats, error) {
	if !(dt > 0) {
		return it.stats, fmt.Errorf("%w: dt = %g", ErrTimeStep, dt)
	}

	stats := Stats{}
	qin := Qin(it.u, it.v)
	UpdateOutflow(it.u, it.v, dt)
	it.u.FillGuardCells()
	it.v.FillGuardCells()

	table := eulerWeights
	switch it.opt.Scheme {
	case AB2:
		if it.havePrev {
			table = ab2Weights
		}
	case RK3:
		table = rk3Weights
		it.u0.CopyFrom(it.u)
		it.v0.CopyFrom(it.v)
	}

	for _, w := range table {
		if err := it.stage(dt, qin, w, &stats); err != nil {
			return it.stats, err
		}
	}

	if it.opt.Scheme == AB2 {
		it.hox.CopyFrom(it.hx)
		it.hoy.CopyFrom(it.hy)
		it.havePrev = true
	}

	full := ComputeStats(it.u, it.v, it.p, dt)
	full.QoutRaw = stats.QoutRaw
	full.PoissonIterations = stats.PoissonIterations
	full.PoissonResidual = stats.PoissonResidual
	full.PredictorTime = stats.PredictorTime
	full.PoissonTime = stats.PoissonTime
	full.CorrectorTime = stats.CorrectorTime
	Divergence(it.u, it.v, it.div)

	if err := it.opt.check(&full); err != nil {
		return full, err
	}
	it.stats = full
	return full, nil
}

// stage runs one predictor-projection cycle with one row of a weight table.
func (it *Integrator) stage(dt, qin float64, w weights, stats *Stats) error {
	t0 := time.Now()
	Tendency(it.u, it.v, 1/it.opt.Re, it.hx, it.hy)
	it.predict(it.u, it.u0, it.hx, it.hox, dt, w)
	it.predict(it.v, it.v0, it.hy, it.hoy, dt, w)

	dtk := w.b * dt
	incremental := it.incremental()
	if incremental {
		addGradient(it.u, it.v, it.p, -dtk, false)
	}
	it.u.FillGuardCells()
	it.v.FillGuardCells()

	if it.forcing != nil {
		if err := it.forcing.ForceFlow(it.u, it.v, dtk); err != nil {
			return fmt.Errorf("ins: immersed boundary forcing: %w", err)
		}
		it.u.FillGuardCells()
		it.v.FillGuardCells()
	}

	stats.QoutRaw = Qout(it.u, it.v)
	if it.rescale {
		Rescale(it.u, it.v, qin)
		it.u.FillGuardCells()
		it.v.FillGuardCells()
	}
	t1 := time.Now()

	Divergence(it.u, it.v, it.div)
	for i := range it.div.Vals {
		it.div.Vals[i] /= dtk
	}
	status, err := it.solver.Solve(it.div, it.delp)
	stats.PoissonIterations += status.Iterations
	stats.PoissonResidual = status.Residual
	if err != nil {
		return fmt.Errorf("ins: pressure projection: %w", err)
	}
	t2 := time.Now()

	addGradient(it.u, it.v, it.delp, -dtk, true)
	it.keepDirichletOutflow()
	if incremental {
		for i := range it.p.Vals {
			it.p.Vals[i] += it.delp.Vals[i]
		}
	} else {
		copy(it.p.Vals, it.delp.Vals)
	}
	it.u.FillGuardCells()
	it.v.FillGuardCells()
	it.p.FillGuardCells()
	t3 := time.Now()

	stats.PredictorTime += t1.Sub(t0)
	stats.PoissonTime += t2.Sub(t1)
	stats.CorrectorTime += t3.Sub(t2)
	return nil
}

// predict applies one weight table row to the unknown faces of f.
func (it *Integrator) predict(f, f0, h, hOld *field.Field, dt float64, w weights) {
	iLo, iHi, jLo, jHi := f.Unknowns()
	nx := f.Sub.NX
	field.Parallel(jLo, jHi, func(j0, j1 int) {
		for j := j0; j <= j1; j++ {
			for i := iLo; i <= iHi; i++ {
				k := i + j*nx
				x := f.Vals[k] + dt*(w.h*h.Vals[k]+w.hOld*hOld.Vals[k])
				f.Vals[k] = w.a*f0.Vals[k] + w.b*x
			}
		}
	})
}

// keepDirichletOutflow stores corrected outflow faces next to Dirichlet
// pressure sides in their boundary profiles.
func (it *Integrator) keepDirichletOutflow() {
	for s := field.XLow; s < field.NumSides; s++ {
		if it.delp.BC(s).Type == field.Dirichlet {
			syncProfile(normalField(it.u, it.v, s), s)
		}
	}
}
