/*package flowx runs two dimensional incompressible flow simulations on a
staggered grid, optionally with immersed rigid or viscoelastic bodies.

A Simulation owns every field of one run. Each call to Step advances it by one
time step, and a failed step leaves it exactly as it was.
*/
package flowx

import (
	"fmt"
	"log"
	"math"

	"github.com/phil-mansfield/flowx/field"
	"github.com/phil-mansfield/flowx/geom"
	"github.com/phil-mansfield/flowx/imbound"
	"github.com/phil-mansfield/flowx/ins"
	"github.com/phil-mansfield/flowx/io"
	"github.com/phil-mansfield/flowx/math/interpolate"
)

// Simulation is the context of a single run.
type Simulation struct {
	g  *geom.Grid
	c  *field.Container
	it *ins.Integrator
	ib imbound.ImBound

	dt         float64
	t          float64
	step       int
	statsEvery int
	stats      ins.Stats
}

// Snapshot is a deep copy of the state of a Simulation.
type Snapshot struct {
	Grid   *geom.Grid
	Time   float64
	Step   int
	Stats  ins.Stats
	Fields map[string]*field.Field
	// MarkerSlip is the largest no-slip error at the markers of rigid
	// bodies, and zero without them.
	MarkerSlip float64
}

// Profile is a quantity sampled along a line.
type Profile struct {
	Coords, Vals []float64
}

type redistancer interface {
	LastRedistance() imbound.RedistanceStatus
}

type slipper interface {
	MarkerSlip(u, v *field.Field) float64
}

// New creates a Simulation from a checked Config.
func New(con *io.Config) (*Simulation, error) {
	d := con.Domain
	g, err := geom.NewGrid(d.Xmin, d.Xmax, d.Ymin, d.Ymax, d.Nx, d.Ny)
	if err != nil {
		return nil, err
	}
	c := field.NewContainer(g)

	locs := []geom.Location{geom.FaceX, geom.FaceY, geom.Center}
	inits := []float64{con.Flow.InitialU, con.Flow.InitialV, 0}
	for i, name := range io.FieldNames {
		bc, err := con.BoundarySet(name)
		if err != nil {
			return nil, err
		}
		f, err := c.Register(name, locs[i], bc)
		if err != nil {
			return nil, err
		}
		f.Fill(inits[i])
	}

	ib, err := imbound.New(
		con.ImBound.Type, c, con.Bodies(), con.ImBoundOptions(),
	)
	if err != nil {
		return nil, err
	}
	return NewFromContainer(c, ib, con.InsOptions(), con.Flow.Dt, con.Flow.StatsEvery)
}

// NewFromContainer creates a Simulation around a Container which already
// holds velx, vely and pres, and the immersed boundary registered on it.
func NewFromContainer(
	c *field.Container, ib imbound.ImBound, opt ins.Options,
	dt float64, statsEvery int,
) (*Simulation, error) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return nil, fmt.Errorf("%w: dt = %g", ins.ErrTimeStep, dt)
	}
	if ib == nil {
		ib = imbound.Stub{}
	}
	it, err := ins.New(c, ib, opt)
	if err != nil {
		return nil, err
	}
	return &Simulation{
		g: c.Grid(), c: c, it: it, ib: ib,
		dt: dt, statsEvery: statsEvery, stats: it.Stats(),
	}, nil
}

// Grid returns the Simulation's grid.
func (sim *Simulation) Grid() *geom.Grid { return sim.g }

// Time returns the simulation time.
func (sim *Simulation) Time() float64 { return sim.t }

// Steps returns the number of completed steps.
func (sim *Simulation) Steps() int { return sim.step }

// Stats returns the statistics of the last completed step.
func (sim *Simulation) Stats() ins.Stats { return sim.stats }

// ImBound returns the Simulation's immersed boundary.
func (sim *Simulation) ImBound() imbound.ImBound { return sim.ib }

// Field returns a named field. The Field is live and must not be modified.
func (sim *Simulation) Field(name string) (*field.Field, error) {
	return sim.c.Get(name)
}

// SetTimeStep changes the time step used by later calls to Step.
func (sim *Simulation) SetTimeStep(dt float64) error {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: dt = %g", ins.ErrTimeStep, dt)
	}
	sim.dt = dt
	return nil
}

// Step advances the Simulation by one time step. On failure the Simulation
// is restored to its state before the call and a *StepError is returned.
func (sim *Simulation) Step() error {
	saved := sim.c.Clone()
	insState := sim.it.State()
	saver, canSave := sim.ib.(imbound.Saver)
	var ibState imbound.State
	if canSave {
		ibState = saver.Save()
	}

	fail := func(stage string, err error) error {
		if rerr := sim.c.Restore(saved); rerr != nil {
			panic(rerr.Error())
		}
		sim.it.SetState(insState)
		if canSave {
			saver.Restore(ibState)
		}
		return &StepError{Step: sim.step + 1, Time: sim.t, Stage: stage, Err: err}
	}

	stats, err := sim.it.Advance(sim.dt)
	if err != nil {
		return fail(StageIntegrate, err)
	}
	if err := sim.ib.Advect(sim.dt); err != nil {
		return fail(StageAdvect, err)
	}
	if err := sim.ib.MapToGrid(); err != nil {
		return fail(StageMapToGrid, err)
	}

	if rd, ok := sim.ib.(redistancer); ok {
		if status := rd.LastRedistance(); !status.Converged {
			log.Printf(
				"Warning: redistancing did not converge on step %d "+
					"(%d iterations, change = %.3g).",
				sim.step+1, status.Iterations, status.Change,
			)
		}
	}

	sim.step++
	sim.t += sim.dt
	sim.stats = stats
	if sim.statsEvery > 0 && sim.step%sim.statsEvery == 0 {
		log.Printf("Step %d, t = %.5g: %s", sim.step, sim.t, &sim.stats)
		if _, ok := sim.ib.(slipper); ok {
			log.Printf("Step %d: marker slip = %.4g", sim.step, sim.markerSlip())
		}
	}
	return nil
}

// Run takes n steps, stopping at the first failure.
func (sim *Simulation) Run(n int) error {
	for i := 0; i < n; i++ {
		if err := sim.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot returns deep copies of every field along with the current time,
// step count and statistics.
func (sim *Simulation) Snapshot() *Snapshot {
	snap := &Snapshot{
		Grid: sim.g, Time: sim.t, Step: sim.step, Stats: sim.stats,
		Fields: map[string]*field.Field{},
	}
	for _, name := range sim.c.Names() {
		snap.Fields[name] = sim.c.MustGet(name).Clone()
	}
	snap.MarkerSlip = sim.markerSlip()
	return snap
}

func (sim *Simulation) markerSlip() float64 {
	sl, ok := sim.ib.(slipper)
	if !ok {
		return 0
	}
	return sl.MarkerSlip(sim.c.MustGet(ins.VelX), sim.c.MustGet(ins.VelY))
}

// Centerline returns u along the vertical line through the middle of the
// domain and v along the horizontal one. Both include the walls.
func (sim *Simulation) Centerline() (u, v Profile) {
	g := sim.g
	ui := subInterpolator(sim.c.MustGet(ins.VelX))
	vi := subInterpolator(sim.c.MustGet(ins.VelY))

	u.Coords = lineCoords(g.Ymin, g.Dy, g.Ny)
	u.Vals = ui.EvalAllX((g.Xmin+g.Xmax)/2, u.Coords)
	v.Coords = lineCoords(g.Xmin, g.Dx, g.Nx)
	v.Vals = vi.EvalAllY(v.Coords, (g.Ymin+g.Ymax)/2)
	return u, v
}

func subInterpolator(f *field.Field) *interpolate.BiLinear {
	g, sub := f.Grid(), f.Sub
	return interpolate.NewUniformBiLinear(
		sub.X[0], g.Dx, sub.NX, sub.Y[0], g.Dy, sub.NY, f.Vals,
	)
}

// lineCoords returns the low wall, the n cell centers and the high wall.
func lineCoords(lo, d float64, n int) []float64 {
	xs := make([]float64, n+2)
	xs[0] = lo
	for i := 1; i <= n; i++ {
		xs[i] = lo + (float64(i)-0.5)*d
	}
	xs[n+1] = lo + float64(n)*d
	return xs
}

// CompareProfile returns the largest absolute difference between the
// reference values and the profile p, linearly interpolated to the reference
// coordinates. Reference points outside the range of p are skipped.
func CompareProfile(refCoords, refVals []float64, p Profile) (float64, error) {
	if len(refCoords) != len(refVals) {
		return 0, fmt.Errorf(
			"flowx: %d reference coordinates but %d values",
			len(refCoords), len(refVals),
		)
	} else if len(p.Coords) < 2 || len(p.Coords) != len(p.Vals) {
		return 0, fmt.Errorf("flowx: profile has too few points")
	}

	lo, hi := p.Coords[0], p.Coords[len(p.Coords)-1]
	xs, refs := []float64{}, []float64{}
	for i, x := range refCoords {
		if x >= lo && x <= hi {
			xs, refs = append(xs, x), append(refs, refVals[i])
		}
	}
	if len(xs) == 0 {
		return 0, fmt.Errorf("flowx: no reference points inside the profile")
	}

	vals := interpolate.NewLinear(p.Coords, p.Vals).EvalAll(xs)
	maxDiff := 0.0
	for i := range vals {
		maxDiff = math.Max(maxDiff, math.Abs(vals[i]-refs[i]))
	}
	return maxDiff, nil
}
