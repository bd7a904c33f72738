package ins

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/flowx/field"
	"github.com/phil-mansfield/flowx/geom"
	"github.com/phil-mansfield/flowx/poisson"
)

type flowBCs struct {
	u, v, p field.BoundarySet
}

func newContainer(
	t *testing.T, g *geom.Grid, bcs flowBCs,
) (c *field.Container, u, v, p *field.Field) {
	c = field.NewContainer(g)
	var err error
	u, err = c.Register(VelX, geom.FaceX, bcs.u)
	require.NoError(t, err)
	v, err = c.Register(VelY, geom.FaceY, bcs.v)
	require.NoError(t, err)
	p, err = c.Register(Pres, geom.Center, bcs.p)
	require.NoError(t, err)
	return c, u, v, p
}

func periodicBCs() flowBCs {
	return flowBCs{
		field.Uniform(field.Periodic, 0),
		field.Uniform(field.Periodic, 0),
		field.Uniform(field.Periodic, 0),
	}
}

func cavityBCs() flowBCs {
	bcs := flowBCs{
		field.Uniform(field.Dirichlet, 0),
		field.Uniform(field.Dirichlet, 0),
		field.Uniform(field.Neumann, 0),
	}
	bcs.u[field.YHigh].Value = 1
	return bcs
}

func channelBCs(pres field.BCType) flowBCs {
	bcs := flowBCs{
		field.Types(field.Dirichlet, field.Outflow, field.Dirichlet, field.Dirichlet),
		field.Types(field.Dirichlet, field.Outflow, field.Dirichlet, field.Dirichlet),
		field.Types(field.Neumann, pres, field.Neumann, field.Neumann),
	}
	bcs.u[field.XLow].Value = 1
	return bcs
}

func tightOptions(s Scheme) Options {
	opt := DefaultOptions()
	opt.Scheme = s
	opt.Poisson.Tol = 1e-12
	opt.Poisson.MaxIter = 5000
	return opt
}

func taylorGreen(u, v *field.Field) {
	u.FillFunc(func(x, y float64) float64 { return math.Sin(x) * math.Cos(y) })
	v.FillFunc(func(x, y float64) float64 { return -math.Cos(x) * math.Sin(y) })
}

func TestProjectionDivergenceFree(t *testing.T) {
	for s := Euler; s < EndScheme; s++ {
		g, err := geom.NewGrid(0, 1, 0, 1, 16, 16)
		require.NoError(t, err)
		c, _, _, _ := newContainer(t, g, cavityBCs())

		it, err := New(c, nil, tightOptions(s))
		require.NoError(t, err)

		for n := 0; n < 5; n++ {
			stats, err := it.Advance(0.01)
			require.NoError(t, err, "%s step %d", s, n)
			assert.Less(t, stats.MaxDiv, 1e-9, "%s step %d", s, n)
			assert.Greater(t, stats.KineticEnergy, 0.0)
		}
		assert.Equal(t, s == AB2, it.State().HavePrev, "%s", s)
	}
}

func TestTaylorGreenDecay(t *testing.T) {
	g, err := geom.NewGrid(0, 2*math.Pi, 0, 2*math.Pi, 32, 32)
	require.NoError(t, err)
	c, u, v, _ := newContainer(t, g, periodicBCs())
	taylorGreen(u, v)

	opt := tightOptions(Euler)
	opt.Re = 10
	it, err := New(c, nil, opt)
	require.NoError(t, err)
	ke0 := it.Stats().KineticEnergy

	dt, steps := 0.01, 50
	for n := 0; n < steps; n++ {
		stats, err := it.Advance(dt)
		require.NoError(t, err)
		assert.Less(t, stats.MaxDiv, 1e-9)
	}

	// KE decays as exp(-4 t / Re) for the unit wavenumber vortex.
	expected := math.Exp(-4 * dt * float64(steps) / opt.Re)
	assert.InEpsilon(t, expected, it.Stats().KineticEnergy/ke0, 0.02)
}

func TestChannelMassBalance(t *testing.T) {
	for _, pres := range []field.BCType{field.Neumann, field.Dirichlet} {
		g, err := geom.NewGrid(0, 4, 0, 1, 32, 8)
		require.NoError(t, err)
		c, u, _, _ := newContainer(t, g, channelBCs(pres))
		u.Fill(1)

		it, err := New(c, nil, tightOptions(Euler))
		require.NoError(t, err)

		for n := 0; n < 20; n++ {
			stats, err := it.Advance(0.02)
			require.NoError(t, err, "%s step %d", pres, n)
			assert.InDelta(t, 1.0, stats.Qin, 1e-12, "%s", pres)
			assert.InDelta(t, stats.Qin, stats.Qout, 1e-8, "%s step %d", pres, n)
			assert.Less(t, stats.MaxDiv, 1e-8, "%s step %d", pres, n)
		}
	}
}

func TestTendency(t *testing.T) {
	g, err := geom.NewGrid(0, 2*math.Pi, 0, 2*math.Pi, 32, 32)
	require.NoError(t, err)
	_, u, v, _ := newContainer(t, g, periodicBCs())
	hx, err := field.New(g, Tendx, geom.FaceX, field.BoundarySet{})
	require.NoError(t, err)
	hy, err := field.New(g, Tendy, geom.FaceY, field.BoundarySet{})
	require.NoError(t, err)

	// Uniform flow has no tendency.
	u.Fill(1)
	v.Fill(-2)
	Tendency(u, v, 0.1, hx, hy)
	assert.InDelta(t, 0, hx.MaxAbs(), 1e-12)
	assert.InDelta(t, 0, hy.MaxAbs(), 1e-12)

	// A shear layer only diffuses.
	nu := 0.1
	u.FillFunc(func(x, y float64) float64 { return math.Sin(y) })
	v.Fill(0)
	u.FillGuardCells()
	v.FillGuardCells()
	Tendency(u, v, nu, hx, hy)
	iLo, iHi, jLo, jHi := u.Unknowns()
	for j := jLo; j <= jHi; j++ {
		for i := iLo; i <= iHi; i++ {
			assert.InDelta(t, -nu*math.Sin(u.Sub.Y[j]), hx.At(i, j), 1e-3)
		}
	}
	assert.InDelta(t, 0, hy.MaxAbs(), 1e-12)
}

func TestRescaleAndOutflow(t *testing.T) {
	g, err := geom.NewGrid(0, 4, 0, 1, 8, 4)
	require.NoError(t, err)
	_, u, v, _ := newContainer(t, g, channelBCs(field.Neumann))
	u.Fill(1)
	for j := 1; j <= g.Ny; j++ {
		u.Set(g.Nx+1, j, 2)
	}

	assert.InDelta(t, 1.0, Qin(u, v), 1e-12)
	assert.InDelta(t, 2.0, Qout(u, v), 1e-12)
	assert.True(t, HasOutflow(u, v))

	scale := Rescale(u, v, Qin(u, v))
	assert.InDelta(t, 0.5, scale, 1e-12)
	assert.InDelta(t, 1.0, Qout(u, v), 1e-12)

	// Guard fills keep the rescaled values.
	u.FillGuardCells()
	assert.InDelta(t, 1.0, u.At(g.Nx+1, 2), 1e-12)

	// A uniform field is a steady state of the convective condition.
	UpdateOutflow(u, v, 0.1)
	for j := 1; j <= g.Ny; j++ {
		assert.InDelta(t, 1.0, u.At(g.Nx+1, j), 1e-12)
	}

	// A step in the profile moves out at the mean speed.
	u.Set(g.Nx, 1, 0)
	UpdateOutflow(u, v, 0.1)
	assert.InDelta(t, 1-0.1*(1-0)/g.Dx, u.At(g.Nx+1, 1), 1e-12)
}

func TestNewErrors(t *testing.T) {
	g, err := geom.NewGrid(0, 1, 0, 1, 8, 8)
	require.NoError(t, err)

	bad := []flowBCs{
		// Neumann normal velocity.
		{
			field.Types(field.Neumann, field.Dirichlet, field.Dirichlet, field.Dirichlet),
			field.Uniform(field.Dirichlet, 0),
			field.Uniform(field.Neumann, 0),
		},
		// Dirichlet pressure next to a wall.
		{
			field.Uniform(field.Dirichlet, 0),
			field.Uniform(field.Dirichlet, 0),
			field.Types(field.Dirichlet, field.Neumann, field.Neumann, field.Neumann),
		},
		// Periodic velocity with a walled pressure.
		{
			field.Uniform(field.Periodic, 0),
			field.Uniform(field.Periodic, 0),
			field.Uniform(field.Neumann, 0),
		},
		// Outflow pressure.
		{
			field.Uniform(field.Dirichlet, 0),
			field.Uniform(field.Dirichlet, 0),
			field.Uniform(field.Outflow, 0),
		},
	}
	for i, bcs := range bad {
		c, _, _, _ := newContainer(t, g, bcs)
		_, err := New(c, nil, DefaultOptions())
		assert.True(t, errors.Is(err, ErrConfig), "%d) %v", i, err)
	}

	c, _, _, _ := newContainer(t, g, cavityBCs())
	opt := DefaultOptions()
	opt.Re = 0
	_, err = New(c, nil, opt)
	assert.True(t, errors.Is(err, ErrConfig))

	c, _, _, _ = newContainer(t, g, cavityBCs())
	opt = DefaultOptions()
	opt.Solver = "multigrid"
	_, err = New(c, nil, opt)
	assert.True(t, errors.Is(err, poisson.ErrUnknown))

	_, err = New(field.NewContainer(g), nil, DefaultOptions())
	assert.True(t, errors.Is(err, field.ErrMissing))

	_, err = ParseScheme("leapfrog")
	assert.True(t, errors.Is(err, ErrConfig))
	s, err := ParseScheme("rk3")
	assert.NoError(t, err)
	assert.Equal(t, RK3, s)
}

func TestAdvanceErrors(t *testing.T) {
	g, err := geom.NewGrid(0, 1, 0, 1, 8, 8)
	require.NoError(t, err)

	c, _, _, _ := newContainer(t, g, cavityBCs())
	it, err := New(c, nil, DefaultOptions())
	require.NoError(t, err)
	_, err = it.Advance(0)
	assert.True(t, errors.Is(err, ErrTimeStep))
	_, err = it.Advance(math.NaN())
	assert.True(t, errors.Is(err, ErrTimeStep))

	// A large time step breaks the CFL limit.
	_, err = it.Advance(1)
	assert.True(t, errors.Is(err, ErrCFL), "%v", err)

	c, u, _, _ := newContainer(t, g, periodicBCs())
	u.Fill(math.NaN())
	it, err = New(c, nil, DefaultOptions())
	require.NoError(t, err)
	_, err = it.Advance(0.01)
	assert.Error(t, err)

	c, u, _, _ = newContainer(t, g, periodicBCs())
	u.Fill(10)
	opt := DefaultOptions()
	opt.MaxVelocity = 5
	it, err = New(c, nil, opt)
	require.NoError(t, err)
	_, err = it.Advance(1e-3)
	assert.True(t, errors.Is(err, ErrUnstable), "%v", err)
}

type constForcing struct {
	calls int
	du    float64
}

func (f *constForcing) ForceFlow(u, v *field.Field, dt float64) error {
	f.calls++
	iLo, iHi, jLo, jHi := u.Unknowns()
	for j := jLo; j <= jHi; j++ {
		for i := iLo; i <= iHi; i++ {
			u.Set(i, j, u.At(i, j)+f.du*dt)
		}
	}
	return nil
}

func TestForcing(t *testing.T) {
	g, err := geom.NewGrid(0, 1, 0, 1, 8, 8)
	require.NoError(t, err)

	for s, calls := range map[Scheme]int{Euler: 1, AB2: 1, RK3: 3} {
		c, u, _, _ := newContainer(t, g, periodicBCs())
		forcing := &constForcing{du: 1}
		it, err := New(c, forcing, tightOptions(s))
		require.NoError(t, err)

		_, err = it.Advance(0.1)
		require.NoError(t, err)
		assert.Equal(t, calls, forcing.calls, "%s", s)
		// A uniform push is divergence-free and survives the projection.
		assert.InDelta(t, 0.1, u.At(3, 3), 1e-10, "%s", s)
	}
}

func TestStatsNaNPressure(t *testing.T) {
	g, err := geom.NewGrid(0, 1, 0, 1, 8, 8)
	require.NoError(t, err)
	_, u, v, p := newContainer(t, g, periodicBCs())
	p.FillFunc(func(x, y float64) float64 { return x - y })
	p.Set(5, 6, math.NaN())

	s := ComputeStats(u, v, p, 0.01)
	assert.True(t, math.IsNaN(s.PMin))
	assert.True(t, math.IsNaN(s.PMax))
	assert.False(t, math.IsNaN(s.UMax))

	opt := DefaultOptions()
	assert.True(t, errors.Is(opt.check(&s), ErrUnstable))

	p.Set(5, 6, 0)
	s = ComputeStats(u, v, p, 0.01)
	assert.NoError(t, opt.check(&s))
}
