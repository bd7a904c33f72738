package imbound

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/flowx/field"
	"github.com/phil-mansfield/flowx/geom"
	"github.com/phil-mansfield/flowx/particles"
)

func flowContainer(t *testing.T, g *geom.Grid) (c *field.Container, u, v *field.Field) {
	c = field.NewContainer(g)
	var err error
	u, err = c.Register("velx", geom.FaceX, field.Uniform(field.Dirichlet, 0))
	require.NoError(t, err)
	v, err = c.Register("vely", geom.FaceY, field.Uniform(field.Dirichlet, 0))
	require.NoError(t, err)
	return c, u, v
}

func unitGrid(t *testing.T, n int) *geom.Grid {
	g, err := geom.NewGrid(0, 1, 0, 1, n, n)
	require.NoError(t, err)
	return g
}

func TestNew(t *testing.T) {
	g := unitGrid(t, 16)
	c, u, v := flowContainer(t, g)

	ib, err := New("none", c, nil, DefaultOptions())
	require.NoError(t, err)
	assert.NoError(t, ib.MapToGrid())
	assert.NoError(t, ib.ForceFlow(u, v, 0.1))
	assert.NoError(t, ib.Advect(0.1))

	_, err = New("elastic", c, nil, DefaultOptions())
	assert.True(t, errors.Is(err, ErrUnknown))
	_, err = New("rigid", c, nil, DefaultOptions())
	assert.True(t, errors.Is(err, ErrNoBody))
	_, err = New("visco", c, nil, DefaultOptions())
	assert.True(t, errors.Is(err, ErrNoBody))

	line := particles.NewPolygon("line", []particles.Vec{{0, 0}, {1, 0}, {2, 0}})
	_, err = New("rigid", c, []*particles.Set{line}, DefaultOptions())
	assert.True(t, errors.Is(err, particles.ErrDegenerateBody))
}

func TestRigidForceFlow(t *testing.T) {
	g := unitGrid(t, 32)
	c, u, v := flowContainer(t, g)
	body := particles.NewCircle("cyl", 0.5, 0.5, 0.25, 64)
	r, err := NewRigid(c, []*particles.Set{body})
	require.NoError(t, err)

	phi := c.MustGet(Phi)
	assert.Less(t, phi.At(16, 16), -0.2)
	assert.Greater(t, phi.At(1, 1), 0.0)
	assert.Equal(t, 0.0, c.MustGet(Owner).At(16, 16))
	assert.Equal(t, -1.0, c.MustGet(Owner).At(1, 1))

	dt := 0.1
	u.Fill(1)
	v.Fill(0)
	require.NoError(t, r.ForceFlow(u, v, dt))

	fx := c.MustGet(ForceX)
	// Face 17 sits at x = 0.5, in the middle of the body.
	assert.Equal(t, 0.0, u.At(17, 16))
	assert.InDelta(t, -1/dt, fx.At(17, 16), 1e-12)
	assert.Equal(t, 1.0, u.At(3, 3))
	assert.Equal(t, 0.0, fx.At(3, 3))
	assert.Greater(t, r.MarkerSlip(u, v), 0.1)

	// A body moving with the flow does not slip.
	body.SetVelocity(1, 0)
	u.Fill(1)
	require.NoError(t, r.ForceFlow(u, v, dt))
	assert.InDelta(t, 0, r.MarkerSlip(u, v), 1e-12)
	assert.Equal(t, 0.0, fx.At(17, 16))

	// A moving body imposes its own velocity.
	body.SetVelocity(0.5, -0.25)
	require.NoError(t, r.ForceFlow(u, v, dt))
	assert.Equal(t, 0.5, u.At(17, 16))
	assert.Equal(t, -0.25, v.At(16, 17))
}

func TestRigidAdvect(t *testing.T) {
	g := unitGrid(t, 32)
	c, _, _ := flowContainer(t, g)
	body := particles.NewCircle("cyl", 0.25, 0.5, 0.125, 64)
	r, err := NewRigid(c, []*particles.Set{body})
	require.NoError(t, err)
	phi := c.MustGet(Phi)

	saved := r.Save()
	before := phi.At(8, 16)

	// Stationary bodies are not remapped.
	require.NoError(t, r.Advect(0.1))
	assert.Equal(t, before, phi.At(8, 16))

	body.SetVelocity(1, 0)
	require.NoError(t, r.Advect(0.25))
	assert.InDelta(t, 0.5, body.Center[0], 1e-12)
	assert.Less(t, phi.At(16, 16), -0.05)
	assert.Greater(t, phi.At(8, 16), 0.0)

	r.Restore(saved)
	require.NoError(t, r.MapToGrid())
	assert.InDelta(t, 0.25, r.Bodies[0].Center[0], 1e-12)
	assert.Equal(t, before, phi.At(8, 16))
	assert.Equal(t, 0.0, r.Save().Time)
}

func periodicScalar(t *testing.T, g *geom.Grid, name string) *field.Field {
	f, err := field.New(g, name, geom.Center, field.Uniform(field.Periodic, 0))
	require.NoError(t, err)
	return f
}

func TestAdvectWENO(t *testing.T) {
	g, err := geom.NewGrid(0, 1, 0, 0.25, 64, 16)
	require.NoError(t, err)
	u, err := field.New(g, "u", geom.FaceX, field.Uniform(field.Periodic, 0))
	require.NoError(t, err)
	v, err := field.New(g, "v", geom.FaceY, field.Uniform(field.Periodic, 0))
	require.NoError(t, err)

	s := periodicScalar(t, g, "s")
	wave := func(x, y float64) float64 { return math.Sin(2 * math.Pi * x) }
	s.FillFunc(wave)

	// Zero velocity is the identity.
	orig := s.Clone()
	AdvectWENO(s, u, v, 0.5)
	assert.Equal(t, orig.Vals, s.Vals)

	// Constant velocity translates.
	u.Fill(1)
	AdvectWENO(s, u, v, 0.1)
	for j := 1; j <= g.Ny; j++ {
		for i := 1; i <= g.Nx; i++ {
			x := s.Sub.X[i]
			assert.InDelta(t, wave(x-0.1, 0), s.At(i, j), 1e-3)
		}
	}

	// Linear profiles are translated exactly, even next to extrapolated
	// boundaries.
	lin, err := field.New(g, "lin", geom.Center, field.Uniform(field.Extrapolate, 0))
	require.NoError(t, err)
	lin.FillFunc(func(x, y float64) float64 { return x + 2*y })
	v.Fill(0.5)
	AdvectWENO(lin, u, v, 0.2)
	for j := 1; j <= g.Ny; j++ {
		for i := 1; i <= g.Nx; i++ {
			x, y := lin.Sub.X[i], lin.Sub.Y[j]
			assert.InDelta(t, (x-0.2)+2*(y-0.1), lin.At(i, j), 1e-10)
		}
	}
}

func circleDistance(x0, y0, r float64) func(x, y float64) float64 {
	return func(x, y float64) float64 {
		return math.Hypot(x-x0, y-y0) - r
	}
}

func TestRedistance(t *testing.T) {
	g, err := geom.NewGrid(-1, 1, -1, 1, 64, 64)
	require.NoError(t, err)
	phi, err := field.New(g, Phi, geom.Center, field.Uniform(field.Extrapolate, 0))
	require.NoError(t, err)
	exact := circleDistance(0, 0, 0.5)
	phi.FillFunc(exact)

	opt := RedistanceOptions{MaxIter: 500, Tol: 1e-4}
	status := Redistance(phi, opt)
	require.True(t, status.Converged, "%+v", status)

	band := 3 * g.Dx
	for j := 1; j <= g.Ny; j++ {
		for i := 1; i <= g.Nx; i++ {
			x, y := phi.Sub.X[i], phi.Sub.Y[j]
			if d := exact(x, y); math.Abs(d) < band {
				assert.InDelta(t, d, phi.At(i, j), 0.25*g.Dx, "(%d, %d)", i, j)
			}
		}
	}

	// A converged level set is a fixed point.
	first := phi.Clone()
	status = Redistance(phi, opt)
	assert.True(t, status.Converged)
	assert.Equal(t, 1, status.Iterations)
	for j := 1; j <= g.Ny; j++ {
		for i := 1; i <= g.Nx; i++ {
			if math.Abs(first.At(i, j)) < band {
				assert.InDelta(t, first.At(i, j), phi.At(i, j), 1e-4*g.Dx)
			}
		}
	}

	// Too few iterations are reported.
	phi.FillFunc(func(x, y float64) float64 { return 3 * exact(x, y) })
	status = Redistance(phi, RedistanceOptions{MaxIter: 2, Tol: 1e-8})
	assert.False(t, status.Converged)
	assert.Equal(t, 2, status.Iterations)
}

// planeFields returns a level set which is negative for x < 0.5, along with
// its normals.
func planeFields(t *testing.T, g *geom.Grid) (phi, nx, ny *field.Field) {
	var err error
	phi, err = field.New(g, Phi, geom.Center, field.Uniform(field.Extrapolate, 0))
	require.NoError(t, err)
	nx, err = field.New(g, NormX, geom.Center, field.Uniform(field.Neumann, 0))
	require.NoError(t, err)
	ny, err = field.New(g, NormY, geom.Center, field.Uniform(field.Neumann, 0))
	require.NoError(t, err)

	phi.FillFunc(func(x, y float64) float64 { return x - 0.5 })
	Normals(phi, nx, ny)
	return phi, nx, ny
}

// bandSlope returns the largest |ds/dx| over the first n fluid cells.
func bandSlope(s *field.Field, n int) float64 {
	g := s.Grid()
	max := 0.0
	first := g.Nx/2 + 1
	for j := 1; j <= g.Ny; j++ {
		for i := first; i < first+n; i++ {
			max = math.Max(max, math.Abs(s.At(i, j)-s.At(i-1, j))/g.Dx)
		}
	}
	return max
}

func TestExtrapolation(t *testing.T) {
	g, err := geom.NewGrid(0, 1, 0, 0.25, 32, 8)
	require.NoError(t, err)
	phi, nx, ny := planeFields(t, g)
	assert.InDelta(t, 1, nx.At(5, 5), 1e-12)
	assert.InDelta(t, 0, ny.At(5, 5), 1e-12)

	s, err := field.New(g, "s", geom.Center, field.Uniform(field.Neumann, 0))
	require.NoError(t, err)
	s.FillFunc(func(x, y float64) float64 {
		if x < 0.5 {
			return 1
		}
		return 0
	})

	slopes := []float64{}
	for _, iter := range []int{2, 8, 38} {
		ConstantExtrapolation(phi, s, nx, ny, iter)
		slopes = append(slopes, bandSlope(s, 4))
	}
	assert.Greater(t, slopes[0], slopes[1])
	assert.Greater(t, slopes[1], slopes[2])
	assert.Less(t, slopes[2], 1e-3)
	// The solid is untouched.
	assert.Equal(t, 1.0, s.At(16, 4))

	lin, err := field.New(g, "lin", geom.Center, field.Uniform(field.Extrapolate, 0))
	require.NoError(t, err)
	sn, err := field.New(g, "sn", geom.Center, field.Uniform(field.Neumann, 0))
	require.NoError(t, err)
	lin.FillFunc(func(x, y float64) float64 {
		if x < 0.5 {
			return x
		}
		return 0
	})
	DirectionalDerivative(lin, nx, ny, sn)
	assert.InDelta(t, 1, sn.At(10, 4), 1e-12)
	ConstantExtrapolation(phi, sn, nx, ny, 40)
	LinearExtrapolation(phi, lin, sn, nx, ny, 60)
	for j := 1; j <= g.Ny; j++ {
		for i := 17; i <= 20; i++ {
			assert.InDelta(t, lin.Sub.X[i], lin.At(i, j), 1e-3, "(%d, %d)", i, j)
		}
	}
}

func TestSolid(t *testing.T) {
	g := unitGrid(t, 16)
	c, u, v := flowContainer(t, g)
	body := particles.NewCircle("blob", 0.5, 0.5, 0.25, 64)
	vis, err := NewVisco(c, []*particles.Set{body}, DefaultOptions())
	require.NoError(t, err)

	psi := c.MustGet(Psi)
	assert.Greater(t, psi.At(8, 8), 0.98)
	assert.InDelta(t, 0, psi.At(1, 1), 1e-4)
	assert.Equal(t, psi.Sub.X[8], c.MustGet(LMX).At(8, 8))

	// An undeformed reference map gives no force.
	u.Fill(0.25)
	v.Fill(0)
	require.NoError(t, vis.ForceFlow(u, v, 0.01))
	assert.InDelta(t, 0, c.MustGet(ForceX).MaxAbs(), 1e-10)
	assert.InDelta(t, 0.25, u.At(8, 8), 1e-12)

	// A uniform stretch gives a uniform stress.
	lmx := c.MustGet(LMX)
	lmx.FillFunc(func(x, y float64) float64 { return x / 2 })
	var tau [4]*field.Field
	for m := range tau {
		tau[m] = c.MustGet(TauNames[m])
	}
	SolidStress(lmx, c.MustGet(LMY), tau)
	assert.InDelta(t, 3, tau[0].At(5, 5), 1e-10)
	assert.InDelta(t, 0, tau[1].At(5, 5), 1e-10)
	assert.InDelta(t, 0, tau[3].At(5, 5), 1e-10)

	// The stretched solid pulls on the fluid only where the viscosity
	// changes.
	require.NoError(t, vis.ForceFlow(u, v, 0.01))
	fx := c.MustGet(ForceX)
	assert.InDelta(t, 0, fx.At(9, 8), 1e-6)
	assert.Greater(t, math.Abs(fx.At(5, 8)), 1e-3)

	// Advection with no flow leaves the solid in place.
	u.Fill(0)
	lmx.FillFunc(func(x, y float64) float64 { return x })
	require.NoError(t, vis.Advect(0.01))
	assert.InDelta(t, lmx.Sub.X[8], lmx.At(8, 8), 1e-12)
	assert.Less(t, c.MustGet(Phi).At(8, 8), 0.0)
	assert.Greater(t, vis.LastRedistance().Iterations, 0)
}

func TestPenalty(t *testing.T) {
	g := unitGrid(t, 16)
	c, u, v := flowContainer(t, g)
	body := particles.NewCircle("blob", 0.5, 0.5, 0.4, 64)
	opt := DefaultOptions()
	opt.Penalty = 10
	vis, err := NewVisco(c, []*particles.Set{body}, opt)
	require.NoError(t, err)

	u.Fill(1)
	v.Fill(0)
	require.NoError(t, vis.ForceFlow(u, v, 0.01))
	// Deep inside the solid u relaxes towards the resting body.
	assert.InDelta(t, 1-0.01*10, u.At(9, 8), 1e-4)
	assert.Greater(t, u.At(2, 2), 0.99)
	assert.Less(t, c.MustGet(ForceX).At(9, 8), 0.0)
}

func TestMapBodiesPeriodic(t *testing.T) {
	g := unitGrid(t, 16)
	c := field.NewContainer(g)
	_, err := c.Register("velx", geom.FaceX, field.Types(
		field.Periodic, field.Periodic, field.Dirichlet, field.Dirichlet,
	))
	require.NoError(t, err)
	_, err = c.Register("vely", geom.FaceY, field.Types(
		field.Periodic, field.Periodic, field.Dirichlet, field.Dirichlet,
	))
	require.NoError(t, err)

	// The body straddles the periodic x sides.
	body := particles.NewCircle("edge", 0.02, 0.5, 0.2, 64)
	_, err = NewRigid(c, []*particles.Set{body})
	require.NoError(t, err)

	phi, owner := c.MustGet(Phi), c.MustGet(Owner)
	for j := 0; j <= g.Ny+1; j++ {
		assert.Equal(t, phi.At(g.Nx, j), phi.At(0, j), "low guard, row %d", j)
		assert.Equal(t, phi.At(1, j), phi.At(g.Nx+1, j), "high guard, row %d", j)
		assert.Equal(t, owner.At(g.Nx, j), owner.At(0, j), "low owner, row %d", j)
		assert.Equal(t, owner.At(1, j), owner.At(g.Nx+1, j), "high owner, row %d", j)
	}
	assert.Less(t, phi.At(1, 8), 0.0)
	assert.Greater(t, phi.At(g.Nx, 8), 0.0)
}

func TestMarkerSlipOutside(t *testing.T) {
	g := unitGrid(t, 16)
	c, u, v := flowContainer(t, g)
	body := particles.NewCircle("cyl", 0.5, 0.5, 0.2, 32)
	r, err := NewRigid(c, []*particles.Set{body})
	require.NoError(t, err)

	u.Fill(1)
	v.Fill(0)
	assert.InDelta(t, 1.0, r.MarkerSlip(u, v), 1e-12)

	body.Offset(2, 0)
	assert.Equal(t, 0.0, r.MarkerSlip(u, v))
}

func TestViscoAdvectInsideSolid(t *testing.T) {
	g := unitGrid(t, 32)
	c, u, v := flowContainer(t, g)
	body := particles.NewCircle("blob", 0.5, 0.5, 0.1, 64)
	vis, err := NewVisco(c, []*particles.Set{body}, DefaultOptions())
	require.NoError(t, err)

	u.Fill(1)
	v.Fill(0)
	dt := 0.01
	require.NoError(t, vis.Advect(dt))

	lmx := c.MustGet(LMX)
	// The solid is carried by the flow.
	assert.InDelta(t, lmx.Sub.X[16]-dt, lmx.At(16, 16), 1e-6)
	// Far from the solid the reference map is left alone.
	assert.InDelta(t, lmx.Sub.X[4], lmx.At(4, 16), 1e-3)
	assert.InDelta(t, lmx.Sub.Y[16], c.MustGet(LMY).At(4, 16), 1e-3)
}
