package ins

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/phil-mansfield/flowx/field"
)

// Stats are reduction diagnostics of the flow after a step.
type Stats struct {
	UMin, UMax     float64
	VMin, VMax     float64
	PMin, PMax     float64
	DivMin, DivMax float64
	// MaxDiv is the largest absolute cell divergence.
	MaxDiv float64

	KineticEnergy float64
	CFL           float64
	// Qin and Qout are the boundary fluxes after the outflow rescale.
	// QoutRaw is the outflow before it.
	Qin, Qout, QoutRaw float64

	PoissonIterations int
	PoissonResidual   float64

	PredictorTime, PoissonTime, CorrectorTime time.Duration
}

func (s *Stats) String() string {
	return fmt.Sprintf(
		"u = [%.4g, %.4g], v = [%.4g, %.4g], p = [%.4g, %.4g], "+
			"max|div| = %.3g, KE = %.6g, CFL = %.3g, Qin = %.6g, Qout = %.6g, "+
			"poisson: %d its, res = %.3g",
		s.UMin, s.UMax, s.VMin, s.VMax, s.PMin, s.PMax, s.MaxDiv,
		s.KineticEnergy, s.CFL, s.Qin, s.Qout,
		s.PoissonIterations, s.PoissonResidual,
	)
}

// interior returns a copy of the non-guard values of f.
func interior(f *field.Field) []float64 {
	iLo, iHi, jLo, jHi := f.Sub.Interior()
	out := make([]float64, 0, (iHi-iLo+1)*(jHi-jLo+1))
	for j := jLo; j <= jHi; j++ {
		out = append(out, f.Vals[iLo+j*f.Sub.NX:iHi+1+j*f.Sub.NX]...)
	}
	return out
}

// bounds returns the extrema of xs. Both are NaN if any element is NaN.
func bounds(xs []float64) (lo, hi float64) {
	if floats.HasNaN(xs) {
		return math.NaN(), math.NaN()
	}
	return floats.Min(xs), floats.Max(xs)
}

// ComputeStats returns the diagnostics of the current velocity and pressure
// for a time step of dt. It does not modify any Field.
func ComputeStats(u, v, p *field.Field, dt float64) Stats {
	g := u.Grid()
	s := Stats{}

	s.UMin, s.UMax = bounds(interior(u))
	s.VMin, s.VMax = bounds(interior(v))
	s.PMin, s.PMax = bounds(interior(p))

	div, err := field.New(g, "div", p.Loc(), field.BoundarySet{})
	if err != nil {
		panic(err.Error())
	}
	Divergence(u, v, div)
	s.DivMin, s.DivMax = bounds(interior(div))
	s.MaxDiv = math.Max(math.Abs(s.DivMin), math.Abs(s.DivMax))

	ke := make([]float64, 0, g.Nx*g.Ny)
	cfl := make([]float64, 0, g.Nx*g.Ny)
	for j := 1; j <= g.Ny; j++ {
		for i := 1; i <= g.Nx; i++ {
			uc := (u.At(i, j) + u.At(i+1, j)) / 2
			vc := (v.At(i, j) + v.At(i, j+1)) / 2
			ke = append(ke, uc*uc+vc*vc)
			cfl = append(cfl, math.Abs(uc)/g.Dx+math.Abs(vc)/g.Dy)
		}
	}
	s.KineticEnergy = 0.5 * floats.Sum(ke) * g.Area()
	s.CFL = dt * floats.Max(cfl)

	s.Qin, s.Qout = Qin(u, v), Qout(u, v)
	s.QoutRaw = s.Qout
	return s
}

// check returns an error if the Stats show that the run has gone unstable.
func (opt *Options) check(s *Stats) error {
	for _, x := range []float64{
		s.UMin, s.UMax, s.VMin, s.VMax, s.PMin, s.PMax, s.KineticEnergy,
	} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: non-finite velocity or pressure", ErrUnstable)
		}
	}

	vmax := math.Max(
		math.Max(math.Abs(s.UMin), math.Abs(s.UMax)),
		math.Max(math.Abs(s.VMin), math.Abs(s.VMax)),
	)
	if opt.MaxVelocity > 0 && vmax > opt.MaxVelocity {
		return fmt.Errorf(
			"%w: |velocity| = %g exceeds %g", ErrUnstable, vmax, opt.MaxVelocity,
		)
	}
	if opt.MaxDivergence > 0 && s.MaxDiv > opt.MaxDivergence {
		return fmt.Errorf(
			"%w: |div| = %g exceeds %g", ErrUnstable, s.MaxDiv, opt.MaxDivergence,
		)
	}
	if opt.MaxCFL > 0 && s.CFL > opt.MaxCFL {
		return fmt.Errorf("%w: CFL = %g exceeds %g", ErrCFL, s.CFL, opt.MaxCFL)
	}
	return nil
}
