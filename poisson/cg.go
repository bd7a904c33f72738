package poisson

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// cg is a conjugate gradient solver. The Laplacian is negative
// semi-definite, so it iterates on -A x = -b.
type cg struct {
	opt      Options
	r, p, ap []float64
}

func newCG(op *operator, opt Options) *cg {
	return &cg{
		opt: opt,
		r:   make([]float64, op.n),
		p:   make([]float64, op.n),
		ap:  make([]float64, op.n),
	}
}

func (s *cg) solve(op *operator, b, x []float64) (Status, error) {
	r, p, ap := s.r, s.p, s.ap

	// x starts at zero, so r = -b.
	for i := range r {
		r[i] = -b[i]
	}
	norm := floats.Norm(r, 2)
	if norm == 0 {
		return Status{Converged: true}, nil
	}
	copy(p, r)
	rr := floats.Dot(r, r)

	status := Status{Residual: 1}
	for it := 1; it <= s.opt.MaxIter; it++ {
		op.apply(p, ap)
		floats.Scale(-1, ap)

		pap := floats.Dot(p, ap)
		if pap <= 0 || math.IsNaN(pap) {
			// Only possible once the residual has been driven into the null
			// space or the problem is inconsistent.
			status.Iterations = it
			status.Residual = math.Sqrt(rr) / norm
			status.Converged = status.Residual <= s.opt.Tol
			return status, nil
		}

		alpha := rr / pap
		floats.AddScaled(x, alpha, p)
		floats.AddScaled(r, -alpha, ap)
		if op.singular {
			removeMean(r)
		}

		rrNew := floats.Dot(r, r)
		status.Iterations = it
		status.Residual = math.Sqrt(rrNew) / norm
		if status.Residual <= s.opt.Tol {
			status.Converged = true
			return status, nil
		}

		beta := rrNew / rr
		rr = rrNew
		floats.AddScaledTo(p, r, beta, p)
	}
	return status, nil
}
