package poisson

import (
	"gonum.org/v1/gonum/floats"
)

// jacobiWeight damps the update so that the checkerboard mode of periodic
// problems also decays.
const jacobiWeight = 0.8

type jacobi struct {
	opt         Options
	off, r, old []float64
}

func newJacobi(op *operator, opt Options) *jacobi {
	return &jacobi{
		opt: opt,
		off: make([]float64, op.n),
		r:   make([]float64, op.n),
		old: make([]float64, op.n),
	}
}

func (s *jacobi) solve(op *operator, b, x []float64) (Status, error) {
	norm := floats.Norm(b, 2)
	if norm == 0 {
		return Status{Converged: true}, nil
	}

	status := Status{Residual: 1}
	for it := 1; it <= s.opt.MaxIter; it++ {
		copy(s.old, x)
		op.offDiag(s.old, s.off)
		for k := range x {
			x[k] = (1-jacobiWeight)*s.old[k] +
				jacobiWeight*(b[k]-s.off[k])/op.diag[k]
		}
		if op.singular {
			removeMean(x)
		}

		op.apply(x, s.r)
		floats.SubTo(s.r, b, s.r)
		status.Iterations = it
		status.Residual = floats.Norm(s.r, 2) / norm
		if status.Residual <= s.opt.Tol {
			status.Converged = true
			break
		}
	}
	return status, nil
}
