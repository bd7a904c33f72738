package poisson

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/phil-mansfield/flowx/math/mat"
)

// direct factors -A once with a banded LU and reuses the factors for every
// solve. Periodic y sides would couple the first and last rows and are not
// supported. Singular problems are made regular by pinning the first cell.
type direct struct {
	luf *mat.LUFactors
	m   *mat.Band
	r   []float64
	tol float64
}

func newDirect(op *operator, opt Options) (*direct, error) {
	if op.bc.PeriodicY() {
		return nil, fmt.Errorf(
			"%w: direct solver does not support periodic y sides",
			ErrUnsupported,
		)
	}

	bw := op.nx
	m := mat.NewBand(op.n, bw, bw)
	for j := 0; j < op.ny; j++ {
		for i := 0; i < op.nx; i++ {
			k := i + j*op.nx
			m.Set(k, k, -op.diag[k])
			for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
				nb := op.neighbor(i, j, d[0], d[1])
				if nb < 0 {
					continue
				}
				coeff := op.idx2
				if d[1] != 0 {
					coeff = op.idy2
				}
				// Periodic wrapping with nx <= 2 can land on the same entry
				// twice.
				m.Add(k, nb, -coeff)
			}
		}
	}

	if op.singular {
		for j := 1; j <= bw && j < op.n; j++ {
			m.Set(0, j, 0)
		}
		m.Set(0, 0, 1)
	}

	luf, err := m.LU()
	if err != nil {
		return nil, fmt.Errorf("poisson: factoring direct solver: %w", err)
	}
	return &direct{luf: luf, m: m, r: make([]float64, op.n), tol: opt.Tol}, nil
}

func (s *direct) solve(op *operator, b, x []float64) (Status, error) {
	norm := floats.Norm(b, 2)
	if norm == 0 {
		return Status{Iterations: 1, Converged: true}, nil
	}

	floats.ScaleTo(x, -1, b)
	if op.singular {
		x[0] = 0
	}
	s.luf.SolveVector(x, x)

	// m = -A, so the residual of the factored system is m x + b. The pinned
	// row of a singular system has a zero right hand side.
	s.m.MulVec(x, s.r)
	floats.Add(s.r, b)
	if op.singular {
		s.r[0] = x[0]
	}
	res := floats.Norm(s.r, 2) / norm
	return Status{Iterations: 1, Residual: res, Converged: res <= s.tol}, nil
}
