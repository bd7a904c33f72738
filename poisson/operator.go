package poisson

import (
	"github.com/phil-mansfield/flowx/field"
	"github.com/phil-mansfield/flowx/geom"
)

// operator is the homogeneous 5-point Laplacian on the nx*ny interior cells,
// flattened x-fastest with k = (i-1) + (j-1)*nx.
type operator struct {
	nx, ny, n  int
	dx, dy     float64
	idx2, idy2 float64
	bc         field.BoundarySet
	singular   bool
	// diag holds the diagonal coefficient of every row, with the guard
	// contributions of Dirichlet and Neumann sides folded in.
	diag []float64
}

func newOperator(g *geom.Grid, bc field.BoundarySet) *operator {
	op := &operator{
		nx: g.Nx, ny: g.Ny, n: g.Nx * g.Ny, dx: g.Dx, dy: g.Dy,
		idx2: 1 / (g.Dx * g.Dx), idy2: 1 / (g.Dy * g.Dy),
		bc: bc, singular: !bc.Has(field.Dirichlet),
	}
	for s := range op.bc {
		op.bc[s].Profile = nil
	}

	op.diag = make([]float64, op.n)
	for j := 0; j < op.ny; j++ {
		for i := 0; i < op.nx; i++ {
			d := -2*op.idx2 - 2*op.idy2
			if i == 0 {
				d += guardCoeff(bc[field.XLow].Type) * op.idx2
			}
			if i == op.nx-1 {
				d += guardCoeff(bc[field.XHigh].Type) * op.idx2
			}
			if j == 0 {
				d += guardCoeff(bc[field.YLow].Type) * op.idy2
			}
			if j == op.ny-1 {
				d += guardCoeff(bc[field.YHigh].Type) * op.idy2
			}
			op.diag[i+j*op.nx] = d
		}
	}
	return op
}

// guardCoeff is the multiple of the adjacent interior value which a
// homogeneous guard cell takes.
func guardCoeff(t field.BCType) float64 {
	switch t {
	case field.Neumann:
		return 1
	case field.Dirichlet:
		return -1
	}
	return 0
}

// neighbor returns the flat index of the neighbor of (i, j) offset by
// (di, dj), or -1 if that neighbor is a non-periodic guard cell.
func (op *operator) neighbor(i, j, di, dj int) int {
	i, j = i+di, j+dj
	if i < 0 || i >= op.nx {
		if !op.bc.PeriodicX() {
			return -1
		}
		i = (i + op.nx) % op.nx
	}
	if j < 0 || j >= op.ny {
		if !op.bc.PeriodicY() {
			return -1
		}
		j = (j + op.ny) % op.ny
	}
	return i + j*op.nx
}

// apply computes out = A x.
func (op *operator) apply(x, out []float64) {
	field.Parallel(0, op.ny-1, func(jLo, jHi int) {
		for j := jLo; j <= jHi; j++ {
			for i := 0; i < op.nx; i++ {
				k := i + j*op.nx
				sum := op.diag[k] * x[k]
				sum += op.idx2 * (op.at(x, i, j, -1, 0) + op.at(x, i, j, 1, 0))
				sum += op.idy2 * (op.at(x, i, j, 0, -1) + op.at(x, i, j, 0, 1))
				out[k] = sum
			}
		}
	})
}

// offDiag computes out = (A - D) x.
func (op *operator) offDiag(x, out []float64) {
	for j := 0; j < op.ny; j++ {
		for i := 0; i < op.nx; i++ {
			k := i + j*op.nx
			out[k] = op.idx2*(op.at(x, i, j, -1, 0)+op.at(x, i, j, 1, 0)) +
				op.idy2*(op.at(x, i, j, 0, -1)+op.at(x, i, j, 0, 1))
		}
	}
}

func (op *operator) at(x []float64, i, j, di, dj int) float64 {
	if k := op.neighbor(i, j, di, dj); k >= 0 {
		return x[k]
	}
	return 0
}

// subtractBoundary moves the inhomogeneous part of the boundary conditions
// to the right hand side.
func (op *operator) subtractBoundary(bc *field.BoundarySet, b []float64) {
	for j := 0; j < op.ny; j++ {
		// Profiles are indexed along the side including the guard layer.
		if c := bcConst(&bc[field.XLow], j+1, op.dx); c != 0 {
			b[j*op.nx] -= c * op.idx2
		}
		if c := bcConst(&bc[field.XHigh], j+1, op.dx); c != 0 {
			b[op.nx-1+j*op.nx] -= c * op.idx2
		}
	}
	for i := 0; i < op.nx; i++ {
		if c := bcConst(&bc[field.YLow], i+1, op.dy); c != 0 {
			b[i] -= c * op.idy2
		}
		if c := bcConst(&bc[field.YHigh], i+1, op.dy); c != 0 {
			b[i+(op.ny-1)*op.nx] -= c * op.idy2
		}
	}
}

// bcConst is the constant part of a guard value.
func bcConst(b *field.Boundary, k int, delta float64) float64 {
	switch b.Type {
	case field.Neumann:
		return b.At(k) * delta
	case field.Dirichlet:
		return 2 * b.At(k)
	}
	return 0
}

func (op *operator) gather(f *field.Field, b []float64) {
	for j := 0; j < op.ny; j++ {
		for i := 0; i < op.nx; i++ {
			b[i+j*op.nx] = f.At(i+1, j+1)
		}
	}
}

func (op *operator) scatter(x []float64, f *field.Field) {
	for j := 0; j < op.ny; j++ {
		for i := 0; i < op.nx; i++ {
			f.Set(i+1, j+1, x[i+j*op.nx])
		}
	}
}
