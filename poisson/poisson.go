/*package poisson solves the discrete pressure Poisson equation on the cell
centers of a staggered grid.

Every backend discretizes the Laplacian with the standard 5-point stencil.
Guard values are eliminated using the boundary conditions of the solution
Field, so Dirichlet, Neumann and periodic sides are honored exactly.
Inhomogeneous boundary values are moved to the right hand side. Problems with
no Dirichlet side are singular. For these the mean of the right hand side is
removed and the returned solution has zero mean.
*/
package poisson

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/phil-mansfield/flowx/field"
	"github.com/phil-mansfield/flowx/geom"
)

var (
	ErrNotConverged = errors.New("poisson: solver did not converge")
	ErrUnsupported  = errors.New("poisson: unsupported boundary condition")
	ErrUnknown      = errors.New("poisson: unknown solver")
	ErrMismatch     = errors.New("poisson: field does not match solver")
)

const (
	DefaultMaxIter = 2000
	DefaultTol     = 1e-9
)

// Status reports how a solve went. Residual is the 2-norm of the final
// residual relative to the 2-norm of the right hand side.
type Status struct {
	Iterations int
	Residual   float64
	Converged  bool
}

// Solver is the capability required by the projection step. Solve writes the
// solution of Laplacian(sol) = rhs into sol and fills its guard cells.
// Identical inputs always give identical outputs.
type Solver interface {
	Solve(rhs, sol *field.Field) (Status, error)
}

// Options control the iterative backends.
type Options struct {
	MaxIter int
	Tol     float64
}

// DefaultOptions returns the default iteration limits.
func DefaultOptions() Options {
	return Options{MaxIter: DefaultMaxIter, Tol: DefaultTol}
}

// backend solves A x = b on the flattened interior, with A the operator
// returned by the shared setup.
type backend interface {
	solve(op *operator, b, x []float64) (Status, error)
}

type solver struct {
	name string
	op   *operator
	be   backend
	b, x []float64
}

// Names lists the recognized solver names.
var Names = []string{"cg", "jacobi", "direct"}

// New returns the named Solver for the given boundary condition types. The
// types must match those of every Field later passed to Solve. Values may
// differ from call to call.
func New(name string, g *geom.Grid, bc field.BoundarySet, opt Options) (Solver, error) {
	if err := bc.Check(); err != nil {
		return nil, err
	}
	for s, b := range bc {
		switch b.Type {
		case field.Dirichlet, field.Neumann, field.Periodic:
		default:
			return nil, fmt.Errorf(
				"%w: %s on side %s", ErrUnsupported, b.Type, field.Side(s),
			)
		}
	}
	if opt.MaxIter <= 0 {
		opt.MaxIter = DefaultMaxIter
	}
	if opt.Tol <= 0 {
		opt.Tol = DefaultTol
	}

	op := newOperator(g, bc)
	s := &solver{
		name: strings.ToLower(name), op: op,
		b: make([]float64, op.n), x: make([]float64, op.n),
	}

	switch s.name {
	case "cg", "":
		s.name = "cg"
		s.be = newCG(op, opt)
	case "jacobi":
		s.be = newJacobi(op, opt)
	case "direct":
		be, err := newDirect(op, opt)
		if err != nil {
			return nil, err
		}
		s.be = be
	default:
		return nil, fmt.Errorf("%w: '%s'", ErrUnknown, name)
	}
	return s, nil
}

func (s *solver) Solve(rhs, sol *field.Field) (Status, error) {
	if rhs.Loc() != geom.Center || sol.Loc() != geom.Center {
		return Status{}, fmt.Errorf(
			"%w: rhs and sol must be cell-centered", ErrMismatch,
		)
	}
	bc := sol.BCs()
	for i := range bc {
		if bc[i].Type != s.op.bc[i].Type {
			return Status{}, fmt.Errorf(
				"%w: '%s' has %s on %s, solver was built for %s", ErrMismatch,
				sol.Name, bc[i].Type, field.Side(i), s.op.bc[i].Type,
			)
		}
	}

	s.op.gather(rhs, s.b)
	s.op.subtractBoundary(&bc, s.b)
	if s.op.singular {
		removeMean(s.b)
	}

	for i := range s.x {
		s.x[i] = 0
	}
	status, err := s.be.solve(s.op, s.b, s.x)

	if s.op.singular {
		removeMean(s.x)
	}
	s.op.scatter(s.x, sol)
	sol.FillGuardCells()

	if err != nil {
		return status, err
	}
	if !status.Converged {
		return status, fmt.Errorf(
			"%w: %s stopped after %d iterations with residual %g",
			ErrNotConverged, s.name, status.Iterations, status.Residual,
		)
	}
	return status, nil
}

func removeMean(xs []float64) {
	if len(xs) == 0 {
		return
	}
	mean := floats.Sum(xs) / float64(len(xs))
	floats.AddConst(-mean, xs)
}
