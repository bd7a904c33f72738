package interpolate

import (
	"fmt"
	"sort"
)

// searcher finds the interval containing a point in a monotonic sequence.
// Uniform sequences are never stored and are searched in O(1).
type searcher struct {
	xs         []float64
	increasing bool

	unif   bool
	x0, dx float64
	n      int
}

func (s *searcher) init(xs []float64) {
	if len(xs) < 2 {
		panic(fmt.Sprintf("Need at least two points, but got %d.", len(xs)))
	}
	s.xs = xs
	s.n = len(xs)
	s.increasing = xs[1] > xs[0]
	for i := 1; i < len(xs); i++ {
		if (xs[i] > xs[i-1]) != s.increasing || xs[i] == xs[i-1] {
			panic("xs is not strictly monotonic.")
		}
	}
}

func (s *searcher) unifInit(x0, dx float64, n int) {
	if n < 2 {
		panic(fmt.Sprintf("Need at least two points, but got %d.", n))
	} else if dx == 0 {
		panic("dx must be non-zero.")
	}
	s.unif = true
	s.x0, s.dx, s.n = x0, dx, n
	s.increasing = dx > 0
}

// search returns the index i such that x lies in [val(i), val(i+1)]. It
// panics if x is outside the sequence.
func (s *searcher) search(x float64) int {
	lo, hi := s.val(0), s.val(s.n-1)
	if !s.increasing {
		lo, hi = hi, lo
	}
	if x < lo || x > hi || x != x {
		panic(fmt.Sprintf("Point %g is outside the range [%g, %g].", x, lo, hi))
	}

	var i int
	if s.unif {
		i = int((x - s.x0) / s.dx)
	} else if s.increasing {
		i = sort.SearchFloat64s(s.xs, x) - 1
	} else {
		i = sort.Search(s.n, func(k int) bool { return s.xs[k] <= x }) - 1
	}

	if i < 0 {
		i = 0
	} else if i > s.n-2 {
		i = s.n - 2
	}
	return i
}

func (s *searcher) val(i int) float64 {
	if s.unif {
		return s.x0 + float64(i)*s.dx
	}
	return s.xs[i]
}
