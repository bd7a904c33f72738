/*package mat contains a banded matrix type and an LU factorization for it.
Elimination is done without pivoting, which keeps the factors inside the
band. It is intended for diagonally dominant systems like discrete Laplacians.
*/
package mat

import (
	"errors"
	"fmt"
	"math"
)

var ErrSingular = errors.New("mat: matrix is singular to working precision")

// Band is an N x N matrix which is zero outside of Lower sub-diagonals and
// Upper super-diagonals. Row i is stored at Vals[i*width : (i+1)*width], with
// element (i, j) at column offset j - i + Lower.
type Band struct {
	Vals         []float64
	N            int
	Lower, Upper int
	width        int
}

type LUFactors struct {
	lu Band
}

func NewBand(n, lower, upper int) *Band {
	if n <= 0 {
		panic("n must be positive.")
	} else if lower < 0 || upper < 0 {
		panic("bandwidths must be non-negative.")
	}
	w := lower + upper + 1
	return &Band{
		Vals: make([]float64, n*w), N: n,
		Lower: lower, Upper: upper, width: w,
	}
}

// InBand returns true if (i, j) lies inside the band.
func (m *Band) InBand(i, j int) bool {
	return j-i <= m.Upper && i-j <= m.Lower && i >= 0 && j >= 0 &&
		i < m.N && j < m.N
}

func (m *Band) At(i, j int) float64 {
	if !m.InBand(i, j) {
		return 0
	}
	return m.Vals[i*m.width+j-i+m.Lower]
}

func (m *Band) Set(i, j int, x float64) {
	if !m.InBand(i, j) {
		panic(fmt.Sprintf("(%d, %d) is outside the band.", i, j))
	}
	m.Vals[i*m.width+j-i+m.Lower] = x
}

func (m *Band) Add(i, j int, x float64) {
	if !m.InBand(i, j) {
		panic(fmt.Sprintf("(%d, %d) is outside the band.", i, j))
	}
	m.Vals[i*m.width+j-i+m.Lower] += x
}

// MulVec computes out = m * xs.
func (m *Band) MulVec(xs, out []float64) {
	for i := 0; i < m.N; i++ {
		jLo, jHi := i-m.Lower, i+m.Upper
		if jLo < 0 {
			jLo = 0
		}
		if jHi > m.N-1 {
			jHi = m.N - 1
		}

		sum := 0.0
		iOffset := i*m.width - i + m.Lower
		for j := jLo; j <= jHi; j++ {
			sum += m.Vals[iOffset+j] * xs[j]
		}
		out[i] = sum
	}
}

func NewLUFactors(n, lower, upper int) *LUFactors {
	return &LUFactors{lu: *NewBand(n, lower, upper)}
}

func (m *Band) LU() (*LUFactors, error) {
	luf := NewLUFactors(m.N, m.Lower, m.Upper)
	if err := m.LUFactorsAt(luf); err != nil {
		return nil, err
	}
	return luf, nil
}

// LUFactorsAt factors m into luf, which must have the same shape.
func (m *Band) LUFactorsAt(luf *LUFactors) error {
	if luf.lu.N != m.N || luf.lu.Lower != m.Lower || luf.lu.Upper != m.Upper {
		panic("luf has different dimensions than m.")
	}

	a := &luf.lu
	copy(a.Vals, m.Vals)
	n, w, lower := a.N, a.width, a.Lower

	scale := 0.0
	for _, x := range a.Vals {
		if ax := math.Abs(x); ax > scale {
			scale = ax
		}
	}
	if scale == 0 {
		return ErrSingular
	}

	for k := 0; k < n; k++ {
		kOffset := k*w - k + lower
		pivot := a.Vals[kOffset+k]
		if math.Abs(pivot) <= 1e-14*scale {
			return fmt.Errorf("%w: zero pivot in row %d", ErrSingular, k)
		}

		iHi, jHi := k+a.Lower, k+a.Upper
		if iHi > n-1 {
			iHi = n - 1
		}
		if jHi > n-1 {
			jHi = n - 1
		}

		for i := k + 1; i <= iHi; i++ {
			iOffset := i*w - i + lower
			a.Vals[iOffset+k] /= pivot
			tmp := a.Vals[iOffset+k]
			if tmp == 0 {
				continue
			}
			for j := k + 1; j <= jHi; j++ {
				a.Vals[iOffset+j] -= tmp * a.Vals[kOffset+j]
			}
		}
	}
	return nil
}

// SolveVector solves M * xs = bs for xs.
//
// bs and xs may point to the same physical memory.
func (luf *LUFactors) SolveVector(bs, xs []float64) {
	n := luf.lu.N
	if n != len(bs) {
		panic("len(b) != luf.N")
	} else if n != len(xs) {
		panic("len(x) != luf.N")
	}

	// A x = b -> (L U) x = b -> L (U x) = b -> L y = b
	ys := xs
	copy(ys, bs)

	// Solve L * y = b for y.
	forwardSubst(&luf.lu, ys)
	// Solve U * x = y for x.
	backSubst(&luf.lu, ys)
}

// Solves L * y = b for y in place. L has a unit diagonal.
// y_i = b_i - sum_j=i-lower^i-1 (alpha_ij y_j)
func forwardSubst(a *Band, ys []float64) {
	for i := 0; i < a.N; i++ {
		jLo := i - a.Lower
		if jLo < 0 {
			jLo = 0
		}
		iOffset := i*a.width - i + a.Lower
		sum := ys[i]
		for j := jLo; j < i; j++ {
			sum -= a.Vals[iOffset+j] * ys[j]
		}
		ys[i] = sum
	}
}

// Solves U * x = y for x in place.
// x_i = (y_i - sum_j=i+1^i+upper (beta_ij x_j)) / beta_ii
func backSubst(a *Band, xs []float64) {
	for i := a.N - 1; i >= 0; i-- {
		jHi := i + a.Upper
		if jHi > a.N-1 {
			jHi = a.N - 1
		}
		iOffset := i*a.width - i + a.Lower
		sum := xs[i]
		for j := i + 1; j <= jHi; j++ {
			sum -= a.Vals[iOffset+j] * xs[j]
		}
		xs[i] = sum / a.Vals[iOffset+i]
	}
}
