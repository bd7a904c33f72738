package interpolate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func value(x, y float64) float64 {
	return 2*x + 3*y
}

func TestLinear(t *testing.T) {
	xs := []float64{0, 0.5, 2, 3}
	vals := []float64{1, 2, 5, 5}
	lin := NewLinear(xs, vals)

	assert.InDelta(t, 1.0, lin.Eval(0), 1e-15, "left edge")
	assert.InDelta(t, 1.5, lin.Eval(0.25), 1e-15, "first interval")
	assert.InDelta(t, 3.0, lin.Eval(1), 1e-15, "second interval")
	assert.InDelta(t, 5.0, lin.Eval(3), 1e-15, "right edge")
	assert.Panics(t, func() { lin.Eval(3.1) }, "out of range")

	dec := NewLinear([]float64{3, 2, 0.5, 0}, []float64{5, 5, 2, 1})
	assert.InDelta(t, 3.0, dec.Eval(1), 1e-15, "decreasing")

	out := lin.EvalAll([]float64{0.25, 1})
	assert.InDeltaSlice(t, []float64{1.5, 3}, out, 1e-15)
}

func TestUniformBiLinear(t *testing.T) {
	nx, ny := 11, 6
	step := 0.1
	vals := make([]float64, nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			vals[i+j*nx] = value(float64(i)*step, float64(j)*step)
		}
	}
	interp := NewUniformBiLinear(0, step, nx, 0, step, ny, vals)

	// Bilinear interpolation is exact for linear functions.
	assert.InDelta(t, value(0.5, 0.2), interp.Eval(0.5, 0.2), 1e-12, "on grid")
	assert.InDelta(t, value(0.51, 0.2), interp.Eval(0.51, 0.2), 1e-12, "nearby x")
	assert.InDelta(t, value(0.5, 0.23), interp.Eval(0.5, 0.23), 1e-12, "nearby y")
	assert.InDelta(t, value(1.0, 0.5), interp.Eval(1.0, 0.5), 1e-12, "corner")
	assert.InDelta(t, value(0, 0), interp.Eval(0, 0), 1e-12, "origin")

	xs := []float64{0.11, 0.57, 0.93}
	out := interp.EvalAllY(xs, 0.31)
	for i := range xs {
		assert.InDelta(t, value(xs[i], 0.31), out[i], 1e-12)
	}
}

func TestBiLinearProduct(t *testing.T) {
	xs := []float64{0, 1, 3}
	ys := []float64{0, 2}
	vals := make([]float64, 6)
	for j, y := range ys {
		for i, x := range xs {
			vals[i+j*3] = x * y
		}
	}
	bi := NewBiLinear(xs, ys, vals)
	// x*y is bilinear, so it is also reproduced exactly.
	assert.InDelta(t, 2.0*1.5, bi.Eval(2, 1.5), 1e-12)
	assert.InDeltaSlice(t, []float64{0, 0.5, 1.0}, bi.EvalAllX(0.5, []float64{0, 1, 2}), 1e-12)
	assert.InDeltaSlice(t, []float64{0, 1.5, 4.5}, bi.EvalAllY([]float64{0, 1, 3}, 1.5), 1e-12)
}
