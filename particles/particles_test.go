package particles

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(name string) *Set {
	return NewPolygon(name, []Vec{{0, 0}, {1, 0}, {1, 1}, {0, 1}})
}

func TestValidate(t *testing.T) {
	assert.NoError(t, square("sq").Validate())
	assert.NoError(t, NewCircle("c", 0, 0, 1, 64).Validate())

	bad := []*Set{
		NewPolygon("two", []Vec{{0, 0}, {1, 0}}),
		NewPolygon("repeat", []Vec{{0, 0}, {1, 0}, {1, 0}, {0, 1}}),
		NewPolygon("line", []Vec{{0, 0}, {1, 0}, {2, 0}}),
		NewPolygon("bowtie", []Vec{{0, 0}, {1, 1}, {1, 0}, {0, 1}}),
	}
	for _, s := range bad {
		err := s.Validate()
		assert.True(t, errors.Is(err, ErrDegenerateBody), "%s: %v", s.Name, err)
	}
}

func TestSignedDistance(t *testing.T) {
	s := square("sq")
	table := []struct {
		p Vec
		d float64
	}{
		{Vec{0.5, 0.5}, -0.5},
		{Vec{0.25, 0.5}, -0.25},
		{Vec{2, 0.5}, 1},
		{Vec{-1, -1}, math.Sqrt2},
		{Vec{0.5, 1.25}, 0.25},
	}
	for i, test := range table {
		assert.InDelta(t, test.d, s.SignedDistance(test.p), 1e-12, "%d) %v", i, test.p)
	}
	assert.InDelta(t, 1.0, s.Area(), 1e-12)

	c := NewCircle("c", 0, 0, 1, 256)
	assert.InDelta(t, -1, c.SignedDistance(Vec{0, 0}), 1e-3)
	assert.InDelta(t, 1, c.SignedDistance(Vec{2, 0}), 1e-3)
	assert.InDelta(t, math.Pi, c.Area(), 1e-3)
}

func TestMotion(t *testing.T) {
	s := square("sq")
	s.SetVelocity(1, -2)
	assert.True(t, s.Moving())
	s.Advance(0, 0.5)
	assert.Equal(t, Vec{0.5, -1}, s.Markers[0])
	assert.Equal(t, Vec{1, -0.5}, s.Center)

	s.Reset()
	assert.Equal(t, Vec{0, 0}, s.Markers[0])
	assert.Equal(t, Vec{1, -2}, s.Vel)

	r := square("rot")
	assert.False(t, r.Moving())
	r.Omega = math.Pi / 2
	r.Advance(0, 1)
	// A quarter turn about the center maps the square onto itself.
	assert.InDelta(t, 1, r.Markers[0][0], 1e-12)
	assert.InDelta(t, 0, r.Markers[0][1], 1e-12)
	vx, vy := r.Velocity(1, 0.5)
	assert.InDelta(t, 0, vx, 1e-12)
	assert.InDelta(t, math.Pi/4, vy, 1e-12)

	o := square("osc")
	o.Freq, o.Amp = 0.25, Vec{0.1, 0}
	o.Advance(0.5, 0.5)
	assert.InDelta(t, 0.1, o.Markers[1][0]-1, 1e-12)
	assert.InDelta(t, 0, o.Vel[0], 1e-12)

	cl := o.Clone()
	cl.Offset(5, 5)
	assert.InDelta(t, 1.1, o.Markers[1][0], 1e-12)
}

func TestSegmentDistance(t *testing.T) {
	a, b := Vec{0, 0}, Vec{2, 0}
	assert.InDelta(t, 1, SegmentDistance(Vec{1, 1}, a, b), 1e-12)
	assert.InDelta(t, 1, SegmentDistance(Vec{-1, 0}, a, b), 1e-12)
	assert.InDelta(t, math.Sqrt2, SegmentDistance(Vec{3, 1}, a, b), 1e-12)
	assert.InDelta(t, 5, SegmentDistance(Vec{3, 4}, a, a), 1e-12)
	require.True(t, segmentsIntersect(Vec{0, 0}, Vec{1, 1}, Vec{0, 1}, Vec{1, 0}))
}
