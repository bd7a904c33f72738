package ins

import (
	"github.com/phil-mansfield/flowx/field"
)

// rescaleFloor is the smallest outflow which Rescale will divide by.
const rescaleFloor = 1e-13

// normalField returns the velocity component normal to side s.
func normalField(u, v *field.Field, s field.Side) *field.Field {
	if s.Axis() == 0 {
		return u
	}
	return v
}

// boundaryLine returns the number of boundary faces on side s of the normal
// component f, and functions mapping the position k along the side (from 1)
// to the slice indices of the boundary face and its interior neighbor.
func boundaryLine(f *field.Field, s field.Side) (n int, face, inner func(k int) int) {
	g := f.Grid()
	nx := f.Sub.NX
	switch s {
	case field.XLow:
		return g.Ny, func(k int) int { return 1 + k*nx },
			func(k int) int { return 2 + k*nx }
	case field.XHigh:
		return g.Ny, func(k int) int { return g.Nx + 1 + k*nx },
			func(k int) int { return g.Nx + k*nx }
	case field.YLow:
		return g.Nx, func(k int) int { return k + nx },
			func(k int) int { return k + 2*nx }
	default:
		return g.Nx, func(k int) int { return k + (g.Ny+1)*nx },
			func(k int) int { return k + g.Ny*nx }
	}
}

// SideFlux returns the volume flux leaving the domain through side s.
func SideFlux(u, v *field.Field, s field.Side) float64 {
	f := normalField(u, v, s)
	g := f.Grid()
	n, face, _ := boundaryLine(f, s)

	width := g.Dy
	if s.Axis() == 1 {
		width = g.Dx
	}
	sum := 0.0
	for k := 1; k <= n; k++ {
		sum += f.Vals[face(k)]
	}
	if s.High() {
		return sum * width
	}
	return -sum * width
}

func sideType(u, v *field.Field, s field.Side) field.BCType {
	return normalField(u, v, s).BC(s).Type
}

// Qin returns the net volume flux entering the domain through all closed,
// non-periodic sides.
func Qin(u, v *field.Field) float64 {
	q := 0.0
	for s := field.XLow; s < field.NumSides; s++ {
		switch sideType(u, v, s) {
		case field.Outflow, field.Periodic:
		default:
			q -= SideFlux(u, v, s)
		}
	}
	return q
}

// Qout returns the net volume flux leaving the domain through outflow sides.
func Qout(u, v *field.Field) float64 {
	q := 0.0
	for s := field.XLow; s < field.NumSides; s++ {
		if sideType(u, v, s) == field.Outflow {
			q += SideFlux(u, v, s)
		}
	}
	return q
}

// HasOutflow returns true if any side of the normal velocity is an outflow.
func HasOutflow(u, v *field.Field) bool {
	for s := field.XLow; s < field.NumSides; s++ {
		if sideType(u, v, s) == field.Outflow {
			return true
		}
	}
	return false
}

// Rescale multiplies the outflow boundary velocities by qin/Qout so that the
// outflow balances qin. It returns the scale factor, which is 1 if there is
// no measurable outflow.
func Rescale(u, v *field.Field, qin float64) float64 {
	qout := Qout(u, v)
	if qout <= rescaleFloor {
		return 1
	}
	scale := qin / qout

	for s := field.XLow; s < field.NumSides; s++ {
		if sideType(u, v, s) != field.Outflow {
			continue
		}
		f := normalField(u, v, s)
		n, face, _ := boundaryLine(f, s)
		for k := 1; k <= n; k++ {
			f.Vals[face(k)] *= scale
		}
		syncProfile(f, s)
	}
	return scale
}

// UpdateOutflow advances the outflow boundary velocities over dt with the
// convective equation du/dt + c du/dn = 0, where c is the mean outward
// velocity through the side.
func UpdateOutflow(u, v *field.Field, dt float64) {
	for s := field.XLow; s < field.NumSides; s++ {
		if sideType(u, v, s) != field.Outflow {
			continue
		}
		f := normalField(u, v, s)
		g := f.Grid()
		n, face, inner := boundaryLine(f, s)
		delta := g.Dx
		if s.Axis() == 1 {
			delta = g.Dy
		}

		mean := 0.0
		for k := 1; k <= n; k++ {
			mean += f.Vals[face(k)]
		}
		c := mean / float64(n)
		if !s.High() {
			c = -c
		}

		for k := 1; k <= n; k++ {
			ub, ui := f.Vals[face(k)], f.Vals[inner(k)]
			f.Vals[face(k)] = ub - c*dt*(ub-ui)/delta
		}
		syncProfile(f, s)
	}
}

// syncProfile copies the current boundary faces on side s into the boundary
// profile, so that guard fills preserve them.
func syncProfile(f *field.Field, s field.Side) {
	n, face, _ := boundaryLine(f, s)
	prof := make([]float64, n+2)
	for k := 1; k <= n; k++ {
		prof[k] = f.Vals[face(k)]
	}
	prof[0], prof[n+1] = prof[1], prof[n]
	// The profile length always matches the side, so this cannot fail.
	if err := f.SetProfile(s, prof); err != nil {
		panic(err.Error())
	}
}
