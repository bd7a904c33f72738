package field

import (
	"github.com/phil-mansfield/flowx/geom"
)

// FillGuardCells enforces the Field's boundary conditions by writing the
// guard layers, and for face grids the boundary faces normal to the face
// direction. The x sides are filled before the y sides, so corner guards
// take their values from the y conditions.
func (f *Field) FillGuardCells() {
	for _, s := range [...]Side{XLow, XHigh, YLow, YHigh} {
		if f.bc[s].Type == None {
			continue
		}
		if f.normal(s) {
			f.fillNormal(s)
		} else {
			f.fillTangential(s)
		}
	}
}

// normal returns true if side s cuts across the face direction of f, so that
// the outermost interior points are boundary faces rather than cell values.
func (f *Field) normal(s Side) bool {
	switch f.Loc() {
	case geom.FaceX:
		return s.Axis() == 0
	case geom.FaceY:
		return s.Axis() == 1
	}
	return false
}

// line describes one row or column of points perpendicular to a side. It
// maps an offset from the boundary, 0 being the guard point, to a slice
// index.
type line struct {
	start, stride int
}

func (l line) at(k int) int { return l.start + k*l.stride }

// lines returns the number of lines that touch side s, the line which starts
// at the guard point on that side and steps inwards, and the number of
// non-guard points along the line.
func (f *Field) lines(s Side) (n int, lineAt func(k int) line, depth int) {
	sub := f.Sub
	switch s {
	case XLow:
		return sub.NY, func(j int) line { return line{j * sub.NX, 1} }, sub.NX - 2
	case XHigh:
		return sub.NY, func(j int) line {
			return line{j*sub.NX + sub.NX - 1, -1}
		}, sub.NX - 2
	case YLow:
		return sub.NX, func(i int) line { return line{i, sub.NX} }, sub.NY - 2
	default:
		return sub.NX, func(i int) line {
			return line{i + (sub.NY-1)*sub.NX, -sub.NX}
		}, sub.NY - 2
	}
}

func (f *Field) spacing(s Side) float64 {
	if s.Axis() == 0 {
		return f.g.Dx
	}
	return f.g.Dy
}

func (f *Field) fillTangential(s Side) {
	b := &f.bc[s]
	x := f.Vals
	delta := f.spacing(s)
	n, lineAt, depth := f.lines(s)

	for k := 0; k < n; k++ {
		l := lineAt(k)
		g, f1 := l.at(0), l.at(1)
		switch b.Type {
		case Dirichlet:
			x[g] = 2*b.At(k) - x[f1]
		case Neumann:
			x[g] = x[f1] + b.At(k)*delta
		case Outflow:
			x[g] = x[f1]
		case Periodic:
			// The matching interior point on the far side.
			x[g] = x[l.at(depth)]
		case Extrapolate:
			x[g] = 2*x[f1] - x[l.at(2)]
		}
	}
}

func (f *Field) fillNormal(s Side) {
	b := &f.bc[s]
	x := f.Vals
	delta := f.spacing(s)
	n, lineAt, depth := f.lines(s)

	for k := 0; k < n; k++ {
		l := lineAt(k)
		// The guard, the boundary face, and the first two interior faces.
		g, fb, f1, f2 := l.at(0), l.at(1), l.at(2), l.at(3)
		switch b.Type {
		case Dirichlet, Outflow:
			x[fb] = b.At(k)
			x[g] = 2*x[fb] - x[f1]
		case Neumann:
			x[fb] = x[f1] + b.At(k)*delta
			x[g] = x[fb] + b.At(k)*delta
		case Periodic:
			// Faces 1 and depth coincide. The low face is the unknown.
			if s.High() {
				x[fb] = x[l.at(depth)]
				x[g] = x[l.at(depth - 1)]
			} else {
				x[g] = x[l.at(depth - 1)]
			}
		case Extrapolate:
			x[fb] = 2*x[f1] - x[f2]
			x[g] = 2*x[fb] - x[f1]
		}
	}
}
