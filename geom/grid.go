package geom

import (
	"fmt"
)

// Location identifies where on a staggered cell a quantity lives.
type Location int

const (
	Center Location = iota
	FaceX
	FaceY
	EndLocation
)

func (loc Location) String() string {
	switch loc {
	case Center:
		return "center"
	case FaceX:
		return "facex"
	case FaceY:
		return "facey"
	}
	panic(fmt.Sprintf("Unknown Location %d", int(loc)))
}

// Guard is the number of guard layers on every side of every SubGrid.
const Guard = 1

// Grid is an immutable description of a rectangular 2D domain together with
// its three staggered sub-grids.
type Grid struct {
	Xmin, Xmax, Ymin, Ymax float64
	Nx, Ny                 int
	Dx, Dy                 float64

	Center, FaceX, FaceY *SubGrid
}

// SubGrid provides an interface for reasoning over a 1D slice as if it were
// a 2D array of values located at one point of each staggered cell.
//
// Every SubGrid carries Guard layers on each side. For the cell-center
// SubGrid index (i, j) with 1 <= i <= Nx is the cell centered at
// Xmin + (i - 1/2)*Dx. For FaceX, index i is the left face of cell i, so the
// boundary faces are i = 1 and i = Nx+1. FaceY is the transpose.
type SubGrid struct {
	Loc      Location
	NX, NY   int
	Length   int
	X, Y     []float64
	Guard    int
	iHi, jHi int
}

// NewGrid returns a new Grid instance. An error is returned if the
// resolution or extents are invalid.
func NewGrid(xmin, xmax, ymin, ymax float64, nx, ny int) (*Grid, error) {
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf(
			"geom: grid resolution must be positive, got %d x %d", nx, ny,
		)
	} else if !(xmax > xmin) || !(ymax > ymin) {
		return nil, fmt.Errorf(
			"geom: empty domain [%g, %g] x [%g, %g]", xmin, xmax, ymin, ymax,
		)
	}

	g := &Grid{
		Xmin: xmin, Xmax: xmax, Ymin: ymin, Ymax: ymax,
		Nx: nx, Ny: ny,
		Dx: (xmax - xmin) / float64(nx), Dy: (ymax - ymin) / float64(ny),
	}
	g.Center = g.newSubGrid(Center)
	g.FaceX = g.newSubGrid(FaceX)
	g.FaceY = g.newSubGrid(FaceY)
	return g, nil
}

func (g *Grid) newSubGrid(loc Location) *SubGrid {
	sg := &SubGrid{Loc: loc, Guard: Guard}

	// Offsets of the zeroth array element from the lower domain corner.
	x0, y0 := g.Xmin-g.Dx/2, g.Ymin-g.Dy/2
	sg.NX, sg.NY = g.Nx+2*Guard, g.Ny+2*Guard
	sg.iHi, sg.jHi = g.Nx, g.Ny

	switch loc {
	case FaceX:
		x0 = g.Xmin - g.Dx
		sg.NX++
		sg.iHi++
	case FaceY:
		y0 = g.Ymin - g.Dy
		sg.NY++
		sg.jHi++
	}

	sg.Length = sg.NX * sg.NY
	sg.X = make([]float64, sg.NX)
	sg.Y = make([]float64, sg.NY)
	for i := range sg.X {
		sg.X[i] = x0 + float64(i)*g.Dx
	}
	for j := range sg.Y {
		sg.Y[j] = y0 + float64(j)*g.Dy
	}

	return sg
}

// Sub returns the SubGrid for the given Location.
func (g *Grid) Sub(loc Location) *SubGrid {
	switch loc {
	case Center:
		return g.Center
	case FaceX:
		return g.FaceX
	case FaceY:
		return g.FaceY
	}
	panic(fmt.Sprintf("Unknown Location %d", int(loc)))
}

// Idx returns the slice index corresponding to a set of coordinates.
func (sg *SubGrid) Idx(i, j int) int {
	return i + j*sg.NX
}

// Interior returns the inclusive index ranges of the non-guard points. For
// face grids this includes both boundary faces.
func (sg *SubGrid) Interior() (iLo, iHi, jLo, jHi int) {
	return Guard, sg.iHi, Guard, sg.jHi
}

// Position returns the physical position of the point at (i, j).
func (sg *SubGrid) Position(i, j int) (x, y float64) {
	return sg.X[i], sg.Y[j]
}

// Contains returns true if (x, y) lies inside the closed domain.
func (g *Grid) Contains(x, y float64) bool {
	return x >= g.Xmin && x <= g.Xmax && y >= g.Ymin && y <= g.Ymax
}

// Area returns the area of a single cell.
func (g *Grid) Area() float64 { return g.Dx * g.Dy }
