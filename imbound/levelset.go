package imbound

import (
	"math"

	"github.com/phil-mansfield/flowx/field"
	"github.com/phil-mansfield/flowx/geom"
)

const (
	wenoEps = 1e-15
	// wenoGuard is the number of ghost layers a WENO5 flux needs.
	wenoGuard = 3
	// advectCFL is the largest CFL number of one advection sub-step.
	advectCFL = 0.5
	normalEps = 1e-12
)

// weno5 returns the fifth order WENO reconstruction at the interface between
// c and d for a flow from a towards e.
func weno5(a, b, c, d, e float64) float64 {
	is1 := 13.0/12*sq(a-2*b+c) + 0.25*sq(a-4*b+3*c)
	is2 := 13.0/12*sq(b-2*c+d) + 0.25*sq(b-d)
	is3 := 13.0/12*sq(c-2*d+e) + 0.25*sq(3*c-4*d+e)

	a1 := 0.1 / sq(wenoEps+is1)
	a2 := 0.6 / sq(wenoEps+is2)
	a3 := 0.3 / sq(wenoEps+is3)
	sum := a1 + a2 + a3

	f1 := (2*a - 7*b + 11*c) / 6
	f2 := (-b + 5*c + 2*d) / 6
	f3 := (2*c + 5*d - e) / 6
	return (a1*f1 + a2*f2 + a3*f3) / sum
}

func sq(x float64) float64 { return x * x }

// extended is a copy of a cell-centered Field with extra ghost layers.
type extended struct {
	vals   []float64
	nx, ny int
	off    int
}

func newExtended(f *field.Field, extra int) *extended {
	sub := f.Sub
	e := &extended{nx: sub.NX + 2*extra, ny: sub.NY + 2*extra, off: extra}
	e.vals = make([]float64, e.nx*e.ny)
	return e
}

func (e *extended) at(i, j int) float64 { return e.vals[(i+e.off)+(j+e.off)*e.nx] }

func (e *extended) set(i, j int, x float64) { e.vals[(i+e.off)+(j+e.off)*e.nx] = x }

// load copies f, guards included, and fills the extra layers by periodic
// wrapping on periodic axes and by linear extrapolation elsewhere.
func (e *extended) load(f *field.Field) {
	sub := f.Sub
	for j := 0; j < sub.NY; j++ {
		for i := 0; i < sub.NX; i++ {
			e.set(i, j, f.Vals[i+j*sub.NX])
		}
	}

	bc := f.BCs()
	n := sub.NX - 2
	for j := 0; j < sub.NY; j++ {
		for k := 1; k <= e.off; k++ {
			if bc.PeriodicX() {
				e.set(-k, j, e.at(n-k, j))
				e.set(n+1+k, j, e.at(1+k, j))
			} else {
				e.set(-k, j, 2*e.at(1-k, j)-e.at(2-k, j))
				e.set(n+1+k, j, 2*e.at(n+k, j)-e.at(n-1+k, j))
			}
		}
	}

	m := sub.NY - 2
	for i := -e.off; i < sub.NX+e.off; i++ {
		for k := 1; k <= e.off; k++ {
			if bc.PeriodicY() {
				e.set(i, -k, e.at(i, m-k))
				e.set(i, m+1+k, e.at(i, 1+k))
			} else {
				e.set(i, -k, 2*e.at(i, 1-k)-e.at(i, 2-k))
				e.set(i, m+1+k, 2*e.at(i, m+k)-e.at(i, m-1+k))
			}
		}
	}
}

// faceValue returns the upwind WENO5 value of s at the face between cells
// (i, j) and (i+di, j+dj), which carries the velocity vel.
func (e *extended) faceValue(i, j, di, dj int, vel float64) float64 {
	s := func(k int) float64 { return e.at(i+k*di, j+k*dj) }
	if vel > 0 {
		return weno5(s(-2), s(-1), s(0), s(1), s(2))
	}
	return weno5(s(3), s(2), s(1), s(0), s(-1))
}

// AdvectWENO advances the cell-centered Field s by dt under the velocity
// (u, v) with the flux form of the advection equation. Faces are
// reconstructed with WENO5 and time is integrated with SSP-RK3, sub-cycled so
// that no sub-step exceeds a CFL number of 0.5. The guard cells of u and v
// must be filled.
func AdvectWENO(s, u, v *field.Field, dt float64) {
	g := s.Grid()
	umax, vmax := u.MaxAbs(), v.MaxAbs()
	cfl := dt * (umax/g.Dx + vmax/g.Dy)
	if cfl == 0 {
		return
	}
	steps := int(math.Ceil(cfl / advectCFL))
	h := dt / float64(steps)

	s0 := s.Clone()
	rate := make([]float64, len(s.Vals))
	ext := newExtended(s, wenoGuard-geom.Guard)
	stages := [3][2]float64{{0, 1}, {0.75, 0.25}, {1.0 / 3, 2.0 / 3}}

	for n := 0; n < steps; n++ {
		copy(s0.Vals, s.Vals)
		for _, w := range stages {
			s.FillGuardCells()
			ext.load(s)
			advectionRate(ext, s, u, v, rate)
			iLo, iHi, jLo, jHi := s.Sub.Interior()
			for j := jLo; j <= jHi; j++ {
				for i := iLo; i <= iHi; i++ {
					k := i + j*s.Sub.NX
					s.Vals[k] = w[0]*s0.Vals[k] + w[1]*(s.Vals[k]+h*rate[k])
				}
			}
		}
	}
	s.FillGuardCells()
}

// advectionRate writes -div(s u) on the interior cells of s into rate.
func advectionRate(ext *extended, s, u, v *field.Field, rate []float64) {
	g := s.Grid()
	unx, vnx, snx := u.Sub.NX, v.Sub.NX, s.Sub.NX
	field.Parallel(1, g.Ny, func(j0, j1 int) {
		for j := j0; j <= j1; j++ {
			for i := 1; i <= g.Nx; i++ {
				ul, ur := u.Vals[i+j*unx], u.Vals[i+1+j*unx]
				vl, vr := v.Vals[i+j*vnx], v.Vals[i+(j+1)*vnx]

				fxr := ur * ext.faceValue(i, j, 1, 0, ur)
				fxl := ul * ext.faceValue(i-1, j, 1, 0, ul)
				fyr := vr * ext.faceValue(i, j, 0, 1, vr)
				fyl := vl * ext.faceValue(i, j-1, 0, 1, vl)

				rate[i+j*snx] = -(fxr-fxl)/g.Dx - (fyr-fyl)/g.Dy
			}
		}
	})
}

// RedistanceOptions control Redistance.
type RedistanceOptions struct {
	MaxIter int
	// Tol is the largest change per unit pseudo-time, max|dphi|/dtau, that
	// counts as converged.
	Tol float64
	// Band is the half width of the region around the interface where
	// convergence is measured. Zero means three cell widths.
	Band float64
}

func DefaultRedistanceOptions() RedistanceOptions {
	return RedistanceOptions{MaxIter: 50, Tol: 1e-3}
}

// RedistanceStatus reports how a call to Redistance went.
type RedistanceStatus struct {
	Iterations int
	Change     float64
	Converged  bool
}

// Redistance drives phi towards a signed distance function, |grad phi| = 1,
// while keeping its zero contour, by iterating
// dphi/dtau = sign(phi0) (1 - |grad phi|) with Godunov upwinding. Cells next
// to a sign change of phi0 are held fixed.
func Redistance(phi *field.Field, opt RedistanceOptions) RedistanceStatus {
	g := phi.Grid()
	dx, dy := g.Dx, g.Dy
	dtau := 0.5 * math.Min(dx, dy)
	band := opt.Band
	if band <= 0 {
		band = 3 * math.Max(dx, dy)
	}

	phi.FillGuardCells()
	phi0 := phi.Clone()
	nx := phi.Sub.NX
	pinned := make([]bool, len(phi.Vals))
	for j := 1; j <= g.Ny; j++ {
		for i := 1; i <= g.Nx; i++ {
			k := i + j*nx
			p := phi0.Vals[k]
			for _, d := range []int{1, -1, nx, -nx} {
				if p*phi0.Vals[k+d] <= 0 {
					pinned[k] = true
				}
			}
		}
	}

	old := phi.Clone()
	change := make([]float64, g.Ny+2)
	status := RedistanceStatus{}
	for it := 1; it <= opt.MaxIter; it++ {
		copy(old.Vals, phi.Vals)
		field.Parallel(1, g.Ny, func(j0, j1 int) {
			for j := j0; j <= j1; j++ {
				change[j] = 0
				for i := 1; i <= g.Nx; i++ {
					k := i + j*nx
					if pinned[k] {
						continue
					}
					p0, p := phi0.Vals[k], old.Vals[k]
					a := (p - old.Vals[k-1]) / dx
					b := (old.Vals[k+1] - p) / dx
					c := (p - old.Vals[k-nx]) / dy
					d := (old.Vals[k+nx] - p) / dy

					var grad float64
					if p0 > 0 {
						grad = math.Sqrt(
							math.Max(sq(math.Max(a, 0)), sq(math.Min(b, 0))) +
								math.Max(sq(math.Max(c, 0)), sq(math.Min(d, 0))),
						)
					} else {
						grad = math.Sqrt(
							math.Max(sq(math.Min(a, 0)), sq(math.Max(b, 0))) +
								math.Max(sq(math.Min(c, 0)), sq(math.Max(d, 0))),
						)
					}
					delta := dtau * sign(p0) * (1 - grad)
					phi.Vals[k] = p + delta
					if math.Abs(p0) < band {
						change[j] = math.Max(change[j], math.Abs(delta)/dtau)
					}
				}
			}
		})
		phi.FillGuardCells()

		status.Iterations = it
		status.Change = 0
		for j := 1; j <= g.Ny; j++ {
			status.Change = math.Max(status.Change, change[j])
		}
		if status.Change < opt.Tol {
			status.Converged = true
			break
		}
	}
	return status
}

func sign(x float64) float64 {
	if x > 0 {
		return 1
	} else if x < 0 {
		return -1
	}
	return 0
}

// Normals writes the unit normal grad phi / |grad phi|, computed with central
// differences, into nx and ny. The normal is zero where the gradient
// vanishes.
func Normals(phi, nx, ny *field.Field) {
	g := phi.Grid()
	n := phi.Sub.NX
	field.Parallel(1, g.Ny, func(j0, j1 int) {
		for j := j0; j <= j1; j++ {
			for i := 1; i <= g.Nx; i++ {
				k := i + j*n
				px := (phi.Vals[k+1] - phi.Vals[k-1]) / (2 * g.Dx)
				py := (phi.Vals[k+n] - phi.Vals[k-n]) / (2 * g.Dy)
				norm := math.Sqrt(px*px + py*py)
				if norm < normalEps {
					nx.Vals[k], ny.Vals[k] = 0, 0
				} else {
					nx.Vals[k], ny.Vals[k] = px/norm, py/norm
				}
			}
		}
	})
	nx.FillGuardCells()
	ny.FillGuardCells()
}

// upwindNormal returns n . grad s at index k, using one-sided differences
// taken from the upwind side of n.
func upwindNormal(s []float64, k, stride int, nxv, nyv, dx, dy float64) float64 {
	var sx, sy float64
	if nxv > 0 {
		sx = (s[k] - s[k-1]) / dx
	} else {
		sx = (s[k+1] - s[k]) / dx
	}
	if nyv > 0 {
		sy = (s[k] - s[k-stride]) / dy
	} else {
		sy = (s[k+stride] - s[k]) / dy
	}
	return nxv*sx + nyv*sy
}

// DirectionalDerivative writes the upwinded derivative of s along the
// normal (nx, ny) into out.
func DirectionalDerivative(s, nx, ny, out *field.Field) {
	g := s.Grid()
	n := s.Sub.NX
	for j := 1; j <= g.Ny; j++ {
		for i := 1; i <= g.Nx; i++ {
			k := i + j*n
			out.Vals[k] = upwindNormal(s.Vals, k, n, nx.Vals[k], ny.Vals[k], g.Dx, g.Dy)
		}
	}
	out.FillGuardCells()
}

// ConstantExtrapolation extends s from the solid, phi <= 0, into the fluid by
// iter pseudo-time iterations of ds/dtau + n . grad s = 0.
func ConstantExtrapolation(phi, s, nx, ny *field.Field, iter int) {
	extrapolate(phi, s, nil, nx, ny, iter)
}

// LinearExtrapolation extends s from the solid into the fluid so that its
// normal derivative matches sn, by iter pseudo-time iterations of
// ds/dtau + n . grad s = sn.
func LinearExtrapolation(phi, s, sn, nx, ny *field.Field, iter int) {
	extrapolate(phi, s, sn, nx, ny, iter)
}

func extrapolate(phi, s, sn, nx, ny *field.Field, iter int) {
	g := s.Grid()
	n := s.Sub.NX
	dtau := 0.5 * math.Min(g.Dx, g.Dy)
	old := s.Clone()

	for it := 0; it < iter; it++ {
		copy(old.Vals, s.Vals)
		field.Parallel(1, g.Ny, func(j0, j1 int) {
			for j := j0; j <= j1; j++ {
				for i := 1; i <= g.Nx; i++ {
					k := i + j*n
					if phi.Vals[k] <= 0 {
						continue
					}
					src := 0.0
					if sn != nil {
						src = sn.Vals[k]
					}
					dir := upwindNormal(old.Vals, k, n, nx.Vals[k], ny.Vals[k], g.Dx, g.Dy)
					s.Vals[k] = old.Vals[k] + dtau*(src-dir)
				}
			}
		})
		s.FillGuardCells()
	}
}
