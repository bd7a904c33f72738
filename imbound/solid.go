package imbound

import (
	"math"

	"github.com/phil-mansfield/flowx/field"
)

// detFloor is the smallest deformation gradient determinant which is
// inverted. Smaller determinants give zero stress.
const detFloor = 1e-12

// SolidProps writes the smoothed solid indicator
// psi = (1 + erf(-phi / (2 dx))) / 2 and the solid viscosity mu * psi into
// psi and visc at every point, guards included.
func SolidProps(phi, psi, visc *field.Field, mu float64) {
	dx := phi.Grid().Dx
	for k, p := range phi.Vals {
		h := 0.5 * (1 + math.Erf(-p/(2*dx)))
		psi.Vals[k] = h
		visc.Vals[k] = mu * h
	}
}

// SolidStress computes the elastic stress tau = F F^T - I from the reference
// map (lmx, lmy), where F is the inverse of the reference map gradient.
// tau[0] through tau[3] hold the xx, xy, yx and yy components.
func SolidStress(lmx, lmy *field.Field, tau [4]*field.Field) {
	g := lmx.Grid()
	n := lmx.Sub.NX
	field.Parallel(1, g.Ny, func(j0, j1 int) {
		for j := j0; j <= j1; j++ {
			for i := 1; i <= g.Nx; i++ {
				k := i + j*n
				// The reference map gradient is the inverse of F.
				a := (lmx.Vals[k+1] - lmx.Vals[k-1]) / (2 * g.Dx)
				b := (lmx.Vals[k+n] - lmx.Vals[k-n]) / (2 * g.Dy)
				c := (lmy.Vals[k+1] - lmy.Vals[k-1]) / (2 * g.Dx)
				d := (lmy.Vals[k+n] - lmy.Vals[k-n]) / (2 * g.Dy)

				det := a*d - b*c
				if math.Abs(det) <= detFloor {
					for m := range tau {
						tau[m].Vals[k] = 0
					}
					continue
				}
				f11, f12 := d/det, -b/det
				f21, f22 := -c/det, a/det

				tau[0].Vals[k] = f11*f11 + f12*f12 - 1
				tau[1].Vals[k] = f11*f21 + f12*f22
				tau[2].Vals[k] = tau[1].Vals[k]
				tau[3].Vals[k] = f21*f21 + f22*f22 - 1
			}
		}
	})
	for m := range tau {
		tau[m].FillGuardCells()
	}
}

// SolidUstar adds dt / reS times the divergence of visc * tau to the unknown
// faces of u and v, and writes the force density into fx and fy.
func SolidUstar(u, v, visc *field.Field, tau [4]*field.Field, reS, dt float64, fx, fy *field.Field) {
	g := u.Grid()
	dx, dy := g.Dx, g.Dy
	n := visc.Sub.NX
	mu := visc.Vals
	t1, t2, t3, t4 := tau[0].Vals, tau[1].Vals, tau[2].Vals, tau[3].Vals

	iLo, iHi, jLo, jHi := u.Unknowns()
	unx := u.Sub.NX
	field.Parallel(jLo, jHi, func(j0, j1 int) {
		for j := j0; j <= j1; j++ {
			for i := iLo; i <= iHi; i++ {
				// Face i lies between cells i-1 and i.
				c := i + j*n
				txp := mu[c] * t1[c]
				txm := mu[c-1] * t1[c-1]
				typ := (mu[c-1+n] + mu[c+n]) / 2 * (t2[c-1+n] + t2[c+n]) / 2
				tym := (mu[c-1-n] + mu[c-n]) / 2 * (t2[c-1-n] + t2[c-n]) / 2

				f := ((txp-txm)/dx + (typ-tym)/(2*dy)) / reS
				k := i + j*unx
				fx.Vals[k] = f
				u.Vals[k] += dt * f
			}
		}
	})

	iLo, iHi, jLo, jHi = v.Unknowns()
	vnx := v.Sub.NX
	field.Parallel(jLo, jHi, func(j0, j1 int) {
		for j := j0; j <= j1; j++ {
			for i := iLo; i <= iHi; i++ {
				// Face j lies between cells j-1 and j.
				c := i + j*n
				txp := (mu[c+1-n] + mu[c+1]) / 2 * (t3[c+1-n] + t3[c+1]) / 2
				txm := (mu[c-1-n] + mu[c-1]) / 2 * (t3[c-1-n] + t3[c-1]) / 2
				typ := mu[c] * t4[c]
				tym := mu[c-n] * t4[c-n]

				f := ((txp-txm)/(2*dx) + (typ-tym)/dy) / reS
				k := i + j*vnx
				fy.Vals[k] = f
				v.Vals[k] += dt * f
			}
		}
	})
}
