package ins

import (
	"github.com/phil-mansfield/flowx/field"
)

// Tendency evaluates the explicit right hand side of the momentum equations,
// convection in divergence form plus nu times the 5-point Laplacian, at every
// unknown face of u and v. The guard cells of u and v must be filled. Only
// the unknown faces of hx and hy are written.
func Tendency(u, v *field.Field, nu float64, hx, hy *field.Field) {
	g := u.Grid()
	dx, dy := g.Dx, g.Dy
	idx2, idy2 := 1/(dx*dx), 1/(dy*dy)
	unx, vnx := u.Sub.NX, v.Sub.NX
	uv, vv := u.Vals, v.Vals

	iLo, iHi, jLo, jHi := u.Unknowns()
	field.Parallel(jLo, jHi, func(j0, j1 int) {
		for j := j0; j <= j1; j++ {
			for i := iLo; i <= iHi; i++ {
				k := i + j*unx
				uP, uE, uW := uv[k], uv[k+1], uv[k-1]
				uN, uS := uv[k+unx], uv[k-unx]

				// v on the four corners of the u control volume.
				vsw, vse := vv[i-1+j*vnx], vv[i+j*vnx]
				vnw, vne := vv[i-1+(j+1)*vnx], vv[i+(j+1)*vnx]

				conv := ((uP+uE)*(uP+uE)-(uW+uP)*(uW+uP))/(4*dx) +
					((uP+uN)*(vnw+vne)-(uS+uP)*(vsw+vse))/(4*dy)
				diff := (uE-2*uP+uW)*idx2 + (uN-2*uP+uS)*idy2
				hx.Vals[k] = nu*diff - conv
			}
		}
	})

	iLo, iHi, jLo, jHi = v.Unknowns()
	field.Parallel(jLo, jHi, func(j0, j1 int) {
		for j := j0; j <= j1; j++ {
			for i := iLo; i <= iHi; i++ {
				k := i + j*vnx
				vP, vE, vW := vv[k], vv[k+1], vv[k-1]
				vN, vS := vv[k+vnx], vv[k-vnx]

				usw, use := uv[i+(j-1)*unx], uv[i+1+(j-1)*unx]
				unw, une := uv[i+j*unx], uv[i+1+j*unx]

				conv := ((une+use)*(vP+vE)-(unw+usw)*(vW+vP))/(4*dx) +
					((vP+vN)*(vP+vN)-(vS+vP)*(vS+vP))/(4*dy)
				diff := (vE-2*vP+vW)*idx2 + (vN-2*vP+vS)*idy2
				hy.Vals[k] = nu*diff - conv
			}
		}
	})
}

// Divergence writes the discrete divergence of (u, v) into the interior
// cells of div.
func Divergence(u, v, div *field.Field) {
	g := u.Grid()
	idx, idy := 1/g.Dx, 1/g.Dy
	unx, vnx, cnx := u.Sub.NX, v.Sub.NX, div.Sub.NX

	field.Parallel(1, g.Ny, func(j0, j1 int) {
		for j := j0; j <= j1; j++ {
			for i := 1; i <= g.Nx; i++ {
				du := u.Vals[i+1+j*unx] - u.Vals[i+j*unx]
				dv := v.Vals[i+(j+1)*vnx] - v.Vals[i+j*vnx]
				div.Vals[i+j*cnx] = du*idx + dv*idy
			}
		}
	})
}

// faceRange returns the inclusive range of faces along the normal direction
// of a face Field which a pressure gradient acts on. Unknown faces always
// count. If boundary is true, a boundary face also counts when the pressure
// side next to it is Dirichlet.
func faceRange(f *field.Field, pbc field.BoundarySet, axis int, boundary bool) (lo, hi int) {
	iLo, iHi, jLo, jHi := f.Unknowns()
	lo, hi = iLo, iHi
	low, high := field.XLow, field.XHigh
	if axis == 1 {
		lo, hi = jLo, jHi
		low, high = field.YLow, field.YHigh
	}
	if !boundary {
		return lo, hi
	}
	if pbc[low].Type == field.Dirichlet {
		lo--
	}
	if pbc[high].Type == field.Dirichlet {
		hi++
	}
	return lo, hi
}

// addGradient adds c times the gradient of the cell-centered Field p to the
// faces of u and v which faceRange selects. The guard cells of p must be
// filled.
func addGradient(u, v, p *field.Field, c float64, boundary bool) {
	g := u.Grid()
	pbc := p.BCs()
	cx, cy := c/g.Dx, c/g.Dy
	unx, vnx, pnx := u.Sub.NX, v.Sub.NX, p.Sub.NX

	iLo, iHi := faceRange(u, pbc, 0, boundary)
	field.Parallel(1, g.Ny, func(j0, j1 int) {
		for j := j0; j <= j1; j++ {
			for i := iLo; i <= iHi; i++ {
				u.Vals[i+j*unx] += cx * (p.Vals[i+j*pnx] - p.Vals[i-1+j*pnx])
			}
		}
	})

	jLo, jHi := faceRange(v, pbc, 1, boundary)
	field.Parallel(jLo, jHi, func(j0, j1 int) {
		for j := j0; j <= j1; j++ {
			for i := 1; i <= g.Nx; i++ {
				v.Vals[i+j*vnx] += cy * (p.Vals[i+j*pnx] - p.Vals[i+(j-1)*pnx])
			}
		}
	})
}
