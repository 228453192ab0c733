package mc

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Field samples the scalar field at a point in the unit cube.
type Field func(p r3.Vec) float64

// Polygonize runs marching cubes on the CPU over a nx*ny*nz sample
// lattice of the unit cube and returns the iso-surface triangles. This
// is the reference implementation the GPU pyramid is tested against;
// it mirrors the table-driven traversal the extract shader performs.
func Polygonize(f Field, iso float64, nx, ny, nz int) []r3.Triangle {
	if nx < 2 || ny < 2 || nz < 2 {
		return nil
	}

	// Sample once; cells share corners.
	samples := make([]float64, nx*ny*nz)
	idx := func(x, y, z int) int { return (z*ny+y)*nx + x }
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				samples[idx(x, y, z)] = f(lattice(x, y, z, nx, ny, nz))
			}
		}
	}

	var tris []r3.Triangle
	var corners [8]r3.Vec
	var values [8]float64

	for z := 0; z < nz-1; z++ {
		for y := 0; y < ny-1; y++ {
			for x := 0; x < nx-1; x++ {
				caseIndex := 0
				for i, off := range CornerOffsets {
					cx, cy, cz := x+off[0], y+off[1], z+off[2]
					values[i] = samples[idx(cx, cy, cz)]
					corners[i] = lattice(cx, cy, cz, nx, ny, nz)
					if values[i] < iso {
						caseIndex |= 1 << i
					}
				}
				if EdgeTable[caseIndex] == 0 {
					continue
				}

				var edgeVerts [12]r3.Vec
				for e := 0; e < 12; e++ {
					if EdgeTable[caseIndex]&(1<<e) == 0 {
						continue
					}
					a, b := EdgeCorners[e][0], EdgeCorners[e][1]
					edgeVerts[e] = interpolate(corners[a], corners[b], values[a], values[b], iso)
				}

				row := TriTable[caseIndex]
				for t := 0; t < 16 && row[t] >= 0; t += 3 {
					tris = append(tris, r3.Triangle{
						edgeVerts[row[t]],
						edgeVerts[row[t+1]],
						edgeVerts[row[t+2]],
					})
				}
			}
		}
	}
	return tris
}

func lattice(x, y, z, nx, ny, nz int) r3.Vec {
	return r3.Vec{
		X: float64(x) / float64(nx-1),
		Y: float64(y) / float64(ny-1),
		Z: float64(z) / float64(nz-1),
	}
}

func interpolate(pa, pb r3.Vec, va, vb, iso float64) r3.Vec {
	d := vb - va
	t := 0.5
	if d > 1e-12 || d < -1e-12 {
		t = (iso - va) / d
	}
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return r3.Add(pa, r3.Scale(t, r3.Sub(pb, pa)))
}

// TriangleNormal returns the unit normal of t, zero for degenerate
// triangles.
func TriangleNormal(t r3.Triangle) r3.Vec {
	n := r3.Cross(r3.Sub(t[1], t[0]), r3.Sub(t[2], t[0]))
	if r3.Norm(n) == 0 {
		return r3.Vec{}
	}
	return r3.Unit(n)
}

// SurfaceArea sums the triangle areas.
func SurfaceArea(tris []r3.Triangle) float64 {
	total := 0.0
	for _, t := range tris {
		n := r3.Cross(r3.Sub(t[1], t[0]), r3.Sub(t[2], t[0]))
		total += 0.5 * r3.Norm(n)
	}
	return total
}
