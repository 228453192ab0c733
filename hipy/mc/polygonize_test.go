package mc

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func sphereField(radius float64) Field {
	center := r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}
	return func(p r3.Vec) float64 {
		return r3.Norm(r3.Sub(p, center)) - radius
	}
}

func TestPolygonizeSphere(t *testing.T) {
	const radius = 0.3
	tris := Polygonize(sphereField(radius), 0, 48, 48, 48)
	if len(tris) == 0 {
		t.Fatal("sphere produced no triangles")
	}

	// Every vertex sits on the iso-surface up to one cell of error.
	center := r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}
	cell := 1.0 / 47.0
	for _, tri := range tris {
		for _, v := range tri {
			d := r3.Norm(r3.Sub(v, center))
			if math.Abs(d-radius) > cell {
				t.Fatalf("vertex %v at distance %g from center, want %g", v, d, radius)
			}
		}
	}

	// Total area approximates the analytic sphere area.
	want := 4 * math.Pi * radius * radius
	got := SurfaceArea(tris)
	if math.Abs(got-want)/want > 0.05 {
		t.Errorf("surface area %g, want within 5%% of %g", got, want)
	}
}

func TestPolygonizeEmptyField(t *testing.T) {
	flat := func(p r3.Vec) float64 { return 1.0 }
	if tris := Polygonize(flat, 0, 16, 16, 16); len(tris) != 0 {
		t.Errorf("field with no crossing produced %d triangles", len(tris))
	}
}

func TestPolygonizeDegenerateLattice(t *testing.T) {
	if tris := Polygonize(sphereField(0.3), 0, 1, 16, 16); tris != nil {
		t.Errorf("single-sample axis should produce nil, got %d triangles", len(tris))
	}
}

func TestTriangleNormalPointsOutward(t *testing.T) {
	tri := r3.Triangle{
		r3.Vec{X: 0, Y: 0, Z: 0},
		r3.Vec{X: 1, Y: 0, Z: 0},
		r3.Vec{X: 0, Y: 1, Z: 0},
	}
	n := TriangleNormal(tri)
	if math.Abs(n.Z-1) > 1e-12 || math.Abs(n.X) > 1e-12 || math.Abs(n.Y) > 1e-12 {
		t.Errorf("normal %v, want +Z", n)
	}

	degenerate := r3.Triangle{tri[0], tri[0], tri[1]}
	if TriangleNormal(degenerate) != (r3.Vec{}) {
		t.Error("degenerate triangle should have zero normal")
	}
}
