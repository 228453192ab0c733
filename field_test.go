package isoflow

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestCoefficientsAtCycleStart(t *testing.T) {
	f := NewMorphField(13.0)
	// At t=0 both anchors are the first shape and the blend weight is
	// exactly one, so the result is the first shape verbatim.
	cc := f.Coefficients(0)
	assert.Equal(t, shapeTable[0], cc)
}

func TestCoefficientsMidBlend(t *testing.T) {
	f := NewMorphField(13.0)
	// t=12.5: anchor shapes 0 and 1, weight u = fmod(13.5, 13) = 0.5.
	cc := f.Coefficients(12.5)
	for i := 0; i < FieldCoefficients; i++ {
		want := 0.5*shapeTable[0][i] + 0.5*shapeTable[1][i]
		assert.InDelta(t, want, cc[i], 1e-5, "coefficient %d", i)
	}
}

func TestCoefficientsMidPeriodHoldsShape(t *testing.T) {
	f := NewMorphField(13.0)
	// Mid-period both anchors are the same shape; the unclamped weight
	// cancels out and the shape holds steady until the last second.
	cc := f.Coefficients(5.0)
	for i := 0; i < FieldCoefficients; i++ {
		assert.InDelta(t, shapeTable[0][i], cc[i], 1e-4, "coefficient %d", i)
	}
}

func TestCoefficientsShapeWraps(t *testing.T) {
	f := NewMorphField(13.0)
	// The shape index is periodic over seven shapes.
	a := f.Coefficients(3.0)
	b := f.Coefficients(3.0 + 7*13.0)
	assert.Equal(t, a, b)
}

func TestFieldEvalConstant(t *testing.T) {
	var cc [FieldCoefficients]float32
	cc[11] = 1.0
	for _, p := range []mgl32.Vec3{{0, 0, 0}, {0.5, 0.5, 0.5}, {1, 0.3, 0.9}} {
		assert.InDelta(t, 1.0, float64(FieldEval(cc, p)), 1e-6)
	}
}

func TestFieldEvalQuadratic(t *testing.T) {
	// f = x'^2 with x' = 2x-1.
	var cc [FieldCoefficients]float32
	cc[8] = 1.0
	assert.InDelta(t, 1.0, float64(FieldEval(cc, mgl32.Vec3{0, 0.5, 0.5})), 1e-6)
	assert.InDelta(t, 0.0, float64(FieldEval(cc, mgl32.Vec3{0.5, 0.5, 0.5})), 1e-6)
	assert.InDelta(t, 0.25, float64(FieldEval(cc, mgl32.Vec3{0.75, 0.5, 0.5})), 1e-6)
}

func TestFieldGradientMatchesAnalytic(t *testing.T) {
	// f = x'^2 has df/dx = 4x' in lattice coordinates.
	var cc [FieldCoefficients]float32
	cc[8] = 1.0
	p := mgl32.Vec3{0.75, 0.5, 0.5}
	g := FieldGradient(cc, p, 1e-3)
	assert.InDelta(t, 2.0, float64(g.X()), 1e-3)
	assert.InDelta(t, 0.0, float64(g.Y()), 1e-3)
	assert.InDelta(t, 0.0, float64(g.Z()), 1e-3)
}

func TestPackFieldUniform(t *testing.T) {
	var cc [FieldCoefficients]float32
	for i := range cc {
		cc[i] = float32(i) + 0.5
	}
	buf := PackFieldUniform(cc)
	assert.Len(t, buf, FieldCoefficients*4)
	for i := range cc {
		got := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
		assert.Equal(t, cc[i], got)
	}
}

func TestFieldWGSLBindGroup(t *testing.T) {
	src := FieldWGSL(1)
	assert.Contains(t, src, "@group(1) @binding(0)")
	assert.Contains(t, src, "fn scalar_field")
	assert.Contains(t, src, "fn field_gradient")

	src = FieldWGSL(2)
	assert.Contains(t, src, "@group(2) @binding(0)")
	assert.False(t, strings.Contains(src, "@group(1)"))
}

func TestShapeTableShapes(t *testing.T) {
	assert.Equal(t, len(ShapeNames), len(shapeTable))
	// The torus carries the exact published constants.
	torus := shapeTable[4]
	assert.InDelta(t, -1.01125, float64(torus[8]), 1e-9)
	assert.InDelta(t, 0.94875, float64(torus[10]), 1e-9)
	assert.InDelta(t, 0.225032, float64(torus[11]), 1e-9)
}
