package isoflow

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// The demo morphs between seven algebraic surfaces, each described by
// twelve coefficients over the monomial basis
//
//	x^5, x^4, y^4, z^4, x^2y^2, x^2z^2, y^2z^2, xyz, x^2, y^2, z^2, 1
//
// in centered coordinates q = 2p - 1, p in the unit cube.
const FieldCoefficients = 12

// ShapeNames, in morph order.
var ShapeNames = [7]string{
	"helix", "blend-a", "blend-b", "daddel", "torus", "kiss", "cayley",
}

var shapeTable = [7][FieldCoefficients]float32{
	// helix
	{0.0, -2.0, 0.0, 0.0, 0.0, 0.0, -1.0, 0.0, 6.0, 0.0, 0.0, 0.0},
	// in-between shapes
	{0.0, 8.0, 0.5, 0.5, 4.0, 4.0, -1.4, 0.0, 0.0, 0.0, 0.0, 0.0},
	{0.0, 16.0, 1.0, 1.0, 8.0, 8.0, -2.0, 0.0, -6.0, 0.0, 0.0, 0.0},
	// daddel
	{0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 1.0, 1.0, 0.3, -0.95},
	// torus
	{0.0, 1.0, 1.0, 1.0, 2.0, 2.0, 2.0, 0.0, -1.01125, -1.01125, 0.94875, 0.225032},
	// kiss
	{-0.5, -0.5, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 1.0, 1.0, 0.0},
	// cayley
	{0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 16.0, 4.0, 4.0, 4.0, -1.0},
}

// MorphField produces the blended coefficient set for the demo clock.
type MorphField struct {
	// PeriodPerShape is the seconds each shape anchors the blend.
	PeriodPerShape float64
}

func NewMorphField(periodPerShape float64) *MorphField {
	return &MorphField{PeriodPerShape: periodPerShape}
}

// Coefficients blends between the shape anchored at t and the one
// anchored at t+1. The blend weight runs over the whole period without
// clamping; the resulting extrapolation is what gives the demo its
// violent morphing and is kept as-is.
func (f *MorphField) Coefficients(t float64) [FieldCoefficients]float32 {
	p := f.PeriodPerShape
	n := len(shapeTable)
	shape1 := int(t/p) % n
	shape2 := int((t+1.0)/p) % n
	u := float32(math.Mod(t+1.0, p))

	var cc [FieldCoefficients]float32
	for i := 0; i < FieldCoefficients; i++ {
		cc[i] = (1.0-u)*shapeTable[shape1][i] + u*shapeTable[shape2][i]
	}
	return cc
}

// Eval computes the scalar field at p in the unit cube.
func FieldEval(c [FieldCoefficients]float32, p mgl32.Vec3) float32 {
	x := 2.0*p.X() - 1.0
	y := 2.0*p.Y() - 1.0
	z := 2.0*p.Z() - 1.0

	x2, y2, z2 := x*x, y*y, z*z
	x4, y4, z4 := x2*x2, y2*y2, z2*z2

	return c[0]*x4*x +
		c[1]*x4 + c[2]*y4 + c[3]*z4 +
		c[4]*x2*y2 + c[5]*x2*z2 + c[6]*y2*z2 +
		c[7]*x*y*z +
		c[8]*x2 + c[9]*y2 + c[10]*z2 +
		c[11]
}

// FieldGradient approximates the gradient by central differences. Used
// on the CPU side only (tests and fieldpreview); the shaders carry the
// same differencing in WGSL.
func FieldGradient(c [FieldCoefficients]float32, p mgl32.Vec3, h float32) mgl32.Vec3 {
	return mgl32.Vec3{
		FieldEval(c, p.Add(mgl32.Vec3{h, 0, 0})) - FieldEval(c, p.Sub(mgl32.Vec3{h, 0, 0})),
		FieldEval(c, p.Add(mgl32.Vec3{0, h, 0})) - FieldEval(c, p.Sub(mgl32.Vec3{0, h, 0})),
		FieldEval(c, p.Add(mgl32.Vec3{0, 0, h})) - FieldEval(c, p.Sub(mgl32.Vec3{0, 0, h})),
	}.Mul(1.0 / (2.0 * h))
}

// PackFieldUniform lays the coefficients out as three vec4s, the WGSL
// uniform layout emitted by FieldWGSL.
func PackFieldUniform(c [FieldCoefficients]float32) []byte {
	buf := make([]byte, FieldCoefficients*4)
	for i, v := range c {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// FieldWGSL returns the scalar_field source injected into every shader
// that samples the surface: the hipy classify and extract passes and
// the particle animation pass. The coefficient uniform binds at the
// given group so each pipeline can place its own bindings first.
func FieldWGSL(group int) string {
	return fmt.Sprintf(`struct FieldParams {
    c0: vec4<f32>, // x^5, x^4, y^4, z^4
    c1: vec4<f32>, // x^2y^2, x^2z^2, y^2z^2, xyz
    c2: vec4<f32>, // x^2, y^2, z^2, 1
};
@group(%d) @binding(0) var<uniform> field_params: FieldParams;

fn scalar_field(p: vec3<f32>) -> f32 {
    let q = 2.0 * p - vec3<f32>(1.0);
    let q2 = q * q;
    let q4 = q2 * q2;
    let c = field_params;
    return c.c0.x * q4.x * q.x
         + dot(c.c0.yzw, q4)
         + dot(c.c1.xyz, vec3<f32>(q2.x * q2.y, q2.x * q2.z, q2.y * q2.z))
         + c.c1.w * q.x * q.y * q.z
         + dot(c.c2.xyz, q2)
         + c.c2.w;
}

fn field_gradient(p: vec3<f32>, h: f32) -> vec3<f32> {
    let dx = scalar_field(p + vec3<f32>(h, 0.0, 0.0)) - scalar_field(p - vec3<f32>(h, 0.0, 0.0));
    let dy = scalar_field(p + vec3<f32>(0.0, h, 0.0)) - scalar_field(p - vec3<f32>(0.0, h, 0.0));
    let dz = scalar_field(p + vec3<f32>(0.0, 0.0, h)) - scalar_field(p - vec3<f32>(0.0, 0.0, h));
    return vec3<f32>(dx, dy, dz) / (2.0 * h);
}
`, group)
}
