package isoflow

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func testCamera() *CameraState {
	cam := &CameraState{Distance: 2}
	cam.Proj = mgl32.Perspective(mgl32.DegToRad(50), 16.0/9.0, 0.05, 100)
	cam.MV = mgl32.LookAtV(
		mgl32.Vec3{2.5, 1.2, 0.5},
		mgl32.Vec3{0.5, 0.5, 0.5},
		mgl32.Vec3{0, 1, 0})
	cam.MVInv = cam.MV.Inv()
	cam.NM = cam.MVInv.Transpose()
	return cam
}

func TestCameraMatrixRelationships(t *testing.T) {
	cam := testCamera()

	ident := cam.MV.Mul4(cam.MVInv)
	for i, v := range ident {
		want := 0.0
		if i%5 == 0 {
			want = 1.0
		}
		assert.InDelta(t, want, float64(v), 1e-5, "element %d", i)
	}

	nm := cam.MVInv.Transpose()
	assert.Equal(t, nm, cam.NM)
}

func TestCameraLooksAtBoxCenter(t *testing.T) {
	cam := testCamera()
	// The box center lands on the view axis: zero x and y in view space.
	p := cam.MV.Mul4x1(mgl32.Vec4{0.5, 0.5, 0.5, 1})
	assert.InDelta(t, 0, float64(p.X()), 1e-5)
	assert.InDelta(t, 0, float64(p.Y()), 1e-5)
	assert.Less(t, float64(p.Z()), 0.0, "center should sit in front of the camera")
}

func TestPackCameraUniform(t *testing.T) {
	cam := testCamera()
	buf := packCameraUniform(cam)
	assert.Len(t, buf, 4*64)

	first := math.Float32frombits(binary.LittleEndian.Uint32(buf[0:]))
	assert.Equal(t, cam.Proj[0], first)

	// The modelview block starts after the projection matrix.
	mv0 := math.Float32frombits(binary.LittleEndian.Uint32(buf[64:]))
	assert.Equal(t, cam.MV[0], mv0)
}
