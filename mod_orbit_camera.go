package isoflow

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// CameraState is the per-frame matrix set consumed by the render
// pipelines: projection, modelview, normal matrix (inverse transpose)
// and inverse modelview, all around the unit box holding the surface.
type CameraState struct {
	Proj     mgl32.Mat4
	MV       mgl32.Mat4
	NM       mgl32.Mat4
	MVInv    mgl32.Mat4
	Distance float32 // orbit radius from the box center
}

// OrbitCameraModule circles the view slowly around the box center.
type OrbitCameraModule struct {
	Distance float32 // from the box center, 0 picks the default
}

func (m OrbitCameraModule) Install(app *App, cmd *Commands) {
	dist := m.Distance
	if dist <= 0 {
		dist = 2.0
	}
	cmd.AddResources(&CameraState{Distance: dist})
	cmd.UseSystem(System(orbitCameraSystem))
}

func orbitCameraSystem(cam *CameraState, tm *Time, gs *GpuState) {
	dist := cam.Distance
	angle := float32(0.2 * tm.Elapsed)

	center := mgl32.Vec3{0.5, 0.5, 0.5}
	eye := center.Add(mgl32.Vec3{
		dist * float32(math.Cos(float64(angle))),
		0.7,
		dist * float32(math.Sin(float64(angle))),
	})

	cam.Proj = mgl32.Perspective(mgl32.DegToRad(50), gs.aspect(), 0.05, 100.0)
	cam.MV = mgl32.LookAtV(eye, center, mgl32.Vec3{0, 1, 0})
	cam.MVInv = cam.MV.Inv()
	cam.NM = cam.MVInv.Transpose()
}

// packCameraUniform lays the matrix set out for the CameraParams WGSL
// struct: proj, mv, nm, mv_inv as consecutive column-major mat4x4.
func packCameraUniform(cam *CameraState) []byte {
	buf := make([]byte, 4*64)
	off := 0
	for _, m := range []mgl32.Mat4{cam.Proj, cam.MV, cam.NM, cam.MVInv} {
		for i := 0; i < 16; i++ {
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(m[i]))
			off += 4
		}
	}
	return buf
}
