// Package hipy builds iso-surfaces of programmable scalar fields on the
// GPU using a histogram pyramid: a classify pass counts the marching-
// cubes output vertices of every grid cell, reduction passes sum the
// counts into a pyramid whose apex is the total, and an extraction pass
// walks the pyramid top-down to emit one vertex per thread into a
// caller-provided buffer.
//
// The scalar field is supplied as a WGSL snippet defining
//
//	fn scalar_field(p: vec3<f32>) -> f32
//	fn field_gradient(p: vec3<f32>, h: f32) -> vec3<f32>
//
// with any uniforms it needs bound at group 1. The snippet is prepended
// to the classify and extract shaders, so the same field feeds every
// pass that samples the surface.
package hipy

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Constants carries the device-level state shared by all iso-surface
// handles created against one device.
type Constants struct {
	Device *wgpu.Device
	Queue  *wgpu.Queue
}

func NewConstants(device *wgpu.Device) *Constants {
	return &Constants{
		Device: device,
		Queue:  device.GetQueue(),
	}
}

// CheckAdapter verifies the limits the pyramid passes rely on. The
// demo treats a failure here as fatal, matching the original's GL
// version gate.
func CheckAdapter(adapter *wgpu.Adapter) error {
	limits := adapter.GetLimits()
	if limits.Limits.MaxComputeInvocationsPerWorkgroup < 256 {
		return fmt.Errorf("adapter supports %d compute invocations per workgroup, need 256",
			limits.Limits.MaxComputeInvocationsPerWorkgroup)
	}
	if limits.Limits.MaxStorageBuffersPerShaderStage < 5 {
		return fmt.Errorf("adapter supports %d storage buffers per stage, need 5",
			limits.Limits.MaxStorageBuffersPerShaderStage)
	}
	return nil
}

// SurfaceVertexStride is the byte stride of extracted vertices:
// vec4 position followed by vec4 normal.
const SurfaceVertexStride = 32

// VertexBufferSize returns the byte size needed to hold n extracted
// vertices.
func VertexBufferSize(n int) uint64 {
	return uint64(n) * SurfaceVertexStride
}
