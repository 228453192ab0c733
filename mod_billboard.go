package isoflow

import (
	"encoding/binary"
	"math"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/isoflow3d/isoflow/shaders"
)

// BillboardState renders the particles as additive view-aligned quads,
// one instance per particle, reading positions straight from the
// particle storage buffer.
type BillboardState struct {
	pipeline  *wgpu.RenderPipeline
	paramsBuf *wgpu.Buffer

	bind    *wgpu.BindGroup
	bindKey *wgpu.Buffer

	size  float32
	color [3]float32
}

type BillboardModule struct {
	Size  float32 // view-space half size, 0 picks the default
	Color [3]float32
}

func (m BillboardModule) Install(app *App, cmd *Commands) {
	gs := resource[GpuState](app)
	device := gs.device

	size := m.Size
	if size <= 0 {
		size = 0.01
	}

	st := &BillboardState{
		size:  size,
		color: m.Color,
	}

	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Billboard Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.BillboardWGSL},
	})
	if err != nil {
		panic(err)
	}
	defer module.Release()

	st.pipeline, err = device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Billboard Pipeline",
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format: gs.surfaceConfig.Format,
				Blend: &wgpu.BlendState{
					Color: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorOne,
						DstFactor: wgpu.BlendFactorOne,
						Operation: wgpu.BlendOperationAdd,
					},
					Alpha: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorOne,
						DstFactor: wgpu.BlendFactorOne,
						Operation: wgpu.BlendOperationAdd,
					},
				},
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleStrip,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: false, // additive particles read depth only
			DepthCompare:      wgpu.CompareFunctionLess,
		},
		Multisample: wgpu.MultisampleState{
			Count:                  1,
			Mask:                   0xFFFFFFFF,
			AlphaToCoverageEnabled: false,
		},
	})
	if err != nil {
		panic(err)
	}

	st.paramsBuf = createGpuBuffer(device, "Billboard Params", 2*64+16+16,
		wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)

	cmd.AddResources(st)
	cmd.UseSystem(System(billboardDrawSystem).InStage(Render))
}

func (st *BillboardState) writeParams(queue *wgpu.Queue, cam *CameraState, count int) {
	buf := make([]byte, 2*64+16+16)
	off := 0
	for _, m := range [2][16]float32{[16]float32(cam.Proj), [16]float32(cam.MV)} {
		for i := 0; i < 16; i++ {
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(m[i]))
			off += 4
		}
	}
	binary.LittleEndian.PutUint32(buf[off+0:], math.Float32bits(st.color[0]))
	binary.LittleEndian.PutUint32(buf[off+4:], math.Float32bits(st.color[1]))
	binary.LittleEndian.PutUint32(buf[off+8:], math.Float32bits(st.color[2]))
	binary.LittleEndian.PutUint32(buf[off+12:], math.Float32bits(1.0))
	binary.LittleEndian.PutUint32(buf[off+16:], math.Float32bits(st.size))
	binary.LittleEndian.PutUint32(buf[off+20:], uint32(count))
	queue.WriteBuffer(st.paramsBuf, 0, buf)
}

func (st *BillboardState) bindGroup(device *wgpu.Device, particles *wgpu.Buffer) *wgpu.BindGroup {
	if st.bind != nil && st.bindKey == particles {
		return st.bind
	}
	if st.bind != nil {
		st.bind.Release()
	}
	bg, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Billboard BG",
		Layout: st.pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: st.paramsBuf, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: particles, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		panic(err)
	}
	st.bind = bg
	st.bindKey = particles
	return bg
}

func billboardDrawSystem(st *BillboardState, ps *ParticleState, gs *GpuState, fs *FrameState, cam *CameraState) {
	count := ps.Count()
	if fs.pass == nil || count == 0 {
		return
	}
	st.writeParams(gs.queue, cam, count)

	fs.pass.SetPipeline(st.pipeline)
	fs.pass.SetBindGroup(0, st.bindGroup(gs.device, ps.CurrentBuffer()), nil)
	fs.pass.Draw(4, uint32(count), 0, 0)
}
