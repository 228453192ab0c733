package isoflow

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/isoflow3d/isoflow/hipy"
	"github.com/isoflow3d/isoflow/shaders"
)

// triBufferGrowth is the slack factor when the extraction target has to
// be reallocated for a larger surface.
const triBufferGrowth = 1.1

// SurfaceState is the per-frame iso-surface: the pyramid handle, the
// extraction target doubling as the render vertex buffer, and the
// surface render pipeline.
type SurfaceState struct {
	consts    *hipy.Constants
	surface   *hipy.IsoSurface
	extractor *hipy.Extractor
	field     *MorphField
	iso       float32

	triBuf      *wgpu.Buffer
	triCapacity int // vertices
	vertexCount int

	pipeline   *wgpu.RenderPipeline
	cameraBuf  *wgpu.Buffer
	cameraBind *wgpu.BindGroup

	log Logger
}

// TriangleCount is the triangle count of the last built surface.
func (st *SurfaceState) TriangleCount() int {
	return st.vertexCount / 3
}

// VertexBuffer exposes the extraction target for the emit pass.
func (st *SurfaceState) VertexBuffer() *wgpu.Buffer {
	return st.triBuf
}

// FieldBuffer exposes the coefficient uniform shared with the particle
// animation pass.
func (st *SurfaceState) FieldBuffer() *wgpu.Buffer {
	return st.surface.FieldBuffer()
}

// SurfaceModule builds and renders the morphing iso-surface each frame.
type SurfaceModule struct {
	Volume      VolumeConfig
	Iso         float32
	MorphPeriod float64
}

func (m SurfaceModule) Install(app *App, cmd *Commands) {
	gs := resource[GpuState](app)
	log := app.Logger()

	consts := hipy.NewConstants(gs.device)
	surface := hipy.NewIsoSurface(consts)
	surface.SetLatticeSize(m.Volume.X, m.Volume.Y, m.Volume.Z)
	surface.SetGridExtent(1, 1, 1)
	surface.SetFieldSource(FieldWGSL(1), FieldCoefficients*4)
	if err := surface.Finalize(); err != nil {
		log.Fatalf("surface setup: %v", err)
	}
	extractor, err := surface.NewExtractor()
	if err != nil {
		log.Fatalf("surface setup: %v", err)
	}

	st := &SurfaceState{
		consts:    consts,
		surface:   surface,
		extractor: extractor,
		field:     NewMorphField(m.MorphPeriod),
		iso:       m.Iso,
		log:       log,
	}
	st.createPipeline(gs)

	cmd.AddResources(st)
	cmd.UseSystem(
		System(surfaceBuildSystem).InStage(PreRender),
		System(surfaceDrawSystem).InStage(Render),
	)
}

func (st *SurfaceState) createPipeline(gs *GpuState) {
	device := gs.device

	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Surface Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.SurfaceWGSL},
	})
	if err != nil {
		panic(err)
	}
	defer module.Release()

	st.pipeline, err = device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Surface Pipeline",
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: hipy.SurfaceVertexStride,
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 0},
					{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 1},
				},
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    gs.surfaceConfig.Format,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone, // two-sided shading
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: true,
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

	st.cameraBuf = createGpuBuffer(device, "Surface Camera", 4*64,
		wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	st.cameraBind, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Surface Camera BG",
		Layout: st.pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: st.cameraBuf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		panic(err)
	}
}

// ensureTriBuffer grows the extraction target to hold n vertices with
// slack, logging each reallocation.
func (st *SurfaceState) ensureTriBuffer(device *wgpu.Device, n int) {
	if n <= st.triCapacity {
		return
	}
	capacity := int(float64(n) * triBufferGrowth)
	st.log.Infof("resizing surface vertex buffer to %d vertices", capacity)
	if st.triBuf != nil {
		st.triBuf.Release()
	}
	st.triBuf = createGpuBuffer(device, "Surface Vertices",
		hipy.VertexBufferSize(capacity),
		wgpu.BufferUsageStorage|wgpu.BufferUsageVertex)
	st.triCapacity = capacity
}

// surfaceBuildSystem uploads the blended field coefficients, builds the
// histogram pyramid, reads the vertex count back and extracts the
// surface into the vertex buffer.
func surfaceBuildSystem(st *SurfaceState, gs *GpuState, tm *Time) {
	cc := st.field.Coefficients(tm.T)
	gs.queue.WriteBuffer(st.surface.FieldBuffer(), 0, PackFieldUniform(cc))

	encoder, err := gs.device.CreateCommandEncoder(nil)
	if err != nil {
		panic(err)
	}
	st.surface.Build(encoder, st.iso)
	submit(gs, encoder)
	encoder.Release()

	n := st.surface.VertexCount()
	st.vertexCount = n
	if n == 0 {
		return
	}
	st.ensureTriBuffer(gs.device, n)

	encoder, err = gs.device.CreateCommandEncoder(nil)
	if err != nil {
		panic(err)
	}
	st.extractor.Extract(encoder, n, st.iso, st.triBuf)
	submit(gs, encoder)
	encoder.Release()
}

func surfaceDrawSystem(st *SurfaceState, gs *GpuState, fs *FrameState, cam *CameraState) {
	if fs.pass == nil || st.vertexCount == 0 {
		return
	}
	gs.queue.WriteBuffer(st.cameraBuf, 0, packCameraUniform(cam))

	fs.pass.SetPipeline(st.pipeline)
	fs.pass.SetBindGroup(0, st.cameraBind, nil)
	fs.pass.SetVertexBuffer(0, st.triBuf, 0, wgpu.WholeSize)
	fs.pass.Draw(uint32(st.vertexCount), 1, 0, 0)
}
