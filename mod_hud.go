package isoflow

import (
	"fmt"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/isoflow3d/isoflow/shaders"
)

// InfoString formats the per-frame status line: frame rate, lattice
// resolution, million voxels classified per second, and the surface and
// particle sizes.
func InfoString(fps float64, vol VolumeConfig, triangles, particles int) string {
	mvps := int(float64((vol.X-1)*(vol.Y-1)*(vol.Z-1)) * fps / 1e6)
	return fmt.Sprintf("%.5g fps, %dx%dx%d samples, %d MVPS, %d triangles, %d particles",
		fps, vol.X, vol.Y, vol.Z, mvps, triangles, particles)
}

// HudState draws the status line as a screen-space text overlay.
type HudState struct {
	renderer *TextRenderer
	pipeline *wgpu.RenderPipeline
	bind     *wgpu.BindGroup

	vertexBuf *wgpu.Buffer
	vertexCap int // vertices

	volume VolumeConfig
}

type HudModule struct {
	Volume VolumeConfig
}

func (m HudModule) Install(app *App, cmd *Commands) {
	gs := resource[GpuState](app)
	device := gs.device

	st := &HudState{
		renderer: NewTextRenderer(),
		volume:   m.Volume,
	}

	// Atlas texture.
	atlas := st.renderer.AtlasImage
	w := uint32(atlas.Bounds().Dx())
	h := uint32(atlas.Bounds().Dy())
	extent := wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}
	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Text Atlas",
		Size:          extent,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatR8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		panic(err)
	}
	gs.queue.WriteTexture(tex.AsImageCopy(), atlas.Pix, &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  w,
		RowsPerImage: h,
	}, &extent)
	atlasView, err := tex.CreateView(nil)
	if err != nil {
		panic(err)
	}

	sampler, err := device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:     "Text Sampler",
		MagFilter: wgpu.FilterModeNearest,
		MinFilter: wgpu.FilterModeNearest,
	})
	if err != nil {
		panic(err)
	}

	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Text Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.TextWGSL},
	})
	if err != nil {
		panic(err)
	}
	defer module.Release()

	st.pipeline, err = device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Text Pipeline",
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: uint64(unsafe.Sizeof(TextVertex{})),
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
					{Format: wgpu.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
					{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 2},
				},
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format: gs.surfaceConfig.Format,
				Blend: &wgpu.BlendState{
					Color: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorSrcAlpha,
						DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
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
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: false,
			DepthCompare:      wgpu.CompareFunctionAlways,
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

	st.bind, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Text BG",
		Layout: st.pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: atlasView, Size: wgpu.WholeSize},
			{Binding: 1, Sampler: sampler, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		panic(err)
	}

	cmd.AddResources(st)
	cmd.UseSystem(System(hudDrawSystem).InStage(Render))
}

func (st *HudState) ensureVertexBuffer(device *wgpu.Device, n int) {
	if n <= st.vertexCap {
		return
	}
	if st.vertexBuf != nil {
		st.vertexBuf.Release()
	}
	st.vertexCap = n * 2
	st.vertexBuf = createGpuBuffer(device, "Text Vertices",
		uint64(st.vertexCap)*uint64(unsafe.Sizeof(TextVertex{})),
		wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst)
}

func hudDrawSystem(st *HudState, surf *SurfaceState, ps *ParticleState, gs *GpuState, fs *FrameState, tm *Time, ws *WindowState) {
	if fs.pass == nil {
		return
	}
	line := InfoString(tm.FPS, st.volume, surf.TriangleCount(), ps.Count())
	vertices := st.renderer.BuildVertices([]TextItem{{
		Text:     line,
		Position: [2]float32{10, 10},
		Scale:    1.5,
		Color:    [4]float32{1, 1, 1, 1},
	}}, ws.WindowWidth, ws.WindowHeight)
	if len(vertices) == 0 {
		return
	}

	st.ensureVertexBuffer(gs.device, len(vertices))
	gs.queue.WriteBuffer(st.vertexBuf, 0, wgpu.ToBytes(vertices))

	fs.pass.SetPipeline(st.pipeline)
	fs.pass.SetBindGroup(0, st.bind, nil)
	fs.pass.SetVertexBuffer(0, st.vertexBuf, 0, wgpu.WholeSize)
	fs.pass.Draw(uint32(len(vertices)), 1, 0, 0)
}
