package hipy

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/isoflow3d/isoflow/hipy/mc"
	"github.com/isoflow3d/isoflow/hipy/shaders"
)

// IsoSurface owns the histogram pyramid for one scalar field: the
// classify and reduction pipelines, the pyramid and case buffers, and
// the apex readback used for the vertex-count query.
type IsoSurface struct {
	consts *Constants

	lattice [3]uint32
	cells   [3]uint32
	extent  [3]float32

	fieldSrc string
	levels   []pyramidLevel

	basePipeline   *wgpu.ComputePipeline
	reducePipeline *wgpu.ComputePipeline

	buildParamsBuf *wgpu.Buffer
	caseCountsBuf  *wgpu.Buffer
	pyramidBuf     *wgpu.Buffer
	cellCasesBuf   *wgpu.Buffer
	fieldBuf       *wgpu.Buffer
	readbackBuf    *wgpu.Buffer

	baseBindGroup0  *wgpu.BindGroup
	baseBindGroup1  *wgpu.BindGroup
	reduceParamBufs []*wgpu.Buffer
	reduceBindGrps  []*wgpu.BindGroup

	finalized bool
}

func NewIsoSurface(consts *Constants) *IsoSurface {
	return &IsoSurface{
		consts: consts,
		extent: [3]float32{1, 1, 1},
	}
}

// SetLatticeSize sets the scalar field sample counts per axis. The grid
// defaults to one cell less per axis.
func (s *IsoSurface) SetLatticeSize(x, y, z int) {
	s.lattice = [3]uint32{uint32(x), uint32(y), uint32(z)}
	if s.cells == ([3]uint32{}) {
		s.cells = [3]uint32{uint32(x - 1), uint32(y - 1), uint32(z - 1)}
	}
}

// SetGridSize overrides the marching-cubes cell counts per axis.
func (s *IsoSurface) SetGridSize(x, y, z int) {
	s.cells = [3]uint32{uint32(x), uint32(y), uint32(z)}
}

// SetGridExtent sets the world-space size of the grid.
func (s *IsoSurface) SetGridExtent(x, y, z float32) {
	s.extent = [3]float32{x, y, z}
}

// SetFieldSource supplies the WGSL scalar field snippet (group 1).
// FieldUniformSize bytes of uniform storage are allocated for it; the
// host writes coefficients through FieldBuffer.
func (s *IsoSurface) SetFieldSource(src string, uniformSize int) {
	s.fieldSrc = src
	if uniformSize > 0 {
		buf, err := s.consts.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "hipy field uniform",
			Size:  uint64(uniformSize),
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			panic(err)
		}
		s.fieldBuf = buf
	}
}

// FieldBuffer exposes the field uniform so the host can write morphing
// coefficients each frame, the way HPMC exposes its builder program.
func (s *IsoSurface) FieldBuffer() *wgpu.Buffer {
	return s.fieldBuf
}

// Lattice returns the sample counts per axis.
func (s *IsoSurface) Lattice() (x, y, z int) {
	return int(s.lattice[0]), int(s.lattice[1]), int(s.lattice[2])
}

// CellCount returns the total marching-cubes cell count.
func (s *IsoSurface) CellCount() int {
	return int(s.cells[0]) * int(s.cells[1]) * int(s.cells[2])
}

// Finalize compiles the pyramid pipelines and allocates all static
// buffers. Must be called once after configuration and before Build.
func (s *IsoSurface) Finalize() error {
	if s.finalized {
		return nil
	}
	if s.fieldSrc == "" {
		return fmt.Errorf("hipy: no field source set")
	}
	if s.lattice[0] < 2 || s.lattice[1] < 2 || s.lattice[2] < 2 {
		return fmt.Errorf("hipy: lattice %v too small", s.lattice)
	}

	cells := s.cells[0] * s.cells[1] * s.cells[2]
	s.levels = pyramidLayout(cells)
	if len(s.levels) > maxLevels {
		return fmt.Errorf("hipy: %d pyramid levels exceed the shader limit of %d", len(s.levels), maxLevels)
	}
	padded := s.levels[0].Len

	device := s.consts.Device

	baseModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "hipy base",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: s.fieldSrc + shaders.BaseWGSL},
	})
	if err != nil {
		return fmt.Errorf("hipy: base shader: %w", err)
	}
	defer baseModule.Release()

	reduceModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "hipy reduce",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.ReduceWGSL},
	})
	if err != nil {
		return fmt.Errorf("hipy: reduce shader: %w", err)
	}
	defer reduceModule.Release()

	s.basePipeline, err = device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: "hipy base pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     baseModule,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return fmt.Errorf("hipy: base pipeline: %w", err)
	}

	s.reducePipeline, err = device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: "hipy reduce pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     reduceModule,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return fmt.Errorf("hipy: reduce pipeline: %w", err)
	}

	// Static buffers.
	s.buildParamsBuf, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "hipy build params",
		Size:  48,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		panic(err)
	}

	s.caseCountsBuf, err = device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "hipy case counts",
		Contents: wgpu.ToBytes(mc.CaseVertexCount[:]),
		Usage:    wgpu.BufferUsageStorage,
	})
	if err != nil {
		panic(err)
	}

	s.pyramidBuf, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "hipy pyramid",
		Size:  uint64(pyramidElements(s.levels)) * 4,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		panic(err)
	}

	s.cellCasesBuf, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "hipy cell cases",
		Size:  uint64(padded) * 4,
		Usage: wgpu.BufferUsageStorage,
	})
	if err != nil {
		panic(err)
	}

	s.readbackBuf, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "hipy apex readback",
		Size:  4,
		Usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead,
	})
	if err != nil {
		panic(err)
	}

	// Bind groups: group 0 is the pyramid state, group 1 the field.
	s.baseBindGroup0, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "hipy base bg0",
		Layout: s.basePipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: s.buildParamsBuf, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: s.caseCountsBuf, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: s.pyramidBuf, Size: wgpu.WholeSize},
			{Binding: 3, Buffer: s.cellCasesBuf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		panic(err)
	}
	if s.fieldBuf != nil {
		s.baseBindGroup1, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "hipy base bg1",
			Layout: s.basePipeline.GetBindGroupLayout(1),
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: s.fieldBuf, Size: wgpu.WholeSize},
			},
		})
		if err != nil {
			panic(err)
		}
	}

	// One parameter uniform and bind group per reduction, finest first,
	// cached so Build only records passes.
	for i := 0; i+1 < len(s.levels); i++ {
		src, dst := s.levels[i], s.levels[i+1]
		rp := make([]byte, 16)
		binary.LittleEndian.PutUint32(rp[0:], src.Off)
		binary.LittleEndian.PutUint32(rp[4:], src.Len)
		binary.LittleEndian.PutUint32(rp[8:], dst.Off)
		binary.LittleEndian.PutUint32(rp[12:], dst.Len)

		buf, err := device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    fmt.Sprintf("hipy reduce params %d", i),
			Contents: rp,
			Usage:    wgpu.BufferUsageUniform,
		})
		if err != nil {
			panic(err)
		}
		bg, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  fmt.Sprintf("hipy reduce bg %d", i),
			Layout: s.reducePipeline.GetBindGroupLayout(0),
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: buf, Size: wgpu.WholeSize},
				{Binding: 1, Buffer: s.pyramidBuf, Size: wgpu.WholeSize},
			},
		})
		if err != nil {
			panic(err)
		}
		s.reduceParamBufs = append(s.reduceParamBufs, buf)
		s.reduceBindGrps = append(s.reduceBindGrps, bg)
	}

	s.finalized = true
	return nil
}

func (s *IsoSurface) writeBuildParams(iso float32) {
	buf := make([]byte, 48)
	binary.LittleEndian.PutUint32(buf[0:], s.lattice[0])
	binary.LittleEndian.PutUint32(buf[4:], s.lattice[1])
	binary.LittleEndian.PutUint32(buf[8:], s.lattice[2])
	binary.LittleEndian.PutUint32(buf[16:], s.cells[0])
	binary.LittleEndian.PutUint32(buf[20:], s.cells[1])
	binary.LittleEndian.PutUint32(buf[24:], s.cells[2])
	binary.LittleEndian.PutUint32(buf[28:], s.levels[0].Len)
	binary.LittleEndian.PutUint32(buf[32:], math.Float32bits(iso))
	s.consts.Queue.WriteBuffer(s.buildParamsBuf, 0, buf)
}

// Build records the classify and reduction passes for the current field
// coefficients and queues the apex copy for VertexCount.
func (s *IsoSurface) Build(encoder *wgpu.CommandEncoder, iso float32) {
	if !s.finalized {
		panic("hipy: Build before Finalize")
	}
	s.writeBuildParams(iso)

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(s.basePipeline)
	pass.SetBindGroup(0, s.baseBindGroup0, nil)
	if s.baseBindGroup1 != nil {
		pass.SetBindGroup(1, s.baseBindGroup1, nil)
	}
	pass.DispatchWorkgroups(dispatchSize1D(s.levels[0].Len), 1, 1)

	pass.SetPipeline(s.reducePipeline)
	for i, bg := range s.reduceBindGrps {
		dst := s.levels[i+1]
		pass.SetBindGroup(0, bg, nil)
		pass.DispatchWorkgroups(dispatchSize1D(dst.Len), 1, 1)
	}
	pass.End()

	apex := s.levels[len(s.levels)-1]
	encoder.CopyBufferToBuffer(s.pyramidBuf, uint64(apex.Off)*4, s.readbackBuf, 0, 4)
}

// VertexCount blocks until the apex readback from the last submitted
// Build is available and returns the total output vertex count. This is
// the demo's forced CPU-GPU sync, equivalent to the original's
// acquireNumberOfVertices.
func (s *IsoSurface) VertexCount() int {
	mapped := false
	ok := false
	err := s.readbackBuf.MapAsync(wgpu.MapModeRead, 0, 4, func(status wgpu.BufferMapAsyncStatus) {
		mapped = true
		ok = status == wgpu.BufferMapAsyncStatusSuccess
	})
	if err != nil {
		return 0
	}
	for !mapped {
		s.consts.Device.Poll(true, nil)
	}
	if !ok {
		return 0
	}
	defer s.readbackBuf.Unmap()
	data := s.readbackBuf.GetMappedRange(0, 4)
	return int(binary.LittleEndian.Uint32(data))
}

// Release frees all GPU objects owned by the handle.
func (s *IsoSurface) Release() {
	for _, bg := range s.reduceBindGrps {
		bg.Release()
	}
	for _, buf := range s.reduceParamBufs {
		buf.Release()
	}
	if s.baseBindGroup1 != nil {
		s.baseBindGroup1.Release()
	}
	for _, r := range []*wgpu.Buffer{
		s.buildParamsBuf, s.caseCountsBuf, s.pyramidBuf,
		s.cellCasesBuf, s.fieldBuf, s.readbackBuf,
	} {
		if r != nil {
			r.Release()
		}
	}
	if s.baseBindGroup0 != nil {
		s.baseBindGroup0.Release()
	}
}
