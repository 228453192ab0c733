package hipy

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/isoflow3d/isoflow/hipy/mc"
	"github.com/isoflow3d/isoflow/hipy/shaders"
)

const extractParamsSize = 48 + 16 + maxLevels*16

// Extractor walks a built pyramid and writes one vertex per thread into
// a caller-provided storage buffer. Separate from IsoSurface so several
// output targets can share one pyramid.
type Extractor struct {
	surface *IsoSurface

	pipeline  *wgpu.ComputePipeline
	paramsBuf *wgpu.Buffer
	triTable  *wgpu.Buffer

	fieldBindGrp *wgpu.BindGroup

	// Group 0 depends on the output buffer; cache per target so the
	// steady state allocates nothing.
	cachedOut *wgpu.Buffer
	cachedBG  *wgpu.BindGroup
}

// NewExtractor compiles the extraction pipeline against the surface's
// field source. Call after Finalize.
func (s *IsoSurface) NewExtractor() (*Extractor, error) {
	if !s.finalized {
		return nil, fmt.Errorf("hipy: NewExtractor before Finalize")
	}
	device := s.consts.Device

	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "hipy extract",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: s.fieldSrc + shaders.ExtractWGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("hipy: extract shader: %w", err)
	}
	defer module.Release()

	pipeline, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: "hipy extract pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("hipy: extract pipeline: %w", err)
	}

	paramsBuf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "hipy extract params",
		Size:  extractParamsSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		panic(err)
	}

	triTable, err := device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "hipy tri table",
		Contents: wgpu.ToBytes(mc.PackedTriTable()),
		Usage:    wgpu.BufferUsageStorage,
	})
	if err != nil {
		panic(err)
	}

	e := &Extractor{
		surface:   s,
		pipeline:  pipeline,
		paramsBuf: paramsBuf,
		triTable:  triTable,
	}
	if s.fieldBuf != nil {
		e.fieldBindGrp, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "hipy extract bg1",
			Layout: pipeline.GetBindGroupLayout(1),
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: s.fieldBuf, Size: wgpu.WholeSize},
			},
		})
		if err != nil {
			panic(err)
		}
	}
	return e, nil
}

func (e *Extractor) writeParams(vertexCount uint32, iso float32) {
	s := e.surface
	buf := make([]byte, extractParamsSize)
	binary.LittleEndian.PutUint32(buf[0:], s.lattice[0])
	binary.LittleEndian.PutUint32(buf[4:], s.lattice[1])
	binary.LittleEndian.PutUint32(buf[8:], s.lattice[2])
	binary.LittleEndian.PutUint32(buf[16:], s.cells[0])
	binary.LittleEndian.PutUint32(buf[20:], s.cells[1])
	binary.LittleEndian.PutUint32(buf[24:], s.cells[2])
	binary.LittleEndian.PutUint32(buf[28:], s.levels[0].Len)
	binary.LittleEndian.PutUint32(buf[32:], uint32(len(s.levels)))
	binary.LittleEndian.PutUint32(buf[36:], vertexCount)
	binary.LittleEndian.PutUint32(buf[48:], math.Float32bits(s.extent[0]))
	binary.LittleEndian.PutUint32(buf[52:], math.Float32bits(s.extent[1]))
	binary.LittleEndian.PutUint32(buf[56:], math.Float32bits(s.extent[2]))
	binary.LittleEndian.PutUint32(buf[60:], math.Float32bits(iso))
	for i, lvl := range s.levels {
		binary.LittleEndian.PutUint32(buf[64+i*16:], lvl.Off)
	}
	s.consts.Queue.WriteBuffer(e.paramsBuf, 0, buf)
}

// Extract records the extraction pass for vertexCount vertices into
// out. The buffer must hold VertexBufferSize(vertexCount) bytes with
// storage usage; iso must match the value passed to Build.
func (e *Extractor) Extract(encoder *wgpu.CommandEncoder, vertexCount int, iso float32, out *wgpu.Buffer) {
	if vertexCount <= 0 {
		return
	}
	s := e.surface
	e.writeParams(uint32(vertexCount), iso)

	if out != e.cachedOut {
		if e.cachedBG != nil {
			e.cachedBG.Release()
		}
		bg, err := s.consts.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "hipy extract bg0",
			Layout: e.pipeline.GetBindGroupLayout(0),
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: e.paramsBuf, Size: wgpu.WholeSize},
				{Binding: 1, Buffer: s.pyramidBuf, Size: wgpu.WholeSize},
				{Binding: 2, Buffer: s.cellCasesBuf, Size: wgpu.WholeSize},
				{Binding: 3, Buffer: e.triTable, Size: wgpu.WholeSize},
				{Binding: 4, Buffer: out, Size: wgpu.WholeSize},
			},
		})
		if err != nil {
			panic(err)
		}
		e.cachedOut = out
		e.cachedBG = bg
	}

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(e.pipeline)
	pass.SetBindGroup(0, e.cachedBG, nil)
	if e.fieldBindGrp != nil {
		pass.SetBindGroup(1, e.fieldBindGrp, nil)
	}
	pass.DispatchWorkgroups(dispatchSize1D(uint32(vertexCount)), 1, 1)
	pass.End()
}

// Release frees the extractor's GPU objects.
func (e *Extractor) Release() {
	if e.cachedBG != nil {
		e.cachedBG.Release()
	}
	if e.fieldBindGrp != nil {
		e.fieldBindGrp.Release()
	}
	e.triTable.Release()
	e.paramsBuf.Release()
	e.pipeline.Release()
}
