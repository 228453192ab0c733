package isoflow

import (
	"encoding/binary"
	"math"
	"math/rand"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/isoflow3d/isoflow/shaders"
)

const (
	// ParticleStride is the byte size of one particle record: position
	// plus age, velocity plus lifetime.
	ParticleStride = 32

	particleSeed     = 42
	particleSubsteps = 4
	emitSpeed        = 0.4

	// Threshold controller limits. The emission threshold is the modulus
	// selecting which surface triangles spawn a particle; a smaller
	// threshold emits more.
	thresholdMin = 1
	thresholdMax = 100000
	flowSlack    = 100

	particleGrowth = 1.5
)

// nextThreshold adjusts the emission threshold toward the target
// particles-per-second flow.
func nextThreshold(threshold int, emitted int, dt float64, flow int) int {
	pps := float64(emitted) / math.Max(dt, 1e-5)
	switch {
	case pps < float64(flow-flowSlack):
		threshold /= 2
		if threshold < thresholdMin {
			threshold = thresholdMin
		}
	case pps > float64(flow+flowSlack):
		threshold = int(10.1 * float64(threshold))
		if threshold > thresholdMax {
			threshold = thresholdMax
		}
	}
	return threshold
}

// ParticleState holds the ping-pong particle buffers, the shared append
// counter and the emit and animate pipelines.
type ParticleState struct {
	cfg ParticlesConfig
	iso float32

	emitPipeline *wgpu.ComputePipeline
	animPipeline *wgpu.ComputePipeline

	buffers  [2]*wgpu.Buffer
	capacity int
	current  int

	counterBuf     *wgpu.Buffer
	countsReadback *wgpu.Buffer
	emitParamsBuf  *wgpu.Buffer
	animParamsBuf  *wgpu.Buffer

	animFieldBind *wgpu.BindGroup

	emitBind   *wgpu.BindGroup
	emitKeyTri *wgpu.Buffer
	emitKeyDst *wgpu.Buffer
	animBind   *wgpu.BindGroup
	animKeySrc *wgpu.Buffer
	animKeyDst *wgpu.Buffer

	threshold int
	rng       *rand.Rand

	aliveCount  int
	emittedLast int
	lastT       float64

	log Logger
}

// Count is the particle count of the current frame.
func (st *ParticleState) Count() int { return st.aliveCount }

// EmittedLast is the number of particles spawned this frame.
func (st *ParticleState) EmittedLast() int { return st.emittedLast }

// Threshold is the current emission modulus.
func (st *ParticleState) Threshold() int { return st.threshold }

// CurrentBuffer is the buffer holding this frame's particles.
func (st *ParticleState) CurrentBuffer() *wgpu.Buffer {
	return st.buffers[st.current]
}

// ParticlesModule emits particles on the iso-surface and advances them
// with gravity and surface collision.
type ParticlesModule struct {
	Config ParticlesConfig
	Iso    float32
}

func (m ParticlesModule) Install(app *App, cmd *Commands) {
	gs := resource[GpuState](app)
	surf := resource[SurfaceState](app)
	device := gs.device

	st := &ParticleState{
		cfg:       m.Config,
		iso:       m.Iso,
		threshold: m.Config.InitialThreshold,
		rng:       rand.New(rand.NewSource(particleSeed)),
		log:       app.Logger(),
	}

	emitModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Emit Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.EmitWGSL},
	})
	if err != nil {
		panic(err)
	}
	defer emitModule.Release()
	st.emitPipeline, err = device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: "Emit Pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     emitModule,
			EntryPoint: "main",
		},
	})
	if err != nil {
		panic(err)
	}

	animModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Animate Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: FieldWGSL(1) + shaders.AnimateWGSL},
	})
	if err != nil {
		panic(err)
	}
	defer animModule.Release()
	st.animPipeline, err = device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: "Animate Pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     animModule,
			EntryPoint: "main",
		},
	})
	if err != nil {
		panic(err)
	}

	// The animate pass samples the same morphing field the surface was
	// built from, so collisions track the frame's geometry.
	st.animFieldBind, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Animate Field BG",
		Layout: st.animPipeline.GetBindGroupLayout(1),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: surf.FieldBuffer(), Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		panic(err)
	}

	st.counterBuf = createGpuBuffer(device, "Particle Counter", 4,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst|wgpu.BufferUsageCopySrc)
	st.countsReadback = createGpuBuffer(device, "Particle Counts Readback", 8,
		wgpu.BufferUsageCopyDst|wgpu.BufferUsageMapRead)
	st.emitParamsBuf = createGpuBuffer(device, "Emit Params", 48,
		wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	st.animParamsBuf = createGpuBuffer(device, "Animate Params", 32,
		wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)

	st.allocBuffers(device, m.Config.InitialCapacity, nil, 0)

	cmd.AddResources(st)
	cmd.UseSystem(System(particleUpdateSystem).InStage(PreRender))
}

// allocBuffers replaces the ping-pong pair with a larger one, copying
// the live particles of the current buffer over.
func (st *ParticleState) allocBuffers(device *wgpu.Device, capacity int, gs *GpuState, liveBytes uint64) {
	old := st.buffers
	usage := wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst
	for i := range st.buffers {
		st.buffers[i] = createGpuBuffer(device, "Particles",
			uint64(capacity)*ParticleStride, usage)
	}
	st.capacity = capacity

	if old[0] != nil {
		if liveBytes > 0 {
			encoder, err := device.CreateCommandEncoder(nil)
			if err != nil {
				panic(err)
			}
			encoder.CopyBufferToBuffer(old[st.current], 0, st.buffers[st.current], 0, liveBytes)
			submit(gs, encoder)
			encoder.Release()
		}
		for _, b := range old {
			b.Release()
		}
		// Cached bind groups point at the released pair.
		st.emitKeyDst = nil
		st.animKeySrc = nil
		st.animKeyDst = nil
	}
}

func (st *ParticleState) reset() {
	st.threshold = st.cfg.InitialThreshold
	st.rng = rand.New(rand.NewSource(particleSeed))
	st.aliveCount = 0
	st.emittedLast = 0
	st.log.Infof("morph cycle restart, particle state reset (threshold %d)", st.threshold)
}

func (st *ParticleState) writeEmitParams(queue *wgpu.Queue, triCount, offset int, frameSeed uint32) {
	buf := make([]byte, 48)
	binary.LittleEndian.PutUint32(buf[0:], uint32(triCount))
	binary.LittleEndian.PutUint32(buf[4:], uint32(st.threshold))
	binary.LittleEndian.PutUint32(buf[8:], uint32(offset))
	binary.LittleEndian.PutUint32(buf[12:], frameSeed)
	binary.LittleEndian.PutUint32(buf[16:], uint32(st.capacity))
	binary.LittleEndian.PutUint32(buf[24:], math.Float32bits(emitSpeed))
	binary.LittleEndian.PutUint32(buf[28:], math.Float32bits(st.cfg.Lifetime[0]))
	binary.LittleEndian.PutUint32(buf[32:], math.Float32bits(st.cfg.Lifetime[1]))
	queue.WriteBuffer(st.emitParamsBuf, 0, buf)
}

func (st *ParticleState) writeAnimParams(queue *wgpu.Queue, dt float64) {
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint32(buf[0:], uint32(st.aliveCount))
	binary.LittleEndian.PutUint32(buf[4:], uint32(st.capacity))
	binary.LittleEndian.PutUint32(buf[8:], particleSubsteps)
	binary.LittleEndian.PutUint32(buf[16:], math.Float32bits(float32(dt)))
	binary.LittleEndian.PutUint32(buf[20:], math.Float32bits(st.cfg.Gravity))
	binary.LittleEndian.PutUint32(buf[24:], math.Float32bits(st.cfg.BounceDamping))
	binary.LittleEndian.PutUint32(buf[28:], math.Float32bits(st.iso))
	queue.WriteBuffer(st.animParamsBuf, 0, buf)
}

func (st *ParticleState) emitBindGroup(device *wgpu.Device, triBuf, dst *wgpu.Buffer) *wgpu.BindGroup {
	if st.emitBind != nil && st.emitKeyTri == triBuf && st.emitKeyDst == dst {
		return st.emitBind
	}
	if st.emitBind != nil {
		st.emitBind.Release()
	}
	bg, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Emit BG",
		Layout: st.emitPipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: st.emitParamsBuf, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: triBuf, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: dst, Size: wgpu.WholeSize},
			{Binding: 3, Buffer: st.counterBuf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		panic(err)
	}
	st.emitBind = bg
	st.emitKeyTri = triBuf
	st.emitKeyDst = dst
	return bg
}

func (st *ParticleState) animBindGroup(device *wgpu.Device, src, dst *wgpu.Buffer) *wgpu.BindGroup {
	if st.animBind != nil && st.animKeySrc == src && st.animKeyDst == dst {
		return st.animBind
	}
	if st.animBind != nil {
		st.animBind.Release()
	}
	bg, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Animate BG",
		Layout: st.animPipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: st.animParamsBuf, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: src, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: dst, Size: wgpu.WholeSize},
			{Binding: 3, Buffer: st.counterBuf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		panic(err)
	}
	st.animBind = bg
	st.animKeySrc = src
	st.animKeyDst = dst
	return bg
}

// particleUpdateSystem runs the emit and animate passes against this
// frame's surface and reads the counters back for the threshold
// controller and overflow growth.
func particleUpdateSystem(st *ParticleState, surf *SurfaceState, gs *GpuState, tm *Time) {
	// Demo clock wrapped: start the cycle from a clean slate.
	if tm.T < st.lastT {
		st.reset()
	}
	st.lastT = tm.T

	triCount := surf.TriangleCount()

	// Grow before the passes when this frame could overflow.
	potential := st.aliveCount + triCount/st.threshold + 1
	if potential > st.capacity {
		capacity := int(float64(st.capacity) * particleGrowth)
		if capacity < potential {
			capacity = potential
		}
		st.log.Infof("resizing particle buffers to %d particles", capacity)
		st.allocBuffers(gs.device, capacity, gs, uint64(st.aliveCount)*ParticleStride)
	}

	gs.queue.WriteBuffer(st.counterBuf, 0, []byte{0, 0, 0, 0})

	dst := 1 - st.current
	encoder, err := gs.device.CreateCommandEncoder(nil)
	if err != nil {
		panic(err)
	}

	if triCount > 0 {
		offset := st.rng.Intn(st.threshold)
		st.writeEmitParams(gs.queue, triCount, offset, st.rng.Uint32())

		pass := encoder.BeginComputePass(nil)
		pass.SetPipeline(st.emitPipeline)
		pass.SetBindGroup(0, st.emitBindGroup(gs.device, surf.VertexBuffer(), st.buffers[dst]), nil)
		pass.DispatchWorkgroups(uint32((triCount+255)/256), 1, 1)
		if err := pass.End(); err != nil {
			panic(err)
		}
	}
	encoder.CopyBufferToBuffer(st.counterBuf, 0, st.countsReadback, 0, 4)

	if st.aliveCount > 0 {
		st.writeAnimParams(gs.queue, tm.Dt)

		pass := encoder.BeginComputePass(nil)
		pass.SetPipeline(st.animPipeline)
		pass.SetBindGroup(0, st.animBindGroup(gs.device, st.buffers[st.current], st.buffers[dst]), nil)
		pass.SetBindGroup(1, st.animFieldBind, nil)
		pass.DispatchWorkgroups(uint32((st.aliveCount+255)/256), 1, 1)
		if err := pass.End(); err != nil {
			panic(err)
		}
	}
	encoder.CopyBufferToBuffer(st.counterBuf, 0, st.countsReadback, 4, 4)

	submit(gs, encoder)
	encoder.Release()

	counts := readbackU32(gs.device, st.countsReadback, 2)
	emitted := int(counts[0])
	total := int(counts[1])
	if emitted > st.capacity {
		emitted = st.capacity
	}
	if total > st.capacity {
		total = st.capacity
	}

	st.emittedLast = emitted
	st.aliveCount = total
	st.current = dst

	st.threshold = nextThreshold(st.threshold, emitted, tm.Dt, st.cfg.Flow)
}
