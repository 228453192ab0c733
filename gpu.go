package isoflow

import (
	"encoding/binary"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/isoflow3d/isoflow/hipy"
)

type WindowState struct {
	windowGlfw   *glfw.Window
	WindowWidth  int
	WindowHeight int
	windowTitle  string
}

type GpuState struct {
	surface       *wgpu.Surface
	adapter       *wgpu.Adapter
	device        *wgpu.Device
	queue         *wgpu.Queue
	surfaceConfig *wgpu.SurfaceConfiguration

	depthTexture *wgpu.Texture
	depthView    *wgpu.TextureView
}

const depthFormat = wgpu.TextureFormatDepth32Float

func createWindowState(windowWidth int, windowHeight int, windowTitle string) *WindowState {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		panic(err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // wgpu renders, not OpenGL
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(windowWidth, windowHeight, windowTitle, nil, nil)
	if err != nil {
		panic(err)
	}

	return &WindowState{
		windowGlfw:   win,
		WindowWidth:  windowWidth,
		WindowHeight: windowHeight,
		windowTitle:  windowTitle,
	}
}

func createGpuState(s *WindowState, log Logger) *GpuState {
	instance := wgpu.CreateInstance(nil)
	defer instance.Release()
	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(s.windowGlfw))
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		panic(err)
	}
	if err := hipy.CheckAdapter(adapter); err != nil {
		log.Fatalf("unusable adapter: %v", err)
	}

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		panic(err)
	}
	queue := device.GetQueue()

	caps := surface.GetCapabilities(adapter)
	surfaceConfig := wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(s.WindowWidth),
		Height:      uint32(s.WindowHeight),
		PresentMode: wgpu.PresentModeFifo, // vsync
		AlphaMode:   caps.AlphaModes[0],
	}
	surface.Configure(adapter, device, &surfaceConfig)

	gs := &GpuState{
		surface:       surface,
		adapter:       adapter,
		device:        device,
		queue:         queue,
		surfaceConfig: &surfaceConfig,
	}
	gs.recreateDepthTexture()
	return gs
}

func (gs *GpuState) recreateDepthTexture() {
	if gs.depthView != nil {
		gs.depthView.Release()
		gs.depthTexture.Release()
	}
	tex, err := gs.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth",
		Size: wgpu.Extent3D{
			Width:              gs.surfaceConfig.Width,
			Height:             gs.surfaceConfig.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        depthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		panic(err)
	}
	gs.depthTexture = tex
	gs.depthView = view
}

// resizeIfNeeded reconfigures the swapchain and depth buffer when the
// framebuffer size changed since the last frame.
func (gs *GpuState) resizeIfNeeded(ws *WindowState) bool {
	w, h := ws.windowGlfw.GetFramebufferSize()
	if w <= 0 || h <= 0 {
		return false
	}
	if uint32(w) == gs.surfaceConfig.Width && uint32(h) == gs.surfaceConfig.Height {
		return false
	}
	ws.WindowWidth = w
	ws.WindowHeight = h
	gs.surfaceConfig.Width = uint32(w)
	gs.surfaceConfig.Height = uint32(h)
	gs.surface.Configure(gs.adapter, gs.device, gs.surfaceConfig)
	gs.recreateDepthTexture()
	return true
}

func (gs *GpuState) aspect() float32 {
	return float32(gs.surfaceConfig.Width) / float32(gs.surfaceConfig.Height)
}

func createGpuBuffer(device *wgpu.Device, label string, size uint64, usage wgpu.BufferUsage) *wgpu.Buffer {
	buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		panic(err)
	}
	return buf
}

// readbackU32 blocks until copySize uint32 values copied into a MapRead
// buffer by a previously submitted encoder are available.
func readbackU32(device *wgpu.Device, buf *wgpu.Buffer, count int) []uint32 {
	size := uint64(count) * 4
	mapped := false
	ok := false
	err := buf.MapAsync(wgpu.MapModeRead, 0, size, func(status wgpu.BufferMapAsyncStatus) {
		mapped = true
		ok = status == wgpu.BufferMapAsyncStatusSuccess
	})
	if err != nil {
		return make([]uint32, count)
	}
	for !mapped {
		device.Poll(true, nil)
	}
	out := make([]uint32, count)
	if !ok {
		return out
	}
	data := buf.GetMappedRange(0, uint(size))
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	buf.Unmap()
	return out
}

// submit finishes the encoder and hands it to the queue.
func submit(gs *GpuState, encoder *wgpu.CommandEncoder) {
	cmd, err := encoder.Finish(nil)
	if err != nil {
		panic(err)
	}
	defer cmd.Release()
	gs.queue.Submit(cmd)
}
