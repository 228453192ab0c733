package isoflow

import (
	"reflect"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// FrameState carries the in-flight render pass of the current frame.
// The window module opens the pass in Render before any draw system
// runs, and submits and presents in PostRender. When the surface could
// not provide a frame, pass is nil and draw systems skip.
type FrameState struct {
	frameTexture *wgpu.Texture
	view         *wgpu.TextureView
	encoder      *wgpu.CommandEncoder
	pass         *wgpu.RenderPassEncoder
}

// WindowModule owns the GLFW window, the wgpu device and swapchain, and
// the frame open/submit/present systems. Install is idempotent on the
// WindowState resource so tools can pre-create a window.
type WindowModule struct {
	Width  int
	Height int
	Title  string
}

func (m WindowModule) Install(app *App, cmd *Commands) {
	t := reflect.TypeOf((*WindowState)(nil)).Elem()
	if _, ok := app.resources[t]; !ok {
		app.addResources(createWindowState(m.Width, m.Height, m.Title))
	}

	var ws *WindowState
	ws = app.resources[t].(*WindowState)
	gs := createGpuState(ws, app.Logger())

	cmd.AddResources(gs, &FrameState{})
	cmd.UseSystem(
		System(pollEventsSystem).InStage(PreUpdate),
		System(beginFrameSystem).InStage(Render),
		System(presentFrameSystem).InStage(PostRender),
	)
}

func pollEventsSystem(ws *WindowState, cmd *Commands) {
	glfw.PollEvents()
	if ws.windowGlfw.ShouldClose() || ws.windowGlfw.GetKey(glfw.KeyEscape) == glfw.Press {
		cmd.Quit()
	}
}

func beginFrameSystem(ws *WindowState, gs *GpuState, fs *FrameState, log *DefaultLogger) {
	gs.resizeIfNeeded(ws)

	frameTexture, err := gs.surface.GetCurrentTexture()
	if err != nil {
		// Lost frames happen during resizes; skip drawing this frame.
		log.Warnf("surface frame unavailable: %v", err)
		fs.pass = nil
		return
	}
	view, err := frameTexture.CreateView(nil)
	if err != nil {
		frameTexture.Release()
		log.Warnf("surface view unavailable: %v", err)
		fs.pass = nil
		return
	}
	encoder, err := gs.device.CreateCommandEncoder(nil)
	if err != nil {
		panic(err)
	}

	fs.frameTexture = frameTexture
	fs.view = view
	fs.encoder = encoder
	fs.pass = encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            gs.depthView,
			DepthClearValue: 1.0,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
		},
	})
}

func presentFrameSystem(gs *GpuState, fs *FrameState) {
	if fs.pass == nil {
		return
	}
	if err := fs.pass.End(); err != nil {
		panic(err)
	}
	fs.pass.Release()
	fs.pass = nil

	submit(gs, fs.encoder)
	fs.encoder.Release()
	fs.encoder = nil

	gs.surface.Present()
	fs.view.Release()
	fs.frameTexture.Release()
	fs.view = nil
	fs.frameTexture = nil
}
