package app

import (
	"context"
	"fmt"
	"image"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/google/uuid"
	"github.com/primerar/primer"
	"github.com/primerar/primer/wallrt/rt/gpu"
)

// App presents frames in a glfw window. It implements primer.FrameSink and
// must be driven from the thread that created the window.
type App struct {
	Window   *glfw.Window
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration

	BufferManager *gpu.GpuBufferManager
	WallBlendPass *gpu.WallBlendRenderPass
	NodePass      *gpu.NodeBoundsRenderPass

	// CameraFrame is the image the overlay is composited onto.
	CameraFrame image.Image
	Selection   *primer.SwatchSelection
	ShowBounds  bool

	Logger primer.Logger

	cameraTex     *gpu.Texture
	swatchTex     *gpu.Texture
	swatchID      uuid.UUID
	bindGroupsOld bool

	LastRenderTime float64
	FrameCount     int
	FPS            float64
	FPSTime        float64
}

func NewApp(window *glfw.Window, cameraFrame image.Image, sel *primer.SwatchSelection, logger primer.Logger) *App {
	if logger == nil {
		logger = primer.NewNopLogger()
	}
	return &App{
		Window:      window,
		CameraFrame: cameraFrame,
		Selection:   sel,
		Logger:      logger,
	}
}

func (a *App) Init() error {
	a.Instance = wgpu.CreateInstance(nil)
	a.Surface = a.Instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(a.Window))

	adapter, err := a.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: a.Surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return err
	}
	a.Adapter = adapter

	a.Device, err = adapter.RequestDevice(nil)
	if err != nil {
		return err
	}
	a.Queue = a.Device.GetQueue()

	width, height := a.Window.GetFramebufferSize()
	caps := a.Surface.GetCapabilities(adapter)
	format := caps.Formats[0]
	a.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	a.Surface.Configure(adapter, a.Device, a.Config)

	a.BufferManager = gpu.NewGpuBufferManager(a.Device)
	if a.WallBlendPass, err = gpu.NewWallBlendRenderPass(a.Device, format); err != nil {
		return fmt.Errorf("wall blend pass: %w", err)
	}
	if a.NodePass, err = gpu.NewNodeBoundsRenderPass(a.Device, format); err != nil {
		return fmt.Errorf("node bounds pass: %w", err)
	}

	if a.cameraTex, err = a.BufferManager.UploadImage("CameraFrame", a.CameraFrame, nil); err != nil {
		return fmt.Errorf("camera frame: %w", err)
	}
	if a.swatchTex, err = a.BufferManager.UploadImage("Swatch", SolidImage(1, 1), nil); err != nil {
		return fmt.Errorf("swatch placeholder: %w", err)
	}
	a.bindGroupsOld = true

	a.LastRenderTime = glfw.GetTime()
	a.Logger.Infof("viewer ready: %dx%d %v", width, height, format)
	return nil
}

func (a *App) Resize(w, h int) {
	if w > 0 && h > 0 {
		a.Config.Width = uint32(w)
		a.Config.Height = uint32(h)
		a.Surface.Configure(a.Adapter, a.Device, a.Config)
	}
}

// Submit uploads the frame's records and draws them.
func (a *App) Submit(ctx context.Context, frame *primer.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.BufferManager.UpdateNodes(frame.NodeRecords()) {
		if err := a.NodePass.CreateBindGroup(a.BufferManager); err != nil {
			return err
		}
	}

	viewToCamera, err := frame.Camera.ViewToCamera()
	if err != nil {
		return err
	}
	if a.BufferManager.UpdateBackground(viewToCamera.Transpose()) {
		a.bindGroupsOld = true
	}
	if a.BufferManager.UpdateWallBlend(frame.WallBlend) {
		a.bindGroupsOld = true
	}
	if err := a.syncSwatchTexture(); err != nil {
		return err
	}

	if a.bindGroupsOld {
		if err := a.WallBlendPass.CreateBindGroups(a.BufferManager, a.cameraTex, a.swatchTex); err != nil {
			return err
		}
		a.bindGroupsOld = false
	}
	return a.Render()
}

func (a *App) syncSwatchTexture() error {
	if a.Selection == nil {
		return nil
	}
	s := a.Selection.Swatch()
	if s == nil || s.Texture == nil || s.ID == a.swatchID {
		return nil
	}
	tex, err := a.BufferManager.UploadImage("Swatch", s.Texture, a.swatchTex)
	if err != nil {
		return fmt.Errorf("swatch %q: %w", s.Name, err)
	}
	if tex != a.swatchTex {
		a.swatchTex = tex
		a.bindGroupsOld = true
	}
	a.swatchID = s.ID
	return nil
}

func (a *App) Render() error {
	nextTexture, err := a.Surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("GetCurrentTexture: %w", err)
	}
	defer nextTexture.Release()

	view, err := nextTexture.CreateView(nil)
	if err != nil {
		return fmt.Errorf("CreateView: %w", err)
	}
	defer view.Release()

	encoder, err := a.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("CreateCommandEncoder: %w", err)
	}

	rPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	})
	a.WallBlendPass.Draw(rPass, a.BufferManager)
	if a.ShowBounds {
		a.NodePass.Draw(rPass, a.BufferManager)
	}
	if err := rPass.End(); err != nil {
		return fmt.Errorf("render pass End: %w", err)
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("encoder Finish: %w", err)
	}
	a.Queue.Submit(cmd)
	a.Surface.Present()

	now := glfw.GetTime()
	a.FrameCount++
	a.FPSTime += now - a.LastRenderTime
	if a.FPSTime >= 1.0 {
		a.FPS = float64(a.FrameCount) / a.FPSTime
		a.Logger.Debugf("viewer: %.1f fps", a.FPS)
		a.FrameCount = 0
		a.FPSTime = 0
	}
	a.LastRenderTime = now
	return nil
}

func (a *App) Release() {
	a.cameraTex.Release()
	a.swatchTex.Release()
	if a.BufferManager != nil {
		a.BufferManager.Release()
	}
}
