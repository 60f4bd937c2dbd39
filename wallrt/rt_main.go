package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/signal"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/primerar/primer"
	"github.com/primerar/primer/wallrt/rt/app"
	"github.com/primerar/primer/wallrt/rt/core"
)

func init() {
	runtime.LockOSThread()
}

var (
	flagConfig      = flag.String("config", "", "Path to config file")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagWidth       = flag.Int("width", 0, "Window width")
	flagHeight      = flag.Int("height", 0, "Window height")
	flagOrientation = flag.String("orientation", "", "Interface orientation (portrait, landscape-left, ...)")
	flagWorkers     = flag.Int("workers", 0, "Node resolver workers (0 = GOMAXPROCS)")
	flagHeadless    = flag.Bool("headless", false, "Run without a window")
	flagFrames      = flag.Int("frames", 120, "Frames to run in headless mode")
	flagOut         = flag.String("out", "", "Headless: write the last composite to this PNG")
	flagSwatch      = flag.String("swatch", "brick", "Initial swatch: brick, sage or none")
)

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *primer.Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Logging.Debug = true
	}
	if *flagWidth > 0 {
		cfg.Render.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Render.Height = *flagHeight
	}
	if *flagOrientation != "" {
		cfg.Render.Orientation = *flagOrientation
	}
	if *flagWorkers > 0 {
		cfg.Render.Workers = *flagWorkers
	}
}

func main() {
	flag.Parse()

	cfg, err := primer.LoadConfig(*flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *flagHeadless {
		err = runHeadless(ctx, cfg)
	} else {
		err = runWindowed(ctx, cfg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "wallrt: %v\n", err)
		os.Exit(1)
	}
}

// session is everything shared by the windowed and headless runs.
type session struct {
	cfg       *primer.Config
	wall      core.WallPlane
	tracking  *primer.SimulatedTracking
	selection *primer.SwatchSelection
	swatches  map[string]*core.Swatch
	camera    image.Image
}

func newSession(cfg *primer.Config) (*session, error) {
	orientation, err := primer.ParseOrientation(cfg.Render.Orientation)
	if err != nil {
		return nil, err
	}
	viewport := mgl32.Vec2{float32(cfg.Render.Width), float32(cfg.Render.Height)}

	wall := core.WallPlane{Origin: mgl32.Vec3{0, 1.25, -2}, Width: 4, Height: 2.5}
	tracking := primer.NewSimulatedTracking(wall, viewport)
	tracking.DetectAfter = 30
	tracking.FovY = mgl32.DegToRad(cfg.Render.FovY)
	tracking.Near, tracking.Far = cfg.Render.Near, cfg.Render.Far
	tracking.Orientation = orientation

	brick := core.NewTextureSwatch("brick", app.BrickTexture(256), mgl32.Vec2{0.6, 0.6}, core.AnchorCenter)
	brick.Tiling = cfg.Tiling
	s := &session{
		cfg:       cfg,
		wall:      wall,
		tracking:  tracking,
		selection: primer.NewSwatchSelection(cfg.Blend),
		swatches: map[string]*core.Swatch{
			"brick": brick,
			"sage":  core.NewColorSwatch("sage", mgl32.Vec3{0.62, 0.69, 0.55}),
			"none":  nil,
		},
		camera: app.CameraFrame(1920, 1440),
	}
	sw, ok := s.swatches[*flagSwatch]
	if !ok {
		return nil, fmt.Errorf("unknown swatch %q", *flagSwatch)
	}
	s.selection.SelectSwatch(sw)
	return s, nil
}

func (s *session) build(name string, sink primer.FrameSink) *primer.App {
	comp := core.NewCompositor()
	comp.SegmentsX = s.cfg.Render.SegmentsX
	comp.SegmentsY = s.cfg.Render.SegmentsY
	comp.SurfaceOffset = s.cfg.Render.SurfaceOffset

	a := primer.NewAppBuilder().
		UseModule(primer.LoggingModule{
			Prefix: "wallrt",
			Debug:  s.cfg.Logging.Debug,
			Level:  s.cfg.Logging.Level,
			File:   s.cfg.Logging.File,
		}).
		UseModule(primer.TrackingModule{Source: s.tracking}).
		UseModule(primer.NodeTransformModule{Workers: s.cfg.Render.Workers, Cull: true}).
		UseModule(primer.WallBlendModule{Compositor: comp, Selection: s.selection}).
		UseModule(primer.RendererModule{Name: name, Sink: sink}).
		Build()

	scene, _ := primer.Resource[primer.Scene](a)
	if err := populateScene(scene.Graph, s.wall); err != nil {
		a.Logger().Warnf("sample scene: %v", err)
	}
	return a
}

// populateScene adds a few markers around the wall: a frame at each corner
// and a shelf with two children.
func populateScene(graph *core.SceneGraph, wall core.WallPlane) error {
	mount, err := graph.AddNode("wall", core.NoParent, wall.MountTransform(), core.Box{
		Min: mgl32.Vec3{-wall.Width / 2, -wall.Height / 2, -0.05},
		Max: mgl32.Vec3{wall.Width / 2, wall.Height / 2, 0},
	})
	if err != nil {
		return err
	}
	marker := core.Box{Min: mgl32.Vec3{-0.05, -0.05, 0}, Max: mgl32.Vec3{0.05, 0.05, 0.1}}
	for i, c := range [][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
		local := mgl32.Translate3D(c[0]*wall.Width/2, c[1]*wall.Height/2, 0)
		if _, err := graph.AddNode(fmt.Sprintf("corner-%d", i), mount, local, marker); err != nil {
			return err
		}
	}

	shelf := core.Transform{Position: mgl32.Vec3{0.8, -0.4, 0.15}, Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}}
	shelfID, err := graph.AddNode("shelf", mount, shelf.Matrix(), core.Box{
		Min: mgl32.Vec3{-0.5, -0.02, -0.15},
		Max: mgl32.Vec3{0.5, 0.02, 0.15},
	})
	if err != nil {
		return err
	}
	for i, x := range []float32{-0.3, 0.25} {
		vase := core.Transform{Position: mgl32.Vec3{x, 0.12, 0}, Rotation: mgl32.QuatRotate(float32(i)*0.6, mgl32.Vec3{0, 1, 0}), Scale: mgl32.Vec3{1, 1.5, 1}}
		if _, err := graph.AddNode(fmt.Sprintf("vase-%d", i), shelfID, vase.Matrix(), core.Box{
			Min: mgl32.Vec3{-0.06, -0.1, -0.06},
			Max: mgl32.Vec3{0.06, 0.1, 0.06},
		}); err != nil {
			return err
		}
	}
	return nil
}

func runHeadless(ctx context.Context, cfg *primer.Config) error {
	s, err := newSession(cfg)
	if err != nil {
		return err
	}
	sink := &primer.HeadlessSink{}
	a := s.build("headless", sink)
	if l, ok := a.Logger().(*primer.DefaultLogger); ok {
		defer l.Sync()
	}

	frames := uint64(max(*flagFrames, 1))
	a.UseSystem(primer.System(func(cmd *primer.Commands, f *primer.Frame) {
		if f.Index >= frames {
			cmd.Stop()
		}
	}).InStage(primer.Finale))

	if err := a.Run(ctx); err != nil {
		return err
	}

	last, ok := sink.Last()
	if !ok {
		return fmt.Errorf("no frames submitted")
	}
	a.Logger().Infof("frame %d: %d node bytes, overlay %t (%d indices)",
		last.Index, len(last.Nodes), last.WallBlend != nil, last.IndexCount)

	if *flagOut == "" {
		return nil
	}
	frame, _ := primer.Resource[primer.Frame](a)
	if frame.WallBlend == nil {
		return fmt.Errorf("no overlay in frame %d, nothing to write", frame.Index)
	}
	return writeComposite(*flagOut, s, frame.WallBlend.Data, cfg.Render.Width, cfg.Render.Height)
}

func writeComposite(path string, s *session, data core.WallBlendData, w, h int) error {
	var tex image.Image
	if sw := s.selection.Swatch(); sw != nil {
		tex = sw.Texture
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if err := core.CompositeImage(dst, s.camera, tex, data); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, dst); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runWindowed(ctx context.Context, cfg *primer.Config) error {
	s, err := newSession(cfg)
	if err != nil {
		return err
	}

	if err := glfw.Init(); err != nil {
		return err
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(cfg.Render.Width, cfg.Render.Height, "WallRT", nil, nil)
	if err != nil {
		return err
	}
	defer window.Destroy()

	viewer := app.NewApp(window, s.camera, s.selection, nil)
	a := s.build("wgpu", viewer)
	viewer.Logger = a.Logger()
	if l, ok := a.Logger().(*primer.DefaultLogger); ok {
		defer l.Sync()
	}
	if err := viewer.Init(); err != nil {
		return err
	}
	defer viewer.Release()

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		viewer.Resize(width, height)
		s.tracking.ViewportSize = mgl32.Vec2{float32(width), float32(height)}
	})

	blend := cfg.Blend
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press && action != glfw.Repeat {
			return
		}
		switch key {
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		case glfw.KeyB:
			viewer.ShowBounds = !viewer.ShowBounds
		case glfw.Key1:
			s.selection.SelectSwatch(s.swatches["brick"])
		case glfw.Key2:
			s.selection.SelectSwatch(s.swatches["sage"])
		case glfw.Key0:
			s.selection.SelectSwatch(nil)
		case glfw.KeyUp, glfw.KeyDown:
			step := float32(0.1)
			if key == glfw.KeyDown {
				step = -step
			}
			blend.Percent = mgl32.Clamp(blend.Percent+step, 0, 1)
			s.selection.SetBlendSettings(blend)
		case glfw.KeyL:
			if blend.Lighten > 0 {
				blend.Lighten = 0
			} else {
				blend.Lighten = core.DefaultBlendLighten
			}
			s.selection.SetBlendSettings(blend)
		case glfw.KeySpace:
			if s.tracking.Orbit.Speed != 0 {
				s.tracking.Orbit.Speed = 0
			} else {
				s.tracking.Orbit.Speed = 0.3
			}
		}
	})

	for !window.ShouldClose() {
		glfw.PollEvents()
		if err := a.Step(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
	return nil
}
