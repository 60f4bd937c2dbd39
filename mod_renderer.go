package primer

import (
	"context"
	"fmt"
	"sync"

	"github.com/primerar/primer/wallrt/rt/core"
)

// FrameSink consumes a finished frame. Implementations must copy anything
// they keep; the Frame is reset at the start of the next step.
type FrameSink interface {
	Submit(ctx context.Context, frame *Frame) error
}

// RendererTag marks that a renderer has been installed into the App.
// Only one renderer may be installed at a time.
type RendererTag struct {
	Name string
}

// ensureSingleRenderer panics if a renderer with a different name is already
// installed.
func ensureSingleRenderer(app *App, name string) {
	if app == nil {
		panic("ensureSingleRenderer: app is nil")
	}
	if tag, ok := Resource[RendererTag](app); ok {
		if tag.Name != name {
			app.Logger().Errorf("Multiple renderers installed: %s and %s", tag.Name, name)
			panic(fmt.Sprintf("Multiple renderers installed: %s and %s", tag.Name, name))
		}
		return
	}
	app.addResources(&RendererTag{Name: name})
}

type rendererState struct {
	sink     FrameSink
	failures int
}

// RendererModule hands each frame to Sink in the Render stage.
type RendererModule struct {
	Name string
	Sink FrameSink
}

func (m RendererModule) Install(app *App, cmd *Commands) {
	name := m.Name
	if name == "" {
		name = "headless"
	}
	ensureSingleRenderer(app, name)
	ensureFrame(app)

	sink := m.Sink
	if sink == nil {
		sink = &HeadlessSink{}
	}
	cmd.AddResources(&rendererState{sink: sink})
	app.UseSystem(System(rendererSystem).InStage(Render))
	app.Logger().Infof("Renderer selected: %s", name)
}

func rendererSystem(cmd *Commands, state *rendererState, frame *Frame) {
	if err := state.sink.Submit(cmd.Context(), frame); err != nil {
		state.failures++
		cmd.Logger().Errorf("frame %d: submit failed: %v", frame.Index, err)
		return
	}
	if state.failures > 0 {
		cmd.Logger().Infof("frame %d: submit recovered after %d failures", frame.Index, state.failures)
		state.failures = 0
	}
}

// SubmittedFrame is the GPU-ready encoding of one frame.
type SubmittedFrame struct {
	Index uint64
	// Nodes holds one NodeDataSize record per visible node.
	Nodes []byte
	// WallBlend and the mesh buffers are nil when no overlay was drawn.
	WallBlend []byte
	Vertices  []byte
	Indices   []byte
	// IndexCount is the number of uint16 indices in Indices.
	IndexCount int
}

// HeadlessSink encodes frames exactly as the GPU path would upload them and
// keeps the most recent one.
type HeadlessSink struct {
	mu     sync.Mutex
	last   SubmittedFrame
	frames uint64
}

func (s *HeadlessSink) Submit(ctx context.Context, frame *Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	out := EncodeFrame(frame)

	s.mu.Lock()
	s.last = out
	s.frames++
	s.mu.Unlock()
	return nil
}

// Last returns the most recently submitted frame.
func (s *HeadlessSink) Last() (SubmittedFrame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.frames > 0
}

func (s *HeadlessSink) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// EncodeFrame serialises the frame's records into upload-ready buffers.
func EncodeFrame(frame *Frame) SubmittedFrame {
	out := SubmittedFrame{
		Index: frame.Index,
		Nodes: core.MarshalNodeData(frame.NodeRecords()),
	}
	if wb := frame.WallBlend; wb != nil {
		out.WallBlend = wb.Data.Marshal()
		out.Vertices = core.MarshalVertices(wb.Mesh.Vertices)
		out.Indices = core.MarshalIndices(wb.Mesh.Indices)
		out.IndexCount = len(wb.Mesh.Indices)
	}
	return out
}
