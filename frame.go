package primer

import (
	"github.com/primerar/primer/wallrt/rt/core"
)

// Frame is everything prepared for one draw submission. It is rebuilt every
// frame; once handed to the renderer it is not touched again.
type Frame struct {
	Index uint64

	Camera  core.Camera
	Nodes   []core.ResolvedNode
	Skipped []core.NodeError
	// Resolution is the unculled resolver output, nil before PostUpdate.
	Resolution *core.FrameNodes

	// WallBlend is nil when no wall is detected.
	WallBlend      *core.WallBlend
	WallBlendErr   error
	WallBlendReuse bool
}

func (f *Frame) reset(index uint64) {
	*f = Frame{Index: index}
}

// NodeRecords returns the resolved node records in submission order.
func (f *Frame) NodeRecords() []core.NodeData {
	out := make([]core.NodeData, len(f.Nodes))
	for i, n := range f.Nodes {
		out[i] = n.Data
	}
	return out
}

// ensureFrame installs the shared Frame resource and the Prelude system that
// clears it at the start of every step.
func ensureFrame(app *App) {
	if _, ok := Resource[Frame](app); ok {
		return
	}
	app.addResources(&Frame{})
	app.UseSystem(System(frameResetSystem).InStage(Prelude))
}

func frameResetSystem(cmd *Commands, frame *Frame) {
	frame.reset(cmd.app.FrameIndex())
}
