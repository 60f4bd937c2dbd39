package primer

import (
	"errors"

	"github.com/primerar/primer/wallrt/rt/core"
)

// Scene owns the node hierarchy. Producers mutate Graph between frames or
// concurrently; the resolver only reads it.
type Scene struct {
	Graph *core.SceneGraph
}

type nodeTransformSettings struct {
	opts core.ResolveOptions
	// cull drops nodes outside the view frustum from the frame.
	cull bool
}

// NodeTransformModule resolves every live node in PostUpdate. Resolution is
// parallel across nodes and finishes before any later stage starts.
type NodeTransformModule struct {
	Workers int
	Cull    bool
}

func (m NodeTransformModule) Install(app *App, cmd *Commands) {
	ensureFrame(app)
	if _, ok := Resource[Scene](app); !ok {
		cmd.AddResources(&Scene{Graph: core.NewSceneGraph()})
	}
	cmd.AddResources(&nodeTransformSettings{
		opts: core.ResolveOptions{Workers: m.Workers},
		cull: m.Cull,
	})
	app.UseSystem(System(NodeTransformSystem).InStage(PostUpdate))
}

func NodeTransformSystem(cmd *Commands, scene *Scene, tracking *Tracking, frame *Frame, settings *nodeTransformSettings) {
	if !tracking.Valid {
		return
	}

	nodes, err := core.ResolveScene(cmd.Context(), scene.Graph, tracking.Latest.Camera, settings.opts)
	if err != nil {
		cmd.Logger().Warnf("frame %d: node resolution cancelled: %v", frame.Index, err)
		return
	}

	for _, skipped := range nodes.Skipped {
		if errors.Is(skipped.Err, core.ErrNodeRemoved) {
			cmd.Logger().Debugf("frame %d: %v", frame.Index, &skipped)
			continue
		}
		cmd.Logger().Warnf("frame %d: skipping %v", frame.Index, &skipped)
	}

	if settings.cull {
		frame.Nodes = nodes.Visible()
	} else {
		frame.Nodes = nodes.Resolved
	}
	frame.Skipped = nodes.Skipped
	frame.Resolution = nodes
}
