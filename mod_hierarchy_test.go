package primer

import (
	"context"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/primerar/primer/wallrt/rt/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNodeApp(t *testing.T, cull bool) (*App, *core.SceneGraph) {
	t.Helper()
	source := (&scriptedTracking{}).push(testSnapshot(t, true), nil)
	app := NewAppBuilder().
		UseModule(TrackingModule{Source: source}).
		UseModule(NodeTransformModule{Workers: 2, Cull: cull}).
		Build()
	scene, ok := Resource[Scene](app)
	require.True(t, ok)
	return app, scene.Graph
}

func TestTransformHierarchy(t *testing.T) {
	app, graph := newNodeApp(t, false)

	parent, err := graph.AddNode("parent", core.NoParent, mgl32.Translate3D(10, 0, 0), core.UnitBox)
	require.NoError(t, err)
	child, err := graph.AddNode("child", parent, mgl32.Translate3D(0, 5, 0), core.UnitBox)
	require.NoError(t, err)
	grandchild, err := graph.AddNode("grandchild", child, mgl32.Translate3D(0, 0, 2), core.UnitBox)
	require.NoError(t, err)

	require.NoError(t, app.Step(context.Background()))
	frame, _ := Resource[Frame](app)
	require.Len(t, frame.Nodes, 3)
	require.Empty(t, frame.Skipped)

	want := map[core.NodeID]mgl32.Vec3{
		parent:     {10, 0, 0},
		child:      {10, 5, 0},
		grandchild: {10, 5, 2},
	}
	for _, n := range frame.Nodes {
		pos := n.Data.ModelTransform.Col(3).Vec3()
		assert.True(t, pos.ApproxEqual(want[n.ID]), "%s at %v, want %v", n.Name, pos, want[n.ID])
		assert.True(t, n.Data.WorldBoundingBox.Center().ApproxEqual(want[n.ID]))
	}
	assert.Len(t, frame.NodeRecords(), 3)
}

func TestNodeTransformSystem_SkipsSingularNode(t *testing.T) {
	app, graph := newNodeApp(t, false)

	_, err := graph.AddNode("ok", core.NoParent, mgl32.Ident4(), core.UnitBox)
	require.NoError(t, err)
	flat, err := graph.AddNode("flat", core.NoParent, mgl32.Scale3D(1, 0, 1), core.UnitBox)
	require.NoError(t, err)

	require.NoError(t, app.Step(context.Background()))
	frame, _ := Resource[Frame](app)
	require.Len(t, frame.Nodes, 1)
	assert.Equal(t, "ok", frame.Nodes[0].Name)
	require.Len(t, frame.Skipped, 1)
	assert.Equal(t, flat, frame.Skipped[0].Node)
	assert.ErrorIs(t, &frame.Skipped[0], core.ErrDegenerateTransform)
}

func TestNodeTransformSystem_Cull(t *testing.T) {
	app, graph := newNodeApp(t, true)

	inView, err := graph.AddNode("in view", core.NoParent, mgl32.Translate3D(0, 1.25, -2), core.UnitBox)
	require.NoError(t, err)
	_, err = graph.AddNode("behind", core.NoParent, mgl32.Translate3D(0, 1.25, 20), core.UnitBox)
	require.NoError(t, err)

	require.NoError(t, app.Step(context.Background()))
	frame, _ := Resource[Frame](app)
	require.Len(t, frame.Nodes, 1)
	assert.Equal(t, inView, frame.Nodes[0].ID)
}

func TestNodeTransformSystem_NoTracking(t *testing.T) {
	source := (&scriptedTracking{}).push(TrackingSnapshot{}, assert.AnError)
	app := NewAppBuilder().
		UseModule(TrackingModule{Source: source}).
		UseModule(NodeTransformModule{}).
		Build()
	scene, _ := Resource[Scene](app)
	_, err := scene.Graph.AddNode("n", core.NoParent, mgl32.Ident4(), core.UnitBox)
	require.NoError(t, err)

	require.NoError(t, app.Step(context.Background()))
	frame, _ := Resource[Frame](app)
	assert.Empty(t, frame.Nodes)
}
