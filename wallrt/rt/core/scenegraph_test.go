package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSceneGraph_ChainOrder(t *testing.T) {
	g := NewSceneGraph()

	parent, err := g.AddNode("parent", NoParent, mgl32.Translate3D(10, 0, 0), UnitBox)
	require.NoError(t, err)
	child, err := g.AddNode("child", parent, mgl32.Translate3D(0, 5, 0), UnitBox)
	require.NoError(t, err)
	grandchild, err := g.AddNode("grandchild", child, mgl32.Translate3D(0, 0, 2), UnitBox)
	require.NoError(t, err)

	chain, err := g.Chain(grandchild)
	require.NoError(t, err)
	require.Len(t, chain, 3)
	assert.Equal(t, mgl32.Translate3D(10, 0, 0), chain[0])
	assert.Equal(t, mgl32.Translate3D(0, 0, 2), chain[2])

	world, err := g.WorldTransform(grandchild)
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec3{10, 5, 2}, world.Col(3).Vec3())

	in, err := g.ResolveInput(grandchild)
	require.NoError(t, err)
	assert.Equal(t, "grandchild", in.Name)
	assert.Equal(t, chain, in.Chain)
}

func TestSceneGraph_RejectsInvalidBounds(t *testing.T) {
	g := NewSceneGraph()
	_, err := g.AddNode("inverted", NoParent, mgl32.Ident4(), Box{Min: mgl32.Vec3{1, 1, 1}, Max: mgl32.Vec3{0, 0, 0}})
	assert.ErrorIs(t, err, ErrInvalidBounds)
	assert.Equal(t, 0, g.Len())

	id, err := g.AddNode("ok", NoParent, mgl32.Ident4(), UnitBox)
	require.NoError(t, err)
	assert.ErrorIs(t, g.SetBounds(id, Box{Min: mgl32.Vec3{0, 2, 0}, Max: mgl32.Vec3{1, 1, 1}}), ErrInvalidBounds)
}

func TestSceneGraph_RemoveSubtree(t *testing.T) {
	g := NewSceneGraph()

	root, _ := g.AddNode("root", NoParent, mgl32.Ident4(), UnitBox)
	a, _ := g.AddNode("a", root, mgl32.Ident4(), UnitBox)
	b, _ := g.AddNode("b", a, mgl32.Ident4(), UnitBox)
	other, _ := g.AddNode("other", NoParent, mgl32.Ident4(), UnitBox)
	require.Equal(t, 4, g.Len())

	assert.Equal(t, 2, g.RemoveNode(a))
	assert.Equal(t, 2, g.Len())
	assert.False(t, g.Contains(a))
	assert.False(t, g.Contains(b))
	assert.True(t, g.Contains(root))
	assert.True(t, g.Contains(other))

	// Removing again is a no-op.
	assert.Equal(t, 0, g.RemoveNode(a))

	_, err := g.ResolveInput(b)
	assert.ErrorIs(t, err, ErrNodeRemoved)
	assert.ErrorIs(t, g.SetLocal(b, mgl32.Ident4()), ErrNodeRemoved)

	_, err = g.AddNode("orphan", a, mgl32.Ident4(), UnitBox)
	assert.ErrorIs(t, err, ErrNodeRemoved)
}

func TestSceneGraph_RecycledSlotsDoNotAlias(t *testing.T) {
	g := NewSceneGraph()

	old, _ := g.AddNode("old", NoParent, mgl32.Translate3D(1, 0, 0), UnitBox)
	g.RemoveNode(old)

	fresh, err := g.AddNode("fresh", NoParent, mgl32.Translate3D(2, 0, 0), UnitBox)
	require.NoError(t, err)
	assert.Equal(t, old.Index, fresh.Index)
	assert.NotEqual(t, old.Generation, fresh.Generation)

	assert.False(t, g.Contains(old))
	assert.ErrorIs(t, g.SetLocal(old, mgl32.Ident4()), ErrNodeRemoved)

	world, err := g.WorldTransform(fresh)
	require.NoError(t, err)
	assert.Equal(t, mgl32.Translate3D(2, 0, 0), world)
}

func TestSceneGraph_RemoveSubtreeWithRecycledChild(t *testing.T) {
	g := NewSceneGraph()

	first, _ := g.AddNode("first", NoParent, mgl32.Ident4(), UnitBox)
	parent, _ := g.AddNode("parent", NoParent, mgl32.Ident4(), UnitBox)
	g.RemoveNode(first)

	// The child takes the lower, recycled slot.
	child, _ := g.AddNode("child", parent, mgl32.Ident4(), UnitBox)
	grandchild, _ := g.AddNode("grandchild", child, mgl32.Ident4(), UnitBox)
	require.Less(t, child.Index, parent.Index)

	assert.Equal(t, 3, g.RemoveNode(parent))
	assert.False(t, g.Contains(grandchild))
	assert.Equal(t, 0, g.Len())
}

func TestSceneGraph_HiddenAncestor(t *testing.T) {
	g := NewSceneGraph()

	root, _ := g.AddNode("root", NoParent, mgl32.Ident4(), UnitBox)
	child, _ := g.AddNode("child", root, mgl32.Ident4(), UnitBox)
	other, _ := g.AddNode("other", NoParent, mgl32.Ident4(), UnitBox)

	require.NoError(t, g.SetHidden(root, true))
	assert.Equal(t, []NodeID{other}, g.Live())
	assert.True(t, g.Contains(child))

	require.NoError(t, g.SetHidden(root, false))
	assert.Equal(t, []NodeID{root, child, other}, g.Live())
}

func TestSceneGraph_SetPose(t *testing.T) {
	g := NewSceneGraph()
	id, _ := g.AddNode("n", NoParent, mgl32.Ident4(), UnitBox)

	p := NewTransform()
	p.Position = mgl32.Vec3{1, 2, 3}
	require.NoError(t, g.SetPose(id, p))

	world, err := g.WorldTransform(id)
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, world.Col(3).Vec3())
}

func TestTransform_InverseMatrix(t *testing.T) {
	p := Transform{
		Position: mgl32.Vec3{1, -2, 3},
		Rotation: mgl32.QuatRotate(0.8, mgl32.Vec3{0, 1, 0}),
		Scale:    mgl32.Vec3{2, 1, 0.5},
	}
	inv, err := p.InverseMatrix()
	require.NoError(t, err)
	assert.True(t, mat4Near(p.Matrix().Mul4(inv), mgl32.Ident4(), 1e-5))

	p.Scale = mgl32.Vec3{1, 0, 1}
	_, err = p.InverseMatrix()
	assert.ErrorIs(t, err, ErrDegenerateTransform)
}

func TestNodeID_String(t *testing.T) {
	assert.Equal(t, "#3.1", NodeID{Index: 3, Generation: 1}.String())
	assert.Equal(t, "#root", NoParent.String())
}
