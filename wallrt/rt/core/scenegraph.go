package core

import (
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// NodeID is a generational handle into a SceneGraph arena.
// A handle outlives its node safely: once the slot is recycled the generation
// no longer matches.
type NodeID struct {
	Index      uint32
	Generation uint32
}

// NoParent marks a root node.
var NoParent = NodeID{Index: ^uint32(0)}

func (id NodeID) String() string {
	if id == NoParent {
		return "#root"
	}
	return fmt.Sprintf("#%d.%d", id.Index, id.Generation)
}

type sceneNode struct {
	generation uint32
	alive      bool
	hidden     bool
	parent     int32 // -1 for roots
	name       string
	local      mgl32.Mat4
	bounds     Box
}

// NodeInput is the consistent per-node snapshot the resolver works from.
type NodeInput struct {
	ID     NodeID
	Name   string
	Chain  []mgl32.Mat4 // root -> node
	Bounds Box
}

// SceneGraph stores nodes in a flat arena. Parents are referenced by index,
// so resolving a node only walks its own ancestor chain.
type SceneGraph struct {
	mu    sync.RWMutex
	nodes []sceneNode
	free  []uint32
	live  int
}

func NewSceneGraph() *SceneGraph {
	return &SceneGraph{}
}

func (g *SceneGraph) lookup(id NodeID) (int, bool) {
	if id.Index >= uint32(len(g.nodes)) {
		return 0, false
	}
	n := &g.nodes[id.Index]
	if !n.alive || n.generation != id.Generation {
		return 0, false
	}
	return int(id.Index), true
}

// AddNode inserts a node under parent (NoParent for a root).
func (g *SceneGraph) AddNode(name string, parent NodeID, local mgl32.Mat4, bounds Box) (NodeID, error) {
	if !bounds.Valid() {
		return NodeID{}, fmt.Errorf("add node %q: %w", name, ErrInvalidBounds)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	parentIdx := int32(-1)
	if parent != NoParent {
		idx, ok := g.lookup(parent)
		if !ok {
			return NodeID{}, fmt.Errorf("add node %q: parent %v: %w", name, parent, ErrNodeRemoved)
		}
		parentIdx = int32(idx)
	}

	node := sceneNode{
		alive:  true,
		parent: parentIdx,
		name:   name,
		local:  local,
		bounds: bounds,
	}

	var idx uint32
	if n := len(g.free); n > 0 {
		idx = g.free[n-1]
		g.free = g.free[:n-1]
		node.generation = g.nodes[idx].generation + 1
		g.nodes[idx] = node
	} else {
		idx = uint32(len(g.nodes))
		g.nodes = append(g.nodes, node)
	}
	g.live++

	return NodeID{Index: idx, Generation: node.generation}, nil
}

// RemoveNode removes the node and its whole subtree. Removing a stale handle
// is a no-op.
func (g *SceneGraph) RemoveNode(id NodeID) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	root, ok := g.lookup(id)
	if !ok {
		return 0
	}

	removed := 0
	doomed := map[int]bool{root: true}
	// Recycled slots can place a child before its parent, so sweep until the set stops growing.
	for changed := true; changed; {
		changed = false
		for i := range g.nodes {
			n := &g.nodes[i]
			if !n.alive || doomed[i] || n.parent < 0 {
				continue
			}
			if doomed[int(n.parent)] {
				doomed[i] = true
				changed = true
			}
		}
	}

	for i := range doomed {
		n := &g.nodes[i]
		n.alive = false
		n.parent = -1
		g.free = append(g.free, uint32(i))
		removed++
	}
	g.live -= removed
	return removed
}

func (g *SceneGraph) Contains(id NodeID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.lookup(id)
	return ok
}

func (g *SceneGraph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.live
}

// SetLocal replaces a node's local-to-parent transform.
func (g *SceneGraph) SetLocal(id NodeID, local mgl32.Mat4) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx, ok := g.lookup(id)
	if !ok {
		return fmt.Errorf("set local %v: %w", id, ErrNodeRemoved)
	}
	g.nodes[idx].local = local
	return nil
}

// SetPose is SetLocal for a translation/rotation/scale pose.
func (g *SceneGraph) SetPose(id NodeID, pose Transform) error {
	return g.SetLocal(id, pose.Matrix())
}

func (g *SceneGraph) SetBounds(id NodeID, bounds Box) error {
	if !bounds.Valid() {
		return fmt.Errorf("set bounds %v: %w", id, ErrInvalidBounds)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	idx, ok := g.lookup(id)
	if !ok {
		return fmt.Errorf("set bounds %v: %w", id, ErrNodeRemoved)
	}
	g.nodes[idx].bounds = bounds
	return nil
}

// SetHidden excludes a node (and, through Live, its descendants) from resolution.
func (g *SceneGraph) SetHidden(id NodeID, hidden bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx, ok := g.lookup(id)
	if !ok {
		return fmt.Errorf("set hidden %v: %w", id, ErrNodeRemoved)
	}
	g.nodes[idx].hidden = hidden
	return nil
}

// Live returns the handles of all live nodes that are not hidden and have no
// hidden ancestor, in arena order.
func (g *SceneGraph) Live() []NodeID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := make([]NodeID, 0, g.live)
	for i := range g.nodes {
		n := &g.nodes[i]
		if !n.alive || g.hiddenChain(i) {
			continue
		}
		ids = append(ids, NodeID{Index: uint32(i), Generation: n.generation})
	}
	return ids
}

func (g *SceneGraph) hiddenChain(idx int) bool {
	for i := int32(idx); i >= 0; i = g.nodes[i].parent {
		if g.nodes[i].hidden {
			return true
		}
	}
	return false
}

// Chain returns the local transforms from the root down to id, inclusive.
func (g *SceneGraph) Chain(id NodeID) ([]mgl32.Mat4, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	idx, ok := g.lookup(id)
	if !ok {
		return nil, ErrNodeRemoved
	}
	return g.chain(idx), nil
}

func (g *SceneGraph) chain(idx int) []mgl32.Mat4 {
	depth := 0
	for i := int32(idx); i >= 0; i = g.nodes[i].parent {
		depth++
	}
	chain := make([]mgl32.Mat4, depth)
	for i := int32(idx); i >= 0; i = g.nodes[i].parent {
		depth--
		chain[depth] = g.nodes[i].local
	}
	return chain
}

// ResolveInput snapshots everything the resolver needs for one node under a
// single read lock.
func (g *SceneGraph) ResolveInput(id NodeID) (NodeInput, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	idx, ok := g.lookup(id)
	if !ok {
		return NodeInput{}, ErrNodeRemoved
	}
	n := &g.nodes[idx]
	return NodeInput{
		ID:     id,
		Name:   n.name,
		Chain:  g.chain(idx),
		Bounds: n.bounds,
	}, nil
}

// WorldTransform composes the chain of id.
func (g *SceneGraph) WorldTransform(id NodeID) (mgl32.Mat4, error) {
	chain, err := g.Chain(id)
	if err != nil {
		return mgl32.Mat4{}, err
	}
	return ComposeModel(chain), nil
}
