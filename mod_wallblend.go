package primer

import (
	"errors"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/primerar/primer/wallrt/rt/core"
)

// SwatchSelection is the user's current overlay choice. The UI may update it
// from any goroutine; the wall blend stage reads a snapshot once per frame.
type SwatchSelection struct {
	mu        sync.Mutex
	swatch    *core.Swatch
	placement core.SwatchPlacement
	blend     core.BlendSettings
	revision  uint64
}

func NewSwatchSelection(blend core.BlendSettings) *SwatchSelection {
	return &SwatchSelection{blend: blend}
}

// SelectSwatch switches the overlay to s; nil clears the selection. The
// swatch must not be mutated after it is selected.
func (s *SwatchSelection) SelectSwatch(swatch *core.Swatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swatch = swatch
	s.revision++
}

func (s *SwatchSelection) SetBlendSettings(blend core.BlendSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blend = blend
	s.revision++
}

func (s *SwatchSelection) SetPlacement(p core.SwatchPlacement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.placement = p
	s.revision++
}

// SetTiling replaces the tiling of the selected swatch.
func (s *SwatchSelection) SetTiling(t core.Tiling) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.swatch == nil {
		return
	}
	next := *s.swatch
	next.Tiling = t
	s.swatch = &next
	s.revision++
}

type selectionSnapshot struct {
	swatch    *core.Swatch
	placement core.SwatchPlacement
	blend     core.BlendSettings
	revision  uint64
}

func (s *SwatchSelection) snapshot() selectionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return selectionSnapshot{
		swatch:    s.swatch,
		placement: s.placement,
		blend:     s.blend,
		revision:  s.revision,
	}
}

// Swatch returns the selected swatch, or nil.
func (s *SwatchSelection) Swatch() *core.Swatch {
	return s.snapshot().swatch
}

// wallBlendKey is every input Compose depends on.
type wallBlendKey struct {
	camera   core.Camera
	wall     core.WallPlane
	hasWall  bool
	swatchID uuid.UUID
	revision uint64
	segX     int
	segY     int
	offset   float32
	// node is the swatch node's resolved world transform, zero when the
	// compositor derives it.
	node mgl32.Mat4
}

// WallBlendCache keeps the previous frame's overlay. An entry is only reused
// by the frame immediately after the one that stored or reused it.
type WallBlendCache struct {
	key   wallBlendKey
	frame uint64
	value *core.WallBlend
	err   error
	valid bool

	Hits   uint64
	Misses uint64
}

func (c *WallBlendCache) lookup(key wallBlendKey, frame uint64) (*core.WallBlend, error, bool) {
	if !c.valid || c.key != key || c.frame+1 != frame {
		return nil, nil, false
	}
	c.frame = frame
	c.Hits++
	return c.value, c.err, true
}

func (c *WallBlendCache) store(key wallBlendKey, frame uint64, value *core.WallBlend, err error) {
	c.key = key
	c.frame = frame
	c.value = value
	c.err = err
	c.valid = value != nil
	c.Misses++
}

func (c *WallBlendCache) Invalidate() {
	c.valid = false
	c.value = nil
	c.err = nil
}

// swatchNodeBounds is the overlay quad in its own space.
var swatchNodeBounds = core.Box{Min: mgl32.Vec3{-1, -1, 0}, Max: mgl32.Vec3{1, 1, 0}}

const swatchNodeName = "swatch"

type wallBlendState struct {
	compositor *core.Compositor
	lastErr    error

	node    core.NodeID
	hasNode bool
}

// WallBlendModule composes the swatch overlay in PreRender, after node
// resolution and against the tracking snapshot of the same frame. When a
// Scene is installed the swatch is one of its nodes, and the overlay uses the
// record the resolver produced for it.
type WallBlendModule struct {
	Compositor *core.Compositor
	Selection  *SwatchSelection
}

func (m WallBlendModule) Install(app *App, cmd *Commands) {
	ensureFrame(app)

	comp := m.Compositor
	if comp == nil {
		comp = core.NewCompositor()
	}
	sel := m.Selection
	if sel == nil {
		sel = NewSwatchSelection(core.DefaultBlendSettings())
	}
	cmd.AddResources(sel, &WallBlendCache{}, &wallBlendState{compositor: comp})
	app.UseSystem(System(swatchNodeSystem).InStage(Update))
	app.UseSystem(System(WallBlendSystem).InStage(PreRender))
}

// swatchNodeSystem keeps the swatch node on the wall. The node is hidden
// while no wall is tracked.
func swatchNodeSystem(cmd *Commands, tracking *Tracking, sel *SwatchSelection, state *wallBlendState) {
	scene, ok := Resource[Scene](cmd.app)
	if !ok {
		return
	}
	graph := scene.Graph

	wall := tracking.Latest.Wall
	onWall := tracking.Valid && wall != nil && wall.Valid()
	var local mgl32.Mat4
	if onWall {
		local = state.compositor.SwatchWorld(*wall, sel.snapshot().placement)
	}

	if state.hasNode && !graph.Contains(state.node) {
		state.hasNode = false
	}
	if !state.hasNode {
		if !onWall {
			return
		}
		id, err := graph.AddNode(swatchNodeName, core.NoParent, local, swatchNodeBounds)
		if err != nil {
			cmd.Logger().Warnf("adding swatch node: %v", err)
			return
		}
		state.node, state.hasNode = id, true
		return
	}

	if onWall {
		if err := graph.SetLocal(state.node, local); err != nil {
			cmd.Logger().Warnf("moving swatch node: %v", err)
		}
	}
	if err := graph.SetHidden(state.node, !onWall); err != nil {
		cmd.Logger().Warnf("hiding swatch node: %v", err)
	}
}

func WallBlendSystem(cmd *Commands, tracking *Tracking, sel *SwatchSelection, cache *WallBlendCache, state *wallBlendState, frame *Frame) {
	if !tracking.Valid {
		cache.Invalidate()
		return
	}

	snap := sel.snapshot()
	comp := state.compositor
	key := wallBlendKey{
		camera:   tracking.Latest.Camera,
		revision: snap.revision,
		segX:     comp.SegmentsX,
		segY:     comp.SegmentsY,
		offset:   comp.SurfaceOffset,
	}
	if tracking.Latest.Wall != nil {
		key.wall = *tracking.Latest.Wall
		key.hasWall = true
	}
	if snap.swatch != nil {
		key.swatchID = snap.swatch.ID
	}
	var node *core.NodeData
	if state.hasNode && frame.Resolution != nil {
		if nd, ok := frame.Resolution.Lookup(state.node); ok {
			node = &nd
			key.node = nd.ModelTransform
		}
	}

	if blend, err, ok := cache.lookup(key, frame.Index); ok {
		frame.WallBlend = blend
		frame.WallBlendErr = err
		frame.WallBlendReuse = true
		return
	}

	blend, err := comp.Compose(core.CompositeInput{
		Camera:     tracking.Latest.Camera,
		Wall:       tracking.Latest.Wall,
		Placement:  snap.placement,
		Swatch:     snap.swatch,
		Blend:      snap.blend,
		SwatchNode: node,
	})
	cache.store(key, frame.Index, blend, err)
	frame.WallBlend = blend
	frame.WallBlendErr = err

	if errors.Is(err, core.ErrMissingWallPlane) {
		// Overlay is gone until a wall is found again.
		comp.Reset()
	}
	if err != nil && errText(err) != errText(state.lastErr) {
		if errors.Is(err, core.ErrMissingWallPlane) {
			cmd.Logger().Debugf("frame %d: no wall plane, overlay suppressed", frame.Index)
		} else {
			cmd.Logger().Warnf("frame %d: wall blend: %v", frame.Index, err)
		}
	}
	state.lastErr = err
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
