package core

import (
	"context"
	"runtime"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"
)

// ComposeModel multiplies the chain root to leaf: C0 * C1 * ... * Cn.
// An empty chain is the identity.
func ComposeModel(chain []mgl32.Mat4) mgl32.Mat4 {
	model := mgl32.Ident4()
	for _, local := range chain {
		model = model.Mul4(local)
	}
	return model
}

// ResolveNode builds the full transform bundle for one node. It is a pure
// function of its arguments and safe to call from many goroutines.
func ResolveNode(chain []mgl32.Mat4, bounds Box, cam Camera) (NodeData, error) {
	if !bounds.Valid() {
		return NodeData{}, ErrInvalidBounds
	}

	model := ComposeModel(chain)
	invModel, err := invert4("model", model)
	if err != nil {
		return NodeData{}, err
	}

	modelView := cam.View.Mul4(model)
	invModelView, err := invert4("model-view", modelView)
	if err != nil {
		return NodeData{}, err
	}

	normal, err := NormalMatrix(model)
	if err != nil {
		return NodeData{}, err
	}

	mvp := cam.Projection.Mul4(modelView)
	invMVP, err := invert4("model-view-projection", mvp)
	if err != nil {
		return NodeData{}, err
	}

	return NodeData{
		ModelTransform:                      model,
		InverseModelTransform:               invModel,
		ModelViewTransform:                  modelView,
		InverseModelViewTransform:           invModelView,
		NormalTransform:                     normal,
		ModelViewProjectionTransform:        mvp,
		InverseModelViewProjectionTransform: invMVP,
		BoundingBox:                         bounds,
		WorldBoundingBox:                    TransformBox(bounds, model),
	}, nil
}

type ResolveOptions struct {
	// Workers bounds the number of nodes resolved concurrently.
	// Zero means GOMAXPROCS.
	Workers int
}

// ResolvedNode pairs a record with the node it was resolved from.
type ResolvedNode struct {
	ID   NodeID
	Name string
	Data NodeData
}

// FrameNodes is the output set of one resolution pass.
type FrameNodes struct {
	Camera   Camera
	Resolved []ResolvedNode
	Skipped  []NodeError
}

// Records returns the resolved NodeData in output order.
func (f *FrameNodes) Records() []NodeData {
	out := make([]NodeData, len(f.Resolved))
	for i, r := range f.Resolved {
		out[i] = r.Data
	}
	return out
}

// Visible returns the resolved nodes whose world bounds intersect the camera frustum.
func (f *FrameNodes) Visible() []ResolvedNode {
	planes := ExtractFrustum(f.Camera.ViewProjection())
	out := make([]ResolvedNode, 0, len(f.Resolved))
	for _, r := range f.Resolved {
		if BoxInFrustum(r.Data.WorldBoundingBox, planes) {
			out = append(out, r)
		}
	}
	return out
}

// Lookup finds the record resolved for id.
func (f *FrameNodes) Lookup(id NodeID) (NodeData, bool) {
	for _, r := range f.Resolved {
		if r.ID == id {
			return r.Data, true
		}
	}
	return NodeData{}, false
}

type resolveSlot struct {
	ok   bool
	name string
	data NodeData
	err  error
}

// ResolveScene resolves every live node of graph in parallel and returns once
// all of them are done. A node that fails (singular transform, removed
// mid-frame) lands in Skipped and never affects its siblings; only context
// cancellation fails the call.
func ResolveScene(ctx context.Context, graph *SceneGraph, cam Camera, opts ResolveOptions) (*FrameNodes, error) {
	ids := graph.Live()
	slots := make([]resolveSlot, len(ids))

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, id := range ids {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			in, err := graph.ResolveInput(id)
			if err != nil {
				slots[i].err = err
				return nil
			}
			data, err := ResolveNode(in.Chain, in.Bounds, cam)
			if err != nil {
				slots[i].err = err
				return nil
			}
			slots[i] = resolveSlot{ok: true, name: in.Name, data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &FrameNodes{
		Camera:   cam,
		Resolved: make([]ResolvedNode, 0, len(ids)),
	}
	for i, s := range slots {
		if s.ok {
			out.Resolved = append(out.Resolved, ResolvedNode{ID: ids[i], Name: s.name, Data: s.data})
			continue
		}
		out.Skipped = append(out.Skipped, NodeError{Node: ids[i], Err: s.err})
	}
	return out, nil
}
