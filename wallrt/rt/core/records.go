package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// NodeData is the per-node transform bundle handed to the GPU stage.
// It is rebuilt every frame and never mutated once resolved.
type NodeData struct {
	ModelTransform                      mgl32.Mat4
	InverseModelTransform               mgl32.Mat4
	ModelViewTransform                  mgl32.Mat4
	InverseModelViewTransform           mgl32.Mat4
	NormalTransform                     mgl32.Mat4
	ModelViewProjectionTransform        mgl32.Mat4
	InverseModelViewProjectionTransform mgl32.Mat4
	BoundingBox                         Box
	WorldBoundingBox                    Box
}

// WallBlendData holds the compositing parameters for one swatch overlay.
type WallBlendData struct {
	ViewToCamera                 mgl32.Mat3
	SwatchWorldTransform         mgl32.Mat4
	TextureTransform             mgl32.Mat4
	ModelViewProjectionTransform mgl32.Mat4
	Color                        mgl32.Vec4
	HasColor                     uint32
	BlendPercent                 float32
	BlendLighten                 float32
}

// WallBlendVertex is one vertex of the swatch overlay mesh, in swatch-local space.
type WallBlendVertex struct {
	Position  mgl32.Vec3
	Texcoord0 mgl32.Vec2
}

// UsesColor reports whether the flat colour path is active.
func (d WallBlendData) UsesColor() bool {
	return d.HasColor != 0
}
