package core

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	DefaultBlendPercent = 1.0
	DefaultBlendLighten = 0.3
	// DefaultSurfaceOffset is the overlay's distance from the wall along its local Z.
	DefaultSurfaceOffset = -0.006
)

// BlendSettings are the user-controlled compositing parameters.
type BlendSettings struct {
	Percent float32 `yaml:"percent"`
	Lighten float32 `yaml:"lighten"`
}

func DefaultBlendSettings() BlendSettings {
	return BlendSettings{Percent: DefaultBlendPercent, Lighten: DefaultBlendLighten}
}

// Clamped returns the settings limited to [0, 1]. NaN becomes 0.
func (s BlendSettings) Clamped() BlendSettings {
	return BlendSettings{Percent: clamp01(s.Percent), Lighten: clamp01(s.Lighten)}
}

func clamp01(v float32) float32 {
	if math32.IsNaN(v) {
		return 0
	}
	return math32.Max(0, math32.Min(1, v))
}

// CompositeInput is everything one overlay evaluation depends on.
type CompositeInput struct {
	Camera    Camera
	Wall      *WallPlane
	Placement SwatchPlacement
	Swatch    *Swatch
	Blend     BlendSettings

	// SwatchNode is the resolved record of the swatch's scene node. When set,
	// its world and MVP transforms are used as is; otherwise they are derived
	// from Wall and Placement.
	SwatchNode *NodeData
}

// WallBlend is the compositor output for one overlay.
type WallBlend struct {
	Data WallBlendData
	Mesh Mesh
}

type Compositor struct {
	SurfaceOffset float32
	// SegmentsX and SegmentsY subdivide the overlay quad. Zero means 1.
	SegmentsX int
	SegmentsY int

	mesh *Mesh
}

func NewCompositor() *Compositor {
	return &Compositor{
		SurfaceOffset: DefaultSurfaceOffset,
		SegmentsX:     1,
		SegmentsY:     1,
	}
}

// Mesh returns the overlay mesh, generating it on first use or when the
// subdivision changed.
func (c *Compositor) Mesh() Mesh {
	sx, sy := max(c.SegmentsX, 1), max(c.SegmentsY, 1)
	if c.mesh == nil || c.mesh.SegmentsX != sx || c.mesh.SegmentsY != sy {
		m := QuadMesh(sx, sy)
		c.mesh = &m
	}
	return *c.mesh
}

// Reset drops the cached mesh, as when the overlay is removed.
func (c *Compositor) Reset() {
	c.mesh = nil
}

// Compose evaluates the overlay for the current camera, wall and swatch.
// Without a usable wall it returns ErrMissingWallPlane and no record. An
// unusable tiling still yields a record, built with the default tiling,
// together with an error wrapping ErrInvalidSwatchConfig.
func (c *Compositor) Compose(in CompositeInput) (*WallBlend, error) {
	if in.Wall == nil || !in.Wall.Valid() {
		return nil, ErrMissingWallPlane
	}
	wall := *in.Wall

	viewToCamera, err := in.Camera.ViewToCamera()
	if err != nil {
		return nil, err
	}

	extent := in.Placement.Extent(wall)
	texTransform, configErr := TextureTransform(in.Swatch, extent)

	data := WallBlendData{
		// Stored in row-vector form: uv' = vec3(uv, 1) * ViewToCamera.
		ViewToCamera:     viewToCamera.Transpose(),
		TextureTransform: texTransform,
	}
	if in.SwatchNode != nil {
		data.SwatchWorldTransform = in.SwatchNode.ModelTransform
		data.ModelViewProjectionTransform = in.SwatchNode.ModelViewProjectionTransform
	} else {
		data.SwatchWorldTransform = c.SwatchWorld(wall, in.Placement)
		data.ModelViewProjectionTransform = in.Camera.Projection.Mul4(in.Camera.View.Mul4(data.SwatchWorldTransform))
	}
	data.Color, data.HasColor = swatchColor(in.Swatch)

	blend := in.Blend.Clamped()
	data.BlendPercent = blend.Percent
	data.BlendLighten = blend.Lighten

	return &WallBlend{Data: data, Mesh: c.Mesh()}, configErr
}

// SwatchWorld places the unit overlay quad on the wall:
// Mount * T(tx, ty, SurfaceOffset) * S(w/2, h/2, 1).
func (c *Compositor) SwatchWorld(wall WallPlane, p SwatchPlacement) mgl32.Mat4 {
	extent := p.Extent(wall)
	return wall.MountTransform().
		Mul4(mgl32.Translate3D(p.Translation.X(), p.Translation.Y(), c.SurfaceOffset)).
		Mul4(mgl32.Scale3D(extent.X()/2, extent.Y()/2, 1))
}

// swatchColor selects the compositing path. No selection renders a
// transparent colour; a texture leaves the colour at zero.
func swatchColor(s *Swatch) (mgl32.Vec4, uint32) {
	if s == nil {
		return mgl32.Vec4{}, 1
	}
	switch s.Kind {
	case SwatchTexture:
		return mgl32.Vec4{}, 0
	case SwatchColor:
		return mgl32.Vec4{clamp01(s.Color.X()), clamp01(s.Color.Y()), clamp01(s.Color.Z()), 1}, 1
	default:
		return mgl32.Vec4{}, 1
	}
}

// TextureTransform maps overlay texcoords to swatch texture coordinates.
// One texture copy covers TextureSize metres of wall, so the scale is
// extent / TextureSize, further multiplied by the tiling scale. A centre
// anchor puts the texture origin at the middle of the overlay.
// Colour swatches use the identity.
func TextureTransform(s *Swatch, extent mgl32.Vec2) (mgl32.Mat4, error) {
	if s == nil || s.Kind != SwatchTexture {
		return mgl32.Ident4(), nil
	}

	var configErr error
	tiling := s.Tiling
	if err := tiling.Validate(); err != nil {
		configErr = err
		tiling = DefaultTiling()
	}
	texSize := s.TextureSize
	if texSize.X() <= 0 || texSize.Y() <= 0 || !finite(texSize.X()) || !finite(texSize.Y()) {
		if configErr == nil {
			configErr = s.Validate()
		}
		texSize = extent
	}

	su := extent.X() / texSize.X() * tiling.ScaleU
	sv := extent.Y() / texSize.Y() * tiling.ScaleV

	var anchor mgl32.Vec2
	if s.Anchor == AnchorCenter {
		anchor = mgl32.Vec2{-su / 2, -sv / 2}
	}

	m := mgl32.Translate3D(tiling.OffsetU, tiling.OffsetV, 0).
		Mul4(mgl32.Translate3D(anchor.X(), anchor.Y(), 0)).
		Mul4(mgl32.Scale3D(su, sv, 1))
	return m, configErr
}

// IsConfigError reports whether err only signals a recovered swatch
// configuration problem, meaning the accompanying record is usable.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidSwatchConfig)
}
