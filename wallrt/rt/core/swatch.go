package core

import (
	"fmt"
	"image"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// WallPlane is a detected vertical wall: a rectangle of Width x Height metres
// centred on Origin, facing along its local +Z after a rotation of Heading
// radians around world Y.
type WallPlane struct {
	Origin  mgl32.Vec3
	Heading float32
	Width   float32
	Height  float32
}

func (w WallPlane) Valid() bool {
	return finite(w.Origin.X()) && finite(w.Origin.Y()) && finite(w.Origin.Z()) &&
		finite(w.Heading) &&
		finite(w.Width) && finite(w.Height) &&
		w.Width > 0 && w.Height > 0
}

// MountTransform is the wall-local to world transform, T(origin) * RotY(heading).
func (w WallPlane) MountTransform() mgl32.Mat4 {
	return mgl32.Translate3D(w.Origin.X(), w.Origin.Y(), w.Origin.Z()).
		Mul4(mgl32.HomogRotate3DY(w.Heading))
}

// Normal is the wall's facing direction in world space.
func (w WallPlane) Normal() mgl32.Vec3 {
	return mgl32.Vec3{math32.Sin(w.Heading), 0, math32.Cos(w.Heading)}
}

// WallPlaneFromNormal builds a wall from a detected plane normal. The
// vertical component of the normal is ignored.
func WallPlaneFromNormal(origin, normal mgl32.Vec3, width, height float32) (WallPlane, error) {
	flat := mgl32.Vec2{normal.X(), normal.Z()}
	if flat.Len() < 1e-6 || !finite(flat.Len()) {
		return WallPlane{}, fmt.Errorf("wall normal %v is not horizontal: %w", normal, ErrMissingWallPlane)
	}
	w := WallPlane{
		Origin:  origin,
		Heading: math32.Atan2(normal.X(), normal.Z()),
		Width:   width,
		Height:  height,
	}
	if !w.Valid() {
		return WallPlane{}, ErrMissingWallPlane
	}
	return w, nil
}

// LocalToWorld maps a point on the wall (x right, y up, metres from the
// origin) to world space.
func (w WallPlane) LocalToWorld(p mgl32.Vec2) mgl32.Vec3 {
	return mgl32.TransformCoordinate(mgl32.Vec3{p.X(), p.Y(), 0}, w.MountTransform())
}

// WorldToLocal projects a world point onto the wall plane and returns its
// wall coordinates.
func (w WallPlane) WorldToLocal(p mgl32.Vec3) mgl32.Vec2 {
	d := p.Sub(w.Origin)
	c, s := math32.Cos(w.Heading), math32.Sin(w.Heading)
	// inverse of RotY(heading) applied to d, z dropped
	return mgl32.Vec2{c*d.X() - s*d.Z(), d.Y()}
}

// SwatchPlacement positions the swatch rectangle on the wall, in wall-local
// metres. A zero Size means the whole wall.
type SwatchPlacement struct {
	Translation mgl32.Vec2
	Size        mgl32.Vec2
}

// Extent returns the placement size, falling back to the wall extent.
func (p SwatchPlacement) Extent(w WallPlane) mgl32.Vec2 {
	if p.Size.X() > 0 && p.Size.Y() > 0 && finite(p.Size.X()) && finite(p.Size.Y()) {
		return p.Size
	}
	return mgl32.Vec2{w.Width, w.Height}
}

type SwatchKind int

const (
	// SwatchNone renders a transparent colour, leaving the wall untouched.
	SwatchNone SwatchKind = iota
	SwatchColor
	SwatchTexture
)

func (k SwatchKind) String() string {
	switch k {
	case SwatchColor:
		return "color"
	case SwatchTexture:
		return "texture"
	default:
		return "none"
	}
}

type Anchor int

const (
	AnchorCenter Anchor = iota
	AnchorTopLeft
)

// Tiling scales and offsets the swatch texture in wall-surface UV space.
type Tiling struct {
	ScaleU  float32 `yaml:"scale_u"`
	ScaleV  float32 `yaml:"scale_v"`
	OffsetU float32 `yaml:"offset_u"`
	OffsetV float32 `yaml:"offset_v"`
}

func DefaultTiling() Tiling {
	return Tiling{ScaleU: 1, ScaleV: 1}
}

func (t Tiling) Validate() error {
	if !finite(t.ScaleU) || !finite(t.ScaleV) || t.ScaleU <= 0 || t.ScaleV <= 0 {
		return fmt.Errorf("tiling scale (%g, %g): %w", t.ScaleU, t.ScaleV, ErrInvalidSwatchConfig)
	}
	if !finite(t.OffsetU) || !finite(t.OffsetV) {
		return fmt.Errorf("tiling offset (%g, %g): %w", t.OffsetU, t.OffsetV, ErrInvalidSwatchConfig)
	}
	return nil
}

// Swatch is the user's current paint selection.
type Swatch struct {
	ID     uuid.UUID
	Name   string
	Kind   SwatchKind
	Color  mgl32.Vec4
	Anchor Anchor
	Tiling Tiling

	// Texture is the decoded material image. TextureSize is the physical
	// size in metres one copy of it covers on the wall.
	Texture     image.Image
	TextureSize mgl32.Vec2
}

func NewColorSwatch(name string, rgb mgl32.Vec3) *Swatch {
	return &Swatch{
		ID:     uuid.New(),
		Name:   name,
		Kind:   SwatchColor,
		Color:  rgb.Vec4(1),
		Tiling: DefaultTiling(),
	}
}

func NewTextureSwatch(name string, tex image.Image, size mgl32.Vec2, anchor Anchor) *Swatch {
	return &Swatch{
		ID:          uuid.New(),
		Name:        name,
		Kind:        SwatchTexture,
		Texture:     tex,
		TextureSize: size,
		Anchor:      anchor,
		Tiling:      DefaultTiling(),
	}
}

// Validate checks the texture-specific fields. Colour swatches always pass.
func (s *Swatch) Validate() error {
	if s == nil || s.Kind != SwatchTexture {
		return nil
	}
	if err := s.Tiling.Validate(); err != nil {
		return err
	}
	if s.TextureSize.X() <= 0 || s.TextureSize.Y() <= 0 || !finite(s.TextureSize.X()) || !finite(s.TextureSize.Y()) {
		return fmt.Errorf("texture size %v: %w", s.TextureSize, ErrInvalidSwatchConfig)
	}
	return nil
}
