package core

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	DefaultNear = 0.01
	DefaultFar  = 100.0
)

// Orientation is the interface orientation the camera image is displayed in.
// The captured image itself is always delivered in LandscapeRight.
type Orientation int

const (
	LandscapeRight Orientation = iota
	Portrait
	LandscapeLeft
	PortraitUpsideDown
)

func (o Orientation) String() string {
	switch o {
	case Portrait:
		return "portrait"
	case LandscapeLeft:
		return "landscape-left"
	case PortraitUpsideDown:
		return "portrait-upside-down"
	default:
		return "landscape-right"
	}
}

// Camera is the per-frame camera snapshot supplied by tracking.
type Camera struct {
	View         mgl32.Mat4
	Projection   mgl32.Mat4
	Orientation  Orientation
	ImageSize    mgl32.Vec2 // captured image, pixels
	ViewportSize mgl32.Vec2 // display, pixels
}

// NewCamera builds a camera from its camera-to-world pose.
func NewCamera(pose mgl32.Mat4, projection mgl32.Mat4) (Camera, error) {
	view, err := invert4("camera pose", pose)
	if err != nil {
		return Camera{}, err
	}
	return Camera{
		View:       view,
		Projection: projection,
	}, nil
}

func Perspective(fovY, aspect, near, far float32) mgl32.Mat4 {
	if aspect <= 0 || !finite(aspect) {
		aspect = 1
	}
	return mgl32.Perspective(fovY, aspect, near, far)
}

func (c Camera) ViewProjection() mgl32.Mat4 {
	return c.Projection.Mul4(c.View)
}

// Position returns the camera position in world space.
func (c Camera) Position() mgl32.Vec3 {
	inv, err := invert4("view", c.View)
	if err != nil {
		return mgl32.Vec3{}
	}
	return inv.Col(3).Vec3()
}

// DisplayTransform maps normalized captured-image coordinates to normalized
// viewport coordinates: rotate into the interface orientation, then scale
// about the centre so the image fills the viewport (aspect fill).
func (c Camera) DisplayTransform() mgl32.Mat3 {
	var rot mgl32.Mat3
	imageAspect := aspectOf(c.ImageSize)
	switch c.Orientation {
	case Portrait:
		// (u, v) -> (1 - v, u)
		rot = mgl32.Mat3{0, 1, 0, -1, 0, 0, 1, 0, 1}
		imageAspect = 1 / imageAspect
	case LandscapeLeft:
		// (u, v) -> (1 - u, 1 - v)
		rot = mgl32.Mat3{-1, 0, 0, 0, -1, 0, 1, 1, 1}
	case PortraitUpsideDown:
		// (u, v) -> (v, 1 - u)
		rot = mgl32.Mat3{0, -1, 0, 1, 0, 0, 0, 1, 1}
		imageAspect = 1 / imageAspect
	default:
		rot = mgl32.Ident3()
	}

	viewAspect := aspectOf(c.ViewportSize)
	kx, ky := float32(1), float32(1)
	if imageAspect > viewAspect {
		kx = imageAspect / viewAspect
	} else {
		ky = viewAspect / imageAspect
	}
	fill := mgl32.Mat3{
		kx, 0, 0,
		0, ky, 0,
		0.5 - 0.5*kx, 0.5 - 0.5*ky, 1,
	}
	return fill.Mul3(rot)
}

// ViewToCamera is the inverse display transform: it maps a normalized
// viewport coordinate back into the captured camera image.
func (c Camera) ViewToCamera() (mgl32.Mat3, error) {
	return invert3("display", c.DisplayTransform())
}

func aspectOf(size mgl32.Vec2) float32 {
	if size[0] <= 0 || size[1] <= 0 || !finite(size[0]) || !finite(size[1]) {
		return 1
	}
	return size[0] / size[1]
}

// OrbitCamera is a yaw/pitch camera circling a target. The viewer uses it to
// stand in for a tracked device pose.
type OrbitCamera struct {
	Target   mgl32.Vec3
	Distance float32
	Yaw      float32
	Pitch    float32
	Speed    float32
}

func NewOrbitCamera(target mgl32.Vec3, distance float32) *OrbitCamera {
	return &OrbitCamera{
		Target:   target,
		Distance: distance,
		Speed:    0.3,
	}
}

// Advance moves the camera along its orbit by dt seconds.
func (o *OrbitCamera) Advance(dt float32) {
	o.Yaw += o.Speed * dt
	if o.Yaw > 2*math32.Pi {
		o.Yaw -= 2 * math32.Pi
	}
}

func (o *OrbitCamera) Eye() mgl32.Vec3 {
	// Y-up: yaw around Y, pitch towards +Y
	return o.Target.Add(mgl32.Vec3{
		o.Distance * math32.Cos(o.Pitch) * math32.Sin(o.Yaw),
		o.Distance * math32.Sin(o.Pitch),
		o.Distance * math32.Cos(o.Pitch) * math32.Cos(o.Yaw),
	})
}

func (o *OrbitCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(o.Eye(), o.Target, mgl32.Vec3{0, 1, 0})
}

// Pose is the camera-to-world transform, as a tracker would report it.
func (o *OrbitCamera) Pose() mgl32.Mat4 {
	m, err := invert4("orbit view", o.ViewMatrix())
	if err != nil {
		return mgl32.Ident4()
	}
	return m
}

// ExtractFrustum extracts the 6 planes of the frustum from the view-projection matrix.
// Returns planes in order: Left, Right, Bottom, Top, Near, Far.
// Plane is Ax + By + Cz + D = 0 with the normal pointing inside.
func ExtractFrustum(vp mgl32.Mat4) [6]mgl32.Vec4 {
	var planes [6]mgl32.Vec4
	row := func(r int) mgl32.Vec4 {
		return mgl32.Vec4{vp.At(r, 0), vp.At(r, 1), vp.At(r, 2), vp.At(r, 3)}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	planes[0] = r3.Add(r0)
	planes[1] = r3.Sub(r0)
	planes[2] = r3.Add(r1)
	planes[3] = r3.Sub(r1)
	planes[4] = r3.Add(r2) // OpenGL-style -1..1 depth
	planes[5] = r3.Sub(r2)

	for i := range planes {
		length := planes[i].Vec3().Len()
		if length > 0 {
			planes[i] = planes[i].Mul(1.0 / length)
		}
	}
	return planes
}

// BoxInFrustum reports whether any part of box lies inside the frustum.
func BoxInFrustum(box Box, planes [6]mgl32.Vec4) bool {
	for _, plane := range planes {
		// Most-inside corner along the plane normal.
		var p mgl32.Vec3
		for a := 0; a < 3; a++ {
			if plane[a] > 0 {
				p[a] = box.Max[a]
			} else {
				p[a] = box.Min[a]
			}
		}
		if plane.Vec3().Dot(p)+plane[3] < 0 {
			return false
		}
	}
	return true
}
