package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apply3(m mgl32.Mat3, p mgl32.Vec2) mgl32.Vec2 {
	return m.Mul3x1(mgl32.Vec3{p.X(), p.Y(), 1}).Vec2()
}

func TestDisplayTransform_Orientations(t *testing.T) {
	tests := []struct {
		name        string
		orientation Orientation
		viewport    mgl32.Vec2
		in          mgl32.Vec2
		want        mgl32.Vec2
	}{
		{"landscape right", LandscapeRight, mgl32.Vec2{1920, 1440}, mgl32.Vec2{0.25, 0.1}, mgl32.Vec2{0.25, 0.1}},
		{"portrait", Portrait, mgl32.Vec2{1440, 1920}, mgl32.Vec2{0.25, 0.1}, mgl32.Vec2{0.9, 0.25}},
		{"landscape left", LandscapeLeft, mgl32.Vec2{1920, 1440}, mgl32.Vec2{0.25, 0.1}, mgl32.Vec2{0.75, 0.9}},
		{"portrait upside down", PortraitUpsideDown, mgl32.Vec2{1440, 1920}, mgl32.Vec2{0.25, 0.1}, mgl32.Vec2{0.1, 0.75}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cam := Camera{
				Orientation:  tc.orientation,
				ImageSize:    mgl32.Vec2{1920, 1440},
				ViewportSize: tc.viewport,
			}
			got := apply3(cam.DisplayTransform(), tc.in)
			assert.InDelta(t, tc.want.X(), got.X(), 1e-6)
			assert.InDelta(t, tc.want.Y(), got.Y(), 1e-6)
		})
	}
}

func TestDisplayTransform_AspectFill(t *testing.T) {
	// 4:3 image on a 16:9 display: full width, top and bottom cropped.
	cam := Camera{
		Orientation:  LandscapeRight,
		ImageSize:    mgl32.Vec2{1440, 1080},
		ViewportSize: mgl32.Vec2{1920, 1080},
	}
	d := cam.DisplayTransform()

	left := apply3(d, mgl32.Vec2{0, 0.5})
	right := apply3(d, mgl32.Vec2{1, 0.5})
	assert.InDelta(t, 0, left.X(), 1e-6)
	assert.InDelta(t, 1, right.X(), 1e-6)

	top := apply3(d, mgl32.Vec2{0.5, 0})
	assert.Less(t, top.Y(), float32(0))
	center := apply3(d, mgl32.Vec2{0.5, 0.5})
	assert.InDelta(t, 0.5, center.X(), 1e-6)
	assert.InDelta(t, 0.5, center.Y(), 1e-6)
}

func TestViewToCamera_InvertsDisplayTransform(t *testing.T) {
	for _, o := range []Orientation{LandscapeRight, Portrait, LandscapeLeft, PortraitUpsideDown} {
		cam := Camera{
			Orientation:  o,
			ImageSize:    mgl32.Vec2{1920, 1440},
			ViewportSize: mgl32.Vec2{1170, 2532},
		}
		v2c, err := cam.ViewToCamera()
		require.NoError(t, err, o.String())
		assert.True(t, mat3Near(v2c.Mul3(cam.DisplayTransform()), mgl32.Ident3(), 1e-5), o.String())
	}
}

func TestNewCamera_ViewIsInversePose(t *testing.T) {
	pose := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.HomogRotate3DY(0.5))
	cam, err := NewCamera(pose, Perspective(1, 1.5, DefaultNear, DefaultFar))
	require.NoError(t, err)

	assert.True(t, mat4Near(cam.View.Mul4(pose), mgl32.Ident4(), 1e-5))
	pos := cam.Position()
	assert.InDelta(t, 1, pos.X(), 1e-5)
	assert.InDelta(t, 2, pos.Y(), 1e-5)
	assert.InDelta(t, 3, pos.Z(), 1e-5)

	_, err = NewCamera(mgl32.Mat4{}, mgl32.Ident4())
	assert.ErrorIs(t, err, ErrDegenerateTransform)
}

func TestOrbitCamera(t *testing.T) {
	orbit := NewOrbitCamera(mgl32.Vec3{0, 1, -2}, 3)
	assert.InDelta(t, 3, orbit.Eye().Sub(orbit.Target).Len(), 1e-5)

	before := orbit.Eye()
	orbit.Advance(1)
	assert.NotEqual(t, before, orbit.Eye())
	assert.InDelta(t, 3, orbit.Eye().Sub(orbit.Target).Len(), 1e-5)

	// The pose looks at the target: camera -Z points towards it.
	forward := orbit.Pose().Mul4x1(mgl32.Vec4{0, 0, -1, 0}).Vec3()
	toTarget := orbit.Target.Sub(orbit.Eye()).Normalize()
	assert.InDelta(t, 1, forward.Dot(toTarget), 1e-5)
}

func TestFrustumCulling(t *testing.T) {
	// Camera at origin looking down -Z, 90 deg FOV, near 1, far 100.
	proj := mgl32.Perspective(mgl32.DegToRad(90), 1.0, 1.0, 100.0)
	view := mgl32.LookAtV(
		mgl32.Vec3{0, 0, 0},
		mgl32.Vec3{0, 0, -1},
		mgl32.Vec3{0, 1, 0},
	)
	planes := ExtractFrustum(proj.Mul4(view))

	tests := []struct {
		name     string
		box      Box
		expected bool
	}{
		{"inside", Box{mgl32.Vec3{-1, -1, -10}, mgl32.Vec3{1, 1, -5}}, true},
		{"outside left", Box{mgl32.Vec3{-20, -1, -10}, mgl32.Vec3{-15, 1, -5}}, false},
		{"outside right", Box{mgl32.Vec3{15, -1, -10}, mgl32.Vec3{20, 1, -5}}, false},
		{"behind", Box{mgl32.Vec3{-1, -1, 2}, mgl32.Vec3{1, 1, 5}}, false},
		{"beyond far", Box{mgl32.Vec3{-1, -1, -200}, mgl32.Vec3{1, 1, -150}}, false},
		{"intersecting left plane", Box{mgl32.Vec3{-15, -1, -10}, mgl32.Vec3{-5, 1, -5}}, true},
		{"encompassing", Box{mgl32.Vec3{-1000, -1000, -1000}, mgl32.Vec3{1000, 1000, 1000}}, true},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, BoxInFrustum(tc.box, planes), tc.name)
	}
}
