package primer

import (
	"context"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/primerar/primer/wallrt/rt/core"
)

// TrackingSnapshot is the latest camera and wall-detection result.
type TrackingSnapshot struct {
	Camera core.Camera
	// Wall is nil while no wall plane is detected.
	Wall *core.WallPlane
}

// TrackingSource supplies camera pose and wall detection. Poll is called once
// per frame and must not block on I/O.
type TrackingSource interface {
	Poll(ctx context.Context, dt time.Duration) (TrackingSnapshot, error)
}

// Tracking holds the snapshot polled for the current frame.
type Tracking struct {
	Source TrackingSource
	Latest TrackingSnapshot
	// Valid is false when the current frame has no usable snapshot.
	Valid bool
	Err   error
}

type TrackingModule struct {
	Source TrackingSource
}

func (m TrackingModule) Install(app *App, cmd *Commands) {
	ensureFrame(app)
	if _, ok := Resource[Time](app); !ok {
		TimeModule{}.Install(app, cmd)
	}
	cmd.AddResources(&Tracking{Source: m.Source})
	app.UseSystem(System(trackingSystem).InStage(PreUpdate))
}

func trackingSystem(cmd *Commands, t *Time, tracking *Tracking, frame *Frame) {
	snap, err := tracking.Source.Poll(cmd.Context(), t.Dt)
	if err != nil {
		if tracking.Err == nil {
			cmd.Logger().Warnf("tracking unavailable: %v", err)
		}
		tracking.Latest = TrackingSnapshot{}
		tracking.Valid = false
		tracking.Err = err
		return
	}
	if tracking.Err != nil {
		cmd.Logger().Infof("tracking restored")
	}
	tracking.Latest = snap
	tracking.Valid = true
	tracking.Err = nil
	frame.Camera = snap.Camera
}

// SimulatedTracking stands in for a device tracker: the camera orbits a
// fixed wall, which is reported as detected after DetectAfter frames.
type SimulatedTracking struct {
	Orbit        *core.OrbitCamera
	Wall         core.WallPlane
	DetectAfter  int
	FovY         float32 // radians
	Near, Far    float32
	Orientation  core.Orientation
	ImageSize    mgl32.Vec2
	ViewportSize mgl32.Vec2

	frames int
}

func NewSimulatedTracking(wall core.WallPlane, viewport mgl32.Vec2) *SimulatedTracking {
	orbit := core.NewOrbitCamera(wall.Origin, 2.5)
	orbit.Pitch = 0.15
	return &SimulatedTracking{
		Orbit:        orbit,
		Wall:         wall,
		FovY:         mgl32.DegToRad(60),
		Near:         core.DefaultNear,
		Far:          core.DefaultFar,
		Orientation:  core.LandscapeRight,
		ImageSize:    mgl32.Vec2{1920, 1440},
		ViewportSize: viewport,
	}
}

func (s *SimulatedTracking) Poll(ctx context.Context, dt time.Duration) (TrackingSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return TrackingSnapshot{}, err
	}
	s.frames++
	s.Orbit.Advance(float32(dt.Seconds()))

	aspect := float32(1)
	if s.ViewportSize.Y() > 0 {
		aspect = s.ViewportSize.X() / s.ViewportSize.Y()
	}
	cam, err := core.NewCamera(s.Orbit.Pose(), core.Perspective(s.FovY, aspect, s.Near, s.Far))
	if err != nil {
		return TrackingSnapshot{}, err
	}
	cam.Orientation = s.Orientation
	cam.ImageSize = s.ImageSize
	cam.ViewportSize = s.ViewportSize

	snap := TrackingSnapshot{Camera: cam}
	if s.frames > s.DetectAfter {
		wall := s.Wall
		snap.Wall = &wall
	}
	return snap, nil
}
