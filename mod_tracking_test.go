package primer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/primerar/primer/wallrt/rt/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedTracking returns the queued results in order, then repeats the last.
type scriptedTracking struct {
	snaps []TrackingSnapshot
	errs  []error
	calls int
}

func (s *scriptedTracking) Poll(ctx context.Context, dt time.Duration) (TrackingSnapshot, error) {
	i := min(s.calls, len(s.snaps)-1)
	s.calls++
	return s.snaps[i], s.errs[i]
}

func (s *scriptedTracking) push(snap TrackingSnapshot, err error) *scriptedTracking {
	s.snaps = append(s.snaps, snap)
	s.errs = append(s.errs, err)
	return s
}

func testWallPlane() core.WallPlane {
	return core.WallPlane{Origin: mgl32.Vec3{0, 1.25, -2}, Width: 4, Height: 2.5}
}

func testSnapshot(t *testing.T, withWall bool) TrackingSnapshot {
	t.Helper()
	pose := mgl32.Translate3D(0, 1.25, 1)
	cam, err := core.NewCamera(pose, core.Perspective(mgl32.DegToRad(60), 1, core.DefaultNear, core.DefaultFar))
	require.NoError(t, err)
	cam.Orientation = core.LandscapeRight
	cam.ImageSize = mgl32.Vec2{1920, 1440}
	cam.ViewportSize = mgl32.Vec2{1920, 1440}

	snap := TrackingSnapshot{Camera: cam}
	if withWall {
		wall := testWallPlane()
		snap.Wall = &wall
	}
	return snap
}

func TestTrackingSystem(t *testing.T) {
	snap := testSnapshot(t, true)
	source := (&scriptedTracking{}).
		push(snap, nil).
		push(TrackingSnapshot{}, errors.New("lost")).
		push(snap, nil)

	app := NewAppBuilder().UseModule(TrackingModule{Source: source}).Build()
	ctx := context.Background()
	tracking, ok := Resource[Tracking](app)
	require.True(t, ok)
	frame, _ := Resource[Frame](app)

	require.NoError(t, app.Step(ctx))
	assert.True(t, tracking.Valid)
	assert.Equal(t, snap.Camera, frame.Camera)

	require.NoError(t, app.Step(ctx))
	assert.False(t, tracking.Valid)
	assert.EqualError(t, tracking.Err, "lost")
	assert.Nil(t, tracking.Latest.Wall)

	require.NoError(t, app.Step(ctx))
	assert.True(t, tracking.Valid)
	assert.NoError(t, tracking.Err)
	assert.Equal(t, uint64(3), frame.Index)
}

func TestSimulatedTracking(t *testing.T) {
	sim := NewSimulatedTracking(testWallPlane(), mgl32.Vec2{1280, 720})
	sim.DetectAfter = 2
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		snap, err := sim.Poll(ctx, 16*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, i > 2, snap.Wall != nil, "poll %d", i)
		assert.Equal(t, mgl32.Vec2{1280, 720}, snap.Camera.ViewportSize)
	}

	// The camera keeps looking at the wall while it orbits.
	snap, err := sim.Poll(ctx, time.Second)
	require.NoError(t, err)
	center := snap.Camera.View.Mul4x1(sim.Wall.Origin.Vec4(1))
	assert.Less(t, center.Z(), float32(0))
	assert.InDelta(t, 0, center.X(), 1e-4)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = sim.Poll(cctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}
