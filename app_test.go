package primer

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockResource1 struct {
	name string
}
type MockResource2 struct {
	name string
}

func NewMockResource1(name string) *MockResource1 {
	return &MockResource1{name: name}
}
func NewMockResource2(name string) *MockResource2 {
	return &MockResource2{name: name}
}

func TestApp_addResources(t *testing.T) {
	app := &App{
		resources: make(map[reflect.Type]any),
	}

	resource1 := NewMockResource1("Resource1")
	app.addResources(resource1)
	assert.Contains(t, app.resources, reflect.TypeOf(resource1).Elem(), "Resource1 should be in resources map.")

	require.PanicsWithValue(t, fmt.Sprintf("%s is already in resources", reflect.TypeOf(resource1)), func() {
		app.addResources(resource1)
	})

	resource2 := NewMockResource2("Resource2")
	app.addResources(resource2)
	assert.Contains(t, app.resources, reflect.TypeOf(resource2).Elem(), "Resource2 should be in resources map.")
}

func TestResource(t *testing.T) {
	app := NewAppBuilder().Build()
	app.addResources(NewMockResource1("one"))

	got, ok := Resource[MockResource1](app)
	require.True(t, ok)
	assert.Equal(t, "one", got.name)

	_, ok = Resource[MockResource2](app)
	assert.False(t, ok)
}

func TestApp_callSystemInjectsResources(t *testing.T) {
	app := NewAppBuilder().Build()
	r1 := NewMockResource1("a")
	app.addResources(r1)

	var seen *MockResource1
	var gotCmd bool
	app.callSystem(func(cmd *Commands, r *MockResource1) {
		gotCmd = cmd != nil
		seen = r
	})
	assert.True(t, gotCmd)
	assert.Same(t, r1, seen)
}

func TestApp_callSystemPanicsOnMissingResource(t *testing.T) {
	app := NewAppBuilder().Build()
	assert.Panics(t, func() {
		app.callSystem(func(r *MockResource2) {})
	})
}

func TestApp_StepRunsStagesInOrder(t *testing.T) {
	var order []string
	record := func(name string) func() {
		return func() { order = append(order, name) }
	}

	app := NewAppBuilder().Build()
	// Registered out of order on purpose.
	app.UseSystem(System(record("render")).InStage(Render))
	app.UseSystem(System(record("update")))
	app.UseSystem(System(record("prelude")).InStage(Prelude))
	app.UseSystem(System(record("finale")).InStage(Finale))
	app.UseSystem(System(record("preRender")).InStage(PreRender))

	require.NoError(t, app.Step(context.Background()))
	assert.Equal(t, []string{"prelude", "update", "preRender", "render", "finale"}, order)
	assert.Equal(t, uint64(1), app.FrameIndex())
}

func TestApp_UseStage(t *testing.T) {
	custom := Stage{Name: "Custom"}
	var order []string

	app := NewAppBuilder().Build()
	app.UseStage(custom, AfterStage(Update))
	app.UseSystem(System(func() { order = append(order, "custom") }).InStage(custom))
	app.UseSystem(System(func() { order = append(order, "postUpdate") }).InStage(PostUpdate))
	app.UseSystem(System(func() { order = append(order, "update") }))

	require.NoError(t, app.Step(context.Background()))
	assert.Equal(t, []string{"update", "custom", "postUpdate"}, order)

	assert.Panics(t, func() { app.UseStage(Stage{Name: "X"}, BeforeStage(Stage{Name: "Missing"})) })
	assert.Panics(t, func() { app.UseSystem(System(func() {}).InStage(Stage{Name: "Missing"})) })
}

func TestApp_RunStopsOnCommand(t *testing.T) {
	app := NewAppBuilder().Build()
	app.UseSystem(System(func(cmd *Commands) {
		if cmd.app.FrameIndex() == 3 {
			cmd.Stop()
		}
	}))

	require.NoError(t, app.Run(context.Background()))
	assert.Equal(t, uint64(3), app.FrameIndex())
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	app := NewAppBuilder().Build()
	app.UseSystem(System(func(cmd *Commands) {
		if cmd.app.FrameIndex() == 2 {
			cancel()
		}
	}))

	require.NoError(t, app.Run(ctx))
	assert.Equal(t, uint64(2), app.FrameIndex())
	assert.ErrorIs(t, app.Step(ctx), context.Canceled)
}

func TestApp_LoggerFallsBackToNop(t *testing.T) {
	var app *App
	assert.NotNil(t, app.Logger())
	assert.NotNil(t, NewAppBuilder().Build().Logger())
}
