package primer

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
)

type systemFn any

type App struct {
	modules   []Module
	stages    []Stage
	systems   map[string][]systemFn
	resources map[reflect.Type]any

	ctx     context.Context
	frame   uint64
	stopped bool
}

type Module interface {
	Install(app *App, cmd *Commands)
}

func (app *App) Commands() *Commands {
	return &Commands{
		app: app,
	}
}

// Context is the context of the frame being run. Systems pass it to
// blocking work so a cancelled Run stops mid-frame.
func (app *App) Context() context.Context {
	if app.ctx == nil {
		return context.Background()
	}
	return app.ctx
}

// FrameIndex is the number of frames stepped so far.
func (app *App) FrameIndex() uint64 {
	return app.frame
}

// Step runs every stage once, in order. Stages are hard barriers: a system
// only starts once every system of the previous stage has returned.
func (app *App) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	app.ctx = ctx
	app.frame++

	for _, stage := range app.stages {
		for _, system := range app.systems[stage.Name] {
			app.callSystem(system)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// Run steps frames until ctx is cancelled or a system calls Commands.Stop.
func (app *App) Run(ctx context.Context) error {
	logger := app.Logger()
	logger.Infof("running %d stages", len(app.stages))

	for !app.stopped {
		if err := app.Step(ctx); err != nil {
			if ctx.Err() != nil {
				logger.Infof("stopped after %d frames", app.frame)
				return nil
			}
			return err
		}
	}
	logger.Infof("stopped after %d frames", app.frame)
	return nil
}

func (app *App) stop() {
	app.stopped = true
}

func (app *App) addResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}

		app.resources[resourceType.Elem()] = resource
	}
	return app
}

// Resource returns the resource of type T installed in app.
func Resource[T any](app *App) (*T, bool) {
	res, ok := app.resources[reflect.TypeOf((*T)(nil)).Elem()]
	if !ok {
		return nil, false
	}
	typed, ok := res.(*T)
	return typed, ok
}

var typeOfCommands = reflect.TypeOf(Commands{})

func (app *App) callSystem(system systemFn) {
	systemType := reflect.TypeOf(system)
	systemValue := reflect.ValueOf(system)

	args := make([]reflect.Value, systemType.NumIn())

	for i := 0; i < systemType.NumIn(); i++ {
		argType := systemType.In(i)
		underlyingType := argType.Elem()

		if underlyingType == typeOfCommands {
			args[i] = reflect.ValueOf(&Commands{app: app})
		} else if resource, argIsResource := app.resources[underlyingType]; argIsResource {
			resourceVal := reflect.ValueOf(resource)
			typedResourceVal := reflect.NewAt(underlyingType, resourceVal.UnsafePointer())

			args[i] = typedResourceVal
		} else {
			msg := fmt.Sprintf("Unable to resolve System dependency.\nSystem: %s\nSystem type: %s\nDependency: %s",
				runtime.FuncForPC(systemValue.Pointer()).Name(),
				fmt.Sprint(systemType),
				fmt.Sprint(argType),
			)
			app.Logger().Errorf("%s", msg)
			panic(msg)
		}
	}
	systemValue.Call(args)
}
