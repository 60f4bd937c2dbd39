package primer

import "context"

type Commands struct {
	app *App
}

func (cmd *Commands) AddResources(resources ...any) *Commands {
	cmd.app.addResources(resources...)
	return cmd
}

func (cmd *Commands) UseSystem(system any) *Commands {
	if sched, ok := system.(systemScheduleBuilder); ok {
		cmd.app.UseSystem(sched)
	} else {
		cmd.app.UseSystem(System(system))
	}
	return cmd
}

func (cmd *Commands) Logger() Logger {
	return cmd.app.Logger()
}

func (cmd *Commands) Context() context.Context {
	return cmd.app.Context()
}

// Stop ends Run after the current frame.
func (cmd *Commands) Stop() {
	cmd.app.stop()
}
