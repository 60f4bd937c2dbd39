package primer

import "testing"

type MockModule struct {
	installed bool
}

func (m *MockModule) Install(app *App, commands *Commands) {
	m.installed = true
}

type MockModule2 struct {
	installed bool
	order     *[]string
}

func (m *MockModule2) Install(app *App, commands *Commands) {
	m.installed = true
	if m.order != nil {
		*m.order = append(*m.order, "module2")
	}
}

func TestAppBuilder_DefaultStages(t *testing.T) {
	app := NewAppBuilder().Build()

	if len(app.stages) != len(defaultStages) {
		t.Fatalf("Expected %d stages, got %d", len(defaultStages), len(app.stages))
	}
	for i, stage := range defaultStages {
		if app.stages[i] != stage {
			t.Errorf("Stage %d: expected %s, got %s", i, stage.Name, app.stages[i].Name)
		}
		if _, ok := app.systems[stage.Name]; !ok {
			t.Errorf("Expected system list for stage %s", stage.Name)
		}
	}
}

func TestAppBuilder_UseModule(t *testing.T) {
	module := &MockModule{}
	module2 := &MockModule2{}

	app := NewAppBuilder().
		UseModule(module, module2).
		Build()

	if !module.installed {
		t.Errorf("Expected module to be installed")
	}
	if !module2.installed {
		t.Errorf("Expected module2 to be installed")
	}
	if len(app.modules) != 2 {
		t.Errorf("Expected 2 modules, got %d", len(app.modules))
	}
}

func TestAppBuilder_InstallOrder(t *testing.T) {
	var order []string
	first := moduleFunc(func(app *App, cmd *Commands) { order = append(order, "first") })

	NewAppBuilder().
		UseModule(first).
		UseModule(&MockModule2{order: &order}).
		Build()

	if len(order) != 2 || order[0] != "first" || order[1] != "module2" {
		t.Errorf("Expected modules installed in order, got %v", order)
	}
}

type moduleFunc func(app *App, cmd *Commands)

func (f moduleFunc) Install(app *App, cmd *Commands) { f(app, cmd) }
