package isoflow

import (
	"fmt"
	"reflect"
	"runtime"
)

type systemFn any

// Module wires resources and systems into the app at build time.
type Module interface {
	Install(app *App, cmd *Commands)
}

// App drives the per-frame pipeline: an ordered list of stages, each
// holding systems whose arguments are resolved from the resource map by
// type. There is no entity storage; the demo's only mutable state lives
// in resources and GPU buffers.
type App struct {
	stages    []Stage
	systems   map[string][]systemFn
	resources map[reflect.Type]any
	shutdown  []func()
	quitting  bool
}

// OnShutdown registers a function run once after the loop exits, in
// registration order.
func (app *App) OnShutdown(fn func()) {
	app.shutdown = append(app.shutdown, fn)
}

func (app *App) Commands() *Commands {
	return &Commands{app: app}
}

// Run executes the stage list until a system requests quit.
func (app *App) Run() {
	for !app.quitting {
		app.RunFrame()
	}
	for _, fn := range app.shutdown {
		fn()
	}
}

// RunFrame executes a single pass over all stages.
func (app *App) RunFrame() {
	for _, stage := range app.stages {
		for _, system := range app.systems[stage.Name] {
			app.callSystem(system)
		}
		if app.quitting {
			return
		}
	}
}

func (app *App) addResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if resourceType.Kind() != reflect.Ptr {
			panic(fmt.Sprintf("resource %s must be a pointer", resourceType))
		}
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}
		app.resources[resourceType.Elem()] = resource
	}
	return app
}

func (app *App) addSystem(sched systemScheduleBuilder) {
	stage := sched.inStage
	if stage.Name == "" {
		stage = Update
	}
	app.systems[stage.Name] = append(app.systems[stage.Name], sched.system)
}

// UseSystem registers systems. Accepts either a bare function (scheduled
// into the Update stage) or a builder from System(...).InStage(...).
func (app *App) UseSystem(items ...any) *App {
	for _, item := range items {
		if sched, ok := item.(systemScheduleBuilder); ok {
			app.addSystem(sched)
			continue
		}
		app.addSystem(systemScheduleBuilder{system: item})
	}
	return app
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
			args[i] = reflect.ValueOf(resource)
		} else {
			msg := fmt.Sprintf("Unable to resolve system dependency.\nSystem: %s\nSystem type: %s\nDependency: %s",
				runtime.FuncForPC(systemValue.Pointer()).Name(),
				fmt.Sprint(systemType),
				fmt.Sprint(argType),
			)
			panic(msg)
		}
	}
	systemValue.Call(args)
}

// resource fetches an installed resource by type. Modules use it at
// Install time to reach state provided by earlier modules; a missing
// resource is a wiring error and panics.
func resource[T any](app *App) *T {
	t := reflect.TypeOf((*T)(nil)).Elem()
	r, ok := app.resources[t]
	if !ok {
		panic(fmt.Sprintf("resource %s is not installed", t))
	}
	return r.(*T)
}

// Logger returns the first Logger resource if present, otherwise a no-op
// logger. Safe to call at any time; never returns nil.
func (app *App) Logger() Logger {
	if app == nil {
		return NewNopLogger()
	}
	for _, r := range app.resources {
		if l, ok := r.(Logger); ok {
			return l
		}
	}
	return NewNopLogger()
}
