package isoflow

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterResource struct {
	frames int
	trace  []string
}

func newTestApp() *App {
	return &App{
		stages:    defaultStages(),
		systems:   make(map[string][]systemFn),
		resources: make(map[reflect.Type]any),
	}
}

func TestAddResources(t *testing.T) {
	app := newTestApp()
	res := &counterResource{}
	app.addResources(res)

	got, ok := app.resources[reflect.TypeOf(counterResource{})]
	require.True(t, ok)
	assert.Same(t, res, got)
}

func TestAddResourcesRejectsDuplicates(t *testing.T) {
	app := newTestApp()
	app.addResources(&counterResource{})
	assert.Panics(t, func() {
		app.addResources(&counterResource{})
	})
}

func TestAddResourcesRejectsNonPointer(t *testing.T) {
	app := newTestApp()
	assert.Panics(t, func() {
		app.addResources(counterResource{})
	})
}

func TestSystemInjection(t *testing.T) {
	app := newTestApp()
	res := &counterResource{}
	app.addResources(res)
	app.UseSystem(func(r *counterResource) {
		r.frames++
	})

	app.RunFrame()
	app.RunFrame()
	assert.Equal(t, 2, res.frames)
}

func TestSystemInjectionUnknownDependencyPanics(t *testing.T) {
	app := newTestApp()
	app.UseSystem(func(r *counterResource) {})
	assert.Panics(t, func() {
		app.RunFrame()
	})
}

func TestStageOrder(t *testing.T) {
	app := newTestApp()
	res := &counterResource{}
	app.addResources(res)

	app.UseSystem(System(func(r *counterResource) {
		r.trace = append(r.trace, "render")
	}).InStage(Render))
	app.UseSystem(System(func(r *counterResource) {
		r.trace = append(r.trace, "prelude")
	}).InStage(Prelude))
	app.UseSystem(func(r *counterResource) {
		r.trace = append(r.trace, "update")
	})

	app.RunFrame()
	assert.Equal(t, []string{"prelude", "update", "render"}, res.trace)
}

func TestCommandsQuitStopsRun(t *testing.T) {
	app := newTestApp()
	res := &counterResource{}
	app.addResources(res)
	app.UseSystem(func(r *counterResource, cmd *Commands) {
		r.frames++
		if r.frames == 3 {
			cmd.Quit()
		}
	})

	app.Run()
	assert.Equal(t, 3, res.frames)
}

func TestQuitSkipsLaterStages(t *testing.T) {
	app := newTestApp()
	res := &counterResource{}
	app.addResources(res)
	app.UseSystem(System(func(cmd *Commands) {
		cmd.Quit()
	}).InStage(Prelude))
	app.UseSystem(System(func(r *counterResource) {
		r.frames++
	}).InStage(Render))

	app.RunFrame()
	assert.Equal(t, 0, res.frames, "stages after the quitting one must not run")
}

func TestOnShutdownRunsAfterLoop(t *testing.T) {
	app := newTestApp()
	res := &counterResource{}
	app.addResources(res)
	app.UseSystem(func(cmd *Commands) { cmd.Quit() })

	ran := false
	app.OnShutdown(func() { ran = true })
	app.Run()
	assert.True(t, ran)
}

func TestResourceAccessor(t *testing.T) {
	app := newTestApp()
	res := &counterResource{}
	app.addResources(res)

	assert.Same(t, res, resource[counterResource](app))
	assert.Panics(t, func() {
		resource[Time](app)
	})
}

func TestLoggerFallsBackToNop(t *testing.T) {
	app := newTestApp()
	assert.NotNil(t, app.Logger())

	logger := NewDefaultLogger("test", false)
	app.addResources(logger)
	assert.Same(t, Logger(logger), app.Logger())
}

func TestAppBuilderInstallsModules(t *testing.T) {
	app := NewAppBuilder().
		UseModule(LoggingModule{Prefix: "test"}).
		Build()

	_, ok := app.resources[reflect.TypeOf(DefaultLogger{})]
	assert.True(t, ok)
}
