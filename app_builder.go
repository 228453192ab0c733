package isoflow

import (
	"reflect"
)

type AppBuilder struct {
	app     *App
	modules []Module
}

func NewAppBuilder() *AppBuilder {
	return &AppBuilder{app: &App{
		stages:    defaultStages(),
		systems:   make(map[string][]systemFn),
		resources: make(map[reflect.Type]any),
	}}
}

func (b *AppBuilder) UseModule(modules ...Module) *AppBuilder {
	b.modules = append(b.modules, modules...)
	return b
}

func (b *AppBuilder) Build() *App {
	app := b.app
	commands := &Commands{app: app}

	for _, module := range b.modules {
		module.Install(app, commands)
	}

	return app
}
