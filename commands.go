package isoflow

type Commands struct {
	app *App
}

func (cmd *Commands) AddResources(resources ...any) *Commands {
	cmd.app.addResources(resources...)
	return cmd
}

func (cmd *Commands) UseSystem(items ...any) *Commands {
	cmd.app.UseSystem(items...)
	return cmd
}

// Quit stops the run loop after the current stage finishes.
func (cmd *Commands) Quit() {
	cmd.app.quitting = true
}
