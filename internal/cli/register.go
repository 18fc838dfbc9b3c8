package cli

import "log/slog"

// Register wires every cvs subcommand into app.
func Register(app *App, log *slog.Logger) {
	app.Register(initCommand(log))
	app.Register(addCommand(log))
	app.Register(commitCommand(log))
	app.Register(statusCommand(log))
	app.Register(logCommand(log))
	app.Register(branchCommand(log))
	app.Register(tagCommand(log))
	app.Register(switchCommand(log))
	app.Register(checkoutCommand(log))
	app.Register(resetCommand(log))
	app.Register(rebaseCommand(log))
	app.Register(watchCommand(log))
	app.Register(versionCommand(app))
}
