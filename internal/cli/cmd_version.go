package cli

import "fmt"

func versionCommand(app *App) *Command {
	return &Command{
		Name:    "version",
		Summary: "Print the version and exit",
		Usage:   "cvs version",
		Run: func(args []string) int {
			fmt.Printf("%s version %s\n", app.Name, app.Version) //nolint:gosec // CLI stdout
			return 0
		},
	}
}
