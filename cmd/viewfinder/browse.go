package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/viewfinder/viewfinder/internal/tui"
)

func newBrowseCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "browse [path]",
		Short: "Browse a directory interactively",
		Long:  `Open the interactive browser. With no argument it restores the last visited directory, falling back to your home directory.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := ""
			if len(args) == 1 {
				start = args[0]
			}
			return runBrowse(cmd, flags, start)
		},
	}
}

func runBrowse(cmd *cobra.Command, flags *rootFlags, start string) error {
	if !isTerminal(os.Stdout) {
		return fmt.Errorf("browse needs an interactive terminal; see 'viewfinder --help' for scriptable commands")
	}

	app, err := buildApp(flags)
	if err != nil {
		return err
	}
	defer app.Close()

	app.Themes.Start()

	// The inspector rides along on navigation events so the status line can
	// show repository state without blocking the draw loop.
	app.Navigation.RegisterComponent("gitinfo", app.Inspector)
	app.Navigation.Start()

	if start != "" {
		abs, err := filepath.Abs(start)
		if err != nil {
			return newCommandError("browse", "resolving the start path", err, "Pass an absolute path or run from an accessible directory.")
		}
		app.Navigation.NavigateTo(abs)
	}

	app.Log.Info("browser starting", "path", app.Navigation.CurrentState().CurrentPath)
	return tui.Run(tui.Deps{
		Navigation: app.Navigation,
		Themes:     app.Themes,
		Inspector:  app.Inspector,
		Watcher:    app.Watcher,
		Log:        app.Log,
	})
}
