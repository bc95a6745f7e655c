package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type rootFlags struct {
	verbose   bool
	logFormat string
	settings  string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "viewfinder",
		Short:         "Viewfinder is a fast directory browser with themes and live refresh",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand launches the browser in the working directory.
			return runBrowse(cmd, flags, "")
		},
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "auto", "Log output format: auto, console or json")
	cmd.PersistentFlags().StringVar(&flags.settings, "settings", "", "Settings file location (default ~/.config/viewfinder/settings.yaml)")

	cmd.AddCommand(newBrowseCmd(flags))
	cmd.AddCommand(newThemesCmd(flags))
	cmd.AddCommand(newWatchCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// isTerminal reports whether the writer is an interactive terminal.
func isTerminal(writer any) bool {
	if file, ok := writer.(*os.File); ok {
		return term.IsTerminal(int(file.Fd()))
	}
	return false
}
