package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/viewfinder/viewfinder/internal/theme"
)

func newThemesCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "themes",
		Short: "Inspect and switch color themes",
	}

	cmd.AddCommand(newThemesListCmd(flags))
	cmd.AddCommand(newThemesApplyCmd(flags))

	return cmd
}

func newThemesListCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()

			app.Themes.Start()
			return renderThemesTable(cmd, app.Themes.AvailableThemes(), app.Themes.CurrentThemeName())
		},
	}
}

func newThemesApplyCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <name>",
		Short: "Apply a theme and persist the choice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()

			app.Themes.Start()

			name := args[0]
			available := make([]string, 0)
			known := false
			for _, info := range app.Themes.AvailableThemes() {
				available = append(available, info.Name)
				if info.Name == name {
					known = true
				}
			}
			if !known {
				return newCommandError("apply theme", fmt.Sprintf("looking up %q", name), fmt.Errorf("no backend provides it"),
					fmt.Sprintf("Available themes: %s.", strings.Join(available, ", ")))
			}
			if !app.Themes.ApplyTheme(name) {
				return newCommandError("apply theme", fmt.Sprintf("applying %q", name), fmt.Errorf("no backend accepted it"),
					"Run with --verbose to see which collaborator rejected the theme.")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Theme set to %s\n", app.Themes.CurrentThemeName())
			return nil
		},
	}
}

func renderThemesTable(cmd *cobra.Command, infos []theme.Info, current string) error {
	writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

	fmt.Fprintln(writer, " \tNAME\tDISPLAY\tTYPE\tVARIANT\tDESCRIPTION")

	marker := "*"
	if isTerminal(cmd.OutOrStdout()) {
		marker = "●"
	}

	for _, info := range infos {
		active := " "
		if info.Name == current {
			active = marker
		}
		variant := "light"
		if info.Dark {
			variant = "dark"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\n",
			active,
			info.Name,
			valueOrFallback(info.DisplayName, "(unnamed)"),
			info.Type,
			variant,
			info.Description,
		)
	}

	return writer.Flush()
}

func valueOrFallback(value, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	return trimmed
}
