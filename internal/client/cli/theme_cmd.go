package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newThemeCmd(run appRunner) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [dark|light|toggle|system]",
		Short:     "Show or change the color theme",
		Long:      "Without an argument, theme prints the current mode. \"system\" drops the override and follows the terminal background again.",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"dark", "light", "toggle", "system"},
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := ""
			if len(args) == 1 {
				mode = args[0]
			}
			return run(cmd, func(a *App) error { return a.Theme(cmd.Context(), mode) })
		},
	}
}

// Theme applies mode and prints the resulting theme.
func (a *App) Theme(ctx context.Context, mode string) error {
	var err error
	switch mode {
	case "":
	case "dark":
		err = a.prefs.SetDarkMode(ctx, true)
	case "light":
		err = a.prefs.SetDarkMode(ctx, false)
	case "toggle":
		_, err = a.prefs.Toggle(ctx)
	case "system":
		err = a.prefs.Reset(ctx)
	default:
		return fmt.Errorf("unknown theme %q", mode)
	}
	if err != nil {
		return err
	}

	dark, err := a.prefs.DarkMode(ctx)
	if err != nil {
		return err
	}
	overridden, err := a.prefs.Overridden(ctx)
	if err != nil {
		return err
	}
	a.theme = themeFor(dark)

	name := "light"
	if dark {
		name = "dark"
	}
	source := "following the terminal"
	if overridden {
		source = "set by you"
	}
	fmt.Fprintf(a.out, "Theme: %s (%s)\n", a.theme.accent(name), source)
	return nil
}
