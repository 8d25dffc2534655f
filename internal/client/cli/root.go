package cli

import (
	"errors"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/weddingkeeper/internal/client/config"
	"github.com/dmitrijs2005/weddingkeeper/internal/logging"
)

// appRunner builds the App for cmd, runs fn with it and closes the App
// afterwards, whether or not fn failed.
type appRunner func(cmd *cobra.Command, fn func(a *App) error) error

// NewRootCmd builds the weddingkeeper command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weddingkeeper",
		Short: "Wedding planning from the terminal",
		Long: `weddingkeeper imports wedding details from an existing wedding website and
lets guests chat with the wedding assistant.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newImportCmd(runApp),
		newChatCmd(runApp),
		newForgetCmd(runApp),
		newThemeCmd(runApp),
		newVersionCmd(),
	)

	return cmd
}

func runApp(cmd *cobra.Command, fn func(a *App) error) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	app, err := NewApp(cmd.Context(), cfg, Streams{
		In:  cmd.InOrStdin(),
		Out: cmd.OutOrStdout(),
		Err: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	cmd.SetContext(logging.ContextWith(cmd.Context(), "command", cmd.Name()))
	return errors.Join(fn(app), app.Close())
}
