// Package cli is the tada command line: scriptable subcommands over the same
// session the TUI uses, plus the document store server and token tooling.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/logger"
	"github.com/Makepad-fr/tada/internal/ui"
)

type App struct {
	Backend string
	DataDir string
	Theme   string
	NoColor bool

	cfg *config.Config
	log zerolog.Logger
	in  io.Reader
}

func NewRootCmd() *cobra.Command {
	app := &App{in: os.Stdin}

	cmd := &cobra.Command{
		Use:           "tada",
		Short:         "tada: a tiny to-do list (CLI + TUI)",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  tada

  # Scriptable commands
  tada add "Buy milk" --category errands --due 2026-10-20
  tada ls --group
  tada done 2

  # Sync through a document store
  tada serve --secret s3cret &
  tada auth token --secret s3cret --sub me | tada auth login
  tada --backend cloud ls
`),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.configure(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.Backend, "backend", envOr("TADA_BACKEND", ""), "Storage backend (memory|json|sqlite|cloud)")
	cmd.PersistentFlags().StringVar(&app.DataDir, "data-dir", envOr("TADA_DATA_DIR", ""), "Directory for local data files")
	cmd.PersistentFlags().StringVar(&app.Theme, "theme", envOr("TADA_THEME", ""), "Color theme (classic|neon|mono)")
	cmd.PersistentFlags().BoolVar(&app.NoColor, "no-color", false, "Disable colors")

	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newDoneCmd(app))
	cmd.AddCommand(newRemoveCmd(app))
	cmd.AddCommand(newDueCmd(app))
	cmd.AddCommand(newCategoriesCmd(app))
	cmd.AddCommand(newCalendarCmd(app))
	cmd.AddCommand(newDayCmd(app))
	cmd.AddCommand(newMigrateCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newAuthCmd(app))

	return cmd
}

// Execute runs the root command and prints a returned error in the fail
// style. It returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		ui.Fail(stderr, err.Error())
		return 1
	}
	return 0
}

// configure reads TADA_* settings, then lets flags override them.
func (a *App) configure(cmd *cobra.Command) error {
	cfg, err := config.New()
	if err != nil {
		return err
	}
	if a.Backend != "" {
		cfg.Backend = config.Backend(a.Backend)
	}
	if a.DataDir != "" {
		cfg.DataDir = a.DataDir
	}
	if a.Theme != "" {
		cfg.Theme = a.Theme
	}
	if a.NoColor {
		cfg.NoColor = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger.NewConsole(cmd.ErrOrStderr(), cfg.LogLevel)

	ui.SetColorProfile(cfg.NoColor)
	ui.SetTheme(cfg.Theme)
	return nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
