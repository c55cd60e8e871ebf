package cli

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/logger"
	"github.com/Makepad-fr/tada/internal/optimistic"
	"github.com/Makepad-fr/tada/internal/session"
	"github.com/Makepad-fr/tada/internal/tui"
)

const logFileName = "tada.log"

// runTUI signs in with live updates and hands the session to the TUI.
// Logs go to a file in the data dir since the terminal belongs to the TUI.
func runTUI(cmd *cobra.Command, app *App) error {
	ctx := cmd.Context()
	if err := os.MkdirAll(app.cfg.DataDir, 0o755); err == nil {
		if l, f, err := logger.NewFile(filepath.Join(app.cfg.DataDir, logFileName), app.cfg.LogLevel); err == nil {
			defer f.Close()
			app.log = l
		}
	}

	b, err := app.openBackend(ctx)
	if err != nil {
		return err
	}
	defer b.close()

	n := tui.NewNotifier()
	opts := []session.Option{
		session.WithLogger(app.log),
		session.WithRender(n.Render),
		session.WithEngineOptions(optimistic.WithSettleHook(n.Settled)),
	}
	if b.legacy != nil {
		opts = append(opts, session.WithLegacyImport(b.legacy))
	}
	s, err := session.SignIn(ctx, b.user, b.coll, opts...)
	if err != nil {
		return err
	}
	runErr := tui.Run(ctx, s, n)
	return errors.Join(runErr, s.Close(ctx))
}
