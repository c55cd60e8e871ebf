package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/migrate"
	"github.com/Makepad-fr/tada/internal/remote/jsonfile"
	"github.com/Makepad-fr/tada/internal/ui"
)

func newMigrateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Move local JSON data into the configured backend",
		Long: `Imports todos.json and categories.json from --data-dir into the backend
selected with --backend, then clears the local files. When the backend
already has items the local copy is discarded instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.cfg.Backend == config.BackendJSON {
				return errors.New("migrate needs a target backend other than json (e.g. --backend sqlite)")
			}
			src := jsonfile.New(app.cfg.DataDir)
			if !hasData(src) {
				ui.OK(cmd.OutOrStdout(), "nothing to migrate")
				return nil
			}
			ctx := cmd.Context()
			b, err := app.openBackend(ctx)
			if err != nil {
				return err
			}
			defer b.close()

			res, err := migrate.Import(ctx, src, b.coll, app.log)
			if err != nil {
				return err
			}
			if res.Skipped {
				ui.OK(cmd.OutOrStdout(), "backend already has items; local data discarded")
				return nil
			}
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("migrated %d items and %d categories", res.Items, res.Categories))
			return nil
		},
	}
}
