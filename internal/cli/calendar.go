package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/query"
	"github.com/Makepad-fr/tada/internal/ui"
)

func newCalendarCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "cal [YYYY-MM]",
		Short: "Show a month with deadlines and completions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			year, month := now.Year(), now.Month()
			if len(args) == 1 {
				t, err := time.Parse("2006-01", args[0])
				if err != nil {
					return fmt.Errorf("invalid month %q (want YYYY-MM)", args[0])
				}
				year, month = t.Year(), t.Month()
			}
			ctx := cmd.Context()
			s, err := app.openOneShot(ctx)
			if err != nil {
				return err
			}
			items := s.Store.Items()
			if err := s.finish(ctx); err != nil {
				return err
			}
			cal := ui.Calendar{
				Year:  year,
				Month: month,
				Items: items,
				Today: model.DateOf(now, time.Local),
				Loc:   time.Local,
			}
			printf(cmd, "%s\n", cal.Render())
			return nil
		},
	}
}

func newDayCmd(app *App) *cobra.Command {
	var width int
	cmd := &cobra.Command{
		Use:   "day [YYYY-MM-DD]",
		Short: "Show what is due and what was completed on a day",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			today := model.Today(time.Local)
			d := today
			if len(args) == 1 {
				parsed, err := parseDue(args[0])
				if err != nil {
					return err
				}
				if parsed != nil {
					d = *parsed
				}
			}
			ctx := cmd.Context()
			s, err := app.openOneShot(ctx)
			if err != nil {
				return err
			}
			items := s.Store.Items()
			if err := s.finish(ctx); err != nil {
				return err
			}
			day := query.DayProjection(items, d, time.Local)
			printf(cmd, "%s\n", ui.RenderMarkdown(ui.DayMarkdown(day, today, time.Local), width))
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", 80, "Wrap width")
	return cmd
}
