package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/query"
	"github.com/Makepad-fr/tada/internal/ui"
)

type notFoundError struct {
	kind string
	ref  string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.ref)
}

type ambiguousError struct {
	ref string
	n   int
}

func (e ambiguousError) Error() string {
	return fmt.Sprintf("%q matches %d items; use more of the id", e.ref, e.n)
}

// resolve finds an item by 1-based index (as printed by `ls`), exact id, or
// unique id prefix.
func resolve(items []model.Item, ref string) (model.Item, error) {
	ref = strings.TrimSpace(ref)
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(items) {
			return model.Item{}, fmt.Errorf("index out of range: have %d, got %d (run `tada ls`)", len(items), n)
		}
		return items[n-1], nil
	}
	var match []model.Item
	for _, it := range items {
		if it.ID == ref {
			return it, nil
		}
		if ref != "" && strings.HasPrefix(it.ID, ref) {
			match = append(match, it)
		}
	}
	switch len(match) {
	case 0:
		return model.Item{}, notFoundError{kind: "item", ref: ref}
	case 1:
		return match[0], nil
	}
	return model.Item{}, ambiguousError{ref: ref, n: len(match)}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func parseDue(s string) (*model.Date, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "none", "clear":
		return nil, nil
	case "today":
		d := model.Today(nil)
		return &d, nil
	case "tomorrow":
		d := model.Today(nil).AddDays(1)
		return &d, nil
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func newAddCmd(app *App) *cobra.Command {
	var category, due string
	cmd := &cobra.Command{
		Use:   "add <text...>",
		Short: "Add a new item",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deadline, err := parseDue(due)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			s, err := app.openOneShot(ctx)
			if err != nil {
				return err
			}
			it, err := s.Engine.Create(strings.Join(args, " "), category, deadline)
			if err != nil {
				_ = s.finish(ctx)
				return err
			}
			if err := s.finish(ctx); err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), "added "+shortID(it.ID))
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category label (registered when new)")
	cmd.Flags().StringVar(&due, "due", "", "Deadline: YYYY-MM-DD, today or tomorrow")
	return cmd
}

func newListCmd(app *App) *cobra.Command {
	var category string
	var group, pending bool
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List items",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := app.openOneShot(ctx)
			if err != nil {
				return err
			}
			items := s.Store.Items()
			if err := s.finish(ctx); err != nil {
				return err
			}

			var keep ui.Keep
			if category != "" || pending {
				keep = func(it model.Item) bool {
					if pending && it.Completed {
						return false
					}
					return category == "" || it.Category == category
				}
			}
			printf(cmd, "%s\n", ui.ListPanel(items, model.Today(nil), ui.ListOptions{
				Grouped: group,
				Keep:    keep,
				Tip:     "Tip: add with `tada add \"Buy milk\"`",
			}))
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "Only items in this category")
	cmd.Flags().BoolVar(&group, "group", false, "Group output by pending/done")
	cmd.Flags().BoolVar(&pending, "pending", false, "Only items still open")
	return cmd
}

// withItem opens a session, resolves ref and runs fn against it.
func withItem(cmd *cobra.Command, app *App, ref string, fn func(s *oneShot, it model.Item) string) error {
	ctx := cmd.Context()
	s, err := app.openOneShot(ctx)
	if err != nil {
		return err
	}
	it, err := resolve(s.Store.Items(), ref)
	if err != nil {
		_ = s.finish(ctx)
		return err
	}
	msg := fn(s, it)
	if err := s.finish(ctx); err != nil {
		return err
	}
	ui.OK(cmd.OutOrStdout(), msg)
	return nil
}

func newDoneCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "done <index|id>",
		Short: "Toggle done for an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withItem(cmd, app, args[0], func(s *oneShot, it model.Item) string {
				s.Engine.ToggleCompletion(it.ID)
				if it.Completed {
					return "reopened: " + it.Text
				}
				return "completed: " + it.Text
			})
		},
	}
}

func newRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <index|id>",
		Aliases: []string{"remove"},
		Short:   "Remove an item",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withItem(cmd, app, args[0], func(s *oneShot, it model.Item) string {
				s.Engine.Remove(it.ID)
				return "removed: " + it.Text
			})
		},
	}
}

func newDueCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "due <index|id> [YYYY-MM-DD|today|tomorrow|none]",
		Short: "Set or clear an item's deadline",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw string
			if len(args) == 2 {
				raw = args[1]
			}
			deadline, err := parseDue(raw)
			if err != nil {
				return err
			}
			return withItem(cmd, app, args[0], func(s *oneShot, it model.Item) string {
				s.Engine.SetDeadline(it.ID, deadline)
				if deadline == nil {
					return "deadline cleared: " + it.Text
				}
				return fmt.Sprintf("due %s: %s", deadline, it.Text)
			})
		},
	}
}

func newCategoriesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cat",
		Aliases: []string{"categories"},
		Short:   "Manage categories",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "ls",
		Short: "List categories with their open item counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := app.openOneShot(ctx)
			if err != nil {
				return err
			}
			labels := s.Store.Categories()
			items := s.Store.Items()
			if err := s.finish(ctx); err != nil {
				return err
			}
			lines := ui.CategoryLines(labels, "")
			if len(labels) > 0 {
				for i, l := range labels {
					lines[i] = fmt.Sprintf("%s %s", lines[i], ui.Current().Muted.Render(fmt.Sprintf("(%d open)", len(query.PendingList(items, l)))))
				}
			}
			printf(cmd, "%s\n", ui.Panel(lines))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Register a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return errors.New("category name cannot be empty")
			}
			ctx := cmd.Context()
			s, err := app.openOneShot(ctx)
			if err != nil {
				return err
			}
			s.Engine.RegisterCategory(name)
			if err := s.finish(ctx); err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), "category added: "+name)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <name>",
		Short: "Remove a category (items keep their label)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := app.openOneShot(ctx)
			if err != nil {
				return err
			}
			if !s.Store.HasCategory(args[0]) {
				_ = s.finish(ctx)
				return notFoundError{kind: "category", ref: args[0]}
			}
			s.Engine.RemoveCategory(args[0])
			if err := s.finish(ctx); err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), "category removed: "+args[0])
			return nil
		},
	})
	return cmd
}
