package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit        key.Binding
	View        key.Binding
	Add         key.Binding
	Toggle      key.Binding
	Delete      key.Binding
	Deadline    key.Binding
	Filter      key.Binding
	NewCategory key.Binding
	DropFilter  key.Binding

	Left, Right, Up, Down key.Binding
	PrevMonth, NextMonth  key.Binding
	Today                 key.Binding
	Details               key.Binding
}

var keys = keyMap{
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	View:        key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "list/calendar")),
	Add:         key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	Toggle:      key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "done")),
	Delete:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Deadline:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "deadline")),
	Filter:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "next category")),
	NewCategory: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new category")),
	DropFilter:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "remove category")),

	Left:      key.NewBinding(key.WithKeys("left", "h")),
	Right:     key.NewBinding(key.WithKeys("right", "l")),
	Up:        key.NewBinding(key.WithKeys("up", "k")),
	Down:      key.NewBinding(key.WithKeys("down", "j")),
	PrevMonth: key.NewBinding(key.WithKeys("[", "pgup"), key.WithHelp("[", "prev month")),
	NextMonth: key.NewBinding(key.WithKeys("]", "pgdown"), key.WithHelp("]", "next month")),
	Today:     key.NewBinding(key.WithKeys("."), key.WithHelp(".", "today")),
	Details:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
}

func (k keyMap) listHelp() []key.Binding {
	return []key.Binding{k.Add, k.Toggle, k.Delete, k.Deadline, k.Filter, k.NewCategory, k.DropFilter, k.View}
}

func (k keyMap) calendarHelp() []key.Binding {
	return []key.Binding{k.PrevMonth, k.NextMonth, k.Today, k.Details, k.View, k.Quit}
}
