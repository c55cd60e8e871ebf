package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tada/internal/optimistic"
)

// Notifier carries render requests from the engine and the bridge into the
// program. Render never blocks: every render re-reads the whole store, so a
// request that finds the queue full is already covered by one still queued.
type Notifier struct {
	ch   chan optimistic.View
	fail chan string
}

func NewNotifier() *Notifier {
	return &Notifier{
		ch:   make(chan optimistic.View, 8),
		fail: make(chan string, 4),
	}
}

// Render is an optimistic.RenderFunc.
func (n *Notifier) Render(v optimistic.View) {
	select {
	case n.ch <- v:
	default:
	}
}

// Settled is an optimistic.SettleFunc that surfaces failed writes in the
// status line.
func (n *Notifier) Settled(m optimistic.Mutation, err error, rolledBack bool) {
	if err == nil {
		return
	}
	s := fmt.Sprintf("sync failed (%s)", m.Kind)
	if rolledBack {
		s += ", change reverted"
	}
	select {
	case n.fail <- s:
	default:
	}
}

type renderMsg struct{ view optimistic.View }

type failMsg string

// wait delivers the next render request or write failure as a message.
func (n *Notifier) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case v := <-n.ch:
			return renderMsg{view: v}
		case s := <-n.fail:
			return failMsg(s)
		}
	}
}
