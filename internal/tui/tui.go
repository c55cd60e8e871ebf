// Package tui is the interactive front end: a pending list and a month
// calendar over one signed-in session.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/optimistic"
	"github.com/Makepad-fr/tada/internal/query"
	"github.com/Makepad-fr/tada/internal/session"
	"github.com/Makepad-fr/tada/internal/ui"
)

type mode int

const (
	modeList mode = iota
	modeCalendar
)

type prompt int

const (
	promptNone prompt = iota
	promptAdd
	promptDeadline
	promptCategory
)

// listItem adapts model.Item to bubbles/list.Item
type listItem struct{ item model.Item }

func (i listItem) Title() string       { return i.item.Text }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.item.Text + " " + i.item.Category }

// Custom delegate to control how items render (single line)
type itemDelegate struct{ today func() model.Date }

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	prefix := "  "
	if index == m.Index() {
		prefix = ui.Current().Selected.Render("> ")
	}
	fmt.Fprint(w, prefix+ui.ItemLine(0, it.item, d.today()))
}

type Option func(*Model)

// WithLocation sets the zone used to read completion times as dates.
func WithLocation(loc *time.Location) Option { return func(m *Model) { m.loc = loc } }

func WithClock(now func() time.Time) Option { return func(m *Model) { m.now = now } }

// Model is the bubbletea model. It owns no item state: every render reads
// the session's store and selection.
type Model struct {
	s   *session.Session
	n   *Notifier
	loc *time.Location
	now func() time.Time

	mode   mode
	list   list.Model
	ti     textinput.Model
	prompt prompt
	target string // item id the deadline prompt edits

	status    string
	statusErr bool

	cursor        model.Date
	width, height int
}

func New(s *session.Session, n *Notifier, opts ...Option) Model {
	m := Model{s: s, n: n, loc: time.Local, now: time.Now, width: 80, height: 24}
	for _, o := range opts {
		o(&m)
	}

	l := list.New(nil, itemDelegate{today: m.today}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = ui.Current().Title
	l.Styles.HelpStyle = ui.Current().Muted
	l.Styles.PaginationStyle = ui.Current().Muted
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("pending item", "pending items")
	l.AdditionalShortHelpKeys = keys.listHelp
	l.AdditionalFullHelpKeys = keys.listHelp
	l.KeyMap.Quit.SetEnabled(false)
	m.list = l

	m.ti = textinput.New()
	m.ti.Prompt = "> "
	m.ti.CharLimit = 200

	m.cursor = m.today()
	m.resize()
	m.refresh()
	return m
}

// Run starts the program and blocks until the user quits or ctx ends.
func Run(ctx context.Context, s *session.Session, n *Notifier, opts ...Option) error {
	p := tea.NewProgram(New(s, n, opts...), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) today() model.Date { return model.DateOf(m.now(), m.loc) }

func (m Model) Init() tea.Cmd { return m.n.wait() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case renderMsg:
		cmd := m.refresh()
		return m, tea.Batch(cmd, m.n.wait())
	case failMsg:
		m.setStatus(string(msg), true)
		return m, m.n.wait()
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil
	case tea.KeyMsg:
		if m.prompt != promptNone {
			return m.updatePrompt(msg)
		}
		if m.mode == modeList && m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.View):
			if m.mode == modeList {
				m.mode = modeCalendar
			} else {
				m.mode = modeList
			}
			m.status = ""
			return m, nil
		}
		if m.mode == modeCalendar {
			return m.updateCalendar(msg)
		}
		return m.updateList(msg)
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) selected() (model.Item, bool) {
	li, ok := m.list.SelectedItem().(listItem)
	return li.item, ok
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	eng := m.s.Engine
	switch {
	case key.Matches(msg, keys.Toggle):
		if it, ok := m.selected(); ok {
			eng.ToggleCompletion(it.ID)
			m.setStatus("completed: "+it.Text, false)
		}
		return m, nil
	case key.Matches(msg, keys.Delete):
		if it, ok := m.selected(); ok {
			eng.Remove(it.ID)
			m.setStatus("removed: "+it.Text, false)
		}
		return m, nil
	case key.Matches(msg, keys.Add):
		return m.openPrompt(promptAdd, "", "Buy milk #errands @"+m.today().AddDays(1).String())
	case key.Matches(msg, keys.Deadline):
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.target = it.ID
		current := ""
		if it.Deadline != nil {
			current = it.Deadline.String()
		}
		return m.openPrompt(promptDeadline, current, "YYYY-MM-DD, empty clears")
	case key.Matches(msg, keys.Filter):
		m.s.Selection.SetFilter(nextCategory(m.s.Store.Categories(), m.s.Selection.State().Filter))
		cmd := m.refresh()
		return m, cmd
	case key.Matches(msg, keys.NewCategory):
		return m.openPrompt(promptCategory, "", "category name")
	case key.Matches(msg, keys.DropFilter):
		if f := m.s.Selection.State().Filter; f != "" {
			eng.RemoveCategory(f)
			m.setStatus("category removed: "+f, false)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// nextCategory cycles "" -> first -> ... -> last -> "".
func nextCategory(labels model.Categories, cur string) string {
	if cur == "" {
		if len(labels) == 0 {
			return ""
		}
		return labels[0]
	}
	for i, l := range labels {
		if l == cur {
			if i+1 < len(labels) {
				return labels[i+1]
			}
			return ""
		}
	}
	return ""
}

func (m Model) openPrompt(p prompt, value, placeholder string) (tea.Model, tea.Cmd) {
	m.prompt = p
	m.ti.SetValue(value)
	m.ti.CursorEnd()
	m.ti.Placeholder = placeholder
	m.status = ""
	m.resize()
	cmd := m.ti.Focus()
	return m, cmd
}

func (m *Model) closePrompt() {
	m.prompt = promptNone
	m.target = ""
	m.ti.SetValue("")
	m.ti.Blur()
	m.resize()
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closePrompt()
		return m, nil
	case tea.KeyEnter:
		if err := m.submit(strings.TrimSpace(m.ti.Value())); err != nil {
			m.setStatus(err.Error(), true)
			return m, nil
		}
		m.closePrompt()
		return m, nil
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m *Model) submit(v string) error {
	eng := m.s.Engine
	switch m.prompt {
	case promptAdd:
		e, err := ParseEntry(v)
		if err != nil {
			return err
		}
		if e.Category == "" {
			e.Category = m.s.Selection.State().Filter
		}
		it, err := eng.Create(e.Text, e.Category, e.Deadline)
		if err != nil {
			var ve *optimistic.ValidationError
			if errors.As(err, &ve) {
				return errors.New("text cannot be empty")
			}
			return err
		}
		m.setStatus("added: "+it.Text, false)
	case promptDeadline:
		if v == "" {
			eng.SetDeadline(m.target, nil)
			m.setStatus("deadline cleared", false)
			return nil
		}
		d, err := model.ParseDate(v)
		if err != nil {
			return err
		}
		eng.SetDeadline(m.target, &d)
		m.setStatus("due "+d.String(), false)
	case promptCategory:
		if v == "" {
			return errors.New("category cannot be empty")
		}
		eng.RegisterCategory(v)
		m.setStatus("category added: "+v, false)
	}
	return nil
}

func (m Model) updateCalendar(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sel := m.s.Selection
	switch {
	case key.Matches(msg, keys.Left):
		m.moveCursor(m.cursor.AddDays(-1))
	case key.Matches(msg, keys.Right):
		m.moveCursor(m.cursor.AddDays(1))
	case key.Matches(msg, keys.Up):
		m.moveCursor(m.cursor.AddDays(-7))
	case key.Matches(msg, keys.Down):
		m.moveCursor(m.cursor.AddDays(7))
	case key.Matches(msg, keys.PrevMonth):
		sel.PrevMonth()
		st := sel.State()
		m.cursor = model.NewDate(st.Year, st.Month, 1)
	case key.Matches(msg, keys.NextMonth):
		sel.NextMonth()
		st := sel.State()
		m.cursor = model.NewDate(st.Year, st.Month, 1)
	case key.Matches(msg, keys.Today):
		m.moveCursor(m.today())
	case key.Matches(msg, keys.Details):
		sel.ToggleDate(m.cursor)
	}
	return m, nil
}

// moveCursor follows d into another month when it leaves the shown one.
func (m *Model) moveCursor(d model.Date) {
	m.cursor = d
	y, mo := d.YearMonth()
	st := m.s.Selection.State()
	if y != st.Year || mo != st.Month {
		m.s.Selection.SetMonth(y, mo)
	}
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status, m.statusErr = s, isErr
}

func (m *Model) refresh() tea.Cmd {
	st := m.s.Selection.State()
	all := m.s.Store.Items()
	pending := query.PendingList(all, st.Filter)
	li := make([]list.Item, 0, len(pending))
	for _, it := range pending {
		li = append(li, listItem{item: it})
	}
	done, open := query.Stats(all)
	title := ui.Header(done, open)
	if st.Filter != "" {
		title += "  " + ui.Current().Selected.Render(" #"+st.Filter+" ")
	}
	if m.s.User.Name != "" || m.s.User.Email != "" {
		title += "  " + ui.Current().Muted.Render(m.s.User.Label())
	}
	m.list.Title = title
	return m.list.SetItems(li)
}

func (m *Model) resize() {
	h := m.height - 4
	if m.prompt != promptNone {
		h -= 4
	}
	if h < 3 {
		h = 3
	}
	m.list.SetSize(m.width-4, h)
	m.ti.Width = m.width - 10
}

func (m Model) View() string {
	var content string
	if m.mode == modeCalendar {
		content = m.calendarView()
	} else {
		content = m.list.View()
	}
	if m.prompt != promptNone {
		bar := lipgloss.NewStyle().
			Border(ui.Current().Border).
			BorderForeground(ui.Current().BorderColor).
			Padding(0, 1)
		content += "\n" + bar.Render(m.promptTitle()+"\n"+m.ti.View())
	}
	if m.status != "" {
		st := ui.Current().Muted
		if m.statusErr {
			st = ui.Current().Error
		}
		content += "\n" + st.Render(m.status)
	}
	return ui.Panel([]string{content})
}

func (m Model) promptTitle() string {
	switch m.prompt {
	case promptDeadline:
		return "Set deadline"
	case promptCategory:
		return "New category"
	}
	return "Add new item"
}

func (m Model) calendarView() string {
	st := m.s.Selection.State()
	items := m.s.Store.Items()
	cursor := m.cursor
	cal := ui.Calendar{
		Year:     st.Year,
		Month:    st.Month,
		Items:    items,
		Today:    m.today(),
		Selected: &cursor,
		Loc:      m.loc,
	}
	parts := []string{cal.Render()}
	if st.SelectedDate != nil {
		day := query.DayProjection(items, *st.SelectedDate, m.loc)
		parts = append(parts, ui.RenderMarkdown(ui.DayMarkdown(day, m.today(), m.loc), m.width-6))
	}
	help := make([]string, 0, 8)
	for _, b := range keys.calendarHelp() {
		h := b.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	parts = append(parts, ui.Current().Muted.Render("←↑↓→ move • "+strings.Join(help, " • ")))
	return strings.Join(parts, "\n")
}
