package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/lmsadmin/internal/api"
	"github.com/muurk/lmsadmin/internal/apiclient"
	"github.com/muurk/lmsadmin/internal/config"
	"github.com/muurk/lmsadmin/internal/listview"
)

// Messages for the activity screen
type activityLoadedMsg struct {
	err error
}

type liveActivityMsg struct {
	activity api.Activity
}

type liveClosedMsg struct{}

var windows = []listview.DateWindow{
	listview.WindowAll,
	listview.WindowToday,
	listview.WindowWeek,
	listview.WindowMonth,
}

// activityKeyMap defines key bindings for the activity screen
type activityKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Search   key.Binding
	Type     key.Binding
	Window   key.Binding
	PrevPage key.Binding
	NextPage key.Binding
	PageSize key.Binding
	Refresh  key.Binding
	Help     key.Binding
	Quit     key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k activityKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Type, k.Window, k.PrevPage, k.NextPage, k.Refresh, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k activityKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Search, k.Type, k.Window},
		{k.PrevPage, k.NextPage, k.PageSize},
		{k.Refresh, k.Help, k.Quit},
	}
}

func newActivityKeys() activityKeyMap {
	return activityKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Type: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "type"),
		),
		Window: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "date range"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "prev page"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next page"),
		),
		PageSize: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "page size"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ActivityModel is the activity log browser: a filtered, paginated table
// over a listview.ActivityFeed, optionally fed by a live event stream.
type ActivityModel struct {
	Feed *listview.ActivityFeed
	Live <-chan api.Activity // optional; new events are prepended
	User string

	Table       table.Model
	SearchInput textinput.Model
	Searching   bool
	Spinner     spinner.Model
	Loading     bool
	LiveCount   int
	LiveEnded   bool

	Done bool

	Width  int
	Height int

	Help help.Model
	Keys activityKeyMap

	ctx context.Context
}

// NewActivityModel creates the activity screen over f.
func NewActivityModel(ctx context.Context, f *listview.ActivityFeed, live <-chan api.Activity) ActivityModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	search := textinput.New()
	search.Placeholder = "user or activity type"
	search.Prompt = "/ "
	search.CharLimit = 100
	search.Width = 40

	t := table.New(
		table.WithColumns(activityColumns(MinTerminalWidth)),
		table.WithFocused(true),
		table.WithHeight(config.DefaultPageSize),
	)
	st := table.DefaultStyles()
	st.Header = st.Header.Foreground(PrimaryColor).Bold(true)
	st.Selected = st.Selected.Foreground(TextColor).Background(PrimaryColor)
	t.SetStyles(st)

	m := ActivityModel{
		Feed:        f,
		Live:        live,
		Table:       t,
		SearchInput: search,
		Spinner:     s,
		Loading:     true,
		Help:        help.New(),
		Keys:        newActivityKeys(),
		ctx:         ctx,
	}
	m.SearchInput.SetValue(f.Filter().Search)
	return m
}

// Init starts the initial load and, when present, the live subscription
func (m ActivityModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.Spinner.Tick, m.load()}
	if m.Live != nil {
		cmds = append(cmds, waitForActivity(m.Live))
	}
	return tea.Batch(cmds...)
}

func (m ActivityModel) load() tea.Cmd {
	f := m.Feed
	ctx := m.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return func() tea.Msg {
		return activityLoadedMsg{err: f.Load(ctx)}
	}
}

// waitForActivity blocks on the live channel for the next event.
func waitForActivity(ch <-chan api.Activity) tea.Cmd {
	return func() tea.Msg {
		a, ok := <-ch
		if !ok {
			return liveClosedMsg{}
		}
		return liveActivityMsg{activity: a}
	}
}

// Update handles messages and updates the model
func (m ActivityModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Help.Width = msg.Width
		m.Table.SetColumns(activityColumns(msg.Width))
		return m, nil

	case spinner.TickMsg:
		if !m.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case activityLoadedMsg:
		if errors.Is(msg.err, listview.ErrStaleResponse) {
			return m, nil
		}
		m.Loading = false
		m.refreshRows()
		return m, nil

	case liveActivityMsg:
		m.Feed.Prepend(msg.activity)
		m.LiveCount++
		m.refreshRows()
		return m, waitForActivity(m.Live)

	case liveClosedMsg:
		m.LiveEnded = true
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.Searching {
			return m.updateSearch(msg)
		}
		return m.updateBrowse(msg)
	}

	return m, nil
}

func (m ActivityModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.Searching = false
		m.SearchInput.Blur()
		m.Table.Focus()
		return m, nil
	}

	var cmd tea.Cmd
	m.SearchInput, cmd = m.SearchInput.Update(msg)
	m.Feed.SetSearch(m.SearchInput.Value())
	m.refreshRows()
	return m, cmd
}

func (m ActivityModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	view := m.Feed.Page()

	switch {
	case key.Matches(msg, m.Keys.Quit):
		m.Done = true
		return m, nil

	case key.Matches(msg, m.Keys.Help):
		m.Help.ShowAll = !m.Help.ShowAll
		return m, nil

	case key.Matches(msg, m.Keys.Search):
		m.Searching = true
		m.Table.Blur()
		m.SearchInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.Keys.Type):
		m.Feed.SetType(nextType(m.Feed.Types(), m.Feed.Filter().Type))
		m.refreshRows()
		return m, nil

	case key.Matches(msg, m.Keys.Window):
		m.Feed.SetWindow(nextWindow(m.Feed.Filter().Window))
		m.refreshRows()
		return m, nil

	case key.Matches(msg, m.Keys.PrevPage):
		if view.Page > 0 {
			m.Feed.SetPage(view.Page - 1)
			m.refreshRows()
		}
		return m, nil

	case key.Matches(msg, m.Keys.NextPage):
		if view.Page < view.Pages-1 {
			m.Feed.SetPage(view.Page + 1)
			m.refreshRows()
		}
		return m, nil

	case key.Matches(msg, m.Keys.PageSize):
		size := nextPageSize(view.PageSize)
		if err := m.Feed.SetPageSize(size); err == nil {
			m.Table.SetHeight(size)
			m.refreshRows()
		}
		return m, nil

	case key.Matches(msg, m.Keys.Refresh):
		m.Loading = true
		return m, tea.Batch(m.Spinner.Tick, m.load())
	}

	var cmd tea.Cmd
	m.Table, cmd = m.Table.Update(msg)
	return m, cmd
}

// refreshRows copies the feed's current page into the table.
func (m *ActivityModel) refreshRows() {
	now := m.Feed.Now()
	view := m.Feed.Page()
	rows := make([]table.Row, len(view.Items))
	for i, a := range view.Items {
		rows[i] = table.Row{
			a.Timestamp.Local().Format("2006-01-02 15:04"),
			a.Ago(now),
			a.User,
			a.ActivityType,
			a.Details,
		}
	}
	m.Table.SetRows(rows)
	if m.Table.Cursor() >= len(rows) {
		m.Table.SetCursor(0)
	}
}

func activityColumns(width int) []table.Column {
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}
	if width > MaxContentWidth {
		width = MaxContentWidth
	}
	// Fixed columns plus cell padding and the container frame.
	details := width - 16 - 10 - 20 - 16 - 20
	if details < 10 {
		details = 10
	}
	return []table.Column{
		{Title: "Time", Width: 16},
		{Title: "Ago", Width: 10},
		{Title: "User", Width: 20},
		{Title: "Activity", Width: 16},
		{Title: "Details", Width: details},
	}
}

func nextType(types []string, current string) string {
	if current == "" || current == "all" {
		if len(types) == 0 {
			return ""
		}
		return types[0]
	}
	for i, t := range types {
		if t == current && i+1 < len(types) {
			return types[i+1]
		}
	}
	return ""
}

func nextWindow(current listview.DateWindow) listview.DateWindow {
	for i, w := range windows {
		if w == current {
			return windows[(i+1)%len(windows)]
		}
	}
	return listview.WindowToday
}

func nextPageSize(current int) int {
	for i, s := range config.PageSizes {
		if s == current {
			return config.PageSizes[(i+1)%len(config.PageSizes)]
		}
	}
	return config.PageSizes[0]
}

// View renders the activity screen
func (m ActivityModel) View() string {
	return RenderApplicationContainer(m.buildContent(), m.Help.View(m.Keys), m.User, m.Width, m.Height)
}

func (m ActivityModel) buildContent() string {
	var b strings.Builder

	b.WriteString(RenderTitle("Activity Log"))
	b.WriteString("\n")

	filter := m.Feed.Filter()
	typ := filter.Type
	if typ == "" {
		typ = "all"
	}
	window := filter.Window
	if window == "" {
		window = listview.WindowAll
	}
	b.WriteString(StatusStyle.Render(fmt.Sprintf("Type: %s   Range: %s", typ, window)))
	if m.Live != nil {
		state := "live"
		if m.LiveEnded {
			state = "live feed closed"
		}
		b.WriteString(StatusStyle.Render(fmt.Sprintf("   [%s, %d new]", state, m.LiveCount)))
	}
	b.WriteString("\n")

	if m.Searching || filter.Search != "" {
		b.WriteString(m.SearchInput.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if err := m.Feed.Err(); err != nil {
		b.WriteString(ErrorBoxStyle.Render("✗ " + apiclient.GetShortErrorMessage(err)))
		b.WriteString("\n")
		b.WriteString(SubtitleStyle.Render("Press r to retry"))
		b.WriteString("\n\n")
	}

	if m.Loading && !m.Feed.Loaded() {
		b.WriteString(m.Spinner.View() + " Loading activities...")
		return b.String()
	}

	view := m.Feed.Page()
	if view.Total == 0 {
		b.WriteString(SubtitleStyle.Render("No activities match the current filters"))
		return b.String()
	}

	b.WriteString(m.Table.View())
	b.WriteString("\n\n")

	pager := fmt.Sprintf("Page %d of %d · %d activities · %d per page", view.Page+1, view.Pages, view.Total, view.PageSize)
	if m.Loading {
		pager = m.Spinner.View() + " " + pager
	}
	b.WriteString(StatusStyle.Render(pager))
	return b.String()
}

