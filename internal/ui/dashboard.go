package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muurk/luxws/internal/session"
	"github.com/muurk/luxws/internal/snapshot"
)

const refreshInterval = time.Second

// LeafSource provides the snapshot shown by the dashboard.
type LeafSource interface {
	Leaves() []snapshot.Leaf
	LastUpdated() time.Time
}

// StatusSource provides the session status shown by the dashboard.
type StatusSource interface {
	Status() session.Status
}

type refreshMsg time.Time

// dashboardKeyMap defines key bindings for the dashboard
type dashboardKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	NextTab key.Binding
	PrevTab key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k dashboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextTab, k.PrevTab, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k dashboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.NextTab, k.PrevTab, k.Quit},
	}
}

// Dashboard is a live view of the snapshot and the session. It polls its
// sources once per second and never writes to them.
type Dashboard struct {
	Title string

	leaves LeafSource
	status StatusSource

	spinner spinner.Model
	table   table.Model
	help    help.Model
	keys    dashboardKeyMap

	// categories[0] is "" and shows everything
	categories []string
	category   int

	all     []snapshot.Leaf
	current session.Status
	updated time.Time
	now     func() time.Time

	width  int
	height int
}

// NewDashboard creates a dashboard over the given sources.
func NewDashboard(title string, leaves LeafSource, status StatusSource) Dashboard {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	width, height := GetTerminalSize()
	t := table.New(
		table.WithColumns(columns(width)),
		table.WithFocused(true),
		table.WithHeight(tableHeight(height)),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(MutedColor).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(TextColor).
		Background(PrimaryColor)
	t.SetStyles(styles)

	keys := dashboardKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab", "right", "l"),
			key.WithHelp("tab", "next category"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab", "left", "h"),
			key.WithHelp("shift+tab", "previous category"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}

	return Dashboard{
		Title:      title,
		leaves:     leaves,
		status:     status,
		spinner:    s,
		table:      t,
		help:       help.New(),
		keys:       keys,
		categories: []string{""},
		now:        time.Now,
		width:      width,
		height:     height,
	}
}

func columns(width int) []table.Column {
	// Category, Name, Value, ID; the remainder goes to Name.
	fixed := []int{22, 0, 18, 24}
	name := width - fixed[0] - fixed[2] - fixed[3] - 10
	if name < 16 {
		name = 16
	}
	return []table.Column{
		{Title: LeafHeaders[0], Width: fixed[0]},
		{Title: LeafHeaders[1], Width: name},
		{Title: LeafHeaders[2], Width: fixed[2]},
		{Title: LeafHeaders[3], Width: fixed[3]},
	}
}

func tableHeight(height int) int {
	// title, status, tabs, help and margins
	h := height - 8
	if h < 5 {
		h = 5
	}
	return h
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

// Init implements tea.Model
func (m Dashboard) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, func() tea.Msg { return refreshMsg(m.now()) })
}

// Update implements tea.Model
func (m Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = clampWidth(msg.Width)
		m.height = msg.Height
		m.table.SetColumns(columns(m.width))
		m.table.SetHeight(tableHeight(m.height))
		m.help.Width = m.width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.NextTab):
			m.category = (m.category + 1) % len(m.categories)
			m.applyFilter()
			return m, nil
		case key.Matches(msg, m.keys.PrevTab):
			m.category = (m.category - 1 + len(m.categories)) % len(m.categories)
			m.applyFilter()
			return m, nil
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd

	case refreshMsg:
		m.refresh()
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Dashboard) refresh() {
	m.current = m.status.Status()
	m.updated = m.leaves.LastUpdated()
	m.all = m.leaves.Leaves()

	selected := m.categories[m.category]
	m.categories = []string{""}
	seen := make(map[string]bool)
	for _, l := range m.all {
		top := topCategory(l.Category)
		if !seen[top] {
			seen[top] = true
			m.categories = append(m.categories, top)
		}
	}
	m.category = 0
	for i, c := range m.categories {
		if c == selected {
			m.category = i
		}
	}
	m.applyFilter()
}

func (m *Dashboard) applyFilter() {
	selected := m.categories[m.category]
	rows := make([]table.Row, 0, len(m.all))
	for _, l := range m.all {
		if selected != "" && topCategory(l.Category) != selected {
			continue
		}
		rows = append(rows, LeafRow(l))
	}
	m.table.SetRows(rows)
}

func topCategory(category string) string {
	if i := strings.IndexByte(category, '.'); i >= 0 {
		return category[:i]
	}
	return category
}

// View implements tea.Model
func (m Dashboard) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n\n")

	if len(m.all) == 0 {
		b.WriteString(fmt.Sprintf("%s Waiting for data from %s\n", m.spinner.View(), m.current.URL))
	} else {
		b.WriteString(m.tabs())
		b.WriteString("\n")
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Dashboard) statusLine() string {
	parts := []string{StateStyle(m.current.State).Render(m.current.State.String())}
	if m.current.Errors > 0 {
		parts = append(parts, ErrorMessageStyle.Render(fmt.Sprintf("%d errors", m.current.Errors)))
	}
	if m.current.State == session.StateError {
		parts = append(parts, SubtitleStyle.Render(fmt.Sprintf("retry in %d polls", m.current.Cooldown)))
	}
	if m.current.LastError != "" && m.current.State != session.StateDataSelected {
		parts = append(parts, SubtitleStyle.Render(m.current.LastError))
	}
	if !m.updated.IsZero() {
		age := m.now().Sub(m.updated).Truncate(time.Second)
		parts = append(parts, SubtitleStyle.Render(fmt.Sprintf("updated %s ago", age)))
	}
	return strings.Join(parts, SubtitleStyle.Render(" · "))
}

func (m Dashboard) tabs() string {
	tabs := make([]string, 0, len(m.categories))
	for i, c := range m.categories {
		label := c
		if label == "" {
			label = "all"
		}
		if i == m.category {
			tabs = append(tabs, ActiveCategoryStyle.Render(label))
		} else {
			tabs = append(tabs, CategoryStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}
