// Package tui is a terminal front-end for a calculator session.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/antibyte/retrocalc/pkg/composer"
	"github.com/antibyte/retrocalc/pkg/history"
	"github.com/antibyte/retrocalc/pkg/keymap"
	"github.com/antibyte/retrocalc/pkg/logger"
	"github.com/antibyte/retrocalc/pkg/session"
)

// maxVisibleRecords limits the history pane height.
const maxVisibleRecords = 10

// historyLoadedMsg carries the result of loading the history.
type historyLoadedMsg struct {
	records []history.Record
	err     error
}

// Model is the bubbletea model of the calculator.
type Model struct {
	session *session.Session
	keymap  *keymap.Keymap
	keys    keyMap
	help    help.Model

	view        session.View
	records     []history.Record
	selected    int
	showHistory bool
	status      string
	width       int
}

// New creates a model for sess. A nil keymap uses the defaults.
func New(sess *session.Session, km *keymap.Keymap) Model {
	if km == nil {
		km = keymap.Default()
	}
	return Model{
		session: sess,
		keymap:  km,
		keys:    defaultKeyMap(),
		help:    help.New(),
		view:    sess.View(),
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return m.loadHistory()
}

func (m Model) loadHistory() tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		records, err := sess.History(context.Background())
		return historyLoadedMsg{records: records, err: err}
	}
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case historyLoadedMsg:
		if msg.err != nil {
			m.status = "history unavailable"
			logger.Warn(logger.AreaTUI, "load history: %v", msg.err)
			return m, nil
		}
		m.records = msg.records
		if m.selected >= len(m.records) {
			m.selected = max(len(m.records)-1, 0)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.ToggleHistory):
		m.showHistory = !m.showHistory
		m.keys.historyOpen = m.showHistory
		m.selected = 0
		return m, m.loadHistory()
	}

	if m.showHistory {
		if next, cmd, handled := m.handleHistoryKey(msg); handled {
			return next, cmd
		}
	}

	action, ok := m.keymap.Lookup(msg.String())
	if !ok {
		return m, nil
	}

	m.status = ""
	view, err := m.session.Do(context.Background(), action)
	m.view = view
	if err != nil {
		m.status = "history unavailable"
	}
	if action.Kind == composer.ActionEvaluate {
		return m, m.loadHistory()
	}
	return m, nil
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	ctx := context.Background()
	switch {
	case key.Matches(msg, m.keys.CloseHistory):
		m.showHistory = false
		m.keys.historyOpen = false
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.records)-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.ReuseExpression), key.Matches(msg, m.keys.ReuseResult):
		if len(m.records) == 0 {
			return m, nil, true
		}
		id := m.records[m.selected].ID
		var view session.View
		var err error
		if key.Matches(msg, m.keys.ReuseExpression) {
			view, err = m.session.ReuseExpression(ctx, id)
		} else {
			view, err = m.session.ReuseResult(ctx, id)
		}
		m.view = view
		m.status = ""
		switch {
		case errors.Is(err, session.ErrNotReusable):
			m.status = "nothing to reuse"
		case err != nil:
			m.status = "history unavailable"
		default:
			m.showHistory = false
			m.keys.historyOpen = false
		}
	case key.Matches(msg, m.keys.ClearHistory):
		if err := m.session.ClearHistory(ctx); err != nil {
			m.status = "history unavailable"
			return m, nil, true
		}
		m.selected = 0
		return m, m.loadHistory(), true
	default:
		return m, nil, false
	}
	return m, nil, true
}

// View implements tea.Model
func (m Model) View() string {
	dStyle := displayStyle
	if m.view.Marker == composer.ErrorDisplayed {
		dStyle = errorDisplayStyle
	}
	display := displayBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Right,
		previousStyle.Render(m.view.Previous),
		dStyle.Render(m.view.Display),
	))

	parts := []string{display}
	if m.showHistory {
		parts = append(parts, m.historyView())
	}
	if m.status != "" {
		parts = append(parts, statusStyle.Render(m.status))
	}
	parts = append(parts, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, parts...) + "\n"
}

func (m Model) historyView() string {
	var b strings.Builder
	b.WriteString(historyTitleStyle.Render("History"))
	b.WriteString("\n")
	if len(m.records) == 0 {
		b.WriteString(historyItemStyle.Render("(empty)"))
		return b.String()
	}

	start := 0
	if m.selected >= maxVisibleRecords {
		start = m.selected - maxVisibleRecords + 1
	}
	end := min(start+maxVisibleRecords, len(m.records))
	for i := start; i < end; i++ {
		r := m.records[i]
		line := fmt.Sprintf("%s = %s", r.Expression, r.Result)
		if i == m.selected {
			b.WriteString(historySelectedStyle.Render("> " + line))
		} else {
			b.WriteString(historyItemStyle.Render("  " + line))
		}
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Display returns the currently rendered calculator view.
func (m Model) Display() session.View {
	return m.view
}

// HistoryOpen reports whether the history pane is visible.
func (m Model) HistoryOpen() bool {
	return m.showHistory
}
