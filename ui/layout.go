package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/go-scripts/pathcrawl/internal/types"
)

// Define common styles
var (
	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			PaddingLeft(1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("110"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// Message types
type PageMsg struct {
	ID    types.PageID
	Depth int
	Seq   int64
}

type FailureMsg struct {
	ID    types.PageID
	Depth int
	Err   error
}

// LoadMsg carries the worker pool's backlog
type LoadMsg struct {
	Queued  int
	Active  int
	Workers int
}

type MatchMsg struct {
	Match types.Match
}

type DoneMsg struct {
	Outcome types.Outcome
	Err     error
}

// Model is the bubbletea model for a search run
type Model struct {
	start    types.PageID
	target   types.PageID
	spinner  spinner.Model
	stats    *StatsPanel
	console  *DeadEndConsole
	matches  *MatchesTable
	cancel   context.CancelFunc
	done     bool
	stopping bool
	outcome  types.Outcome
	err      error
	width    int
	height   int
}

// New creates the TUI model. cancel is called when the user quits mid-run.
func New(start, target types.PageID, maxDepth int, cancel context.CancelFunc) Model {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("205"))),
	)

	stats := NewStatsPanel()
	stats.UpdateStats(SearchStats{
		Start:     string(start),
		Target:    string(target),
		MaxDepth:  maxDepth,
		StartTime: time.Now(),
	})

	return Model{
		start:   start,
		target:  target,
		spinner: s,
		stats:   stats,
		console: NewDeadEndConsole(),
		matches: NewMatchesTable(),
		cancel:  cancel,
	}
}

// Init is the first function called. It returns an optional initial command.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles all the updates and state transitions
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.done {
				return m, tea.Quit
			}
			if !m.stopping {
				m.stopping = true
				m.console.AddNotice("Stopping search, waiting for running fetches...")
				if m.cancel != nil {
					m.cancel()
				}
			}
			return m, nil
		}
		cmds = append(cmds, m.console.Update(msg), m.matches.Update(msg))

	case spinner.TickMsg:
		if !m.done {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case PageMsg:
		m.stats.RecordPage(string(msg.ID), msg.Depth)

	case FailureMsg:
		m.stats.RecordFailure()
		m.console.AddDeadEnd(msg.ID, msg.Depth, msg.Err)

	case LoadMsg:
		m.stats.RecordLoad(msg.Queued, msg.Active, msg.Workers)

	case MatchMsg:
		m.stats.RecordMatch()
		m.matches.AddMatch(msg.Match)

	case DoneMsg:
		m.done = true
		m.outcome = msg.Outcome
		m.err = msg.Err
		m.stats.Finish(msg.Outcome.Stats.Elapsed)
		if msg.Err != nil {
			m.console.AddNotice(msg.Err.Error())
		}
		if m.stopping {
			return m, tea.Quit
		}
	}

	return m, tea.Batch(cmds...)
}

// SetSize lays the panels out for the terminal size
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	statsHeight := 13
	matchesHeight := 8
	consoleHeight := height - statsHeight - matchesHeight - 4
	if consoleHeight < 5 {
		consoleHeight = 5
	}

	m.stats.SetSize(width, statsHeight)
	m.matches.SetSize(width, matchesHeight)
	m.console.SetSize(width, consoleHeight)
}

// Done reports whether the run has finished
func (m Model) Done() bool {
	return m.done
}

// View returns a string representation of the UI
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.header())
	b.WriteString("\n")
	b.WriteString(m.stats.View())
	b.WriteString("\n")
	b.WriteString(m.matches.View())
	b.WriteString("\n")
	b.WriteString(m.console.View())
	b.WriteString("\n")
	b.WriteString(m.help())

	return b.String()
}

func (m Model) header() string {
	switch {
	case !m.done:
		return fmt.Sprintf("%s Searching for %s from %s", m.spinner.View(), m.target, m.start)
	case m.outcome.Found():
		return successStyle.Render(fmt.Sprintf("%s found! %d path(s) from %s", m.target, len(m.outcome.Matches), m.start))
	case m.err != nil:
		return errorStyle.Render(fmt.Sprintf("Search stopped: %v", m.err))
	default:
		return errorStyle.Render(fmt.Sprintf("%s not found within depth limit", m.target))
	}
}

func (m Model) help() string {
	if m.done {
		return helpStyle.Render("q: quit • ↑/↓: scroll")
	}
	return helpStyle.Render("q: stop search • ↑/↓: scroll")
}
