package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/go-scripts/pathcrawl/internal/types"
)

// MatchesTable lists every path found to the target
type MatchesTable struct {
	viewport    viewport.Model
	matches     []types.Match
	width       int
	height      int
	headerStyle lipgloss.Style
	style       lipgloss.Style
}

// NewMatchesTable creates an empty table
func NewMatchesTable() *MatchesTable {
	t := &MatchesTable{
		matches: make([]types.Match, 0),
		headerStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")),
		style: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("35")),
	}
	t.viewport = viewport.New(0, 0)
	return t
}

// SetSize updates the table dimensions
func (t *MatchesTable) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.viewport.Width = width - 4
	t.viewport.Height = height - 3
	t.updateContent()
}

// Update scrolls the table
func (t *MatchesTable) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	t.viewport, cmd = t.viewport.Update(msg)
	return cmd
}

// AddMatch appends a match
func (t *MatchesTable) AddMatch(m types.Match) {
	t.matches = append(t.matches, m)
	t.updateContent()
}

// Len returns the number of matches shown
func (t *MatchesTable) Len() int {
	return len(t.matches)
}

// View renders the table
func (t *MatchesTable) View() string {
	style := t.style
	if t.width > 0 {
		style = style.Width(t.width - 2)
	}
	if len(t.matches) == 0 {
		return style.Render(infoStyle.Render("No path found yet"))
	}
	return style.Render(t.headerStyle.Render("Paths") + "\n" + t.viewport.View())
}

func (t *MatchesTable) updateContent() {
	rows := make([]string, 0, len(t.matches))
	for i, m := range t.matches {
		rows = append(rows, fmt.Sprintf("%2d. %s -> %s", i+1, m.Path.String(), successStyle.Render(string(m.Link))))
	}
	t.viewport.SetContent(strings.Join(rows, "\n"))
}
