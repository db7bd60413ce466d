package ui

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/go-scripts/pathcrawl/internal/fetch"
	"github.com/go-scripts/pathcrawl/internal/links"
	"github.com/go-scripts/pathcrawl/internal/types"
)

// deadEndKind groups failures by what went wrong
type deadEndKind int

const (
	kindUnreachable deadEndKind = iota // transport failure or unknown error
	kindHTTP                           // server answered with a non-2xx status
	kindUnparsable                     // body could not be parsed
	kindNotice                         // not a page, e.g. the stop request
)

type deadEnd struct {
	at     time.Time
	page   types.PageID
	depth  int
	kind   deadEndKind
	reason string
}

// DeadEndConsole lists pages the search had to give up on, newest last
type DeadEndConsole struct {
	viewport viewport.Model
	entries  []deadEnd
	counts   map[deadEndKind]int
	width    int
	style    lipgloss.Style
}

var (
	httpKindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	unreachableKindStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196")).
				Bold(true)

	unparsableKindStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("170"))

	depthStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	clockStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")).
			Italic(true)
)

func NewDeadEndConsole() *DeadEndConsole {
	return &DeadEndConsole{
		viewport: viewport.New(0, 0),
		counts:   make(map[deadEndKind]int),
		style:    borderStyle.BorderForeground(lipgloss.Color("196")),
	}
}

func (c *DeadEndConsole) SetSize(width, height int) {
	c.width = width
	c.viewport.Width = width - 4
	c.viewport.Height = height - 4
	c.refresh()
}

// AddDeadEnd records a page at depth that could not be expanded
func (c *DeadEndConsole) AddDeadEnd(page types.PageID, depth int, err error) {
	kind, reason := classify(err)
	c.add(deadEnd{at: time.Now(), page: page, depth: depth, kind: kind, reason: reason})
}

// AddNotice records a message that is not tied to a page
func (c *DeadEndConsole) AddNotice(msg string) {
	c.add(deadEnd{at: time.Now(), kind: kindNotice, reason: msg})
}

func (c *DeadEndConsole) add(e deadEnd) {
	c.entries = append(c.entries, e)
	c.counts[e.kind]++
	c.refresh()
}

// Len returns the number of dead-end pages, notices excluded
func (c *DeadEndConsole) Len() int {
	return len(c.entries) - c.counts[kindNotice]
}

// Update scrolls the console
func (c *DeadEndConsole) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	c.viewport, cmd = c.viewport.Update(msg)
	return cmd
}

func (c *DeadEndConsole) View() string {
	footer := fmt.Sprintf("Dead ends: %d | HTTP: %d | Unreachable: %d | Unparsable: %d",
		c.Len(), c.counts[kindHTTP], c.counts[kindUnreachable], c.counts[kindUnparsable])

	style := c.style
	if c.width > 0 {
		style = style.Width(c.width - 2)
	}
	return style.Render(titleStyle.Render("Dead Ends") + "\n" + c.viewport.View() + "\n" + infoStyle.Render(footer))
}

func (c *DeadEndConsole) refresh() {
	var sb strings.Builder
	for _, e := range c.entries {
		sb.WriteString(formatDeadEnd(e))
		sb.WriteByte('\n')
	}

	atBottom := c.viewport.AtBottom()
	c.viewport.SetContent(sb.String())
	if atBottom {
		c.viewport.GotoBottom()
	}
}

func formatDeadEnd(e deadEnd) string {
	clock := clockStyle.Render(e.at.Format("15:04:05"))
	if e.kind == kindNotice {
		return fmt.Sprintf("%s %s", clock, helpStyle.Render(e.reason))
	}

	var kind string
	switch e.kind {
	case kindHTTP:
		kind = httpKindStyle.Render(e.reason)
	case kindUnparsable:
		kind = unparsableKindStyle.Render(e.reason)
	default:
		kind = unreachableKindStyle.Render(e.reason)
	}
	return fmt.Sprintf("%s %s %s %s", clock, depthStyle.Render(fmt.Sprintf("d%d", e.depth)), e.page, kind)
}

// classify turns a crawl error into a kind and a short reason
func classify(err error) (deadEndKind, string) {
	var fetchErr *fetch.FetchError
	var parseErr *links.ParseError

	switch {
	case errors.As(err, &parseErr):
		return kindUnparsable, "unparsable"
	case errors.As(err, &fetchErr) && fetchErr.StatusCode != 0:
		return kindHTTP, fmt.Sprintf("%d %s", fetchErr.StatusCode, http.StatusText(fetchErr.StatusCode))
	case errors.As(err, &fetchErr) && fetchErr.Err != nil:
		return kindUnreachable, fetchErr.Err.Error()
	case err != nil:
		return kindUnreachable, err.Error()
	default:
		return kindUnreachable, "unknown error"
	}
}
