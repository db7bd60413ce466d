package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// SearchStats holds search statistics
type SearchStats struct {
	Start        string
	Target       string
	MaxDepth     int
	Crawled      int
	Failures     int
	Matches      int
	CurrentPage  string
	CurrentDepth int
	DeepestDepth int
	Queued       int
	Active       int
	Workers      int
	StartTime    time.Time
	Elapsed      time.Duration // set once the run has finished
	RecentPages  []string
}

// StatsPanel displays search statistics
type StatsPanel struct {
	stats      SearchStats
	width      int
	height     int
	style      lipgloss.Style
	labelStyle lipgloss.Style
	valueStyle lipgloss.Style
}

func NewStatsPanel() *StatsPanel {
	return &StatsPanel{
		stats: SearchStats{
			RecentPages: make([]string, 0, 5),
		},
		style: borderStyle.
			BorderForeground(lipgloss.Color("99")),
		labelStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Bold(true),
		valueStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")),
	}
}

func (s *StatsPanel) SetSize(width, height int) {
	s.width = width
	s.height = height
}

func (s *StatsPanel) View() string {
	pagesPerSecond := 0.0
	if elapsed := s.elapsed().Seconds(); elapsed > 0 {
		pagesPerSecond = float64(s.stats.Crawled) / elapsed
	}

	stats := []struct {
		label string
		value string
	}{
		{"Route", fmt.Sprintf("%s → %s", s.stats.Start, s.stats.Target)},
		{"Current", fmt.Sprintf("%s (depth %d/%d)", s.stats.CurrentPage, s.stats.CurrentDepth, s.stats.MaxDepth)},
		{"Pages Crawled", fmt.Sprintf("%d", s.stats.Crawled)},
		{"Deepest Level", fmt.Sprintf("%d", s.stats.DeepestDepth)},
		{"Workers", fmt.Sprintf("%d/%d busy, %d queued", s.stats.Active, s.stats.Workers, s.stats.Queued)},
		{"Dead Ends", fmt.Sprintf("%d", s.stats.Failures)},
		{"Matches", fmt.Sprintf("%d", s.stats.Matches)},
		{"Pages/Second", fmt.Sprintf("%.2f", pagesPerSecond)},
		{"Elapsed Time", formatElapsed(s.elapsed())},
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("Search Statistics") + "\n\n")

	columnWidth := 16
	for _, stat := range stats {
		content.WriteString(fmt.Sprintf("%-*s %s\n",
			columnWidth,
			s.labelStyle.Render(stat.label+":"),
			s.valueStyle.Render(stat.value),
		))
	}

	if len(s.stats.RecentPages) > 0 {
		content.WriteString("\nRecent pages: ")
		content.WriteString(infoStyle.Render(strings.Join(s.stats.RecentPages, ", ")))
	}

	style := s.style
	if s.width > 0 {
		style = style.Width(s.width - 2)
	}
	return style.Render(content.String())
}

// UpdateStats replaces the statistics
func (s *StatsPanel) UpdateStats(stats SearchStats) {
	s.stats = stats
}

// Stats returns a copy of the current statistics
func (s *StatsPanel) Stats() SearchStats {
	out := s.stats
	out.RecentPages = append([]string(nil), s.stats.RecentPages...)
	return out
}

// RecordPage notes that a page is being crawled
func (s *StatsPanel) RecordPage(page string, depth int) {
	s.stats.Crawled++
	s.stats.CurrentPage = page
	s.stats.CurrentDepth = depth
	if depth > s.stats.DeepestDepth {
		s.stats.DeepestDepth = depth
	}

	s.stats.RecentPages = append(s.stats.RecentPages, page)
	if len(s.stats.RecentPages) > 5 {
		s.stats.RecentPages = s.stats.RecentPages[1:]
	}
}

// RecordLoad updates the worker pool figures
func (s *StatsPanel) RecordLoad(queued, active, workers int) {
	s.stats.Queued = queued
	s.stats.Active = active
	s.stats.Workers = workers
}

func (s *StatsPanel) RecordFailure() {
	s.stats.Failures++
}

func (s *StatsPanel) RecordMatch() {
	s.stats.Matches++
}

// Finish freezes the elapsed time
func (s *StatsPanel) Finish(elapsed time.Duration) {
	s.stats.Elapsed = elapsed
}

func (s *StatsPanel) elapsed() time.Duration {
	if s.stats.Elapsed > 0 {
		return s.stats.Elapsed
	}
	if s.stats.StartTime.IsZero() {
		return 0
	}
	return time.Since(s.stats.StartTime)
}

func formatElapsed(elapsed time.Duration) string {
	return fmt.Sprintf("%02d:%02d:%02d",
		int(elapsed.Hours()),
		int(elapsed.Minutes())%60,
		int(elapsed.Seconds())%60,
	)
}
