package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// progressTickMsg reports one task completion, forwarded from the
// orchestrator's OnProgress hook via program.Send.
type progressTickMsg struct {
	done, total int
	failed      bool
}

// progressDoneMsg signals that the orchestrator's Run call has returned and
// the program should exit.
type progressDoneMsg struct{}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// progressModel renders a live bar of finished Todo tasks out of the total,
// plus the number of failed tasks, while the leg ETL runs. It is only used
// when --tui is passed.
type progressModel struct {
	done, total, failed int
	finished             bool
}

func newProgressModel() *progressModel {
	return &progressModel{}
}

func (m *progressModel) Init() tea.Cmd {
	return nil
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch t := msg.(type) {
	case progressTickMsg:
		m.done = t.done
		m.total = t.total
		if t.failed {
			m.failed++
		}
	case progressDoneMsg:
		m.finished = true
		return m, tea.Quit
	case tea.KeyMsg:
		if t.String() == "ctrl+c" || t.String() == "q" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *progressModel) View() string {
	if m.total == 0 {
		return titleStyle.Render("private-jets etl-legs") + "\nwaiting for tasks...\n"
	}

	width := 40
	filled := width * m.done / m.total
	if filled > width {
		filled = width
	}
	bar := barStyle.Render(repeat("#", filled)) + repeat(".", width-filled)

	status := fmt.Sprintf("%d/%d done", m.done, m.total)
	if m.failed > 0 {
		status += " " + failStyle.Render(fmt.Sprintf("(%d failed)", m.failed))
	}

	return titleStyle.Render("private-jets etl-legs") + "\n[" + bar + "] " + status + "\n"
}

func repeat(s string, n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}
