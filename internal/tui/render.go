package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/askiada/go-pipeview/pkg/pipeview/measure"
	"github.com/askiada/go-pipeview/pkg/pipeview/view"
)

func joinNames(names []string) string {
	return strings.Join(names, ", ")
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	filename := m.cfg.View.Filename()
	if filename == "" {
		filename = "waiting for pipeline"
	}

	b.WriteString(m.styles.title.Render(filename))
	b.WriteString("\n")

	for i, r := range m.rows {
		b.WriteString(m.renderRow(r, i == m.cursor))
		b.WriteString("\n")
	}

	if m.showVars {
		b.WriteString(m.renderVariables())
	} else if n := len(m.cfg.View.Variables()); n > 0 {
		b.WriteString(m.styles.faint.Render(fmt.Sprintf("\nvariables: %d (v to show)", n)))
		b.WriteString("\n")
	}

	for _, issue := range m.cfg.View.Issues() {
		b.WriteString(m.styles.issue.Render("! " + issue.String()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.statusBar())
	b.WriteString("\n")
	b.WriteString(m.helpLine())

	return b.String()
}

func (m Model) renderRow(r row, selected bool) string {
	if !r.isJob() {
		stage := r.stage
		if r.unlisted {
			stage = "(unlisted)"
		}

		return "\n" + m.styles.stage.Render(stage)
	}

	job := r.handle.Job()

	mark, style := "[ ]", m.styles.job
	if r.handle.Active() {
		mark, style = "[x]", m.styles.active
	}

	line := fmt.Sprintf("  %s %s", mark, r.handle.Name())
	if len(job.Needs) > 0 {
		line += m.renderNeeds(job.Needs)
	}

	if selected {
		return m.styles.selected.Render(line)
	}

	return style.Render(line)
}

func (m Model) renderNeeds(needs []string) string {
	parts := make([]string, 0, len(needs))

	for _, need := range needs {
		if _, ok := m.cfg.View.Handle(need); !ok {
			need += "?"
		}

		parts = append(parts, need)
	}

	return "  <- " + joinNames(parts)
}

func (m Model) renderVariables() string {
	vars := m.cfg.View.Variables()
	if len(vars) == 0 {
		return m.styles.faint.Render("\nno variables") + "\n"
	}

	width := 0
	for _, v := range vars {
		width = max(width, len(v.Name))
	}

	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(m.styles.stage.Render("variables"))
	b.WriteString("\n")

	for _, v := range vars {
		b.WriteString(renderVariable(v, width))
		b.WriteString("\n")
	}

	return b.String()
}

func renderVariable(v view.Variable, width int) string {
	return fmt.Sprintf("  %-*s  %s", width, v.Name, v.Value)
}

func (m Model) statusBar() string {
	var stats measure.Stats
	if m.cfg.Fetcher != nil {
		stats = m.cfg.Fetcher.Stats()
	}

	now := m.cfg.Now()

	parts := []string{fmt.Sprintf("%d jobs", m.cfg.View.Registry().Len())}

	if stats.LastSuccess.IsZero() {
		parts = append(parts, "never fetched")
	} else {
		parts = append(parts, "fetched "+age(now.Sub(stats.LastSuccess))+" ago")
	}

	if stats.FailuresSinceSuccess > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", stats.FailuresSinceSuccess))
	}

	if m.lastErr != nil {
		parts = append(parts, "last error: "+m.lastErr.Error())
	}

	if m.status != "" {
		parts = append(parts, m.status)
	}

	bar := m.styles.status.Render(" " + strings.Join(parts, " · ") + " ")

	if stats.Stale(now, m.cfg.Interval) {
		bar = lipgloss.JoinHorizontal(lipgloss.Top, m.styles.stale.Render(" STALE "), bar)
	}

	return bar
}

func age(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}

	return d.Truncate(time.Second).String()
}

func (m Model) helpLine() string {
	bindings := m.keys.help()
	parts := make([]string, 0, len(bindings))

	for _, binding := range bindings {
		h := binding.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}

	return m.styles.faint.Render(strings.Join(parts, "  "))
}
