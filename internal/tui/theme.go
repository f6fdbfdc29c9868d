package tui

import "github.com/charmbracelet/lipgloss"

// Theme defines the colors of the viewer. Colors are ANSI 256 codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	StageForeground  lipgloss.Color
	ActiveForeground lipgloss.Color
	MissingText      lipgloss.Color
	StaleForeground  lipgloss.Color
	StaleBackground  lipgloss.Color
	IssueForeground  lipgloss.Color
	StatusBackground lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText:         lipgloss.Color("252"),
	FaintText:          lipgloss.Color("243"),
	SelectedBackground: lipgloss.Color("237"),
	SelectedForeground: lipgloss.Color("255"),
	StageForeground:    lipgloss.Color("75"),
	ActiveForeground:   lipgloss.Color("114"),
	MissingText:        lipgloss.Color("240"),
	StaleForeground:    lipgloss.Color("231"),
	StaleBackground:    lipgloss.Color("160"),
	IssueForeground:    lipgloss.Color("214"),
	StatusBackground:   lipgloss.Color("236"),
}

type styles struct {
	title    lipgloss.Style
	stage    lipgloss.Style
	job      lipgloss.Style
	active   lipgloss.Style
	selected lipgloss.Style
	faint    lipgloss.Style
	issue    lipgloss.Style
	stale    lipgloss.Style
	status   lipgloss.Style
}

func newStyles(theme Theme) styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(theme.SelectedForeground),
		stage:    lipgloss.NewStyle().Bold(true).Foreground(theme.StageForeground),
		job:      lipgloss.NewStyle().Foreground(theme.NormalText),
		active:   lipgloss.NewStyle().Foreground(theme.ActiveForeground),
		selected: lipgloss.NewStyle().Background(theme.SelectedBackground).Foreground(theme.SelectedForeground),
		faint:    lipgloss.NewStyle().Foreground(theme.FaintText),
		issue:    lipgloss.NewStyle().Foreground(theme.IssueForeground),
		stale:    lipgloss.NewStyle().Bold(true).Foreground(theme.StaleForeground).Background(theme.StaleBackground),
		status:   lipgloss.NewStyle().Foreground(theme.NormalText).Background(theme.StatusBackground),
	}
}
