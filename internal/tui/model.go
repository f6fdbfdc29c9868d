// Package tui is the terminal user interface of pipeview, a bubbletea program over a view.Model.
package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/askiada/go-pipeview/pkg/pipeview"
	"github.com/askiada/go-pipeview/pkg/pipeview/drawer"
	"github.com/askiada/go-pipeview/pkg/pipeview/measure"
	"github.com/askiada/go-pipeview/pkg/pipeview/view"
)

const refreshAge = time.Second

// Fetcher is the part of the poller the UI drives. *pipeview.Poller implements it.
type Fetcher interface {
	FetchSnapshot(ctx context.Context) error
	Stats() measure.Stats
}

var _ Fetcher = (*pipeview.Poller)(nil)

// SnapshotMsg is sent to the program after the view model observed a poller event.
type SnapshotMsg struct {
	Event pipeview.Event
}

type ageTickMsg time.Time

type fetchDoneMsg struct {
	err error
}

type drawDoneMsg struct {
	path string
	err  error
}

// Config holds the dependencies of the UI.
type Config struct {
	View     *view.Model
	Fetcher  Fetcher
	Drawer   drawer.Drawer
	DotFile  string
	Interval time.Duration
	Logger   *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

type row struct {
	stage    string
	unlisted bool
	handle   *view.JobHandle
}

func (r row) isJob() bool {
	return r.handle != nil
}

// Model implements tea.Model.
type Model struct {
	cfg    Config
	keys   KeyMap
	styles styles

	rows     []row
	cursor   int
	showVars bool
	status   string
	lastErr  error
	width    int
}

// NewModel returns the UI model. The variable table starts collapsed.
func NewModel(cfg Config) Model {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.Interval <= 0 {
		cfg.Interval = pipeview.DefaultInterval
	}

	m := Model{
		cfg:    cfg,
		keys:   DefaultKeyMap,
		styles: newStyles(DefaultTheme),
	}
	m.rebuild("")

	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickAge()
}

func tickAge() tea.Cmd {
	return tea.Tick(refreshAge, func(t time.Time) tea.Msg {
		return ageTickMsg(t)
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case SnapshotMsg:
		switch msg.Event.Kind {
		case pipeview.EventReplaced:
			m.lastErr = nil
			m.rebuild(m.selectedName())
		case pipeview.EventFailed:
			m.lastErr = msg.Event.Err
		}
	case ageTickMsg:
		return m, tickAge()
	case fetchDoneMsg:
		if msg.err != nil {
			m.status = "refresh failed"
		} else {
			m.status = "refreshed"
		}
	case drawDoneMsg:
		if msg.err != nil {
			m.cfg.Logger.Error("unable to write dot file", "path", msg.path, "error", msg.err)
			m.status = "dot failed: " + msg.err.Error()
		} else {
			m.status = "wrote " + msg.path
		}
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.move(-1)
	case key.Matches(msg, m.keys.Down):
		m.move(1)
	case key.Matches(msg, m.keys.Toggle):
		m.toggle()
	case key.Matches(msg, m.keys.Variables):
		m.showVars = !m.showVars
	case key.Matches(msg, m.keys.Reset):
		m.cfg.View.Reset()
		m.status = "cleared"
	case key.Matches(msg, m.keys.Refresh):
		m.status = "refreshing"

		return m, m.refresh()
	case key.Matches(msg, m.keys.Draw):
		return m, m.draw()
	}

	return m, nil
}

func (m *Model) toggle() {
	r, ok := m.selected()
	if !ok {
		return
	}

	cascade := r.handle.Toggle()
	switch {
	case len(cascade.Missing) > 0:
		m.status = "not rendered: " + joinNames(cascade.Missing)
	case len(cascade.Activated) > 1:
		m.status = "activated " + joinNames(cascade.Activated)
	default:
		m.status = ""
	}
}

func (m Model) refresh() tea.Cmd {
	fetcher := m.cfg.Fetcher
	if fetcher == nil {
		return nil
	}

	return func() tea.Msg {
		// the poller bounds the request with its own timeout
		return fetchDoneMsg{err: fetcher.FetchSnapshot(context.Background())}
	}
}

func (m Model) draw() tea.Cmd {
	if m.cfg.Drawer == nil || m.cfg.DotFile == "" {
		return nil
	}

	d, path, vm := m.cfg.Drawer, m.cfg.DotFile, m.cfg.View

	return func() tea.Msg {
		return drawDoneMsg{path: path, err: d.WriteFile(path, vm.Graph(), vm.Active)}
	}
}

// rebuild flattens the stage groups into rows and keeps the cursor on name when it still exists.
func (m *Model) rebuild(name string) {
	var rows []row

	for _, group := range m.cfg.View.Stages() {
		rows = append(rows, row{stage: group.Stage, unlisted: group.Unlisted})

		for _, h := range group.Jobs {
			rows = append(rows, row{stage: group.Stage, unlisted: group.Unlisted, handle: h})
		}
	}

	m.rows = rows

	m.cursor = -1

	for i, r := range m.rows {
		if !r.isJob() {
			continue
		}

		if m.cursor < 0 {
			m.cursor = i
		}

		if r.handle.Name() == name {
			m.cursor = i

			break
		}
	}
}

func (m *Model) move(delta int) {
	for i := m.cursor + delta; i >= 0 && i < len(m.rows); i += delta {
		if m.rows[i].isJob() {
			m.cursor = i

			return
		}
	}
}

func (m Model) selected() (row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return row{}, false
	}

	return m.rows[m.cursor], true
}

func (m Model) selectedName() string {
	if r, ok := m.selected(); ok {
		return r.handle.Name()
	}

	return ""
}

// Selected returns the name of the job under the cursor.
func (m Model) Selected() string {
	return m.selectedName()
}
