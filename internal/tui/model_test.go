package tui_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-pipeview/internal/log"
	"github.com/askiada/go-pipeview/internal/tui"
	"github.com/askiada/go-pipeview/pkg/pipeview"
	"github.com/askiada/go-pipeview/pkg/pipeview/drawer"
	"github.com/askiada/go-pipeview/pkg/pipeview/measure"
	"github.com/askiada/go-pipeview/pkg/pipeview/model"
	"github.com/askiada/go-pipeview/pkg/pipeview/view"
)

const exampleDocument = `{"filename":"a.yml","stages":["build","test"],"jobs":{"compile":{"name":"compile","source_file":"a.yml","extends":[],"stage":"build","needs":[]},"unit":{"name":"unit","source_file":"a.yml","extends":[],"stage":"test","needs":["compile"]}},"variables":{"ENV":"prod"}}`

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeFetcher struct {
	stats   measure.Stats
	fetches int
	err     error
}

func (f *fakeFetcher) FetchSnapshot(context.Context) error {
	f.fetches++

	return f.err
}

func (f *fakeFetcher) Stats() measure.Stats {
	return f.stats
}

func newModel(t *testing.T, fetcher *fakeFetcher, dotFile string) (tui.Model, *view.Model) {
	t.Helper()

	doc, err := model.Parse([]byte(exampleDocument))
	require.NoError(t, err)

	vm := view.NewModel()
	require.NoError(t, vm.Apply(pipeview.Snapshot{Document: doc, Seq: 1, FetchedAt: now}))

	return tui.NewModel(tui.Config{
		View:     vm,
		Fetcher:  fetcher,
		Drawer:   drawer.NewDotDrawer(),
		DotFile:  dotFile,
		Interval: 2 * time.Second,
		Logger:   log.Discard(),
		Now:      func() time.Time { return now },
	}), vm
}

func press(t *testing.T, m tui.Model, keys ...string) (tui.Model, tea.Cmd) {
	t.Helper()

	var cmd tea.Cmd

	for _, k := range keys {
		var msg tea.KeyMsg

		switch k {
		case "space":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}

		var next tea.Model

		next, cmd = m.Update(msg)
		m = next.(tui.Model)
	}

	return m, cmd
}

func TestCursor(t *testing.T) {
	t.Parallel()

	m, _ := newModel(t, &fakeFetcher{}, "")
	assert.Equal(t, "compile", m.Selected())

	m, _ = press(t, m, "j")
	assert.Equal(t, "unit", m.Selected())

	m, _ = press(t, m, "j")
	assert.Equal(t, "unit", m.Selected())

	m, _ = press(t, m, "k", "k")
	assert.Equal(t, "compile", m.Selected())
}

func TestToggleCascades(t *testing.T) {
	t.Parallel()

	m, vm := newModel(t, &fakeFetcher{}, "")

	m, _ = press(t, m, "j", "space")
	assert.True(t, vm.Active("unit"))
	assert.True(t, vm.Active("compile"))
	assert.Contains(t, m.View(), "activated unit, compile")

	m, _ = press(t, m, "enter")
	assert.False(t, vm.Active("unit"))
	assert.True(t, vm.Active("compile"))

	press(t, m, "x")
	assert.False(t, vm.Active("compile"))
}

func TestVariablesCollapsed(t *testing.T) {
	t.Parallel()

	m, _ := newModel(t, &fakeFetcher{}, "")
	assert.NotContains(t, m.View(), "prod")
	assert.Contains(t, m.View(), "variables: 1")

	m, _ = press(t, m, "v")
	assert.Contains(t, m.View(), "ENV")
	assert.Contains(t, m.View(), "prod")
}

func TestStatusBar(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		stats     measure.Stats
		want      string
		wantStale bool
	}{
		"never fetched": {want: "never fetched"},
		"fresh":         {stats: measure.Stats{LastSuccess: now.Add(-time.Second)}, want: "fetched 1s ago"},
		"old": {
			stats:     measure.Stats{LastSuccess: now.Add(-10 * time.Second)},
			want:      "fetched 10s ago",
			wantStale: true,
		},
		"failing": {
			stats:     measure.Stats{LastSuccess: now, FailuresSinceSuccess: 2},
			want:      "2 failed",
			wantStale: true,
		},
	}
	for name, tc := range tcs {
		tc := tc

		t.Run(name, func(t *testing.T) {
			t.Parallel()

			m, _ := newModel(t, &fakeFetcher{stats: tc.stats}, "")
			out := m.View()
			assert.Contains(t, out, tc.want)
			assert.Equal(t, tc.wantStale, strings.Contains(out, "STALE"))
		})
	}
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{err: assert.AnError}
	m, _ := newModel(t, fetcher, "")

	m, cmd := press(t, m, "r")
	require.NotNil(t, cmd)

	next, _ := m.Update(cmd())
	m = next.(tui.Model)
	assert.Equal(t, 1, fetcher.fetches)
	assert.Contains(t, m.View(), "refresh failed")
}

func TestDraw(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pipeline.dot")
	m, _ := newModel(t, &fakeFetcher{}, path)

	m, cmd := press(t, m, "d")
	require.NotNil(t, cmd)

	next, _ := m.Update(cmd())
	m = next.(tui.Model)
	assert.Contains(t, m.View(), "wrote "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"unit" -> "compile"`)
}

func TestQuit(t *testing.T) {
	t.Parallel()

	m, _ := newModel(t, &fakeFetcher{}, "")

	_, cmd := press(t, m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestSnapshotKeepsCursor(t *testing.T) {
	t.Parallel()

	m, vm := newModel(t, &fakeFetcher{}, "")
	m, _ = press(t, m, "j")

	doc, err := model.Parse([]byte(`{"stages":["build","test"],"jobs":{"aaa":{"stage":"build"},"compile":{"stage":"build"},"unit":{"stage":"test"}}}`))
	require.NoError(t, err)

	snap := pipeview.Snapshot{Document: doc, Seq: 2, FetchedAt: now}
	require.NoError(t, vm.Apply(snap))

	next, _ := m.Update(tui.SnapshotMsg{Event: pipeview.Event{Kind: pipeview.EventReplaced, Seq: 2, Snapshot: snap}})
	m = next.(tui.Model)
	assert.Equal(t, "unit", m.Selected())
	assert.Contains(t, m.View(), "aaa")

	next, _ = m.Update(tui.SnapshotMsg{Event: pipeview.Event{Kind: pipeview.EventFailed, Seq: 3, Snapshot: snap, Err: assert.AnError}})
	m = next.(tui.Model)
	assert.Contains(t, m.View(), "last error")
}
