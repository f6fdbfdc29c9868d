package drawer_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/askiada/go-pipeview/pkg/pipeview/dag"
	"github.com/askiada/go-pipeview/pkg/pipeview/drawer"
	"github.com/askiada/go-pipeview/pkg/pipeview/model"
)

func buildGraph(t *testing.T, body string) *dag.Graph {
	t.Helper()

	doc, err := model.Parse([]byte(body))
	require.NoError(t, err)

	g, err := dag.Build(doc)
	require.NoError(t, err)

	return g
}

func hex(t *testing.T, r, g, b uint8) string {
	t.Helper()

	c, err := colors.RGB(r, g, b)
	require.NoError(t, err)

	return c.ToHEX().String()
}

func draw(t *testing.T, g *dag.Graph, active func(string) bool) string {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, drawer.NewDotDrawer().Draw(&buf, g, active))

	return buf.String()
}

// line returns the first statement mentioning every part.
func line(t *testing.T, out string, parts ...string) string {
	t.Helper()

	for _, l := range strings.Split(out, "\n") {
		found := true

		for _, p := range parts {
			if !strings.Contains(l, p) {
				found = false

				break
			}
		}

		if found {
			return l
		}
	}

	require.FailNow(t, "statement not found", "%v in\n%s", parts, out)

	return ""
}

func TestDrawStagesAndActive(t *testing.T) {
	t.Parallel()

	g := buildGraph(t, `{
		"stages": ["build", "test"],
		"jobs": {
			"compile": {"stage": "build"},
			"unit": {"stage": "test", "needs": ["compile"]},
			"docs": {"stage": ".post"}
		}
	}`)

	out := draw(t, g, func(name string) bool { return name == "unit" })

	assert.True(t, strings.HasPrefix(out, "strict digraph {"))
	assert.Contains(t, out, `rankdir="LR";`)

	compile := line(t, out, "\t\"compile\" [")
	assert.Contains(t, compile, `color="`+hex(t, 0, 0, 240)+`"`)
	assert.NotContains(t, compile, "filled")

	unit := line(t, out, "\t\"unit\" [")
	assert.Contains(t, unit, `color="`+hex(t, 240, 0, 0)+`"`)
	assert.Contains(t, unit, `style="filled"`)
	assert.Contains(t, unit, `FONT POINT-SIZE="10">test</FONT>`)

	assert.Contains(t, line(t, out, "\t\"docs\" ["), `color="#808080"`)
	line(t, out, `"unit" -> "compile"`)
}

func TestDrawMissingAndCycles(t *testing.T) {
	t.Parallel()

	g := buildGraph(t, `{
		"stages": ["test"],
		"jobs": {
			"a": {"stage": "test", "needs": ["b", "ghost"]},
			"b": {"stage": "test", "needs": ["a", "ghost"]}
		}
	}`)

	out := draw(t, g, nil)

	ghost := line(t, out, "\t\"ghost\" [")
	assert.Contains(t, ghost, `style="dashed"`)
	assert.Equal(t, 1, strings.Count(out, "\t\"ghost\" ["))
	assert.Contains(t, line(t, out, `"a" -> "ghost"`), `style="dashed"`)
	assert.Contains(t, line(t, out, `"b" -> "ghost"`), `style="dashed"`)

	// exactly one of the two edges closes the cycle
	assert.Equal(t, 1, strings.Count(out, `color="#ff0000"`))
	assert.NotContains(t, out, dag.CycleAttribute+"=")
}

func TestDrawVertexAttribute(t *testing.T) {
	t.Parallel()

	g := buildGraph(t, `{"stages": ["build"], "jobs": {"compile": {"stage": "build"}}}`)
	require.NoError(t, g.SetAttribute("compile", "shape", "box"))

	assert.Contains(t, line(t, draw(t, g, nil), "\t\"compile\" ["), `shape="box"`)
}

func TestDrawEscapesNames(t *testing.T) {
	t.Parallel()

	g := buildGraph(t, `{"stages": ["build"], "jobs": {"say \"hi\" <now>": {"stage": "build"}}}`)
	out := draw(t, g, nil)

	assert.Contains(t, out, `"say \"hi\" <now>" [`)
	assert.Contains(t, out, `say &#34;hi&#34; &lt;now&gt;`)
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	g := buildGraph(t, `{"stages": ["build"], "jobs": {"compile": {"stage": "build"}}}`)
	path := filepath.Join(t.TempDir(), "pipeline.dot")

	d := drawer.NewDotDrawer(drawer.GraphAttribute("rankdir", "TB"))
	require.NoError(t, d.WriteFile(path, g, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `rankdir="TB";`)
	assert.Contains(t, string(data), "\t\"compile\" [")

	err = d.WriteFile(filepath.Join(t.TempDir(), "missing", "pipeline.dot"), g, nil)
	require.Error(t, err)
}
