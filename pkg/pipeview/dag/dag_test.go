package dag_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-pipeview/pkg/pipeview/dag"
	"github.com/askiada/go-pipeview/pkg/pipeview/model"
)

func newDocument(needs map[string][]string) *model.PipelineDocument {
	doc := &model.PipelineDocument{
		Stages: []string{"build"},
		Jobs:   make(map[string]model.PipelineJob),
	}

	for name, list := range needs {
		doc.Jobs[name] = model.PipelineJob{Name: name, Stage: "build", Needs: list}
	}

	return doc
}

func TestBuildNil(t *testing.T) {
	t.Parallel()

	g, err := dag.Build(nil)
	require.NoError(t, err)
	assert.Empty(t, g.Jobs())
	assert.Empty(t, g.Dependencies("anything"))
}

func TestDependencies(t *testing.T) {
	t.Parallel()

	g, err := dag.Build(newDocument(map[string][]string{
		"compile": {},
		"unit":    {"compile"},
		"lint":    {},
		"package": {"unit", "lint", "unit"},
		"deploy":  {"package", "ghost"},
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"compile", "deploy", "lint", "package", "unit"}, g.Jobs())
	assert.Equal(t, []string{"compile", "lint", "package", "unit"}, g.Dependencies("deploy"))
	assert.Equal(t, []string{"lint", "unit"}, g.Needs("package"))
	assert.Equal(t, []string{"ghost"}, g.Missing("deploy"))
	assert.Equal(t, []string{"package"}, g.Dependents("unit"))
	assert.Empty(t, g.Dependencies("compile"))
	assert.Empty(t, g.Cycles())
}

func TestSelfNeedIsIgnored(t *testing.T) {
	t.Parallel()

	g, err := dag.Build(newDocument(map[string][]string{"loop": {"loop"}}))
	require.NoError(t, err)

	assert.Empty(t, g.Needs("loop"))
	assert.Empty(t, g.Dependencies("loop"))
	assert.Empty(t, g.Cycles())
}

func TestCycles(t *testing.T) {
	t.Parallel()

	g, err := dag.Build(newDocument(map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": {"a"},
		"d": {"a"},
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "c"}, g.Dependencies("a"))
	assert.Equal(t, []string{"a", "b", "c"}, g.Dependencies("d"))
	assert.Equal(t, [][]string{{"a", "b", "c"}}, g.Cycles())

	_, err = g.Order()
	assert.ErrorIs(t, err, dag.ErrCyclic)

	issues := g.Issues()
	require.Len(t, issues, 3)
	assert.Equal(t, model.IssueCycle, issues[0].Kind)

	edges, err := g.Graph().Edges()
	require.NoError(t, err)

	closing := 0
	for _, edge := range edges {
		if edge.Properties.Attributes[dag.CycleAttribute] == "true" {
			closing++
		}
	}

	assert.Equal(t, 1, closing)
}

func TestInvalidJobNamesAreSkipped(t *testing.T) {
	t.Parallel()

	for range 50 {
		g, err := dag.Build(newDocument(map[string][]string{
			"a":   {"c", ""},
			"b":   {"a"},
			"c":   {"b", " d "},
			"":    {},
			" d ": {"a"},
		}))
		require.NoError(t, err)

		assert.Equal(t, []string{"a", "b", "c"}, g.Jobs())
		assert.Equal(t, [][]string{{"a", "b", "c"}}, g.Cycles())
		assert.Equal(t, []string{""}, g.Missing("a"))
		assert.Equal(t, []string{" d "}, g.Missing("c"))
		assert.Len(t, g.Issues(), 3)

		_, err = g.Order()
		require.ErrorIs(t, err, dag.ErrCyclic)
	}
}

func TestOrder(t *testing.T) {
	t.Parallel()

	g, err := dag.Build(newDocument(map[string][]string{
		"compile": {},
		"unit":    {"compile"},
		"package": {"unit"},
		"docs":    {},
	}))
	require.NoError(t, err)

	order, err := g.Order()
	require.NoError(t, err)
	require.Len(t, order, 4)

	assert.Less(t, slices.Index(order, "compile"), slices.Index(order, "unit"))
	assert.Less(t, slices.Index(order, "unit"), slices.Index(order, "package"))
}

func TestSetAttribute(t *testing.T) {
	t.Parallel()

	g, err := dag.Build(newDocument(map[string][]string{"compile": {}}))
	require.NoError(t, err)

	require.NoError(t, g.SetAttribute("compile", "fillcolor", "#ff0000"))
	assert.Error(t, g.SetAttribute("ghost", "fillcolor", "#ff0000"))

	_, props, err := g.Graph().VertexWithProperties("compile")
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", props.Attributes["fillcolor"])
}
