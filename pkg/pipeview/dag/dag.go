// Package dag builds the needs graph of a pipeline document.
//
// Each job is a vertex and each needs entry an edge from the job to the job it needs.
// Documents come from the backend unchecked, so the graph tolerates references to unknown
// jobs, repeated entries and cycles: every traversal keeps a visited set.
package dag

import (
	"slices"
	"sort"
	"strings"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/askiada/go-pipeview/internal/store"
	"github.com/askiada/go-pipeview/pkg/pipeview/model"
)

// ErrCyclic is returned by Order when the needs graph contains a cycle.
var ErrCyclic = errors.New("needs graph contains a cycle")

// CycleAttribute is set to "true" on edges that close a cycle.
const CycleAttribute = "cycle"

// Graph is the needs graph of one document.
type Graph struct {
	graph   graph.Graph[string, model.PipelineJob]
	store   store.JobStore
	stages  []string
	missing map[string][]string
}

func jobHash(job model.PipelineJob) string {
	return job.Name
}

// Build creates the needs graph of doc.
func Build(doc *model.PipelineDocument) (*Graph, error) {
	s := store.NewMemoryStore()
	g := &Graph{
		graph:   graph.NewWithStore[string, model.PipelineJob](jobHash, s, graph.Directed()),
		store:   s,
		missing: make(map[string][]string),
	}

	if doc == nil {
		return g, nil
	}

	g.stages = slices.Clone(doc.Stages)

	var names []string

	for _, name := range doc.JobNames() {
		if !model.ValidJobName(name) {
			continue
		}

		names = append(names, name)

		job := doc.Jobs[name]
		// the map key is authoritative, the declared name may disagree
		job.Name = name

		err := g.graph.AddVertex(job)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to add job %s", name)
		}
	}

	for _, name := range names {
		for _, need := range doc.Jobs[name].Needs {
			err := g.addNeed(name, need)
			if err != nil {
				return nil, err
			}
		}
	}

	return g, nil
}

func (g *Graph) addNeed(name, need string) error {
	if need == name {
		return nil
	}

	if _, _, err := g.store.Vertex(need); err != nil {
		g.missing[name] = appendUnique(g.missing[name], need)

		return nil
	}

	cycle, err := g.store.CreatesCycle(name, need)
	if err != nil {
		return errors.Wrapf(err, "unable to check %s -> %s", name, need)
	}

	var options []func(*graph.EdgeProperties)
	if cycle {
		options = append(options, graph.EdgeAttribute(CycleAttribute, "true"))
	}

	err = g.graph.AddEdge(name, need, options...)
	if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
		return errors.Wrapf(err, "unable to add need %s -> %s", name, need)
	}

	return nil
}

// Graph returns the underlying graph.
func (g *Graph) Graph() graph.Graph[string, model.PipelineJob] {
	return g.graph
}

// Stages returns the stages of the document in order.
func (g *Graph) Stages() []string {
	return g.stages
}

// Jobs returns the sorted job names.
func (g *Graph) Jobs() []string {
	names, _ := g.store.ListVertices()

	return names
}

// Needs returns the direct needs of name that resolve to a job.
func (g *Graph) Needs(name string) []string {
	return g.store.Successors(name)
}

// Missing returns the needs of name that do not resolve to any job.
// Needs on jobs with an invalid name are reported here, those jobs are left out of the graph.
func (g *Graph) Missing(name string) []string {
	return g.missing[name]
}

// Dependencies returns every job that name transitively needs, sorted.
// A job is never its own dependency, even when it sits on a cycle.
func (g *Graph) Dependencies(name string) []string {
	var deps []string

	err := graph.BFS(g.graph, name, func(current string) bool {
		if current != name {
			deps = append(deps, current)
		}

		return false
	})
	if err != nil {
		return nil
	}

	sort.Strings(deps)

	return deps
}

// Dependents returns the jobs that directly need name, sorted.
func (g *Graph) Dependents(name string) []string {
	predecessors, err := g.graph.PredecessorMap()
	if err != nil {
		return nil
	}

	dependents := make([]string, 0, len(predecessors[name]))
	for dependent := range predecessors[name] {
		dependents = append(dependents, dependent)
	}

	sort.Strings(dependents)

	return dependents
}

// Cycles returns the groups of jobs that need each other, each group sorted.
func (g *Graph) Cycles() [][]string {
	components, err := graph.StronglyConnectedComponents(g.graph)
	if err != nil {
		return nil
	}

	var cycles [][]string

	for _, component := range components {
		if len(component) < 2 {
			continue
		}

		sort.Strings(component)
		cycles = append(cycles, component)
	}

	sort.Slice(cycles, func(i, j int) bool {
		return cycles[i][0] < cycles[j][0]
	})

	return cycles
}

// Order returns the jobs in an order where every job comes after everything it needs.
func (g *Graph) Order() ([]string, error) {
	if len(g.Cycles()) > 0 {
		return nil, ErrCyclic
	}

	order, err := graph.StableTopologicalSort(g.graph, func(a, b string) bool {
		return a < b
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to sort jobs")
	}

	// edges point from a job to its needs, so execution order is the reverse
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}

	return order, nil
}

// Issues reports the cycles of the graph as document issues.
func (g *Graph) Issues() []model.Issue {
	var issues []model.Issue

	for _, cycle := range g.Cycles() {
		for _, name := range cycle {
			issues = append(issues, model.Issue{
				Job:    name,
				Kind:   model.IssueCycle,
				Detail: "needs cycle through " + strings.Join(cycle, ", "),
			})
		}
	}

	return issues
}

// SetAttribute sets a vertex attribute used when drawing the graph.
func (g *Graph) SetAttribute(name, key, value string) error {
	return g.store.UpdateVertex(name, graph.VertexAttribute(key, value))
}

func appendUnique(list []string, name string) []string {
	for _, existing := range list {
		if existing == name {
			return list
		}
	}

	return append(list, name)
}
