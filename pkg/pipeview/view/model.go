package view

import (
	"slices"
	"sync"

	"github.com/pkg/errors"

	"github.com/askiada/go-pipeview/pkg/pipeview"
	"github.com/askiada/go-pipeview/pkg/pipeview/dag"
	"github.com/askiada/go-pipeview/pkg/pipeview/model"
)

// IssueInvalidName is reported for jobs whose name cannot be registered.
const IssueInvalidName model.IssueKind = "invalid-name"

// StageGroup is one stage and its jobs sorted by name.
type StageGroup struct {
	Stage string
	// Unlisted is set on the trailing group holding jobs whose stage is not in the document stages.
	Unlisted bool
	Jobs     []*JobHandle
}

// Variable is one pipeline variable.
type Variable struct {
	Name  string
	Value string
}

// Model is the read-only projection of the latest snapshot.
type Model struct {
	registry *Registry

	mu        sync.RWMutex
	snapshot  pipeview.Snapshot
	graph     *dag.Graph
	stages    []StageGroup
	variables []Variable
	issues    []model.Issue
}

// NewModel returns an empty model.
func NewModel() *Model {
	g, _ := dag.Build(nil)

	return &Model{
		registry: NewRegistry(),
		graph:    g,
	}
}

// Apply re-derives the model from snap. Handles of jobs that are still present keep their
// active flag, new jobs start inactive and handles of vanished jobs are unregistered.
func (m *Model) Apply(snap pipeview.Snapshot) error {
	doc := snap.Document
	if doc == nil {
		doc = &model.PipelineDocument{}
	}

	g, err := dag.Build(doc)
	if err != nil {
		return errors.Wrap(err, "unable to build needs graph")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, name := range m.registry.Names() {
		if _, ok := doc.Jobs[name]; !ok {
			m.registry.Unregister(name)
		}
	}

	issues := doc.Lint()

	for _, name := range doc.JobNames() {
		job := doc.Jobs[name]
		if m.registry.update(name, job) {
			continue
		}

		_, err = m.registry.Register(name, job)
		if err != nil {
			issues = append(issues, model.Issue{Job: name, Kind: IssueInvalidName, Detail: err.Error()})
		}
	}

	m.snapshot = snap
	m.graph = g
	m.stages = m.group(doc)
	m.variables = variables(doc)
	m.issues = append(issues, g.Issues()...)

	return nil
}

func (m *Model) group(doc *model.PipelineDocument) []StageGroup {
	groups := make([]StageGroup, 0, len(doc.Stages)+1)
	seen := make(map[string]bool, len(doc.Stages))

	for _, stage := range doc.Stages {
		if seen[stage] {
			continue
		}

		seen[stage] = true
		groups = append(groups, StageGroup{Stage: stage})
	}

	unlisted := StageGroup{Unlisted: true}

	for _, name := range doc.JobNames() {
		h, ok := m.registry.Lookup(name)
		if !ok {
			continue
		}

		idx := slices.IndexFunc(groups, func(g StageGroup) bool {
			return g.Stage == doc.Jobs[name].Stage
		})
		if idx < 0 {
			unlisted.Jobs = append(unlisted.Jobs, h)

			continue
		}

		groups[idx].Jobs = append(groups[idx].Jobs, h)
	}

	if len(unlisted.Jobs) > 0 {
		groups = append(groups, unlisted)
	}

	return groups
}

func variables(doc *model.PipelineDocument) []Variable {
	vars := make([]Variable, 0, len(doc.Variables))
	for _, name := range doc.VariableNames() {
		vars = append(vars, Variable{Name: name, Value: doc.Variables[name]})
	}

	return vars
}

// Reset marks every job inactive.
func (m *Model) Reset() {
	m.registry.reset()
}

// Snapshot returns the snapshot the model was derived from.
func (m *Model) Snapshot() pipeview.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.snapshot
}

// Filename returns the file the pipeline was loaded from, empty before the first snapshot.
func (m *Model) Filename() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.snapshot.Document == nil {
		return ""
	}

	return m.snapshot.Document.Filename
}

// Stages returns the stage groups in document order.
func (m *Model) Stages() []StageGroup {
	m.mu.RLock()
	defer m.mu.RUnlock()

	groups := make([]StageGroup, len(m.stages))
	for i, g := range m.stages {
		groups[i] = StageGroup{Stage: g.Stage, Unlisted: g.Unlisted, Jobs: slices.Clone(g.Jobs)}
	}

	return groups
}

// Variables returns the pipeline variables sorted by name.
func (m *Model) Variables() []Variable {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.variables)
}

// Issues returns the integrity problems of the document.
func (m *Model) Issues() []model.Issue {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.issues)
}

// Graph returns the needs graph of the document.
func (m *Model) Graph() *dag.Graph {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.graph
}

// Handle returns the handle of the job called name.
func (m *Model) Handle(name string) (*JobHandle, bool) {
	return m.registry.Lookup(name)
}

// Active reports whether the job called name is registered and active.
func (m *Model) Active(name string) bool {
	h, ok := m.registry.Lookup(name)

	return ok && h.Active()
}

// Registry returns the handles of the model.
func (m *Model) Registry() *Registry {
	return m.registry
}
