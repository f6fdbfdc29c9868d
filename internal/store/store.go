package store

import (
	"sort"
	"sync"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/askiada/go-pipeview/pkg/pipeview/model"
)

// JobStore is a graph.Store holding pipeline jobs keyed by job name.
// On top of the graph.Store contract it can update vertex attributes in place
// and answer cycle questions without building a predecessor map.
type JobStore interface {
	graph.Store[string, model.PipelineJob]
	UpdateVertex(name string, options ...func(*graph.VertexProperties)) error
	CreatesCycle(source, target string) (bool, error)
	Successors(name string) []string
}

// MemoryStore keeps jobs and needs edges in memory.
type MemoryStore struct {
	lock             sync.RWMutex
	vertices         map[string]model.PipelineJob
	vertexProperties map[string]*graph.VertexProperties

	// outEdges and inEdges store all outgoing and ingoing edges for all vertices,
	// keyed by the name of the job at the other end.
	outEdges map[string]map[string]graph.Edge[string] // job -> need
	inEdges  map[string]map[string]graph.Edge[string] // need -> job
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		vertices:         make(map[string]model.PipelineJob),
		vertexProperties: make(map[string]*graph.VertexProperties),
		outEdges:         make(map[string]map[string]graph.Edge[string]),
		inEdges:          make(map[string]map[string]graph.Edge[string]),
	}
}

func (s *MemoryStore) AddVertex(name string, job model.PipelineJob, p graph.VertexProperties) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.vertices[name]; ok {
		return graph.ErrVertexAlreadyExists
	}

	if p.Attributes == nil {
		p.Attributes = make(map[string]string)
	}

	s.vertices[name] = job
	s.vertexProperties[name] = &p

	return nil
}

func (s *MemoryStore) ListVertices() ([]string, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	names := make([]string, 0, len(s.vertices))
	for name := range s.vertices {
		names = append(names, name)
	}

	sort.Strings(names)

	return names, nil
}

func (s *MemoryStore) VertexCount() (int, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return len(s.vertices), nil
}

func (s *MemoryStore) Vertex(name string) (model.PipelineJob, graph.VertexProperties, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	job, ok := s.vertices[name]
	if !ok {
		return job, graph.VertexProperties{}, graph.ErrVertexNotFound
	}

	return job, *s.vertexProperties[name], nil
}

func (s *MemoryStore) RemoveVertex(name string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.vertices[name]; !ok {
		return graph.ErrVertexNotFound
	}

	if len(s.inEdges[name]) > 0 || len(s.outEdges[name]) > 0 {
		return graph.ErrVertexHasEdges
	}

	delete(s.inEdges, name)
	delete(s.outEdges, name)
	delete(s.vertices, name)
	delete(s.vertexProperties, name)

	return nil
}

func (s *MemoryStore) AddEdge(source, target string, edge graph.Edge[string]) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.outEdges[source]; !ok {
		s.outEdges[source] = make(map[string]graph.Edge[string])
	}

	s.outEdges[source][target] = edge

	if _, ok := s.inEdges[target]; !ok {
		s.inEdges[target] = make(map[string]graph.Edge[string])
	}

	s.inEdges[target][source] = edge

	return nil
}

// UpdateVertex applies options to the properties of an existing vertex.
func (s *MemoryStore) UpdateVertex(name string, options ...func(*graph.VertexProperties)) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	p, ok := s.vertexProperties[name]
	if !ok {
		return errors.Wrapf(graph.ErrVertexNotFound, "unable to update %s", name)
	}

	for _, opt := range options {
		opt(p)
	}

	return nil
}

func (s *MemoryStore) UpdateEdge(source, target string, edge graph.Edge[string]) error {
	if _, err := s.Edge(source, target); err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	s.outEdges[source][target] = edge
	s.inEdges[target][source] = edge

	return nil
}

func (s *MemoryStore) RemoveEdge(source, target string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.inEdges[target], source)
	delete(s.outEdges[source], target)

	return nil
}

func (s *MemoryStore) Edge(source, target string) (graph.Edge[string], error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	edge, ok := s.outEdges[source][target]
	if !ok {
		return graph.Edge[string]{}, graph.ErrEdgeNotFound
	}

	return edge, nil
}

func (s *MemoryStore) ListEdges() ([]graph.Edge[string], error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	res := make([]graph.Edge[string], 0)
	for _, edges := range s.outEdges {
		for _, edge := range edges {
			res = append(res, edge)
		}
	}

	sort.Slice(res, func(i, j int) bool {
		if res[i].Source != res[j].Source {
			return res[i].Source < res[j].Source
		}

		return res[i].Target < res[j].Target
	})

	return res, nil
}

// Successors returns the sorted targets of the outgoing edges of name.
func (s *MemoryStore) Successors(name string) []string {
	s.lock.RLock()
	defer s.lock.RUnlock()

	targets := make([]string, 0, len(s.outEdges[name]))
	for target := range s.outEdges[name] {
		targets = append(targets, target)
	}

	sort.Strings(targets)

	return targets
}

// CreatesCycle reports whether an edge from source to target would close a cycle,
// that is whether source is already reachable from target.
// It walks inEdges so no predecessor map has to be built.
func (s *MemoryStore) CreatesCycle(source, target string) (bool, error) {
	if _, _, err := s.Vertex(source); err != nil {
		return false, errors.Wrapf(err, "could not get vertex %s", source)
	}

	if _, _, err := s.Vertex(target); err != nil {
		return false, errors.Wrapf(err, "could not get vertex %s", target)
	}

	if source == target {
		return true, nil
	}

	s.lock.RLock()
	defer s.lock.RUnlock()

	stack := []string{source}
	visited := make(map[string]struct{})

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, ok := visited[current]; ok {
			continue
		}

		// target is a parent of source, the new edge would loop back.
		if current == target {
			return true, nil
		}

		visited[current] = struct{}{}

		for parent := range s.inEdges[current] {
			stack = append(stack, parent)
		}
	}

	return false, nil
}

var _ JobStore = (*MemoryStore)(nil)
