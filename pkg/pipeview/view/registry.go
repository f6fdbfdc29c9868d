package view

import (
	"slices"
	"sync"

	"github.com/pkg/errors"

	"github.com/askiada/go-pipeview/pkg/pipeview/model"
)

var (
	ErrInvalidName       = errors.New("invalid job name")
	ErrAlreadyRegistered = errors.New("job is already registered")
)

// Registry maps job names to their handles.
type Registry struct {
	mu      sync.RWMutex
	handles map[string]*JobHandle
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]*JobHandle)}
}

// Register creates an inactive handle for job under name.
func (r *Registry) Register(name string, job model.PipelineJob) (*JobHandle, error) {
	if !validName(name) {
		return nil, errors.Wrapf(ErrInvalidName, "%q", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handles[name]; ok {
		return nil, errors.Wrapf(ErrAlreadyRegistered, "%s", name)
	}

	h := &JobHandle{name: name, job: job, registered: true, registry: r}
	r.handles[name] = h

	return h, nil
}

// Unregister removes the handle registered under name. Unknown names are ignored.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.handles[name]; ok {
		h.registered = false
		delete(r.handles, name)
	}
}

// Lookup returns the handle registered under name.
func (r *Registry) Lookup(name string) (*JobHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.lookup(name)
}

func (r *Registry) lookup(name string) (*JobHandle, bool) {
	if !validName(name) {
		return nil, false
	}

	h, ok := r.handles[name]

	return h, ok
}

// Names returns the registered names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handles))
	for name := range r.handles {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// update replaces the job data of a registered handle, keeping its active flag.
func (r *Registry) update(name string, job model.PipelineJob) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.handles[name]
	if ok {
		h.job = job
	}

	return ok
}

// reset marks every registered handle inactive.
func (r *Registry) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, h := range r.handles {
		h.active = false
	}
}

// Len returns the number of registered handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.handles)
}

func validName(name string) bool {
	return model.ValidJobName(name)
}
