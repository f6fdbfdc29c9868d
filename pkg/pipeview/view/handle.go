package view

import (
	"github.com/askiada/go-pipeview/pkg/pipeview/model"
)

// Cascade is the outcome of an activation.
type Cascade struct {
	// Activated lists the jobs switched from inactive to active, in walk order.
	Activated []string
	// Missing lists needs that have no registered handle.
	Missing []string
}

// JobHandle is the presentation handle of one job. It starts inactive.
//
// Handle state is guarded by the lock of the registry that created it, so a cascade
// sees one consistent set of handles.
type JobHandle struct {
	name       string
	job        model.PipelineJob
	active     bool
	registered bool
	registry   *Registry
}

// Name returns the job name the handle is registered under.
func (h *JobHandle) Name() string {
	return h.name
}

// Job returns the job data from the latest snapshot.
func (h *JobHandle) Job() model.PipelineJob {
	h.registry.mu.RLock()
	defer h.registry.mu.RUnlock()

	return h.job
}

// Active reports whether the job is activated.
func (h *JobHandle) Active() bool {
	h.registry.mu.RLock()
	defer h.registry.mu.RUnlock()

	return h.active
}

// Registered reports whether the handle is still part of its registry.
func (h *JobHandle) Registered() bool {
	h.registry.mu.RLock()
	defer h.registry.mu.RUnlock()

	return h.registered
}

// Activate marks the job active, then walks its needs and activates every dependency
// found in the registry, transitively. Needs without a handle are reported in
// Cascade.Missing and skipped.
func (h *JobHandle) Activate() Cascade {
	h.registry.mu.Lock()
	defer h.registry.mu.Unlock()

	return h.activate()
}

func (h *JobHandle) activate() Cascade {
	var cascade Cascade

	visited := map[string]bool{h.name: true}
	queue := []*JobHandle{h}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if !current.active {
			current.active = true
			cascade.Activated = append(cascade.Activated, current.name)
		}

		for _, need := range current.job.Needs {
			if visited[need] {
				continue
			}

			visited[need] = true

			dep, ok := h.lookup(need)
			if !ok {
				cascade.Missing = append(cascade.Missing, need)

				continue
			}

			queue = append(queue, dep)
		}
	}

	return cascade
}

// Deactivate marks the job inactive. The jobs it needs are left as they are.
func (h *JobHandle) Deactivate() {
	h.registry.mu.Lock()
	defer h.registry.mu.Unlock()

	h.active = false
}

// Toggle deactivates an active job and activates an inactive one.
func (h *JobHandle) Toggle() Cascade {
	h.registry.mu.Lock()
	defer h.registry.mu.Unlock()

	if h.active {
		h.active = false

		return Cascade{}
	}

	return h.activate()
}

// lookup resolves a need among the handles registered next to h.
// A handle that was unregistered no longer sees the registry.
func (h *JobHandle) lookup(name string) (*JobHandle, bool) {
	if !h.registered {
		return nil, false
	}

	return h.registry.lookup(name)
}
