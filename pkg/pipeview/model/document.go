package model

import (
	"maps"
	"slices"
	"strings"
)

// PipelineJob is one job within a pipeline document.
type PipelineJob struct {
	Name       string   `json:"name"        yaml:"name"`
	SourceFile string   `json:"source_file" yaml:"source_file"`
	Extends    []string `json:"extends"     yaml:"extends"`
	Stage      string   `json:"stage"       yaml:"stage"`
	Needs      []string `json:"needs"       yaml:"needs"`
}

// Equal reports whether both jobs carry the same fields.
// Nil and empty lists are considered equal.
func (j PipelineJob) Equal(other PipelineJob) bool {
	return j.Name == other.Name &&
		j.SourceFile == other.SourceFile &&
		j.Stage == other.Stage &&
		slices.Equal(j.Extends, other.Extends) &&
		slices.Equal(j.Needs, other.Needs)
}

// PipelineDocument is a snapshot of one pipeline evaluation.
// A document is never patched, a new one replaces the previous one.
type PipelineDocument struct {
	Filename  string                 `json:"filename"  yaml:"filename"`
	Stages    []string               `json:"stages"    yaml:"stages"`
	Jobs      map[string]PipelineJob `json:"jobs"      yaml:"jobs"`
	Variables map[string]string      `json:"variables" yaml:"variables"`
}

// Job returns the job with the given name.
func (d *PipelineDocument) Job(name string) (PipelineJob, bool) {
	if d == nil {
		return PipelineJob{}, false
	}

	job, ok := d.Jobs[name]

	return job, ok
}

// JobNames returns the names of all jobs, sorted.
func (d *PipelineDocument) JobNames() []string {
	if d == nil {
		return nil
	}

	return slices.Sorted(maps.Keys(d.Jobs))
}

// ValidJobName reports whether name can identify a job: not empty and without surrounding spaces.
func ValidJobName(name string) bool {
	return name != "" && strings.TrimSpace(name) == name
}

// VariableNames returns the names of all variables, sorted.
func (d *PipelineDocument) VariableNames() []string {
	if d == nil {
		return nil
	}

	return slices.Sorted(maps.Keys(d.Variables))
}

// StageIndex returns the position of the stage in the document, or -1 when the stage is not listed.
func (d *PipelineDocument) StageIndex(stage string) int {
	if d == nil {
		return -1
	}

	return slices.Index(d.Stages, stage)
}

// Equal compares two documents field by field. Stages, needs and extends are compared in order,
// jobs and variables by key set.
func (d *PipelineDocument) Equal(other *PipelineDocument) bool {
	if d == nil || other == nil {
		return d == other
	}

	if d.Filename != other.Filename || !slices.Equal(d.Stages, other.Stages) {
		return false
	}

	if !maps.Equal(d.Variables, other.Variables) {
		return false
	}

	return maps.EqualFunc(d.Jobs, other.Jobs, PipelineJob.Equal)
}

// Clone returns a deep copy of the document.
func (d *PipelineDocument) Clone() *PipelineDocument {
	if d == nil {
		return nil
	}

	out := &PipelineDocument{
		Filename:  d.Filename,
		Stages:    slices.Clone(d.Stages),
		Jobs:      make(map[string]PipelineJob, len(d.Jobs)),
		Variables: maps.Clone(d.Variables),
	}

	for name, job := range d.Jobs {
		job.Extends = slices.Clone(job.Extends)
		job.Needs = slices.Clone(job.Needs)
		out.Jobs[name] = job
	}

	return out
}
