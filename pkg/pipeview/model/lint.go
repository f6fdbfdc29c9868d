package model

import (
	"fmt"
	"sort"
)

// IssueKind classifies a data integrity problem found in a document.
type IssueKind string

const (
	IssueUnknownStage IssueKind = "unknown-stage"
	IssueUnknownNeed  IssueKind = "unknown-need"
	IssueSelfNeed     IssueKind = "self-need"
	IssueNameMismatch IssueKind = "name-mismatch"
	IssueCycle        IssueKind = "cycle"
)

// Issue is a data integrity problem. Issues are only displayed, documents are never rejected for them.
type Issue struct {
	Job    string
	Kind   IssueKind
	Detail string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s (%s)", i.Job, i.Detail, i.Kind)
}

// Lint reports references that do not resolve within the document.
// Cycles need the dependency graph and are reported by the dag package.
func (d *PipelineDocument) Lint() []Issue {
	if d == nil {
		return nil
	}

	var issues []Issue

	for _, key := range d.JobNames() {
		job := d.Jobs[key]

		if job.Name != key {
			issues = append(issues, Issue{
				Job:    key,
				Kind:   IssueNameMismatch,
				Detail: fmt.Sprintf("declared name is %q", job.Name),
			})
		}

		if d.StageIndex(job.Stage) < 0 {
			issues = append(issues, Issue{
				Job:    key,
				Kind:   IssueUnknownStage,
				Detail: fmt.Sprintf("stage %q is not listed", job.Stage),
			})
		}

		for _, need := range job.Needs {
			switch {
			case need == key:
				issues = append(issues, Issue{Job: key, Kind: IssueSelfNeed, Detail: "needs itself"})
			case !d.hasJob(need):
				issues = append(issues, Issue{
					Job:    key,
					Kind:   IssueUnknownNeed,
					Detail: fmt.Sprintf("needs unknown job %q", need),
				})
			}
		}
	}

	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Job < issues[j].Job
	})

	return issues
}

func (d *PipelineDocument) hasJob(name string) bool {
	_, ok := d.Jobs[name]

	return ok
}
