package view

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
)

// Render writes a plain text listing of m: stages with their jobs, variables and issues.
func Render(w io.Writer, m *Model) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	filename := m.Filename()
	if filename == "" {
		filename = "(no pipeline)"
	}

	fmt.Fprintf(tw, "%s\n", filename)

	for _, group := range m.Stages() {
		stage := group.Stage
		if group.Unlisted {
			stage = "(unlisted)"
		}

		fmt.Fprintf(tw, "\n%s\n", stage)

		for _, h := range group.Jobs {
			job := h.Job()

			mark := " "
			if h.Active() {
				mark = "x"
			}

			line := fmt.Sprintf("  [%s] %s\t%s", mark, h.Name(), job.SourceFile)
			if len(job.Needs) > 0 {
				line += "\tneeds: " + strings.Join(job.Needs, ", ")
			}

			fmt.Fprintln(tw, line)
		}
	}

	if vars := m.Variables(); len(vars) > 0 {
		fmt.Fprintf(tw, "\nvariables\n")

		for _, v := range vars {
			fmt.Fprintf(tw, "  %s\t= %s\n", v.Name, v.Value)
		}
	}

	if issues := m.Issues(); len(issues) > 0 {
		fmt.Fprintf(tw, "\nissues\n")

		for _, issue := range issues {
			fmt.Fprintf(tw, "  %s\n", issue)
		}
	}

	return errors.Wrap(tw.Flush(), "unable to render pipeline")
}
