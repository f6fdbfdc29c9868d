package drawer

import (
	"io"

	"github.com/askiada/go-pipeview/pkg/pipeview/dag"
)

// Drawer is an interface that defines the methods for drawing a needs graph.
type Drawer interface {
	// Draw writes the graph to w. active reports which jobs are highlighted, it may be nil.
	Draw(w io.Writer, g *dag.Graph, active func(name string) bool) error
	// WriteFile creates or truncates path and draws the graph into it.
	WriteFile(path string, g *dag.Graph, active func(name string) bool) error
}
