package drawer

import (
	"fmt"
	"html"
	"io"
	"os"
	"strconv"
	"text/template"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/askiada/go-pipeview/pkg/pipeview/dag"
)

const (
	maxRGB        = 240
	unlistedColor = "#808080"
	cycleColor    = "#ff0000"
)

// DotDrawer writes needs graphs in the Graphviz DOT language.
//
// Jobs are colored by stage, from blue for the first stage to red for the last one.
// Active jobs are filled. Needs that do not resolve to a job are drawn as dashed
// placeholders and edges closing a cycle are red.
type DotDrawer struct {
	attributes map[string]string
}

// Option configures a DotDrawer.
type Option func(d *DotDrawer)

// GraphAttribute sets a graph level attribute such as rankdir.
func GraphAttribute(key, value string) Option {
	return func(d *DotDrawer) {
		d.attributes[key] = value
	}
}

// NewDotDrawer creates a new DOT drawer. Graphs are laid out left to right unless overridden.
func NewDotDrawer(opts ...Option) *DotDrawer {
	d := &DotDrawer{attributes: map[string]string{"rankdir": "LR"}}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// WriteFile creates a DOT file with the needs graph.
func (d *DotDrawer) WriteFile(path string, g *dag.Graph, active func(string) bool) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", path)
	}

	err = d.Draw(file, g, active)
	if err != nil {
		_ = file.Close()

		return errors.Wrapf(err, "unable to draw %s", path)
	}

	return errors.Wrapf(file.Close(), "unable to close %s", path)
}

// Draw writes the needs graph to wrt.
func (d *DotDrawer) Draw(wrt io.Writer, g *dag.Graph, active func(string) bool) error {
	if active == nil {
		active = func(string) bool { return false }
	}

	desc, err := d.describe(g, active)
	if err != nil {
		return errors.Wrap(err, "failed to generate DOT description")
	}

	return renderDOT(wrt, desc)
}

// stageColors spreads the stages over the blue to red gradient.
func stageColors(stages []string) (map[string]string, error) {
	palette := make(map[string]string, len(stages))

	for i, stage := range stages {
		if _, ok := palette[stage]; ok {
			continue
		}

		fraction := 1.0
		if len(stages) > 1 {
			fraction = float64(i) / float64(len(stages)-1)
		}

		red := maxRGB * fraction
		blue := maxRGB - red

		color, err := colors.RGB(uint8(red), 0, uint8(blue)) //nolint
		if err != nil {
			return nil, errors.Wrapf(err, "unable to get colour for stage %s", stage)
		}

		palette[stage] = color.ToHEX().String()
	}

	return palette, nil
}

func (d *DotDrawer) describe(g *dag.Graph, active func(string) bool) (description, error) {
	desc := description{
		GraphType:    "digraph",
		Attributes:   d.attributes,
		EdgeOperator: "->",
		Statements:   make([]statement, 0),
	}

	palette, err := stageColors(g.Stages())
	if err != nil {
		return desc, err
	}

	gra := g.Graph()
	placeholders := make(map[string]bool)

	for _, name := range g.Jobs() {
		job, properties, err := gra.VertexWithProperties(name)
		if err != nil {
			return desc, errors.Wrap(err, "unable to get vertex properties")
		}

		color, ok := palette[job.Stage]
		if !ok {
			color = unlistedColor
		}

		attributes := make(map[string]string, len(properties.Attributes)+4)
		for k, v := range properties.Attributes {
			attributes[k] = v
		}

		attributes["color"] = color

		if active(name) {
			attributes["style"] = "filled"
			attributes["fillcolor"] = color
			attributes["fontcolor"] = "white"
		}

		desc.Statements = append(desc.Statements, statement{
			Source:           name,
			SourceWeight:     properties.Weight,
			SourceAttributes: attributes,
			HTMLAttributes: map[string]string{
				"label": fmt.Sprintf(`<%s <BR /> <FONT POINT-SIZE="10">%s</FONT>>`,
					html.EscapeString(name), html.EscapeString(job.Stage)),
			},
		})

		for _, need := range g.Needs(name) {
			edge, err := gra.Edge(name, need)
			if err != nil {
				return desc, errors.Wrapf(err, "unable to get edge %s -> %s", name, need)
			}

			desc.Statements = append(desc.Statements, edgeStatement(name, need, edge.Properties))
		}

		for _, need := range g.Missing(name) {
			if !placeholders[need] {
				placeholders[need] = true
				desc.Statements = append(desc.Statements, statement{
					Source:           need,
					SourceAttributes: map[string]string{"style": "dashed", "color": unlistedColor},
				})
			}

			desc.Statements = append(desc.Statements, statement{
				Source:         name,
				Target:         need,
				EdgeAttributes: map[string]string{"style": "dashed"},
			})
		}
	}

	return desc, nil
}

func edgeStatement(source, target string, properties graph.EdgeProperties) statement {
	attributes := make(map[string]string, len(properties.Attributes)+1)

	for k, v := range properties.Attributes {
		if k == dag.CycleAttribute {
			continue
		}

		attributes[k] = v
	}

	if properties.Attributes[dag.CycleAttribute] == "true" {
		attributes["color"] = cycleColor
	}

	return statement{
		Source:         source,
		Target:         target,
		EdgeWeight:     properties.Weight,
		EdgeAttributes: attributes,
	}
}

//nolint:lll //this is a template
const dotTemplate = `strict {{.GraphType}} {
	{{range $k, $v := .Attributes}}
		{{$k}}={{quote $v}};
	{{end}}
	{{range $s := .Statements}}
		{{quote .Source}} {{if .Target}}{{$.EdgeOperator}} {{quote .Target}} [ {{range $k, $v := .EdgeAttributes}}{{$k}}={{quote $v}}, {{end}} weight={{.EdgeWeight}} ]{{else}}[ {{range $k, $v := .HTMLAttributes}}{{$k}}={{$v}}, {{end}} {{range $k, $v := .SourceAttributes}}{{$k}}={{quote $v}}, {{end}} weight={{.SourceWeight}} ]{{end}};
	{{end}}
	}
	`

type description struct {
	GraphType    string
	Attributes   map[string]string
	EdgeOperator string
	Statements   []statement
}

type statement struct {
	Source           string
	Target           string
	SourceAttributes map[string]string
	HTMLAttributes   map[string]string
	EdgeAttributes   map[string]string
	SourceWeight     int
	EdgeWeight       int
}

var dotTemplates = template.Must(template.New("dotTemplate").Funcs(template.FuncMap{
	"quote": strconv.Quote,
}).Parse(dotTemplate))

func renderDOT(wrt io.Writer, desc description) error {
	err := dotTemplates.Execute(wrt, desc)
	if err != nil {
		return errors.Wrap(err, "unable to execute template")
	}

	return nil
}

var _ Drawer = (*DotDrawer)(nil)
