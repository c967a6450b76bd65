// Package graphviz renders pipeline job graphs as Graphviz dot and SVG.
package graphviz

import (
	"fmt"
	"io"
	"sort"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	colors "gopkg.in/go-playground/colors.v1"

	"github.com/ochairo/cauldron/internal/domain/entities"
)

// stagePalette provides fill colors cycled per stage.
var stagePalette = []string{"#8dd3c7", "#ffffb3", "#bebada", "#fb8072", "#80b1d3", "#fdb462"}

// Drawer accumulates the job graph of one pipeline and renders it.
// Stages become columns (SVG) or clusters (dot); edges are job needs.
type Drawer struct {
	g      graph.Graph[string, string]
	stages []string
	jobs   map[string][]string // stage name -> job names, insertion order
}

// NewDrawer creates an empty drawer.
func NewDrawer() *Drawer {
	return &Drawer{
		g:    graph.New(graph.StringHash, graph.Directed()),
		jobs: map[string][]string{},
	}
}

// FromPipeline builds a drawer holding the full job graph of a definition.
func FromPipeline(def *entities.Pipeline) (*Drawer, error) {
	d := NewDrawer()

	for _, stage := range def.Stages {
		d.AddStage(stage)
	}
	for _, job := range def.Jobs {
		if err := d.AddJob(job.Name, job.Stage); err != nil {
			return nil, err
		}
	}
	for _, job := range def.Jobs {
		for _, need := range job.Needs {
			if err := d.AddDependency(need, job.Name); err != nil {
				return nil, err
			}
		}
	}

	return d, nil
}

// AddStage registers a stage column. Order of calls is render order.
func (d *Drawer) AddStage(name string) {
	for _, s := range d.stages {
		if s == name {
			return
		}
	}
	d.stages = append(d.stages, name)
}

// AddJob adds a job node to a stage.
func (d *Drawer) AddJob(name, stage string) error {
	d.AddStage(stage)

	err := d.g.AddVertex(name, graph.VertexAttribute("stage", stage))
	if err != nil {
		return errors.Wrapf(err, "unable to add job %s", name)
	}

	d.jobs[stage] = append(d.jobs[stage], name)
	return nil
}

// AddDependency adds a needs edge between two jobs.
func (d *Drawer) AddDependency(from, to string) error {
	err := d.g.AddEdge(from, to)
	if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
		return errors.Wrapf(err, "unable to add edge from %s to %s", from, to)
	}
	return nil
}

// WriteDOT renders the graph in Graphviz dot format, one cluster per stage.
func (d *Drawer) WriteDOT(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "digraph pipeline {"); err != nil {
		return errors.Wrap(err, "unable to write dot header")
	}
	fmt.Fprintln(w, "\trankdir=LR;")
	fmt.Fprintln(w, "\tnode [shape=box, style=filled];")

	for i, stage := range d.stages {
		fill, err := stageFill(i)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\tsubgraph \"cluster_%s\" {\n", stage)
		fmt.Fprintf(w, "\t\tlabel=%q;\n", stage)
		for _, job := range d.jobs[stage] {
			fmt.Fprintf(w, "\t\t%q [fillcolor=%q];\n", job, fill)
		}
		fmt.Fprintln(w, "\t}")
	}

	for _, edge := range d.sortedEdges() {
		fmt.Fprintf(w, "\t%q -> %q;\n", edge[0], edge[1])
	}

	if _, err := fmt.Fprintln(w, "}"); err != nil {
		return errors.Wrap(err, "unable to write dot footer")
	}
	return nil
}

// Node geometry for the SVG layout.
const (
	nodeWidth  = 180
	nodeHeight = 40
	columnGap  = 60
	rowGap     = 30
	margin     = 30
)

// WriteSVG renders a self-contained SVG without shelling out to dot:
// one column per stage, one row per job, straight edges for needs.
func (d *Drawer) WriteSVG(w io.Writer) error {
	pos := d.layout()

	maxRows := 0
	for _, jobs := range d.jobs {
		if len(jobs) > maxRows {
			maxRows = len(jobs)
		}
	}
	width := len(d.stages)*(nodeWidth+columnGap) + margin
	height := maxRows*(nodeHeight+rowGap) + 2*margin + 20

	if _, err := fmt.Fprintf(w,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" font-family="monospace" font-size="12">`+"\n",
		width, height); err != nil {
		return errors.Wrap(err, "unable to write svg header")
	}
	fmt.Fprintln(w, `<defs><marker id="arrow" markerWidth="8" markerHeight="8" refX="8" refY="4" orient="auto"><path d="M0,0 L8,4 L0,8 z"/></marker></defs>`)

	// Stage labels
	for i, stage := range d.stages {
		x := margin + i*(nodeWidth+columnGap)
		fmt.Fprintf(w, `<text x="%d" y="%d" font-weight="bold">%s</text>`+"\n", x, margin-10, escape(stage))
	}

	// Edges first so nodes draw over them
	for _, edge := range d.sortedEdges() {
		from, to := pos[edge[0]], pos[edge[1]]
		fmt.Fprintf(w, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="black" marker-end="url(#arrow)"/>`+"\n",
			from.x+nodeWidth, from.y+nodeHeight/2, to.x, to.y+nodeHeight/2)
	}

	for i, stage := range d.stages {
		fill, err := stageFill(i)
		if err != nil {
			return err
		}
		for _, job := range d.jobs[stage] {
			p := pos[job]
			fmt.Fprintf(w, `<rect x="%d" y="%d" width="%d" height="%d" rx="4" fill="%s" stroke="black"/>`+"\n",
				p.x, p.y, nodeWidth, nodeHeight, fill)
			fmt.Fprintf(w, `<text x="%d" y="%d">%s</text>`+"\n",
				p.x+8, p.y+nodeHeight/2+4, escape(job))
		}
	}

	if _, err := fmt.Fprintln(w, "</svg>"); err != nil {
		return errors.Wrap(err, "unable to write svg footer")
	}
	return nil
}

type point struct{ x, y int }

func (d *Drawer) layout() map[string]point {
	pos := map[string]point{}
	for i, stage := range d.stages {
		for row, job := range d.jobs[stage] {
			pos[job] = point{
				x: margin + i*(nodeWidth+columnGap),
				y: margin + row*(nodeHeight+rowGap),
			}
		}
	}
	return pos
}

func (d *Drawer) sortedEdges() [][2]string {
	adjacency, err := d.g.AdjacencyMap()
	if err != nil {
		return nil
	}

	var edges [][2]string
	for from, targets := range adjacency {
		for to := range targets {
			edges = append(edges, [2]string{from, to})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i][0] != edges[j][0] {
			return edges[i][0] < edges[j][0]
		}
		return edges[i][1] < edges[j][1]
	})
	return edges
}

// stageFill validates the palette entry and normalizes it to rgb() form.
func stageFill(stageIdx int) (string, error) {
	hex := stagePalette[stageIdx%len(stagePalette)]
	c, err := colors.ParseHEX(hex)
	if err != nil {
		return "", errors.Wrapf(err, "invalid palette color %s", hex)
	}
	return c.ToRGB().String(), nil
}

func escape(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '<':
			out = append(out, []rune("&lt;")...)
		case '>':
			out = append(out, []rune("&gt;")...)
		case '&':
			out = append(out, []rune("&amp;")...)
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
