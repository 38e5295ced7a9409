package factory

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Node is one registration in an exported graph.
type Node struct {
	ID      string `json:"id" yaml:"id"`
	Type    string `json:"type" yaml:"type"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Creator string `json:"creator" yaml:"creator"`
}

// Edge points from a registration to a key its arguments reference.
type Edge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// Graph is a Visitor collecting the registration graph. Nothing is built
// while visiting.
//
//	g := factory.NewGraph()
//	f.Visit(g)
//	_ = g.WriteDOT(os.Stdout)
type Graph struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

// NewGraph returns an empty graph.
func NewGraph() *Graph { return &Graph{} }

// Visit implements Visitor.
func (g *Graph) Visit(key Key, c *Creator) {
	g.Nodes = append(g.Nodes, Node{
		ID:      key.String(),
		Type:    typeName(key.Type),
		Name:    key.Name,
		Creator: c.String(),
	})
	for _, dep := range c.Dependencies() {
		g.Edges = append(g.Edges, Edge{From: key.String(), To: dep.String()})
	}
}

// Format names an output encoding for Write.
type Format string

const (
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Write encodes the graph in the given format.
func (g *Graph) Write(w io.Writer, format Format) error {
	switch format {
	case FormatDOT:
		return g.WriteDOT(w)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(g)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(g); err != nil {
			enc.Close()
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("factory: unsupported graph format %q", format)
	}
}

// WriteDOT renders the graph for Graphviz.
func (g *Graph) WriteDOT(w io.Writer) error {
	var b strings.Builder
	b.WriteString("digraph factory {\n")
	for _, n := range g.Nodes {
		fmt.Fprintf(&b, "  %q;\n", n.ID)
	}
	for _, e := range g.Edges {
		fmt.Fprintf(&b, "  %q -> %q;\n", e.From, e.To)
	}
	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}
