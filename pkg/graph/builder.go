package graph

import "github.com/aretw0/jarvis/pkg/domain"

// Builder collects a graph declaration. Errors are deferred to Build.
type Builder struct {
	nodes     []Node
	edges     []Edge
	entry     string
	reentry   string
	terminals []string
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{}
}

// AddNode registers a node. Registering the same name twice fails at Build.
func (b *Builder) AddNode(name string, h Handler, opts ...NodeOption) *Builder {
	b.nodes = append(b.nodes, NewNode(name, h, opts...))
	return b
}

// Edge adds an unconditional edge.
func (b *Builder) Edge(from, to string) *Builder {
	b.edges = append(b.edges, Link(from, to))
	return b
}

// Conditional adds a routed edge from a node to its declared targets.
func (b *Builder) Conditional(from string, router domain.Router, targets ...string) *Builder {
	b.edges = append(b.edges, Branch(from, router, targets...))
	return b
}

// Entry sets the node every fresh run starts at.
func (b *Builder) Entry(name string) *Builder {
	b.entry = name
	return b
}

// Terminal marks nodes whose execution ends the run.
func (b *Builder) Terminal(names ...string) *Builder {
	b.terminals = append(b.terminals, names...)
	return b
}

// Reentry sets the node a resumed run re-enters at.
func (b *Builder) Reentry(name string) *Builder {
	b.reentry = name
	return b
}

// Build validates the declaration and returns the immutable graph.
func (b *Builder) Build() (*Graph, error) {
	return assemble(b.nodes, b.edges, b.entry, b.reentry, b.terminals)
}

// Assemble builds a graph from literal declarations. The entry node doubles as the
// re-entry node for resumed runs.
func Assemble(nodes []Node, edges []Edge, entry string, terminals []string) (*Graph, error) {
	return assemble(nodes, edges, entry, entry, terminals)
}
