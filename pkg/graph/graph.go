package graph

import (
	"errors"
	"fmt"

	"github.com/aretw0/jarvis/pkg/domain"
)

// Graph is a validated, immutable topology.
type Graph struct {
	nodes       map[string]Node
	order       []string
	edges       []Edge
	conditional map[string]Edge
	static      map[string][]string
	entry       string
	reentry     string
	terminals   map[string]bool
}

func assemble(nodes []Node, edges []Edge, entry, reentry string, terminals []string) (*Graph, error) {
	g := &Graph{
		nodes:       make(map[string]Node, len(nodes)),
		conditional: make(map[string]Edge),
		static:      make(map[string][]string),
		entry:       entry,
		reentry:     reentry,
		terminals:   make(map[string]bool, len(terminals)),
	}

	var errs []error
	fail := func(err error) {
		errs = append(errs, &domain.ConfigurationError{Err: err})
	}

	suspends := false
	for _, n := range nodes {
		if n.name == "" {
			fail(errors.New("node name must not be empty"))
			continue
		}
		if _, exists := g.nodes[n.name]; exists {
			fail(&domain.DuplicateNodeError{Node: n.name})
			continue
		}
		if n.handler == nil {
			fail(fmt.Errorf("node %q has no handler", n.name))
		}
		if n.suspends {
			suspends = true
		}
		g.nodes[n.name] = n
		g.order = append(g.order, n.name)
	}

	for _, e := range edges {
		ref := "edge from " + e.From
		if _, ok := g.nodes[e.From]; !ok {
			fail(&domain.UnknownNodeError{Node: e.From, Ref: "edge source"})
			continue
		}
		if len(e.To) == 0 {
			fail(fmt.Errorf("edge from %q has no targets", e.From))
			continue
		}
		valid := true
		for _, to := range e.To {
			if _, ok := g.nodes[to]; !ok {
				fail(&domain.UnknownNodeError{Node: to, Ref: ref})
				valid = false
			}
		}
		if !valid {
			continue
		}
		if e.IsConditional() {
			if _, dup := g.conditional[e.From]; dup {
				fail(fmt.Errorf("node %q has more than one conditional edge", e.From))
				continue
			}
			e.To = append([]string(nil), e.To...)
			g.conditional[e.From] = e
		} else {
			g.static[e.From] = appendUnique(g.static[e.From], e.To...)
		}
		g.edges = append(g.edges, e)
	}

	switch {
	case entry == "":
		fail(domain.ErrNoEntry)
	case !g.has(entry):
		fail(&domain.UnknownNodeError{Node: entry, Ref: "entry"})
	}

	if reentry != "" && !g.has(reentry) {
		fail(&domain.UnknownNodeError{Node: reentry, Ref: "re-entry"})
	}
	if suspends && reentry == "" {
		fail(domain.ErrNoReentry)
	}

	for _, t := range terminals {
		if !g.has(t) {
			fail(&domain.UnknownNodeError{Node: t, Ref: "terminal"})
			continue
		}
		g.terminals[t] = true
	}

	if g.has(entry) {
		for _, name := range g.unreachable() {
			fail(&domain.UnreachableNodeError{Node: name})
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return g, nil
}

// unreachable walks the graph breadth-first from the entry and returns every node it never visits.
func (g *Graph) unreachable() []string {
	visited := map[string]bool{g.entry: true}
	queue := []string{g.entry}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range g.declaredSuccessors(current) {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	var missing []string
	for _, name := range g.order {
		if !visited[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

func (g *Graph) declaredSuccessors(name string) []string {
	out := append([]string(nil), g.static[name]...)
	if e, ok := g.conditional[name]; ok {
		out = appendUnique(out, e.To...)
	}
	return out
}

func (g *Graph) has(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// Node returns the node registered under name.
func (g *Graph) Node(name string) (Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Nodes returns every node in declaration order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.nodes[name])
	}
	return out
}

// Edges returns every edge in declaration order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	for i, e := range g.edges {
		e.To = append([]string(nil), e.To...)
		out[i] = e
	}
	return out
}

// Conditional returns the routed edge leaving name, if any.
func (g *Graph) Conditional(name string) (Edge, bool) {
	e, ok := g.conditional[name]
	if ok {
		e.To = append([]string(nil), e.To...)
	}
	return e, ok
}

// Static returns the unconditional successors of name.
func (g *Graph) Static(name string) []string {
	return append([]string(nil), g.static[name]...)
}

func (g *Graph) Entry() string   { return g.entry }
func (g *Graph) Reentry() string { return g.reentry }

// IsTerminal reports whether executing name ends the run.
func (g *Graph) IsTerminal(name string) bool {
	return g.terminals[name]
}

// Terminals returns the terminal nodes in declaration order.
func (g *Graph) Terminals() []string {
	var out []string
	for _, name := range g.order {
		if g.terminals[name] {
			out = append(out, name)
		}
	}
	return out
}

func appendUnique(dst []string, items ...string) []string {
	for _, item := range items {
		found := false
		for _, d := range dst {
			if d == item {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, item)
		}
	}
	return dst
}
