package graph

import "github.com/aretw0/jarvis/pkg/domain"

// Edge links a node to its successors. A conditional edge carries a router and the
// declared set of targets the router may choose from.
type Edge struct {
	From   string
	To     []string
	Router domain.Router
}

// Link declares an unconditional edge.
func Link(from, to string) Edge {
	return Edge{From: from, To: []string{to}}
}

// Branch declares a conditional edge. targets is the full set the router may select.
func Branch(from string, router domain.Router, targets ...string) Edge {
	return Edge{From: from, To: append([]string(nil), targets...), Router: router}
}

// IsConditional reports whether the edge is routed at runtime.
func (e Edge) IsConditional() bool {
	return e.Router != nil
}

// Allows reports whether target is in the edge's declared target set.
func (e Edge) Allows(target string) bool {
	for _, t := range e.To {
		if t == target {
			return true
		}
	}
	return false
}
