package graph

import (
	"context"

	"github.com/aretw0/jarvis/pkg/domain"
)

// Handler performs the work of a node. It receives a private copy of the state and
// returns the fields it wants to change.
type Handler func(ctx context.Context, state domain.WorkflowState) (domain.Update, error)

// Node is a named unit of work in the graph.
type Node struct {
	name       string
	handler    Handler
	concurrent bool
	critical   bool
	suspends   bool
	slot       domain.ActionKind
}

// NodeOption configures a Node.
type NodeOption func(*Node)

// Concurrent marks the node as safe to run inside a fan-out group.
func Concurrent() NodeOption {
	return func(n *Node) { n.concurrent = true }
}

// Critical makes a handler failure abort the whole run instead of being contained.
func Critical() NodeOption {
	return func(n *Node) { n.critical = true }
}

// Suspends declares the node as a suspension point: the run pauses after it executes.
func Suspends() NodeOption {
	return func(n *Node) { n.suspends = true }
}

// Slot binds the node to a result slot. Contained failures are recorded there.
func Slot(kind domain.ActionKind) NodeOption {
	return func(n *Node) { n.slot = kind }
}

// NewNode declares a node for use with Assemble.
func NewNode(name string, h Handler, opts ...NodeOption) Node {
	n := Node{name: name, handler: h}
	for _, opt := range opts {
		opt(&n)
	}
	return n
}

func (n Node) Name() string       { return n.name }
func (n Node) Handler() Handler   { return n.handler }
func (n Node) IsConcurrent() bool { return n.concurrent }
func (n Node) IsCritical() bool   { return n.critical }
func (n Node) IsSuspension() bool { return n.suspends }

// Slot returns the result slot owned by the node, if any.
func (n Node) Slot() (domain.ActionKind, bool) {
	return n.slot, n.slot != ""
}
