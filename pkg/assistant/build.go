package assistant

import (
	"fmt"

	"github.com/aretw0/jarvis/pkg/domain"
	"github.com/aretw0/jarvis/pkg/graph"
	"github.com/aretw0/jarvis/pkg/ports"
)

// Node names of the assistant workflow.
const (
	NodeGatherInfo   = "gather_info"
	NodeGetUserInput = "get_user_input"
	NodeAggregate    = "aggregate_results"
	NodeStop         = "stop"
)

// DefaultCritical lists the nodes whose failure aborts a run unless configured otherwise.
// Extraction failures are not contained: without intents there is nothing to route.
var DefaultCritical = []string{NodeGatherInfo}

// Capabilities are the services a workflow uses. They are passed explicitly so that
// runs stay independently testable.
type Capabilities struct {
	Extractor ports.Extractor
	Actions   map[domain.ActionKind]ports.ActionHandler

	// Critical names nodes whose failure aborts the run. Nil means DefaultCritical.
	Critical []string
}

// ActionNode returns the node name serving kind.
func ActionNode(kind domain.ActionKind) string {
	return string(kind)
}

// Build assembles the assistant graph.
func Build(caps Capabilities) (*graph.Graph, error) {
	if caps.Extractor == nil {
		return nil, &domain.ConfigurationError{Err: fmt.Errorf("assistant requires an extractor")}
	}

	critical := caps.Critical
	if critical == nil {
		critical = DefaultCritical
	}
	isCritical := make(map[string]bool, len(critical))
	for _, name := range critical {
		isCritical[name] = true
	}
	opts := func(name string, base ...graph.NodeOption) []graph.NodeOption {
		if isCritical[name] {
			return append(base, graph.Critical())
		}
		return base
	}

	targets := []string{NodeGetUserInput, NodeStop}
	b := graph.New().
		AddNode(NodeGatherInfo, gatherInfo(caps.Extractor), opts(NodeGatherInfo)...).
		AddNode(NodeGetUserInput, getUserInput, graph.Suspends()).
		AddNode(NodeStop, stop).
		AddNode(NodeAggregate, aggregate, opts(NodeAggregate)...)

	for _, kind := range domain.ActionOrder {
		name := ActionNode(kind)
		b.AddNode(name, action(kind, caps.Actions[kind]),
			opts(name, graph.Concurrent(), graph.Slot(kind))...).
			Edge(name, NodeAggregate)
		targets = append(targets, name)
	}

	return b.
		Conditional(NodeGatherInfo, Route, targets...).
		Entry(NodeGatherInfo).
		Reentry(NodeGatherInfo).
		Terminal(NodeAggregate, NodeStop).
		Build()
}
