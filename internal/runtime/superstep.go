package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/jarvis/pkg/domain"
	"github.com/aretw0/jarvis/pkg/graph"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// nodeResult is what one node produced during a superstep.
type nodeResult struct {
	node    string
	update  domain.Update
	payload any
}

// superstep executes every active node against the same read view of the state and
// returns their results in completion order. A multi-node set runs as one fan-out
// group; the group is always joined before returning. Members not marked concurrent
// take turns on a shared lock, so at most one of them runs at a time.
func (e *Engine) superstep(ctx context.Context, r *run, step int, active []string) ([]nodeResult, error) {
	nodes := make([]graph.Node, 0, len(active))
	for _, name := range active {
		node, ok := e.graph.Node(name)
		if !ok {
			return nil, &domain.UnknownNodeError{Node: name, Ref: "active set"}
		}
		if len(active) > 1 && node.IsSuspension() {
			return nil, &domain.HandlerError{Node: name, Err: fmt.Errorf("%w: node is part of a fan-out group", domain.ErrUnexpectedSuspend)}
		}
		nodes = append(nodes, node)
	}

	if len(nodes) == 1 {
		res, err := e.runNode(ctx, r, step, nodes[0], 1)
		if err != nil {
			return nil, err
		}
		return []nodeResult{res}, nil
	}

	e.logger.DebugContext(ctx, "fan-out", "run_id", r.id, "superstep", step, "nodes", active)

	var (
		mu      sync.Mutex
		serial  sync.Mutex
		results = make([]nodeResult, 0, len(nodes))
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, node := range nodes {
		g.Go(func() error {
			if !node.IsConcurrent() {
				serial.Lock()
				defer serial.Unlock()
				if err := gctx.Err(); err != nil {
					return err
				}
			}
			res, err := e.runNode(gctx, r, step, node, len(nodes))
			if err != nil {
				return err
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	// Join barrier: successors are only computed once every branch has finished.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// runNode invokes one handler. Failures of non-critical nodes are contained into the
// node's result slot (or NodeErrors); critical failures and misplaced suspensions are
// returned as *domain.HandlerError.
func (e *Engine) runNode(ctx context.Context, r *run, step int, node graph.Node, fanOut int) (nodeResult, error) {
	name := node.Name()
	ctx, span := e.tracer.Start(ctx, "node "+name, trace.WithAttributes(
		attribute.String("jarvis.node", name),
		attribute.Int("jarvis.superstep", step),
		attribute.Int("jarvis.fan_out", fanOut),
	))
	defer span.End()

	event := &domain.NodeEvent{
		EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventNodeEnter, RunID: r.id},
		NodeID:    name,
		Superstep: step,
		FanOut:    fanOut,
	}
	if e.hooks.OnNodeEnter != nil {
		e.hooks.OnNodeEnter(ctx, event)
	}
	e.logger.DebugContext(ctx, "node enter", "run_id", r.id, "node", name, "superstep", step)

	start := e.now()
	update, err := invoke(ctx, node.Handler(), *r.state.Clone())
	duration := e.now().Sub(start)

	leave := *event
	leave.Timestamp = e.now()
	leave.Type = domain.EventNodeLeave
	leave.Duration = duration
	leave.Err = err
	defer func() {
		if e.hooks.OnNodeLeave != nil {
			e.hooks.OnNodeLeave(ctx, &leave)
		}
	}()

	res := nodeResult{node: name, update: update}
	if err == nil {
		e.logger.DebugContext(ctx, "node leave", "run_id", r.id, "node", name, "duration", duration)
		return res, nil
	}

	if in, ok := domain.AsInterrupt(err); ok {
		if !node.IsSuspension() || fanOut > 1 {
			herr := &domain.HandlerError{Node: name, Err: domain.ErrUnexpectedSuspend}
			span.SetStatus(codes.Error, herr.Error())
			return nodeResult{}, herr
		}
		leave.Err = nil
		res.payload = in.Payload
		return res, nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	if node.IsCritical() {
		return nodeResult{}, &domain.HandlerError{Node: name, Err: err}
	}

	e.logger.WarnContext(ctx, "node failed, error contained", "run_id", r.id, "node", name, "err", err)
	if kind, ok := node.Slot(); ok {
		res.update = domain.WithResult(kind, domain.ErrorResult(err))
	} else {
		res.update = domain.Update{NodeErrors: map[string]string{name: err.Error()}}
	}
	return res, nil
}

// invoke calls h, turning a panic into an error so one misbehaving handler cannot crash the process.
func invoke(ctx context.Context, h graph.Handler, view domain.WorkflowState) (update domain.Update, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("handler panicked: %v", p)
		}
	}()
	return h(ctx, view)
}

// merge folds the results into the run state in completion order. When two nodes of the
// same superstep write the same field the later one wins and the conflict is logged.
func (e *Engine) merge(ctx context.Context, r *run, results []nodeResult) {
	owners := make(map[string]string)
	for _, res := range results {
		for _, field := range res.update.Fields() {
			if prev, ok := owners[field]; ok && prev != res.node {
				e.logger.WarnContext(ctx, "merge conflict, last writer wins",
					"run_id", r.id, "field", field, "overwritten", prev, "winner", res.node)
			}
			owners[field] = res.node
		}
		res.update.Apply(r.state)
	}
}

// successors computes the next active set: routed targets (checked against the declared
// set) plus unconditional edges, de-duplicated in first-seen order.
func (e *Engine) successors(state *domain.WorkflowState, executed []string) ([]string, error) {
	var next []string
	seen := make(map[string]bool)
	add := func(names ...string) {
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				next = append(next, n)
			}
		}
	}

	for _, name := range executed {
		if edge, ok := e.graph.Conditional(name); ok {
			route := edge.Router(state.Clone())
			targets := route.Targets()
			if len(targets) == 0 {
				return nil, &domain.RoutingError{Node: name, Allowed: edge.To}
			}
			for _, t := range targets {
				if !edge.Allows(t) {
					return nil, &domain.RoutingError{Node: name, Targets: targets, Allowed: edge.To}
				}
			}
			add(targets...)
		}
		add(e.graph.Static(name)...)
	}
	return next, nil
}
