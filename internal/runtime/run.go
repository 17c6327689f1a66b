package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/jarvis/pkg/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// run is the bookkeeping of one Run or Resume call.
type run struct {
	id    string
	state *domain.WorkflowState
	// base is the number of supersteps executed by earlier calls of the same run.
	base int
}

// Run starts a fresh run at the entry node. The caller's state is not modified.
func (e *Engine) Run(ctx context.Context, initial *domain.WorkflowState) (*domain.Outcome, error) {
	state := initial.Clone()
	if state == nil {
		state = domain.NewState("")
	}
	r := &run{id: e.newID(), state: state}

	ctx, span := e.tracer.Start(ctx, "jarvis.run", trace.WithAttributes(
		attribute.String("jarvis.run_id", r.id),
	))
	defer span.End()

	e.logger.DebugContext(ctx, "run started", "run_id", r.id, "entry", e.graph.Entry())
	out, err := e.execute(ctx, r, []string{e.graph.Entry()})
	recordSpan(span, out, err)
	return out, err
}

// Resume continues a suspended run. The token is consumed atomically, so it can be
// used at most once; unknown or consumed tokens never start a run. A checkpoint whose
// re-entry node is not part of this graph is rejected without consuming its token.
func (e *Engine) Resume(ctx context.Context, token string, input string) (*domain.Outcome, error) {
	pending, err := e.store.Load(ctx, token)
	if err != nil {
		return nil, resumeLoadError(token, err, "failed to load checkpoint")
	}
	reentry := pending.Reentry
	if reentry == "" {
		reentry = e.graph.Reentry()
	}
	if _, ok := e.graph.Node(reentry); !ok {
		return nil, &domain.UnknownNodeError{Node: reentry, Ref: "checkpoint re-entry"}
	}

	cp, err := e.store.Consume(ctx, token)
	if err != nil {
		return nil, resumeLoadError(token, err, "failed to consume checkpoint")
	}

	state := cp.State.Clone()
	mergeInput(state, input)

	r := &run{id: cp.RunID, state: state, base: cp.Superstep}
	if r.id == "" {
		r.id = e.newID()
	}

	ctx, span := e.tracer.Start(ctx, "jarvis.resume", trace.WithAttributes(
		attribute.String("jarvis.run_id", r.id),
		attribute.String("jarvis.suspended_at", cp.SuspendedAt),
	))
	defer span.End()

	e.logger.InfoContext(ctx, "run resumed", "run_id", r.id, "suspended_at", cp.SuspendedAt, "reentry", reentry)
	if e.hooks.OnResume != nil {
		e.hooks.OnResume(ctx, &domain.RunEvent{
			EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventResume, RunID: r.id},
			NodeID:    cp.SuspendedAt,
			Token:     token,
		})
	}

	out, err := e.execute(ctx, r, []string{reentry})
	recordSpan(span, out, err)
	return out, err
}

func resumeLoadError(token string, err error, msg string) error {
	if errors.Is(err, domain.ErrCheckpointNotFound) {
		return &domain.InvalidResumeTokenError{Token: token}
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// mergeInput folds the answer of a suspended run into its state: the previous turn moves
// into History and the input becomes the new UserInput.
func mergeInput(state *domain.WorkflowState, input string) {
	if state.UserInput != "" {
		state.History = append(state.History, domain.Message{Role: domain.RoleUser, Content: state.UserInput})
	}
	if state.ClarifyingQuestion != "" {
		state.History = append(state.History, domain.Message{Role: domain.RoleAssistant, Content: state.ClarifyingQuestion})
	}
	state.UserInput = input
	state.NeedsMoreInfo = false
	state.ClarifyingQuestion = ""
	state.Actions = nil
}

// execute drives supersteps from the given active set until the run completes, suspends or fails.
func (e *Engine) execute(ctx context.Context, r *run, active []string) (*domain.Outcome, error) {
	for step := 0; len(active) > 0; step++ {
		if err := ctx.Err(); err != nil {
			return nil, e.fail(ctx, r, fmt.Errorf("run cancelled: %w", err))
		}
		if step >= e.maxSupersteps {
			return nil, e.fail(ctx, r, fmt.Errorf("%w: %d supersteps without reaching a terminal node", domain.ErrSuperstepLimit, e.maxSupersteps))
		}

		results, err := e.superstep(ctx, r, r.base+step, active)
		if err != nil {
			return nil, e.fail(ctx, r, err)
		}
		e.merge(ctx, r, results)

		for _, res := range results {
			node, _ := e.graph.Node(res.node)
			if node.IsSuspension() {
				return e.suspend(ctx, r, res, r.base+step+1)
			}
		}

		for _, res := range results {
			if e.graph.IsTerminal(res.node) {
				return e.complete(ctx, r, res.node)
			}
		}

		active, err = e.successors(r.state, active)
		if err != nil {
			return nil, e.fail(ctx, r, err)
		}
	}
	return e.complete(ctx, r, "")
}

func (e *Engine) complete(ctx context.Context, r *run, terminal string) (*domain.Outcome, error) {
	e.logger.InfoContext(ctx, "run completed", "run_id", r.id, "terminal", terminal)
	if e.hooks.OnComplete != nil {
		e.hooks.OnComplete(ctx, &domain.RunEvent{
			EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventComplete, RunID: r.id},
			NodeID:    terminal,
		})
	}
	return &domain.Outcome{Kind: domain.OutcomeCompleted, RunID: r.id, State: r.state}, nil
}

func (e *Engine) fail(ctx context.Context, r *run, err error) error {
	e.logger.ErrorContext(ctx, "run failed", "run_id", r.id, "err", err)
	if e.hooks.OnFail != nil {
		e.hooks.OnFail(ctx, &domain.RunEvent{
			EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventFail, RunID: r.id},
			Err:       err,
		})
	}
	return err
}

func recordSpan(span trace.Span, out *domain.Outcome, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetAttributes(attribute.String("jarvis.outcome", string(out.Kind)))
}
