package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/jarvis/pkg/domain"
)

// suspend persists the continuation of the run under a fresh single-use token and
// returns a suspended outcome. Nothing downstream of the suspending node runs.
func (e *Engine) suspend(ctx context.Context, r *run, res nodeResult, supersteps int) (*domain.Outcome, error) {
	cp := &domain.Checkpoint{
		Token:       e.newID(),
		RunID:       r.id,
		SuspendedAt: res.node,
		Reentry:     e.graph.Reentry(),
		Superstep:   supersteps,
		State:       *r.state.Clone(),
		Payload:     res.payload,
		CreatedAt:   e.now().UTC(),
	}
	if err := e.store.Save(ctx, cp); err != nil {
		return nil, e.fail(ctx, r, fmt.Errorf("failed to save checkpoint: %w", err))
	}

	e.logger.InfoContext(ctx, "run suspended", "run_id", r.id, "node", res.node, "token", cp.Token)
	if e.hooks.OnSuspend != nil {
		e.hooks.OnSuspend(ctx, &domain.RunEvent{
			EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventSuspend, RunID: r.id},
			NodeID:    res.node,
			Token:     cp.Token,
		})
	}

	return &domain.Outcome{
		Kind:    domain.OutcomeSuspended,
		RunID:   r.id,
		State:   r.state,
		Token:   cp.Token,
		Payload: res.payload,
	}, nil
}
