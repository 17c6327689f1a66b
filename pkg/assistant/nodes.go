package assistant

import (
	"context"
	"fmt"

	"github.com/aretw0/jarvis/pkg/domain"
	"github.com/aretw0/jarvis/pkg/graph"
	"github.com/aretw0/jarvis/pkg/ports"
)

// StopMessage is the canned reply of the early-exit path.
const StopMessage = "Okay, I've stopped. Let me know if there's anything else I can do."

// getUserInput pauses the run and hands the clarifying question to the caller.
func getUserInput(_ context.Context, s domain.WorkflowState) (domain.Update, error) {
	question := s.ClarifyingQuestion
	if question == "" {
		question = HelpQuestion
	}
	return domain.Update{}, domain.Suspend(domain.InputRequest{
		Question: question,
		Missing:  Missing(s.Intent, s.Entities),
	})
}

func stop(context.Context, domain.WorkflowState) (domain.Update, error) {
	return domain.Update{FinalResponse: domain.Ptr(StopMessage)}, nil
}

// action adapts an ActionHandler to a node writing the kind's result slot.
func action(kind domain.ActionKind, h ports.ActionHandler) graph.Handler {
	return func(ctx context.Context, s domain.WorkflowState) (domain.Update, error) {
		if h == nil {
			return domain.Update{}, fmt.Errorf("no handler configured for %s", kind)
		}
		res, err := h.Handle(ctx, s.Entities)
		if err != nil {
			return domain.Update{}, err
		}
		if res == nil {
			res = &domain.ActionResult{Status: domain.StatusOK}
		}
		return domain.WithResult(kind, res), nil
	}
}
