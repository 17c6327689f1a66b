package assistant

import "github.com/aretw0/jarvis/pkg/domain"

// Route decides what follows gather_info. It is pure and consulted again after every
// resume, so a stop request is honoured no matter how many times the run suspended.
//
//   - stop intent: the stop node
//   - nothing recognised, or anything missing: the suspension node
//   - otherwise: the selected action nodes, in parallel when there are several
func Route(s *domain.WorkflowState) domain.Route {
	if s.HasIntent(domain.IntentStop) {
		return domain.Single(NodeStop)
	}
	if len(s.Intent) == 0 || s.NeedsMoreInfo || len(s.Actions) == 0 {
		return domain.Single(NodeGetUserInput)
	}
	if len(s.Actions) == 1 {
		return domain.Single(s.Actions[0])
	}
	return domain.Parallel(s.Actions...)
}
