package domain

// OutcomeKind distinguishes the two non-error results of a run.
type OutcomeKind string

const (
	OutcomeCompleted OutcomeKind = "completed"
	OutcomeSuspended OutcomeKind = "suspended"
)

// Outcome is returned by Run and Resume. Failures are reported as errors instead.
type Outcome struct {
	Kind  OutcomeKind    `json:"kind"`
	RunID string         `json:"run_id"`
	State *WorkflowState `json:"state"`

	// Token and Payload are set only when Kind == OutcomeSuspended.
	Token   string `json:"token,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

// Completed reports whether the run reached a terminal node.
func (o *Outcome) Completed() bool {
	return o != nil && o.Kind == OutcomeCompleted
}

// Suspended reports whether the run is paused waiting for input.
func (o *Outcome) Suspended() bool {
	return o != nil && o.Kind == OutcomeSuspended
}

// Reply returns the text to show the user: the final response when completed,
// or the clarifying question when suspended.
func (o *Outcome) Reply() string {
	if o == nil || o.State == nil {
		return ""
	}
	if o.Completed() {
		return o.State.FinalResponse
	}
	if req, ok := o.Payload.(InputRequest); ok && req.Question != "" {
		return req.Question
	}
	if req, ok := o.Payload.(*InputRequest); ok && req != nil && req.Question != "" {
		return req.Question
	}
	return o.State.ClarifyingQuestion
}
