package domain

import "time"

// Checkpoint is the continuation state of a suspended run.
// It is everything needed to resume in a different process.
type Checkpoint struct {
	// Token uniquely identifies the paused position. Single-use.
	Token string `json:"token"`

	// RunID correlates all suspensions of the same logical run.
	RunID string `json:"run_id"`

	// SuspendedAt is the node that suspended the run (position marker).
	SuspendedAt string `json:"suspended_at"`

	// Reentry is the node a resume re-enters the graph at.
	Reentry string `json:"reentry"`

	// Superstep counts supersteps executed before the suspension.
	Superstep int `json:"superstep"`

	State   WorkflowState `json:"state"`
	Payload any           `json:"payload,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
