package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter EventType = "node_enter"
	EventNodeLeave EventType = "node_leave"
	EventSuspend   EventType = "suspend"
	EventResume    EventType = "resume"
	EventComplete  EventType = "complete"
	EventFail      EventType = "fail"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
}

// NodeEvent represents entry into or exit from a node.
type NodeEvent struct {
	EventBase
	NodeID    string        `json:"node_id"`
	Superstep int           `json:"superstep"`
	FanOut    int           `json:"fan_out"` // size of the group the node ran in
	Duration  time.Duration `json:"duration,omitempty"`
	Err       error         `json:"-"`
}

// RunEvent represents a change in the lifecycle of a whole run.
type RunEvent struct {
	EventBase
	NodeID string `json:"node_id,omitempty"` // suspending node, if any
	Token  string `json:"token,omitempty"`
	Err    error  `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability. Every field is optional.
// Hooks may be called concurrently from fan-out branches.
type LifecycleHooks struct {
	OnNodeEnter func(context.Context, *NodeEvent)
	OnNodeLeave func(context.Context, *NodeEvent)
	OnSuspend   func(context.Context, *RunEvent)
	OnResume    func(context.Context, *RunEvent)
	OnComplete  func(context.Context, *RunEvent)
	OnFail      func(context.Context, *RunEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnNodeEnter: chainNode(h.OnNodeEnter, other.OnNodeEnter),
		OnNodeLeave: chainNode(h.OnNodeLeave, other.OnNodeLeave),
		OnSuspend:   chainRun(h.OnSuspend, other.OnSuspend),
		OnResume:    chainRun(h.OnResume, other.OnResume),
		OnComplete:  chainRun(h.OnComplete, other.OnComplete),
		OnFail:      chainRun(h.OnFail, other.OnFail),
	}
}

func chainNode(a, b func(context.Context, *NodeEvent)) func(context.Context, *NodeEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *NodeEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainRun(a, b func(context.Context, *RunEvent)) func(context.Context, *RunEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *RunEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
