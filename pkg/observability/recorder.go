package observability

import (
	"context"
	"sync"

	"github.com/aretw0/jarvis/pkg/domain"
)

// Event is a recorded lifecycle transition.
type Event struct {
	Type   domain.EventType
	RunID  string
	NodeID string
	Err    error
}

// Recorder keeps every lifecycle event in arrival order. It is meant for debugging
// sessions and tests; nothing is ever evicted.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Hooks returns lifecycle hooks appending to r.
func (r *Recorder) Hooks() domain.LifecycleHooks {
	node := func(_ context.Context, e *domain.NodeEvent) {
		r.add(Event{Type: e.Type, RunID: e.RunID, NodeID: e.NodeID, Err: e.Err})
	}
	run := func(_ context.Context, e *domain.RunEvent) {
		r.add(Event{Type: e.Type, RunID: e.RunID, NodeID: e.NodeID, Err: e.Err})
	}
	return domain.LifecycleHooks{
		OnNodeEnter: node,
		OnNodeLeave: node,
		OnSuspend:   run,
		OnResume:    run,
		OnComplete:  run,
		OnFail:      run,
	}
}

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Visited lists the nodes entered by runID, in order.
func (r *Recorder) Visited(runID string) []string {
	var out []string
	for _, e := range r.Events() {
		if e.Type == domain.EventNodeEnter && e.RunID == runID {
			out = append(out, e.NodeID)
		}
	}
	return out
}
