package runtime_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/jarvis/internal/runtime"
	"github.com/aretw0/jarvis/pkg/domain"
	"github.com/aretw0/jarvis/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func result(kind domain.ActionKind, status domain.ResultStatus) graph.Handler {
	return func(context.Context, domain.WorkflowState) (domain.Update, error) {
		return domain.WithResult(kind, &domain.ActionResult{Status: status}), nil
	}
}

func noop(context.Context, domain.WorkflowState) (domain.Update, error) {
	return domain.Update{}, nil
}

func fail(msg string) graph.Handler {
	return func(context.Context, domain.WorkflowState) (domain.Update, error) {
		return domain.Update{}, errors.New(msg)
	}
}

// summarize writes the list of populated slots, so tests can see what the join observed.
func summarize(_ context.Context, s domain.WorkflowState) (domain.Update, error) {
	out := ""
	for _, kind := range domain.ActionOrder {
		if r := s.Result(kind); r != nil {
			out += string(kind) + "=" + string(r.Status) + ";"
		}
	}
	return domain.Update{FinalResponse: domain.Ptr(out)}, nil
}

func fanOutGraph(t *testing.T, email, calendar graph.Handler, emailOpts ...graph.NodeOption) *graph.Graph {
	t.Helper()
	g, err := graph.New().
		AddNode("start", noop).
		AddNode("email", email, append([]graph.NodeOption{graph.Concurrent(), graph.Slot(domain.ActionEmail)}, emailOpts...)...).
		AddNode("calendar", calendar, graph.Concurrent(), graph.Slot(domain.ActionCalendar)).
		AddNode("join", summarize).
		Conditional("start", func(*domain.WorkflowState) domain.Route {
			return domain.Parallel("email", "calendar")
		}, "email", "calendar").
		Edge("email", "join").
		Edge("calendar", "join").
		Entry("start").
		Terminal("join").
		Build()
	require.NoError(t, err)
	return g
}

func TestEngine_FanOutJoin(t *testing.T) {
	// Both branches must be in flight at the same time for either to finish.
	var started sync.WaitGroup
	started.Add(2)
	branch := func(kind domain.ActionKind, status domain.ResultStatus) graph.Handler {
		return func(ctx context.Context, _ domain.WorkflowState) (domain.Update, error) {
			started.Done()
			done := make(chan struct{})
			go func() { started.Wait(); close(done) }()
			select {
			case <-done:
			case <-time.After(2 * time.Second):
				return domain.Update{}, errors.New("branches did not run concurrently")
			}
			return domain.WithResult(kind, &domain.ActionResult{Status: status}), nil
		}
	}

	var joins atomic.Int32
	hooks := domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			if e.NodeID == "join" {
				joins.Add(1)
			}
		},
	}

	engine := runtime.NewEngine(
		fanOutGraph(t, branch(domain.ActionEmail, domain.StatusSent), branch(domain.ActionCalendar, domain.StatusCreated)),
		runtime.WithLifecycleHooks(hooks),
	)
	out, err := engine.Run(context.Background(), domain.NewState("go"))
	require.NoError(t, err)

	assert.True(t, out.Completed())
	assert.Equal(t, "email=SENT;calendar=CREATED;", out.State.FinalResponse, "join sees every branch")
	assert.Equal(t, int32(1), joins.Load(), "join node runs exactly once")
}

func TestEngine_CompletionOrderDoesNotChangeState(t *testing.T) {
	delayed := func(kind domain.ActionKind, d time.Duration) graph.Handler {
		return func(context.Context, domain.WorkflowState) (domain.Update, error) {
			time.Sleep(d)
			return domain.WithResult(kind, &domain.ActionResult{Status: domain.StatusOK}), nil
		}
	}

	g1 := fanOutGraph(t, delayed(domain.ActionEmail, 30*time.Millisecond), delayed(domain.ActionCalendar, 0))
	g2 := fanOutGraph(t, delayed(domain.ActionEmail, 0), delayed(domain.ActionCalendar, 30*time.Millisecond))

	out1, err := runtime.NewEngine(g1).Run(context.Background(), domain.NewState("go"))
	require.NoError(t, err)
	out2, err := runtime.NewEngine(g2).Run(context.Background(), domain.NewState("go"))
	require.NoError(t, err)

	assert.Equal(t, out1.State, out2.State)
}

func TestEngine_ContainedFailure(t *testing.T) {
	engine := runtime.NewEngine(fanOutGraph(t, fail("smtp down"), result(domain.ActionCalendar, domain.StatusCreated)))

	out, err := engine.Run(context.Background(), domain.NewState("go"))
	require.NoError(t, err)

	require.NotNil(t, out.State.Email)
	assert.True(t, out.State.Email.IsError())
	assert.Equal(t, "smtp down", out.State.Email.Error)
	assert.Equal(t, domain.StatusCreated, out.State.Calendar.Status)
	assert.Equal(t, "email=ERROR;calendar=CREATED;", out.State.FinalResponse)
}

func TestEngine_CriticalFailureAborts(t *testing.T) {
	engine := runtime.NewEngine(fanOutGraph(t, fail("smtp down"), result(domain.ActionCalendar, domain.StatusCreated), graph.Critical()))

	out, err := engine.Run(context.Background(), domain.NewState("go"))
	assert.Nil(t, out)

	var herr *domain.HandlerError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, "email", herr.Node)
	assert.EqualError(t, herr.Err, "smtp down")
}

func TestEngine_NodeErrorsWithoutSlot(t *testing.T) {
	g, err := graph.New().
		AddNode("start", fail("extractor offline")).
		AddNode("end", summarize).
		Edge("start", "end").
		Entry("start").
		Terminal("end").
		Build()
	require.NoError(t, err)

	out, err := runtime.NewEngine(g).Run(context.Background(), domain.NewState("go"))
	require.NoError(t, err)
	assert.Equal(t, "extractor offline", out.State.NodeErrors["start"])
}

func TestEngine_PanicIsContained(t *testing.T) {
	boom := func(context.Context, domain.WorkflowState) (domain.Update, error) {
		panic("nil map")
	}
	engine := runtime.NewEngine(fanOutGraph(t, boom, result(domain.ActionCalendar, domain.StatusCreated)))

	out, err := engine.Run(context.Background(), domain.NewState("go"))
	require.NoError(t, err)
	assert.Contains(t, out.State.Email.Error, "handler panicked")
}

func TestEngine_RoutingOutsideDeclaredSet(t *testing.T) {
	g, err := graph.New().
		AddNode("start", noop).
		AddNode("a", noop).
		AddNode("b", noop).
		Conditional("start", func(*domain.WorkflowState) domain.Route {
			return domain.Single("b")
		}, "a").
		Edge("start", "b").
		Entry("start").
		Build()
	require.NoError(t, err)

	_, err = runtime.NewEngine(g).Run(context.Background(), domain.NewState("go"))

	var rerr *domain.RoutingError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "start", rerr.Node)
	assert.Equal(t, []string{"b"}, rerr.Targets)
}

func TestEngine_EmptyRouteFails(t *testing.T) {
	g, err := graph.New().
		AddNode("start", noop).
		AddNode("a", noop).
		Conditional("start", func(*domain.WorkflowState) domain.Route { return domain.Route{} }, "a").
		Entry("start").
		Build()
	require.NoError(t, err)

	_, err = runtime.NewEngine(g).Run(context.Background(), domain.NewState("go"))
	var rerr *domain.RoutingError
	assert.True(t, errors.As(err, &rerr))
}

func TestEngine_MergeConflictLastWriterWins(t *testing.T) {
	firstDone := make(chan struct{})
	first := func(context.Context, domain.WorkflowState) (domain.Update, error) {
		defer close(firstDone)
		return domain.Update{FinalResponse: domain.Ptr("first")}, nil
	}
	second := func(context.Context, domain.WorkflowState) (domain.Update, error) {
		<-firstDone
		time.Sleep(10 * time.Millisecond)
		return domain.Update{FinalResponse: domain.Ptr("second")}, nil
	}

	g, err := graph.New().
		AddNode("start", noop).
		AddNode("first", first, graph.Concurrent()).
		AddNode("second", second, graph.Concurrent()).
		Conditional("start", func(*domain.WorkflowState) domain.Route {
			return domain.Parallel("second", "first")
		}, "first", "second").
		Entry("start").
		Build()
	require.NoError(t, err)

	out, err := runtime.NewEngine(g).Run(context.Background(), domain.NewState("go"))
	require.NoError(t, err)
	assert.Equal(t, "second", out.State.FinalResponse)
}

func TestEngine_FanOutSerializesNonConcurrentNodes(t *testing.T) {
	var inFlight, peak atomic.Int32
	exclusive := func(kind domain.ActionKind) graph.Handler {
		return func(context.Context, domain.WorkflowState) (domain.Update, error) {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(30 * time.Millisecond)
			return domain.WithResult(kind, &domain.ActionResult{Status: domain.StatusOK}), nil
		}
	}

	g, err := graph.New().
		AddNode("start", noop).
		AddNode("email", exclusive(domain.ActionEmail), graph.Slot(domain.ActionEmail)).
		AddNode("calendar", exclusive(domain.ActionCalendar), graph.Slot(domain.ActionCalendar)).
		AddNode("web_search", result(domain.ActionWebSearch, domain.StatusOK), graph.Concurrent(), graph.Slot(domain.ActionWebSearch)).
		AddNode("join", summarize).
		Conditional("start", func(*domain.WorkflowState) domain.Route {
			return domain.Parallel("email", "calendar", "web_search")
		}, "email", "calendar", "web_search").
		Edge("email", "join").
		Edge("calendar", "join").
		Edge("web_search", "join").
		Entry("start").
		Terminal("join").
		Build()
	require.NoError(t, err)

	out, err := runtime.NewEngine(g).Run(context.Background(), domain.NewState("go"))
	require.NoError(t, err)
	require.True(t, out.Completed())
	assert.Equal(t, int32(1), peak.Load(), "nodes without Concurrent never overlap")
	assert.Equal(t, "email=OK;calendar=OK;web_search=OK;", out.State.FinalResponse)
}

func TestEngine_SuperstepLimit(t *testing.T) {
	g, err := graph.New().
		AddNode("ping", noop).
		AddNode("pong", noop).
		Edge("ping", "pong").
		Edge("pong", "ping").
		Entry("ping").
		Build()
	require.NoError(t, err)

	_, err = runtime.NewEngine(g, runtime.WithMaxSupersteps(5)).Run(context.Background(), domain.NewState("go"))
	assert.ErrorIs(t, err, domain.ErrSuperstepLimit)
}

func TestEngine_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := runtime.NewEngine(fanOutGraph(t, noop, noop)).Run(ctx, domain.NewState("go"))
	assert.Nil(t, out)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_RunDoesNotMutateInput(t *testing.T) {
	initial := domain.NewState("go")
	_, err := runtime.NewEngine(fanOutGraph(t, result(domain.ActionEmail, domain.StatusSent), noop)).
		Run(context.Background(), initial)
	require.NoError(t, err)

	assert.Nil(t, initial.Email)
	assert.Empty(t, initial.FinalResponse)
}
