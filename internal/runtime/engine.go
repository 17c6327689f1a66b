package runtime

import (
	"log/slog"
	"time"

	"github.com/aretw0/jarvis/internal/logging"
	"github.com/aretw0/jarvis/pkg/adapters/memory"
	"github.com/aretw0/jarvis/pkg/domain"
	"github.com/aretw0/jarvis/pkg/graph"
	"github.com/aretw0/jarvis/pkg/ports"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxSupersteps bounds a single Run or Resume call.
const DefaultMaxSupersteps = 25

const tracerName = "github.com/aretw0/jarvis/internal/runtime"

// Engine executes a graph in supersteps. It holds no per-run state, so one Engine
// serves any number of concurrent runs.
type Engine struct {
	graph         *graph.Graph
	store         ports.CheckpointStore
	logger        *slog.Logger
	hooks         domain.LifecycleHooks
	tracer        trace.Tracer
	maxSupersteps int
	newID         func() string
	now           func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithCheckpointStore sets where suspended runs are kept (default: in memory).
func WithCheckpointStore(store ports.CheckpointStore) EngineOption {
	return func(e *Engine) {
		if store != nil {
			e.store = store
		}
	}
}

// WithMaxSupersteps bounds the supersteps a single Run or Resume may execute.
func WithMaxSupersteps(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxSupersteps = n
		}
	}
}

// WithTracerProvider sets the OpenTelemetry provider used for run and node spans.
func WithTracerProvider(tp trace.TracerProvider) EngineOption {
	return func(e *Engine) {
		if tp != nil {
			e.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithIDGenerator replaces the UUID generator used for run ids and resume tokens.
func WithIDGenerator(fn func() string) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// NewEngine creates an engine for g.
func NewEngine(g *graph.Graph, opts ...EngineOption) *Engine {
	e := &Engine{
		graph:         g,
		store:         memory.NewStore(),
		logger:        logging.NewNop(),
		tracer:        otel.Tracer(tracerName),
		maxSupersteps: DefaultMaxSupersteps,
		newID:         uuid.NewString,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Graph returns the topology the engine executes.
func (e *Engine) Graph() *graph.Graph {
	return e.graph
}

// Store returns the checkpoint store.
func (e *Engine) Store() ports.CheckpointStore {
	return e.store
}
