package jarvis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/jarvis/internal/logging"
	"github.com/aretw0/jarvis/internal/runtime"
	"github.com/aretw0/jarvis/pkg/actions"
	"github.com/aretw0/jarvis/pkg/adapters/memory"
	"github.com/aretw0/jarvis/pkg/assistant"
	"github.com/aretw0/jarvis/pkg/domain"
	"github.com/aretw0/jarvis/pkg/extract"
	"github.com/aretw0/jarvis/pkg/graph"
	"github.com/aretw0/jarvis/pkg/ports"
	"github.com/aretw0/jarvis/pkg/sanitize"
	"github.com/aretw0/jarvis/pkg/session"
	"go.opentelemetry.io/otel/trace"
)

// Assistant is the high-level entry point of the library.
// It wires the assistant workflow onto the engine and manages conversations.
type Assistant struct {
	engine   *runtime.Engine
	graph    *graph.Graph
	sessions *session.Manager
	logger   *slog.Logger
	maxInput int
}

type settings struct {
	extractor     ports.Extractor
	actions       map[domain.ActionKind]ports.ActionHandler
	critical      []string
	checkpoints   ports.CheckpointStore
	conversations ports.ConversationStore
	locker        ports.DistributedLocker
	hooks         domain.LifecycleHooks
	logger        *slog.Logger
	tracer        trace.TracerProvider
	maxSupersteps int
	maxInput      int
}

// Option defines a functional option for configuring the Assistant.
type Option func(*settings)

// WithExtractor sets the information extraction service (default: keyword extractor).
func WithExtractor(x ports.Extractor) Option {
	return func(s *settings) {
		s.extractor = x
	}
}

// WithAction replaces the handler of one action kind. Unset kinds use dry-run handlers.
func WithAction(kind domain.ActionKind, h ports.ActionHandler) Option {
	return func(s *settings) {
		s.actions[kind] = h
	}
}

// WithCriticalNodes sets the nodes whose failure aborts a run.
func WithCriticalNodes(names ...string) Option {
	return func(s *settings) {
		s.critical = append([]string{}, names...)
	}
}

// WithCheckpointStore sets where suspended runs are kept (default: in memory).
func WithCheckpointStore(store ports.CheckpointStore) Option {
	return func(s *settings) {
		s.checkpoints = store
	}
}

// WithConversationStore sets where Chat keeps history (default: in memory).
func WithConversationStore(store ports.ConversationStore) Option {
	return func(s *settings) {
		s.conversations = store
	}
}

// WithLocker enables distributed locking of conversation turns.
func WithLocker(l ports.DistributedLocker) Option {
	return func(s *settings) {
		s.locker = l
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls chain.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *settings) {
		s.hooks = s.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithTracerProvider sets the OpenTelemetry provider for run and node spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *settings) {
		s.tracer = tp
	}
}

// WithMaxSupersteps bounds the supersteps of a single Run or Resume call.
func WithMaxSupersteps(n int) Option {
	return func(s *settings) {
		s.maxSupersteps = n
	}
}

// WithMaxInputSize bounds the size in bytes of user text (default sanitize.DefaultMaxInputSize).
func WithMaxInputSize(n int) Option {
	return func(s *settings) {
		s.maxInput = n
	}
}

// New builds an Assistant. Without options it runs entirely in memory with the keyword
// extractor and dry-run actions.
func New(opts ...Option) (*Assistant, error) {
	s := &settings{actions: actions.DryRunAll()}
	for _, opt := range opts {
		opt(s)
	}
	if s.extractor == nil {
		s.extractor = extract.NewKeyword()
	}
	if s.checkpoints == nil {
		s.checkpoints = memory.NewStore()
	}
	if s.conversations == nil {
		s.conversations = memory.NewConversationStore()
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}

	g, err := assistant.Build(assistant.Capabilities{
		Extractor: s.extractor,
		Actions:   s.actions,
		Critical:  s.critical,
	})
	if err != nil {
		return nil, err
	}

	engineOpts := []runtime.EngineOption{
		runtime.WithLogger(s.logger),
		runtime.WithLifecycleHooks(s.hooks),
		runtime.WithCheckpointStore(s.checkpoints),
	}
	if s.tracer != nil {
		engineOpts = append(engineOpts, runtime.WithTracerProvider(s.tracer))
	}
	if s.maxSupersteps > 0 {
		engineOpts = append(engineOpts, runtime.WithMaxSupersteps(s.maxSupersteps))
	}

	sessionOpts := []session.Option{session.WithLogger(s.logger)}
	if s.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(s.locker))
	}

	return &Assistant{
		engine:   runtime.NewEngine(g, engineOpts...),
		graph:    g,
		sessions: session.NewManager(s.conversations, sessionOpts...),
		logger:   s.logger,
		maxInput: s.maxInput,
	}, nil
}

// Run starts a new run for text. History is optional prior conversation.
// Text is sanitized first; rejected input is returned as an error wrapping
// sanitize.ErrInputTooLarge or sanitize.ErrInvalidUTF8.
func (a *Assistant) Run(ctx context.Context, text string, history ...domain.Message) (*domain.Outcome, error) {
	clean, err := sanitize.Input(text, a.maxInput)
	if err != nil {
		return nil, err
	}
	return a.engine.Run(ctx, domain.NewState(clean, history...))
}

// Resume continues a suspended run. The token is single-use.
func (a *Assistant) Resume(ctx context.Context, token, input string) (*domain.Outcome, error) {
	clean, err := sanitize.Input(input, a.maxInput)
	if err != nil {
		return nil, err
	}
	return a.engine.Resume(ctx, token, clean)
}

// Chat handles one turn of a named conversation: it resumes the pending run if there
// is one and starts a new run otherwise. History and the pending token are saved only
// when the turn succeeds.
func (a *Assistant) Chat(ctx context.Context, conversationID, text string) (*domain.Outcome, error) {
	text, err := sanitize.Input(text, a.maxInput)
	if err != nil {
		return nil, err
	}

	var out *domain.Outcome
	_, err = a.sessions.Update(ctx, conversationID, func(ctx context.Context, conv *domain.Conversation) error {
		var err error
		if conv.PendingToken != "" {
			out, err = a.Resume(ctx, conv.PendingToken, text)
			if errors.Is(err, domain.ErrInvalidResumeToken) {
				a.logger.WarnContext(ctx, "pending run is gone, starting over",
					"conversation_id", conversationID, "token", conv.PendingToken)
				out, err = a.Run(ctx, text, conv.History...)
			}
		} else {
			out, err = a.Run(ctx, text, conv.History...)
		}
		if err != nil {
			return err
		}

		conv.Append(domain.RoleUser, text)
		conv.Append(domain.RoleAssistant, out.Reply())
		conv.PendingToken = ""
		if out.Suspended() {
			conv.PendingToken = out.Token
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, err)
	}
	return out, nil
}

// Conversation returns the stored history of a conversation.
func (a *Assistant) Conversation(ctx context.Context, id string) (*domain.Conversation, error) {
	return a.sessions.Load(ctx, id)
}

// Graph returns the assembled workflow graph.
func (a *Assistant) Graph() *graph.Graph {
	return a.graph
}

// Engine returns the underlying runtime engine.
func (a *Assistant) Engine() *runtime.Engine {
	return a.engine
}
