// Package cli builds the assistant and its infrastructure from configuration.
package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/jarvis"
	"github.com/aretw0/jarvis/internal/config"
	"github.com/aretw0/jarvis/internal/logging"
	"github.com/aretw0/jarvis/pkg/adapters/azopenai"
	"github.com/aretw0/jarvis/pkg/adapters/file"
	"github.com/aretw0/jarvis/pkg/adapters/memory"
	"github.com/aretw0/jarvis/pkg/adapters/process"
	"github.com/aretw0/jarvis/pkg/adapters/redis"
	"github.com/aretw0/jarvis/pkg/domain"
	"github.com/aretw0/jarvis/pkg/observability"
	"github.com/aretw0/jarvis/pkg/persistence/middleware"
	"github.com/aretw0/jarvis/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	backend "github.com/redis/go-redis/v9"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Stack is a configured assistant plus the infrastructure it owns.
type Stack struct {
	Assistant *jarvis.Assistant
	Logger    *slog.Logger
	// Registry is nil when metrics are disabled.
	Registry *prometheus.Registry

	closers []func(context.Context) error
}

// Close releases store connections and flushes traces.
func (s *Stack) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i](ctx))
	}
	return errors.Join(errs...)
}

// Env abstracts environment lookups.
type Env func(string) (string, bool)

// BuildOptions tunes Build for the calling command.
type BuildOptions struct {
	// LogOutput defaults to Stderr so Stdout stays free for replies and JSON-RPC.
	LogOutput io.Writer
	// TraceOutput receives spans when tracing is enabled (default Stderr).
	TraceOutput io.Writer
	Env         Env
	Debug       bool
}

// NewLogger builds the process logger from the log section.
func NewLogger(cfg config.LogConfig, out io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewWith(logging.Options{
		Level:  level,
		Format: logging.Format(cfg.Format),
		Output: out,
	}), nil
}

// Build wires the assistant described by cfg.
func Build(cfg *config.Config, opts BuildOptions) (*Stack, error) {
	if opts.Env == nil {
		opts.Env = os.LookupEnv
	}
	if opts.TraceOutput == nil {
		opts.TraceOutput = os.Stderr
	}
	logger, err := NewLogger(cfg.Log, opts.LogOutput)
	if err != nil {
		return nil, err
	}

	stack := &Stack{Logger: logger}
	assistantOpts := []jarvis.Option{
		jarvis.WithLogger(logger),
		jarvis.WithMaxSupersteps(cfg.Engine.MaxSupersteps),
	}
	if len(cfg.Engine.Critical) > 0 {
		assistantOpts = append(assistantOpts, jarvis.WithCriticalNodes(cfg.Engine.Critical...))
	}

	storeOpts, err := stack.stores(cfg.Store, opts.Env)
	if err != nil {
		return nil, err
	}
	assistantOpts = append(assistantOpts, storeOpts...)

	extractor, err := newExtractor(cfg.Extractor, opts.Env, logger)
	if err != nil {
		return nil, err
	}
	if extractor != nil {
		assistantOpts = append(assistantOpts, jarvis.WithExtractor(extractor))
	}

	if cfg.Actions.File != "" {
		commands, err := process.LoadCommands(cfg.Actions.File)
		if err != nil {
			return nil, err
		}
		for kind, h := range process.Handlers(commands, process.WithBaseDir(filepath.Dir(cfg.Actions.File))) {
			logger.Debug("Action served by command", "action", kind, "command", commands[kind].Command)
			assistantOpts = append(assistantOpts, jarvis.WithAction(kind, h))
		}
	}

	if cfg.Metrics.Enabled {
		stack.Registry = prometheus.NewRegistry()
		stack.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		assistantOpts = append(assistantOpts, jarvis.WithLifecycleHooks(observability.NewMetrics(stack.Registry).Hooks()))
	}
	if cfg.Tracing.Enabled {
		tp, err := observability.NewStdoutTracerProvider("jarvis", jarvis.Version, opts.TraceOutput)
		if err != nil {
			return nil, fmt.Errorf("failed to create tracer provider: %w", err)
		}
		stack.closers = append(stack.closers, func(ctx context.Context) error { return shutdownTracer(ctx, tp) })
		assistantOpts = append(assistantOpts, jarvis.WithTracerProvider(tp))
	}
	if opts.Debug {
		assistantOpts = append(assistantOpts, jarvis.WithLifecycleHooks(DebugHooks(logger)))
	}

	a, err := jarvis.New(assistantOpts...)
	if err != nil {
		stack.Close(context.Background())
		return nil, fmt.Errorf("error initializing assistant: %w", err)
	}
	stack.Assistant = a
	logger.Debug("Assistant ready",
		"store", cfg.Store.Backend,
		"extractor", cfg.Extractor.Backend,
		"metrics", cfg.Metrics.Enabled,
		"tracing", cfg.Tracing.Enabled,
	)
	return stack, nil
}

func shutdownTracer(ctx context.Context, tp *sdktrace.TracerProvider) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return tp.Shutdown(ctx)
}

func (s *Stack) stores(cfg config.StoreConfig, env Env) ([]jarvis.Option, error) {
	var (
		checkpoints   ports.CheckpointStore
		conversations ports.ConversationStore
		opts          []jarvis.Option
	)
	switch cfg.Backend {
	case config.StoreMemory:
		checkpoints = memory.NewStore()
		conversations = memory.NewConversationStore()
	case config.StoreFile:
		checkpoints = file.New(filepath.Join(cfg.Path, "checkpoints"))
		conversations = file.NewConversationStore(filepath.Join(cfg.Path, "conversations"))
	case config.StoreRedis:
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.closers = append(s.closers, func(context.Context) error { return client.Close() })
		prefix := cfg.Redis.Prefix
		if prefix == "" {
			prefix = "jarvis:"
		}
		checkpoints = redis.NewFromClient(client, redis.WithPrefix(prefix+"checkpoint:"), redis.WithTTL(cfg.Redis.TTL))
		conversations = redis.NewConversationStore(client, prefix+"conversation:", cfg.Redis.TTL)
		opts = append(opts, jarvis.WithLocker(redis.NewLocker(client, prefix)))
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	if cfg.EncryptionKeyEnv != "" {
		if raw, ok := env(cfg.EncryptionKeyEnv); ok && raw != "" {
			key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(raw))
			if err != nil {
				return nil, fmt.Errorf("%s is not valid base64: %w", cfg.EncryptionKeyEnv, err)
			}
			mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
			if err != nil {
				return nil, fmt.Errorf("%s: %w", cfg.EncryptionKeyEnv, err)
			}
			checkpoints = middleware.Chain(checkpoints, mw)
		}
	}

	return append(opts,
		jarvis.WithCheckpointStore(checkpoints),
		jarvis.WithConversationStore(conversations),
	), nil
}

// newExtractor returns nil for the keyword backend, which is the assistant's default.
func newExtractor(cfg config.ExtractorConfig, env Env, logger *slog.Logger) (ports.Extractor, error) {
	switch cfg.Backend {
	case config.ExtractorKeyword:
		return nil, nil
	case config.ExtractorAzOpenAI:
		apiKey, _ := env(cfg.APIKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("azopenai extractor needs an API key in %s", cfg.APIKeyEnv)
		}
		client, err := azopenai.NewClient(cfg.Endpoint, apiKey, cfg.Deployment)
		if err != nil {
			return nil, err
		}
		return azopenai.NewExtractor(client,
			azopenai.WithRetries(cfg.Retries),
			azopenai.WithLogger(logger),
		), nil
	}
	return nil, fmt.Errorf("unknown extractor backend %q", cfg.Backend)
}

// DebugHooks logs every node transition at debug level.
func DebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "Node enter", "run_id", e.RunID, "node", e.NodeID, "superstep", e.Superstep, "fan_out", e.FanOut)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			if e.Err != nil {
				logger.DebugContext(ctx, "Node failed", "run_id", e.RunID, "node", e.NodeID, "duration", e.Duration, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "Node leave", "run_id", e.RunID, "node", e.NodeID, "duration", e.Duration)
		},
		OnSuspend: func(ctx context.Context, e *domain.RunEvent) {
			logger.DebugContext(ctx, "Run suspended", "run_id", e.RunID, "node", e.NodeID)
		},
		OnResume: func(ctx context.Context, e *domain.RunEvent) {
			logger.DebugContext(ctx, "Run resumed", "run_id", e.RunID)
		},
		OnComplete: func(ctx context.Context, e *domain.RunEvent) {
			logger.DebugContext(ctx, "Run completed", "run_id", e.RunID)
		},
	}
}
