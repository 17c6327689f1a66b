package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/aretw0/jarvis/pkg/domain"
	"github.com/aretw0/jarvis/pkg/ports"
)

// EnvPrefix prefixes the environment variables carrying entities.
const EnvPrefix = "JARVIS_ENTITY_"

var unsafeKey = regexp.MustCompile(`[^A-Z0-9_]`)

// Handler runs one Command as an action handler.
type Handler struct {
	cmd     Command
	baseDir string
}

// Option configures a Handler.
type Option func(*Handler)

// WithBaseDir sets the working directory of the command.
func WithBaseDir(dir string) Option {
	return func(h *Handler) {
		h.baseDir = dir
	}
}

// NewHandler creates a handler running c.
func NewHandler(c Command, opts ...Option) *Handler {
	h := &Handler{cmd: c}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handlers builds one handler per configured command.
func Handlers(commands map[domain.ActionKind]Command, opts ...Option) map[domain.ActionKind]ports.ActionHandler {
	out := make(map[domain.ActionKind]ports.ActionHandler, len(commands))
	for kind, c := range commands {
		out[kind] = NewHandler(c, opts...)
	}
	return out
}

// Handle runs the command. A non-zero exit is a handler failure.
func (h *Handler) Handle(ctx context.Context, entities domain.Entities) (*domain.ActionResult, error) {
	cmd := exec.CommandContext(ctx, h.cmd.Command, h.cmd.Args...)
	cmd.Dir = h.baseDir

	env := cmd.Environ()
	for k, v := range h.cmd.Environment {
		env = append(env, k+"="+v)
	}
	for k, v := range entities {
		env = append(env, EnvPrefix+envKey(k)+"="+v.String())
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", h.cmd.Command, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", h.cmd.Command, err)
	}
	return parseOutput(stdout.String()), nil
}

func envKey(name string) string {
	return unsafeKey.ReplaceAllString(strings.ToUpper(name), "_")
}

func parseOutput(output string) *domain.ActionResult {
	trimmed := strings.TrimSpace(output)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		var res domain.ActionResult
		if err := json.Unmarshal([]byte(trimmed), &res); err == nil && res.Status != "" {
			return &res
		}
	}
	return &domain.ActionResult{Status: domain.StatusOK, Detail: trimmed}
}
