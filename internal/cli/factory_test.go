package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/jarvis/internal/config"
	"github.com/aretw0/jarvis/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func envOf(vars map[string]string) Env {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func memoryConfig() *config.Config {
	cfg := config.Default()
	cfg.Store.Backend = config.StoreMemory
	return cfg
}

func build(t *testing.T, cfg *config.Config, opts BuildOptions) *Stack {
	t.Helper()
	if opts.Env == nil {
		opts.Env = noEnv
	}
	if opts.LogOutput == nil {
		opts.LogOutput = &bytes.Buffer{}
	}
	stack, err := Build(cfg, opts)
	require.NoError(t, err)
	t.Cleanup(func() { stack.Close(context.Background()) })
	return stack
}

func TestBuild_Memory(t *testing.T) {
	stack := build(t, memoryConfig(), BuildOptions{})

	out, err := stack.Assistant.Run(context.Background(), "Search the web for errgroup")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCompleted, out.Kind)
}

func TestBuild_FileStorePersistsConversations(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Path = t.TempDir()
	stack := build(t, cfg, BuildOptions{})

	_, err := stack.Assistant.Chat(context.Background(), "c1", "Email alice@example.com about the launch")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(cfg.Store.Path, "conversations", "c1.json"))
	assert.NoError(t, err)
	entries, err := os.ReadDir(filepath.Join(cfg.Store.Path, "checkpoints"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestBuild_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Store.Backend = config.StoreRedis
	cfg.Store.Redis.Addr = mr.Addr()
	cfg.Store.Redis.Prefix = "test:"
	stack := build(t, cfg, BuildOptions{})

	ctx := context.Background()
	out, err := stack.Assistant.Chat(ctx, "c1", "Email alice@example.com about the launch")
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeSuspended, out.Kind)
	assert.True(t, mr.Exists("test:checkpoint:"+out.Token))

	out, err = stack.Assistant.Chat(ctx, "c1", "We ship on Friday")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCompleted, out.Kind)
}

func TestBuild_Encryption(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	cfg := config.Default()
	cfg.Store.Path = t.TempDir()
	cfg.Store.EncryptionKeyEnv = "JARVIS_TEST_KEY"
	stack := build(t, cfg, BuildOptions{Env: envOf(map[string]string{"JARVIS_TEST_KEY": key})})

	ctx := context.Background()
	out, err := stack.Assistant.Run(ctx, "Email alice@example.com about the launch")
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeSuspended, out.Kind)

	raw, err := os.ReadFile(filepath.Join(cfg.Store.Path, "checkpoints", out.Token+".json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "alice@example.com")

	done, err := stack.Assistant.Resume(ctx, out.Token, "We ship on Friday")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCompleted, done.Kind)
}

func TestBuild_Errors(t *testing.T) {
	t.Run("short encryption key", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.Store.EncryptionKeyEnv = "KEY"
		_, err := Build(cfg, BuildOptions{Env: envOf(map[string]string{"KEY": base64.StdEncoding.EncodeToString([]byte("short"))})})
		assert.Error(t, err)
	})

	t.Run("encryption key not base64", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.Store.EncryptionKeyEnv = "KEY"
		_, err := Build(cfg, BuildOptions{Env: envOf(map[string]string{"KEY": "%%%"})})
		assert.ErrorContains(t, err, "not valid base64")
	})

	t.Run("azopenai without key", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.Extractor.Backend = config.ExtractorAzOpenAI
		cfg.Extractor.Endpoint = "https://example.openai.azure.com"
		cfg.Extractor.Deployment = "gpt"
		_, err := Build(cfg, BuildOptions{Env: noEnv})
		assert.ErrorContains(t, err, "AZURE_OPENAI_API_KEY")
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.Log.Level = "loud"
		_, err := Build(cfg, BuildOptions{Env: noEnv})
		assert.Error(t, err)
	})
}

func TestBuild_AzOpenAI(t *testing.T) {
	cfg := memoryConfig()
	cfg.Extractor.Backend = config.ExtractorAzOpenAI
	cfg.Extractor.Endpoint = "https://example.openai.azure.com"
	cfg.Extractor.Deployment = "gpt"
	stack := build(t, cfg, BuildOptions{Env: envOf(map[string]string{"AZURE_OPENAI_API_KEY": "secret"})})
	assert.NotNil(t, stack.Assistant)
}

func TestBuild_Metrics(t *testing.T) {
	stack := build(t, memoryConfig(), BuildOptions{})
	require.NotNil(t, stack.Registry)

	_, err := stack.Assistant.Run(context.Background(), "Search the web for errgroup")
	require.NoError(t, err)

	families, err := stack.Registry.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["jarvis_runs_total"])
	assert.True(t, names["go_goroutines"])

	cfg := memoryConfig()
	cfg.Metrics.Enabled = false
	assert.Nil(t, build(t, cfg, BuildOptions{}).Registry)
}

func TestBuild_TracingAndDebug(t *testing.T) {
	cfg := memoryConfig()
	cfg.Log.Level = "debug"
	cfg.Tracing.Enabled = true
	var logs, spans bytes.Buffer
	stack, err := Build(cfg, BuildOptions{Env: noEnv, LogOutput: &logs, TraceOutput: &spans, Debug: true})
	require.NoError(t, err)

	_, err = stack.Assistant.Run(context.Background(), "Search the web for errgroup")
	require.NoError(t, err)
	require.NoError(t, stack.Close(context.Background()))

	assert.Contains(t, logs.String(), "Node enter")
	assert.Contains(t, logs.String(), "node=web_search")
	assert.Contains(t, spans.String(), `"Name":"jarvis.run"`)
}

func TestBuild_CommandActions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "actions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
actions:
  - action: web_search
    command: sh
    args: ["-c", "echo top hit for $JARVIS_ENTITY_QUERY"]
`), 0644))

	cfg := memoryConfig()
	cfg.Actions.File = path
	stack := build(t, cfg, BuildOptions{})

	out, err := stack.Assistant.Run(context.Background(), "Search the web for errgroup")
	require.NoError(t, err)
	assert.Contains(t, out.Reply(), "top hit for errgroup")
}
