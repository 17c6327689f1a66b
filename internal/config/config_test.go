package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jarvis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadWithEnv("", envOf(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  format: json
store:
  backend: redis
  redis:
    addr: redis:6379
    db: 2
    ttl: 90m
engine:
  critical: [gather_info, email]
`)
	cfg, err := LoadWithEnv(path, envOf(nil))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, StoreRedis, cfg.Store.Backend)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, 2, cfg.Store.Redis.DB)
	assert.Equal(t, 90*time.Minute, cfg.Store.Redis.TTL)
	assert.Equal(t, []string{"gather_info", "email"}, cfg.Engine.Critical)

	// Untouched keys keep their defaults.
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 25, cfg.Engine.MaxSupersteps)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
http:
  addr: ":9000"
engine:
  critical: [gather_info, email, calendar]
`)
	cfg, err := LoadWithEnv(path, envOf(map[string]string{
		"JARVIS_HTTP_ADDR":      ":7000",
		"JARVIS_METRICS":        "false",
		"JARVIS_MAX_SUPERSTEPS": "10",
		"JARVIS_REDIS_TTL":      "5s",
		"JARVIS_CRITICAL":       "gather_info, ",
		"JARVIS_STORE":          "memory",
		"JARVIS_ACTIONS_FILE":   "actions.yaml",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.HTTP.Addr)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 10, cfg.Engine.MaxSupersteps)
	assert.Equal(t, 5*time.Second, cfg.Store.Redis.TTL)
	assert.Equal(t, []string{"gather_info"}, cfg.Engine.Critical)
	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.Equal(t, "actions.yaml", cfg.Actions.File)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]struct {
		file string
		env  map[string]string
	}{
		"unknown key":       {file: "stor:\n  backend: file\n"},
		"bad backend":       {env: map[string]string{"JARVIS_STORE": "postgres"}},
		"bad format":        {env: map[string]string{"JARVIS_LOG_FORMAT": "xml"}},
		"zero supersteps":   {env: map[string]string{"JARVIS_MAX_SUPERSTEPS": "0"}},
		"azopenai settings": {env: map[string]string{"JARVIS_EXTRACTOR": "azopenai"}},
		"bad duration":      {env: map[string]string{"JARVIS_REDIS_TTL": "soon"}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			path := ""
			if tc.file != "" {
				path = writeConfig(t, tc.file)
			}
			_, err := LoadWithEnv(path, envOf(tc.env))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := LoadWithEnv(filepath.Join(t.TempDir(), "nope.yaml"), envOf(nil))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
