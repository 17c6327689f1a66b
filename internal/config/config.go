// Package config loads Jarvis settings from a YAML file and JARVIS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Extractor backends.
const (
	ExtractorKeyword  = "keyword"
	ExtractorAzOpenAI = "azopenai"
)

// Config is the effective configuration of a Jarvis process.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Store     StoreConfig     `mapstructure:"store"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Extractor ExtractorConfig `mapstructure:"extractor"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Actions   ActionsConfig   `mapstructure:"actions"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StoreConfig struct {
	Backend string      `mapstructure:"backend"`
	Path    string      `mapstructure:"path"`
	Redis   RedisConfig `mapstructure:"redis"`

	// EncryptionKeyEnv names the variable holding a base64 AES-256 key.
	// Checkpoints are stored in clear text when it is empty or unset.
	EncryptionKeyEnv string `mapstructure:"encryption_key_env"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type ExtractorConfig struct {
	Backend    string `mapstructure:"backend"`
	Endpoint   string `mapstructure:"endpoint"`
	Deployment string `mapstructure:"deployment"`
	APIKeyEnv  string `mapstructure:"api_key_env"`
	Retries    int    `mapstructure:"retries"`
}

// ActionsConfig points at the local commands replacing dry-run handlers.
type ActionsConfig struct {
	File string `mapstructure:"file"`
}

type EngineConfig struct {
	MaxSupersteps int      `mapstructure:"max_supersteps"`
	Critical      []string `mapstructure:"critical"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Log:   LogConfig{Level: "info", Format: "text"},
		Store: StoreConfig{Backend: StoreFile, Path: ".jarvis", Redis: RedisConfig{Addr: "localhost:6379", TTL: 24 * time.Hour}},
		HTTP:  HTTPConfig{Addr: ":8080"},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Extractor: ExtractorConfig{
			Backend:   ExtractorKeyword,
			APIKeyEnv: "AZURE_OPENAI_API_KEY",
			Retries:   2,
		},
		Engine: EngineConfig{MaxSupersteps: 25},
	}
}

// env maps JARVIS_* variables onto config keys.
var env = map[string]string{
	"JARVIS_LOG_LEVEL":               "log.level",
	"JARVIS_LOG_FORMAT":              "log.format",
	"JARVIS_STORE":                   "store.backend",
	"JARVIS_STORE_PATH":              "store.path",
	"JARVIS_ENCRYPTION_KEY_ENV":      "store.encryption_key_env",
	"JARVIS_REDIS_ADDR":              "store.redis.addr",
	"JARVIS_REDIS_PASSWORD":          "store.redis.password",
	"JARVIS_REDIS_DB":                "store.redis.db",
	"JARVIS_REDIS_PREFIX":            "store.redis.prefix",
	"JARVIS_REDIS_TTL":               "store.redis.ttl",
	"JARVIS_HTTP_ADDR":               "http.addr",
	"JARVIS_METRICS":                 "metrics.enabled",
	"JARVIS_TRACING":                 "tracing.enabled",
	"JARVIS_EXTRACTOR":               "extractor.backend",
	"JARVIS_AZURE_OPENAI_ENDPOINT":   "extractor.endpoint",
	"JARVIS_AZURE_OPENAI_DEPLOYMENT": "extractor.deployment",
	"JARVIS_MAX_SUPERSTEPS":          "engine.max_supersteps",
	"JARVIS_CRITICAL":                "engine.critical",
	"JARVIS_ACTIONS_FILE":            "actions.file",
}

// Load reads path (optional) over the defaults and applies environment overrides.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an explicit environment lookup.
func LoadWithEnv(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		if err := decode(raw, cfg); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", path, err)
		}
	}

	overrides := make(map[string]any)
	for name, key := range env {
		v, ok := lookup(name)
		if !ok {
			continue
		}
		var value any = v
		if key == "engine.critical" {
			// Slices decode element-wise into existing ones; start from scratch.
			cfg.Engine.Critical = nil
			value = splitList(v)
		}
		setPath(overrides, strings.Split(key, "."), value)
	}
	if err := decode(overrides, cfg); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerations and bounds.
func (c *Config) Validate() error {
	var errs []error
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	switch c.Store.Backend {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		errs = append(errs, fmt.Errorf("store.backend must be memory, file or redis, got %q", c.Store.Backend))
	}
	switch c.Extractor.Backend {
	case ExtractorKeyword:
	case ExtractorAzOpenAI:
		if c.Extractor.Endpoint == "" || c.Extractor.Deployment == "" {
			errs = append(errs, errors.New("extractor.endpoint and extractor.deployment are required for azopenai"))
		}
	default:
		errs = append(errs, fmt.Errorf("extractor.backend must be keyword or azopenai, got %q", c.Extractor.Backend))
	}
	if c.Engine.MaxSupersteps <= 0 {
		errs = append(errs, fmt.Errorf("engine.max_supersteps must be positive, got %d", c.Engine.MaxSupersteps))
	}
	return errors.Join(errs...)
}

func decode(input map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func setPath(m map[string]any, path []string, value any) {
	for _, p := range path[:len(path)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[p] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
