// Package config loads courier's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/courier/pkg/completion"
	"github.com/aretw0/courier/pkg/gateway"
	"github.com/aretw0/courier/pkg/router"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when --config is not given and the file exists.
const DefaultPath = "courier.yaml"

// Environment overrides, applied after the file.
const (
	EnvAPIKey   = "COURIER_API_KEY"
	EnvBaseURL  = "COURIER_BASE_URL"
	EnvModel    = "COURIER_MODEL"
	EnvRedisURL = "COURIER_REDIS_URL"
	EnvFSRoot   = "COURIER_FS_ROOT"
	EnvTimezone = "COURIER_TIMEZONE"
	EnvToolsURL = "COURIER_TOOLS_URL"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config is the full application configuration.
type Config struct {
	LogLevel   string            `mapstructure:"log_level"`
	Listen     string            `mapstructure:"listen"`
	Completion completion.Config `mapstructure:"completion"`
	Tools      Tools             `mapstructure:"tools"`
	Session    Session           `mapstructure:"session"`
}

// Tools configures the tool gateway and the router.
type Tools struct {
	BaseURL             string        `mapstructure:"base_url"`
	Timezone            string        `mapstructure:"timezone"`
	FSRoot              string        `mapstructure:"fs_root"`
	FetchMaxLength      int           `mapstructure:"fetch_max_length"`
	AllowWrite          bool          `mapstructure:"allow_write"`
	FetchTimeout        time.Duration `mapstructure:"fetch_timeout"`
	TimeTimeout         time.Duration `mapstructure:"time_timeout"`
	FilesystemTimeout   time.Duration `mapstructure:"filesystem_timeout"`
	TimeEndpoints       []string      `mapstructure:"time_endpoints"`
	FilesystemEndpoints []string      `mapstructure:"filesystem_endpoints"`
}

// lockMargin is added to TurnBudget when lock_ttl is derived.
const lockMargin = 30 * time.Second

// Session configures transcript storage.
// A zero LockTTL is derived from the turn budget.
type Session struct {
	Store         string        `mapstructure:"store"`
	Dir           string        `mapstructure:"dir"`
	RedisURL      string        `mapstructure:"redis_url"`
	TTL           time.Duration `mapstructure:"ttl"`
	LockTTL       time.Duration `mapstructure:"lock_ttl"`
	EncryptionKey string        `mapstructure:"encryption_key"`
	FallbackKeys  []string      `mapstructure:"fallback_keys"`
	Redact        []string      `mapstructure:"redact"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:   "info",
		Listen:     ":5000",
		Completion: completion.DefaultConfig(),
		Tools: Tools{
			BaseURL:           "http://localhost:8000",
			Timezone:          router.DefaultTimezone,
			FSRoot:            router.DefaultFilesystemRoot,
			FetchMaxLength:    router.DefaultFetchLength,
			FetchTimeout:      gateway.DefaultFetchTimeout,
			TimeTimeout:       gateway.DefaultTimeTimeout,
			FilesystemTimeout: gateway.DefaultFilesystemTimeout,
		},
		Session: Session{
			Store: StoreMemory,
			Dir:   ".courier/sessions",
		},
	}
}

// Load reads path over Default and applies environment overrides.
// A missing file at DefaultPath is not an error; any other missing path is.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := Decode(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	ApplyEnv(&cfg, os.Getenv)
	return cfg, cfg.Validate()
}

// Decode merges YAML data into cfg. Keys absent from data keep their value.
func Decode(data []byte, cfg *Config) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	if raw == nil {
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			durationHook,
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// durationHook accepts "90s" style strings and bare numbers of seconds.
func durationHook(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second, nil
		}
		return time.ParseDuration(v)
	case int:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	}
	return data, nil
}

// ApplyEnv overrides cfg with the COURIER_* variables found by getenv.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.Completion.APIKey, EnvAPIKey)
	set(&cfg.Completion.BaseURL, EnvBaseURL)
	set(&cfg.Completion.Model, EnvModel)
	set(&cfg.Tools.BaseURL, EnvToolsURL)
	set(&cfg.Tools.FSRoot, EnvFSRoot)
	set(&cfg.Tools.Timezone, EnvTimezone)
	if v := strings.TrimSpace(getenv(EnvRedisURL)); v != "" {
		cfg.Session.RedisURL = v
		if cfg.Session.Store == StoreMemory {
			cfg.Session.Store = StoreRedis
		}
	}
}

// Validate reports settings the rest of the program cannot work with.
func (c Config) Validate() error {
	var errs []error
	switch c.Session.Store {
	case StoreMemory, StoreFile:
	case StoreRedis:
		if c.Session.RedisURL == "" {
			errs = append(errs, errors.New("session.redis_url is required for the redis store"))
		}
	default:
		errs = append(errs, fmt.Errorf("session.store: unknown backend %q", c.Session.Store))
	}
	if c.Tools.BaseURL == "" {
		errs = append(errs, errors.New("tools.base_url is required"))
	}
	if c.Completion.Model == "" {
		errs = append(errs, errors.New("completion.model is required"))
	}
	if ttl, budget := c.Session.LockTTL, c.TurnBudget(); ttl != 0 && ttl < budget {
		errs = append(errs, fmt.Errorf("session.lock_ttl %s is below the turn budget %s", ttl, budget))
	}
	return errors.Join(errs...)
}

// TurnBudget is the longest a single turn can take: the slowest tool call
// across all of its candidate endpoints plus one completion.
func (c Config) TurnBudget() time.Duration {
	orDefault := func(d, def time.Duration) time.Duration {
		if d > 0 {
			return d
		}
		return def
	}
	candidates := func(configured []string, defaults []string) time.Duration {
		if len(configured) > 0 {
			return time.Duration(len(configured))
		}
		return time.Duration(len(defaults))
	}

	tool := orDefault(c.Tools.FetchTimeout, gateway.DefaultFetchTimeout)
	tool = max(tool, orDefault(c.Tools.TimeTimeout, gateway.DefaultTimeTimeout)*
		candidates(c.Tools.TimeEndpoints, gateway.TimeEndpoints("")))
	tool = max(tool, orDefault(c.Tools.FilesystemTimeout, gateway.DefaultFilesystemTimeout)*
		candidates(c.Tools.FilesystemEndpoints, gateway.FilesystemEndpoints("")))

	return tool + orDefault(c.Completion.Timeout, completion.DefaultConfig().Timeout)
}

// LockTTL returns session.lock_ttl, or the turn budget plus a margin when unset.
func (c Config) LockTTL() time.Duration {
	if c.Session.LockTTL > 0 {
		return c.Session.LockTTL
	}
	return c.TurnBudget() + lockMargin
}
