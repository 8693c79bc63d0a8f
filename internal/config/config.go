// Package config resolves the run configuration from defaults, an optional
// YAML file, STEPWISE_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/stepwise/internal/adapters/file"
	"github.com/aretw0/stepwise/internal/logging"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/persistence/middleware"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides (STEPWISE_GOAL, STEPWISE_NO_INTERACTIVE...).
const EnvPrefix = "STEPWISE"

// Config is the resolved configuration of one invocation.
type Config struct {
	Domain   string `mapstructure:"domain"`
	Goal     string `mapstructure:"goal"`
	Fallback bool   `mapstructure:"fallback"`
	Steps    int    `mapstructure:"steps"`
	Depth    string `mapstructure:"depth"`
	Output   string `mapstructure:"output"`

	Auto          bool   `mapstructure:"auto"`
	NoInteractive bool   `mapstructure:"no_interactive"`
	OnFailure     string `mapstructure:"on_failure"`

	Session  string        `mapstructure:"session"`
	Fresh    bool          `mapstructure:"fresh"`
	Store    string        `mapstructure:"store"`
	StoreTTL time.Duration `mapstructure:"store_ttl"`

	// StoreKey encrypts checkpoints at rest (32 bytes, base64 or hex).
	// StoreKeyPrevious still decrypts checkpoints written before a rotation.
	StoreKey         string `mapstructure:"store_key"`
	StoreKeyPrevious string `mapstructure:"store_key_previous"`
	Redact           bool   `mapstructure:"redact"`

	Templates string `mapstructure:"templates"`
	Model     string `mapstructure:"model"`
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`

	MetricsAddr string `mapstructure:"metrics_addr"`
	LogFormat   string `mapstructure:"log_format"`
	Debug       bool   `mapstructure:"debug"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Steps:     domain.DefaultMaxSteps,
		Depth:     string(domain.DepthMedium),
		OnFailure: string(domain.FailHalt),
		Store:     file.DefaultDir,
		LogFormat: string(logging.FormatText),
	}
}

// Error reports an unusable configuration value.
type Error struct {
	Field string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %v", e.Field, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"domain":         "domain",
	"goal":           "goal",
	"fallback":       "fallback",
	"steps":          "steps",
	"depth":          "depth",
	"output":         "output",
	"auto":           "auto",
	"no-interactive": "no_interactive",
	"on-failure":     "on_failure",
	"session":        "session",
	"fresh":          "fresh",
	"store":          "store",
	"store-ttl":      "store_ttl",
	"redact":         "redact",
	"templates":      "templates",
	"model":          "model",
	"base-url":       "base_url",
	"api-key":        "api_key",
	"metrics-addr":   "metrics_addr",
	"log-format":     "log_format",
	"debug":          "debug",
}

// RegisterFlags declares the run flags on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.StringP("domain", "d", "", "Planning domain: documentation, cicd, data or custom")
	fs.StringP("goal", "g", "", "What the plan should accomplish")
	fs.BoolP("fallback", "f", false, "Use the offline template planner instead of an LLM")
	fs.IntP("steps", "s", d.Steps, "Maximum number of planned steps")
	fs.String("depth", d.Depth, "Planning depth: shallow, medium or deep")
	fs.StringP("output", "o", "", "Write the final state to this JSON file")
	fs.Bool("auto", false, "Execute every step without asking")
	fs.Bool("no-interactive", false, "Never prompt; implies --auto")
	fs.String("on-failure", d.OnFailure, "What --auto does after a failed step: halt or continue")
	fs.String("session", "", "Checkpoint the run under this ID and resume it when present")
	fs.Bool("fresh", false, "Discard an existing checkpoint before starting")
	fs.String("store", d.Store, "Checkpoint store: directory, sqlite://path.db, redis://host:port/db or memory://")
	fs.Duration("store-ttl", 0, "Expire Redis checkpoints after this long (0 keeps them)")
	fs.Bool("redact", false, "Mask credentials in checkpoints before they are stored")
	fs.String("templates", "", "YAML file replacing the built-in offline templates")
	fs.String("model", "", "LLM model name")
	fs.String("base-url", "", "OpenAI-compatible API base URL")
	fs.String("api-key", "", "LLM API key (defaults to $OPENAI_API_KEY)")
	fs.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	fs.String("config", "", "Configuration file (default ./stepwise.yaml or $HOME/.stepwise/stepwise.yaml)")
	fs.String("log-format", d.LogFormat, "Log format: text or json")
	fs.Bool("debug", false, "Enable debug logging to stderr")
}

// Load resolves the configuration. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	cfg := Default()
	v := viper.New()

	v.SetDefault("domain", cfg.Domain)
	v.SetDefault("goal", cfg.Goal)
	v.SetDefault("fallback", cfg.Fallback)
	v.SetDefault("steps", cfg.Steps)
	v.SetDefault("depth", cfg.Depth)
	v.SetDefault("output", cfg.Output)
	v.SetDefault("auto", cfg.Auto)
	v.SetDefault("no_interactive", cfg.NoInteractive)
	v.SetDefault("on_failure", cfg.OnFailure)
	v.SetDefault("session", cfg.Session)
	v.SetDefault("fresh", cfg.Fresh)
	v.SetDefault("store", cfg.Store)
	v.SetDefault("store_ttl", cfg.StoreTTL)
	v.SetDefault("store_key", cfg.StoreKey)
	v.SetDefault("store_key_previous", cfg.StoreKeyPrevious)
	v.SetDefault("redact", cfg.Redact)
	v.SetDefault("templates", cfg.Templates)
	v.SetDefault("model", cfg.Model)
	v.SetDefault("base_url", cfg.BaseURL)
	v.SetDefault("metrics_addr", cfg.MetricsAddr)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("debug", cfg.Debug)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("api_key", EnvPrefix+"_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, err
	}

	var configFile string
	if flags != nil {
		configFile, _ = flags.GetString("config")
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("stepwise")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.stepwise")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read configuration file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.Goal = strings.TrimSpace(cfg.Goal)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values shared by every command.
func (c *Config) Validate() error {
	if c.Domain != "" {
		if _, err := domain.ParseDomain(c.Domain); err != nil {
			return &Error{Field: "domain", Err: err}
		}
	}
	if _, err := domain.ParseDepth(c.Depth); err != nil {
		return &Error{Field: "depth", Err: err}
	}
	if c.Steps < 0 {
		return &Error{Field: "steps", Err: fmt.Errorf("must be positive, got %d", c.Steps)}
	}
	if _, err := domain.ParseFailurePolicy(c.OnFailure); err != nil {
		return &Error{Field: "on-failure", Err: err}
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		return &Error{Field: "log-format", Err: err}
	}
	if c.StoreTTL < 0 {
		return &Error{Field: "store-ttl", Err: fmt.Errorf("must not be negative")}
	}
	if c.StoreKey != "" {
		if _, err := middleware.ParseKey(c.StoreKey); err != nil {
			return &Error{Field: "store_key", Err: err}
		}
	}
	if c.StoreKeyPrevious != "" {
		if c.StoreKey == "" {
			return &Error{Field: "store_key_previous", Err: fmt.Errorf("requires store_key")}
		}
		if _, err := middleware.ParseKey(c.StoreKeyPrevious); err != nil {
			return &Error{Field: "store_key_previous", Err: err}
		}
	}
	return nil
}

// ValidateRun adds the checks specific to running a plan.
// A missing goal is only an error when nobody can be asked for one and no
// session could be resumed instead.
func (c *Config) ValidateRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Fresh && c.Session == "" {
		return &Error{Field: "fresh", Err: fmt.Errorf("requires --session")}
	}
	if !c.CanPrompt() && c.Goal == "" && c.Session == "" {
		return &Error{Field: "goal", Err: domain.ErrMissingGoal}
	}
	return nil
}

// Interactive reports whether the user is asked what to do with each step.
func (c *Config) Interactive() bool {
	return !c.Auto && !c.NoInteractive
}

// CanPrompt reports whether missing inputs may be asked for.
func (c *Config) CanPrompt() bool {
	return !c.NoInteractive
}

// ParsedDomain returns the configured domain, or "" when unset.
func (c *Config) ParsedDomain() domain.Domain {
	d, _ := domain.ParseDomain(c.Domain)
	return d
}

// PlannerConfig converts the planning knobs.
func (c *Config) PlannerConfig() domain.PlannerConfig {
	pc := domain.DefaultPlannerConfig()
	if c.Steps > 0 {
		pc.MaxSteps = c.Steps
	}
	if d, err := domain.ParseDepth(c.Depth); err == nil {
		pc.Depth = d
	}
	pc.Fallback = c.Fallback
	return pc
}

// StoreMiddlewares returns the decorators applied to the checkpoint store,
// outermost first.
func (c *Config) StoreMiddlewares() ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if c.Redact {
		mws = append(mws, middleware.NewRedactMiddleware(middleware.DefaultSecretPatterns))
	}
	if c.StoreKey != "" {
		active, err := middleware.ParseKey(c.StoreKey)
		if err != nil {
			return nil, &Error{Field: "store_key", Err: err}
		}
		enc := middleware.EncryptionConfig{ActiveKey: active}
		if c.StoreKeyPrevious != "" {
			prev, err := middleware.ParseKey(c.StoreKeyPrevious)
			if err != nil {
				return nil, &Error{Field: "store_key_previous", Err: err}
			}
			enc.FallbackKeys = [][]byte{prev}
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(enc))
	}
	return mws, nil
}

// FailurePolicy returns the configured policy.
func (c *Config) FailurePolicy() domain.FailurePolicy {
	p, err := domain.ParseFailurePolicy(c.OnFailure)
	if err != nil {
		return domain.FailHalt
	}
	return p
}
