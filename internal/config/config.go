// Package config loads CLI configuration from an optional YAML file,
// .env files and AGENTDEMOS_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/hupe1980/agentdemos/fetch"
	"github.com/hupe1980/agentdemos/logging"
	"github.com/hupe1980/agentdemos/session"
)

// EnvPrefix prefixes every environment override, e.g. AGENTDEMOS_PROVIDER.
const EnvPrefix = "AGENTDEMOS"

// Providers lists the supported model providers.
var Providers = []string{"openai", "anthropic", "mock"}

// Memory strategies for multi-turn chats.
const (
	MemoryTokenWindow = "token_window"
	MemoryLastN       = "last_n_messages"
	MemoryStateless   = "stateless"
)

// MemoryConfig selects how much chat history is replayed to the model.
type MemoryConfig struct {
	Strategy         string  `mapstructure:"strategy"`
	MaxTurns         int     `mapstructure:"max_turns"`
	IncludeTools     bool    `mapstructure:"include_tools"`
	MaxContextTokens int     `mapstructure:"max_context_tokens"`
	GenerationBuffer float64 `mapstructure:"generation_buffer"`
}

// Config holds the CLI settings.
type Config struct {
	Provider     string        `mapstructure:"provider"`
	Model        string        `mapstructure:"model"`
	LogLevel     string        `mapstructure:"log_level"`
	LogFormat    string        `mapstructure:"log_format"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	MaxTurns     int           `mapstructure:"max_turns"`
	MaxParallel  int           `mapstructure:"max_parallel"`
	Memory       MemoryConfig  `mapstructure:"memory"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Provider:     "openai",
		LogLevel:     "warn",
		LogFormat:    "text",
		FetchTimeout: fetch.DefaultTimeout,
		MaxTurns:     10,
		Memory: MemoryConfig{
			Strategy:         MemoryTokenWindow,
			MaxTurns:         session.DefaultMaxTurns,
			IncludeTools:     true,
			MaxContextTokens: session.DefaultMaxContextTokens,
			GenerationBuffer: session.DefaultGenerationBuffer,
		},
	}
}

// Load reads configuration. An empty path searches for agentdemos.yaml in
// the working directory and $HOME/.agentdemos; a missing file is not an error.
// .env and .env.local are loaded into the process environment first so they
// can carry provider API keys.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("provider", cfg.Provider)
	v.SetDefault("model", cfg.Model)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("fetch_timeout", cfg.FetchTimeout)
	v.SetDefault("max_turns", cfg.MaxTurns)
	v.SetDefault("max_parallel", cfg.MaxParallel)
	v.SetDefault("memory.strategy", cfg.Memory.Strategy)
	v.SetDefault("memory.max_turns", cfg.Memory.MaxTurns)
	v.SetDefault("memory.include_tools", cfg.Memory.IncludeTools)
	v.SetDefault("memory.max_context_tokens", cfg.Memory.MaxContextTokens)
	v.SetDefault("memory.generation_buffer", cfg.Memory.GenerationBuffer)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("agentdemos")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.agentdemos")
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadEnvFiles loads .env.local then .env. Variables already set win.
func loadEnvFiles() {
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if !slices.Contains(Providers, c.Provider) {
		return fmt.Errorf("invalid provider %q (supported: %v)", c.Provider, Providers)
	}
	if _, err := logging.ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log_format %q (supported: text, json)", c.LogFormat)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch_timeout must be positive, got %s", c.FetchTimeout)
	}
	if c.MaxTurns < 1 {
		return fmt.Errorf("max_turns must be at least 1, got %d", c.MaxTurns)
	}
	switch c.Memory.Strategy {
	case MemoryTokenWindow, MemoryLastN, MemoryStateless:
	default:
		return fmt.Errorf("invalid memory.strategy %q", c.Memory.Strategy)
	}
	if c.Memory.GenerationBuffer < 0 || c.Memory.GenerationBuffer >= 1 {
		return fmt.Errorf("memory.generation_buffer must be in [0, 1), got %v", c.Memory.GenerationBuffer)
	}
	return nil
}

// Window returns the chat history window of the memory configuration.
func (c *Config) Window() session.Window {
	switch c.Memory.Strategy {
	case MemoryStateless:
		return session.Stateless{}
	case MemoryLastN:
		return session.LastNTurns{MaxTurns: c.Memory.MaxTurns, IncludeTools: c.Memory.IncludeTools}
	default:
		return session.TokenWindow{MaxContextTokens: c.Memory.MaxContextTokens, GenerationBuffer: c.Memory.GenerationBuffer}
	}
}

// Logger builds the structured logger described by the configuration.
func (c *Config) Logger() logging.Logger {
	level, err := logging.ParseLogLevel(c.LogLevel)
	if err != nil {
		level = logging.LogLevelWarn
	}
	return logging.NewSlogLogger(func(o *logging.Options) {
		o.Level = level
		o.Format = c.LogFormat
	})
}
