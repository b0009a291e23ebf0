// Package config loads the wizard's YAML configuration file, expands
// environment variable references, merges in built-in defaults, and
// validates the result.
package config

import "time"

// Config is the umbrella configuration object returned by Load.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	LLM      LLMConfig      `yaml:"llm"`
	Slack    SlackConfig    `yaml:"slack"`
	Features FeatureFlags   `yaml:"features"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// StoreConfig holds primary-store connection settings (mirrored into
// pkg/store.Config at wiring time).
type StoreConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// LLMConfig holds provider credentials and model defaults.
type LLMConfig struct {
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
}

// SlackConfig holds the optional Slack notifier settings: disabled
// unless explicitly turned on.
type SlackConfig struct {
	Enabled  bool   `yaml:"enabled"`
	TokenEnv string `yaml:"token_env"`
	Channel  string `yaml:"channel"`
}

// FeatureFlags are the environment-driven feature flags.
type FeatureFlags struct {
	IdempotencyLatch bool          `yaml:"idempotency_latch"`
	DeltaMode        bool          `yaml:"delta_mode"`
	SessionTTL       time.Duration `yaml:"-"`
	SessionTTLHours  int           `yaml:"session_ttl_hours"`
	LLMMock          bool          `yaml:"llm_mock"`
	DebugAllowPages  bool          `yaml:"debug_allow_pages"`
}
