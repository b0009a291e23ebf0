package config

import (
	"fmt"
	"os"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// defaultConfig is the merge-over-defaults baseline: Load starts from
// this shape and merges the user's YAML on top with mergo.WithOverride.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Store: StoreConfig{
			Host:         "localhost",
			Port:         5432,
			SSLMode:      "disable",
			MaxOpenConns: 10,
		},
		LLM: LLMConfig{
			Model:       "gemini-2.5-flash",
			Temperature: 0.3,
		},
		Features: FeatureFlags{
			SessionTTLHours: 24,
		},
	}
}

// Load reads .env (if present), loads configPath, expands environment
// variables, merges onto built-in defaults, and validates the result.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load() // optional; absence is not an error

	cfg := defaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, err
	}
	data = ExpandEnv(data)

	var user Config
	if err := yaml.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	if err := mergo.Merge(cfg, user, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("config: merge user config onto defaults: %w", err)
	}

	applyFeatureFlagEnv(cfg)
	cfg.Features.SessionTTL = time.Duration(cfg.Features.SessionTTLHours) * time.Hour

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFeatureFlagEnv lets the environment override feature flags
// without editing the YAML file.
func applyFeatureFlagEnv(cfg *Config) {
	if v := os.Getenv("IDEMPOTENCY_LATCH"); v != "" {
		cfg.Features.IdempotencyLatch = v == "1"
	}
	if v := os.Getenv("DELTA_MODE"); v != "" {
		cfg.Features.DeltaMode = v == "1"
	}
	if v := os.Getenv("LLM_MOCK"); v != "" {
		cfg.Features.LLMMock = v == "1"
	}
	if v := os.Getenv("DEBUG_ALLOW_PAGES"); v != "" {
		cfg.Features.DebugAllowPages = v == "1"
	}
}
