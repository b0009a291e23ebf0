package config

import "fmt"

// Validate fail-fast checks the merged configuration before the process
// serves traffic.
func Validate(cfg *Config) error {
	var problems []string

	if cfg.Store.Host == "" {
		problems = append(problems, "store.host is required")
	}
	if cfg.Store.Database == "" {
		problems = append(problems, "store.database is required")
	}
	if cfg.Store.User == "" {
		problems = append(problems, "store.user is required")
	}
	if !cfg.Features.LLMMock && cfg.LLM.APIKey == "" {
		problems = append(problems, "llm.api_key is required unless features.llm_mock is set")
	}
	if cfg.Features.SessionTTLHours <= 0 {
		problems = append(problems, "features.session_ttl_hours must be positive")
	}
	if cfg.Slack.Enabled && cfg.Slack.TokenEnv == "" {
		problems = append(problems, "slack.token_env is required when slack.enabled is true")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %v", ErrValidation, problems)
	}
	return nil
}
