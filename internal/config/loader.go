package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Load reads and parses the configuration file and environment variables
func Load(configPath string) (*Config, *Secrets, error) {
	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse TOML
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply defaults
	applyDefaults(&cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Load secrets from environment
	secrets, err := LoadSecrets()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load secrets: %w", err)
	}

	return &cfg, secrets, nil
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.Models == nil {
		cfg.Models = make(map[string]ModelConfig)
	}

	// Apply defaults for each model
	for name, model := range cfg.Models {
		if model.Temperature == 0 {
			model.Temperature = 0.7
		}
		if model.TopP == 0 {
			model.TopP = 1.0
		}
		if model.MaxOutputTokens == 0 {
			model.MaxOutputTokens = 4096
		}
		if model.RateLimitPerMinute == 0 {
			model.RateLimitPerMinute = 60
		}
		if model.HTTPTimeoutSeconds == 0 {
			model.HTTPTimeoutSeconds = 60
		}
		// NOTE: In TOML, we can't distinguish 0 from unset, so:
		// - Unset (0) → defaults to 42
		// - Explicitly set to -1 → seed omitted from requests
		if model.Seed == 0 {
			model.Seed = 42
		}
		// Same convention for the follow-up budget:
		// - Unset (0) → defaults to 1 (the documented cap)
		// - Explicitly set to -1 → single request/response only
		if model.FollowUpTurns == 0 {
			model.FollowUpTurns = 1
		}
		cfg.Models[name] = model
	}

	// Apply default prompts if not provided
	if cfg.Prompts.ResearcherInstruction == "" {
		cfg.Prompts.ResearcherInstruction = DefaultResearcherInstruction()
	}
	if cfg.Prompts.ResearcherTask == "" {
		cfg.Prompts.ResearcherTask = DefaultResearcherTask()
	}
	if cfg.Prompts.WriterInstruction == "" {
		cfg.Prompts.WriterInstruction = DefaultWriterInstruction()
	}
	if cfg.Prompts.WriterTask == "" {
		cfg.Prompts.WriterTask = DefaultWriterTask()
	}
	if cfg.Prompts.EditorInstruction == "" {
		cfg.Prompts.EditorInstruction = DefaultEditorInstruction()
	}
	if cfg.Prompts.EditorTask == "" {
		cfg.Prompts.EditorTask = DefaultEditorTask()
	}

	// Server defaults
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
}
