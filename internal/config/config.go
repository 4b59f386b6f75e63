package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/lamim/blogforge/pkg/models"
)

// Config represents the complete application configuration
type Config struct {
	Models  map[string]ModelConfig `toml:"models"`
	Prompts PromptConfig           `toml:"prompts"`
	Server  ServerConfig           `toml:"server"`
}

// ModelConfig represents configuration for a single model endpoint
type ModelConfig struct {
	BaseURL            string  `toml:"base_url"`
	ModelName          string  `toml:"model_name"`
	Temperature        float64 `toml:"temperature"`
	TopP               float64 `toml:"top_p"`
	MaxOutputTokens    int     `toml:"max_output_tokens"`
	Seed               int64   `toml:"seed"`                  // Sampling seed for reproducibility (-1 = disabled)
	RateLimitPerMinute int     `toml:"rate_limit_per_minute"`
	HTTPTimeoutSeconds int     `toml:"http_timeout_seconds"`  // HTTP request timeout (default 60, 0 = unset)
	FollowUpTurns      int     `toml:"follow_up_turns"`       // Automatic follow-up budget when output is truncated (max 1, -1 = disabled)
	AllowKeyless       bool    `toml:"allow_keyless"`         // Permit requests without an API key (local inference servers)
}

// PromptConfig holds the role instructions and task-message templates.
// Instructions are sent as the system message; task templates are rendered
// with the topic (researcher) or the prior stage's accepted content.
type PromptConfig struct {
	ResearcherInstruction string `toml:"researcher_instruction"`
	ResearcherTask        string `toml:"researcher_task"`
	WriterInstruction     string `toml:"writer_instruction"`
	WriterTask            string `toml:"writer_task"`
	EditorInstruction     string `toml:"editor_instruction"`
	EditorTask            string `toml:"editor_task"`
}

// ServerConfig holds HTTP entry point settings for serve mode
type ServerConfig struct {
	Port string `toml:"port"`
	Mode string `toml:"mode"` // debug, release
}

// Secrets holds sensitive credentials loaded from environment variables
type Secrets struct {
	APIKeys map[string]string
}

// ModelFor returns the model configuration for a role, falling back to the
// default model when no role-specific override exists.
func (c *Config) ModelFor(role models.Role) ModelConfig {
	if mc, ok := c.Models[string(role)]; ok {
		return mc
	}
	return c.Models["default"]
}

// InstructionFor returns the system instruction text for a role
func (c *Config) InstructionFor(role models.Role) string {
	switch role {
	case models.RoleResearcher:
		return c.Prompts.ResearcherInstruction
	case models.RoleWriter:
		return c.Prompts.WriterInstruction
	case models.RoleEditor:
		return c.Prompts.EditorInstruction
	}
	return ""
}

// TaskTemplateFor returns the task-message template for a role
func (c *Config) TaskTemplateFor(role models.Role) string {
	switch role {
	case models.RoleResearcher:
		return c.Prompts.ResearcherTask
	case models.RoleWriter:
		return c.Prompts.WriterTask
	case models.RoleEditor:
		return c.Prompts.EditorTask
	}
	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, ok := c.Models["default"]; !ok {
		return fmt.Errorf("models.default is required")
	}

	validNames := map[string]bool{"default": true}
	for _, role := range models.Roles {
		validNames[string(role)] = true
	}

	for name, mc := range c.Models {
		if !validNames[name] {
			return fmt.Errorf("models.%s is not a recognized model name (expected default, researcher, writer, or editor)", name)
		}
		if err := validateModelConfig(name, mc); err != nil {
			return err
		}
	}

	for _, role := range models.Roles {
		if c.InstructionFor(role) == "" {
			return fmt.Errorf("prompts.%s_instruction is required", role)
		}
		if c.TaskTemplateFor(role) == "" {
			return fmt.Errorf("prompts.%s_task is required", role)
		}
	}

	if c.Server.Mode != "" && c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("server.mode must be debug or release (got %s)", c.Server.Mode)
	}

	return nil
}

func validateModelConfig(name string, mc ModelConfig) error {
	if mc.BaseURL == "" {
		return fmt.Errorf("models.%s.base_url is required", name)
	}
	if mc.ModelName == "" {
		return fmt.Errorf("models.%s.model_name is required", name)
	}
	if mc.Temperature < 0 || mc.Temperature > 2 {
		return fmt.Errorf("models.%s.temperature must be between 0 and 2", name)
	}
	if mc.TopP < 0 || mc.TopP > 1 {
		return fmt.Errorf("models.%s.top_p must be between 0 and 1", name)
	}
	if mc.MaxOutputTokens < 1 {
		return fmt.Errorf("models.%s.max_output_tokens must be at least 1", name)
	}
	if mc.RateLimitPerMinute < 1 {
		return fmt.Errorf("models.%s.rate_limit_per_minute must be at least 1", name)
	}
	if mc.FollowUpTurns > 1 {
		return fmt.Errorf("models.%s.follow_up_turns must not exceed 1 (got %d)", name, mc.FollowUpTurns)
	}
	return nil
}

// ResolveKeys verifies that every model used by a pipeline role has a usable
// API key. Called at startup so a missing credential fails before any stage
// runs.
func (c *Config) ResolveKeys(s *Secrets) error {
	for _, role := range models.Roles {
		mc := c.ModelFor(role)
		if mc.AllowKeyless {
			continue
		}
		if s.GetAPIKey(mc.BaseURL) == "" {
			return fmt.Errorf("no API key available for %s model (%s): set API_KEY or a provider-specific key, or set allow_keyless", role, mc.BaseURL)
		}
	}
	return nil
}

// LoadSecrets loads sensitive credentials from environment variables
func LoadSecrets() (*Secrets, error) {
	secrets := &Secrets{
		APIKeys: make(map[string]string),
	}

	// Load generic API key (provider-agnostic)
	if key := os.Getenv("API_KEY"); key != "" {
		secrets.APIKeys["generic"] = key
	}

	// Load provider-specific API keys (optional, override generic)
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		secrets.APIKeys["openai"] = key
	}
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		secrets.APIKeys["google"] = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		secrets.APIKeys["google"] = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		secrets.APIKeys["anthropic"] = key
	}
	if key := os.Getenv("TOGETHER_API_KEY"); key != "" {
		secrets.APIKeys["together"] = key
	}

	return secrets, nil
}

// GetAPIKey returns the API key for a given base URL
func (s *Secrets) GetAPIKey(baseURL string) string {
	// Try to match common provider domains (provider-specific keys)
	if contains(baseURL, "openai.com") {
		if key := s.APIKeys["openai"]; key != "" {
			return key
		}
	}
	if contains(baseURL, "googleapis.com") || contains(baseURL, "generativelanguage") {
		if key := s.APIKeys["google"]; key != "" {
			return key
		}
	}
	if contains(baseURL, "anthropic.com") {
		if key := s.APIKeys["anthropic"]; key != "" {
			return key
		}
	}
	if contains(baseURL, "together.xyz") || contains(baseURL, "together.ai") {
		if key := s.APIKeys["together"]; key != "" {
			return key
		}
	}

	// Fall back to generic API_KEY for any OpenAI-compatible provider
	if key := s.APIKeys["generic"]; key != "" {
		return key
	}

	// If no key found, return empty (could be local server without auth)
	return ""
}

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}
