package config

import (
	"fmt"
	"strings"
	"time"
)

// Provider names accepted in AI_PROVIDERS
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

const (
	DefaultQuestionCount = 5
	MaxQuestionCount     = 10
)

// OpenAIConfig configures the OpenAI chat completions provider
type OpenAIConfig struct {
	APIKey  string `yaml:"-" json:"-"` // Never serialize
	BaseURL string `yaml:"base_url" json:"baseUrl"`
	Model   string `yaml:"model" json:"model"`
}

// GeminiConfig configures the Gemini provider
type GeminiConfig struct {
	APIKey  string `yaml:"-" json:"-"` // Never serialize
	BaseURL string `yaml:"base_url" json:"baseUrl"`
	Model   string `yaml:"model" json:"model"`
}

// AIConfig holds all AI-related configuration
type AIConfig struct {
	// Providers is the ordered provider chain; providers without a key are skipped
	Providers     []string     `yaml:"providers" json:"providers"`
	OpenAI        OpenAIConfig `yaml:"openai" json:"openai"`
	Gemini        GeminiConfig `yaml:"gemini" json:"gemini"`
	TimeoutMS     int          `yaml:"timeout_ms" json:"timeoutMs"`
	QuestionCount int          `yaml:"question_count" json:"questionCount"`
}

// DefaultAIConfig returns the AI configuration before file and env overrides
func DefaultAIConfig() AIConfig {
	return AIConfig{
		Providers: []string{ProviderOpenAI, ProviderGemini},
		OpenAI: OpenAIConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.0-flash",
		},
		TimeoutMS:     35000,
		QuestionCount: DefaultQuestionCount,
	}
}

// IsEnabled returns true if at least one provider in the chain has a key
func (c AIConfig) IsEnabled() bool {
	return len(c.EnabledProviders()) > 0
}

// ProviderNames returns the configured chain order, lower-cased and without duplicates
func (c AIConfig) ProviderNames() []string {
	out := make([]string, 0, len(c.Providers))
	seen := map[string]bool{}
	for _, name := range c.Providers {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// ValidateProviders rejects names that are not a known provider
func (c AIConfig) ValidateProviders() error {
	for _, name := range c.ProviderNames() {
		if name != ProviderOpenAI && name != ProviderGemini {
			return fmt.Errorf("unknown AI provider %q (want %s or %s)", name, ProviderOpenAI, ProviderGemini)
		}
	}
	return nil
}

// EnabledProviders returns the configured chain order filtered to providers with a key.
// Unknown names are kept so NewChain can reject them.
func (c AIConfig) EnabledProviders() []string {
	out := make([]string, 0, len(c.Providers))
	for _, name := range c.ProviderNames() {
		switch name {
		case ProviderOpenAI:
			if c.OpenAI.APIKey != "" {
				out = append(out, name)
			}
		case ProviderGemini:
			if c.Gemini.APIKey != "" {
				out = append(out, name)
			}
		default:
			out = append(out, name)
		}
	}
	return out
}

// Timeout returns the per-request generation budget
func (c AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}
