package config

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv("QUESTION_COUNT", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultQuestionCount, cfg.AI.QuestionCount)
	assert.Equal(t, 35*time.Second, cfg.AI.Timeout())
	assert.Equal(t, 5*time.Minute, cfg.Security.NonceTTL)
	assert.False(t, cfg.AI.IsEnabled())
}

func TestQuestionCountOverride(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"valid", "7", 7},
		{"empty keeps default", "", DefaultQuestionCount},
		{"not a number", "five", DefaultQuestionCount},
		{"zero", "0", DefaultQuestionCount},
		{"too large", "11", DefaultQuestionCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("QUESTION_COUNT", tt.raw)
			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.AI.QuestionCount)
		})
	}
}

func TestEnabledProvidersKeepsOrderAndSkipsMissingKeys(t *testing.T) {
	t.Setenv("AI_PROVIDERS", "gemini, OpenAI ,gemini")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{ProviderOpenAI}, cfg.AI.EnabledProviders())

	cfg.AI.Gemini.APIKey = "g-key"
	assert.Equal(t, []string{ProviderGemini, ProviderOpenAI}, cfg.AI.EnabledProviders())
}

func TestLoadYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pilotscope.yaml")
	content := `
http_port: "9090"
ai:
  question_count: 3
  timeout_ms: 1000
security:
  rate_limit_per_minute: 4
  nonce_ttl: 2m
cors:
  allowed_parent_origin: https://parent.example
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv(EnvConfigPath, path)
	t.Setenv("PORT", "7070")
	t.Setenv("QUESTION_COUNT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.HTTPPort)
	assert.Equal(t, 3, cfg.AI.QuestionCount)
	assert.Equal(t, time.Second, cfg.AI.Timeout())
	assert.Equal(t, 4, cfg.Security.RateLimitPerMinute)
	assert.Equal(t, 2*time.Minute, cfg.Security.NonceTTL)
	assert.Equal(t, "https://parent.example", cfg.CORS.AllowedParentOrigin)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	t.Setenv(EnvConfigPath, filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	require.Error(t, err)
}

func TestRedisAddr(t *testing.T) {
	cfg := Default()
	cfg.Stores.RedisURI = "redis://cache:6379"
	assert.Equal(t, "cache:6379", cfg.RedisAddr())
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv("AI_PROVIDERS", "openai,gemnii")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemnii")

	cfg := DefaultAIConfig()
	cfg.Providers = []string{"openai", "claude"}
	assert.Equal(t, []string{"claude"}, cfg.EnabledProviders(), "unknown names reach the chain builder")
}

func TestTrustedProxies(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.10,2001:db8::1")

	cfg, err := Load()
	require.NoError(t, err)
	nets, err := cfg.Security.TrustedProxyNets()
	require.NoError(t, err)
	require.Len(t, nets, 3)
	assert.True(t, nets[0].Contains(net.ParseIP("10.1.2.3")))
	assert.True(t, nets[1].Contains(net.ParseIP("192.0.2.10")))
	assert.False(t, nets[1].Contains(net.ParseIP("192.0.2.11")))
	assert.True(t, nets[2].Contains(net.ParseIP("2001:db8::1")))

	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,not-an-ip")
	_, err = Load()
	assert.Error(t, err)
}
