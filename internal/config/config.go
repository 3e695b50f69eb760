package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath points at an optional YAML file applied before env overrides
const EnvConfigPath = "PILOTSCOPE_CONFIG"

// Config is the full service configuration
type Config struct {
	HTTPPort     string         `yaml:"http_port"`
	LogMode      string         `yaml:"log_mode"`
	MaxBodyBytes int64          `yaml:"max_body_bytes"`
	AI           AIConfig       `yaml:"ai"`
	Security     SecurityConfig `yaml:"security"`
	Stores       StoresConfig   `yaml:"stores"`
	CORS         CORSConfig     `yaml:"cors"`
	Tracing      TracingConfig  `yaml:"tracing"`
}

// SecurityConfig covers request signing, rate limiting and session tokens
type SecurityConfig struct {
	HMACSecret         string        `yaml:"-"`
	JWTSecret          string        `yaml:"-"`
	SignatureMaxSkew   time.Duration `yaml:"signature_max_skew"`
	NonceTTL           time.Duration `yaml:"nonce_ttl"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"`
	SessionTTL         time.Duration `yaml:"session_ttl"`
	// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For is believed.
	// Empty means the peer address is the caller.
	TrustedProxies     []string      `yaml:"trusted_proxies"`
}

// TrustedProxyNets parses TrustedProxies; bare IPs become single-host networks
func (s SecurityConfig) TrustedProxyNets() ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(s.TrustedProxies))
	for _, raw := range s.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "/") {
			ip := net.ParseIP(raw)
			if ip == nil {
				return nil, fmt.Errorf("trusted proxy %q is not an IP or CIDR", raw)
			}
			bits := 128
			if ip4 := ip.To4(); ip4 != nil {
				ip, bits = ip4, 32
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(raw)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q is not an IP or CIDR", raw)
		}
		nets = append(nets, n)
	}
	return nets, nil
}

// StoresConfig selects backing stores; empty URIs mean in-memory / no-op
type StoresConfig struct {
	RedisURI   string        `yaml:"redis_uri"`
	MongoURI   string        `yaml:"mongo_uri"`
	MongoDB    string        `yaml:"mongo_db"`
	JourneyTTL time.Duration `yaml:"journey_ttl"`
}

// CORSConfig controls cross-origin and iframe embedding headers
type CORSConfig struct {
	AllowedOrigins      string `yaml:"allowed_origins"`
	AllowedParentOrigin string `yaml:"allowed_parent_origin"`
}

// TracingConfig toggles OpenTelemetry export
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	SampleRatio  float64 `yaml:"sample_ratio"`
}

// Default returns the baseline configuration
func Default() *Config {
	return &Config{
		HTTPPort:     "8080",
		LogMode:      "dev",
		MaxBodyBytes: 64 << 10,
		AI:           DefaultAIConfig(),
		Security: SecurityConfig{
			SignatureMaxSkew:   5 * time.Minute,
			NonceTTL:           5 * time.Minute,
			RateLimitPerMinute: 10,
			SessionTTL:         2 * time.Hour,
		},
		Stores: StoresConfig{
			MongoDB:    "pilotscope",
			JourneyTTL: 2 * time.Hour,
		},
		CORS: CORSConfig{
			AllowedOrigins: "*",
		},
		Tracing: TracingConfig{
			SampleRatio: 0.1,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file and the environment
func Load() (*Config, error) {
	cfg := Default()
	if path := strings.TrimSpace(os.Getenv(EnvConfigPath)); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.HTTPPort = getEnv("PORT", c.HTTPPort)
	c.LogMode = getEnv("LOG_MODE", c.LogMode)
	c.MaxBodyBytes = int64(getEnvInt("MAX_BODY_BYTES", int(c.MaxBodyBytes)))

	c.AI.OpenAI.APIKey = getEnv("OPENAI_API_KEY", c.AI.OpenAI.APIKey)
	c.AI.OpenAI.Model = getEnv("OPENAI_MODEL", c.AI.OpenAI.Model)
	c.AI.OpenAI.BaseURL = getEnv("OPENAI_BASE_URL", c.AI.OpenAI.BaseURL)
	c.AI.Gemini.APIKey = getEnv("GEMINI_API_KEY", c.AI.Gemini.APIKey)
	c.AI.Gemini.Model = getEnv("GEMINI_MODEL", c.AI.Gemini.Model)
	c.AI.Gemini.BaseURL = getEnv("GEMINI_BASE_URL", c.AI.Gemini.BaseURL)
	if v := getEnv("AI_PROVIDERS", ""); v != "" {
		c.AI.Providers = strings.Split(v, ",")
	}
	c.AI.TimeoutMS = getEnvInt("AI_TIMEOUT_MS", c.AI.TimeoutMS)
	c.AI.QuestionCount = questionCount(getEnv("QUESTION_COUNT", ""), c.AI.QuestionCount)

	c.Security.HMACSecret = getEnv("HMAC_SECRET", c.Security.HMACSecret)
	c.Security.JWTSecret = getEnv("JWT_SECRET", c.Security.JWTSecret)
	c.Security.SignatureMaxSkew = getEnvDuration("SIGNATURE_MAX_SKEW", c.Security.SignatureMaxSkew)
	c.Security.NonceTTL = getEnvDuration("NONCE_TTL", c.Security.NonceTTL)
	c.Security.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.Security.RateLimitPerMinute)
	if v := getEnv("TRUSTED_PROXIES", ""); v != "" {
		c.Security.TrustedProxies = strings.Split(v, ",")
	}

	c.Stores.RedisURI = getEnv("REDIS_URI", c.Stores.RedisURI)
	c.Stores.MongoURI = getEnv("MONGO_URI", c.Stores.MongoURI)
	c.Stores.MongoDB = getEnv("MONGO_DB", c.Stores.MongoDB)

	c.CORS.AllowedOrigins = getEnv("CORS_ALLOWED_ORIGINS", c.CORS.AllowedOrigins)
	c.CORS.AllowedParentOrigin = getEnv("ALLOWED_PARENT_ORIGIN", c.CORS.AllowedParentOrigin)

	c.Tracing.Enabled = getEnvBool("OTEL_ENABLED", c.Tracing.Enabled)
	c.Tracing.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Tracing.OTLPEndpoint)
}

// Validate rejects configurations the service cannot run with
func (c *Config) Validate() error {
	if c.AI.TimeoutMS <= 0 {
		return fmt.Errorf("ai timeout must be positive, got %d ms", c.AI.TimeoutMS)
	}
	if c.AI.QuestionCount < 1 || c.AI.QuestionCount > MaxQuestionCount {
		return fmt.Errorf("question count must be within 1..%d, got %d", MaxQuestionCount, c.AI.QuestionCount)
	}
	if c.Security.RateLimitPerMinute <= 0 {
		return fmt.Errorf("rate limit per minute must be positive, got %d", c.Security.RateLimitPerMinute)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body bytes must be positive")
	}
	if err := c.AI.ValidateProviders(); err != nil {
		return err
	}
	if _, err := c.Security.TrustedProxyNets(); err != nil {
		return err
	}
	return nil
}

// RedisAddr strips an optional redis:// scheme from the configured URI
func (c *Config) RedisAddr() string {
	return strings.TrimPrefix(c.Stores.RedisURI, "redis://")
}

// questionCount keeps the fallback for unparseable or out-of-range overrides
func questionCount(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > MaxQuestionCount {
		return fallback
	}
	return n
}

func getEnv(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := getEnv(key, "")
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	switch strings.ToLower(getEnv(key, "")) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultVal
	}
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
