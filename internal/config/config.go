// Package config loads server settings from defaults, an optional YAML file and
// the environment, in that order of precedence (environment wins).
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LLM providers.
const (
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Config holds all configuration values.
type Config struct {
	// Listeners
	Port     string `yaml:"port"`
	HTTPPort string `yaml:"http_port"`

	// MongoDB
	MongoURI      string `yaml:"mongodb_uri"`
	MongoDatabase string `yaml:"mongodb_database"`

	// Auth. JWTKeys is "kid:secret,kid2:secret2" and enables key rotation.
	JWTSecret    string        `yaml:"jwt_secret"`
	JWTKeys      string        `yaml:"jwt_keys"`
	JWTActiveKid string        `yaml:"jwt_active_kid"`
	JWTTTL       time.Duration `yaml:"jwt_ttl"`

	// Rate limits, requests per minute
	RateLimitRPM        int `yaml:"rate_limit_rpm"`
	MessageRateLimitRPM int `yaml:"message_rate_limit_rpm"`

	// TLS
	TLSCert    string `yaml:"tls_cert"`
	TLSKey     string `yaml:"tls_key"`
	RequireTLS bool   `yaml:"require_tls"`

	// Generative AI
	LLMProvider     string `yaml:"llm_provider"`
	LLMModel        string `yaml:"llm_model"`
	OpenAIAPIKey    string `yaml:"-"`
	AnthropicAPIKey string `yaml:"-"`
	GeminiAPIKey    string `yaml:"-"`
	OllamaHost      string `yaml:"ollama_host"`

	// Timeouts for the suspending calls of the message pipeline
	AITimeout        time.Duration `yaml:"ai_timeout"`
	SentimentTimeout time.Duration `yaml:"sentiment_timeout"`
	StoreTimeout     time.Duration `yaml:"store_timeout"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`

	// Optional crisis/sentiment keyword overrides
	KeywordsFile string `yaml:"keywords_file"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:                "50051",
		HTTPPort:            "8080",
		MongoDatabase:       "mindcare",
		JWTTTL:              7 * 24 * time.Hour,
		RateLimitRPM:        10,
		MessageRateLimitRPM: 30,
		LLMProvider:         ProviderOpenAI,
		LLMModel:            "gpt-3.5-turbo",
		OllamaHost:          "http://localhost:11434",
		AITimeout:           15 * time.Second,
		SentimentTimeout:    5 * time.Second,
		StoreTimeout:        5 * time.Second,
		LogFile:             "/tmp/mindcare.log",
		LogLevel:            slog.LevelInfo,
	}
}

// Load reads configuration: defaults, then the YAML file named by
// MINDCARE_CONFIG (if any), then environment variables.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("MINDCARE_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var file struct {
		Config   `yaml:",inline"`
		LogLevel string `yaml:"log_level"`
	}
	file.Config = *c
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	*c = file.Config
	if file.LogLevel != "" {
		c.LogLevel = parseLogLevel(file.LogLevel)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.HTTPPort = getEnv("HTTP_PORT", c.HTTPPort)

	c.MongoURI = getEnv("MONGODB_URI", c.MongoURI)
	c.MongoDatabase = getEnv("MONGODB_DATABASE", c.MongoDatabase)

	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTKeys = getEnv("JWT_KEYS", c.JWTKeys)
	c.JWTActiveKid = getEnv("JWT_ACTIVE_KID", c.JWTActiveKid)
	c.JWTTTL = getDuration("JWT_TTL", c.JWTTTL)

	c.RateLimitRPM = getInt("RATE_LIMIT_RPM", c.RateLimitRPM)
	c.MessageRateLimitRPM = getInt("MESSAGE_RATE_LIMIT_RPM", c.MessageRateLimitRPM)

	c.TLSCert = getEnv("TLS_CERT", c.TLSCert)
	c.TLSKey = getEnv("TLS_KEY", c.TLSKey)
	c.RequireTLS = getEnv("REQUIRE_TLS", strconv.FormatBool(c.RequireTLS)) == "true"

	c.LLMProvider = strings.ToLower(getEnv("LLM_PROVIDER", c.LLMProvider))
	c.LLMModel = getEnv("LLM_MODEL", c.LLMModel)
	c.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.AnthropicAPIKey = getEnv("ANTHROPIC_API_KEY", c.AnthropicAPIKey)
	c.GeminiAPIKey = getEnv("GEMINI_API_KEY", c.GeminiAPIKey)
	c.OllamaHost = getEnv("OLLAMA_HOST", c.OllamaHost)

	c.AITimeout = getDuration("AI_TIMEOUT", c.AITimeout)
	c.SentimentTimeout = getDuration("SENTIMENT_TIMEOUT", c.SentimentTimeout)
	c.StoreTimeout = getDuration("STORE_TIMEOUT", c.StoreTimeout)

	c.LogFile = getEnv("LOG_FILE", c.LogFile)
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = parseLogLevel(v)
	}

	c.KeywordsFile = getEnv("KEYWORDS_FILE", c.KeywordsFile)
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.MongoURI == "" {
		errs = append(errs, errors.New("MONGODB_URI must be set"))
	}
	if c.JWTSecret == "" && c.JWTKeys == "" {
		errs = append(errs, errors.New("either JWT_SECRET or JWT_KEYS must be set"))
	}
	if c.JWTKeys != "" {
		if _, err := c.ParseJWTKeys(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.RequireTLS && (c.TLSCert == "" || c.TLSKey == "") {
		errs = append(errs, errors.New("REQUIRE_TLS is true but TLS_CERT/TLS_KEY are not configured"))
	}
	return errors.Join(errs...)
}

// ParseJWTKeys parses JWTKeys ("kid:secret,kid2:secret2") into a map.
func (c Config) ParseJWTKeys() (map[string]string, error) {
	keys := map[string]string{}
	for _, p := range strings.Split(c.JWTKeys, ",") {
		if p == "" {
			continue
		}
		parts := strings.SplitN(p, ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid JWT_KEYS entry: %s", p)
		}
		keys[parts[0]] = parts[1]
	}
	return keys, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
