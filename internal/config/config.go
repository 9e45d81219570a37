// Package config loads procwise settings from defaults, an optional YAML
// file and environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LLM providers.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
)

// ConfigFileEnv names the environment variable pointing at a YAML config file.
const ConfigFileEnv = "PROCWISE_CONFIG"

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// LLM
	LLMProvider     string
	LLMModel        string
	OllamaHost      string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	AWSRegion       string

	// Search and research
	SourceTimeout    time.Duration
	RefreshTimeout   time.Duration
	BestPracticesTTL time.Duration
	ComplianceTTL    time.Duration
	BenchmarksTTL    time.Duration
	ResearchBreaker  bool

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// keys maps each setting to the environment variable that overrides it.
var keys = map[string]string{
	"surrealdb.url":            "SURREALDB_URL",
	"surrealdb.namespace":      "SURREALDB_NAMESPACE",
	"surrealdb.database":       "SURREALDB_DATABASE",
	"surrealdb.user":           "SURREALDB_USER",
	"surrealdb.pass":           "SURREALDB_PASS",
	"surrealdb.auth_level":     "SURREALDB_AUTH_LEVEL",
	"llm.provider":             "PROCWISE_LLM_PROVIDER",
	"llm.model":                "PROCWISE_LLM_MODEL",
	"llm.ollama_host":          "OLLAMA_HOST",
	"llm.openai_api_key":       "OPENAI_API_KEY",
	"llm.anthropic_api_key":    "ANTHROPIC_API_KEY",
	"llm.aws_region":           "AWS_REGION",
	"search.source_timeout":    "PROCWISE_SOURCE_TIMEOUT",
	"search.refresh_timeout":   "PROCWISE_REFRESH_TIMEOUT",
	"cache.best_practices_ttl": "PROCWISE_BEST_PRACTICES_TTL",
	"cache.compliance_ttl":     "PROCWISE_COMPLIANCE_TTL",
	"cache.benchmarks_ttl":     "PROCWISE_BENCHMARKS_TTL",
	"research.breaker":         "PROCWISE_RESEARCH_BREAKER",
	"log.file":                 "PROCWISE_LOG_FILE",
	"log.level":                "PROCWISE_LOG_LEVEL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("surrealdb.url", "ws://localhost:8000/rpc")
	v.SetDefault("surrealdb.namespace", "procwise")
	v.SetDefault("surrealdb.database", "knowledge")
	v.SetDefault("surrealdb.user", "root")
	v.SetDefault("surrealdb.pass", "root")
	v.SetDefault("surrealdb.auth_level", "root")

	v.SetDefault("llm.provider", ProviderOllama)
	v.SetDefault("llm.model", "llama3.2")
	v.SetDefault("llm.ollama_host", "http://localhost:11434")
	v.SetDefault("llm.aws_region", "us-east-1")

	v.SetDefault("search.source_timeout", 5*time.Second)
	v.SetDefault("search.refresh_timeout", 60*time.Second)
	v.SetDefault("cache.best_practices_ttl", 14*24*time.Hour)
	v.SetDefault("cache.compliance_ttl", 7*24*time.Hour)
	v.SetDefault("cache.benchmarks_ttl", 30*24*time.Hour)
	v.SetDefault("research.breaker", true)

	v.SetDefault("log.file", "/tmp/procwise.log")
	v.SetDefault("log.level", "INFO")
}

// Load reads configuration. The file named by PROCWISE_CONFIG is optional;
// a missing file falls back to defaults and environment.
func Load() (Config, error) {
	return LoadFile(os.Getenv(ConfigFileEnv))
}

// LoadFile reads configuration from path, which may be empty.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	for key, env := range keys {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	cfg := Config{
		SurrealDBURL:       v.GetString("surrealdb.url"),
		SurrealDBNamespace: v.GetString("surrealdb.namespace"),
		SurrealDBDatabase:  v.GetString("surrealdb.database"),
		SurrealDBUser:      v.GetString("surrealdb.user"),
		SurrealDBPass:      v.GetString("surrealdb.pass"),
		SurrealDBAuthLevel: v.GetString("surrealdb.auth_level"),

		LLMProvider:     strings.ToLower(v.GetString("llm.provider")),
		LLMModel:        v.GetString("llm.model"),
		OllamaHost:      v.GetString("llm.ollama_host"),
		OpenAIAPIKey:    v.GetString("llm.openai_api_key"),
		AnthropicAPIKey: v.GetString("llm.anthropic_api_key"),
		AWSRegion:       v.GetString("llm.aws_region"),

		SourceTimeout:    v.GetDuration("search.source_timeout"),
		RefreshTimeout:   v.GetDuration("search.refresh_timeout"),
		BestPracticesTTL: v.GetDuration("cache.best_practices_ttl"),
		ComplianceTTL:    v.GetDuration("cache.compliance_ttl"),
		BenchmarksTTL:    v.GetDuration("cache.benchmarks_ttl"),
		ResearchBreaker:  v.GetBool("research.breaker"),

		LogFile:  v.GetString("log.file"),
		LogLevel: parseLogLevel(v.GetString("log.level")),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.LLMProvider {
	case ProviderOllama, ProviderOpenAI, ProviderAnthropic, ProviderBedrock:
	default:
		return fmt.Errorf("unsupported LLM provider: %s", c.LLMProvider)
	}
	if c.SourceTimeout <= 0 || c.RefreshTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.BestPracticesTTL <= 0 || c.ComplianceTTL <= 0 || c.BenchmarksTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	return nil
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
