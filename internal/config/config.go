package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverRedis = "redis" // Redis 8 / Redis Stack: cache hashes + FT index for facts
	DriverLocal = "local" // badger for the embedding cache, chromem-go for facts
)

// Chat providers.
const (
	ChatProviderOpenAI    = "openai"
	ChatProviderAnthropic = "anthropic"
)

// Config holds the memsearch configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chat      ChatConfig      `yaml:"chat"`
	Expansion ExpansionConfig `yaml:"expansion"`
	Search    SearchConfig    `yaml:"search"`
	Prompts   PromptsConfig   `yaml:"prompts"`
	Import    ImportConfig    `yaml:"import"`
	MCP       MCPConfig       `yaml:"mcp"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// MCPConfig holds MCP tool server settings.
type MCPConfig struct {
	DefaultOwner string `yaml:"default_owner"` // used when a tool call omits owner
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, local (default: redis)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	TimeoutSec       int      `yaml:"timeout_sec"` // per store call on the search path
	HNSWM            int      `yaml:"hnsw_m"`
	HNSWEFConstruct  int      `yaml:"hnsw_ef_construction"`
	DataDir          string   `yaml:"data_dir"` // local driver; empty keeps everything in memory
}

// EmbeddingConfig holds the embedding provider settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// ChatConfig holds the chat model used for query expansion.
type ChatConfig struct {
	Provider   string `yaml:"provider"` // openai, anthropic (default: openai)
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	MaxTokens  int    `yaml:"max_tokens"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// ExpansionConfig holds query expansion retry settings.
type ExpansionConfig struct {
	Enabled           bool `yaml:"enabled"`
	MaxAttempts       int  `yaml:"max_attempts"`
	RetryDelayMS      int  `yaml:"retry_delay_ms"`
	AttemptTimeoutSec int  `yaml:"attempt_timeout_sec"`
}

// SearchConfig holds similarity thresholds and candidate limits.
type SearchConfig struct {
	Threshold         *float64 `yaml:"threshold"`
	ExpandedThreshold *float64 `yaml:"expanded_threshold"`
	MaxCandidates     int      `yaml:"max_candidates"`
}

// PromptsConfig holds the system prompt store settings.
type PromptsConfig struct {
	Path        string `yaml:"path"` // SQLite file; ":memory:" for tests
	CacheTTLSec int    `yaml:"cache_ttl_sec"`
}

// ImportConfig holds bulk fact import settings.
type ImportConfig struct {
	PoolSize int `yaml:"pool_size"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverRedis
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.TimeoutSec <= 0 {
		c.Database.TimeoutSec = 5
	}
	if c.Database.HNSWM <= 0 {
		c.Database.HNSWM = 16
	}
	if c.Database.HNSWEFConstruct <= 0 {
		c.Database.HNSWEFConstruct = 200
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 10
	}
	if c.Chat.Provider == "" {
		c.Chat.Provider = ChatProviderOpenAI
	}
	if c.Chat.MaxTokens <= 0 {
		c.Chat.MaxTokens = 256
	}
	if c.Chat.TimeoutSec <= 0 {
		c.Chat.TimeoutSec = 10
	}
	if c.Expansion.MaxAttempts <= 0 {
		c.Expansion.MaxAttempts = 3
	}
	if c.Expansion.RetryDelayMS < 0 {
		c.Expansion.RetryDelayMS = 0
	}
	if c.Expansion.AttemptTimeoutSec <= 0 {
		c.Expansion.AttemptTimeoutSec = c.Chat.TimeoutSec
	}
	if c.Search.Threshold == nil {
		c.Search.Threshold = ptr(0.4)
	}
	if c.Search.ExpandedThreshold == nil {
		c.Search.ExpandedThreshold = ptr(0.3)
	}
	if c.Search.MaxCandidates <= 0 {
		c.Search.MaxCandidates = 1000
	}
	if c.Prompts.Path == "" {
		c.Prompts.Path = "memsearch.db"
	}
	if c.Prompts.CacheTTLSec <= 0 {
		c.Prompts.CacheTTLSec = 60
	}
	if c.Import.PoolSize <= 0 {
		c.Import.PoolSize = 4
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required")
		}
	case DriverLocal:
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverRedis, DriverLocal, c.Database.Driver)
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	switch c.Chat.Provider {
	case ChatProviderOpenAI, ChatProviderAnthropic:
	default:
		return fmt.Errorf(
			"chat.provider must be %q or %q, got %q", ChatProviderOpenAI, ChatProviderAnthropic, c.Chat.Provider,
		)
	}
	if c.Expansion.Enabled && c.Chat.Model == "" {
		return fmt.Errorf("chat.model is required when expansion is enabled")
	}
	if err := checkThreshold("search.threshold", c.Search.Threshold); err != nil {
		return err
	}
	return checkThreshold("search.expanded_threshold", c.Search.ExpandedThreshold)
}

// Timeout returns the per-request embedding deadline.
func (c EmbeddingConfig) Timeout() time.Duration { return seconds(c.TimeoutSec) }

// Timeout returns the per-request chat deadline.
func (c ChatConfig) Timeout() time.Duration { return seconds(c.TimeoutSec) }

// Timeout returns the per-call store deadline.
func (c DatabaseConfig) Timeout() time.Duration { return seconds(c.TimeoutSec) }

// CacheTTL returns how long a loaded prompt stays cached.
func (c PromptsConfig) CacheTTL() time.Duration { return seconds(c.CacheTTLSec) }

// RetryDelay returns the pause between expansion attempts.
func (c ExpansionConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMS) * time.Millisecond
}

// AttemptTimeout returns the deadline of one expansion attempt.
func (c ExpansionConfig) AttemptTimeout() time.Duration { return seconds(c.AttemptTimeoutSec) }

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func ptr(v float64) *float64 { return &v }

func checkThreshold(name string, v *float64) error {
	if v != nil && (*v < 0 || *v > 1) {
		return fmt.Errorf("%s must be between 0 and 1, got %v", name, *v)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
