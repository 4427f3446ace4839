package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/view-avocats/assistant/internal/domain"
)

// Defaults carried over from the widget backend this service replaces.
const (
	DefaultSystemPrompt = "Vous êtes l'assistant virtuel du cabinet VIEW Avocats. " +
		"Répondez de manière professionnelle et précise aux questions des utilisateurs."
	DefaultContextInstruction = "Appuyez-vous sur les extraits suivants de la documentation du cabinet " +
		"lorsqu'ils sont pertinents. Si la réponse n'y figure pas, dites-le et invitez " +
		"l'utilisateur à contacter le cabinet."
	DefaultFallbackMessage = "Désolé, je rencontre des difficultés techniques. Veuillez réessayer."
	DefaultCORSOrigin      = "https://view-avocats.fr"
)

// Config holds the assistant service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chat      ChatConfig      `yaml:"chat"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Session   SessionConfig   `yaml:"session"`
	Auth      AuthConfig      `yaml:"auth"`
	CORS      CORSConfig      `yaml:"cors"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`       // debug, info, warn, error (default: determined by env)
	File       string `yaml:"file"`        // optional rotating log file
	MaxSizeMB  int    `yaml:"max_size_mb"` // rotation threshold (default 1)
	MaxBackups int    `yaml:"max_backups"` // rotated files kept (default 5)
}

// AuthConfig holds API authentication settings. Empty APIKeys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// CORSConfig holds the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowCredentials *bool    `yaml:"allow_credentials"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port             int `yaml:"port"`
	ReadTimeoutSec   int `yaml:"read_timeout_sec"`
	WriteTimeoutSec  int `yaml:"write_timeout_sec"`
	ShutdownSec      int `yaml:"shutdown_timeout_sec"`
	HealthTimeoutSec int `yaml:"health_timeout_sec"` // per dependency check on /health
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, memory (default: memory)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider            string       `yaml:"provider"` // metrics/budget label
	APIKey              string       `yaml:"api_key"`
	BaseURL             string       `yaml:"base_url"`
	Model               string       `yaml:"model"`
	Dimensions          int          `yaml:"dimensions"`
	TimeoutSec          int          `yaml:"timeout_sec"`
	MaxBatch            int          `yaml:"max_batch"`
	CacheTTLSec         int          `yaml:"cache_ttl_sec"`
	DocumentInstruction string       `yaml:"document_instruction"`
	QueryInstruction    string       `yaml:"query_instruction"`
	Budget              BudgetConfig `yaml:"budget"`
}

// ChatConfig holds chat-completion settings and the user-facing texts.
type ChatConfig struct {
	Provider           string   `yaml:"provider"` // openai, anthropic
	APIKey             string   `yaml:"api_key"`
	BaseURL            string   `yaml:"base_url"`
	Model              string   `yaml:"model"`
	Temperature        *float64 `yaml:"temperature"`
	MaxTokens          int      `yaml:"max_tokens"`
	TimeoutSec         int      `yaml:"timeout_sec"`
	SystemPrompt       string   `yaml:"system_prompt"`
	ContextInstruction string   `yaml:"context_instruction"`
	FallbackMessage    string   `yaml:"fallback_message"`
	MaxMessageChars    int      `yaml:"max_message_chars"`
}

// KnowledgeConfig holds the knowledge base and retrieval settings.
type KnowledgeConfig struct {
	Enabled          bool   `yaml:"enabled"`
	Path             string `yaml:"path"`
	ChunkSize        int    `yaml:"chunk_size"`
	ChunkOverlap     *int   `yaml:"chunk_overlap"`
	TopK             int    `yaml:"top_k"`
	BatchSize        int    `yaml:"batch_size"`
	BuildConcurrency int    `yaml:"build_concurrency"`
}

// SessionConfig holds conversation session settings.
type SessionConfig struct {
	IdleTTLSec       int  `yaml:"idle_ttl_sec"`
	MaxSessions      int  `yaml:"max_sessions"`
	Transcript       bool `yaml:"transcript"`
	TranscriptTTLSec int  `yaml:"transcript_ttl_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path. A .env file in the working
// directory is loaded first; variables already set in the environment win.
func LoadFile(configPath string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

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

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	c.HTTP.applyDefaults()
	c.Database.applyDefaults()
	c.Embedding.applyDefaults()
	c.Chat.applyDefaults()
	c.Knowledge.applyDefaults()
	c.Session.applyDefaults()
	c.Logging.applyDefaults()
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{DefaultCORSOrigin}
	}
	if c.CORS.AllowCredentials == nil {
		c.CORS.AllowCredentials = ptr(true)
	}
}

func (l *LoggingConfig) applyDefaults() {
	if l.MaxSizeMB == 0 {
		l.MaxSizeMB = 1
	}
	if l.MaxBackups == 0 {
		l.MaxBackups = 5
	}
}

func (h *HTTPConfig) applyDefaults() {
	if h.Port == 0 {
		h.Port = 5000
	}
	if h.ReadTimeoutSec <= 0 {
		h.ReadTimeoutSec = 10
	}
	if h.WriteTimeoutSec <= 0 {
		h.WriteTimeoutSec = 60
	}
	if h.ShutdownSec <= 0 {
		h.ShutdownSec = 10
	}
	if h.HealthTimeoutSec <= 0 {
		h.HealthTimeoutSec = 3
	}
}

func (d *DatabaseConfig) applyDefaults() {
	if d.Driver == "" {
		d.Driver = "memory"
	}
	if d.ReadinessTimeout <= 0 {
		d.ReadinessTimeout = 10
	}
}

func (e *EmbeddingConfig) applyDefaults() {
	if e.Provider == "" {
		e.Provider = "openai"
	}
	if e.Model == "" {
		e.Model = "text-embedding-3-small"
	}
	if e.TimeoutSec <= 0 {
		e.TimeoutSec = 30
	}
	if e.MaxBatch <= 0 {
		e.MaxBatch = 256
	}
	if e.CacheTTLSec <= 0 {
		e.CacheTTLSec = 30 * 24 * 3600
	}
}

func (ch *ChatConfig) applyDefaults() {
	if ch.Provider == "" {
		ch.Provider = "openai"
	}
	if ch.Model == "" {
		ch.Model = "gpt-4o-mini"
	}
	if ch.Temperature == nil {
		ch.Temperature = ptr(0.7)
	}
	if ch.MaxTokens <= 0 {
		ch.MaxTokens = 500
	}
	if ch.TimeoutSec <= 0 {
		ch.TimeoutSec = 30
	}
	if ch.SystemPrompt == "" {
		ch.SystemPrompt = DefaultSystemPrompt
	}
	if ch.ContextInstruction == "" {
		ch.ContextInstruction = DefaultContextInstruction
	}
	if ch.FallbackMessage == "" {
		ch.FallbackMessage = DefaultFallbackMessage
	}
	if ch.MaxMessageChars <= 0 {
		ch.MaxMessageChars = 2000
	}
}

func (k *KnowledgeConfig) applyDefaults() {
	if k.ChunkSize <= 0 {
		k.ChunkSize = 1000
	}
	if k.ChunkOverlap == nil {
		k.ChunkOverlap = ptr(200)
	}
	if k.TopK <= 0 {
		k.TopK = 3
	}
	if k.BatchSize <= 0 {
		k.BatchSize = 64
	}
	if k.BuildConcurrency <= 0 {
		k.BuildConcurrency = 4
	}
}

func (s *SessionConfig) applyDefaults() {
	if s.IdleTTLSec <= 0 {
		s.IdleTTLSec = 1800
	}
	if s.MaxSessions <= 0 {
		s.MaxSessions = 1000
	}
	if s.TranscriptTTLSec <= 0 {
		s.TranscriptTTLSec = 7 * 24 * 3600
	}
}

// Validate checks the configuration for correctness. Every failure matches domain.ErrConfig.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return domain.NewConfigError("http.port", fmt.Sprintf("must be between 1 and 65535, got %d", c.HTTP.Port))
	}

	switch c.Database.Driver {
	case "memory":
	case "redis":
		if len(c.Database.Addrs) == 0 {
			return domain.NewConfigError("database.addrs", "is required for the redis driver")
		}
	default:
		return domain.NewConfigError("database.driver", fmt.Sprintf("must be \"redis\" or \"memory\", got %q", c.Database.Driver))
	}

	switch c.Chat.Provider {
	case "openai", "anthropic":
	default:
		return domain.NewConfigError("chat.provider", fmt.Sprintf("must be \"openai\" or \"anthropic\", got %q", c.Chat.Provider))
	}
	if c.Chat.APIKey == "" {
		return domain.NewConfigError("chat.api_key", "is required")
	}
	if t := *c.Chat.Temperature; t < 0 || t > 2 {
		return domain.NewConfigError("chat.temperature", fmt.Sprintf("must be between 0 and 2, got %g", t))
	}

	switch c.Embedding.Budget.Action {
	case "", "warn", "reject":
	default:
		return domain.NewConfigError("embedding.budget.action",
			fmt.Sprintf("must be \"warn\" or \"reject\", got %q", c.Embedding.Budget.Action))
	}

	if c.Knowledge.Enabled {
		if c.Knowledge.Path == "" {
			return domain.NewConfigError("knowledge.path", "is required when knowledge is enabled")
		}
		if c.Embedding.APIKey == "" {
			return domain.NewConfigError("embedding.api_key", "is required when knowledge is enabled")
		}
	}
	if c.Knowledge.ChunkSize <= 0 {
		return domain.NewConfigError("knowledge.chunk_size", fmt.Sprintf("must be positive, got %d", c.Knowledge.ChunkSize))
	}
	if o := *c.Knowledge.ChunkOverlap; o < 0 || o >= c.Knowledge.ChunkSize {
		return domain.NewConfigError("knowledge.chunk_overlap",
			fmt.Sprintf("must be in [0, %d), got %d", c.Knowledge.ChunkSize, o))
	}

	if c.Session.Transcript && c.Database.Driver != "redis" {
		return domain.NewConfigError("session.transcript", "requires the redis driver")
	}
	return nil
}

// Overlap returns the configured chunk overlap.
func (k KnowledgeConfig) Overlap() int {
	if k.ChunkOverlap == nil {
		return 0
	}
	return *k.ChunkOverlap
}

func ptr[T any](v T) *T { return &v }

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// relative to the source file, for tests run from a package directory
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b)))
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

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
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
