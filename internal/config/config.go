package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for vikingclaw.
type Config struct {
	Qdrant   QdrantConfig   `mapstructure:"qdrant"`
	Embedder EmbedderConfig `mapstructure:"embedder"`
	Claude   ClaudeConfig   `mapstructure:"claude"`
	Memory   MemoryConfig   `mapstructure:"memory"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	API      APIConfig      `mapstructure:"api"`
}

// QdrantConfig holds Qdrant vector database connection settings.
type QdrantConfig struct {
	Host       string `mapstructure:"host"`
	GRPCPort   int    `mapstructure:"grpc_port"`
	Collection string `mapstructure:"collection"`
	UseTLS     bool   `mapstructure:"use_tls"`
}

// EmbedderConfig selects and configures the embedding backend.
type EmbedderConfig struct {
	// Provider is "ollama" or "openai".
	Provider      string `mapstructure:"provider"`
	OllamaBaseURL string `mapstructure:"ollama_base_url"`
	OllamaModel   string `mapstructure:"ollama_model"`
	OpenAIAPIKey  string `mapstructure:"openai_api_key"`
	OpenAIModel   string `mapstructure:"openai_model"`
	Dimension     int    `mapstructure:"dimension"`
}

// ClaudeConfig holds Anthropic Claude API settings.
type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// String returns a safe representation with the API key masked.
func (c ClaudeConfig) String() string {
	return fmt.Sprintf("ClaudeConfig{APIKey:%s, Model:%s}", maskAPIKey(c.APIKey), c.Model)
}

// maskAPIKey shows first 4 + last 4 chars, replacing the middle.
func maskAPIKey(key string) string {
	const visible = 4
	if len(key) <= visible*2 {
		return "***"
	}
	return key[:visible] + "****" + key[len(key)-visible:]
}

// MemoryConfig holds context hierarchy and retrieval settings.
type MemoryConfig struct {
	// FSRoot is the local directory the viking:// hierarchy maps to.
	FSRoot            string `mapstructure:"fs_root"`
	MaxRecentMessages int    `mapstructure:"max_recent_messages"`
	PerQueryLimit     int    `mapstructure:"per_query_limit"`
	VectorDimension   uint64 `mapstructure:"vector_dimension"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	AuthToken  string `mapstructure:"auth_token"`
}

// Load reads configuration from file and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("qdrant.host", "localhost")
	v.SetDefault("qdrant.grpc_port", 6334)
	v.SetDefault("qdrant.collection", "context")
	v.SetDefault("qdrant.use_tls", false)

	v.SetDefault("embedder.provider", "ollama")
	v.SetDefault("embedder.ollama_base_url", "http://localhost:11434")
	v.SetDefault("embedder.ollama_model", "nomic-embed-text")
	v.SetDefault("embedder.openai_model", "text-embedding-3-small")
	v.SetDefault("embedder.dimension", 768)

	v.SetDefault("claude.model", "claude-haiku-4-5-20251001")

	v.SetDefault("memory.fs_root", filepath.Join(homeDir(), ".vikingclaw", "contexts"))
	v.SetDefault("memory.max_recent_messages", 5)
	v.SetDefault("memory.per_query_limit", 10)
	v.SetDefault("memory.vector_dimension", 768)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("api.listen_addr", ":8080")
	v.SetDefault("api.auth_token", "")

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(homeDir(), ".vikingclaw"))
	v.AddConfigPath(".")

	// Environment variables
	v.SetEnvPrefix("VIKINGCLAW")
	v.AutomaticEnv()

	_ = v.BindEnv("claude.api_key", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("embedder.openai_api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("qdrant.host", "VIKINGCLAW_QDRANT_HOST")
	_ = v.BindEnv("qdrant.grpc_port", "VIKINGCLAW_QDRANT_GRPC_PORT")
	_ = v.BindEnv("embedder.ollama_base_url", "VIKINGCLAW_OLLAMA_BASE_URL")
	_ = v.BindEnv("memory.fs_root", "VIKINGCLAW_FS_ROOT")
	_ = v.BindEnv("api.listen_addr", "VIKINGCLAW_API_LISTEN_ADDR")
	_ = v.BindEnv("api.auth_token", "VIKINGCLAW_API_AUTH_TOKEN")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is fine; defaults and env vars apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are set and
// consistent.
func (c *Config) Validate() error {
	if c.Qdrant.Host == "" {
		return fmt.Errorf("qdrant.host must not be empty")
	}
	if c.Qdrant.Collection == "" {
		return fmt.Errorf("qdrant.collection must not be empty")
	}
	switch c.Embedder.Provider {
	case "ollama":
		if c.Embedder.OllamaBaseURL == "" {
			return fmt.Errorf("embedder.ollama_base_url must not be empty")
		}
	case "openai":
	default:
		return fmt.Errorf("embedder.provider must be ollama or openai, got %q", c.Embedder.Provider)
	}
	if c.Embedder.Dimension <= 0 {
		return fmt.Errorf("embedder.dimension must be greater than 0")
	}
	if c.Memory.MaxRecentMessages <= 0 {
		return fmt.Errorf("memory.max_recent_messages must be greater than 0")
	}
	if c.Memory.PerQueryLimit <= 0 {
		return fmt.Errorf("memory.per_query_limit must be greater than 0")
	}
	if c.Memory.VectorDimension == 0 {
		return fmt.Errorf("memory.vector_dimension must be greater than 0")
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
