package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the document QA service
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Chunking  ChunkingConfig  `mapstructure:"chunking"`
	Session   SessionConfig   `mapstructure:"session"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Extractor ExtractorConfig `mapstructure:"extractor"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// UploadConfig controls where uploaded PDFs are staged before extraction
type UploadConfig struct {
	Dir string `mapstructure:"dir"`
}

// ChunkingConfig controls the text splitter. Sizes are in characters.
type ChunkingConfig struct {
	Size    int `mapstructure:"size"`
	Overlap int `mapstructure:"overlap"`
}

func (c ChunkingConfig) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("chunking.size must be > 0")
	}
	if c.Overlap < 0 || c.Overlap >= c.Size {
		return fmt.Errorf("chunking.overlap must be in [0, size)")
	}
	return nil
}

// SessionConfig controls session lifetime. Expiry is checked lazily at the
// start of each query-serving request, not by a background sweep.
type SessionConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// ProviderConfig selects and configures the LLM provider
type ProviderConfig struct {
	Kind           string        `mapstructure:"kind"` // openai, local
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	Model          string        `mapstructure:"model"`
	EmbeddingModel string        `mapstructure:"embedding_model"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxInputTokens int           `mapstructure:"max_input_tokens"`
}

func (p ProviderConfig) Validate() error {
	switch p.Kind {
	case "openai":
		if strings.TrimSpace(p.APIKey) == "" {
			return fmt.Errorf("provider.api_key required for openai provider")
		}
	case "local":
		if strings.TrimSpace(p.BaseURL) == "" {
			return fmt.Errorf("provider.base_url required for local provider")
		}
	default:
		return fmt.Errorf("unsupported provider.kind: %s", p.Kind)
	}
	return nil
}

// ExtractorConfig points at the PDF text-extraction sidecar
type ExtractorConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RateLimitConfig holds per-endpoint request budgets. Each budget is the
// number of requests allowed per client within the window.
type RateLimitConfig struct {
	Window    time.Duration `mapstructure:"window"`
	Upload    int           `mapstructure:"upload"`
	Ask       int           `mapstructure:"ask"`
	Summarize int           `mapstructure:"summarize"`
	Compare   int           `mapstructure:"compare"`
}

// LoadConfig loads config from an optional file plus environment variables.
// Unlike a config-file-first deployment, every knob here has a usable default
// so the service can run from env alone.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")

	v.SetDefault("server.address", ":8000")
	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("chunking.size", 1000)
	v.SetDefault("chunking.overlap", 100)
	v.SetDefault("session.timeout", 30*time.Minute)
	v.SetDefault("provider.kind", "local")
	v.SetDefault("provider.base_url", "http://localhost:8081")
	v.SetDefault("provider.model", "google/flan-t5-base")
	v.SetDefault("provider.embedding_model", "sentence-transformers/all-MiniLM-L6-v2")
	v.SetDefault("provider.timeout", 120*time.Second)
	v.SetDefault("provider.max_input_tokens", 2048)
	v.SetDefault("extractor.url", "http://localhost:8082")
	v.SetDefault("extractor.timeout", 60*time.Second)
	v.SetDefault("rate_limit.window", 15*time.Minute)
	v.SetDefault("rate_limit.upload", 10)
	v.SetDefault("rate_limit.ask", 60)
	v.SetDefault("rate_limit.summarize", 15)
	v.SetDefault("rate_limit.compare", 10)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("DOCSAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bare variable names kept for compatibility with existing deployments.
	_ = v.BindEnv("chunking.size", "PDF_CHUNK_SIZE")
	_ = v.BindEnv("chunking.overlap", "PDF_CHUNK_OVERLAP")
	_ = v.BindEnv("provider.model", "GENERATION_MODEL")
	_ = v.BindEnv("provider.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("session.timeout", "SESSION_TIMEOUT")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := config.Chunking.Validate(); err != nil {
		return nil, err
	}
	if err := config.Provider.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
