// Package config loads faqd configuration from YAML with environment
// overrides. Every field has a documented default so a missing or empty
// config file yields a fully working setup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Store      StoreConfig      `yaml:"store"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// RetrievalConfig tunes score fusion and the two sub-indexes.
type RetrievalConfig struct {
	// BM25Weight is the lexical share of the fused score (default: 0.3).
	BM25Weight float64 `yaml:"bm25_weight"`

	// VectorWeight is the semantic share of the fused score (default: 0.7).
	VectorWeight float64 `yaml:"vector_weight"`

	// TopKBM25 is how many lexical candidates feed fusion (default: 10).
	TopKBM25 int `yaml:"top_k_bm25"`

	// TopKVector is how many semantic candidates feed fusion (default: 10).
	TopKVector int `yaml:"top_k_vector"`

	// BM25K1 is the term frequency saturation parameter (default: 1.5).
	BM25K1 float64 `yaml:"bm25_k1"`

	// BM25B is the length normalization parameter (default: 0.75).
	BM25B float64 `yaml:"bm25_b"`

	// DefaultLanguage is used when a request gives none (default: "auto").
	DefaultLanguage string `yaml:"default_language"`
}

// EmbeddingsConfig selects and tunes the embedding provider.
type EmbeddingsConfig struct {
	// Provider is "ollama", "static", or "auto" (default: "auto").
	Provider string `yaml:"provider"`

	// Model is the embedding model name (default: "bge-m3").
	Model string `yaml:"model"`

	// OllamaHost is the Ollama base URL (default: "http://localhost:11434").
	OllamaHost string `yaml:"ollama_host"`

	// Dimensions overrides autodetected vector width (default: 0 = detect).
	Dimensions int `yaml:"dimensions"`

	// BatchSize caps texts per provider call (default: 32).
	BatchSize int `yaml:"batch_size"`

	// CacheSize is the embedding LRU capacity, 0 disables (default: 10000).
	CacheSize int `yaml:"cache_size"`

	// Timeout bounds one provider call (default: 60s).
	Timeout time.Duration `yaml:"timeout"`
}

// StoreConfig locates the document store.
type StoreConfig struct {
	// Path is the data directory holding faqd.db (default: ~/.faqd).
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Host is the listen address (default: 127.0.0.1).
	Host string `yaml:"host"`

	// Port is the listen port (default: 8093).
	Port int `yaml:"port"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	// Level is debug, info, warn, or error (default: info).
	Level string `yaml:"level"`

	// File receives JSON logs; empty logs to stderr only.
	File string `yaml:"file"`
}

// Default returns the configuration with all defaults applied.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Retrieval: RetrievalConfig{
			BM25Weight:      0.3,
			VectorWeight:    0.7,
			TopKBM25:        10,
			TopKVector:      10,
			BM25K1:          1.5,
			BM25B:           0.75,
			DefaultLanguage: "auto",
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "auto",
			Model:      "bge-m3",
			OllamaHost: "http://localhost:11434",
			BatchSize:  32,
			CacheSize:  10000,
			Timeout:    60 * time.Second,
		},
		Store: StoreConfig{
			Path: filepath.Join(home, ".faqd"),
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8093,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the config file at path (missing file is fine), then applies
// FAQD_* environment overrides, then validates.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays FAQD_* environment variables onto the config.
func (c *Config) applyEnv() {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setFloat := func(key string, dst *float64) {
		if v := os.Getenv(key); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setFloat("FAQD_BM25_WEIGHT", &c.Retrieval.BM25Weight)
	setFloat("FAQD_VECTOR_WEIGHT", &c.Retrieval.VectorWeight)
	setInt("FAQD_TOP_K_BM25", &c.Retrieval.TopKBM25)
	setInt("FAQD_TOP_K_VECTOR", &c.Retrieval.TopKVector)
	setString("FAQD_DEFAULT_LANGUAGE", &c.Retrieval.DefaultLanguage)

	setString("FAQD_EMBEDDER", &c.Embeddings.Provider)
	setString("FAQD_EMBED_MODEL", &c.Embeddings.Model)
	setString("FAQD_OLLAMA_HOST", &c.Embeddings.OllamaHost)
	setInt("FAQD_EMBED_BATCH_SIZE", &c.Embeddings.BatchSize)

	setString("FAQD_DATA_DIR", &c.Store.Path)
	setString("FAQD_HOST", &c.Server.Host)
	setInt("FAQD_PORT", &c.Server.Port)
	setString("FAQD_LOG_LEVEL", &c.Logging.Level)
	setString("FAQD_LOG_FILE", &c.Logging.File)
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Retrieval.BM25Weight < 0 || c.Retrieval.VectorWeight < 0 {
		return fmt.Errorf("retrieval weights must be non-negative (bm25=%.2f, vector=%.2f)",
			c.Retrieval.BM25Weight, c.Retrieval.VectorWeight)
	}
	if c.Retrieval.BM25Weight+c.Retrieval.VectorWeight == 0 {
		return fmt.Errorf("at least one retrieval weight must be positive")
	}
	if c.Retrieval.TopKBM25 <= 0 || c.Retrieval.TopKVector <= 0 {
		return fmt.Errorf("top_k_bm25 and top_k_vector must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}
	return nil
}

// Addr returns the host:port the HTTP server binds to.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
