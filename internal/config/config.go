package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Embedding cache backends accepted by EMBED_CACHE.
const (
	CacheSQLite = "sqlite"
	CacheQdrant = "qdrant"
	CacheNone   = "none"
)

// Config holds all configuration for the application.
// It is read once at process start and injected into the components that need it.
type Config struct {
	OllamaHost     string
	GeneralModel   string
	ReasoningModel string
	EmbedModel     string

	MaxCharsPerChunk int
	TopKChunks       int
	DocStorePath     string

	Temperature   float64
	TopP          float64
	MaxTokens     int
	PromptVersion string

	EmbedTimeout time.Duration
	ChatTimeout  time.Duration

	EmbedCache       string
	EmbedCachePath   string
	QdrantURL        string
	QdrantCollection string
	QdrantVectorSize int

	APIPort        string
	MaxUploadBytes int64
	LogLevel       slog.Level
	LogFormat      string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates numeric fields.
// If a .env file exists in the current directory or one of its parents, it is loaded first;
// variables already set in the environment take precedence over .env values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		OllamaHost:       strings.TrimRight(getEnv("OLLAMA_HOST", "http://ollama:11434"), "/"),
		GeneralModel:     getEnv("GENERAL_MODEL", "llama3.1:8b"),
		ReasoningModel:   getEnv("REASONING_MODEL", "deepseek-r1:8b"),
		EmbedModel:       getEnv("EMBED_MODEL", "llama3.1:8b"),
		DocStorePath:     getEnv("DOC_STORE_PATH", "./doc_store"),
		PromptVersion:    getEnv("PROMPT_VERSION", "bench-rag-v1"),
		EmbedCache:       strings.ToLower(getEnv("EMBED_CACHE", CacheSQLite)),
		EmbedCachePath:   getEnv("EMBED_CACHE_PATH", "./data/embeddings.db"),
		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "chunk_embeddings"),
		APIPort:          getEnv("API_PORT", "8000"),
		LogFormat:        strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	if cfg.MaxCharsPerChunk, err = positiveInt("MAX_CHARS_PER_CHUNK", 1500); err != nil {
		return nil, err
	}
	if cfg.TopKChunks, err = positiveInt("TOP_K_CHUNKS", 12); err != nil {
		return nil, err
	}
	if cfg.MaxTokens, err = positiveInt("MAX_TOKENS", 1024); err != nil {
		return nil, err
	}
	if cfg.Temperature, err = floatEnv("TEMPERATURE", 0.2); err != nil {
		return nil, err
	}
	if cfg.TopP, err = floatEnv("TOP_P", 0.9); err != nil {
		return nil, err
	}

	embedTimeout, err := positiveInt("EMBED_TIMEOUT_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	cfg.EmbedTimeout = time.Duration(embedTimeout) * time.Second

	// Generation time grows with the token budget, so the chat timeout follows MAX_TOKENS by default.
	chatTimeout, err := positiveInt("CHAT_TIMEOUT_SECONDS", cfg.MaxTokens*2)
	if err != nil {
		return nil, err
	}
	cfg.ChatTimeout = time.Duration(chatTimeout) * time.Second

	maxUpload, err := positiveInt("MAX_UPLOAD_BYTES", 32<<20)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(maxUpload)

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	switch cfg.EmbedCache {
	case CacheSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.EmbedCachePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create embedding cache directory: %w", err)
		}
	case CacheQdrant:
		// The collection is created up front, so its dimensionality must be known.
		vectorSize, err := positiveInt("QDRANT_VECTOR_SIZE", 0)
		if err != nil {
			return nil, err
		}
		if vectorSize == 0 {
			return nil, fmt.Errorf("QDRANT_VECTOR_SIZE is required when EMBED_CACHE=qdrant")
		}
		cfg.QdrantVectorSize = vectorSize
	case CacheNone:
	default:
		return nil, fmt.Errorf("EMBED_CACHE must be one of sqlite, qdrant, none; got %q", cfg.EmbedCache)
	}

	if err := os.MkdirAll(cfg.DocStorePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create doc store directory: %w", err)
	}

	return cfg, nil
}

// Summary returns the non-secret settings for diagnostics endpoints.
func (c *Config) Summary() map[string]any {
	return map[string]any{
		"ollama_host":         c.OllamaHost,
		"general_model":       c.GeneralModel,
		"reasoning_model":     c.ReasoningModel,
		"embed_model":         c.EmbedModel,
		"max_chars_per_chunk": c.MaxCharsPerChunk,
		"top_k_chunks":        c.TopKChunks,
		"doc_store_path":      c.DocStorePath,
		"prompt_version":      c.PromptVersion,
		"temperature":         c.Temperature,
		"top_p":               c.TopP,
		"max_tokens":          c.MaxTokens,
		"embed_cache":         c.EmbedCache,
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func positiveInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return v, nil
}

func floatEnv(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	return v, nil
}
