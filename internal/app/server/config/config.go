package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultEnvPath = ".env"

	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	VectorChromem = "chromem"
	VectorRemote  = "remote"

	EmbedderHash   = "hash"
	EmbedderOpenAI = "openai"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Env         string
	ProjectName string
	Version     string
	DB          db
	Server      server
	Auth        auth
	Vector      vector
	Embedding   embedding
	Memory      memoryConf
}

type db struct {
	DatabaseURI string `env:"DATABASE_URI"`
}

type server struct {
	RunAddress  string   `env:"RUN_ADDRESS"`
	CORSOrigins []string `env:"CORS_ORIGINS"`
}

type auth struct {
	Secret   string        `env:"JWT_SECRET"`
	TokenTTL time.Duration `env:"ACCESS_TOKEN_EXPIRE_MINUTES"`
	// GeneratedSecret - секрет не задан и сгенерирован на время жизни процесса
	GeneratedSecret bool
}

type vector struct {
	Backend     string        `env:"VECTOR_BACKEND"`
	URL         string        `env:"VECTOR_URL"`
	APIKey      string        `env:"VECTOR_API_KEY"`
	Timeout     time.Duration `env:"VECTOR_TIMEOUT_SECONDS"`
	RateLimit   float64       `env:"VECTOR_RATE_LIMIT"`
	ChromemPath string        `env:"CHROMEM_PATH"`
}

type embedding struct {
	Provider      string `env:"EMBEDDER"`
	OpenAIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	Model         string `env:"EMBEDDING_MODEL"`
	CacheSize     int64  `env:"EMBEDDING_CACHE_SIZE"`
}

type memoryConf struct {
	SearchOrder     string        `env:"SEARCH_ORDER"`
	MaxTokens       int           `env:"MEMORY_MAX_TOKENS"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL_MINUTES"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("app_env", EnvLocal)
	v.SetDefault("project_name", "MemVoice API")
	v.SetDefault("version", "0.1.0")
	v.SetDefault("run_address", ":8000")
	v.SetDefault("database_uri", "sqlite3://memvoice.db")
	v.SetDefault("cors_origins", "http://localhost:3000")
	v.SetDefault("access_token_expire_minutes", 60*24*8)
	v.SetDefault("vector_backend", VectorChromem)
	v.SetDefault("vector_timeout_seconds", 30)
	v.SetDefault("vector_rate_limit", 0)
	v.SetDefault("embedder", EmbedderHash)
	v.SetDefault("embedding_cache_size", 10_000)
	v.SetDefault("search_order", "external")
	v.SetDefault("memory_max_tokens", 4096)
	v.SetDefault("cleanup_interval_minutes", 0)
}

// Load - envPath может отсутствовать, тогда используются только переменные окружения
func Load(envPath string) (*Config, error) {
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envPath, err)
	}

	v := viper.New()
	defaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Env:         v.GetString("app_env"),
		ProjectName: v.GetString("project_name"),
		Version:     v.GetString("version"),
		DB: db{
			DatabaseURI: v.GetString("database_uri"),
		},
		Server: server{
			RunAddress:  v.GetString("run_address"),
			CORSOrigins: splitList(v.GetString("cors_origins")),
		},
		Auth: auth{
			Secret:   v.GetString("jwt_secret"),
			TokenTTL: time.Duration(v.GetInt("access_token_expire_minutes")) * time.Minute,
		},
		Vector: vector{
			Backend:     strings.ToLower(v.GetString("vector_backend")),
			URL:         v.GetString("vector_url"),
			APIKey:      v.GetString("vector_api_key"),
			Timeout:     time.Duration(v.GetInt("vector_timeout_seconds")) * time.Second,
			RateLimit:   v.GetFloat64("vector_rate_limit"),
			ChromemPath: v.GetString("chromem_path"),
		},
		Embedding: embedding{
			Provider:      strings.ToLower(v.GetString("embedder")),
			OpenAIKey:     v.GetString("openai_api_key"),
			OpenAIBaseURL: v.GetString("openai_base_url"),
			Model:         v.GetString("embedding_model"),
			CacheSize:     v.GetInt64("embedding_cache_size"),
		},
		Memory: memoryConf{
			SearchOrder:     strings.ToLower(v.GetString("search_order")),
			MaxTokens:       v.GetInt("memory_max_tokens"),
			CleanupInterval: time.Duration(v.GetInt("cleanup_interval_minutes")) * time.Minute,
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.Auth.Secret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.Auth.Secret = secret
		cfg.Auth.GeneratedSecret = true
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("%w: APP_ENV %q", ErrInvalid, c.Env)
	}

	if c.DB.DatabaseURI == "" {
		return fmt.Errorf("%w: DATABASE_URI is empty", ErrInvalid)
	}

	// в проде токены должны переживать рестарт
	if c.Env == EnvProd && c.Auth.Secret == "" {
		return fmt.Errorf("%w: JWT_SECRET is required in prod", ErrInvalid)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("%w: ACCESS_TOKEN_EXPIRE_MINUTES must be positive", ErrInvalid)
	}

	switch c.Vector.Backend {
	case VectorChromem:
	case VectorRemote:
		if c.Vector.URL == "" {
			return fmt.Errorf("%w: VECTOR_URL is required for remote backend", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: VECTOR_BACKEND %q", ErrInvalid, c.Vector.Backend)
	}

	switch c.Embedding.Provider {
	case EmbedderHash:
	case EmbedderOpenAI:
		if c.Embedding.OpenAIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY is required for openai embedder", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: EMBEDDER %q", ErrInvalid, c.Embedding.Provider)
	}

	switch c.Memory.SearchOrder {
	case "external", "relevance":
	default:
		return fmt.Errorf("%w: SEARCH_ORDER %q", ErrInvalid, c.Memory.SearchOrder)
	}

	if c.Memory.CleanupInterval < 0 {
		return fmt.Errorf("%w: CLEANUP_INTERVAL_MINUTES must not be negative", ErrInvalid)
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate jwt secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
