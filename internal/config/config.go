package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ProviderGemini = "gemini"
	ProviderVertex = "vertex"
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"

	// DefaultFrontendOrigin is always allowed by CORS, next to any
	// configured origin.
	DefaultFrontendOrigin = "https://bytefinance.vercel.app"
)

type Config struct {
	Port     string `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	// Provider selects the model backends. Empty means gemini when API keys
	// are present and mock otherwise.
	Provider      string        `mapstructure:"provider"`
	APIKeys       []string      `mapstructure:"api_keys"`
	ModelName     string        `mapstructure:"model_name"` // empty picks the backend default
	OpenAIBaseURL string        `mapstructure:"openai_base_url"`
	GCPProjectID  string        `mapstructure:"gcp_project"`
	GCPLocation   string        `mapstructure:"gcp_location"`
	ModelTimeout  time.Duration `mapstructure:"model_timeout"`

	StorageBackend          string `mapstructure:"storage_backend"` // "memory" or "firestore"
	FirebaseCredentials     string `mapstructure:"firebase_credentials"`
	FirebaseCredentialsPath string `mapstructure:"firebase_credentials_path"`

	SessionBackend string        `mapstructure:"session_backend"` // "memory" or "redis"
	RedisAddr      string        `mapstructure:"redis_addr"`
	RedisPassword  string        `mapstructure:"redis_password"`
	RedisDB        int           `mapstructure:"redis_db"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
	MaxSessions    int           `mapstructure:"max_sessions"`

	FrontendOrigins []string `mapstructure:"frontend_origins"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8000")
	v.SetDefault("log_level", "info")

	v.SetDefault("provider", "")
	v.SetDefault("api_keys", []string{})
	v.SetDefault("model_name", "")
	v.SetDefault("openai_base_url", "")
	v.SetDefault("gcp_project", "")
	v.SetDefault("gcp_location", "us-central1")
	v.SetDefault("model_timeout", 30*time.Second)

	v.SetDefault("storage_backend", "memory")
	v.SetDefault("firebase_credentials", "")
	v.SetDefault("firebase_credentials_path", "")

	v.SetDefault("session_backend", "memory")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("session_ttl", 2*time.Hour)
	v.SetDefault("max_sessions", 10000)

	v.SetDefault("frontend_origins", []string{DefaultFrontendOrigin})
}

// Load reads defaults, the optional YAML file at path, and the environment.
// Every key can be set as BYTEBOT_<KEY>; the variable names of the first
// deployment are still honoured.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BYTEBOT")
	v.AutomaticEnv()

	_ = v.BindEnv("port", "BYTEBOT_PORT", "PORT")
	_ = v.BindEnv("api_keys", "BYTEBOT_API_KEYS", "GOOGLE_API_KEYS", "GOOGLE_API_KEY")
	_ = v.BindEnv("frontend_origins", "BYTEBOT_FRONTEND_ORIGINS", "FRONTEND_ORIGIN")
	_ = v.BindEnv("firebase_credentials", "BYTEBOT_FIREBASE_CREDENTIALS", "FIREBASE_CREDENTIALS")
	_ = v.BindEnv("firebase_credentials_path", "BYTEBOT_FIREBASE_CREDENTIALS_PATH", "FIREBASE_CREDENTIALS_PATH")
	_ = v.BindEnv("gcp_project", "BYTEBOT_GCP_PROJECT", "GOOGLE_CLOUD_PROJECT")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.APIKeys = splitList(cfg.APIKeys)
	cfg.FrontendOrigins = splitList(cfg.FrontendOrigins)
	if !slices.Contains(cfg.FrontendOrigins, DefaultFrontendOrigin) {
		cfg.FrontendOrigins = append(cfg.FrontendOrigins, DefaultFrontendOrigin)
	}
	if cfg.Provider == "" {
		cfg.Provider = ProviderMock
		if len(cfg.APIKeys) > 0 {
			cfg.Provider = ProviderGemini
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// splitList accepts both real lists and comma separated values coming
// from a single environment variable.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderOpenAI:
		if len(c.APIKeys) == 0 {
			return fmt.Errorf("provider %s needs at least one API key", c.Provider)
		}
	case ProviderVertex:
		if c.GCPProjectID == "" {
			return errors.New("provider vertex needs gcp_project")
		}
	case ProviderMock:
	default:
		return fmt.Errorf("invalid provider: %q", c.Provider)
	}

	if c.StorageBackend != "memory" && c.StorageBackend != "firestore" {
		return fmt.Errorf("invalid storage backend: %q (must be memory or firestore)", c.StorageBackend)
	}
	if c.SessionBackend != "memory" && c.SessionBackend != "redis" {
		return fmt.Errorf("invalid session backend: %q (must be memory or redis)", c.SessionBackend)
	}
	if c.SessionBackend == "redis" && c.RedisAddr == "" {
		return errors.New("session backend redis needs redis_addr")
	}
	if c.ModelTimeout <= 0 {
		return errors.New("model_timeout must be positive")
	}
	if c.SessionTTL <= 0 {
		return errors.New("session_ttl must be positive")
	}
	return nil
}
