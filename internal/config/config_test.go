package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, ProviderMock, cfg.Provider)
	assert.Equal(t, "memory", cfg.StorageBackend)
	assert.Equal(t, "memory", cfg.SessionBackend)
	assert.Equal(t, 30*time.Second, cfg.ModelTimeout)
	assert.Equal(t, []string{DefaultFrontendOrigin}, cfg.FrontendOrigins)
}

func TestLegacyEnvironmentNames(t *testing.T) {
	t.Setenv("GOOGLE_API_KEYS", "key-a, key-b,,key-c")
	t.Setenv("FRONTEND_ORIGIN", "https://bytebot.example")
	t.Setenv("PORT", "9090")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, []string{"key-a", "key-b", "key-c"}, cfg.APIKeys)
	assert.Equal(t, []string{"https://bytebot.example", DefaultFrontendOrigin}, cfg.FrontendOrigins)
	assert.Equal(t, "9090", cfg.Port)
}

func TestPrefixedEnvironmentWins(t *testing.T) {
	t.Setenv("BYTEBOT_PORT", "7000")
	t.Setenv("PORT", "9090")
	t.Setenv("BYTEBOT_MODEL_TIMEOUT", "5s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.ModelTimeout)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bytebot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
provider: openai
api_keys: [sk-1]
openai_base_url: http://localhost:11434/v1
session_backend: redis
redis_addr: redis:6379
session_ttl: 10m
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, []string{"sk-1"}, cfg.APIKeys)
	assert.Equal(t, "redis", cfg.SessionBackend)
	assert.Equal(t, 10*time.Minute, cfg.SessionTTL)
}

func TestValidate(t *testing.T) {
	cases := map[string]map[string]string{
		"gemini without keys":    {"BYTEBOT_PROVIDER": "gemini"},
		"vertex without project": {"BYTEBOT_PROVIDER": "vertex"},
		"unknown provider":       {"BYTEBOT_PROVIDER": "carrier-pigeon"},
		"unknown storage":        {"BYTEBOT_STORAGE_BACKEND": "postgres"},
		"unknown sessions":       {"BYTEBOT_SESSION_BACKEND": "disk"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}
