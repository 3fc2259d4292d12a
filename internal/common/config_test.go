package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 20, cfg.Analysis.ShortWindow)
	assert.Equal(t, 50, cfg.Analysis.LongWindow)
	assert.Equal(t, 0.02, cfg.Analysis.BuyThreshold)
	assert.Equal(t, "ollama", cfg.Narrative.Backend)
	assert.Equal(t, 15*time.Minute, cfg.Cache.GetTTL())
	assert.Equal(t, 30*time.Second, cfg.Clients.Yahoo.GetTimeout())
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stockpilot.toml")

	content := `
environment = "production"

[server]
port = 9090

[analysis]
short_window = 10
buy_threshold = 0.05

[narrative]
backend = "none"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Analysis.ShortWindow)
	assert.Equal(t, 0.05, cfg.Analysis.BuyThreshold)
	assert.Equal(t, "none", cfg.Narrative.Backend)

	// Unset fields keep defaults
	assert.Equal(t, 50, cfg.Analysis.LongWindow)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig("does/not/exist.toml")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("STOCKPILOT_PORT", "7070")
	t.Setenv("STOCKPILOT_LOG_LEVEL", "debug")
	t.Setenv("STOCKPILOT_NARRATIVE_BACKEND", "gemini")
	t.Setenv("OLLAMA_HOST", "http://model-host:11434")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "gemini", cfg.Narrative.Backend)
	assert.Equal(t, "http://model-host:11434", cfg.Narrative.Ollama.Host)
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")
	key, err := ResolveAPIKey("gemini_api_key", "fallback-key")
	require.NoError(t, err)
	assert.Equal(t, "env-key", key)

	t.Setenv("GEMINI_API_KEY", "")
	key, err = ResolveAPIKey("gemini_api_key", "fallback-key")
	require.NoError(t, err)
	assert.Equal(t, "fallback-key", key)

	_, err = ResolveAPIKey("gemini_api_key", "")
	assert.Error(t, err)
}

func TestGetTimeoutFallback(t *testing.T) {
	pc := ProviderConfig{Timeout: "bogus"}
	assert.Equal(t, 30*time.Second, pc.GetTimeout())

	nc := NarrativeConfig{Timeout: "5s"}
	assert.Equal(t, 5*time.Second, nc.GetTimeout())
}
