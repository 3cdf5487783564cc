package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("RECYCLERIE_CONFIG", filepath.Join(home, "absent.toml"))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".local", "share", "recyclerie", "recyclerie.db"), cfg.Database.Path)
	require.Equal(t, "openrouter", cfg.LLM.Provider)
	require.Equal(t, "OPENROUTER_API_KEY", cfg.LLM.APIKeyEnv)
	require.Equal(t, "https://openrouter.ai/api/v1", cfg.LLM.BaseURL)
	require.Equal(t, 20, cfg.LLM.BatchSize)
	require.Equal(t, 80, cfg.Import.ConfidenceThreshold)
}

func TestLoadEnvOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("RECYCLERIE_CONFIG", filepath.Join(home, "absent.toml"))
	t.Setenv("RECYCLERIE_LLM_MODEL", "mistralai/mistral-small")
	t.Setenv("RECYCLERIE_LLM_BATCH_SIZE", "5")
	t.Setenv("RECYCLERIE_IMPORT_CONFIDENCE_THRESHOLD", "90")
	t.Setenv("RECYCLERIE_DATABASE_PATH", filepath.Join(home, "autre.db"))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "mistralai/mistral-small", cfg.LLM.Model)
	require.Equal(t, 5, cfg.LLM.BatchSize)
	require.Equal(t, 90, cfg.Import.ConfidenceThreshold)
	require.Equal(t, filepath.Join(home, "autre.db"), cfg.Database.Path)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("RECYCLERIE_CONFIG", filepath.Join(home, "config.toml"))

	want := Config{
		Database: DatabaseConfig{Path: filepath.Join(home, "recyclerie.db")},
		LLM: LLMConfig{
			Provider:  "openrouter",
			APIKeyEnv: "MY_KEY",
			APIKey:    "sk-literal",
			Model:     "google/gemini-flash",
			BaseURL:   "https://openrouter.ai/api/v1",
			BatchSize: 10,
		},
		Import: ImportConfig{ConfidenceThreshold: 85},
	}
	require.NoError(t, Save(want))

	got, err := Load()
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestResolveAPIKeyPrecedence(t *testing.T) {
	cfg := Config{LLM: LLMConfig{APIKeyEnv: "RECYCLERIE_TEST_KEY", APIKey: "sk-literal"}}

	// the env var named by api_key_env wins over the literal value
	t.Setenv("RECYCLERIE_TEST_KEY", "sk-env")
	require.Equal(t, "sk-env", ResolveAPIKey(cfg))

	t.Setenv("RECYCLERIE_TEST_KEY", "")
	require.Equal(t, "sk-literal", ResolveAPIKey(cfg))
}

func TestResolveAPIKeyDefaultEnvName(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-default-env")
	require.Equal(t, "sk-default-env", ResolveAPIKey(Config{}))
}
