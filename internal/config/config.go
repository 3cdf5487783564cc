package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	LLM      LLMConfig
	Import   ImportConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// LLMConfig holds provider settings. All fields are optional; when the key or
// model is missing the pipeline degrades to fuzzy-only resolution.
type LLMConfig struct {
	Provider  string
	APIKeyEnv string `mapstructure:"api_key_env"`
	APIKey    string `mapstructure:"api_key"`
	Model     string
	BaseURL   string `mapstructure:"base_url"`
	BatchSize int    `mapstructure:"batch_size"`
}

// ImportConfig holds resolution tuning.
type ImportConfig struct {
	ConfidenceThreshold int `mapstructure:"confidence_threshold"`
}

// Load reads configuration from file and env. Env var overrides use prefix RECYCLERIE_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "recyclerie", "recyclerie.db"))
	v.SetDefault("llm.provider", "openrouter")
	v.SetDefault("llm.api_key_env", "OPENROUTER_API_KEY")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("llm.batch_size", 20)
	v.SetDefault("import.confidence_threshold", 80)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("RECYCLERIE_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "recyclerie"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("RECYCLERIE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if needed.
// The API key is stored in plain text in the config file; encourage users to prefer env vars.
func Save(cfg Config) error {
	path := os.Getenv("RECYCLERIE_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "recyclerie", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("llm.provider", cfg.LLM.Provider)
	v.Set("llm.api_key_env", cfg.LLM.APIKeyEnv)
	v.Set("llm.api_key", cfg.LLM.APIKey)
	v.Set("llm.model", cfg.LLM.Model)
	v.Set("llm.base_url", cfg.LLM.BaseURL)
	v.Set("llm.batch_size", cfg.LLM.BatchSize)
	v.Set("import.confidence_threshold", cfg.Import.ConfidenceThreshold)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ResolveAPIKey returns the API key following precedence: env var named in
// api_key_env, then the literal config value.
func ResolveAPIKey(cfg Config) string {
	env := strings.TrimSpace(cfg.LLM.APIKeyEnv)
	if env == "" {
		env = "OPENROUTER_API_KEY"
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return strings.TrimSpace(cfg.LLM.APIKey)
}
