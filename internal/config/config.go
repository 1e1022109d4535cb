// Package config loads and manages wildquest configuration.
// Configuration source priority (highest to lowest):
// 1. Environment variables (LLM_API_KEY, WILDQUEST_SECRET_KEY, MONGO_URI, etc.)
// 2. Config file path specified via --config flag
// 3. ~/.config/wildquest/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProviderConfig holds configuration for a single LLM provider.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	// Driver: "sqlite" (default) | "mongo" | "memory"
	Driver string `yaml:"driver"`

	// SQLitePath is the database file for the sqlite driver.
	// Empty = ~/.local/share/wildquest/wildquest.db
	SQLitePath string `yaml:"sqlite_path"`

	// MongoURI and MongoDatabase configure the mongo driver.
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`
}

// AuthConfig holds token signing settings.
type AuthConfig struct {
	// SecretKey signs access tokens (HS256). Required in production.
	SecretKey string `yaml:"secret_key"`

	// TokenTTLMinutes is the access token lifetime, default 30.
	TokenTTLMinutes int `yaml:"token_ttl_minutes"`
}

// GBIFConfig configures the species-occurrence provider.
type GBIFConfig struct {
	BaseURL  string  `yaml:"base_url"`  // default https://api.gbif.org/v1
	RadiusKm float64 `yaml:"radius_km"` // search radius, default 1
	Limit    int     `yaml:"limit"`     // max occurrence records, default 10
}

// AmadeusConfig configures the tourism-activity provider.
type AmadeusConfig struct {
	BaseURL      string `yaml:"base_url"` // default https://test.api.amadeus.com
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// ContextConfig holds the token budgets for prompt assembly.
type ContextConfig struct {
	// ConversationBudget caps the assembled multi-turn context, default 700.
	ConversationBudget int `yaml:"conversation_budget"`

	// PromptBudget caps one-shot location/place prompts, default 500.
	PromptBudget int `yaml:"prompt_budget"`
}

// Config is the complete configuration structure for wildquest.
type Config struct {
	// Addr is the HTTP listen address, default ":8080".
	Addr string `yaml:"addr"`

	// Provider is the active LLM provider name (e.g. "openai", "anthropic").
	Provider string `yaml:"provider"`

	// Model overrides the provider's default model.
	Model string `yaml:"model"`

	// Providers holds per-provider configuration.
	Providers map[string]*ProviderConfig `yaml:"providers"`

	Store   StoreConfig   `yaml:"store"`
	Auth    AuthConfig    `yaml:"auth"`
	GBIF    GBIFConfig    `yaml:"gbif"`
	Amadeus AmadeusConfig `yaml:"amadeus"`
	Context ContextConfig `yaml:"context"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:      ":8080",
		Provider:  "openai",
		Providers: make(map[string]*ProviderConfig),
		Store: StoreConfig{
			Driver:        "sqlite",
			MongoDatabase: "discussion_db",
		},
		Auth: AuthConfig{
			TokenTTLMinutes: 30,
		},
		GBIF: GBIFConfig{
			BaseURL:  "https://api.gbif.org/v1",
			RadiusKm: 1,
			Limit:    10,
		},
		Amadeus: AmadeusConfig{
			BaseURL: "https://test.api.amadeus.com",
		},
		Context: ContextConfig{
			ConversationBudget: 700,
			PromptBudget:       500,
		},
	}
}

// Load reads the config file and merges environment variable overrides.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Determine config file path
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			configPath = filepath.Join(home, ".config", "wildquest", "config.yaml")
		}
	}

	// Read config file (use defaults if not found)
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
		}
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Initialize providers map
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]*ProviderConfig)
	}

	return cfg, nil
}

// GetProviderConfig returns the config for the named provider, or an empty config if not found.
func (c *Config) GetProviderConfig(name string) *ProviderConfig {
	if pc, ok := c.Providers[name]; ok {
		return pc
	}
	return &ProviderConfig{}
}

// DefaultSQLitePath returns the default database path (~/.local/share/wildquest/wildquest.db).
func DefaultSQLitePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "wildquest", "wildquest.db"), nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// Generic LLM overrides
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		provider := cfg.Provider
		if cfg.Providers[provider] == nil {
			cfg.Providers[provider] = &ProviderConfig{}
		}
		cfg.Providers[provider].APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		provider := cfg.Provider
		if cfg.Providers[provider] == nil {
			cfg.Providers[provider] = &ProviderConfig{}
		}
		cfg.Providers[provider].BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.Model = v
	}

	// Anthropic-specific
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		if cfg.Providers["anthropic"] == nil {
			cfg.Providers["anthropic"] = &ProviderConfig{}
		}
		cfg.Providers["anthropic"].APIKey = v
	}

	// Provider selection
	if v := os.Getenv("WILDQUEST_PROVIDER"); v != "" {
		cfg.Provider = v
	}

	// Server and store
	if v := os.Getenv("WILDQUEST_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		cfg.Store.MongoURI = v
		if cfg.Store.Driver == "sqlite" {
			cfg.Store.Driver = "mongo"
		}
	}

	// Auth
	if v := os.Getenv("WILDQUEST_SECRET_KEY"); v != "" {
		cfg.Auth.SecretKey = v
	}

	// Tourism provider credentials
	if v := os.Getenv("AMADEUS_CLIENT_ID"); v != "" {
		cfg.Amadeus.ClientID = v
	}
	if v := os.Getenv("AMADEUS_CLIENT_SECRET"); v != "" {
		cfg.Amadeus.ClientSecret = v
	}
}
