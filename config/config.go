package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. OSUAPI_OSU_CLIENT_SECRET.
const EnvPrefix = "OSUAPI"

// Load loads the configuration from file and environment. Without an explicit
// path a missing config file is not an error; everything can come from the
// environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".osuapi"))
		}

		v.AddConfigPath("/etc/osuapi/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Keys without a useful default still need one so AutomaticEnv sees them.
	v.SetDefault("osu.client_id", "")
	v.SetDefault("osu.client_secret", "")
	v.SetDefault("osu.redirect_uri", "")
	v.SetDefault("osu.grant", "client_credentials")
	v.SetDefault("osu.scopes", []string{"public"})
	v.SetDefault("osu.base_url", "https://osu.ppy.sh/api/v2")
	v.SetDefault("osu.token_url", "https://osu.ppy.sh/oauth/token")
	v.SetDefault("osu.authorize_url", "https://osu.ppy.sh/oauth/authorize")
	v.SetDefault("osu.api_version", "")

	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("http.max_rate_limit_attempts", 5)
	v.SetDefault("http.max_server_attempts", 3)
	v.SetDefault("http.user_agent", "osuapi-go")

	tokenDir := ".osuapi"
	if home, err := os.UserHomeDir(); err == nil {
		tokenDir = filepath.Join(home, ".osuapi", "tokens")
	}
	v.SetDefault("token_store.driver", "file")
	v.SetDefault("token_store.path", tokenDir)
	v.SetDefault("token_store.dsn", "")
	v.SetDefault("token_store.key", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.OSU.ClientID == "" {
		return fmt.Errorf("osu.client_id is required")
	}
	if cfg.OSU.ClientSecret == "" || cfg.OSU.ClientSecret == "your-client-secret" {
		return fmt.Errorf("osu.client_secret must be set to your OAuth application secret")
	}
	if cfg.OSU.BaseURL == "" {
		return fmt.Errorf("osu.base_url is required")
	}
	if cfg.OSU.TokenURL == "" {
		return fmt.Errorf("osu.token_url is required")
	}

	switch cfg.OSU.Grant {
	case "client_credentials":
	case "authorization_code":
		if cfg.OSU.RedirectURI == "" {
			return fmt.Errorf("osu.redirect_uri is required for the authorization_code grant")
		}
	default:
		return fmt.Errorf("invalid osu.grant: %s (must be 'client_credentials' or 'authorization_code')", cfg.OSU.Grant)
	}

	if cfg.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive")
	}
	if cfg.HTTP.MaxRateLimitAttempts < 1 || cfg.HTTP.MaxServerAttempts < 1 {
		return fmt.Errorf("http retry attempts must be at least 1")
	}

	switch cfg.TokenStore.Driver {
	case "memory":
	case "file":
		if cfg.TokenStore.Path == "" {
			return fmt.Errorf("token_store.path is required for the file driver")
		}
	case "sqlite", "postgres":
		if cfg.TokenStore.DSN == "" {
			return fmt.Errorf("token_store.dsn is required for the %s driver", cfg.TokenStore.Driver)
		}
	default:
		return fmt.Errorf("invalid token_store.driver: %s", cfg.TokenStore.Driver)
	}

	// Validate logging level
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}

// StoreKey returns the key credentials are stored under. Each grant gets its
// own key unless one is configured.
func (c *Config) StoreKey() string {
	if c.TokenStore.Key != "" {
		return c.TokenStore.Key
	}
	return c.OSU.Grant
}
