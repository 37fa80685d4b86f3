package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	OSU        OSUConfig        `mapstructure:"osu"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	TokenStore TokenStoreConfig `mapstructure:"token_store"`
	Filters    FilterConfig     `mapstructure:"filters"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// OSUConfig holds the OAuth application and API endpoint details
type OSUConfig struct {
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	RedirectURI  string   `mapstructure:"redirect_uri"`
	Grant        string   `mapstructure:"grant"`
	Scopes       []string `mapstructure:"scopes"`
	BaseURL      string   `mapstructure:"base_url"`
	TokenURL     string   `mapstructure:"token_url"`
	AuthorizeURL string   `mapstructure:"authorize_url"`
	APIVersion   string   `mapstructure:"api_version"`
}

// HTTPConfig contains transport settings
type HTTPConfig struct {
	Timeout              time.Duration `mapstructure:"timeout"`
	MaxRateLimitAttempts int           `mapstructure:"max_rate_limit_attempts"`
	MaxServerAttempts    int           `mapstructure:"max_server_attempts"`
	UserAgent            string        `mapstructure:"user_agent"`
}

// TokenStoreConfig selects where credentials are persisted
type TokenStoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	DSN    string `mapstructure:"dsn"`
	Key    string `mapstructure:"key"`
}

// FilterConfig contains named filter expressions
type FilterConfig map[string]string

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
