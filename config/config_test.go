package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func validConfig() *Config {
	return &Config{
		OSU: OSUConfig{
			ClientID:     "1234",
			ClientSecret: "secret",
			Grant:        "client_credentials",
			BaseURL:      "https://osu.ppy.sh/api/v2",
			TokenURL:     "https://osu.ppy.sh/oauth/token",
		},
		HTTP:       HTTPConfig{Timeout: time.Second, MaxRateLimitAttempts: 5, MaxServerAttempts: 3},
		TokenStore: TokenStoreConfig{Driver: "memory"},
		Logging:    LoggingConfig{Level: "info", Format: "console"},
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
osu:
  client_id: "1234"
  client_secret: "s3cret"
filters:
  top: PP > 300
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "1234", cfg.OSU.ClientID)
	assert.Equal(t, "client_credentials", cfg.OSU.Grant)
	assert.Equal(t, []string{"public"}, cfg.OSU.Scopes)
	assert.Equal(t, "https://osu.ppy.sh/api/v2", cfg.OSU.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 5, cfg.HTTP.MaxRateLimitAttempts)
	assert.Equal(t, 3, cfg.HTTP.MaxServerAttempts)
	assert.Equal(t, "file", cfg.TokenStore.Driver)
	assert.NotEmpty(t, cfg.TokenStore.Path)
	assert.Equal(t, "PP > 300", cfg.Filters["top"])
	assert.Equal(t, "client_credentials", cfg.StoreKey())
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, `
osu:
  client_id: "1234"
  client_secret: "from-file"
`)
	t.Setenv("OSUAPI_OSU_CLIENT_SECRET", "from-env")
	t.Setenv("OSUAPI_HTTP_TIMEOUT", "5s")
	t.Setenv("OSUAPI_TOKEN_STORE_DRIVER", "memory")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.OSU.ClientSecret)
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, "memory", cfg.TokenStore.Driver)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	path := writeConfig(t, `
osu:
  client_id: "1234"
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "osu.client_secret")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing client id", mutate: func(c *Config) { c.OSU.ClientID = "" }, wantErr: "osu.client_id"},
		{name: "placeholder secret", mutate: func(c *Config) { c.OSU.ClientSecret = "your-client-secret" }, wantErr: "osu.client_secret"},
		{name: "unknown grant", mutate: func(c *Config) { c.OSU.Grant = "password" }, wantErr: "invalid osu.grant"},
		{
			name:    "auth code without redirect",
			mutate:  func(c *Config) { c.OSU.Grant = "authorization_code" },
			wantErr: "osu.redirect_uri",
		},
		{
			name: "auth code with redirect",
			mutate: func(c *Config) {
				c.OSU.Grant = "authorization_code"
				c.OSU.RedirectURI = "http://localhost:7270/callback"
			},
		},
		{name: "zero timeout", mutate: func(c *Config) { c.HTTP.Timeout = 0 }, wantErr: "http.timeout"},
		{name: "zero attempts", mutate: func(c *Config) { c.HTTP.MaxServerAttempts = 0 }, wantErr: "retry attempts"},
		{name: "file without path", mutate: func(c *Config) { c.TokenStore.Driver = "file" }, wantErr: "token_store.path"},
		{name: "sqlite without dsn", mutate: func(c *Config) { c.TokenStore.Driver = "sqlite" }, wantErr: "token_store.dsn"},
		{name: "unknown driver", mutate: func(c *Config) { c.TokenStore.Driver = "redis" }, wantErr: "token_store.driver"},
		{name: "bad level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: "logging level"},
		{name: "bad format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "logging format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStoreKey(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "client_credentials", cfg.StoreKey())

	cfg.OSU.Grant = "authorization_code"
	assert.Equal(t, "authorization_code", cfg.StoreKey())

	cfg.TokenStore.Key = "bot"
	assert.Equal(t, "bot", cfg.StoreKey())
}
