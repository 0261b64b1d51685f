package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"STORE_BACKEND", "DATABASE_URL", "BADGER_PATH", "MINT_TIMEOUT", "LOG_JSON",
		"CASHU_API_URL", "DISCORD_CLIENT_ID", "DISCORD_CLIENT_SECRET", "DISCORD_REDIRECT_URI",
		"JWT_SECRET",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("DEFAULT_MINT_URL", "https://mint.example.com")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreBadger, cfg.StoreBackend)
	assert.Equal(t, "./data", cfg.BadgerPath)
	assert.Equal(t, 30*time.Second, cfg.MintTimeout)
	assert.Equal(t, "http://localhost:3000", cfg.WebUIBaseURL)
	assert.False(t, cfg.LogJSON)
	assert.False(t, cfg.OAuthEnabled())
}

func TestLoadPostgresFromDatabaseURL(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/cashubot")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.StoreBackend)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "missing token", env: map[string]string{"DISCORD_TOKEN": ""}, want: "DISCORD_TOKEN is required"},
		{name: "missing mint", env: map[string]string{"DEFAULT_MINT_URL": ""}, want: "DEFAULT_MINT_URL is required"},
		{name: "bad mint url", env: map[string]string{"DEFAULT_MINT_URL": "mint.example.com"}, want: "http(s) URL"},
		{name: "postgres without url", env: map[string]string{"STORE_BACKEND": "postgres"}, want: "DATABASE_URL is required"},
		{name: "unknown backend", env: map[string]string{"STORE_BACKEND": "sqlite"}, want: "STORE_BACKEND must be"},
		{name: "bad timeout", env: map[string]string{"MINT_TIMEOUT": "soon"}, want: "MINT_TIMEOUT is invalid"},
		{
			name: "oauth without jwt secret",
			env:  map[string]string{"DISCORD_CLIENT_ID": "id", "DISCORD_CLIENT_SECRET": "secret"},
			want: "JWT_SECRET is required",
		},
		{
			name: "oauth with placeholder jwt secret",
			env:  map[string]string{"DISCORD_CLIENT_ID": "id", "DISCORD_CLIENT_SECRET": "secret", "JWT_SECRET": "dev-only-change-me"},
			want: "JWT_SECRET is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadOAuth(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DISCORD_CLIENT_ID", "id")
	t.Setenv("DISCORD_CLIENT_SECRET", "secret")
	t.Setenv("JWT_SECRET", "a-long-random-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.OAuthEnabled())
	assert.Equal(t, "a-long-random-secret", cfg.JWTSecret)
}

func TestLoadWithoutOAuthHasNoJWTSecret(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.JWTSecret)
}

func TestExtractBaseURL(t *testing.T) {
	assert.Equal(t, "https://bot.example.com", extractBaseURL("https://bot.example.com/api/auth/callback"))
	assert.Equal(t, "http://localhost:3000", extractBaseURL("::not a url"))
}
