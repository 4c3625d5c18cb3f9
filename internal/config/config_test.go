package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 5*time.Second, cfg.Refresh.Cooldown)
	assert.Equal(t, 3*time.Second, cfg.Refresh.CallInterval)
	assert.Equal(t, time.Hour, cfg.Refresh.ScheduleInterval)
	assert.Equal(t, 90*24*time.Hour, cfg.Refresh.Retention)
	assert.Equal(t, 730, cfg.Steam.AppID)
	assert.Equal(t, "GBP", cfg.Steam.CurrencyCode)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("REFRESH_COOLDOWN", "30s")
	t.Setenv("REFRESH_CALL_INTERVAL", "1500ms")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,https://skins.example.com")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 30*time.Second, cfg.Refresh.Cooldown)
	assert.Equal(t, 1500*time.Millisecond, cfg.Refresh.CallInterval)
	assert.Equal(t, []string{"http://localhost:5173", "https://skins.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")

	_, err := Load()
	assert.ErrorContains(t, err, "STORE_DRIVER")
}

func TestLoad_APITokenOutsideDevelopment(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		token   string
		wantErr bool
	}{
		{name: "development accepts the default token", env: "development", token: DevAPIToken},
		{name: "production rejects the default token", env: "production", token: DevAPIToken, wantErr: true},
		{name: "production rejects an empty token", env: "production", token: "", wantErr: true},
		{name: "production accepts a real token", env: "production", token: "s3cret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			t.Setenv("APP_ENV", tt.env)
			t.Setenv("API_TOKEN", tt.token)

			// Execute
			cfg, err := Load()

			// Assert
			if tt.wantErr {
				assert.ErrorContains(t, err, "API_TOKEN")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.env == "development", cfg.App.IsDevelopment())
		})
	}
}

func TestStoreConfig_PostgresDSN(t *testing.T) {
	tests := []struct {
		name  string
		store StoreConfig
		want  string
	}{
		{
			name:  "explicit connection string wins",
			store: StoreConfig{ConnStr: "postgres://u:p@db:5432/skins?sslmode=disable", Host: "ignored"},
			want:  "postgres://u:p@db:5432/skins?sslmode=disable",
		},
		{
			name:  "built from parts",
			store: StoreConfig{Host: "db", Port: 5433, User: "u", Password: "p", Name: "skins", SSLMode: "require"},
			want:  "host=db port=5433 user=u password=p dbname=skins sslmode=require",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.store.PostgresDSN())
		})
	}
}
