package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("ENV", "dev")
	t.Setenv("LOG_LEVEL", "info")
	t.Setenv("SESSION_STORE", "postgres")
	t.Setenv("SESSION_TTL", "336h")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 14*24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "postgres", cfg.Session.Store)
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv("ENV", "dev")
	t.Setenv("PORT", "8081")
	t.Setenv("SESSION_STORE", "Redis")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("SHOP_TAX_RATE", "0.20")
	t.Setenv("WORKER_POLL_INTERVAL", "500ms")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, uint16(8081), cfg.Port)
	assert.Equal(t, "redis", cfg.Session.Store)
	assert.Equal(t, 2, cfg.Session.RedisDB)
	assert.Equal(t, "0.20", cfg.Shop.TaxRate)
	assert.Equal(t, 500*time.Millisecond, cfg.Worker.PollInterval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestNewConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("ENV", "staging")
	t.Setenv("LOG_LEVEL", "verbose")
	t.Setenv("SESSION_SECRET", "a-real-secret")
	t.Setenv("SESSION_STORE", "postgres")
	t.Setenv("STORAGE_PROVIDER", "local")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestNewConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown session store",
			env:     map[string]string{"ENV": "dev", "SESSION_STORE": "files"},
			wantErr: "SESSION_STORE",
		},
		{
			name:    "non-positive ttl",
			env:     map[string]string{"ENV": "dev", "SESSION_STORE": "memory", "SESSION_TTL": "0s"},
			wantErr: "SESSION_TTL",
		},
		{
			name:    "default secret in prod",
			env:     map[string]string{"ENV": "prod", "SESSION_STORE": "postgres", "SESSION_SECRET": "dev-secret-change-in-production"},
			wantErr: "SESSION_SECRET",
		},
		{
			name:    "memory sessions in prod",
			env:     map[string]string{"ENV": "prod", "SESSION_SECRET": "s3cret", "SESSION_STORE": "memory"},
			wantErr: "SESSION_STORE=memory",
		},
		{
			name: "r2 without account in prod",
			env: map[string]string{
				"ENV": "prod", "SESSION_SECRET": "s3cret", "SESSION_STORE": "postgres",
				"STORAGE_PROVIDER": "r2", "R2_ACCOUNT_ID": "",
			},
			wantErr: "R2_ACCOUNT_ID",
		},
		{
			name: "s3 without credentials in prod",
			env: map[string]string{
				"ENV": "prod", "SESSION_SECRET": "s3cret", "SESSION_STORE": "postgres",
				"STORAGE_PROVIDER": "s3", "STORAGE_ACCESS_KEY": "", "STORAGE_SECRET_KEY": "",
			},
			wantErr: "storage credentials",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SESSION_TTL", "1h")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := NewConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
