package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("FLASH_SECRET", "test-secret-32-characters-long!!")
	t.Setenv("DB_PASSWORD", "test")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "ja", cfg.Server.DefaultLocale)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)

	assert.Equal(t, "memory", cfg.Session.Store)
	assert.Equal(t, 1, cfg.Session.MaxSessions)
	assert.Equal(t, "evict-oldest", cfg.Session.EvictionPolicy)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.False(t, cfg.Session.CookieSecure)
}

func TestLoad_CustomValues(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_READ_TIMEOUT", "30s")
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("SESSION_MAX_PER_USER", "3")
	t.Setenv("SESSION_EVICTION_POLICY", "prevent-login")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 127.0.0.1/32,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "redis", cfg.Session.Store)
	assert.Equal(t, 3, cfg.Session.MaxSessions)
	assert.Equal(t, "prevent-login", cfg.Session.EvictionPolicy)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1/32"}, cfg.Server.TrustedProxies)
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_READ_TIMEOUT", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
}

func TestLoad_ProductionSecureCookieDefault(t *testing.T) {
	setRequired(t)
	t.Setenv("ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Session.CookieSecure)
	assert.True(t, cfg.Server.IsProduction())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing flash secret", map[string]string{"FLASH_SECRET": "", "DB_PASSWORD": "x"}},
		{"missing db password", map[string]string{"FLASH_SECRET": "test-secret-32-characters-long!!", "DB_PASSWORD": ""}},
		{"short secret in production", map[string]string{"FLASH_SECRET": "only-twenty-chars!!!", "DB_PASSWORD": "x", "ENV": "production"}},
		{"unknown store", map[string]string{"FLASH_SECRET": "test-secret-32-characters-long!!", "DB_PASSWORD": "x", "SESSION_STORE": "files"}},
		{"unknown policy", map[string]string{"FLASH_SECRET": "test-secret-32-characters-long!!", "DB_PASSWORD": "x", "SESSION_EVICTION_POLICY": "lifo"}},
		{"zero session ttl", map[string]string{"FLASH_SECRET": "test-secret-32-characters-long!!", "DB_PASSWORD": "x", "SESSION_TTL": "0s"}},
		{"negative session ttl", map[string]string{"FLASH_SECRET": "test-secret-32-characters-long!!", "DB_PASSWORD": "x", "SESSION_TTL": "-5m"}},
		{"zero cleanup interval", map[string]string{"FLASH_SECRET": "test-secret-32-characters-long!!", "DB_PASSWORD": "x", "SESSION_CLEANUP_INTERVAL": "0s"}},
		{"negative cleanup interval", map[string]string{"FLASH_SECRET": "test-secret-32-characters-long!!", "DB_PASSWORD": "x", "SESSION_CLEANUP_INTERVAL": "-1s"}},
		{"zero flash ttl", map[string]string{"FLASH_SECRET": "test-secret-32-characters-long!!", "DB_PASSWORD": "x", "FLASH_TTL": "0s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidateSecret_RejectsWeakValues(t *testing.T) {
	assert.Error(t, validateSecret("changeme", "development"))
	assert.Error(t, validateSecret("short", "development"))
	assert.NoError(t, validateSecret("a-development-secret", "development"))
}

func TestGetEnvAsBool(t *testing.T) {
	t.Setenv("FG_BOOL", "true")
	assert.True(t, getEnvAsBool("FG_BOOL", false))

	os.Unsetenv("FG_BOOL")
	assert.False(t, getEnvAsBool("FG_BOOL", false))
}

func TestLoadDatabase(t *testing.T) {
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_MAX_CONNS", "7")

	db, err := LoadDatabase()

	require.NoError(t, err)
	assert.Equal(t, "db.internal", db.Host)
	assert.Equal(t, 5432, db.Port)
	assert.Equal(t, int32(7), db.MaxConns)
	assert.Equal(t, "formgate", db.Name)
}

func TestLoadDatabase_RequiresPassword(t *testing.T) {
	t.Setenv("DB_PASSWORD", "")

	_, err := LoadDatabase()

	assert.ErrorContains(t, err, "DB_PASSWORD")
}
