package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestApplyEnv_Overrides(t *testing.T) {
	cfg := defaults()
	err := applyEnv(&cfg, mapLookup(map[string]string{
		"DB_DRIVER":          "sqlite3",
		"DB_DSN_PRIMARY":     "file:test.db",
		"COOKIE_SECURE":      "true",
		"LOGIN_MAX_ATTEMPTS": "3",
		"LOGIN_WINDOW":       "2m",
		"PORT":               "",
	}))
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, "file:test.db", cfg.DBDSN)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 3, cfg.LoginMaxAttempts)
	assert.Equal(t, 2*time.Minute, cfg.LoginWindow)
	assert.Equal(t, "8080", cfg.Port, "empty values keep the default")
}

func TestApplyEnv_BadBool(t *testing.T) {
	cfg := defaults()
	err := applyEnv(&cfg, mapLookup(map[string]string{"COOKIE_SECURE": "maybe"}))
	assert.ErrorContains(t, err, "COOKIE_SECURE")
}

func TestValidate(t *testing.T) {
	cfg := defaults()
	assert.ErrorContains(t, cfg.Validate(), "DB_DSN_PRIMARY")

	cfg.DBDSN = "root@tcp(127.0.0.1:3306)/stockroom?parseTime=true"
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, []byte(DevJWTSecret), cfg.Secret())

	cfg.Env = "production"
	assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET")

	cfg.JWTSecret = "s3cret"
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, []byte("s3cret"), cfg.Secret())

	cfg.DBDriver = "postgres"
	assert.ErrorContains(t, cfg.Validate(), "DB_DRIVER")
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stockroom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: development
port: "9090"
db_driver: sqlite3
db_dsn: "file:from-yaml.db"
login_window: 5m
`), 0o600))

	for _, key := range []string{"APP_ENV", "PORT", "DB_DRIVER", "DB_DSN_PRIMARY", "LOGIN_WINDOW"} {
		t.Setenv(key, "")
	}

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, "file:from-yaml.db", cfg.DBDSN)
	assert.Equal(t, 5*time.Minute, cfg.LoginWindow)
}
