package cli

import (
	"bytes"
	"database/sql"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "stockroom", cmd.Use)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, path := range [][]string{{"serve"}, {"migrate"}, {"user", "add"}} {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err, "command %v should exist", path)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}
}

func TestUserAddFlags(t *testing.T) {
	cmd := NewRootCommand()
	add, _, err := cmd.Find([]string{"user", "add"})
	require.NoError(t, err)

	role := add.Flags().Lookup("role")
	require.NotNil(t, role)
	assert.Equal(t, "STAFF", role.DefValue)
	assert.NotNil(t, add.Flags().Lookup("email"))
	assert.NotNil(t, add.Flags().Lookup("name"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestMigrateThenAddUser(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "cli.db")
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("DB_DSN_PRIMARY", dsn)
	t.Setenv("APP_ENV", "development")

	run := func(args ...string) string {
		t.Helper()
		var out bytes.Buffer
		cmd := NewRootCommand()
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(args)
		require.NoError(t, cmd.Execute(), out.String())
		return out.String()
	}

	assert.Contains(t, run("migrate"), "Schema is up to date.")
	out := run("user", "add", "--email", "Owner@Example.com", "--name", "Owner", "--role", "ADMIN")
	assert.Contains(t, out, "Created ADMIN user owner@example.com")

	db, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	defer db.Close()

	var role string
	var hash sql.NullString
	require.NoError(t, db.QueryRow("SELECT role, password_hash FROM users WHERE email = ?", "owner@example.com").Scan(&role, &hash))
	assert.Equal(t, "ADMIN", role)
	assert.False(t, hash.Valid, "password is set on first login")
}

func TestUserAddRejectsBadRole(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("DB_DSN_PRIMARY", filepath.Join(t.TempDir(), "cli.db"))

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"user", "add", "--email", "a@example.com", "--role", "OWNER"})
	assert.Error(t, cmd.Execute())
}
