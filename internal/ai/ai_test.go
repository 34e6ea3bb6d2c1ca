package ai

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/stockroom/internal/testutil"
)

func TestCheckReadOnly(t *testing.T) {
	tests := []struct {
		query string
		ok    bool
	}{
		{"SELECT * FROM items", true},
		{"  select display_name from items where current_stock <= reorder_qty;", true},
		{"WITH low AS (SELECT id FROM items) SELECT COUNT(*) FROM low", true},
		{"SELECT setting_value FROM system_settings", true},
		{"", false},
		{";", false},
		{"UPDATE items SET current_stock = 0", false},
		{"DELETE FROM items", false},
		{"SELECT 1; DROP TABLE items", false},
		{"SELECT * FROM items; SELECT * FROM users", false},
		{"WITH x AS (DELETE FROM items RETURNING id) SELECT * FROM x", false},
		{"SELECT * INTO OUTFILE '/tmp/x' FROM users", false},
		{"PRAGMA table_info(items)", false},
		{"EXPLAIN SELECT 1", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			err := CheckReadOnly(tt.query)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrNotReadOnly)
			}
		})
	}
}

func TestRunReadOnlyQuery(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedItem(t, db, "Flour", testutil.ItemOpts{CurrentStock: 3, ReorderQty: 10})
	testutil.SeedItem(t, db, "Sugar", testutil.ItemOpts{CurrentStock: 40, ReorderQty: 10})

	out, err := RunReadOnlyQuery(context.Background(), db,
		"SELECT display_name, current_stock FROM items WHERE current_stock <= reorder_qty")
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Flour", rows[0]["display_name"])
	assert.EqualValues(t, 3, rows[0]["current_stock"])
}

func TestCheckReadOnly_RestrictedColumns(t *testing.T) {
	for _, q := range []string{
		"SELECT email, password_hash FROM users",
		"SELECT email FROM users WHERE PASSWORD_HASH IS NOT NULL",
		"SELECT substr(u.password_hash, 1, 7) AS algo FROM users u",
	} {
		t.Run(q, func(t *testing.T) {
			assert.ErrorIs(t, CheckReadOnly(q), ErrRestrictedColumn)
		})
	}
	assert.NoError(t, CheckReadOnly("SELECT email, role FROM users"))
}

func TestRunReadOnlyQuery_HidesPasswordHash(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedUser(t, db, "a@example.com", testutil.UserOpts{Password: "secret1"})
	ctx := context.Background()

	_, err := RunReadOnlyQuery(ctx, db, "SELECT email, password_hash FROM users")
	assert.ErrorIs(t, err, ErrRestrictedColumn)

	for _, q := range []string{"SELECT * FROM users", "SELECT t.* FROM (SELECT * FROM users) t"} {
		out, err := RunReadOnlyQuery(ctx, db, q)
		require.NoError(t, err, q)
		assert.NotContains(t, out, "$2a$", q)

		var rows []map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &rows))
		require.Len(t, rows, 1)
		assert.Equal(t, "a@example.com", rows[0]["email"])
		assert.NotContains(t, rows[0], "password_hash")
	}
}

func TestRunReadOnlyQuery_RefusesWrites(t *testing.T) {
	db := testutil.NewDB(t)
	item := testutil.SeedItem(t, db, "Flour", testutil.ItemOpts{CurrentStock: 3})

	_, err := RunReadOnlyQuery(context.Background(), db, "UPDATE items SET current_stock = 0")
	assert.ErrorIs(t, err, ErrNotReadOnly)

	var stock int
	require.NoError(t, db.QueryRow("SELECT current_stock FROM items WHERE id = ?", item.ID).Scan(&stock))
	assert.Equal(t, 3, stock)
}

func TestRunReadOnlyQuery_EmptyResult(t *testing.T) {
	db := testutil.NewDB(t)

	out, err := RunReadOnlyQuery(context.Background(), db, "SELECT id FROM items")
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}
